// Package query compiles CEL expressions into device predicates.
//
// An expression sees one device at a time through these variables:
//   - id, name, region: strings
//   - tags: map(string, string) keyed by tag label, so "<Floor>" is tags["Floor"]
//
// Examples: `region == "East"`, `"Floor" in tags && tags["Floor"] != "1"`, `name.startsWith("SITE_")`.
package query

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	celext "github.com/google/cel-go/ext"

	"github.com/desertthunder/signx/internal/filter"
	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shared"
)

// Matcher is a compiled device predicate. It is safe for concurrent use.
type Matcher struct {
	expr string
	prg  cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("region", cel.StringType),
		cel.Variable("tags", cel.MapType(cel.StringType, cel.StringType)),
		celext.Strings(),
	)
}

// Compile parses and type-checks expr. The expression must evaluate to a bool.
func Compile(expr string) (*Matcher, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", shared.ErrInvalidArgument)
	}

	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression must be a bool, got %s", shared.ErrInvalidArgument, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Matcher{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (m *Matcher) String() string { return m.expr }

// Match evaluates the predicate for d.
func (m *Matcher) Match(d models.Device) (bool, error) {
	out, _, err := m.prg.Eval(map[string]any{
		"id":     d.ID,
		"name":   d.Name,
		"region": d.Region,
		"tags":   tagLabels(d.Tags),
	})
	if err != nil {
		return false, fmt.Errorf("eval error on device %s: %w", d.ID, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval error on device %s: result is %T, not bool", d.ID, out.Value())
	}
	return matched, nil
}

// Devices returns the devices m matches, in input order.
//
// A device whose evaluation fails (e.g. a missing tag read without an `in` check) is skipped;
// the first such error is returned alongside the matches.
func (m *Matcher) Devices(devices []models.Device) ([]models.Device, error) {
	out := []models.Device{}
	var firstErr error
	for _, d := range devices {
		ok, err := m.Match(d)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, firstErr
}

// tagLabels keys tag values by label. The first value wins on duplicate labels.
func tagLabels(tags []models.Tag) map[string]string {
	labels := make(map[string]string, len(tags))
	for _, tag := range tags {
		label := filter.TagLabel(tag.Key)
		if _, seen := labels[label]; !seen {
			labels[label] = tag.Value
		}
	}
	return labels
}
