// package formatter renders devices, region groups, and task results as CSV, Markdown, HTML, aligned text, or YAML
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/desertthunder/signx/internal/filter"
	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shared"
)

// Format is an output format name.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or one of its aliases ("txt", "md", "htm", "yml").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, name)
	}
}

// TagsString joins tags as "<A>=x; <B>=y".
func TagsString(tags []models.Tag) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, tag.Key+"="+tag.Value)
	}
	return strings.Join(parts, "; ")
}

// DevicesToCSV converts devices to CSV with columns: ID, Name, Region, Tags
func DevicesToCSV(devices []models.Device) ([]byte, error) {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.ID, d.Name, d.Region, TagsString(d.Tags)})
	}
	return writeCSV([]string{"ID", "Name", "Region", "Tags"}, rows)
}

// RegionsToCSV flattens region groups to CSV, one row per device, group order preserved.
func RegionsToCSV(groups []models.RegionGroup) ([]byte, error) {
	var rows [][]string
	for _, g := range groups {
		for _, d := range g.Devices {
			rows = append(rows, []string{g.Region, d.ID, d.Name, TagsString(d.Tags)})
		}
	}
	return writeCSV([]string{"Region", "ID", "Name", "Tags"}, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// DevicesToMarkdown renders devices as a Markdown table under title.
func DevicesToMarkdown(title string, devices []models.Device, network string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Devices**: %d\n\n", len(devices)))
	writeMarkdownTable(&buf, devices, network)

	return buf.Bytes()
}

// RegionsToMarkdown renders one section per region group.
func RegionsToMarkdown(title string, groups []models.RegionGroup, network string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	for _, g := range groups {
		buf.WriteString(fmt.Sprintf("## %s (%d)\n\n", g.Region, len(g.Devices)))
		writeMarkdownTable(&buf, g.Devices, network)
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

func writeMarkdownTable(buf *bytes.Buffer, devices []models.Device, network string) {
	buf.WriteString("| ID | Name | Tags |\n")
	buf.WriteString("|----|------|------|\n")
	for _, d := range devices {
		labels := make([]string, 0, len(d.Tags))
		for _, tag := range d.Tags {
			labels = append(labels, fmt.Sprintf("`%s`: %s", filter.TagLabel(tag.Key), tag.Value))
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			escapeCell(d.ID), escapeCell(filter.DisplayName(d.Name, network)), escapeCell(strings.Join(labels, ", "))))
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// DevicesToText renders devices as an aligned table.
func DevicesToText(devices []models.Device, network string) []byte {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.ID, filter.DisplayName(d.Name, network), d.Region, TagsString(d.Tags)})
	}
	return []byte(Table([]string{"ID", "NAME", "REGION", "TAGS"}, rows))
}

// RegionsToText renders each region as a heading followed by its devices.
func RegionsToText(groups []models.RegionGroup, network string) []byte {
	var buf bytes.Buffer
	for i, g := range groups {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf("%s (%d)\n", g.Region, len(g.Devices)))

		rows := make([][]string, 0, len(g.Devices))
		for _, d := range g.Devices {
			rows = append(rows, []string{"  " + d.ID, filter.DisplayName(d.Name, network), TagsString(d.Tags)})
		}
		buf.WriteString(Table(nil, rows))
	}
	return buf.Bytes()
}

// TagKeysToText lists tag keys with their display labels, one per line.
func TagKeysToText(keys []string) []byte {
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, filter.TagLabel(key)})
	}
	return []byte(Table([]string{"KEY", "LABEL"}, rows))
}

// MarkdownToHTML renders a Markdown report as a standalone HTML page. Raw HTML in the input is dropped.
func MarkdownToHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(md)

	renderer := html.NewRenderer(html.RendererOptions{
		Title: "signx",
		Flags: html.CommonFlags | html.CompletePage | html.SkipHTML,
	})
	return markdown.Render(doc, renderer)
}

// ToYAML encodes v with two-space indentation.
func ToYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// Table renders rows as left-aligned columns separated by two spaces.
// Widths are measured in terminal cells so wide characters line up. A nil header omits the header row.
func Table(header []string, rows [][]string) string {
	all := rows
	if header != nil {
		all = append([][]string{header}, rows...)
	}

	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range all {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteFile writes data to path, creating or truncating it.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
