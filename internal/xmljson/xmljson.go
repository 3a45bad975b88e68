// Package xmljson converts DataContract-style XML responses into a JSON-shaped tree.
//
// Element names keep their namespace prefix ("d2p1:Id") so callers address fields exactly as the API names them.
// Repeated siblings collapse into []any and single occurrences stay scalar or map,
// which is the ambiguity [shape.Normalize] resolves downstream.
package xmljson

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// AttrPrefix marks attribute entries in a decoded element map.
const AttrPrefix = "@"

// ErrEmptyDocument is returned when the input holds no root element.
var ErrEmptyDocument = errors.New("xml document has no root element")

// node is an element under construction.
type node struct {
	name     string
	fields   map[string]any
	text     strings.Builder
	children int
	isNil    bool
}

func newNode(start xml.StartElement) *node {
	n := &node{name: qualified(start.Name), fields: map[string]any{}}
	for _, attr := range start.Attr {
		if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
			continue
		}
		if attr.Name.Local == "nil" && strings.EqualFold(attr.Value, "true") {
			n.isNil = true
			continue
		}
		n.fields[AttrPrefix+qualified(attr.Name)] = attr.Value
	}
	return n
}

// add appends a child value, promoting a repeated name to a slice.
func (n *node) add(name string, value any) {
	n.children++
	existing, ok := n.fields[name]
	if !ok {
		n.fields[name] = value
		return
	}
	if list, isList := existing.([]any); isList {
		n.fields[name] = append(list, value)
		return
	}
	n.fields[name] = []any{existing, value}
}

// value collapses the node: nil-marked, text-only, or a map.
func (n *node) value() any {
	if n.isNil {
		return nil
	}
	text := strings.TrimSpace(n.text.String())
	if n.children == 0 && len(n.fields) == 0 {
		if text == "" {
			return map[string]any{}
		}
		return text
	}
	if text != "" {
		n.fields["#text"] = text
	}
	return n.fields
}

// qualified renders a raw (unresolved) name as "prefix:local".
func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// Decode parses an XML document into a map holding a single entry keyed by the root element's local name.
func Decode(data []byte) (map[string]any, error) {
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader is [Decode] over an [io.Reader].
func DecodeReader(r io.Reader) (map[string]any, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		stack []*node
		root  map[string]any
	)

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("failed to parse xml: multiple root elements")
			}
			stack = append(stack, newNode(t))
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("failed to parse xml: unexpected end element %s", qualified(t.Name))
			}
			current := stack[len(stack)-1]
			if qualified(t.Name) != current.name {
				return nil, fmt.Errorf("failed to parse xml: element %s closed by %s", current.name, qualified(t.Name))
			}
			stack = stack[:len(stack)-1]

			if len(stack) == 0 {
				root = map[string]any{t.Name.Local: current.value()}
				continue
			}
			stack[len(stack)-1].add(current.name, current.value())
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("failed to parse xml: unclosed element %s", stack[len(stack)-1].name)
	}
	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

// Path walks nested maps by key and returns the value found, or nil when any step is missing or not a map.
func Path(tree any, keys ...string) any {
	current := tree
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}
