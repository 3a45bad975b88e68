// Package shape reconciles the singleton-vs-array ambiguity of XML-derived data.
//
// When XML is translated to JSON, a repeatable element with one occurrence becomes an object while two or more become an array.
// [Normalize] turns either encoding into an ordered slice of records so callers never branch on cardinality.
// [List] does the same for typed JSON decoding.
package shape

import (
	"bytes"
	"encoding/json"
)

// Record is a single decoded element: namespaced field name to value.
type Record = map[string]any

// Normalize returns raw as an ordered sequence of records.
//
//   - nil yields an empty sequence
//   - a single record yields a one-element sequence
//   - a sequence is copied, with every non-record element replaced by an empty record
//   - any other value is a malformed single record and yields one empty record
//
// The input is never mutated and the result is always a new, non-nil slice.
func Normalize(raw any) []Record {
	switch v := raw.(type) {
	case nil:
		return []Record{}
	case Record:
		if v == nil {
			return []Record{}
		}
		return []Record{v}
	case []Record:
		out := make([]Record, len(v))
		for i, rec := range v {
			if rec == nil {
				rec = Record{}
			}
			out[i] = rec
		}
		return out
	case []any:
		out := make([]Record, len(v))
		for i, elem := range v {
			rec, ok := elem.(Record)
			if !ok || rec == nil {
				rec = Record{}
			}
			out[i] = rec
		}
		return out
	default:
		return []Record{{}}
	}
}

// List is a slice that decodes from JSON null, a single value, or an array of values.
type List[T any] []T

// UnmarshalJSON implements [json.Unmarshaler].
func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = List[T]{}
		return nil
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if items == nil {
			items = []T{}
		}
		*l = items
		return nil
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*l = List[T]{item}
	return nil
}
