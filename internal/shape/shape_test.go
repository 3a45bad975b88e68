package shape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	a := Record{"d4p1:Key": "<A>", "d4p1:Value": "x"}
	b := Record{"d4p1:Key": "<B>", "d4p1:Value": "y"}

	tc := []struct {
		name string
		raw  any
		want []Record
	}{
		{name: "nil", raw: nil, want: []Record{}},
		{name: "typed nil record", raw: Record(nil), want: []Record{}},
		{name: "single record", raw: a, want: []Record{a}},
		{name: "array of records", raw: []any{a, b}, want: []Record{a, b}},
		{name: "typed record slice", raw: []Record{a, nil}, want: []Record{a, {}}},
		{name: "empty array", raw: []any{}, want: []Record{}},
		{name: "malformed entries", raw: []any{a, "oops", nil, 42, []any{b}}, want: []Record{a, {}, {}, {}, {}}},
		{name: "scalar", raw: "text", want: []Record{{}}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeSingleTag(t *testing.T) {
	raw := Record{"key": "<A>", "value": "1"}
	assert.Equal(t, []Record{{"key": "<A>", "value": "1"}}, Normalize(raw))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []any{
		nil,
		Record{"a": "1"},
		[]any{Record{"a": "1"}, "bad", nil},
		[]Record{{"b": "2"}},
		3.14,
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizeDoesNotMutate(t *testing.T) {
	in := []any{Record{"a": "1"}, "bad"}
	out := Normalize(in)
	out[0] = Record{"changed": true}

	assert.Equal(t, "bad", in[1])
	assert.Equal(t, Record{"a": "1"}, in[0])
}

func TestList(t *testing.T) {
	type entry struct {
		ID string `json:"id"`
	}

	tc := []struct {
		name string
		data string
		want List[entry]
	}{
		{name: "null", data: `{"items": null}`, want: List[entry]{}},
		{name: "missing", data: `{}`, want: nil},
		{name: "single object", data: `{"items": {"id": "1"}}`, want: List[entry]{{ID: "1"}}},
		{name: "array", data: `{"items": [{"id": "1"}, {"id": "2"}]}`, want: List[entry]{{ID: "1"}, {ID: "2"}}},
		{name: "empty array", data: `{"items": []}`, want: List[entry]{}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var payload struct {
				Items List[entry] `json:"items"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.data), &payload))
			assert.Equal(t, tt.want, payload.Items)
		})
	}

	t.Run("invalid element", func(t *testing.T) {
		var payload struct {
			Items List[entry] `json:"items"`
		}
		assert.Error(t, json.Unmarshal([]byte(`{"items": "nope"}`), &payload))
	})
}
