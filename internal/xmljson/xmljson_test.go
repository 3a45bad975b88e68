package xmljson

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devicesXML = `<?xml version="1.0" encoding="utf-8"?>
<ArrayOfDevice xmlns="http://schemas.example.com/signage" xmlns:i="http://www.w3.org/2001/XMLSchema-instance">
  <Device xmlns:d2p1="http://schemas.example.com/devices">
    <d2p1:Id>1</d2p1:Id>
    <d2p1:Name>FW_North_Main_Lobby</d2p1:Name>
    <d2p1:Region>East</d2p1:Region>
    <d2p1:Tags xmlns:d4p1="http://schemas.microsoft.com/2003/10/Serialization/Arrays">
      <d4p1:KeyValueOfstringstring>
        <d4p1:Key>&lt;A&gt;</d4p1:Key>
        <d4p1:Value>x</d4p1:Value>
      </d4p1:KeyValueOfstringstring>
    </d2p1:Tags>
  </Device>
  <Device xmlns:d2p1="http://schemas.example.com/devices">
    <d2p1:Id>2</d2p1:Id>
    <d2p1:Name>Second</d2p1:Name>
    <d2p1:Region i:nil="true" />
    <d2p1:Tags />
  </Device>
</ArrayOfDevice>`

func TestDecode(t *testing.T) {
	t.Run("Namespaced Repeated Elements", func(t *testing.T) {
		tree, err := Decode([]byte(devicesXML))
		require.NoError(t, err)

		devices, ok := Path(tree, "ArrayOfDevice", "Device").([]any)
		require.True(t, ok, "repeated Device elements should decode as a slice")
		require.Len(t, devices, 2)

		first := devices[0].(map[string]any)
		assert.Equal(t, "1", first["d2p1:Id"])
		assert.Equal(t, "FW_North_Main_Lobby", first["d2p1:Name"])

		tag := Path(first, "d2p1:Tags", "d4p1:KeyValueOfstringstring")
		assert.Equal(t, map[string]any{"d4p1:Key": "<A>", "d4p1:Value": "x"}, tag, "a single tag decodes as a map")

		second := devices[1].(map[string]any)
		assert.Nil(t, second["d2p1:Region"])
		assert.Equal(t, map[string]any{}, second["d2p1:Tags"])
	})

	t.Run("Single Child Stays Scalar", func(t *testing.T) {
		tree, err := Decode([]byte(`<Root><Item>one</Item></Root>`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"Root": map[string]any{"Item": "one"}}, tree)
	})

	t.Run("Attributes And Text", func(t *testing.T) {
		tree, err := Decode([]byte(`<Root xmlns:x="urn:x"><Item x:kind="a">one</Item></Root>`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"@x:kind": "a", "#text": "one"}, Path(tree, "Root", "Item"))
	})

	t.Run("Root Uses Local Name", func(t *testing.T) {
		tree, err := Decode([]byte(`<a:DynamicPlaylist xmlns:a="urn:a"><a:Id>7</a:Id></a:DynamicPlaylist>`))
		require.NoError(t, err)
		assert.Equal(t, "7", Path(tree, "DynamicPlaylist", "a:Id"))
	})

	t.Run("Errors", func(t *testing.T) {
		tc := []struct {
			name string
			data string
		}{
			{name: "mismatched end", data: `<a><b></a></b>`},
			{name: "unclosed", data: `<a><b></b>`},
			{name: "multiple roots", data: `<a/><b/>`},
			{name: "garbage", data: `<a <<`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := DecodeReader(strings.NewReader(tt.data))
				assert.Error(t, err)
			})
		}

		_, err := Decode([]byte("   "))
		assert.True(t, errors.Is(err, ErrEmptyDocument))
	})
}

func TestPath(t *testing.T) {
	tree := map[string]any{"a": map[string]any{"b": "c"}}

	assert.Equal(t, "c", Path(tree, "a", "b"))
	assert.Nil(t, Path(tree, "a", "b", "c"))
	assert.Nil(t, Path(tree, "missing", "b"))
	assert.Equal(t, tree, Path(tree))
}
