// Package adapter maps the API's XML-derived trees onto [models] types.
//
// This is the only place that knows the namespaced field names ("d2p1:Id", "d4p1:KeyValueOfstringstring")
// and the only place that resolves single-vs-array encodings, via [shape.Normalize].
package adapter

import (
	"fmt"
	"strings"

	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shape"
	"github.com/desertthunder/signx/internal/xmljson"
)

// Field names as serialized by the API.
const (
	FieldID       = "d2p1:Id"
	FieldName     = "d2p1:Name"
	FieldRegion   = "d2p1:Region"
	FieldTags     = "d2p1:Tags"
	FieldTagEntry = "d4p1:KeyValueOfstringstring"
	FieldTagKey   = "d4p1:Key"
	FieldTagValue = "d4p1:Value"

	FieldDevice          = "Device"
	FieldPlaylistItems   = "Items"
	FieldDynamicPlaylist = "d2p1:DynamicPlaylist"
)

// RegionTagKey is consulted when a device has no region field.
const RegionTagKey = "<Region>"

// UngroupedRegion is assigned to devices with no region information.
const UngroupedRegion = "Ungrouped"

// Text returns the string at rec[key]. Empty elements, nil, and nested maps read as "".
func Text(rec shape.Record, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case map[string]any:
		if text, ok := v["#text"].(string); ok {
			return text
		}
	}
	return ""
}

// Bool parses rec[key] as "true"/"false", case-insensitively. Anything else is false.
func Bool(rec shape.Record, key string) bool {
	return strings.EqualFold(strings.TrimSpace(Text(rec, key)), "true")
}

// Tags converts the raw tag container value (single entry, array, or absent) to tags.
func Tags(raw any) []models.Tag {
	entries := shape.Normalize(raw)
	tags := make([]models.Tag, 0, len(entries))
	for _, entry := range entries {
		key := Text(entry, FieldTagKey)
		if key == "" {
			continue
		}
		tags = append(tags, models.Tag{Key: key, Value: Text(entry, FieldTagValue)})
	}
	return tags
}

// Device converts one raw device record.
func Device(rec shape.Record) models.Device {
	tags := Tags(xmljson.Path(rec, FieldTags, FieldTagEntry))
	return models.Device{
		ID:     Text(rec, FieldID),
		Name:   Text(rec, FieldName),
		Region: region(rec, tags),
		Tags:   tags,
	}
}

func region(rec shape.Record, tags []models.Tag) string {
	if r := strings.TrimSpace(Text(rec, FieldRegion)); r != "" {
		return r
	}
	for _, tag := range tags {
		if tag.Key == RegionTagKey && strings.TrimSpace(tag.Value) != "" {
			return strings.TrimSpace(tag.Value)
		}
	}
	return UngroupedRegion
}

// Devices converts a decoded device list document. The root element name is not checked;
// every repeated "Device" child of the root is returned, in document order.
func Devices(tree map[string]any) []models.Device {
	var raw any
	for _, root := range tree {
		raw = xmljson.Path(root, FieldDevice)
	}

	records := shape.Normalize(raw)
	devices := make([]models.Device, 0, len(records))
	for _, rec := range records {
		devices = append(devices, Device(rec))
	}
	return devices
}

// Playlists converts a PagedDynamicPlaylistList document to playlist summaries.
func Playlists(tree map[string]any) []models.Playlist {
	raw := xmljson.Path(tree, "PagedDynamicPlaylistList", FieldPlaylistItems, FieldDynamicPlaylist)
	records := shape.Normalize(raw)
	playlists := make([]models.Playlist, 0, len(records))
	for _, rec := range records {
		playlists = append(playlists, models.Playlist{ID: Text(rec, FieldID), Name: Text(rec, FieldName)})
	}
	return playlists
}

// PlaylistDetail converts a DynamicPlaylist document.
func PlaylistDetail(tree map[string]any) (*models.PlaylistDetail, error) {
	rec, ok := tree["DynamicPlaylist"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing DynamicPlaylist element")
	}

	entries := shape.Normalize(xmljson.Path(rec, "Content", "DynamicPlaylistContent"))
	contents := make([]models.PlaylistContent, 0, len(entries))
	for _, entry := range entries {
		contents = append(contents, models.PlaylistContent{
			ContentID:         Text(entry, "ContentId"),
			DisplayDuration:   Text(entry, "DisplayDuration"),
			FileName:          Text(entry, "FileName"),
			ValidityEndDate:   Text(entry, "ValidityEndDate"),
			ValidityStartDate: Text(entry, "ValidityStartDate"),
		})
	}

	return &models.PlaylistDetail{
		Playlist:       models.Playlist{ID: Text(rec, "Id"), Name: Text(rec, "Name")},
		Contents:       contents,
		SupportsAudio:  Bool(rec, "SupportsAudio"),
		SupportsVideo:  Bool(rec, "SupportsVideo"),
		SupportsImages: Bool(rec, "SupportsImages"),
	}, nil
}

// Content converts a single content document. The root element name is not checked.
func Content(tree map[string]any) (*models.Content, error) {
	for _, root := range tree {
		rec, ok := root.(map[string]any)
		if !ok {
			break
		}
		return &models.Content{
			ID:        Text(rec, "Id"),
			FileName:  Text(rec, "FileName"),
			MediaType: Text(rec, "MediaType"),
			ThumbPath: Text(rec, "ThumbPath"),
		}, nil
	}
	return nil, fmt.Errorf("missing content element")
}
