package models

import (
	"fmt"
	"time"
)

// Tag is a key/value label attached to a device. Keys are wrapped in angle brackets, e.g. "<LocationType>".
type Tag struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Device is a signage player.
type Device struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Region string `json:"region" yaml:"region"`
	Tags   []Tag  `json:"tags" yaml:"tags"` // Never nil once adapted
}

// TagKeys returns the device's tag keys as a set.
func (d Device) TagKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(d.Tags))
	for _, tag := range d.Tags {
		keys[tag.Key] = struct{}{}
	}
	return keys
}

// RegionGroup is the derived set of devices sharing a region.
type RegionGroup struct {
	Region  string   `json:"region" yaml:"region"`
	Devices []Device `json:"devices" yaml:"devices"`
}

// Playlist is a playlist summary as listed by the API.
type Playlist struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// PlaylistContent is one scheduled entry of a playlist.
//
// Field names match the save endpoint's payload.
type PlaylistContent struct {
	ContentID         string `json:"ContentId"`
	DisplayDuration   string `json:"DisplayDuration"`
	FileName          string `json:"FileName"`
	ValidityEndDate   string `json:"ValidityEndDate"`
	ValidityStartDate string `json:"ValidityStartDate"`
}

// PlaylistDetail is a playlist with its content and capability flags.
type PlaylistDetail struct {
	Playlist
	Contents       []PlaylistContent `json:"contents"`
	SupportsAudio  bool              `json:"supports_audio"`
	SupportsVideo  bool              `json:"supports_video"`
	SupportsImages bool              `json:"supports_images"`
}

// Content is a media item that can be scheduled into playlists.
type Content struct {
	ID        string `json:"id" yaml:"id"`
	FileName  string `json:"file_name" yaml:"file_name"`
	MediaType string `json:"media_type" yaml:"media_type"`
	ThumbPath string `json:"thumb_path" yaml:"thumb_path"`
}

// FilterState is the set of selected tag keys. The zero value is an empty, inactive filter.
type FilterState struct {
	keys  map[string]struct{}
	order []string
}

// NewFilterState returns a FilterState holding keys, ignoring duplicates and empty strings.
func NewFilterState(keys ...string) FilterState {
	var fs FilterState
	for _, k := range keys {
		fs = fs.With(k)
	}
	return fs
}

// Len reports the number of selected keys.
func (f FilterState) Len() int { return len(f.order) }

// Active reports whether any key is selected.
func (f FilterState) Active() bool { return f.Len() > 0 }

// Has reports whether key is selected.
func (f FilterState) Has(key string) bool {
	_, ok := f.keys[key]
	return ok
}

// Keys returns the selected keys in selection order.
func (f FilterState) Keys() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// With returns a copy of f with key selected.
func (f FilterState) With(key string) FilterState {
	if key == "" || f.Has(key) {
		return f
	}
	next := FilterState{keys: make(map[string]struct{}, len(f.keys)+1), order: append(f.Keys(), key)}
	for k := range f.keys {
		next.keys[k] = struct{}{}
	}
	next.keys[key] = struct{}{}
	return next
}

// Without returns a copy of f with key deselected.
func (f FilterState) Without(key string) FilterState {
	if !f.Has(key) {
		return f
	}
	var next FilterState
	for _, k := range f.order {
		if k != key {
			next = next.With(k)
		}
	}
	return next
}

// Toggle flips the selection of key.
func (f FilterState) Toggle(key string) FilterState {
	if f.Has(key) {
		return f.Without(key)
	}
	return f.With(key)
}

// PlanningRecord is the stored outcome of saving one content item into one playlist.
type PlanningRecord struct {
	ID             string    `json:"id" yaml:"id"`
	ContentID      string    `json:"content_id" yaml:"content_id"`
	FileName       string    `json:"file_name" yaml:"file_name"`
	PlaylistID     string    `json:"playlist_id" yaml:"playlist_id"`
	PlaylistName   string    `json:"playlist_name" yaml:"playlist_name"`
	DisplaySeconds int       `json:"display_seconds" yaml:"display_seconds"`
	ValidityStart  string    `json:"validity_start" yaml:"validity_start"`
	ValidityEnd    string    `json:"validity_end" yaml:"validity_end"`
	Success        bool      `json:"success" yaml:"success"`
	Message        string    `json:"message" yaml:"message"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// Validate checks the fields the history table requires.
func (p *PlanningRecord) Validate() error {
	if p.ContentID == "" {
		return fmt.Errorf("content id is required")
	}
	if p.PlaylistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if p.DisplaySeconds < 0 {
		return fmt.Errorf("display seconds must not be negative")
	}
	return nil
}
