// package services defines interface Service for interacting with the signage API
package services

import (
	"context"

	"github.com/desertthunder/signx/internal/models"
)

// DeviceService reads devices and edits their tags.
type DeviceService interface {
	// GetDevices lists every device visible to the token.
	GetDevices(ctx context.Context) ([]models.Device, error)

	// DeleteDeviceTag removes the tag with key from a device. Single attempt.
	DeleteDeviceTag(ctx context.Context, deviceID, key string) error

	// AddDeviceTags sets key/value tags on a device.
	AddDeviceTags(ctx context.Context, deviceID string, tags []models.Tag) error
}

// PlaylistService reads playlists and replaces their content.
type PlaylistService interface {
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)
	GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDetail, error)

	// UpdatePlaylist replaces the playlist's content list with update.
	UpdatePlaylist(ctx context.Context, playlistID string, update PlaylistUpdate) error
}

// ContentService reads content items.
type ContentService interface {
	GetContent(ctx context.Context, contentID string) (*models.Content, error)
}

// Service is the full API surface used by the CLI.
type Service interface {
	DeviceService
	PlaylistService
	ContentService
}

// PlaylistUpdate is the replacement payload accepted by the playlist save endpoint.
type PlaylistUpdate struct {
	Content        []models.PlaylistContent `json:"content"`
	SupportsAudio  bool                     `json:"SupportsAudio"`
	SupportsVideo  bool                     `json:"SupportsVideo"`
	SupportsImages bool                     `json:"SupportsImages"`
}
