package tasks

import (
	"fmt"

	"github.com/desertthunder/signx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchContent Phase = iota
	FetchPlaylist
	SavePlaylist
	TagDevices
)

func (p Phase) String() string {
	switch p {
	case FetchContent:
		return "fetch_content"
	case FetchPlaylist:
		return "fetch_playlist"
	case SavePlaylist:
		return "save_playlist"
	case TagDevices:
		return "tag_devices"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchContentUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchContent,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching content %s...", id),
	}
}

func fetchPlaylistUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching playlist %s...", step, total, id),
	}
}

func savePlaylistUpdate(step, total int, detail *models.PlaylistDetail) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SavePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Saving %s (%d entries)...", step, total, detail.Name, len(detail.Contents)+1),
		Data:    detail,
	}
}

func playlistDoneUpdate(step, total int, outcome PlaylistOutcome) ProgressUpdate {
	mark := "✓"
	if outcome.Err != nil {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   SavePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s: %s", step, total, mark, outcome.label(), outcome.Message),
		Data:    outcome,
	}
}

func tagDeviceUpdate(step, total int, result TagResult) ProgressUpdate {
	mark := "✓"
	if result.Err != nil {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   TagDevices,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, result.DeviceID),
		Data:    result,
	}
}
