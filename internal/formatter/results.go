package formatter

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/tasks"
)

// PlanResultToText summarizes a planning run, one line per playlist.
func PlanResultToText(result *tasks.PlanResult) []byte {
	var buf bytes.Buffer

	if result.Content != nil {
		buf.WriteString(fmt.Sprintf("Content: %s (%s)\n", result.Content.FileName, result.Content.ID))
	}
	buf.WriteString(fmt.Sprintf("Playlists: %d saved, %d failed\n\n", result.SuccessCount, result.FailedCount))

	rows := make([][]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		status := "✓"
		if o.Err != nil {
			status = "✗"
		}
		rows = append(rows, []string{status, o.PlaylistID, o.PlaylistName, o.Message})
	}
	buf.WriteString(Table([]string{"", "ID", "PLAYLIST", "RESULT"}, rows))

	return buf.Bytes()
}

// TagResultsToText lists the outcome of a tag edit per device.
func TagResultsToText(results []tasks.TagResult) []byte {
	rows := make([][]string, 0, len(results))
	failed := 0
	for _, r := range results {
		status := "✓"
		if r.Err != nil {
			status = "✗"
			failed++
		}
		rows = append(rows, []string{status, r.DeviceID, r.Message})
	}

	var buf bytes.Buffer
	buf.WriteString(Table([]string{"", "DEVICE", "RESULT"}, rows))
	buf.WriteString(fmt.Sprintf("\n%d devices, %d failed\n", len(results), failed))
	return buf.Bytes()
}

// PlaylistsToText lists playlist summaries.
func PlaylistsToText(playlists []models.Playlist) []byte {
	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		rows = append(rows, []string{p.ID, p.Name})
	}
	return []byte(Table([]string{"ID", "NAME"}, rows))
}

// PlaylistDetailToText renders a playlist with its content entries.
func PlaylistDetailToText(detail *models.PlaylistDetail) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s (%s)\n", detail.Name, detail.ID))
	buf.WriteString(fmt.Sprintf("Supports: audio=%t video=%t images=%t\n", detail.SupportsAudio, detail.SupportsVideo, detail.SupportsImages))
	buf.WriteString(fmt.Sprintf("Entries: %d\n\n", len(detail.Contents)))

	rows := make([][]string, 0, len(detail.Contents))
	for i, c := range detail.Contents {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.ContentID, c.FileName, c.DisplayDuration, c.ValidityStartDate, c.ValidityEndDate})
	}
	buf.WriteString(Table([]string{"#", "CONTENT", "FILE", "DURATION", "START", "END"}, rows))

	return buf.Bytes()
}

// ContentToText renders a content item.
func ContentToText(content *models.Content) []byte {
	rows := [][]string{
		{"ID", content.ID},
		{"File", content.FileName},
		{"Media type", content.MediaType},
		{"Thumbnail", content.ThumbPath},
	}
	return []byte(Table(nil, rows))
}

// HistoryToText lists planning history records, newest first as given.
func HistoryToText(records []*models.PlanningRecord) []byte {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		status := "✓"
		if !r.Success {
			status = "✗"
		}
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			status,
			r.FileName,
			r.PlaylistName,
			tasks.FormatDuration(r.DisplaySeconds),
			r.Message,
		})
	}
	return []byte(Table([]string{"WHEN", "", "FILE", "PLAYLIST", "DURATION", "RESULT"}, rows))
}
