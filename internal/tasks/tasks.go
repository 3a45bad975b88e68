// package tasks implements multi-request operations against the signage API.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/services"
	"github.com/desertthunder/signx/internal/shared"
)

// DateLayout is the validity date format accepted by the playlist save endpoint.
const DateLayout = "2006-01-02T15:04:05"

// PlanningAPI is the subset of [services.Service] used to plan content.
type PlanningAPI interface {
	services.ContentService
	GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistDetail, error)
	UpdatePlaylist(ctx context.Context, playlistID string, update services.PlaylistUpdate) error
}

// HistoryRecorder persists planning outcomes.
type HistoryRecorder interface {
	Create(record *models.PlanningRecord) error
}

// Recorders sends each record to every recorder in order. All recorders run; errors are joined.
type Recorders []HistoryRecorder

// Create implements [HistoryRecorder].
func (rs Recorders) Create(record *models.PlanningRecord) error {
	var errs []error
	for _, r := range rs {
		if err := r.Create(record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PlanRequest describes one content item to add to a set of playlists.
//
// Zero Start or End leaves that side of the validity window open.
type PlanRequest struct {
	ContentID      string
	PlaylistIDs    []string
	DisplaySeconds int
	Start          time.Time
	End            time.Time
}

// Validate checks the request before any network call is made.
func (r PlanRequest) Validate() error {
	if r.ContentID == "" {
		return fmt.Errorf("%w: content id", shared.ErrMissingArgument)
	}
	if len(r.PlaylistIDs) == 0 {
		return shared.ErrNoPlaylistSelected
	}
	if r.DisplaySeconds < 0 {
		return fmt.Errorf("%w: display duration must not be negative", shared.ErrInvalidSchedule)
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s is before start %s", shared.ErrInvalidSchedule, FormatDate(r.End), FormatDate(r.Start))
	}
	return nil
}

// Entry builds the playlist entry for content under this request's schedule.
func (r PlanRequest) Entry(content *models.Content) models.PlaylistContent {
	return models.PlaylistContent{
		ContentID:         content.ID,
		DisplayDuration:   FormatDuration(r.DisplaySeconds),
		FileName:          content.FileName,
		ValidityStartDate: FormatDate(r.Start),
		ValidityEndDate:   FormatDate(r.End),
	}
}

// PlaylistOutcome is the result of saving one playlist.
type PlaylistOutcome struct {
	PlaylistID   string
	PlaylistName string
	Entries      int    // Entries sent in the save payload
	Message      string // Display text; the server's message on failure when present
	Err          error
}

func (o PlaylistOutcome) label() string {
	if o.PlaylistName != "" {
		return o.PlaylistName
	}
	return o.PlaylistID
}

// PlanResult contains all outcomes of a planning run, in request order.
type PlanResult struct {
	Content      *models.Content
	Outcomes     []PlaylistOutcome
	SuccessCount int
	FailedCount  int
}

// Planner schedules content into playlists.
type Planner struct {
	api     PlanningAPI
	history HistoryRecorder
	logger  *log.Logger
}

// NewPlanner creates a Planner. history may be nil.
func NewPlanner(api PlanningAPI, history HistoryRecorder, logger *log.Logger) *Planner {
	if logger == nil {
		logger = log.Default()
	}
	return &Planner{api: api, history: history, logger: logger}
}

// Plan adds the requested content to each playlist, saving serially.
//
// Validation and content lookup failures return an error with no result. Per-playlist failures are
// reported in the result. A canceled context stops the run and returns the partial result with ctx.Err().
func (p *Planner) Plan(ctx context.Context, progress chan<- ProgressUpdate, req PlanRequest) (*PlanResult, error) {
	if p.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sendProgress(progress, fetchContentUpdate(req.ContentID))
	content, err := p.api.GetContent(ctx, req.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content %s: %w", req.ContentID, err)
	}

	result := &PlanResult{Content: content, Outcomes: make([]PlaylistOutcome, 0, len(req.PlaylistIDs))}
	entry := req.Entry(content)
	total := len(req.PlaylistIDs)

	for i, id := range req.PlaylistIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome := p.planOne(ctx, progress, i+1, total, id, entry)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Err != nil {
			result.FailedCount++
		} else {
			result.SuccessCount++
		}

		sendProgress(progress, playlistDoneUpdate(i+1, total, outcome))
		p.record(req, content, outcome)
	}

	return result, nil
}

func (p *Planner) planOne(ctx context.Context, progress chan<- ProgressUpdate, step, total int, id string, entry models.PlaylistContent) PlaylistOutcome {
	outcome := PlaylistOutcome{PlaylistID: id}

	sendProgress(progress, fetchPlaylistUpdate(step, total, id))
	detail, err := p.api.GetPlaylist(ctx, id)
	if err != nil {
		outcome.Err = err
		outcome.Message = services.UserMessage(err, "Failed to load playlist")
		p.logger.Error("failed to load playlist", "playlist", id, "error", err)
		return outcome
	}
	outcome.PlaylistName = detail.Name

	update := BuildUpdate(detail, entry)
	outcome.Entries = len(update.Content)

	sendProgress(progress, savePlaylistUpdate(step, total, detail))
	if err := p.api.UpdatePlaylist(ctx, id, update); err != nil {
		outcome.Err = err
		outcome.Message = services.UserMessage(err, "Failed to save playlist")
		p.logger.Error("failed to save playlist", "playlist", id, "error", err)
		return outcome
	}

	outcome.Message = "Saved"
	p.logger.Info("playlist saved", "playlist", id, "content", entry.ContentID, "entries", outcome.Entries)
	return outcome
}

func (p *Planner) record(req PlanRequest, content *models.Content, outcome PlaylistOutcome) {
	if p.history == nil {
		return
	}

	record := &models.PlanningRecord{
		ContentID:      content.ID,
		FileName:       content.FileName,
		PlaylistID:     outcome.PlaylistID,
		PlaylistName:   outcome.PlaylistName,
		DisplaySeconds: req.DisplaySeconds,
		ValidityStart:  FormatDate(req.Start),
		ValidityEnd:    FormatDate(req.End),
		Success:        outcome.Err == nil,
		Message:        outcome.Message,
	}
	if err := p.history.Create(record); err != nil {
		p.logger.Warn("failed to record planning history", "playlist", outcome.PlaylistID, "error", err)
	}
}

// BuildUpdate returns the save payload for detail with entry placed first.
// Existing entries follow in their current order; detail is not modified.
func BuildUpdate(detail *models.PlaylistDetail, entry models.PlaylistContent) services.PlaylistUpdate {
	content := make([]models.PlaylistContent, 0, len(detail.Contents)+1)
	content = append(content, entry)
	content = append(content, detail.Contents...)

	return services.PlaylistUpdate{
		Content:        content,
		SupportsAudio:  detail.SupportsAudio,
		SupportsVideo:  detail.SupportsVideo,
		SupportsImages: detail.SupportsImages,
	}
}

// FormatDuration renders seconds as an ISO-8601 duration, e.g. "PT10S".
func FormatDuration(seconds int) string {
	return fmt.Sprintf("PT%dS", seconds)
}

// FormatDate renders t in UTC using [DateLayout]. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a user-supplied date: [DateLayout], RFC 3339, or a bare "2006-01-02". Empty input is the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{DateLayout, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", shared.ErrInvalidSchedule, value)
}

// IsValidationError reports whether err came from request validation rather than the API.
func IsValidationError(err error) bool {
	return errors.Is(err, shared.ErrNoPlaylistSelected) ||
		errors.Is(err, shared.ErrInvalidSchedule) ||
		errors.Is(err, shared.ErrMissingArgument)
}
