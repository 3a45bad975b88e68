package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/signx/internal/formatter"
	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shared"
	"github.com/desertthunder/signx/internal/tasks"
)

// planOutput is the JSON/YAML form of [tasks.PlanResult].
type planOutput struct {
	Content   *models.Content `json:"content" yaml:"content"`
	Saved     int             `json:"saved" yaml:"saved"`
	Failed    int             `json:"failed" yaml:"failed"`
	Playlists []outcomeOutput `json:"playlists" yaml:"playlists"`
}

type outcomeOutput struct {
	PlaylistID   string `json:"playlist_id" yaml:"playlist_id"`
	PlaylistName string `json:"playlist_name" yaml:"playlist_name"`
	Entries      int    `json:"entries" yaml:"entries"`
	OK           bool   `json:"ok" yaml:"ok"`
	Message      string `json:"message" yaml:"message"`
}

func newPlanOutput(result *tasks.PlanResult) planOutput {
	out := planOutput{
		Content:   result.Content,
		Saved:     result.SuccessCount,
		Failed:    result.FailedCount,
		Playlists: make([]outcomeOutput, 0, len(result.Outcomes)),
	}
	for _, o := range result.Outcomes {
		out.Playlists = append(out.Playlists, outcomeOutput{
			PlaylistID:   o.PlaylistID,
			PlaylistName: o.PlaylistName,
			Entries:      o.Entries,
			OK:           o.Err == nil,
			Message:      o.Message,
		})
	}
	return out
}

func planRequest(cmd *cli.Command) (tasks.PlanRequest, error) {
	req := tasks.PlanRequest{
		ContentID:      cmd.String("content"),
		PlaylistIDs:    cmd.StringSlice("playlist"),
		DisplaySeconds: int(cmd.Int("duration")),
	}

	var err error
	if value := cmd.String("start"); value != "" {
		if req.Start, err = tasks.ParseDate(value); err != nil {
			return req, fmt.Errorf("%w: --start: %v", shared.ErrInvalidFlag, err)
		}
	}
	if value := cmd.String("end"); value != "" {
		if req.End, err = tasks.ParseDate(value); err != nil {
			return req, fmt.Errorf("%w: --end: %v", shared.ErrInvalidFlag, err)
		}
	}
	return req, req.Validate()
}

// Plan adds --content to every --playlist, saving one playlist at a time.
//
// Per-playlist failures are reported in the output and do not fail the command.
func (r *Runner) Plan(ctx context.Context, cmd *cli.Command) error {
	req, err := planRequest(cmd)
	if err != nil {
		return err
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	recorders := tasks.Recorders{}
	if !cmd.Bool("no-history") {
		if repo, err := r.planningHistory(); err != nil {
			r.logger.Warn("planning history disabled", "error", err)
		} else {
			recorders = append(recorders, repo)
		}
	}
	if sink := r.eventSink(); sink != nil {
		recorders = append(recorders, sink)
	}

	var history tasks.HistoryRecorder
	if len(recorders) > 0 {
		history = recorders
	}

	planner := tasks.NewPlanner(client, history, shared.WithLogger(r.logger, "component", "planner"))

	progress, wait := r.logProgress()
	result, err := planner.Plan(ctx, progress, req)
	wait()
	if result == nil {
		return err
	}

	if werr := r.emit(cmd, newPlanOutput(result), renderers{
		text: func() []byte { return formatter.PlanResultToText(result) },
	}); werr != nil {
		return werr
	}
	return err
}

// History lists recorded planning outcomes, or deletes them with --clear.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.planningHistory()
	if err != nil {
		return err
	}

	if cmd.Bool("clear") {
		n, err := repo.Clear()
		if err != nil {
			return err
		}
		r.logger.Info("planning history cleared", "records", n)
		return r.writePlain("✓ Cleared %d records\n", n)
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if id := cmd.String("content"); id != "" {
		criteria["content_id"] = id
	}
	if id := cmd.String("playlist"); id != "" {
		criteria["playlist_id"] = id
	}
	if cmd.Bool("failed") {
		criteria["success"] = false
	}

	records, err := repo.List(criteria)
	if err != nil {
		return err
	}

	return r.emit(cmd, records, renderers{
		text: func() []byte { return formatter.HistoryToText(records) },
	})
}
