package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/signx/internal/filter"
	"github.com/desertthunder/signx/internal/formatter"
	"github.com/desertthunder/signx/internal/shared"
)

// PlaylistsList prints playlists, optionally narrowed by --search.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	client, err := r.api()
	if err != nil {
		return err
	}

	playlists, err := client.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}

	if query := cmd.String("search"); query != "" {
		playlists = filter.SearchPlaylists(playlists, query)
		r.logger.Debug("playlists searched", "query", query, "matched", len(playlists))
	}

	return r.emit(cmd, playlists, renderers{
		text: func() []byte { return formatter.PlaylistsToText(playlists) },
	})
}

// PlaylistsShow prints one playlist with its scheduled content.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	detail, err := client.GetPlaylist(ctx, id)
	if err != nil {
		return err
	}

	return r.emit(cmd, detail, renderers{
		text: func() []byte { return formatter.PlaylistDetailToText(detail) },
	})
}

// ContentShow prints one content item. --open previews its thumbnail in the browser.
func (r *Runner) ContentShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: content id", shared.ErrMissingArgument)
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	content, err := client.GetContent(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		if content.ThumbPath == "" {
			r.logger.Warn("content has no thumbnail", "content", id)
		} else if err := shared.OpenBrowser(thumbURL(client.BaseURL(), content.ThumbPath)); err != nil {
			r.logger.Warn("failed to open thumbnail", "error", err)
		}
	}

	return r.emit(cmd, content, renderers{
		text: func() []byte { return formatter.ContentToText(content) },
	})
}

// thumbURL resolves a thumbnail path against the API base URL. Absolute URLs are returned as-is.
func thumbURL(base, thumb string) string {
	if u, err := url.Parse(thumb); err == nil && u.IsAbs() {
		return thumb
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(thumb, "/")
}
