package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/signx/internal/formatter"
	"github.com/desertthunder/signx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request and prints the decoded body.
//
// XML bodies are printed as the JSON-shaped tree the adapters read.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if format != formatter.FormatJSON && format != formatter.FormatYAML {
		return fmt.Errorf("%w: api get prints json or yaml, not %s", shared.ErrInvalidFlag, format)
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := client.Get(ctx, path)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if cmd.Bool("raw") || (!resp.IsJSON && !resp.IsXML) {
		if err := r.writeBytes(resp.Body); err != nil {
			return err
		}
		return r.writeBytes([]byte("\n"))
	}

	if format == formatter.FormatYAML {
		return r.writeYAML(resp.Data())
	}
	return r.writeJSON(resp.Data(), cmd.Bool("pretty"))
}
