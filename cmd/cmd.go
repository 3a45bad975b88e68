// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/signx/internal/formatter"
)

// setupCommand creates the config file and the history database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the config file (defaults to --config)",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage: "Create the planning history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// devicesCommand handles device listing, filtering, and tag edits
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "devices",
		Aliases: []string{"dev"},
		Usage:   "Device operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all devices",
				Flags:  formatFlags("text, csv, markdown, html, yaml, json"),
				Action: r.DevicesList,
			},
			{
				Name:   "tags",
				Usage:  "List every tag key in use",
				Flags:  formatFlags("text, yaml, json"),
				Action: r.DevicesTags,
			},
			{
				Name:   "regions",
				Usage:  "Group devices by region",
				Flags:  formatFlags("text, csv, markdown, html, yaml, json"),
				Action: r.DevicesRegions,
			},
			{
				Name:  "filter",
				Usage: "Show devices carrying every given tag key (region groups when no key is given)",
				Flags: append(formatFlags("text, csv, markdown, html, yaml, json"),
					&cli.StringSliceFlag{
						Name:    "tag",
						Aliases: []string{"t"},
						Usage:   "Tag key to require, e.g. LocationType or <LocationType> (repeatable)",
					},
					&cli.StringFlag{
						Name:    "where",
						Aliases: []string{"w"},
						Usage:   `CEL predicate over id, name, region, tags, e.g. 'region == "East" && "Floor" in tags'`,
					},
				),
				Action: r.DevicesFilter,
			},
			{
				Name:  "tag",
				Usage: "Edit device tags",
				Commands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Set key=value tags on devices",
						Flags: []cli.Flag{
							&cli.StringSliceFlag{
								Name:     "device",
								Aliases:  []string{"d"},
								Usage:    "Device ID (repeatable)",
								Required: true,
							},
							&cli.StringSliceFlag{
								Name:     "tag",
								Aliases:  []string{"t"},
								Usage:    "Tag as key=value (repeatable)",
								Required: true,
							},
							&cli.BoolFlag{
								Name:  "json",
								Usage: "Output results as JSON",
							},
						},
						Action: r.DevicesTagAdd,
					},
					{
						Name:  "delete",
						Usage: "Remove a tag key from devices",
						Flags: []cli.Flag{
							&cli.StringSliceFlag{
								Name:     "device",
								Aliases:  []string{"d"},
								Usage:    "Device ID (repeatable)",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "key",
								Aliases:  []string{"k"},
								Usage:    "Tag key to remove",
								Required: true,
							},
							&cli.BoolFlag{
								Name:  "json",
								Usage: "Output results as JSON",
							},
						},
						Action: r.DevicesTagDelete,
					},
				},
			},
		},
	}
}

// playlistsCommand handles playlist browsing
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: append(formatFlags("text, yaml, json"),
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Only show playlists whose name contains this text",
					},
				),
				Action: r.PlaylistsList,
			},
			{
				Name:  "show",
				Usage: "Show a playlist and its content",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  formatFlags("text, yaml, json"),
				Action: r.PlaylistsShow,
			},
		},
	}
}

// contentCommand handles content lookups
func contentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "content",
		Usage: "Content operations",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show a content item",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: append(formatFlags("text, yaml, json"),
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the thumbnail in the default browser",
					},
				),
				Action: r.ContentShow,
			},
		},
	}
}

// planCommand schedules content into playlists
func planCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Add a content item to one or more playlists",
		Flags: append(formatFlags("text, yaml, json"),
			&cli.StringFlag{
				Name:     "content",
				Usage:    "Content ID to schedule",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Playlist ID (repeatable)",
			},
			&cli.IntFlag{
				Name:  "duration",
				Usage: "Display duration in seconds",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "Validity start (2006-01-02, 2006-01-02T15:04:05, or RFC 3339)",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "Validity end (same formats as --start)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record outcomes in the history database",
			},
		),
		Action: r.Plan,
	}
}

// historyCommand shows recorded planning outcomes
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show planning history",
		Flags: append(formatFlags("text, yaml, json"),
			&cli.StringFlag{
				Name:  "content",
				Usage: "Only records for this content ID",
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Only records for this playlist ID",
			},
			&cli.BoolFlag{
				Name:  "failed",
				Usage: "Only failed saves",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Delete all history",
			},
		),
		Action: r.History,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the decoded response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print the response body as received",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print decoded output",
						Value: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Decoded output format: json, yaml",
						Value:   string(formatter.FormatJSON),
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// tuiCommand launches the interactive device browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse devices by tag and region interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/signx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
