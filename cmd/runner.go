package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/signx/internal/events"
	"github.com/desertthunder/signx/internal/formatter"
	"github.com/desertthunder/signx/internal/repositories"
	"github.com/desertthunder/signx/internal/services"
	"github.com/desertthunder/signx/internal/shared"
	"github.com/desertthunder/signx/internal/tasks"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     *services.Client
	history    *repositories.PlanningRepository
	db         *sql.DB
	events     *events.Dispatcher
	eventsOpen bool
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     *services.Client
	History    *repositories.PlanningRepository
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		history:    opts.History,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "signx",
		Usage:   "Browse, tag, and schedule content on digital-signage devices",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.configure,
		After:    r.close,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, devicesCommand, playlistsCommand, contentCommand, planCommand, historyCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure loads the config file when present and applies the log level.
// The API client is built later, on first use, so setup commands work without one.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if r.configPath == "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
		r.config = config
		r.logger.Debug("config loaded", "path", r.configPath)
	} else if cmd.IsSet("config") {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, r.configPath)
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

func (r *Runner) close(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	if r.events != nil {
		if err := r.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event sinks: %w", err))
		}
		r.events = nil
	}
	r.eventsOpen = false

	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
		r.history = nil
	}
	return errors.Join(errs...)
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// api returns the API client, building it from config on first use.
func (r *Runner) api() (*services.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	if err := r.config.API.Validate(); err != nil {
		return nil, fmt.Errorf("%w: run 'signx setup config' and set api.base_url", err)
	}
	if r.config.API.Token == "" {
		r.logger.Warn("no API token configured", "env", shared.TokenEnvVar)
	}

	client, err := services.NewClient(services.ClientOpts{
		BaseURL:   r.config.API.BaseURL,
		Token:     r.config.API.Token,
		Timeout:   r.config.API.Timeout(),
		RateLimit: r.config.API.RateLimit,
		Logger:    shared.WithLogger(r.logger, "component", "api"),
	})
	if err != nil {
		return nil, err
	}

	r.client = client
	return client, nil
}

// planningHistory opens the history database on first use.
func (r *Runner) planningHistory() (*repositories.PlanningRepository, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	r.db = db
	r.history = repositories.NewPlanningRepository(db)
	return r.history, nil
}

// eventSink connects the [events] sinks on first use. It returns nil when none are configured
// or a sink cannot be reached; event publishing never fails a command.
func (r *Runner) eventSink() *events.Dispatcher {
	if r.eventsOpen {
		return r.events
	}
	r.eventsOpen = true

	d, err := events.Open(r.config.Events, shared.WithLogger(r.logger, "component", "events"))
	if err != nil {
		r.logger.Warn("event publishing disabled", "error", err)
		return nil
	}
	if d != nil {
		r.logger.Debug("event sinks connected", "count", d.Len())
	}
	r.events = d
	return d
}

// logProgress drains task progress into the logger.
// Call wait after the task returns and before writing results.
func (r *Runner) logProgress() (progress chan tasks.ProgressUpdate, wait func()) {
	progress = make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}

// marshalJSON encodes data without HTML escaping, so tag keys print as "<Key>" just as they are sent.
func marshalJSON(data any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := marshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeYAML(data any) error {
	output, err := formatter.ToYAML(data)
	if err != nil {
		return err
	}
	return r.writeBytes(output)
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writePlainHeader prints title between rules.
func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// renderers produce the text-like formats for a result. Nil entries mark unsupported formats.
type renderers struct {
	text     func() []byte
	csv      func() ([]byte, error)
	markdown func() []byte
}

// emit writes data in the format chosen by --format, to --output when set.
func (r *Runner) emit(cmd *cli.Command, data any, rs renderers) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var out []byte
	switch format {
	case formatter.FormatJSON:
		if out, err = marshalJSON(data, true); err == nil {
			out = append(out, '\n')
		}
	case formatter.FormatYAML:
		out, err = formatter.ToYAML(data)
	case formatter.FormatCSV:
		if rs.csv == nil {
			return fmt.Errorf("%w: csv is not supported here", shared.ErrInvalidFlag)
		}
		out, err = rs.csv()
	case formatter.FormatMarkdown:
		if rs.markdown == nil {
			return fmt.Errorf("%w: markdown is not supported here", shared.ErrInvalidFlag)
		}
		out = rs.markdown()
	case formatter.FormatHTML:
		if rs.markdown == nil {
			return fmt.Errorf("%w: html is not supported here", shared.ErrInvalidFlag)
		}
		out = formatter.MarkdownToHTML(rs.markdown())
	default:
		out = rs.text()
	}
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, out); err != nil {
			return err
		}
		r.logger.Info("output written", "path", path, "format", format)
		return nil
	}
	return r.writeBytes(out)
}

// formatFlags are shared by every command that supports [Runner.emit].
func formatFlags(formats string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: " + formats,
			Value:   string(formatter.FormatText),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to file instead of stdout",
		},
	}
}
