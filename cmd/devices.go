package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/signx/internal/events"
	"github.com/desertthunder/signx/internal/filter"
	"github.com/desertthunder/signx/internal/formatter"
	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/query"
	"github.com/desertthunder/signx/internal/shared"
	"github.com/desertthunder/signx/internal/tasks"
)

// tagResultOutput is the JSON form of [tasks.TagResult].
type tagResultOutput struct {
	DeviceID string `json:"device_id"`
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
}

// normalizeTagKey wraps a bare key in angle brackets: "Floor" becomes "<Floor>".
func normalizeTagKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "<") {
		return key
	}
	return "<" + key + ">"
}

// parseTagArg parses a "Key=Value" flag value. The value may be empty.
func parseTagArg(arg string) (models.Tag, error) {
	key, value, ok := strings.Cut(arg, "=")
	key = normalizeTagKey(key)
	if !ok || key == "" {
		return models.Tag{}, fmt.Errorf("%w: tag %q must look like Key=Value", shared.ErrInvalidArgument, arg)
	}
	return models.Tag{Key: key, Value: strings.TrimSpace(value)}, nil
}

func (r *Runner) fetchDevices(ctx context.Context) ([]models.Device, error) {
	client, err := r.api()
	if err != nil {
		return nil, err
	}

	devices, err := client.GetDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	r.logger.Debug("devices fetched", "count", len(devices))
	return devices, nil
}

func (r *Runner) emitDevices(cmd *cli.Command, title string, devices []models.Device) error {
	network := r.config.API.Network
	return r.emit(cmd, devices, renderers{
		text:     func() []byte { return formatter.DevicesToText(devices, network) },
		csv:      func() ([]byte, error) { return formatter.DevicesToCSV(devices) },
		markdown: func() []byte { return formatter.DevicesToMarkdown(title, devices, network) },
	})
}

func (r *Runner) emitRegions(cmd *cli.Command, title string, groups []models.RegionGroup) error {
	network := r.config.API.Network
	return r.emit(cmd, groups, renderers{
		text:     func() []byte { return formatter.RegionsToText(groups, network) },
		csv:      func() ([]byte, error) { return formatter.RegionsToCSV(groups) },
		markdown: func() []byte { return formatter.RegionsToMarkdown(title, groups, network) },
	})
}

// DevicesList prints every device.
func (r *Runner) DevicesList(ctx context.Context, cmd *cli.Command) error {
	devices, err := r.fetchDevices(ctx)
	if err != nil {
		return err
	}
	return r.emitDevices(cmd, "Devices", devices)
}

// DevicesTags prints the tag keys used across all devices, in first-seen order.
func (r *Runner) DevicesTags(ctx context.Context, cmd *cli.Command) error {
	devices, err := r.fetchDevices(ctx)
	if err != nil {
		return err
	}

	keys := filter.CollectTagKeys(devices)
	return r.emit(cmd, keys, renderers{
		text: func() []byte { return formatter.TagKeysToText(keys) },
	})
}

// DevicesRegions prints devices grouped by region.
func (r *Runner) DevicesRegions(ctx context.Context, cmd *cli.Command) error {
	devices, err := r.fetchDevices(ctx)
	if err != nil {
		return err
	}
	return r.emitRegions(cmd, "Devices by region", filter.GroupByRegion(devices))
}

// DevicesFilter prints the devices carrying every --tag key.
// With no --tag the filter is inactive and region groups are printed instead.
// --where narrows the device list before either view is built.
func (r *Runner) DevicesFilter(ctx context.Context, cmd *cli.Command) error {
	keys := make([]string, 0, len(cmd.StringSlice("tag")))
	for _, key := range cmd.StringSlice("tag") {
		if key = normalizeTagKey(key); key != "" {
			keys = append(keys, key)
		}
	}

	var matcher *query.Matcher
	if expr := cmd.String("where"); expr != "" {
		m, err := query.Compile(expr)
		if err != nil {
			return fmt.Errorf("%w: --where: %w", shared.ErrInvalidFlag, err)
		}
		matcher = m
	}

	devices, err := r.fetchDevices(ctx)
	if err != nil {
		return err
	}

	if matcher != nil {
		matched, err := matcher.Devices(devices)
		if err != nil {
			r.logger.Warn("some devices could not be evaluated", "where", matcher, "error", err)
		}
		r.logger.Debug("where applied", "where", matcher, "matched", len(matched), "total", len(devices))
		devices = matched
	}

	selected := models.NewFilterState(keys...)
	view := filter.View(devices, selected)
	if !view.Filtered {
		return r.emitRegions(cmd, "Devices by region", view.Regions)
	}

	labels := make([]string, 0, len(keys))
	for _, key := range selected.Keys() {
		labels = append(labels, filter.TagLabel(key))
	}
	r.logger.Info("filter applied", "tags", labels, "matched", len(view.Devices), "total", len(devices))
	return r.emitDevices(cmd, "Devices with "+strings.Join(labels, ", "), view.Devices)
}

// DevicesTagAdd sets --tag values on each --device.
func (r *Runner) DevicesTagAdd(ctx context.Context, cmd *cli.Command) error {
	tags := []models.Tag{}
	for _, arg := range cmd.StringSlice("tag") {
		tag, err := parseTagArg(arg)
		if err != nil {
			return err
		}
		tags = append(tags, tag)
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	progress, wait := r.logProgress()
	results, err := tasks.AddTags(ctx, progress, client, cmd.StringSlice("device"), tags)
	wait()
	if results == nil && err != nil {
		return err
	}
	r.publishTags(ctx, events.ActionAdd, tags, results)

	if werr := r.writeTagResults(cmd, results); werr != nil {
		return werr
	}
	return err
}

// DevicesTagDelete removes --key from each --device.
func (r *Runner) DevicesTagDelete(ctx context.Context, cmd *cli.Command) error {
	key := normalizeTagKey(cmd.String("key"))

	client, err := r.api()
	if err != nil {
		return err
	}

	progress, wait := r.logProgress()
	results, err := tasks.DeleteTag(ctx, progress, client, cmd.StringSlice("device"), key)
	wait()
	if results == nil && err != nil {
		return err
	}
	r.publishTags(ctx, events.ActionDelete, []models.Tag{{Key: key}}, results)

	if werr := r.writeTagResults(cmd, results); werr != nil {
		return werr
	}
	return err
}

// publishTags sends tag edit outcomes to the configured event sinks. Failures are only logged.
func (r *Runner) publishTags(ctx context.Context, action string, tags []models.Tag, results []tasks.TagResult) {
	sink := r.eventSink()
	if sink == nil {
		return
	}
	if err := sink.Tags(ctx, action, tags, results); err != nil {
		r.logger.Warn("tag events not delivered", "action", action, "error", err)
	}
}

func (r *Runner) writeTagResults(cmd *cli.Command, results []tasks.TagResult) error {
	if cmd.Bool("json") {
		out := make([]tagResultOutput, 0, len(results))
		for _, res := range results {
			out = append(out, tagResultOutput{DeviceID: res.DeviceID, OK: res.Err == nil, Message: res.Message})
		}
		return r.writeJSON(out, true)
	}
	return r.writeBytes(formatter.TagResultsToText(results))
}
