// Package events publishes planning outcomes and tag edits to optional external sinks.
//
// Two sinks are provided: [MQTTSink] publishes JSON messages per playlist and device topic, and
// [InfluxSink] writes one point per outcome for dashboards. A [Dispatcher] fans out to every
// configured sink and satisfies tasks.HistoryRecorder, so the planner records into it like any store.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shared"
	"github.com/desertthunder/signx/internal/tasks"
)

const defaultPublishTimeout = 5 * time.Second

// Tag edit actions.
const (
	ActionAdd    = "add"
	ActionDelete = "delete"
)

// TagEvent is the outcome of a tag edit on one device.
type TagEvent struct {
	DeviceID string       `json:"device_id"`
	Action   string       `json:"action"`
	Tags     []models.Tag `json:"tags"`
	OK       bool         `json:"ok"`
	Message  string       `json:"message"`
	Time     time.Time    `json:"time"`
}

// Sink receives events.
type Sink interface {
	Name() string
	PublishPlan(ctx context.Context, record *models.PlanningRecord) error
	PublishTag(ctx context.Context, event TagEvent) error
	Close() error
}

// Dispatcher sends every event to all of its sinks.
type Dispatcher struct {
	sinks   []Sink
	logger  *log.Logger
	timeout time.Duration
}

// NewDispatcher creates a Dispatcher over sinks.
func NewDispatcher(logger *log.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{sinks: sinks, logger: logger, timeout: defaultPublishTimeout}
}

// Open connects the sinks enabled in cfg. A sink that cannot connect is logged and skipped.
// It returns a nil Dispatcher when no sink is available.
func Open(cfg shared.EventsConfig, logger *log.Logger) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	var sinks []Sink
	if cfg.MQTT.Broker != "" {
		sink, err := DialMQTT(cfg.MQTT)
		if err != nil {
			logger.Warn("mqtt sink disabled", "broker", cfg.MQTT.Broker, "error", err)
		} else {
			sinks = append(sinks, sink)
		}
	}
	if cfg.Influx.URL != "" {
		sinks = append(sinks, NewInfluxSink(cfg.Influx))
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	return NewDispatcher(logger, sinks...), nil
}

// Len returns the number of sinks.
func (d *Dispatcher) Len() int { return len(d.sinks) }

// Create publishes a planning record to every sink, so a Dispatcher can stand in for a history store.
func (d *Dispatcher) Create(record *models.PlanningRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	var errs []error
	for _, sink := range d.sinks {
		if err := sink.PublishPlan(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Tags publishes one [TagEvent] per result. Failures are logged and joined into the returned error.
func (d *Dispatcher) Tags(ctx context.Context, action string, tags []models.Tag, results []tasks.TagResult) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	now := time.Now().UTC()
	var errs []error
	for _, res := range results {
		event := TagEvent{
			DeviceID: res.DeviceID,
			Action:   action,
			Tags:     tags,
			OK:       res.Err == nil,
			Message:  res.Message,
			Time:     now,
		}
		for _, sink := range d.sinks {
			if err := sink.PublishTag(ctx, event); err != nil {
				d.logger.Warn("failed to publish tag event", "sink", sink.Name(), "device", res.DeviceID, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
