package events

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shared"
)

// Measurement names written by [InfluxSink].
const (
	PlanMeasurement = "signx_plan"
	TagMeasurement  = "signx_tag"
)

// InfluxSink writes one point per event to an InfluxDB v2 bucket.
type InfluxSink struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

// NewInfluxSink creates a sink for cfg. No request is made until the first write.
func NewInfluxSink(cfg shared.InfluxConfig) *InfluxSink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{client: client, write: client.WriteAPIBlocking(cfg.Org, cfg.Bucket)}
}

// Name implements [Sink].
func (s *InfluxSink) Name() string { return "influx" }

// PublishPlan implements [Sink].
func (s *InfluxSink) PublishPlan(ctx context.Context, record *models.PlanningRecord) error {
	p := influxdb2.NewPoint(PlanMeasurement,
		map[string]string{
			"content_id":  record.ContentID,
			"playlist_id": record.PlaylistID,
		},
		map[string]any{
			"success":         record.Success,
			"display_seconds": record.DisplaySeconds,
			"file_name":       record.FileName,
			"message":         record.Message,
		},
		record.CreatedAt,
	)
	if err := s.write.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write %s: %w", PlanMeasurement, err)
	}
	return nil
}

// PublishTag implements [Sink].
func (s *InfluxSink) PublishTag(ctx context.Context, event TagEvent) error {
	p := influxdb2.NewPoint(TagMeasurement,
		map[string]string{
			"device_id": event.DeviceID,
			"action":    event.Action,
		},
		map[string]any{
			"ok":      event.OK,
			"tags":    len(event.Tags),
			"message": event.Message,
		},
		event.Time,
	)
	if err := s.write.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write %s: %w", TagMeasurement, err)
	}
	return nil
}

// Close releases the client's resources.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}
