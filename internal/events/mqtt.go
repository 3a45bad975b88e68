package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shared"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
	defaultTopicPrefix       = "signx"
)

// MQTTSink publishes events as JSON messages.
//
// Topics:
//   - {prefix}/plan/{playlist_id} for planning records
//   - {prefix}/devices/{device_id}/tags for tag edits
type MQTTSink struct {
	client pahomqtt.Client
	qos    byte
	prefix string
}

// DialMQTT connects to cfg.Broker and returns a ready sink.
func DialMQTT(cfg shared.MQTTConfig) (*MQTTSink, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "signx-" + shared.GenerateID()[:8]
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(defaultConnectTimeout)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: mqtt connect timeout after %v", shared.ErrServiceUnavailable, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: mqtt: %w", shared.ErrServiceUnavailable, err)
	}

	return newMQTTSink(client, cfg), nil
}

func newMQTTSink(client pahomqtt.Client, cfg shared.MQTTConfig) *MQTTSink {
	prefix := strings.Trim(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return &MQTTSink{client: client, qos: byte(cfg.QoS), prefix: prefix}
}

// Name implements [Sink].
func (s *MQTTSink) Name() string { return "mqtt" }

// PlanTopic returns the topic for a playlist's planning records.
func (s *MQTTSink) PlanTopic(playlistID string) string {
	return s.prefix + "/plan/" + topicSegment(playlistID)
}

// TagTopic returns the topic for a device's tag edits.
func (s *MQTTSink) TagTopic(deviceID string) string {
	return s.prefix + "/devices/" + topicSegment(deviceID) + "/tags"
}

// PublishPlan implements [Sink].
func (s *MQTTSink) PublishPlan(ctx context.Context, record *models.PlanningRecord) error {
	return s.publish(ctx, s.PlanTopic(record.PlaylistID), record)
}

// PublishTag implements [Sink].
func (s *MQTTSink) PublishTag(ctx context.Context, event TagEvent) error {
	return s.publish(ctx, s.TagTopic(event.DeviceID), event)
}

func (s *MQTTSink) publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	token := s.client.Publish(topic, s.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// topicSegment replaces characters MQTT treats as separators or wildcards.
func topicSegment(s string) string {
	if s == "" {
		return "_"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}
