package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/signx/internal/models"
	"github.com/desertthunder/signx/internal/shared"
	"github.com/desertthunder/signx/internal/tasks"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeMQTT struct {
	pahomqtt.Client

	mu           sync.Mutex
	messages     []published
	token        pahomqtt.Token
	disconnected bool
}

func (c *fakeMQTT) Publish(topic string, qos byte, _ bool, payload any) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	if c.token != nil {
		return c.token
	}
	return doneToken(nil)
}

func (c *fakeMQTT) Disconnect(uint) { c.disconnected = true }

type recordingSink struct {
	name   string
	plans  []*models.PlanningRecord
	tags   []TagEvent
	err    error
	closed bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) PublishPlan(_ context.Context, record *models.PlanningRecord) error {
	s.plans = append(s.plans, record)
	return s.err
}

func (s *recordingSink) PublishTag(_ context.Context, event TagEvent) error {
	s.tags = append(s.tags, event)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestMQTTSink(t *testing.T) {
	t.Run("topics", func(t *testing.T) {
		sink := newMQTTSink(&fakeMQTT{}, shared.MQTTConfig{TopicPrefix: "/site/a/"})
		assert.Equal(t, "site/a/plan/p1", sink.PlanTopic("p1"))
		assert.Equal(t, "site/a/devices/d_1/tags", sink.TagTopic("d/1"))
		assert.Equal(t, "site/a/plan/_", sink.PlanTopic(""))
		assert.Equal(t, "site/a/plan/a_b_", sink.PlanTopic("a+b#"))
	})

	t.Run("default prefix", func(t *testing.T) {
		sink := newMQTTSink(&fakeMQTT{}, shared.MQTTConfig{})
		assert.Equal(t, "signx/plan/p1", sink.PlanTopic("p1"))
	})

	t.Run("publishes plan as json", func(t *testing.T) {
		client := &fakeMQTT{}
		sink := newMQTTSink(client, shared.MQTTConfig{QoS: 1})

		record := &models.PlanningRecord{ContentID: "c1", PlaylistID: "p1", DisplaySeconds: 15, Success: true}
		require.NoError(t, sink.PublishPlan(context.Background(), record))

		require.Len(t, client.messages, 1)
		msg := client.messages[0]
		assert.Equal(t, "signx/plan/p1", msg.topic)
		assert.Equal(t, byte(1), msg.qos)

		var got models.PlanningRecord
		require.NoError(t, json.Unmarshal(msg.payload, &got))
		assert.Equal(t, "c1", got.ContentID)
		assert.Equal(t, 15, got.DisplaySeconds)
		assert.True(t, got.Success)
	})

	t.Run("publishes tag event", func(t *testing.T) {
		client := &fakeMQTT{}
		sink := newMQTTSink(client, shared.MQTTConfig{})

		event := TagEvent{DeviceID: "d1", Action: ActionDelete, Tags: []models.Tag{{Key: "<Floor>"}}, OK: true}
		require.NoError(t, sink.PublishTag(context.Background(), event))

		require.Len(t, client.messages, 1)
		assert.Equal(t, "signx/devices/d1/tags", client.messages[0].topic)
		assert.Contains(t, string(client.messages[0].payload), `"action":"delete"`)
	})

	t.Run("publish error", func(t *testing.T) {
		client := &fakeMQTT{token: doneToken(errors.New("not connected"))}
		sink := newMQTTSink(client, shared.MQTTConfig{})

		err := sink.PublishPlan(context.Background(), &models.PlanningRecord{PlaylistID: "p1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signx/plan/p1")
		assert.Contains(t, err.Error(), "not connected")
	})

	t.Run("context cancel", func(t *testing.T) {
		client := &fakeMQTT{token: &fakeToken{done: make(chan struct{})}}
		sink := newMQTTSink(client, shared.MQTTConfig{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := sink.PublishPlan(ctx, &models.PlanningRecord{PlaylistID: "p1"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("close disconnects", func(t *testing.T) {
		client := &fakeMQTT{}
		sink := newMQTTSink(client, shared.MQTTConfig{})
		require.NoError(t, sink.Close())
		assert.True(t, client.disconnected)
	})
}

type influxWrite struct {
	path   string
	org    string
	bucket string
	auth   string
	body   string
}

func newInfluxServer(t *testing.T, status int) (*httptest.Server, *[]influxWrite) {
	t.Helper()

	var (
		mu     sync.Mutex
		writes []influxWrite
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		writes = append(writes, influxWrite{
			path:   r.URL.Path,
			org:    r.URL.Query().Get("org"),
			bucket: r.URL.Query().Get("bucket"),
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
		})
		mu.Unlock()

		if status >= 300 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"code":"invalid","message":"bucket not found"}`))
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &writes
}

func TestInfluxSink(t *testing.T) {
	t.Run("writes plan point", func(t *testing.T) {
		server, writes := newInfluxServer(t, http.StatusNoContent)
		sink := NewInfluxSink(shared.InfluxConfig{URL: server.URL, Token: "tok", Org: "acme", Bucket: "signx"})
		defer sink.Close()

		record := &models.PlanningRecord{
			ContentID:      "c1",
			PlaylistID:     "p1",
			DisplaySeconds: 15,
			Success:        true,
			Message:        "OK",
			CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, sink.PublishPlan(context.Background(), record))

		require.Len(t, *writes, 1)
		w := (*writes)[0]
		assert.Equal(t, "/api/v2/write", w.path)
		assert.Equal(t, "acme", w.org)
		assert.Equal(t, "signx", w.bucket)
		assert.Equal(t, "Token tok", w.auth)
		assert.True(t, strings.HasPrefix(w.body, PlanMeasurement+","))
		assert.Contains(t, w.body, "content_id=c1")
		assert.Contains(t, w.body, "playlist_id=p1")
		assert.Contains(t, w.body, "display_seconds=15i")
		assert.Contains(t, w.body, "success=true")
	})

	t.Run("writes tag point", func(t *testing.T) {
		server, writes := newInfluxServer(t, http.StatusNoContent)
		sink := NewInfluxSink(shared.InfluxConfig{URL: server.URL, Org: "acme", Bucket: "signx"})
		defer sink.Close()

		event := TagEvent{
			DeviceID: "d1",
			Action:   ActionAdd,
			Tags:     []models.Tag{{Key: "<Floor>", Value: "2"}, {Key: "<Region>", Value: "East"}},
			OK:       false,
			Message:  "boom",
			Time:     time.Now(),
		}
		require.NoError(t, sink.PublishTag(context.Background(), event))

		require.Len(t, *writes, 1)
		body := (*writes)[0].body
		assert.True(t, strings.HasPrefix(body, TagMeasurement+","))
		assert.Contains(t, body, "action=add")
		assert.Contains(t, body, "device_id=d1")
		assert.Contains(t, body, "tags=2i")
		assert.Contains(t, body, "ok=false")
	})

	t.Run("server error", func(t *testing.T) {
		server, _ := newInfluxServer(t, http.StatusNotFound)
		sink := NewInfluxSink(shared.InfluxConfig{URL: server.URL, Org: "acme", Bucket: "missing"})
		defer sink.Close()

		err := sink.PublishPlan(context.Background(), &models.PlanningRecord{PlaylistID: "p1", CreatedAt: time.Now()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), PlanMeasurement)
	})
}

func TestDispatcher(t *testing.T) {
	t.Run("create fans out", func(t *testing.T) {
		a := &recordingSink{name: "a"}
		b := &recordingSink{name: "b"}
		d := NewDispatcher(quietLogger(), a, b)
		assert.Equal(t, 2, d.Len())

		record := &models.PlanningRecord{PlaylistID: "p1"}
		require.NoError(t, d.Create(record))

		assert.Len(t, a.plans, 1)
		assert.Len(t, b.plans, 1)
		assert.False(t, record.CreatedAt.IsZero())
	})

	t.Run("create joins errors", func(t *testing.T) {
		ok := &recordingSink{name: "ok"}
		bad := &recordingSink{name: "bad", err: errors.New("offline")}
		d := NewDispatcher(quietLogger(), bad, ok)

		err := d.Create(&models.PlanningRecord{PlaylistID: "p1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad: offline")
		assert.Len(t, ok.plans, 1)
	})

	t.Run("tags per result", func(t *testing.T) {
		sink := &recordingSink{name: "a"}
		d := NewDispatcher(quietLogger(), sink)

		tags := []models.Tag{{Key: "<Floor>", Value: "2"}}
		results := []tasks.TagResult{
			{DeviceID: "d1", Message: "OK"},
			{DeviceID: "d2", Message: "Device locked", Err: errors.New("locked")},
		}
		require.NoError(t, d.Tags(context.Background(), ActionAdd, tags, results))

		require.Len(t, sink.tags, 2)
		assert.Equal(t, "d1", sink.tags[0].DeviceID)
		assert.True(t, sink.tags[0].OK)
		assert.Equal(t, ActionAdd, sink.tags[0].Action)
		assert.Equal(t, "d2", sink.tags[1].DeviceID)
		assert.False(t, sink.tags[1].OK)
		assert.Equal(t, "Device locked", sink.tags[1].Message)
	})

	t.Run("close all", func(t *testing.T) {
		a := &recordingSink{name: "a"}
		b := &recordingSink{name: "b", err: errors.New("stuck")}
		d := NewDispatcher(quietLogger(), a, b)

		err := d.Close()
		require.Error(t, err)
		assert.True(t, a.closed)
		assert.True(t, b.closed)
	})

	t.Run("satisfies history recorder", func(t *testing.T) {
		var _ tasks.HistoryRecorder = NewDispatcher(quietLogger())
	})
}

func TestOpen(t *testing.T) {
	t.Run("nothing enabled", func(t *testing.T) {
		d, err := Open(shared.EventsConfig{}, quietLogger())
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := Open(shared.EventsConfig{Influx: shared.InfluxConfig{URL: "http://localhost:8086"}}, quietLogger())
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})

	t.Run("unreachable broker keeps influx", func(t *testing.T) {
		server, writes := newInfluxServer(t, http.StatusNoContent)
		var logs bytes.Buffer

		d, err := Open(shared.EventsConfig{
			MQTT:   shared.MQTTConfig{Broker: "tcp://127.0.0.1:1", QoS: 1},
			Influx: shared.InfluxConfig{URL: server.URL, Org: "acme", Bucket: "signx"},
		}, log.New(&logs))
		require.NoError(t, err)
		require.NotNil(t, d)
		defer d.Close()

		assert.Equal(t, 1, d.Len())
		assert.Contains(t, logs.String(), "mqtt sink disabled")

		require.NoError(t, d.Create(&models.PlanningRecord{PlaylistID: "p1"}))
		assert.Len(t, *writes, 1)
	})

	t.Run("unreachable broker alone", func(t *testing.T) {
		d, err := Open(shared.EventsConfig{
			MQTT: shared.MQTTConfig{Broker: "tcp://127.0.0.1:1"},
		}, quietLogger())
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("influx only", func(t *testing.T) {
		server, _ := newInfluxServer(t, http.StatusNoContent)
		d, err := Open(shared.EventsConfig{
			Influx: shared.InfluxConfig{URL: server.URL, Org: "acme", Bucket: "signx"},
		}, quietLogger())
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, 1, d.Len())
		require.NoError(t, d.Close())
	})
}
