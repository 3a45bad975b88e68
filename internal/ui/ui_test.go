package ui

import (
	"context"
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/signx/internal/models"
)

type fakeLister struct {
	devices []models.Device
	err     error
	calls   int
}

func (f *fakeLister) GetDevices(ctx context.Context) ([]models.Device, error) {
	f.calls++
	return f.devices, f.err
}

func fixtureDevices() []models.Device {
	return []models.Device{
		{ID: "1", Name: "Lobby", Region: "East", Tags: []models.Tag{{Key: "<A>", Value: "x"}, {Key: "<B>", Value: "y"}}},
		{ID: "2", Name: "Cafe", Region: "West", Tags: []models.Tag{{Key: "<A>", Value: "z"}}},
		{ID: "3", Name: "Dock", Region: "East", Tags: []models.Tag{}},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns a model that has processed its initial fetch.
func loaded(t *testing.T, lister *fakeLister) *Model {
	t.Helper()
	m := NewModel(context.Background(), lister, "", log.New(io.Discard))
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	cmd := m.Init()
	require.NotNil(t, cmd)
	m.Update(cmd())
	return m
}

func TestModel(t *testing.T) {
	t.Run("initial fetch groups by region", func(t *testing.T) {
		lister := &fakeLister{devices: fixtureDevices()}
		m := loaded(t, lister)

		assert.Equal(t, 1, lister.calls)
		assert.False(t, m.loading)
		assert.Equal(t, []string{"<A>", "<B>"}, m.tagKeys)

		view := m.DeviceView()
		assert.False(t, view.Filtered)
		require.Len(t, view.Regions, 2)
		assert.Equal(t, "East", view.Regions[0].Region)
		assert.Len(t, view.Regions[0].Devices, 2)
	})

	t.Run("space toggles the highlighted key", func(t *testing.T) {
		m := loaded(t, &fakeLister{devices: fixtureDevices()})

		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
		assert.True(t, m.Selected().Has("<A>"))

		view := m.DeviceView()
		assert.True(t, view.Filtered)
		assert.Len(t, view.Devices, 2)
		assert.Nil(t, view.Regions)

		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
		assert.False(t, m.Selected().Active())
		assert.False(t, m.DeviceView().Filtered)
	})

	t.Run("selection narrows to superset devices", func(t *testing.T) {
		m := loaded(t, &fakeLister{devices: fixtureDevices()})

		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
		m.Update(keyRunes("j"))
		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})

		assert.Equal(t, []string{"<A>", "<B>"}, m.Selected().Keys())
		view := m.DeviceView()
		require.Len(t, view.Devices, 1)
		assert.Equal(t, "1", view.Devices[0].ID)
	})

	t.Run("clear resets the filter", func(t *testing.T) {
		m := loaded(t, &fakeLister{devices: fixtureDevices()})

		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
		m.Update(keyRunes("c"))
		assert.False(t, m.Selected().Active())
	})

	t.Run("refetch drops keys that disappeared", func(t *testing.T) {
		lister := &fakeLister{devices: fixtureDevices()}
		m := loaded(t, lister)

		m.Update(keyRunes("j"))
		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
		require.True(t, m.Selected().Has("<B>"))

		lister.devices = fixtureDevices()[1:]
		_, cmd := m.Update(keyRunes("r"))
		require.NotNil(t, cmd)
		assert.True(t, m.loading)

		m.Update(cmd())
		assert.Equal(t, 2, lister.calls)
		assert.False(t, m.Selected().Has("<B>"))
		assert.Equal(t, []string{"<A>"}, m.tagKeys)
	})

	t.Run("fetch error keeps previous devices", func(t *testing.T) {
		lister := &fakeLister{devices: fixtureDevices()}
		m := loaded(t, lister)

		lister.err = errors.New("connection refused")
		_, cmd := m.Update(keyRunes("r"))
		m.Update(cmd())

		assert.Error(t, m.err)
		assert.Len(t, m.devices, 3)
		assert.Contains(t, m.View(), "connection refused")
	})

	t.Run("quit", func(t *testing.T) {
		m := loaded(t, &fakeLister{devices: fixtureDevices()})
		_, cmd := m.Update(keyRunes("q"))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("view", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeLister{}, "", log.New(io.Discard))
		assert.Contains(t, m.View(), "Loading devices")

		m = loaded(t, &fakeLister{devices: fixtureDevices()})
		out := m.View()
		assert.Contains(t, out, "Devices by region")
		assert.Contains(t, out, "East (2)")

		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
		assert.Contains(t, m.View(), "Devices with A (2)")
	})
}

func TestTagItem(t *testing.T) {
	items := tagItems(fixtureDevices(), []string{"<A>", "<B>"}, models.NewFilterState("<B>"))
	require.Len(t, items, 2)

	a := items[0].(tagItem)
	assert.Equal(t, "[ ] A", a.Title())
	assert.Equal(t, "2 devices", a.Description())
	assert.Equal(t, "A", a.FilterValue())

	b := items[1].(tagItem)
	assert.Equal(t, "[x] B", b.Title())
}
