package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/signx/internal/filter"
	"github.com/desertthunder/signx/internal/models"
)

// DeviceLister fetches the device list.
type DeviceLister interface {
	GetDevices(ctx context.Context) ([]models.Device, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	api      DeviceLister
	network  string
	logger   *log.Logger
	devices  []models.Device
	tagKeys  []string
	selected models.FilterState
	tagList  list.Model
	loading  bool
	err      error
	width    int
	height   int
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model. network controls device name rendering (see [filter.DisplayName]).
func NewModel(ctx context.Context, api DeviceLister, network string, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Default()
	}

	tagList := list.New(nil, list.NewDefaultDelegate(), 32, 20)
	tagList.Title = "Tag keys"
	tagList.SetShowHelp(false)

	return &Model{
		ctx:      ctx,
		api:      api,
		network:  network,
		logger:   logger,
		selected: models.NewFilterState(),
		tagList:  tagList,
		loading:  true,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init fetches devices once.
func (m *Model) Init() tea.Cmd {
	return m.fetchDevices()
}

// Selected returns the current tag selection.
func (m *Model) Selected() models.FilterState {
	return m.selected
}

// DeviceView returns what the right pane shows for the current selection.
func (m *Model) DeviceView() filter.DeviceView {
	return filter.View(m.devices, m.selected)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tagList.SetSize(max(msg.Width/3, 20), max(msg.Height-6, 5))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgDevicesFetched:
			data := msg.data.(devicesFetched)
			return m, m.devicesFetched(data.devices, data.err)
		}
	}

	var cmd tea.Cmd
	m.tagList, cmd = m.tagList.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tagList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.tagList, cmd = m.tagList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.tagList.SelectedItem().(tagItem); ok {
			m.selected = m.selected.Toggle(item.key)
			return m, m.refreshTags()
		}
		return m, nil
	case key.Matches(msg, m.keys.clear):
		m.selected = models.NewFilterState()
		return m, m.refreshTags()
	case key.Matches(msg, m.keys.refresh):
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.err = nil
		return m, m.fetchDevices()
	}

	var cmd tea.Cmd
	m.tagList, cmd = m.tagList.Update(msg)
	return m, cmd
}

// devicesFetched replaces the device list. Selected keys no longer present on any device are dropped.
// On error the previous devices stay on screen.
func (m *Model) devicesFetched(devices []models.Device, err error) tea.Cmd {
	m.loading = false
	if err != nil {
		m.err = err
		m.logger.Error("failed to fetch devices", "error", err)
		return nil
	}

	m.devices = devices
	m.tagKeys = filter.CollectTagKeys(devices)

	present := make(map[string]struct{}, len(m.tagKeys))
	for _, k := range m.tagKeys {
		present[k] = struct{}{}
	}
	for _, k := range m.selected.Keys() {
		if _, ok := present[k]; !ok {
			m.selected = m.selected.Without(k)
		}
	}

	m.logger.Debug("devices fetched", "count", len(devices), "tag_keys", len(m.tagKeys))
	return m.refreshTags()
}

func (m *Model) refreshTags() tea.Cmd {
	return m.tagList.SetItems(tagItems(m.devices, m.tagKeys, m.selected))
}

func (m *Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.api.GetDevices(m.ctx)
		return devicesFetchedMsg(devices, err)
	}
}

// View renders both panes and the help line.
func (m *Model) View() string {
	if m.loading && m.devices == nil {
		return styles.title.Render("Loading devices...")
	}

	left := styles.pane.Render(m.tagList.View())
	right := styles.pane.Render(m.renderDevices())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	var status string
	switch {
	case m.err != nil:
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.loading:
		status = styles.warn.Render("Refreshing...")
	}

	return fmt.Sprintf("%s\n%s\n%s", body, status, m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *Model) renderDevices() string {
	view := m.DeviceView()
	var b strings.Builder

	if view.Filtered {
		labels := make([]string, 0, m.selected.Len())
		for _, k := range m.selected.Keys() {
			labels = append(labels, filter.TagLabel(k))
		}
		b.WriteString(styles.title.Render(fmt.Sprintf("Devices with %s (%d)", strings.Join(labels, " + "), len(view.Devices))))
		b.WriteString("\n")
		if len(view.Devices) == 0 {
			b.WriteString(styles.warn.Render("No device carries every selected tag"))
		}
		for _, d := range view.Devices {
			b.WriteString(deviceLine(d, m.network))
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(styles.title.Render(fmt.Sprintf("Devices by region (%d)", len(m.devices))))
	b.WriteString("\n")
	for _, g := range view.Regions {
		b.WriteString(styles.region.Render(fmt.Sprintf("%s (%d)", g.Region, len(g.Devices))))
		b.WriteString("\n")
		for _, d := range g.Devices {
			b.WriteString(deviceLine(d, m.network))
			b.WriteString("\n")
		}
	}
	return b.String()
}
