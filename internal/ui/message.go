package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/signx/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDevicesFetched MsgKind = iota
)

type devicesFetched struct {
	devices []models.Device
	err     error
}

// devicesFetchedMsg is the constructor for [MsgDevicesFetched]
func devicesFetchedMsg(devices []models.Device, err error) Msg {
	return Msg{kind: MsgDevicesFetched, data: devicesFetched{devices, err}}
}
