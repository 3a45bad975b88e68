// Package ui implements an interactive device browser using bubbletea's Elm architecture.
//
// The screen has two panes:
//  1. Tag keys (left) : every tag key seen on any device; space toggles a key into the filter
//  2. Devices (right) : devices carrying every selected key, or all devices grouped by region when nothing is selected
//
// Devices are fetched once on start and again on demand (r). Filtering and grouping are pure calls into package filter,
// so toggling a key never touches the network.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// Keyboard navigation uses vim-style bindings (j/k, space, c, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
