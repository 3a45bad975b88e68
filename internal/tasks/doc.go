// Package tasks runs multi-request operations against the signage API with real-time progress reporting.
//
// # Core Operations
//
//  1. [Planner.Plan] : Schedule one content item into one or more playlists
//     - Validates the request (at least one playlist, non-negative duration, ordered validity window)
//     - Fetches the content item and each playlist's current content
//     - Prepends the new entry and saves each playlist, one at a time
//     - Reports a per-playlist outcome; one failed save never aborts the rest
//
//  2. [AddTags] and [DeleteTag] : Apply a tag edit to several devices
//     - One request per device, serially, no retries
//     - Returns a per-device result
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Planning History
//
// The optional [HistoryRecorder] interface stores each playlist outcome (repositories.PlanningRepository).
// [Recorders] sends each outcome to several recorders, e.g. the history table and the event sinks.
// Recording failures are logged and otherwise ignored so they never change a planning result.
package tasks
