// Package repositories implements SQLite persistence for planning history.
//
// Key Implementations:
//   - [PlanningRepository] : One row per content-to-playlist save attempt, queried by content or playlist
//
// Rows are keyed by UUIDs from [shared.GenerateID] and ordered newest first. The schema lives in the embedded
// migrations under internal/shared/sql.
package repositories
