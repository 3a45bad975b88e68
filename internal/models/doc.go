// Package models defines the typed records the rest of signx works with.
//
// The remote API's namespaced XML is mapped onto these types once, by package adapter, so nothing downstream reads raw keys:
//   - [Device] with its [Tag] list and region, grouped into [RegionGroup] values
//   - [Playlist] summaries and [PlaylistDetail] with its [PlaylistContent] entries and capability flags
//   - [Content] items that can be planned into playlists
//   - [FilterState], the selected tag keys driving device filtering
//   - [PlanningRecord], a persisted outcome of saving content into a playlist
package models
