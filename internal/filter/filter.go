// Package filter selects and groups devices and playlists for display.
//
// Everything here is pure: the current selection is passed in as a [models.FilterState] value,
// so the same functions back the CLI commands, the TUI, and the tests.
package filter

import (
	"regexp"
	"strings"

	"github.com/desertthunder/signx/internal/models"
)

// FilterByTags returns the devices carrying every selected tag key, in input order.
//
// An inactive (empty) selection returns an empty slice rather than all devices.
// Callers must branch on [models.FilterState.Active] and fall back to [GroupByRegion].
func FilterByTags(devices []models.Device, selected models.FilterState) []models.Device {
	out := []models.Device{}
	if !selected.Active() {
		return out
	}

	keys := selected.Keys()
	for _, device := range devices {
		tagKeys := device.TagKeys()
		matched := true
		for _, key := range keys {
			if _, ok := tagKeys[key]; !ok {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, device)
		}
	}
	return out
}

// GroupByRegion partitions devices by region in first-seen region order.
func GroupByRegion(devices []models.Device) []models.RegionGroup {
	groups := []models.RegionGroup{}
	index := make(map[string]int)
	for _, device := range devices {
		i, ok := index[device.Region]
		if !ok {
			i = len(groups)
			index[device.Region] = i
			groups = append(groups, models.RegionGroup{Region: device.Region})
		}
		groups[i].Devices = append(groups[i].Devices, device)
	}
	return groups
}

// CollectTagKeys returns every distinct tag key across devices, in first-seen order.
func CollectTagKeys(devices []models.Device) []string {
	keys := []string{}
	seen := make(map[string]struct{})
	for _, device := range devices {
		for _, tag := range device.Tags {
			if _, ok := seen[tag.Key]; ok {
				continue
			}
			seen[tag.Key] = struct{}{}
			keys = append(keys, tag.Key)
		}
	}
	return keys
}

// DeviceView is what a device listing shows: either filtered devices or region groups, never both.
type DeviceView struct {
	Filtered bool
	Devices  []models.Device
	Regions  []models.RegionGroup
}

// View applies the selection rule: an active filter yields [FilterByTags], otherwise [GroupByRegion].
func View(devices []models.Device, selected models.FilterState) DeviceView {
	if selected.Active() {
		return DeviceView{Filtered: true, Devices: FilterByTags(devices, selected)}
	}
	return DeviceView{Regions: GroupByRegion(devices)}
}

var bracketed = regexp.MustCompile(`<([^>]+)>`)

// TagLabel strips the angle-bracket wrapper from a tag key for display.
// Keys without a wrapper are returned unchanged.
func TagLabel(key string) string {
	if m := bracketed.FindStringSubmatch(key); m != nil {
		return m[1]
	}
	return key
}

// SplitNameNetwork is the network whose device names are underscore-delimited.
const SplitNameNetwork = "FW"

// DisplayName renders a device name for network. On [SplitNameNetwork], "A_B_C_D" renders as "B - C D";
// elsewhere the name is returned as-is.
func DisplayName(name, network string) string {
	if network != SplitNameNetwork {
		return name
	}
	parts := strings.Split(name, "_")
	part := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return strings.TrimRight(part(1)+" - "+part(2)+" "+part(3), " ")
}

// SearchPlaylists returns playlists whose name contains query, case-insensitively.
// An empty query returns every playlist.
func SearchPlaylists(playlists []models.Playlist, query string) []models.Playlist {
	needle := strings.ToLower(query)
	out := make([]models.Playlist, 0, len(playlists))
	for _, p := range playlists {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}
