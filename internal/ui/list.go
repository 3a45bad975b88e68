package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/signx/internal/filter"
	"github.com/desertthunder/signx/internal/models"
)

var (
	_ list.Item = tagItem{}
)

// tagItem wraps a tag key to implement [list.Item].
type tagItem struct {
	key      string
	selected bool
	count    int // Devices carrying the key
}

func (i tagItem) FilterValue() string { return filter.TagLabel(i.key) }
func (i tagItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s", mark, filter.TagLabel(i.key))
}
func (i tagItem) Description() string {
	return fmt.Sprintf("%d devices", i.count)
}

// tagItems builds list items for keys, marking those in selected.
func tagItems(devices []models.Device, keys []string, selected models.FilterState) []list.Item {
	counts := make(map[string]int, len(keys))
	for _, d := range devices {
		for key := range d.TagKeys() {
			counts[key]++
		}
	}

	items := make([]list.Item, len(keys))
	for i, key := range keys {
		items[i] = tagItem{key: key, selected: selected.Has(key), count: counts[key]}
	}
	return items
}

// deviceLine renders one device for the right pane.
func deviceLine(d models.Device, network string) string {
	labels := make([]string, 0, len(d.Tags))
	for _, tag := range d.Tags {
		labels = append(labels, filter.TagLabel(tag.Key)+"="+tag.Value)
	}
	line := "• " + filter.DisplayName(d.Name, network)
	if len(labels) > 0 {
		line += "  " + styles.help.Render(strings.Join(labels, ", "))
	}
	return line
}
