package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterState(t *testing.T) {
	t.Run("Zero Value Is Inactive", func(t *testing.T) {
		var fs FilterState
		assert.False(t, fs.Active())
		assert.Equal(t, 0, fs.Len())
		assert.Empty(t, fs.Keys())
		assert.False(t, fs.Has("<A>"))
	})

	t.Run("Dedupes And Keeps Order", func(t *testing.T) {
		fs := NewFilterState("<B>", "<A>", "<B>", "")
		assert.Equal(t, []string{"<B>", "<A>"}, fs.Keys())
		assert.True(t, fs.Active())
	})

	t.Run("Toggle Is Persistent", func(t *testing.T) {
		base := NewFilterState("<A>")
		added := base.Toggle("<B>")
		removed := added.Toggle("<A>")

		assert.Equal(t, []string{"<A>"}, base.Keys())
		assert.Equal(t, []string{"<A>", "<B>"}, added.Keys())
		assert.Equal(t, []string{"<B>"}, removed.Keys())
		assert.False(t, removed.Has("<A>"))
	})

	t.Run("Without Missing Key", func(t *testing.T) {
		fs := NewFilterState("<A>")
		assert.Equal(t, fs, fs.Without("<Z>"))
	})
}

func TestDeviceTagKeys(t *testing.T) {
	d := Device{Tags: []Tag{{Key: "<A>"}, {Key: "<B>"}, {Key: "<A>", Value: "dup"}}}
	assert.Len(t, d.TagKeys(), 2)
}

func TestPlanningRecordValidate(t *testing.T) {
	valid := PlanningRecord{ContentID: "c", PlaylistID: "p"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&PlanningRecord{PlaylistID: "p"}).Validate())
	assert.Error(t, (&PlanningRecord{ContentID: "c"}).Validate())
	assert.Error(t, (&PlanningRecord{ContentID: "c", PlaylistID: "p", DisplaySeconds: -1}).Validate())
}
