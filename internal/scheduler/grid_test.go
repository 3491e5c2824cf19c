package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridValidates(t *testing.T) {
	_, err := NewGrid(nil, 10, "08:00", 60)
	assert.Error(t, err)

	_, err = NewGrid([]int{1}, 0, "08:00", 60)
	assert.Error(t, err)

	_, err = NewGrid([]int{1}, 10, "8am", 60)
	assert.Error(t, err)

	_, err = NewGrid([]int{1}, 20, "08:00", 60)
	assert.Error(t, err, "grid overflowing midnight must be rejected")
}

func TestGridSlotsAreDayMajor(t *testing.T) {
	grid, err := NewGrid([]int{3, 1, 1, 9}, 3, "07:30", 45)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, grid.Days())
	assert.Equal(t, 6, grid.Size())

	slots := grid.Slots()
	require.Len(t, slots, 6)
	assert.Equal(t, 1, slots[0].DayOfWeek)
	assert.Equal(t, 1, slots[0].Index)
	assert.Equal(t, "07:30", slots[0].Start)
	assert.Equal(t, "08:15", slots[0].End)
	assert.Equal(t, 3, slots[3].DayOfWeek)
	assert.Equal(t, "09:00", slots[5].Start)

	for pos, slot := range slots {
		assert.Equal(t, pos, grid.position(slot.DayOfWeek, slot.Index))
		day, index := grid.cell(pos)
		assert.Equal(t, slot.DayOfWeek, day)
		assert.Equal(t, slot.Index, index)
	}
}

func TestGridContainsAndSpan(t *testing.T) {
	grid := MustGrid([]int{1, 2}, 4, "08:00", 60)

	assert.True(t, grid.Contains(2, 4))
	assert.False(t, grid.Contains(3, 1))
	assert.False(t, grid.Contains(1, 5))
	assert.False(t, grid.Contains(1, 0))

	span, ok := grid.Span(1, 3, 2)
	require.True(t, ok)
	assert.Equal(t, "10:00", span.Start)
	assert.Equal(t, "12:00", span.End)

	_, ok = grid.Span(1, 4, 2)
	assert.False(t, ok)
}

func TestDayIndex(t *testing.T) {
	assert.Equal(t, 1, DayIndex("monday"))
	assert.Equal(t, 3, DayIndex("Wed"))
	assert.Equal(t, 7, DayIndex("7"))
	assert.Equal(t, 0, DayIndex("8"))
	assert.Equal(t, 0, DayIndex("someday"))
	assert.Equal(t, "FRIDAY", DayName(5))
	assert.Equal(t, "", DayName(0))
}
