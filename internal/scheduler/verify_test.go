package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

func TestVerifyDetectsViolations(t *testing.T) {
	grid := MustGrid([]int{1, 2}, 4, "08:00", 60)
	input := Input{
		Activities: []models.Activity{
			activity("a", "ins-1", "grp-1", "LECTURE", 2, 2),
			activity("b", "ins-1", "grp-2", "LAB", 1, 1),
		},
		Rooms:  []models.Room{room("r1", "LECTURE", 20), room("l1", "LAB", 40)},
		Groups: []models.StudentGroup{group("grp-1", 30)},
	}
	entries := []models.TimetableEntry{
		{ActivityID: "a", Occurrence: 1, RoomID: "r1", DayOfWeek: 1, SlotIndex: 1, Duration: 2},
		{ActivityID: "a", Occurrence: 2, RoomID: "r1", DayOfWeek: 1, SlotIndex: 3, Duration: 2},
		{ActivityID: "b", Occurrence: 1, RoomID: "r1", DayOfWeek: 1, SlotIndex: 2, Duration: 1},
		{ActivityID: "x", Occurrence: 1, RoomID: "r1", DayOfWeek: 2, SlotIndex: 1, Duration: 1},
	}

	violations := Verify(grid, input, entries)
	require.NotEmpty(t, violations)

	found := make(map[Constraint]bool)
	for _, v := range violations {
		found[v.Constraint] = true
	}
	assert.True(t, found[ConstraintRoomCapacity])
	assert.True(t, found[ConstraintSameDay])
	assert.True(t, found[ConstraintRoomType])
	assert.True(t, found[ConstraintRoomDoubleBooked])
	assert.True(t, found[ConstraintInstructorDoubleBooked])
	assert.True(t, found[ConstraintUnknownReference])
	assert.False(t, found[ConstraintGroupDoubleBooked])
}

func TestVerifyRejectsSpansOutsideGrid(t *testing.T) {
	grid := MustGrid([]int{1}, 3, "08:00", 60)
	input := Input{
		Activities: []models.Activity{activity("a", "ins-1", "grp-1", "LECTURE", 2, 1)},
		Rooms:      []models.Room{room("r1", "LECTURE", 20)},
	}

	violations := Verify(grid, input, []models.TimetableEntry{
		{ActivityID: "a", Occurrence: 1, RoomID: "r1", DayOfWeek: 1, SlotIndex: 3, Duration: 2},
	})

	require.Len(t, violations, 1)
	assert.Equal(t, ConstraintOutsideGrid, violations[0].Constraint)
}

func TestVerifyAcceptsValidTimetable(t *testing.T) {
	grid := MustGrid([]int{1, 2}, 4, "08:00", 60)
	input := Input{
		Activities: []models.Activity{activity("a", "ins-1", "grp-1", "LECTURE", 2, 2)},
		Rooms:      []models.Room{room("r1", "LECTURE", 40)},
		Groups:     []models.StudentGroup{group("grp-1", 30)},
	}

	assert.Empty(t, Verify(grid, input, []models.TimetableEntry{
		{ActivityID: "a", Occurrence: 1, RoomID: "r1", DayOfWeek: 1, SlotIndex: 1, Duration: 2},
		{ActivityID: "a", Occurrence: 2, RoomID: "r1", DayOfWeek: 2, SlotIndex: 3, Duration: 2},
	}))
}
