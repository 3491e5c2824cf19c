package scheduler

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

// Constraint names a hard rule a timetable must satisfy.
type Constraint string

const (
	ConstraintRoomDoubleBooked       Constraint = "ROOM_DOUBLE_BOOKED"
	ConstraintInstructorDoubleBooked Constraint = "INSTRUCTOR_DOUBLE_BOOKED"
	ConstraintGroupDoubleBooked      Constraint = "GROUP_DOUBLE_BOOKED"
	ConstraintRoomType               Constraint = "ROOM_TYPE_MISMATCH"
	ConstraintRoomCapacity           Constraint = "ROOM_CAPACITY"
	ConstraintSameDay                Constraint = "SAME_DAY_OCCURRENCES"
	ConstraintOutsideGrid            Constraint = "OUTSIDE_GRID"
	ConstraintUnknownReference       Constraint = "UNKNOWN_REFERENCE"
)

// Violation is a single broken rule found by Verify.
type Violation struct {
	Constraint Constraint `json:"constraint"`
	ActivityID string     `json:"activity_id"`
	Occurrence int        `json:"occurrence"`
	Message    string     `json:"message"`
}

// Verify re-checks a set of entries against every hard constraint without trusting the search
// that produced them. It returns nil for a valid timetable.
func Verify(grid Grid, input Input, entries []models.TimetableEntry) []Violation {
	activities := lo.KeyBy(input.Activities, func(a models.Activity) string { return a.ID })
	rooms := lo.KeyBy(input.Rooms, func(r models.Room) string { return r.ID })
	groupSize := lo.SliceToMap(input.Groups, func(g models.StudentGroup) (string, int) { return g.ID, g.Size })

	var violations []Violation
	report := func(entry models.TimetableEntry, c Constraint, format string, args ...any) {
		violations = append(violations, Violation{
			Constraint: c,
			ActivityID: entry.ActivityID,
			Occurrence: entry.Occurrence,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	roomCells := make(map[cellKey]string)
	instructorCells := make(map[cellKey]string)
	groupCells := make(map[cellKey]string)
	activityDays := make(map[string]map[int]int)

	for _, entry := range entries {
		act, ok := activities[entry.ActivityID]
		if !ok {
			report(entry, ConstraintUnknownReference, "activity %s is not part of the input", entry.ActivityID)
			continue
		}
		room, ok := rooms[entry.RoomID]
		if !ok {
			report(entry, ConstraintUnknownReference, "room %s is not part of the inventory", entry.RoomID)
			continue
		}
		if room.RoomTypeID != act.RoomTypeID {
			report(entry, ConstraintRoomType, "room %s has type %s, activity needs %s", room.ID, room.RoomTypeID, act.RoomTypeID)
		}
		if size := groupSize[act.StudentGroupID]; size > 0 && room.Capacity < size {
			report(entry, ConstraintRoomCapacity, "room %s seats %d, group %s has %d", room.ID, room.Capacity, act.StudentGroupID, size)
		}
		duration := act.Duration
		if _, ok := grid.Span(entry.DayOfWeek, entry.SlotIndex, duration); !ok {
			report(entry, ConstraintOutsideGrid, "day %d slot %d for %d slots is outside the grid", entry.DayOfWeek, entry.SlotIndex, duration)
			continue
		}

		if activityDays[act.ID] == nil {
			activityDays[act.ID] = make(map[int]int)
		}
		if other, taken := activityDays[act.ID][entry.DayOfWeek]; taken {
			report(entry, ConstraintSameDay, "occurrences %d and %d share day %d", other, entry.Occurrence, entry.DayOfWeek)
		} else {
			activityDays[act.ID][entry.DayOfWeek] = entry.Occurrence
		}

		label := fmt.Sprintf("%s#%d", act.ID, entry.Occurrence)
		for slot := entry.SlotIndex; slot < entry.SlotIndex+duration; slot++ {
			if other, busy := roomCells[cellKey{room.ID, entry.DayOfWeek, slot}]; busy {
				report(entry, ConstraintRoomDoubleBooked, "room %s at day %d slot %d also holds %s", room.ID, entry.DayOfWeek, slot, other)
			}
			if other, busy := instructorCells[cellKey{act.InstructorID, entry.DayOfWeek, slot}]; busy {
				report(entry, ConstraintInstructorDoubleBooked, "instructor %s at day %d slot %d also teaches %s", act.InstructorID, entry.DayOfWeek, slot, other)
			}
			if other, busy := groupCells[cellKey{act.StudentGroupID, entry.DayOfWeek, slot}]; busy {
				report(entry, ConstraintGroupDoubleBooked, "group %s at day %d slot %d also attends %s", act.StudentGroupID, entry.DayOfWeek, slot, other)
			}
			roomCells[cellKey{room.ID, entry.DayOfWeek, slot}] = label
			instructorCells[cellKey{act.InstructorID, entry.DayOfWeek, slot}] = label
			groupCells[cellKey{act.StudentGroupID, entry.DayOfWeek, slot}] = label
		}
	}
	return violations
}
