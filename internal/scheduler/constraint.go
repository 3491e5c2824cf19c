package scheduler

import (
	"sort"

	"github.com/samber/lo"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

// occurrence is the n-th weekly meeting of an activity, addressed by index into the input slice.
type occurrence struct {
	activity int
	ordinal  int
}

type cellKey struct {
	id   string
	day  int
	slot int
}

// placement is the mutable booking state of one search.
type placement struct {
	rooms       map[cellKey]struct{}
	instructors map[cellKey]struct{}
	groups      map[cellKey]struct{}
	days        map[int]map[int]struct{}
}

func newPlacement() *placement {
	return &placement{
		rooms:       make(map[cellKey]struct{}),
		instructors: make(map[cellKey]struct{}),
		groups:      make(map[cellKey]struct{}),
		days:        make(map[int]map[int]struct{}),
	}
}

// constraintModel answers feasibility questions against the static inputs.
type constraintModel struct {
	grid       Grid
	activities []models.Activity
	rooms      []models.Room
	groupSize  map[string]int
	candidates [][]int
}

func newConstraintModel(grid Grid, input Input) *constraintModel {
	m := &constraintModel{
		grid:       grid,
		activities: input.Activities,
		rooms:      input.Rooms,
		groupSize:  lo.SliceToMap(input.Groups, func(g models.StudentGroup) (string, int) { return g.ID, g.Size }),
	}
	m.candidates = make([][]int, len(m.activities))
	for idx := range m.activities {
		m.candidates[idx] = m.compatibleRooms(idx)
	}
	return m
}

// compatibleRooms lists rooms of the required type that seat the group, smallest first.
// Rooms of equal capacity keep inventory order.
func (m *constraintModel) compatibleRooms(activity int) []int {
	act := m.activities[activity]
	size := m.groupSize[act.StudentGroupID]
	indexes := lo.Filter(lo.Range(len(m.rooms)), func(idx int, _ int) bool {
		room := m.rooms[idx]
		return room.RoomTypeID == act.RoomTypeID && (size <= 0 || room.Capacity >= size)
	})
	sort.SliceStable(indexes, func(i, j int) bool {
		return m.rooms[indexes[i]].Capacity < m.rooms[indexes[j]].Capacity
	})
	return indexes
}

func (m *constraintModel) candidateRooms(activity int) []int {
	return m.candidates[activity]
}

// startableSlots counts grid cells where a block of the activity's duration fits, ignoring bookings.
func (m *constraintModel) startableSlots(activity int) int {
	perDay := m.grid.slotsPerDay - m.activities[activity].Duration + 1
	if perDay < 0 {
		perDay = 0
	}
	return perDay * len(m.grid.days)
}

// candidateSlots lists start positions for the activity that fit the day and avoid days
// already used by its sibling occurrences.
func (m *constraintModel) candidateSlots(st *placement, activity int) []int {
	duration := m.activities[activity].Duration
	used := st.days[activity]
	var out []int
	for _, day := range m.grid.days {
		if _, taken := used[day]; taken {
			continue
		}
		for slot := 1; slot+duration-1 <= m.grid.slotsPerDay; slot++ {
			out = append(out, m.grid.position(day, slot))
		}
	}
	return out
}

// isFeasible reports whether the occurrence can take (room, pos) without breaking any hard constraint.
func (m *constraintModel) isFeasible(st *placement, occ occurrence, room, pos int) bool {
	act := m.activities[occ.activity]
	r := m.rooms[room]
	if r.RoomTypeID != act.RoomTypeID {
		return false
	}
	if size := m.groupSize[act.StudentGroupID]; size > 0 && r.Capacity < size {
		return false
	}
	day, slot := m.grid.cell(pos)
	if slot+act.Duration-1 > m.grid.slotsPerDay {
		return false
	}
	if _, taken := st.days[occ.activity][day]; taken {
		return false
	}
	for s := slot; s < slot+act.Duration; s++ {
		if _, busy := st.rooms[cellKey{r.ID, day, s}]; busy {
			return false
		}
		if _, busy := st.instructors[cellKey{act.InstructorID, day, s}]; busy {
			return false
		}
		if _, busy := st.groups[cellKey{act.StudentGroupID, day, s}]; busy {
			return false
		}
	}
	return true
}

func (m *constraintModel) place(st *placement, occ occurrence, room, pos int) {
	act := m.activities[occ.activity]
	day, slot := m.grid.cell(pos)
	for s := slot; s < slot+act.Duration; s++ {
		st.rooms[cellKey{m.rooms[room].ID, day, s}] = struct{}{}
		st.instructors[cellKey{act.InstructorID, day, s}] = struct{}{}
		st.groups[cellKey{act.StudentGroupID, day, s}] = struct{}{}
	}
	if st.days[occ.activity] == nil {
		st.days[occ.activity] = make(map[int]struct{})
	}
	st.days[occ.activity][day] = struct{}{}
}

func (m *constraintModel) release(st *placement, occ occurrence, room, pos int) {
	act := m.activities[occ.activity]
	day, slot := m.grid.cell(pos)
	for s := slot; s < slot+act.Duration; s++ {
		delete(st.rooms, cellKey{m.rooms[room].ID, day, s})
		delete(st.instructors, cellKey{act.InstructorID, day, s})
		delete(st.groups, cellKey{act.StudentGroupID, day, s})
	}
	delete(st.days[occ.activity], day)
}
