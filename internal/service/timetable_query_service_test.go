package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type activeTimetableStub struct {
	timetable *models.Timetable
}

func (s activeTimetableStub) FindActive(context.Context, string) (*models.Timetable, error) {
	if s.timetable == nil {
		return nil, sql.ErrNoRows
	}
	return s.timetable, nil
}

type entryReaderStub struct {
	entries  []models.TimetableEntry
	occupied []string
	calls    int
}

func (s *entryReaderStub) ListBySemester(_ context.Context, _ string, group string) ([]models.TimetableEntry, error) {
	s.calls++
	var out []models.TimetableEntry
	for _, entry := range s.entries {
		if group == "" || entry.StudentGroupID == group {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *entryReaderStub) ListByInstructor(_ context.Context, _ string, instructor string) ([]models.TimetableEntry, error) {
	s.calls++
	var out []models.TimetableEntry
	for _, entry := range s.entries {
		if entry.InstructorID == instructor {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *entryReaderStub) OccupiedRoomIDs(context.Context, string, int, int) ([]string, error) {
	s.calls++
	return s.occupied, nil
}

type memoryCacheStub struct {
	items map[string][]byte
}

func (c *memoryCacheStub) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func queryGrid() scheduler.Grid {
	return scheduler.MustGrid([]int{1, 2, 3, 4, 5}, 4, "08:00", 60)
}

func committedEntries() []models.TimetableEntry {
	return []models.TimetableEntry{
		{ID: "e1", TimetableID: "tt-1", ActivityID: "a1", Occurrence: 1, CourseID: "c1", InstructorID: "i1", StudentGroupID: "g2", RoomID: "r1", DayOfWeek: 1, SlotIndex: 1, Duration: 2},
		{ID: "e2", TimetableID: "tt-1", ActivityID: "a2", Occurrence: 1, CourseID: "c2", InstructorID: "i2", StudentGroupID: "g1", RoomID: "r2", DayOfWeek: 2, SlotIndex: 3, Duration: 1},
	}
}

func activeTimetable(t *testing.T) *models.Timetable {
	t.Helper()
	meta, err := json.Marshal(timetableMeta{
		Unscheduled: []dto.UnscheduledOccurrence{{ActivityID: "a3", Occurrence: 1, Reason: "NO_COMPATIBLE_ROOM", Message: "no compatible room"}},
		Stats:       dto.GenerationStats{Occurrences: 3, Placed: 2, Unscheduled: 1},
	})
	require.NoError(t, err)
	return &models.Timetable{ID: "tt-1", SemesterID: "sem-1", Version: 4, Status: models.TimetableStatusActive, Meta: types.JSONText(meta)}
}

func queryRooms() []models.Room {
	return []models.Room{
		{ID: "r1", Name: "A-101", RoomTypeID: "lecture", Capacity: 40},
		{ID: "r2", Name: "Lab 1", RoomTypeID: "lab", Capacity: 20},
	}
}

func TestTimetableQueryServiceEmptySemester(t *testing.T) {
	svc := NewTimetableQueryService(activeTimetableStub{}, &entryReaderStub{}, roomListerStub{rooms: queryRooms()}, nil, queryGrid(), nil)

	resp, err := svc.GetSchedule(context.Background(), "sem-1", dto.ScheduleQuery{})
	require.NoError(t, err)
	assert.Empty(t, resp.TimetableID)
	assert.Empty(t, resp.Groups)
	assert.NotNil(t, resp.Groups)
	assert.Nil(t, resp.Stats)

	free, err := svc.GetFreeRooms(context.Background(), "sem-1", dto.FreeRoomsQuery{Day: 1, Slot: 1})
	require.NoError(t, err)
	assert.Len(t, free.Rooms, 2)
}

func TestTimetableQueryServiceGroupsSchedule(t *testing.T) {
	entries := &entryReaderStub{entries: committedEntries()}
	svc := NewTimetableQueryService(activeTimetableStub{timetable: activeTimetable(t)}, entries, roomListerStub{}, nil, queryGrid(), nil)

	resp, err := svc.GetSchedule(context.Background(), "sem-1", dto.ScheduleQuery{})
	require.NoError(t, err)
	assert.Equal(t, "tt-1", resp.TimetableID)
	assert.Equal(t, 4, resp.Version)
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "g1", resp.Groups[0].StudentGroupID)
	assert.Equal(t, "g2", resp.Groups[1].StudentGroupID)
	assert.Equal(t, "08:00", resp.Groups[1].Entries[0].TimeSlot.Start)
	assert.Equal(t, "10:00", resp.Groups[1].Entries[0].TimeSlot.End)
	require.Len(t, resp.Unscheduled, 1)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 2, resp.Stats.Placed)

	filtered, err := svc.GetSchedule(context.Background(), "sem-1", dto.ScheduleQuery{StudentGroupID: "g1"})
	require.NoError(t, err)
	require.Len(t, filtered.Groups, 1)
	assert.Empty(t, filtered.Unscheduled)
}

func TestTimetableQueryServiceTeacherSchedule(t *testing.T) {
	svc := NewTimetableQueryService(activeTimetableStub{timetable: activeTimetable(t)}, &entryReaderStub{entries: committedEntries()}, roomListerStub{}, nil, queryGrid(), nil)

	resp, err := svc.GetTeacherSchedule(context.Background(), "sem-1", "i1")
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	require.Len(t, resp.ReservedSlots, 2)
	assert.Equal(t, 1, resp.ReservedSlots[0].Index)
	assert.Equal(t, 2, resp.ReservedSlots[1].Index)

	_, err = svc.GetTeacherSchedule(context.Background(), "sem-1", "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestTimetableQueryServiceFreeRooms(t *testing.T) {
	svc := NewTimetableQueryService(activeTimetableStub{timetable: activeTimetable(t)}, &entryReaderStub{occupied: []string{"r1"}}, roomListerStub{rooms: queryRooms()}, nil, queryGrid(), nil)

	resp, err := svc.GetFreeRooms(context.Background(), "sem-1", dto.FreeRoomsQuery{Day: 1, Slot: 2})
	require.NoError(t, err)
	require.Len(t, resp.Rooms, 1)
	assert.Equal(t, "r2", resp.Rooms[0].ID)
	assert.Equal(t, "09:00", resp.TimeSlot.Start)

	_, err = svc.GetFreeRooms(context.Background(), "sem-1", dto.FreeRoomsQuery{Day: 6, Slot: 1})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.GetFreeRooms(context.Background(), "sem-1", dto.FreeRoomsQuery{Day: 1, Slot: 5})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestTimetableQueryServiceServesFromCache(t *testing.T) {
	entries := &entryReaderStub{entries: committedEntries()}
	cache := &memoryCacheStub{items: make(map[string][]byte)}
	svc := NewTimetableQueryService(activeTimetableStub{timetable: activeTimetable(t)}, entries, roomListerStub{}, cache, queryGrid(), nil)

	first, err := svc.GetSchedule(context.Background(), "sem-1", dto.ScheduleQuery{})
	require.NoError(t, err)
	calls := entries.calls

	second, err := svc.GetSchedule(context.Background(), "sem-1", dto.ScheduleQuery{})
	require.NoError(t, err)
	assert.Equal(t, calls, entries.calls)
	assert.Equal(t, first.TimetableID, second.TimetableID)
	assert.Len(t, second.Groups, 2)
	assert.Contains(t, cache.items, "timetable:sem-1:tt-1:schedule:all")
}

func TestTimetableQueryServiceEntries(t *testing.T) {
	svc := NewTimetableQueryService(activeTimetableStub{timetable: activeTimetable(t)}, &entryReaderStub{entries: committedEntries()}, roomListerStub{}, nil, queryGrid(), nil)

	entries, err := svc.Entries(context.Background(), "sem-1", "g2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].ID)
}

// regeneratingStore commits a new timetable version while the first read of entries is in flight.
type regeneratingStore struct {
	active    *models.Timetable
	entries   []models.TimetableEntry
	next      *models.Timetable
	nextRows  []models.TimetableEntry
	cache     *memoryCacheStub
	committed bool
}

func (s *regeneratingStore) FindActive(context.Context, string) (*models.Timetable, error) {
	return s.active, nil
}

func (s *regeneratingStore) read(filter func(models.TimetableEntry) bool) []models.TimetableEntry {
	var out []models.TimetableEntry
	for _, entry := range s.entries {
		if filter(entry) {
			out = append(out, entry)
		}
	}
	if !s.committed {
		s.committed = true
		s.active, s.entries = s.next, s.nextRows
		s.cache.items = make(map[string][]byte)
	}
	return out
}

func (s *regeneratingStore) ListBySemester(_ context.Context, _ string, group string) ([]models.TimetableEntry, error) {
	return s.read(func(e models.TimetableEntry) bool { return group == "" || e.StudentGroupID == group }), nil
}

func (s *regeneratingStore) ListByInstructor(_ context.Context, _ string, instructor string) ([]models.TimetableEntry, error) {
	return s.read(func(e models.TimetableEntry) bool { return e.InstructorID == instructor }), nil
}

func (s *regeneratingStore) OccupiedRoomIDs(context.Context, string, int, int) ([]string, error) {
	return nil, nil
}

func newRegeneratingStore(t *testing.T, cache *memoryCacheStub) *regeneratingStore {
	return &regeneratingStore{
		active:   activeTimetable(t),
		entries:  committedEntries(),
		next:     &models.Timetable{ID: "tt-2", SemesterID: "sem-1", Version: 5, Status: models.TimetableStatusActive},
		nextRows: []models.TimetableEntry{{ID: "e9", TimetableID: "tt-2", ActivityID: "a9", Occurrence: 1, InstructorID: "i1", StudentGroupID: "g9", RoomID: "r2", DayOfWeek: 3, SlotIndex: 1, Duration: 1}},
		cache:    cache,
	}
}

func TestTimetableQueryServiceIgnoresViewsCachedAcrossACommit(t *testing.T) {
	cache := &memoryCacheStub{items: make(map[string][]byte)}
	store := newRegeneratingStore(t, cache)
	svc := NewTimetableQueryService(store, store, roomListerStub{}, cache, queryGrid(), nil)

	stale, err := svc.GetSchedule(context.Background(), "sem-1", dto.ScheduleQuery{})
	require.NoError(t, err)
	assert.Equal(t, "tt-1", stale.TimetableID)

	fresh, err := svc.GetSchedule(context.Background(), "sem-1", dto.ScheduleQuery{})
	require.NoError(t, err)
	assert.Equal(t, "tt-2", fresh.TimetableID)
	groups := make([]string, 0, len(fresh.Groups))
	for _, group := range fresh.Groups {
		groups = append(groups, group.StudentGroupID)
	}
	assert.Equal(t, []string{"g9"}, groups)
}

func TestTimetableQueryServiceTeacherViewAcrossACommit(t *testing.T) {
	cache := &memoryCacheStub{items: make(map[string][]byte)}
	store := newRegeneratingStore(t, cache)
	svc := NewTimetableQueryService(store, store, roomListerStub{}, cache, queryGrid(), nil)

	stale, err := svc.GetTeacherSchedule(context.Background(), "sem-1", "i1")
	require.NoError(t, err)
	require.Len(t, stale.Entries, 1)
	assert.Equal(t, "e1", stale.Entries[0].ID)

	fresh, err := svc.GetTeacherSchedule(context.Background(), "sem-1", "i1")
	require.NoError(t, err)
	require.Len(t, fresh.Entries, 1)
	assert.Equal(t, "e9", fresh.Entries[0].ID)
}
