package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type activeTimetableReader interface {
	FindActive(ctx context.Context, semesterID string) (*models.Timetable, error)
}

type timetableEntryReader interface {
	ListBySemester(ctx context.Context, semesterID, studentGroupID string) ([]models.TimetableEntry, error)
	ListByInstructor(ctx context.Context, semesterID, instructorID string) ([]models.TimetableEntry, error)
	OccupiedRoomIDs(ctx context.Context, semesterID string, day, slot int) ([]string, error)
}

type queryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TimetableQueryService serves read-only views of the committed timetable. A semester without a
// committed timetable yields empty views rather than errors.
type TimetableQueryService struct {
	timetables activeTimetableReader
	entries    timetableEntryReader
	rooms      roomLister
	cache      queryCache
	grid       scheduler.Grid
	logger     *zap.Logger
}

// NewTimetableQueryService constructs the query layer; cache may be nil.
func NewTimetableQueryService(timetables activeTimetableReader, entries timetableEntryReader, rooms roomLister, cache queryCache, grid scheduler.Grid, logger *zap.Logger) *TimetableQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableQueryService{timetables: timetables, entries: entries, rooms: rooms, cache: cache, grid: grid, logger: logger}
}

// GetSchedule returns the semester's entries grouped by student group.
func (s *TimetableQueryService) GetSchedule(ctx context.Context, semesterID string, query dto.ScheduleQuery) (*dto.SemesterScheduleResponse, error) {
	current, err := s.activeTimetable(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	var cached dto.SemesterScheduleResponse
	if s.cacheGet(ctx, scheduleCacheKey(semesterID, timetableID(current), query.StudentGroupID), &cached) {
		return &cached, nil
	}

	resp := &dto.SemesterScheduleResponse{
		SemesterID:  semesterID,
		Groups:      []dto.GroupSchedule{},
		Unscheduled: []dto.UnscheduledOccurrence{},
	}
	timetable, entries, err := s.loadActive(ctx, semesterID, query.StudentGroupID)
	if err != nil {
		return nil, err
	}
	if timetable != nil {
		resp.TimetableID = timetable.ID
		resp.Version = timetable.Version
		var meta timetableMeta
		if len(timetable.Meta) > 0 {
			if err := json.Unmarshal(timetable.Meta, &meta); err != nil {
				s.logger.Warn("unreadable timetable meta", zap.String("timetable_id", timetable.ID), zap.Error(err))
			}
		}
		if query.StudentGroupID == "" && meta.Unscheduled != nil {
			resp.Unscheduled = meta.Unscheduled
		}
		if meta.Stats.Occurrences > 0 || meta.Stats.Placed > 0 {
			stats := meta.Stats
			resp.Stats = &stats
		}
	}

	byGroup := lo.GroupBy(entries, func(e models.TimetableEntry) string { return e.StudentGroupID })
	groupIDs := lo.Keys(byGroup)
	sort.Strings(groupIDs)
	for _, groupID := range groupIDs {
		resp.Groups = append(resp.Groups, dto.GroupSchedule{
			StudentGroupID: groupID,
			Entries:        s.toResponses(byGroup[groupID]),
		})
	}

	s.cacheSet(ctx, scheduleCacheKey(semesterID, timetableID(timetable), query.StudentGroupID), resp)
	return resp, nil
}

// GetTeacherSchedule returns the instructor's entries and every grid cell they reserve.
func (s *TimetableQueryService) GetTeacherSchedule(ctx context.Context, semesterID, instructorID string) (*dto.TeacherScheduleResponse, error) {
	if instructorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor id is required")
	}
	current, err := s.activeTimetable(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	key := teacherCacheKey(semesterID, timetableID(current), instructorID)
	var cached dto.TeacherScheduleResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	entries, err := s.entries.ListByInstructor(ctx, semesterID, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor schedule")
	}
	resp := &dto.TeacherScheduleResponse{
		SemesterID:    semesterID,
		InstructorID:  instructorID,
		Entries:       s.toResponses(entries),
		ReservedSlots: []models.TimeSlot{},
	}
	for _, entry := range entries {
		for slot := entry.SlotIndex; slot <= entry.EndSlot(); slot++ {
			if cell, ok := s.grid.Slot(entry.DayOfWeek, slot); ok {
				resp.ReservedSlots = append(resp.ReservedSlots, cell)
			}
		}
	}

	if lo.EveryBy(entries, func(e models.TimetableEntry) bool { return e.TimetableID == timetableID(current) }) {
		s.cacheSet(ctx, key, resp)
	}
	return resp, nil
}

// GetFreeRooms returns the room inventory minus rooms with an entry covering (day, slot).
func (s *TimetableQueryService) GetFreeRooms(ctx context.Context, semesterID string, query dto.FreeRoomsQuery) (*dto.FreeRoomsResponse, error) {
	cell, ok := s.grid.Slot(query.Day, query.Slot)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day/slot is outside the slot grid")
	}
	current, err := s.activeTimetable(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	key := freeRoomsCacheKey(semesterID, timetableID(current), query.Day, query.Slot)
	var cached dto.FreeRoomsResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	occupied, err := s.entries.OccupiedRoomIDs(ctx, semesterID, query.Day, query.Slot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupied rooms")
	}
	busy := lo.SliceToMap(occupied, func(id string) (string, struct{}) { return id, struct{}{} })
	free := lo.Filter(rooms, func(room models.Room, _ int) bool {
		_, taken := busy[room.ID]
		return !taken
	})
	if free == nil {
		free = []models.Room{}
	}

	resp := &dto.FreeRoomsResponse{SemesterID: semesterID, TimeSlot: cell, Rooms: free}
	s.cacheSet(ctx, key, resp)
	return resp, nil
}

// Entries returns the committed entries of a semester, optionally for one group.
func (s *TimetableQueryService) Entries(ctx context.Context, semesterID, studentGroupID string) ([]dto.ScheduleEntryResponse, error) {
	_, entries, err := s.loadActive(ctx, semesterID, studentGroupID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(entries), nil
}

// loadActive reads the active timetable and its entries. Entries written by a newer version than
// the timetable row read are detected and the pair is re-read once.
func (s *TimetableQueryService) loadActive(ctx context.Context, semesterID, studentGroupID string) (*models.Timetable, []models.TimetableEntry, error) {
	for attempt := 0; ; attempt++ {
		timetable, err := s.activeTimetable(ctx, semesterID)
		if err != nil {
			return nil, nil, err
		}
		entries, err := s.entries.ListBySemester(ctx, semesterID, studentGroupID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
		}
		consistent := lo.EveryBy(entries, func(e models.TimetableEntry) bool {
			return timetable != nil && e.TimetableID == timetable.ID
		})
		if consistent || attempt > 0 {
			return timetable, entries, nil
		}
	}
}

// activeTimetable returns the semester's ACTIVE timetable, or nil when none was committed yet.
func (s *TimetableQueryService) activeTimetable(ctx context.Context, semesterID string) (*models.Timetable, error) {
	timetable, err := s.timetables.FindActive(ctx, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

func timetableID(timetable *models.Timetable) string {
	if timetable == nil {
		return ""
	}
	return timetable.ID
}

func (s *TimetableQueryService) toResponses(entries []models.TimetableEntry) []dto.ScheduleEntryResponse {
	out := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toEntryResponse(s.grid, entry))
	}
	return out
}

func (s *TimetableQueryService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (s *TimetableQueryService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, 0)
}
