package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type semesterReaderStub struct {
	known map[string]bool
	err   error
}

func (s semesterReaderStub) FindByID(_ context.Context, id string) (*models.Semester, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Semester{ID: id}, nil
}

type activityListerStub struct {
	activities []models.Activity
	err        error
}

func (s activityListerStub) ListBySemester(context.Context, string) ([]models.Activity, error) {
	return s.activities, s.err
}

type roomListerStub struct {
	rooms []models.Room
	err   error
}

func (s roomListerStub) List(context.Context) ([]models.Room, error) {
	return s.rooms, s.err
}

type groupListerStub struct {
	groups []models.StudentGroup
}

func (s groupListerStub) List(context.Context) ([]models.StudentGroup, error) {
	return s.groups, nil
}

type timetableWriterStub struct {
	archived []string
	created  []models.Timetable
	version  int
}

func (s *timetableWriterStub) CreateVersioned(_ context.Context, _ sqlx.ExtContext, timetable *models.Timetable) error {
	s.version++
	timetable.ID = fmt.Sprintf("tt-%d", s.version)
	timetable.Version = s.version
	s.created = append(s.created, *timetable)
	return nil
}

func (s *timetableWriterStub) ArchiveActive(_ context.Context, _ sqlx.ExtContext, semesterID string) error {
	s.archived = append(s.archived, semesterID)
	return nil
}

type entryWriterStub struct {
	cleared  []string
	inserted []models.TimetableEntry
	err      error
}

func (s *entryWriterStub) DeleteBySemester(_ context.Context, _ sqlx.ExtContext, semesterID string) error {
	s.cleared = append(s.cleared, semesterID)
	return nil
}

func (s *entryWriterStub) BulkInsert(_ context.Context, _ sqlx.ExtContext, timetableID string, entries []models.TimetableEntry) error {
	if s.err != nil {
		return s.err
	}
	for i := range entries {
		entries[i].ID = fmt.Sprintf("entry-%d", i+1)
		entries[i].TimetableID = timetableID
	}
	s.inserted = append(s.inserted, entries...)
	return nil
}

type invalidatorStub struct {
	mu        sync.Mutex
	semesters []string
}

func (s *invalidatorStub) InvalidateSemester(_ context.Context, semesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.semesters = append(s.semesters, semesterID)
	return nil
}

type guardStub struct {
	err      error
	lostLock bool
}

func (g guardStub) Acquire(ctx context.Context, _ string) (context.Context, func(), error) {
	if g.err != nil {
		return nil, nil, g.err
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	if g.lostLock {
		cancel(errGenerationLockLost)
	}
	return runCtx, func() { cancel(nil) }, nil
}

type generatorFixture struct {
	service    *ScheduleGeneratorService
	mock       sqlmock.Sqlmock
	timetables *timetableWriterStub
	entries    *entryWriterStub
	cache      *invalidatorStub
}

type generatorFixtureConfig struct {
	activities []models.Activity
	rooms      []models.Room
	groups     []models.StudentGroup
	guard      semesterGuard
	insertErr  error
}

func newGeneratorFixture(t *testing.T, cfg generatorFixtureConfig) *generatorFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fixture := &generatorFixture{
		mock:       mock,
		timetables: &timetableWriterStub{version: 2},
		entries:    &entryWriterStub{err: cfg.insertErr},
		cache:      &invalidatorStub{},
	}
	fixture.service = NewScheduleGeneratorService(
		semesterReaderStub{known: map[string]bool{"sem-1": true}},
		activityListerStub{activities: cfg.activities},
		roomListerStub{rooms: cfg.rooms},
		groupListerStub{groups: cfg.groups},
		fixture.timetables,
		fixture.entries,
		sqlx.NewDb(db, "sqlmock"),
		cfg.guard,
		fixture.cache,
		NewMetricsService(),
		scheduler.MustGrid([]int{1, 2, 3}, 2, "08:00", 60),
		nil,
		nil,
		ScheduleGeneratorConfig{},
	)
	return fixture
}

func lectureActivity(id, instructor, group string, frequency int) models.Activity {
	return models.Activity{
		ID:               id,
		SemesterID:       "sem-1",
		CourseID:         "course-" + id,
		InstructorID:     instructor,
		StudentGroupID:   group,
		RoomTypeID:       "lecture",
		Duration:         1,
		FrequencyPerWeek: frequency,
	}
}

func lectureRooms() []models.Room {
	return []models.Room{{ID: "r1", RoomTypeID: "lecture", Capacity: 40}}
}

func TestScheduleGeneratorServiceGenerateCommits(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		activities: []models.Activity{
			lectureActivity("a1", "i1", "g1", 2),
			lectureActivity("a2", "i2", "g2", 1),
		},
		rooms:  lectureRooms(),
		groups: []models.StudentGroup{{ID: "g1", Size: 30}, {ID: "g2", Size: 20}},
	})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, "tt-3", result.TimetableID)
	assert.Equal(t, 3, result.Version)
	assert.Equal(t, 3, result.Stats.Occurrences)
	assert.Equal(t, 3, result.Stats.Placed)
	assert.Empty(t, result.Unscheduled)
	require.Len(t, result.Entries, 3)
	for _, entry := range result.Entries {
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, "r1", entry.RoomID)
	}

	assert.Equal(t, []string{"sem-1"}, fixture.timetables.archived)
	assert.Equal(t, []string{"sem-1"}, fixture.entries.cleared)
	require.Len(t, fixture.entries.inserted, 3)
	for _, entry := range fixture.entries.inserted {
		assert.Equal(t, "sem-1", entry.SemesterID)
		assert.Equal(t, "tt-3", entry.TimetableID)
	}
	assert.Equal(t, []string{"sem-1"}, fixture.cache.semesters)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceKeepsPreviousTimetableWhenNothingPlaced(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		activities: []models.Activity{lectureActivity("a1", "i1", "g1", 1)},
		rooms:      []models.Room{{ID: "lab-1", RoomTypeID: "lab", Capacity: 20}},
	})

	result, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.False(t, result.Committed)
	assert.Empty(t, result.TimetableID)
	require.Len(t, result.Unscheduled, 1)
	assert.Equal(t, string(scheduler.ReasonNoCompatibleRoom), result.Unscheduled[0].Reason)
	assert.Empty(t, fixture.timetables.created)
	assert.Empty(t, fixture.cache.semesters)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceCommitsPartialResult(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		activities: []models.Activity{
			lectureActivity("a1", "i1", "g1", 1),
			{ID: "a2", SemesterID: "sem-1", CourseID: "c2", InstructorID: "i2", StudentGroupID: "g2", RoomTypeID: "lab", Duration: 1, FrequencyPerWeek: 1},
		},
		rooms: lectureRooms(),
	})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Equal(t, 1, result.Stats.Placed)
	assert.Equal(t, 1, result.Stats.Unscheduled)
	require.Len(t, fixture.timetables.created, 1)
	assert.Contains(t, string(fixture.timetables.created[0].Meta), "NO_COMPATIBLE_ROOM")
}

func TestScheduleGeneratorServiceCommitsEmptySemester(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{rooms: lectureRooms()})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Empty(t, result.Entries)
	assert.Equal(t, 0, result.Stats.Occurrences)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceUnknownSemester(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "missing"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestScheduleGeneratorServiceRequiresSemester(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestScheduleGeneratorServiceRejectsConcurrentRun(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		activities: []models.Activity{lectureActivity("a1", "i1", "g1", 1)},
		rooms:      lectureRooms(),
		guard:      guardStub{err: appErrors.Clone(appErrors.ErrGenerationInProgress, "")},
	})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "sem-1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrGenerationInProgress))
	assert.Empty(t, fixture.timetables.created)
}

func TestScheduleGeneratorServiceRollsBackOnInsertFailure(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		activities: []models.Activity{lectureActivity("a1", "i1", "g1", 1)},
		rooms:      lectureRooms(),
		insertErr:  errors.New("disk full"),
	})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectRollback()

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "sem-1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
	assert.Empty(t, fixture.cache.semesters)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceRejectsMalformedInput(t *testing.T) {
	bad := lectureActivity("a1", "i1", "g1", 1)
	bad.Duration = 0
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		activities: []models.Activity{bad},
		rooms:      lectureRooms(),
	})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "sem-1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestScheduleGeneratorServiceSearchBudgetOverride(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		activities: []models.Activity{lectureActivity("a1", "i1", "g1", 1)},
		rooms:      lectureRooms(),
	})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "sem-1", SearchBudget: 5})
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.False(t, result.Stats.BudgetExhausted)
}

func TestScheduleGeneratorServiceDoesNotCommitAfterLosingLock(t *testing.T) {
	fixture := newGeneratorFixture(t, generatorFixtureConfig{
		activities: []models.Activity{lectureActivity("a1", "turing", "g1", 2)},
		rooms:      lectureRooms(),
		groups:     []models.StudentGroup{{ID: "g1", Size: 30}},
		guard:      guardStub{lostLock: true},
	})

	_, err := fixture.service.Generate(context.Background(), dto.GenerateScheduleRequest{SemesterID: "sem-1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrServiceUnavailable))
	assert.Contains(t, err.Error(), "generation lock lost")
	assert.Empty(t, fixture.timetables.created)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}
