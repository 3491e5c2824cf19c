package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	"github.com/noah-isme/uni-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type semesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type semesterActivityLister interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Activity, error)
}

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

type studentGroupLister interface {
	List(ctx context.Context) ([]models.StudentGroup, error)
}

type timetableWriter interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	ArchiveActive(ctx context.Context, exec sqlx.ExtContext, semesterID string) error
}

type timetableEntryWriter interface {
	DeleteBySemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) error
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, timetableID string, entries []models.TimetableEntry) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type semesterGuard interface {
	Acquire(ctx context.Context, semesterID string) (context.Context, func(), error)
}

// timetableMeta is stored with every timetable version so reads can surface the run report.
type timetableMeta struct {
	Unscheduled []dto.UnscheduledOccurrence `json:"unscheduled"`
	Stats       dto.GenerationStats         `json:"stats"`
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	SearchBudget int
}

// ScheduleGeneratorService runs the scheduler for a semester and atomically replaces its timetable.
type ScheduleGeneratorService struct {
	semesters  semesterReader
	activities semesterActivityLister
	rooms      roomLister
	groups     studentGroupLister
	timetables timetableWriter
	entries    timetableEntryWriter
	tx         txProvider
	guard      semesterGuard
	cache      semesterCacheInvalidator
	metrics    *MetricsService
	engine     *scheduler.Scheduler
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	semesters semesterReader,
	activities semesterActivityLister,
	rooms roomLister,
	groups studentGroupLister,
	timetables timetableWriter,
	entries timetableEntryWriter,
	tx txProvider,
	guard semesterGuard,
	cache semesterCacheInvalidator,
	metrics *MetricsService,
	grid scheduler.Grid,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = NewGenerationGuard(nil, 0, metrics, logger)
	}
	return &ScheduleGeneratorService{
		semesters:  semesters,
		activities: activities,
		rooms:      rooms,
		groups:     groups,
		timetables: timetables,
		entries:    entries,
		tx:         tx,
		guard:      guard,
		cache:      cache,
		metrics:    metrics,
		engine:     scheduler.New(grid, scheduler.Options{SearchBudget: cfg.SearchBudget}),
		validator:  validate,
		logger:     logger,
	}
}

// Grid returns the slot grid the generator schedules against.
func (s *ScheduleGeneratorService) Grid() scheduler.Grid {
	return s.engine.Grid()
}

// EnsureSemester fails with NotFound for an unknown semester.
func (s *ScheduleGeneratorService) EnsureSemester(ctx context.Context, semesterID string) error {
	if _, err := s.semesters.FindByID(ctx, semesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return nil
}

// Generate runs the scheduler from a clean state and replaces the semester's timetable with the
// result. A run that places nothing out of a non-empty demand is returned uncommitted and the
// previous timetable stays in place.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.SchedulingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	if err := s.EnsureSemester(ctx, req.SemesterID); err != nil {
		return nil, err
	}

	runCtx, release, err := s.guard.Acquire(ctx, req.SemesterID)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrGenerationInProgress) {
			s.metrics.ObserveGeneration(GenerationOutcomeBusy, nil, 0)
		}
		return nil, err
	}
	defer release()

	input, err := s.loadInput(runCtx, req.SemesterID)
	if err != nil {
		return nil, err
	}

	engine := s.engine
	if req.SearchBudget > 0 {
		engine = scheduler.New(s.engine.Grid(), scheduler.Options{SearchBudget: req.SearchBudget})
	}

	started := time.Now()
	outcome, err := engine.Run(runCtx, input)
	elapsed := time.Since(started)
	if err != nil {
		s.metrics.ObserveGeneration(GenerationOutcomeFailed, nil, elapsed)
		if runCtx.Err() != nil {
			return nil, runCancelled(runCtx)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduling input")
	}
	if violations := scheduler.Verify(s.engine.Grid(), input, outcome.Entries); len(violations) > 0 {
		s.metrics.ObserveGeneration(GenerationOutcomeFailed, nil, elapsed)
		s.logger.Error("generated timetable violates hard constraints",
			zap.String("semester_id", req.SemesterID),
			zap.Int("violations", len(violations)),
			zap.String("first", violations[0].Message),
		)
		return nil, appErrors.Clone(appErrors.ErrInternal, "generated timetable failed verification")
	}

	result := s.buildResult(req.SemesterID, outcome, elapsed)
	fields := []zap.Field{
		zap.String("semester_id", req.SemesterID),
		zap.String("requested_by", req.RequestedBy),
		zap.Int("activities", len(input.Activities)),
		zap.Int("occurrences", outcome.Stats.Occurrences),
		zap.Int("placed", outcome.Stats.Placed),
		zap.Int("unscheduled", len(outcome.Unscheduled)),
		zap.Int("backtracks", outcome.Stats.Backtracks),
		zap.Bool("budget_exhausted", outcome.Stats.BudgetExhausted),
		zap.Duration("duration", elapsed),
	}

	if outcome.Stats.Occurrences > 0 && outcome.Stats.Placed == 0 {
		s.metrics.ObserveGeneration(GenerationOutcomeRejected, result, elapsed)
		s.logger.Warn("no occurrence could be placed; keeping the previous timetable", fields...)
		return result, nil
	}

	if runCtx.Err() != nil {
		s.metrics.ObserveGeneration(GenerationOutcomeFailed, result, elapsed)
		return nil, runCancelled(runCtx)
	}
	timetable, err := s.commit(runCtx, req.SemesterID, outcome.Entries, result)
	if err != nil {
		s.metrics.ObserveGeneration(GenerationOutcomeFailed, result, elapsed)
		return nil, err
	}
	result.Committed = true
	result.TimetableID = timetable.ID
	result.Version = timetable.Version
	for i := range result.Entries {
		result.Entries[i].ID = outcome.Entries[i].ID
	}

	if s.cache != nil {
		if err := s.cache.InvalidateSemester(ctx, req.SemesterID); err != nil {
			s.logger.Warn("failed to invalidate semester cache", zap.String("semester_id", req.SemesterID), zap.Error(err))
		}
	}
	s.metrics.ObserveGeneration(GenerationOutcomeCommitted, result, elapsed)
	s.logger.Info("timetable generated", append(fields, zap.String("timetable_id", timetable.ID), zap.Int("version", timetable.Version))...)
	return result, nil
}

func runCancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, errGenerationLockLost) {
		return appErrors.Wrap(cause, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "generation lock lost before commit")
	}
	return appErrors.Wrap(cause, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "schedule generation cancelled")
}

// loadInput reads the semester's activities and the catalog snapshot concurrently.
func (s *ScheduleGeneratorService) loadInput(ctx context.Context, semesterID string) (scheduler.Input, error) {
	var input scheduler.Input
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		activities, err := s.activities.ListBySemester(gctx, semesterID)
		if err != nil {
			return fmt.Errorf("load activities: %w", err)
		}
		input.Activities = activities
		return nil
	})
	group.Go(func() error {
		rooms, err := s.rooms.List(gctx)
		if err != nil {
			return fmt.Errorf("load rooms: %w", err)
		}
		input.Rooms = rooms
		return nil
	})
	group.Go(func() error {
		groups, err := s.groups.List(gctx)
		if err != nil {
			return fmt.Errorf("load student groups: %w", err)
		}
		input.Groups = groups
		return nil
	})
	if err := group.Wait(); err != nil {
		return scheduler.Input{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling input")
	}
	return input, nil
}

// commit archives the active version, replaces the semester's entries and records the new version
// in one transaction.
func (s *ScheduleGeneratorService) commit(ctx context.Context, semesterID string, entries []models.TimetableEntry, result *dto.SchedulingResult) (timetable *models.Timetable, err error) {
	meta, err := json.Marshal(timetableMeta{Unscheduled: result.Unscheduled, Stats: result.Stats})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Error("failed to rollback timetable transaction", zap.Error(rbErr))
			}
		}
	}()

	if err = s.timetables.ArchiveActive(ctx, tx, semesterID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive previous timetable")
	}
	if err = s.entries.DeleteBySemester(ctx, tx, semesterID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous entries")
	}
	timetable = &models.Timetable{
		SemesterID: semesterID,
		Status:     models.TimetableStatusActive,
		Meta:       types.JSONText(meta),
	}
	if err = s.timetables.CreateVersioned(ctx, tx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable version")
	}
	for i := range entries {
		entries[i].SemesterID = semesterID
	}
	if err = s.entries.BulkInsert(ctx, tx, timetable.ID, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable entries")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
	}
	return timetable, nil
}

func (s *ScheduleGeneratorService) buildResult(semesterID string, outcome *scheduler.Result, elapsed time.Duration) *dto.SchedulingResult {
	result := &dto.SchedulingResult{
		SemesterID:  semesterID,
		Entries:     make([]dto.ScheduleEntryResponse, 0, len(outcome.Entries)),
		Unscheduled: make([]dto.UnscheduledOccurrence, 0, len(outcome.Unscheduled)),
		Stats: dto.GenerationStats{
			Occurrences:     outcome.Stats.Occurrences,
			Placed:          outcome.Stats.Placed,
			Unscheduled:     len(outcome.Unscheduled),
			Backtracks:      outcome.Stats.Backtracks,
			BudgetExhausted: outcome.Stats.BudgetExhausted,
			DurationMillis:  elapsed.Milliseconds(),
		},
	}
	grid := s.engine.Grid()
	for _, entry := range outcome.Entries {
		result.Entries = append(result.Entries, toEntryResponse(grid, entry))
	}
	for _, item := range outcome.Unscheduled {
		result.Unscheduled = append(result.Unscheduled, dto.UnscheduledOccurrence{
			ActivityID: item.ActivityID,
			Occurrence: item.Occurrence,
			Reason:     string(item.Reason),
			Message:    item.Reason.Message(),
		})
	}
	return result
}

func toEntryResponse(grid scheduler.Grid, entry models.TimetableEntry) dto.ScheduleEntryResponse {
	span, ok := grid.Span(entry.DayOfWeek, entry.SlotIndex, entry.Duration)
	if !ok {
		span = models.TimeSlot{DayOfWeek: entry.DayOfWeek, Index: entry.SlotIndex}
	}
	return dto.ScheduleEntryResponse{
		ID:             entry.ID,
		ActivityID:     entry.ActivityID,
		Occurrence:     entry.Occurrence,
		CourseID:       entry.CourseID,
		InstructorID:   entry.InstructorID,
		StudentGroupID: entry.StudentGroupID,
		RoomID:         entry.RoomID,
		DayOfWeek:      entry.DayOfWeek,
		SlotIndex:      entry.SlotIndex,
		Duration:       entry.Duration,
		TimeSlot:       span,
	}
}
