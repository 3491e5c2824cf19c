package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type activityRepository interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Activity, error)
	List(ctx context.Context, filter dto.ActivityFilter) ([]models.Activity, int, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

type referenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ExistsFunc adapts a lookup function to a reference checker.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// Exists implements referenceChecker.
func (f ExistsFunc) Exists(ctx context.Context, id string) (bool, error) {
	return f(ctx, id)
}

// ActivityReferences groups the catalog lookups an activity must pass.
type ActivityReferences struct {
	Semesters     referenceChecker
	Courses       referenceChecker
	Instructors   referenceChecker
	StudentGroups referenceChecker
	RoomTypes     referenceChecker
}

type semesterCacheInvalidator interface {
	InvalidateSemester(ctx context.Context, semesterID string) error
}

// ActivityService is the activity registry: it validates demand before it can reach the scheduler.
type ActivityService struct {
	repo      activityRepository
	refs      ActivityReferences
	cache     semesterCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService creates the registry service.
func NewActivityService(repo activityRepository, refs ActivityReferences, cache semesterCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, refs: refs, cache: cache, validator: validate, logger: logger}
}

// List returns a page of a semester's activities.
func (s *ActivityService) List(ctx context.Context, filter dto.ActivityFilter) ([]models.Activity, *models.Pagination, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "semesterId is required")
	}
	activities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return activities, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an activity by id.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

// Create validates and registers a new activity.
func (s *ActivityService) Create(ctx context.Context, req dto.CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	activity := &models.Activity{
		SemesterID:       req.SemesterID,
		CourseID:         req.CourseID,
		InstructorID:     req.InstructorID,
		StudentGroupID:   req.StudentGroupID,
		RoomTypeID:       req.RoomTypeID,
		Duration:         req.Duration,
		FrequencyPerWeek: req.FrequencyPerWeek,
	}
	if err := s.checkReferences(ctx, activity, true); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	s.logger.Info("activity registered",
		zap.String("activity_id", activity.ID),
		zap.String("semester_id", activity.SemesterID),
		zap.Int("duration", activity.Duration),
		zap.Int("frequency_per_week", activity.FrequencyPerWeek),
	)
	return activity, nil
}

// Update replaces the mutable fields of an activity.
func (s *ActivityService) Update(ctx context.Context, id string, req dto.UpdateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	activity.CourseID = req.CourseID
	activity.InstructorID = req.InstructorID
	activity.StudentGroupID = req.StudentGroupID
	activity.RoomTypeID = req.RoomTypeID
	activity.Duration = req.Duration
	activity.FrequencyPerWeek = req.FrequencyPerWeek
	if err := s.checkReferences(ctx, activity, false); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, activity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	return activity, nil
}

// Delete removes an activity. The committed timetable is left as generated; the activity drops out
// on the next regeneration.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	if s.cache != nil {
		if err := s.cache.InvalidateSemester(ctx, activity.SemesterID); err != nil {
			s.logger.Warn("failed to invalidate semester cache", zap.String("semester_id", activity.SemesterID), zap.Error(err))
		}
	}
	return nil
}

// ListForSemester returns the scheduler input for a semester in registration order.
func (s *ActivityService) ListForSemester(ctx context.Context, semesterID string) ([]models.Activity, error) {
	activities, err := s.repo.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semester activities")
	}
	return activities, nil
}

type referenceCheck struct {
	name    string
	id      string
	checker referenceChecker
}

func (s *ActivityService) checkReferences(ctx context.Context, activity *models.Activity, withSemester bool) error {
	checks := []referenceCheck{
		{"course", activity.CourseID, s.refs.Courses},
		{"instructor", activity.InstructorID, s.refs.Instructors},
		{"student group", activity.StudentGroupID, s.refs.StudentGroups},
		{"room type", activity.RoomTypeID, s.refs.RoomTypes},
	}
	if withSemester {
		checks = append([]referenceCheck{{"semester", activity.SemesterID, s.refs.Semesters}}, checks...)
	}
	for _, check := range checks {
		if check.checker == nil {
			continue
		}
		ok, err := check.checker.Exists(ctx, check.id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to check %s", check.name))
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s %s does not exist", check.name, check.id))
		}
	}
	return nil
}
