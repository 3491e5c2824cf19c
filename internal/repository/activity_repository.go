package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	"github.com/noah-isme/uni-timetable-api/internal/models"
)

const activityColumns = `id, semester_id, course_id, instructor_id, student_group_id, room_type_id, duration, frequency_per_week, created_at, updated_at`

// ActivityRepository persists the activity registry.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListBySemester returns every activity of a semester in insertion order. The order is the
// tie-break of the scheduler, so it must be stable across calls.
func (r *ActivityRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.Activity, error) {
	query := fmt.Sprintf("SELECT %s FROM activities WHERE semester_id = $1 ORDER BY created_at ASC, id ASC", activityColumns)
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, semesterID); err != nil {
		return nil, fmt.Errorf("list semester activities: %w", err)
	}
	return activities, nil
}

// List returns a filtered page of activities with the total count.
func (r *ActivityRepository) List(ctx context.Context, filter dto.ActivityFilter) ([]models.Activity, int, error) {
	base := "FROM activities WHERE semester_id = $1"
	args := []interface{}{filter.SemesterID}

	var conditions []string
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.StudentGroupID != "" {
		conditions = append(conditions, fmt.Sprintf("student_group_id = $%d", len(args)+1))
		args = append(args, filter.StudentGroupID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at ASC, id ASC LIMIT %d OFFSET %d", activityColumns, base, size, offset)
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}
	return activities, total, nil
}

// FindByID returns an activity by id.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	query := fmt.Sprintf("SELECT %s FROM activities WHERE id = $1", activityColumns)
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Create persists a new activity.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now

	const query = `INSERT INTO activities (id, semester_id, course_id, instructor_id, student_group_id, room_type_id, duration, frequency_per_week, created_at, updated_at)
VALUES (:id, :semester_id, :course_id, :instructor_id, :student_group_id, :room_type_id, :duration, :frequency_per_week, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an activity.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activities SET course_id = :course_id, instructor_id = :instructor_id, student_group_id = :student_group_id,
room_type_id = :room_type_id, duration = :duration, frequency_per_week = :frequency_per_week, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, activity)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("activity rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an activity. Committed timetable entries keep their copy of its ids until the
// semester is regenerated.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM activities WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("activity rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
