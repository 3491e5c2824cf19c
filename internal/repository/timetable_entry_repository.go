package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

const timetableEntryColumns = `id, timetable_id, semester_id, activity_id, occurrence, room_id, day_of_week, slot_index, duration, course_id, instructor_id, student_group_id, created_at`

const entryOrder = `ORDER BY day_of_week ASC, slot_index ASC, room_id ASC, activity_id ASC, occurrence ASC`

// TimetableEntryRepository persists the entries of the active timetable and serves the query views.
type TimetableEntryRepository struct {
	db *sqlx.DB
}

// NewTimetableEntryRepository constructs the repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

func (r *TimetableEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteBySemester removes every entry of the semester.
func (r *TimetableEntryRepository) DeleteBySemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) error {
	const query = `DELETE FROM timetable_entries WHERE semester_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, semesterID); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}
	return nil
}

// entryInsertBatch keeps one INSERT below the PostgreSQL bind parameter limit.
const entryInsertBatch = 500

// BulkInsert stores entries for a timetable, assigning ids where missing.
func (r *TimetableEntryRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, timetableID string, entries []models.TimetableEntry) error {
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].TimetableID = timetableID
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
	}
	for start := 0; start < len(entries); start += entryInsertBatch {
		end := start + entryInsertBatch
		if end > len(entries) {
			end = len(entries)
		}
		if err := r.insertBatch(ctx, r.exec(exec), entries[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *TimetableEntryRepository) insertBatch(ctx context.Context, target sqlx.ExtContext, entries []models.TimetableEntry) error {
	const columns = 13
	placeholders := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*columns)
	for i, entry := range entries {
		holders := make([]string, columns)
		for c := range holders {
			holders[c] = fmt.Sprintf("$%d", i*columns+c+1)
		}
		placeholders = append(placeholders, "("+strings.Join(holders, ", ")+")")
		args = append(args,
			entry.ID, entry.TimetableID, entry.SemesterID, entry.ActivityID, entry.Occurrence, entry.RoomID,
			entry.DayOfWeek, entry.SlotIndex, entry.Duration, entry.CourseID, entry.InstructorID, entry.StudentGroupID, entry.CreatedAt,
		)
	}
	query := fmt.Sprintf("INSERT INTO timetable_entries (%s) VALUES %s", timetableEntryColumns, strings.Join(placeholders, ", "))
	if _, err := target.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert timetable entries: %w", err)
	}
	return nil
}

// ListBySemester returns the semester entries, optionally for one student group.
func (r *TimetableEntryRepository) ListBySemester(ctx context.Context, semesterID, studentGroupID string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE semester_id = $1", timetableEntryColumns)
	args := []interface{}{semesterID}
	if studentGroupID != "" {
		query += " AND student_group_id = $2"
		args = append(args, studentGroupID)
	}
	query += " " + entryOrder
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListByInstructor returns the entries taught by the instructor.
func (r *TimetableEntryRepository) ListByInstructor(ctx context.Context, semesterID, instructorID string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE semester_id = $1 AND instructor_id = $2 %s", timetableEntryColumns, entryOrder)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, semesterID, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor entries: %w", err)
	}
	return entries, nil
}

// OccupiedRoomIDs returns the rooms holding an entry that covers (day, slot).
func (r *TimetableEntryRepository) OccupiedRoomIDs(ctx context.Context, semesterID string, day, slot int) ([]string, error) {
	const query = `SELECT DISTINCT room_id FROM timetable_entries
WHERE semester_id = $1 AND day_of_week = $2 AND slot_index <= $3 AND slot_index + duration > $3`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, semesterID, day, slot); err != nil {
		return nil, fmt.Errorf("list occupied rooms: %w", err)
	}
	return ids, nil
}
