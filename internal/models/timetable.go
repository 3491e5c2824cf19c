package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimeSlot is one cell of the weekly slot grid. Index is 1-based within the day.
type TimeSlot struct {
	DayOfWeek int    `json:"day_of_week"`
	Index     int    `json:"slot"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// TimetableStatus represents lifecycle phases for generated timetables.
type TimetableStatus string

const (
	TimetableStatusActive   TimetableStatus = "ACTIVE"
	TimetableStatusArchived TimetableStatus = "ARCHIVED"
)

// Timetable is a versioned, generated schedule for one semester. At most one version is ACTIVE.
type Timetable struct {
	ID         string          `db:"id" json:"id"`
	SemesterID string          `db:"semester_id" json:"semester_id"`
	Version    int             `db:"version" json:"version"`
	Status     TimetableStatus `db:"status" json:"status"`
	Meta       types.JSONText  `db:"meta" json:"meta"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableEntry is one committed occurrence: an activity occurrence in a room starting at a slot.
type TimetableEntry struct {
	ID             string    `db:"id" json:"id"`
	TimetableID    string    `db:"timetable_id" json:"timetable_id"`
	SemesterID     string    `db:"semester_id" json:"semester_id"`
	ActivityID     string    `db:"activity_id" json:"activity_id"`
	Occurrence     int       `db:"occurrence" json:"occurrence"`
	RoomID         string    `db:"room_id" json:"room_id"`
	DayOfWeek      int       `db:"day_of_week" json:"day_of_week"`
	SlotIndex      int       `db:"slot_index" json:"slot_index"`
	Duration       int       `db:"duration" json:"duration"`
	CourseID       string    `db:"course_id" json:"course_id"`
	InstructorID   string    `db:"instructor_id" json:"instructor_id"`
	StudentGroupID string    `db:"student_group_id" json:"student_group_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the entry occupies the given day/slot cell.
func (e TimetableEntry) Covers(day, slot int) bool {
	return e.DayOfWeek == day && slot >= e.SlotIndex && slot < e.SlotIndex+e.Duration
}

// EndSlot returns the last slot index occupied by the entry.
func (e TimetableEntry) EndSlot() int {
	return e.SlotIndex + e.Duration - 1
}
