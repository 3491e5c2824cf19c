package dto

import (
	"time"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

// GenerateScheduleRequest carries optional overrides for one generation run.
type GenerateScheduleRequest struct {
	SemesterID   string `json:"-" validate:"required"`
	SearchBudget int    `json:"searchBudget" validate:"omitempty,min=1,max=10000000"`
	RequestedBy  string `json:"-"`
}

// ScheduleEntryResponse is a placed occurrence with its reserved time span.
type ScheduleEntryResponse struct {
	ID             string          `json:"id,omitempty"`
	ActivityID     string          `json:"activityId"`
	Occurrence     int             `json:"occurrence"`
	CourseID       string          `json:"courseId"`
	InstructorID   string          `json:"instructorId"`
	StudentGroupID string          `json:"studentGroupId"`
	RoomID         string          `json:"roomId"`
	DayOfWeek      int             `json:"dayOfWeek"`
	SlotIndex      int             `json:"slotIndex"`
	Duration       int             `json:"duration"`
	TimeSlot       models.TimeSlot `json:"timeSlot"`
}

// UnscheduledOccurrence reports an occurrence that could not be placed and why.
type UnscheduledOccurrence struct {
	ActivityID string `json:"activityId"`
	Occurrence int    `json:"occurrence"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

// GenerationStats summarises the search.
type GenerationStats struct {
	Occurrences     int   `json:"occurrences"`
	Placed          int   `json:"placed"`
	Unscheduled     int   `json:"unscheduled"`
	Backtracks      int   `json:"backtracks"`
	BudgetExhausted bool  `json:"budgetExhausted"`
	DurationMillis  int64 `json:"durationMs"`
}

// SchedulingResult is the outcome of generateSchedule.
type SchedulingResult struct {
	SemesterID  string                  `json:"semesterId"`
	TimetableID string                  `json:"timetableId,omitempty"`
	Version     int                     `json:"version,omitempty"`
	Committed   bool                    `json:"committed"`
	Entries     []ScheduleEntryResponse `json:"entries"`
	Unscheduled []UnscheduledOccurrence `json:"unscheduled"`
	Stats       GenerationStats         `json:"stats"`
}

// GenerationJobStatus enumerates async generation states.
type GenerationJobStatus string

const (
	GenerationJobQueued    GenerationJobStatus = "queued"
	GenerationJobRunning   GenerationJobStatus = "running"
	GenerationJobSucceeded GenerationJobStatus = "succeeded"
	GenerationJobFailed    GenerationJobStatus = "failed"
)

// GenerationJobResponse describes an asynchronous generation request.
type GenerationJobResponse struct {
	ID         string              `json:"id"`
	SemesterID string              `json:"semesterId"`
	Status     GenerationJobStatus `json:"status"`
	Attempts   int                 `json:"attempts"`
	Error      string              `json:"error,omitempty"`
	Result     *SchedulingResult   `json:"result,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// SlotGridResponse exposes the static weekly grid.
type SlotGridResponse struct {
	Days        []int             `json:"days"`
	SlotsPerDay int               `json:"slotsPerDay"`
	Slots       []models.TimeSlot `json:"slots"`
}
