package dto

import "github.com/noah-isme/uni-timetable-api/internal/models"

// ScheduleQuery filters the semester schedule view.
type ScheduleQuery struct {
	StudentGroupID string `form:"studentGroupId" json:"studentGroupId"`
}

// GroupSchedule is the weekly entry set of one student group.
type GroupSchedule struct {
	StudentGroupID string                  `json:"studentGroupId"`
	Entries        []ScheduleEntryResponse `json:"entries"`
}

// SemesterScheduleResponse is the committed timetable grouped by student group.
type SemesterScheduleResponse struct {
	SemesterID  string                  `json:"semesterId"`
	TimetableID string                  `json:"timetableId,omitempty"`
	Version     int                     `json:"version,omitempty"`
	Groups      []GroupSchedule         `json:"groups"`
	Unscheduled []UnscheduledOccurrence `json:"unscheduled"`
	Stats       *GenerationStats        `json:"stats,omitempty"`
}

// TeacherScheduleResponse lists an instructor's entries with their reserved time slots.
type TeacherScheduleResponse struct {
	SemesterID    string                  `json:"semesterId"`
	InstructorID  string                  `json:"instructorId"`
	Entries       []ScheduleEntryResponse `json:"entries"`
	ReservedSlots []models.TimeSlot       `json:"reservedSlots"`
}

// FreeRoomsQuery selects the grid cell for the free-room view.
type FreeRoomsQuery struct {
	Day  int `form:"day" json:"day" validate:"required,min=1,max=7"`
	Slot int `form:"slot" json:"slot" validate:"required,min=1"`
}

// FreeRoomsResponse lists rooms with no entry covering the requested cell.
type FreeRoomsResponse struct {
	SemesterID string          `json:"semesterId"`
	TimeSlot   models.TimeSlot `json:"timeSlot"`
	Rooms      []models.Room   `json:"rooms"`
}

// ExportScheduleQuery selects the export format and an optional group.
type ExportScheduleQuery struct {
	Format         string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
	StudentGroupID string `form:"studentGroupId" json:"studentGroupId"`
}
