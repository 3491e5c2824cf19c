package dto

// CreateActivityRequest registers a teaching obligation for a semester.
type CreateActivityRequest struct {
	SemesterID       string `json:"semesterId" validate:"required"`
	CourseID         string `json:"courseId" validate:"required"`
	InstructorID     string `json:"instructorId" validate:"required"`
	StudentGroupID   string `json:"studentGroupId" validate:"required"`
	RoomTypeID       string `json:"roomTypeId" validate:"required"`
	Duration         int    `json:"duration" validate:"required,min=1"`
	FrequencyPerWeek int    `json:"frequencyPerWeek" validate:"required,min=1,max=7"`
}

// UpdateActivityRequest replaces the mutable fields of an activity. The semester is fixed.
type UpdateActivityRequest struct {
	CourseID         string `json:"courseId" validate:"required"`
	InstructorID     string `json:"instructorId" validate:"required"`
	StudentGroupID   string `json:"studentGroupId" validate:"required"`
	RoomTypeID       string `json:"roomTypeId" validate:"required"`
	Duration         int    `json:"duration" validate:"required,min=1"`
	FrequencyPerWeek int    `json:"frequencyPerWeek" validate:"required,min=1,max=7"`
}

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	SemesterID     string `form:"semesterId" json:"semesterId" validate:"required"`
	InstructorID   string `form:"instructorId" json:"instructorId"`
	StudentGroupID string `form:"studentGroupId" json:"studentGroupId"`
	Page           int    `form:"page" json:"page"`
	PageSize       int    `form:"pageSize" json:"pageSize"`
}
