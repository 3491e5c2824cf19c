package models

import "time"

// Activity is a weekly teaching obligation that needs FrequencyPerWeek (room, slot) assignments,
// each spanning Duration consecutive slots, on distinct days.
type Activity struct {
	ID               string    `db:"id" json:"id" mapstructure:"id"`
	SemesterID       string    `db:"semester_id" json:"semester_id" mapstructure:"semesterId"`
	CourseID         string    `db:"course_id" json:"course_id" mapstructure:"courseId"`
	InstructorID     string    `db:"instructor_id" json:"instructor_id" mapstructure:"instructorId"`
	StudentGroupID   string    `db:"student_group_id" json:"student_group_id" mapstructure:"studentGroupId"`
	RoomTypeID       string    `db:"room_type_id" json:"room_type_id" mapstructure:"roomTypeId"`
	Duration         int       `db:"duration" json:"duration" mapstructure:"duration"`
	FrequencyPerWeek int       `db:"frequency_per_week" json:"frequency_per_week" mapstructure:"frequencyPerWeek"`
	CreatedAt        time.Time `db:"created_at" json:"created_at" mapstructure:"-"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at" mapstructure:"-"`
}
