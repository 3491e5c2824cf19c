package models

import "time"

// Semester identifies a scheduling period; activities and timetables are keyed by it.
type Semester struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	StartDate *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// RoomType is the tag used to match activity room requirements (lecture hall, lab, ...).
type RoomType struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Room is a bookable space. Immutable for the duration of a generation run.
type Room struct {
	ID         string    `db:"id" json:"id" mapstructure:"id"`
	Name       string    `db:"name" json:"name" mapstructure:"name"`
	Building   string    `db:"building" json:"building,omitempty" mapstructure:"building"`
	RoomTypeID string    `db:"room_type_id" json:"room_type_id" mapstructure:"roomTypeId"`
	Capacity   int       `db:"capacity" json:"capacity" mapstructure:"capacity"`
	CreatedAt  time.Time `db:"created_at" json:"created_at" mapstructure:"-"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at" mapstructure:"-"`
}

// Course is referenced by activities; it is never scheduled directly.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Instructor teaches activities and may not be booked twice in the same slot.
type Instructor struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentGroup is a department/year/section cohort. Size zero means the head count is not tracked.
type StudentGroup struct {
	ID         string    `db:"id" json:"id" mapstructure:"id"`
	Department string    `db:"department" json:"department" mapstructure:"department"`
	Year       int       `db:"year" json:"year" mapstructure:"year"`
	Section    string    `db:"section" json:"section" mapstructure:"section"`
	Size       int       `db:"size" json:"size" mapstructure:"size"`
	CreatedAt  time.Time `db:"created_at" json:"created_at" mapstructure:"-"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at" mapstructure:"-"`
}
