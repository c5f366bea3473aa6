package models

import "time"

// ScheduleSlot is a recurring weekly class period: which teacher takes
// which class and subject on a given working day and time range. Slots are
// maintained by curriculum staff and read-only to the resolution core.
type ScheduleSlot struct {
	ID        string    `db:"id" json:"id"`
	DayOfWeek Weekday   `db:"day_of_week" json:"day_of_week"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	StartTime TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   TimeOfDay `db:"end_time" json:"end_time"`
	Period    int       `db:"period" json:"period"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleSlotFilter describes query params for listing slots.
type ScheduleSlotFilter struct {
	DayOfWeek *Weekday
	ClassID   string
	SubjectID string
	TeacherID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ScheduleConflict describes an existing slot colliding with a proposed one.
// At most one slot may occupy a (class, day, start time) cell.
type ScheduleConflict struct {
	SlotID    string    `json:"slot_id"`
	ClassID   string    `json:"class_id"`
	DayOfWeek Weekday   `json:"day_of_week"`
	StartTime TimeOfDay `json:"start_time"`
	TeacherID string    `json:"teacher_id"`
}

// ScheduleConflictError is returned when a slot collides with an existing one.
type ScheduleConflictError struct {
	Message  string           `json:"message"`
	Conflict ScheduleConflict `json:"conflict"`
}

// Error implements the error interface.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
