package models

import "time"

// AttendanceStatus is the persisted status of a teacher-attendance record.
type AttendanceStatus string

const (
	// AttendancePending means a student reported the period and curriculum
	// confirmation is still outstanding. Non-terminal.
	AttendancePending     AttendanceStatus = "pending"
	AttendancePresent     AttendanceStatus = "present"
	AttendanceLate        AttendanceStatus = "late"
	AttendanceAbsent      AttendanceStatus = "absent"
	AttendanceSubstituted AttendanceStatus = "substituted"
	// AttendanceOnLeave is normally derived from the leave registry, but
	// curriculum staff may persist it explicitly.
	AttendanceOnLeave AttendanceStatus = "on_leave"
)

// Valid returns true when the status is a supported persisted value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePending, AttendancePresent, AttendanceLate, AttendanceAbsent, AttendanceSubstituted, AttendanceOnLeave:
		return true
	default:
		return false
	}
}

// Terminal reports whether curriculum staff already settled the record.
func (s AttendanceStatus) Terminal() bool {
	return s.Valid() && s != AttendancePending
}

// AttendanceRecord is one observation of a schedule-slot occurrence on one
// calendar date. The storage layer enforces uniqueness per (slot, date).
// Absence of a row is itself meaningful: nobody reported the period.
type AttendanceRecord struct {
	ID                  string           `db:"id" json:"id"`
	ScheduleSlotID      string           `db:"schedule_slot_id" json:"schedule_slot_id"`
	TeacherID           string           `db:"teacher_id" json:"teacher_id"`
	OriginalTeacherID   *string          `db:"original_teacher_id" json:"original_teacher_id,omitempty"`
	SubstituteTeacherID *string          `db:"substitute_teacher_id" json:"substitute_teacher_id,omitempty"`
	Date                time.Time        `db:"date" json:"date"`
	CheckInTime         *TimeOfDay       `db:"check_in_time" json:"check_in_time,omitempty"`
	Status              AttendanceStatus `db:"status" json:"status"`
	Note                *string          `db:"note" json:"note,omitempty"`
	CreatedBy           string           `db:"created_by" json:"created_by"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter scopes history listings.
type AttendanceFilter struct {
	TeacherID      string
	ScheduleSlotID string
	ClassID        string
	Status         *AttendanceStatus
	DateFrom       *time.Time
	DateTo         *time.Time
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// AttendanceHistoryRow extends a record with schedule metadata for review
// listings. Name columns are nullable; joins against deleted rows must not
// blank the listing.
type AttendanceHistoryRow struct {
	AttendanceRecord
	DayOfWeek   Weekday   `db:"day_of_week" json:"day_of_week"`
	StartTime   TimeOfDay `db:"start_time" json:"start_time"`
	EndTime     TimeOfDay `db:"end_time" json:"end_time"`
	ClassName   *string   `db:"class_name" json:"class_name,omitempty"`
	SubjectName *string   `db:"subject_name" json:"subject_name,omitempty"`
	TeacherName *string   `db:"teacher_name" json:"teacher_name,omitempty"`
}
