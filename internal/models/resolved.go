package models

import "time"

// EffectiveStatus is the computed status of a schedule occurrence after
// merging the attendance ledger, the leave registry and the absence of
// both. It is a superset of AttendanceStatus: "not_yet_reported" never
// appears in storage, it marks a past-or-current occurrence nobody filed
// a report for, which dashboards must colour differently from an awaiting
// confirmation.
type EffectiveStatus string

const (
	EffectivePending     EffectiveStatus = "pending"
	EffectivePresent     EffectiveStatus = "present"
	EffectiveLate        EffectiveStatus = "late"
	EffectiveAbsent      EffectiveStatus = "absent"
	EffectiveSubstituted EffectiveStatus = "substituted"
	EffectiveOnLeave     EffectiveStatus = "on_leave"
	EffectiveNotReported EffectiveStatus = "not_yet_reported"
)

// EffectiveStatuses lists every effective status in a stable order used by
// summary structures.
func EffectiveStatuses() []EffectiveStatus {
	return []EffectiveStatus{
		EffectivePresent,
		EffectiveLate,
		EffectiveAbsent,
		EffectiveSubstituted,
		EffectiveOnLeave,
		EffectivePending,
		EffectiveNotReported,
	}
}

// Actionable reports whether the occurrence still needs curriculum
// attention (waiting for confirmation or never reported at all).
func (s EffectiveStatus) Actionable() bool {
	return s == EffectivePending || s == EffectiveNotReported
}

// ResolvedOccurrence is the authoritative attendance outcome for one
// schedule slot on one date. It is derived fresh per query from the three
// source tables and never persisted.
type ResolvedOccurrence struct {
	ScheduleSlotID      string          `json:"schedule_slot_id"`
	Date                time.Time       `json:"date"`
	EffectiveStatus     EffectiveStatus `json:"effective_status"`
	TeacherID           string          `json:"teacher_id"`
	SubstituteTeacherID *string         `json:"substitute_teacher_id,omitempty"`
	ClassID             string          `json:"class_id"`
	SubjectID           string          `json:"subject_id"`
	Period              int             `json:"period"`
	StartTime           TimeOfDay       `json:"start_time"`
	EndTime             TimeOfDay       `json:"end_time"`
	LeaveReason         *string         `json:"leave_reason,omitempty"`
	Note                *string         `json:"note,omitempty"`
	CheckInTime         *TimeOfDay      `json:"check_in_time,omitempty"`
	LateMinutes         *int            `json:"late_minutes,omitempty"`
	IsPastPeriod        bool            `json:"is_past_period"`
	IsCurrentPeriod     bool            `json:"is_current_period"`
	HasExplicitRecord   bool            `json:"has_explicit_record"`
	AttendanceRecordID  *string         `json:"attendance_record_id,omitempty"`
}
