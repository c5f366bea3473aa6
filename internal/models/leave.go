package models

import "time"

// LeaveStatus tracks the approval state of a leave request.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected:
		return true
	default:
		return false
	}
}

// LeaveReason enumerates the supported absence reason codes.
type LeaveReason string

const (
	LeaveReasonSick          LeaveReason = "sick"
	LeaveReasonAnnual        LeaveReason = "annual_leave"
	LeaveReasonFamilyAffair  LeaveReason = "family_affair"
	LeaveReasonOfficialEvent LeaveReason = "official_event"
	LeaveReasonOther         LeaveReason = "other"
)

// Valid returns true when the reason is a supported code.
func (r LeaveReason) Valid() bool {
	switch r {
	case LeaveReasonSick, LeaveReasonAnnual, LeaveReasonFamilyAffair, LeaveReasonOfficialEvent, LeaveReasonOther:
		return true
	default:
		return false
	}
}

// LeaveRequest is a teacher absence claim spanning an inclusive date range,
// optionally naming a substitute. Status transitions exactly once, from
// pending to approved or rejected, and the row is immutable afterwards.
type LeaveRequest struct {
	ID                  string      `db:"id" json:"id"`
	TeacherID           string      `db:"teacher_id" json:"teacher_id"`
	Reason              LeaveReason `db:"reason" json:"reason"`
	CustomReason        *string     `db:"custom_reason" json:"custom_reason,omitempty"`
	StartDate           time.Time   `db:"start_date" json:"start_date"`
	EndDate             time.Time   `db:"end_date" json:"end_date"`
	Status              LeaveStatus `db:"status" json:"status"`
	RejectionReason     *string     `db:"rejection_reason" json:"rejection_reason,omitempty"`
	SubstituteTeacherID *string     `db:"substitute_teacher_id" json:"substitute_teacher_id,omitempty"`
	ApprovedBy          *string     `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt          *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
	CreatedBy           string      `db:"created_by" json:"created_by"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the leave's inclusive range contains the date.
func (l *LeaveRequest) Covers(date time.Time) bool {
	day := DateOnly(date)
	return !day.Before(DateOnly(l.StartDate)) && !day.After(DateOnly(l.EndDate))
}

// DurationDays returns the inclusive span in days.
func (l *LeaveRequest) DurationDays() int {
	return int(DateOnly(l.EndDate).Sub(DateOnly(l.StartDate)).Hours()/24) + 1
}

// ReasonText renders a display label, falling back to the free text for
// the "other" code.
func (l *LeaveRequest) ReasonText() string {
	if l.Reason == LeaveReasonOther && l.CustomReason != nil && *l.CustomReason != "" {
		return *l.CustomReason
	}
	switch l.Reason {
	case LeaveReasonSick:
		return "Sick"
	case LeaveReasonAnnual:
		return "Annual leave"
	case LeaveReasonFamilyAffair:
		return "Family affair"
	case LeaveReasonOfficialEvent:
		return "Official event"
	default:
		return "Other"
	}
}

// LeaveFilter scopes listing queries.
type LeaveFilter struct {
	TeacherID string
	Status    *LeaveStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
