package dto

import "github.com/noah-isme/sekolah-ops-api/internal/models"

// StatusCounts carries one counter per effective status. Every field is
// always populated, so an empty day serialises as explicit zeros rather
// than a missing structure.
type StatusCounts struct {
	Present     int `json:"present"`
	Late        int `json:"late"`
	Absent      int `json:"absent"`
	Substituted int `json:"substituted"`
	OnLeave     int `json:"onLeave"`
	Pending     int `json:"pending"`
	NotReported int `json:"notYetReported"`
}

// Add increments the counter matching the status.
func (c *StatusCounts) Add(status models.EffectiveStatus) {
	switch status {
	case models.EffectivePresent:
		c.Present++
	case models.EffectiveLate:
		c.Late++
	case models.EffectiveAbsent:
		c.Absent++
	case models.EffectiveSubstituted:
		c.Substituted++
	case models.EffectiveOnLeave:
		c.OnLeave++
	case models.EffectivePending:
		c.Pending++
	case models.EffectiveNotReported:
		c.NotReported++
	}
}

// Merge accumulates another set of counters.
func (c *StatusCounts) Merge(other StatusCounts) {
	c.Present += other.Present
	c.Late += other.Late
	c.Absent += other.Absent
	c.Substituted += other.Substituted
	c.OnLeave += other.OnLeave
	c.Pending += other.Pending
	c.NotReported += other.NotReported
}

// Total sums every counter.
func (c StatusCounts) Total() int {
	return c.Present + c.Late + c.Absent + c.Substituted + c.OnLeave + c.Pending + c.NotReported
}

// DailySummary counts occurrences per effective status across the school
// for one date.
type DailySummary struct {
	Date           string       `json:"date"`
	Day            string       `json:"day,omitempty"`
	Counts         StatusCounts `json:"counts"`
	Total          int          `json:"total"`
	AttendanceRate float64      `json:"attendanceRate"`
	OnTimeRate     float64      `json:"onTimeRate"`
}

// WeeklyDay is one working day inside a weekly roll-up. Days that have not
// happened yet keep zero counts and are flagged, never silently skipped.
type WeeklyDay struct {
	DailySummary
	NotYetOccurred bool `json:"notYetOccurred"`
}

// WeeklyTotals sums daily summaries over the six working days from the
// week start (a Monday).
type WeeklyTotals struct {
	WeekStart      string       `json:"weekStart"`
	WeekEnd        string       `json:"weekEnd"`
	Days           []WeeklyDay  `json:"days"`
	Counts         StatusCounts `json:"counts"`
	Total          int          `json:"total"`
	AttendanceRate float64      `json:"attendanceRate"`
	OnTimeRate     float64      `json:"onTimeRate"`
	DaysElapsed    int          `json:"daysElapsed"`
}

// TrendDirection classifies a week-over-week movement against the status
// polarity, so "fewer absences" reads as improving even though the raw
// delta is negative.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendSteady    TrendDirection = "steady"
)

// TrendEntry is the week-over-week movement for one status counter.
type TrendEntry struct {
	Delta      int            `json:"delta"`
	Percentage float64        `json:"percentage"`
	Direction  TrendDirection `json:"direction"`
}

// RateTrendEntry is the movement of a percentage metric.
type RateTrendEntry struct {
	Delta     float64        `json:"delta"`
	Direction TrendDirection `json:"direction"`
}

// TrendDelta compares two weekly roll-ups per status.
type TrendDelta struct {
	Present        TrendEntry     `json:"present"`
	Late           TrendEntry     `json:"late"`
	Absent         TrendEntry     `json:"absent"`
	Substituted    TrendEntry     `json:"substituted"`
	OnLeave        TrendEntry     `json:"onLeave"`
	Pending        TrendEntry     `json:"pending"`
	NotReported    TrendEntry     `json:"notYetReported"`
	AttendanceRate RateTrendEntry `json:"attendanceRate"`
}

// PendingClassGroup aggregates unresolved occurrences for one class,
// splitting reports that await confirmation from periods no one reported.
type PendingClassGroup struct {
	ClassID         string           `json:"classId"`
	ClassName       string           `json:"className"`
	ExplicitPending int              `json:"explicitPending"`
	Unreported      int              `json:"unreported"`
	NoTeacherAlerts int              `json:"noTeacherAlerts"`
	Occurrences     []OccurrenceView `json:"occurrences"`
}

// PendingQueue is the curriculum work queue for one date.
type PendingQueue struct {
	Date            string              `json:"date"`
	ExplicitPending int                 `json:"explicitPending"`
	Unreported      int                 `json:"unreported"`
	Classes         []PendingClassGroup `json:"classes"`
}

// SubstitutionEntry is one substituted (or substitute-assigned) occurrence
// within a reporting range.
type SubstitutionEntry struct {
	Date                  string                 `json:"date"`
	ScheduleSlotID        string                 `json:"scheduleSlotId"`
	Period                int                    `json:"period"`
	StartTime             string                 `json:"startTime"`
	EndTime               string                 `json:"endTime"`
	ClassName             string                 `json:"className"`
	SubjectName           string                 `json:"subjectName"`
	TeacherID             string                 `json:"teacherId"`
	TeacherName           string                 `json:"teacherName"`
	SubstituteTeacherID   string                 `json:"substituteTeacherId,omitempty"`
	SubstituteTeacherName string                 `json:"substituteTeacherName,omitempty"`
	Status                models.EffectiveStatus `json:"status"`
	LeaveReason           string                 `json:"leaveReason,omitempty"`
}

// OccurrenceView is a resolved occurrence enriched with display names for
// dashboard rendering.
type OccurrenceView struct {
	ScheduleSlotID        string                 `json:"scheduleSlotId"`
	Date                  string                 `json:"date"`
	Day                   string                 `json:"day"`
	Period                int                    `json:"period"`
	StartTime             string                 `json:"startTime"`
	EndTime               string                 `json:"endTime"`
	ClassID               string                 `json:"classId"`
	ClassName             string                 `json:"className"`
	SubjectName           string                 `json:"subjectName"`
	TeacherID             string                 `json:"teacherId"`
	TeacherName           string                 `json:"teacherName"`
	Status                models.EffectiveStatus `json:"status"`
	SubstituteTeacherID   string                 `json:"substituteTeacherId,omitempty"`
	SubstituteTeacherName string                 `json:"substituteTeacherName,omitempty"`
	LeaveReason           string                 `json:"leaveReason,omitempty"`
	Note                  string                 `json:"note,omitempty"`
	CheckInTime           string                 `json:"checkInTime,omitempty"`
	LateMinutes           int                    `json:"lateMinutes,omitempty"`
	IsPastPeriod          bool                   `json:"isPastPeriod"`
	IsCurrentPeriod       bool                   `json:"isCurrentPeriod"`
	HasExplicitRecord     bool                   `json:"hasExplicitRecord"`
	NoTeacherAlert        bool                   `json:"noTeacherAlert"`
}
