package dto

// ClassScheduleGroup lists every resolved occurrence of one class on one
// date, for the curriculum day view.
type ClassScheduleGroup struct {
	ClassID     string           `json:"classId"`
	ClassName   string           `json:"className"`
	Occurrences []OccurrenceView `json:"occurrences"`
}

// CurriculumDashboardResponse is the curriculum staff "today" view:
// everything scheduled on the date with effective statuses, plus the
// pending work queue.
type CurriculumDashboardResponse struct {
	Date    string               `json:"date"`
	Day     string               `json:"day"`
	Summary DailySummary         `json:"summary"`
	Pending PendingQueue         `json:"pending"`
	Classes []ClassScheduleGroup `json:"classes"`
}

// PrincipalDashboardResponse is the principal weekly view with
// week-over-week trends and the substitution roster.
type PrincipalDashboardResponse struct {
	ThisWeek      WeeklyTotals        `json:"thisWeek"`
	PreviousWeek  WeeklyTotals        `json:"previousWeek"`
	Trends        TrendDelta          `json:"trends"`
	Substitutions []SubstitutionEntry `json:"substitutions"`
}
