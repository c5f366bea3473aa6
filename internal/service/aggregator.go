package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
	appErrors "github.com/noah-isme/sekolah-ops-api/pkg/errors"
)

type scheduleSlotLister interface {
	ListByDay(ctx context.Context, day models.Weekday) ([]models.ScheduleSlot, error)
}

type attendanceBatchLister interface {
	ListBySlotsAndDate(ctx context.Context, slotIDs []string, date time.Time) ([]models.AttendanceRecord, error)
}

type approvedLeaveLister interface {
	ListApprovedCovering(ctx context.Context, date time.Time) ([]models.LeaveRequest, error)
}

// nameDirectory resolves display names for dashboard enrichment. Lookups
// may fail for historical rows whose referents were deleted; callers
// substitute a placeholder and keep going.
type nameDirectory interface {
	TeacherName(ctx context.Context, id string) (string, error)
	ClassName(ctx context.Context, id string) (string, error)
	SubjectName(ctx context.Context, id string) (string, error)
}

const (
	placeholderTeacher = "Unknown Teacher"
	placeholderClass   = "Unknown Class"
	placeholderSubject = "Unknown Subject"
)

const dateLayout = "2006-01-02"

// AggregatorConfig tunes aggregation behaviour.
type AggregatorConfig struct {
	// NoTeacherAlertAfter marks current periods still unreported this long
	// after their start.
	NoTeacherAlertAfter time.Duration
}

// Aggregator rolls per-occurrence resolved statuses up into the reporting
// structures dashboards consume: pending queues, daily summaries, weekly
// totals, trends and the substitution roster. It recomputes from the
// source tables on every call; any caching sits in front of it.
type Aggregator struct {
	slots     scheduleSlotLister
	ledger    attendanceBatchLister
	leaves    approvedLeaveLister
	directory nameDirectory
	logger    *zap.Logger
	now       func() time.Time
	cfg       AggregatorConfig
}

// NewAggregator constructs an Aggregator.
func NewAggregator(slots scheduleSlotLister, ledger attendanceBatchLister, leaves approvedLeaveLister, directory nameDirectory, logger *zap.Logger, cfg AggregatorConfig) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NoTeacherAlertAfter <= 0 {
		cfg.NoTeacherAlertAfter = 15 * time.Minute
	}
	return &Aggregator{slots: slots, ledger: ledger, leaves: leaves, directory: directory, logger: logger, now: time.Now, cfg: cfg}
}

// ResolveDate resolves every schedule occurrence on the date. Sundays and
// dates with no schedule resolve to an empty slice, not an error.
func (a *Aggregator) ResolveDate(ctx context.Context, date time.Time) ([]models.ResolvedOccurrence, error) {
	day, ok := models.WeekdayOf(date)
	if !ok {
		return nil, nil
	}
	slots, err := a.slots.ListByDay(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
	}
	if len(slots) == 0 {
		return nil, nil
	}

	slotIDs := make([]string, len(slots))
	for i, slot := range slots {
		slotIDs[i] = slot.ID
	}

	records, err := a.ledger.ListBySlotsAndDate(ctx, slotIDs, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	recordBySlot := make(map[string]models.AttendanceRecord, len(records))
	for _, record := range records {
		recordBySlot[record.ScheduleSlotID] = record
	}

	leaves, err := a.leaves.ListApprovedCovering(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved leaves")
	}
	// Earliest-created wins when a teacher holds overlapping approved
	// leaves; the repository orders by created_at so the first row sticks.
	leaveByTeacher := make(map[string]models.LeaveRequest, len(leaves))
	for _, leave := range leaves {
		if _, exists := leaveByTeacher[leave.TeacherID]; !exists {
			leaveByTeacher[leave.TeacherID] = leave
		}
	}

	now := a.now()
	occurrences := make([]models.ResolvedOccurrence, 0, len(slots))
	for _, slot := range slots {
		var record *models.AttendanceRecord
		if r, ok := recordBySlot[slot.ID]; ok {
			record = &r
		}
		var leave *models.LeaveRequest
		if l, ok := leaveByTeacher[slot.TeacherID]; ok {
			leave = &l
		}
		occurrences = append(occurrences, Resolve(slot, date, now, record, leave))
	}
	return occurrences, nil
}

// DailySummary counts occurrences per status across the school for a date.
func (a *Aggregator) DailySummary(ctx context.Context, date time.Time) (dto.DailySummary, error) {
	occurrences, err := a.ResolveDate(ctx, date)
	if err != nil {
		return dto.DailySummary{}, err
	}
	return SummarizeOccurrences(date, occurrences), nil
}

// PendingQueue groups unresolved occurrences by class for the date.
func (a *Aggregator) PendingQueue(ctx context.Context, date time.Time) (dto.PendingQueue, error) {
	occurrences, err := a.ResolveDate(ctx, date)
	if err != nil {
		return dto.PendingQueue{}, err
	}
	views := make([]dto.OccurrenceView, 0, len(occurrences))
	for _, occ := range occurrences {
		if !occ.EffectiveStatus.Actionable() {
			continue
		}
		views = append(views, a.enrich(ctx, occ))
	}
	return BuildPendingQueue(date, views), nil
}

// WeeklyTotals sums daily summaries over the six working days starting at
// the Monday of weekStart's week. Days after "now" keep explicit zero
// counts and a not-yet-occurred flag; they never contribute to totals.
func (a *Aggregator) WeeklyTotals(ctx context.Context, weekStart time.Time) (dto.WeeklyTotals, error) {
	start := models.WeekStart(weekStart)
	today := models.DateOnly(a.now())

	totals := dto.WeeklyTotals{
		WeekStart: start.Format(dateLayout),
		WeekEnd:   start.AddDate(0, 0, 5).Format(dateLayout),
		Days:      make([]dto.WeeklyDay, 0, 6),
	}

	for i, day := range models.WorkingWeek() {
		date := start.AddDate(0, 0, i)
		entry := dto.WeeklyDay{DailySummary: dto.DailySummary{
			Date: date.Format(dateLayout),
			Day:  string(day),
		}}
		if date.After(today) {
			entry.NotYetOccurred = true
			totals.Days = append(totals.Days, entry)
			continue
		}
		summary, err := a.DailySummary(ctx, date)
		if err != nil {
			return dto.WeeklyTotals{}, err
		}
		entry.DailySummary = summary
		entry.Day = string(day)
		totals.Days = append(totals.Days, entry)
		totals.Counts.Merge(summary.Counts)
		totals.DaysElapsed++
	}

	totals.Total = totals.Counts.Total()
	totals.AttendanceRate = attendanceRate(totals.Counts)
	totals.OnTimeRate = onTimeRate(totals.Counts)
	return totals, nil
}

// SubstitutionList returns every occurrence in the inclusive date range
// that carries a substitute teacher, enriched with display names.
func (a *Aggregator) SubstitutionList(ctx context.Context, from, to time.Time) ([]dto.SubstitutionEntry, error) {
	entries := make([]dto.SubstitutionEntry, 0)
	for date := models.DateOnly(from); !date.After(models.DateOnly(to)); date = date.AddDate(0, 0, 1) {
		occurrences, err := a.ResolveDate(ctx, date)
		if err != nil {
			return nil, err
		}
		for _, occ := range occurrences {
			if occ.SubstituteTeacherID == nil || *occ.SubstituteTeacherID == "" {
				continue
			}
			view := a.enrich(ctx, occ)
			entry := dto.SubstitutionEntry{
				Date:                  view.Date,
				ScheduleSlotID:        view.ScheduleSlotID,
				Period:                view.Period,
				StartTime:             view.StartTime,
				EndTime:               view.EndTime,
				ClassName:             view.ClassName,
				SubjectName:           view.SubjectName,
				TeacherID:             view.TeacherID,
				TeacherName:           view.TeacherName,
				SubstituteTeacherID:   view.SubstituteTeacherID,
				SubstituteTeacherName: view.SubstituteTeacherName,
				Status:                view.Status,
				LeaveReason:           view.LeaveReason,
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// EnrichOccurrences converts resolved occurrences into display views.
func (a *Aggregator) EnrichOccurrences(ctx context.Context, occurrences []models.ResolvedOccurrence) []dto.OccurrenceView {
	views := make([]dto.OccurrenceView, 0, len(occurrences))
	for _, occ := range occurrences {
		views = append(views, a.enrich(ctx, occ))
	}
	return views
}

func (a *Aggregator) enrich(ctx context.Context, occ models.ResolvedOccurrence) dto.OccurrenceView {
	day, _ := models.WeekdayOf(occ.Date)
	view := dto.OccurrenceView{
		ScheduleSlotID:    occ.ScheduleSlotID,
		Date:              occ.Date.Format(dateLayout),
		Day:               string(day),
		Period:            occ.Period,
		StartTime:         occ.StartTime.String(),
		EndTime:           occ.EndTime.String(),
		ClassID:           occ.ClassID,
		ClassName:         a.lookupName(ctx, a.directory.ClassName, occ.ClassID, placeholderClass),
		SubjectName:       a.lookupName(ctx, a.directory.SubjectName, occ.SubjectID, placeholderSubject),
		TeacherID:         occ.TeacherID,
		TeacherName:       a.lookupName(ctx, a.directory.TeacherName, occ.TeacherID, placeholderTeacher),
		Status:            occ.EffectiveStatus,
		IsPastPeriod:      occ.IsPastPeriod,
		IsCurrentPeriod:   occ.IsCurrentPeriod,
		HasExplicitRecord: occ.HasExplicitRecord,
	}
	if occ.SubstituteTeacherID != nil && *occ.SubstituteTeacherID != "" {
		view.SubstituteTeacherID = *occ.SubstituteTeacherID
		view.SubstituteTeacherName = a.lookupName(ctx, a.directory.TeacherName, *occ.SubstituteTeacherID, placeholderTeacher)
	}
	if occ.LeaveReason != nil {
		view.LeaveReason = *occ.LeaveReason
	}
	if occ.Note != nil {
		view.Note = *occ.Note
	}
	if occ.CheckInTime != nil {
		view.CheckInTime = occ.CheckInTime.String()
	}
	if occ.LateMinutes != nil {
		view.LateMinutes = *occ.LateMinutes
	}
	view.NoTeacherAlert = a.noTeacherAlert(occ)
	return view
}

// noTeacherAlert flags a current period that nobody reported well after
// its start: the class is likely sitting without a teacher right now.
func (a *Aggregator) noTeacherAlert(occ models.ResolvedOccurrence) bool {
	if occ.HasExplicitRecord || !occ.IsCurrentPeriod || occ.EffectiveStatus != models.EffectivePending {
		return false
	}
	start := occ.StartTime.At(occ.Date)
	return a.now().Sub(start) >= a.cfg.NoTeacherAlertAfter
}

func (a *Aggregator) lookupName(ctx context.Context, resolve func(context.Context, string) (string, error), id, placeholder string) string {
	if id == "" {
		return placeholder
	}
	name, err := resolve(ctx, id)
	if err != nil || name == "" {
		// Orphaned references must not blank a dashboard render.
		a.logger.Warn("name lookup failed", zap.String("id", id), zap.Error(err))
		return placeholder
	}
	return name
}

// SummarizeOccurrences counts a date's occurrences per effective status.
// Pure; an empty input produces a fully zeroed summary.
func SummarizeOccurrences(date time.Time, occurrences []models.ResolvedOccurrence) dto.DailySummary {
	summary := dto.DailySummary{Date: models.DateOnly(date).Format(dateLayout)}
	if day, ok := models.WeekdayOf(date); ok {
		summary.Day = string(day)
	}
	for _, occ := range occurrences {
		summary.Counts.Add(occ.EffectiveStatus)
	}
	summary.Total = summary.Counts.Total()
	summary.AttendanceRate = attendanceRate(summary.Counts)
	summary.OnTimeRate = onTimeRate(summary.Counts)
	return summary
}

// BuildPendingQueue groups actionable occurrence views by class. Pure and
// order-insensitive: groups and counts do not depend on input order.
func BuildPendingQueue(date time.Time, views []dto.OccurrenceView) dto.PendingQueue {
	queue := dto.PendingQueue{Date: models.DateOnly(date).Format(dateLayout), Classes: []dto.PendingClassGroup{}}
	groups := make(map[string]*dto.PendingClassGroup)
	for _, view := range views {
		if view.Status != models.EffectivePending && view.Status != models.EffectiveNotReported {
			continue
		}
		group, ok := groups[view.ClassID]
		if !ok {
			group = &dto.PendingClassGroup{ClassID: view.ClassID, ClassName: view.ClassName}
			groups[view.ClassID] = group
		}
		switch view.Status {
		case models.EffectivePending:
			group.ExplicitPending++
			queue.ExplicitPending++
		case models.EffectiveNotReported:
			group.Unreported++
			queue.Unreported++
		}
		if view.NoTeacherAlert {
			group.NoTeacherAlerts++
		}
		group.Occurrences = append(group.Occurrences, view)
	}
	for _, group := range groups {
		sort.SliceStable(group.Occurrences, func(i, j int) bool {
			if group.Occurrences[i].Period != group.Occurrences[j].Period {
				return group.Occurrences[i].Period < group.Occurrences[j].Period
			}
			return group.Occurrences[i].ScheduleSlotID < group.Occurrences[j].ScheduleSlotID
		})
		queue.Classes = append(queue.Classes, *group)
	}
	sort.Slice(queue.Classes, func(i, j int) bool {
		if queue.Classes[i].ClassName != queue.Classes[j].ClassName {
			return queue.Classes[i].ClassName < queue.Classes[j].ClassName
		}
		return queue.Classes[i].ClassID < queue.Classes[j].ClassID
	})
	return queue
}

// statusPolarity records which direction of movement counts as an
// improvement for a status. More present periods is good; more of
// everything else needing cover or confirmation is not. The mapping is
// deliberate and explicit rather than inferred from the delta sign.
var statusPolarity = map[models.EffectiveStatus]bool{
	models.EffectivePresent:     true,  // up is good
	models.EffectiveLate:        false, // down is good
	models.EffectiveAbsent:      false,
	models.EffectiveSubstituted: false,
	models.EffectiveOnLeave:     false,
	models.EffectivePending:     false,
	models.EffectiveNotReported: false,
}

// ComputeTrendDelta compares two weekly roll-ups status by status. Equal
// inputs yield zero deltas with every direction steady: no false signal.
func ComputeTrendDelta(current, previous dto.WeeklyTotals) dto.TrendDelta {
	return dto.TrendDelta{
		Present:     trendEntry(models.EffectivePresent, current.Counts.Present, previous.Counts.Present),
		Late:        trendEntry(models.EffectiveLate, current.Counts.Late, previous.Counts.Late),
		Absent:      trendEntry(models.EffectiveAbsent, current.Counts.Absent, previous.Counts.Absent),
		Substituted: trendEntry(models.EffectiveSubstituted, current.Counts.Substituted, previous.Counts.Substituted),
		OnLeave:     trendEntry(models.EffectiveOnLeave, current.Counts.OnLeave, previous.Counts.OnLeave),
		Pending:     trendEntry(models.EffectivePending, current.Counts.Pending, previous.Counts.Pending),
		NotReported: trendEntry(models.EffectiveNotReported, current.Counts.NotReported, previous.Counts.NotReported),
		AttendanceRate: dto.RateTrendEntry{
			Delta:     round1(current.AttendanceRate - previous.AttendanceRate),
			Direction: rateDirection(current.AttendanceRate, previous.AttendanceRate),
		},
	}
}

func trendEntry(status models.EffectiveStatus, current, previous int) dto.TrendEntry {
	entry := dto.TrendEntry{Delta: current - previous, Direction: dto.TrendSteady}
	switch {
	case previous == 0 && current > 0:
		entry.Percentage = 100
	case previous != 0:
		entry.Percentage = round1(float64(current-previous) / float64(previous) * 100)
	}
	if entry.Delta == 0 {
		return entry
	}
	upIsGood := statusPolarity[status]
	if (entry.Delta > 0) == upIsGood {
		entry.Direction = dto.TrendImproving
	} else {
		entry.Direction = dto.TrendDeclining
	}
	return entry
}

func rateDirection(current, previous float64) dto.TrendDirection {
	switch {
	case current > previous:
		return dto.TrendImproving
	case current < previous:
		return dto.TrendDeclining
	default:
		return dto.TrendSteady
	}
}

// attendanceRate counts a period as attended when a teacher actually
// stood in front of the class: present, late or a substitute.
func attendanceRate(counts dto.StatusCounts) float64 {
	total := counts.Total()
	if total == 0 {
		return 0
	}
	attended := counts.Present + counts.Late + counts.Substituted
	return round1(float64(attended) / float64(total) * 100)
}

func onTimeRate(counts dto.StatusCounts) float64 {
	total := counts.Total()
	if total == 0 {
		return 0
	}
	return round1(float64(counts.Present) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
