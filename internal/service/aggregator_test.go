package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

type fakeSlotLister struct {
	slots map[models.Weekday][]models.ScheduleSlot
	err   error
}

func (f *fakeSlotLister) ListByDay(_ context.Context, day models.Weekday) ([]models.ScheduleSlot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.slots[day], nil
}

type fakeRecordLister struct {
	records map[string][]models.AttendanceRecord
}

func (f *fakeRecordLister) ListBySlotsAndDate(_ context.Context, _ []string, date time.Time) ([]models.AttendanceRecord, error) {
	return f.records[date.Format(dateLayout)], nil
}

type fakeLeaveLister struct {
	leaves []models.LeaveRequest
}

func (f *fakeLeaveLister) ListApprovedCovering(_ context.Context, date time.Time) ([]models.LeaveRequest, error) {
	covering := make([]models.LeaveRequest, 0, len(f.leaves))
	for _, leave := range f.leaves {
		if leave.Covers(date) {
			covering = append(covering, leave)
		}
	}
	return covering, nil
}

type fakeDirectory struct {
	teachers map[string]string
	classes  map[string]string
	subjects map[string]string
}

func (f *fakeDirectory) TeacherName(_ context.Context, id string) (string, error) {
	return f.teachers[id], nil
}

func (f *fakeDirectory) ClassName(_ context.Context, id string) (string, error) {
	return f.classes[id], nil
}

func (f *fakeDirectory) SubjectName(_ context.Context, id string) (string, error) {
	return f.subjects[id], nil
}

func newTestAggregator(slots *fakeSlotLister, records *fakeRecordLister, leaves *fakeLeaveLister) *Aggregator {
	if records == nil {
		records = &fakeRecordLister{}
	}
	if leaves == nil {
		leaves = &fakeLeaveLister{}
	}
	directory := &fakeDirectory{
		teachers: map[string]string{"teacher-1": "Pak Budi", "teacher-9": "Bu Sari"},
		classes:  map[string]string{"class-1": "X IPA 1", "class-2": "X IPA 2"},
		subjects: map[string]string{"subject-1": "Matematika"},
	}
	return NewAggregator(slots, records, leaves, directory, nil, AggregatorConfig{})
}

func occurrence(status models.EffectiveStatus) models.ResolvedOccurrence {
	return models.ResolvedOccurrence{EffectiveStatus: status}
}

func TestSummarizeOccurrencesCounts(t *testing.T) {
	occurrences := []models.ResolvedOccurrence{
		occurrence(models.EffectivePresent),
		occurrence(models.EffectivePresent),
		occurrence(models.EffectiveLate),
		occurrence(models.EffectiveSubstituted),
		occurrence(models.EffectiveAbsent),
		occurrence(models.EffectivePending),
	}

	summary := SummarizeOccurrences(monday, occurrences)

	assert.Equal(t, "2026-03-02", summary.Date)
	assert.Equal(t, "monday", summary.Day)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 2, summary.Counts.Present)
	assert.Equal(t, 1, summary.Counts.Late)
	assert.Equal(t, 1, summary.Counts.Substituted)
	assert.Equal(t, 1, summary.Counts.Absent)
	assert.Equal(t, 1, summary.Counts.Pending)
	assert.InDelta(t, 66.7, summary.AttendanceRate, 0.001)
	assert.InDelta(t, 33.3, summary.OnTimeRate, 0.001)
}

func TestSummarizeOccurrencesEmpty(t *testing.T) {
	summary := SummarizeOccurrences(monday, nil)

	assert.Equal(t, 0, summary.Total)
	assert.Zero(t, summary.AttendanceRate)
	assert.Zero(t, summary.OnTimeRate)
	assert.Equal(t, dto.StatusCounts{}, summary.Counts)
}

func pendingView(classID, className, slotID string, period int, status models.EffectiveStatus, alert bool) dto.OccurrenceView {
	return dto.OccurrenceView{
		ScheduleSlotID: slotID,
		ClassID:        classID,
		ClassName:      className,
		Period:         period,
		Status:         status,
		NoTeacherAlert: alert,
	}
}

func TestBuildPendingQueueGroupsByClass(t *testing.T) {
	views := []dto.OccurrenceView{
		pendingView("class-2", "X IPA 2", "slot-3", 2, models.EffectiveNotReported, false),
		pendingView("class-1", "X IPA 1", "slot-2", 3, models.EffectivePending, true),
		pendingView("class-1", "X IPA 1", "slot-1", 1, models.EffectiveNotReported, false),
		pendingView("class-1", "X IPA 1", "slot-9", 2, models.EffectivePresent, false),
	}

	queue := BuildPendingQueue(monday, views)

	assert.Equal(t, 1, queue.ExplicitPending)
	assert.Equal(t, 2, queue.Unreported)
	require.Len(t, queue.Classes, 2)

	first := queue.Classes[0]
	assert.Equal(t, "class-1", first.ClassID)
	assert.Equal(t, 1, first.ExplicitPending)
	assert.Equal(t, 1, first.Unreported)
	assert.Equal(t, 1, first.NoTeacherAlerts)
	require.Len(t, first.Occurrences, 2)
	assert.Equal(t, "slot-1", first.Occurrences[0].ScheduleSlotID)
	assert.Equal(t, "slot-2", first.Occurrences[1].ScheduleSlotID)

	assert.Equal(t, "class-2", queue.Classes[1].ClassID)
}

func TestBuildPendingQueueOrderInsensitive(t *testing.T) {
	views := []dto.OccurrenceView{
		pendingView("class-1", "X IPA 1", "slot-1", 1, models.EffectiveNotReported, false),
		pendingView("class-2", "X IPA 2", "slot-3", 2, models.EffectivePending, false),
		pendingView("class-1", "X IPA 1", "slot-2", 3, models.EffectivePending, true),
	}
	reversed := []dto.OccurrenceView{views[2], views[1], views[0]}

	assert.Equal(t, BuildPendingQueue(monday, views), BuildPendingQueue(monday, reversed))
}

func TestBuildPendingQueueEmpty(t *testing.T) {
	queue := BuildPendingQueue(monday, nil)

	assert.Equal(t, 0, queue.ExplicitPending)
	assert.Equal(t, 0, queue.Unreported)
	assert.NotNil(t, queue.Classes)
	assert.Empty(t, queue.Classes)
}

func TestComputeTrendDeltaEqualWeeksAllSteady(t *testing.T) {
	week := dto.WeeklyTotals{
		Counts:         dto.StatusCounts{Present: 20, Late: 3, Absent: 2, Substituted: 1, Pending: 4},
		AttendanceRate: 82.5,
	}

	delta := ComputeTrendDelta(week, week)

	for _, entry := range []dto.TrendEntry{delta.Present, delta.Late, delta.Absent, delta.Substituted, delta.OnLeave, delta.Pending, delta.NotReported} {
		assert.Equal(t, 0, entry.Delta)
		assert.Equal(t, dto.TrendSteady, entry.Direction)
	}
	assert.Zero(t, delta.AttendanceRate.Delta)
	assert.Equal(t, dto.TrendSteady, delta.AttendanceRate.Direction)
}

func TestComputeTrendDeltaPolarity(t *testing.T) {
	current := dto.WeeklyTotals{
		Counts:         dto.StatusCounts{Present: 22, Late: 5, Absent: 1, Substituted: 3},
		AttendanceRate: 90,
	}
	previous := dto.WeeklyTotals{
		Counts:         dto.StatusCounts{Present: 20, Late: 4, Absent: 2, Substituted: 0},
		AttendanceRate: 85,
	}

	delta := ComputeTrendDelta(current, previous)

	assert.Equal(t, dto.TrendImproving, delta.Present.Direction)
	assert.Equal(t, 2, delta.Present.Delta)
	assert.InDelta(t, 10, delta.Present.Percentage, 0.001)

	assert.Equal(t, dto.TrendDeclining, delta.Late.Direction)
	assert.Equal(t, dto.TrendImproving, delta.Absent.Direction)

	assert.Equal(t, dto.TrendDeclining, delta.Substituted.Direction)
	assert.InDelta(t, 100, delta.Substituted.Percentage, 0.001)

	assert.Equal(t, dto.TrendImproving, delta.AttendanceRate.Direction)
	assert.InDelta(t, 5, delta.AttendanceRate.Delta, 0.001)
}

func TestResolveDateSundayIsEmpty(t *testing.T) {
	agg := newTestAggregator(&fakeSlotLister{}, nil, nil)

	sunday := monday.AddDate(0, 0, -1)
	occurrences, err := agg.ResolveDate(context.Background(), sunday)

	require.NoError(t, err)
	assert.Nil(t, occurrences)
}

func TestResolveDateMergesRecordsAndLeaves(t *testing.T) {
	slot := mondaySlot()
	other := mondaySlot()
	other.ID = "slot-2"
	other.TeacherID = "teacher-2"
	other.Period = 2

	slots := &fakeSlotLister{slots: map[models.Weekday][]models.ScheduleSlot{models.Monday: {slot, other}}}
	records := &fakeRecordLister{records: map[string][]models.AttendanceRecord{
		"2026-03-02": {{ID: "rec-1", ScheduleSlotID: "slot-1", Status: models.AttendancePresent}},
	}}
	leaves := &fakeLeaveLister{leaves: []models.LeaveRequest{{
		TeacherID: "teacher-2",
		Status:    models.LeaveApproved,
		Reason:    models.LeaveReasonSick,
		StartDate: monday,
		EndDate:   monday,
	}}}

	agg := newTestAggregator(slots, records, leaves)
	agg.now = func() time.Time { return at("12:00") }

	occurrences, err := agg.ResolveDate(context.Background(), monday)
	require.NoError(t, err)
	require.Len(t, occurrences, 2)
	assert.Equal(t, models.EffectivePresent, occurrences[0].EffectiveStatus)
	assert.Equal(t, models.EffectiveOnLeave, occurrences[1].EffectiveStatus)
}

func TestResolveDateEarliestLeaveWins(t *testing.T) {
	slots := &fakeSlotLister{slots: map[models.Weekday][]models.ScheduleSlot{models.Monday: {mondaySlot()}}}
	// The repository returns approved leaves ordered by creation time;
	// the first row per teacher must stick.
	leaves := &fakeLeaveLister{leaves: []models.LeaveRequest{
		{ID: "leave-old", TeacherID: "teacher-1", Status: models.LeaveApproved, Reason: models.LeaveReasonSick, StartDate: monday, EndDate: monday, SubstituteTeacherID: strPtr("teacher-9")},
		{ID: "leave-new", TeacherID: "teacher-1", Status: models.LeaveApproved, Reason: models.LeaveReasonAnnual, StartDate: monday, EndDate: monday},
	}}

	agg := newTestAggregator(slots, nil, leaves)
	agg.now = func() time.Time { return at("08:30") }

	occurrences, err := agg.ResolveDate(context.Background(), monday)
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	require.NotNil(t, occurrences[0].LeaveReason)
	assert.Equal(t, "Sick", *occurrences[0].LeaveReason)
	require.NotNil(t, occurrences[0].SubstituteTeacherID)
	assert.Equal(t, "teacher-9", *occurrences[0].SubstituteTeacherID)
}

func TestWeeklyTotalsFutureDaysZeroed(t *testing.T) {
	slots := &fakeSlotLister{slots: map[models.Weekday][]models.ScheduleSlot{models.Monday: {mondaySlot()}}}
	records := &fakeRecordLister{records: map[string][]models.AttendanceRecord{
		"2026-03-02": {{ID: "rec-1", ScheduleSlotID: "slot-1", Status: models.AttendancePresent}},
	}}

	agg := newTestAggregator(slots, records, nil)
	wednesdayNoon := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return wednesdayNoon }

	totals, err := agg.WeeklyTotals(context.Background(), monday)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-02", totals.WeekStart)
	assert.Equal(t, "2026-03-07", totals.WeekEnd)
	require.Len(t, totals.Days, 6)
	assert.Equal(t, 3, totals.DaysElapsed)

	assert.Equal(t, "monday", totals.Days[0].Day)
	assert.Equal(t, 1, totals.Days[0].Counts.Present)
	assert.False(t, totals.Days[0].NotYetOccurred)

	for _, day := range totals.Days[3:] {
		assert.True(t, day.NotYetOccurred)
		assert.Equal(t, 0, day.Total)
		assert.Equal(t, dto.StatusCounts{}, day.Counts)
	}

	assert.Equal(t, 1, totals.Counts.Present)
	assert.Equal(t, 1, totals.Total)
}

func TestWeeklyTotalsNormalisesToMonday(t *testing.T) {
	agg := newTestAggregator(&fakeSlotLister{}, nil, nil)
	agg.now = func() time.Time { return monday }

	thursday := monday.AddDate(0, 0, 3)
	totals, err := agg.WeeklyTotals(context.Background(), thursday)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", totals.WeekStart)
}

func TestPendingQueueFlagsNoTeacherAlert(t *testing.T) {
	slots := &fakeSlotLister{slots: map[models.Weekday][]models.ScheduleSlot{models.Monday: {mondaySlot()}}}

	agg := newTestAggregator(slots, nil, nil)
	agg.now = func() time.Time { return at("08:20") }

	queue, err := agg.PendingQueue(context.Background(), monday)
	require.NoError(t, err)
	require.Len(t, queue.Classes, 1)
	assert.Equal(t, 1, queue.Classes[0].NoTeacherAlerts)
	assert.Equal(t, "X IPA 1", queue.Classes[0].ClassName)
	assert.True(t, queue.Classes[0].Occurrences[0].NoTeacherAlert)
}

func TestSubstitutionListCollectsAssignedSubstitutes(t *testing.T) {
	slots := &fakeSlotLister{slots: map[models.Weekday][]models.ScheduleSlot{models.Monday: {mondaySlot()}}}
	records := &fakeRecordLister{records: map[string][]models.AttendanceRecord{
		"2026-03-02": {{
			ID:                  "rec-1",
			ScheduleSlotID:      "slot-1",
			Status:              models.AttendanceSubstituted,
			SubstituteTeacherID: strPtr("teacher-9"),
		}},
	}}

	agg := newTestAggregator(slots, records, nil)
	agg.now = func() time.Time { return at("12:00") }

	entries, err := agg.SubstitutionList(context.Background(), monday, monday.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "teacher-9", entries[0].SubstituteTeacherID)
	assert.Equal(t, "Bu Sari", entries[0].SubstituteTeacherName)
	assert.Equal(t, "Pak Budi", entries[0].TeacherName)
}

func TestEnrichFallsBackToPlaceholders(t *testing.T) {
	slots := &fakeSlotLister{slots: map[models.Weekday][]models.ScheduleSlot{models.Monday: {mondaySlot()}}}
	agg := NewAggregator(slots, &fakeRecordLister{}, &fakeLeaveLister{}, &fakeDirectory{}, nil, AggregatorConfig{})
	agg.now = func() time.Time { return at("08:30") }

	occurrences, err := agg.ResolveDate(context.Background(), monday)
	require.NoError(t, err)
	views := agg.EnrichOccurrences(context.Background(), occurrences)

	require.Len(t, views, 1)
	assert.Equal(t, "Unknown Teacher", views[0].TeacherName)
	assert.Equal(t, "Unknown Class", views[0].ClassName)
	assert.Equal(t, "Unknown Subject", views[0].SubjectName)
}
