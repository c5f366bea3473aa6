package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	appErrors "github.com/noah-isme/sekolah-ops-api/pkg/errors"
)

type fakeAttendanceLedger struct {
	existing *models.AttendanceRecord
	upserted *models.AttendanceRecord
	rows     []models.AttendanceHistoryRow
	total    int
	filter   models.AttendanceFilter
}

func (f *fakeAttendanceLedger) FindBySlotAndDate(_ context.Context, _ string, _ time.Time) (*models.AttendanceRecord, error) {
	if f.existing == nil {
		return nil, sql.ErrNoRows
	}
	return f.existing, nil
}

func (f *fakeAttendanceLedger) Upsert(_ context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	f.upserted = record
	stored := *record
	stored.ID = "rec-1"
	return &stored, nil
}

func (f *fakeAttendanceLedger) List(_ context.Context, filter models.AttendanceFilter) ([]models.AttendanceHistoryRow, int, error) {
	f.filter = filter
	return f.rows, f.total, nil
}

type fakeSlotFinder struct {
	slot *models.ScheduleSlot
}

func (f *fakeSlotFinder) FindByID(_ context.Context, _ string) (*models.ScheduleSlot, error) {
	if f.slot == nil {
		return nil, sql.ErrNoRows
	}
	return f.slot, nil
}

func newAttendanceFixture(existing *models.AttendanceRecord) (*AttendanceService, *fakeAttendanceLedger) {
	slot := mondaySlot()
	ledger := &fakeAttendanceLedger{existing: existing}
	svc := NewAttendanceService(ledger, &fakeSlotFinder{slot: &slot}, nil, nil, nil)
	return svc, ledger
}

func TestSubmitCreatesPendingRecord(t *testing.T) {
	svc, ledger := newAttendanceFixture(nil)

	checkIn := "08:10"
	record, err := svc.Submit(context.Background(), SubmitAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-02",
		CheckInTime:    &checkIn,
		ReportedBy:     "student-1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.AttendancePending, record.Status)
	assert.Equal(t, "teacher-1", record.TeacherID)
	require.NotNil(t, ledger.upserted.CheckInTime)
	assert.Equal(t, "08:10", ledger.upserted.CheckInTime.String())
}

func TestSubmitOverwritesEarlierPendingReport(t *testing.T) {
	svc, ledger := newAttendanceFixture(&models.AttendanceRecord{Status: models.AttendancePending})

	_, err := svc.Submit(context.Background(), SubmitAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-02",
		ReportedBy:     "student-1",
	})

	require.NoError(t, err)
	require.NotNil(t, ledger.upserted)
}

func TestSubmitRejectedWhenAlreadyConfirmed(t *testing.T) {
	svc, ledger := newAttendanceFixture(&models.AttendanceRecord{Status: models.AttendancePresent})

	_, err := svc.Submit(context.Background(), SubmitAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-02",
		ReportedBy:     "student-1",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRecordConfirmed.Code, appErrors.FromError(err).Code)
	assert.Nil(t, ledger.upserted)
}

func TestSubmitRejectsWrongWeekday(t *testing.T) {
	svc, _ := newAttendanceFixture(nil)

	// 2026-03-03 is a Tuesday, the slot runs on Monday.
	_, err := svc.Submit(context.Background(), SubmitAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-03",
		ReportedBy:     "student-1",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitRejectsMalformedCheckIn(t *testing.T) {
	svc, _ := newAttendanceFixture(nil)

	bad := "8 o'clock"
	_, err := svc.Submit(context.Background(), SubmitAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-02",
		CheckInTime:    &bad,
		ReportedBy:     "student-1",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfirmRequiresTerminalStatus(t *testing.T) {
	svc, _ := newAttendanceFixture(nil)

	_, err := svc.Confirm(context.Background(), ConfirmAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-02",
		Status:         "pending",
		ConfirmedBy:    "staff-1",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfirmSubstitutedRequiresSubstitute(t *testing.T) {
	svc, _ := newAttendanceFixture(nil)

	_, err := svc.Confirm(context.Background(), ConfirmAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-02",
		Status:         "substituted",
		ConfirmedBy:    "staff-1",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfirmCarriesReportedCheckInForward(t *testing.T) {
	reported := models.MustTimeOfDay("08:07")
	svc, ledger := newAttendanceFixture(&models.AttendanceRecord{
		Status:      models.AttendancePending,
		CheckInTime: &reported,
	})

	record, err := svc.Confirm(context.Background(), ConfirmAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-02",
		Status:         "late",
		ConfirmedBy:    "staff-1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, record.Status)
	require.NotNil(t, ledger.upserted.CheckInTime)
	assert.Equal(t, "08:07", ledger.upserted.CheckInTime.String())
}

func TestConfirmPayloadCheckInOverridesReported(t *testing.T) {
	reported := models.MustTimeOfDay("08:07")
	svc, ledger := newAttendanceFixture(&models.AttendanceRecord{
		Status:      models.AttendancePending,
		CheckInTime: &reported,
	})

	corrected := "08:20"
	_, err := svc.Confirm(context.Background(), ConfirmAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-02",
		Status:         "late",
		CheckInTime:    &corrected,
		ConfirmedBy:    "staff-1",
	})

	require.NoError(t, err)
	require.NotNil(t, ledger.upserted.CheckInTime)
	assert.Equal(t, "08:20", ledger.upserted.CheckInTime.String())
}

func TestConfirmRevisionLastWriteWins(t *testing.T) {
	svc, ledger := newAttendanceFixture(&models.AttendanceRecord{Status: models.AttendanceAbsent})

	record, err := svc.Confirm(context.Background(), ConfirmAttendanceRequest{
		ScheduleSlotID: "slot-1",
		Date:           "2026-03-02",
		Status:         "present",
		ConfirmedBy:    "staff-1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)
	require.NotNil(t, ledger.upserted)
}

func TestAssignSubstituteRejectsScheduledTeacher(t *testing.T) {
	svc, _ := newAttendanceFixture(nil)

	_, err := svc.AssignSubstitute(context.Background(), AssignSubstituteRequest{
		ScheduleSlotID:      "slot-1",
		Date:                "2026-03-02",
		SubstituteTeacherID: "teacher-1",
		AssignedBy:          "staff-1",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignSubstituteStoresSubstitutedRecord(t *testing.T) {
	svc, ledger := newAttendanceFixture(nil)

	record, err := svc.AssignSubstitute(context.Background(), AssignSubstituteRequest{
		ScheduleSlotID:      "slot-1",
		Date:                "2026-03-02",
		SubstituteTeacherID: "teacher-9",
		AssignedBy:          "staff-1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.AttendanceSubstituted, record.Status)
	require.NotNil(t, ledger.upserted.SubstituteTeacherID)
	assert.Equal(t, "teacher-9", *ledger.upserted.SubstituteTeacherID)
	assert.Equal(t, "teacher-1", ledger.upserted.TeacherID)
}

func TestHistoryDefaultsPagination(t *testing.T) {
	svc, ledger := newAttendanceFixture(nil)
	ledger.total = 120

	_, pagination, err := svc.History(context.Background(), AttendanceHistoryRequest{})

	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 120, pagination.TotalCount)
	assert.Equal(t, 1, ledger.filter.Page)
	assert.Equal(t, 50, ledger.filter.PageSize)
}

func TestHistoryParsesDateRange(t *testing.T) {
	svc, ledger := newAttendanceFixture(nil)

	from := "2026-03-02"
	to := "2026-03-07"
	_, _, err := svc.History(context.Background(), AttendanceHistoryRequest{DateFrom: &from, DateTo: &to})

	require.NoError(t, err)
	require.NotNil(t, ledger.filter.DateFrom)
	require.NotNil(t, ledger.filter.DateTo)
	assert.Equal(t, "2026-03-02", ledger.filter.DateFrom.Format(dateLayout))
	assert.Equal(t, "2026-03-07", ledger.filter.DateTo.Format(dateLayout))
}
