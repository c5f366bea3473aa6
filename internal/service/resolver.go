package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	appErrors "github.com/noah-isme/sekolah-ops-api/pkg/errors"
)

type approvedLeaveFinder interface {
	FindApprovedForDate(ctx context.Context, teacherID string, date time.Time) (*models.LeaveRequest, error)
}

type attendanceRecordFinder interface {
	FindBySlotAndDate(ctx context.Context, slotID string, date time.Time) (*models.AttendanceRecord, error)
}

// Resolver computes the effective attendance status of a schedule-slot
// occurrence by merging the attendance ledger, the leave registry and the
// absence of both. It holds no state beyond its data accessors and the
// injected clock.
type Resolver struct {
	leaves  approvedLeaveFinder
	records attendanceRecordFinder
	logger  *zap.Logger
	now     func() time.Time
}

// NewResolver constructs a Resolver.
func NewResolver(leaves approvedLeaveFinder, records attendanceRecordFinder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{leaves: leaves, records: records, logger: logger, now: time.Now}
}

// ResolveOccurrence fetches the slot's attendance record and any approved
// leave for the target date and resolves them into one occurrence. The
// slot's weekday must match the date; resolving a mismatched pair is a
// caller bug, not a data condition.
func (r *Resolver) ResolveOccurrence(ctx context.Context, slot models.ScheduleSlot, date time.Time) (models.ResolvedOccurrence, error) {
	if day, ok := models.WeekdayOf(date); !ok || day != slot.DayOfWeek {
		return models.ResolvedOccurrence{}, appErrors.Clone(appErrors.ErrValidation, "schedule slot weekday does not match target date")
	}

	record, err := r.records.FindBySlotAndDate(ctx, slot.ID, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.ResolvedOccurrence{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch attendance record")
	}

	var leave *models.LeaveRequest
	if record == nil {
		leave, err = r.leaves.FindApprovedForDate(ctx, slot.TeacherID, date)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return models.ResolvedOccurrence{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch leave")
		}
	}

	return Resolve(slot, date, r.now(), record, leave), nil
}

// resolution is the outcome a rule produces when it claims an occurrence.
type resolution struct {
	status      models.EffectiveStatus
	substitute  *string
	leaveReason *string
}

// resolutionRule inspects the merged inputs and either claims the
// occurrence or passes. Rules run in priority order; the first claim wins.
type resolutionRule func(in resolutionInput) (resolution, bool)

type resolutionInput struct {
	slot        models.ScheduleSlot
	date        time.Time
	now         time.Time
	record      *models.AttendanceRecord
	leave       *models.LeaveRequest
	periodEnded bool
}

// resolutionRules orders the merge: a confirmed or in-flight attendance
// record is ground truth and beats leave data; an approved leave beats
// silence; silence splits on whether the period already ended.
var resolutionRules = []resolutionRule{
	ruleExplicitRecord,
	ruleApprovedLeave,
	ruleReportWindow,
}

func ruleExplicitRecord(in resolutionInput) (resolution, bool) {
	if in.record == nil {
		return resolution{}, false
	}
	res := resolution{status: models.EffectiveStatus(in.record.Status)}
	if in.record.Status == models.AttendanceSubstituted {
		// Curriculum staff can point at a different substitute than the
		// leave row names; the record's own field is authoritative.
		switch {
		case in.record.SubstituteTeacherID != nil:
			res.substitute = in.record.SubstituteTeacherID
		case in.record.OriginalTeacherID != nil:
			// Legacy rows store the stand-in under teacher_id with the
			// original teacher moved aside.
			teacherID := in.record.TeacherID
			res.substitute = &teacherID
		}
	}
	return res, true
}

func ruleApprovedLeave(in resolutionInput) (resolution, bool) {
	if in.leave == nil || in.leave.Status != models.LeaveApproved || !in.leave.Covers(in.date) {
		return resolution{}, false
	}
	reason := in.leave.ReasonText()
	// An unassigned substitute is a reportable state, not an error.
	return resolution{
		status:      models.EffectiveOnLeave,
		substitute:  in.leave.SubstituteTeacherID,
		leaveReason: &reason,
	}, true
}

func ruleReportWindow(in resolutionInput) (resolution, bool) {
	if in.periodEnded {
		return resolution{status: models.EffectiveNotReported}, true
	}
	return resolution{status: models.EffectivePending}, true
}

// Resolve merges one slot occurrence with its (possibly absent) attendance
// record and approved leave into the effective status. Pure: no lookups,
// no side effects; "now" classifies the occurrence as past, current or
// future. The end-time boundary counts as past.
func Resolve(slot models.ScheduleSlot, date time.Time, now time.Time, record *models.AttendanceRecord, leave *models.LeaveRequest) models.ResolvedOccurrence {
	start := slot.StartTime.At(date)
	end := slot.EndTime.At(date)
	isPast := !now.Before(end)
	isCurrent := !now.Before(start) && now.Before(end)

	in := resolutionInput{
		slot:        slot,
		date:        models.DateOnly(date),
		now:         now,
		record:      record,
		leave:       leave,
		periodEnded: isPast,
	}

	var res resolution
	for _, rule := range resolutionRules {
		if outcome, ok := rule(in); ok {
			res = outcome
			break
		}
	}

	occ := models.ResolvedOccurrence{
		ScheduleSlotID:      slot.ID,
		Date:                models.DateOnly(date),
		EffectiveStatus:     res.status,
		TeacherID:           slot.TeacherID,
		SubstituteTeacherID: res.substitute,
		ClassID:             slot.ClassID,
		SubjectID:           slot.SubjectID,
		Period:              slot.Period,
		StartTime:           slot.StartTime,
		EndTime:             slot.EndTime,
		LeaveReason:         res.leaveReason,
		IsPastPeriod:        isPast,
		IsCurrentPeriod:     isCurrent,
		HasExplicitRecord:   record != nil,
	}

	if record != nil {
		recordID := record.ID
		occ.AttendanceRecordID = &recordID
		occ.Note = record.Note
		occ.CheckInTime = record.CheckInTime
		if record.Status == models.AttendanceLate && record.CheckInTime != nil {
			occ.LateMinutes = lateMinutes(slot.StartTime, *record.CheckInTime)
		}
	}

	return occ
}

func lateMinutes(start, checkIn models.TimeOfDay) *int {
	if checkIn <= start {
		return nil
	}
	minutes := int(checkIn-start) / 60
	return &minutes
}
