package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	appErrors "github.com/noah-isme/sekolah-ops-api/pkg/errors"
)

type attendanceLedger interface {
	FindBySlotAndDate(ctx context.Context, slotID string, date time.Time) (*models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceHistoryRow, int, error)
}

type slotFinder interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
}

// AttendanceService coordinates the report-then-confirm attendance
// workflow. Class officers submit raw reports that land as pending
// records; curriculum staff confirm them into terminal statuses.
type AttendanceService struct {
	ledger    attendanceLedger
	slots     slotFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(ledger attendanceLedger, slots slotFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{ledger: ledger, slots: slots, cache: cache, validator: validate, logger: logger, now: time.Now}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	return svc
}

// SubmitAttendanceRequest is the class officer's raw report for one
// schedule occurrence.
type SubmitAttendanceRequest struct {
	ScheduleSlotID string  `json:"schedule_slot_id" validate:"required"`
	Date           string  `json:"date" validate:"required"`
	CheckInTime    *string `json:"check_in_time"`
	Note           *string `json:"note"`
	ReportedBy     string  `json:"-"`
}

// ConfirmAttendanceRequest finalises an occurrence with a terminal status.
type ConfirmAttendanceRequest struct {
	ScheduleSlotID      string  `json:"schedule_slot_id" validate:"required"`
	Date                string  `json:"date" validate:"required"`
	Status              string  `json:"status" validate:"required,attendance_status"`
	CheckInTime         *string `json:"check_in_time"`
	SubstituteTeacherID *string `json:"substitute_teacher_id"`
	Note                *string `json:"note"`
	ConfirmedBy         string  `json:"-"`
}

// AssignSubstituteRequest puts a stand-in teacher on one occurrence.
type AssignSubstituteRequest struct {
	ScheduleSlotID      string  `json:"schedule_slot_id" validate:"required"`
	Date                string  `json:"date" validate:"required"`
	SubstituteTeacherID string  `json:"substitute_teacher_id" validate:"required"`
	Note                *string `json:"note"`
	AssignedBy          string  `json:"-"`
}

// AttendanceHistoryRequest filters the review listing.
type AttendanceHistoryRequest struct {
	TeacherID string  `json:"teacher_id"`
	ClassID   string  `json:"class_id"`
	Status    *string `json:"status" validate:"omitempty,attendance_status"`
	DateFrom  *string `json:"date_from"`
	DateTo    *string `json:"date_to"`
	Page      int     `json:"page"`
	PageSize  int     `json:"page_size"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

// Submit records a raw report as a pending record. Reports against an
// occurrence that curriculum already confirmed are rejected; a repeated
// report before confirmation overwrites the earlier one.
func (s *AttendanceService) Submit(ctx context.Context, req SubmitAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	slot, date, err := s.loadOccurrence(ctx, req.ScheduleSlotID, req.Date)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnconfirmed(ctx, slot.ID, date); err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		ScheduleSlotID: slot.ID,
		TeacherID:      slot.TeacherID,
		Date:           date,
		Status:         models.AttendancePending,
		Note:           req.Note,
		CreatedBy:      req.ReportedBy,
	}
	if req.CheckInTime != nil {
		checkIn, err := models.ParseTimeOfDay(*req.CheckInTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid check-in time, expected HH:MM")
		}
		record.CheckInTime = &checkIn
	}
	stored, err := s.ledger.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit attendance report")
	}
	s.invalidateDashboards(ctx)
	return stored, nil
}

// Confirm finalises one occurrence. The last confirmed write wins when
// curriculum revises a decision.
func (s *AttendanceService) Confirm(ctx context.Context, req ConfirmAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	status := models.AttendanceStatus(strings.ToLower(req.Status))
	if !status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "confirmation status must be terminal")
	}
	if status == models.AttendanceSubstituted && (req.SubstituteTeacherID == nil || *req.SubstituteTeacherID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "substituted status requires a substitute teacher")
	}
	slot, date, err := s.loadOccurrence(ctx, req.ScheduleSlotID, req.Date)
	if err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		ScheduleSlotID:      slot.ID,
		TeacherID:           slot.TeacherID,
		SubstituteTeacherID: req.SubstituteTeacherID,
		Date:                date,
		Status:              status,
		Note:                req.Note,
		CreatedBy:           req.ConfirmedBy,
	}
	if req.CheckInTime != nil {
		checkIn, err := models.ParseTimeOfDay(*req.CheckInTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid check-in time, expected HH:MM")
		}
		record.CheckInTime = &checkIn
	} else if existing, err := s.findExisting(ctx, slot.ID, date); err != nil {
		return nil, err
	} else if existing != nil {
		// Carry the reported check-in through confirmation so late
		// minutes survive.
		record.CheckInTime = existing.CheckInTime
	}
	stored, err := s.ledger.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm attendance")
	}
	s.invalidateDashboards(ctx)
	return stored, nil
}

// AssignSubstitute records a stand-in for one occurrence as a confirmed
// substituted record.
func (s *AttendanceService) AssignSubstitute(ctx context.Context, req AssignSubstituteRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	slot, date, err := s.loadOccurrence(ctx, req.ScheduleSlotID, req.Date)
	if err != nil {
		return nil, err
	}
	if req.SubstituteTeacherID == slot.TeacherID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "substitute must differ from the scheduled teacher")
	}

	substitute := req.SubstituteTeacherID
	record := &models.AttendanceRecord{
		ScheduleSlotID:      slot.ID,
		TeacherID:           slot.TeacherID,
		SubstituteTeacherID: &substitute,
		Date:                date,
		Status:              models.AttendanceSubstituted,
		Note:                req.Note,
		CreatedBy:           req.AssignedBy,
	}
	stored, err := s.ledger.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign substitute")
	}
	s.invalidateDashboards(ctx)
	return stored, nil
}

// History returns paginated attendance records with schedule metadata.
func (s *AttendanceService) History(ctx context.Context, req AttendanceHistoryRequest) ([]models.AttendanceHistoryRow, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter")
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.AttendanceFilter{
		TeacherID: req.TeacherID,
		ClassID:   req.ClassID,
		Page:      page,
		PageSize:  size,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Status != nil {
		status := models.AttendanceStatus(strings.ToLower(*req.Status))
		filter.Status = &status
	}
	if req.DateFrom != nil {
		from, err := time.Parse(dateLayout, *req.DateFrom)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_from, expected YYYY-MM-DD")
		}
		filter.DateFrom = &from
	}
	if req.DateTo != nil {
		to, err := time.Parse(dateLayout, *req.DateTo)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_to, expected YYYY-MM-DD")
		}
		filter.DateTo = &to
	}
	rows, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance history")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// loadOccurrence validates the slot exists and the date falls on its day.
func (s *AttendanceService) loadOccurrence(ctx context.Context, slotID, rawDate string) (*models.ScheduleSlot, time.Time, error) {
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return nil, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return nil, time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slot")
	}
	day, ok := models.WeekdayOf(date)
	if !ok || day != slot.DayOfWeek {
		return nil, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date does not fall on the slot's day of week")
	}
	return slot, models.DateOnly(date), nil
}

func (s *AttendanceService) findExisting(ctx context.Context, slotID string, date time.Time) (*models.AttendanceRecord, error) {
	existing, err := s.ledger.FindBySlotAndDate(ctx, slotID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	return existing, nil
}

func (s *AttendanceService) ensureUnconfirmed(ctx context.Context, slotID string, date time.Time) error {
	existing, err := s.findExisting(ctx, slotID, date)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status.Terminal() {
		return appErrors.Clone(appErrors.ErrRecordConfirmed, "occurrence already confirmed, contact curriculum staff")
	}
	return nil
}

func (s *AttendanceService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard invalidation failed", zap.Error(err))
	}
}
