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

type leaveRepository interface {
	Create(ctx context.Context, leave *models.LeaveRequest) (*models.LeaveRequest, error)
	FindByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	UpdateStatus(ctx context.Context, leave *models.LeaveRequest) (*models.LeaveRequest, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error)
	ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]models.LeaveRequest, error)
}

type teacherLister interface {
	ListTeachers(ctx context.Context) ([]models.User, error)
}

type daySlotLister interface {
	ListByDay(ctx context.Context, day models.Weekday) ([]models.ScheduleSlot, error)
}

// LeaveService manages teacher leave requests through their single
// pending -> approved/rejected transition.
type LeaveService struct {
	repo      leaveRepository
	teachers  teacherLister
	slots     daySlotLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLeaveService constructs the leave service.
func NewLeaveService(repo leaveRepository, teachers teacherLister, slots daySlotLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LeaveService{repo: repo, teachers: teachers, slots: slots, cache: cache, validator: validate, logger: logger, now: time.Now}
	svc.validator.RegisterValidation("leave_reason", func(fl validator.FieldLevel) bool {
		return models.LeaveReason(strings.ToLower(fl.Field().String())).Valid()
	})
	return svc
}

// CreateLeaveRequest is the submission payload.
type CreateLeaveRequest struct {
	TeacherID           string  `json:"teacher_id" validate:"required"`
	Reason              string  `json:"reason" validate:"required,leave_reason"`
	CustomReason        *string `json:"custom_reason"`
	StartDate           string  `json:"start_date" validate:"required"`
	EndDate             string  `json:"end_date" validate:"required"`
	SubstituteTeacherID *string `json:"substitute_teacher_id"`
	CreatedBy           string  `json:"-"`
}

// DecideLeaveRequest approves or rejects a pending request.
type DecideLeaveRequest struct {
	LeaveID             string  `json:"-"`
	Approve             bool    `json:"approve"`
	RejectionReason     *string `json:"rejection_reason"`
	SubstituteTeacherID *string `json:"substitute_teacher_id"`
	DecidedBy           string  `json:"-"`
}

// LeaveListRequest filters leave listings.
type LeaveListRequest struct {
	TeacherID string  `json:"teacher_id"`
	Status    *string `json:"status"`
	DateFrom  *string `json:"date_from"`
	DateTo    *string `json:"date_to"`
	Page      int     `json:"page"`
	PageSize  int     `json:"page_size"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

// Create submits a leave request in pending state.
func (s *LeaveService) Create(ctx context.Context, req CreateLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_date, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	reason := models.LeaveReason(strings.ToLower(req.Reason))
	if reason == models.LeaveReasonOther && (req.CustomReason == nil || strings.TrimSpace(*req.CustomReason) == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "custom_reason is required when reason is other")
	}

	leave := &models.LeaveRequest{
		TeacherID:           req.TeacherID,
		Reason:              reason,
		CustomReason:        req.CustomReason,
		StartDate:           models.DateOnly(start),
		EndDate:             models.DateOnly(end),
		Status:              models.LeavePending,
		SubstituteTeacherID: req.SubstituteTeacherID,
		CreatedBy:           req.CreatedBy,
	}
	stored, err := s.repo.Create(ctx, leave)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave request")
	}
	return stored, nil
}

// Decide approves or rejects a pending leave request. Finalized requests
// never transition again; a new request must be submitted instead.
func (s *LeaveService) Decide(ctx context.Context, req DecideLeaveRequest) (*models.LeaveRequest, error) {
	if req.LeaveID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "leave id is required")
	}
	leave, err := s.repo.FindByID(ctx, req.LeaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}
	if leave.Status != models.LeavePending {
		return nil, appErrors.Clone(appErrors.ErrLeaveFinalized, "leave request already "+string(leave.Status))
	}

	now := s.now()
	if req.Approve {
		leave.Status = models.LeaveApproved
		leave.ApprovedBy = &req.DecidedBy
		leave.ApprovedAt = &now
		if req.SubstituteTeacherID != nil && *req.SubstituteTeacherID != "" {
			leave.SubstituteTeacherID = req.SubstituteTeacherID
		}
	} else {
		if req.RejectionReason == nil || strings.TrimSpace(*req.RejectionReason) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "rejection_reason is required")
		}
		leave.Status = models.LeaveRejected
		leave.RejectionReason = req.RejectionReason
	}

	stored, err := s.repo.UpdateStatus(ctx, leave)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave request")
	}
	if req.Approve {
		// Approval flips on_leave statuses for every covered occurrence.
		s.invalidateDashboards(ctx)
	}
	return stored, nil
}

// List returns paginated leave requests.
func (s *LeaveService) List(ctx context.Context, req LeaveListRequest) ([]models.LeaveRequest, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.LeaveFilter{
		TeacherID: req.TeacherID,
		Page:      page,
		PageSize:  size,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Status != nil {
		status := models.LeaveStatus(strings.ToLower(*req.Status))
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid leave status filter")
		}
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
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// AvailableSubstitutes lists teachers free to cover a slot on a date:
// active teachers with no schedule colliding with the slot's time and no
// approved leave covering the date.
func (s *LeaveService) AvailableSubstitutes(ctx context.Context, slot models.ScheduleSlot, date time.Time) ([]models.User, error) {
	teachers, err := s.teachers.ListTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	daySlots, err := s.slots.ListByDay(ctx, slot.DayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
	}
	day := models.DateOnly(date)
	leaves, err := s.repo.ListApprovedOverlapping(ctx, day, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved leaves")
	}

	busy := make(map[string]bool)
	for _, other := range daySlots {
		if other.ID == slot.ID {
			continue
		}
		if other.StartTime < slot.EndTime && slot.StartTime < other.EndTime {
			busy[other.TeacherID] = true
		}
	}
	onLeave := make(map[string]bool)
	for _, leave := range leaves {
		if leave.Covers(day) {
			onLeave[leave.TeacherID] = true
		}
	}

	available := make([]models.User, 0, len(teachers))
	for _, teacher := range teachers {
		if !teacher.Active || teacher.ID == slot.TeacherID {
			continue
		}
		if busy[teacher.ID] || onLeave[teacher.ID] {
			continue
		}
		available = append(available, teacher)
	}
	return available, nil
}

func (s *LeaveService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard invalidation failed", zap.Error(err))
	}
}
