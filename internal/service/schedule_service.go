package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	appErrors "github.com/noah-isme/sekolah-ops-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleSlotFilter) ([]models.ScheduleSlot, int, error)
	ListByDay(ctx context.Context, day models.Weekday) ([]models.ScheduleSlot, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
	FindConflict(ctx context.Context, classID string, day models.Weekday, start models.TimeOfDay, excludeID string) (*models.ScheduleSlot, error)
	Create(ctx context.Context, slot *models.ScheduleSlot) error
	Update(ctx context.Context, slot *models.ScheduleSlot) error
	Delete(ctx context.Context, id string) error
}

// CreateScheduleSlotRequest describes payload for creating a slot.
type CreateScheduleSlotRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	DayOfWeek string `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Period    int    `json:"period" validate:"required,min=1"`
}

// UpdateScheduleSlotRequest updates an existing slot.
type UpdateScheduleSlotRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	DayOfWeek string `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Period    int    `json:"period" validate:"required,min=1"`
}

// ScheduleListRequest filters slot listings.
type ScheduleListRequest struct {
	ClassID   string `json:"class_id"`
	TeacherID string `json:"teacher_id"`
	DayOfWeek string `json:"day_of_week"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// ScheduleService manages the weekly schedule grid.
type ScheduleService struct {
	repo      scheduleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(repo scheduleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated schedule slots.
func (s *ScheduleService) List(ctx context.Context, req ScheduleListRequest) ([]models.ScheduleSlot, *models.Pagination, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.ScheduleSlotFilter{ClassID: req.ClassID, TeacherID: req.TeacherID, Page: page, PageSize: size}
	if req.DayOfWeek != "" {
		day, err := models.ParseWeekday(req.DayOfWeek)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid day_of_week")
		}
		filter.DayOfWeek = &day
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// Get returns one slot by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slot")
	}
	return slot, nil
}

// Create inserts a slot after checking the (class, day, start) cell is free.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleSlotRequest) (*models.ScheduleSlot, error) {
	slot, err := s.buildSlot(req.ClassID, req.SubjectID, req.TeacherID, req.DayOfWeek, req.StartTime, req.EndTime, req.Period, &req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCellFree(ctx, slot, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule slot")
	}
	s.invalidateDashboards(ctx)
	return slot, nil
}

// Update replaces a slot's fields, re-running the conflict check against
// every other slot.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleSlotRequest) (*models.ScheduleSlot, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	slot, err := s.buildSlot(req.ClassID, req.SubjectID, req.TeacherID, req.DayOfWeek, req.StartTime, req.EndTime, req.Period, &req)
	if err != nil {
		return nil, err
	}
	slot.ID = existing.ID
	slot.CreatedAt = existing.CreatedAt
	if err := s.ensureCellFree(ctx, slot, slot.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule slot")
	}
	s.invalidateDashboards(ctx)
	return slot, nil
}

// Delete removes a slot.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule slot")
	}
	s.invalidateDashboards(ctx)
	return nil
}

func (s *ScheduleService) buildSlot(classID, subjectID, teacherID, rawDay, rawStart, rawEnd string, period int, payload interface{}) (*models.ScheduleSlot, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	day, err := models.ParseWeekday(rawDay)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid day_of_week")
	}
	start, err := models.ParseTimeOfDay(rawStart)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_time, expected HH:MM")
	}
	end, err := models.ParseTimeOfDay(rawEnd)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_time, expected HH:MM")
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	return &models.ScheduleSlot{
		ClassID:   strings.TrimSpace(classID),
		SubjectID: strings.TrimSpace(subjectID),
		TeacherID: strings.TrimSpace(teacherID),
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		Period:    period,
	}, nil
}

func (s *ScheduleService) ensureCellFree(ctx context.Context, slot *models.ScheduleSlot, excludeID string) error {
	conflict, err := s.repo.FindConflict(ctx, slot.ClassID, slot.DayOfWeek, slot.StartTime, excludeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}
	if conflict == nil {
		return nil
	}
	detail := &models.ScheduleConflictError{
		Message: fmt.Sprintf("class %s already has a slot on %s at %s", slot.ClassID, slot.DayOfWeek, slot.StartTime),
		Conflict: models.ScheduleConflict{
			SlotID:    conflict.ID,
			ClassID:   conflict.ClassID,
			DayOfWeek: conflict.DayOfWeek,
			StartTime: conflict.StartTime,
			TeacherID: conflict.TeacherID,
		},
	}
	return appErrors.Wrap(detail, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, detail.Message)
}

func (s *ScheduleService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard invalidation failed", zap.Error(err))
	}
}
