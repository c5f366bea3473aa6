package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/service"
	appErrors "github.com/noah-isme/sekolah-ops-api/pkg/errors"
	"github.com/noah-isme/sekolah-ops-api/pkg/response"
)

type attendanceService interface {
	Submit(ctx context.Context, req service.SubmitAttendanceRequest) (*models.AttendanceRecord, error)
	Confirm(ctx context.Context, req service.ConfirmAttendanceRequest) (*models.AttendanceRecord, error)
	AssignSubstitute(ctx context.Context, req service.AssignSubstituteRequest) (*models.AttendanceRecord, error)
	History(ctx context.Context, req service.AttendanceHistoryRequest) ([]models.AttendanceHistoryRow, *models.Pagination, error)
}

type occurrenceResolver interface {
	ResolveOccurrence(ctx context.Context, slot models.ScheduleSlot, date time.Time) (models.ResolvedOccurrence, error)
}

type resolverSlotFinder interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
}

// AttendanceHandler exposes the attendance workflow over HTTP.
type AttendanceHandler struct {
	service  attendanceService
	resolver occurrenceResolver
	slots    resolverSlotFinder
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService, resolver occurrenceResolver, slots resolverSlotFinder) *AttendanceHandler {
	return &AttendanceHandler{service: service, resolver: resolver, slots: slots}
}

// Submit godoc
// @Summary Submit a raw attendance report
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.SubmitAttendanceRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Router /attendance/reports [post]
func (h *AttendanceHandler) Submit(c *gin.Context) {
	var req service.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.ReportedBy = claims.UserID
	}
	record, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Confirm godoc
// @Summary Confirm an occurrence with a terminal status
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.ConfirmAttendanceRequest true "Confirmation payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/confirmations [post]
func (h *AttendanceHandler) Confirm(c *gin.Context) {
	var req service.ConfirmAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.ConfirmedBy = claims.UserID
	}
	record, err := h.service.Confirm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// AssignSubstitute godoc
// @Summary Assign a substitute teacher to an occurrence
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.AssignSubstituteRequest true "Substitute payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/substitutes [post]
func (h *AttendanceHandler) AssignSubstitute(c *gin.Context) {
	var req service.AssignSubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.AssignedBy = claims.UserID
	}
	record, err := h.service.AssignSubstitute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// History godoc
// @Summary List attendance records with schedule metadata
// @Tags Attendance
// @Produce json
// @Param teacher_id query string false "Teacher ID"
// @Param class_id query string false "Class ID"
// @Param status query string false "Attendance status"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	req := service.AttendanceHistoryRequest{
		TeacherID: strings.TrimSpace(c.Query("teacher_id")),
		ClassID:   strings.TrimSpace(c.Query("class_id")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		req.Status = &status
	}
	if from := strings.TrimSpace(c.Query("date_from")); from != "" {
		req.DateFrom = &from
	}
	if to := strings.TrimSpace(c.Query("date_to")); to != "" {
		req.DateTo = &to
	}
	req.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	req.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	rows, pagination, err := h.service.History(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Resolve godoc
// @Summary Resolve the effective status of one schedule occurrence
// @Tags Attendance
// @Produce json
// @Param slotId path string true "Schedule slot ID"
// @Param date query string true "Occurrence date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/occurrences/{slotId} [get]
func (h *AttendanceHandler) Resolve(c *gin.Context) {
	slotID := c.Param("slotId")
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	slot, err := h.slots.FindByID(c.Request.Context(), slotID)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found"))
		return
	}
	occurrence, err := h.resolver.ResolveOccurrence(c.Request.Context(), *slot, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occurrence, nil)
}
