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

type leaveService interface {
	Create(ctx context.Context, req service.CreateLeaveRequest) (*models.LeaveRequest, error)
	Decide(ctx context.Context, req service.DecideLeaveRequest) (*models.LeaveRequest, error)
	List(ctx context.Context, req service.LeaveListRequest) ([]models.LeaveRequest, *models.Pagination, error)
	AvailableSubstitutes(ctx context.Context, slot models.ScheduleSlot, date time.Time) ([]models.User, error)
}

type leaveSlotFinder interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error)
}

// LeaveHandler exposes leave management over HTTP.
type LeaveHandler struct {
	service leaveService
	slots   leaveSlotFinder
}

// NewLeaveHandler constructs the handler.
func NewLeaveHandler(service leaveService, slots leaveSlotFinder) *LeaveHandler {
	return &LeaveHandler{service: service, slots: slots}
}

// Create godoc
// @Summary Submit a leave request
// @Tags Leaves
// @Accept json
// @Produce json
// @Param payload body service.CreateLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Create(c *gin.Context) {
	var req service.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	claims := claimsFromContext(c)
	if claims != nil {
		req.CreatedBy = claims.UserID
		// Teachers file leave for themselves; staff may file on behalf.
		if claims.Role == models.RoleTeacher {
			req.TeacherID = claims.UserID
		}
	}
	leave, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// Decide godoc
// @Summary Approve or reject a pending leave request
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave request ID"
// @Param payload body service.DecideLeaveRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id}/decision [post]
func (h *LeaveHandler) Decide(c *gin.Context) {
	var req service.DecideLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	req.LeaveID = c.Param("id")
	if claims := claimsFromContext(c); claims != nil {
		req.DecidedBy = claims.UserID
	}
	leave, err := h.service.Decide(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// List godoc
// @Summary List leave requests
// @Tags Leaves
// @Produce json
// @Param teacher_id query string false "Teacher ID"
// @Param status query string false "Leave status"
// @Success 200 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) List(c *gin.Context) {
	req := service.LeaveListRequest{
		TeacherID: strings.TrimSpace(c.Query("teacher_id")),
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

	claims := claimsFromContext(c)
	if claims != nil && claims.Role == models.RoleTeacher {
		// Teachers only see their own requests.
		req.TeacherID = claims.UserID
	}

	leaves, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, pagination)
}

// AvailableSubstitutes godoc
// @Summary List teachers free to cover a slot on a date
// @Tags Leaves
// @Produce json
// @Param slotId path string true "Schedule slot ID"
// @Param date query string true "Occurrence date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /leaves/substitutes/{slotId} [get]
func (h *LeaveHandler) AvailableSubstitutes(c *gin.Context) {
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
	slot, err := h.slots.FindByID(c.Request.Context(), c.Param("slotId"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found"))
		return
	}
	teachers, err := h.service.AvailableSubstitutes(c.Request.Context(), *slot, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}
