package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/middleware"
	appErrors "github.com/noah-isme/sekolah-ops-api/pkg/errors"
	"github.com/noah-isme/sekolah-ops-api/pkg/response"
)

type dashboardService interface {
	Curriculum(ctx context.Context, date time.Time) (*dto.CurriculumDashboardResponse, bool, error)
	Principal(ctx context.Context, weekStart time.Time) (*dto.PrincipalDashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
	now     func() time.Time
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service, now: time.Now}
}

// Curriculum godoc
// @Summary Curriculum daily dashboard
// @Tags Dashboard
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /dashboard/curriculum [get]
func (h *DashboardHandler) Curriculum(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	date, err := h.parseDateParam(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, cacheHit, err := h.service.Curriculum(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, payload, nil, middleware.ExtractMeta(c))
}

// Principal godoc
// @Summary Principal weekly dashboard
// @Tags Dashboard
// @Produce json
// @Param week query string false "Any date inside the week (YYYY-MM-DD). Defaults to this week"
// @Success 200 {object} response.Envelope
// @Router /dashboard/principal [get]
func (h *DashboardHandler) Principal(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	week, err := h.parseDateParam(c, "week")
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, cacheHit, err := h.service.Principal(c.Request.Context(), week)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, payload, nil, middleware.ExtractMeta(c))
}

func (h *DashboardHandler) parseDateParam(c *gin.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return h.now(), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, name+" must be YYYY-MM-DD")
	}
	return date, nil
}
