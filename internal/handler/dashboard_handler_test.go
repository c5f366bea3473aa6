package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
)

type fakeDashboardSrv struct {
	curriculumResp *dto.CurriculumDashboardResponse
	curriculumErr  error
	curriculumHit  bool
	principalResp  *dto.PrincipalDashboardResponse
	principalErr   error
	principalHit   bool
	lastDate       time.Time
	lastWeek       time.Time
}

func (f *fakeDashboardSrv) Curriculum(_ context.Context, date time.Time) (*dto.CurriculumDashboardResponse, bool, error) {
	f.lastDate = date
	return f.curriculumResp, f.curriculumHit, f.curriculumErr
}

func (f *fakeDashboardSrv) Principal(_ context.Context, weekStart time.Time) (*dto.PrincipalDashboardResponse, bool, error) {
	f.lastWeek = weekStart
	return f.principalResp, f.principalHit, f.principalErr
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func TestDashboardHandlerCurriculumSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeDashboardSrv{
		curriculumResp: &dto.CurriculumDashboardResponse{Date: "2026-03-02", Day: "monday"},
		curriculumHit:  true,
	}
	handler := NewDashboardHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/curriculum?date=2026-03-02", nil)

	handler.Curriculum(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "2026-03-02", envelope.Data["date"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "2026-03-02", service.lastDate.Format("2006-01-02"))
}

func TestDashboardHandlerCurriculumDefaultsToToday(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeDashboardSrv{curriculumResp: &dto.CurriculumDashboardResponse{}}
	handler := NewDashboardHandler(service)
	today := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return today }

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/curriculum", nil)

	handler.Curriculum(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, today, service.lastDate)
}

func TestDashboardHandlerCurriculumInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/curriculum?date=yesterday", nil)

	handler.Curriculum(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerPrincipalSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeDashboardSrv{
		principalResp: &dto.PrincipalDashboardResponse{ThisWeek: dto.WeeklyTotals{WeekStart: "2026-03-02"}},
	}
	handler := NewDashboardHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/principal?week=2026-03-04", nil)

	handler.Principal(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
	assert.Equal(t, "2026-03-04", service.lastWeek.Format("2006-01-02"))
}
