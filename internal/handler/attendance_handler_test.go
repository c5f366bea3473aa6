package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sekolah-ops-api/internal/middleware"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/service"
)

type fakeAttendanceSrv struct {
	submitted   *service.SubmitAttendanceRequest
	confirmed   *service.ConfirmAttendanceRequest
	assigned    *service.AssignSubstituteRequest
	historyReq  *service.AttendanceHistoryRequest
	record      *models.AttendanceRecord
	historyRows []models.AttendanceHistoryRow
	pagination  *models.Pagination
	err         error
}

func (f *fakeAttendanceSrv) Submit(_ context.Context, req service.SubmitAttendanceRequest) (*models.AttendanceRecord, error) {
	f.submitted = &req
	return f.record, f.err
}

func (f *fakeAttendanceSrv) Confirm(_ context.Context, req service.ConfirmAttendanceRequest) (*models.AttendanceRecord, error) {
	f.confirmed = &req
	return f.record, f.err
}

func (f *fakeAttendanceSrv) AssignSubstitute(_ context.Context, req service.AssignSubstituteRequest) (*models.AttendanceRecord, error) {
	f.assigned = &req
	return f.record, f.err
}

func (f *fakeAttendanceSrv) History(_ context.Context, req service.AttendanceHistoryRequest) ([]models.AttendanceHistoryRow, *models.Pagination, error) {
	f.historyReq = &req
	return f.historyRows, f.pagination, f.err
}

type fakeOccurrenceResolver struct {
	occurrence models.ResolvedOccurrence
	err        error
	lastDate   time.Time
}

func (f *fakeOccurrenceResolver) ResolveOccurrence(_ context.Context, _ models.ScheduleSlot, date time.Time) (models.ResolvedOccurrence, error) {
	f.lastDate = date
	return f.occurrence, f.err
}

type fakeSlotGetter struct {
	slot *models.ScheduleSlot
	err  error
}

func (f *fakeSlotGetter) FindByID(_ context.Context, _ string) (*models.ScheduleSlot, error) {
	return f.slot, f.err
}

func attendanceTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	if body != "" {
		c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, target, nil)
	}
	return c, rec
}

func TestAttendanceHandlerSubmitCreated(t *testing.T) {
	srv := &fakeAttendanceSrv{record: &models.AttendanceRecord{ID: "rec-1", Status: models.AttendancePending}}
	handler := NewAttendanceHandler(srv, &fakeOccurrenceResolver{}, &fakeSlotGetter{})

	body := `{"schedule_slot_id":"slot-1","date":"2026-03-02","check_in_time":"08:05"}`
	c, rec := attendanceTestContext(http.MethodPost, "/attendance/reports", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1"})

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotNil(t, srv.submitted)
	assert.Equal(t, "slot-1", srv.submitted.ScheduleSlotID)
	assert.Equal(t, "teacher-1", srv.submitted.ReportedBy)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "rec-1", envelope.Data["id"])
}

func TestAttendanceHandlerSubmitInvalidBody(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	handler := NewAttendanceHandler(srv, &fakeOccurrenceResolver{}, &fakeSlotGetter{})

	c, rec := attendanceTestContext(http.MethodPost, "/attendance/reports", `{"schedule_slot_id":`)

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, srv.submitted)
}

func TestAttendanceHandlerConfirmStampsUser(t *testing.T) {
	srv := &fakeAttendanceSrv{record: &models.AttendanceRecord{ID: "rec-1", Status: models.AttendancePresent}}
	handler := NewAttendanceHandler(srv, &fakeOccurrenceResolver{}, &fakeSlotGetter{})

	body := `{"schedule_slot_id":"slot-1","date":"2026-03-02","status":"present"}`
	c, rec := attendanceTestContext(http.MethodPost, "/attendance/confirmations", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "curriculum-1"})

	handler.Confirm(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, srv.confirmed)
	assert.Equal(t, "curriculum-1", srv.confirmed.ConfirmedBy)
	assert.Equal(t, "present", srv.confirmed.Status)
}

func TestAttendanceHandlerAssignSubstitute(t *testing.T) {
	srv := &fakeAttendanceSrv{record: &models.AttendanceRecord{ID: "rec-1", Status: models.AttendanceSubstituted}}
	handler := NewAttendanceHandler(srv, &fakeOccurrenceResolver{}, &fakeSlotGetter{})

	body := `{"schedule_slot_id":"slot-1","date":"2026-03-02","substitute_teacher_id":"teacher-9"}`
	c, rec := attendanceTestContext(http.MethodPost, "/attendance/substitutes", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "curriculum-1"})

	handler.AssignSubstitute(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, srv.assigned)
	assert.Equal(t, "teacher-9", srv.assigned.SubstituteTeacherID)
	assert.Equal(t, "curriculum-1", srv.assigned.AssignedBy)
}

func TestAttendanceHandlerHistoryParamParsing(t *testing.T) {
	srv := &fakeAttendanceSrv{pagination: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 35}}
	handler := NewAttendanceHandler(srv, &fakeOccurrenceResolver{}, &fakeSlotGetter{})

	target := "/attendance/history?teacher_id=teacher-1&status=late&date_from=2026-03-01&page=2&page_size=10"
	c, rec := attendanceTestContext(http.MethodGet, target, "")

	handler.History(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, srv.historyReq)
	assert.Equal(t, "teacher-1", srv.historyReq.TeacherID)
	assert.NotNil(t, srv.historyReq.Status)
	assert.Equal(t, "late", *srv.historyReq.Status)
	assert.Equal(t, "2026-03-01", *srv.historyReq.DateFrom)
	assert.Equal(t, 2, srv.historyReq.Page)
	assert.Equal(t, 10, srv.historyReq.PageSize)
}

func TestAttendanceHandlerHistoryDefaultPaging(t *testing.T) {
	srv := &fakeAttendanceSrv{}
	handler := NewAttendanceHandler(srv, &fakeOccurrenceResolver{}, &fakeSlotGetter{})

	c, rec := attendanceTestContext(http.MethodGet, "/attendance/history", "")

	handler.History(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.historyReq.Page)
	assert.Equal(t, 50, srv.historyReq.PageSize)
	assert.Nil(t, srv.historyReq.Status)
}

func TestAttendanceHandlerResolveRequiresDate(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{}, &fakeOccurrenceResolver{}, &fakeSlotGetter{})

	c, rec := attendanceTestContext(http.MethodGet, "/attendance/occurrences/slot-1", "")
	c.Params = gin.Params{{Key: "slotId", Value: "slot-1"}}

	handler.Resolve(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerResolveUnknownSlot(t *testing.T) {
	slots := &fakeSlotGetter{err: assert.AnError}
	handler := NewAttendanceHandler(&fakeAttendanceSrv{}, &fakeOccurrenceResolver{}, slots)

	c, rec := attendanceTestContext(http.MethodGet, "/attendance/occurrences/slot-404?date=2026-03-02", "")
	c.Params = gin.Params{{Key: "slotId", Value: "slot-404"}}

	handler.Resolve(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceHandlerResolveSuccess(t *testing.T) {
	resolver := &fakeOccurrenceResolver{
		occurrence: models.ResolvedOccurrence{ScheduleSlotID: "slot-1", EffectiveStatus: models.EffectivePending},
	}
	slots := &fakeSlotGetter{slot: &models.ScheduleSlot{ID: "slot-1"}}
	handler := NewAttendanceHandler(&fakeAttendanceSrv{}, resolver, slots)

	c, rec := attendanceTestContext(http.MethodGet, "/attendance/occurrences/slot-1?date=2026-03-02", "")
	c.Params = gin.Params{{Key: "slotId", Value: "slot-1"}}

	handler.Resolve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-03-02", resolver.lastDate.Format("2006-01-02"))
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "pending", envelope.Data["effective_status"])
}
