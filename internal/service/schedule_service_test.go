package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	appErrors "github.com/noah-isme/sekolah-ops-api/pkg/errors"
)

type fakeScheduleRepo struct {
	byID     map[string]*models.ScheduleSlot
	conflict *models.ScheduleSlot
	created  *models.ScheduleSlot
	updated  *models.ScheduleSlot
	deleted  string
	rows     []models.ScheduleSlot
	total    int
	filter   models.ScheduleSlotFilter
}

func (f *fakeScheduleRepo) List(_ context.Context, filter models.ScheduleSlotFilter) ([]models.ScheduleSlot, int, error) {
	f.filter = filter
	return f.rows, f.total, nil
}

func (f *fakeScheduleRepo) ListByDay(_ context.Context, _ models.Weekday) ([]models.ScheduleSlot, error) {
	return f.rows, nil
}

func (f *fakeScheduleRepo) FindByID(_ context.Context, id string) (*models.ScheduleSlot, error) {
	slot, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return slot, nil
}

func (f *fakeScheduleRepo) FindConflict(_ context.Context, _ string, _ models.Weekday, _ models.TimeOfDay, _ string) (*models.ScheduleSlot, error) {
	if f.conflict == nil {
		return nil, sql.ErrNoRows
	}
	return f.conflict, nil
}

func (f *fakeScheduleRepo) Create(_ context.Context, slot *models.ScheduleSlot) error {
	f.created = slot
	return nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, slot *models.ScheduleSlot) error {
	f.updated = slot
	return nil
}

func (f *fakeScheduleRepo) Delete(_ context.Context, id string) error {
	f.deleted = id
	return nil
}

func validCreateRequest() CreateScheduleSlotRequest {
	return CreateScheduleSlotRequest{
		ClassID:   "class-1",
		SubjectID: "subject-1",
		TeacherID: "teacher-1",
		DayOfWeek: "monday",
		StartTime: "08:00",
		EndTime:   "09:00",
		Period:    1,
	}
}

func TestScheduleCreateStoresSlot(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc := NewScheduleService(repo, nil, nil, nil)

	slot, err := svc.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.Equal(t, models.Monday, slot.DayOfWeek)
	assert.Equal(t, "08:00", slot.StartTime.String())
	require.NotNil(t, repo.created)
}

func TestScheduleCreateRejectsOccupiedCell(t *testing.T) {
	taken := mondaySlot()
	repo := &fakeScheduleRepo{conflict: &taken}
	svc := NewScheduleService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), validCreateRequest())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	var detail *models.ScheduleConflictError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "slot-1", detail.Conflict.SlotID)
	assert.Nil(t, repo.created)
}

func TestScheduleCreateRejectsInvertedTimes(t *testing.T) {
	svc := NewScheduleService(&fakeScheduleRepo{}, nil, nil, nil)

	req := validCreateRequest()
	req.StartTime = "09:00"
	req.EndTime = "08:00"
	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleCreateRejectsSunday(t *testing.T) {
	svc := NewScheduleService(&fakeScheduleRepo{}, nil, nil, nil)

	req := validCreateRequest()
	req.DayOfWeek = "sunday"
	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleUpdatePreservesIdentity(t *testing.T) {
	existing := mondaySlot()
	repo := &fakeScheduleRepo{byID: map[string]*models.ScheduleSlot{"slot-1": &existing}}
	svc := NewScheduleService(repo, nil, nil, nil)

	req := UpdateScheduleSlotRequest(validCreateRequest())
	req.StartTime = "10:00"
	req.EndTime = "11:00"
	slot, err := svc.Update(context.Background(), "slot-1", req)

	require.NoError(t, err)
	assert.Equal(t, "slot-1", slot.ID)
	assert.Equal(t, "10:00", slot.StartTime.String())
	require.NotNil(t, repo.updated)
}

func TestScheduleUpdateUnknownSlot(t *testing.T) {
	svc := NewScheduleService(&fakeScheduleRepo{}, nil, nil, nil)

	_, err := svc.Update(context.Background(), "slot-404", UpdateScheduleSlotRequest(validCreateRequest()))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleDeleteRemovesSlot(t *testing.T) {
	existing := mondaySlot()
	repo := &fakeScheduleRepo{byID: map[string]*models.ScheduleSlot{"slot-1": &existing}}
	svc := NewScheduleService(repo, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "slot-1"))
	assert.Equal(t, "slot-1", repo.deleted)
}

func TestScheduleListParsesDayFilter(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc := NewScheduleService(repo, nil, nil, nil)

	_, pagination, err := svc.List(context.Background(), ScheduleListRequest{DayOfWeek: "Friday"})

	require.NoError(t, err)
	require.NotNil(t, repo.filter.DayOfWeek)
	assert.Equal(t, models.Friday, *repo.filter.DayOfWeek)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
}

func TestScheduleListRejectsBadDayFilter(t *testing.T) {
	svc := NewScheduleService(&fakeScheduleRepo{}, nil, nil, nil)

	_, _, err := svc.List(context.Background(), ScheduleListRequest{DayOfWeek: "someday"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
