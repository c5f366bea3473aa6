package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "class_id", "subject_id", "teacher_id", "day_of_week", "start_time", "end_time", "period", "created_at", "updated_at"}).
		AddRow("slot-1", "class-1", "subject-1", "teacher-1", "monday", "08:00:00", "09:00:00", 1, time.Now(), time.Now())
}

func TestScheduleRepositoryList(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, class_id, subject_id, teacher_id, day_of_week, start_time, end_time, period, created_at, updated_at FROM schedule_slots WHERE 1=1 ORDER BY day_of_week ASC, start_time ASC LIMIT 50 OFFSET 0")).
		WillReturnRows(scheduleRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_slots WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	slots, total, err := repo.List(context.Background(), models.ScheduleSlotFilter{})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "08:00", slots[0].StartTime.String())
	assert.Equal(t, models.Monday, slots[0].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListDayFilter(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	day := models.Friday
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_slots WHERE 1=1 AND day_of_week = $1")).
		WithArgs("friday").
		WillReturnRows(scheduleRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_slots WHERE 1=1 AND day_of_week = $1")).
		WithArgs("friday").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.ScheduleSlotFilter{DayOfWeek: &day})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListByDay(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_slots WHERE day_of_week = $1 ORDER BY class_id ASC, period ASC")).
		WithArgs("monday").
		WillReturnRows(scheduleRows())

	slots, err := repo.ListByDay(context.Background(), models.Monday)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindConflict(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	start := models.MustTimeOfDay("08:00")
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_slots WHERE class_id = $1 AND day_of_week = $2 AND start_time = $3")).
		WithArgs("class-1", "monday", "08:00:00").
		WillReturnRows(scheduleRows())

	conflict, err := repo.FindConflict(context.Background(), "class-1", models.Monday, start, "")
	require.NoError(t, err)
	assert.Equal(t, "slot-1", conflict.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindConflictFreeCell(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("FROM schedule_slots WHERE class_id").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindConflict(context.Background(), "class-1", models.Monday, models.MustTimeOfDay("08:00"), "")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindConflictExcludesSelf(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND start_time = $3 AND id != $4")).
		WithArgs("class-1", "monday", "08:00:00", "slot-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindConflict(context.Background(), "class-1", models.Monday, models.MustTimeOfDay("08:00"), "slot-1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedule_slots").
		WithArgs(sqlmock.AnyArg(), "class-1", "subject-1", "teacher-1", "monday", "08:00:00", "09:00:00", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := &models.ScheduleSlot{
		ClassID:   "class-1",
		SubjectID: "subject-1",
		TeacherID: "teacher-1",
		DayOfWeek: models.Monday,
		StartTime: models.MustTimeOfDay("08:00"),
		EndTime:   models.MustTimeOfDay("09:00"),
		Period:    1,
	}
	require.NoError(t, repo.Create(context.Background(), slot))
	assert.NotEmpty(t, slot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE schedule_slots SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	slot := &models.ScheduleSlot{ID: "slot-404", DayOfWeek: models.Monday}
	err := repo.Update(context.Background(), slot)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_slots WHERE id = $1")).
		WithArgs("slot-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "slot-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
