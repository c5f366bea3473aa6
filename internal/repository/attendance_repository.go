package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

const attendanceColumns = "id, schedule_slot_id, teacher_id, original_teacher_id, substitute_teacher_id, date, check_in_time, status, note, created_by, created_at, updated_at"

// AttendanceRepository provides persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindBySlotAndDate loads the record for one occurrence.
func (r *AttendanceRepository) FindBySlotAndDate(ctx context.Context, slotID string, date time.Time) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE schedule_slot_id = $1 AND date = $2", attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, slotID, date); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListBySlotsAndDate loads every record for a set of slots on one date.
func (r *AttendanceRepository) ListBySlotsAndDate(ctx context.Context, slotIDs []string, date time.Time) ([]models.AttendanceRecord, error) {
	if len(slotIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE date = $1 AND schedule_slot_id = ANY($2)", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, date, pq.Array(slotIDs)); err != nil {
		return nil, fmt.Errorf("list attendance records by slots: %w", err)
	}
	return records, nil
}

// Upsert writes the record for one occurrence. The (schedule_slot_id, date)
// pair is unique; repeated writes replace the earlier row.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendance_records (id, schedule_slot_id, teacher_id, original_teacher_id, substitute_teacher_id, date, check_in_time, status, note, created_by, created_at, updated_at)
VALUES (:id, :schedule_slot_id, :teacher_id, :original_teacher_id, :substitute_teacher_id, :date, :check_in_time, :status, :note, :created_by, :created_at, :updated_at)
ON CONFLICT (schedule_slot_id, date) DO UPDATE SET
	teacher_id = EXCLUDED.teacher_id,
	original_teacher_id = EXCLUDED.original_teacher_id,
	substitute_teacher_id = EXCLUDED.substitute_teacher_id,
	check_in_time = EXCLUDED.check_in_time,
	status = EXCLUDED.status,
	note = EXCLUDED.note,
	created_by = EXCLUDED.created_by,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return nil, fmt.Errorf("upsert attendance record: %w", err)
	}
	return record, nil
}

// List returns attendance records joined with schedule metadata for the
// review listing. Joined name columns are left outer so deleted referents
// do not drop rows.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceHistoryRow, int, error) {
	base := `FROM attendance_records a
JOIN schedule_slots s ON s.id = a.schedule_slot_id
LEFT JOIN classes c ON c.id = s.class_id
LEFT JOIN subjects sub ON sub.id = s.subject_id
LEFT JOIN users t ON t.id = a.teacher_id
WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("a.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ScheduleSlotID != "" {
		conditions = append(conditions, fmt.Sprintf("a.schedule_slot_id = $%d", len(args)+1))
		args = append(args, filter.ScheduleSlotID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"date":       "a.date",
		"status":     "a.status",
		"created_at": "a.created_at",
	}
	sortColumn, ok := allowedSorts[sortBy]
	if !ok {
		sortColumn = "a.date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	selectCols := `a.id, a.schedule_slot_id, a.teacher_id, a.original_teacher_id, a.substitute_teacher_id, a.date, a.check_in_time, a.status, a.note, a.created_by, a.created_at, a.updated_at,
s.day_of_week, s.start_time, s.end_time,
c.name AS class_name, sub.name AS subject_name, t.full_name AS teacher_name`
	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, s.start_time ASC LIMIT %d OFFSET %d", selectCols, base, sortColumn, order, size, offset)
	var rows []models.AttendanceHistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance history: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance history: %w", err)
	}

	return rows, total, nil
}
