package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

const leaveColumns = "id, teacher_id, reason, custom_reason, start_date, end_date, status, rejection_reason, substitute_teacher_id, approved_by, approved_at, created_by, created_at, updated_at"

// LeaveRepository provides persistence for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a new leave repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create stores a new leave request.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) (*models.LeaveRequest, error) {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	leave.CreatedAt = now
	leave.UpdatedAt = now

	const query = `INSERT INTO leave_requests (id, teacher_id, reason, custom_reason, start_date, end_date, status, rejection_reason, substitute_teacher_id, approved_by, approved_at, created_by, created_at, updated_at) VALUES (:id, :teacher_id, :reason, :custom_reason, :start_date, :end_date, :status, :rejection_reason, :substitute_teacher_id, :approved_by, :approved_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return nil, fmt.Errorf("create leave request: %w", err)
	}
	return leave, nil
}

// FindByID loads a leave request by id.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE id = $1", leaveColumns)
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// UpdateStatus persists an approval or rejection decision.
func (r *LeaveRepository) UpdateStatus(ctx context.Context, leave *models.LeaveRequest) (*models.LeaveRequest, error) {
	leave.UpdatedAt = time.Now().UTC()
	const query = `UPDATE leave_requests SET status = :status, rejection_reason = :rejection_reason, substitute_teacher_id = :substitute_teacher_id, approved_by = :approved_by, approved_at = :approved_at, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, leave)
	if err != nil {
		return nil, fmt.Errorf("update leave request: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, sql.ErrNoRows
	}
	return leave, nil
}

// List returns leave requests with optional filtering and pagination.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error) {
	base := "FROM leave_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("end_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"created_at": true,
		"start_date": true,
		"status":     true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", leaveColumns, base, sortBy, order, size, offset)
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	return leaves, total, nil
}

// FindApprovedForDate returns the winning approved leave for a teacher on a
// date. Overlapping approvals are settled deterministically: the earliest
// created request wins, then the smallest id.
func (r *LeaveRepository) FindApprovedForDate(ctx context.Context, teacherID string, date time.Time) (*models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE teacher_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3 ORDER BY created_at ASC, id ASC LIMIT 1", leaveColumns)
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, teacherID, models.LeaveApproved, date); err != nil {
		return nil, err
	}
	return &leave, nil
}

// ListApprovedCovering returns every approved leave covering a date,
// ordered so the first row per teacher is the winning one.
func (r *LeaveRepository) ListApprovedCovering(ctx context.Context, date time.Time) ([]models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE status = $1 AND start_date <= $2 AND end_date >= $2 ORDER BY created_at ASC, id ASC", leaveColumns)
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, models.LeaveApproved, date); err != nil {
		return nil, fmt.Errorf("list approved leaves for date: %w", err)
	}
	return leaves, nil
}

// ListApprovedOverlapping returns approved leaves intersecting the
// inclusive date range.
func (r *LeaveRepository) ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE status = $1 AND start_date <= $2 AND end_date >= $3 ORDER BY created_at ASC, id ASC", leaveColumns)
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, models.LeaveApproved, to, from); err != nil {
		return nil, fmt.Errorf("list approved leaves for range: %w", err)
	}
	return leaves, nil
}
