package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

// DirectoryRepository resolves display names for dashboard enrichment.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository creates a new directory repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// TeacherName returns a teacher's full name by id.
func (r *DirectoryRepository) TeacherName(ctx context.Context, id string) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT full_name FROM users WHERE id = $1`, id); err != nil {
		return "", err
	}
	return name, nil
}

// ClassName returns a class name by id.
func (r *DirectoryRepository) ClassName(ctx context.Context, id string) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT name FROM classes WHERE id = $1`, id); err != nil {
		return "", err
	}
	return name, nil
}

// SubjectName returns a subject name by id.
func (r *DirectoryRepository) SubjectName(ctx context.Context, id string) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT name FROM subjects WHERE id = $1`, id); err != nil {
		return "", err
	}
	return name, nil
}

// ListClasses returns classes with optional filtering and pagination.
func (r *DirectoryRepository) ListClasses(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	base := "FROM classes WHERE 1=1"
	var args []interface{}
	if filter.Grade != "" {
		base += fmt.Sprintf(" AND grade = $%d", len(args)+1)
		args = append(args, filter.Grade)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Search+"%")
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

	query := fmt.Sprintf("SELECT id, name, grade, major, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", base, size, offset)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// ListSubjects returns every subject ordered by name.
func (r *DirectoryRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, `SELECT id, code, name, created_at, updated_at FROM subjects ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
