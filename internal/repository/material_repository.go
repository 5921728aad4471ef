package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuscore/uni-admin-api/internal/models"
)

// MaterialRepository handles persistence of course materials and views.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs the repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// FindByID returns a material by its ID.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	const query = `SELECT id, course_id, title, file_key, file_url, uploaded_by, created_at FROM materials WHERE id = $1`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// ListByCourse returns course materials with the requesting student's
// view state joined in. studentID may be empty for staff listings.
func (r *MaterialRepository) ListByCourse(ctx context.Context, courseID, studentID string) ([]models.MaterialDetail, error) {
	const query = `SELECT m.id, m.course_id, m.title, m.file_key, m.file_url, m.uploaded_by, m.created_at,
        (v.id IS NOT NULL) AS viewed
        FROM materials m
        LEFT JOIN material_views v ON v.material_id = m.id AND v.student_id = $2
        WHERE m.course_id = $1
        ORDER BY m.created_at DESC`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query, courseID, studentID); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

// Create persists a new material.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO materials (id, course_id, title, file_key, file_url, uploaded_by, created_at)
        VALUES (:id, :course_id, :title, :file_key, :file_url, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// Delete removes a material and its view records.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM materials WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}

// InsertView records a view once per (material, student). The unique
// constraint plus ON CONFLICT DO NOTHING makes the insert atomic under
// concurrent requests; the returned bool reports whether a row was
// actually written.
func (r *MaterialRepository) InsertView(ctx context.Context, view *models.MaterialView) (bool, error) {
	if view.ID == "" {
		view.ID = uuid.NewString()
	}
	if view.ViewedAt.IsZero() {
		view.ViewedAt = time.Now().UTC()
	}
	const query = `INSERT INTO material_views (id, material_id, student_id, interaction, viewed_at)
        VALUES (:id, :material_id, :student_id, :interaction, :viewed_at)
        ON CONFLICT (material_id, student_id) DO NOTHING`
	result, err := r.db.NamedExecContext(ctx, query, view)
	if err != nil {
		return false, fmt.Errorf("insert material view: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert material view count: %w", err)
	}
	return affected > 0, nil
}

// CountViews returns the number of distinct students who viewed a material.
func (r *MaterialRepository) CountViews(ctx context.Context, materialID string) (int, error) {
	const query = `SELECT COUNT(*) FROM material_views WHERE material_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, materialID); err != nil {
		return 0, fmt.Errorf("count material views: %w", err)
	}
	return count, nil
}
