package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuscore/uni-admin-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the role dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// AdminCounts returns institution-wide entity counts in one round trip.
func (r *DashboardRepository) AdminCounts(ctx context.Context) (*models.AdminDashboard, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM departments) AS departments,
        (SELECT COUNT(*) FROM programs) AS programs,
        (SELECT COUNT(*) FROM courses) AS courses,
        (SELECT COUNT(*) FROM students WHERE active = TRUE) AS students,
        (SELECT COUNT(*) FROM lecturers WHERE active = TRUE) AS lecturers,
        (SELECT COUNT(*) FROM enrollments) AS enrollments`
	var counts models.AdminDashboard
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("admin counts: %w", err)
	}
	return &counts, nil
}

// LecturerCourseLoads returns per-course enrollment and grading counts
// for every course assigned to the lecturer.
func (r *DashboardRepository) LecturerCourseLoads(ctx context.Context, lecturerID string) ([]models.LecturerCourseLoad, error) {
	const query = `SELECT c.id AS course_id, c.code AS course_code, c.title AS course_title,
        COUNT(e.id) AS enrolled_count,
        COUNT(g.id) AS graded_count
        FROM courses c
        LEFT JOIN enrollments e ON e.course_id = c.id
        LEFT JOIN grades g ON g.enrollment_id = e.id
        WHERE c.lecturer_id = $1
        GROUP BY c.id, c.code, c.title
        ORDER BY c.code ASC`
	var loads []models.LecturerCourseLoad
	if err := r.db.SelectContext(ctx, &loads, query, lecturerID); err != nil {
		return nil, fmt.Errorf("lecturer course loads: %w", err)
	}
	return loads, nil
}
