package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AuthzRepository answers relationship questions used by permission checks.
// All predicates are keyed by the caller's user ID so handlers never need
// to resolve profile rows before asking.
type AuthzRepository struct {
	db *sqlx.DB
}

// NewAuthzRepository constructs the repository.
func NewAuthzRepository(db *sqlx.DB) *AuthzRepository {
	return &AuthzRepository{db: db}
}

// IsLecturerOf reports whether the user teaches the course.
func (r *AuthzRepository) IsLecturerOf(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM courses c
        JOIN lecturers l ON l.id = c.lecturer_id
        WHERE c.id = $1 AND l.user_id = $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, courseID, userID); err != nil {
		return false, fmt.Errorf("lecturer-of check: %w", err)
	}
	return ok, nil
}

// IsHeadOf reports whether the user heads the department.
func (r *AuthzRepository) IsHeadOf(ctx context.Context, userID, departmentID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM departments WHERE id = $1 AND head_id = $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, departmentID, userID); err != nil {
		return false, fmt.Errorf("head-of check: %w", err)
	}
	return ok, nil
}

// IsEnrolledIn reports whether the user's student profile is enrolled in the course.
func (r *AuthzRepository) IsEnrolledIn(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.course_id = $1 AND s.user_id = $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, courseID, userID); err != nil {
		return false, fmt.Errorf("enrolled-in check: %w", err)
	}
	return ok, nil
}

// OwnsStudentProfile reports whether the student row belongs to the user.
func (r *AuthzRepository) OwnsStudentProfile(ctx context.Context, userID, studentID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM students WHERE id = $1 AND user_id = $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, studentID, userID); err != nil {
		return false, fmt.Errorf("student-profile check: %w", err)
	}
	return ok, nil
}

// CourseDepartment returns the owning department for a course, for
// head-of-department scoping.
func (r *AuthzRepository) CourseDepartment(ctx context.Context, courseID string) (string, error) {
	const query = `SELECT p.department_id FROM courses c
        JOIN programs p ON p.id = c.program_id
        WHERE c.id = $1`
	var departmentID string
	if err := r.db.GetContext(ctx, &departmentID, query, courseID); err != nil {
		return "", err
	}
	return departmentID, nil
}
