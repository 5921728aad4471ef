package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/uni-admin-api/internal/models"
)

func newGradeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGradeRepositoryFindByEnrollmentID(t *testing.T) {
	db, mock, cleanup := newGradeRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	cat := 35.0
	exam := 38.0
	rows := sqlmock.NewRows([]string{"id", "enrollment_id", "cat_score", "exam_score", "total_score", "letter_grade", "gpa", "created_at", "updated_at"}).
		AddRow("grade-1", "enr-1", cat, exam, "73.00", "B", "4.00", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, enrollment_id, cat_score, exam_score, total_score, letter_grade, gpa, created_at, updated_at FROM grades WHERE enrollment_id = $1")).
		WithArgs("enr-1").
		WillReturnRows(rows)

	grade, err := repo.FindByEnrollmentID(context.Background(), "enr-1")
	require.NoError(t, err)
	require.Equal(t, "73.00", grade.TotalScore)
	require.Equal(t, "B", grade.LetterGrade)
	require.Equal(t, "4.00", grade.GPA)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryUpdateRewritesDerivedFields(t *testing.T) {
	db, mock, cleanup := newGradeRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec("UPDATE grades SET cat_score").
		WillReturnResult(sqlmock.NewResult(0, 1))

	cat := 40.0
	exam := 45.0
	grade := &models.Grade{
		ID:           "grade-1",
		EnrollmentID: "enr-1",
		CatScore:     &cat,
		ExamScore:    &exam,
		TotalScore:   "85.00",
		LetterGrade:  "A",
		GPA:          "5.00",
	}
	err := repo.Update(context.Background(), grade)
	require.NoError(t, err)
	require.False(t, grade.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryDistributionByCourse(t *testing.T) {
	db, mock, cleanup := newGradeRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	rows := sqlmock.NewRows([]string{"letter_grade", "count"}).
		AddRow("A", 4).
		AddRow("B", 9).
		AddRow("F", 1)
	mock.ExpectQuery("SELECT g.letter_grade, COUNT").
		WithArgs("course-1").
		WillReturnRows(rows)

	dist, err := repo.DistributionByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, dist, 3)
	require.Equal(t, "B", dist[1].LetterGrade)
	require.Equal(t, 9, dist[1].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
