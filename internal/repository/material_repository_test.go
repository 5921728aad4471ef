package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/uni-admin-api/internal/models"
)

func newMaterialRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMaterialRepositoryInsertViewFirstTime(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectExec("INSERT INTO material_views").
		WillReturnResult(sqlmock.NewResult(0, 1))

	view := &models.MaterialView{MaterialID: "mat-1", StudentID: "stu-1", Interaction: models.InteractionViewed}
	inserted, err := repo.InsertView(context.Background(), view)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryInsertViewRepeatIsNoop(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	mock.ExpectExec("INSERT INTO material_views").
		WillReturnResult(sqlmock.NewResult(0, 0))

	view := &models.MaterialView{MaterialID: "mat-1", StudentID: "stu-1", Interaction: models.InteractionViewed}
	inserted, err := repo.InsertView(context.Background(), view)
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialRepositoryListByCourseCarriesViewedFlag(t *testing.T) {
	db, mock, cleanup := newMaterialRepoMock(t)
	defer cleanup()
	repo := NewMaterialRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "title", "file_key", "file_url", "uploaded_by", "created_at", "viewed"}).
		AddRow("mat-1", "course-1", "Week 1 Notes", "materials/course-1/week1.pdf", "https://cdn/week1.pdf", "lect-user-1", time.Now(), true).
		AddRow("mat-2", "course-1", "Week 2 Notes", "materials/course-1/week2.pdf", "https://cdn/week2.pdf", "lect-user-1", time.Now(), false)
	mock.ExpectQuery("SELECT m.id, m.course_id, m.title").
		WithArgs("course-1", "stu-1").
		WillReturnRows(rows)

	materials, err := repo.ListByCourse(context.Background(), "course-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, materials, 2)
	require.True(t, materials[0].Viewed)
	require.False(t, materials[1].Viewed)
	require.NoError(t, mock.ExpectationsWereMet())
}
