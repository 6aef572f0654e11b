package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
)

func TestStudentRepositoryApplyEnrollmentTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	at := time.Now()
	mock.ExpectExec("UPDATE students SET year = \\$2, semester = \\$3, year_level = \\$4").
		WithArgs("stu1", 2026, 1, 3, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ApplyEnrollmentTerm(context.Background(), "stu1", 2026, 1, 3, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFacultyEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"faculty", "total_students", "enrolled_students"}).
		AddRow("Engineering", 10, 7).
		AddRow("Science", 5, 5)
	mock.ExpectQuery("SELECT s.faculty, COUNT\\(DISTINCT s.id\\) AS total_students").
		WithArgs("Engineering", 2).
		WillReturnRows(rows)

	result, err := repo.FacultyEnrollment(context.Background(),
		models.DashboardFilter{Faculty: "Engineering", YearLevel: 2})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, 7, result[0].EnrolledStudents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFilterOptionsScopesMajors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT DISTINCT faculty FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"faculty"}).AddRow("Engineering").AddRow("Science"))
	mock.ExpectQuery("SELECT DISTINCT year_level FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"year_level"}).AddRow(1).AddRow(2))
	mock.ExpectQuery("SELECT DISTINCT major FROM students WHERE major <> '' AND faculty = \\$1").
		WithArgs("Engineering").
		WillReturnRows(sqlmock.NewRows([]string{"major"}).AddRow("CS"))

	options, err := repo.FilterOptions(context.Background(), "Engineering")
	require.NoError(t, err)
	require.Equal(t, []string{"Engineering", "Science"}, options.Faculties)
	require.Equal(t, []int{1, 2}, options.YearLevels)
	require.Equal(t, []string{"CS"}, options.Majors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryPromoteCohortFiltersActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET year = \\$4, year_level = \\$5, semester = \\$6").
		WithArgs(2025, 2, 2, 2026, 3, 1, models.StudentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 9))

	promoted, err := repo.PromoteCohort(context.Background(),
		models.PromotionFilter{Year: 2025, YearLevel: 2, Semester: 2},
		models.PromotionCursor{Year: 2026, YearLevel: 3, Semester: 1})
	require.NoError(t, err)
	require.Equal(t, 9, promoted)
	require.NoError(t, mock.ExpectationsWereMet())
}
