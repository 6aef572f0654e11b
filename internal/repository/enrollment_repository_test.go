package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryCountBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollment_memberships WHERE course_id = $1 AND section_id = $2")).
		WithArgs("c1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountBySection(context.Background(), "c1", "s1")
	require.NoError(t, err)
	require.Equal(t, 7, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM enrollment_memberships").
		WithArgs("stu1", "c1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "stu1", "c1", "s1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM enrollment_memberships").
		WithArgs("stu1", "c1", "s2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.Exists(context.Background(), "stu1", "c1", "s2")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollment_memberships").
		WillReturnResult(sqlmock.NewResult(0, 1))

	membership := &models.Membership{StudentID: "stu1", CourseID: "c1", SectionID: "s1"}
	err := repo.Create(context.Background(), membership)
	require.NoError(t, err)
	require.NotEmpty(t, membership.ID)
	require.Equal(t, models.MembershipStatusEnrolled, membership.Status)
	require.False(t, membership.EnrolledAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("DELETE FROM enrollment_memberships").
		WithArgs("stu1", "c1", "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.Delete(context.Background(), "stu1", "c1", "s1")
	require.NoError(t, err)
	require.True(t, removed)

	mock.ExpectExec("DELETE FROM enrollment_memberships").
		WithArgs("stu1", "c1", "s2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err = repo.Delete(context.Background(), "stu1", "c1", "s2")
	require.NoError(t, err)
	require.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "section_id", "status", "grade", "enrolled_at"}).
		AddRow("m1", "stu1", "c1", "s1", models.MembershipStatusEnrolled, nil, time.Now()).
		AddRow("m2", "stu1", "c2", "s3", models.MembershipStatusCompleted, "A", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM enrollment_memberships WHERE student_id = \\$1").
		WithArgs("stu1").
		WillReturnRows(rows)

	memberships, err := repo.ListByStudent(context.Background(), "stu1")
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	require.Equal(t, "c2", memberships[1].CourseID)
	require.NoError(t, mock.ExpectationsWereMet())
}
