package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
)

func TestCourseRepositoryReserveSeat(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET available_capacity = available_capacity - 1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReserveSeat(context.Background(), "s1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryReleaseSeatFloorsAtZero(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	// The floor lives in SQL, not in Go.
	mock.ExpectExec(regexp.QuoteMeta("enrolled_count = GREATEST(enrolled_count - 1, 0)")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseSeat(context.Background(), "s1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositorySetSectionCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET enrolled_count = $2, available_capacity = $3")).
		WithArgs("s1", 4, 6).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetSectionCounters(context.Background(), "s1", 4, 6))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateSectionApprovalMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("UPDATE sections SET approval_status").
		WithArgs("c1", "s1", models.SectionApprovalApproved).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSectionApproval(context.Background(), "c1", "s1", models.SectionApprovalApproved)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindSection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "section_number", "type", "teacher_id",
		"original_capacity", "available_capacity", "enrolled_count", "approval_status",
		"linked_section", "created_at", "updated_at"}).
		AddRow("s1", "c1", "A", models.SectionTypeLecture, nil, 30, 12, 18,
			models.SectionApprovalApproved, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM sections WHERE course_id = \\$1 AND id = \\$2").
		WithArgs("c1", "s1").
		WillReturnRows(rows)

	section, err := repo.FindSection(context.Background(), "c1", "s1")
	require.NoError(t, err)
	require.Equal(t, 30, section.OriginalCapacity)
	require.Equal(t, 18, section.EnrolledCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListFiltered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "description", "credit_theory",
		"credit_practice", "credit_self_study", "credit_total", "faculty", "major",
		"year", "semester", "created_at", "updated_at"}).
		AddRow("c1", "CS101", "Intro", "", 2, 1, 0, 3, "FIT", "SE", 2026, 1, time.Now(), time.Now())
	mock.ExpectQuery("SELECT c.id, c.code").
		WithArgs("FIT").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses c WHERE c.faculty = $1")).
		WithArgs("FIT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Faculty: "FIT"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
