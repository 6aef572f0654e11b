package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courseflow-api/internal/models"
)

// CalendarRepository reads the academic calendar.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs the repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// FindYear returns the academic year record for a calendar year.
func (r *CalendarRepository) FindYear(ctx context.Context, year int) (*models.AcademicYear, error) {
	const query = `SELECT id, year, active, created_at, updated_at FROM academic_years WHERE year = $1`
	var academicYear models.AcademicYear
	if err := r.db.GetContext(ctx, &academicYear, query, year); err != nil {
		return nil, err
	}
	return &academicYear, nil
}

// FindSemester returns a semester within an academic year.
func (r *CalendarRepository) FindSemester(ctx context.Context, academicYearID string, number int) (*models.AcademicSemester, error) {
	const query = `SELECT id, academic_year_id, semester_number, start_date, end_date
        FROM academic_semesters WHERE academic_year_id = $1 AND semester_number = $2`
	var semester models.AcademicSemester
	if err := r.db.GetContext(ctx, &semester, query, academicYearID, number); err != nil {
		return nil, err
	}
	return &semester, nil
}

// LastSemesterNumber returns the highest semester number defined for an
// academic year. The bulk promotion rollover rule depends on it.
func (r *CalendarRepository) LastSemesterNumber(ctx context.Context, academicYearID string) (int, error) {
	const query = `SELECT COALESCE(MAX(semester_number), 2) FROM academic_semesters WHERE academic_year_id = $1`
	var number int
	if err := r.db.GetContext(ctx, &number, query, academicYearID); err != nil {
		return 0, err
	}
	return number, nil
}
