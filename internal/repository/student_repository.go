package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courseflow-api/internal/models"
)

// StudentRepository handles persistence of student registration profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `s.id, u.full_name, s.student_no, s.faculty, s.major, s.year, s.year_level,
        s.semester, s.status, s.advisor_id, s.last_enrollment_at, s.created_at, s.updated_at`

// FindByID returns a student profile by user ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s JOIN users u ON u.id = s.id WHERE s.id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ApplyEnrollmentTerm records the year/semester a student last registered
// in, together with the (possibly bumped) year level.
func (r *StudentRepository) ApplyEnrollmentTerm(ctx context.Context, id string, year, semester, yearLevel int, at time.Time) error {
	const query = `UPDATE students SET year = $2, semester = $3, year_level = $4,
        last_enrollment_at = $5, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, year, semester, yearLevel, at); err != nil {
		return fmt.Errorf("apply enrollment term: %w", err)
	}
	return nil
}

// PromoteCohort advances every ACTIVE student matching the exact source
// tuple to the target tuple, returning how many rows moved.
func (r *StudentRepository) PromoteCohort(ctx context.Context, from models.PromotionFilter, to models.PromotionCursor) (int, error) {
	const query = `UPDATE students SET year = $4, year_level = $5, semester = $6, updated_at = NOW()
        WHERE status = $7 AND year = $1 AND year_level = $2 AND semester = $3`
	res, err := r.db.ExecContext(ctx, query, from.Year, from.YearLevel, from.Semester,
		to.Year, to.YearLevel, to.Semester, models.StudentStatusActive)
	if err != nil {
		return 0, fmt.Errorf("promote cohort: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("promote cohort: %w", err)
	}
	return int(affected), nil
}

// ListCohort returns ACTIVE students matching the source tuple, capped at
// limit, plus the uncapped total. Used by the promotion preview.
func (r *StudentRepository) ListCohort(ctx context.Context, from models.PromotionFilter, limit int) ([]models.Student, int, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM students s JOIN users u ON u.id = s.id
        WHERE s.status = $4 AND s.year = $1 AND s.year_level = $2 AND s.semester = $3
        ORDER BY s.student_no LIMIT %d`, studentColumns, limit)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, from.Year, from.YearLevel, from.Semester, models.StudentStatusActive); err != nil {
		return nil, 0, fmt.Errorf("list cohort: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM students
        WHERE status = $4 AND year = $1 AND year_level = $2 AND semester = $3`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, from.Year, from.YearLevel, from.Semester, models.StudentStatusActive); err != nil {
		return nil, 0, fmt.Errorf("count cohort: %w", err)
	}
	return students, total, nil
}

// FacultyEnrollment counts students per faculty, split by whether they
// hold at least one membership row. Filters narrow the student set before
// grouping.
func (r *StudentRepository) FacultyEnrollment(ctx context.Context, filter models.DashboardFilter) ([]models.FacultyEnrollment, error) {
	var conditions []string
	var args []interface{}
	if filter.Faculty != "" {
		conditions = append(conditions, fmt.Sprintf("s.faculty = $%d", len(args)+1))
		args = append(args, filter.Faculty)
	}
	if filter.Major != "" {
		conditions = append(conditions, fmt.Sprintf("s.major = $%d", len(args)+1))
		args = append(args, filter.Major)
	}
	if filter.YearLevel > 0 {
		conditions = append(conditions, fmt.Sprintf("s.year_level = $%d", len(args)+1))
		args = append(args, filter.YearLevel)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT s.faculty, COUNT(DISTINCT s.id) AS total_students,
        COUNT(DISTINCT m.student_id) AS enrolled_students
        FROM students s LEFT JOIN enrollment_memberships m ON m.student_id = s.id%s
        GROUP BY s.faculty ORDER BY s.faculty`, clause)

	var rows []models.FacultyEnrollment
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("faculty enrollment: %w", err)
	}
	return rows, nil
}

// FilterOptions lists the distinct faculties, year levels and majors of
// the student body. When faculty is set, majors are scoped to it.
func (r *StudentRepository) FilterOptions(ctx context.Context, faculty string) (*models.DashboardOptions, error) {
	options := &models.DashboardOptions{}
	if err := r.db.SelectContext(ctx, &options.Faculties,
		`SELECT DISTINCT faculty FROM students WHERE faculty <> '' ORDER BY faculty`); err != nil {
		return nil, fmt.Errorf("list faculties: %w", err)
	}
	if err := r.db.SelectContext(ctx, &options.YearLevels,
		`SELECT DISTINCT year_level FROM students WHERE year_level > 0 ORDER BY year_level`); err != nil {
		return nil, fmt.Errorf("list year levels: %w", err)
	}

	majorQuery := `SELECT DISTINCT major FROM students WHERE major <> '' ORDER BY major`
	var majorArgs []interface{}
	if faculty != "" {
		majorQuery = `SELECT DISTINCT major FROM students WHERE major <> '' AND faculty = $1 ORDER BY major`
		majorArgs = append(majorArgs, faculty)
	}
	if err := r.db.SelectContext(ctx, &options.Majors, majorQuery, majorArgs...); err != nil {
		return nil, fmt.Errorf("list majors: %w", err)
	}
	return options, nil
}
