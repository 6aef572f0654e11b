package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courseflow-api/internal/models"
)

// CourseRepository handles persistence of the course/section catalog,
// including the per-section seat counters.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const sectionColumns = `id, course_id, section_number, type, teacher_id, original_capacity,
        available_capacity, enrolled_count, approval_status, linked_section, created_at, updated_at`

// List returns courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := `FROM courses c`
	var conditions []string
	var args []interface{}

	if filter.Faculty != "" {
		conditions = append(conditions, fmt.Sprintf("c.faculty = $%d", len(args)+1))
		args = append(args, filter.Faculty)
	}
	if filter.Major != "" {
		conditions = append(conditions, fmt.Sprintf("c.major = $%d", len(args)+1))
		args = append(args, filter.Major)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("c.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("c.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.code ILIKE $%d OR c.name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"code":       "c.code",
		"name":       "c.name",
		"created_at": "c.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.code, c.name, c.description, c.credit_theory, c.credit_practice,
        c.credit_self_study, c.credit_total, c.faculty, c.major, c.year, c.semester, c.created_at, c.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, description, credit_theory, credit_practice, credit_self_study,
        credit_total, faculty, major, year, semester, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindSection returns a section scoped to its owning course.
func (r *CourseRepository) FindSection(ctx context.Context, courseID, sectionID string) (*models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections WHERE course_id = $1 AND id = $2`, sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, courseID, sectionID); err != nil {
		return nil, err
	}
	return &section, nil
}

// ListSections returns every section of a course ordered by section number.
func (r *CourseRepository) ListSections(ctx context.Context, courseID string) ([]models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections WHERE course_id = $1 ORDER BY section_number`, sectionColumns)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, courseID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ListAllSections returns every section of every course. Used by the full
// sync pass.
func (r *CourseRepository) ListAllSections(ctx context.Context) ([]models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections ORDER BY course_id, section_number`, sectionColumns)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list all sections: %w", err)
	}
	return sections, nil
}

// ReserveSeat atomically takes one seat on the section row.
func (r *CourseRepository) ReserveSeat(ctx context.Context, sectionID string) error {
	const query = `UPDATE sections SET available_capacity = available_capacity - 1,
        enrolled_count = enrolled_count + 1, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sectionID); err != nil {
		return fmt.Errorf("reserve seat: %w", err)
	}
	return nil
}

// ReleaseSeat atomically returns one seat to the section row. The enrolled
// counter is floored at zero. A missing section is tolerated: the caller's
// membership mutation has already succeeded.
func (r *CourseRepository) ReleaseSeat(ctx context.Context, sectionID string) error {
	const query = `UPDATE sections SET available_capacity = available_capacity + 1,
        enrolled_count = GREATEST(enrolled_count - 1, 0), updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sectionID); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}

// SetSectionCounters overwrites both cached counters in one statement.
// Used by the sync recompute so the invariant
// available_capacity = original_capacity - enrolled_count holds afterwards.
func (r *CourseRepository) SetSectionCounters(ctx context.Context, sectionID string, enrolled, available int) error {
	const query = `UPDATE sections SET enrolled_count = $2, available_capacity = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sectionID, enrolled, available); err != nil {
		return fmt.Errorf("set section counters: %w", err)
	}
	return nil
}

// UpdateSectionApproval updates the approval status of a section.
func (r *CourseRepository) UpdateSectionApproval(ctx context.Context, courseID, sectionID string, status models.SectionApprovalStatus) error {
	const query = `UPDATE sections SET approval_status = $3, updated_at = NOW() WHERE course_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, courseID, sectionID, status)
	if err != nil {
		return fmt.Errorf("update section approval: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
