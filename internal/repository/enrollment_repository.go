package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courseflow-api/internal/models"
)

// EnrollmentRepository persists section memberships, the keyed mapping
// (student_id, course_id, section_id) -> membership that makes up each
// student's enrollment record.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const membershipColumns = `id, student_id, course_id, section_id, status, grade, enrolled_at`

// CountBySection returns the live membership count for a section. Every
// membership row counts regardless of status; a DROPPED membership stops
// counting only once its row is removed.
func (r *EnrollmentRepository) CountBySection(ctx context.Context, courseID, sectionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollment_memberships WHERE course_id = $1 AND section_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID, sectionID); err != nil {
		return 0, fmt.Errorf("count section memberships: %w", err)
	}
	return count, nil
}

// Exists reports whether the student already holds this exact
// (course, section) membership.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, courseID, sectionID string) (bool, error) {
	const query = `SELECT 1 FROM enrollment_memberships
        WHERE student_id = $1 AND course_id = $2 AND section_id = $3 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, studentID, courseID, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// Create persists a new membership row.
func (r *EnrollmentRepository) Create(ctx context.Context, membership *models.Membership) error {
	if membership.ID == "" {
		membership.ID = uuid.NewString()
	}
	if membership.EnrolledAt.IsZero() {
		membership.EnrolledAt = time.Now().UTC()
	}
	if membership.Status == "" {
		membership.Status = models.MembershipStatusEnrolled
	}
	const query = `INSERT INTO enrollment_memberships (id, student_id, course_id, section_id, status, grade, enrolled_at)
        VALUES (:id, :student_id, :course_id, :section_id, :status, :grade, :enrolled_at)`
	if _, err := r.db.NamedExecContext(ctx, query, membership); err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

// Delete removes a membership row, returning whether a row was removed.
// Removing the last membership of a course prunes the course entry for
// free: the record view only materialises courses that still have rows.
func (r *EnrollmentRepository) Delete(ctx context.Context, studentID, courseID, sectionID string) (bool, error) {
	const query = `DELETE FROM enrollment_memberships
        WHERE student_id = $1 AND course_id = $2 AND section_id = $3`
	res, err := r.db.ExecContext(ctx, query, studentID, courseID, sectionID)
	if err != nil {
		return false, fmt.Errorf("delete membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete membership: %w", err)
	}
	return affected > 0, nil
}

// UpdateStatus transitions a membership to a terminal status without
// removing the row.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, studentID, courseID, sectionID string, status models.MembershipStatus, grade *string) error {
	const query = `UPDATE enrollment_memberships SET status = $4, grade = $5
        WHERE student_id = $1 AND course_id = $2 AND section_id = $3`
	res, err := r.db.ExecContext(ctx, query, studentID, courseID, sectionID, status, grade)
	if err != nil {
		return fmt.Errorf("update membership status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByStudent returns all of a student's membership rows in enrollment
// order.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Membership, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollment_memberships WHERE student_id = $1 ORDER BY enrolled_at, course_id`, membershipColumns)
	var memberships []models.Membership
	if err := r.db.SelectContext(ctx, &memberships, query, studentID); err != nil {
		return nil, fmt.Errorf("list student memberships: %w", err)
	}
	return memberships, nil
}

// ListAll returns every membership row ordered by student. Used by the
// admin records listing.
func (r *EnrollmentRepository) ListAll(ctx context.Context) ([]models.Membership, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollment_memberships ORDER BY student_id, enrolled_at`, membershipColumns)
	var memberships []models.Membership
	if err := r.db.SelectContext(ctx, &memberships, query); err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return memberships, nil
}
