package models

import "time"

// AcademicYear is one academic year with its semesters.
type AcademicYear struct {
	ID        string    `db:"id" json:"id"`
	Year      int       `db:"year" json:"year"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicSemester is a semester within an academic year.
type AcademicSemester struct {
	ID             string     `db:"id" json:"id"`
	AcademicYearID string     `db:"academic_year_id" json:"academic_year_id"`
	SemesterNumber int        `db:"semester_number" json:"semester_number"`
	StartDate      *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
}
