package models

import "time"

// StudentStatus represents the academic standing of a student.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "ACTIVE"
	StudentStatusGraduated StudentStatus = "GRADUATED"
	StudentStatusSuspended StudentStatus = "SUSPENDED"
	StudentStatusDropped   StudentStatus = "DROPPED"
)

// Student carries the registration profile attached to a user with the
// STUDENT role. Year is the academic year the student last registered in,
// YearLevel the cohort level advanced by the promotion engine.
type Student struct {
	ID               string        `db:"id" json:"id"`
	StudentNo        string        `db:"student_no" json:"student_no"`
	FullName         string        `db:"full_name" json:"full_name"`
	Faculty          string        `db:"faculty" json:"faculty"`
	Major            string        `db:"major" json:"major"`
	Year             int           `db:"year" json:"year"`
	YearLevel        int           `db:"year_level" json:"year_level"`
	Semester         int           `db:"semester" json:"semester"`
	Status           StudentStatus `db:"status" json:"status"`
	AdvisorID        *string       `db:"advisor_id" json:"advisor_id,omitempty"`
	LastEnrollmentAt *time.Time    `db:"last_enrollment_at" json:"last_enrollment_at,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// PromotionFilter identifies the exact cohort a bulk promotion targets.
type PromotionFilter struct {
	Year      int
	YearLevel int
	Semester  int
}

// PromotionResult summarises a bulk promotion run.
type PromotionResult struct {
	From             PromotionCursor `json:"from"`
	To               PromotionCursor `json:"to"`
	StudentsPromoted int             `json:"students_promoted"`
}

// PromotionCursor names a (year, year level, semester) tuple.
type PromotionCursor struct {
	Year      int `json:"year"`
	YearLevel int `json:"year_level"`
	Semester  int `json:"semester"`
}

// PromotionPreview lists the students a promotion run would affect.
type PromotionPreview struct {
	From       PromotionCursor `json:"from"`
	To         PromotionCursor `json:"to"`
	TotalCount int             `json:"total_count"`
	Students   []Student       `json:"students"`
}
