package models

import "time"

// SectionType distinguishes lecture and lab offerings.
type SectionType string

const (
	SectionTypeLecture SectionType = "LECTURE"
	SectionTypeLab     SectionType = "LAB"
)

// SectionApprovalStatus gates which sections accept enrollments.
type SectionApprovalStatus string

const (
	SectionApprovalPending  SectionApprovalStatus = "PENDING"
	SectionApprovalApproved SectionApprovalStatus = "APPROVED"
	SectionApprovalRejected SectionApprovalStatus = "REJECTED"
)

// Course is a catalog entry owning one or more sections.
type Course struct {
	ID              string    `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	CreditTheory    int       `db:"credit_theory" json:"credit_theory"`
	CreditPractice  int       `db:"credit_practice" json:"credit_practice"`
	CreditSelfStudy int       `db:"credit_self_study" json:"credit_self_study"`
	CreditTotal     int       `db:"credit_total" json:"credit_total"`
	Faculty         string    `db:"faculty" json:"faculty"`
	Major           string    `db:"major" json:"major"`
	Year            int       `db:"year" json:"year"`
	Semester        int       `db:"semester" json:"semester"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Section is a schedulable offering of a course with its own seat
// counters. OriginalCapacity is fixed at creation; AvailableCapacity and
// EnrolledCount are cached counters kept consistent with the membership
// table by the enrollment engine and repaired by Sync when they drift.
type Section struct {
	ID                string                `db:"id" json:"id"`
	CourseID          string                `db:"course_id" json:"course_id"`
	SectionNumber     string                `db:"section_number" json:"section_number"`
	Type              SectionType           `db:"type" json:"type"`
	TeacherID         *string               `db:"teacher_id" json:"teacher_id,omitempty"`
	OriginalCapacity  int                   `db:"original_capacity" json:"original_capacity"`
	AvailableCapacity int                   `db:"available_capacity" json:"available_capacity"`
	EnrolledCount     int                   `db:"enrolled_count" json:"enrolled_count"`
	ApprovalStatus    SectionApprovalStatus `db:"approval_status" json:"approval_status"`
	LinkedSection     *string               `db:"linked_section" json:"linked_section,omitempty"`
	CreatedAt         time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time             `db:"updated_at" json:"updated_at"`
}

// CourseDetail bundles a course with its sections for catalog responses.
type CourseDetail struct {
	Course
	Sections []Section `json:"sections"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Faculty   string
	Major     string
	Year      int
	Semester  int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
