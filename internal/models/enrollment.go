package models

import "time"

// MembershipStatus tracks the lifecycle of a single section membership.
// ENROLLED is the initial state; COMPLETED and DROPPED are terminal.
type MembershipStatus string

const (
	MembershipStatusEnrolled  MembershipStatus = "ENROLLED"
	MembershipStatusCompleted MembershipStatus = "COMPLETED"
	MembershipStatusDropped   MembershipStatus = "DROPPED"
)

// Membership is one student's seat in one section. The
// (student, course, section) key is unique; a student's enrollment record
// is the set of their membership rows grouped by course.
type Membership struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	SectionID  string           `db:"section_id" json:"section_id"`
	Status     MembershipStatus `db:"status" json:"status"`
	Grade      *string          `db:"grade" json:"grade,omitempty"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentRecord is the per-student view assembled from membership rows.
type EnrollmentRecord struct {
	StudentID string                   `json:"student_id"`
	Courses   []EnrollmentRecordCourse `json:"courses"`
}

// EnrollmentRecordCourse groups a student's memberships under a course.
type EnrollmentRecordCourse struct {
	CourseID string       `json:"course_id"`
	Sections []Membership `json:"sections"`
}

// AvailabilityReport is the live seat picture for one section. Enrolled is
// always recomputed from the membership table, never read from the cached
// counters.
type AvailabilityReport struct {
	CourseID       string                `json:"course_id"`
	SectionID      string                `json:"section_id"`
	SectionNumber  string                `json:"section_number"`
	Capacity       int                   `json:"capacity"`
	Enrolled       int                   `json:"enrolled"`
	Available      int                   `json:"available"`
	IsFull         bool                  `json:"is_full"`
	ApprovalStatus SectionApprovalStatus `json:"approval_status"`
}

// SyncSectionResult reports the counters after one section recompute.
type SyncSectionResult struct {
	CourseID  string `json:"course_id"`
	SectionID string `json:"section_id"`
	Enrolled  int    `json:"enrolled"`
	Available int    `json:"available"`
	Capacity  int    `json:"capacity"`
}

// SyncError records a per-section failure during a sync pass.
type SyncError struct {
	CourseID  string `json:"course_id"`
	SectionID string `json:"section_id"`
	Error     string `json:"error"`
}

// SyncReport summarises a full sync pass. The pass never aborts on a
// per-section failure; failures are collected here instead.
type SyncReport struct {
	SyncedSections int         `json:"synced_sections"`
	Errors         []SyncError `json:"errors,omitempty"`
}

// SectionStats is the occupancy report row for one section.
type SectionStats struct {
	SectionID      string                `json:"section_id"`
	SectionNumber  string                `json:"section_number"`
	Type           SectionType           `json:"type"`
	ApprovalStatus SectionApprovalStatus `json:"approval_status"`
	Capacity       int                   `json:"capacity"`
	Enrolled       int                   `json:"enrolled"`
	Available      int                   `json:"available"`
	PercentFull    float64               `json:"percent_full"`
	IsFull         bool                  `json:"is_full"`
}

// CourseStats aggregates occupancy across every section of a course.
type CourseStats struct {
	CourseID       string         `json:"course_id"`
	CourseCode     string         `json:"course_code"`
	CourseName     string         `json:"course_name"`
	TotalSections  int            `json:"total_sections"`
	TotalCapacity  int            `json:"total_capacity"`
	TotalEnrolled  int            `json:"total_enrolled"`
	TotalAvailable int            `json:"total_available"`
	PercentFull    float64        `json:"percent_full"`
	Sections       []SectionStats `json:"sections"`
}

// StudentEnrollmentSection is a section membership joined with live seat
// context for the my-enrollments view.
type StudentEnrollmentSection struct {
	SectionID        string           `json:"section_id"`
	SectionNumber    string           `json:"section_number"`
	Type             SectionType      `json:"type"`
	TeacherID        *string          `json:"teacher_id,omitempty"`
	EnrollmentStatus MembershipStatus `json:"enrollment_status"`
	Grade            *string          `json:"grade,omitempty"`
	Capacity         int              `json:"capacity"`
	EnrolledCount    int              `json:"enrolled_count"`
	AvailableSeats   int              `json:"available_seats"`
}

// StudentEnrollmentCourse is a course entry in the my-enrollments view.
type StudentEnrollmentCourse struct {
	CourseID    string                     `json:"course_id"`
	CourseCode  string                     `json:"course_code"`
	Name        string                     `json:"name"`
	CreditTotal int                        `json:"credit_total"`
	Year        int                        `json:"year"`
	Semester    int                        `json:"semester"`
	Sections    []StudentEnrollmentSection `json:"sections"`
}

// StudentEnrollments is the populated my-enrollments response.
type StudentEnrollments struct {
	StudentID    string                    `json:"student_id"`
	TotalCourses int                       `json:"total_courses"`
	TotalCredits int                       `json:"total_credits"`
	Courses      []StudentEnrollmentCourse `json:"courses"`
}

// DashboardFilter narrows the registration dashboard to a slice of the
// student body. Zero values leave the dimension unfiltered.
type DashboardFilter struct {
	Faculty   string
	Major     string
	YearLevel int
}

// FacultyEnrollment counts one faculty's students split by whether they
// hold at least one membership row.
type FacultyEnrollment struct {
	Faculty            string `db:"faculty" json:"faculty"`
	TotalStudents      int    `db:"total_students" json:"total_students"`
	EnrolledStudents   int    `db:"enrolled_students" json:"enrolled_students"`
	UnenrolledStudents int    `db:"-" json:"unenrolled_students"`
}

// EnrollmentTotals aggregates the faculty rows of a dashboard response.
type EnrollmentTotals struct {
	TotalStudents      int `json:"total_students"`
	EnrolledStudents   int `json:"enrolled_students"`
	UnenrolledStudents int `json:"unenrolled_students"`
}

// DashboardOptions feeds the dashboard filter dropdowns.
type DashboardOptions struct {
	Faculties  []string `json:"faculties"`
	YearLevels []int    `json:"year_levels"`
	Majors     []string `json:"majors"`
}

// DashboardStats is the admin registration overview.
type DashboardStats struct {
	Total     EnrollmentTotals    `json:"total"`
	ByFaculty []FacultyEnrollment `json:"by_faculty"`
	Options   DashboardOptions    `json:"options"`
}
