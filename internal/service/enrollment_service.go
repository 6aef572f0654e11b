package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type membershipRepository interface {
	CountBySection(ctx context.Context, courseID, sectionID string) (int, error)
	Exists(ctx context.Context, studentID, courseID, sectionID string) (bool, error)
	Create(ctx context.Context, membership *models.Membership) error
	Delete(ctx context.Context, studentID, courseID, sectionID string) (bool, error)
	UpdateStatus(ctx context.Context, studentID, courseID, sectionID string, status models.MembershipStatus, grade *string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Membership, error)
	ListAll(ctx context.Context) ([]models.Membership, error)
}

type catalogRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindSection(ctx context.Context, courseID, sectionID string) (*models.Section, error)
	ListSections(ctx context.Context, courseID string) ([]models.Section, error)
	ListAllSections(ctx context.Context) ([]models.Section, error)
	ReserveSeat(ctx context.Context, sectionID string) error
	ReleaseSeat(ctx context.Context, sectionID string) error
	SetSectionCounters(ctx context.Context, sectionID string, enrolled, available int) error
}

// promotionDispatcher hands the post-enroll term update to a background
// worker. Dispatch failures are the dispatcher's problem, never the
// enroll caller's.
type promotionDispatcher interface {
	DispatchEnrollmentTerm(studentID string, year, semester int) error
}

// EnrollSectionRequest names one section within an enroll payload.
type EnrollSectionRequest struct {
	SectionID string                  `json:"section_id" validate:"required"`
	Status    models.MembershipStatus `json:"status,omitempty"`
}

// EnrollCourseRequest names a course and its requested sections.
type EnrollCourseRequest struct {
	CourseID string                 `json:"course_id" validate:"required"`
	Sections []EnrollSectionRequest `json:"sections" validate:"required,min=1,dive"`
}

// EnrollRequest is the enroll payload. Year and Semester are optional;
// when both are present the promotion engine is notified after success.
type EnrollRequest struct {
	StudentID string                `json:"student_id" validate:"required"`
	Year      int                   `json:"year,omitempty"`
	Semester  int                   `json:"semester,omitempty"`
	Courses   []EnrollCourseRequest `json:"courses" validate:"required,min=1,dive"`
}

// UnenrollRequest removes one section membership.
type UnenrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
}

// MembershipStatusRequest transitions a membership without removing it.
// The seat stays counted: only row removal frees a seat.
type MembershipStatusRequest struct {
	StudentID string                  `json:"student_id" validate:"required"`
	CourseID  string                  `json:"course_id" validate:"required"`
	SectionID string                  `json:"section_id" validate:"required"`
	Status    models.MembershipStatus `json:"status" validate:"required,oneof=ENROLLED COMPLETED DROPPED"`
	Grade     *string                 `json:"grade,omitempty"`
}

// EnrollmentService owns the enroll/unenroll/sync workflow. It is the only
// component that creates or removes memberships and moves section seat
// counters outside of a sync recompute.
type EnrollmentService struct {
	memberships membershipRepository
	catalog     catalogRepository
	promotions  promotionDispatcher
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(memberships membershipRepository, catalog catalogRepository, promotions promotionDispatcher, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{memberships: memberships, catalog: catalog, promotions: promotions, cache: cache, validator: validate, logger: logger}
}

// Enroll registers a student into the requested sections, in request
// order. The first failing pair aborts the call; earlier pairs stay
// committed (there is no multi-document transaction to roll back). The
// seat decision is taken against the live membership count, not the cached
// section counters.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	for _, courseReq := range req.Courses {
		course, err := s.catalog.FindByID(ctx, courseReq.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseReq.CourseID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}

		for _, sectionReq := range courseReq.Sections {
			section, err := s.catalog.FindSection(ctx, course.ID, sectionReq.SectionID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", sectionReq.SectionID))
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
			}

			enrolled, err := s.memberships.CountBySection(ctx, course.ID, section.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
			}
			available := section.OriginalCapacity - enrolled
			if available <= 0 {
				return nil, appErrors.Clone(appErrors.ErrSectionFull,
					fmt.Sprintf("section %s is full (%d/%d)", section.SectionNumber, enrolled, section.OriginalCapacity))
			}
			if section.ApprovalStatus != "" && section.ApprovalStatus != models.SectionApprovalApproved {
				return nil, appErrors.Clone(appErrors.ErrSectionNotApproved,
					fmt.Sprintf("section %s not approved", section.SectionNumber))
			}

			exists, err := s.memberships.Exists(ctx, req.StudentID, course.ID, section.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled,
					fmt.Sprintf("already enrolled in section %s", section.SectionNumber))
			}

			status := sectionReq.Status
			if status == "" {
				status = models.MembershipStatusEnrolled
			}
			membership := &models.Membership{
				StudentID:  req.StudentID,
				CourseID:   course.ID,
				SectionID:  section.ID,
				Status:     status,
				EnrolledAt: time.Now().UTC(),
			}
			if err := s.memberships.Create(ctx, membership); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
			}
			if err := s.catalog.ReserveSeat(ctx, section.ID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section seats")
			}
			s.invalidateSeatCache(ctx, course.ID)
		}
	}

	if req.Year > 0 && req.Semester > 0 && s.promotions != nil {
		if err := s.promotions.DispatchEnrollmentTerm(req.StudentID, req.Year, req.Semester); err != nil {
			s.logger.Warn("promotion dispatch failed",
				zap.String("student_id", req.StudentID),
				zap.Int("year", req.Year),
				zap.Int("semester", req.Semester),
				zap.Error(err))
		}
	}

	return s.buildRecord(ctx, req.StudentID)
}

// Unenroll removes one section membership. The membership delete is the
// primary mutation; the seat counter release is best effort once the row
// is gone.
func (s *EnrollmentService) Unenroll(ctx context.Context, req UnenrollRequest) (*models.EnrollmentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unenroll payload")
	}

	removed, err := s.memberships.Delete(ctx, req.StudentID, req.CourseID, req.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove enrollment")
	}
	if !removed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}

	if err := s.catalog.ReleaseSeat(ctx, req.SectionID); err != nil {
		s.logger.Warn("failed to release section seat",
			zap.String("course_id", req.CourseID),
			zap.String("section_id", req.SectionID),
			zap.Error(err))
	}
	s.invalidateSeatCache(ctx, req.CourseID)

	return s.buildRecord(ctx, req.StudentID)
}

// UpdateMembershipStatus moves a membership between lifecycle states,
// optionally recording a grade.
func (s *EnrollmentService) UpdateMembershipStatus(ctx context.Context, req MembershipStatusRequest) (*models.EnrollmentRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	if err := s.memberships.UpdateStatus(ctx, req.StudentID, req.CourseID, req.SectionID, req.Status, req.Grade); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	return s.buildRecord(ctx, req.StudentID)
}

// CheckAvailability reports the live seat picture for a section. The
// enrolled figure is always recomputed from memberships; the cached
// counters are never trusted here.
func (s *EnrollmentService) CheckAvailability(ctx context.Context, courseID, sectionID string) (*models.AvailabilityReport, error) {
	cacheKey := fmt.Sprintf("seats:availability:%s:%s", courseID, sectionID)
	if s.cache.Enabled() {
		var cached models.AvailabilityReport
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	section, err := s.loadSection(ctx, courseID, sectionID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.memberships.CountBySection(ctx, courseID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}

	available := section.OriginalCapacity - enrolled
	if available < 0 {
		available = 0
	}
	report := &models.AvailabilityReport{
		CourseID:       courseID,
		SectionID:      sectionID,
		SectionNumber:  section.SectionNumber,
		Capacity:       section.OriginalCapacity,
		Enrolled:       enrolled,
		Available:      available,
		IsFull:         enrolled >= section.OriginalCapacity,
		ApprovalStatus: section.ApprovalStatus,
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, report, s.cache.AvailabilityTTL()); err != nil {
			s.logger.Warn("failed to cache availability", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return report, nil
}

// SyncOne recomputes one section's counters from the membership table.
// Idempotent: with no intervening writes a second call lands on the same
// numbers, and enrolled + available always equals the original capacity
// afterwards.
func (s *EnrollmentService) SyncOne(ctx context.Context, courseID, sectionID string) (*models.SyncSectionResult, error) {
	if _, err := s.catalog.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	section, err := s.loadSection(ctx, courseID, sectionID)
	if err != nil {
		return nil, err
	}

	result, err := s.recomputeSection(ctx, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync section seats")
	}
	s.invalidateSeatCache(ctx, courseID)
	return result, nil
}

// SyncAll recomputes every section of every course. Per-section failures
// are collected, never fatal to the pass.
func (s *EnrollmentService) SyncAll(ctx context.Context) (*models.SyncReport, error) {
	sections, err := s.catalog.ListAllSections(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}

	report := &models.SyncReport{}
	for i := range sections {
		section := sections[i]
		if _, err := s.recomputeSection(ctx, &section); err != nil {
			report.Errors = append(report.Errors, models.SyncError{
				CourseID:  section.CourseID,
				SectionID: section.ID,
				Error:     err.Error(),
			})
			continue
		}
		report.SyncedSections++
	}

	if s.cache.Enabled() {
		if err := s.cache.DeleteByPattern(ctx, "seats:*"); err != nil {
			s.logger.Warn("failed to invalidate seat cache", zap.Error(err))
		}
	}
	return report, nil
}

// Stats builds the per-section occupancy report for a course, recomputing
// every enrolled figure live.
func (s *EnrollmentService) Stats(ctx context.Context, courseID string) (*models.CourseStats, error) {
	cacheKey := fmt.Sprintf("seats:stats:%s", courseID)
	if s.cache.Enabled() {
		var cached models.CourseStats
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	course, err := s.catalog.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	sections, err := s.catalog.ListSections(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}

	stats := &models.CourseStats{
		CourseID:      course.ID,
		CourseCode:    course.Code,
		CourseName:    course.Name,
		TotalSections: len(sections),
		Sections:      make([]models.SectionStats, 0, len(sections)),
	}

	for _, section := range sections {
		enrolled, err := s.memberships.CountBySection(ctx, courseID, section.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
		}
		available := section.OriginalCapacity - enrolled
		flooredAvailable := available
		if flooredAvailable < 0 {
			flooredAvailable = 0
		}
		percent := 0.0
		if section.OriginalCapacity > 0 {
			percent = round2(float64(enrolled) / float64(section.OriginalCapacity) * 100)
		}
		stats.Sections = append(stats.Sections, models.SectionStats{
			SectionID:      section.ID,
			SectionNumber:  section.SectionNumber,
			Type:           section.Type,
			ApprovalStatus: section.ApprovalStatus,
			Capacity:       section.OriginalCapacity,
			Enrolled:       enrolled,
			Available:      flooredAvailable,
			PercentFull:    percent,
			IsFull:         available <= 0,
		})
		stats.TotalCapacity += section.OriginalCapacity
		stats.TotalEnrolled += enrolled
	}

	stats.TotalAvailable = stats.TotalCapacity - stats.TotalEnrolled
	if stats.TotalAvailable < 0 {
		stats.TotalAvailable = 0
	}
	if stats.TotalCapacity > 0 {
		stats.PercentFull = round2(float64(stats.TotalEnrolled) / float64(stats.TotalCapacity) * 100)
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cache.StatsTTL()); err != nil {
			s.logger.Warn("failed to cache stats", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return stats, nil
}

// MyEnrollments returns the student's populated course/section list with
// seat context. An empty record is a valid, zeroed response.
func (s *EnrollmentService) MyEnrollments(ctx context.Context, studentID string) (*models.StudentEnrollments, error) {
	memberships, err := s.memberships.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	result := &models.StudentEnrollments{StudentID: studentID, Courses: []models.StudentEnrollmentCourse{}}
	if len(memberships) == 0 {
		return result, nil
	}

	grouped := groupByCourse(memberships)
	for _, group := range grouped {
		course, err := s.catalog.FindByID(ctx, group.courseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}

		courseEntry := models.StudentEnrollmentCourse{
			CourseID:    course.ID,
			CourseCode:  course.Code,
			Name:        course.Name,
			CreditTotal: course.CreditTotal,
			Year:        course.Year,
			Semester:    course.Semester,
		}
		for _, membership := range group.memberships {
			section, err := s.catalog.FindSection(ctx, course.ID, membership.SectionID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
			}
			availableSeats := section.OriginalCapacity - section.EnrolledCount
			if availableSeats < 0 {
				availableSeats = 0
			}
			courseEntry.Sections = append(courseEntry.Sections, models.StudentEnrollmentSection{
				SectionID:        section.ID,
				SectionNumber:    section.SectionNumber,
				Type:             section.Type,
				TeacherID:        section.TeacherID,
				EnrollmentStatus: membership.Status,
				Grade:            membership.Grade,
				Capacity:         section.OriginalCapacity,
				EnrolledCount:    section.EnrolledCount,
				AvailableSeats:   availableSeats,
			})
		}
		if len(courseEntry.Sections) == 0 {
			continue
		}
		result.Courses = append(result.Courses, courseEntry)
		result.TotalCredits += course.CreditTotal
	}

	result.TotalCourses = len(result.Courses)
	return result, nil
}

// ListRecords returns every enrollment record grouped per student.
func (s *EnrollmentService) ListRecords(ctx context.Context) ([]models.EnrollmentRecord, error) {
	memberships, err := s.memberships.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	byStudent := make(map[string][]models.Membership)
	var order []string
	for _, membership := range memberships {
		if _, seen := byStudent[membership.StudentID]; !seen {
			order = append(order, membership.StudentID)
		}
		byStudent[membership.StudentID] = append(byStudent[membership.StudentID], membership)
	}

	records := make([]models.EnrollmentRecord, 0, len(order))
	for _, studentID := range order {
		records = append(records, assembleRecord(studentID, byStudent[studentID]))
	}
	return records, nil
}

func (s *EnrollmentService) buildRecord(ctx context.Context, studentID string) (*models.EnrollmentRecord, error) {
	memberships, err := s.memberships.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment record")
	}
	record := assembleRecord(studentID, memberships)
	return &record, nil
}

func (s *EnrollmentService) loadSection(ctx context.Context, courseID, sectionID string) (*models.Section, error) {
	section, err := s.catalog.FindSection(ctx, courseID, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

func (s *EnrollmentService) recomputeSection(ctx context.Context, section *models.Section) (*models.SyncSectionResult, error) {
	enrolled, err := s.memberships.CountBySection(ctx, section.CourseID, section.ID)
	if err != nil {
		return nil, err
	}
	available := section.OriginalCapacity - enrolled
	if err := s.catalog.SetSectionCounters(ctx, section.ID, enrolled, available); err != nil {
		return nil, err
	}
	return &models.SyncSectionResult{
		CourseID:  section.CourseID,
		SectionID: section.ID,
		Enrolled:  enrolled,
		Available: available,
		Capacity:  section.OriginalCapacity,
	}, nil
}

func (s *EnrollmentService) invalidateSeatCache(ctx context.Context, courseID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("seats:*%s*", courseID)); err != nil {
		s.logger.Warn("failed to invalidate seat cache", zap.String("course_id", courseID), zap.Error(err))
	}
}

type courseGroup struct {
	courseID    string
	memberships []models.Membership
}

func groupByCourse(memberships []models.Membership) []courseGroup {
	var groups []courseGroup
	index := make(map[string]int)
	for _, membership := range memberships {
		i, ok := index[membership.CourseID]
		if !ok {
			i = len(groups)
			index[membership.CourseID] = i
			groups = append(groups, courseGroup{courseID: membership.CourseID})
		}
		groups[i].memberships = append(groups[i].memberships, membership)
	}
	return groups
}

func assembleRecord(studentID string, memberships []models.Membership) models.EnrollmentRecord {
	record := models.EnrollmentRecord{StudentID: studentID, Courses: []models.EnrollmentRecordCourse{}}
	for _, group := range groupByCourse(memberships) {
		record.Courses = append(record.Courses, models.EnrollmentRecordCourse{
			CourseID: group.courseID,
			Sections: group.memberships,
		})
	}
	return record
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
