package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ApplyEnrollmentTerm(ctx context.Context, id string, year, semester, yearLevel int, at time.Time) error
	PromoteCohort(ctx context.Context, from models.PromotionFilter, to models.PromotionCursor) (int, error)
	ListCohort(ctx context.Context, from models.PromotionFilter, limit int) ([]models.Student, int, error)
}

type calendarRepository interface {
	FindYear(ctx context.Context, year int) (*models.AcademicYear, error)
	FindSemester(ctx context.Context, academicYearID string, number int) (*models.AcademicSemester, error)
	LastSemesterNumber(ctx context.Context, academicYearID string) (int, error)
}

// PromoteRequest identifies the cohort to advance by one term.
type PromoteRequest struct {
	Year      int `json:"year" validate:"required,min=2000"`
	YearLevel int `json:"year_level" validate:"required,min=1,max=10"`
	Semester  int `json:"semester" validate:"required,min=1"`
}

// previewLimit caps how many students a promotion preview returns.
const previewLimit = 100

// PromotionService advances student term state. Single-student updates
// arrive via the post-enroll dispatcher; bulk promotions are an
// admin-driven operation on an exact (year, level, semester) cohort.
type PromotionService struct {
	students  studentRepository
	calendar  calendarRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPromotionService constructs PromotionService.
func NewPromotionService(students studentRepository, calendar calendarRepository, validate *validator.Validate, logger *zap.Logger) *PromotionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionService{students: students, calendar: calendar, validator: validate, logger: logger}
}

// ApplyEnrollmentTerm records the term a student just enrolled for. The
// year level bumps only when the student moves into semester 1 of a later
// academic year than the one on file; a student with no year on file yet
// keeps their level.
func (s *PromotionService) ApplyEnrollmentTerm(ctx context.Context, studentID string, year, semester int) error {
	if studentID == "" || year <= 0 || semester <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "student id, year and semester are required")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", studentID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	// When the calendar is seeded for this year the semester must exist in
	// it; an unseeded year is accepted as-is.
	if academicYear, yearErr := s.calendar.FindYear(ctx, year); yearErr == nil {
		if _, semErr := s.calendar.FindSemester(ctx, academicYear.ID, semester); semErr != nil {
			if errors.Is(semErr, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("semester %d is not defined for year %d", semester, year))
			}
			return appErrors.Wrap(semErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic calendar")
		}
	} else if !errors.Is(yearErr, sql.ErrNoRows) {
		return appErrors.Wrap(yearErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic calendar")
	}

	yearLevel := student.YearLevel
	if student.Year > 0 && semester == 1 && year > student.Year {
		yearLevel++
	}

	if err := s.students.ApplyEnrollmentTerm(ctx, studentID, year, semester, yearLevel, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student term")
	}

	s.logger.Info("student term updated",
		zap.String("student_id", studentID),
		zap.Int("year", year),
		zap.Int("semester", semester),
		zap.Int("year_level", yearLevel))
	return nil
}

// Promote advances every ACTIVE student in the named cohort by one term.
func (s *PromotionService) Promote(ctx context.Context, req PromoteRequest) (*models.PromotionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid promotion payload")
	}

	from := models.PromotionFilter{Year: req.Year, YearLevel: req.YearLevel, Semester: req.Semester}
	to, err := s.nextTerm(ctx, from)
	if err != nil {
		return nil, err
	}

	promoted, err := s.students.PromoteCohort(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote cohort")
	}

	s.logger.Info("cohort promoted",
		zap.Int("from_year", from.Year), zap.Int("from_level", from.YearLevel), zap.Int("from_semester", from.Semester),
		zap.Int("to_year", to.Year), zap.Int("to_level", to.YearLevel), zap.Int("to_semester", to.Semester),
		zap.Int("students", promoted))

	return &models.PromotionResult{
		From:             models.PromotionCursor(from),
		To:               to,
		StudentsPromoted: promoted,
	}, nil
}

// Preview lists up to 100 students a Promote call with the same payload
// would move, plus the uncapped cohort size.
func (s *PromotionService) Preview(ctx context.Context, req PromoteRequest) (*models.PromotionPreview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid promotion payload")
	}

	from := models.PromotionFilter{Year: req.Year, YearLevel: req.YearLevel, Semester: req.Semester}
	to, err := s.nextTerm(ctx, from)
	if err != nil {
		return nil, err
	}

	students, total, err := s.students.ListCohort(ctx, from, previewLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohort")
	}

	return &models.PromotionPreview{
		From:       models.PromotionCursor(from),
		To:         to,
		TotalCount: total,
		Students:   students,
	}, nil
}

// nextTerm computes the target tuple. Leaving the final semester of the
// year rolls over to semester 1 of the next year and bumps the level;
// otherwise only the semester advances.
func (s *PromotionService) nextTerm(ctx context.Context, from models.PromotionFilter) (models.PromotionCursor, error) {
	lastSemester := 2
	academicYear, err := s.calendar.FindYear(ctx, from.Year)
	switch {
	case err == nil:
		last, lastErr := s.calendar.LastSemesterNumber(ctx, academicYear.ID)
		if lastErr != nil {
			return models.PromotionCursor{}, appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic calendar")
		}
		lastSemester = last
	case errors.Is(err, sql.ErrNoRows):
		// calendar not seeded for this year, assume two semesters
	default:
		return models.PromotionCursor{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic calendar")
	}

	if from.Semester >= lastSemester {
		return models.PromotionCursor{
			Year:      from.Year + 1,
			YearLevel: from.YearLevel + 1,
			Semester:  1,
		}, nil
	}
	return models.PromotionCursor{
		Year:      from.Year,
		YearLevel: from.YearLevel,
		Semester:  from.Semester + 1,
	}, nil
}
