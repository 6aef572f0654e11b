package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type courseCatalogRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListSections(ctx context.Context, courseID string) ([]models.Section, error)
	UpdateSectionApproval(ctx context.Context, courseID, sectionID string, status models.SectionApprovalStatus) error
}

// SectionApprovalRequest changes the enrollment gate on a section.
type SectionApprovalRequest struct {
	Status models.SectionApprovalStatus `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
}

// CourseService exposes the course/section catalog.
type CourseService struct {
	catalog   courseCatalogRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(catalog courseCatalogRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{catalog: catalog, cache: cache, validator: validate, logger: logger}
}

// List returns a filtered, paginated course page.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.catalog.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}

// GetDetail returns a course with all of its sections.
func (s *CourseService) GetDetail(ctx context.Context, courseID string) (*models.CourseDetail, error) {
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
	return &models.CourseDetail{Course: *course, Sections: sections}, nil
}

// UpdateSectionApproval flips the approval gate on one section and drops
// any cached seat payloads for the course.
func (s *CourseService) UpdateSectionApproval(ctx context.Context, courseID, sectionID string, req SectionApprovalRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	if err := s.catalog.UpdateSectionApproval(ctx, courseID, sectionID, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section approval")
	}

	if s.cache.Enabled() {
		if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("seats:*%s*", courseID)); err != nil {
			s.logger.Warn("failed to invalidate seat cache", zap.String("course_id", courseID), zap.Error(err))
		}
	}
	return nil
}
