package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type dashboardRepository interface {
	FacultyEnrollment(ctx context.Context, filter models.DashboardFilter) ([]models.FacultyEnrollment, error)
	FilterOptions(ctx context.Context, faculty string) (*models.DashboardOptions, error)
}

// facultyUnlabelled is the bucket for students with no faculty on file.
const facultyUnlabelled = "UNSPECIFIED"

// DashboardService assembles the admin registration overview: per-faculty
// student counts split by enrollment state, plus the filter dropdown
// options.
type DashboardService struct {
	students dashboardRepository
	cache    *CacheService
	logger   *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(students dashboardRepository, cache *CacheService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{students: students, cache: cache, logger: logger}
}

// Stats returns per-faculty totals for the filtered student body. A
// student counts as enrolled while they hold at least one membership row.
func (s *DashboardService) Stats(ctx context.Context, filter models.DashboardFilter) (*models.DashboardStats, error) {
	cacheKey := fmt.Sprintf("seats:dashboard:%s:%s:%d", filter.Faculty, filter.Major, filter.YearLevel)
	if s.cache.Enabled() {
		var cached models.DashboardStats
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	rows, err := s.students.FacultyEnrollment(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate enrollment stats")
	}

	stats := &models.DashboardStats{ByFaculty: make([]models.FacultyEnrollment, 0, len(rows))}
	for _, row := range rows {
		if row.Faculty == "" {
			row.Faculty = facultyUnlabelled
		}
		row.UnenrolledStudents = row.TotalStudents - row.EnrolledStudents
		stats.ByFaculty = append(stats.ByFaculty, row)
		stats.Total.TotalStudents += row.TotalStudents
		stats.Total.EnrolledStudents += row.EnrolledStudents
		stats.Total.UnenrolledStudents += row.UnenrolledStudents
	}

	options, err := s.students.FilterOptions(ctx, filter.Faculty)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list filter options")
	}
	stats.Options = *options

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cache.StatsTTL()); err != nil {
			s.logger.Warn("failed to cache dashboard stats", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return stats, nil
}
