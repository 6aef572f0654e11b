package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type mockDashboardRepo struct {
	rows        []models.FacultyEnrollment
	rowsErr     error
	options     models.DashboardOptions
	lastFilter  models.DashboardFilter
	lastFaculty string
}

func (m *mockDashboardRepo) FacultyEnrollment(ctx context.Context, filter models.DashboardFilter) ([]models.FacultyEnrollment, error) {
	m.lastFilter = filter
	return m.rows, m.rowsErr
}

func (m *mockDashboardRepo) FilterOptions(ctx context.Context, faculty string) (*models.DashboardOptions, error) {
	m.lastFaculty = faculty
	opts := m.options
	return &opts, nil
}

func TestDashboardStatsAggregatesFaculties(t *testing.T) {
	repo := &mockDashboardRepo{
		rows: []models.FacultyEnrollment{
			{Faculty: "Engineering", TotalStudents: 10, EnrolledStudents: 7},
			{Faculty: "Science", TotalStudents: 5, EnrolledStudents: 5},
		},
		options: models.DashboardOptions{
			Faculties:  []string{"Engineering", "Science"},
			YearLevels: []int{1, 2},
			Majors:     []string{"CS", "Physics"},
		},
	}
	svc := NewDashboardService(repo, nil, zap.NewNop())

	stats, err := svc.Stats(context.Background(), models.DashboardFilter{})
	require.NoError(t, err)
	require.Len(t, stats.ByFaculty, 2)
	assert.Equal(t, 3, stats.ByFaculty[0].UnenrolledStudents)
	assert.Equal(t, 0, stats.ByFaculty[1].UnenrolledStudents)
	assert.Equal(t, models.EnrollmentTotals{TotalStudents: 15, EnrolledStudents: 12, UnenrolledStudents: 3}, stats.Total)
	assert.Equal(t, []string{"Engineering", "Science"}, stats.Options.Faculties)
}

func TestDashboardStatsLabelsMissingFaculty(t *testing.T) {
	repo := &mockDashboardRepo{
		rows: []models.FacultyEnrollment{{Faculty: "", TotalStudents: 4, EnrolledStudents: 1}},
	}
	svc := NewDashboardService(repo, nil, zap.NewNop())

	stats, err := svc.Stats(context.Background(), models.DashboardFilter{})
	require.NoError(t, err)
	require.Len(t, stats.ByFaculty, 1)
	assert.Equal(t, "UNSPECIFIED", stats.ByFaculty[0].Faculty)
	assert.Equal(t, 3, stats.ByFaculty[0].UnenrolledStudents)
}

func TestDashboardStatsForwardsFilter(t *testing.T) {
	repo := &mockDashboardRepo{}
	svc := NewDashboardService(repo, nil, zap.NewNop())

	filter := models.DashboardFilter{Faculty: "Engineering", Major: "CS", YearLevel: 2}
	_, err := svc.Stats(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, filter, repo.lastFilter)
	// Major options are scoped to the selected faculty.
	assert.Equal(t, "Engineering", repo.lastFaculty)
}

func TestDashboardStatsWrapsRepoError(t *testing.T) {
	repo := &mockDashboardRepo{rowsErr: errors.New("boom")}
	svc := NewDashboardService(repo, nil, zap.NewNop())

	_, err := svc.Stats(context.Background(), models.DashboardFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
