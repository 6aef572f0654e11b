package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/pkg/config"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type mockMembershipRepo struct {
	rows        []models.Membership
	countErrFor map[string]error
	createErr   error
	statusErr   error
}

func pairKey(courseID, sectionID string) string {
	return courseID + "|" + sectionID
}

func (m *mockMembershipRepo) CountBySection(ctx context.Context, courseID, sectionID string) (int, error) {
	if err := m.countErrFor[pairKey(courseID, sectionID)]; err != nil {
		return 0, err
	}
	count := 0
	for _, row := range m.rows {
		if row.CourseID == courseID && row.SectionID == sectionID {
			count++
		}
	}
	return count, nil
}

func (m *mockMembershipRepo) Exists(ctx context.Context, studentID, courseID, sectionID string) (bool, error) {
	for _, row := range m.rows {
		if row.StudentID == studentID && row.CourseID == courseID && row.SectionID == sectionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMembershipRepo) Create(ctx context.Context, membership *models.Membership) error {
	if m.createErr != nil {
		return m.createErr
	}
	if membership.ID == "" {
		membership.ID = fmt.Sprintf("m%d", len(m.rows)+1)
	}
	m.rows = append(m.rows, *membership)
	return nil
}

func (m *mockMembershipRepo) Delete(ctx context.Context, studentID, courseID, sectionID string) (bool, error) {
	for i, row := range m.rows {
		if row.StudentID == studentID && row.CourseID == courseID && row.SectionID == sectionID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMembershipRepo) UpdateStatus(ctx context.Context, studentID, courseID, sectionID string, status models.MembershipStatus, grade *string) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	for i, row := range m.rows {
		if row.StudentID == studentID && row.CourseID == courseID && row.SectionID == sectionID {
			m.rows[i].Status = status
			m.rows[i].Grade = grade
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockMembershipRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Membership, error) {
	var result []models.Membership
	for _, row := range m.rows {
		if row.StudentID == studentID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *mockMembershipRepo) ListAll(ctx context.Context) ([]models.Membership, error) {
	return append([]models.Membership(nil), m.rows...), nil
}

type mockCatalogRepo struct {
	courses    map[string]models.Course
	sections   map[string]models.Section
	reserved   []string
	released   []string
	setCalls   map[string][2]int
	reserveErr error
	releaseErr error
	setErr     error
}

func (m *mockCatalogRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := m.courses[id]; ok {
		return &course, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalogRepo) FindSection(ctx context.Context, courseID, sectionID string) (*models.Section, error) {
	if section, ok := m.sections[sectionID]; ok && section.CourseID == courseID {
		return &section, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCatalogRepo) ListSections(ctx context.Context, courseID string) ([]models.Section, error) {
	var result []models.Section
	for _, section := range m.sections {
		if section.CourseID == courseID {
			result = append(result, section)
		}
	}
	return result, nil
}

func (m *mockCatalogRepo) ListAllSections(ctx context.Context) ([]models.Section, error) {
	var result []models.Section
	for _, section := range m.sections {
		result = append(result, section)
	}
	return result, nil
}

func (m *mockCatalogRepo) ReserveSeat(ctx context.Context, sectionID string) error {
	if m.reserveErr != nil {
		return m.reserveErr
	}
	m.reserved = append(m.reserved, sectionID)
	return nil
}

func (m *mockCatalogRepo) ReleaseSeat(ctx context.Context, sectionID string) error {
	if m.releaseErr != nil {
		return m.releaseErr
	}
	m.released = append(m.released, sectionID)
	return nil
}

func (m *mockCatalogRepo) SetSectionCounters(ctx context.Context, sectionID string, enrolled, available int) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.setCalls == nil {
		m.setCalls = make(map[string][2]int)
	}
	m.setCalls[sectionID] = [2]int{enrolled, available}
	if section, ok := m.sections[sectionID]; ok {
		section.EnrolledCount = enrolled
		section.AvailableCapacity = available
		m.sections[sectionID] = section
	}
	return nil
}

type mockDispatcher struct {
	calls []string
	err   error
}

func (m *mockDispatcher) DispatchEnrollmentTerm(studentID string, year, semester int) error {
	m.calls = append(m.calls, fmt.Sprintf("%s:%d:%d", studentID, year, semester))
	return m.err
}

func newTestCatalog() *mockCatalogRepo {
	return &mockCatalogRepo{
		courses: map[string]models.Course{
			"c1": {ID: "c1", Code: "CS101", Name: "Intro", CreditTotal: 3, Year: 2026, Semester: 1},
		},
		sections: map[string]models.Section{
			"s1": {ID: "s1", CourseID: "c1", SectionNumber: "A", Type: models.SectionTypeLecture,
				OriginalCapacity: 2, AvailableCapacity: 2, ApprovalStatus: models.SectionApprovalApproved},
		},
	}
}

func newEnrollmentService(memberships *mockMembershipRepo, catalog *mockCatalogRepo, dispatcher *mockDispatcher) *EnrollmentService {
	cache := NewCacheService(nil, config.CacheConfig{}, nil)
	return NewEnrollmentService(memberships, catalog, dispatcher, cache, validator.New(), zap.NewNop())
}

func enrollReq(studentID string) EnrollRequest {
	return EnrollRequest{
		StudentID: studentID,
		Courses: []EnrollCourseRequest{
			{CourseID: "c1", Sections: []EnrollSectionRequest{{SectionID: "s1"}}},
		},
	}
}

func TestEnrollCreatesMembershipAndReservesSeat(t *testing.T) {
	memberships := &mockMembershipRepo{}
	catalog := newTestCatalog()
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	record, err := svc.Enroll(context.Background(), enrollReq("stu1"))
	require.NoError(t, err)
	require.Len(t, record.Courses, 1)
	assert.Equal(t, "c1", record.Courses[0].CourseID)
	require.Len(t, record.Courses[0].Sections, 1)
	assert.Equal(t, models.MembershipStatusEnrolled, record.Courses[0].Sections[0].Status)
	assert.Equal(t, []string{"s1"}, catalog.reserved)
}

func TestEnrollLastSeatThenFull(t *testing.T) {
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "other", CourseID: "c1", SectionID: "s1", Status: models.MembershipStatusEnrolled},
	}}
	catalog := newTestCatalog()
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	// One seat left out of two.
	_, err := svc.Enroll(context.Background(), enrollReq("stu1"))
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), enrollReq("stu2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSectionFull.Code, appErrors.FromError(err).Code)
	// The failed attempt must not have touched the counters.
	assert.Equal(t, []string{"s1"}, catalog.reserved)
}

func TestEnrollCountsEveryMembershipStatus(t *testing.T) {
	// A DROPPED row still occupies its seat until the row is removed.
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "a", CourseID: "c1", SectionID: "s1", Status: models.MembershipStatusDropped},
		{ID: "m1", StudentID: "b", CourseID: "c1", SectionID: "s1", Status: models.MembershipStatusCompleted},
	}}
	catalog := newTestCatalog()
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	_, err := svc.Enroll(context.Background(), enrollReq("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSectionFull.Code, appErrors.FromError(err).Code)
}

func TestEnrollSectionNotApproved(t *testing.T) {
	catalog := newTestCatalog()
	section := catalog.sections["s1"]
	section.ApprovalStatus = models.SectionApprovalPending
	catalog.sections["s1"] = section
	svc := newEnrollmentService(&mockMembershipRepo{}, catalog, &mockDispatcher{})

	_, err := svc.Enroll(context.Background(), enrollReq("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSectionNotApproved.Code, appErrors.FromError(err).Code)
}

func TestEnrollDuplicate(t *testing.T) {
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "stu1", CourseID: "c1", SectionID: "s1", Status: models.MembershipStatusEnrolled},
	}}
	svc := newEnrollmentService(memberships, newTestCatalog(), &mockDispatcher{})

	_, err := svc.Enroll(context.Background(), enrollReq("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
}

func TestEnrollFailFastKeepsEarlierPairs(t *testing.T) {
	memberships := &mockMembershipRepo{}
	catalog := newTestCatalog()
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	req := EnrollRequest{
		StudentID: "stu1",
		Courses: []EnrollCourseRequest{
			{CourseID: "c1", Sections: []EnrollSectionRequest{{SectionID: "s1"}}},
			{CourseID: "missing", Sections: []EnrollSectionRequest{{SectionID: "sX"}}},
		},
	}
	_, err := svc.Enroll(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// The first pair stays committed, no rollback.
	assert.Len(t, memberships.rows, 1)
	assert.Equal(t, []string{"s1"}, catalog.reserved)
}

func TestEnrollDispatchesPromotion(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := newEnrollmentService(&mockMembershipRepo{}, newTestCatalog(), dispatcher)

	req := enrollReq("stu1")
	req.Year = 2026
	req.Semester = 1
	_, err := svc.Enroll(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"stu1:2026:1"}, dispatcher.calls)
}

func TestEnrollSucceedsWhenDispatchFails(t *testing.T) {
	dispatcher := &mockDispatcher{err: errors.New("queue stopped")}
	svc := newEnrollmentService(&mockMembershipRepo{}, newTestCatalog(), dispatcher)

	req := enrollReq("stu1")
	req.Year = 2026
	req.Semester = 2
	record, err := svc.Enroll(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, record.Courses, 1)
}

func TestEnrollSkipsDispatchWithoutTerm(t *testing.T) {
	dispatcher := &mockDispatcher{}
	svc := newEnrollmentService(&mockMembershipRepo{}, newTestCatalog(), dispatcher)

	_, err := svc.Enroll(context.Background(), enrollReq("stu1"))
	require.NoError(t, err)
	assert.Empty(t, dispatcher.calls)
}

func TestUnenrollNotFound(t *testing.T) {
	svc := newEnrollmentService(&mockMembershipRepo{}, newTestCatalog(), &mockDispatcher{})

	_, err := svc.Unenroll(context.Background(), UnenrollRequest{StudentID: "stu1", CourseID: "c1", SectionID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUnenrollReleasesSeat(t *testing.T) {
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "stu1", CourseID: "c1", SectionID: "s1", Status: models.MembershipStatusEnrolled},
	}}
	catalog := newTestCatalog()
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	record, err := svc.Unenroll(context.Background(), UnenrollRequest{StudentID: "stu1", CourseID: "c1", SectionID: "s1"})
	require.NoError(t, err)
	assert.Empty(t, record.Courses)
	assert.Equal(t, []string{"s1"}, catalog.released)
	assert.Empty(t, memberships.rows)
}

func TestUnenrollToleratesMissingSection(t *testing.T) {
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "stu1", CourseID: "c1", SectionID: "gone", Status: models.MembershipStatusEnrolled},
	}}
	catalog := newTestCatalog()
	catalog.releaseErr = errors.New("section not found")
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	// The membership delete is the primary mutation; the counter release
	// failing must not fail the call.
	record, err := svc.Unenroll(context.Background(), UnenrollRequest{StudentID: "stu1", CourseID: "c1", SectionID: "gone"})
	require.NoError(t, err)
	assert.Empty(t, record.Courses)
}

func TestAvailabilityUsesLiveCount(t *testing.T) {
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "a", CourseID: "c1", SectionID: "s1"},
		{ID: "m1", StudentID: "b", CourseID: "c1", SectionID: "s1"},
	}}
	catalog := newTestCatalog()
	// Cached counters are stale on purpose.
	section := catalog.sections["s1"]
	section.EnrolledCount = 0
	catalog.sections["s1"] = section
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	report, err := svc.CheckAvailability(context.Background(), "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Enrolled)
	assert.Equal(t, 0, report.Available)
	assert.True(t, report.IsFull)
	assert.Equal(t, 2, report.Capacity)
}

func TestAvailabilitySectionNotFound(t *testing.T) {
	svc := newEnrollmentService(&mockMembershipRepo{}, newTestCatalog(), &mockDispatcher{})

	_, err := svc.CheckAvailability(context.Background(), "c1", "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSyncOneRepairsCounters(t *testing.T) {
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "a", CourseID: "c1", SectionID: "s1"},
	}}
	catalog := newTestCatalog()
	section := catalog.sections["s1"]
	section.OriginalCapacity = 5
	section.EnrolledCount = 99
	section.AvailableCapacity = -10
	catalog.sections["s1"] = section
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	result, err := svc.SyncOne(context.Background(), "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Enrolled)
	assert.Equal(t, 4, result.Available)
	assert.Equal(t, [2]int{1, 4}, catalog.setCalls["s1"])

	// Idempotent: a second pass lands on the same numbers.
	again, err := svc.SyncOne(context.Background(), "c1", "s1")
	require.NoError(t, err)
	assert.Equal(t, result.Enrolled, again.Enrolled)
	assert.Equal(t, result.Available, again.Available)
}

func TestSyncAllCollectsErrors(t *testing.T) {
	catalog := newTestCatalog()
	catalog.sections["s2"] = models.Section{ID: "s2", CourseID: "c1", SectionNumber: "B",
		OriginalCapacity: 3, ApprovalStatus: models.SectionApprovalApproved}
	memberships := &mockMembershipRepo{
		countErrFor: map[string]error{pairKey("c1", "s2"): errors.New("count failed")},
	}
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.SyncedSections)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "s2", report.Errors[0].SectionID)
}

func TestStatsPercentages(t *testing.T) {
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "a", CourseID: "c1", SectionID: "s1"},
	}}
	catalog := newTestCatalog()
	section := catalog.sections["s1"]
	section.OriginalCapacity = 3
	catalog.sections["s1"] = section
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	stats, err := svc.Stats(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, stats.Sections, 1)
	assert.Equal(t, 33.33, stats.Sections[0].PercentFull)
	assert.Equal(t, 1, stats.TotalEnrolled)
	assert.Equal(t, 3, stats.TotalCapacity)
	assert.Equal(t, 2, stats.TotalAvailable)
	assert.Equal(t, 33.33, stats.PercentFull)
	assert.False(t, stats.Sections[0].IsFull)
}

func TestStatsZeroCapacitySection(t *testing.T) {
	catalog := newTestCatalog()
	catalog.sections["s1"] = models.Section{ID: "s1", CourseID: "c1", SectionNumber: "A",
		OriginalCapacity: 0, ApprovalStatus: models.SectionApprovalApproved}
	svc := newEnrollmentService(&mockMembershipRepo{}, catalog, &mockDispatcher{})

	stats, err := svc.Stats(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, stats.Sections, 1)
	assert.Equal(t, 0.0, stats.Sections[0].PercentFull)
	assert.True(t, stats.Sections[0].IsFull)
}

func TestMyEnrollmentsTotals(t *testing.T) {
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "stu1", CourseID: "c1", SectionID: "s1", Status: models.MembershipStatusEnrolled, EnrolledAt: time.Now()},
		{ID: "m1", StudentID: "stu1", CourseID: "ghost", SectionID: "sX", Status: models.MembershipStatusEnrolled, EnrolledAt: time.Now()},
	}}
	catalog := newTestCatalog()
	section := catalog.sections["s1"]
	section.EnrolledCount = 1
	catalog.sections["s1"] = section
	svc := newEnrollmentService(memberships, catalog, &mockDispatcher{})

	result, err := svc.MyEnrollments(context.Background(), "stu1")
	require.NoError(t, err)
	// The orphaned course reference is skipped, not fatal.
	assert.Equal(t, 1, result.TotalCourses)
	assert.Equal(t, 3, result.TotalCredits)
	require.Len(t, result.Courses, 1)
	require.Len(t, result.Courses[0].Sections, 1)
	assert.Equal(t, 1, result.Courses[0].Sections[0].AvailableSeats)
}

func TestMyEnrollmentsEmpty(t *testing.T) {
	svc := newEnrollmentService(&mockMembershipRepo{}, newTestCatalog(), &mockDispatcher{})

	result, err := svc.MyEnrollments(context.Background(), "stu1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalCourses)
	assert.Equal(t, 0, result.TotalCredits)
	assert.Empty(t, result.Courses)
}

func TestUpdateMembershipStatus(t *testing.T) {
	grade := "A"
	memberships := &mockMembershipRepo{rows: []models.Membership{
		{ID: "m0", StudentID: "stu1", CourseID: "c1", SectionID: "s1", Status: models.MembershipStatusEnrolled},
	}}
	svc := newEnrollmentService(memberships, newTestCatalog(), &mockDispatcher{})

	record, err := svc.UpdateMembershipStatus(context.Background(), MembershipStatusRequest{
		StudentID: "stu1", CourseID: "c1", SectionID: "s1",
		Status: models.MembershipStatusCompleted, Grade: &grade,
	})
	require.NoError(t, err)
	require.Len(t, record.Courses, 1)
	assert.Equal(t, models.MembershipStatusCompleted, memberships.rows[0].Status)
	require.NotNil(t, memberships.rows[0].Grade)
	assert.Equal(t, "A", *memberships.rows[0].Grade)
}

func TestUpdateMembershipStatusNotFound(t *testing.T) {
	svc := newEnrollmentService(&mockMembershipRepo{}, newTestCatalog(), &mockDispatcher{})

	_, err := svc.UpdateMembershipStatus(context.Background(), MembershipStatusRequest{
		StudentID: "stu1", CourseID: "c1", SectionID: "s1", Status: models.MembershipStatusDropped,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
