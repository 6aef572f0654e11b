package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/middleware"
	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/internal/service"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type enrollmentServiceMock struct {
	lastEnroll service.EnrollRequest
	enrollErr  error
	stats      *models.CourseStats
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, req service.EnrollRequest) (*models.EnrollmentRecord, error) {
	m.lastEnroll = req
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	return &models.EnrollmentRecord{StudentID: req.StudentID, Courses: []models.EnrollmentRecordCourse{}}, nil
}

func (m *enrollmentServiceMock) Unenroll(ctx context.Context, req service.UnenrollRequest) (*models.EnrollmentRecord, error) {
	return &models.EnrollmentRecord{StudentID: req.StudentID}, nil
}

func (m *enrollmentServiceMock) UpdateMembershipStatus(ctx context.Context, req service.MembershipStatusRequest) (*models.EnrollmentRecord, error) {
	return &models.EnrollmentRecord{StudentID: req.StudentID}, nil
}

func (m *enrollmentServiceMock) CheckAvailability(ctx context.Context, courseID, sectionID string) (*models.AvailabilityReport, error) {
	return &models.AvailabilityReport{CourseID: courseID, SectionID: sectionID, Capacity: 10, Enrolled: 4, Available: 6}, nil
}

func (m *enrollmentServiceMock) SyncOne(ctx context.Context, courseID, sectionID string) (*models.SyncSectionResult, error) {
	return &models.SyncSectionResult{CourseID: courseID, SectionID: sectionID}, nil
}

func (m *enrollmentServiceMock) SyncAll(ctx context.Context) (*models.SyncReport, error) {
	return &models.SyncReport{SyncedSections: 2}, nil
}

func (m *enrollmentServiceMock) Stats(ctx context.Context, courseID string) (*models.CourseStats, error) {
	if m.stats != nil {
		return m.stats, nil
	}
	return &models.CourseStats{CourseID: courseID, CourseCode: "CS101"}, nil
}

func (m *enrollmentServiceMock) MyEnrollments(ctx context.Context, studentID string) (*models.StudentEnrollments, error) {
	return &models.StudentEnrollments{StudentID: studentID}, nil
}

func (m *enrollmentServiceMock) ListRecords(ctx context.Context) ([]models.EnrollmentRecord, error) {
	return []models.EnrollmentRecord{}, nil
}

func enrollBody(t *testing.T, studentID string) *bytes.Buffer {
	t.Helper()
	payload := service.EnrollRequest{
		StudentID: studentID,
		Courses: []service.EnrollCourseRequest{
			{CourseID: "c1", Sections: []service.EnrollSectionRequest{{SectionID: "s1"}}},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func TestEnrollHandlerForcesStudentSelf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &enrollmentServiceMock{}
	h := NewEnrollmentHandler(svc, service.NewExportService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments/enroll", enrollBody(t, "someone-else"))
	c.Request = req
	c.Set(middleware.ContextUserID, "stu1")
	c.Set(middleware.ContextUserRole, string(models.RoleStudent))

	h.Enroll(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "stu1", svc.lastEnroll.StudentID)
}

func TestEnrollHandlerAdminKeepsTarget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &enrollmentServiceMock{}
	h := NewEnrollmentHandler(svc, service.NewExportService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments/enroll", enrollBody(t, "stu42"))
	c.Request = req
	c.Set(middleware.ContextUserID, "admin1")
	c.Set(middleware.ContextUserRole, string(models.RoleAdmin))

	h.Enroll(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "stu42", svc.lastEnroll.StudentID)
}

func TestEnrollHandlerConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &enrollmentServiceMock{enrollErr: appErrors.Clone(appErrors.ErrSectionFull, "section A is full (30/30)")}
	h := NewEnrollmentHandler(svc, service.NewExportService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments/enroll", enrollBody(t, "stu1"))
	c.Request = req
	c.Set(middleware.ContextUserID, "stu1")
	c.Set(middleware.ContextUserRole, string(models.RoleStudent))

	h.Enroll(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "SECTION_FULL", envelope.Error.Code)
}

func TestAvailabilityHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEnrollmentHandler(&enrollmentServiceMock{}, service.NewExportService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrollments/availability/c1/s1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "courseId", Value: "c1"}, {Key: "sectionId", Value: "s1"}}

	h.Availability(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.AvailabilityReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 6, envelope.Data.Available)
}

func TestStatsHandlerCSVExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &enrollmentServiceMock{stats: &models.CourseStats{
		CourseID:   "c1",
		CourseCode: "CS101",
		Sections: []models.SectionStats{
			{SectionID: "s1", SectionNumber: "A", Capacity: 30, Enrolled: 15, Available: 15, PercentFull: 50},
		},
	}}
	h := NewEnrollmentHandler(svc, service.NewExportService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrollments/stats/c1?format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "courseId", Value: "c1"}}

	h.Stats(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "50.00")
}

func TestStatsHandlerUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEnrollmentHandler(&enrollmentServiceMock{}, service.NewExportService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrollments/stats/c1?format=xml", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "courseId", Value: "c1"}}

	h.Stats(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
