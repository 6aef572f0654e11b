package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/middleware"
	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/internal/service"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, req service.EnrollRequest) (*models.EnrollmentRecord, error)
	Unenroll(ctx context.Context, req service.UnenrollRequest) (*models.EnrollmentRecord, error)
	UpdateMembershipStatus(ctx context.Context, req service.MembershipStatusRequest) (*models.EnrollmentRecord, error)
	CheckAvailability(ctx context.Context, courseID, sectionID string) (*models.AvailabilityReport, error)
	SyncOne(ctx context.Context, courseID, sectionID string) (*models.SyncSectionResult, error)
	SyncAll(ctx context.Context) (*models.SyncReport, error)
	Stats(ctx context.Context, courseID string) (*models.CourseStats, error)
	MyEnrollments(ctx context.Context, studentID string) (*models.StudentEnrollments, error)
	ListRecords(ctx context.Context) ([]models.EnrollmentRecord, error)
}

type statsExporter interface {
	RenderStats(stats *models.CourseStats, format service.ExportFormat) ([]byte, string, error)
}

// EnrollmentHandler exposes the enrollment workflow endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
	exporter    statsExporter
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService, exporter statsExporter) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, exporter: exporter}
}

// Enroll godoc
// @Summary Enroll a student into course sections
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EnrollRequest true "enrollment"
// @Success 201 {object} response.Envelope{data=models.EnrollmentRecord}
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	// Students can only enroll themselves.
	if c.GetString(middleware.ContextUserRole) == string(models.RoleStudent) {
		req.StudentID = c.GetString(middleware.ContextUserID)
	}

	record, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Unenroll godoc
// @Summary Remove a student from a course section
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UnenrollRequest true "unenrollment"
// @Success 200 {object} response.Envelope{data=models.EnrollmentRecord}
// @Failure 404 {object} response.Envelope
// @Router /enrollments/unenroll [post]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	var req service.UnenrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if c.GetString(middleware.ContextUserRole) == string(models.RoleStudent) {
		req.StudentID = c.GetString(middleware.ContextUserID)
	}

	record, err := h.enrollments.Unenroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateStatus godoc
// @Summary Transition an enrollment's lifecycle status
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.MembershipStatusRequest true "status change"
// @Success 200 {object} response.Envelope{data=models.EnrollmentRecord}
// @Failure 404 {object} response.Envelope
// @Router /enrollments/status [patch]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req service.MembershipStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	record, err := h.enrollments.UpdateMembershipStatus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Availability godoc
// @Summary Live seat availability for a section
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "course id"
// @Param sectionId path string true "section id"
// @Success 200 {object} response.Envelope{data=models.AvailabilityReport}
// @Failure 404 {object} response.Envelope
// @Router /enrollments/availability/{courseId}/{sectionId} [get]
func (h *EnrollmentHandler) Availability(c *gin.Context) {
	report, err := h.enrollments.CheckAvailability(c.Request.Context(), c.Param("courseId"), c.Param("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// SyncSection godoc
// @Summary Recompute seat counters for one section
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "course id"
// @Param sectionId path string true "section id"
// @Success 200 {object} response.Envelope{data=models.SyncSectionResult}
// @Failure 404 {object} response.Envelope
// @Router /enrollments/sync/{courseId}/{sectionId} [post]
func (h *EnrollmentHandler) SyncSection(c *gin.Context) {
	result, err := h.enrollments.SyncOne(c.Request.Context(), c.Param("courseId"), c.Param("sectionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SyncAll godoc
// @Summary Recompute seat counters for every section
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=models.SyncReport}
// @Router /enrollments/sync [post]
func (h *EnrollmentHandler) SyncAll(c *gin.Context) {
	report, err := h.enrollments.SyncAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Stats godoc
// @Summary Occupancy report for a course
// @Tags enrollments
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param courseId path string true "course id"
// @Param format query string false "export format" Enums(csv, pdf)
// @Success 200 {object} response.Envelope{data=models.CourseStats}
// @Failure 404 {object} response.Envelope
// @Router /enrollments/stats/{courseId} [get]
func (h *EnrollmentHandler) Stats(c *gin.Context) {
	stats, err := h.enrollments.Stats(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.Query("format")
	if format == "" {
		response.JSON(c, http.StatusOK, stats, nil)
		return
	}

	payload, contentType, err := h.exporter.RenderStats(stats, service.ExportFormat(format))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("seat-stats-%s-%s.%s", stats.CourseCode, time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// MyEnrollments godoc
// @Summary Populated enrollment view for a student
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "student id"
// @Success 200 {object} response.Envelope{data=models.StudentEnrollments}
// @Router /enrollments/my-enrollments/{studentId} [get]
func (h *EnrollmentHandler) MyEnrollments(c *gin.Context) {
	result, err := h.enrollments.MyEnrollments(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List every enrollment record
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.EnrollmentRecord}
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	records, err := h.enrollments.ListRecords(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
