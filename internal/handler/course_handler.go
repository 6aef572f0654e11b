package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/internal/service"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error)
	GetDetail(ctx context.Context, courseID string) (*models.CourseDetail, error)
	UpdateSectionApproval(ctx context.Context, courseID, sectionID string, req service.SectionApprovalRequest) error
}

// CourseHandler exposes the course catalog endpoints.
type CourseHandler struct {
	courses courseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses courseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary List courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param faculty query string false "faculty filter"
// @Param major query string false "major filter"
// @Param year query int false "academic year filter"
// @Param semester query int false "semester filter"
// @Param search query string false "code or name search"
// @Param page query int false "page number"
// @Param page_size query int false "page size"
// @Success 200 {object} response.Envelope{data=[]models.Course}
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Faculty:   c.Query("faculty"),
		Major:     c.Query("major"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	filter.Year, _ = strconv.Atoi(c.Query("year"))
	filter.Semester, _ = strconv.Atoi(c.Query("semester"))
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Detail godoc
// @Summary Course detail with sections
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "course id"
// @Success 200 {object} response.Envelope{data=models.CourseDetail}
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Detail(c *gin.Context) {
	detail, err := h.courses.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// UpdateSectionApproval godoc
// @Summary Change a section's approval status
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "course id"
// @Param sectionId path string true "section id"
// @Param payload body service.SectionApprovalRequest true "approval status"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/sections/{sectionId}/approval [patch]
func (h *CourseHandler) UpdateSectionApproval(c *gin.Context) {
	var req service.SectionApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if err := h.courses.UpdateSectionApproval(c.Request.Context(), c.Param("id"), c.Param("sectionId"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
