package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context, filter models.DashboardFilter) (*models.DashboardStats, error)
}

// DashboardHandler exposes the admin registration overview.
type DashboardHandler struct {
	dashboard dashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats godoc
// @Summary Per-faculty enrollment totals
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param faculty query string false "faculty filter"
// @Param major query string false "major filter"
// @Param year_level query int false "year level filter"
// @Success 200 {object} response.Envelope{data=models.DashboardStats}
// @Router /enrollments/dashboard-stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	var filter models.DashboardFilter
	filter.Faculty = c.Query("faculty")
	filter.Major = c.Query("major")
	filter.YearLevel, _ = strconv.Atoi(c.Query("year_level"))

	stats, err := h.dashboard.Stats(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
