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

type promotionService interface {
	Promote(ctx context.Context, req service.PromoteRequest) (*models.PromotionResult, error)
	Preview(ctx context.Context, req service.PromoteRequest) (*models.PromotionPreview, error)
}

// PromotionHandler exposes the bulk promotion endpoints.
type PromotionHandler struct {
	promotions promotionService
}

// NewPromotionHandler constructs PromotionHandler.
func NewPromotionHandler(promotions promotionService) *PromotionHandler {
	return &PromotionHandler{promotions: promotions}
}

// Promote godoc
// @Summary Advance a student cohort by one term
// @Tags academic
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.PromoteRequest true "cohort"
// @Success 200 {object} response.Envelope{data=models.PromotionResult}
// @Failure 400 {object} response.Envelope
// @Router /academic/promote [post]
func (h *PromotionHandler) Promote(c *gin.Context) {
	var req service.PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	result, err := h.promotions.Promote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Preview the students a promotion would move
// @Tags academic
// @Produce json
// @Security BearerAuth
// @Param year query int true "cohort year"
// @Param year_level query int true "cohort year level"
// @Param semester query int true "cohort semester"
// @Success 200 {object} response.Envelope{data=models.PromotionPreview}
// @Failure 400 {object} response.Envelope
// @Router /academic/promote/preview [get]
func (h *PromotionHandler) Preview(c *gin.Context) {
	var req service.PromoteRequest
	req.Year, _ = strconv.Atoi(c.Query("year"))
	req.YearLevel, _ = strconv.Atoi(c.Query("year_level"))
	req.Semester, _ = strconv.Atoi(c.Query("semester"))

	preview, err := h.promotions.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}
