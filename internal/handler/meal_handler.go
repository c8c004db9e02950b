package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"github.com/phamquangminh/mealio/internal/service"
	"gorm.io/gorm"
)

// MealHandler handles meal-log endpoints
type MealHandler struct {
	mealService  *service.MealService
	usageService *service.UsageService
}

func NewMealHandler(mealService *service.MealService, usageService *service.UsageService) *MealHandler {
	return &MealHandler{
		mealService:  mealService,
		usageService: usageService,
	}
}

// CreateLog godoc
// @Summary Log a meal
// @Tags Meals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateMealRequest true "Meal log"
// @Success 201 {object} model.MealLog
// @Failure 400 {object} model.ErrorResponse
// @Router /meals [post]
func (h *MealHandler) CreateLog(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req model.CreateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	log, err := h.mealService.CreateLog(userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, log)
}

// ListDay godoc
// @Summary List meals for one day
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day (RFC3339 or YYYY-MM-DD), defaults to today"
// @Success 200 {array} model.MealLog
// @Router /meals [get]
func (h *MealHandler) ListDay(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid date format"})
			return
		}
		day = parsed
	}

	logs, err := h.mealService.ListDay(userID, day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list meals"})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// DeleteLog godoc
// @Summary Delete a meal log
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Meal log ID"
// @Success 200 {object} model.MessageResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /meals/{id} [delete]
func (h *MealHandler) DeleteLog(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	logID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid meal id"})
		return
	}

	if err := h.mealService.DeleteLog(userID, logID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Meal log not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to delete meal log"})
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "Meal log deleted"})
}

// Analyze godoc
// @Summary Request an AI analysis for a meal (consumes one free use)
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AnalyzeMealResponse
// @Failure 402 {object} model.ErrorResponse
// @Router /meals/analyze [post]
func (h *MealHandler) Analyze(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	remaining, err := h.usageService.Consume(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoFreeUses) {
			c.JSON(http.StatusPaymentRequired, model.ErrorResponse{
				Error:   err.Error(),
				Message: "Upgrade to Premium for unlimited analyses",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to start analysis"})
		return
	}

	c.JSON(http.StatusOK, model.AnalyzeMealResponse{
		Message:       "Analysis queued",
		RemainingUses: remaining,
	})
}

// GetUsage godoc
// @Summary Get remaining free AI analyses for this month
// @Tags Meals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AnalyzeMealResponse
// @Router /meals/usage [get]
func (h *MealHandler) GetUsage(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	remaining, err := h.usageService.RemainingFreeUses(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to read usage"})
		return
	}

	c.JSON(http.StatusOK, model.AnalyzeMealResponse{
		Message:       "ok",
		RemainingUses: remaining,
	})
}
