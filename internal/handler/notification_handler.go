package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"github.com/phamquangminh/mealio/internal/repository"
)

// NotificationHandler handles notification settings, device registration and
// the attempt-log audit endpoint
type NotificationHandler struct {
	settingsRepo *repository.SettingsRepository
	deviceRepo   *repository.DeviceRepository
	attemptRepo  *repository.AttemptRepository
}

func NewNotificationHandler(
	settingsRepo *repository.SettingsRepository,
	deviceRepo *repository.DeviceRepository,
	attemptRepo *repository.AttemptRepository,
) *NotificationHandler {
	return &NotificationHandler{
		settingsRepo: settingsRepo,
		deviceRepo:   deviceRepo,
		attemptRepo:  attemptRepo,
	}
}

// GetSettings godoc
// @Summary Get notification settings
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.NotificationSettings
// @Router /notifications/settings [get]
func (h *NotificationHandler) GetSettings(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	settings, err := h.settingsRepo.GetOrCreate(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Update notification settings
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.UpdateSettingsRequest true "Settings changes"
// @Success 200 {object} model.NotificationSettings
// @Failure 400 {object} model.ErrorResponse
// @Router /notifications/settings [put]
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req model.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.ReminderEnabled != nil {
		updates["reminder_enabled"] = *req.ReminderEnabled
	}
	if req.ImportantEnabled != nil {
		updates["important_enabled"] = *req.ImportantEnabled
	}
	if req.QuietHoursStart != nil {
		updates["quiet_hours_start"] = *req.QuietHoursStart
	}
	if req.QuietHoursEnd != nil {
		updates["quiet_hours_end"] = *req.QuietHoursEnd
	}
	if req.DailyCap != nil {
		updates["daily_cap"] = *req.DailyCap
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}

	settings, err := h.settingsRepo.Update(userID, updates)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// RegisterDevice godoc
// @Summary Register a device for push notifications
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RegisterDeviceRequest true "Device registration"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /notifications/devices [post]
func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req model.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.deviceRepo.Register(userID, req.PushToken, req.Platform, req.Locale); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to register device"})
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "Device registered"})
}

// UnregisterDevice godoc
// @Summary Remove a device registration
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param token path string true "Push token"
// @Success 200 {object} model.MessageResponse
// @Router /notifications/devices/{token} [delete]
func (h *NotificationHandler) UnregisterDevice(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Push token required"})
		return
	}

	if err := h.deviceRepo.Unregister(userID, token); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to remove device"})
		return
	}

	c.JSON(http.StatusOK, model.MessageResponse{Message: "Device removed"})
}

// ListAttempts godoc
// @Summary List recent notification attempts (audit trail)
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.NotificationAttempt
// @Router /notifications/history [get]
func (h *NotificationHandler) ListAttempts(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	attempts, err := h.attemptRepo.ListByUser(userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, attempts)
}
