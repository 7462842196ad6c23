package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grievance-api/internal/dto"
	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
	"github.com/noah-isme/grievance-api/pkg/export"
	"github.com/noah-isme/grievance-api/pkg/response"
)

type reminderService interface {
	SendReminder(ctx context.Context, trackingID string) (*dto.SendReminderResponse, error)
	Candidates(ctx context.Context, department string) ([]dto.ReminderCandidate, error)
	History(ctx context.Context, limit int) ([]models.Reminder, error)
	Stats(ctx context.Context) (*models.ReminderStats, error)
	Export(ctx context.Context, format export.Format) ([]byte, string, error)
}

// reminderTrigger runs a full scan, skipping when one is already in flight.
type reminderTrigger interface {
	RunOnce(ctx context.Context) (int, error)
}

type notificationLogService interface {
	Logs(ctx context.Context, limit int) ([]models.NotificationLog, error)
}

// ReminderHandler exposes officer reminder and notification log endpoints.
type ReminderHandler struct {
	reminders     reminderService
	trigger       reminderTrigger
	notifications notificationLogService
}

// NewReminderHandler builds a new handler.
func NewReminderHandler(reminders reminderService, trigger reminderTrigger, notifications notificationLogService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, trigger: trigger, notifications: notifications}
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer")
	}
	return n, nil
}

// Scan godoc
// @Summary Run the stale grievance reminder scan now
// @Tags Reminders
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reminders/scan [post]
func (h *ReminderHandler) Scan(c *gin.Context) {
	sent, err := h.trigger.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ReminderScanResponse{RemindersSent: sent, ScannedAt: time.Now().UTC()})
}

// Send godoc
// @Summary Remind the officer about one grievance
// @Tags Reminders
// @Produce json
// @Param trackingId path string true "Tracking ID"
// @Success 200 {object} response.Envelope
// @Router /grievances/{trackingId}/remind [post]
func (h *ReminderHandler) Send(c *gin.Context) {
	resp, err := h.reminders.SendReminder(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Pending godoc
// @Summary List grievances due for a reminder
// @Tags Reminders
// @Produce json
// @Param department path string true "Department name"
// @Success 200 {object} response.Envelope
// @Router /departments/{department}/reminders/pending [get]
func (h *ReminderHandler) Pending(c *gin.Context) {
	items, err := h.reminders.Candidates(c.Request.Context(), c.Param("department"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// History godoc
// @Summary List sent reminders
// @Tags Reminders
// @Produce json
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {object} response.Envelope
// @Router /reminders [get]
func (h *ReminderHandler) History(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.reminders.History(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Stats godoc
// @Summary Reminder statistics
// @Tags Reminders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reminders/stats [get]
func (h *ReminderHandler) Stats(c *gin.Context) {
	stats, err := h.reminders.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Export godoc
// @Summary Download the reminder log
// @Tags Reminders
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /reminders/export [get]
func (h *ReminderHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	body, filename, err := h.reminders.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, format.ContentType(), body)
}

// Notifications godoc
// @Summary List sent status notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *ReminderHandler) Notifications(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	logs, err := h.notifications.Logs(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs)
}
