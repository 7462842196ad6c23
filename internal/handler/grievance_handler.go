package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grievance-api/internal/dto"
	"github.com/noah-isme/grievance-api/internal/models"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
	"github.com/noah-isme/grievance-api/pkg/response"
)

type grievanceService interface {
	Submit(ctx context.Context, req dto.SubmitGrievanceRequest) (*dto.SubmitGrievanceResponse, error)
	UpdateStatus(ctx context.Context, trackingID, department, status, comment string) (*dto.UpdateStatusResponse, error)
	GetTimeline(ctx context.Context, trackingID, department string) ([]models.TimelineEntry, error)
	Track(ctx context.Context, trackingID, phone string) (*dto.TrackedGrievance, error)
	List(ctx context.Context, department, priority string) ([]models.Grievance, error)
	Departments() []models.Department
}

// GrievanceHandler exposes petition submission, tracking and department workflows.
type GrievanceHandler struct {
	service grievanceService
}

// NewGrievanceHandler builds a new handler.
func NewGrievanceHandler(service grievanceService) *GrievanceHandler {
	return &GrievanceHandler{service: service}
}

// Submit godoc
// @Summary File a grievance
// @Tags Grievances
// @Accept json
// @Produce json
// @Param payload body dto.SubmitGrievanceRequest true "Grievance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grievances [post]
func (h *GrievanceHandler) Submit(c *gin.Context) {
	var req dto.SubmitGrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid grievance payload"))
		return
	}
	resp, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Track godoc
// @Summary Track a grievance by tracking ID and phone
// @Tags Grievances
// @Accept json
// @Produce json
// @Param payload body dto.TrackRequest true "Tracking lookup"
// @Success 200 {object} response.Envelope
// @Router /grievances/track [post]
func (h *GrievanceHandler) Track(c *gin.Context) {
	var req dto.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid tracking payload"))
		return
	}
	item, err := h.service.Track(c.Request.Context(), req.TrackingID, req.Phone)
	if err != nil {
		if errors.Is(err, appErrors.ErrGrievanceNotFound) || errors.Is(err, appErrors.ErrPhoneMismatch) || errors.Is(err, appErrors.ErrValidation) {
			response.JSON(c, http.StatusOK, dto.TrackResponse{Found: false, Message: appErrors.FromError(err).Message})
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.TrackResponse{Found: true, Grievance: item})
}

// UpdateStatus godoc
// @Summary Change a grievance status
// @Tags Departments
// @Accept json
// @Produce json
// @Param department path string true "Department name"
// @Param trackingId path string true "Tracking ID"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /departments/{department}/grievances/{trackingId}/status [patch]
func (h *GrievanceHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}
	resp, err := h.service.UpdateStatus(c.Request.Context(), c.Param("trackingId"), c.Param("department"), req.Status, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Timeline godoc
// @Summary Get a grievance timeline
// @Tags Departments
// @Produce json
// @Param department path string true "Department name"
// @Param trackingId path string true "Tracking ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{department}/grievances/{trackingId}/timeline [get]
func (h *GrievanceHandler) Timeline(c *gin.Context) {
	trackingID := c.Param("trackingId")
	entries, err := h.service.GetTimeline(c.Request.Context(), trackingID, c.Param("department"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"tracking_id": trackingID, "timeline": entries})
}

// List godoc
// @Summary List a department's grievances
// @Tags Departments
// @Produce json
// @Param department path string true "Department name"
// @Param priority query string false "High, Medium or Low"
// @Success 200 {object} response.Envelope
// @Router /departments/{department}/grievances [get]
func (h *GrievanceHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Param("department"), c.Query("priority"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Departments godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *GrievanceHandler) Departments(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Departments())
}
