package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/grievance-api/internal/dto"
	appErrors "github.com/noah-isme/grievance-api/pkg/errors"
	"github.com/noah-isme/grievance-api/pkg/response"
)

type classificationService interface {
	Classify(ctx context.Context, text string) (string, error)
}

type similarityService interface {
	FindSimilar(ctx context.Context, text, department string, threshold float64) ([]dto.SimilarGrievance, error)
}

// ClassificationHandler exposes department routing and duplicate checks.
type ClassificationHandler struct {
	classifier classificationService
	similarity similarityService
	validate   *validator.Validate
}

// NewClassificationHandler builds a new handler.
func NewClassificationHandler(classifier classificationService, similarity similarityService) *ClassificationHandler {
	return &ClassificationHandler{classifier: classifier, similarity: similarity, validate: validator.New()}
}

// Classify godoc
// @Summary Route petition text to a department
// @Tags Classification
// @Accept json
// @Produce json
// @Param payload body dto.ClassifyRequest true "Petition text"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /classify [post]
func (h *ClassificationHandler) Classify(c *gin.Context) {
	var req dto.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid classification payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	dept, err := h.classifier.Classify(c.Request.Context(), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ClassifyResponse{Department: dept})
}

// Similar godoc
// @Summary Find grievances similar to draft text
// @Tags Classification
// @Accept json
// @Produce json
// @Param payload body dto.SimilarityRequest true "Draft petition"
// @Success 200 {object} response.Envelope
// @Router /similarity [post]
func (h *ClassificationHandler) Similar(c *gin.Context) {
	var req dto.SimilarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid similarity payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	matches, err := h.similarity.FindSimilar(c.Request.Context(), req.Text, req.Department, req.Threshold)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matches, map[string]interface{}{"count": len(matches)})
}
