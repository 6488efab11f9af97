package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-planner-api/internal/dto"
	"github.com/noah-isme/smart-planner-api/internal/middleware"
	"github.com/noah-isme/smart-planner-api/internal/models"
	"github.com/noah-isme/smart-planner-api/internal/service"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
	"github.com/noah-isme/smart-planner-api/pkg/response"
)

type scheduleOptimizer interface {
	Suggest(ctx context.Context, userID string, req dto.SuggestRequest) (*dto.SuggestResponse, error)
	Predict(ctx context.Context, userID string, req dto.PredictRequest) (*dto.PredictResponse, error)
	Status() models.ModelStatus
	Reload(ctx context.Context) (*dto.ReloadResponse, error)
}

// OptimizerHandler exposes schedule optimization endpoints.
type OptimizerHandler struct {
	service scheduleOptimizer
}

// NewOptimizerHandler constructs the handler.
func NewOptimizerHandler(svc *service.OptimizerService) *OptimizerHandler {
	return &OptimizerHandler{service: svc}
}

// Suggest godoc
// @Summary Suggest better start hours for pending events
// @Description Runs the optimizer over the caller's pending events. An empty body optimizes the next week.
// @Tags Optimizer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SuggestRequest false "Optimization window"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /optimizer/suggestions [post]
func (h *OptimizerHandler) Suggest(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggestion payload"))
		return
	}
	if req.Timezone == "" {
		req.Timezone = claims.Timezone
	}
	result, err := h.service.Suggest(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["message"] = result.Message
	response.JSON(c, http.StatusOK, result, meta)
}

// Predict godoc
// @Summary Predict the best start hour for one event
// @Tags Optimizer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PredictRequest true "Event to place"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /optimizer/predict [post]
func (h *OptimizerHandler) Predict(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid prediction payload"))
		return
	}
	if req.Timezone == "" {
		req.Timezone = claims.Timezone
	}
	result, err := h.service.Predict(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Status godoc
// @Summary Model bundle status
// @Tags Optimizer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /optimizer/status [get]
func (h *OptimizerHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Status())
}

// Reload godoc
// @Summary Reload model artifacts from disk
// @Tags Optimizer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /optimizer/reload [post]
func (h *OptimizerHandler) Reload(c *gin.Context) {
	result, err := h.service.Reload(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
