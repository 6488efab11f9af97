package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-planner-api/internal/dto"
	"github.com/noah-isme/smart-planner-api/internal/service"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
	"github.com/noah-isme/smart-planner-api/pkg/response"
)

type focusPlanner interface {
	Plan(ctx context.Context, userID string, query dto.FocusPlanQuery) (*dto.FocusPlanResponse, error)
	Export(ctx context.Context, userID string, query dto.FocusPlanQuery, format string) (*dto.ExportFile, error)
}

// FocusBlockHandler exposes focus plan endpoints.
type FocusBlockHandler struct {
	service focusPlanner
}

// NewFocusBlockHandler constructs the handler.
func NewFocusBlockHandler(svc *service.FocusPlanService) *FocusBlockHandler {
	return &FocusBlockHandler{service: svc}
}

func (h *FocusBlockHandler) bindQuery(c *gin.Context) (string, dto.FocusPlanQuery, error) {
	claims, err := requireClaims(c)
	if err != nil {
		return "", dto.FocusPlanQuery{}, err
	}
	var query dto.FocusPlanQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return "", dto.FocusPlanQuery{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid focus plan query")
	}
	if query.Timezone == "" {
		query.Timezone = claims.Timezone
	}
	return claims.UserID, query, nil
}

// Plan godoc
// @Summary Focus and break blocks for the coming days
// @Tags Focus Blocks
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "First day (YYYY-MM-DD)"
// @Param days query int false "Number of days"
// @Param focus_minutes query int false "Focus block length"
// @Param break_minutes query int false "Break length"
// @Param timezone query string false "IANA timezone"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /focus-blocks [get]
func (h *FocusBlockHandler) Plan(c *gin.Context) {
	userID, query, err := h.bindQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	plan, err := h.service.Plan(c.Request.Context(), userID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan)
}

// Export godoc
// @Summary Export a focus plan
// @Tags Focus Blocks
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Security BearerAuth
// @Param format query string false "csv, pdf or ics" default(csv)
// @Param start_date query string false "First day (YYYY-MM-DD)"
// @Param days query int false "Number of days"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /focus-blocks/export [get]
func (h *FocusBlockHandler) Export(c *gin.Context) {
	userID, query, err := h.bindQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), userID, query, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
