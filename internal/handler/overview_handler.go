package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/response"
)

type overviewService interface {
	Overview(ctx context.Context, date string, year *int) (*models.Overview, error)
}

// OverviewHandler serves the HOD daily summary.
type OverviewHandler struct {
	service overviewService
}

// NewOverviewHandler constructs an overview handler.
func NewOverviewHandler(svc overviewService) *OverviewHandler {
	return &OverviewHandler{service: svc}
}

// Get godoc
// @Summary Department attendance overview
// @Tags HOD
// @Produce json
// @Param date query string false "Date YYYY-MM-DD (defaults to today IST)"
// @Param year query int false "Year 1-4"
// @Success 200 {object} response.Envelope
// @Router /hod/overview [get]
func (h *OverviewHandler) Get(c *gin.Context) {
	var q dto.OverviewQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}
	overview, err := h.service.Overview(c.Request.Context(), q.Date, q.Year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, overview)
}
