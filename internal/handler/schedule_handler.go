package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/response"
)

type scheduleService interface {
	Current() models.ScheduleState
	Update(ctx context.Context, req dto.UpdateScheduleRequest) (models.ScheduleState, error)
	Toggle(ctx context.Context) (models.ScheduleState, error)
}

// ScheduleHandler manages the department attendance window.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Get godoc
// @Summary Current attendance window
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	response.OK(c, h.service.Current())
}

// Update godoc
// @Summary Set and enable the attendance window
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateScheduleRequest true "Window in IST"
// @Success 200 {object} response.Envelope
// @Router /settings/schedule [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	state, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// Toggle godoc
// @Summary Enable or disable the attendance window
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/schedule/toggle [post]
func (h *ScheduleHandler) Toggle(c *gin.Context) {
	state, err := h.service.Toggle(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}
