package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
	"github.com/noah-isme/dept-attendance-api/pkg/response"
)

type classService interface {
	Dept() string
	List(ctx context.Context, year *int) ([]models.ClassDoc, error)
	Mine(ctx context.Context, email string) ([]models.ClassDoc, error)
	Create(ctx context.Context, req dto.CreateClassRequest) (*models.ClassDoc, error)
}

// ClassHandler exposes class endpoints.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// Resolve godoc
// @Summary Resolve a class reference to its keys
// @Tags Classes
// @Produce json
// @Param class query string false "Class display"
// @Param canon query string false "Class canon"
// @Param year query int false "Year 1-4"
// @Success 200 {object} response.Envelope
// @Router /classes/resolve [get]
func (h *ClassHandler) Resolve(c *gin.Context) {
	var q dto.ClassQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.service.Dept(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, identity)
}

// List godoc
// @Summary List department classes
// @Tags Classes
// @Produce json
// @Param year query int false "Filter by year"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	var q dto.ClassListQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}
	classes, err := h.service.List(c.Request.Context(), q.Year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewClassResponses(classes), map[string]interface{}{"total": len(classes)})
}

// Mine godoc
// @Summary Classes mentored by the caller
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes/mine [get]
func (h *ClassHandler) Mine(c *gin.Context) {
	email := actorEmail(c)
	if email == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no email"))
		return
	}
	classes, err := h.service.Mine(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewClassResponses(classes))
}

// Create godoc
// @Summary Create a class section
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewClassResponse(*class))
}
