package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/pkg/response"
)

type rosterService interface {
	Resolve(ctx context.Context, identity models.ClassIdentity) ([]models.Student, error)
	Replace(ctx context.Context, identity models.ClassIdentity, req dto.ReplaceRosterRequest, mentor string) ([]models.Student, error)
	AddStudent(ctx context.Context, identity models.ClassIdentity, req dto.StudentInput, mentor string) (*models.Student, error)
}

// RosterHandler exposes class roster endpoints.
type RosterHandler struct {
	service rosterService
	dept    string
}

// NewRosterHandler constructs a roster handler.
func NewRosterHandler(svc rosterService, dept string) *RosterHandler {
	return &RosterHandler{service: svc, dept: dept}
}

// Get godoc
// @Summary Resolve a class roster
// @Tags Roster
// @Produce json
// @Param class query string false "Class display"
// @Param canon query string false "Class canon"
// @Param year query int false "Year 1-4"
// @Success 200 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) Get(c *gin.Context) {
	var q dto.ClassQuery
	if err := bindQuery(c, &q); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.dept, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.service.Resolve(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewRosterResponse(identity, students), map[string]interface{}{"total": len(students)})
}

// Replace godoc
// @Summary Replace a class roster
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceRosterRequest true "Full roster"
// @Success 200 {object} response.Envelope
// @Router /roster [put]
func (h *RosterHandler) Replace(c *gin.Context) {
	var req dto.ReplaceRosterRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.dept, req.ClassQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.service.Replace(c.Request.Context(), identity, req, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewRosterResponse(identity, students), map[string]interface{}{"total": len(students)})
}

// AddStudent godoc
// @Summary Add a student to a roster
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.AddStudentRequest true "Student"
// @Success 201 {object} response.Envelope
// @Router /roster/students [post]
func (h *RosterHandler) AddStudent(c *gin.Context) {
	var req dto.AddStudentRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	identity, err := classIdentity(h.dept, req.ClassQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.service.AddStudent(c.Request.Context(), identity, req.StudentInput, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewStudentResponse(*student))
}
