package dto

import (
	"github.com/noah-isme/dept-attendance-api/internal/classkey"
	"github.com/noah-isme/dept-attendance-api/internal/models"
)

// MentorInput is one mentor on a class.
type MentorInput struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

// CreateClassRequest creates a section for a year.
type CreateClassRequest struct {
	Year    int           `json:"year" validate:"required,min=1,max=4"`
	Section string        `json:"section" validate:"required,section"`
	Mentors []MentorInput `json:"mentors" validate:"max=2,dive"`
}

// ClassListQuery filters class listings.
type ClassListQuery struct {
	Year *int `form:"year" validate:"omitempty,min=1,max=4"`
}

// ClassResponse describes a section.
type ClassResponse struct {
	ID           string          `json:"id"`
	Dept         string          `json:"dept"`
	Year         *int            `json:"year"`
	Section      string          `json:"section"`
	Canon        string          `json:"canon"`
	Display      string          `json:"display"`
	Mentors      []models.Mentor `json:"mentors"`
	MentorEmails []string        `json:"mentor_emails"`
	Status       string          `json:"status"`
}

// NewClassResponse maps a class document.
func NewClassResponse(c models.ClassDoc) ClassResponse {
	year := c.Year.Int()
	key := classkey.New(c.Dept, c.Section, year)
	mentors := c.Mentors
	if mentors == nil {
		mentors = []models.Mentor{}
	}
	emails := c.MentorEmails
	if emails == nil {
		emails = []string{}
	}
	status := string(c.Status)
	if status == "" {
		status = string(models.ClassStatusActive)
	}
	return ClassResponse{
		ID:           c.ID,
		Dept:         c.Dept,
		Year:         year,
		Section:      c.Section,
		Canon:        key.String(),
		Display:      key.Display(),
		Mentors:      mentors,
		MentorEmails: emails,
		Status:       status,
	}
}

// NewClassResponses maps a list.
func NewClassResponses(classes []models.ClassDoc) []ClassResponse {
	out := make([]ClassResponse, 0, len(classes))
	for _, c := range classes {
		out = append(out, NewClassResponse(c))
	}
	return out
}
