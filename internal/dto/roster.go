package dto

import "github.com/noah-isme/dept-attendance-api/internal/models"

// StudentInput is a student as submitted by a mentor.
type StudentInput struct {
	Name   string `json:"name" validate:"required"`
	RollNo string `json:"roll_no" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

// ReplaceRosterRequest replaces a class roster wholesale.
type ReplaceRosterRequest struct {
	ClassQuery
	Students []StudentInput `json:"students" validate:"dive"`
}

// AddStudentRequest appends one student.
type AddStudentRequest struct {
	ClassQuery
	StudentInput
}

// StudentResponse is a roster entry.
type StudentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNo     string `json:"roll_no"`
	Email      string `json:"email"`
	Class      string `json:"class"`
	ClassCanon string `json:"class_canon"`
	Year       *int   `json:"year"`
	Mentor     string `json:"mentor,omitempty"`
}

// RosterResponse is a resolved roster.
type RosterResponse struct {
	Class    models.ClassIdentity `json:"class"`
	Students []StudentResponse    `json:"students"`
}

// NewStudentResponse maps a stored student.
func NewStudentResponse(s models.Student) StudentResponse {
	return StudentResponse{
		ID:         s.ID,
		Name:       s.Name,
		RollNo:     s.RollNo,
		Email:      s.Email,
		Class:      s.Class,
		ClassCanon: s.ClassCanon,
		Year:       s.Year.Int(),
		Mentor:     s.Mentor,
	}
}

// NewRosterResponse maps a roster.
func NewRosterResponse(identity models.ClassIdentity, students []models.Student) RosterResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, NewStudentResponse(s))
	}
	return RosterResponse{Class: identity, Students: out}
}
