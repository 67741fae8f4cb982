package models

import (
	"time"

	"github.com/noah-isme/dept-attendance-api/internal/classkey"
)

// ClassStatus tracks whether a class is in use.
type ClassStatus string

const (
	ClassStatusActive   ClassStatus = "active"
	ClassStatusArchived ClassStatus = "archived"
)

// Mentor is a faculty member assigned to a class.
type Mentor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ClassDoc is a section document in the classes collection.
type ClassDoc struct {
	ID           string      `json:"-"`
	Dept         string      `json:"dept"`
	Year         *FlexYear   `json:"year"`
	Section      string      `json:"section"`
	Mentors      []Mentor    `json:"mentors,omitempty"`
	MentorEmails []string    `json:"mentorEmails"`
	Status       ClassStatus `json:"status,omitempty"`
	CreatedAt    *time.Time  `json:"createdAt,omitempty"`
}

// ClassMeta is the cached section lookup used to fill in year and section.
type ClassMeta struct {
	Year    *int   `json:"year"`
	Section string `json:"section"`
}

// ClassRef is the loose reference a caller supplies.
type ClassRef struct {
	Display string
	Canon   string
	Year    *int
}

// ClassIdentity holds the keys derived from a ClassRef.
type ClassIdentity struct {
	Key         classkey.Key `json:"-"`
	Year        *int         `json:"year"`
	Section     string       `json:"section"`
	Canon       string       `json:"canon"`
	LegacyCanon string       `json:"legacy_canon"`
	Display     string       `json:"display"`
	DisplayRaw  string       `json:"display_raw"`
}

// HasLegacyVariant reports whether legacy lookups address a different key.
func (i ClassIdentity) HasLegacyVariant() bool {
	return i.LegacyCanon != "" && i.LegacyCanon != i.Canon
}
