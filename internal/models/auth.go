package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleHOD    UserRole = "HOD"
	RoleMentor UserRole = "MENTOR"
)

// Valid returns true when the role is known.
func (r UserRole) Valid() bool {
	return r == RoleHOD || r == RoleMentor
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Dept     string   `json:"dept,omitempty"`
	jwt.RegisteredClaims
}
