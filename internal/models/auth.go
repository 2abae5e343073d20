package models

import "github.com/golang-jwt/jwt/v5"

// LecturerClaims are the JWT claims carried by lecturer access tokens.
// Token issuance lives in the main campus backend; this service only
// validates ownership of session operations.
type LecturerClaims struct {
	LecturerID string `json:"lecturerId"`
	Name       string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
