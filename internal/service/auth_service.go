package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/geoattend/attendance-api/internal/models"
	appErrors "github.com/geoattend/attendance-api/pkg/errors"
)

// AuthService validates lecturer access tokens. Credential flows (login,
// passcodes, password resets) live in the main campus backend; this service
// only needs to check ownership of session operations, so it carries just
// enough JWT handling for that plus a signing helper for tests and tooling.
type AuthService struct {
	secret     []byte
	expiration time.Duration
}

// NewAuthService constructs the auth service.
func NewAuthService(secret string, expiration time.Duration) *AuthService {
	return &AuthService{secret: []byte(secret), expiration: expiration}
}

// ValidateToken parses and verifies a lecturer bearer token.
func (s *AuthService) ValidateToken(token string) (*models.LecturerClaims, error) {
	claims := &models.LecturerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if claims.LecturerID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no lecturer identity")
	}
	return claims, nil
}

// IssueToken signs a lecturer token. Used by integration tooling and tests.
func (s *AuthService) IssueToken(lecturerID, name string) (string, error) {
	now := time.Now()
	claims := models.LecturerClaims{
		LecturerID: lecturerID,
		Name:       name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   lecturerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
