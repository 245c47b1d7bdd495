// Package auth implements the identity lookup boundary: an opaque
// bearer token either resolves to a user or it does not. Tokens are
// HS256-signed JWTs whose subject is the user id.
package auth

import (
	"errors"
	"time"

	"linkup/backend/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every resolution failure: malformed,
// expired, bad signature, or unknown subject. Callers do not get to
// distinguish them.
var ErrInvalidToken = errors.New("invalid or expired token")

// UserLookup resolves a user id to its identity row.
type UserLookup interface {
	GetUserByID(id string) (*models.User, error)
}

// Service issues and resolves bearer tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
	users  UserLookup
}

// NewService builds the token service.
func NewService(secret string, ttl time.Duration, issuer string, users UserLookup) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		users:  users,
	}
}

// IssueToken signs a token for the given user id.
func (s *Service) IssueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(s.ttl).Unix(),
		"iss": s.issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ResolveToken parses and verifies the token and loads the identity
// it names.
func (s *Service) ResolveToken(tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByID(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}
