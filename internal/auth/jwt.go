package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
)

// Claims holds JWT claims: the authenticated subject, its organisation, and
// its role. The registered jti identifies the token for revocation.
type Claims struct {
	SubjectID uuid.UUID   `json:"subject_id"`
	OrgID     uuid.UUID   `json:"org_id"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret []byte
	expire time.Duration
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireMinutes int) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expire: time.Duration(expireMinutes) * time.Minute,
	}
}

// Generate creates a new JWT for the subject.
func (s *JWTService) Generate(subjectID, orgID uuid.UUID, role models.Role) (string, error) {
	claims := Claims{
		SubjectID: subjectID,
		OrgID:     orgID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expire)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a JWT, returning claims or an
// unauthenticated error for anything malformed, mis-signed or expired.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthenticated("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, apperr.Unauthenticated("invalid or expired token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperr.Unauthenticated("invalid token")
	}
	return claims, nil
}
