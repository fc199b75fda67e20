package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
)

// Identity is the resolved caller: who they are, which organisation scopes
// every data access, and which role gates mutating operations.
type Identity struct {
	SubjectID uuid.UUID
	OrgID     uuid.UUID
	Role      models.Role
}

// SubjectDirectory checks that a credential's subject still exists.
type SubjectDirectory interface {
	SubjectActive(ctx context.Context, role models.Role, id uuid.UUID) (bool, error)
}

// TokenDenylist tracks revoked token IDs.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Guard resolves an opaque credential into an Identity. Every protected
// route runs through Resolve before any data access.
type Guard struct {
	jwt      *JWTService
	denylist TokenDenylist
	subjects SubjectDirectory
}

// NewGuard creates an access guard.
func NewGuard(jwt *JWTService, denylist TokenDenylist, subjects SubjectDirectory) *Guard {
	return &Guard{jwt: jwt, denylist: denylist, subjects: subjects}
}

// Resolve validates the token, rejects revoked tokens, and confirms the
// subject still exists. A vanished or soft-deleted subject yields NotFound,
// per the guard contract; the HTTP layer maps any resolve failure to 401.
func (g *Guard) Resolve(ctx context.Context, token string) (*Claims, *Identity, error) {
	claims, err := g.jwt.Validate(token)
	if err != nil {
		return nil, nil, err
	}
	if g.denylist != nil {
		revoked, err := g.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, apperr.Unauthenticated("token revoked")
		}
	}
	active, err := g.subjects.SubjectActive(ctx, claims.Role, claims.SubjectID)
	if err != nil {
		return nil, nil, err
	}
	if !active {
		return nil, nil, apperr.NotFound("subject no longer exists")
	}
	return claims, &Identity{SubjectID: claims.SubjectID, OrgID: claims.OrgID, Role: claims.Role}, nil
}

// Revoke denies the token for its remaining lifetime.
func (g *Guard) Revoke(ctx context.Context, claims *Claims) error {
	if g.denylist == nil || claims.ExpiresAt == nil {
		return nil
	}
	return g.denylist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}
