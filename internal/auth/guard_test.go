package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
)

type fakeDenylist struct {
	revoked map[string]bool
}

func (f *fakeDenylist) Revoke(_ context.Context, jti string, _ time.Duration) error {
	f.revoked[jti] = true
	return nil
}

func (f *fakeDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

type fakeSubjects struct {
	active map[uuid.UUID]bool
}

func (f *fakeSubjects) SubjectActive(_ context.Context, _ models.Role, id uuid.UUID) (bool, error) {
	return f.active[id], nil
}

func TestGuardResolve(t *testing.T) {
	jwtSvc := NewJWTService("test-secret", 60)
	subjectID, orgID := uuid.New(), uuid.New()
	guard := NewGuard(jwtSvc,
		&fakeDenylist{revoked: map[string]bool{}},
		&fakeSubjects{active: map[uuid.UUID]bool{subjectID: true}})

	token, err := jwtSvc.Generate(subjectID, orgID, models.RoleClient)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	_, identity, err := guard.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.SubjectID != subjectID || identity.OrgID != orgID || identity.Role != models.RoleClient {
		t.Errorf("identity %+v does not match the token", identity)
	}
}

func TestGuardRejectsVanishedSubject(t *testing.T) {
	jwtSvc := NewJWTService("test-secret", 60)
	guard := NewGuard(jwtSvc,
		&fakeDenylist{revoked: map[string]bool{}},
		&fakeSubjects{active: map[uuid.UUID]bool{}})

	token, err := jwtSvc.Generate(uuid.New(), uuid.New(), models.RoleTechnician)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, _, err := guard.Resolve(context.Background(), token); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestGuardRevocation(t *testing.T) {
	jwtSvc := NewJWTService("test-secret", 60)
	subjectID := uuid.New()
	guard := NewGuard(jwtSvc,
		&fakeDenylist{revoked: map[string]bool{}},
		&fakeSubjects{active: map[uuid.UUID]bool{subjectID: true}})

	token, err := jwtSvc.Generate(subjectID, uuid.New(), models.RoleTechnician)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, _, err := guard.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve before revocation: %v", err)
	}
	if err := guard.Revoke(context.Background(), claims); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, _, err := guard.Resolve(context.Background(), token); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("after revocation: got %v, want unauthenticated", err)
	}
}
