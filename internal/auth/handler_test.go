package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldserve/backend/internal/models"
	"github.com/fieldserve/backend/pkg/utils"
)

type fakeCredentials struct {
	clients     []models.Client
	technicians []models.Technician
}

func (f *fakeCredentials) FindClientsByUsername(_ context.Context, username string) ([]models.Client, error) {
	var out []models.Client
	for _, c := range f.clients {
		if strings.EqualFold(c.Username, username) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCredentials) FindTechniciansByUsername(_ context.Context, username string) ([]models.Technician, error) {
	var out []models.Technician
	for _, t := range f.technicians {
		if strings.EqualFold(t.Username, username) {
			out = append(out, t)
		}
	}
	return out, nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	hash, err := utils.HashPassword(plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

func newLoginRouter(store CredentialStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, NewJWTService("test-secret", 60), nil, nil)
	router := gin.New()
	router.POST("/auth/login", h.Login)
	return router
}

func doLogin(t *testing.T, router *gin.Engine, body LoginRequest) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var body struct {
		Data TokenResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Data
}

// The same username can exist in several organisations; the password decides
// which account the caller owns, so both accounts stay reachable.
func TestLoginSameUsernameTwoOrgs(t *testing.T) {
	org1, org2 := uuid.New(), uuid.New()
	alice1 := models.Client{ID: uuid.New(), OrgID: org1, Username: "alice", PasswordHash: mustHash(t, "password-one")}
	alice2 := models.Client{ID: uuid.New(), OrgID: org2, Username: "alice", PasswordHash: mustHash(t, "password-two")}
	router := newLoginRouter(&fakeCredentials{clients: []models.Client{alice1, alice2}})

	w := doLogin(t, router, LoginRequest{Username: "alice", Password: "password-one"})
	if w.Code != http.StatusOK {
		t.Fatalf("first alice: status %d, body %s", w.Code, w.Body.String())
	}
	if got := decodeToken(t, w); got.SubjectID != alice1.ID || got.OrgID != org1 {
		t.Errorf("first alice resolved to %+v", got)
	}

	w = doLogin(t, router, LoginRequest{Username: "alice", Password: "password-two"})
	if w.Code != http.StatusOK {
		t.Fatalf("second alice: status %d, body %s", w.Code, w.Body.String())
	}
	if got := decodeToken(t, w); got.SubjectID != alice2.ID || got.OrgID != org2 {
		t.Errorf("second alice resolved to %+v", got)
	}

	w = doLogin(t, router, LoginRequest{Username: "alice", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status %d", w.Code)
	}
}

func TestLoginCaseInsensitiveUsername(t *testing.T) {
	alice := models.Client{ID: uuid.New(), OrgID: uuid.New(), Username: "alice", PasswordHash: mustHash(t, "secret123")}
	router := newLoginRouter(&fakeCredentials{clients: []models.Client{alice}})

	w := doLogin(t, router, LoginRequest{Username: "ALICE", Password: "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
}

func TestLoginRejectsDeletedAccount(t *testing.T) {
	now := time.Now()
	alice := models.Client{ID: uuid.New(), OrgID: uuid.New(), Username: "alice",
		PasswordHash: mustHash(t, "secret123"), DeletedAt: &now}
	router := newLoginRouter(&fakeCredentials{clients: []models.Client{alice}})

	w := doLogin(t, router, LoginRequest{Username: "alice", Password: "secret123"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "account deleted") {
		t.Errorf("body %s, want account-deleted message", w.Body.String())
	}
}

// A deleted account must not shadow an active one holding the same username
// and password in another organisation.
func TestLoginActiveMatchBeatsDeleted(t *testing.T) {
	now := time.Now()
	dead := models.Client{ID: uuid.New(), OrgID: uuid.New(), Username: "alice",
		PasswordHash: mustHash(t, "secret123"), DeletedAt: &now}
	live := models.Client{ID: uuid.New(), OrgID: uuid.New(), Username: "alice",
		PasswordHash: mustHash(t, "secret123")}
	router := newLoginRouter(&fakeCredentials{clients: []models.Client{dead, live}})

	w := doLogin(t, router, LoginRequest{Username: "alice", Password: "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	if got := decodeToken(t, w); got.SubjectID != live.ID {
		t.Errorf("resolved to %s, want the active account %s", got.SubjectID, live.ID)
	}
}

func TestLoginTechnicianRole(t *testing.T) {
	tech := models.Technician{ID: uuid.New(), OrgID: uuid.New(), Username: "marc",
		PasswordHash: mustHash(t, "secret123")}
	router := newLoginRouter(&fakeCredentials{technicians: []models.Technician{tech}})

	w := doLogin(t, router, LoginRequest{Username: "marc", Password: "secret123", Role: "technician"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	if got := decodeToken(t, w); got.Role != models.RoleTechnician {
		t.Errorf("role %s, want technician", got.Role)
	}

	// The same username does not exist in the clients table.
	w = doLogin(t, router, LoginRequest{Username: "marc", Password: "secret123"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("client-role login: status %d, want 401", w.Code)
	}
}
