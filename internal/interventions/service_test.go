package interventions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
)

// fakeStore is an in-memory Store that also records appended timeline events,
// mirroring the transactional repository.
type fakeStore struct {
	rows   map[uuid.UUID]*models.InterventionRow
	events []models.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uuid.UUID]*models.InterventionRow)}
}

func (f *fakeStore) append(ev *models.Event) {
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now()
	f.events = append(f.events, *ev)
}

func (f *fakeStore) Insert(_ context.Context, iv *models.Intervention, opened *models.Event) error {
	iv.ID = uuid.New()
	iv.CreatedAt = time.Now()
	iv.UpdatedAt = iv.CreatedAt
	f.rows[iv.ID] = &models.InterventionRow{Intervention: *iv}
	opened.InterventionID = iv.ID
	opened.OrgID = iv.OrgID
	f.append(opened)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, orgID, id uuid.UUID) (*models.InterventionRow, error) {
	row, ok := f.rows[id]
	if !ok || row.OrgID != orgID {
		return nil, apperr.NotFound("intervention %s", id)
	}
	cp := *row
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, orgID uuid.UUID, filter ListFilter, page models.PageParams) (int, []models.InterventionRow, error) {
	var all []models.InterventionRow
	for _, row := range f.rows {
		if row.OrgID != orgID || row.Deleted() {
			continue
		}
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		if filter.ClientID != nil && row.ClientID != *filter.ClientID {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(row.Description), strings.ToLower(filter.Query)) {
			continue
		}
		all = append(all, *row)
	}
	total := len(all)
	if page.Offset >= len(all) {
		return total, nil, nil
	}
	all = all[page.Offset:]
	if len(all) > page.Limit {
		all = all[:page.Limit]
	}
	return total, all, nil
}

func (f *fakeStore) Save(_ context.Context, iv *models.Intervention, ev *models.Event) error {
	row, ok := f.rows[iv.ID]
	if !ok || row.OrgID != iv.OrgID {
		return apperr.NotFound("intervention %s", iv.ID)
	}
	iv.UpdatedAt = time.Now()
	row.Intervention = *iv
	if ev != nil {
		ev.InterventionID = iv.ID
		ev.OrgID = iv.OrgID
		f.append(ev)
	}
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, orgID, id uuid.UUID, ev *models.Event) (bool, error) {
	row, ok := f.rows[id]
	if !ok || row.OrgID != orgID || row.Deleted() {
		return false, nil
	}
	now := time.Now()
	row.DeletedAt = &now
	ev.InterventionID = id
	ev.OrgID = orgID
	f.append(ev)
	return true, nil
}

type fakeClients struct {
	rows map[uuid.UUID]*models.Client
}

func (f *fakeClients) GetActive(_ context.Context, orgID, id uuid.UUID) (*models.Client, error) {
	c, ok := f.rows[id]
	if !ok || c.OrgID != orgID || c.Deleted() {
		return nil, apperr.NotFound("client %s", id)
	}
	return c, nil
}

type fakeTechnicians struct {
	rows map[uuid.UUID]*models.Technician
}

func (f *fakeTechnicians) GetActive(_ context.Context, orgID, id uuid.UUID) (*models.Technician, error) {
	t, ok := f.rows[id]
	if !ok || t.OrgID != orgID || t.Deleted() {
		return nil, apperr.NotFound("technician %s", id)
	}
	return t, nil
}

type fixture struct {
	svc        *Service
	store      *fakeStore
	org        uuid.UUID
	client     *models.Client
	technician *models.Technician
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	org := uuid.New()
	client := &models.Client{ID: uuid.New(), OrgID: org, FirstName: "Jean", LastName: "Dupont"}
	tech := &models.Technician{ID: uuid.New(), OrgID: org, FirstName: "Marc", LastName: "Roux"}
	store := newFakeStore()
	svc := NewService(store,
		&fakeClients{rows: map[uuid.UUID]*models.Client{client.ID: client}},
		&fakeTechnicians{rows: map[uuid.UUID]*models.Technician{tech.ID: tech}},
		nil)
	return &fixture{svc: svc, store: store, org: org, client: client, technician: tech}
}

func (fx *fixture) create(t *testing.T) *models.InterventionRow {
	t.Helper()
	iv, err := fx.svc.Create(context.Background(), fx.org, CreateParams{
		ClientID:     fx.client.ID,
		TechnicianID: fx.technician.ID,
		Description:  "brake pads",
	}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return iv
}

func TestCreateDefaultsToPending(t *testing.T) {
	fx := newFixture(t)
	iv := fx.create(t)
	if iv.Status != models.StatusPending {
		t.Errorf("status %s, want pending", iv.Status)
	}
	if iv.ClientName != "Jean Dupont" || iv.TechnicianName != "Marc Roux" {
		t.Errorf("display names not joined: %q / %q", iv.ClientName, iv.TechnicianName)
	}
	if len(fx.store.events) != 1 || fx.store.events[0].Type != models.EventCreated {
		t.Fatalf("expected one created event, got %+v", fx.store.events)
	}
}

func TestCreateRejectsUnknownParties(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, fx.org, CreateParams{
		ClientID: uuid.New(), TechnicianID: fx.technician.ID, Description: "x",
	}, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown client: got %v, want not found", err)
	}
	_, err = fx.svc.Create(ctx, fx.org, CreateParams{
		ClientID: fx.client.ID, TechnicianID: uuid.New(), Description: "x",
	}, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown technician: got %v, want not found", err)
	}
}

func TestCreateRejectsDeletedClient(t *testing.T) {
	fx := newFixture(t)
	now := time.Now()
	fx.client.DeletedAt = &now
	_, err := fx.svc.Create(context.Background(), fx.org, CreateParams{
		ClientID: fx.client.ID, TechnicianID: fx.technician.ID, Description: "x",
	}, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted client: got %v, want not found", err)
	}
}

func TestCreateRejectsCrossTenantParties(t *testing.T) {
	fx := newFixture(t)
	otherOrg := uuid.New()
	_, err := fx.svc.Create(context.Background(), otherOrg, CreateParams{
		ClientID: fx.client.ID, TechnicianID: fx.technician.ID, Description: "x",
	}, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-tenant party: got %v, want not found", err)
	}
}

func setStatus(t *testing.T, fx *fixture, id uuid.UUID, s models.Status) *models.InterventionRow {
	t.Helper()
	iv, err := fx.svc.Update(context.Background(), fx.org, id, UpdateParams{Status: &s}, nil)
	if err != nil {
		t.Fatalf("Update to %s: %v", s, err)
	}
	return iv
}

func TestLifecycleHappyPath(t *testing.T) {
	fx := newFixture(t)
	iv := fx.create(t)

	got := setStatus(t, fx, iv.ID, models.StatusInProgress)
	if got.Status != models.StatusInProgress {
		t.Fatalf("status %s, want in_progress", got.Status)
	}
	got = setStatus(t, fx, iv.ID, models.StatusCompleted)
	if got.Status != models.StatusCompleted {
		t.Fatalf("status %s, want completed", got.Status)
	}

	// created, started, completed
	types := make([]string, 0, len(fx.store.events))
	for _, ev := range fx.store.events {
		types = append(types, ev.Type)
	}
	want := []string{models.EventCreated, models.EventStarted, models.EventCompleted}
	if len(types) != len(want) {
		t.Fatalf("events %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events %v, want %v", types, want)
		}
	}

	var payload struct{ From, To string }
	if err := json.Unmarshal(fx.store.events[1].Payload, &payload); err != nil {
		t.Fatalf("status event payload: %v", err)
	}
	if payload.From != "pending" || payload.To != "in_progress" {
		t.Errorf("payload %+v, want from=pending to=in_progress", payload)
	}
}

func TestInvalidTransitionsConflict(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		path []models.Status // statuses applied before the attempt
		to   models.Status
	}{
		{nil, models.StatusCompleted},                      // pending -> completed
		{nil, models.StatusPending},                        // pending -> pending
		{[]models.Status{models.StatusInProgress}, models.StatusPending},
		{[]models.Status{models.StatusInProgress, models.StatusCompleted}, models.StatusInProgress},
		{[]models.Status{models.StatusCancelled}, models.StatusInProgress},
		{[]models.Status{models.StatusCancelled}, models.StatusCancelled}, // no self-loop
	}
	for _, tc := range cases {
		iv := fx.create(t)
		for _, s := range tc.path {
			setStatus(t, fx, iv.ID, s)
		}
		_, err := fx.svc.Update(ctx, fx.org, iv.ID, UpdateParams{Status: &tc.to}, nil)
		if !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("path %v -> %s: got %v, want conflict", tc.path, tc.to, err)
		}
	}
}

func TestConflictNamesBothStatuses(t *testing.T) {
	fx := newFixture(t)
	iv := fx.create(t)
	to := models.StatusCompleted
	_, err := fx.svc.Update(context.Background(), fx.org, iv.ID, UpdateParams{Status: &to}, nil)
	if err == nil || !strings.Contains(err.Error(), "pending") || !strings.Contains(err.Error(), "completed") {
		t.Errorf("conflict should report current and requested status, got %v", err)
	}
}

func TestCancellableFromEveryActiveState(t *testing.T) {
	fx := newFixture(t)

	for _, path := range [][]models.Status{
		nil,
		{models.StatusInProgress},
		{models.StatusInProgress, models.StatusCompleted},
	} {
		iv := fx.create(t)
		for _, s := range path {
			setStatus(t, fx, iv.ID, s)
		}
		got := setStatus(t, fx, iv.ID, models.StatusCancelled)
		if got.Status != models.StatusCancelled {
			t.Errorf("path %v: status %s, want cancelled", path, got.Status)
		}
	}
}

func TestDescriptionUpdateWithoutStatus(t *testing.T) {
	fx := newFixture(t)
	iv := fx.create(t)

	desc := "brake pads and discs"
	got, err := fx.svc.Update(context.Background(), fx.org, iv.ID, UpdateParams{Description: &desc}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Description != desc {
		t.Errorf("description %q, want %q", got.Description, desc)
	}
	// No status change, no timeline event beyond the opening one.
	if len(fx.store.events) != 1 {
		t.Errorf("description-only update must not append events, got %d", len(fx.store.events))
	}
}

func TestDeleteLifecycle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	iv := fx.create(t)

	if err := fx.svc.Delete(ctx, fx.org, iv.ID, nil); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := fx.svc.Delete(ctx, fx.org, iv.ID, nil); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second delete: got %v, want conflict", err)
	}
	last := fx.store.events[len(fx.store.events)-1]
	if last.Type != models.EventDeleted {
		t.Errorf("last event %q, want deleted", last.Type)
	}
	// Still readable as history, carrying the deletion timestamp.
	got, err := fx.svc.Get(ctx, fx.org, iv.ID)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if !got.Deleted() {
		t.Error("deleted intervention must carry its deletion timestamp")
	}
	// Excluded from listings.
	total, _, err := fx.svc.List(ctx, fx.org, ListFilter{}, models.PageParams{Limit: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 {
		t.Errorf("deleted intervention listed, total=%d", total)
	}
}

func TestUpdateDeletedConflicts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	iv := fx.create(t)
	if err := fx.svc.Delete(ctx, fx.org, iv.ID, nil); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	to := models.StatusInProgress
	if _, err := fx.svc.Update(ctx, fx.org, iv.ID, UpdateParams{Status: &to}, nil); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("update deleted: got %v, want conflict", err)
	}
}

func TestCrossTenantInterventionHidden(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	iv := fx.create(t)
	otherOrg := uuid.New()

	if _, err := fx.svc.Get(ctx, otherOrg, iv.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get: got %v, want not found", err)
	}
	to := models.StatusInProgress
	if _, err := fx.svc.Update(ctx, otherOrg, iv.ID, UpdateParams{Status: &to}, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Update: got %v, want not found", err)
	}
	if err := fx.svc.Delete(ctx, otherOrg, iv.ID, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Delete: got %v, want not found", err)
	}
}

func TestListFilters(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a := fx.create(t)
	fx.create(t)
	setStatus(t, fx, a.ID, models.StatusInProgress)

	status := models.StatusInProgress
	total, list, err := fx.svc.List(ctx, fx.org, ListFilter{Status: &status}, models.PageParams{Limit: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("status filter: total=%d len=%d", total, len(list))
	}

	total, _, err = fx.svc.List(ctx, fx.org, ListFilter{ClientID: &fx.client.ID}, models.PageParams{Limit: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("client filter: total=%d, want 2", total)
	}
}
