package internal

import (
	"context"
	"net/http"
	"testing"

	"github.com/kivohq/kivoctl/testutil"
)

func directoryClient(t *testing.T, api *testutil.MockAPI) *Client {
	t.Helper()
	return NewClient(ConnectionConfig{BaseURL: api.URL(), APIKey: "key"}, "")
}

func TestDirectory_RefreshAutoSelectsFirst(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, testutil.FixtureWorkspaces())

	store := newTestStore(t)
	d := NewDirectory(store)

	list, err := d.Refresh(context.Background(), directoryClient(t, api))
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Refresh() len = %d, want 2", len(list))
	}
	if got := d.ActiveID(); got != "kb1" {
		t.Errorf("ActiveID() = %q, want kb1 (auto-selected)", got)
	}
	if got := store.Get(KeyActiveKB, ""); got != "kb1" {
		t.Errorf("persisted active id = %q, want kb1", got)
	}
	if got := store.Get(KeySelectedByUser, ""); got != "" {
		t.Errorf("auto-selection must not set the explicit flag, got %q", got)
	}
}

func TestDirectory_RefreshKeepsExistingSelection(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, testutil.FixtureWorkspaces())

	store := newTestStore(t)
	if err := store.Set(KeyActiveKB, "kb2"); err != nil {
		t.Fatal(err)
	}
	d := NewDirectory(store)

	if _, err := d.Refresh(context.Background(), directoryClient(t, api)); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := d.ActiveID(); got != "kb2" {
		t.Errorf("ActiveID() = %q, want kb2 untouched", got)
	}
}

func TestDirectory_RefreshRespectsExplicitFlag(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, testutil.FixtureWorkspaces())

	store := newTestStore(t)
	if err := store.Set(KeySelectedByUser, "true"); err != nil {
		t.Fatal(err)
	}
	d := NewDirectory(store)

	if _, err := d.Refresh(context.Background(), directoryClient(t, api)); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := d.ActiveID(); got != "" {
		t.Errorf("ActiveID() = %q, want empty: explicit flag disables auto-select", got)
	}
}

func TestDirectory_RefreshEmptyList(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, []Workspace{})

	store := newTestStore(t)
	d := NewDirectory(store)

	if _, err := d.Refresh(context.Background(), directoryClient(t, api)); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := d.ActiveID(); got != "" {
		t.Errorf("ActiveID() = %q, want empty for empty list", got)
	}
}

func TestDirectory_SelectSetsExplicitFlag(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, testutil.FixtureWorkspaces())

	store := newTestStore(t)
	d := NewDirectory(store)
	if _, err := d.Refresh(context.Background(), directoryClient(t, api)); err != nil {
		t.Fatal(err)
	}

	if err := d.Select("kb2"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if got := d.ActiveID(); got != "kb2" {
		t.Errorf("ActiveID() = %q, want kb2", got)
	}
	if got := store.Get(KeySelectedByUser, ""); got != "true" {
		t.Errorf("explicit flag = %q, want true", got)
	}
}

func TestDirectory_SelectUnknownID(t *testing.T) {
	store := newTestStore(t)
	d := NewDirectory(store)

	err := d.Select("nope")
	if err == nil {
		t.Fatal("Select() error = nil, want validation failure")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("Select() error type = %T, want *ValidationError", err)
	}
}

func TestDirectory_Active(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, testutil.FixtureWorkspaces())

	store := newTestStore(t)
	d := NewDirectory(store)
	if _, err := d.Refresh(context.Background(), directoryClient(t, api)); err != nil {
		t.Fatal(err)
	}

	active := d.Active()
	if active == nil || active.Name != "Finance" {
		t.Errorf("Active() = %+v, want Finance", active)
	}

	// A dangling id resolves to nil
	d.setActive("gone")
	if got := d.Active(); got != nil {
		t.Errorf("Active() with dangling id = %+v, want nil", got)
	}
}

func TestDirectory_CreateActivatesNewWorkspace(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/knowledge-bases", 201, map[string]string{"id": "kb3", "name": "Legal"})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, []map[string]string{
		{"id": "kb1", "name": "Finance"},
		{"id": "kb2", "name": "HR"},
		{"id": "kb3", "name": "Legal"},
	})

	store := newTestStore(t)
	d := NewDirectory(store)

	kb, err := d.Create(context.Background(), directoryClient(t, api), "Legal", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if kb.ID != "kb3" {
		t.Errorf("Create() id = %q, want kb3", kb.ID)
	}
	if got := d.ActiveID(); got != "kb3" {
		t.Errorf("ActiveID() = %q, want kb3", got)
	}
	if got := store.Get(KeySelectedByUser, ""); got != "true" {
		t.Errorf("creation must count as explicit selection, flag = %q", got)
	}
}
