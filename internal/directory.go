package internal

import (
	"context"
	"sync"
)

// Directory tracks the workspace (knowledge base) list and the single
// active workspace id. The active id is persisted and always references an
// entry of the last fetched list, or is empty.
type Directory struct {
	store Store

	mu         sync.Mutex
	workspaces []Workspace
	activeID   string
}

// NewDirectory restores the persisted active workspace id
func NewDirectory(store Store) *Directory {
	return &Directory{
		store:    store,
		activeID: store.Get(KeyActiveKB, ""),
	}
}

// Workspaces returns the last fetched list
func (d *Directory) Workspaces() []Workspace {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := make([]Workspace, len(d.workspaces))
	copy(list, d.workspaces)
	return list
}

// ActiveID returns the active workspace id, empty when none is selected
func (d *Directory) ActiveID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeID
}

// Active returns the active workspace, nil when the id is empty or no longer
// present in the fetched list
func (d *Directory) Active() *Workspace {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.workspaces {
		if d.workspaces[i].ID == d.activeID {
			ws := d.workspaces[i]
			return &ws
		}
	}
	return nil
}

// Refresh fetches the workspace list. Auto-selection fires only when all
// three hold: no workspace is active, the list is non-empty, and the user
// has never made an explicit selection. In every other combination the
// active id is left untouched.
func (d *Directory) Refresh(ctx context.Context, client *Client) ([]Workspace, error) {
	list, err := client.ListKnowledgeBases(ctx)
	if err != nil {
		return nil, err
	}
	selectedByUser := d.store.Get(KeySelectedByUser, "") == "true"

	d.mu.Lock()
	d.workspaces = list
	autoSelected := ""
	if d.activeID == "" && len(list) > 0 && !selectedByUser {
		d.activeID = list[0].ID
		autoSelected = list[0].ID
	}
	d.mu.Unlock()

	if autoSelected != "" {
		LogDebug("auto-selected workspace %s", autoSelected)
		if err := d.store.Set(KeyActiveKB, autoSelected); err != nil {
			LogWarn("failed to persist workspace selection: %v", err)
		}
	}
	return list, nil
}

// Select makes id the active workspace and permanently disables
// auto-selection for this profile. The id must be present in the last
// fetched list.
func (d *Directory) Select(id string) error {
	d.mu.Lock()
	found := false
	for _, ws := range d.workspaces {
		if ws.ID == id {
			found = true
			break
		}
	}
	if !found {
		d.mu.Unlock()
		return errValidation("Unknown knowledge base: " + id)
	}
	d.activeID = id
	d.mu.Unlock()

	if err := d.store.Set(KeyActiveKB, id); err != nil {
		return err
	}
	return d.store.Set(KeySelectedByUser, "true")
}

// Create provisions a new workspace, refreshes the directory and makes the
// new workspace active. Creation counts as an explicit selection.
func (d *Directory) Create(ctx context.Context, client *Client, name, description string) (*Workspace, error) {
	kb, err := client.CreateKnowledgeBase(ctx, name, description)
	if err != nil {
		return nil, err
	}
	if err := d.store.Set(KeySelectedByUser, "true"); err != nil {
		LogWarn("failed to persist selection flag: %v", err)
	}
	if _, err := d.Refresh(ctx, client); err != nil {
		LogWarn("directory refresh after create failed: %v", err)
	}
	if kb.ID != "" {
		d.mu.Lock()
		d.activeID = kb.ID
		d.mu.Unlock()
		if err := d.store.Set(KeyActiveKB, kb.ID); err != nil {
			LogWarn("failed to persist workspace selection: %v", err)
		}
	}
	return kb, nil
}

// setActive is used by the synchronizer when clearing a dangling selection
func (d *Directory) setActive(id string) {
	d.mu.Lock()
	d.activeID = id
	d.mu.Unlock()
	if err := d.store.Set(KeyActiveKB, id); err != nil {
		LogWarn("failed to persist workspace selection: %v", err)
	}
}
