package internal

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Mutation handlers share one shape: validate local inputs, issue the
// request, on failure surface the server-derived message and leave prior
// state untouched, on success refresh the dependent read state and confirm
// with a notification.

// Login exchanges credentials for a token, stores it and cascades the
// credential change through the dependent rules. The password is never
// persisted.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		err := errValidation("Email and password are required.")
		c.notifier.Error(err.Error())
		return err
	}
	token, err := c.client().Login(ctx, email, password)
	if err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	if err := c.Session.SetToken(token); err != nil {
		return err
	}
	c.notifier.Success("Logged in.")
	next := c.Inputs()
	next.Token = token
	c.SetInputs(ctx, next)
	return nil
}

// Register creates an account. Success does not log in; the user must
// authenticate explicitly afterwards.
func (c *Controller) Register(ctx context.Context, req RegisterRequest) error {
	if req.Email == "" || req.Password == "" {
		err := errValidation("Email and password are required.")
		c.notifier.Error(err.Error())
		return err
	}
	if err := c.client().Register(ctx, req); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	c.notifier.Success("Account created. Please log in.")
	return nil
}

// Logout clears the session and cascades: token, current user and inbox all
// reset regardless of network availability.
func (c *Controller) Logout(ctx context.Context) {
	c.Session.Logout()
	next := c.Inputs()
	next.Token = ""
	c.SetInputs(ctx, next)
}

// DeleteAccount removes the acting user's own account, then logs out
func (c *Controller) DeleteAccount(ctx context.Context) error {
	user := c.Session.CurrentUser()
	if user == nil {
		return errValidation("Login required.")
	}
	if err := c.client().DeleteUser(ctx, user.ID); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	c.notifier.Success("Account deleted.")
	c.Logout(ctx)
	return nil
}

// DeleteUser removes an account (admin operation). Deleting the acting
// user's own account cascades into logout.
func (c *Controller) DeleteUser(ctx context.Context, userID string) error {
	if err := c.client().DeleteUser(ctx, userID); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	c.mu.Lock()
	kept := c.adminUsers[:0]
	for _, user := range c.adminUsers {
		if user.ID != userID {
			kept = append(kept, user)
		}
	}
	c.adminUsers = kept
	c.mu.Unlock()
	c.notifier.Success("User deleted.")
	if self := c.Session.CurrentUser(); self != nil && self.ID == userID {
		c.Logout(ctx)
	}
	return nil
}

// ToggleAdmin flips the admin role of an account (admin operation). The
// server is the real authorization boundary; this is the client-side view.
func (c *Controller) ToggleAdmin(ctx context.Context, userID string, isAdmin bool) error {
	if err := c.client().SetUserRole(ctx, userID, isAdmin); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	c.mu.Lock()
	for i := range c.adminUsers {
		if c.adminUsers[i].ID == userID {
			c.adminUsers[i].IsAdmin = isAdmin
		}
	}
	c.mu.Unlock()
	c.notifier.Success("Role updated.")
	return nil
}

// CreateWorkspace provisions a knowledge base, marks the selection explicit
// and makes the new workspace active.
func (c *Controller) CreateWorkspace(ctx context.Context, name, description string) (*Workspace, error) {
	if name == "" {
		return nil, errValidation("Name is required.")
	}
	kb, err := c.Directory.Create(ctx, c.client(), name, description)
	if err != nil {
		c.mu.Lock()
		c.kbErr = err.Error()
		c.mu.Unlock()
		c.notifier.Error(err.Error())
		return nil, err
	}
	c.notifier.Success("Knowledge base created.")
	next := c.Inputs()
	next.ActiveKB = c.Directory.ActiveID()
	c.SetInputs(ctx, next)
	return kb, nil
}

// SelectWorkspace makes id the active workspace and re-fires the rules
// that depend on it
func (c *Controller) SelectWorkspace(ctx context.Context, id string) error {
	if err := c.Directory.Select(id); err != nil {
		return err
	}
	next := c.Inputs()
	next.ActiveKB = id
	c.SetInputs(ctx, next)
	return nil
}

// UploadDocuments streams local files into the active workspace, then
// refreshes the document list.
func (c *Controller) UploadDocuments(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errValidation("No files selected.")
	}
	in := c.Inputs()
	if in.ActiveKB == "" {
		err := errValidation("Select or create a knowledge base first.")
		c.reportDocsError(err)
		return err
	}
	client := c.client()
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			c.reportDocsError(err)
			return err
		}
		err = client.UploadDocument(ctx, in.ActiveKB, filepath.Base(path), file)
		file.Close()
		if err != nil {
			c.reportDocsError(err)
			return err
		}
	}
	c.fireDocuments(ctx, in)
	c.notifier.Success("Documents uploaded.")
	return nil
}

// DeleteDocument removes a document and refreshes the list. Confirmation is
// the caller's responsibility; the deletion is irreversible client-side.
func (c *Controller) DeleteDocument(ctx context.Context, docID string) error {
	in := c.Inputs()
	if in.ActiveKB == "" {
		return errValidation("Select a knowledge base first.")
	}
	if err := c.client().DeleteDocument(ctx, in.ActiveKB, docID); err != nil {
		c.reportDocsError(err)
		return err
	}
	c.fireDocuments(ctx, in)
	c.notifier.Success("Document deleted.")
	return nil
}

// RunIngest triggers ingestion for the active workspace, records the run
// timestamp and refreshes documents plus the affected analytics.
func (c *Controller) RunIngest(ctx context.Context) error {
	in := c.Inputs()
	if in.ActiveKB == "" {
		err := errValidation("Select a knowledge base first.")
		c.reportDocsError(err)
		return err
	}
	if err := c.client().Ingest(ctx, in.ActiveKB); err != nil {
		c.reportDocsError(err)
		return err
	}
	if err := c.store.Set(KeyLastIngestAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		LogWarn("failed to persist ingest timestamp: %v", err)
	}
	c.fireDocuments(ctx, in)
	c.fireWorkspaceAnalytics(ctx, in)
	c.fireOverview(ctx, in)
	c.notifier.Success("Ingestion started.")
	return nil
}

// RunQuery asks a question against the active workspace, folds the observed
// latency into the persisted usage counters and refreshes the query-side
// analytics.
func (c *Controller) RunQuery(ctx context.Context, question string, topK int) (*QueryResult, int, error) {
	in := c.Inputs()
	if in.ActiveKB == "" {
		err := errValidation("Please select a knowledge base first.")
		c.notifier.Error(err.Error())
		return nil, 0, err
	}
	if question == "" {
		err := errValidation("Please enter a question.")
		c.notifier.Error(err.Error())
		return nil, 0, err
	}
	start := time.Now()
	result, err := c.client().Query(ctx, in.ActiveKB, question, topK)
	if err != nil {
		c.notifier.Error(err.Error())
		return nil, 0, err
	}
	latency := int(time.Since(start).Milliseconds())

	usage := LoadUsage(c.store)
	usage.Record(latency)
	if err := SaveUsage(c.store, usage); err != nil {
		LogWarn("failed to persist usage counters: %v", err)
	}
	c.notifier.Success("Answer ready.")
	c.fireWorkspaceAnalytics(ctx, in)
	c.fireOverview(ctx, in)
	return result, latency, nil
}

// SendMessage delivers a direct or broadcast message, clears nothing the
// caller did not own and refreshes the inbox
func (c *Controller) SendMessage(ctx context.Context, scope, recipient, subject, body string) error {
	in := c.Inputs()
	if in.Token == "" {
		err := errValidation("Login required to send messages.")
		c.notifier.Error(err.Error())
		return err
	}
	scope = NormalizeScope(scope)
	if scope == ScopeDirect && recipient == "" {
		err := errValidation("Recipient email is required.")
		c.notifier.Error(err.Error())
		return err
	}
	if body == "" {
		err := errValidation("Message body is required.")
		c.notifier.Error(err.Error())
		return err
	}
	if err := c.client().SendMessage(ctx, scope, recipient, subject, body); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	c.notifier.Success("Message sent.")
	c.fireInbox(ctx, in)
	return nil
}

// MarkMessageRead sets the read timestamp and refreshes the inbox
func (c *Controller) MarkMessageRead(ctx context.Context, messageID string) error {
	in := c.Inputs()
	if in.Token == "" {
		return errValidation("Login required.")
	}
	if err := c.client().MarkRead(ctx, messageID); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	c.fireInbox(ctx, in)
	return nil
}

// DeleteInboxMessage removes a message, updating the local view directly
func (c *Controller) DeleteInboxMessage(ctx context.Context, messageID string) error {
	in := c.Inputs()
	if in.Token == "" {
		return errValidation("Login required.")
	}
	if err := c.client().DeleteMessage(ctx, messageID); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	c.mu.Lock()
	kept := c.inbox[:0]
	for _, msg := range c.inbox {
		if msg.ID != messageID {
			kept = append(kept, msg)
		}
	}
	c.inbox = kept
	c.mu.Unlock()
	c.notifier.Success("Message deleted.")
	return nil
}

// CreateCalendarEvent adds an event, keeping the month view sorted
func (c *Controller) CreateCalendarEvent(ctx context.Context, event CalendarEvent) (*CalendarEvent, error) {
	if c.Inputs().Token == "" {
		return nil, errValidation("Login required.")
	}
	if event.Title == "" {
		return nil, errValidation("Title is required.")
	}
	created, err := c.client().CreateEvent(ctx, event)
	if err != nil {
		c.notifier.Error(err.Error())
		return nil, err
	}
	c.mu.Lock()
	c.calendar = append(c.calendar, *created)
	SortEvents(c.calendar)
	c.mu.Unlock()
	return created, nil
}

// UpdateCalendarEvent patches an event in place, preserving sort order
func (c *Controller) UpdateCalendarEvent(ctx context.Context, eventID string, patch CalendarEvent) (*CalendarEvent, error) {
	if c.Inputs().Token == "" {
		return nil, errValidation("Login required.")
	}
	updated, err := c.client().UpdateEvent(ctx, eventID, patch)
	if err != nil {
		c.notifier.Error(err.Error())
		return nil, err
	}
	c.mu.Lock()
	for i := range c.calendar {
		if c.calendar[i].ID == eventID {
			c.calendar[i] = *updated
		}
	}
	SortEvents(c.calendar)
	c.mu.Unlock()
	return updated, nil
}

// DeleteCalendarEvent removes an event from the month view
func (c *Controller) DeleteCalendarEvent(ctx context.Context, eventID string) error {
	if c.Inputs().Token == "" {
		return errValidation("Login required.")
	}
	if err := c.client().DeleteEvent(ctx, eventID); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	c.mu.Lock()
	kept := c.calendar[:0]
	for _, event := range c.calendar {
		if event.ID != eventID {
			kept = append(kept, event)
		}
	}
	c.calendar = kept
	c.mu.Unlock()
	return nil
}

// HealthCheck probes the backend connection
func (c *Controller) HealthCheck(ctx context.Context) error {
	return c.client().Health(ctx)
}

// reportDocsError dual-reports a failure: the documents slice keeps its
// field-level error while the toast channel gets global visibility.
func (c *Controller) reportDocsError(err error) {
	c.mu.Lock()
	c.docsErr = err.Error()
	c.mu.Unlock()
	c.notifier.Error(err.Error())
}
