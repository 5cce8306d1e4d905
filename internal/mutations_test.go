package internal

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kivohq/kivoctl/testutil"
)

func TestLogin_Validation(t *testing.T) {
	api := testutil.NewMockAPI(t)
	c, _ := newTestController(t, api)

	err := c.Login(context.Background(), "", "pw")
	require.Error(t, err)
	assert.Equal(t, "Email and password are required.", err.Error())
	assert.Empty(t, api.Requests(), "validation failures must not reach the network")
}

func TestLogin_StoresTokenAndCascades(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/auth/login", 200, map[string]string{"access_token": "fresh"})
	api.HandleJSON(http.MethodGet, "/api/v1/auth/me", 200, testutil.FixtureUser())
	api.HandleJSON(http.MethodGet, "/api/v1/auth/users", 200, []UserProfile{})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, []Workspace{})
	api.HandleJSON(http.MethodGet, "/api/v1/messages/inbox", 200, []InboxMessage{})
	api.HandleJSON(http.MethodGet, "/api/v1/calendar/events", 200, []CalendarEvent{})
	api.HandleJSON(http.MethodGet, "/api/v1/workspace/overview", 200, Overview{QueriesCount: 4})

	store := newTestStore(t)
	require.NoError(t, store.Set(KeyBaseURL, api.URL()))
	c := NewController(store, NewNotifier())

	err := c.Login(context.Background(), "ops@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "fresh", store.Get(KeyToken, ""))
	assert.Equal(t, "fresh", c.Inputs().Token)
	require.NotNil(t, c.Session.CurrentUser())
	assert.Equal(t, "ops@example.com", c.Session.CurrentUser().Email)
	require.NotNil(t, c.Overview())
	assert.Equal(t, 4, c.Overview().QueriesCount)
}

func TestLogin_FailureKeepsState(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/auth/login", 401, map[string]string{"detail": "Incorrect email or password"})

	store := newTestStore(t)
	require.NoError(t, store.Set(KeyBaseURL, api.URL()))
	c := NewController(store, NewNotifier())

	err := c.Login(context.Background(), "ops@example.com", "bad")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", err.Error())
	assert.Empty(t, store.Get(KeyToken, ""))
	assert.Empty(t, c.Inputs().Token)
}

func TestRegister(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/auth/register", 201, nil)

	c, store := newTestController(t, api)
	notifier := c.Notifier()

	err := c.Register(context.Background(), RegisterRequest{Email: "new@x.y", Password: "pw"})
	require.NoError(t, err)

	// Registration never logs in
	assert.Equal(t, "tok", store.Get(KeyToken, ""))

	toasts := notifier.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Account created. Please log in.", toasts[0].Message)
}

func TestCreateWorkspace(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/knowledge-bases", 201, Workspace{ID: "kb9", Name: "Legal"})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, []Workspace{{ID: "kb9", Name: "Legal"}})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb9/documents", 200, []Document{})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb9/analytics/query-volume", 200, []QueryVolumePoint{})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb9/analytics/recent-queries", 200, []RecentQuery{})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb9/analytics/recent-ingests", 200, []RecentIngest{})

	c, store := newTestController(t, api)

	kb, err := c.CreateWorkspace(context.Background(), "Legal", "contracts")
	require.NoError(t, err)
	assert.Equal(t, "kb9", kb.ID)
	assert.Equal(t, "kb9", c.Inputs().ActiveKB)
	assert.Equal(t, "true", store.Get(KeySelectedByUser, ""))
}

func TestCreateWorkspace_RequiresName(t *testing.T) {
	api := testutil.NewMockAPI(t)
	c, _ := newTestController(t, api)

	_, err := c.CreateWorkspace(context.Background(), "", "")
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestUploadDocuments(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/knowledge-bases/kb1/documents", 201, nil)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb1/documents", 200, testutil.FixtureDocuments())

	c, _ := newTestController(t, api)
	next := c.Inputs()
	next.ActiveKB = "kb1"
	c.mu.Lock()
	c.inputs = next
	c.mu.Unlock()

	dir := testutil.CreateTempDir(t)
	path := testutil.WriteTempFile(t, dir, "notes.txt", "hello")

	err := c.UploadDocuments(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Len(t, api.RequestsFor(http.MethodPost, "/api/v1/knowledge-bases/kb1/documents"), 1)
	assert.Len(t, c.Documents(), 2, "document list refreshes after upload")
}

func TestUploadDocuments_NoActiveWorkspace(t *testing.T) {
	api := testutil.NewMockAPI(t)
	c, _ := newTestController(t, api)

	dir := testutil.CreateTempDir(t)
	path := testutil.WriteTempFile(t, dir, "notes.txt", "hello")

	err := c.UploadDocuments(context.Background(), []string{path})
	require.Error(t, err)
	assert.Equal(t, "Select or create a knowledge base first.", err.Error())
	assert.Equal(t, err.Error(), c.DocumentsError(), "error is dual-reported on the slice")
}

func TestRunQuery_RecordsUsage(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/knowledge-bases/kb1/query", 200, QueryResult{Answer: "42"})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb1/analytics/query-volume", 200, []QueryVolumePoint{})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb1/analytics/recent-queries", 200, []RecentQuery{})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb1/analytics/recent-ingests", 200, []RecentIngest{})
	api.HandleJSON(http.MethodGet, "/api/v1/workspace/overview", 200, Overview{})

	c, store := newTestController(t, api)
	next := c.Inputs()
	next.ActiveKB = "kb1"
	c.mu.Lock()
	c.inputs = next
	c.mu.Unlock()

	result, latency, err := c.RunQuery(context.Background(), "why?", 0)
	require.NoError(t, err)
	assert.Equal(t, "42", result.Answer)
	assert.GreaterOrEqual(t, latency, 0)

	usage := LoadUsage(store)
	assert.Equal(t, 1, usage.QueryCount)
	assert.Equal(t, latency, usage.LastLatencyMs)
}

func TestRunQuery_Validation(t *testing.T) {
	api := testutil.NewMockAPI(t)
	c, _ := newTestController(t, api)

	_, _, err := c.RunQuery(context.Background(), "why?", 0)
	require.Error(t, err)
	assert.Equal(t, "Please select a knowledge base first.", err.Error())

	next := c.Inputs()
	next.ActiveKB = "kb1"
	c.mu.Lock()
	c.inputs = next
	c.mu.Unlock()

	_, _, err = c.RunQuery(context.Background(), "", 0)
	require.Error(t, err)
	assert.Equal(t, "Please enter a question.", err.Error())
}

func TestRunIngest_PersistsTimestamp(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/knowledge-bases/kb1/ingest", 202, nil)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb1/documents", 200, []Document{})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb1/analytics/query-volume", 200, []QueryVolumePoint{})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb1/analytics/recent-queries", 200, []RecentQuery{})
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases/kb1/analytics/recent-ingests", 200, []RecentIngest{})
	api.HandleJSON(http.MethodGet, "/api/v1/workspace/overview", 200, Overview{})

	c, store := newTestController(t, api)
	next := c.Inputs()
	next.ActiveKB = "kb1"
	c.mu.Lock()
	c.inputs = next
	c.mu.Unlock()

	err := c.RunIngest(context.Background())
	require.NoError(t, err)

	stamp := store.Get(KeyLastIngestAt, "")
	require.NotEmpty(t, stamp)
	_, parseErr := time.Parse(time.RFC3339, stamp)
	assert.NoError(t, parseErr, "ingest timestamp must be RFC3339")
}

func TestSendMessage_Validation(t *testing.T) {
	api := testutil.NewMockAPI(t)
	c, _ := newTestController(t, api)

	tests := []struct {
		name      string
		scope     string
		recipient string
		body      string
		want      string
	}{
		{"direct without recipient", ScopeDirect, "", "hi", "Recipient email is required."},
		{"empty body", ScopeDirect, "to@x.y", "", "Message body is required."},
		{"broadcast without body", ScopeBroadcast, "", "", "Message body is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.SendMessage(context.Background(), tt.scope, tt.recipient, "", tt.body)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
	assert.Empty(t, api.Requests())
}

func TestSendMessage_RequiresLogin(t *testing.T) {
	api := testutil.NewMockAPI(t)
	store := newTestStore(t)
	require.NoError(t, store.Set(KeyBaseURL, api.URL()))
	c := NewController(store, NewNotifier())

	err := c.SendMessage(context.Background(), ScopeDirect, "to@x.y", "", "hi")
	require.Error(t, err)
	assert.Equal(t, "Login required to send messages.", err.Error())
}

func TestDeleteInboxMessage_RemovesLocally(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodDelete, "/api/v1/messages/m1", 204, nil)

	c, _ := newTestController(t, api)
	c.mu.Lock()
	c.inbox = []InboxMessage{
		{ID: "m1", Scope: ScopeDirect},
		{ID: "m2", Scope: ScopeDirect},
	}
	c.mu.Unlock()

	err := c.DeleteInboxMessage(context.Background(), "m1")
	require.NoError(t, err)

	messages := c.InboxMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "m2", messages[0].ID)
}

func TestMarkMessageRead_RefetchesInbox(t *testing.T) {
	read := time.Now()
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/messages/m1/read", 200, nil)
	api.HandleJSON(http.MethodGet, "/api/v1/messages/inbox", 200, []InboxMessage{
		{ID: "m1", Scope: ScopeDirect, ReadAt: &read},
	})

	c, _ := newTestController(t, api)
	err := c.MarkMessageRead(context.Background(), "m1")
	require.NoError(t, err)

	messages := c.InboxMessages()
	require.Len(t, messages, 1)
	assert.False(t, messages[0].Unread())
}

func TestCreateCalendarEvent_KeepsSorted(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/calendar/events", 201, CalendarEvent{ID: "new", Date: "2026-09-03", Title: "Standup"})

	c, _ := newTestController(t, api)
	c.mu.Lock()
	c.calendar = []CalendarEvent{{ID: "late", Date: "2026-09-20", Title: "Review"}}
	c.mu.Unlock()

	created, err := c.CreateCalendarEvent(context.Background(), CalendarEvent{Date: "2026-09-03", Title: "Standup"})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)

	events := c.CalendarEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "new", events[0].ID, "month view stays date-sorted")
}

func TestCreateCalendarEvent_Validation(t *testing.T) {
	api := testutil.NewMockAPI(t)
	c, _ := newTestController(t, api)

	_, err := c.CreateCalendarEvent(context.Background(), CalendarEvent{Date: "2026-09-03"})
	require.Error(t, err)
	assert.Equal(t, "Title is required.", err.Error())
}

func TestDeleteUser_SelfDeleteLogsOut(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/auth/me", 200, testutil.FixtureUser())
	api.HandleJSON(http.MethodGet, "/api/v1/auth/users", 200, []UserProfile{{ID: "user-1"}})
	api.HandleJSON(http.MethodDelete, "/api/v1/auth/users/user-1", 204, nil)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, []Workspace{})
	api.HandleJSON(http.MethodGet, "/api/v1/messages/inbox", 200, []InboxMessage{})
	api.HandleJSON(http.MethodGet, "/api/v1/calendar/events", 200, []CalendarEvent{})

	c, store := newTestController(t, api)
	c.fireSession(context.Background(), c.Inputs())
	require.NotNil(t, c.Session.CurrentUser())

	err := c.DeleteUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, c.Session.CurrentUser(), "deleting your own account logs you out")
	assert.Empty(t, store.Get(KeyToken, ""))
}

func TestToggleAdmin_UpdatesLocalView(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPatch, "/api/v1/auth/users/u2/role", 200, nil)

	c, _ := newTestController(t, api)
	c.mu.Lock()
	c.adminUsers = []UserProfile{{ID: "u2", IsAdmin: false}}
	c.mu.Unlock()

	err := c.ToggleAdmin(context.Background(), "u2", true)
	require.NoError(t, err)

	users := c.AdminUsers()
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin)
}
