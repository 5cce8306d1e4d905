package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// Client is a thin typed wrapper over the backend's REST API. It carries no
// state beyond the connection config and token; callers own retries (there
// are none) and refresh policy.
type Client struct {
	HTTPClient *http.Client
	Config     ConnectionConfig
	Token      string
}

// NewClient creates a client for the given connection and optional token
func NewClient(cfg ConnectionConfig, token string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Config:     cfg,
		Token:      token,
	}
}

// do issues a request and normalizes failures into an APIError carrying the
// server-extracted message, or fallback when the body yields nothing.
func (c *Client) do(ctx context.Context, method, path string, headers http.Header, body io.Reader, out interface{}, fallback string) error {
	resp, err := Do(ctx, c.HTTPClient, c.Config.BaseURL, path, method, headers, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		message := ExtractDetail(resp.Body)
		if message == "" {
			message = fallback
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}
	if out != nil {
		resp.JSON(out)
	}
	return nil
}

// jsonBody marshals a payload for a JSON request
func jsonBody(v interface{}) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// listPayload unwraps list responses that may arrive either as a bare array
// or wrapped in an {items: []} envelope.
func listPayload(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return trimmed
	}
	var envelope struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Items != nil {
		return envelope.Items
	}
	return []byte("[]")
}

// getList fetches a list endpoint into out (a pointer to a slice)
func (c *Client) getList(ctx context.Context, path string, headers http.Header, out interface{}, fallback string) error {
	resp, err := Do(ctx, c.HTTPClient, c.Config.BaseURL, path, http.MethodGet, headers, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		message := ExtractDetail(resp.Body)
		if message == "" {
			message = fallback
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}
	if err := json.Unmarshal(listPayload(resp.Body), out); err != nil {
		LogDebug("list decode failed for %s: %v", path, err)
	}
	return nil
}

func (c *Client) authHeaders(opts HeaderOptions) http.Header {
	return BuildHeaders(c.Config, c.Token, opts)
}

// --- Auth ---

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	headers := c.authHeaders(HeaderOptions{JSON: true, SkipAuth: true, SkipAPIKey: true})
	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", headers, body, &token, "Login failed"); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Register creates a new account. Success does not log in: the caller must
// authenticate explicitly afterwards.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	body, err := jsonBody(req)
	if err != nil {
		return err
	}
	headers := c.authHeaders(HeaderOptions{JSON: true, SkipAuth: true, SkipAPIKey: true})
	return c.do(ctx, http.MethodPost, "/api/v1/auth/register", headers, body, nil, "Registration failed")
}

// Me resolves the current user for the carried token
func (c *Client) Me(ctx context.Context) (*UserProfile, error) {
	headers := c.authHeaders(HeaderOptions{SkipAPIKey: true})
	var user UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", headers, nil, &user, "Authentication failed"); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all accounts (admin only)
func (c *Client) ListUsers(ctx context.Context) ([]UserProfile, error) {
	headers := c.authHeaders(HeaderOptions{SkipAPIKey: true})
	var users []UserProfile
	if err := c.getList(ctx, "/api/v1/auth/users", headers, &users, "Failed to load users"); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes an account (admin only, or the acting user's own)
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	headers := c.authHeaders(HeaderOptions{SkipAPIKey: true})
	path := "/api/v1/auth/users/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, headers, nil, nil, "Failed to delete user")
}

// SetUserRole toggles the admin flag on an account (admin only)
func (c *Client) SetUserRole(ctx context.Context, userID string, isAdmin bool) error {
	body, err := jsonBody(map[string]bool{"is_admin": isAdmin})
	if err != nil {
		return err
	}
	headers := c.authHeaders(HeaderOptions{JSON: true, SkipAPIKey: true})
	path := "/api/v1/auth/users/" + url.PathEscape(userID) + "/role"
	return c.do(ctx, http.MethodPatch, path, headers, body, nil, "Failed to update role")
}

// --- Knowledge bases and documents ---

// ListKnowledgeBases returns the workspace directory
func (c *Client) ListKnowledgeBases(ctx context.Context) ([]Workspace, error) {
	headers := c.authHeaders(HeaderOptions{SkipAuth: true})
	var list []Workspace
	if err := c.getList(ctx, "/api/v1/knowledge-bases", headers, &list, "Failed to load knowledge bases"); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateKnowledgeBase creates a new workspace
func (c *Client) CreateKnowledgeBase(ctx context.Context, name, description string) (*Workspace, error) {
	payload := map[string]string{"name": name}
	if description != "" {
		payload["description"] = description
	}
	body, err := jsonBody(payload)
	if err != nil {
		return nil, err
	}
	headers := c.authHeaders(HeaderOptions{JSON: true})
	var kb Workspace
	if err := c.do(ctx, http.MethodPost, "/api/v1/knowledge-bases", headers, body, &kb, "Failed to create knowledge base"); err != nil {
		return nil, err
	}
	return &kb, nil
}

// ListDocuments returns the document list for a workspace
func (c *Client) ListDocuments(ctx context.Context, kbID string) ([]Document, error) {
	headers := c.authHeaders(HeaderOptions{SkipAuth: true})
	path := "/api/v1/knowledge-bases/" + url.PathEscape(kbID) + "/documents"
	var docs []Document
	if err := c.getList(ctx, path, headers, &docs, "Failed to load documents"); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument streams a file as multipart form data. The Content-Type is
// owned by the multipart writer; the JSON header flag must stay unset here.
func (c *Client) UploadDocument(ctx context.Context, kbID, filename string, content io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	headers := c.authHeaders(HeaderOptions{ContentType: writer.FormDataContentType()})
	path := "/api/v1/knowledge-bases/" + url.PathEscape(kbID) + "/documents"
	fallback := fmt.Sprintf("Failed to upload %s", filename)
	return c.do(ctx, http.MethodPost, path, headers, &buf, nil, fallback)
}

// DeleteDocument removes a document from a workspace
func (c *Client) DeleteDocument(ctx context.Context, kbID, docID string) error {
	headers := c.authHeaders(HeaderOptions{})
	path := "/api/v1/knowledge-bases/" + url.PathEscape(kbID) + "/documents/" + url.PathEscape(docID)
	return c.do(ctx, http.MethodDelete, path, headers, nil, nil, "Delete failed")
}

// Ingest triggers the backend ingestion run for a workspace
func (c *Client) Ingest(ctx context.Context, kbID string) error {
	headers := c.authHeaders(HeaderOptions{})
	path := "/api/v1/knowledge-bases/" + url.PathEscape(kbID) + "/ingest"
	return c.do(ctx, http.MethodPost, path, headers, nil, nil, "Ingestion failed")
}

// Query runs a question against a workspace
func (c *Client) Query(ctx context.Context, kbID, question string, topK int) (*QueryResult, error) {
	if topK <= 0 {
		topK = 5
	}
	body, err := jsonBody(map[string]interface{}{"question": question, "top_k": topK})
	if err != nil {
		return nil, err
	}
	headers := c.authHeaders(HeaderOptions{JSON: true})
	path := "/api/v1/knowledge-bases/" + url.PathEscape(kbID) + "/query"
	var result QueryResult
	if err := c.do(ctx, http.MethodPost, path, headers, body, &result, "Request failed"); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Analytics ---

// Overview returns workspace-wide aggregate counters for a date range
func (c *Client) Overview(ctx context.Context, dateRange string) (*Overview, error) {
	headers := c.authHeaders(HeaderOptions{})
	path := "/api/v1/workspace/overview?range=" + url.QueryEscape(dateRange)
	var overview Overview
	if err := c.do(ctx, http.MethodGet, path, headers, nil, &overview, "Failed to load overview"); err != nil {
		return nil, err
	}
	return &overview, nil
}

// QueryVolume returns day-bucketed query counts for a workspace
func (c *Client) QueryVolume(ctx context.Context, kbID, dateRange string) ([]QueryVolumePoint, error) {
	headers := c.authHeaders(HeaderOptions{})
	path := "/api/v1/knowledge-bases/" + url.PathEscape(kbID) +
		"/analytics/query-volume?range=" + url.QueryEscape(dateRange) + "&bucket=day"
	var points []QueryVolumePoint
	if err := c.getList(ctx, path, headers, &points, "Failed to load query volume"); err != nil {
		return nil, err
	}
	return points, nil
}

// RecentQueries returns the latest query log rows for a workspace
func (c *Client) RecentQueries(ctx context.Context, kbID string, limit int) ([]RecentQuery, error) {
	headers := c.authHeaders(HeaderOptions{})
	path := fmt.Sprintf("/api/v1/knowledge-bases/%s/analytics/recent-queries?limit=%d", url.PathEscape(kbID), limit)
	var rows []RecentQuery
	if err := c.getList(ctx, path, headers, &rows, "Failed to load recent queries"); err != nil {
		return nil, err
	}
	return rows, nil
}

// RecentIngests returns the latest ingestion runs for a workspace
func (c *Client) RecentIngests(ctx context.Context, kbID string, limit int) ([]RecentIngest, error) {
	headers := c.authHeaders(HeaderOptions{})
	path := fmt.Sprintf("/api/v1/knowledge-bases/%s/analytics/recent-ingests?limit=%d", url.PathEscape(kbID), limit)
	var rows []RecentIngest
	if err := c.getList(ctx, path, headers, &rows, "Failed to load recent ingests"); err != nil {
		return nil, err
	}
	return rows, nil
}

// --- Messaging ---

// Inbox returns the authenticated user's messages
func (c *Client) Inbox(ctx context.Context) ([]InboxMessage, error) {
	headers := c.authHeaders(HeaderOptions{SkipAPIKey: true})
	var messages []InboxMessage
	if err := c.getList(ctx, "/api/v1/messages/inbox", headers, &messages, "Failed to load inbox"); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage sends a direct or broadcast message
func (c *Client) SendMessage(ctx context.Context, scope, recipient, subject, body string) error {
	payload := map[string]string{"scope": scope, "body": body}
	if scope == ScopeDirect {
		payload["recipient_email"] = recipient
	}
	if subject != "" {
		payload["subject"] = subject
	}
	reqBody, err := jsonBody(payload)
	if err != nil {
		return err
	}
	headers := c.authHeaders(HeaderOptions{JSON: true, SkipAPIKey: true})
	return c.do(ctx, http.MethodPost, "/api/v1/messages", headers, reqBody, nil, "Failed to send message")
}

// MarkRead sets the read timestamp on a direct message
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	headers := c.authHeaders(HeaderOptions{SkipAPIKey: true})
	path := "/api/v1/messages/" + url.PathEscape(messageID) + "/read"
	return c.do(ctx, http.MethodPost, path, headers, nil, nil, "Failed to mark as read")
}

// DeleteMessage removes a message from the inbox
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	headers := c.authHeaders(HeaderOptions{SkipAPIKey: true})
	path := "/api/v1/messages/" + url.PathEscape(messageID)
	return c.do(ctx, http.MethodDelete, path, headers, nil, nil, "Failed to delete message")
}

// --- Calendar ---

// ListEvents returns events for a displayed month ("YYYY-MM")
func (c *Client) ListEvents(ctx context.Context, month string) ([]CalendarEvent, error) {
	headers := c.authHeaders(HeaderOptions{SkipAPIKey: true})
	path := "/api/v1/calendar/events?month=" + url.QueryEscape(month)
	var events []CalendarEvent
	if err := c.getList(ctx, path, headers, &events, "Failed to load calendar"); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateEvent adds a calendar event
func (c *Client) CreateEvent(ctx context.Context, event CalendarEvent) (*CalendarEvent, error) {
	body, err := jsonBody(event)
	if err != nil {
		return nil, err
	}
	headers := c.authHeaders(HeaderOptions{JSON: true, SkipAPIKey: true})
	var created CalendarEvent
	if err := c.do(ctx, http.MethodPost, "/api/v1/calendar/events", headers, body, &created, "Failed to create event"); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEvent patches an existing event
func (c *Client) UpdateEvent(ctx context.Context, eventID string, patch CalendarEvent) (*CalendarEvent, error) {
	body, err := jsonBody(patch)
	if err != nil {
		return nil, err
	}
	headers := c.authHeaders(HeaderOptions{JSON: true, SkipAPIKey: true})
	path := "/api/v1/calendar/events/" + url.PathEscape(eventID)
	var updated CalendarEvent
	if err := c.do(ctx, http.MethodPatch, path, headers, body, &updated, "Failed to update event"); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent removes an event
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	headers := c.authHeaders(HeaderOptions{SkipAPIKey: true})
	path := "/api/v1/calendar/events/" + url.PathEscape(eventID)
	return c.do(ctx, http.MethodDelete, path, headers, nil, nil, "Failed to delete event")
}

// --- Health ---

// Health probes the backend; no credentials are attached
func (c *Client) Health(ctx context.Context) error {
	resp, err := Do(ctx, c.HTTPClient, c.Config.BaseURL, "/health", http.MethodGet, http.Header{}, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &APIError{Status: resp.StatusCode, Message: "Health check failed"}
	}
	return nil
}
