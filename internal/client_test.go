package internal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/kivohq/kivoctl/testutil"
)

func newTestClient(api *testutil.MockAPI) *Client {
	return NewClient(ConnectionConfig{BaseURL: api.URL(), APIKey: "key-1"}, "tok")
}

func TestClient_LoginHeaderPolicy(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/auth/login", 200, map[string]string{"access_token": "fresh"})

	token, err := newTestClient(api).Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "fresh" {
		t.Errorf("Login() token = %q, want fresh", token)
	}

	reqs := api.RequestsFor(http.MethodPost, "/api/v1/auth/login")
	if len(reqs) != 1 {
		t.Fatalf("login requests = %d", len(reqs))
	}
	h := reqs[0].Header
	if got := h.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if h.Get("Authorization") != "" || h.Get("X-API-Key") != "" {
		t.Error("login must carry no credentials")
	}
}

func TestClient_LoginFailureMessage(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/auth/login", 401, map[string]string{"detail": "Incorrect email or password"})

	_, err := newTestClient(api).Login(context.Background(), "a@b.c", "bad")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login() error type = %T, want *APIError", err)
	}
	if apiErr.Status != 401 || apiErr.Message != "Incorrect email or password" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestClient_FallbackMessageOnEmptyBody(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.Handle(http.MethodPost, "/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := newTestClient(api).Login(context.Background(), "a@b.c", "pw")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Message != "Login failed" {
		t.Errorf("Message = %q, want fallback", apiErr.Message)
	}
}

func TestClient_ListKnowledgeBases_APIKeyOnly(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, testutil.FixtureWorkspaces())

	list, err := newTestClient(api).ListKnowledgeBases(context.Background())
	if err != nil {
		t.Fatalf("ListKnowledgeBases() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "kb1" {
		t.Errorf("list = %+v", list)
	}

	h := api.RequestsFor(http.MethodGet, "/api/v1/knowledge-bases")[0].Header
	if got := h.Get("X-API-Key"); got != "key-1" {
		t.Errorf("X-API-Key = %q, want key-1", got)
	}
	if h.Get("Authorization") != "" {
		t.Error("kb list must not carry the bearer token")
	}
}

func TestClient_ListEnvelopeTolerance(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/knowledge-bases", 200, map[string]interface{}{
		"items": testutil.FixtureWorkspaces(),
	})

	list, err := newTestClient(api).ListKnowledgeBases(context.Background())
	if err != nil {
		t.Fatalf("ListKnowledgeBases() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("enveloped list len = %d, want 2", len(list))
	}
}

func TestClient_UploadDocument_Multipart(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/knowledge-bases/kb1/documents", 201, nil)

	err := newTestClient(api).UploadDocument(context.Background(), "kb1", "report.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}

	req := api.RequestsFor(http.MethodPost, "/api/v1/knowledge-bases/kb1/documents")[0]
	contentType := req.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data; boundary=") {
		t.Errorf("Content-Type = %q, want multipart with boundary", contentType)
	}
	if strings.Contains(contentType, "application/json") {
		t.Error("multipart request must not claim a JSON body")
	}
	if req.Header.Get("X-API-Key") != "key-1" || req.Header.Get("Authorization") != "Bearer tok" {
		t.Error("upload must carry both credentials")
	}
	if !strings.Contains(string(req.Body), `filename="report.pdf"`) {
		t.Error("multipart body missing the file part")
	}
}

func TestClient_Query_DefaultsTopK(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/knowledge-bases/kb1/query", 200, map[string]interface{}{
		"answer":  "42",
		"sources": []map[string]interface{}{{"chunk_id": "c1", "filename": "f.pdf", "score": 0.9}},
	})

	result, err := newTestClient(api).Query(context.Background(), "kb1", "why?", 0)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Answer != "42" || len(result.Sources) != 1 {
		t.Errorf("result = %+v", result)
	}

	body := string(api.RequestsFor(http.MethodPost, "/api/v1/knowledge-bases/kb1/query")[0].Body)
	if !strings.Contains(body, `"top_k":5`) {
		t.Errorf("body = %s, want top_k defaulted to 5", body)
	}
}

func TestClient_Overview_RangeParam(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.Handle(http.MethodGet, "/api/v1/workspace/overview", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("range"); got != "30d" {
			t.Errorf("range param = %q, want 30d", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"documents_count":3,"queries_count":12}`))
	})

	overview, err := newTestClient(api).Overview(context.Background(), "30d")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if overview.DocumentsCount != 3 || overview.QueriesCount != 12 {
		t.Errorf("overview = %+v", overview)
	}
}

func TestClient_Inbox_TokenOnly(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/messages/inbox", 200, []map[string]string{})

	if _, err := newTestClient(api).Inbox(context.Background()); err != nil {
		t.Fatalf("Inbox() error = %v", err)
	}
	h := api.RequestsFor(http.MethodGet, "/api/v1/messages/inbox")[0].Header
	if h.Get("Authorization") != "Bearer tok" {
		t.Error("inbox must carry the bearer token")
	}
	if h.Get("X-API-Key") != "" {
		t.Error("inbox must not carry the API key")
	}
}

func TestClient_SendMessage_Payload(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPost, "/api/v1/messages", 201, nil)

	client := newTestClient(api)
	if err := client.SendMessage(context.Background(), ScopeDirect, "to@x.y", "Hi", "body"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if err := client.SendMessage(context.Background(), ScopeBroadcast, "", "", "announce"); err != nil {
		t.Fatalf("SendMessage() broadcast error = %v", err)
	}

	reqs := api.RequestsFor(http.MethodPost, "/api/v1/messages")
	if !strings.Contains(string(reqs[0].Body), `"recipient_email":"to@x.y"`) {
		t.Errorf("direct body = %s", reqs[0].Body)
	}
	if strings.Contains(string(reqs[1].Body), "recipient_email") {
		t.Errorf("broadcast body must omit the recipient: %s", reqs[1].Body)
	}
}

func TestClient_ListEvents_MonthParam(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.Handle(http.MethodGet, "/api/v1/calendar/events", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("month"); got != "2026-09" {
			t.Errorf("month param = %q, want 2026-09", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"e1","date":"2026-09-03","title":"Review"}]`))
	})

	events, err := newTestClient(api).ListEvents(context.Background(), "2026-09")
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].Title != "Review" {
		t.Errorf("events = %+v", events)
	}
}

func TestClient_Health_NoCredentials(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/health", 200, map[string]string{"status": "ok"})

	if err := newTestClient(api).Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	h := api.RequestsFor(http.MethodGet, "/health")[0].Header
	if h.Get("Authorization") != "" || h.Get("X-API-Key") != "" {
		t.Error("health probe must carry no credentials")
	}
}

func TestClient_Health_Failure(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/health", 503, nil)

	err := newTestClient(api).Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 503 {
		t.Errorf("Health() error = %v, want 503 APIError", err)
	}
}

func TestClient_SetUserRole(t *testing.T) {
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodPatch, "/api/v1/auth/users/u2/role", 200, nil)

	if err := newTestClient(api).SetUserRole(context.Background(), "u2", true); err != nil {
		t.Fatalf("SetUserRole() error = %v", err)
	}
	body := string(api.RequestsFor(http.MethodPatch, "/api/v1/auth/users/u2/role")[0].Body)
	if !strings.Contains(body, `"is_admin":true`) {
		t.Errorf("body = %s", body)
	}
}
