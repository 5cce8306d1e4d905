package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockAPI is a configurable fake of the backend REST API. Handlers are
// registered per "METHOD path" key; unregistered routes return 404 with an
// empty detail body.
type MockAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []RecordedRequest
}

// RecordedRequest captures one request for later assertions
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// NewMockAPI starts a mock backend; it is shut down with the test
func NewMockAPI(t *testing.T) *MockAPI {
	t.Helper()
	api := &MockAPI{handlers: make(map[string]http.HandlerFunc)}
	api.Server = httptest.NewServer(http.HandlerFunc(api.dispatch))
	t.Cleanup(api.Server.Close)
	return api
}

// URL returns the mock backend's base URL
func (m *MockAPI) URL() string {
	return m.Server.URL
}

// Handle registers a handler for "METHOD /path"
func (m *MockAPI) Handle(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = handler
}

// HandleJSON registers a handler answering with a fixed status and JSON body
func (m *MockAPI) HandleJSON(method, path string, status int, body interface{}) {
	m.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	})
}

// Requests returns every request seen so far
func (m *MockAPI) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	requests := make([]RecordedRequest, len(m.requests))
	copy(requests, m.requests)
	return requests
}

// RequestsFor returns the requests matching "METHOD /path"
func (m *MockAPI) RequestsFor(method, path string) []RecordedRequest {
	var matched []RecordedRequest
	for _, req := range m.Requests() {
		if req.Method == method && req.Path == path {
			matched = append(matched, req)
		}
	}
	return matched
}

func (m *MockAPI) dispatch(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	handler, ok := m.handlers[r.Method+" "+r.URL.Path]
	m.mu.Unlock()
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"not found"}`))
		return
	}
	handler(w, r)
}
