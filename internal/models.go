package internal

import (
	"strings"
	"time"
)

// ConnectionConfig holds the API endpoint settings required for
// unauthenticated (API-key-only) calls.
type ConnectionConfig struct {
	BaseURL string
	APIKey  string
}

// Configured reports whether both fields needed for API-key calls are set.
func (c ConnectionConfig) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// AuthReady reports whether at least one credential (API key or token) is
// available for authenticated reads.
func (c ConnectionConfig) AuthReady(token string) bool {
	return c.APIKey != "" || token != ""
}

// UserProfile represents the authenticated account returned by the backend
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Position  string    `json:"position,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name,omitempty"`
	Position  string `json:"position,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Workspace is a named knowledge base: a container of ingested documents
// queried independently of other containers.
type Workspace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Document is an uploaded file owned by exactly one workspace
type Document struct {
	ID              string    `json:"id"`
	KnowledgeBaseID string    `json:"knowledge_base_id,omitempty"`
	Filename        string    `json:"filename"`
	Status          string    `json:"status,omitempty"`
	ChunkCount      int       `json:"chunk_count,omitempty"`
	ContentType     string    `json:"content_type,omitempty"`
	SizeBytes       int64     `json:"size_bytes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// QuerySource is a retrieved chunk backing an answer
type QuerySource struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Score      float64 `json:"score"`
	Excerpt    string  `json:"excerpt"`
}

// QueryResult is the transient response of a single query invocation;
// it is superseded by the next query and never persisted.
type QueryResult struct {
	Answer         string        `json:"answer"`
	Sources        []QuerySource `json:"sources"`
	EmbeddingModel string        `json:"embedding_model,omitempty"`
}

// InboxMessage is a direct or broadcast in-app message
type InboxMessage struct {
	ID             string     `json:"id"`
	Scope          string     `json:"scope"`
	SenderEmail    string     `json:"sender_email,omitempty"`
	SenderName     string     `json:"sender_name,omitempty"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	Subject        string     `json:"subject,omitempty"`
	Body           string     `json:"body"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// Message scopes
const (
	ScopeDirect    = "direct"
	ScopeBroadcast = "broadcast"
)

// Unread reports whether a direct message is still unread.
// Broadcasts carry no read state.
func (m InboxMessage) Unread() bool {
	return m.Scope == ScopeDirect && m.ReadAt == nil
}

// CalendarEvent is a dated entry fetched per displayed month
type CalendarEvent struct {
	ID    string `json:"id"`
	Date  string `json:"date"`           // YYYY-MM-DD
	Time  string `json:"time,omitempty"` // HH:MM
	Title string `json:"title"`
	Note  string `json:"note,omitempty"`
}

// SortKey orders events by (date, time)
func (e CalendarEvent) SortKey() string {
	return e.Date + e.Time
}

// Overview holds workspace-wide aggregate counters
type Overview struct {
	KnowledgeBasesCount int        `json:"knowledge_bases_count"`
	DocumentsCount      int        `json:"documents_count"`
	ChunksCount         int        `json:"chunks_count"`
	QueriesCount        int        `json:"queries_count"`
	AvgLatencyMs        int        `json:"avg_latency_ms,omitempty"`
	LastIngestAt        *time.Time `json:"last_ingest_at,omitempty"`
}

// QueryVolumePoint is one day bucket of query activity
type QueryVolumePoint struct {
	Date         string `json:"date"`
	Count        int    `json:"count"`
	AvgLatencyMs int    `json:"avg_latency_ms,omitempty"`
}

// RecentQuery is one row of per-workspace query history
type RecentQuery struct {
	CreatedAt      time.Time `json:"created_at"`
	QueryText      string    `json:"query_text,omitempty"`
	LatencyMs      int       `json:"latency_ms,omitempty"`
	RetrievedK     int       `json:"retrieved_k,omitempty"`
	RetrievedCount int       `json:"retrieved_count,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// RecentIngest is one row of per-workspace ingestion history
type RecentIngest struct {
	CreatedAt          time.Time  `json:"created_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	Status             string     `json:"status"`
	DocumentsProcessed int        `json:"documents_processed"`
	ChunksCreated      int        `json:"chunks_created"`
	DurationMs         int        `json:"duration_ms,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
}

// NormalizeScope lowercases and validates a message scope, defaulting to direct
func NormalizeScope(scope string) string {
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case ScopeBroadcast:
		return ScopeBroadcast
	default:
		return ScopeDirect
	}
}
