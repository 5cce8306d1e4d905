package testutil

import "time"

// FixtureWorkspaces returns the canonical two-workspace directory used
// across controller tests
func FixtureWorkspaces() []map[string]string {
	return []map[string]string{
		{"id": "kb1", "name": "Finance"},
		{"id": "kb2", "name": "HR"},
	}
}

// FixtureDocuments returns a small document list for kb1
func FixtureDocuments() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"id":          "doc1",
			"filename":    "q3-report.pdf",
			"status":      "ingested",
			"chunk_count": 12,
			"created_at":  time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC).Format(time.RFC3339),
		},
		{
			"id":          "doc2",
			"filename":    "handbook.md",
			"status":      "uploaded",
			"chunk_count": 0,
			"created_at":  time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC).Format(time.RFC3339),
		},
	}
}

// FixtureUser returns a resolved user profile payload
func FixtureUser() map[string]interface{} {
	return map[string]interface{}{
		"id":         "user-1",
		"email":      "ops@example.com",
		"full_name":  "Opal Santos",
		"is_active":  true,
		"is_admin":   true,
		"created_at": time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
}
