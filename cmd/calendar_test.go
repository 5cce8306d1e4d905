package cmd

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kivohq/kivoctl/internal"
	"github.com/kivohq/kivoctl/testutil"
)

// runCommand executes the root command in-process with the given arguments
// and returns the combined output.
func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		settingsPath = ""
		baseURLFlag = ""
		apiKeyFlag = ""
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("command failed: %v\n%s", err, buf.String())
	}
	return buf.String()
}

func seedSettings(t *testing.T, pairs map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.db")
	store, err := internal.OpenSettings(path)
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	for key, value := range pairs {
		if err := store.Set(key, value); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close settings: %v", err)
	}
	return path
}

func TestCalendarListFetchesCurrentMonth(t *testing.T) {
	month := internal.MonthKey(time.Now())
	api := testutil.NewMockAPI(t)
	api.HandleJSON(http.MethodGet, "/api/v1/auth/me", http.StatusOK, internal.UserProfile{
		ID:    "u1",
		Email: "admin@example.com",
	})
	api.HandleJSON(http.MethodGet, "/api/v1/calendar/events", http.StatusOK, []internal.CalendarEvent{
		{ID: "ev1", Date: month + "-15", Time: "09:00", Title: "Planning"},
	})

	path := seedSettings(t, map[string]string{internal.KeyToken: "tok"})
	t.Cleanup(func() { calendarMonth = "" })

	out := runCommand(t, "calendar", "list",
		"--month", month,
		"--settings", path,
		"--base-url", api.URL(),
		"--api-key", "key-1",
	)

	if hits := api.RequestsFor(http.MethodGet, "/api/v1/calendar/events"); len(hits) == 0 {
		t.Fatal("expected a calendar fetch, saw none")
	}
	if !strings.Contains(out, "1 event(s) in "+month) {
		t.Fatalf("output = %q, want event listing for %s", out, month)
	}
	if strings.Contains(out, "No events") {
		t.Fatalf("output = %q, reported no events", out)
	}
}
