package internal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

// FilterDocuments applies a case-insensitive substring filter on filename.
// An empty term returns the full list.
func FilterDocuments(docs []Document, term string) []Document {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return docs
	}
	filtered := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Filename), needle) {
			filtered = append(filtered, doc)
		}
	}
	return filtered
}

// Announcements filters the inbox to broadcast messages in arrival order
func Announcements(messages []InboxMessage) []InboxMessage {
	broadcasts := make([]InboxMessage, 0)
	for _, msg := range messages {
		if msg.Scope == ScopeBroadcast {
			broadcasts = append(broadcasts, msg)
		}
	}
	return broadcasts
}

// AnnouncementSummary takes the first n broadcasts for the summary tile;
// the full filtered set stays available through Announcements.
func AnnouncementSummary(messages []InboxMessage, n int) []InboxMessage {
	broadcasts := Announcements(messages)
	if len(broadcasts) > n {
		broadcasts = broadcasts[:n]
	}
	return broadcasts
}

// UnreadCount counts direct messages without a read timestamp
func UnreadCount(messages []InboxMessage) int {
	count := 0
	for _, msg := range messages {
		if msg.Unread() {
			count++
		}
	}
	return count
}

// FormatLatency renders a latency as "{n} ms" with a placeholder at zero
func FormatLatency(ms int) string {
	if ms <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d ms", ms)
}

// FormatDateTime renders a timestamp for display, "-" for the zero value
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006 15:04")
}

// Initials derives up to two uppercase initials from a display name
func Initials(name string) string {
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) == 0 {
		return "?"
	}
	if len(parts) > 2 {
		parts = parts[:2]
	}
	letters := make([]string, 0, 2)
	for _, part := range parts {
		letters = append(letters, strings.ToUpper(part[:1]))
	}
	return strings.Join(letters, "")
}

// QueryRow is a display-ready row of recent query history
type QueryRow struct {
	Question string
	Latency  string
	Time     string
}

// RecentQueryRows truncates and reformats query log rows for display
func RecentQueryRows(items []RecentQuery) []QueryRow {
	rows := make([]QueryRow, 0, len(items))
	for _, item := range items {
		question := item.QueryText
		if question == "" {
			question = "-"
		} else if runes := []rune(question); len(runes) > 48 {
			question = string(runes[:48])
		}
		rows = append(rows, QueryRow{
			Question: question,
			Latency:  FormatLatency(item.LatencyMs),
			Time:     FormatDateTime(item.CreatedAt),
		})
	}
	return rows
}

// IngestRow is a display-ready row of ingestion history
type IngestRow struct {
	Status string
	Chunks string
	Time   string
}

// RecentIngestRows reformats ingestion runs for display. The finish time is
// preferred; runs still in flight fall back to their start time.
func RecentIngestRows(items []RecentIngest) []IngestRow {
	rows := make([]IngestRow, 0, len(items))
	for _, item := range items {
		status := item.Status
		if status == "" {
			status = "-"
		}
		when := item.CreatedAt
		if item.FinishedAt != nil {
			when = *item.FinishedAt
		}
		rows = append(rows, IngestRow{
			Status: status,
			Chunks: fmt.Sprintf("%d", item.ChunksCreated),
			Time:   FormatDateTime(when),
		})
	}
	return rows
}

// SortEvents orders calendar events by (date, time) in place
func SortEvents(events []CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].SortKey() < events[j].SortKey()
	})
}

// UpcomingEvents returns up to n events dated today or later, soonest first
func UpcomingEvents(events []CalendarEvent, today string, n int) []CalendarEvent {
	upcoming := make([]CalendarEvent, 0, len(events))
	for _, event := range events {
		if event.Date >= today {
			upcoming = append(upcoming, event)
		}
	}
	SortEvents(upcoming)
	if len(upcoming) > n {
		upcoming = upcoming[:n]
	}
	return upcoming
}

// EventsByDay buckets a month's events by their date, each day sorted by time
func EventsByDay(events []CalendarEvent) map[string][]CalendarEvent {
	buckets := make(map[string][]CalendarEvent)
	for _, event := range events {
		buckets[event.Date] = append(buckets[event.Date], event)
	}
	for day := range buckets {
		SortEvents(buckets[day])
	}
	return buckets
}

// MonthKey formats a time as the "YYYY-MM" month selector the calendar
// endpoint expects
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// LatencyDistribution summarizes observed latencies across analytics rows
type LatencyDistribution struct {
	Mean   float64
	Median float64
	P95    float64
}

// SummarizeLatencies computes a distribution over recent query latencies.
// Rows without a latency are skipped; fewer than one sample yields zeroes.
func SummarizeLatencies(items []RecentQuery) LatencyDistribution {
	samples := make([]float64, 0, len(items))
	for _, item := range items {
		if item.LatencyMs > 0 {
			samples = append(samples, float64(item.LatencyMs))
		}
	}
	if len(samples) == 0 {
		return LatencyDistribution{}
	}
	mean, err := stats.Mean(samples)
	if err != nil {
		return LatencyDistribution{}
	}
	median, err := stats.Median(samples)
	if err != nil {
		return LatencyDistribution{}
	}
	p95, err := stats.Percentile(samples, 95)
	if err != nil {
		// Percentile needs more than one sample
		p95 = samples[0]
	}
	return LatencyDistribution{Mean: mean, Median: median, P95: p95}
}
