package timeline

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRelativeTime(t *testing.T) {
	cases := []struct {
		name      string
		createdAt time.Time
		want      string
	}{
		{"same instant", testNow, "now"},
		{"thirty seconds ago", testNow.Add(-30 * time.Second), "now"},
		{"future timestamp", testNow.Add(10 * time.Minute), "now"},
		{"five minutes", testNow.Add(-5 * time.Minute), "5m"},
		{"fifty nine minutes", testNow.Add(-59 * time.Minute), "59m"},
		{"ninety minutes", testNow.Add(-90 * time.Minute), "1h"},
		{"twenty three hours", testNow.Add(-23 * time.Hour), "23h"},
		{"twenty five hours", testNow.Add(-25 * time.Hour), "1d"},
		{"ninety days", testNow.Add(-90 * 24 * time.Hour), "90d"},
	}

	for _, tc := range cases {
		got := RelativeTime(tc.createdAt, testNow)
		if got != tc.want {
			t.Errorf("%s: want %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestThreadDay(t *testing.T) {
	cases := []struct {
		name      string
		createdAt time.Time
		want      string
	}{
		{"same instant", testNow, "today"},
		{"two hours ago", testNow.Add(-2 * time.Hour), "today"},
		{"future timestamp", testNow.Add(48 * time.Hour), "today"},
		{"yesterday", testNow.Add(-25 * time.Hour), "1d ago"},
		{"last week", testNow.Add(-7 * 24 * time.Hour), "7d ago"},
	}

	for _, tc := range cases {
		got := ThreadDay(tc.createdAt, testNow)
		if got != tc.want {
			t.Errorf("%s: want %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestRelativeTimeISO(t *testing.T) {
	got := RelativeTimeISO("2025-06-01T10:30:00Z", testNow)
	if got != "1h" {
		t.Errorf("want %q, got %q", "1h", got)
	}

	// Unparseable input clamps to "now" instead of producing a broken label.
	got = RelativeTimeISO("not-a-timestamp", testNow)
	if got != "now" {
		t.Errorf("want %q for invalid input, got %q", "now", got)
	}
}

func TestRelativeTimeUnix(t *testing.T) {
	createdAt := testNow.Add(-3 * time.Hour).Unix()
	got := RelativeTimeUnix(createdAt, testNow)
	if got != "3h" {
		t.Errorf("want %q, got %q", "3h", got)
	}
}
