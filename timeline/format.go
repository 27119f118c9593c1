package timeline

import (
	"fmt"
	"time"
)

// RelativeTime converts a creation time into a coarse age label: "now" for
// anything under a minute old (or in the future), then "{N}m", "{N}h", "{N}d"
// with no upper bound.
func RelativeTime(createdAt, now time.Time) string {
	mins := int(now.Sub(createdAt).Minutes())
	switch {
	case mins <= 0:
		return "now"
	case mins < 60:
		return fmt.Sprintf("%dm", mins)
	case mins < 24*60:
		return fmt.Sprintf("%dh", mins/60)
	default:
		return fmt.Sprintf("%dd", mins/(24*60))
	}
}

// ThreadDay is the two-bucket variant used on thread screens: "today" for
// same-day timestamps, "{N}d ago" otherwise.
func ThreadDay(createdAt, now time.Time) string {
	days := int(now.Sub(createdAt).Hours() / 24)
	if days <= 0 {
		return "today"
	}
	return fmt.Sprintf("%dd ago", days)
}

// RelativeTimeISO parses an RFC 3339 timestamp and formats it with
// RelativeTime. An unparseable timestamp clamps to "now" rather than
// producing a malformed label.
func RelativeTimeISO(s string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "now"
	}
	return RelativeTime(t, now)
}

// RelativeTimeUnix formats a Unix-seconds timestamp, the representation rows
// carry in the database.
func RelativeTimeUnix(sec int64, now time.Time) string {
	return RelativeTime(time.Unix(sec, 0), now)
}
