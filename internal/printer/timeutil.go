package printer

import (
	"fmt"
	"time"
)

// timeNow is replaced on tests.
var timeNow = time.Now

// TimeAgo returns a compact relative time.
// Examples: "just now", "12s ago", "5m ago", "3h ago", "2d ago".
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := timeNow().Sub(t)
	switch {
	case diff < 0:
		return "in the future"
	case diff < time.Second:
		return "just now"
	default:
		return compactDuration(diff) + " ago"
	}
}

// TimeUntil returns the compact time left until t.
// Examples: "in 3s", "in 2m", "overdue".
func TimeUntil(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := t.Sub(timeNow())
	if diff <= 0 {
		return "overdue"
	}
	return "in " + compactDuration(diff)
}

// FormatTimestamp returns a formatted timestamp string in UTC, zero times are "-".
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func compactDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
