package printer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/printer"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestTimeAgo(t *testing.T) {
	defer printer.SetTimeNow(now)()

	tests := map[string]struct {
		time     time.Time
		expected string
	}{
		"zero time":      {time: time.Time{}, expected: "-"},
		"now":            {time: now, expected: "just now"},
		"seconds ago":    {time: now.Add(-30 * time.Second), expected: "30s ago"},
		"minutes ago":    {time: now.Add(-45 * time.Minute), expected: "45m ago"},
		"hours ago":      {time: now.Add(-5 * time.Hour), expected: "5h ago"},
		"days ago":       {time: now.Add(-7 * 24 * time.Hour), expected: "7d ago"},
		"future time":    {time: now.Add(5 * time.Minute), expected: "in the future"},
		"other timezone": {time: now.In(time.FixedZone("CET", 3600)).Add(-time.Minute), expected: "1m ago"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, printer.TimeAgo(test.time))
		})
	}
}

func TestTimeUntil(t *testing.T) {
	defer printer.SetTimeNow(now)()

	tests := map[string]struct {
		time     time.Time
		expected string
	}{
		"zero time": {time: time.Time{}, expected: "-"},
		"seconds":   {time: now.Add(3 * time.Second), expected: "in 3s"},
		"minutes":   {time: now.Add(2*time.Minute + 10*time.Second), expected: "in 2m"},
		"past":      {time: now.Add(-time.Second), expected: "overdue"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, printer.TimeUntil(test.time))
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := map[string]struct {
		time     time.Time
		expected string
	}{
		"utc time":   {time: now, expected: "2026-03-01 10:00:00 UTC"},
		"other zone": {time: now.In(time.FixedZone("CET", 3600)), expected: "2026-03-01 10:00:00 UTC"},
		"zero time":  {time: time.Time{}, expected: "-"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, printer.FormatTimestamp(test.time))
		})
	}
}
