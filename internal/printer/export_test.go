package printer

import "time"

// SetTimeNow replaces the printer clock until the returned func is called.
func SetTimeNow(now time.Time) (restore func()) {
	timeNow = func() time.Time { return now }
	return func() { timeNow = time.Now }
}
