// Package clock provides the time source used for billing windows and
// usage month keys.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns the wall clock in UTC.
func System() Clock { return systemClock{} }

// Fixed is a settable clock for tests.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }

// MonthKey formats t as the YYYY-MM usage period in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
