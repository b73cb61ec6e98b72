// Package globaltime is the process clock. Tests pin it with SetMockTime.
package globaltime

import (
	"strings"
	"sync/atomic"
	"time"
)

// DayLayout is the ISO calendar day format used for signal dates.
const DayLayout = "2006-01-02"

type clockFunc func() time.Time

var clock atomic.Pointer[clockFunc]

func init() {
	ResetTime()
}

func Now() time.Time {
	return (*clock.Load())()
}

func UTC() time.Time {
	return Now().UTC()
}

// Today returns the current local calendar day as YYYY-MM-DD.
func Today() string {
	return Now().Format(DayLayout)
}

// ParseDay reads a YYYY-MM-DD signal date as midnight UTC.
func ParseDay(raw string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, strings.TrimSpace(raw), time.UTC)
}

func SetMockTime(t time.Time) {
	fixed := clockFunc(func() time.Time { return t })
	clock.Store(&fixed)
}

func ResetTime() {
	system := clockFunc(time.Now)
	clock.Store(&system)
}
