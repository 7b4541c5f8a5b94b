package service

import "time"

// Timer is a pending deferred callback.
type Timer interface {
	Stop() bool
}

// Clock schedules deferred callbacks. Hover dwell and scroll debounce go
// through it so tests can drive time by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
