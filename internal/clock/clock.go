package clock

import "time"

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so timer-driven behavior can be tested without
// sleeping.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real implements Clock with the system clock.
type Real struct{}

// New returns a system-clock implementation.
func New() *Real { return &Real{} }

// Now returns the current time.
func (Real) Now() time.Time { return time.Now() }

// AfterFunc schedules f after d on a new goroutine.
func (Real) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
