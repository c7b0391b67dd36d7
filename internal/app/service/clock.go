package service

import "time"

// Clock provides the current time to the store.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
