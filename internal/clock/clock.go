// Package clock abstracts wall-clock time so pricing "as of" points and
// snapshot timestamps are controllable in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystemClock returns a Clock backed by time.Now in UTC.
func NewSystemClock() Clock { return systemClock{} }
