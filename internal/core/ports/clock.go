// Package ports declares the collaborator interfaces the core consumes.
package ports

import "time"

// Clock supplies "as of" timestamps so settlement and interest computations
// are deterministic and testable. The core never reads the wall clock
// directly.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Intended for tests.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
