// Package testutils provides deterministic id and clock helpers for tests.
// Production code generates UUIDs and reads the wall clock; tests swap in
// these generators so assertions can name exact ids and timestamps.
package testutils

import (
	"fmt"
	"time"
)

// SequentialIDs returns an id generator producing prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// FixedClock returns a clock that starts at start and advances by step on
// every call.
func FixedClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

// FrozenClock returns a clock that always reports the same instant.
func FrozenClock(at time.Time) func() time.Time {
	return func() time.Time {
		return at
	}
}
