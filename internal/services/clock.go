package services

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Clock supplies the current time. Due dates and overdue checks read it
// through this interface so tests can pin the date.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// SystemClock returns wall-clock time in UTC.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always reports the same instant until moved with Advance.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// IDGenerator produces loan references.
type IDGenerator interface {
	New(at time.Time) (string, error)
}

type ulidGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// ULIDGenerator returns sortable, monotonic ULID references.
func ULIDGenerator() IDGenerator {
	return &ulidGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidGenerator) New(at time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(at), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
