// Package clock lets rate limiters, caches and retry backoff read time through
// an interface so tests can move it by hand.
package clock

import (
	"slices"
	"sync"
	"time"
)

// Clock is the part of the time package cra depends on
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	Since(t time.Time) time.Duration
}

type realClock struct{}

// NewRealClock returns the wall clock
func NewRealClock() Clock { return realClock{} }

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (realClock) Since(t time.Time) time.Duration        { return time.Since(t) }

// FakeClock stands still until Advance or Set moves it. Pending After
// channels fire in deadline order once the clock reaches them.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []timer
}

type timer struct {
	at time.Time
	c  chan time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *FakeClock) Since(t time.Time) time.Duration {
	return f.Now().Sub(t)
}

// After fires at once when d <= 0
func (f *FakeClock) After(d time.Duration) <-chan time.Time {
	c := make(chan time.Time, 1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if d <= 0 {
		c <- f.now
		return c
	}
	t := timer{at: f.now.Add(d), c: c}
	i, _ := slices.BinarySearchFunc(f.pending, t, func(a, b timer) int { return a.at.Compare(b.at) })
	f.pending = slices.Insert(f.pending, i, t)
	return c
}

// Waiters is the number of After channels that have not fired
func (f *FakeClock) Waiters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moveTo(f.now.Add(d))
}

func (f *FakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moveTo(t)
}

// moveTo expects f.mu to be held
func (f *FakeClock) moveTo(t time.Time) {
	f.now = t
	n := 0
	for n < len(f.pending) && !f.pending[n].at.After(t) {
		f.pending[n].c <- t
		n++
	}
	f.pending = f.pending[n:]
}
