package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	clk := NewRealClock()

	start := clk.Now()
	<-clk.After(5 * time.Millisecond)

	assert.GreaterOrEqual(t, clk.Since(start), 5*time.Millisecond)
}

func TestFakeClockNow(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clk := NewFakeClock(base)

	assert.Equal(t, base, clk.Now())

	clk.Advance(time.Hour)
	assert.Equal(t, base.Add(time.Hour), clk.Now())
	assert.Equal(t, time.Hour, clk.Since(base))

	later := base.Add(48 * time.Hour)
	clk.Set(later)
	assert.Equal(t, later, clk.Now())
}

func TestFakeClockAfter(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clk := NewFakeClock(base)

	select {
	case got := <-clk.After(0):
		assert.Equal(t, base, got)
	default:
		t.Fatal("expected zero duration to fire immediately")
	}

	ch := clk.After(time.Minute)
	assert.Equal(t, 1, clk.Waiters())

	clk.Advance(30 * time.Second)
	select {
	case <-ch:
		t.Fatal("fired before deadline")
	default:
	}

	clk.Advance(30 * time.Second)
	select {
	case got := <-ch:
		assert.Equal(t, base.Add(time.Minute), got)
	default:
		t.Fatal("expected channel to fire at deadline")
	}
	assert.Equal(t, 0, clk.Waiters())
}

func TestFakeClockFiresInDeadlineOrder(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	clk := NewFakeClock(base)

	late := clk.After(3 * time.Second)
	early := clk.After(time.Second)
	assert.Equal(t, 2, clk.Waiters())

	clk.Advance(2 * time.Second)
	assert.Len(t, early, 1)
	assert.Len(t, late, 0)
	assert.Equal(t, 1, clk.Waiters())

	clk.Set(base.Add(time.Minute))
	assert.Equal(t, base.Add(time.Minute), <-late)
	assert.Equal(t, 0, clk.Waiters())
}
