package raffle

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m, s int) time.Time {
	return time.Date(2024, 3, 1, h, m, s, 0, time.UTC)
}

func TestClock_EndTimestamp(t *testing.T) {
	c := NewClock(clockwork.NewRealClock(), 30*time.Minute)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{name: "mid round", now: at(10, 12, 34), want: at(10, 30, 0)},
		{name: "two seconds left", now: at(10, 29, 58), want: at(10, 30, 0)},
		{name: "exactly on boundary moves to next", now: at(10, 30, 0), want: at(11, 0, 0)},
		{name: "one ms after boundary", now: at(11, 0, 0).Add(time.Millisecond), want: at(11, 30, 0)},
		{name: "crosses midnight", now: at(23, 45, 0), want: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.EndTimestamp(tt.now)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
			assert.True(t, got.After(tt.now))
			assert.Zero(t, got.UnixMilli()%c.Duration().Milliseconds())
			// idempotente
			assert.True(t, c.EndTimestamp(tt.now).Equal(got))
		})
	}
}

func TestClock_Sample(t *testing.T) {
	c := NewClock(clockwork.NewRealClock(), 30*time.Minute)

	tick := c.Sample(at(10, 29, 58))
	assert.Equal(t, 2*time.Second, tick.Remaining)
	assert.Equal(t, 0, tick.Minutes)
	assert.Equal(t, 2, tick.Seconds)
	assert.InDelta(t, 2.0/1800*100, tick.Progress, 1e-9)
	assert.False(t, tick.RoundEnded)

	tick = c.Sample(at(10, 0, 0).Add(time.Millisecond))
	assert.Equal(t, 29, tick.Minutes)
	assert.Equal(t, 59, tick.Seconds)
	assert.LessOrEqual(t, tick.Progress, 100.0)
	assert.Greater(t, tick.Progress, 99.9)

	assert.Equal(t, c.RoundID(at(10, 30, 0)), c.Sample(at(10, 1, 0)).Round)
	assert.Equal(t, c.RoundID(at(10, 30, 0))+1, c.Sample(at(10, 31, 0)).Round)
}

func TestClock_Watch_RoundEndFiresOnce(t *testing.T) {
	fc := clockwork.NewFakeClockAt(at(10, 29, 58))
	c := NewClock(fc, 30*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := c.Watch(ctx)
	defer w.Stop()

	first := <-w.C()
	assert.Equal(t, 2*time.Second, first.Remaining)
	assert.False(t, first.RoundEnded)

	var ends []Tick
	for i := 0; i < 5; i++ {
		fc.Advance(time.Second)
		tick := <-w.C()
		if tick.RoundEnded {
			ends = append(ends, tick)
		}
	}

	require.Len(t, ends, 1)
	assert.True(t, ends[0].EndedAt.Equal(at(10, 30, 0)))
	assert.Equal(t, c.RoundID(at(10, 30, 0)), ends[0].EndedRound)
	assert.True(t, ends[0].Now.Equal(at(10, 29, 59)))
}

func TestClock_Watch_StopIsIdempotent(t *testing.T) {
	fc := clockwork.NewFakeClockAt(at(10, 0, 0))
	c := NewClock(fc, 30*time.Minute)

	w := c.Watch(context.Background())
	<-w.C()

	w.Stop()
	w.Stop()

	_, ok := <-w.C()
	assert.False(t, ok)

	// reiniciar cria uma sequência nova
	w2 := c.Watch(context.Background())
	tick := <-w2.C()
	assert.True(t, tick.EndsAt.Equal(at(10, 30, 0)))
	w2.Stop()
}

func TestClock_Watch_ContextCancel(t *testing.T) {
	fc := clockwork.NewFakeClockAt(at(10, 0, 0))
	c := NewClock(fc, 30*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	w := c.Watch(ctx)
	<-w.C()
	cancel()

	for range w.C() {
	}
	w.Stop()
}

func TestRoundTracker_LateSignalForSkippedBoundary(t *testing.T) {
	c := NewClock(clockwork.NewRealClock(), 30*time.Minute)
	tr := &roundTracker{threshold: time.Second}

	before := c.Sample(at(10, 29, 50))
	tr.observe(c, &before)
	assert.False(t, before.RoundEnded)

	// amostragem travou e só voltou depois da fronteira
	after := c.Sample(at(10, 30, 5))
	tr.observe(c, &after)
	require.True(t, after.RoundEnded)
	assert.True(t, after.EndedAt.Equal(at(10, 30, 0)))

	next := c.Sample(at(10, 30, 6))
	tr.observe(c, &next)
	assert.False(t, next.RoundEnded)
}

func TestRoundTracker_StartingInsideFinalSecond(t *testing.T) {
	c := NewClock(clockwork.NewRealClock(), 30*time.Minute)
	tr := &roundTracker{threshold: time.Second}

	tick := c.Sample(at(10, 29, 59).Add(500 * time.Millisecond))
	tr.observe(c, &tick)
	assert.True(t, tick.RoundEnded)

	again := c.Sample(at(10, 29, 59).Add(900 * time.Millisecond))
	tr.observe(c, &again)
	assert.False(t, again.RoundEnded)
}
