package raffle

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultTickInterval = time.Second

// Tick é uma amostra do relógio da rodada.
type Tick struct {
	Now       time.Time
	EndsAt    time.Time
	Remaining time.Duration
	Minutes   int
	Seconds   int
	Progress  float64 // 0..100
	Round     int64

	// RoundEnded é true no tick que sinaliza a virada de EndedAt.
	RoundEnded bool
	EndedAt    time.Time
	EndedRound int64
}

// Clock deriva as fronteiras de rodada apenas do relógio de parede.
// Todos os processos calculam as mesmas fronteiras sem coordenação.
type Clock struct {
	clock     clockwork.Clock
	duration  time.Duration
	interval  time.Duration
	threshold time.Duration
}

// ClockOption configura o Clock.
type ClockOption func(*Clock)

// WithTickInterval altera o período de amostragem (padrão 1s).
func WithTickInterval(d time.Duration) ClockOption {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
			c.threshold = d
		}
	}
}

// NewClock cria o relógio de rodadas. Em produção use clockwork.NewRealClock().
func NewClock(clk clockwork.Clock, duration time.Duration, opts ...ClockOption) *Clock {
	c := &Clock{
		clock:     clk,
		duration:  duration,
		interval:  defaultTickInterval,
		threshold: defaultTickInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Duration retorna a duração de uma rodada.
func (c *Clock) Duration() time.Duration { return c.duration }

// EndTimestamp retorna o menor múltiplo da duração estritamente maior que now.
func (c *Clock) EndTimestamp(now time.Time) time.Time {
	d := c.duration.Milliseconds()
	ms := now.UnixMilli()
	idx := ms / d
	if ms < 0 && ms%d != 0 {
		idx--
	}
	return time.UnixMilli((idx + 1) * d).In(now.Location())
}

// RoundID identifica a rodada que termina em endsAt.
func (c *Clock) RoundID(endsAt time.Time) int64 {
	return endsAt.UnixMilli() / c.duration.Milliseconds()
}

// Sample calcula o estado da rodada para o instante now.
func (c *Clock) Sample(now time.Time) Tick {
	endsAt := c.EndTimestamp(now)
	remaining := endsAt.Sub(now)

	progress := float64(remaining) / float64(c.duration) * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return Tick{
		Now:       now,
		EndsAt:    endsAt,
		Remaining: remaining,
		Minutes:   int(remaining / time.Minute),
		Seconds:   int((remaining % time.Minute) / time.Second),
		Progress:  progress,
		Round:     c.RoundID(endsAt),
	}
}

// Now amostra o relógio injetado.
func (c *Clock) Now() Tick {
	return c.Sample(c.clock.Now())
}

// Watch inicia a amostragem periódica. Cada chamada cria uma sequência nova;
// parar um Watcher não afeta os outros.
func (c *Clock) Watch(ctx context.Context) *Watcher {
	out := make(chan Tick)
	w := &Watcher{
		c:    out,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		defer close(out)

		ticker := c.clock.NewTicker(c.interval)
		defer ticker.Stop()

		tracker := &roundTracker{threshold: c.threshold}
		emit := func(now time.Time) bool {
			tick := c.Sample(now)
			tracker.observe(c, &tick)
			select {
			case out <- tick:
				return true
			case <-ctx.Done():
				return false
			case <-w.stop:
				return false
			}
		}

		if !emit(c.clock.Now()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.Chan():
				if !emit(c.clock.Now()) {
					return
				}
			}
		}
	}()

	return w
}

// Watcher entrega os ticks de uma amostragem em andamento.
type Watcher struct {
	c    <-chan Tick
	stop chan struct{}
	once sync.Once
	done chan struct{}
}

// C retorna o canal de ticks; é fechado quando a amostragem para.
func (w *Watcher) C() <-chan Tick { return w.c }

// Stop encerra a amostragem. Pode ser chamado várias vezes.
func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.stop) })
	<-w.done
}

// roundTracker garante um único sinal de fim por fronteira.
type roundTracker struct {
	threshold    time.Duration
	lastBoundary time.Time
	lastFired    time.Time
}

func (t *roundTracker) observe(c *Clock, tick *Tick) {
	switch {
	case !t.lastBoundary.IsZero() && tick.EndsAt.After(t.lastBoundary) && !t.lastFired.Equal(t.lastBoundary):
		// a amostragem atrasou e pulou a janela final da rodada anterior
		t.fire(c, tick, t.lastBoundary)
	case tick.Remaining <= t.threshold && !t.lastFired.Equal(tick.EndsAt):
		t.fire(c, tick, tick.EndsAt)
	}
	t.lastBoundary = tick.EndsAt
}

func (t *roundTracker) fire(c *Clock, tick *Tick, boundary time.Time) {
	tick.RoundEnded = true
	tick.EndedAt = boundary
	tick.EndedRound = c.RoundID(boundary)
	t.lastFired = boundary
}
