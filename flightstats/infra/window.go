package infra

import (
	"context"
	"sync"
	"time"
)

// WindowLimiter limita a no máximo `max` chamadas em qualquer janela móvel
// de duração `window`, guardando o instante de cada chamada recente.
//
// Diferente do token bucket (Store), nunca deixa passar mais que max
// chamadas dentro da janela, nem mesmo na rajada inicial.
type WindowLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	calls  []time.Time

	now func() time.Time
}

type WindowOption func(*WindowLimiter)

// WithClock troca o relógio (útil para testes).
func WithClock(now func() time.Time) WindowOption {
	return func(l *WindowLimiter) { l.now = now }
}

func NewWindowLimiter(max int, window time.Duration, opts ...WindowOption) *WindowLimiter {
	if max <= 0 {
		max = 1
	}
	l := &WindowLimiter{
		max:    max,
		window: window,
		calls:  make([]time.Time, 0, max),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *WindowLimiter) Max() int              { return l.max }
func (l *WindowLimiter) Window() time.Duration { return l.window }

// Wait bloqueia até que uma chamada agora mantenha a janela dentro da cota.
// A chamada é contabilizada no momento em que Wait retorna nil.
func (l *WindowLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := l.reserve()
		if ok {
			return nil
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// reserve registra a chamada se houver vaga; senão devolve quanto esperar.
func (l *WindowLimiter) reserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	// calls está em ordem crescente: descarta tudo que saiu da janela.
	drop := 0
	for drop < len(l.calls) && !l.calls[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		l.calls = append(l.calls[:0], l.calls[drop:]...)
	}

	if len(l.calls) < l.max {
		l.calls = append(l.calls, now)
		return 0, true
	}
	return l.calls[0].Sub(cutoff), false
}

// InWindow devolve quantas chamadas estão contabilizadas na janela atual.
func (l *WindowLimiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	n := 0
	for _, c := range l.calls {
		if c.After(cutoff) {
			n++
		}
	}
	return n
}
