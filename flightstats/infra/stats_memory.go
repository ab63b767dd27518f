package infra

import (
	"context"
	"sync"

	"flightstats-client/flightstats/domain"
)

type Counters struct {
	OK              int64
	ProviderErrors  int64
	TransportErrors int64
	DecodeErrors    int64
}

func (c Counters) Calls() int64 {
	return c.OK + c.ProviderErrors + c.TransportErrors + c.DecodeErrors
}

func (c *Counters) add(o domain.Outcome) {
	switch o {
	case domain.OutcomeOK:
		c.OK++
	case domain.OutcomeProviderError:
		c.ProviderErrors++
	case domain.OutcomeTransportError:
		c.TransportErrors++
	case domain.OutcomeDecodeError:
		c.DecodeErrors++
	}
}

// MemoryStatsStore é uma implementação simples em memória.
// Alimenta o resumo impresso ao final da execução.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     Counters
	byAirport map[string]Counters
	byKey     map[string]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byAirport: make(map[string]Counters),
		byKey:     make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Outcome)

	c := s.byAirport[ev.Airport]
	c.add(ev.Outcome)
	s.byAirport[ev.Airport] = c

	if s.trackKeys {
		k := s.byKey[string(ev.Key)]
		k.add(ev.Outcome)
		s.byKey[string(ev.Key)] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByAirport() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byAirport))
	for k, v := range s.byAirport {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}

// TeeStats repassa cada evento para todos os stores e devolve o primeiro erro.
func TeeStats(stores ...domain.StatsStore) domain.StatsStore {
	return teeStats(stores)
}

type teeStats []domain.StatsStore

func (t teeStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
