package infra

import (
	"sync"

	"flightstats-client/flightstats/domain"

	"golang.org/x/time/rate"
)

// Store é um token bucket (x/time/rate) por chave de credencial.
//
// A cota do provedor é por appId: todos os RunSets que usam a mesma
// credencial recebem o mesmo *rate.Limiter e dividem o mesmo orçamento.
type Store struct {
	mu      sync.Mutex
	entries map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

func NewStore(rps float64, burst int) *Store {
	if burst <= 0 {
		burst = 1
	}
	return &Store{
		entries: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (s *Store) RPS() float64 { return float64(s.rps) }
func (s *Store) Burst() int   { return s.burst }

// Get devolve o limiter compartilhado da chave.
func (s *Store) Get(key domain.Key) domain.Limiter {
	return s.GetString(string(key))
}

func (s *Store) GetString(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lim, ok := s.entries[key]; ok {
		return lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = lim
	return lim
}
