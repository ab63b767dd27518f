package domain

import (
	"context"
	"time"
)

// Outcome classifica o resultado de uma chamada à API.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeProviderError  Outcome = "provider_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeDecodeError    Outcome = "decode_error"
)

// StatsEvent representa uma chamada feita à API por um RunSet.
type StatsEvent struct {
	Key     Key
	Airport string
	Path    string
	Outcome Outcome

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de chamadas.
//
// O cliente trata erro como best-effort (não derruba o RunSet).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
