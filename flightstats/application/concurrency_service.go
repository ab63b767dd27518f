package application

import (
	"context"
	"time"

	"flightstats-client/flightstats/domain"
)

// ConcurrencyService controla as vagas do pool de RunSets: cada vaga é um
// RunSet em andamento (4 chamadas, transformação e escrita).
//
// AcquireTimeout limita quanto o orquestrador espera por uma vaga; um RunSet
// que não consegue vaga é reportado como falha (ErrNoSlot ou ctx.Err()).
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire reserva a vaga de um RunSet. Sem AcquireTimeout espera até ctx
// ser cancelado. Com ok=false nada foi reservado e release não deve ser chamado.
// Sem Pool, todo RunSet roda imediatamente.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}

	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}
