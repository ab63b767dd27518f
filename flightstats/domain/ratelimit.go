package domain

import "context"

type Key string

// Limiter bloqueia até que uma nova chamada seja permitida ou o ctx encerre.
//
// Observação: *rate.Limiter (golang.org/x/time/rate) já satisfaz esta
// interface, assim como a janela deslizante da camada infra.
type Limiter interface {
	Wait(ctx context.Context) error
}
