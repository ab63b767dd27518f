package domain

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const DateLayout = "2006-01-02"

// Caller é o contrato do cliente da API usado por um RunSet.
// Devolve o corpo da resposta já validado (sem objeto "error").
type Caller interface {
	Call(ctx context.Context, path string, params url.Values) ([]byte, error)
}

// RunSet é a unidade de trabalho: um aeroporto de partida em uma data.
//
// Client é atribuído pelo orquestrador no momento do processamento; cada
// RunSet tem o seu (com limiter próprio).
type RunSet struct {
	Airport   string
	Date      time.Time
	OutputDir string

	Client Caller
}

// ID identifica o RunSet em logs, estatísticas e nomes de arquivo.
func (r RunSet) ID() string {
	return r.Airport + "_" + r.Date.Format(DateLayout)
}

// Result é o retorno de um RunSet: sucesso com contagem ou falha com erro.
type Result struct {
	RunSet  RunSet
	Fetched int
	Files   []string
	Err     error
}

func (r Result) OK() bool { return r.Err == nil }

func (r Result) Status() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return fmt.Sprintf("complete: fetched %d flights", r.Fetched)
}
