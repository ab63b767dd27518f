package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"flightstats-client/flightstats/domain"
)

// MinDate é a primeira data com dados históricos no provedor.
const MinDate = "2006-02-07"

var ErrNoSlot = errors.New("no worker slot available")

// ClientFactory cria o cliente (com limiter próprio) de um RunSet.
type ClientFactory func(rs domain.RunSet) (domain.Caller, error)

// MinSupportedDate devolve MinDate como time.Time (UTC).
func MinSupportedDate() time.Time {
	t, _ := time.Parse(domain.DateLayout, MinDate)
	return t
}

// ClampStart devolve max(start, min) e se houve ajuste.
func ClampStart(start, min time.Time) (time.Time, bool) {
	if start.Before(min) {
		return min, true
	}
	return start, false
}

// BuildRunSets gera um RunSet por (código, dia) no intervalo fechado
// [start, end]. A saída de cada aeroporto fica em "<outPrefix>_<código>".
// Códigos vazios são ignorados e repetidos geram um único RunSet por dia.
func BuildRunSets(codes []string, start, end time.Time, outPrefix string) []domain.RunSet {
	start = truncateDay(start)
	end = truncateDay(end)

	uniq := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		uniq = append(uniq, code)
	}

	var out []domain.RunSet
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for _, code := range uniq {
			out = append(out, domain.RunSet{
				Airport:   code,
				Date:      d,
				OutputDir: outPrefix + "_" + code,
			})
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Orchestrator struct {
	Pool      ConcurrencyService
	Fetcher   Fetcher
	Writer    domain.TableWriter
	NewClient ClientFactory
	Logger    *slog.Logger

	// WriteEquipment também grava a tabela de equipamentos.
	WriteEquipment bool
}

// Plan aplica a data mínima (com aviso) e monta os RunSets.
func (o *Orchestrator) Plan(codes []string, start, end time.Time, outPrefix string) []domain.RunSet {
	clamped, changed := ClampStart(start, MinSupportedDate())
	if changed {
		o.logger().Warn("start date before provider history, clamping",
			"requested", start.Format(domain.DateLayout),
			"effective", clamped.Format(domain.DateLayout),
		)
	}
	return BuildRunSets(codes, clamped, end, outPrefix)
}

// Run processa os RunSets com no máximo Pool vagas simultâneas. Os resultados
// chegam na ordem de conclusão; o canal é fechado ao final.
func (o *Orchestrator) Run(ctx context.Context, runsets []domain.RunSet) <-chan domain.Result {
	results := make(chan domain.Result, len(runsets))

	go func() {
		defer close(results)

		var wg sync.WaitGroup
		for _, rs := range runsets {
			release, ok := o.Pool.Acquire(ctx)
			if !ok {
				err := ctx.Err()
				if err == nil {
					err = ErrNoSlot
				}
				results <- domain.Result{RunSet: rs, Err: err}
				continue
			}

			wg.Add(1)
			go func(rs domain.RunSet) {
				defer wg.Done()
				defer release()
				results <- o.Process(ctx, rs)
			}(rs)
		}
		wg.Wait()
	}()

	return results
}

// Process executa um RunSet de ponta a ponta: busca, transforma e escreve.
// Nada é escrito se alguma chamada falhar.
func (o *Orchestrator) Process(ctx context.Context, rs domain.RunSet) (res domain.Result) {
	res.RunSet = rs
	lg := o.logger().With("runset", rs.ID())

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("runset %s panicked: %v", rs.ID(), r)
		}
	}()

	if rs.Client == nil {
		if o.NewClient == nil {
			res.Err = errors.New("no client factory configured")
			return res
		}
		c, err := o.NewClient(rs)
		if err != nil {
			res.Err = fmt.Errorf("creating client: %w", err)
			return res
		}
		rs.Client = c
	}

	lg.Info("grabbing flights", "airport", rs.Airport, "date", rs.Date.Format(domain.DateLayout))

	batch, err := o.Fetcher.Fetch(ctx, rs)
	if err != nil {
		res.Err = err
		return res
	}
	res.Fetched = len(batch.Flights)

	tables, ok := Transform(batch)
	if !ok {
		lg.Info("nothing to write",
			"flights", len(batch.Flights),
			"airports", len(batch.Airports),
			"equipments", len(batch.Airplanes),
		)
		return res
	}

	toWrite := []domain.Table{tables.Flights, tables.Departures, tables.Arrivals}
	if o.WriteEquipment {
		toWrite = append(toWrite, tables.Equipment)
	}
	for _, t := range toWrite {
		name := FileName(t.Name, rs)
		if err := o.Writer.WriteTable(rs.OutputDir, name, t); err != nil {
			res.Err = fmt.Errorf("writing %s: %w", name, err)
			o.rollback(lg, rs, res.Files)
			res.Files = nil
			return res
		}
		res.Files = append(res.Files, name)
	}
	return res
}

// rollback remove as tabelas já escritas de um RunSet que falhou.
func (o *Orchestrator) rollback(lg *slog.Logger, rs domain.RunSet, files []string) {
	for _, name := range files {
		if err := o.Writer.RemoveTable(rs.OutputDir, name); err != nil {
			lg.Warn("could not remove partial output", "file", name, "err", err)
		}
	}
}

// FileName é "<tabela>_<aeroporto>_<AAAA-MM-DD>.csv".
func FileName(table string, rs domain.RunSet) string {
	return table + "_" + rs.ID() + ".csv"
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
