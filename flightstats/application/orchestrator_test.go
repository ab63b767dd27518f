package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"flightstats-client/flightstats/domain"
	"flightstats-client/flightstats/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixtureFactory(fail map[string]error) ClientFactory {
	return func(rs domain.RunSet) (domain.Caller, error) {
		return callerFunc(func(ctx context.Context, path string, _ url.Values) ([]byte, error) {
			if err := fail[rs.Airport]; err != nil {
				return nil, err
			}
			return statusBody(rs.Airport, hourOf(path)), nil
		}), nil
	}
}

func newTestOrchestrator(workers int, factory ClientFactory) *Orchestrator {
	return &Orchestrator{
		Pool:      ConcurrencyService{Pool: infra.NewChanPool(workers)},
		Writer:    infra.NewCSVWriter(),
		NewClient: factory,
	}
}

func collect(ch <-chan domain.Result) []domain.Result {
	var out []domain.Result
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestBuildRunSets(t *testing.T) {
	rs := BuildRunSets([]string{"jfk", "GRU"}, day("2016-01-30"), day("2016-02-01"), "out")
	require.Len(t, rs, 6)

	assert.Equal(t, "JFK_2016-01-30", rs[0].ID())
	assert.Equal(t, "GRU_2016-01-30", rs[1].ID())
	assert.Equal(t, "GRU_2016-02-01", rs[5].ID())
	assert.Equal(t, "out_JFK", rs[0].OutputDir)
}

func TestBuildRunSets_EndBeforeStart(t *testing.T) {
	assert.Empty(t, BuildRunSets([]string{"JFK"}, day("2016-01-02"), day("2016-01-01"), "out"))
}

func TestClampStart(t *testing.T) {
	min := MinSupportedDate()
	assert.Equal(t, "2006-02-07", min.Format(domain.DateLayout))

	got, changed := ClampStart(day("2005-12-31"), min)
	assert.True(t, changed)
	assert.Equal(t, min, got)

	got, changed = ClampStart(day("2006-02-07"), min)
	assert.False(t, changed)
	assert.Equal(t, min, got)
}

func TestOrchestrator_PlanWarnsWhenClamping(t *testing.T) {
	var buf bytes.Buffer
	o := &Orchestrator{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	rs := o.Plan([]string{"JFK"}, day("2006-02-01"), day("2006-02-08"), "out")
	require.Len(t, rs, 2)
	assert.Equal(t, "JFK_2006-02-07", rs[0].ID())
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "effective=2006-02-07")

	buf.Reset()
	o.Plan([]string{"JFK"}, day("2016-01-01"), day("2016-01-01"), "out")
	assert.NotContains(t, buf.String(), "level=WARN")
}

func TestOrchestrator_RunWritesFilesPerRunSet(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out")
	o := newTestOrchestrator(10, fixtureFactory(nil))

	runsets := BuildRunSets([]string{"JFK", "GRU"}, day("2016-01-01"), day("2016-01-02"), prefix)
	results := collect(o.Run(context.Background(), runsets))
	require.Len(t, results, 4)

	for _, r := range results {
		require.NoError(t, r.Err, r.RunSet.ID())
		// 4 horas x 2 voos, com o voo 999 repetido em todas.
		assert.Equal(t, 8, r.Fetched)
		assert.Equal(t, "complete: fetched 8 flights", r.Status())
		assert.Len(t, r.Files, 3)
	}

	for _, name := range []string{"flights_JFK_2016-01-01.csv", "departures_JFK_2016-01-01.csv", "arrivals_JFK_2016-01-02.csv"} {
		_, err := os.Stat(filepath.Join(prefix+"_JFK", name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(prefix+"_JFK", "equipment_JFK_2016-01-01.csv"))
	assert.True(t, os.IsNotExist(err), "equipment table is opt-in")

	flights := readTable(t, filepath.Join(prefix+"_GRU", "flights_GRU_2016-01-01.csv"))
	// 4 voos por hora + o 999 deduplicado.
	assert.Len(t, flights, 1+5)
}

func TestOrchestrator_WriteEquipment(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out")
	o := newTestOrchestrator(1, fixtureFactory(nil))
	o.WriteEquipment = true

	results := collect(o.Run(context.Background(), BuildRunSets([]string{"JFK"}, day("2016-01-01"), day("2016-01-01"), prefix)))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Contains(t, results[0].Files, "equipment_JFK_2016-01-01.csv")
}

func TestOrchestrator_FailureIsIsolated(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out")
	apiErr := &domain.APIError{Code: "400", Message: "Invalid airport"}
	o := newTestOrchestrator(10, fixtureFactory(map[string]error{"XXX": apiErr}))

	results := collect(o.Run(context.Background(), BuildRunSets([]string{"JFK", "XXX"}, day("2016-01-01"), day("2016-01-01"), prefix)))
	require.Len(t, results, 2)

	byID := map[string]domain.Result{}
	for _, r := range results {
		byID[r.RunSet.ID()] = r
	}
	assert.NoError(t, byID["JFK_2016-01-01"].Err)
	assert.ErrorIs(t, byID["XXX_2016-01-01"].Err, apiErr)
	assert.Equal(t, "hour 0: Invalid airport (400)", byID["XXX_2016-01-01"].Status())

	_, err := os.Stat(prefix + "_XXX")
	assert.True(t, os.IsNotExist(err), "failed runset must not create output")
}

func TestOrchestrator_NoAppendixWritesNothing(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out")
	factory := func(rs domain.RunSet) (domain.Caller, error) {
		return callerFunc(func(context.Context, string, url.Values) ([]byte, error) {
			return []byte(`{"flightStatuses": [{"flightId": 7, "departureAirportFsCode": "JFK"}]}`), nil
		}), nil
	}
	o := newTestOrchestrator(1, factory)

	results := collect(o.Run(context.Background(), BuildRunSets([]string{"JFK"}, day("2016-01-01"), day("2016-01-01"), prefix)))
	require.Len(t, results, 1)
	assert.True(t, results[0].OK())
	assert.Equal(t, 4, results[0].Fetched)
	assert.Empty(t, results[0].Files)

	_, err := os.Stat(prefix + "_JFK")
	assert.True(t, os.IsNotExist(err))
}

func TestOrchestrator_FactoryErrorAndPanic(t *testing.T) {
	boom := errors.New("no credentials")
	o := newTestOrchestrator(2, func(rs domain.RunSet) (domain.Caller, error) {
		if rs.Airport == "ERR" {
			return nil, boom
		}
		return callerFunc(func(context.Context, string, url.Values) ([]byte, error) {
			panic("caller blew up")
		}), nil
	})

	results := collect(o.Run(context.Background(), BuildRunSets([]string{"ERR", "PNC"}, day("2016-01-01"), day("2016-01-01"), t.TempDir())))
	require.Len(t, results, 2)
	for _, r := range results {
		require.Error(t, r.Err)
		if r.RunSet.Airport == "ERR" {
			assert.ErrorIs(t, r.Err, boom)
		} else {
			assert.Contains(t, r.Err.Error(), "panicked")
		}
	}
}

func TestOrchestrator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(2, fixtureFactory(nil))
	results := collect(o.Run(ctx, BuildRunSets([]string{"JFK", "GRU"}, day("2016-01-01"), day("2016-01-03"), t.TempDir())))
	require.Len(t, results, 6)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestOrchestrator_OutputIndependentOfPoolSize(t *testing.T) {
	codes := []string{"JFK", "GRU", "LAX"}
	start, end := day("2016-01-01"), day("2016-01-03")

	snapshot := func(workers int) map[string]string {
		root := t.TempDir()
		o := newTestOrchestrator(workers, fixtureFactory(nil))
		for _, r := range collect(o.Run(context.Background(), BuildRunSets(codes, start, end, filepath.Join(root, "out")))) {
			require.NoError(t, r.Err)
		}
		return readTree(t, root)
	}

	serial := snapshot(1)
	parallel := snapshot(10)
	assert.Len(t, serial, len(codes)*3*3)
	assert.Equal(t, serial, parallel)
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return recs
}

// readTree devolve caminho relativo -> conteúdo de todos os arquivos em root.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	var paths []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	for _, p := range paths {
		b, err := os.ReadFile(p)
		require.NoError(t, err)
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[rel] = string(b)
	}
	return out
}

// flakyWriter delega para um CSVWriter e falha na escrita de número failOn.
type flakyWriter struct {
	*infra.CSVWriter
	failOn int
	writes int
}

func (w *flakyWriter) WriteTable(dir, filename string, t domain.Table) error {
	w.writes++
	if w.writes == w.failOn {
		return errors.New("disk full")
	}
	return w.CSVWriter.WriteTable(dir, filename, t)
}

func TestOrchestrator_WriteFailureLeavesNoPartialOutput(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out")
	o := newTestOrchestrator(1, fixtureFactory(nil))
	o.Writer = &flakyWriter{CSVWriter: infra.NewCSVWriter(), failOn: 2}

	rs := BuildRunSets([]string{"JFK"}, day("2016-01-01"), day("2016-01-01"), prefix)
	res := o.Process(context.Background(), rs[0])

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "writing departures_JFK_2016-01-01.csv: disk full")
	assert.Empty(t, res.Files)

	_, err := os.Stat(filepath.Join(prefix+"_JFK", "flights_JFK_2016-01-01.csv"))
	assert.True(t, os.IsNotExist(err), "flights table must be removed when a later table fails")
	_, err = os.Stat(prefix + "_JFK")
	assert.True(t, os.IsNotExist(err), "empty output directory must be removed")
}

func TestOrchestrator_WriteFailureKeepsOtherRunSetsOfSameAirport(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out")
	o := newTestOrchestrator(1, fixtureFactory(nil))
	o.Writer = &flakyWriter{CSVWriter: infra.NewCSVWriter(), failOn: 5}

	rs := BuildRunSets([]string{"JFK"}, day("2016-01-01"), day("2016-01-02"), prefix)
	require.NoError(t, o.Process(context.Background(), rs[0]).Err)
	require.Error(t, o.Process(context.Background(), rs[1]).Err)

	tree := readTree(t, prefix+"_JFK")
	assert.Len(t, tree, 3)
	for name := range tree {
		assert.Contains(t, name, "2016-01-01")
	}
}

func TestOrchestrator_SlotTimeoutReportsErrNoSlot(t *testing.T) {
	o := newTestOrchestrator(1, fixtureFactory(nil))
	o.Pool = ConcurrencyService{Pool: &blockingPool{}, AcquireTimeout: 10 * time.Millisecond}

	results := collect(o.Run(context.Background(), BuildRunSets([]string{"JFK"}, day("2016-01-01"), day("2016-01-01"), t.TempDir())))
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrNoSlot)
}

func TestBuildRunSets_DeduplicatesCodes(t *testing.T) {
	rs := BuildRunSets([]string{"JFK", " jfk ", "", "GRU", "JFK"}, day("2016-01-01"), day("2016-01-02"), "out")

	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID()
	}
	assert.Equal(t, []string{"JFK_2016-01-01", "GRU_2016-01-01", "JFK_2016-01-02", "GRU_2016-01-02"}, ids)
}
