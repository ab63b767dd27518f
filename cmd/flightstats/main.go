package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"flightstats-client/flightstats"
	"flightstats-client/flightstats/application"
	"flightstats-client/flightstats/domain"
	"flightstats-client/flightstats/infra"

	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
)

const appName = "flightstats"

// Sobrescrito com -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK             = 0
	exitConfig         = 1
	exitUsage          = 2
	exitPartialFailure = 3
)

const usageText = `usage: flightstats START_DATE END_DATE CODES_CSV OUT_PREFIX

  START_DATE, END_DATE  inclusive range, YYYY-MM-DD
  CODES_CSV             CSV file with IATA codes in a column called iata_codes
  OUT_PREFIX            output prefix; files go to OUT_PREFIX_<CODE>/
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

type cliArgs struct {
	start     time.Time
	end       time.Time
	codesPath string
	outPrefix string
}

func parseArgs(args []string) (cliArgs, error) {
	if len(args) != 4 {
		return cliArgs{}, fmt.Errorf("expected 4 arguments, got %d", len(args))
	}
	start, err := time.Parse(domain.DateLayout, strings.TrimSpace(args[0]))
	if err != nil {
		return cliArgs{}, fmt.Errorf("invalid start date %q: %w", args[0], err)
	}
	end, err := time.Parse(domain.DateLayout, strings.TrimSpace(args[1]))
	if err != nil {
		return cliArgs{}, fmt.Errorf("invalid end date %q: %w", args[1], err)
	}
	if end.Before(start) {
		return cliArgs{}, fmt.Errorf("end date %s is before start date %s", args[1], args[0])
	}
	if strings.TrimSpace(args[3]) == "" {
		return cliArgs{}, errors.New("output prefix is empty")
	}
	return cliArgs{start: start, end: end, codesPath: args[2], outPrefix: args[3]}, nil
}

func newLogger(cfg config, w io.Writer) *slog.Logger {
	if cfg.appEnv == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.logLevel,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.logLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.appEnv,
	)
}

// run devolve o código de saída do processo. Falhas de RunSets individuais
// só mudam o código com FLIGHTSTATS_STRICT_EXIT=true.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return exitConfig
	}

	a, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n\n%s", err, usageText)
		return exitUsage
	}

	logger := newLogger(cfg, stderr)

	codes, err := infra.ReadIATACodes(a.codesPath)
	if err != nil {
		logger.Error("config error", "err", err)
		return exitConfig
	}

	memStats := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.statsTrackKeys))
	var stats domain.StatsStore = memStats
	if cfg.statsRedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			logger.Error("redis stats ping error", "addr", cfg.statsRedisAddr, "err", err)
			return exitConfig
		}

		stats = infra.TeeStats(memStats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackKeys(cfg.statsTrackKeys),
		))
	}

	var global *infra.Store
	if cfg.globalRPS > 0 {
		global = infra.NewStore(cfg.globalRPS, cfg.globalBurst)
	}

	orch := &application.Orchestrator{
		Pool: application.ConcurrencyService{
			Pool:           infra.NewChanPool(cfg.workers),
			AcquireTimeout: cfg.acquireTimeout,
		},
		Fetcher: application.Fetcher{NumHours: cfg.numHours, Logger: logger},
		Writer:  infra.NewCSVWriter(),
		NewClient: flightstats.NewClientFactory(flightstats.ClientOptions{
			Credentials: cfg.credentials,
			BaseURL:     cfg.baseURL,
			RateMax:     cfg.rateMax,
			RateWindow:  cfg.rateWindow,
			Global:      global,
			Timeout:     cfg.httpTimeout,
			MaxRetries:  cfg.maxRetries,
			BaseBackoff: cfg.retryBackoff,
			Stats:       stats,
		}),
		Logger:         logger,
		WriteEquipment: cfg.writeEquipment,
	}

	runsets := orch.Plan(codes, a.start, a.end, a.outPrefix)

	logger.Info("starting",
		"airports", len(codes),
		"runsets", len(runsets),
		"workers", cfg.workers,
		"numHours", cfg.numHours,
	)
	logger.Info("rate", "max", cfg.rateMax, "window", cfg.rateWindow, "globalRPS", cfg.globalRPS, "globalBurst", cfg.globalBurst)

	failed := 0
	for res := range orch.Run(ctx, runsets) {
		fmt.Fprintf(stdout, "%s: %s\n", res.RunSet.ID(), res.Status())
		if !res.OK() {
			failed++
			logger.Error("runset failed", "runset", res.RunSet.ID(), "err", res.Err)
		}
	}

	total := memStats.Total()
	logger.Info("finished",
		"runsets", len(runsets),
		"failed", failed,
		"calls", total.Calls(),
		"ok", total.OK,
		"providerErrors", total.ProviderErrors,
		"transportErrors", total.TransportErrors,
		"decodeErrors", total.DecodeErrors,
	)
	logBreakdown(logger, memStats)

	if failed > 0 && cfg.strictExit {
		return exitPartialFailure
	}
	return exitOK
}

// logBreakdown loga os contadores por aeroporto e, com
// FLIGHTSTATS_STATS_TRACK_KEYS, por RunSet (em debug).
func logBreakdown(logger *slog.Logger, stats *infra.MemoryStatsStore) {
	logCounters := func(level slog.Level, msg, attr string, m map[string]infra.Counters) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c := m[k]
			logger.Log(context.Background(), level, msg,
				attr, k,
				"calls", c.Calls(),
				"ok", c.OK,
				"providerErrors", c.ProviderErrors,
				"transportErrors", c.TransportErrors,
				"decodeErrors", c.DecodeErrors,
			)
		}
	}
	logCounters(slog.LevelInfo, "airport calls", "airport", stats.ByAirport())
	logCounters(slog.LevelDebug, "runset calls", "runset", stats.ByKey())
}
