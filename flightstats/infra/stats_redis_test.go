package infra

import (
	"context"
	"testing"
	"time"

	"flightstats-client/flightstats/domain"
)

func TestRedisStatsStore_Options(t *testing.T) {
	s := NewRedisStatsStore(nil,
		WithStatsPrefix(":fs:stats:"),
		WithStatsTTL(time.Hour),
		WithStatsBucket(" NONE "),
		WithStatsTrackKeys(true),
	)
	if s.prefix != "fs:stats" {
		t.Fatalf("expected trimmed prefix, got %q", s.prefix)
	}
	if s.ttl != time.Hour || s.bucket != "none" || !s.trackKeys {
		t.Fatalf("unexpected options: %+v", s)
	}
}

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	s := NewRedisStatsStore(nil)
	if err := s.Record(context.Background(), domain.StatsEvent{Airport: "JFK", Outcome: domain.OutcomeOK}); err != nil {
		t.Fatalf("expected nil error without client, got %v", err)
	}
}
