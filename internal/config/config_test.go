package config

import (
	"testing"
	"time"
)

func TestParseStringSlice(t *testing.T) {
	got := parseStringSlice(" broker-1:9092, ,broker-2:9092 ")
	if len(got) != 2 || got[0] != "broker-1:9092" || got[1] != "broker-2:9092" {
		t.Fatalf("unexpected slice: %#v", got)
	}
	if len(parseStringSlice("")) != 0 {
		t.Fatal("expected empty slice for empty input")
	}
}

func TestParseDurationFallsBack(t *testing.T) {
	if d := parseDuration("nope", 3*time.Second); d != 3*time.Second {
		t.Fatalf("expected fallback, got %s", d)
	}
	if d := parseDuration("90s", time.Second); d != 90*time.Second {
		t.Fatalf("expected 90s, got %s", d)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("ROBOKASSA_TEST_MODE", "true")
	t.Setenv("SWEEP_TIMEZONE", "Not/AZone")
	t.Setenv("SEED_ADMIN_EMAIL", "admin@clube.com.br")
	t.Setenv("SEED_ADMIN_PASSWORD", "s3cret-pass")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", cfg.KafkaBrokers)
	}
	if !cfg.RoboKassaTestMode {
		t.Fatal("expected test mode enabled")
	}
	if cfg.SweepLocation() != time.UTC {
		t.Fatal("expected UTC fallback for unknown timezone")
	}
	if cfg.SeedAdminEmail != "admin@clube.com.br" || cfg.SeedAdminPassword != "s3cret-pass" {
		t.Fatalf("expected seed admin credentials, got %q", cfg.SeedAdminEmail)
	}
}
