package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	if cfg.Server.HTTPPort != ":8080" {
		t.Fatalf("expected default http port :8080, got %q", cfg.Server.HTTPPort)
	}
	if cfg.Postgres.MaxOpenConns != 10 {
		t.Fatalf("expected default max open conns 10, got %d", cfg.Postgres.MaxOpenConns)
	}
	if cfg.Outbox.PollInterval != 2*time.Second {
		t.Fatalf("expected default outbox poll interval 2s, got %s", cfg.Outbox.PollInterval)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Fatalf("unexpected default kafka brokers: %v", cfg.Kafka.Brokers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", ":9999")
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "25")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("LOGISTICS_ENABLED", "true")

	cfg := LoadEnv()

	if cfg.Server.HTTPPort != ":9999" {
		t.Fatalf("expected overridden http port, got %q", cfg.Server.HTTPPort)
	}
	if cfg.Postgres.MaxOpenConns != 25 {
		t.Fatalf("expected overridden max open conns, got %d", cfg.Postgres.MaxOpenConns)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("expected 2 kafka brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Outbox.PollInterval != 500*time.Millisecond {
		t.Fatalf("expected 500ms poll interval, got %s", cfg.Outbox.PollInterval)
	}
	if !cfg.Logistics.Enabled {
		t.Fatal("expected logistics enabled")
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("POSTGRES_MAX_IDLE_CONNS", "not-a-number")

	cfg := LoadEnv()
	if cfg.Postgres.MaxIdleConns != 5 {
		t.Fatalf("expected fallback 5 on unparsable int, got %d", cfg.Postgres.MaxIdleConns)
	}
}
