package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
kafka:
  brokers: ["localhost:9092"]
seed:
  - name: Ana Garcia
    severity: 1
    note: Cardiac arrest
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen != ":50051" {
		t.Errorf("listen default = %q", cfg.Listen)
	}
	if cfg.Kafka.Topic != "triage.events" || cfg.Kafka.Producer != "sarama" {
		t.Errorf("kafka defaults = %+v", cfg.Kafka)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if len(cfg.Seed) != 1 || cfg.Seed[0].Name != "Ana Garcia" || cfg.Seed[0].Severity != 1 {
		t.Errorf("seed = %+v", cfg.Seed)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
