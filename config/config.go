package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server runtime configuration, loaded from YAML.
type Config struct {
	Listen string       `yaml:"listen"`
	Outbox OutboxConfig `yaml:"outbox"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Seed   []SeedEntry  `yaml:"seed"`
}

type OutboxConfig struct {
	Dir string `yaml:"dir"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	// Producer selects the client: "sarama" (sync producer) or
	// "writer" (kafka-go). Defaults to sarama.
	Producer string `yaml:"producer"`
}

// SeedEntry is a demonstration patient admitted at startup.
type SeedEntry struct {
	Name     string `yaml:"name"`
	Severity int    `yaml:"severity"`
	Note     string `yaml:"note"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen: ":50051",
		Outbox: OutboxConfig{Dir: "./outbox"},
		Kafka: KafkaConfig{
			Topic:    "triage.events",
			Producer: "sarama",
		},
	}
}

// Load reads a YAML config file and fills in defaults for anything the
// file leaves out.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.Listen == "" {
		cfg.Listen = ":50051"
	}
	if cfg.Outbox.Dir == "" {
		cfg.Outbox.Dir = "./outbox"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "triage.events"
	}
	if cfg.Kafka.Producer == "" {
		cfg.Kafka.Producer = "sarama"
	}
	return cfg, nil
}
