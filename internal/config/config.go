package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Events    EventsConfig    `yaml:"events"`
	Models    ModelsConfig    `yaml:"models"`
	Fusion    FusionConfig    `yaml:"fusion"`
	Recommend RecommendConfig `yaml:"recommend"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type ModelsConfig struct {
	URL string `yaml:"url"`
}

type FusionConfig struct {
	// DynamicUncertainty switches from fixed per-signal uncertainty
	// constants to instance-specific estimation.
	DynamicUncertainty bool `yaml:"dynamic_uncertainty"`
	// IncludeExpert adds the rule-based signal as a third evidence source.
	IncludeExpert bool `yaml:"include_expert"`
}

type RecommendConfig struct {
	Weights RecommendWeights `yaml:"weights"`
	TopN    int              `yaml:"top_n"`
}

type RecommendWeights struct {
	Content       float64 `yaml:"content"`
	Collaborative float64 `yaml:"collaborative"`
	Rule          float64 `yaml:"rule"`
	Popularity    float64 `yaml:"popularity"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Models: ModelsConfig{
			URL: "http://localhost:8090",
		},
		Fusion: FusionConfig{
			DynamicUncertainty: false,
			IncludeExpert:      true,
		},
		Recommend: RecommendConfig{
			Weights: RecommendWeights{
				Content:       0.35,
				Collaborative: 0.40,
				Rule:          0.15,
				Popularity:    0.10,
			},
			TopN: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SENTINEL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("SENTINEL_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("SENTINEL_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("SENTINEL_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SENTINEL_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("SENTINEL_MODELS_URL"); v != "" {
		cfg.Models.URL = v
	}
	if v := os.Getenv("SENTINEL_DYNAMIC_UNCERTAINTY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Fusion.DynamicUncertainty = b
		}
	}
	if v := os.Getenv("SENTINEL_INCLUDE_EXPERT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Fusion.IncludeExpert = b
		}
	}
	if v := os.Getenv("SENTINEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
