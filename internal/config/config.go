package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port          int     `yaml:"port"`
		RatePerSecond float64 `yaml:"rate_per_second"`
		RateBurst     int     `yaml:"rate_burst"`
	} `yaml:"server"`

	Storage struct {
		// Backend is "memory", "sqlite" or "redis".
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`

	Redis struct {
		Address   string `yaml:"address"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		Namespace string `yaml:"namespace"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RatePerSecond <= 0 {
		cfg.Server.RatePerSecond = 20
	}
	if cfg.Server.RateBurst <= 0 {
		cfg.Server.RateBurst = 40
	}

	switch cfg.Storage.Backend {
	case "":
		cfg.Storage.Backend = "sqlite"
	case "memory", "sqlite", "redis":
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/semainier.db"
	}
	if cfg.Storage.Backend == "sqlite" {
		if err = os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, err
		}
	}

	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Redis.Namespace == "" {
		cfg.Redis.Namespace = "semainier"
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8081
	}
	if cfg.Monitoring.PrometheusPort == 0 {
		cfg.Monitoring.PrometheusPort = 9090
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}
