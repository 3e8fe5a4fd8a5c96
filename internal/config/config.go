package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	DataDir   string           `json:"data_dir"`
	LogConfig logger.LogConfig `json:"log_config"`
	GitHub    GitHubConfig     `json:"github"`
	AI        AIConfig         `json:"ai"`
	Engine    EngineConfig     `json:"engine"`
}

type GitHubConfig struct {
	APIBase        string `json:"api_base"`
	KeyCacheTTLMin int    `json:"key_cache_ttl_min"`
}

type AIConfig struct {
	Provider   string                 `json:"provider"`
	Model      string                 `json:"model"`
	TimeoutSec int                    `json:"timeout_sec"`
	Data       map[string]interface{} `json:"data"`
}

type EngineConfig struct {
	MaxOpen      int `json:"max_open"`
	IdleCloseMin int `json:"idle_close_min"`
	HistoryKeep  int `json:"history_keep"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = os.TempDir()
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.GitHub.KeyCacheTTLMin <= 0 {
		cfg.GitHub.KeyCacheTTLMin = 10
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "copilot"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o"
	}
	if cfg.AI.TimeoutSec <= 0 {
		cfg.AI.TimeoutSec = 30
	}
	if cfg.Engine.MaxOpen <= 0 {
		cfg.Engine.MaxOpen = 32
	}
	if cfg.Engine.IdleCloseMin <= 0 {
		cfg.Engine.IdleCloseMin = 30
	}
	if cfg.Engine.HistoryKeep <= 0 {
		cfg.Engine.HistoryKeep = 200
	}
	return &cfg, nil
}
