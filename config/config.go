// Package config loads greedysnake settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// GREEDYSNAKE_* environment variables. Command-line flags are applied on top
// by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brensch/greedysnake/rules"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Snake   SnakeConfig   `yaml:"snake"`
	Agent   AgentConfig   `yaml:"agent"`
	Arena   ArenaConfig   `yaml:"arena"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Replay  ReplayConfig  `yaml:"replay"`
}

type ServerConfig struct {
	Listen            string        `yaml:"listen"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// SnakeConfig is the static info descriptor served at GET /.
type SnakeConfig struct {
	APIVersion string `yaml:"apiversion"`
	Author     string `yaml:"author"`
	Color      string `yaml:"color"`
	Head       string `yaml:"head"`
	Tail       string `yaml:"tail"`
	Version    string `yaml:"version"`
}

type AgentConfig struct {
	FoodRadius int `yaml:"food_radius"`
	// Seed for the random fallback; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

type ArenaConfig struct {
	Width    int                `yaml:"width"`
	Height   int                `yaml:"height"`
	Snakes   int                `yaml:"snakes"`
	MaxTurns int                `yaml:"max_turns"`
	Games    int                `yaml:"games"`
	OutDir   string             `yaml:"out_dir"`
	Food     rules.FoodSettings `yaml:"food"`
}

type StorageConfig struct {
	// ResultsDB is the SQLite game book; empty disables it.
	ResultsDB string `yaml:"results_db"`
}

type LoggingConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

type ReplayConfig struct {
	EngineURL      string        `yaml:"engine_url"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	UserAgent      string        `yaml:"user_agent"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:            ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Snake: SnakeConfig{
			APIVersion: "1",
			Author:     "artemise",
			Color:      "#4ebbd4",
			Head:       "all-seeing",
			Tail:       "mystic-moon",
		},
		Agent: AgentConfig{FoodRadius: 3},
		Arena: ArenaConfig{
			Width:    11,
			Height:   11,
			Snakes:   4,
			MaxTurns: 500,
			Games:    10,
			OutDir:   "data/arena",
			Food:     rules.DefaultFoodSettings,
		},
		Storage: StorageConfig{ResultsDB: "~/.greedysnake/results.db"},
		Logging: LoggingConfig{Format: "text", Level: "info"},
		Replay: ReplayConfig{
			EngineURL:      "wss://engine.battlesnake.com/games/%s/events",
			ConnectTimeout: 10 * time.Second,
			ReadTimeout:    30 * time.Second,
			UserAgent:      "greedysnake/1.0 (replay-evaluator)",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	cfg.Server.Listen = envOrDefault(getenv, "GREEDYSNAKE_LISTEN", cfg.Server.Listen)
	cfg.Storage.ResultsDB = envOrDefault(getenv, "GREEDYSNAKE_DB", cfg.Storage.ResultsDB)
	cfg.Logging.Format = envOrDefault(getenv, "GREEDYSNAKE_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Level = envOrDefault(getenv, "GREEDYSNAKE_LOG_LEVEL", cfg.Logging.Level)
	cfg.Agent.Seed = envInt64OrDefault(getenv, "GREEDYSNAKE_SEED", cfg.Agent.Seed)
}

func envOrDefault(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt64OrDefault(getenv func(string) string, key string, def int64) int64 {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

// Validate checks ranges that would otherwise fail deep inside a command.
func (c Config) Validate() error {
	var errs []error
	if c.Agent.FoodRadius < 0 {
		errs = append(errs, fmt.Errorf("agent.food_radius must be >= 0, got %d", c.Agent.FoodRadius))
	}
	if c.Arena.Width < 2 || c.Arena.Height < 2 {
		errs = append(errs, fmt.Errorf("arena board must be at least 2x2, got %dx%d", c.Arena.Width, c.Arena.Height))
	}
	if c.Arena.Snakes < 1 || c.Arena.Snakes > 8 {
		errs = append(errs, fmt.Errorf("arena.snakes must be 1..8, got %d", c.Arena.Snakes))
	}
	if c.Arena.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("arena.max_turns must be positive, got %d", c.Arena.MaxTurns))
	}
	if c.Arena.Food.FoodSpawnChance < 0 || c.Arena.Food.FoodSpawnChance > 100 {
		errs = append(errs, fmt.Errorf("arena.food.spawn_chance must be 0..100, got %d", c.Arena.Food.FoodSpawnChance))
	}
	if c.Snake.APIVersion == "" {
		errs = append(errs, errors.New("snake.apiversion is required"))
	}
	if !strings.Contains(c.Replay.EngineURL, "%s") {
		errs = append(errs, fmt.Errorf("replay.engine_url must contain %%s for the game id, got %q", c.Replay.EngineURL))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
