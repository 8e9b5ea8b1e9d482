// Package config loads node configuration from a JSON file with
// environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tolelom/cryptowarriors/core"
)

// Environment variables that override file settings.
const (
	EnvDataDir       = "WAR_DATA_DIR"
	EnvRPCPort       = "WAR_RPC_PORT"
	EnvRPCToken      = "WAR_RPC_TOKEN"
	EnvLogLevel      = "WAR_LOG_LEVEL"
	EnvLogJSON       = "WAR_LOG_JSON"
	EnvBlockInterval = "WAR_BLOCK_INTERVAL_MS"
	EnvMaxBlockTxs   = "WAR_MAX_BLOCK_TXS"
	EnvChainID       = "WAR_CHAIN_ID"
	EnvAdmin         = "WAR_ADMIN"
	EnvMetrics       = "WAR_METRICS"
)

// Config holds all node configuration.
type Config struct {
	DataDir         string          `json:"data_dir"`
	RPCPort         int             `json:"rpc_port"`
	RPCAuthToken    string          `json:"rpc_auth_token"` // empty → no auth required
	LogLevel        string          `json:"log_level"`
	LogJSON         bool            `json:"log_json"`
	MetricsEnabled  bool            `json:"metrics_enabled"` // serve /metrics on the RPC port
	BlockIntervalMS int64           `json:"block_interval_ms"`
	MaxBlockTxs     int             `json:"max_block_txs"` // max transactions per block; 0 → 500
	Game            core.GameParams `json:"game"`
	Genesis         core.Genesis    `json:"genesis"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:         "./data",
		RPCPort:         8545,
		LogLevel:        "info",
		MetricsEnabled:  true,
		BlockIntervalMS: 2000,
		MaxBlockTxs:     500,
		Game:            core.DefaultGameParams(),
		Genesis: core.Genesis{
			ChainID: "cryptowarriors-dev",
			Alloc:   map[string]core.Allocation{},
		},
	}
}

// BlockInterval returns the sequencer's block period.
func (c *Config) BlockInterval() time.Duration {
	return time.Duration(c.BlockIntervalMS) * time.Millisecond
}

// RPCAddr returns the listen address of the RPC server.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf(":%d", c.RPCPort)
}

// Load reads a JSON config file from path. Missing fields keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load that falls back to DefaultConfig when path does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyEnv overrides cfg from the process environment. Values from the
// given dotenv files (".env" when none are named) fill in variables the
// environment leaves unset. Naming a file that does not exist is an error;
// a missing default ".env" is not.
func ApplyEnv(cfg *Config, envFiles ...string) error {
	fileVars := map[string]string{}
	if len(envFiles) > 0 {
		m, err := godotenv.Read(envFiles...)
		if err != nil {
			return fmt.Errorf("read env files: %w", err)
		}
		fileVars = m
	} else if m, err := godotenv.Read(); err == nil {
		fileVars = m
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v := fileVars[key]
		return v, v != ""
	}

	if v, ok := lookup(EnvDataDir); ok {
		cfg.DataDir = v
	}
	if v, ok := lookup(EnvRPCToken); ok {
		cfg.RPCAuthToken = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvChainID); ok {
		cfg.Genesis.ChainID = v
	}
	if v, ok := lookup(EnvAdmin); ok {
		cfg.Genesis.Admin = v
	}
	if v, ok := lookup(EnvRPCPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRPCPort, err)
		}
		cfg.RPCPort = n
	}
	if v, ok := lookup(EnvMaxBlockTxs); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxBlockTxs, err)
		}
		cfg.MaxBlockTxs = n
	}
	if v, ok := lookup(EnvBlockInterval); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBlockInterval, err)
		}
		cfg.BlockIntervalMS = n
	}
	if v, ok := lookup(EnvLogJSON); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogJSON, err)
		}
		cfg.LogJSON = b
	}
	if v, ok := lookup(EnvMetrics); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMetrics, err)
		}
		cfg.MetricsEnabled = b
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.RPCPort <= 0 || c.RPCPort > 65535 {
		return fmt.Errorf("rpc_port %d out of range", c.RPCPort)
	}
	if c.BlockIntervalMS <= 0 {
		return errors.New("block_interval_ms must be > 0")
	}
	if c.MaxBlockTxs < 0 {
		return errors.New("max_block_txs must be >= 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.Genesis.ChainID == "" {
		return errors.New("genesis.chain_id is required")
	}
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	return nil
}
