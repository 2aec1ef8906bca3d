// Package config loads and validates dropgram configuration.
//
// Configuration comes from a JSON file merged with DROPGRAM_* environment
// variables; environment values win.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// File handling modes for media payloads.
const (
	HandleRemote = "remote" // send file:// URLs, the API server reads them
	HandleLocal  = "local"  // upload file contents via multipart
)

var (
	ErrMissingToken  = errors.New("bot_api_key is required")
	ErrMissingChatID = errors.New("target_chat_id is required")
)

type Config struct {
	BotAPIKey    string `env:"DROPGRAM_BOT_API_KEY"    json:"bot_api_key"`
	TargetChatID string `env:"DROPGRAM_TARGET_CHAT_ID" json:"target_chat_id"`
	LoadPath     string `env:"DROPGRAM_LOAD_PATH"      json:"load_path"`
	HistoryPath  string `env:"DROPGRAM_HISTORY_PATH"   json:"history_path"`
	APIServer    string `env:"DROPGRAM_API_SERVER"     json:"api_server"`
	HandleFiles  string `env:"DROPGRAM_HANDLE_FILES"   json:"handle_files"`

	SendAtOnce       int `env:"DROPGRAM_SEND_AT_ONCE" json:"send_at_once"`
	SendEveryMinutes int `env:"DROPGRAM_SEND_EVERY"   json:"send_every"`

	// Pacing and retry knobs. The per-item delays differ because grouped
	// media sends hit stricter flood limits on the Bot API side.
	SendDelaySeconds    int `env:"DROPGRAM_SEND_DELAY"    json:"send_delay_seconds"`
	BundleDelaySeconds  int `env:"DROPGRAM_BUNDLE_DELAY"  json:"bundle_delay_seconds"`
	RetryBackoffSeconds int `env:"DROPGRAM_RETRY_BACKOFF" json:"retry_backoff_seconds"`
	MaxSendAttempts     int `env:"DROPGRAM_MAX_ATTEMPTS"  json:"max_send_attempts"`
	PullRetrySeconds    int `env:"DROPGRAM_PULL_RETRY"    json:"pull_retry_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		TargetChatID:        "0",
		LoadPath:            "./load",
		HistoryPath:         "./history",
		APIServer:           "https://api.telegram.org",
		HandleFiles:         HandleRemote,
		SendAtOnce:          5,
		SendEveryMinutes:    10,
		SendDelaySeconds:    5,
		BundleDelaySeconds:  15,
		RetryBackoffSeconds: 30,
		MaxSendAttempts:     5,
		PullRetrySeconds:    15,
	}
}

// LoadConfig reads the JSON config at path and applies environment
// overrides. A missing file is not an error; defaults plus environment
// are used instead.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate reports configuration errors that must stop startup.
func (c *Config) Validate() error {
	if c.BotAPIKey == "" {
		return ErrMissingToken
	}
	if c.TargetChatID == "" || c.TargetChatID == "0" {
		return ErrMissingChatID
	}
	if c.HandleFiles != HandleRemote && c.HandleFiles != HandleLocal {
		return fmt.Errorf("handle_files must be %q or %q, got %q", HandleRemote, HandleLocal, c.HandleFiles)
	}
	if c.LoadPath == "" {
		return errors.New("load_path is required")
	}
	if c.HistoryPath == "" {
		return errors.New("history_path is required")
	}
	if c.SendAtOnce < 1 {
		return errors.New("send_at_once must be at least 1")
	}
	if c.SendEveryMinutes < 1 {
		return errors.New("send_every must be at least 1 minute")
	}
	if c.MaxSendAttempts < 1 {
		return errors.New("max_send_attempts must be at least 1")
	}
	return nil
}

func (c *Config) SendEvery() time.Duration {
	return time.Duration(c.SendEveryMinutes) * time.Minute
}

// FillEvery is half the send period; the fill routine reconciles the queue
// twice per send cycle.
func (c *Config) FillEvery() time.Duration {
	return c.SendEvery() / 2
}

func (c *Config) SendDelay() time.Duration {
	return time.Duration(c.SendDelaySeconds) * time.Second
}

func (c *Config) BundleDelay() time.Duration {
	return time.Duration(c.BundleDelaySeconds) * time.Second
}

func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}

func (c *Config) PullRetry() time.Duration {
	return time.Duration(c.PullRetrySeconds) * time.Second
}
