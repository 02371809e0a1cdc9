// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	TTS     TTSConfig     `yaml:"tts"`
	Log     LogConfig     `yaml:"log"`
	History HistoryConfig `yaml:"history"`
	DB      DBConfig      `yaml:"db"`
	Server  ServerConfig  `yaml:"server"`
	Policy  PolicyConfig  `yaml:"policy"`
	Output  OutputConfig  `yaml:"output"`
}

// TTSConfig holds Text-To-Speech settings for all tiers.
type TTSConfig struct {
	DefaultLanguage string            `yaml:"default_language"` // e.g. "en-US"
	MaxWebChars     int               `yaml:"max_web_chars"`    // truncation limit for web fallbacks
	Local           LocalTTSConfig    `yaml:"local"`
	Cloud           CloudTTSConfig    `yaml:"cloud"`
	Premium         PremiumTTSConfig  `yaml:"premium"`
}

// LocalTTSConfig holds settings for the local synthesis tier.
type LocalTTSConfig struct {
	WebTimeout Duration `yaml:"web_timeout"` // per web sub-attempt
}

// CloudTTSConfig holds settings for the cloud synthesis tier.
type CloudTTSConfig struct {
	Region      string   `yaml:"region"`   // e.g. "eastus"
	Endpoint    string   `yaml:"endpoint"` // overrides region-derived URL when set
	VoiceID     string   `yaml:"voice"`
	RatePerChar float64  `yaml:"rate_per_char"` // USD, usage accounting only
	Timeout     Duration `yaml:"timeout"`
}

// PremiumTTSConfig holds settings for the premium synthesis tier.
type PremiumTTSConfig struct {
	Model       string   `yaml:"model"` // e.g. "gemini-2.5-flash-preview-tts"
	VoiceID     string   `yaml:"voice"`
	RatePerChar float64  `yaml:"rate_per_char"`
	Timeout     Duration `yaml:"timeout"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server LogSettings `yaml:"server"`
}

// HistoryFile holds settings for a per-provider history log.
type HistoryFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HistoryConfig holds settings for debugging history logs.
type HistoryConfig struct {
	TTS HistoryFile `yaml:"tts"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// PolicyConfig holds settings for the persisted tier policy document.
type PolicyConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig holds settings for produced audio artifacts.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TTS: TTSConfig{
			DefaultLanguage: "en-US",
			MaxWebChars:     200,
			Local: LocalTTSConfig{
				WebTimeout: Duration(12 * time.Second),
			},
			Cloud: CloudTTSConfig{
				Region:      "eastus",
				VoiceID:     "en-US-JennyNeural",
				RatePerChar: 0.000016,
				Timeout:     Duration(30 * time.Second),
			},
			Premium: PremiumTTSConfig{
				Model:       "gemini-2.5-flash-preview-tts",
				VoiceID:     "kore",
				RatePerChar: 0.00016,
				Timeout:     Duration(60 * time.Second),
			},
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
		},
		History: HistoryConfig{
			TTS: HistoryFile{
				Enabled: true,
				Path:    "./logs/tts.log",
			},
		},
		DB: DBConfig{
			Path: "./data/beyondwords.db",
		},
		Server: ServerConfig{
			Address: "localhost:1930",
		},
		Policy: PolicyConfig{
			Path: "./data/policy.json",
		},
		Output: OutputConfig{
			Dir: "./data/audio",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, defaults are merged with existing values but the file
// is not written back (preserves user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := save(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// GenerateDefault writes the default configuration to the given path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return save(path, DefaultConfig())
}

func save(path string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
