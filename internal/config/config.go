package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. STATEMENT_INSIGHTS_DECODE_TIMEOUT=5s.
const EnvPrefix = "STATEMENT_INSIGHTS"

// Config represents the top-level statement-insights configuration.
type Config struct {
	Decode     DecodeConfig   `mapstructure:"decode"`
	Identify   IdentifyConfig `mapstructure:"identify"`
	Matcher    MatcherConfig  `mapstructure:"matcher"`
	Detector   DetectorConfig `mapstructure:"detector"`
	Server     ServerConfig   `mapstructure:"server"`
	Log        LogConfig      `mapstructure:"log"`
	Rules      PathConfig     `mapstructure:"rules"`
	Categories PathConfig     `mapstructure:"categories"`
}

// DecodeConfig bounds document decoding.
type DecodeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// IdentifyConfig controls bank identification.
type IdentifyConfig struct {
	ScanTokens int `mapstructure:"scan_tokens"`
}

// MatcherConfig controls fuzzy payee matching.
type MatcherConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// DetectorConfig controls clustering and scoring.
type DetectorConfig struct {
	AmountTolerance float64 `mapstructure:"amount_tolerance"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
	SuggestionLimit int     `mapstructure:"suggestion_limit"`
	ChunkSize       int     `mapstructure:"chunk_size"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	BodyLimitMB int    `mapstructure:"body_limit_mb"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// PathConfig points at an optional YAML file.
type PathConfig struct {
	Path string `mapstructure:"path"`
}

// setDefaults registers every key so environment overrides resolve even
// without a config file.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("decode.timeout", d.Decode.Timeout)
	v.SetDefault("identify.scan_tokens", d.Identify.ScanTokens)
	v.SetDefault("matcher.threshold", d.Matcher.Threshold)
	v.SetDefault("detector.amount_tolerance", d.Detector.AmountTolerance)
	v.SetDefault("detector.min_confidence", d.Detector.MinConfidence)
	v.SetDefault("detector.suggestion_limit", d.Detector.SuggestionLimit)
	v.SetDefault("detector.chunk_size", d.Detector.ChunkSize)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.body_limit_mb", d.Server.BodyLimitMB)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("rules.path", "")
	v.SetDefault("categories.path", "")
}

// Default returns the built-in configuration without consulting the environment.
func Default() *Config {
	return &Config{
		Decode:   DecodeConfig{Timeout: 10 * time.Second},
		Identify: IdentifyConfig{ScanTokens: 60},
		Matcher:  MatcherConfig{Threshold: 0.75},
		Detector: DetectorConfig{
			AmountTolerance: 0.15,
			MinConfidence:   0.70,
			SuggestionLimit: 5,
			ChunkSize:       250,
		},
		Server: ServerConfig{Addr: ":8080", BodyLimitMB: 32},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads an optional YAML file and applies environment overrides.
// An empty path uses defaults plus environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the pipeline cannot work with. Zero is rejected
// wherever the detector would read it as unset and substitute its default.
func (c *Config) Validate() error {
	var errs []error
	if c.Decode.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("decode.timeout must be positive, got %s", c.Decode.Timeout))
	}
	if c.Matcher.Threshold <= 0 || c.Matcher.Threshold > 1 {
		errs = append(errs, fmt.Errorf("matcher.threshold must be within (0,1], got %v", c.Matcher.Threshold))
	}
	if c.Detector.AmountTolerance <= 0 {
		errs = append(errs, fmt.Errorf("detector.amount_tolerance must be positive, got %v", c.Detector.AmountTolerance))
	}
	if c.Detector.MinConfidence <= 0 || c.Detector.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("detector.min_confidence must be within (0,1], got %v", c.Detector.MinConfidence))
	}
	if c.Detector.SuggestionLimit <= 0 {
		errs = append(errs, fmt.Errorf("detector.suggestion_limit must be positive, got %d", c.Detector.SuggestionLimit))
	}
	if c.Detector.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("detector.chunk_size must be positive, got %d", c.Detector.ChunkSize))
	}
	return errors.Join(errs...)
}
