// Package config loads sftlabel settings from a config file, environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/born-ml/sft/internal/align"
	"github.com/born-ml/sft/internal/tokenizer"
)

const (
	// AppName names the config file and directory.
	AppName = "sftlabel"

	// EnvPrefix prefixes environment overrides, e.g. SFT_ENCODER_MAXLENGTH.
	EnvPrefix = "SFT"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Encoder   EncoderConfig   `mapstructure:"encoder"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Input     InputConfig     `mapstructure:"input"`
	Log       LogConfig       `mapstructure:"log"`
}

// EncoderConfig stores label construction settings.
type EncoderConfig struct {
	MaxLength            int   `mapstructure:"maxLength"`
	IgnoreIndex          int32 `mapstructure:"ignoreIndex"`
	LeadingSpaceFallback bool  `mapstructure:"leadingSpaceFallback"`
}

// TokenizerConfig selects the tokenizer backend.
type TokenizerConfig struct {
	Kind   string `mapstructure:"kind"`
	Source string `mapstructure:"source"`
}

// BatchConfig stores batch builder settings.
type BatchConfig struct {
	Workers             int     `mapstructure:"workers"`
	MaxUnsupervisedRate float64 `mapstructure:"maxUnsupervisedRate"`
}

// InputConfig names where question and answer live in each input row.
// Numeric names select columns of array rows.
type InputConfig struct {
	QuestionField string `mapstructure:"questionField"`
	AnswerField   string `mapstructure:"answerField"`
}

// LogConfig stores logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Validation errors.
var (
	ErrInvalidMaxLength   = errors.New("encoder.maxLength must be positive")
	ErrInvalidIgnoreIndex = errors.New("encoder.ignoreIndex must be negative")
	ErrInvalidRate        = errors.New("batch.maxUnsupervisedRate must be within [0, 1]")
	ErrUnknownKind        = errors.New("unknown tokenizer.kind")
	ErrEmptyField         = errors.New("input.questionField and input.answerField must be set")
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("encoder.maxLength", align.DefaultMaxLength)
	v.SetDefault("encoder.ignoreIndex", align.DefaultIgnoreIndex)
	v.SetDefault("encoder.leadingSpaceFallback", true)
	v.SetDefault("tokenizer.kind", string(tokenizer.KindAuto))
	v.SetDefault("tokenizer.source", "cl100k_base")
	v.SetDefault("batch.workers", runtime.NumCPU())
	v.SetDefault("batch.maxUnsupervisedRate", 0.05)
	v.SetDefault("input.questionField", "question")
	v.SetDefault("input.answerField", "answer")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads configuration from configPath, or from the default search path
// when configPath is empty. A missing default config file is not an error.
func Load(configPath string) (*Config, error) {
	return LoadWith(viper.New(), configPath)
}

// LoadWith is Load on a caller-provided viper instance, so flags bound to it
// take precedence over the file and environment.
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Encoder.MaxLength <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxLength, c.Encoder.MaxLength)
	}
	if c.Encoder.IgnoreIndex >= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidIgnoreIndex, c.Encoder.IgnoreIndex)
	}
	if c.Batch.MaxUnsupervisedRate < 0 || c.Batch.MaxUnsupervisedRate > 1 {
		return fmt.Errorf("%w: got %g", ErrInvalidRate, c.Batch.MaxUnsupervisedRate)
	}
	if !slices.Contains(tokenizer.Kinds, tokenizer.Kind(c.Tokenizer.Kind)) {
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Tokenizer.Kind)
	}
	if strings.TrimSpace(c.Input.QuestionField) == "" || strings.TrimSpace(c.Input.AnswerField) == "" {
		return ErrEmptyField
	}
	return nil
}

// AlignConfig converts the encoder section to an align.Config.
func (c *Config) AlignConfig() align.Config {
	return align.Config{
		MaxLength:            c.Encoder.MaxLength,
		IgnoreIndex:          c.Encoder.IgnoreIndex,
		LeadingSpaceFallback: c.Encoder.LeadingSpaceFallback,
	}
}
