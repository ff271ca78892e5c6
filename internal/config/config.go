// Package config loads bloomctl settings from BLOOM_-prefixed environment
// variables on top of built-in defaults.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/bloomset/internal/keyset/filter"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// FalsePositiveRate is the target rate used to size the filter.
	FalsePositiveRate float64 `koanf:"fp_rate" validate:"gt=0,lt=1"`

	// NumberOfHashes overrides the derived hash count when non-zero.
	NumberOfHashes int `koanf:"hashes" validate:"gte=0,lte=64"`

	// Strategy names the hashing strategy.
	Strategy string `koanf:"strategy" validate:"required,strategy"`

	// CacheSize is the membership cache capacity; 0 disables the cache.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// StorePath is the bbolt database holding the authoritative key set.
	StorePath string `koanf:"store_path" validate:"required"`

	// Sources are key list files loaded at startup.
	Sources []string `koanf:"sources" validate:"dive,required"`

	// SourceFormat selects the parser for Sources.
	SourceFormat string `koanf:"source_format" validate:"required,oneof=plain hosts"`
}

// DEFAULT_APP_CONFIG is applied before the environment.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:               "prod",
	LogLevel:          "info",
	FalsePositiveRate: 0.01,
	NumberOfHashes:    0,
	Strategy:          filter.StrategyRandom,
	CacheSize:         1024,
	StorePath:         "bloomset.db",
	Sources:           []string{},
	SourceFormat:      "plain",
}

func validStrategy(fl validator.FieldLevel) bool {
	return slices.Contains(filter.Strategies(), fl.Field().String())
}

// envLoader loads BLOOM_* variables, lowercasing keys and splitting values
// that contain spaces or commas into lists. Replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "BLOOM_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "BLOOM_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("strategy", validStrategy)
}

// Load returns the validated configuration.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
