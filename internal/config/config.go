// Package config assembles securesafe settings from defaults, an optional
// YAML file, SECURESAFE_* environment variables and command-line flags.
// Later sources override earlier ones.
package config

import (
	"errors"
	"fmt"

	"github.com/forest6511/securesafe/internal/logger"
	"github.com/forest6511/securesafe/pkg/crypto"
	"github.com/forest6511/securesafe/pkg/vault"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SECURESAFE_"

// DefaultGeneratedLength is the password length used when none is configured.
const DefaultGeneratedLength = 16

// maxGeneratedLength matches the facade limit.
const maxGeneratedLength = 4096

// Errors
var (
	ErrInvalidConfig  = errors.New("config: invalid configuration")
	ErrConfigInsecure = errors.New("config: config file has insecure permissions")
	ErrConfigSymlink  = errors.New("config: config file is a symlink")
)

// Config holds every user-tunable setting.
type Config struct {
	VaultPath string    `yaml:"vault_path" env:"VAULT"`
	LogLevel  string    `yaml:"log_level" env:"LOG_LEVEL"`
	KDF       KDF       `yaml:"kdf" envPrefix:"KDF_"`
	Generator Generator `yaml:"generator" envPrefix:"GENERATOR_"`
}

// KDF holds the Argon2id parameters applied when a new vault is created.
type KDF struct {
	Memory      uint32 `yaml:"memory" env:"MEMORY"`           // KiB
	Iterations  uint32 `yaml:"iterations" env:"ITERATIONS"`   // passes
	Parallelism uint8  `yaml:"parallelism" env:"PARALLELISM"` // threads
}

// Generator holds defaults for the generate command. The booleans are
// pointers so an explicit false in a later source still overrides.
type Generator struct {
	Length  int   `yaml:"length" env:"LENGTH"`
	Symbols *bool `yaml:"symbols" env:"SYMBOLS"`
	Numbers *bool `yaml:"numbers" env:"NUMBERS"`
}

// Defaults returns the built-in configuration. VaultPath is left empty when
// the home directory cannot be resolved; Validate reports it.
func Defaults() *Config {
	p := crypto.DefaultKDFParams()
	path, _ := vault.DefaultPath()

	return &Config{
		VaultPath: path,
		LogLevel:  "warn",
		KDF: KDF{
			Memory:      p.Memory,
			Iterations:  p.Iterations,
			Parallelism: p.Parallelism,
		},
		Generator: Generator{
			Length:  DefaultGeneratedLength,
			Symbols: Bool(true),
			Numbers: Bool(true),
		},
	}
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// KDFParams converts the KDF section for vault.WithKDFParams.
func (c *Config) KDFParams() crypto.KDFParams {
	return crypto.KDFParams{
		Memory:      c.KDF.Memory,
		Iterations:  c.KDF.Iterations,
		Parallelism: c.KDF.Parallelism,
	}
}

// UseSymbols reports whether generated passwords include symbols.
func (g Generator) UseSymbols() bool { return g.Symbols == nil || *g.Symbols }

// UseNumbers reports whether generated passwords include digits.
func (g Generator) UseNumbers() bool { return g.Numbers == nil || *g.Numbers }

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.VaultPath == "" {
		return fmt.Errorf("%w: vault path is empty", ErrInvalidConfig)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.KDFParams().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Generator.Length < 1 || c.Generator.Length > maxGeneratedLength {
		return fmt.Errorf("%w: generator length must be between 1 and %d",
			ErrInvalidConfig, maxGeneratedLength)
	}
	return nil
}
