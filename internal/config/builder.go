package config

import (
	"errors"
	"fmt"
	"io/fs"

	"dario.cat/mergo"
)

// Builder layers configuration sources. Each With* call adds a layer that
// overrides the ones before it; zero values never override.
type Builder struct {
	layers  []*Config
	environ map[string]string
	err     error
}

// NewBuilder starts from Defaults.
func NewBuilder() *Builder {
	return &Builder{layers: []*Config{Defaults()}}
}

// WithFile adds a YAML file layer. A missing file is skipped unless
// required is true.
func (b *Builder) WithFile(path string, required bool) *Builder {
	if path == "" {
		return b
	}

	cfg, err := parseFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return b
		}
		b.err = errors.Join(b.err, err)
		return b
	}

	b.layers = append(b.layers, cfg)
	return b
}

// WithEnvironment replaces the process environment for WithEnv. Tests use
// it; nil restores the default.
func (b *Builder) WithEnvironment(environ map[string]string) *Builder {
	b.environ = environ
	return b
}

// WithEnv adds the SECURESAFE_* environment layer.
func (b *Builder) WithEnv() *Builder {
	cfg, err := parseEnv(b.environ)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.layers = append(b.layers, cfg)
	return b
}

// WithOverrides adds an explicit layer, typically built from CLI flags.
func (b *Builder) WithOverrides(cfg *Config) *Builder {
	if cfg != nil {
		b.layers = append(b.layers, cfg)
	}
	return b
}

// Build merges every layer and validates the result.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}

	cfg := new(Config)
	for _, layer := range b.layers {
		if err := mergo.Merge(cfg, layer, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			return nil, fmt.Errorf("config: failed to merge: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is the usual CLI sequence: defaults, the config file, environment,
// then flags. An explicitly named file must exist; the default one may not.
func Load(path string, flags *Config) (*Config, error) {
	required := path != ""
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			path = ""
		}
	}

	return NewBuilder().
		WithFile(path, required).
		WithEnv().
		WithOverrides(flags).
		Build()
}
