// Package config defines the conformance run configuration.
package config

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/conformance/inspector/comment"
	"github.com/viant/conformance/kind"
	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultMaxIterations = 100
)

// DefaultInclude lists file name patterns ingested by default
var DefaultInclude = []string{"*.go", "*.java", "*.js", "*.jsx", "*.mjs", "*.cjs", "*.md", "*.txt", "*.out", "*.cov", "*.coverprofile"}

// Engine configures status computation
type Engine struct {
	MaxIterations int `yaml:"maxIterations,omitempty"`
	Workers       int `yaml:"workers,omitempty"`
}

// Ingest configures source discovery and scanning
type Ingest struct {
	Workers       int      `yaml:"workers,omitempty"`
	Include       []string `yaml:"include,omitempty"`
	MetaPrefix    string   `yaml:"metaPrefix,omitempty"`
	ContentPrefix string   `yaml:"contentPrefix,omitempty"`
}

// Config represents a conformance run configuration
type Config struct {
	Types  []kind.Spec `yaml:"types,omitempty"`
	Engine Engine      `yaml:"engine,omitempty"`
	Ingest Ingest      `yaml:"ingest,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Types:  kind.DefaultSpecs(),
		Engine: Engine{MaxIterations: DefaultMaxIterations},
		Ingest: Ingest{
			Include:       append([]string(nil), DefaultInclude...),
			MetaPrefix:    comment.DefaultMetaPrefix,
			ContentPrefix: comment.DefaultContentPrefix,
		},
	}
}

// Init fills zero values with defaults; configured types extend the well known kinds
func (c *Config) Init() {
	defaults := DefaultConfig()
	if len(c.Types) == 0 {
		c.Types = defaults.Types
	} else {
		c.Types = append(defaults.Types, c.Types...)
	}
	if c.Engine.MaxIterations <= 0 {
		c.Engine.MaxIterations = defaults.Engine.MaxIterations
	}
	if len(c.Ingest.Include) == 0 {
		c.Ingest.Include = defaults.Ingest.Include
	}
	if c.Ingest.MetaPrefix == "" {
		c.Ingest.MetaPrefix = defaults.Ingest.MetaPrefix
	}
	if c.Ingest.ContentPrefix == "" {
		c.Ingest.ContentPrefix = defaults.Ingest.ContentPrefix
	}
}

// Registry creates a kind registry from the configured types
func (c *Config) Registry() *kind.Registry {
	if len(c.Types) == 0 {
		return kind.NewDefault()
	}
	return kind.New(c.Types...)
}

// Load loads a YAML configuration from any afs supported URL
func Load(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download config %v: %w", URL, err)
	}
	cfg := &Config{}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	cfg.Init()
	return cfg, nil
}
