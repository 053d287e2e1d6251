// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML manifest describing a conformance sweep.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

const defaultTimeout = 30 * time.Second

// Check is one endpoint conformance check: a relative path, optional
// template variables to substitute, and an optional schema document the
// response must validate against.
type Check struct {
	Name   string            `yaml:"name"`
	Path   string            `yaml:"path"`
	Vars   map[string]string `yaml:"vars"`
	Schema string            `yaml:"schema"`
}

// Entity names an entity-listing endpoint whose result identifiers feed
// further checks.
type Entity struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Config is the sweep manifest.
type Config struct {
	// RootURL is the absolute base URL of the service under test.
	RootURL string `yaml:"root_url"`
	// Timeout bounds each probe's HTTP client, e.g. "30s".
	Timeout string `yaml:"timeout"`
	// SchemaDir holds the schema bundle; check schema paths resolve
	// against it.
	SchemaDir string `yaml:"schema_dir"`
	// CacheDir, when set, receives a mirrored copy of SchemaDir before the
	// sweep and schemas are compiled from there.
	CacheDir string   `yaml:"cache_dir"`
	Checks   []Check  `yaml:"checks"`
	Entities []Entity `yaml:"entities"`
}

// Load reads and validates a manifest.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RootURL == "" {
		return fmt.Errorf("root_url is required")
	}
	if _, err := c.Root(); err != nil {
		return err
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("timeout %q: %w", c.Timeout, err)
		}
	}
	for i, chk := range c.Checks {
		if chk.Path == "" {
			return fmt.Errorf("check %d (%s): path is required", i, chk.Name)
		}
	}
	for i, ent := range c.Entities {
		if ent.Path == "" {
			return fmt.Errorf("entity %d (%s): path is required", i, ent.Name)
		}
	}
	return nil
}

// Root parses RootURL.
func (c *Config) Root() (*url.URL, error) {
	root, err := url.Parse(c.RootURL)
	if err != nil {
		return nil, fmt.Errorf("root_url %q: %w", c.RootURL, err)
	}
	if !root.IsAbs() {
		return nil, fmt.Errorf("root_url %q is not absolute", c.RootURL)
	}
	return root, nil
}

// ProbeTimeout returns the configured probe timeout, defaulting to 30s.
// Load has already verified the value parses.
func (c *Config) ProbeTimeout() time.Duration {
	if c.Timeout == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return defaultTimeout
	}
	return d
}
