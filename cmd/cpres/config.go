// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package main

import (
	"fmt"
	"os"

	"github.com/churchpresenter/cpres"
	"gopkg.in/yaml.v3"
)

// configEnv names the environment variable consulted when --config is not given.
const configEnv = "CPRES_CONFIG"

// cliConfig is the optional YAML configuration of the cpres command.
type cliConfig struct {
	Save    saveConfig    `yaml:"save"`
	Extract extractConfig `yaml:"extract"`
	Import  importConfig  `yaml:"import"`
}

// saveConfig configures pack and edit commands.
type saveConfig struct {
	// Store lists gitignore-style patterns written without compression; "!" negates.
	Store []string `yaml:"store,omitempty"`
	// DefaultStore prepends the built-in already-compressed media patterns.
	DefaultStore bool `yaml:"default_store"`
	// CompressionLevel is the deflate level, 0 means default.
	CompressionLevel int `yaml:"compression_level,omitempty"`
	// BackupKeep is the number of backup generations kept next to the bundle.
	BackupKeep int `yaml:"backup_keep,omitempty"`
}

// extractConfig configures the extract command.
type extractConfig struct {
	MaxWorkers int      `yaml:"max_workers,omitempty"`
	Prefixes   []string `yaml:"prefixes,omitempty"`
}

// importConfig configures the import command.
type importConfig struct {
	MeasureImages bool `yaml:"measure_images"`
}

// defaultConfig returns the configuration used when no file is given.
func defaultConfig() *cliConfig {
	return &cliConfig{
		Save: saveConfig{
			DefaultStore: true,
		},
	}
}

// loadConfig loads path over the defaults. An empty path falls back to
// CPRES_CONFIG, and to the defaults alone when that is unset too.
func loadConfig(path string) (*cliConfig, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configEnv)
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// saveOptions converts the save section into library options.
func (c *cliConfig) saveOptions() cpres.SaveOptions {
	opts := cpres.SaveOptions{
		CompressionLevel: c.Save.CompressionLevel,
		BackupKeep:       c.Save.BackupKeep,
	}

	if c.Save.DefaultStore {
		opts.Store = cpres.DefaultStoreRules()
	}

	opts.Store = append(opts.Store, cpres.StoreRules(c.Save.Store...)...)
	return opts
}

// extractOptions converts the extract section into library options.
func (c *cliConfig) extractOptions() cpres.ExtractOptions {
	return cpres.ExtractOptions{
		MaxWorkers: c.Extract.MaxWorkers,
		Prefixes:   append([]string(nil), c.Extract.Prefixes...),
	}
}
