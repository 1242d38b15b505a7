// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	API     APIConfig     `toml:"api"`
	Export  ExportConfig  `toml:"export"`
	History HistoryConfig `toml:"history"`
	Charts  ChartsConfig  `toml:"charts"`
	Log     LogConfig     `toml:"log"`
	Serve   ServeConfig   `toml:"serve"`
}

// APIConfig maps the remote statistics service settings.
type APIConfig struct {
	Endpoint *string `toml:"endpoint"`
	Timeout  *string `toml:"timeout"`
}

// ExportConfig maps document export settings.
type ExportConfig struct {
	Dir *string `toml:"dir"`
}

// HistoryConfig maps history settings.
type HistoryConfig struct {
	Persist *bool   `toml:"persist"`
	DBPath  *string `toml:"db-path"`
}

// ChartsConfig maps chart defaults.
type ChartsConfig struct {
	Default *string `toml:"default"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
	File   *string `toml:"file"`
}

// ServeConfig maps the local reference API settings.
type ServeConfig struct {
	Addr *string `toml:"addr"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
