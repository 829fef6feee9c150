// Package config loads dbeditor.toml, the project-level configuration
// file, and resolves it together with per-environment .env overlays into
// a concrete connection string (see environment.go).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

const configFileName = "dbeditor.toml"

// EnvironmentConfig describes a single named environment from dbeditor.toml.
type EnvironmentConfig struct {
	DatabaseURL string `toml:"database_url"`
	OutputPath  string `toml:"output_path"`
}

// Config is the parsed contents of dbeditor.toml plus where it was found.
type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	DatabaseURL        string                       `toml:"database_url"`
	OutputPath         string                       `toml:"output_path"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`
	ConfigFilePath     string                       `toml:"-"`
}

// ConfigDir returns the directory dbeditor.toml was loaded from, used as
// the base for resolving relative paths (output files, .env overlays).
func (c *Config) ConfigDir() string {
	if c == nil || c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// PrintLoadConfigErrorDetails prints the row/column of a TOML decode error,
// for friendlier CLI diagnostics.
func PrintLoadConfigErrorDetails(err error, t *testing.T) {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		if t != nil {
			t.Log(derr.String())
			row, col := derr.Position()
			t.Logf("error occurred at row %d, column %d", row, col)
		} else {
			fmt.Println(derr.String())
			row, col := derr.Position()
			fmt.Printf("error occurred at row %d, column %d\n", row, col)
		}
	}
}

// LoadConfig walks up from the working directory looking for dbeditor.toml,
// stopping at the first project-root marker. It returns an empty Config,
// not an error, when no file is found anywhere below the root.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	config.ConfigFilePath = configPath
	return &config, nil
}

func findConfigPath() (string, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := startDir
	for {
		configPath := filepath.Join(dir, configFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// isProjectRoot reports whether dir looks like the top of a project, so
// the upward search for dbeditor.toml doesn't escape it.
func isProjectRoot(dir string) bool {
	for _, marker := range []string{".git", "go.mod", "package.json"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}
