package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultEnvironmentName = "local"
	defaultDatabaseURL     = "postgres://localhost:5432/postgres?sslmode=disable"
)

// ResolvedEnvironment is a fully-resolved environment: a concrete
// connection string and output path, with provenance recorded so
// diagnostics can explain where a value came from.
type ResolvedEnvironment struct {
	Name              string
	DatabaseURL       string
	OutputPath        string
	DotenvPath        string
	FromConfig        bool
	FromDotenv        bool
	ResolvedConfigDir string
}

// ResolveEnvironment resolves a named environment (empty selects the
// config's default, or "local") into a concrete DatabaseURL, applying
// overlays in precedence order: dbeditor.toml < .env.<name> overlay.
// Defaults fill in anything still unset. Resolving a name that exists
// in neither the config nor as a dotenv overlay is an error once the
// config defines at least one environment.
func ResolveEnvironment(cfg *Config, name string) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if cfg != nil && cfg.DefaultEnvironment != "" {
			envName = cfg.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	var (
		envConfig EnvironmentConfig
		envExists bool
	)
	if cfg != nil && cfg.Environments != nil {
		if e, ok := cfg.Environments[envName]; ok {
			envConfig = e
			envExists = true
		}
	}

	resolved := &ResolvedEnvironment{Name: envName}

	if cfg != nil {
		resolved.ResolvedConfigDir = cfg.ConfigDir()
		if envConfig.DatabaseURL == "" {
			envConfig.DatabaseURL = cfg.DatabaseURL
		}
		if envConfig.OutputPath == "" {
			envConfig.OutputPath = cfg.OutputPath
		}
	}

	resolved.DatabaseURL = envConfig.DatabaseURL
	resolved.OutputPath = envConfig.OutputPath
	if envExists {
		resolved.FromConfig = true
	}

	baseDir := resolved.ResolvedConfigDir
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}
	dotenvFileName := ".env." + envName
	resolved.DotenvPath = filepath.Join(baseDir, dotenvFileName)

	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true
		if v := values["DATABASE_URL"]; v != "" {
			resolved.DatabaseURL = v
		}
		if v := values["OUTPUT_PATH"]; v != "" && resolved.OutputPath == "" {
			resolved.OutputPath = v
		}
	} else if !os.IsNotExist(err) && err != nil {
		return nil, fmt.Errorf("access %s: %w", resolved.DotenvPath, err)
	}

	if resolved.DatabaseURL == "" {
		resolved.DatabaseURL = defaultDatabaseURL
	}

	if cfg != nil && len(cfg.Environments) > 0 && !envExists && !resolved.FromDotenv {
		return nil, fmt.Errorf("environment %q not defined in dbeditor.toml and %s not found", envName, resolved.DotenvPath)
	}

	return resolved, nil
}
