package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveEnvironmentDefaults(t *testing.T) {
	t.Parallel()

	env, err := ResolveEnvironment(&Config{}, "")
	require.NoError(t, err)
	require.Equal(t, defaultEnvironmentName, env.Name)
	require.Equal(t, defaultDatabaseURL, env.DatabaseURL)
}

func TestResolveEnvironmentFromDotenv(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	dotenvPath := filepath.Join(tempDir, ".env.staging")
	require.NoError(t, os.WriteFile(dotenvPath, []byte("DATABASE_URL=postgres://staging\nOUTPUT_PATH=dump.staging.json\n"), 0o600))

	config := &Config{
		DefaultEnvironment: "staging",
		ConfigFilePath:     filepath.Join(tempDir, configFileName),
		Environments: map[string]EnvironmentConfig{
			"staging": {},
		},
	}

	env, err := ResolveEnvironment(config, "staging")
	require.NoError(t, err)
	require.Equal(t, "postgres://staging", env.DatabaseURL)
	require.Equal(t, "dump.staging.json", env.OutputPath)
	require.True(t, env.FromDotenv)
	require.True(t, env.FromConfig)
}

func TestResolveEnvironmentMissingDefinition(t *testing.T) {
	t.Parallel()

	config := &Config{
		Environments: map[string]EnvironmentConfig{
			"local": {DatabaseURL: "postgres://local"},
		},
		ConfigFilePath: filepath.Join(t.TempDir(), configFileName),
	}

	_, err := ResolveEnvironment(config, "production")
	require.Error(t, err)
}

func TestResolveEnvironmentConfigValuesUsedWhenNoDotenv(t *testing.T) {
	t.Parallel()

	config := &Config{
		DefaultEnvironment: "local",
		ConfigFilePath:     filepath.Join(t.TempDir(), configFileName),
		Environments: map[string]EnvironmentConfig{
			"local": {DatabaseURL: "postgres://from-config"},
		},
	}

	env, err := ResolveEnvironment(config, "local")
	require.NoError(t, err)
	require.Equal(t, "postgres://from-config", env.DatabaseURL)
	require.False(t, env.FromDotenv)
	require.True(t, env.FromConfig)
}

func TestResolveEnvironmentDotenvOverridesConfig(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".env.local"), []byte("DATABASE_URL=postgres://overridden\n"), 0o600))

	config := &Config{
		DefaultEnvironment: "local",
		ConfigFilePath:     filepath.Join(tempDir, configFileName),
		Environments: map[string]EnvironmentConfig{
			"local": {DatabaseURL: "postgres://from-config"},
		},
	}

	env, err := ResolveEnvironment(config, "local")
	require.NoError(t, err)
	require.Equal(t, "postgres://overridden", env.DatabaseURL)
}

func TestResolveEnvironmentTopLevelDatabaseURLFallback(t *testing.T) {
	t.Parallel()

	config := &Config{
		DatabaseURL:    "postgres://top-level",
		ConfigFilePath: filepath.Join(t.TempDir(), configFileName),
	}

	env, err := ResolveEnvironment(config, "local")
	require.NoError(t, err)
	require.Equal(t, "postgres://top-level", env.DatabaseURL)
}
