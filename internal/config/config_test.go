package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const exampleConfig = `[environments.local]
database_url = "postgres://local"`

func changeToDir(t *testing.T, dir string) func() {
	t.Helper()

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))

	return func() {
		if _, err := os.Stat(originalDir); err == nil {
			_ = os.Chdir(originalDir)
		}
	}
}

func TestLoadConfigInCurrentDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, configFileName)
	require.NoError(t, os.WriteFile(configPath, []byte(exampleConfig), 0o600))

	defer changeToDir(t, tempDir)()

	config, err := LoadConfig()
	require.NoError(t, err)

	local, ok := config.Environments["local"]
	require.True(t, ok)
	require.Equal(t, "postgres://local", local.DatabaseURL)

	resolvedExpected, err := filepath.EvalSymlinks(configPath)
	require.NoError(t, err)
	resolvedActual, err := filepath.EvalSymlinks(config.ConfigFilePath)
	require.NoError(t, err)
	require.Equal(t, resolvedExpected, resolvedActual)
}

func TestLoadConfigInParentDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, configFileName)
	require.NoError(t, os.WriteFile(configPath, []byte(exampleConfig), 0o600))

	subDir := filepath.Join(tempDir, "subdir", "nested")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	defer changeToDir(t, subDir)()

	config, err := LoadConfig()
	require.NoError(t, err)

	local, ok := config.Environments["local"]
	require.True(t, ok)
	require.Equal(t, "postgres://local", local.DatabaseURL)
}

func TestLoadConfigNoFileReturnsEmpty(t *testing.T) {
	tempDir := t.TempDir()
	defer changeToDir(t, tempDir)()

	config, err := LoadConfig()
	require.NoError(t, err)
	require.Nil(t, config.Environments)
	require.Empty(t, config.ConfigFilePath)
}

func TestLoadConfigStopsAtGitRoot(t *testing.T) {
	tempDir := t.TempDir()
	parentConfig := `[environments.local]
database_url = "postgres://parent"`
	gitProjectConfig := `[environments.local]
database_url = "postgres://git-project"`

	parentDir := filepath.Join(tempDir, "parent")
	require.NoError(t, os.MkdirAll(parentDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parentDir, configFileName), []byte(parentConfig), 0o600))

	gitProjectDir := filepath.Join(parentDir, "git-project")
	require.NoError(t, os.MkdirAll(filepath.Join(gitProjectDir, ".git"), 0o755))
	gitConfigPath := filepath.Join(gitProjectDir, configFileName)
	require.NoError(t, os.WriteFile(gitConfigPath, []byte(gitProjectConfig), 0o600))

	subDir := filepath.Join(gitProjectDir, "src", "components")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	defer changeToDir(t, subDir)()

	config, err := LoadConfig()
	require.NoError(t, err)

	local, ok := config.Environments["local"]
	require.True(t, ok)
	require.Equal(t, "postgres://git-project", local.DatabaseURL)
}

func TestLoadConfigStopsAtGoModRoot(t *testing.T) {
	tempDir := t.TempDir()

	parentDir := filepath.Join(tempDir, "parent")
	require.NoError(t, os.MkdirAll(parentDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parentDir, configFileName), []byte(`default_environment = "parent"`), 0o600))

	goModDir := filepath.Join(parentDir, "go-module")
	require.NoError(t, os.MkdirAll(goModDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(goModDir, "go.mod"), []byte("module test\n"), 0o600))

	subDir := filepath.Join(goModDir, "internal", "config")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	defer changeToDir(t, subDir)()

	config, err := LoadConfig()
	require.NoError(t, err)
	require.Nil(t, config.Environments)
	require.Empty(t, config.ConfigFilePath)
}

func TestLoadConfigStopsAtPackageJsonRoot(t *testing.T) {
	tempDir := t.TempDir()

	nodeProjectDir := filepath.Join(tempDir, "node-project")
	require.NoError(t, os.MkdirAll(nodeProjectDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nodeProjectDir, "package.json"), []byte(`{"name": "test"}`), 0o600))

	subDir := filepath.Join(nodeProjectDir, "src")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	defer changeToDir(t, subDir)()

	config, err := LoadConfig()
	require.NoError(t, err)
	require.Nil(t, config.Environments)
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, configFileName)
	require.NoError(t, os.WriteFile(configPath, []byte(`test = "test" invalid syntax`), 0o600))

	defer changeToDir(t, tempDir)()

	_, err := LoadConfig()
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "parse"))
}

func TestLoadConfigEmptyFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, configFileName)
	require.NoError(t, os.WriteFile(configPath, []byte(""), 0o600))

	defer changeToDir(t, tempDir)()

	config, err := LoadConfig()
	require.NoError(t, err)
	require.Nil(t, config.Environments)
}

func TestIsProjectRootGit(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, ".git"), 0o755))
	require.True(t, isProjectRoot(tempDir))
}

func TestIsProjectRootGoMod(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte("module test\n"), 0o600))
	require.True(t, isProjectRoot(tempDir))
}

func TestIsProjectRootPackageJson(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "package.json"), []byte(`{"name": "test"}`), 0o600))
	require.True(t, isProjectRoot(tempDir))
}

func TestIsProjectRootNoMarkers(t *testing.T) {
	t.Parallel()
	require.False(t, isProjectRoot(t.TempDir()))
}
