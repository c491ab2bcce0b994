package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"api_base_url": "https://analysis.example.com/api",
		"timeout": "45s",
		"jd_cache_ttl": 120,
		"default_role": "Data Scientist",
		"max_upload_bytes": 2048,
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://analysis.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 45*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 2*time.Minute, cfg.JDCacheTTL.Std())
	assert.Equal(t, "Data Scientist", cfg.DefaultRole)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"timeout": "soon"}`), 0644))

	_, err := LoadConfig(tmpFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate_Defaults(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_BadURL(t *testing.T) {
	cfg := Defaults()
	cfg.APIBaseURL = "not a url"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'api_base_url' failed url")
}

func TestValidate_NegativeValues(t *testing.T) {
	cfg := Defaults()
	cfg.Timeout = Duration(-time.Second)
	cfg.MaxUploadBytes = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "max_upload_bytes")
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		APIBaseURL: "https://custom.example.com/api",
		Verbose:    true,
	}

	merged := partial.MergeWithDefaults(Defaults())

	assert.Equal(t, "https://custom.example.com/api", merged.APIBaseURL)
	assert.True(t, merged.Verbose)

	assert.Equal(t, "Software Engineer", merged.DefaultRole)
	assert.Equal(t, int64(10<<20), merged.MaxUploadBytes)
	assert.Equal(t, 10*time.Minute, merged.JDCacheTTL.Std())
	assert.Equal(t, "warn", merged.LogLevel)
	assert.Zero(t, merged.Timeout)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{DefaultRole: "Test"}
	merged := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, "Test", merged.DefaultRole)
	assert.Empty(t, merged.APIBaseURL)
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		EnvAPIBaseURL: "http://10.0.0.5:5000/api",
		EnvTimeout:    "2m",
		EnvLogFile:    "/tmp/resumeflow.log",
		EnvLogLevel:   "DEBUG",
		EnvJDCacheTTL: "0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:5000/api", cfg.APIBaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Timeout.Std())
	assert.Equal(t, "/tmp/resumeflow.log", cfg.LogFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DisableJDCache)
	assert.Zero(t, cfg.CacheTTL())
}

func TestApplyEnv_InvalidDuration(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(mapLookup(map[string]string{EnvTimeout: "later"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvTimeout)
}

func TestLoad_FileThenEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"default_role": "Data Scientist", "timeout": "10s"}`), 0644))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("RESUMEFLOW_TIMEOUT=20s\n"), 0644))

	cfg, err := Load(cfgPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, "Data Scientist", cfg.DefaultRole)
	assert.Equal(t, 20*time.Second, cfg.Timeout.Std())
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read env file")
}
