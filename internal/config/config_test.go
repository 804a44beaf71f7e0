package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 300*time.Millisecond, cfg.Export.Delay)
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := writeFile(t, dir, "datasetgen.yaml", `
server:
  addr: ":9000"
  read_timeout: 5s
gemini:
  generation_model: imagen-from-file
  max_wait: 30s
export:
  dir: out
log:
  level: debug
`)
	writeFile(t, dir, ".env", "DATASETGEN_EXPORT_DIR=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("DATASETGEN_EXPORT_DIR") })

	t.Setenv("DATASETGEN_SERVER_ADDR", ":7000")
	t.Setenv("DATASETGEN_GEMINI_API_KEY", "secret")
	t.Setenv("DATASETGEN_LOG_FORMAT", "console")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr, "environment beats file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout, "file beats defaults")
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout, "defaults kept")
	assert.Equal(t, "imagen-from-file", cfg.Gemini.GenerationModel)
	assert.Equal(t, 30*time.Second, cfg.Gemini.MaxWait)
	assert.Equal(t, "secret", cfg.Gemini.APIKey)
	assert.Equal(t, "from-dotenv", cfg.Export.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "from-gemini")
	t.Setenv("API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-gemini", cfg.Gemini.APIKey)

	t.Setenv("API_KEY", "from-api-key")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-api-key", cfg.Gemini.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	bad := writeFile(t, dir, "bad.yaml", "server: [")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parsing config file")

	t.Setenv("DATASETGEN_EXPORT_DELAY", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "processing environment")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"negative timeout", func(c *Config) { c.Server.WriteTimeout = -1 }, "timeouts"},
		{"negative max wait", func(c *Config) { c.Gemini.MaxWait = -time.Second }, "max_wait"},
		{"negative delay", func(c *Config) { c.Export.Delay = -time.Second }, "export.delay"},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
