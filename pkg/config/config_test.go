package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcptap/mcptap/pkg/capture"
	"github.com/mcptap/mcptap/pkg/replay"
)

func validConfig() *Config {
	return &Config{
		Mode: capture.ModeRecord,
		Servers: []ServerConfig{
			{Name: "calc", URL: "http://localhost:9001", Tools: []string{"calculator"}},
		},
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultSessionDir, cfg.Storage.Dir)
	assert.Equal(t, replay.DefaultThreshold, cfg.Replay.Threshold)
	assert.Equal(t, replay.MissError, cfg.Replay.OnCacheMiss)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "observe"
	assert.Error(t, cfg.Validate())
}

func TestValidateRecordNeedsServers(t *testing.T) {
	cfg := &Config{Mode: capture.ModeRecord}
	assert.Error(t, cfg.Validate())

	// Replay mode can run without servers.
	cfg = &Config{Mode: capture.ModeReplay}
	assert.NoError(t, cfg.Validate())
}

func TestValidateServerChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Servers = append(cfg.Servers, ServerConfig{Name: "calc", URL: "http://localhost:9002"})
	assert.Error(t, cfg.Validate(), "duplicate name")

	cfg = validConfig()
	cfg.Servers[0].URL = "not-a-url"
	assert.Error(t, cfg.Validate(), "bad url")

	cfg = validConfig()
	cfg.Servers[0].Name = ""
	assert.Error(t, cfg.Validate(), "missing name")
}

func TestValidateSingleWildcard(t *testing.T) {
	cfg := validConfig()
	cfg.Servers = []ServerConfig{
		{Name: "a", URL: "http://localhost:9001", Tools: []string{"*"}},
		{Name: "b", URL: "http://localhost:9002", Tools: []string{"*"}},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateReplaySettings(t *testing.T) {
	cfg := validConfig()
	cfg.Replay.Threshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Replay.OnCacheMiss = "explode"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Replay.OnCacheMiss = replay.MissMock
	assert.Error(t, cfg.Validate(), "mock policy without payload")

	cfg.Replay.MockResponse = RawJSON(`{"stub":true}`)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcptap.yaml")
	body := `
mode: replay
listen: ":9999"
servers:
  - name: calc
    url: http://localhost:9001
    tools: ["calculator", "converter"]
replay:
  threshold: 0.9
  onCacheMiss: mock
  mockResponse:
    stub: true
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, capture.ModeReplay, cfg.Mode)
	assert.Equal(t, ":9999", cfg.Listen)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, []string{"calculator", "converter"}, cfg.Servers[0].Tools)
	assert.Equal(t, 0.9, cfg.Replay.Threshold)
	assert.Equal(t, replay.MissMock, cfg.Replay.OnCacheMiss)
	assert.JSONEq(t, `{"stub":true}`, string(cfg.Replay.MockResponse))
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcptap.json")
	body := `{"mode":"record","servers":[{"name":"calc","url":"http://localhost:9001","tools":["*"]}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, capture.ModeRecord, cfg.Mode)
	assert.Equal(t, []string{"*"}, cfg.Servers[0].Tools)
}

func TestLoadMissingAndEmpty(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, err = LoadFromFile(path)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	require.NoError(t, SaveToFile(path, cfg))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Mode, loaded.Mode)
	assert.Equal(t, cfg.Servers, loaded.Servers)
}
