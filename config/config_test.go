package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SPEAKSURE_API_URL", "SPEAKSURE_DEVICE", "SPEAKSURE_SAMPLE_RATE", "SPEAKSURE_VIDEO", "SPEAKSURE_FPS"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.API.BaseURL)
	assert.EqualValues(t, 16000, cfg.Audio.SampleRate)
	assert.Len(t, cfg.Questions, 5)
	assert.Equal(t, 60, cfg.Visualize.FPS)
}

func TestLoadYAML(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://analysis.example.com
audio:
  device: USB Mic
  video: true
questions:
  - First?
  - Second?
  - Third?
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://analysis.example.com", cfg.API.BaseURL)
	assert.Equal(t, "USB Mic", cfg.Audio.Device)
	assert.True(t, cfg.Audio.Video)
	assert.Equal(t, []string{"First?", "Second?", "Third?"}, cfg.Questions)
	// Unset keys keep their defaults.
	assert.EqualValues(t, 16000, cfg.Audio.SampleRate)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	_, err := Load("nope.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("SPEAKSURE_API_URL", "http://localhost:9000")
	t.Setenv("SPEAKSURE_DEVICE", "Headset")
	t.Setenv("SPEAKSURE_SAMPLE_RATE", "44100")
	t.Setenv("SPEAKSURE_VIDEO", "true")
	t.Setenv("SPEAKSURE_FPS", "30")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	assert.Equal(t, "Headset", cfg.Audio.Device)
	assert.EqualValues(t, 44100, cfg.Audio.SampleRate)
	assert.True(t, cfg.Audio.Video)
	assert.Equal(t, 30, cfg.Visualize.FPS)
}

func TestEnvBadValue(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("SPEAKSURE_FPS", "fast")
	_, err := Load("")
	assert.ErrorContains(t, err, "SPEAKSURE_FPS")
}

func TestDotEnvDoesNotOverride(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SPEAKSURE_DEVICE=FromDotEnv\nSPEAKSURE_API_URL=http://dotenv:1\n"), 0644))
	t.Setenv("SPEAKSURE_API_URL", "http://real-env:2")
	t.Setenv("SPEAKSURE_DEVICE", "")
	os.Unsetenv("SPEAKSURE_DEVICE")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://real-env:2", cfg.API.BaseURL)
	assert.Equal(t, "FromDotEnv", cfg.Audio.Device)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.API.BaseURL = "not a url" }, "BaseURL"},
		{"empty url", func(c *Config) { c.API.BaseURL = "" }, "BaseURL"},
		{"low rate", func(c *Config) { c.Audio.SampleRate = 4000 }, "SampleRate"},
		{"stereo", func(c *Config) { c.Audio.Channels = 2 }, "Channels"},
		{"fps", func(c *Config) { c.Visualize.FPS = 0 }, "FPS"},
		{"no questions", func(c *Config) { c.Questions = nil }, "Questions"},
		{"blank question", func(c *Config) { c.Questions = []string{"ok", ""} }, "Questions[1]"},
		{"no types", func(c *Config) { c.Audio.PreferredTypes = nil }, "PreferredTypes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
	assert.NoError(t, Default().Validate())
}
