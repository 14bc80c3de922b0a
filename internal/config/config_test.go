package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PEEKGUARD_DATA_DIR", "/tmp/pg")
	t.Setenv("PEEKGUARD_ADDR", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CAMERA_URL", "")
	t.Setenv("CAMERA_DIR", "")
	t.Setenv("HISTORY_DB", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.DetectTimeout)
	assert.Equal(t, "/tmp/pg/history.db", cfg.HistoryDB)
	assert.False(t, cfg.Simulate)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PEEKGUARD_DATA_DIR", "/tmp/pg")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DETECT_TIMEOUT", "500ms")
	t.Setenv("CAMERA_URL", "http://10.0.0.5:8080/shot.jpg")
	t.Setenv("CAMERA_DIR", "")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("PEEKGUARD_SIMULATE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.DetectTimeout)
	assert.Equal(t, "http://10.0.0.5:8080/shot.jpg", cfg.CameraURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.Simulate)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Addr:          ":8090",
		LogLevel:      "info",
		ModelPath:     "model.onnx",
		DetectTimeout: time.Second,
		DataDir:       "/tmp",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"no addr", func(c *Config) { c.Addr = "" }},
		{"zero timeout", func(c *Config) { c.DetectTimeout = 0 }},
		{"bad url", func(c *Config) { c.CameraURL = "not a url" }},
		{"both sources", func(c *Config) {
			c.CameraURL = "http://cam/shot.jpg"
			c.CameraDir = "/frames"
		}},
		{"bad redis addr", func(c *Config) { c.RedisAddr = "localhost" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("PG_INT", "x")
	t.Setenv("PG_BOOL", "1")
	t.Setenv("PG_DUR", "3s")

	assert.Equal(t, 7, GetEnvInt("PG_INT", 7))
	assert.True(t, GetEnvBool("PG_BOOL", false))
	assert.Equal(t, 3*time.Second, GetEnvDuration("PG_DUR", 0))
	assert.Equal(t, "fb", GetEnv("PG_UNSET_VAR", "fb"))
}
