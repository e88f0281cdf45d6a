package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "embeddinggemma", cfg.Model)
	assert.Equal(t, "none", cfg.Token)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("https://api.openai.com"),
		WithModel("text-embedding-3-small"),
		WithToken("sk-test"),
	)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.openai.com/v1", cfg.Host)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, "sk-test", cfg.Token)
}

func TestConfigNormalize(t *testing.T) {
	t.Run("adds /v1 suffix", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:9100", Model: "m"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:9100/v1", cfg.Host)
	})

	t.Run("strips trailing slash before adding suffix", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:9100/", Model: "m"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:9100/v1", cfg.Host)
	})

	t.Run("leaves existing /v1 alone", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:9100/v1", Model: "m"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:9100/v1", cfg.Host)
	})

	t.Run("fills empty token", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:9100", Model: "m"}
		cfg.Normalize()
		assert.Equal(t, "none", cfg.Token)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("missing host", func(t *testing.T) {
		cfg := &Config{Model: "m"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434"}
		assert.Error(t, cfg.Validate())
	})
}
