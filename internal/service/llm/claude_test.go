package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClaudeRequiresAPIKey(t *testing.T) {
	_, err := NewClaude(Config{})
	assert.Error(t, err)
}

func TestNewClaudeDefaults(t *testing.T) {
	c, err := NewClaude(Config{APIKey: "test-key"})
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4-20250514", c.model)
	assert.Equal(t, 1200, c.maxTokens)
	assert.InDelta(t, 0.3, c.temperature, 1e-9)
	assert.Equal(t, 30*time.Second, c.timeout)
}

func TestNewClaudeKeepsExplicitSettings(t *testing.T) {
	c, err := NewClaude(Config{
		APIKey:      "test-key",
		Model:       "claude-3-5-haiku-latest",
		MaxTokens:   800,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-haiku-latest", c.model)
	assert.Equal(t, 800, c.maxTokens)
	assert.InDelta(t, 0.7, c.temperature, 1e-9)
	assert.Equal(t, 5*time.Second, c.timeout)
}
