package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-whisper/internal/app/errors"
)

func TestGetProcessor(t *testing.T) {
	t.Run("gemini model", func(t *testing.T) {
		p, err := GetProcessor("gemini-2.5-flash", "AIza-key", "")
		require.NoError(t, err)
		assert.IsType(t, &GeminiProcessor{}, p)
	})

	t.Run("gpt model", func(t *testing.T) {
		p, err := GetProcessor("gpt-4o", "", "sk-key")
		require.NoError(t, err)
		assert.IsType(t, &GPTProcessor{}, p)
	})

	t.Run("o1 model routes to openai", func(t *testing.T) {
		p, err := GetProcessor("o1-mini", "", "sk-key")
		require.NoError(t, err)
		assert.IsType(t, &GPTProcessor{}, p)
	})

	t.Run("missing gemini key", func(t *testing.T) {
		_, err := GetProcessor("gemini-2.5-flash", "", "sk-key")
		assert.ErrorIs(t, err, errors.ErrMissingAPIKey)
	})

	t.Run("missing openai key", func(t *testing.T) {
		_, err := GetProcessor("gpt-4o", "AIza-key", "")
		assert.ErrorIs(t, err, errors.ErrMissingAPIKey)
	})

	t.Run("unsupported model", func(t *testing.T) {
		_, err := GetProcessor("llama-3", "AIza-key", "sk-key")
		assert.Error(t, err)
	})
}

func TestJoinPrompt(t *testing.T) {
	got := joinPrompt("Fix this:", "teh text")
	assert.Equal(t, "Fix this:\n\nteh text", got)
}
