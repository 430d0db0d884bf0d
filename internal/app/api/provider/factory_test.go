package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-whisper/internal/app/errors"
)

func TestNewFactory(t *testing.T) {
	cfg := Config{
		GeminiAPIKey: "AIzaSyTest0123456789abcdefghijklmn",
		OpenAIAPIKey: "sk-test-0123456789abcdef",
	}
	factory := NewFactory(cfg)

	t.Run("gemini", func(t *testing.T) {
		tr, err := factory(Gemini)
		require.NoError(t, err)
		assert.NotNil(t, tr)
	})

	t.Run("openai", func(t *testing.T) {
		tr, err := factory(OpenAI)
		require.NoError(t, err)
		assert.NotNil(t, tr)
	})

	t.Run("unknown provider", func(t *testing.T) {
		tr, err := factory("elevenlabs")
		assert.Nil(t, tr)
		assert.ErrorIs(t, err, errors.ErrProviderNotFound)
	})
}

func TestNewFactoryMissingKeys(t *testing.T) {
	factory := NewFactory(Config{})

	for _, name := range Known() {
		t.Run(name, func(t *testing.T) {
			tr, err := factory(name)
			assert.Nil(t, tr)
			assert.ErrorIs(t, err, errors.ErrMissingAPIKey)
		})
	}
}

func TestNewFactoryRejectsMalformedKeys(t *testing.T) {
	factory := NewFactory(Config{
		GeminiAPIKey: "AIza-short",
		OpenAIAPIKey: "not-an-openai-key-12345",
	})

	t.Run("gemini key too short", func(t *testing.T) {
		tr, err := factory(Gemini)
		assert.Nil(t, tr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid Gemini API key format")
	})

	t.Run("openai key bad prefix", func(t *testing.T) {
		tr, err := factory(OpenAI)
		assert.Nil(t, tr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid OpenAI API key format")
	})
}
