package provider

import (
	"audio-whisper/internal/app/api"
	geminiapi "audio-whisper/internal/app/api/gemini"
	openaiapi "audio-whisper/internal/app/api/openai"
	"audio-whisper/internal/app/errors"
	"audio-whisper/internal/config"
)

// Provider names accepted by the factory and by job records.
const (
	Gemini = "gemini"
	OpenAI = "openai"
)

// Known lists the providers this build can construct.
func Known() []string {
	return []string{Gemini, OpenAI}
}

// Config carries the credentials and model overrides for every provider.
// Empty model fields fall back to each provider's default.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIChatModel string
}

// NewFactory returns a constructor keyed by provider name. Construction is
// cheap; clients dial lazily, so building one per job is fine.
func NewFactory(cfg Config) func(name string) (api.Transcriber, error) {
	return func(name string) (api.Transcriber, error) {
		switch name {
		case Gemini:
			if cfg.GeminiAPIKey == "" {
				return nil, errors.Wrap(errors.ErrMissingAPIKey, "GEMINI_API_KEY is not set")
			}
			if err := config.ValidateAPIKey(cfg.GeminiAPIKey, "Gemini"); err != nil {
				return nil, err
			}
			return geminiapi.NewTranscriber(cfg.GeminiAPIKey, cfg.GeminiModel), nil
		case OpenAI:
			if cfg.OpenAIAPIKey == "" {
				return nil, errors.Wrap(errors.ErrMissingAPIKey, "OPENAI_API_KEY is not set")
			}
			if err := config.ValidateAPIKey(cfg.OpenAIAPIKey, "OpenAI"); err != nil {
				return nil, err
			}
			client := openaiapi.GetClient(cfg.OpenAIAPIKey)
			return openaiapi.NewTranscriber(client, cfg.OpenAIModel, cfg.OpenAIChatModel), nil
		default:
			return nil, errors.Wrapf(errors.ErrProviderNotFound, "%q", name)
		}
	}
}
