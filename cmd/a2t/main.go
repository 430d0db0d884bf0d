package main

import (
	"fmt"
	"os"

	"audio-whisper/cmd/a2t/cmd"
	"audio-whisper/internal/config"
)

// @title Audio Whisper API
// @version 1.0
// @description Durable transcription job queue. Enqueue audio files, poll job state and fetch transcripts.

// @BasePath /api/v1

func main() {
	// Initialize configuration (non-blocking - only warns about missing keys)
	apiKeys, err := config.InitializeConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Configuration Warning: %v\n", err)
		fmt.Fprintf(os.Stderr, "💡 Set OPENAI_API_KEY or GEMINI_API_KEY in environment or .env to enable transcription\n")
		// Continue execution - don't exit
	} else {
		// Re-export the loaded keys so every component reads the same values
		if apiKeys.OpenAI != "" {
			os.Setenv("OPENAI_API_KEY", apiKeys.OpenAI)
		}
		if apiKeys.Gemini != "" {
			os.Setenv("GEMINI_API_KEY", apiKeys.Gemini)
		}
	}

	// Execute the CLI command
	cmd.Execute()
}
