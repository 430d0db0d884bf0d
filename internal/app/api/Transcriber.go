package api

import (
	"context"

	"audio-whisper/internal/app/model"
)

// Transcriber converts one audio file into a structured transcript with a
// title, diarized speech segments and a summary.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*model.Transcript, error)
}
