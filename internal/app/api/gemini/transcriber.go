package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"google.golang.org/genai"

	apperrors "audio-whisper/internal/app/errors"
	"audio-whisper/internal/app/model"
)

const DefaultModel = "gemini-2.5-flash"

// mimeTypes maps supported audio extensions to the MIME type the Gemini
// API expects for inline audio data.
var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
}

const transcriptionPrompt = `Transcribe this audio recording. Respond with a single JSON object, no markdown, in exactly this shape:
{
  "title": "short descriptive title",
  "speech_segments": [
    {"content": "what was said", "start_time": "0.000s", "end_time": "4.250s", "speaker": "spk_0"}
  ],
  "summary": "a few sentences summarizing the recording"
}
Label distinct speakers spk_0, spk_1 and so on, keep the segments in chronological order, and render start_time and end_time as seconds with an "s" suffix.`

// Transcriber sends the whole audio file inline to the Gemini API and
// parses the structured JSON transcript out of the response.
type Transcriber struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func NewTranscriber(apiKey, modelName string) *Transcriber {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Transcriber{apiKey: apiKey, model: modelName}
}

func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (*model.Transcript, error) {
	mime, ok := mimeTypes[strings.ToLower(filepath.Ext(audioPath))]
	if !ok {
		return nil, apperrors.Newf("unsupported audio format %q", filepath.Ext(audioPath))
	}
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, apperrors.Wrapf(err, "read audio file %s", filepath.Base(audioPath))
	}

	client, err := t.clientFor(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "create gemini client")
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: transcriptionPrompt},
			{InlineData: &genai.Blob{MIMEType: mime, Data: data}},
		},
	}}
	resp, err := client.Models.GenerateContent(ctx, t.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, "gemini generate content (%s)", t.model)
	}

	text := responseText(resp)
	if text == "" {
		return nil, apperrors.New("empty response from gemini")
	}
	return parseTranscript(text)
}

func (t *Transcriber) clientFor(ctx context.Context) (*genai.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}
	if t.apiKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  t.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	t.client = client
	return client, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// parseTranscript decodes the model output into a Transcript, tolerating
// markdown fences and stray control characters around the JSON object.
func parseTranscript(text string) (*model.Transcript, error) {
	payload, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var transcript model.Transcript
	if err := json.Unmarshal(payload, &transcript); err != nil {
		return nil, apperrors.Wrap(err, "decode transcript JSON")
	}
	for i := range transcript.SpeechSegments {
		if transcript.SpeechSegments[i].Speaker == "" {
			transcript.SpeechSegments[i].Speaker = "spk_0"
		}
	}
	if transcript.Title == "" {
		transcript.Title = "Audio Transcription"
	}
	return &transcript, nil
}

func extractJSON(text string) ([]byte, error) {
	s := strings.TrimSpace(text)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	s = s[start : end+1]
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return []byte(cleaned), nil
}
