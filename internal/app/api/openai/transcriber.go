package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"audio-whisper/internal/app/model"
)

const (
	defaultTitle   = "Audio Transcription"
	defaultSummary = "No summary available"
)

// Transcriber runs a two-step pipeline against the OpenAI API: whisper for
// the timed segments, then a chat completion that derives the title and
// summary from the raw text.
type Transcriber struct {
	client    *openai.Client
	model     string
	chatModel string
}

func NewTranscriber(client *openai.Client, whisperModel, chatModel string) *Transcriber {
	if whisperModel == "" {
		whisperModel = openai.Whisper1
	}
	if chatModel == "" {
		chatModel = openai.GPT3Dot5Turbo
	}
	return &Transcriber{client: client, model: whisperModel, chatModel: chatModel}
}

func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (*model.Transcript, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("createTranscription failed: %w", err)
	}

	segments := make([]model.SpeechSegment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		content := strings.TrimSpace(seg.Text)
		if content == "" {
			continue
		}
		segments = append(segments, model.SpeechSegment{
			Content:   content,
			StartTime: model.FormatSeconds(seg.Start),
			EndTime:   model.FormatSeconds(seg.End),
			Speaker:   "spk_0", // whisper does not diarize
		})
	}
	if len(segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		segments = append(segments, model.SpeechSegment{
			Content:   strings.TrimSpace(resp.Text),
			StartTime: model.FormatSeconds(0),
			EndTime:   model.FormatSeconds(resp.Duration),
			Speaker:   "spk_0",
		})
	}

	title, summary := t.titleAndSummary(ctx, resp.Text)
	return &model.Transcript{
		Title:          title,
		SpeechSegments: segments,
		Summary:        summary,
	}, nil
}

const titleSummaryPrompt = `Given the transcript below, respond with a JSON object {"title": "...", "summary": "..."} where title is a short descriptive title and summary is a few sentences. No markdown.

Transcript:
%s`

// titleAndSummary asks the chat model to name and summarize the transcript.
// Failures fall back to placeholders so a finished transcription is never
// lost to a summarization hiccup.
func (t *Transcriber) titleAndSummary(ctx context.Context, text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return defaultTitle, defaultSummary
	}

	request := openai.ChatCompletionRequest{
		Model: t.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(titleSummaryPrompt, text),
			},
		},
	}
	resp, err := t.client.CreateChatCompletion(ctx, request)
	if err != nil || len(resp.Choices) == 0 {
		return defaultTitle, defaultSummary
	}
	return parseTitleSummary(resp.Choices[0].Message.Content)
}

func parseTitleSummary(raw string) (string, string) {
	s := strings.TrimSpace(raw)
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	var payload struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return defaultTitle, defaultSummary
	}
	if payload.Title == "" {
		payload.Title = defaultTitle
	}
	if payload.Summary == "" {
		payload.Summary = defaultSummary
	}
	return payload.Title, payload.Summary
}
