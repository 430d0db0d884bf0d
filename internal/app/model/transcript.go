package model

import (
	"fmt"
	"strings"
)

// SpeechSegment is one diarized span of a transcript. Times are rendered
// as strings like "12.480s" to match the result file layout.
type SpeechSegment struct {
	Content   string `json:"content"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Speaker   string `json:"speaker"`
}

// Transcript is the structured transcription result persisted as
// transcription.json inside the job directory.
type Transcript struct {
	Title          string          `json:"title"`
	SpeechSegments []SpeechSegment `json:"speech_segments"`
	Summary        string          `json:"summary"`
}

// FullText joins all segment contents into one block of plain text.
func (t *Transcript) FullText() string {
	parts := make([]string, 0, len(t.SpeechSegments))
	for _, seg := range t.SpeechSegments {
		if s := strings.TrimSpace(seg.Content); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// SummaryText renders the human-readable summary artifact written next to
// the structured result.
func (t *Transcript) SummaryText() string {
	return fmt.Sprintf("Title: %s\n\nSummary:\n%s", t.Title, t.Summary)
}

// FormatSeconds renders a segment timestamp the way providers emit them.
func FormatSeconds(sec float64) string {
	return fmt.Sprintf("%.3fs", sec)
}
