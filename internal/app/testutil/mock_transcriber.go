package testutil

import (
	"context"
	"sync"
	"time"

	"audio-whisper/internal/app/api"
	"audio-whisper/internal/app/model"
)

// MockTranscriber is a configurable fake api.Transcriber. Behavior can be
// set per audio path (result, error, latency) with defaults for everything
// else, and every call is recorded for assertions.
type MockTranscriber struct {
	mu sync.RWMutex

	DefaultLatency    time.Duration
	DefaultError      error
	DefaultTranscript *model.Transcript

	ErrorMap      map[string]error
	TranscriptMap map[string]*model.Transcript
	LatencyMap    map[string]time.Duration

	CallCount   int
	CallHistory []TranscriptionCall
}

// TranscriptionCall records a single Transcribe invocation.
type TranscriptionCall struct {
	AudioPath string
	Timestamp time.Time
	Err       error
}

// NewMockTranscriber returns a mock that succeeds with a small fixed
// transcript.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{
		DefaultTranscript: MakeTranscript("Mock Title", "Mock summary.", "This is a mock transcription result."),
		ErrorMap:          make(map[string]error),
		TranscriptMap:     make(map[string]*model.Transcript),
		LatencyMap:        make(map[string]time.Duration),
	}
}

// Transcribe implements api.Transcriber.
func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (*model.Transcript, error) {
	m.mu.Lock()
	latency := m.DefaultLatency
	if custom, ok := m.LatencyMap[audioPath]; ok {
		latency = custom
	}
	err, hasErr := m.ErrorMap[audioPath]
	if !hasErr {
		err = m.DefaultError
	}
	transcript := m.DefaultTranscript
	if custom, ok := m.TranscriptMap[audioPath]; ok {
		transcript = custom
	}
	m.CallCount++
	m.CallHistory = append(m.CallHistory, TranscriptionCall{
		AudioPath: audioPath,
		Timestamp: time.Now(),
		Err:       err,
	})
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return transcript, nil
}

// WithDefaultError makes every call fail with err.
func (m *MockTranscriber) WithDefaultError(err error) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DefaultError = err
	return m
}

// WithDefaultLatency delays every call.
func (m *MockTranscriber) WithDefaultLatency(latency time.Duration) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DefaultLatency = latency
	return m
}

// SetErrorForFile fails calls for one audio path.
func (m *MockTranscriber) SetErrorForFile(audioPath string, err error) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorMap[audioPath] = err
	return m
}

// ClearErrorForFile removes a per-path failure, e.g. before a retry.
func (m *MockTranscriber) ClearErrorForFile(audioPath string) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ErrorMap, audioPath)
	return m
}

// SetTranscriptForFile returns a specific transcript for one audio path.
func (m *MockTranscriber) SetTranscriptForFile(audioPath string, transcript *model.Transcript) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TranscriptMap[audioPath] = transcript
	return m
}

// SetLatencyForFile delays calls for one audio path.
func (m *MockTranscriber) SetLatencyForFile(audioPath string, latency time.Duration) *MockTranscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LatencyMap[audioPath] = latency
	return m
}

// GetCallCount returns how many times Transcribe ran.
func (m *MockTranscriber) GetCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.CallCount
}

// GetCallHistory returns a copy of all recorded calls.
func (m *MockTranscriber) GetCallHistory() []TranscriptionCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := make([]TranscriptionCall, len(m.CallHistory))
	copy(history, m.CallHistory)
	return history
}

// WasCalledWith reports whether the mock saw the given audio path.
func (m *MockTranscriber) WasCalledWith(audioPath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, call := range m.CallHistory {
		if call.AudioPath == audioPath {
			return true
		}
	}
	return false
}

// MakeTranscript builds a transcript with one segment per content string,
// ten seconds apart, all attributed to spk_0.
func MakeTranscript(title, summary string, contents ...string) *model.Transcript {
	segments := make([]model.SpeechSegment, 0, len(contents))
	for i, content := range contents {
		segments = append(segments, model.SpeechSegment{
			Content:   content,
			StartTime: model.FormatSeconds(float64(i * 10)),
			EndTime:   model.FormatSeconds(float64(i*10 + 9)),
			Speaker:   "spk_0",
		})
	}
	return &model.Transcript{
		Title:          title,
		SpeechSegments: segments,
		Summary:        summary,
	}
}

// Interface compliance check
var _ api.Transcriber = (*MockTranscriber)(nil)
