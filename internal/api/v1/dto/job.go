package dto

import (
	"time"

	"audio-whisper/internal/api/errors"
	"audio-whisper/internal/app/model"
	"audio-whisper/internal/app/queue"
)

// EnqueueJobRequest represents the JSON form of an enqueue request, used
// when the audio file is already on the server's filesystem. Uploads go
// through the multipart form instead.
type EnqueueJobRequest struct {
	AudioPath string `json:"audio_path" binding:"required"`
	Provider  string `json:"provider,omitempty" binding:"omitempty,oneof=gemini openai"`
}

// Validate performs domain-specific validation
func (r *EnqueueJobRequest) Validate() error {
	validationErrors := make(map[string]string)

	if r.AudioPath == "" {
		validationErrors["audio_path"] = "audio path is required"
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Invalid enqueue request", validationErrors)
	}

	return nil
}

// UpdateReadabilityRequest carries the enhanced text for a job
type UpdateReadabilityRequest struct {
	Text string `json:"text" binding:"required"`
}

// SearchQuery represents query parameters for transcription search
type SearchQuery struct {
	Q string `form:"q" binding:"required"`
}

// JobResponse represents a job record in API responses
type JobResponse struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Provider   string    `json:"provider"`
	AudioPath  string    `json:"audio_path"`
	ResultPath string    `json:"result_path,omitempty"`
	Title      string    `json:"title,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JobListResponse represents a list of jobs, newest first
type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Total int           `json:"total"`
}

// SegmentResponse represents one timed speech segment
type SegmentResponse struct {
	Content   string `json:"content"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Speaker   string `json:"speaker"`
}

// TranscriptResponse represents a full transcription result
type TranscriptResponse struct {
	Title          string            `json:"title"`
	SpeechSegments []SegmentResponse `json:"speech_segments"`
	Summary        string            `json:"summary"`
}

// JobDetailResponse represents a job with its transcription artifacts
type JobDetailResponse struct {
	JobResponse
	Transcript  *TranscriptResponse `json:"transcript,omitempty"`
	Readability string              `json:"readability,omitempty"`
}

// SearchResultResponse represents one search hit
type SearchResultResponse struct {
	JobID   string `json:"job_id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// SearchResponse represents search results
type SearchResponse struct {
	Results []SearchResultResponse `json:"results"`
	Total   int                    `json:"total"`
}

// JobDirResponse points a local client at the job's directory on disk
type JobDirResponse struct {
	ID  string `json:"id"`
	Dir string `json:"dir"`
}

// ToJobResponse converts a job record to its response DTO
func ToJobResponse(rec *model.JobRecord) JobResponse {
	return JobResponse{
		ID:         rec.ID,
		Status:     string(rec.Status),
		Provider:   rec.Provider,
		AudioPath:  rec.AudioPath,
		ResultPath: rec.ResultPath,
		Title:      rec.Title,
		Summary:    rec.Summary,
		Error:      rec.Error,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

// ToJobListResponse converts job records to a list response
func ToJobListResponse(recs []*model.JobRecord) JobListResponse {
	jobs := make([]JobResponse, 0, len(recs))
	for _, rec := range recs {
		jobs = append(jobs, ToJobResponse(rec))
	}
	return JobListResponse{Jobs: jobs, Total: len(jobs)}
}

// ToTranscriptResponse converts a transcript to its response DTO
func ToTranscriptResponse(t *model.Transcript) *TranscriptResponse {
	if t == nil {
		return nil
	}
	segments := make([]SegmentResponse, 0, len(t.SpeechSegments))
	for _, seg := range t.SpeechSegments {
		segments = append(segments, SegmentResponse{
			Content:   seg.Content,
			StartTime: seg.StartTime,
			EndTime:   seg.EndTime,
			Speaker:   seg.Speaker,
		})
	}
	return &TranscriptResponse{
		Title:          t.Title,
		SpeechSegments: segments,
		Summary:        t.Summary,
	}
}

// ToJobDetailResponse converts a job detail to its response DTO
func ToJobDetailResponse(detail *queue.JobDetail) JobDetailResponse {
	return JobDetailResponse{
		JobResponse: ToJobResponse(detail.Record),
		Transcript:  ToTranscriptResponse(detail.Transcript),
		Readability: detail.Readability,
	}
}

// ToSearchResponse converts search hits to their response DTO
func ToSearchResponse(results []queue.SearchResult) SearchResponse {
	hits := make([]SearchResultResponse, 0, len(results))
	for _, r := range results {
		hits = append(hits, SearchResultResponse{
			JobID:   r.JobID,
			Title:   r.Title,
			Summary: r.Summary,
		})
	}
	return SearchResponse{Results: hits, Total: len(hits)}
}
