package model

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus is the lifecycle state of a transcription job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// legacyStatusQueued was written by older releases; it reads back as pending.
const legacyStatusQueued = "queued"

// NormalizeStatus maps a raw status string from disk to a JobStatus.
// Empty values default to pending and the legacy "queued" value is
// normalized; anything else is a corrupt record.
func NormalizeStatus(raw string) (JobStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", legacyStatusQueued, string(StatusPending):
		return StatusPending, nil
	case string(StatusProcessing):
		return StatusProcessing, nil
	case string(StatusCompleted):
		return StatusCompleted, nil
	case string(StatusFailed):
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("unknown job status %q", raw)
	}
}

// IsTerminal reports whether the status is a final state.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobRecord is the durable description of one transcription job. The record
// file on disk is the sole source of truth for job state; the in-memory
// dispatch queue only caches ids of work to do.
type JobRecord struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Provider  string    `json:"provider"`
	AudioPath string    `json:"audio_path"`

	// Populated only when Status is completed.
	ResultPath string `json:"result_path,omitempty"`
	Title      string `json:"title,omitempty"`
	Summary    string `json:"summary,omitempty"`

	// Populated only when Status is failed.
	Error string `json:"error,omitempty"`
}

// NewJobRecord returns a pending record stamped with the current time.
func NewJobRecord(id, provider, audioPath string) *JobRecord {
	now := time.Now().UTC()
	return &JobRecord{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Provider:  provider,
		AudioPath: audioPath,
	}
}

// Touch bumps UpdatedAt. Callers do this on every transition.
func (r *JobRecord) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// MarkProcessing transitions the record to processing.
func (r *JobRecord) MarkProcessing() {
	r.Status = StatusProcessing
	r.Touch()
}

// MarkCompleted transitions the record to completed and fills the
// result fields. Any previous error message is cleared.
func (r *JobRecord) MarkCompleted(resultPath, title, summary string) {
	r.Status = StatusCompleted
	r.ResultPath = resultPath
	r.Title = title
	r.Summary = summary
	r.Error = ""
	r.Touch()
}

// MarkFailed transitions the record to failed with the given message.
func (r *JobRecord) MarkFailed(message string) {
	r.Status = StatusFailed
	r.Error = message
	r.Touch()
}

// MarkRetry resets a failed record to pending and clears its error.
func (r *JobRecord) MarkRetry() {
	r.Status = StatusPending
	r.Error = ""
	r.Touch()
}
