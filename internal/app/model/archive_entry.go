package model

import "time"

// ArchiveEntry is one row in the relational archive of finished jobs. The
// job directory stays the source of truth; the archive exists for reporting
// and export across many jobs.
type ArchiveEntry struct {
	ID            int
	JobID         string
	Provider      string
	Title         string
	Summary       string
	Transcription string
	RecordedAt    time.Time
	HasError      int
	ErrorMessage  string
}
