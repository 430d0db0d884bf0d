// Package archive mirrors finished job outcomes into a relational database
// so they survive job-directory cleanup and can be exported in bulk.
package archive

import (
	"audio-whisper/internal/app/model"
)

type DAO interface {
	Close() error

	// RecordOutcome archives one terminal job. Failed jobs are recorded
	// with has_error set and their error message; transcript may be nil.
	RecordOutcome(rec *model.JobRecord, transcript *model.Transcript) error

	// CheckIfJobArchived returns the row id of a successful archive entry
	// for the job, or sql.ErrNoRows when none exists.
	CheckIfJobArchived(jobID string) (int, error)

	GetAll() ([]model.ArchiveEntry, error)
}
