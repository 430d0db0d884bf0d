package pg

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"audio-whisper/internal/app/model"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS job_outcomes (
    id SERIAL PRIMARY KEY,
    job_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    title TEXT,
    summary TEXT,
    transcription TEXT,
    recorded_at TIMESTAMP NOT NULL,
    has_error INTEGER NOT NULL DEFAULT 0,
    error_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_job_outcomes_job_id ON job_outcomes (job_id);
`

type PostgresDAO struct {
	db *sql.DB
}

func NewPostgresDAO(connectionString string) (*PostgresDAO, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &PostgresDAO{db: db}, nil
}

func (pdb *PostgresDAO) Close() error {
	return pdb.db.Close()
}

func (pdb *PostgresDAO) RecordOutcome(rec *model.JobRecord, transcript *model.Transcript) error {
	var title, summary, text string
	if transcript != nil {
		title = transcript.Title
		summary = transcript.Summary
		text = transcript.FullText()
	}
	hasError := 0
	if rec.Status == model.StatusFailed {
		hasError = 1
	}
	insertSQL := `INSERT INTO job_outcomes (job_id, provider, title, summary, transcription, recorded_at, has_error, error_message) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err := pdb.db.Exec(insertSQL, rec.ID, rec.Provider, title, summary, text, time.Now().UTC(), hasError, rec.Error)
	if err != nil {
		return fmt.Errorf("failed to insert archive entry: %w", err)
	}
	return nil
}

func (pdb *PostgresDAO) CheckIfJobArchived(jobID string) (int, error) {
	query := `SELECT id FROM job_outcomes WHERE job_id = $1 AND has_error = 0`
	row := pdb.db.QueryRow(query, jobID)
	var id int
	err := row.Scan(&id)
	return id, err
}

func (pdb *PostgresDAO) GetAll() ([]model.ArchiveEntry, error) {
	query := `
		SELECT id, job_id, provider, title, summary, transcription, recorded_at, has_error, error_message
		FROM job_outcomes
		ORDER BY recorded_at DESC`

	rows, err := pdb.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	defer rows.Close()

	var entries []model.ArchiveEntry

	for rows.Next() {
		var e model.ArchiveEntry
		err = rows.Scan(&e.ID, &e.JobID, &e.Provider, &e.Title, &e.Summary, &e.Transcription, &e.RecordedAt, &e.HasError, &e.ErrorMessage)
		if err != nil {
			return nil, fmt.Errorf("db scan failed: %v", err)
		}

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %v", err)
	}

	return entries, nil
}
