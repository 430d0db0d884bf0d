package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"audio-whisper/internal/app/model"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS job_outcomes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
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

type SQLiteDAO struct {
	db *sql.DB
}

func NewSQLiteDAO(dbFilePath string) (*SQLiteDAO, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc", dbFilePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &SQLiteDAO{db: db}, nil
}

func (sdb *SQLiteDAO) Close() error {
	return sdb.db.Close()
}

func (sdb *SQLiteDAO) RecordOutcome(rec *model.JobRecord, transcript *model.Transcript) error {
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
	insertSQL := `INSERT INTO job_outcomes (job_id, provider, title, summary, transcription, recorded_at, has_error, error_message) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	_, err := sdb.db.Exec(insertSQL, rec.ID, rec.Provider, title, summary, text, time.Now().UTC(), hasError, rec.Error)
	if err != nil {
		return fmt.Errorf("failed to insert archive entry: %w", err)
	}
	return nil
}

func (sdb *SQLiteDAO) CheckIfJobArchived(jobID string) (int, error) {
	query := `SELECT id FROM job_outcomes WHERE job_id = ? AND has_error = 0`
	row := sdb.db.QueryRow(query, jobID)
	var id int
	err := row.Scan(&id)
	return id, err
}

func (sdb *SQLiteDAO) GetAll() ([]model.ArchiveEntry, error) {
	sqlStr := `
		SELECT id, job_id, provider, title, summary, transcription, recorded_at, has_error, error_message
		FROM job_outcomes
		ORDER BY recorded_at DESC;`
	rows, err := sdb.db.Query(sqlStr)
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	defer rows.Close()

	entries := make([]model.ArchiveEntry, 0)

	for rows.Next() {
		var e model.ArchiveEntry
		err = rows.Scan(&e.ID, &e.JobID, &e.Provider, &e.Title, &e.Summary, &e.Transcription, &e.RecordedAt, &e.HasError, &e.ErrorMessage)
		if err != nil {
			return nil, fmt.Errorf("db scan failed: %v", err)
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}
