package queue

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "audio-whisper/internal/app/errors"
	"audio-whisper/internal/app/model"
	"audio-whisper/internal/app/util/files"
)

const (
	recordFileName      = "job.json"
	resultFileName      = "transcription.json"
	summaryFileName     = "summary.txt"
	readabilityFileName = "readability.txt"

	// incomingDirName is the upload spool below the data dir. It carries no
	// job.json, so listings skip it like any other foreign directory.
	incomingDirName = "_incoming"
)

// JobStore persists transcription job state. The filesystem implementation
// is the default; anything that can hold a record, an audio file and the
// result artifacts per job id can stand in behind this interface.
type JobStore interface {
	// Create makes the job directory and persists a fresh record.
	Create(rec *model.JobRecord) error
	// Read loads one record. Missing jobs return ErrJobNotFound.
	Read(id string) (*model.JobRecord, error)
	// Write atomically persists the record of an existing job.
	Write(rec *model.JobRecord) error
	// List returns all readable records, newest id first.
	List() ([]*model.JobRecord, error)
	// Delete removes the job and everything stored with it. Deleting an
	// absent job is a no-op.
	Delete(id string) error

	// JobDir resolves the directory that holds the job's files.
	JobDir(id string) (string, error)
	// ResultPath is where the structured result lives for the job id.
	ResultPath(id string) (string, error)
	// WriteResult stores the structured result plus the human-readable
	// summary artifact and returns the result path.
	WriteResult(id string, transcript *model.Transcript) (string, error)
	// ReadResult loads the structured result. Absent or unreadable results
	// report ErrResultNotFound.
	ReadResult(id string) (*model.Transcript, error)

	ReadReadability(id string) (string, error)
	WriteReadability(id string, text string) error

	// IncomingDir is the spool directory for uploads awaiting enqueue.
	IncomingDir() (string, error)
}

// FileJobStore keeps one directory per job under root:
//
//	<root>/<job id>/job.json
//	<root>/<job id>/<audio file>
//	<root>/<job id>/transcription.json
//	<root>/<job id>/summary.txt
//
// job.json is the sole durable truth about a job; everything else in the
// system can be rebuilt from these directories.
type FileJobStore struct {
	root   string
	logger *zap.Logger
}

func NewFileJobStore(root string, logger *zap.Logger) (*FileJobStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.Wrapf(err, "resolve data dir %s", root)
	}
	if err := files.EnsureDir(abs); err != nil {
		return nil, apperrors.Wrapf(err, "create data dir %s", abs)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileJobStore{root: abs, logger: logger}, nil
}

// Root returns the absolute data directory.
func (s *FileJobStore) Root() string {
	return s.root
}

func (s *FileJobStore) JobDir(id string) (string, error) {
	if id == "" || id == "." || id == ".." || id != filepath.Base(id) {
		return "", apperrors.ErrUnsafeJobID
	}
	dir := filepath.Join(s.root, id)
	if !strings.HasPrefix(dir, s.root+string(os.PathSeparator)) {
		return "", apperrors.ErrUnsafeJobID
	}
	return dir, nil
}

func (s *FileJobStore) Create(rec *model.JobRecord) error {
	dir, err := s.JobDir(rec.ID)
	if err != nil {
		return err
	}
	if err := files.EnsureDir(dir); err != nil {
		return apperrors.Wrapf(err, "create job dir %s", rec.ID)
	}
	return s.Write(rec)
}

func (s *FileJobStore) Write(rec *model.JobRecord) error {
	dir, err := s.JobDir(rec.ID)
	if err != nil {
		return err
	}
	if err := files.EnsureDir(dir); err != nil {
		return apperrors.Wrapf(err, "create job dir %s", rec.ID)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return apperrors.Wrapf(err, "encode job record %s", rec.ID)
	}
	if err := files.AtomicWriteFile(filepath.Join(dir, recordFileName), data); err != nil {
		return apperrors.Wrapf(err, "write job record %s", rec.ID)
	}
	return nil
}

func (s *FileJobStore) Read(id string) (*model.JobRecord, error) {
	dir, err := s.JobDir(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, recordFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.ErrJobNotFound
		}
		return nil, apperrors.Wrapf(err, "read job record %s", id)
	}
	return decodeRecord(id, data)
}

func (s *FileJobStore) List() ([]*model.JobRecord, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, apperrors.Wrapf(err, "list data dir %s", s.root)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	// Newest first. Ids sort chronologically because they start with a
	// second-resolution timestamp.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	records := make([]*model.JobRecord, 0, len(names))
	for _, name := range names {
		rec, err := s.Read(name)
		if err != nil {
			// Directories without a record file (the upload spool, stray
			// folders) are not jobs. Corrupt records are logged and skipped
			// so one bad file cannot take down listings.
			if !errors.Is(err, apperrors.ErrJobNotFound) && !errors.Is(err, apperrors.ErrUnsafeJobID) {
				s.logger.Warn("skipping unreadable job record",
					zap.String("job_id", name), zap.Error(err))
			}
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *FileJobStore) Delete(id string) error {
	dir, err := s.JobDir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return apperrors.Wrapf(err, "delete job dir %s", id)
	}
	return nil
}

func (s *FileJobStore) ResultPath(id string) (string, error) {
	dir, err := s.JobDir(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, resultFileName), nil
}

func (s *FileJobStore) WriteResult(id string, transcript *model.Transcript) (string, error) {
	dir, err := s.JobDir(id)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return "", apperrors.Wrapf(err, "encode transcription result %s", id)
	}
	resultPath := filepath.Join(dir, resultFileName)
	if err := files.AtomicWriteFile(resultPath, data); err != nil {
		return "", apperrors.Wrapf(err, "write transcription result %s", id)
	}
	if err := files.AtomicWriteFile(filepath.Join(dir, summaryFileName), []byte(transcript.SummaryText())); err != nil {
		return "", apperrors.Wrapf(err, "write summary %s", id)
	}
	return resultPath, nil
}

func (s *FileJobStore) ReadResult(id string) (*model.Transcript, error) {
	path, err := s.ResultPath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.ErrResultNotFound
		}
		return nil, apperrors.Wrapf(err, "read transcription result %s", id)
	}
	var transcript model.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		// A half-written or corrupt result reads as absent rather than
		// failing the caller.
		s.logger.Warn("unparsable transcription result",
			zap.String("job_id", id), zap.Error(err))
		return nil, apperrors.ErrResultNotFound
	}
	return &transcript, nil
}

func (s *FileJobStore) ReadReadability(id string) (string, error) {
	dir, err := s.JobDir(id)
	if err != nil {
		return "", err
	}
	text, err := files.ReadTextFile(filepath.Join(dir, readabilityFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperrors.ErrResultNotFound
		}
		return "", apperrors.Wrapf(err, "read readability text %s", id)
	}
	return text, nil
}

func (s *FileJobStore) WriteReadability(id string, text string) error {
	dir, err := s.JobDir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return apperrors.ErrJobNotFound
	}
	if err := files.AtomicWriteFile(filepath.Join(dir, readabilityFileName), []byte(text)); err != nil {
		return apperrors.Wrapf(err, "write readability text %s", id)
	}
	return nil
}

func (s *FileJobStore) IncomingDir() (string, error) {
	dir := filepath.Join(s.root, incomingDirName)
	if err := files.EnsureDir(dir); err != nil {
		return "", apperrors.Wrapf(err, "create incoming dir")
	}
	return dir, nil
}

// jobRecordFile is the on-disk record layout. Timestamps stay strings here
// so records written by earlier releases decode with defaults instead of
// hard failures.
type jobRecordFile struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
	Provider   string `json:"provider"`
	AudioPath  string `json:"audio_path"`
	ResultPath string `json:"result_path"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	Error      string `json:"error"`
}

func decodeRecord(id string, data []byte) (*model.JobRecord, error) {
	var raw jobRecordFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Wrapf(err, "decode job record %s", id)
	}
	status, err := model.NormalizeStatus(raw.Status)
	if err != nil {
		return nil, apperrors.Wrapf(err, "decode job record %s", id)
	}

	rec := &model.JobRecord{
		ID:         raw.ID,
		Status:     status,
		Provider:   raw.Provider,
		AudioPath:  raw.AudioPath,
		ResultPath: raw.ResultPath,
		Title:      raw.Title,
		Summary:    raw.Summary,
		Error:      raw.Error,
	}
	if rec.ID == "" {
		rec.ID = id
	}
	now := time.Now().UTC()
	rec.CreatedAt = parseRecordTime(raw.CreatedAt, now)
	rec.UpdatedAt = parseRecordTime(raw.UpdatedAt, rec.CreatedAt)
	return rec, nil
}

// recordTimeLayouts covers RFC 3339 plus the zone-less layout older record
// files carry.
var recordTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
}

func parseRecordTime(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range recordTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
