package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"audio-whisper/internal/app/api"
	apperrors "audio-whisper/internal/app/errors"
	"audio-whisper/internal/app/model"
	"audio-whisper/internal/app/util/files"
)

const (
	// DefaultPollInterval bounds how long the worker waits on the dispatch
	// queue before rechecking its stop signal.
	DefaultPollInterval = time.Second

	jobIDTimeLayout = "2006-01-02_15-04-05"
)

// TranscriberFactory resolves a provider name to a Transcriber. Resolution
// happens per job so a retried job can run against a reconfigured provider.
type TranscriberFactory func(provider string) (api.Transcriber, error)

// Archiver records terminal job outcomes outside the job store, e.g. in the
// relational transcription archive. Failures are logged, never fatal.
type Archiver interface {
	RecordOutcome(rec *model.JobRecord, transcript *model.Transcript) error
}

// ArtifactMirror copies result artifacts to secondary storage after a job
// completes. Failures are logged, never fatal.
type ArtifactMirror interface {
	MirrorResult(ctx context.Context, jobID string, paths []string) error
}

// SearchResult is one hit from Search.
type SearchResult struct {
	JobID   string `json:"job_id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// JobDetail bundles a record with the artifacts stored next to it.
type JobDetail struct {
	Record      *model.JobRecord
	Transcript  *model.Transcript
	Readability string
}

// Options tune a TranscriptionQueue. Zero values get sensible defaults;
// Archiver and Mirror are optional.
type Options struct {
	PollInterval    time.Duration
	DefaultProvider string
	// MaxJobs caps how many terminal jobs are kept on disk, oldest deleted
	// first. Zero keeps everything.
	MaxJobs  int
	Archiver Archiver
	Mirror   ArtifactMirror
	Logger   *zap.Logger
}

// TranscriptionQueue is the durable transcription job queue: a job store as
// the single source of truth, an in-memory dispatch queue, and one worker
// goroutine processing jobs strictly one at a time.
type TranscriptionQueue struct {
	store          JobStore
	dispatch       *Dispatcher
	newTranscriber TranscriberFactory

	archiver Archiver
	mirror   ArtifactMirror
	logger   *zap.Logger

	pollInterval    time.Duration
	defaultProvider string
	maxJobs         int

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

func NewTranscriptionQueue(store JobStore, dispatch *Dispatcher, factory TranscriberFactory, opts Options) *TranscriptionQueue {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.DefaultProvider == "" {
		opts.DefaultProvider = "gemini"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &TranscriptionQueue{
		store:           store,
		dispatch:        dispatch,
		newTranscriber:  factory,
		archiver:        opts.Archiver,
		mirror:          opts.Mirror,
		logger:          opts.Logger,
		pollInterval:    opts.PollInterval,
		defaultProvider: opts.DefaultProvider,
		maxJobs:         opts.MaxJobs,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// Start re-enqueues unfinished jobs and launches the worker goroutine.
// Recovery pushes every pending and processing job in listing order, i.e.
// NEWEST FIRST; jobs enqueued after startup run in plain FIFO order. A job
// that was mid-flight during a crash is still marked processing on disk and
// gets picked up again here.
func (q *TranscriptionQueue) Start() error {
	var err error
	q.startOnce.Do(func() {
		if err = q.recoverUnfinished(); err != nil {
			return
		}
		q.started.Store(true)
		go q.run()
	})
	return err
}

// Stop signals the worker and waits for it to exit. An in-flight job is
// allowed to finish; only then does the goroutine return.
func (q *TranscriptionQueue) Stop(ctx context.Context) error {
	if !q.started.Load() {
		return nil
	}
	q.stopOnce.Do(func() { close(q.stop) })
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue moves the audio file into a fresh job directory, persists a
// pending record and only then pushes the id to the dispatch queue, so a
// crash between those steps leaves a recoverable record rather than a
// queue entry pointing at nothing.
func (q *TranscriptionQueue) Enqueue(audioPath string, provider string) (*model.JobRecord, error) {
	if provider == "" {
		provider = q.defaultProvider
	}
	if fi, err := os.Stat(audioPath); err != nil || fi.IsDir() {
		return nil, apperrors.Wrapf(apperrors.ErrAudioNotFound, "%s", audioPath)
	}
	id := newJobID(time.Now())

	dir, err := q.store.JobDir(id)
	if err != nil {
		return nil, err
	}
	if err := files.EnsureDir(dir); err != nil {
		return nil, apperrors.Wrapf(err, "create job dir %s", id)
	}
	dest := filepath.Join(dir, filepath.Base(audioPath))
	if err := files.MoveFile(audioPath, dest); err != nil {
		return nil, apperrors.Wrapf(err, "move audio into job dir %s", id)
	}

	rec := model.NewJobRecord(id, provider, dest)
	if err := q.store.Create(rec); err != nil {
		return nil, err
	}
	q.dispatch.Push(id)
	jobsEnqueued.Inc()

	q.logger.Info("job enqueued",
		zap.String("job_id", id),
		zap.String("provider", provider),
		zap.String("audio", filepath.Base(dest)))
	return rec, nil
}

// Retry resets a failed job to pending, clears its error and re-enqueues
// it. Jobs in any other state return ErrInvalidJobState.
func (q *TranscriptionQueue) Retry(id string) (*model.JobRecord, error) {
	rec, err := q.store.Read(id)
	if err != nil {
		return nil, err
	}
	if rec.Status != model.StatusFailed {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidJobState, "retry %s in status %s", id, rec.Status)
	}
	rec.MarkRetry()
	if err := q.store.Write(rec); err != nil {
		return nil, err
	}
	q.dispatch.Push(id)
	jobsEnqueued.Inc()

	q.logger.Info("job re-enqueued for retry", zap.String("job_id", id))
	return rec, nil
}

// Delete removes a terminal job and its directory. Pending and processing
// jobs are refused with ErrJobInFlight.
func (q *TranscriptionQueue) Delete(id string) error {
	rec, err := q.store.Read(id)
	if err != nil {
		return err
	}
	if !rec.Status.IsTerminal() {
		return apperrors.Wrapf(apperrors.ErrJobInFlight, "delete %s in status %s", id, rec.Status)
	}
	if err := q.store.Delete(id); err != nil {
		return err
	}
	q.logger.Info("job deleted", zap.String("job_id", id))
	return nil
}

// Get returns the stored record for one job.
func (q *TranscriptionQueue) Get(id string) (*model.JobRecord, error) {
	return q.store.Read(id)
}

// List returns all job records, newest first.
func (q *TranscriptionQueue) List() ([]*model.JobRecord, error) {
	return q.store.List()
}

// Detail returns the record plus the parsed result and readability text
// when those artifacts exist.
func (q *TranscriptionQueue) Detail(id string) (*JobDetail, error) {
	rec, err := q.store.Read(id)
	if err != nil {
		return nil, err
	}
	detail := &JobDetail{Record: rec}
	if transcript, err := q.store.ReadResult(id); err == nil {
		detail.Transcript = transcript
	}
	if text, err := q.store.ReadReadability(id); err == nil {
		detail.Readability = text
	}
	return detail, nil
}

// Search matches the query case-insensitively against each job's
// denormalized title and summary, and only when those miss, against every
// transcript segment. The empty query matches nothing.
func (q *TranscriptionQueue) Search(query string) ([]SearchResult, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}
	records, err := q.store.List()
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, rec := range records {
		if containsFold(rec.Title, needle) || containsFold(rec.Summary, needle) {
			results = append(results, SearchResult{JobID: rec.ID, Title: rec.Title, Summary: rec.Summary})
			continue
		}
		transcript, err := q.store.ReadResult(rec.ID)
		if err != nil {
			continue
		}
		for _, seg := range transcript.SpeechSegments {
			if containsFold(seg.Content, needle) {
				results = append(results, SearchResult{JobID: rec.ID, Title: transcript.Title, Summary: transcript.Summary})
				break
			}
		}
	}
	return results, nil
}

// UpdateReadability stores reader-friendly text next to the job's result
// and bumps the record's updated_at.
func (q *TranscriptionQueue) UpdateReadability(id string, text string) (*model.JobRecord, error) {
	rec, err := q.store.Read(id)
	if err != nil {
		return nil, err
	}
	if err := q.store.WriteReadability(id, text); err != nil {
		return nil, err
	}
	rec.Touch()
	if err := q.store.Write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// JobDir exposes the directory holding the job's files.
func (q *TranscriptionQueue) JobDir(id string) (string, error) {
	if _, err := q.store.Read(id); err != nil {
		return "", err
	}
	return q.store.JobDir(id)
}

// IncomingDir is the spool directory for uploads awaiting enqueue.
func (q *TranscriptionQueue) IncomingDir() (string, error) {
	return q.store.IncomingDir()
}

// DefaultProvider reports the provider used when a job names none.
func (q *TranscriptionQueue) DefaultProvider() string {
	return q.defaultProvider
}

func (q *TranscriptionQueue) recoverUnfinished() error {
	records, err := q.store.List()
	if err != nil {
		return apperrors.Wrap(err, "recover unfinished jobs")
	}
	count := 0
	for _, rec := range records {
		if rec.Status == model.StatusPending || rec.Status == model.StatusProcessing {
			q.dispatch.Push(rec.ID)
			jobsEnqueued.Inc()
			count++
		}
	}
	if count > 0 {
		q.logger.Info("requeued unfinished jobs", zap.Int("count", count))
	}
	return nil
}

func (q *TranscriptionQueue) run() {
	defer close(q.done)
	q.logger.Info("worker started", zap.Duration("poll_interval", q.pollInterval))
	for {
		select {
		case <-q.stop:
			q.logger.Info("worker stopped")
			return
		default:
		}
		id, ok := q.dispatch.Pop(q.pollInterval)
		if !ok {
			continue
		}
		q.processJob(id)
	}
}

// processJob drives one job to a terminal state. Nothing may escape: a
// provider failure, a storage failure or even a panic ends as a failed
// record, and the loop moves on.
func (q *TranscriptionQueue) processJob(id string) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("panic while processing job",
				zap.String("job_id", id), zap.Any("panic", r))
			q.failJob(id, fmt.Sprintf("TranscriptionError: internal error: %v", r))
		}
	}()

	rec, err := q.store.Read(id)
	if errors.Is(err, apperrors.ErrJobNotFound) {
		// The store is the source of truth; a queued id whose record is
		// gone (deleted, foreign) is dropped.
		q.logger.Warn("dropping queued id with no record", zap.String("job_id", id))
		return
	}
	if err != nil {
		q.logger.Error("read job record", zap.String("job_id", id), zap.Error(err))
		return
	}

	rec.MarkProcessing()
	if err := q.store.Write(rec); err != nil {
		q.logger.Error("persist processing status", zap.String("job_id", id), zap.Error(err))
		return
	}
	q.logger.Info("processing job",
		zap.String("job_id", id), zap.String("provider", rec.Provider))

	transcript, err := q.transcribe(rec)
	if err != nil {
		q.logger.Warn("transcription failed",
			zap.String("job_id", id), zap.Error(err))
		rec.MarkFailed(fmt.Sprintf("TranscriptionError: %v", err))
		q.finishJob(rec, nil)
		return
	}

	resultPath, err := q.store.WriteResult(id, transcript)
	if err != nil {
		q.logger.Error("persist transcription result",
			zap.String("job_id", id), zap.Error(err))
		rec.MarkFailed(fmt.Sprintf("StorageError: %v", err))
		q.finishJob(rec, nil)
		return
	}

	rec.MarkCompleted(resultPath, transcript.Title, transcript.Summary)
	q.finishJob(rec, transcript)
	q.logger.Info("job completed",
		zap.String("job_id", id), zap.String("title", transcript.Title))
}

func (q *TranscriptionQueue) transcribe(rec *model.JobRecord) (*model.Transcript, error) {
	provider := rec.Provider
	if provider == "" {
		provider = q.defaultProvider
	}
	transcriber, err := q.newTranscriber(provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	// Deliberately not tied to the stop signal: shutdown waits for the
	// in-flight job instead of cancelling it.
	transcript, err := transcriber.Transcribe(context.Background(), rec.AudioPath)
	transcribeDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	return transcript, err
}

// finishJob persists the terminal record and runs the best-effort
// followers: archive row, artifact mirror, old-job cleanup.
func (q *TranscriptionQueue) finishJob(rec *model.JobRecord, transcript *model.Transcript) {
	if err := q.store.Write(rec); err != nil {
		q.logger.Error("persist terminal status",
			zap.String("job_id", rec.ID), zap.Error(err))
		return
	}
	jobsProcessed.WithLabelValues(string(rec.Status)).Inc()

	if q.archiver != nil {
		if err := q.archiver.RecordOutcome(rec, transcript); err != nil {
			q.logger.Warn("archive job outcome",
				zap.String("job_id", rec.ID), zap.Error(err))
		}
	}
	if q.mirror != nil && rec.Status == model.StatusCompleted {
		q.mirrorArtifacts(rec.ID)
	}
	q.cleanupOldJobs()
}

func (q *TranscriptionQueue) failJob(id string, message string) {
	rec, err := q.store.Read(id)
	if err != nil {
		q.logger.Error("read job record for failure",
			zap.String("job_id", id), zap.Error(err))
		return
	}
	rec.MarkFailed(message)
	q.finishJob(rec, nil)
}

func (q *TranscriptionQueue) mirrorArtifacts(id string) {
	dir, err := q.store.JobDir(id)
	if err != nil {
		return
	}
	resultPath, err := q.store.ResultPath(id)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	paths := []string{resultPath, filepath.Join(dir, summaryFileName)}
	if err := q.mirror.MirrorResult(ctx, id, paths); err != nil {
		q.logger.Warn("mirror result artifacts",
			zap.String("job_id", id), zap.Error(err))
	}
}

// cleanupOldJobs enforces the terminal-job cap. In-flight jobs are never
// touched.
func (q *TranscriptionQueue) cleanupOldJobs() {
	if q.maxJobs <= 0 {
		return
	}
	records, err := q.store.List()
	if err != nil {
		q.logger.Warn("list jobs for cleanup", zap.Error(err))
		return
	}
	terminal := lo.Filter(records, func(rec *model.JobRecord, _ int) bool {
		return rec.Status.IsTerminal()
	})
	if len(terminal) <= q.maxJobs {
		return
	}
	// Listing order ties within one second; creation time breaks them.
	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].CreatedAt.After(terminal[j].CreatedAt)
	})
	for _, rec := range terminal[q.maxJobs:] {
		if err := q.store.Delete(rec.ID); err != nil {
			q.logger.Warn("cleanup old job",
				zap.String("job_id", rec.ID), zap.Error(err))
			continue
		}
		q.logger.Info("cleaned up old job", zap.String("job_id", rec.ID))
	}
}

// newJobID derives the job id, and thus the directory name, from the
// creation time. The UUID tail disambiguates ids created within the same
// second while keeping lexicographic order chronological.
func newJobID(now time.Time) string {
	return fmt.Sprintf("%s_%s", now.UTC().Format(jobIDTimeLayout), uuid.New().String()[:8])
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}
