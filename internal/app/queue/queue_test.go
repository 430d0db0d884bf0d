package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"audio-whisper/internal/app/api"
	apperrors "audio-whisper/internal/app/errors"
	"audio-whisper/internal/app/model"
	"audio-whisper/internal/app/testutil"
)

type queueFixture struct {
	queue *TranscriptionQueue
	store *FileJobStore
	mock  *testutil.MockTranscriber
	dir   string
}

func newQueueFixture(t *testing.T, opts Options) *queueFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileJobStore(filepath.Join(dir, "jobs"), zap.NewNop())
	require.NoError(t, err)

	mock := testutil.NewMockTranscriber()
	if opts.PollInterval == 0 {
		opts.PollInterval = 10 * time.Millisecond
	}
	factory := func(provider string) (api.Transcriber, error) {
		return mock, nil
	}
	q := NewTranscriptionQueue(store, NewDispatcher(), factory, opts)
	return &queueFixture{queue: q, store: store, mock: mock, dir: dir}
}

func (f *queueFixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.queue.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.queue.Stop(ctx)
	})
}

// newAudioFile drops a dummy upload outside the store root, like the spool
// dir the API saves uploads to.
func (f *queueFixture) newAudioFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("fake-audio"), 0o644))
	return path
}

func waitForStatus(t *testing.T, store *FileJobStore, id string, want model.JobStatus) *model.JobRecord {
	t.Helper()
	var rec *model.JobRecord
	require.Eventually(t, func() bool {
		got, err := store.Read(id)
		if err != nil {
			return false
		}
		rec = got
		return got.Status == want
	}, 3*time.Second, 10*time.Millisecond, "job %s never reached status %s", id, want)
	return rec
}

func TestEnqueue_CreatesPendingRecordAndMovesAudio(t *testing.T) {
	f := newQueueFixture(t, Options{})
	src := f.newAudioFile(t, "meeting.mp3")

	rec, err := f.queue.Enqueue(src, "gemini")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, rec.Status)
	assert.Equal(t, "gemini", rec.Provider)
	assert.Empty(t, rec.Error)
	assert.Empty(t, rec.ResultPath)

	_, statErr := os.Stat(src)
	assert.True(t, os.IsNotExist(statErr), "audio must be moved, not copied")
	_, statErr = os.Stat(rec.AudioPath)
	assert.NoError(t, statErr)

	dir, err := f.store.JobDir(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(rec.AudioPath), "audio lives inside the job dir")

	got, err := f.store.Read(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status, "record persisted before dispatch")
}

func TestEnqueue_DefaultsProvider(t *testing.T) {
	f := newQueueFixture(t, Options{DefaultProvider: "openai"})

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "a.mp3"), "")
	require.NoError(t, err)
	assert.Equal(t, "openai", rec.Provider)
}

func TestEnqueue_MissingAudioFails(t *testing.T) {
	f := newQueueFixture(t, Options{})

	_, err := f.queue.Enqueue(filepath.Join(f.dir, "nope.mp3"), "gemini")
	require.ErrorIs(t, err, apperrors.ErrAudioNotFound)

	// A rejected enqueue must not leave a job dir behind
	recs, err := f.store.List()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestWorker_CompletesJob(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.start(t)

	src := f.newAudioFile(t, "talk.mp3")
	rec, err := f.queue.Enqueue(src, "gemini")
	require.NoError(t, err)

	done := waitForStatus(t, f.store, rec.ID, model.StatusCompleted)
	assert.Equal(t, "Mock Title", done.Title)
	assert.Equal(t, "Mock summary.", done.Summary)
	assert.NotEmpty(t, done.ResultPath)
	assert.Empty(t, done.Error)
	assert.True(t, done.UpdatedAt.After(done.CreatedAt) || done.UpdatedAt.Equal(done.CreatedAt))

	_, err = os.Stat(done.ResultPath)
	assert.NoError(t, err)
	dir, err := f.store.JobDir(rec.ID)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, summaryFileName))
	assert.NoError(t, err)

	assert.True(t, f.mock.WasCalledWith(done.AudioPath))
}

func TestWorker_FailureIsContained(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.mock.WithDefaultError(errors.New("timeout"))
	f.start(t)

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "bad.mp3"), "gemini")
	require.NoError(t, err)

	failed := waitForStatus(t, f.store, rec.ID, model.StatusFailed)
	assert.Equal(t, "TranscriptionError: timeout", failed.Error)
	assert.Empty(t, failed.Title)
	assert.Empty(t, failed.ResultPath)

	// The loop survives: the next job completes.
	f.mock.WithDefaultError(nil)
	rec2, err := f.queue.Enqueue(f.newAudioFile(t, "good.mp3"), "gemini")
	require.NoError(t, err)
	waitForStatus(t, f.store, rec2.ID, model.StatusCompleted)
}

func TestRetry_ResetsFailedJobAndReprocesses(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.mock.WithDefaultError(errors.New("timeout"))
	f.start(t)

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "flaky.mp3"), "gemini")
	require.NoError(t, err)
	failed := waitForStatus(t, f.store, rec.ID, model.StatusFailed)
	require.Equal(t, "TranscriptionError: timeout", failed.Error)

	f.mock.WithDefaultError(nil)
	retried, err := f.queue.Retry(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, retried.Status)
	assert.Empty(t, retried.Error)

	waitForStatus(t, f.store, rec.ID, model.StatusCompleted)
	assert.Equal(t, 2, f.mock.GetCallCount())
}

func TestRetry_OnlyFailedJobs(t *testing.T) {
	f := newQueueFixture(t, Options{})

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "a.mp3"), "gemini")
	require.NoError(t, err)

	_, err = f.queue.Retry(rec.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidJobState, "pending jobs cannot be retried")

	_, err = f.queue.Retry("2026-01-01_00-00-00_ffffffff")
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)
}

func TestDelete_RefusesInFlightJobs(t *testing.T) {
	f := newQueueFixture(t, Options{})

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "a.mp3"), "gemini")
	require.NoError(t, err)

	err = f.queue.Delete(rec.ID)
	assert.ErrorIs(t, err, apperrors.ErrJobInFlight)

	dir, err := f.store.JobDir(rec.ID)
	require.NoError(t, err)
	_, statErr := os.Stat(dir)
	assert.NoError(t, statErr, "refused delete must leave the job dir")
}

func TestDelete_ProcessingJobConflicts(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.mock.WithDefaultLatency(300 * time.Millisecond)
	f.start(t)

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "slow.mp3"), "gemini")
	require.NoError(t, err)
	waitForStatus(t, f.store, rec.ID, model.StatusProcessing)

	assert.ErrorIs(t, f.queue.Delete(rec.ID), apperrors.ErrJobInFlight)

	waitForStatus(t, f.store, rec.ID, model.StatusCompleted)
	assert.NoError(t, f.queue.Delete(rec.ID))
}

func TestDelete_TerminalAndMissingJobs(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.start(t)

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "a.mp3"), "gemini")
	require.NoError(t, err)
	waitForStatus(t, f.store, rec.ID, model.StatusCompleted)

	require.NoError(t, f.queue.Delete(rec.ID))
	dir, err := f.store.JobDir(rec.ID)
	require.NoError(t, err)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))

	assert.ErrorIs(t, f.queue.Delete(rec.ID), apperrors.ErrJobNotFound)
}

func TestStart_RecoversUnfinishedJobsNewestFirst(t *testing.T) {
	f := newQueueFixture(t, Options{})

	older := model.NewJobRecord("2026-01-01_10-00-00_aaaaaaaa", "gemini", "/audio/older.mp3")
	require.NoError(t, f.store.Create(older))

	newer := model.NewJobRecord("2026-01-02_10-00-00_bbbbbbbb", "gemini", "/audio/newer.mp3")
	newer.MarkProcessing() // interrupted mid-flight by a crash
	require.NoError(t, f.store.Create(newer))

	finished := model.NewJobRecord("2026-01-03_10-00-00_cccccccc", "gemini", "/audio/done.mp3")
	finished.MarkCompleted("/x/transcription.json", "T", "S")
	require.NoError(t, f.store.Create(finished))

	f.start(t)

	waitForStatus(t, f.store, older.ID, model.StatusCompleted)
	waitForStatus(t, f.store, newer.ID, model.StatusCompleted)

	assert.False(t, f.mock.WasCalledWith("/audio/done.mp3"), "terminal jobs are not requeued")

	history := f.mock.GetCallHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "/audio/newer.mp3", history[0].AudioPath, "recovery runs newest first")
	assert.Equal(t, "/audio/older.mp3", history[1].AudioPath)
}

func TestWorker_ProcessesInFIFOOrder(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.mock.WithDefaultLatency(20 * time.Millisecond)
	f.start(t)

	recA, err := f.queue.Enqueue(f.newAudioFile(t, "first.mp3"), "gemini")
	require.NoError(t, err)
	recB, err := f.queue.Enqueue(f.newAudioFile(t, "second.mp3"), "gemini")
	require.NoError(t, err)

	waitForStatus(t, f.store, recA.ID, model.StatusCompleted)
	waitForStatus(t, f.store, recB.ID, model.StatusCompleted)

	history := f.mock.GetCallHistory()
	require.Len(t, history, 2)
	assert.Equal(t, recA.AudioPath, history[0].AudioPath)
	assert.Equal(t, recB.AudioPath, history[1].AudioPath)

	doneA, err := f.store.Read(recA.ID)
	require.NoError(t, err)
	doneB, err := f.store.Read(recB.ID)
	require.NoError(t, err)
	assert.False(t, doneB.UpdatedAt.Before(doneA.UpdatedAt), "B finishes no earlier than A")
}

func TestSearch_TitleSummaryThenSegments(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.start(t)

	recA, err := f.queue.Enqueue(f.newAudioFile(t, "greeting.mp3"), "gemini")
	require.NoError(t, err)
	waitForStatus(t, f.store, recA.ID, model.StatusCompleted)
	_, err = f.store.WriteResult(recA.ID, testutil.MakeTranscript(
		"Morning Standup", "Team sync notes.", "Hello World, welcome back"))
	require.NoError(t, err)

	recB, err := f.queue.Enqueue(f.newAudioFile(t, "cooking.mp3"), "gemini")
	require.NoError(t, err)
	doneB := waitForStatus(t, f.store, recB.ID, model.StatusCompleted)
	_, err = f.store.WriteResult(recB.ID, testutil.MakeTranscript(
		"Cooking Show", "Pasta recipes.", "Boil the water first"))
	require.NoError(t, err)
	doneB.MarkCompleted(doneB.ResultPath, "Cooking Show", "Pasta recipes.")
	require.NoError(t, f.store.Write(doneB))

	// Segment-only match: "hello" appears in A's segments while its
	// denormalized fields still carry the worker's mock title.
	results, err := f.queue.Search("hello")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, recA.ID, results[0].JobID)
	assert.Equal(t, "Morning Standup", results[0].Title, "segment hits report the transcript's title")

	// Denormalized title match, case-insensitive.
	results, err = f.queue.Search("COOKING")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, recB.ID, results[0].JobID)
	assert.Equal(t, "Cooking Show", results[0].Title)

	results, err = f.queue.Search("no-such-phrase")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = f.queue.Search("   ")
	require.NoError(t, err)
	assert.Empty(t, results, "blank query matches nothing")
}

type panickyTranscriber struct{}

func (panickyTranscriber) Transcribe(context.Context, string) (*model.Transcript, error) {
	panic("provider exploded")
}

func TestWorker_SurvivesPanickingProvider(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileJobStore(filepath.Join(dir, "jobs"), zap.NewNop())
	require.NoError(t, err)
	mock := testutil.NewMockTranscriber()
	factory := func(provider string) (api.Transcriber, error) {
		if provider == "boom" {
			return panickyTranscriber{}, nil
		}
		return mock, nil
	}
	q := NewTranscriptionQueue(store, NewDispatcher(), factory, Options{PollInterval: 10 * time.Millisecond})
	require.NoError(t, q.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = q.Stop(ctx)
	})

	bad := filepath.Join(dir, "bad.mp3")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))
	recBad, err := q.Enqueue(bad, "boom")
	require.NoError(t, err)

	failed := waitForStatus(t, store, recBad.ID, model.StatusFailed)
	assert.Contains(t, failed.Error, "TranscriptionError: internal error:")

	good := filepath.Join(dir, "good.mp3")
	require.NoError(t, os.WriteFile(good, []byte("x"), 0o644))
	recGood, err := q.Enqueue(good, "gemini")
	require.NoError(t, err)
	waitForStatus(t, store, recGood.ID, model.StatusCompleted)
}

func TestWorker_DropsQueuedIDWithoutRecord(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.start(t)

	f.queue.dispatch.Push("2026-01-01_00-00-00_99999999")

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "real.mp3"), "gemini")
	require.NoError(t, err)
	waitForStatus(t, f.store, rec.ID, model.StatusCompleted)
	assert.Equal(t, 1, f.mock.GetCallCount(), "the stale id is dropped, not processed")
}

func TestStop_FinishesInFlightJob(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.mock.WithDefaultLatency(200 * time.Millisecond)
	require.NoError(t, f.queue.Start())

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "slow.mp3"), "gemini")
	require.NoError(t, err)
	waitForStatus(t, f.store, rec.ID, model.StatusProcessing)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.queue.Stop(ctx))

	got, err := f.store.Read(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status, "in-flight job finishes before shutdown")
}

func TestStop_WithoutStartIsNoop(t *testing.T) {
	f := newQueueFixture(t, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, f.queue.Stop(ctx))
}

func TestCleanup_CapsTerminalJobs(t *testing.T) {
	f := newQueueFixture(t, Options{MaxJobs: 2})
	f.start(t)

	var ids []string
	for i := 0; i < 4; i++ {
		rec, err := f.queue.Enqueue(f.newAudioFile(t, fmt.Sprintf("a%d.mp3", i)), "gemini")
		require.NoError(t, err)
		waitForStatus(t, f.store, rec.ID, model.StatusCompleted)
		ids = append(ids, rec.ID)
	}

	require.Eventually(t, func() bool {
		records, err := f.store.List()
		return err == nil && len(records) == 2
	}, 3*time.Second, 20*time.Millisecond)

	records, err := f.store.List()
	require.NoError(t, err)
	kept := []string{records[0].ID, records[1].ID}
	assert.ElementsMatch(t, kept, ids[2:], "the newest terminal jobs survive")
}

func TestUpdateReadability(t *testing.T) {
	f := newQueueFixture(t, Options{})
	f.start(t)

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "a.mp3"), "gemini")
	require.NoError(t, err)
	done := waitForStatus(t, f.store, rec.ID, model.StatusCompleted)

	updated, err := f.queue.UpdateReadability(rec.ID, "Much easier to read.")
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.Before(done.UpdatedAt))

	detail, err := f.queue.Detail(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Much easier to read.", detail.Readability)
	require.NotNil(t, detail.Transcript)
	assert.Equal(t, "Mock Title", detail.Transcript.Title)

	_, err = f.queue.UpdateReadability("2026-01-01_00-00-00_00000000", "x")
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)
}

func TestJobDir_RequiresExistingJob(t *testing.T) {
	f := newQueueFixture(t, Options{})

	_, err := f.queue.JobDir("2026-01-01_00-00-00_00000000")
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)

	rec, err := f.queue.Enqueue(f.newAudioFile(t, "a.mp3"), "gemini")
	require.NoError(t, err)
	dir, err := f.queue.JobDir(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(rec.AudioPath), dir)
}

func TestNewJobID_Shape(t *testing.T) {
	now := time.Date(2026, 8, 22, 9, 30, 15, 0, time.UTC)
	id := newJobID(now)

	assert.True(t, len(id) == len(jobIDTimeLayout)+1+8, "timestamp + underscore + 8 hex chars")
	assert.Contains(t, id, "2026-08-22_09-30-15_")
	assert.NotEqual(t, id, newJobID(now), "same-second ids must not collide")
}
