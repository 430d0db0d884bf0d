package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"audio-whisper/internal/app/api"
	"audio-whisper/internal/app/model"
	"audio-whisper/internal/app/queue"
	"audio-whisper/internal/app/testutil"
)

type batchFixture struct {
	enqueuer *Enqueuer
	queue    *queue.TranscriptionQueue
	mock     *testutil.MockTranscriber
	dir      string
}

func newBatchFixture(t *testing.T) *batchFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := queue.NewFileJobStore(filepath.Join(dir, "jobs"), zap.NewNop())
	require.NoError(t, err)

	mock := testutil.NewMockTranscriber()
	factory := func(string) (api.Transcriber, error) { return mock, nil }

	q := queue.NewTranscriptionQueue(store, queue.NewDispatcher(), factory, queue.Options{
		PollInterval: 10 * time.Millisecond,
		Logger:       zap.NewNop(),
	})
	require.NoError(t, q.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = q.Stop(ctx)
	})

	enqueuer := NewEnqueuer(q, ProgressConfig{Enabled: false})
	enqueuer.pollInterval = 20 * time.Millisecond
	t.Cleanup(enqueuer.Close)

	return &batchFixture{enqueuer: enqueuer, queue: q, mock: mock, dir: dir}
}

func (f *batchFixture) newAudioDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := filepath.Join(f.dir, "incoming")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("fake-audio"), 0o644))
	}
	return dir
}

func TestEnqueueDir(t *testing.T) {
	f := newBatchFixture(t)
	dir := f.newAudioDir(t, "one.mp3", "two.m4a", "notes.txt")

	records, err := f.enqueuer.EnqueueDir(dir, "gemini")
	require.NoError(t, err)
	require.Len(t, records, 2, "only audio files should be enqueued")

	for _, rec := range records {
		assert.Equal(t, "gemini", rec.Provider)
		// The source files were moved into their job directories.
		assert.NotContains(t, rec.AudioPath, "incoming")
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].Name())
}

func TestEnqueueDir_Empty(t *testing.T) {
	f := newBatchFixture(t)
	dir := f.newAudioDir(t)

	records, err := f.enqueuer.EnqueueDir(dir, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEnqueueDir_MissingDir(t *testing.T) {
	f := newBatchFixture(t)

	_, err := f.enqueuer.EnqueueDir(filepath.Join(f.dir, "nope"), "")
	require.Error(t, err)
}

func TestWaitForJobs(t *testing.T) {
	f := newBatchFixture(t)
	dir := f.newAudioDir(t, "a.mp3", "b.mp3", "c.mp3")

	records, err := f.enqueuer.EnqueueDir(dir, "")
	require.NoError(t, err)
	require.Len(t, records, 3)

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	completed, failed, err := f.enqueuer.WaitForJobs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 3, completed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 3, f.mock.GetCallCount())
}

func TestWaitForJobs_CountsFailures(t *testing.T) {
	f := newBatchFixture(t)
	f.mock.WithDefaultError(assert.AnError)
	dir := f.newAudioDir(t, "a.mp3", "b.mp3")

	records, err := f.enqueuer.EnqueueDir(dir, "")
	require.NoError(t, err)

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	completed, failed, err := f.enqueuer.WaitForJobs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 0, completed)
	assert.Equal(t, 2, failed)

	for _, id := range ids {
		rec, err := f.queue.Get(id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusFailed, rec.Status)
	}
}

func TestWaitForJobs_ContextCancelled(t *testing.T) {
	f := newBatchFixture(t)
	f.mock.WithDefaultLatency(2 * time.Second)
	dir := f.newAudioDir(t, "slow.mp3")

	records, err := f.enqueuer.EnqueueDir(dir, "")
	require.NoError(t, err)

	ids := []string{records[0].ID}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, _, err = f.enqueuer.WaitForJobs(ctx, ids)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitForJobs_NoIDs(t *testing.T) {
	f := newBatchFixture(t)

	completed, failed, err := f.enqueuer.WaitForJobs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Zero(t, failed)
}
