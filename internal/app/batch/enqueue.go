package batch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"audio-whisper/internal/app/model"
	"audio-whisper/internal/app/queue"
	"audio-whisper/internal/app/util/files"
)

const defaultWaitPollInterval = 500 * time.Millisecond

// Enqueuer feeds audio files into the transcription queue in bulk and can
// block until the worker has drained them.
type Enqueuer struct {
	queue           *queue.TranscriptionQueue
	progressManager *ProgressManager
	pollInterval    time.Duration
}

func NewEnqueuer(q *queue.TranscriptionQueue, config ProgressConfig) *Enqueuer {
	return &Enqueuer{
		queue:           q,
		progressManager: NewProgressManager(config),
		pollInterval:    defaultWaitPollInterval,
	}
}

func (e *Enqueuer) Close() {
	e.progressManager.Shutdown()
}

// EnqueueDir enqueues every audio file found in dir, oldest first, and
// returns the created records in enqueue order. Files that fail to enqueue
// are logged and skipped.
func (e *Enqueuer) EnqueueDir(dir string, provider string) ([]*model.JobRecord, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve directory %s: %w", dir, err)
	}

	fileInfos, err := files.GetAllAudioFiles(absDir)
	if err != nil {
		return nil, err
	}
	if len(fileInfos) == 0 {
		log.Printf("No audio files found in %s\n", absDir)
		return nil, nil
	}

	log.Printf("Found %d audio files to enqueue in %s\n", len(fileInfos), absDir)

	progressBar := e.progressManager.CreateBar(len(fileInfos), "Enqueueing")
	defer e.progressManager.Wait()
	defer progressBar.Complete()

	var records []*model.JobRecord
	for _, f := range fileInfos {
		rec, err := e.queue.Enqueue(f.FullPath, provider)
		progressBar.Increment()
		if err != nil {
			log.Printf("Error enqueueing file %s: %v\n", f.Name, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// WaitForJobs blocks until every listed job reaches a terminal status,
// polling the queue between checks. It returns how many completed and how
// many failed.
func (e *Enqueuer) WaitForJobs(ctx context.Context, ids []string) (completed int, failed int, err error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}

	progressBar := e.progressManager.CreateBar(len(ids), "Transcribing")
	defer e.progressManager.Wait()
	defer progressBar.Complete()

	pending := make(map[string]bool, len(ids))
	for _, id := range ids {
		pending[id] = true
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return completed, failed, ctx.Err()
		case <-ticker.C:
		}

		for id := range pending {
			rec, err := e.queue.Get(id)
			if err != nil {
				// Job vanished underneath us, count it as failed.
				log.Printf("Error polling job %s: %v\n", id, err)
				delete(pending, id)
				failed++
				progressBar.Increment()
				continue
			}
			switch rec.Status {
			case model.StatusCompleted:
				delete(pending, id)
				completed++
				progressBar.Increment()
			case model.StatusFailed:
				delete(pending, id)
				failed++
				progressBar.Increment()
			}
		}
	}
	return completed, failed, nil
}
