package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "jobs/2026-01-02_10-00-00_abcd1234/transcription.json",
		objectKey("2026-01-02_10-00-00_abcd1234", "transcription.json"))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/json", contentTypeFor("/data/jobs/x/transcription.json"))
	assert.Equal(t, "text/plain", contentTypeFor("/data/jobs/x/summary.txt"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("/data/jobs/x/audio.mp3"))
}

func TestMirrorConfigDefaults(t *testing.T) {
	var cfg MirrorConfig
	cfg.applyDefaults()
	assert.Equal(t, "localhost:9000", cfg.Endpoint)
	assert.Equal(t, "a2t-jobs", cfg.Bucket)
	assert.Equal(t, "minioadmin", cfg.AccessKey)
}

func TestNoopArtifactStore(t *testing.T) {
	s := NewNoopArtifactStore()
	assert.NoError(t, s.MirrorResult(context.Background(), "job-1", []string{"/does/not/exist"}))
	assert.Equal(t, "/storage/jobs/job-1/summary.txt", s.ObjectURL("job-1", "summary.txt"))
}
