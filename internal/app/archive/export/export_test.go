package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"audio-whisper/internal/app/model"
)

func TestToExcel(t *testing.T) {
	entries := []model.ArchiveEntry{
		{
			ID:            1,
			JobID:         "2026-01-02_10-00-00_abcd1234",
			Provider:      "gemini",
			Title:         "Standup",
			Summary:       "We synced.",
			Transcription: "hello world",
			RecordedAt:    time.Date(2026, 1, 2, 10, 1, 0, 0, time.UTC),
		},
		{
			ID:           2,
			JobID:        "2026-01-02_10-05-00_beef5678",
			Provider:     "openai",
			RecordedAt:   time.Date(2026, 1, 2, 10, 6, 0, 0, time.UTC),
			ErrorMessage: "TranscriptionError: timeout",
		},
	}

	outPath := filepath.Join(t.TempDir(), "outcomes.xlsx")
	require.NoError(t, ToExcel(entries, outPath))

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	file, err := xlsx.OpenFile(outPath)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 3) // header + two entries
	assert.Equal(t, "Job ID", sheet.Rows[0].Cells[1].Value)
	assert.Equal(t, "2026-01-02_10-00-00_abcd1234", sheet.Rows[1].Cells[1].Value)
	assert.Equal(t, "Standup", sheet.Rows[1].Cells[3].Value)
	assert.Equal(t, "TranscriptionError: timeout", sheet.Rows[2].Cells[7].Value)
}

func TestToExcelEmpty(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, ToExcel(nil, outPath))

	file, err := xlsx.OpenFile(outPath)
	require.NoError(t, err)
	require.Len(t, file.Sheets[0].Rows, 1)
}
