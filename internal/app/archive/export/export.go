package export

import (
	"fmt"
	"time"

	"github.com/tealeg/xlsx"

	"audio-whisper/internal/app/model"
)

func ToExcel(entries []model.ArchiveEntry, outputFilePath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Job Outcomes")
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	headerRow.AddCell().Value = "ID"
	headerRow.AddCell().Value = "Job ID"
	headerRow.AddCell().Value = "Provider"
	headerRow.AddCell().Value = "Title"
	headerRow.AddCell().Value = "Summary"
	headerRow.AddCell().Value = "Transcription"
	headerRow.AddCell().Value = "Recorded At"
	headerRow.AddCell().Value = "Error Message"

	for _, e := range entries {
		row := sheet.AddRow()
		row.AddCell().Value = fmt.Sprint(e.ID)
		row.AddCell().Value = e.JobID
		row.AddCell().Value = e.Provider
		row.AddCell().Value = e.Title
		row.AddCell().Value = e.Summary
		row.AddCell().Value = e.Transcription
		row.AddCell().Value = e.RecordedAt.Format(time.RFC3339)
		row.AddCell().Value = e.ErrorMessage
	}

	return file.Save(outputFilePath)
}
