package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"audio-whisper/internal/api/errors"
	"audio-whisper/internal/api/middleware"
	"audio-whisper/internal/api/v1/dto"
	"audio-whisper/internal/app/queue"
	"audio-whisper/internal/app/util/files"
)

// JobsHandler handles transcription job API endpoints
type JobsHandler struct {
	queue *queue.TranscriptionQueue
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(q *queue.TranscriptionQueue) *JobsHandler {
	return &JobsHandler{
		queue: q,
	}
}

// Enqueue handles POST /api/v1/transcription_jobs
// Accepts a multipart upload or a JSON body naming a server-local file
//
// @Summary Enqueue a transcription job
// @Description Uploads an audio file (multipart) or names a server-local path (JSON) and enqueues it for transcription. Returns immediately with the pending job.
// @Tags jobs
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param file formData file false "Audio file to transcribe"
// @Param provider formData string false "Transcription provider" Enums(gemini,openai)
// @Param job body dto.EnqueueJobRequest false "Server-local enqueue request"
// @Success 201 {object} dto.JobResponse "Job created and queued"
// @Failure 400 {object} errors.APIError "Bad request - no file or invalid path"
// @Failure 422 {object} errors.APIError "Validation error"
// @Failure 429 {object} errors.APIError "Rate limited"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /transcription_jobs [post]
func (h *JobsHandler) Enqueue(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		h.enqueueUpload(c)
		return
	}

	var req dto.EnqueueJobRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	rec, err := h.queue.Enqueue(req.AudioPath, req.Provider)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToJobResponse(rec))
}

// enqueueUpload spools the uploaded file into the incoming directory so the
// queue can move it into the job directory.
func (h *JobsHandler) enqueueUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("No file uploaded"))
		return
	}

	incomingDir, err := h.queue.IncomingDir()
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".wav"
	}
	name := fmt.Sprintf("upload_%s_%s%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8], ext)
	spoolPath := filepath.Join(incomingDir, name)

	if err := c.SaveUploadedFile(file, spoolPath); err != nil {
		middleware.HandleError(c, errors.NewInternalError("Failed to save uploaded file"))
		return
	}

	rec, err := h.queue.Enqueue(spoolPath, c.PostForm("provider"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToJobResponse(rec))
}

// List handles GET /api/v1/transcription_jobs
//
// @Summary List transcription jobs
// @Description Retrieves all jobs, newest first
// @Tags jobs
// @Produce json
// @Success 200 {object} dto.JobListResponse "List of jobs"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Header 200 {string} X-Total-Count "Total number of jobs"
// @Router /transcription_jobs [get]
func (h *JobsHandler) List(c *gin.Context) {
	recs, err := h.queue.List()
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	response := dto.ToJobListResponse(recs)
	c.Header("X-Total-Count", strconv.Itoa(response.Total))
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/transcription_jobs/:id
//
// @Summary Get job detail
// @Description Retrieves a job with its transcript and readability text when present
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.JobDetailResponse "Job detail"
// @Failure 404 {object} errors.APIError "Job not found"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /transcription_jobs/{id} [get]
func (h *JobsHandler) Get(c *gin.Context) {
	detail, err := h.queue.Detail(c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobDetailResponse(detail))
}

// Delete handles DELETE /api/v1/transcription_jobs/:id
//
// @Summary Delete a job
// @Description Removes a terminal job and its artifacts. Pending and processing jobs cannot be deleted.
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 204 "Job deleted"
// @Failure 404 {object} errors.APIError "Job not found"
// @Failure 409 {object} errors.APIError "Job is pending or processing"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /transcription_jobs/{id} [delete]
func (h *JobsHandler) Delete(c *gin.Context) {
	if err := h.queue.Delete(c.Param("id")); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Retry handles POST /api/v1/transcription_jobs/:id/retry
//
// @Summary Retry a failed job
// @Description Resets a failed job to pending and requeues it
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.JobResponse "Job requeued"
// @Failure 404 {object} errors.APIError "Job not found"
// @Failure 409 {object} errors.APIError "Job is not in failed state"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /transcription_jobs/{id}/retry [post]
func (h *JobsHandler) Retry(c *gin.Context) {
	rec, err := h.queue.Retry(c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobResponse(rec))
}

// UpdateReadability handles PUT /api/v1/transcription_jobs/:id/readability
//
// @Summary Store readability text for a job
// @Description Writes the enhanced transcript text into the job directory
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param readability body dto.UpdateReadabilityRequest true "Enhanced text"
// @Success 200 {object} dto.JobResponse "Readability stored"
// @Failure 404 {object} errors.APIError "Job not found"
// @Failure 422 {object} errors.APIError "Validation error"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /transcription_jobs/{id}/readability [put]
func (h *JobsHandler) UpdateReadability(c *gin.Context) {
	var req dto.UpdateReadabilityRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	rec, err := h.queue.UpdateReadability(c.Param("id"), req.Text)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToJobResponse(rec))
}

// Open handles POST /api/v1/transcription_jobs/:id/open
// The server doubles as a desktop companion, so this reveals the job
// directory in the local file manager and returns its path.
//
// @Summary Open the job directory
// @Description Reveals the job directory in the local file manager and returns its path
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.JobDirResponse "Job directory"
// @Failure 404 {object} errors.APIError "Job not found"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /transcription_jobs/{id}/open [post]
func (h *JobsHandler) Open(c *gin.Context) {
	id := c.Param("id")
	dir, err := h.queue.JobDir(id)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	if err := files.RevealDir(dir); err != nil {
		middleware.HandleError(c, errors.NewInternalError("Failed to open folder"))
		return
	}

	c.JSON(http.StatusOK, dto.JobDirResponse{ID: id, Dir: dir})
}

// Search handles GET /api/v1/transcriptions/search
//
// @Summary Search transcriptions
// @Description Case-insensitive search across titles, summaries and segment text
// @Tags jobs
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} dto.SearchResponse "Search results"
// @Failure 400 {object} errors.APIError "Missing query"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /transcriptions/search [get]
func (h *JobsHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	results, err := h.queue.Search(query.Q)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSearchResponse(results))
}
