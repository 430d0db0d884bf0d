package routes

import (
	"github.com/gin-gonic/gin"

	"audio-whisper/internal/api/v1/handlers"
	"audio-whisper/internal/app/queue"
)

// RegisterRoutes registers all v1 API routes. rateLimit guards enqueue only
// and may be nil.
func RegisterRoutes(router *gin.RouterGroup, q *queue.TranscriptionQueue, rateLimit gin.HandlerFunc) {
	jobsHandler := handlers.NewJobsHandler(q)

	jobs := router.Group("/transcription_jobs")
	{
		if rateLimit != nil {
			jobs.POST("", rateLimit, jobsHandler.Enqueue)
		} else {
			jobs.POST("", jobsHandler.Enqueue)
		}
		jobs.GET("", jobsHandler.List)
		jobs.GET("/:id", jobsHandler.Get)
		jobs.DELETE("/:id", jobsHandler.Delete)
		jobs.POST("/:id/retry", jobsHandler.Retry)
		jobs.PUT("/:id/readability", jobsHandler.UpdateReadability)
		jobs.POST("/:id/open", jobsHandler.Open)
	}

	transcriptions := router.Group("/transcriptions")
	{
		transcriptions.GET("/search", jobsHandler.Search)
	}
}
