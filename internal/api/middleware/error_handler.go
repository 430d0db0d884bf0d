package middleware

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	apierrors "audio-whisper/internal/api/errors"
	apperrors "audio-whisper/internal/app/errors"
)

// ErrorHandler middleware handles errors consistently across the API
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString("request_id")

		var apiErr *apierrors.APIError

		switch err := recovered.(type) {
		case *apierrors.APIError:
			apiErr = err
			apiErr.RequestID = requestID
		case error:
			// Log the original error for debugging
			logger.Error("Internal server error",
				"error", err.Error(),
				"request_id", requestID,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)

			// Return a generic internal error to the client
			apiErr = &apierrors.APIError{
				Kind:      apierrors.KindInternal,
				Message:   "Internal server error",
				RequestID: requestID,
			}
		default:
			// Handle panics that aren't errors
			logger.Error("Unknown panic occurred",
				"recovered", recovered,
				"request_id", requestID,
			)

			apiErr = &apierrors.APIError{
				Kind:      apierrors.KindInternal,
				Message:   "Internal server error",
				RequestID: requestID,
			}
		}

		// Set response headers
		c.Header("Content-Type", "application/json")

		// Return the error response
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError is a helper function for handlers to return errors
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if apiErr, ok := err.(*apierrors.APIError); ok {
		respondError(c, apiErr)
		return
	}

	if apiErr := mapJobError(err); apiErr != nil {
		respondError(c, apiErr)
		return
	}

	// If it's not a known error, panic so the error middleware can handle it
	panic(err)
}

func respondError(c *gin.Context, apiErr *apierrors.APIError) {
	apiErr.RequestID = c.GetString("request_id")
	c.Header("Content-Type", "application/json")
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}

// mapJobError translates job lifecycle errors into API errors. Unknown
// errors return nil and are treated as internal.
func mapJobError(err error) *apierrors.APIError {
	switch {
	case errors.Is(err, apperrors.ErrJobNotFound):
		return apierrors.NewNotFoundError("job")
	case errors.Is(err, apperrors.ErrResultNotFound):
		return apierrors.NewNotFoundError("transcription result")
	case errors.Is(err, apperrors.ErrJobInFlight),
		errors.Is(err, apperrors.ErrInvalidJobState):
		return apierrors.NewConflictError(err.Error())
	case errors.Is(err, apperrors.ErrProviderNotFound),
		errors.Is(err, apperrors.ErrAudioNotFound),
		errors.Is(err, apperrors.ErrUnsafeJobID):
		return apierrors.NewBadRequestError(err.Error())
	case errors.Is(err, apperrors.ErrMissingAPIKey):
		return apierrors.NewServiceUnavailableError(err.Error())
	default:
		return nil
	}
}
