package routes

import (
	"github.com/gin-gonic/gin"

	"whisper-api/internal/api/middleware"
	"whisper-api/internal/api/v1/handlers"
)

// HandlerContainer holds the handlers exposed by the service. Jobs is nil when the
// history log is disabled.
type HandlerContainer struct {
	Transcription *handlers.TranscriptionHandler
	Jobs          *handlers.JobsHandler
}

// RegisterRoutes registers the public health probe and the token-protected routes.
func RegisterRoutes(router gin.IRouter, container *HandlerContainer, apiToken string) {
	router.GET("/health", handlers.Health)

	protected := router.Group("", middleware.BearerAuth(apiToken))
	{
		protected.POST("/transcribe", container.Transcription.Transcribe)
		if container.Jobs != nil {
			protected.GET("/jobs", container.Jobs.List)
		}
	}
}
