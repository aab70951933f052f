package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"whisper-api/internal/api/errors"
	"whisper-api/internal/api/middleware"
	"whisper-api/internal/api/v1/dto"
	"whisper-api/internal/app/api"
	"whisper-api/internal/app/scheduler"
	"whisper-api/internal/app/util/files"
)

// UploadField is the multipart field carrying the audio file.
const UploadField = "file"

// Normalizer converts an uploaded file into the engine's input format.
type Normalizer interface {
	Normalize(ctx context.Context, sourcePath string) (string, error)
}

// Gateway submits a normalized input and waits for its transcript.
type Gateway interface {
	Transcribe(ctx context.Context, input string, opts api.Options) (scheduler.Result, error)
}

// TranscriptionHandler serves POST /transcribe.
type TranscriptionHandler struct {
	normalizer     Normalizer
	gateway        Gateway
	uploadDir      string
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewTranscriptionHandler creates a new transcription handler. Uploads are staged in
// uploadDir (the system temp dir when empty); maxUploadBytes <= 0 disables the limit.
func NewTranscriptionHandler(normalizer Normalizer, gateway Gateway, uploadDir string, maxUploadBytes int64, logger *slog.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		normalizer:     normalizer,
		gateway:        gateway,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Transcribe handles POST /transcribe
// Stages the upload, normalizes it and waits for the queued transcription.
func (h *TranscriptionHandler) Transcribe(c *gin.Context) {
	var query dto.TranscribeQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	file, header, err := c.Request.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			middleware.HandleError(c, errors.NewBadRequestError(
				fmt.Sprintf("Upload exceeds the %d MB limit", tooLarge.Limit>>20)))
			return
		}
		middleware.HandleError(c, errors.NewValidationError("No file uploaded", map[string]string{
			UploadField: "is required",
		}))
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	requestID := c.GetString(middleware.RequestIDKey)

	source, err := files.StageUpload(file, header.Filename, h.uploadDir)
	if err != nil {
		h.logger.Error("Failed to stage upload", "request_id", requestID, "error", err)
		middleware.HandleError(c, errors.NewInternalError("Failed to store upload"))
		return
	}

	normalized, err := h.normalizer.Normalize(ctx, source)
	if rmErr := files.RemoveIfExists(source); rmErr != nil {
		h.logger.Warn("Failed to remove staged upload", "request_id", requestID, "path", source, "error", rmErr)
	}
	if err != nil {
		h.logger.Warn("Audio normalization failed", "request_id", requestID, "filename", header.Filename, "error", err)
		middleware.HandleError(c, err)
		return
	}

	result, err := h.gateway.Transcribe(ctx, normalized, query.Options())
	if err != nil {
		h.logger.Warn("Transcription failed", "request_id", requestID, "task_id", result.JobID, "error", err)
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TranscriptionResponse{
		TaskID: result.JobID,
		Text:   result.Text,
	})
}
