package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"whisper-api/internal/api/v1/dto"
)

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
