package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"whisper-api/internal/api/errors"
)

const bearerPrefix = "Bearer "

// BearerAuth rejects requests whose Authorization header does not carry token.
func BearerAuth(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) {
			HandleError(c, errors.NewUnauthorizedError(errors.MessageUnauthorized))
			return
		}
		presented := []byte(strings.TrimPrefix(auth, bearerPrefix))
		if len(expected) == 0 || subtle.ConstantTimeCompare(presented, expected) != 1 {
			HandleError(c, errors.NewUnauthorizedError(errors.MessageUnauthorized))
			return
		}
		c.Next()
	}
}
