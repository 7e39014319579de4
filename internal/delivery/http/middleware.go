package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLoggerMiddleware tags every request with a short id and logs its
// start and completion.
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := uuid.NewString()[:8]
		c.Set("request_id", reqID)

		log.Printf("[%s] START %s %s", reqID, c.Request.Method, c.Request.URL.Path)
		c.Next()
		log.Printf("[%s] COMPLETE %d", reqID, c.Writer.Status())
	}
}

// RecoveryMiddleware converts panics into a generic internal error response,
// leaking no internal detail to the caller.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("unhandled panic: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
