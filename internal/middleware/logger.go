package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDKey is the gin context key the request handlers read the ID from.
const requestIDKey = "request_id"

// RequestID tags every request with an X-Request-ID, reusing the caller's
// header when present so IDs survive proxies.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Logger writes one line per request in the component-prefixed format the
// services use, so cycle logs and request logs interleave readably.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		id := c.GetString(requestIDKey)
		log.Printf("http: [%s] %s %s status=%d latency=%s",
			id, c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// Recovery recovers from handler panics and responds 500.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
