package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoCache disables client and proxy caching for API responses.
// Analytics responses are derived from live violation data, so a cached
// response can disagree with the scores the next request would compute.
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Writer.Header().Set("Pragma", "no-cache")
		c.Writer.Header().Set("Expires", "0")

		c.Next()
	}
}
