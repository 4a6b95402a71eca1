package middleware

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// TerminalIDHeader identifies the POS terminal making the request
	TerminalIDHeader = "X-Terminal-ID"

	terminalIDKey = "terminal_id"
)

var terminalIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)

// TerminalMiddleware resolves the calling terminal from the X-Terminal-ID
// header, falling back to the client IP when the header is absent or invalid.
func TerminalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		terminalID := strings.TrimSpace(c.GetHeader(TerminalIDHeader))
		if !terminalIDPattern.MatchString(terminalID) {
			terminalID = "ip-" + c.ClientIP()
		}
		c.Set(terminalIDKey, terminalID)
		c.Next()
	}
}

// GetTerminalID extracts the terminal ID from the Gin context
func GetTerminalID(c *gin.Context) string {
	if v, ok := c.Get(terminalIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return "ip-" + c.ClientIP()
}
