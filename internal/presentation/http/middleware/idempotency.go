package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/retailpos-api/internal/domain/entity"
	"github.com/sangkips/retailpos-api/internal/domain/repository"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// replay writes a stored response and reports whether one was found
func replay(c *gin.Context, repo repository.IdempotencyRepository, key, terminalID string) (bool, error) {
	existing, err := repo.GetByKey(c.Request.Context(), key, terminalID)
	if err != nil {
		return false, err
	}
	if existing == nil || existing.IsExpired() {
		return false, nil
	}

	c.Header("X-Idempotency-Replayed", "true")

	var cachedResponse map[string]interface{}
	if err := json.Unmarshal([]byte(existing.ResponseBody), &cachedResponse); err == nil {
		c.JSON(existing.ResponseCode, cachedResponse)
	} else {
		c.Data(existing.ResponseCode, "application/json", []byte(existing.ResponseBody))
	}
	c.Abort()
	return true, nil
}

func capture(c *gin.Context) *responseWriter {
	blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
	c.Writer = blw
	return blw
}

func store(c *gin.Context, repo repository.IdempotencyRepository, key, terminalID string, body *bytes.Buffer) {
	ikey := &entity.IdempotencyKey{
		Key:          key,
		TerminalID:   terminalID,
		Endpoint:     c.Request.Method + " " + c.FullPath(),
		ResponseCode: c.Writer.Status(),
		ResponseBody: body.String(),
		ExpiresAt:    time.Now().Add(IdempotencyKeyTTL),
	}
	_ = repo.Create(c.Request.Context(), ikey)
}

// Idempotency replays the stored response when a terminal repeats an
// Idempotency-Key. Requests without a key pass through. Server errors are
// not stored so the terminal can retry them.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}
		terminalID := GetTerminalID(c)

		replayed, err := replay(c, config.Repo, idempotencyKey, terminalID)
		if replayed {
			return
		}
		if err != nil {
			c.Next()
			return
		}

		blw := capture(c)
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			store(c, config.Repo, idempotencyKey, terminalID, blw.body)
		}
	}
}

// IdempotencyRequired is a stricter version that requires an idempotency key
// and only stores successful responses
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Idempotency-Key header is required for this request",
			})
			return
		}
		terminalID := GetTerminalID(c)

		replayed, err := replay(c, config.Repo, idempotencyKey, terminalID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to check idempotency key",
			})
			return
		}
		if replayed {
			return
		}

		blw := capture(c)
		c.Next()

		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			store(c, config.Repo, idempotencyKey, terminalID, blw.body)
		}
	}
}
