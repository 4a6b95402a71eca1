package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/retailpos-api/internal/domain/enum"
	"github.com/sangkips/retailpos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/retailpos-api/internal/presentation/http/middleware"
	"github.com/sangkips/retailpos-api/pkg/apperror"
)

// GetTerminalID extracts the POS terminal ID from the Gin context
func GetTerminalID(c *gin.Context) string {
	return middleware.GetTerminalID(c)
}

// bindJSON binds the request body and writes a 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return false
	}
	return true
}

// validate writes a 422 when there are field errors
func validate(c *gin.Context, errs []apperror.FieldError) bool {
	if len(errs) > 0 {
		response.ValidationError(c, errs)
		return false
	}
	return true
}

// parseChannel reads an optional print channel and writes a 400 when unknown
func parseChannel(c *gin.Context, raw string) (enum.PrintChannel, bool) {
	channel, err := enum.ParsePrintChannel(raw)
	if err != nil {
		response.BadRequest(c, err.Error())
		return enum.PrintChannelNone, false
	}
	return channel, true
}
