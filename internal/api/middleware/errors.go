package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// StatusFor maps a service error to an HTTP status and caller-facing message.
// Unknown errors become 500 with a generic message.
func StatusFor(err error) (int, string) {
	var status int
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	default:
		return http.StatusInternalServerError, "Internal server error"
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		return status, svcErr.Message
	}
	return status, err.Error()
}

// AbortWithError writes {"error": msg} for err and stops the chain. Internal
// errors are logged with tag and never shown to the caller.
func AbortWithError(c *gin.Context, err error, tag string) {
	status, message := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg(tag)
	} else if status == http.StatusForbidden {
		logger.Warn().Str("path", c.Request.URL.Path).Str("userId", GetUserID(c)).Msgf("%s DENIED: %s", tag, message)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
