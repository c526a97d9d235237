package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "Internal server error"

type errorResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends the JSON error body. Only *common.Error messages reach the
// client; everything else is logged and reported as a generic 500.
func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)

	var ce *common.Error
	if status == http.StatusInternalServerError || !errors.As(err, &ce) {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Message: internalErrorMessage})
		return
	}

	c.AbortWithStatusJSON(status, errorResponse{Message: ce.Message})
}
