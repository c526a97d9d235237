package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// authMiddleware admits requests carrying a valid bearer token and puts the
// token's identity into the request context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			s.writeError(c, common.ErrMissingToken)
			return
		}

		profile, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			s.writeError(c, common.ErrInvalidToken)
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), profile))
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

// recoveryMiddleware turns a panic into the generic 500 body.
func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		s.logger.Error(c.Request.Context(), "panic recovered", "path", c.Request.URL.Path, "panic", rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Message: internalErrorMessage})
	})
}
