package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recoveryMiddleware(), s.requestLogger())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running!")
	})
	r.GET("/ping", s.ping)

	api := r.Group("/api/auth")
	api.POST("/login", s.login)
	api.POST("/register", s.register)
	api.POST("/google", s.googleLogin)

	guarded := api.Group("", s.authMiddleware())
	guarded.POST("/settings", s.updateSettings)
	guarded.GET("/verify", s.verify)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	return r
}
