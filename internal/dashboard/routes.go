package dashboard

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/induction/internal/auth"
)

// registerRoutes sets up all routes on the Gin router.
func registerRoutes(router *gin.Engine, s *server) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/login", s.handleLoginForm)
	router.POST("/login", s.handleLogin)
	router.GET("/logout", s.handleLogout)
	router.POST("/logout", s.handleLogout)

	// Pages.
	pages := router.Group("/", auth.RequireSession(s.codec, s.sessions))
	pages.GET("/ranklist", s.handleRanklist)
	pages.GET("/train/:id", s.handleTrainDetail)
	pages.POST("/train/:id", s.handleTrainEdit)
	pages.GET("/upload", s.handleUploadForm)
	pages.POST("/upload", s.handleUpload)

	// JSON API.
	api := router.Group("/api", auth.RequireAPISession(s.codec, s.sessions))
	api.POST("/import", s.handleImport)
	api.POST("/chat", s.handleChat)
	api.POST("/extract_certificate", s.handleExtractCertificate)
	api.GET("/report", s.handleReport)
	api.GET("/events", s.handleSSE)
}
