package handler

import (
	"embed"

	"github.com/gin-gonic/gin"

	"sales-deck-generator/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewRouter mounts the browser form at / and the JSON API under /api.
func NewRouter(h *SalesDeckHandler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(allowedOrigins))
	r.SetHTMLTemplate(Templates())
	r.MaxMultipartMemory = 32 << 20

	r.GET("/", h.ShowForm)
	r.POST("/submit", h.SubmitForm)
	r.POST("/reset", h.ResetForm)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/progress/:sessionId", h.GetProgress)

		auth := api.Group("", middleware.JWTAuth(h.jwtSecret))
		auth.POST("/sessions", h.CreateSession)
		auth.GET("/sessions/:sessionId", h.GetSession)
		auth.PUT("/sessions/:sessionId/fields", h.UpdateFields)
		auth.POST("/sessions/:sessionId/logo", h.UploadLogo)
		auth.DELETE("/sessions/:sessionId/logo", h.DeleteLogo)
		auth.POST("/sessions/:sessionId/submit", h.Submit)
		auth.POST("/sessions/:sessionId/reset", h.Reset)
		auth.POST("/sessions/:sessionId/archive", h.Archive)
	}

	return r
}
