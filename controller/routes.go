package controller

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewRouter wires the page, the JSON API and the health check.
func NewRouter(web *WebController, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), CORS())
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	router.GET("/health", web.Health)

	// Browser page
	router.GET("/", web.Index)
	router.GET("/sessions/:id", web.Page)
	router.POST("/sessions/:id/upload", web.PageUpload)
	router.POST("/sessions/:id/query", web.PageQuery)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/sessions", web.CreateSession)
		apiV1.GET("/sessions/:id", web.GetSession)
		apiV1.DELETE("/sessions/:id", web.DeleteSession)
		apiV1.POST("/sessions/:id/upload", web.UploadPDF)
		apiV1.POST("/sessions/:id/query", web.Query)
	}

	return router
}

// CORS lets pages served from other origins call the API.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestLogger logs one line per request through logrus.
func RequestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Round(time.Millisecond),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn("HTTP: Request failed")
			return
		}
		entry.Debug("HTTP: Request served")
	}
}
