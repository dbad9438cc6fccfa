package handlers

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sentix/logging"
)

// RequestLogger logs each request through the application logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Microsecond))
	}
}

// Router wires the pages, the JSON API and static assets.
func Router(h *Handler, tmpl *template.Template, static http.FileSystem) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", static)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard")
	})

	r.GET("/dashboard", h.Dashboard)
	r.POST("/refresh", h.Refresh)
	r.POST("/select/:symbol", h.Select)
	r.POST("/view", h.SetView)

	api := r.Group("/api")
	{
		api.GET("/analysis", h.GetAnalysis)
		api.POST("/refresh", h.StartRefresh)
		api.POST("/select", h.SelectStock)
		api.POST("/view", h.ChangeView)
		api.GET("/scans", h.GetScans)
		api.GET("/health", h.Health)
	}

	return r
}
