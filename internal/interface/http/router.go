package http

import (
	"html/template"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// newRouter serves the single callback route.
func newRouter(handler *CallbackHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
	)
	router.SetHTMLTemplate(template.Must(template.New("pages").Parse(pages)))
	router.GET("/", handler.Callback)
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
