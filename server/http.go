package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Router 暴露 WebSocket 入口与运维接口（/healthz /rooms /metrics）
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(s.log))

	r.GET("/ws", func(c *gin.Context) { s.HandleWS(c.Writer, c.Request) })
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"rooms":       s.rooms.Snapshot(),
			"connections": s.ConnCount(),
		})
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"rooms":   s.rooms.Len(),
			"metrics": s.metrics.Snapshot(),
		})
	})
	return r
}

// accessLog 以 debug 级别记录每个 HTTP 请求
func accessLog(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("http",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
