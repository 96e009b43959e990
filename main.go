package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"roomsync/logging"
	"roomsync/server"
)

// 中继服务入口：WebSocket 房间与运维接口
func main() {
	cfg := server.DefaultConfig()
	cfg.ApplyEnv()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	log := logging.New(logging.Options{FilePath: cfg.LogPath, Debug: cfg.Debug})
	defer logging.Sync(log)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(cfg, log)
	httpSrv := &http.Server{Addr: cfg.Addr, Handler: srv.Router()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.RunHeartbeatSweep(ctx)

	go func() {
		log.Infof("relay listening on %s; websocket at ws://localhost%v/ws", cfg.Addr, cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C / SIGTERM）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "err", err)
	}
	srv.Close()
}
