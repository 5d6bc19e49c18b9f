// Command portal serves the MedicalVision clinical portal: a server-rendered
// front end over the analysis backend's REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/froonn/MedicalVision/internal/auth"
	"github.com/froonn/MedicalVision/internal/platform/config"
	"github.com/froonn/MedicalVision/internal/platform/httpserver"
	"github.com/froonn/MedicalVision/internal/platform/logger"
	"github.com/froonn/MedicalVision/internal/platform/metrics"
	"github.com/froonn/MedicalVision/internal/platform/redis"
	"github.com/froonn/MedicalVision/internal/session"
	"github.com/froonn/MedicalVision/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	var sessions session.Store
	rdb, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb.Client, cfg.SessionTTLDuration())
		log.Info("session store", "backend", "redis")
	} else {
		sessions = session.NewInMemoryStore()
		log.Info("session store", "backend", "memory")
	}

	cookies := session.NewCookieManager(
		[]byte(cfg.CookieHashKey),
		[]byte(cfg.CookieBlockKey),
		cfg.SessionTTLDuration(),
		cfg.Env == "production",
	)

	m := metrics.New(prometheus.DefaultRegisterer)

	gateway := auth.New(sessions, cfg.BackendBaseURL, cfg.BackendTimeoutDuration(), log, m)

	handler := web.NewHandler(gateway, cookies, log, m, prometheus.DefaultGatherer)
	srv := httpserver.New(cfg.Addr, handler.Router())

	go func() {
		log.Info("portal listening", "addr", cfg.Addr, "backend", cfg.BackendBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
