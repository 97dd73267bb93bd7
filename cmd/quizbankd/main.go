package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/mind-engage/quizbank/internal/api/http"
	auth "github.com/mind-engage/quizbank/internal/auth/middleware"
	"github.com/mind-engage/quizbank/internal/bank"
	"github.com/mind-engage/quizbank/internal/config"
	"github.com/mind-engage/quizbank/internal/db"
	"github.com/mind-engage/quizbank/internal/grading"
	"github.com/mind-engage/quizbank/internal/ratelimit"
	"github.com/mind-engage/quizbank/internal/revision"
	"github.com/mind-engage/quizbank/internal/storage"
	syncx "github.com/mind-engage/quizbank/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "mode", cfg.Mode, "err", err)
		os.Exit(1)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Error("db open failed", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Error("blob store", "path", cfg.BlobBasePath, "err", err)
		os.Exit(1)
	}

	events := syncx.NewEventRepo(dbh)
	sessions := revision.NewSessions(24 * time.Hour)
	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	if err := limiter.TrustProxies(cfg.TrustedProxies...); err != nil {
		log.Error("rate limiter", "err", err)
		os.Exit(1)
	}

	handler := api.NewRouter(api.Deps{
		Store:    bank.NewSQLStore(dbh, cfg.DBDriver),
		Blobs:    bs,
		Events:   events,
		Feed:     events,
		Sessions: sessions,
		Grader:   grading.NewDefaultGrader(),
		Auth:     auth.NewAuthService(cfg.AuthSecret),
		Creds: auth.Credentials{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			AllowDevUsers: cfg.Mode == config.ModeOffline,
		},
		Limiter:      limiter,
		DB:           dbh,
		Log:          log,
		LocalAuth:    cfg.EnableLocalAuth,
		CORSOrigins:  cfg.CORSOrigins(),
		ExportPretty: cfg.ExportPretty,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sweep(runCtx, log, sessions, limiter)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "err", err)
			stop()
		}
	}()

	<-runCtx.Done()
	log.Info("shutting down")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
}

// sweep expires abandoned revision tests and idle rate limit buckets.
func sweep(ctx context.Context, log *slog.Logger, sessions *revision.Sessions, limiter *ratelimit.Limiter) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := sessions.Sweep(now); n > 0 {
				log.Debug("expired revision tests", "count", n)
			}
			limiter.Evict()
		}
	}
}
