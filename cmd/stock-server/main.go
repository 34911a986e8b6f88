// Command stock-server starts the inventory REST backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/stock-keeper/internal/auth"
	"github.com/and161185/stock-keeper/internal/cache"
	"github.com/and161185/stock-keeper/internal/config"
	"github.com/and161185/stock-keeper/internal/limiter"
	"github.com/and161185/stock-keeper/internal/logger"
	"github.com/and161185/stock-keeper/internal/migrate"
	"github.com/and161185/stock-keeper/internal/repository/postgres"
	httpserver "github.com/and161185/stock-keeper/internal/server/http"
	"github.com/and161185/stock-keeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and serves the REST API until signalled.
func main() {
	cfgFile := flag.String("config", "", "YAML config file (optional)")
	envFile := flag.String("env", ".env", "dotenv file (optional)")
	logLevel := flag.String("log-level", "info", "log level")
	hashSecret := flag.String("hash-secret", "", "print the verifier for this secret and exit")
	adminKey := flag.Bool("issue-admin-key", false, "print an admin access key and exit")
	flag.Parse()

	if *hashSecret != "" {
		enc, err := auth.HashSecret(*hashSecret)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(enc)
		return
	}

	log, err := logger.New(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadServer(*cfgFile, *envFile)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	if *adminKey {
		tok, exp, err := auth.IssueKey([]byte(cfg.JWTKey), auth.RoleAdmin, cfg.KeyTTL, time.Now())
		if err != nil {
			log.Fatal("issue admin key", zap.Error(err))
		}
		fmt.Printf("%s\nexpires %s\n", tok, exp.UTC().Format(time.RFC3339))
		return
	}

	log.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.Bool("tls", cfg.TLS()),
	)

	verifier, err := auth.NewArgon2Verifier(cfg.AdminSecretHash)
	if err != nil {
		log.Fatal("admin secret hash", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		log.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		log.Fatal("pgxpool.New", zap.Error(err))
	}
	defer db.Close()

	var lists cache.ListCache = cache.Nop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		defer rc.Close()
		lists = rc
	}

	// Repositories and services
	lim := limiter.NewPG(db.Pool, limiter.DefaultPolicy)
	authSvc := service.NewAuthService(verifier, []byte(cfg.JWTKey), cfg.KeyTTL, lim)
	invSvc := service.NewInventoryService(
		postgres.NewItemRepo(db),
		postgres.NewJobSiteRepo(db),
		postgres.NewUsageRepo(db),
		lists, logger.Named(log, "inventory"), cfg.MaxBatch,
	)

	app := httpserver.New(authSvc, invSvc, db, []byte(cfg.JWTKey), logger.Named(log, "http"))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if cfg.TLS() {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("forced shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	log.Info("shutdown complete")
}
