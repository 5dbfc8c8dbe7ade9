package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platebridge/portal/internal/api"
	"github.com/platebridge/portal/internal/config"
	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/db"
	"github.com/platebridge/portal/internal/logging"
	"github.com/platebridge/portal/internal/metrics"
	"github.com/platebridge/portal/internal/model"
	"github.com/platebridge/portal/internal/platform"
	"github.com/platebridge/portal/internal/seed"
	"github.com/platebridge/portal/internal/storage"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "create-admin":
			createAdmin(os.Args[2:])
			return
		case "seed":
			runSeed(os.Args[2:])
			return
		}
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations/core", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("portal-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	metrics.RegisterPgxPoolMetrics(pool)

	var snapshots *storage.SnapshotStore
	if cfg.SnapshotBucket != "" {
		snapshots = storage.NewSnapshotStore(
			logger,
			cfg.SnapshotBucket,
			cfg.SnapshotEndpoint,
			cfg.SnapshotRegion,
			cfg.SnapshotAccessKey,
			cfg.SnapshotSecretKey,
			time.Duration(cfg.SnapshotURLTTLSec)*time.Second,
		)
		logger.Info().Str("bucket", cfg.SnapshotBucket).Msg("snapshot storage enabled")
	}

	srv := api.NewServer(logger, pool, cfg, snapshots)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting portal API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "seeds/portal/dev.yaml", "Seed fixture file")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := seed.Run(ctx, pool, *configPath, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}
	logger.Info().Msg("seed complete")
}

func createAdmin(args []string) {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "Email for the admin account (required)")
	password := fs.String("password", "", "Password for the admin account (required)")
	name := fs.String("name", "", "Display name")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "error: --email and --password are required")
		fmt.Fprintln(os.Stderr, "usage: portal-api create-admin --email <email> --password <password> [--name <name>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	hash, err := core.HashArgon2(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to hash password: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           platform.NewID(),
		Email:        *email,
		PasswordHash: hash,
		DisplayName:  *name,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	svc := core.NewUserService(pool)
	if err := svc.Create(ctx, user); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin account created.\n\n")
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  ID:    %s\n", user.ID)
}
