package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-passport/internal/common/config"
	"room-passport/internal/common/logging"
	"room-passport/internal/common/metrics"
	"room-passport/internal/common/middleware"
	"room-passport/internal/passport/handlers"
	"room-passport/internal/passport/repository"
	"room-passport/internal/passport/service"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Room Passport Service
// ============================================================

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "passport: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	logging.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============================================================
	// Storage
	// ============================================================

	db, err := repository.OpenSQLite(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(ctx); err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	if cfg.Seed.File != "" {
		seed, err := repository.LoadSeedFile(cfg.Seed.File)
		if err != nil {
			return err
		}
		if err := repo.Seed(ctx, seed); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Info("reference data seeded", logging.String("file", cfg.Seed.File))
	}
	if err := repo.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	media := service.NewFileStorage(cfg.Storage.MediaDir)
	if err := media.EnsureDir(media.Root()); err != nil {
		return err
	}

	artifacts, err := newArtifactStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	// ============================================================
	// Services
	// ============================================================

	m := metrics.New()

	templates := service.NewTemplateSource(cfg.Template.Path, log)
	if _, err := templates.Template(); err != nil {
		log.Warn("template not loaded yet", logging.Err(err))
	}
	if cfg.Template.Watch {
		go func() {
			if err := templates.Watch(ctx); err != nil {
				log.Error("template watcher stopped", logging.Err(err))
			}
		}()
	}

	loader := service.NewLoader(repo, repo, repo)
	assembler := service.NewAssembler(loader, templates, media, cfg.Document.ImageWidth)
	passports := service.NewPassportStore(repo, artifacts, assembler, log, m)
	schemas := service.NewSchemaService(repo, media, log, m)
	auth := service.NewAuthService(repo, service.NewSessionManager(cfg.Auth.SessionTTL))

	if n, err := passports.Reconcile(ctx); err != nil {
		log.Warn("reconciliation incomplete", logging.Int("done", n), logging.Err(err))
	} else if n > 0 {
		log.Info("reconciliation tasks replayed", logging.Int("done", n))
	}

	// ============================================================
	// HTTP
	// ============================================================

	app := fiber.New(fiber.Config{
		AppName:      "Room Passport Service",
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	app.Use(recover.New())
	app.Use(middleware.Logger(log.Named("access"), m))
	app.Use(middleware.CORS())

	handlers.NewHandler(auth, schemas, passports, repo, m, log).Routes(app)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warn("shutdown", logging.Err(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("starting passport service",
		logging.String("addr", addr),
		logging.String("env", cfg.Env),
		logging.String("storage", cfg.Storage.Backend))

	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// newArtifactStore выбирает хранилище сгенерированных документов.
func newArtifactStore(ctx context.Context, cfg config.StorageConfig) (service.ArtifactStore, error) {
	switch cfg.Backend {
	case config.BackendMinIO:
		store, err := service.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		docs := service.NewFileStorage(cfg.DocDir)
		if err := docs.EnsureDir(docs.Root()); err != nil {
			return nil, err
		}
		return docs, nil
	}
}
