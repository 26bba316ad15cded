package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sessiondeck/folderdeck/internal/api"
	"github.com/sessiondeck/folderdeck/internal/app"
	"github.com/sessiondeck/folderdeck/internal/app/maintenance"
	"github.com/sessiondeck/folderdeck/internal/capability"
	"github.com/sessiondeck/folderdeck/internal/database"
	"github.com/sessiondeck/folderdeck/internal/folders"
	"github.com/sessiondeck/folderdeck/internal/realtime"
	"github.com/sessiondeck/folderdeck/internal/storage"
)

// runtimeStack bundles long-lived components used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Store     *folders.Store
	Registry  *capability.StaticRegistry
	Hub       *realtime.Hub
	Pruner    *maintenance.Pruner
	Router    *gin.Engine
	detachHub func()
}

// bootstrapRuntime initialises storage, the folder store, the realtime hub,
// background maintenance, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	success := false

	defer func() {
		if !success {
			stack.Shutdown(log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	backend, err := initialiseStorage(cfg, stack, log)
	if err != nil {
		return nil, err
	}

	stack.Store, err = folders.NewStore(backend, folders.WithDefaultColor(cfg.Folders.DefaultColor))
	if err != nil {
		return nil, fmt.Errorf("initialise folder store: %w", err)
	}
	stack.Store.Load(ctx)

	stack.Registry = capability.NewStaticRegistry()

	stack.Hub = realtime.NewHub()
	stack.detachHub = stack.Hub.Attach(stack.Store)

	if cfg.Maintenance.Enabled {
		stack.Pruner = maintenance.NewPruner(stack.Store, maintenance.WithSchedule(cfg.Maintenance.Schedule))
		if err := stack.Pruner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(stack.Store, stack.Registry, stack.Hub)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Pruner != nil {
		<-s.Pruner.Stop().Done()
		s.Pruner.RunOnce(context.Background())
	}

	if s.detachHub != nil {
		s.detachHub()
	}

	if s.Store != nil {
		s.Store.Close()
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

// initialiseStorage builds the configured document backend. The database
// backend also records the gorm handle on the stack so it can be closed.
func initialiseStorage(cfg *app.Config, stack *runtimeStack, log *zap.Logger) (capability.Storage, error) {
	switch cfg.Storage.Backend {
	case app.StorageBackendDatabase:
		db, err := database.Open(convertDatabaseConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		stack.DB = db
		log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(cfg.Database.Driver))))

		store, err := storage.NewDatabaseStore(db)
		if err != nil {
			return nil, fmt.Errorf("initialise database storage: %w", err)
		}
		return store, nil

	default:
		store, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("initialise file storage: %w", err)
		}
		log.Info("file storage ready", zap.String("dir", cfg.Storage.Dir))
		return store, nil
	}
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
