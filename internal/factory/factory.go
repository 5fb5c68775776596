package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/playermanager/internal/channels"
	"github.com/mcoot/playermanager/internal/config"
	"github.com/mcoot/playermanager/internal/dependencies/clock"
	"github.com/mcoot/playermanager/internal/dependencies/random"
	"github.com/mcoot/playermanager/internal/services/auth"
	"github.com/mcoot/playermanager/internal/services/commands"
	"github.com/mcoot/playermanager/internal/services/database"
	"github.com/mcoot/playermanager/internal/services/permissions"
	"github.com/mcoot/playermanager/internal/services/players"
	"github.com/mcoot/playermanager/internal/services/polling"
	"github.com/mcoot/playermanager/internal/services/snapshot"
	"github.com/mcoot/playermanager/internal/storage"
	filestorage "github.com/mcoot/playermanager/internal/storage/file"
	"github.com/mcoot/playermanager/internal/storage/memory"
	redisstorage "github.com/mcoot/playermanager/internal/storage/redis"
	"github.com/mcoot/playermanager/internal/transport/sse"
	"github.com/mcoot/playermanager/internal/transport/ws"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Core
	Store       *database.Store
	Parser      *snapshot.Parser
	Players     *players.Service
	Registry    *channels.Registry
	Scheduler   *polling.Scheduler
	Permissions *permissions.Engine
	AuthService *auth.Service
	Dispatcher  *commands.Dispatcher

	// Transport
	WebSocket *ws.Handler
	Events    *sse.Hub
}

// New creates a new application with all dependencies wired
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	// Use no-op logger if not provided
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := newStorage(cfg.Database)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, auth.Config{
		SessionDuration: cfg.Auth.SessionDuration,
	}, logger), nil
}

// newStorage selects the document backend
func newStorage(cfg config.DatabaseConfig) (storage.Storage, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return filestorage.New(cfg.Dir), nil
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Redis.URL
		redisCfg.KeyPrefix = cfg.Redis.KeyPrefix
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return store, nil
	default:
		return nil, errors.New("invalid database backend: must be 'file', 'redis' or 'memory'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	cfg config.Config,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	db := database.New(store, clk, logger.With("component", "database"), database.Config{
		PlayersPath:      cfg.Database.PlayersFile,
		WhitelistPath:    cfg.Database.WhitelistFile,
		BanlistPath:      cfg.Database.BanlistFile,
		SaveInterval:     cfg.Database.SaveInterval,
		ShutdownTimeout:  cfg.Database.ShutdownTimeout,
		ShutdownAttempts: cfg.Database.ShutdownAttempts,
	})

	parser := snapshot.New(cfg.Snapshot.Delimiters(), logger.With("component", "snapshot"))
	playerService := players.New(db, logger.With("component", "players"))
	registry := channels.NewRegistry()
	scheduler := polling.New(registry, playerService, clk, logger.With("component", "polling"), polling.Config{
		ActiveInterval: cfg.Polling.ActiveInterval,
		IdleInterval:   cfg.Polling.IdleInterval,
	})

	engine := permissions.New(db, permissions.NewStaticMaster(cfg.Auth.MasterToken), clk, logger.With("component", "permissions"))
	authService := auth.New(db, clk, rnd, logger.With("component", "auth"), authCfg)
	dispatcher := commands.New(registry, playerService, logger.With("component", "commands"), commands.Config{
		Prefix: cfg.Commands.Prefix,
	})

	events := sse.NewHub(logger.With("component", "sse"))
	go events.Run()
	broadcaster := sse.NewBroadcaster(events, playerService, logger.With("component", "sse-broadcaster"))
	playerService.AddListener(broadcaster.OnMerge)

	wsHandler := ws.NewHandler(registry, parser, playerService, scheduler, dispatcher,
		logger.With("component", "ws"), ws.DefaultConfig())

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Store:       db,
		Parser:      parser,
		Players:     playerService,
		Registry:    registry,
		Scheduler:   scheduler,
		Permissions: engine,
		AuthService: authService,
		Dispatcher:  dispatcher,
		WebSocket:   wsHandler,
		Events:      events,
	}
}

// Close ends open event streams and releases the storage backend
func (a *App) Close() error {
	a.Events.Close()
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
