package api

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/gorilla/mux"

	"github.com/mcoot/playermanager/internal/api/handler"
	"github.com/mcoot/playermanager/internal/api/middleware"
	"github.com/mcoot/playermanager/internal/api/response"
	"github.com/mcoot/playermanager/internal/channels"
	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/services/auth"
	"github.com/mcoot/playermanager/internal/services/commands"
	"github.com/mcoot/playermanager/internal/services/database"
	"github.com/mcoot/playermanager/internal/services/permissions"
	"github.com/mcoot/playermanager/internal/services/players"
)

// DefaultLoginRatePerMinute limits login attempts per client IP
const DefaultLoginRatePerMinute = 10

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	Store              *database.Store
	Players            *players.Service
	AuthService        *auth.Service
	Permissions        *permissions.Engine
	Dispatcher         *commands.Dispatcher
	Registry           *channels.Registry
	WebSocket          http.Handler
	Events             http.Handler
	LoginRatePerMinute int
	// TrustedProxies may set X-Forwarded-For for login rate limiting
	TrustedProxies []netip.Prefix
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	if cfg.LoginRatePerMinute <= 0 {
		cfg.LoginRatePerMinute = DefaultLoginRatePerMinute
	}

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Players)
	userHandler := handler.NewUserHandler(cfg.AuthService)
	whitelistHandler := handler.NewListHandler(cfg.Store.Whitelist(), cfg.Logger)
	banlistHandler := handler.NewListHandler(cfg.Store.Banlist(), cfg.Logger)
	commandHandler := handler.NewCommandHandler(cfg.Dispatcher)

	// Create middleware
	permissionsMiddleware := middleware.Permissions(cfg.Permissions)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute)
	loginLimiter.TrustProxies(cfg.TrustedProxies)

	require := func(action string, h http.HandlerFunc) http.Handler {
		return middleware.RequireCluster(action)(h)
	}

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Reporting channels
	if cfg.WebSocket != nil {
		r.Handle("/ws/instance", cfg.WebSocket).Methods(http.MethodGet)
	}

	// Legacy player list used by existing pages
	r.HandleFunc("/api/playerManager/playerList", playerHandler.List).Methods(http.MethodGet)

	// API subrouter; every route sees the caller's resolved permissions
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(permissionsMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg.Registry, cfg.Players)).Methods(http.MethodGet)

	// Players
	api.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	if cfg.Events != nil {
		api.Handle("/players/events", cfg.Events).Methods(http.MethodGet)
	}
	api.HandleFunc("/players/{name}", playerHandler.Get).Methods(http.MethodGet)
	api.Handle("/players/{name}", require(model.ActionEditPlayers, playerHandler.Delete)).Methods(http.MethodDelete)

	// Sessions and users
	api.Handle("/users/login", loginLimiter.Middleware(http.HandlerFunc(userHandler.Login))).Methods(http.MethodPost)
	api.Handle("/users/logout", middleware.RequireAuthenticated(http.HandlerFunc(userHandler.Logout))).Methods(http.MethodPost)
	api.HandleFunc("/permissions", userHandler.Permissions).Methods(http.MethodGet)
	api.HandleFunc("/users", userHandler.List).Methods(http.MethodGet)
	api.Handle("/users", require(model.ActionCreateUsers, userHandler.Create)).Methods(http.MethodPost)
	api.HandleFunc("/users/{name}", userHandler.Update).Methods(http.MethodPatch)

	// Whitelist and banlist
	api.Handle("/whitelist", require(model.ActionReadWhitelist, whitelistHandler.List)).Methods(http.MethodGet)
	api.Handle("/whitelist", require(model.ActionEditWhitelist, whitelistHandler.Add)).Methods(http.MethodPost)
	api.Handle("/whitelist/{name}", require(model.ActionEditWhitelist, whitelistHandler.Remove)).Methods(http.MethodDelete)
	api.Handle("/banlist", require(model.ActionReadBanlist, banlistHandler.List)).Methods(http.MethodGet)
	api.Handle("/banlist", require(model.ActionEditBanlist, banlistHandler.Add)).Methods(http.MethodPost)
	api.Handle("/banlist/{name}", require(model.ActionEditBanlist, banlistHandler.Remove)).Methods(http.MethodDelete)

	// Commands
	api.Handle("/commands", require(model.ActionRunCommand, commandHandler.Broadcast)).Methods(http.MethodPost)

	return r
}

func healthHandler(registry *channels.Registry, players *players.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{
			Status:   "ok",
			Channels: registry.Len(),
			Players:  len(players.List()),
		})
	}
}
