package database

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/playermanager/internal/dependencies/clock"
	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/storage"
)

// Config holds document paths and flush timings
type Config struct {
	PlayersPath      string
	WhitelistPath    string
	BanlistPath      string
	SaveInterval     time.Duration
	ShutdownTimeout  time.Duration
	ShutdownAttempts int
}

// DefaultConfig returns the default database configuration
func DefaultConfig() Config {
	return Config{
		PlayersPath:      "playerManager.json",
		WhitelistPath:    "whitelist.json",
		BanlistPath:      "banlist.json",
		SaveInterval:     5 * time.Minute,
		ShutdownTimeout:  10 * time.Second,
		ShutdownAttempts: 3,
	}
}

// Store is the in-memory image of managed players, users, whitelist and
// banlist. It is the only writable copy; each record set has its own lock.
// Record sets stay nil until Load, and saving a nil set fails.
type Store struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	cfg     Config

	playersMu sync.Mutex
	players   []*model.ManagedPlayer

	usersMu sync.Mutex
	users   []*model.User

	whitelist *NameList
	banlist   *NameList
}

// New creates a new Store
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger, cfg Config) *Store {
	defaults := DefaultConfig()
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = defaults.SaveInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.ShutdownAttempts <= 0 {
		cfg.ShutdownAttempts = defaults.ShutdownAttempts
	}
	return &Store{
		storage:   storage,
		clock:     clock,
		logger:    logger,
		cfg:       cfg,
		whitelist: newNameList(DocumentWhitelist),
		banlist:   newNameList(DocumentBanlist),
	}
}

// Load reads every document. A missing or corrupt document starts empty.
func (s *Store) Load(ctx context.Context) error {
	var players playersDocument
	if s.loadDocument(ctx, DocumentPlayers, s.cfg.PlayersPath, &players) {
		players.ManagedPlayers = dropNameless(players.ManagedPlayers, s.logger)
	}
	if players.ManagedPlayers == nil {
		players.ManagedPlayers = []*model.ManagedPlayer{}
	}
	if players.Users == nil {
		players.Users = []*model.User{}
	}
	for _, u := range players.Users {
		if u.Sessions == nil {
			u.Sessions = []model.Session{}
		}
	}

	s.playersMu.Lock()
	s.players = players.ManagedPlayers
	s.playersMu.Unlock()

	s.usersMu.Lock()
	s.users = players.Users
	s.usersMu.Unlock()

	var wl whitelistDocument
	s.loadDocument(ctx, DocumentWhitelist, s.cfg.WhitelistPath, &wl)
	s.whitelist.replace(wl.Whitelist)

	var bl banlistDocument
	s.loadDocument(ctx, DocumentBanlist, s.cfg.BanlistPath, &bl)
	s.banlist.replace(bl.Banlist)

	s.logger.Info("database loaded",
		"players", len(players.ManagedPlayers),
		"users", len(players.Users),
		"whitelist", len(s.whitelist.List()),
		"banlist", len(s.banlist.List()),
	)
	return ctx.Err()
}

// loadDocument decodes one document into v and reports whether it was read.
// Absence and malformed JSON are both logged and leave v at its zero value.
func (s *Store) loadDocument(ctx context.Context, name, path string, v any) bool {
	if path == "" {
		s.logger.Warn("no path configured for document, starting empty", "document", name)
		return false
	}

	data, err := s.storage.Load(ctx, path)
	if err != nil {
		if errors.Is(err, model.ErrDocumentNotFound) {
			s.logger.Warn("document not found, starting empty", "document", name, "path", path)
		} else {
			s.logger.Warn("failed to read document, starting empty", "document", name, "path", path, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		// A type mismatch leaves every other field decoded
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			s.logger.Warn("document has fields of the wrong type, keeping the rest",
				"document", name, "path", path, "field", typeErr.Field, "error", err)
			return true
		}
		s.logger.Warn("document is corrupt, starting empty", "document", name, "path", path, "error", err)
		return false
	}
	return true
}

func dropNameless(players []*model.ManagedPlayer, logger *slog.Logger) []*model.ManagedPlayer {
	out := players[:0]
	for _, p := range players {
		if p == nil || p.Name == "" {
			logger.Warn("dropping stored player without a name")
			continue
		}
		out = append(out, p)
	}
	return out
}

// Save writes all documents concurrently. Each record set is copied under
// its own lock first, so merges are never blocked on the backend.
func (s *Store) Save(ctx context.Context) error {
	s.playersMu.Lock()
	players := clonePlayers(s.players)
	s.playersMu.Unlock()

	s.usersMu.Lock()
	users := cloneUsers(s.users)
	s.usersMu.Unlock()

	whitelist := s.whitelist.snapshot()
	banlist := s.banlist.snapshot()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if players == nil || users == nil {
			return &PersistenceError{Document: DocumentPlayers, Path: s.cfg.PlayersPath, Err: ErrNoRecordSet}
		}
		return s.saveDocument(gctx, DocumentPlayers, s.cfg.PlayersPath, playersDocument{ManagedPlayers: players, Users: users})
	})
	g.Go(func() error {
		if whitelist == nil {
			return &PersistenceError{Document: DocumentWhitelist, Path: s.cfg.WhitelistPath, Err: ErrNoRecordSet}
		}
		return s.saveDocument(gctx, DocumentWhitelist, s.cfg.WhitelistPath, whitelistDocument{Whitelist: whitelist})
	})
	g.Go(func() error {
		if banlist == nil {
			return &PersistenceError{Document: DocumentBanlist, Path: s.cfg.BanlistPath, Err: ErrNoRecordSet}
		}
		return s.saveDocument(gctx, DocumentBanlist, s.cfg.BanlistPath, banlistDocument{Banlist: banlist})
	})
	return g.Wait()
}

func (s *Store) saveDocument(ctx context.Context, name, path string, doc any) error {
	if path == "" {
		return &PersistenceError{Document: name, Err: ErrNoPath}
	}
	data, err := encode(doc)
	if err != nil {
		return &PersistenceError{Document: name, Path: path, Err: err}
	}
	if err := s.storage.Save(ctx, path, data); err != nil {
		return &PersistenceError{Document: name, Path: path, Err: err}
	}
	return nil
}

// Run saves on every interval until ctx is done. A failed save is logged
// and the next tick still happens.
func (s *Store) Run(ctx context.Context) {
	s.logger.Info("periodic save started", "interval", s.cfg.SaveInterval)
	for {
		if clock.Wait(ctx, s.clock, s.cfg.SaveInterval) != nil {
			return
		}

		if err := s.Save(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("periodic save failed", "error", err)
			continue
		}
		s.logger.Debug("periodic save complete")
	}
}

// Shutdown performs the final save, bounded by the shutdown timeout and
// retried a fixed number of times. It returns the last error.
func (s *Store) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= s.cfg.ShutdownAttempts; attempt++ {
		if err = s.saveBefore(ctx); err == nil {
			s.logger.Info("final save complete", "attempt", attempt)
			return nil
		}
		s.logger.Error("final save failed", "attempt", attempt, "error", err)
		if ctx.Err() != nil || errors.Is(err, ErrNoPath) || errors.Is(err, ErrNoRecordSet) {
			break
		}
	}
	return err
}

// saveBefore runs Save but gives up when ctx ends, even if the backend
// ignores ctx. An abandoned save keeps running in the background.
func (s *Store) saveBefore(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- s.Save(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &PersistenceError{Document: "database", Err: ctx.Err()}
	}
}

// Players returns a copy of the managed player registry
func (s *Store) Players() []*model.ManagedPlayer {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()
	out := clonePlayers(s.players)
	if out == nil {
		return []*model.ManagedPlayer{}
	}
	return out
}

// UpdatePlayers runs fn with the live registry under the players lock and
// stores the slice it returns
func (s *Store) UpdatePlayers(fn func([]*model.ManagedPlayer) []*model.ManagedPlayer) {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()
	s.players = fn(s.players)
}

// Users returns a copy of the user table
func (s *Store) Users() []*model.User {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	out := cloneUsers(s.users)
	if out == nil {
		return []*model.User{}
	}
	return out
}

// UpdateUsers runs fn with the live user table under the users lock and
// stores the slice it returns. The lock is held for the whole call.
func (s *Store) UpdateUsers(fn func([]*model.User) []*model.User) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	s.users = fn(s.users)
}

// Whitelist returns the whitelist
func (s *Store) Whitelist() *NameList {
	return s.whitelist
}

// Banlist returns the banlist
func (s *Store) Banlist() *NameList {
	return s.banlist
}

func clonePlayers(players []*model.ManagedPlayer) []*model.ManagedPlayer {
	if players == nil {
		return nil
	}
	out := make([]*model.ManagedPlayer, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	return out
}

func cloneUsers(users []*model.User) []*model.User {
	if users == nil {
		return nil
	}
	out := make([]*model.User, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return out
}
