package polling

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/playermanager/internal/channels"
	"github.com/mcoot/playermanager/internal/dependencies/clock"
)

// Config holds the polling cadence
type Config struct {
	// ActiveInterval is used while a player is connected on the instance
	ActiveInterval time.Duration
	// IdleInterval is used while nobody is connected on the instance
	IdleInterval time.Duration
}

// DefaultConfig returns the default polling cadence
func DefaultConfig() Config {
	return Config{
		ActiveInterval: time.Second,
		IdleInterval:   10 * time.Second,
	}
}

// PlayerCounter counts connected players per instance
type PlayerCounter interface {
	ConnectedOn(instanceID string) int
}

// Scheduler asks every registered channel for snapshots at an adaptive cadence
type Scheduler struct {
	registry *channels.Registry
	players  PlayerCounter
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config

	wg sync.WaitGroup
}

// New creates a new Scheduler
func New(registry *channels.Registry, players PlayerCounter, clock clock.Clock, logger *slog.Logger, cfg Config) *Scheduler {
	defaults := DefaultConfig()
	if cfg.ActiveInterval <= 0 {
		cfg.ActiveInterval = defaults.ActiveInterval
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = defaults.IdleInterval
	}
	return &Scheduler{
		registry: registry,
		players:  players,
		clock:    clock,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start runs the polling loop for ch in a new goroutine
func (s *Scheduler) Start(ctx context.Context, ch *channels.Channel) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(ctx, ch)
	}()
}

// Run polls ch until it is unregistered, closed, or ctx is done
func (s *Scheduler) Run(ctx context.Context, ch *channels.Channel) {
	logger := s.logger.With("channel", ch.ID())
	logger.Debug("polling started")
	defer logger.Debug("polling stopped")

	for {
		interval, ok := s.poll(ch, logger)
		if !ok {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ch.Done():
			return
		case <-s.clock.After(interval):
		}
	}
}

// poll requests one snapshot and returns how long to wait before the
// next one. It returns false once the channel is no longer registered.
func (s *Scheduler) poll(ch *channels.Channel, logger *slog.Logger) (time.Duration, bool) {
	if !s.registry.IsRegistered(ch.ID()) {
		return 0, false
	}

	if err := ch.Send(channels.Outbound{Type: channels.TypeGetPlayers}); err != nil {
		logger.Warn("failed to request snapshot", "error", err)
	}

	return s.Interval(ch.InstanceID()), true
}

// Interval returns the wait before the next poll of the given instance
func (s *Scheduler) Interval(instanceID string) time.Duration {
	if instanceID != "" && s.players.ConnectedOn(instanceID) > 0 {
		return s.cfg.ActiveInterval
	}
	return s.cfg.IdleInterval
}

// Wait blocks until every polling loop has returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
