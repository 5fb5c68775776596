package players

import (
	"log/slog"
	"sync"

	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/services/database"
	"github.com/mcoot/playermanager/internal/services/snapshot"
)

// MergeResult summarises one merge
type MergeResult struct {
	Joined  []string
	Updated []string
	// Connected and Disconnected list players whose connected flag flipped
	Connected    []string
	Disconnected []string
	Dropped      int
}

// Changed reports whether any player joined or changed connection state
func (r MergeResult) Changed() bool {
	return len(r.Joined) > 0 || len(r.Connected) > 0 || len(r.Disconnected) > 0
}

// Listener is called after every merge that changed a player's presence
type Listener func(result MergeResult)

// Service reconciles parsed snapshots into the managed player registry
type Service struct {
	store  *database.Store
	logger *slog.Logger

	mu        sync.RWMutex
	listeners []Listener
}

// New creates a new players Service
func New(store *database.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Merge applies records to the registry in order. Each incoming field
// overwrites the stored one. When a record reports connected=false for a
// player that was not already disconnected, its onlineTime is added to
// onlineTimeTotal; a disconnected player's stored onlineTime is always 0.
func (s *Service) Merge(records []snapshot.Record) MergeResult {
	var result MergeResult

	s.store.UpdatePlayers(func(registry []*model.ManagedPlayer) []*model.ManagedPlayer {
		for _, record := range records {
			name := record[model.FieldName]
			if name == "" {
				result.Dropped++
				s.logger.Warn("dropping player record without a name", "instanceID", record[model.FieldInstanceID])
				continue
			}

			player := find(registry, name)
			if player == nil {
				player = model.NewManagedPlayer(name)
				registry = append(registry, player)
				result.Joined = append(result.Joined, name)
				s.logger.Info("new player joined", "player", name, "instanceID", record[model.FieldInstanceID])
			} else {
				result.Updated = append(result.Updated, name)
			}

			previous := player.Get(model.FieldConnected)
			wasDisconnected := previous == "false"
			for k, v := range record {
				player.Set(k, v)
			}

			if record[model.FieldConnected] == "true" && previous != "true" {
				result.Connected = append(result.Connected, name)
			}
			if record[model.FieldConnected] != "false" {
				continue
			}
			if !wasDisconnected {
				session := model.ParseSeconds(record[model.FieldOnlineTime])
				player.OnlineTimeTotal += session
				result.Disconnected = append(result.Disconnected, name)
				s.logger.Info("player disconnected",
					"player", name,
					"sessionSeconds", session,
					"totalSeconds", player.OnlineTimeTotal,
				)
			}
			player.Set(model.FieldOnlineTime, "0")
		}
		return registry
	})

	if result.Changed() {
		s.mu.RLock()
		listeners := s.listeners
		s.mu.RUnlock()
		for _, l := range listeners {
			l(result)
		}
	}

	return result
}

// AddListener registers l to be told about presence changes. Listeners
// run on the merging goroutine after the registry lock is released.
func (s *Service) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// List returns a copy of every managed player
func (s *Service) List() []*model.ManagedPlayer {
	return s.store.Players()
}

// Get returns a copy of the named player
func (s *Service) Get(name string) (*model.ManagedPlayer, error) {
	for _, p := range s.store.Players() {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, model.ErrPlayerNotFound
}

// Delete removes the named player from the registry
func (s *Service) Delete(name string) error {
	err := model.ErrPlayerNotFound
	s.store.UpdatePlayers(func(registry []*model.ManagedPlayer) []*model.ManagedPlayer {
		for i, p := range registry {
			if p.Name == name {
				err = nil
				return append(registry[:i], registry[i+1:]...)
			}
		}
		return registry
	})
	if err == nil {
		s.logger.Info("player deleted", "player", name)
	}
	return err
}

// ConnectedOn counts players currently connected on the given instance
func (s *Service) ConnectedOn(instanceID string) int {
	count := 0
	for _, p := range s.store.Players() {
		if p.Connected() && p.InstanceID() == instanceID {
			count++
		}
	}
	return count
}

func find(registry []*model.ManagedPlayer, name string) *model.ManagedPlayer {
	for _, p := range registry {
		if p.Name == name {
			return p
		}
	}
	return nil
}
