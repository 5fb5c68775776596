package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/services/players"
)

// Player event names
const (
	EventPlayerJoined       = "playerJoined"
	EventPlayerConnected    = "playerConnected"
	EventPlayerDisconnected = "playerDisconnected"
)

// PlayerSource looks up the current state of a player
type PlayerSource interface {
	Get(name string) (*model.ManagedPlayer, error)
}

// Broadcaster turns merge results into player events on a hub
type Broadcaster struct {
	hub     *Hub
	players PlayerSource
	logger  *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, players PlayerSource, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:     hub,
		players: players,
		logger:  logger,
	}
}

// OnMerge publishes one event per presence change in result
func (b *Broadcaster) OnMerge(result players.MergeResult) {
	b.publish(EventPlayerJoined, result.Joined)
	b.publish(EventPlayerConnected, result.Connected)
	b.publish(EventPlayerDisconnected, result.Disconnected)
}

func (b *Broadcaster) publish(event string, names []string) {
	for _, name := range names {
		player, err := b.players.Get(name)
		if err != nil {
			b.logger.Warn("sse skipping event for missing player",
				slog.String("event", event),
				slog.String("player", name))
			continue
		}
		data, err := json.Marshal(player)
		if err != nil {
			b.logger.Error("sse failed to encode player",
				slog.String("player", name),
				slog.Any("error", err))
			continue
		}
		b.hub.BroadcastEvent(event, string(data))
	}
}
