package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/services/players"
	"github.com/mcoot/playermanager/internal/testutil"
)

type fakePlayers map[string]*model.ManagedPlayer

func (f fakePlayers) Get(name string) (*model.ManagedPlayer, error) {
	if p, ok := f[name]; ok {
		return p, nil
	}
	return nil, model.ErrPlayerNotFound
}

func newPlayer(name, connected string) *model.ManagedPlayer {
	p := model.NewManagedPlayer(name)
	p.Set(model.FieldConnected, connected)
	return p
}

func TestBroadcaster_OnMerge(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient()
	require.True(t, hub.Register(client))

	source := fakePlayers{
		"alice": newPlayer("alice", "true"),
		"bob":   newPlayer("bob", "false"),
	}
	b := NewBroadcaster(hub, source, testutil.NopLogger())

	b.OnMerge(players.MergeResult{
		Joined:       []string{"alice"},
		Connected:    []string{"alice"},
		Disconnected: []string{"bob"},
	})

	joined := string(receive(t, client))
	assert.Contains(t, joined, "event: playerJoined\n")
	assert.Contains(t, joined, `"name":"alice"`)

	connected := string(receive(t, client))
	assert.Contains(t, connected, "event: playerConnected\n")
	assert.Contains(t, connected, `"connected":"true"`)

	disconnected := string(receive(t, client))
	assert.Contains(t, disconnected, "event: playerDisconnected\n")
	assert.Contains(t, disconnected, `"name":"bob"`)
}

func TestBroadcaster_SkipsMissingPlayers(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient()
	require.True(t, hub.Register(client))

	b := NewBroadcaster(hub, fakePlayers{"bob": newPlayer("bob", "false")}, testutil.NopLogger())
	b.OnMerge(players.MergeResult{
		Joined:       []string{"ghost"},
		Disconnected: []string{"bob"},
	})

	assert.Contains(t, string(receive(t, client)), "event: playerDisconnected\n")
	assert.Empty(t, client.send)
}
