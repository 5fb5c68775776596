package commands

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/playermanager/internal/channels"
	"github.com/mcoot/playermanager/internal/model"
)

// DefaultPrefix addresses chat commands to the player manager
const DefaultPrefix = "!playermanager"

// Config holds dispatcher configuration
type Config struct {
	Prefix string
}

// DefaultConfig returns the default dispatcher configuration
func DefaultConfig() Config {
	return Config{Prefix: DefaultPrefix}
}

// Call is one chat command invocation
type Call struct {
	// Tokens is the whitespace-split chat line
	Tokens []string
	// Args are the tokens after the command name
	Args []string
	// Speaker is the chat author when the line carries one
	Speaker    string
	InstanceID string
	// Line is the chat line exactly as received
	Line string
}

// Handler runs a chat command
type Handler func(ctx context.Context, call Call) error

// PlayerLookup is the registry view built-in commands need
type PlayerLookup interface {
	Get(name string) (*model.ManagedPlayer, error)
	ConnectedOn(instanceID string) int
}

// Result describes delivery of a command to one channel's outbound queue
type Result struct {
	ChannelID  string `json:"channelID"`
	InstanceID string `json:"instanceID"`
	CommandID  string `json:"commandID"`
	Err        error  `json:"-"`
}

// Dispatcher routes chat commands and sends commands to instances
type Dispatcher struct {
	registry *channels.Registry
	players  PlayerLookup
	logger   *slog.Logger
	prefix   string
	newID    func() string

	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates a Dispatcher with the built-in commands registered
func New(registry *channels.Registry, players PlayerLookup, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	d := &Dispatcher{
		registry: registry,
		players:  players,
		logger:   logger,
		prefix:   cfg.Prefix,
		newID:    uuid.NewString,
		handlers: make(map[string]Handler),
	}
	d.Register("playtime", d.playtime)
	d.Register("online", d.online)
	return d
}

// Register adds or replaces the handler for an exact command name
func (d *Dispatcher) Register(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
}

// Commands returns the registered command names
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HandleChatLine runs the command in line if it is addressed to the
// player manager. Unknown commands are ignored. Handler errors are
// logged, never returned to chat.
func (d *Dispatcher) HandleChatLine(ctx context.Context, line, instanceID string) {
	stripped := strings.NewReplacer("\r", "", "\n", "").Replace(line)
	if !strings.Contains(stripped, d.prefix) {
		return
	}

	// The prefix must stand alone as a token; "foo!playermanagerbar" is chat
	tokens := strings.Fields(stripped)
	at := -1
	for i, t := range tokens {
		if t == d.prefix {
			at = i
			break
		}
	}
	if at < 0 {
		return
	}
	if at+1 >= len(tokens) {
		d.logger.Debug("chat command without a name", "instanceID", instanceID)
		return
	}

	name := tokens[at+1]
	d.mu.RLock()
	h, ok := d.handlers[name]
	d.mu.RUnlock()
	if !ok {
		d.logger.Debug("unknown chat command", "command", name, "instanceID", instanceID)
		return
	}

	call := Call{
		Tokens:     tokens,
		Args:       tokens[at+2:],
		Speaker:    speaker(tokens, at),
		InstanceID: instanceID,
		Line:       line,
	}
	if err := h(ctx, call); err != nil {
		d.logger.Warn("chat command failed", "command", name, "instanceID", instanceID, "error", err)
	}
}

// speaker extracts "Alice" from "... [CHAT] Alice: !playermanager ..."
func speaker(tokens []string, prefixAt int) string {
	if prefixAt == 0 {
		return ""
	}
	prev := tokens[prefixAt-1]
	if !strings.HasSuffix(prev, ":") {
		return ""
	}
	return strings.TrimSuffix(prev, ":")
}

// RunOnInstance sends command to every channel of one instance
func (d *Dispatcher) RunOnInstance(ctx context.Context, instanceID, command string) []Result {
	return d.send(d.registry.ByInstance(instanceID), command)
}

// BroadcastCommand sends command to every registered channel
func (d *Dispatcher) BroadcastCommand(ctx context.Context, command string) []Result {
	results := d.send(d.registry.List(), command)
	d.logger.Info("command broadcast", "channels", len(results))
	return results
}

func (d *Dispatcher) send(chans []*channels.Channel, command string) []Result {
	results := make([]Result, 0, len(chans))
	for _, ch := range chans {
		id := d.newID()
		err := ch.Send(channels.Outbound{Type: channels.TypeCommand, Command: command, ID: id})
		if err != nil {
			d.logger.Warn("failed to send command", "channel", ch.ID(), "error", err)
		}
		results = append(results, Result{
			ChannelID:  ch.ID(),
			InstanceID: ch.InstanceID(),
			CommandID:  id,
			Err:        err,
		})
	}
	return results
}
