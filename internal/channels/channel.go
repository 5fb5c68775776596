package channels

import (
	"errors"
	"sync"
)

// Message types exchanged with reporting channels
const (
	// Inbound
	TypeRegisterSlave         = "registerSlave"
	TypeRegisterPlayerManager = "registerPlayerManager"
	TypeSetPlayerData         = "playerManagerSetPlayerdata"
	TypeChatLine              = "playerManagerChatLine"

	// Outbound
	TypeGetPlayers = "playerManagerGetPlayers"
	TypeCommand    = "playerManagerCommand"
)

// DefaultQueueSize is the outbound buffer of a channel
const DefaultQueueSize = 64

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrQueueFull     = errors.New("channel outbound queue full")
)

// Outbound is a message sent to a reporting channel
type Outbound struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	ID      string `json:"id,omitempty"`
}

// Channel is one connection from a game-server instance. The transport
// drains Outbound and closes the channel when the connection ends.
type Channel struct {
	id string

	mu         sync.RWMutex
	instanceID string

	out       chan Outbound
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel creates a channel with the given id and outbound buffer size
func NewChannel(id string, queueSize int) *Channel {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Channel{
		id:   id,
		out:  make(chan Outbound, queueSize),
		done: make(chan struct{}),
	}
}

// ID returns the channel id
func (c *Channel) ID() string {
	return c.id
}

// InstanceID returns the instance the channel registered as, or ""
func (c *Channel) InstanceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.instanceID
}

// SetInstanceID records the instance the channel belongs to
func (c *Channel) SetInstanceID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instanceID = id
}

// Send queues msg without blocking
func (c *Channel) Send(msg Outbound) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case c.out <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Outbound returns the queue of messages waiting to be written
func (c *Channel) Outbound() <-chan Outbound {
	return c.out
}

// Done is closed when the channel is closed
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Close marks the channel closed. It is safe to call more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
