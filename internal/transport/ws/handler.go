package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/playermanager/internal/channels"
	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/services/commands"
	"github.com/mcoot/playermanager/internal/services/players"
	"github.com/mcoot/playermanager/internal/services/polling"
	"github.com/mcoot/playermanager/internal/services/snapshot"
)

// Config holds websocket transport settings
type Config struct {
	WriteTimeout   time.Duration
	MaxMessageSize int64
	QueueSize      int
}

// DefaultConfig returns the default transport settings
func DefaultConfig() Config {
	return Config{
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 1 << 20,
		QueueSize:      channels.DefaultQueueSize,
	}
}

// Handler accepts websocket connections from game-server instances
type Handler struct {
	registry   *channels.Registry
	parser     *snapshot.Parser
	players    *players.Service
	scheduler  *polling.Scheduler
	dispatcher *commands.Dispatcher
	logger     *slog.Logger
	cfg        Config
	upgrader   websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewHandler creates a new websocket Handler
func NewHandler(
	registry *channels.Registry,
	parser *snapshot.Parser,
	players *players.Service,
	scheduler *polling.Scheduler,
	dispatcher *commands.Dispatcher,
	logger *slog.Logger,
	cfg Config,
) *Handler {
	defaults := DefaultConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}

	return &Handler{
		registry:   registry,
		parser:     parser,
		players:    players,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		conns: make(map[string]*websocket.Conn),
	}
}

// ServeHTTP upgrades the request and serves the channel until it disconnects
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(h.cfg.MaxMessageSize)

	ch := channels.NewChannel(uuid.NewString(), h.cfg.QueueSize)
	logger := h.logger.With("channel", ch.ID(), "remote", r.RemoteAddr)
	logger.Info("reporting channel connected")

	h.track(ch.ID(), conn)
	defer func() {
		if h.registry.Unregister(ch.ID()) {
			logger.Info("reporting channel unregistered")
		}
		ch.Close()
		h.untrack(ch.ID())
		_ = conn.Close()
		logger.Info("reporting channel disconnected")
	}()

	ctx := r.Context()
	go h.writeLoop(conn, ch, logger)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			logger.Warn("discarding malformed message", "error", err)
			continue
		}
		h.handleMessage(ctx, ch, msg, logger)
	}
}

func (h *Handler) handleMessage(ctx context.Context, ch *channels.Channel, msg inboundMessage, logger *slog.Logger) {
	switch msg.Type {
	case channels.TypeRegisterSlave:
		id, err := parseInstanceID(msg.InstanceID)
		if err != nil {
			logger.Warn("ignoring registration with invalid instanceID", "instanceID", string(msg.InstanceID))
			return
		}
		ch.SetInstanceID(id)
		logger.Info("instance registered", "instanceID", id)

	case channels.TypeRegisterPlayerManager:
		if !h.registry.Register(ch) {
			return
		}
		logger.Info("player manager reporter registered", "instanceID", ch.InstanceID())
		h.scheduler.Start(ctx, ch)

	case channels.TypeSetPlayerData:
		var shared map[string]string
		if id := ch.InstanceID(); id != "" {
			shared = map[string]string{model.FieldInstanceID: id}
		}
		records, _ := h.parser.Parse(msg.Data, shared)
		result := h.players.Merge(records)
		logger.Debug("snapshot merged",
			"records", len(records),
			"joined", len(result.Joined),
			"disconnected", len(result.Disconnected),
		)

	case channels.TypeChatLine:
		h.dispatcher.HandleChatLine(ctx, msg.Line, ch.InstanceID())

	default:
		logger.Debug("unknown message type", "type", msg.Type)
	}
}

// writeLoop drains the channel's outbound queue onto the connection
func (h *Handler) writeLoop(conn *websocket.Conn, ch *channels.Channel, logger *slog.Logger) {
	for {
		select {
		case <-ch.Done():
			return
		case msg := <-ch.Outbound():
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Error("failed to marshal outbound message", "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warn("websocket write failed", "error", err)
				ch.Close()
				_ = conn.Close()
				return
			}
		}
	}
}

func (h *Handler) track(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = conn
}

func (h *Handler) untrack(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// Shutdown sends a close frame to every open connection and closes it
func (h *Handler) Shutdown() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = c.Close()
	}
}

// Connections returns the number of open connections
func (h *Handler) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
