package websocket

import (
	"log/slog"
	"sync"
	"time"

	"dtindex/internal/config"
	"dtindex/internal/infrastructure"
)

// Options tunes the session keep-alive. PingPeriod must stay below PongWait
// or the peer is dropped before it can answer.
type Options struct {
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxMessageSize  int64
	AnalysisTimeout time.Duration
}

func pingPeriodFor(pongWait time.Duration) time.Duration {
	return pongWait * 9 / 10
}

// DefaultOptions returns the keep-alive settings used when config leaves them unset
func DefaultOptions() Options {
	return Options{
		WriteWait:       config.WebSocketWriteWait,
		PongWait:        config.WebSocketPongWait,
		PingPeriod:      pingPeriodFor(config.WebSocketPongWait),
		MaxMessageSize:  config.WebSocketMaxMessage,
		AnalysisTimeout: config.DefaultHTTPTimeout,
	}
}

// OptionsFrom overlays the configured ping and pong timings onto the defaults.
// A ping period that would not fit inside the pong wait is ignored.
func OptionsFrom(cfg config.WebSocketConfig) Options {
	opts := DefaultOptions()
	if cfg.PongWait > 0 {
		opts.PongWait = cfg.PongWait
		opts.PingPeriod = pingPeriodFor(cfg.PongWait)
	}
	if cfg.PingPeriod > 0 && cfg.PingPeriod < opts.PongWait {
		opts.PingPeriod = cfg.PingPeriod
	}
	return opts
}

// Hub tracks the open live sessions. Sessions do not talk to each other, so
// the hub only registers, counts and closes them.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	done       chan struct{}

	// session pumps still running; Stop waits for them
	pumps sync.WaitGroup

	mu       sync.RWMutex
	sessions map[*Client]struct{}
	opened   int64
	running  bool

	logger  *slog.Logger
	metrics *infrastructure.DashboardMetrics
	opts    Options
}

// NewHub creates a hub; metrics may be nil
func NewHub(opts Options, logger *slog.Logger, metrics *infrastructure.DashboardMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		sessions:   make(map[*Client]struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		opts:       opts,
	}
}

// Options returns the keep-alive settings handed to new clients
func (h *Hub) Options() Options {
	return h.opts
}

// Start runs the hub loop in its own goroutine; calling it twice is a no-op
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.Run()
}

// track reserves n pump slots for a session. It fails once the hub has been
// stopped, or before it was started, so no pump outlives Stop.
func (h *Hub) track(n int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return false
	}
	h.pumps.Add(n)
	return true
}

// Run serves register and unregister requests until Stop
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		c.closeSend()
		return
	}
	h.sessions[c] = struct{}{}
	h.opened++
	open, opened := len(h.sessions), h.opened
	h.mu.Unlock()

	ctx := c.context()
	h.metrics.RecordSessionChange(ctx, 1)
	h.logger.InfoContext(ctx, "Client registered",
		slog.String("client_id", c.id),
		slog.String("remote_addr", c.remoteAddr),
		slog.Int("total_clients", open),
		slog.Int64("total_connections", opened))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, known := h.sessions[c]
	delete(h.sessions, c)
	open := len(h.sessions)
	h.mu.Unlock()

	if !known {
		return
	}
	c.closeSend()

	ctx := c.context()
	h.metrics.RecordSessionChange(ctx, -1)
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.String("client_id", c.id),
		slog.Int("total_clients", open),
		slog.Duration("connection_duration", time.Since(c.connectedAt)))
}

// Register adds a client to the hub. On a stopped hub the client's queue is
// closed instead, which ends its write pump.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.closeSend()
	}
}

// Unregister removes a client and closes its outbound queue
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of open sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stop ends the loop, closes every session and returns once the loop and all
// session pumps have exited. A stopped hub cannot be restarted.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.quit)

	open := h.sessions
	h.sessions = make(map[*Client]struct{})
	h.mu.Unlock()

	for c := range open {
		c.closeSend()
		h.metrics.RecordSessionChange(c.context(), -1)
	}

	<-h.done
	h.pumps.Wait()
}
