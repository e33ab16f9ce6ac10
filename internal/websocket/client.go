package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"dtindex/internal/config"
	"dtindex/internal/infrastructure"
	"dtindex/pkg/contracts/events"
)

// Client is one live dashboard session: it reads filter messages, runs the
// analysis and queues the answers for the write pump
type Client struct {
	hub      *Hub
	conn     Connection
	analyzer Analyzer

	// Buffered channel of outbound messages
	send chan []byte

	sendMu sync.Mutex
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	// Touched only by the read pump and write pump respectively
	messagesReceived int64
	messagesSent     int64
	bytesSent        int64
}

// NewClient creates a session over a gorilla connection
func NewClient(hub *Hub, conn *websocket.Conn, analyzer Analyzer, traceID string, logger *slog.Logger) *Client {
	return NewClientWithConnection(hub, NewConnectionWrapper(conn), analyzer, traceID, logger)
}

// NewClientWithConnection creates a session over any Connection
func NewClientWithConnection(hub *Hub, conn Connection, analyzer Analyzer, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	if traceID == "" {
		traceID = id
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		analyzer:    analyzer,
		send:        make(chan []byte, config.DefaultSessionBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
}

// ID returns the session id
func (c *Client) ID() string {
	return c.id
}

// context returns a background context carrying the session trace id; request
// contexts end when the upgrade handler returns
func (c *Client) context() context.Context {
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// Serve registers the client, greets it and runs both pumps until the peer
// leaves. A hub that is not running refuses the session and the connection is
// closed right away.
func (c *Client) Serve() {
	if !c.hub.track(2) {
		c.logger.Warn("hub not running, closing session")
		c.conn.Close()
		return
	}
	c.hub.Register(c)
	c.queue(c.greeting())

	go func() {
		defer c.hub.pumps.Done()
		c.WritePump()
	}()
	defer c.hub.pumps.Done()
	c.ReadPump()
}

// ReadPump pumps filter messages from the connection to the analyzer
func (c *Client) ReadPump() {
	opts := c.hub.Options()
	ctx := c.context()

	fatal := false
	defer func() {
		c.logger.InfoContext(ctx, "WebSocket client disconnected (readPump)",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived))
		c.hub.Unregister(c)
		// After a fatal reply the write pump flushes the queue and closes the connection
		if !fatal {
			c.conn.Close()
		}
	}()

	c.conn.SetReadLimit(opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived++

		if fatal = c.handle(ctx, message); fatal {
			return
		}
	}
}

// handle answers one inbound message; it reports whether the session must end
func (c *Client) handle(ctx context.Context, message []byte) bool {
	var envelope struct {
		Type events.MessageType `json:"type"`
	}
	if err := json.Unmarshal(message, &envelope); err != nil {
		c.hub.metrics.RecordSessionMessage(ctx, "in", "invalid")
		c.queue(errorMessage("", "", events.ErrorData{
			Code:    events.ErrCodeInvalidMessage,
			Message: "message is not valid JSON",
		}))
		return false
	}
	c.hub.metrics.RecordSessionMessage(ctx, "in", string(envelope.Type))

	switch envelope.Type {
	case events.MessageTypeHeartbeat:
		c.logger.DebugContext(ctx, "Heartbeat received")
		return false

	case events.MessageTypeFilter:
		var msg events.FilterMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.queue(errorMessage("", c.traceID, events.ErrorData{
				Code:    events.ErrCodeInvalidMessage,
				Message: "malformed filter message",
				Details: err.Error(),
			}))
			return false
		}

		actx, cancel := context.WithTimeout(ctx, c.hub.Options().AnalysisTimeout)
		defer cancel()

		start := time.Now()
		reply, fatal := analyze(actx, c.analyzer, msg, c.traceID)
		c.logger.DebugContext(ctx, "filter analysed",
			slog.String("request_id", msg.RequestID),
			slog.Duration("duration", time.Since(start)),
			slog.Bool("fatal", fatal))
		c.queue(reply)
		return fatal

	default:
		c.queue(errorMessage("", c.traceID, events.ErrorData{
			Code:    events.ErrCodeUnsupported,
			Message: "unsupported message type: " + string(envelope.Type),
		}))
		return false
	}
}

// queue marshals msg and hands it to the write pump. A full queue drops the
// message rather than stalling the read pump.
func (c *Client) queue(msg interface{}) {
	ctx := c.context()

	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.ErrorContext(ctx, "Error marshaling message", slog.String("error", err.Error()))
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
		c.hub.metrics.RecordSessionMessage(ctx, "out", messageType(msg))
	default:
		c.logger.WarnContext(ctx, "Client send buffer full, dropping message",
			slog.String("type", messageType(msg)))
	}
}

// closeSend closes the outbound queue once; the write pump then sends a close frame
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump pumps queued messages to the websocket connection and keeps it alive
func (c *Client) WritePump() {
	opts := c.hub.Options()
	ctx := c.context()
	ticker := time.NewTicker(opts.PingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.InfoContext(ctx, "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent),
			slog.Int64("bytes_sent", c.bytesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(ctx, "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent++
			c.bytesSent += int64(len(message))

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (c *Client) greeting() events.ConnectMessage {
	msg := events.ConnectMessage{
		BaseMessage: events.NewBase(events.MessageTypeConnect, "", c.traceID),
		Data: events.ConnectData{
			SessionID:       c.id,
			ProtocolVersion: events.ProtocolVersion,
		},
	}

	// A failed load is reported on the first filter message instead
	if info, err := c.analyzer.Info(c.context()); err == nil {
		msg.Data.Dimensions = info.Dimensions
		msg.Data.Checksum = info.Source.Checksum
	}
	return msg
}

func messageType(msg interface{}) string {
	switch m := msg.(type) {
	case events.ConnectMessage:
		return string(m.Type)
	case events.AnalysisMessage:
		return string(m.Type)
	case events.EmptyMessage:
		return string(m.Type)
	case events.ErrorMessage:
		return string(m.Type)
	}
	return "unknown"
}
