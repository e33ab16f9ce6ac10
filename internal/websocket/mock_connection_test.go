package websocket

import (
	"errors"
	"sync"
	"time"
)

// MockMessage represents a message written to a MockConnection
type MockMessage struct {
	Type int
	Data []byte
}

// MockConnection is an in-memory Connection. ReadMessage blocks until a
// message is pushed or the connection is closed.
type MockConnection struct {
	mu       sync.Mutex
	incoming chan []byte
	written  chan MockMessage
	done     chan struct{}
	closed   bool

	ReadLimit     int64
	PongHandler   func(string) error
	RemoteAddress string
}

// NewMockConnection creates a new mock connection
func NewMockConnection() *MockConnection {
	return &MockConnection{
		incoming:      make(chan []byte, 16),
		written:       make(chan MockMessage, 64),
		done:          make(chan struct{}),
		RemoteAddress: "127.0.0.1:8080",
	}
}

// Push queues a client message for ReadMessage
func (m *MockConnection) Push(data []byte) {
	m.incoming <- data
}

// Next waits for the next written message
func (m *MockConnection) Next(timeout time.Duration) (MockMessage, bool) {
	select {
	case msg := <-m.written:
		return msg, true
	case <-time.After(timeout):
		return MockMessage{}, false
	}
}

// IsClosed reports whether Close was called
func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	if m.IsClosed() {
		return errors.New("connection closed")
	}
	m.written <- MockMessage{Type: messageType, Data: data}
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	select {
	case data := <-m.incoming:
		return 1, data, nil
	case <-m.done:
		return 0, nil, errors.New("connection closed")
	}
}

func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *MockConnection) SetReadDeadline(time.Time) error  { return nil }
func (m *MockConnection) SetWriteDeadline(time.Time) error { return nil }

func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadLimit = limit
}

func (m *MockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PongHandler = h
}

func (m *MockConnection) RemoteAddr() string {
	return m.RemoteAddress
}
