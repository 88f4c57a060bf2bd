package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"domainrace/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Snapshots carry every entered
	// domain of the round, so this is far larger than a command.
	maxMessageSize = 1 << 20

	// DefaultHandshakeTimeout bounds the opening handshake
	DefaultHandshakeTimeout = 10 * time.Second
)

// MessageHandler receives every inbound message
type MessageHandler func(Message)

// ConnectionError is returned by Connect when the transport could not be opened
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Target == "" {
		return "connect: " + e.Err.Error()
	}
	return fmt.Sprintf("connect %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

type handlerEntry struct {
	id uint64
	fn MessageHandler
}

// Channel owns a single connection to the game server for one room/nickname
// pair at a time. Outbound commands are best effort: they are written only
// while the connection is open and are otherwise dropped, never queued.
type Channel struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *slog.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	connID     string
	dialCancel context.CancelFunc
	generation uint64
	handlers   []handlerEntry
	nextID     uint64

	writeMu sync.Mutex
}

// Option configures a Channel
type Option func(*Channel)

// WithHandshakeTimeout sets how long the opening handshake may take
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Channel) {
		c.dialer.HandshakeTimeout = d
	}
}

// WithDialer replaces the websocket dialer
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) {
		c.dialer = d
	}
}

// NewChannel creates a channel that connects below baseURL (ws:// or wss://)
func NewChannel(baseURL string, logger *slog.Logger, opts ...Option) *Channel {
	c := &Channel{
		baseURL: baseURL,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: DefaultHandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the connection URL for a room and nickname. Both segments
// are used as given, without escaping.
func Target(baseURL, roomCode, nickname string) (string, error) {
	if err := (domain.Identity{RoomCode: roomCode, Nickname: nickname}).Validate(); err != nil {
		return "", err
	}

	target := strings.TrimSuffix(baseURL, "/") + "/ws/" + roomCode + "/" + nickname

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}

	return target, nil
}

// Connect opens the connection and returns once the server has accepted the
// handshake. It makes a single attempt.
func (c *Channel) Connect(ctx context.Context, roomCode, nickname string) error {
	c.mu.Lock()
	if c.conn != nil || c.dialCancel != nil {
		c.mu.Unlock()
		return domain.ErrAlreadyConnected
	}
	c.generation++
	gen := c.generation
	dialCtx, cancel := context.WithCancel(ctx)
	c.dialCancel = cancel
	c.mu.Unlock()
	defer cancel()

	target, err := Target(c.baseURL, roomCode, nickname)
	if err != nil {
		c.clearDial(gen)
		return &ConnectionError{Err: err}
	}

	conn, _, err := c.dialer.DialContext(dialCtx, target, nil)

	c.mu.Lock()
	if c.generation != gen {
		// Disconnect ran while dialing
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return &ConnectionError{Target: target, Err: domain.ErrConnectAborted}
	}
	c.dialCancel = nil
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("websocket dial failed", "target", target, "error", err)
		return &ConnectionError{Target: target, Err: err}
	}
	connID := uuid.New().String()
	c.conn = conn
	c.connID = connID
	c.mu.Unlock()

	c.logger.Info("websocket connected",
		"connID", connID,
		"roomCode", roomCode,
		"nickname", nickname,
	)

	done := make(chan struct{})
	go c.keepalive(conn, connID, done)
	go c.readPump(conn, connID, done)

	return nil
}

// clearDial forgets a pending dial if it still belongs to generation gen
func (c *Channel) clearDial(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.dialCancel = nil
	}
}

// Disconnect closes the connection if one is open and aborts a pending
// Connect. Calling it on a closed channel does nothing.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.generation++
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	conn, connID := c.conn, c.connID
	c.conn = nil
	c.connID = ""
	c.mu.Unlock()

	if conn == nil {
		return
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()
	conn.Close()

	c.logger.Info("websocket disconnected", "connID", connID)
}

// IsOpen reports whether a connection is currently open
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// AddMessageHandler registers h for every subsequent inbound message. The
// returned function removes this registration; calling it again is a no-op.
func (c *Channel) AddMessageHandler(h MessageHandler) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.handlers = append(c.handlers, handlerEntry{id: id, fn: h})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.removeHandler(id) })
	}
}

func (c *Channel) removeHandler(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range c.handlers {
		if entry.id == id {
			c.handlers = append(c.handlers[:i:i], c.handlers[i+1:]...)
			return
		}
	}
}

// StartGame asks the server to start a round
func (c *Channel) StartGame() {
	c.send(NewStartGame())
}

// SubmitDomain submits a domain guess
func (c *Channel) SubmitDomain(domain string) {
	c.send(NewSubmitDomain(domain))
}

// send writes a command if the connection is open and drops it otherwise
func (c *Channel) send(msg ClientMessage) {
	c.mu.Lock()
	conn, connID := c.conn, c.connID
	c.mu.Unlock()

	if conn == nil {
		c.logger.Debug("channel not open, command dropped", "type", msg.Type)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		c.logger.Debug("websocket write failed", "connID", connID, "type", msg.Type, "error", err)
	}
}

// readPump pumps messages from the WebSocket connection to the handlers
func (c *Channel) readPump(conn *websocket.Conn, connID string, done chan struct{}) {
	defer func() {
		close(done)
		c.release(conn, connID)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("websocket read error", "connID", connID, "error", err)
			}
			return
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			c.logger.Warn("dropping inbound frame", "connID", connID, "error", err)
			continue
		}

		c.dispatch(conn, msg)
	}
}

// dispatch hands msg to the handlers registered at this moment, in order.
// Messages from a connection that is no longer current are discarded.
func (c *Channel) dispatch(conn *websocket.Conn, msg Message) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	handlers := make([]MessageHandler, len(c.handlers))
	for i, entry := range c.handlers {
		handlers[i] = entry.fn
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

// release clears the handle after the transport closed. Listeners are not
// notified.
func (c *Channel) release(conn *websocket.Conn, connID string) {
	c.mu.Lock()
	current := c.conn == conn
	if current {
		c.conn = nil
		c.connID = ""
	}
	c.mu.Unlock()

	conn.Close()

	if current {
		c.logger.Info("websocket closed by transport", "connID", connID)
	}
}

// keepalive pings the server until the connection's read pump exits
func (c *Channel) keepalive(conn *websocket.Conn, connID string, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("websocket ping failed", "connID", connID, "error", err)
				return
			}
		}
	}
}
