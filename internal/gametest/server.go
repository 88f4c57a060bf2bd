// Package gametest provides a scripted in-process game server for tests.
//
// The server accepts connections on /ws/{roomCode}/{nickname}, records every
// frame a client sends and lets the test push arbitrary frames back. It
// implements none of the game rules. It also serves /generate-room so the
// room provisioning client can be exercised against it.
package gametest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"domainrace/internal/domain"
)

// Frame is a command received from a client
type Frame struct {
	Type   string `json:"type"`
	Domain string `json:"domain,omitempty"`
}

// Server is a fake game server
type Server struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	roomCode   string
	roomStatus int
	initial    *domain.GameState

	arrived chan struct{}
	gate    <-chan struct{}

	mu        sync.Mutex
	conns     []*Conn
	connected chan *Conn
}

// Option configures a Server
type Option func(*Server)

// WithRoomCode sets the code returned by /generate-room
func WithRoomCode(code string) Option {
	return func(s *Server) {
		s.roomCode = code
	}
}

// WithRoomStatus makes /generate-room answer with the given status code
func WithRoomStatus(status int) Option {
	return func(s *Server) {
		s.roomStatus = status
	}
}

// WithInitialState sends a game_update with state to every new connection
func WithInitialState(state domain.GameState) Option {
	return func(s *Server) {
		s.initial = &state
	}
}

// WithUpgradeGate holds every upgrade until gate is closed. arrived receives
// a value when a request is waiting on the gate.
func WithUpgradeGate(arrived chan struct{}, gate <-chan struct{}) Option {
	return func(s *Server) {
		s.arrived = arrived
		s.gate = gate
	}
}

// NewServer starts a fake server that is shut down when the test ends
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomCode:   "AB12CD",
		roomStatus: http.StatusOK,
		connected:  make(chan *Conn, 16),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/generate-room", s.handleGenerateRoom)
	r.Get("/ws/{roomCode}/{nickname}", s.handleWS)

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.Close)

	return s
}

// URL returns the websocket base URL (ws://host:port)
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

// HTTPURL returns the plain HTTP base URL
func (s *Server) HTTPURL() string {
	return s.srv.URL
}

// Close drops every connection and stops the server
func (s *Server) Close() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	for _, c := range conns {
		c.Drop()
	}
	s.srv.Close()
}

// ConnCount returns how many connections were accepted so far
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// WaitConn waits for the next accepted connection
func (s *Server) WaitConn(t testing.TB, within time.Duration) *Conn {
	t.Helper()
	select {
	case c := <-s.connected:
		return c
	case <-time.After(within):
		t.Fatalf("timed out waiting for a client connection")
		return nil
	}
}

func (s *Server) handleGenerateRoom(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.roomStatus)
	if s.roomStatus != http.StatusOK {
		json.NewEncoder(w).Encode(map[string]string{"detail": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"room_code": s.roomCode})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.gate != nil {
		if s.arrived != nil {
			s.arrived <- struct{}{}
		}
		<-s.gate
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The client may have given up while the upgrade was gated
		return
	}

	c := &Conn{
		RoomCode: chi.URLParam(r, "roomCode"),
		Nickname: chi.URLParam(r, "nickname"),
		ws:       ws,
		received: make(chan Frame, 64),
		closed:   make(chan struct{}),
	}

	if s.initial != nil {
		c.write(map[string]any{"type": "game_update", "game_state": s.initial})
	}

	s.mu.Lock()
	s.conns = append(s.conns, c)
	s.mu.Unlock()

	go c.readPump()
	s.connected <- c
}

// Conn is the server side of one client connection
type Conn struct {
	RoomCode string
	Nickname string

	ws       *websocket.Conn
	writeMu  sync.Mutex
	received chan Frame
	closed   chan struct{}
}

func (c *Conn) readPump() {
	defer close(c.closed)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		c.received <- f
	}
}

func (c *Conn) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// Send pushes a JSON frame to the client
func (c *Conn) Send(t testing.TB, v any) {
	t.Helper()
	require.NoError(t, c.write(v))
}

// SendRaw pushes an arbitrary text frame to the client
func (c *Conn) SendRaw(t testing.TB, data []byte) {
	t.Helper()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	require.NoError(t, c.ws.WriteMessage(websocket.TextMessage, data))
}

// SendUpdate pushes a game_update frame
func (c *Conn) SendUpdate(t testing.TB, state domain.GameState) {
	t.Helper()
	c.Send(t, map[string]any{"type": "game_update", "game_state": state})
}

// SendError pushes an error frame
func (c *Conn) SendError(t testing.TB, message string) {
	t.Helper()
	c.Send(t, map[string]any{"type": "error", "message": message})
}

// SendGameOver pushes a game_over frame
func (c *Conn) SendGameOver(t testing.TB, winner domain.Player) {
	t.Helper()
	c.Send(t, map[string]any{"type": "game_over", "winner": winner})
}

// Next waits for the next frame sent by the client
func (c *Conn) Next(t testing.TB, within time.Duration) Frame {
	t.Helper()
	select {
	case f := <-c.received:
		return f
	case <-time.After(within):
		t.Fatalf("timed out waiting for a client frame")
		return Frame{}
	}
}

// ExpectNone fails if the client sends a frame within the given duration
func (c *Conn) ExpectNone(t testing.TB, within time.Duration) {
	t.Helper()
	select {
	case f := <-c.received:
		t.Fatalf("expected no frame within %v, got %+v", within, f)
	case <-time.After(within):
	}
}

// WaitClosed waits until the client side has gone away
func (c *Conn) WaitClosed(t testing.TB, within time.Duration) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(within):
		t.Fatalf("timed out waiting for the client to close")
	}
}

// Drop closes the underlying socket without a close handshake
func (c *Conn) Drop() {
	c.ws.Close()
}
