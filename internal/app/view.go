package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"domainrace/internal/domain"
	"domainrace/internal/transport/ws"
)

// ConnectFailedMessage is shown when the channel cannot be opened
const ConnectFailedMessage = "Failed to connect to game server"

// SessionChannel is the connection a GameView drives
type SessionChannel interface {
	Connect(ctx context.Context, roomCode, nickname string) error
	Disconnect()
	IsOpen() bool
	AddMessageHandler(h ws.MessageHandler) func()
	StartGame()
	SubmitDomain(domain string)
}

// Snapshot is what the player currently sees
type Snapshot struct {
	Identity  domain.Identity
	Connected bool
	State     domain.GameState
	Error     string
	Outcome   *domain.Outcome
}

// GameView folds channel messages into the presentable game state and turns
// user intents into channel commands
type GameView struct {
	channel SessionChannel
	logger  *slog.Logger

	mu            sync.RWMutex
	identity      *domain.Identity
	mount         uint64
	established   bool // the current mount has been connected at least once
	removeHandler func()
	state         domain.GameState
	errMsg        string
	outcome       *domain.Outcome

	changes chan struct{}
}

// NewGameView creates a view over channel
func NewGameView(channel SessionChannel, logger *slog.Logger) *GameView {
	return &GameView{
		channel: channel,
		logger:  logger,
		state:   domain.DefaultGameState(),
		changes: make(chan struct{}, 1),
	}
}

// Join mounts the view for id and connects the channel. Joining the identity
// that is already mounted only reconnects a channel that has closed; joining
// a different identity leaves the current one first.
func (v *GameView) Join(ctx context.Context, id domain.Identity) error {
	v.mu.Lock()
	if v.identity != nil && *v.identity == id {
		v.mu.Unlock()
		if v.channel.IsOpen() {
			return nil
		}
		return v.connect(ctx, id)
	}
	mounted := v.identity != nil
	v.mu.Unlock()

	if mounted {
		v.Leave()
	}

	v.mu.Lock()
	v.identity = &id
	v.mount++
	mount := v.mount
	v.established = false
	v.state = domain.DefaultGameState()
	v.errMsg = ""
	v.outcome = nil
	// Registered before dialing so the server's first snapshot is not missed
	v.removeHandler = v.channel.AddMessageHandler(func(msg ws.Message) {
		msg.Accept(fold{v: v, mount: mount})
		v.notify()
	})
	v.mu.Unlock()
	v.notify()

	return v.connect(ctx, id)
}

func (v *GameView) connect(ctx context.Context, id domain.Identity) error {
	v.mu.RLock()
	mount := v.mount
	v.mu.RUnlock()

	err := v.channel.Connect(ctx, id.RoomCode, id.Nickname)
	if err == nil {
		v.mu.Lock()
		if v.mount == mount {
			v.established = true
			if v.errMsg == ConnectFailedMessage {
				v.errMsg = ""
			}
		}
		v.mu.Unlock()

		v.logger.Info("joined room", "roomCode", id.RoomCode, "nickname", id.Nickname)
		v.notify()
		return nil
	}

	v.logger.Warn("failed to connect", "roomCode", id.RoomCode, "nickname", id.Nickname, "error", err)

	v.mu.Lock()
	if v.mount == mount && v.identity != nil {
		// Only a first connect tears the mount down. A failed reconnect
		// keeps identity, handler, state and outcome.
		if !v.established {
			if v.removeHandler != nil {
				v.removeHandler()
				v.removeHandler = nil
			}
			v.identity = nil
			v.mount++
		}
		v.errMsg = ConnectFailedMessage
	}
	v.mu.Unlock()
	v.notify()

	return err
}

// Leave unregisters from the channel and disconnects it
func (v *GameView) Leave() {
	v.mu.Lock()
	remove := v.removeHandler
	mounted := v.identity != nil
	v.removeHandler = nil
	v.identity = nil
	v.mount++
	v.mu.Unlock()

	if remove != nil {
		remove()
	}
	if mounted {
		v.channel.Disconnect()
		v.notify()
	}
}

// Snapshot returns the current view state. The returned GameState shares
// its slices with the view and must not be modified.
func (v *GameView) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snap := Snapshot{
		State:   v.state,
		Error:   v.errMsg,
		Outcome: v.outcome,
	}
	if v.identity != nil {
		snap.Identity = *v.identity
		snap.Connected = v.channel.IsOpen()
	}
	return snap
}

// Changes signals whenever the snapshot may have changed. Signals coalesce,
// so a receiver should always read a fresh Snapshot.
func (v *GameView) Changes() <-chan struct{} {
	return v.changes
}

// RequestStart asks the server to start a round
func (v *GameView) RequestStart() {
	v.channel.StartGame()
}

// Submit sends a trimmed domain guess. Blank input is rejected locally.
func (v *GameView) Submit(text string) error {
	d := strings.TrimSpace(text)
	if d == "" {
		return domain.ErrEmptyDomain
	}
	v.channel.SubmitDomain(d)
	return nil
}

// AcknowledgeOutcome dismisses the round result and requests a new round
func (v *GameView) AcknowledgeOutcome() {
	v.mu.Lock()
	v.outcome = nil
	v.mu.Unlock()
	v.notify()

	v.RequestStart()
}

func (v *GameView) notify() {
	select {
	case v.changes <- struct{}{}:
	default:
	}
}

// fold applies one server message to the view. Messages that arrive after
// the mount they were registered for has ended are ignored.
type fold struct {
	v     *GameView
	mount uint64
}

func (f fold) apply(fn func(v *GameView)) {
	f.v.mu.Lock()
	defer f.v.mu.Unlock()
	if f.v.mount != f.mount {
		return
	}
	fn(f.v)
}

func (f fold) VisitGameUpdate(m ws.GameUpdate) {
	f.apply(func(v *GameView) {
		v.state = m.State
		v.errMsg = ""
	})
}

func (f fold) VisitServerError(m ws.ServerError) {
	f.apply(func(v *GameView) {
		v.errMsg = m.Message
	})
}

func (f fold) VisitGameOver(m ws.GameOver) {
	f.apply(func(v *GameView) {
		v.outcome = domain.OutcomeFor(m.Winner)
	})
}
