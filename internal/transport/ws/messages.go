package ws

import (
	"encoding/json"
	"fmt"

	"domainrace/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Server → Client message types
const (
	MsgGameUpdate MessageType = "game_update"
	MsgError      MessageType = "error"
	MsgGameOver   MessageType = "game_over"
)

// Client → Server message types
const (
	MsgStartGame    MessageType = "start_game"
	MsgSubmitDomain MessageType = "submit_domain"
)

// Message is an inbound server message. The set of implementations is
// closed: GameUpdate, ServerError and GameOver.
type Message interface {
	Type() MessageType
	Accept(v MessageVisitor)
}

// MessageVisitor handles every inbound message variant. A new variant adds a
// method here, so every visitor stops compiling until it handles it.
type MessageVisitor interface {
	VisitGameUpdate(m GameUpdate)
	VisitServerError(m ServerError)
	VisitGameOver(m GameOver)
}

// GameUpdate carries a full replacement of the room state
type GameUpdate struct {
	State domain.GameState
}

// ServerError carries a human-readable error reported by the server
type ServerError struct {
	Message string
}

// GameOver announces the winner of the round
type GameOver struct {
	Winner domain.Player
}

func (GameUpdate) Type() MessageType  { return MsgGameUpdate }
func (ServerError) Type() MessageType { return MsgError }
func (GameOver) Type() MessageType    { return MsgGameOver }

func (m GameUpdate) Accept(v MessageVisitor)  { v.VisitGameUpdate(m) }
func (m ServerError) Accept(v MessageVisitor) { v.VisitServerError(m) }
func (m GameOver) Accept(v MessageVisitor)    { v.VisitGameOver(m) }

// envelope is the union of every inbound frame's fields
type envelope struct {
	Type      MessageType     `json:"type"`
	GameState json.RawMessage `json:"game_state,omitempty"`
	Message   *string         `json:"message,omitempty"`
	Winner    json.RawMessage `json:"winner,omitempty"`
}

// DecodeMessage parses one inbound frame
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}

	switch env.Type {
	case MsgGameUpdate:
		if isAbsent(env.GameState) {
			return nil, fmt.Errorf("%w: game_update without game_state", domain.ErrMalformedFrame)
		}
		var state domain.GameState
		if err := json.Unmarshal(env.GameState, &state); err != nil {
			return nil, fmt.Errorf("%w: game_state: %v", domain.ErrMalformedFrame, err)
		}
		return GameUpdate{State: state}, nil

	case MsgError:
		if env.Message == nil {
			return nil, fmt.Errorf("%w: error without message", domain.ErrMalformedFrame)
		}
		return ServerError{Message: *env.Message}, nil

	case MsgGameOver:
		if isAbsent(env.Winner) {
			return nil, fmt.Errorf("%w: game_over without winner", domain.ErrMalformedFrame)
		}
		var winner domain.Player
		if err := json.Unmarshal(env.Winner, &winner); err != nil {
			return nil, fmt.Errorf("%w: winner: %v", domain.ErrMalformedFrame, err)
		}
		return GameOver{Winner: winner}, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMessageType, env.Type)
	}
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Client message payloads

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type   MessageType `json:"type"`
	Domain string      `json:"domain,omitempty"`
}

// NewStartGame builds a start_game command
func NewStartGame() ClientMessage {
	return ClientMessage{Type: MsgStartGame}
}

// NewSubmitDomain builds a submit_domain command
func NewSubmitDomain(domain string) ClientMessage {
	return ClientMessage{Type: MsgSubmitDomain, Domain: domain}
}
