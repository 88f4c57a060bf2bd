package domain

import "strings"

const (
	// DefaultRoundSeconds is the round length shown before the server reports one
	DefaultRoundSeconds = 60

	// MinPlayersToStart is how many players a room needs before a round can start
	MinPlayersToStart = 2

	// UnknownPlayerColor is used for entries whose player has left the room
	UnknownPlayerColor = "#000000"
)

// GameState is the replicated room state. It is always replaced as a whole
// and must be treated as read-only once received.
type GameState struct {
	IsActive       bool          `json:"is_active"`
	TimeRemaining  int           `json:"time_remaining"`
	Players        []Player      `json:"players"`
	EnteredDomains []DomainEntry `json:"entered_domains"`
	LatestDomain   *DomainEntry  `json:"latest_domain"`
}

// DefaultGameState returns the state shown before the first update arrives
func DefaultGameState() GameState {
	return GameState{
		IsActive:       false,
		TimeRemaining:  DefaultRoundSeconds,
		Players:        make([]Player, 0),
		EnteredDomains: make([]DomainEntry, 0),
		LatestDomain:   nil,
	}
}

// CanStart reports whether a start request makes sense for this state
func (s GameState) CanStart() bool {
	return !s.IsActive && len(s.Players) >= MinPlayersToStart
}

// FindPlayer returns the player with the given nickname
func (s GameState) FindPlayer(nickname string) (Player, bool) {
	for _, p := range s.Players {
		if p.Nickname == nickname {
			return p, true
		}
	}
	return Player{}, false
}

// PlayerColor resolves an entry's attribution to the submitting player's color.
// Attributions have the form <room>_<nickname>_<timestamp>.
func (s GameState) PlayerColor(playerID string) string {
	parts := strings.Split(playerID, "_")
	if len(parts) < 2 {
		return UnknownPlayerColor
	}

	if p, ok := s.FindPlayer(parts[1]); ok && p.Color != "" {
		return p.Color
	}
	return UnknownPlayerColor
}
