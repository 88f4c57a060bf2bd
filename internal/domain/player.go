package domain

import "encoding/json"

// Player is a participant as replicated by the server
type Player struct {
	Nickname string `json:"nickname"`
	Color    string `json:"color"`
	Score    int    `json:"score"`
}

// UnmarshalJSON accepts "username" as an alias for "nickname"; game
// servers still emit the older key.
func (p *Player) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nickname string `json:"nickname"`
		Username string `json:"username"`
		Color    string `json:"color"`
		Score    int    `json:"score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Nickname = raw.Nickname
	if p.Nickname == "" {
		p.Nickname = raw.Username
	}
	p.Color = raw.Color
	p.Score = raw.Score
	return nil
}

// DomainEntry is an accepted domain submission
type DomainEntry struct {
	Domain   string `json:"domain"`
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
}

// Outcome is the terminal result of a round
type Outcome struct {
	WinnerNickname string `json:"winnerNickname"`
	WinnerScore    int    `json:"winnerScore"`
}

// OutcomeFor builds the outcome announced for a winning player
func OutcomeFor(winner Player) *Outcome {
	return &Outcome{
		WinnerNickname: winner.Nickname,
		WinnerScore:    winner.Score,
	}
}
