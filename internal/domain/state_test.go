package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGameState(t *testing.T) {
	s := DefaultGameState()

	assert.False(t, s.IsActive)
	assert.Equal(t, 60, s.TimeRemaining)
	assert.Empty(t, s.Players)
	assert.Empty(t, s.EnteredDomains)
	assert.Nil(t, s.LatestDomain)
}

func TestGameState_CanStart(t *testing.T) {
	cases := []struct {
		name  string
		state GameState
		want  bool
	}{
		{
			name:  "no players",
			state: DefaultGameState(),
			want:  false,
		},
		{
			name:  "single player",
			state: GameState{Players: []Player{{Nickname: "alice"}}},
			want:  false,
		},
		{
			name:  "two players idle",
			state: GameState{Players: []Player{{Nickname: "alice"}, {Nickname: "bob"}}},
			want:  true,
		},
		{
			name:  "round running",
			state: GameState{IsActive: true, Players: []Player{{Nickname: "alice"}, {Nickname: "bob"}}},
			want:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.state.CanStart())
		})
	}
}

func TestGameState_PlayerColor(t *testing.T) {
	s := GameState{
		Players: []Player{
			{Nickname: "alice", Color: "#FF6B6B"},
			{Nickname: "bob", Color: "#4ECDC4"},
		},
	}

	assert.Equal(t, "#4ECDC4", s.PlayerColor("AB12_bob_1718000000.5"))
	assert.Equal(t, "#FF6B6B", s.PlayerColor("AB12_alice_1"))
	assert.Equal(t, UnknownPlayerColor, s.PlayerColor("AB12_carol_1"))
	assert.Equal(t, UnknownPlayerColor, s.PlayerColor("garbage"))
}

func TestPlayer_UnmarshalAcceptsUsername(t *testing.T) {
	var p Player
	require.NoError(t, json.Unmarshal([]byte(`{"username":"bob","color":"#fff","score":12}`), &p))
	assert.Equal(t, Player{Nickname: "bob", Color: "#fff", Score: 12}, p)

	require.NoError(t, json.Unmarshal([]byte(`{"nickname":"alice","username":"ignored","score":3}`), &p))
	assert.Equal(t, "alice", p.Nickname)
	assert.Equal(t, 3, p.Score)
	assert.Empty(t, p.Color)
}

func TestGameState_DecodesNullLatestDomain(t *testing.T) {
	raw := `{"is_active":true,"time_remaining":58,"players":[{"nickname":"alice","color":"#ff0000","score":0}],"entered_domains":[],"latest_domain":null}`

	var s GameState
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.True(t, s.IsActive)
	assert.Equal(t, 58, s.TimeRemaining)
	require.Len(t, s.Players, 1)
	assert.Equal(t, "alice", s.Players[0].Nickname)
	assert.Nil(t, s.LatestDomain)
}

func TestIdentity_Validate(t *testing.T) {
	assert.NoError(t, Identity{RoomCode: "AB12", Nickname: "alice"}.Validate())
	assert.ErrorIs(t, Identity{RoomCode: "", Nickname: "alice"}.Validate(), ErrInvalidIdentity)
	assert.ErrorIs(t, Identity{RoomCode: "AB12"}.Validate(), ErrInvalidIdentity)
	assert.Equal(t, "AB12/alice", Identity{RoomCode: "AB12", Nickname: "alice"}.String())
}

func TestOutcomeFor(t *testing.T) {
	o := OutcomeFor(Player{Nickname: "bob", Score: 12, Color: "#fff"})
	assert.Equal(t, &Outcome{WinnerNickname: "bob", WinnerScore: 12}, o)
}
