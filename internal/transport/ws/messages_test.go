package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainrace/internal/domain"
)

func TestDecodeMessage_GameUpdate(t *testing.T) {
	raw := `{"type":"game_update","game_state":{"is_active":true,"time_remaining":41,
		"players":[{"nickname":"alice","color":"#ff0000","score":712}],
		"entered_domains":[{"domain":"google.com","rank":1,"player_id":"AB12_alice_1"}],
		"latest_domain":{"domain":"google.com","rank":1,"player_id":"AB12_alice_1"}}}`

	msg, err := DecodeMessage([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, MsgGameUpdate, msg.Type())

	update, ok := msg.(GameUpdate)
	require.True(t, ok)
	assert.True(t, update.State.IsActive)
	assert.Equal(t, 41, update.State.TimeRemaining)
	assert.Equal(t, []domain.Player{{Nickname: "alice", Color: "#ff0000", Score: 712}}, update.State.Players)
	require.Len(t, update.State.EnteredDomains, 1)
	require.NotNil(t, update.State.LatestDomain)
	assert.Equal(t, update.State.EnteredDomains[0], *update.State.LatestDomain)
}

func TestDecodeMessage_Error(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"error","message":"Invalid domain"}`))
	require.NoError(t, err)
	assert.Equal(t, ServerError{Message: "Invalid domain"}, msg)
}

func TestDecodeMessage_GameOver(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"game_over","winner":{"username":"bob","score":12,"color":"#4ECDC4"}}`))
	require.NoError(t, err)
	assert.Equal(t, GameOver{Winner: domain.Player{Nickname: "bob", Score: 12, Color: "#4ECDC4"}}, msg)
}

func TestDecodeMessage_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "not json", raw: `hello`, wantErr: domain.ErrMalformedFrame},
		{name: "unknown tag", raw: `{"type":"player_joined"}`, wantErr: domain.ErrUnknownMessageType},
		{name: "missing tag", raw: `{"message":"x"}`, wantErr: domain.ErrUnknownMessageType},
		{name: "update without state", raw: `{"type":"game_update"}`, wantErr: domain.ErrMalformedFrame},
		{name: "update with null state", raw: `{"type":"game_update","game_state":null}`, wantErr: domain.ErrMalformedFrame},
		{name: "update with bad state", raw: `{"type":"game_update","game_state":{"players":"nope"}}`, wantErr: domain.ErrMalformedFrame},
		{name: "error without message", raw: `{"type":"error"}`, wantErr: domain.ErrMalformedFrame},
		{name: "game over without winner", raw: `{"type":"game_over"}`, wantErr: domain.ErrMalformedFrame},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tc.raw))
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

type recordingVisitor struct {
	seen []MessageType
}

func (r *recordingVisitor) VisitGameUpdate(GameUpdate)   { r.seen = append(r.seen, MsgGameUpdate) }
func (r *recordingVisitor) VisitServerError(ServerError) { r.seen = append(r.seen, MsgError) }
func (r *recordingVisitor) VisitGameOver(GameOver)       { r.seen = append(r.seen, MsgGameOver) }

func TestMessage_Accept(t *testing.T) {
	v := &recordingVisitor{}
	for _, m := range []Message{GameOver{}, GameUpdate{}, ServerError{}} {
		m.Accept(v)
	}
	assert.Equal(t, []MessageType{MsgGameOver, MsgGameUpdate, MsgError}, v.seen)
}

func TestClientMessage_Encoding(t *testing.T) {
	start, err := json.Marshal(NewStartGame())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"start_game"}`, string(start))

	submit, err := json.Marshal(NewSubmitDomain("abc.com"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"submit_domain","domain":"abc.com"}`, string(submit))
}
