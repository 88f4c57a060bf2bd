package domain

// Identity is the room/participant pair a connection is opened for
type Identity struct {
	RoomCode string `json:"roomCode"`
	Nickname string `json:"nickname"`
}

// Validate checks that both parts of the identity are present
func (id Identity) Validate() error {
	if id.RoomCode == "" || id.Nickname == "" {
		return ErrInvalidIdentity
	}
	return nil
}

// String returns the identity as room/nickname
func (id Identity) String() string {
	return id.RoomCode + "/" + id.Nickname
}
