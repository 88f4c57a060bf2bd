package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) *Config {
	t.Helper()
	v := NewViper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, v)
	require.NoError(t, fs.Parse(args))
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg := load(t)

	assert.Equal(t, "ws://localhost:8000", cfg.Server.WSURL)
	assert.Equal(t, "http://localhost:8000", cfg.Server.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Server.HandshakeTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Empty(t, cfg.Player.Nickname)
	assert.Empty(t, cfg.Player.RoomCode)
	assert.False(t, cfg.UI.ShowQR)
}

func TestLoad_Flags(t *testing.T) {
	cfg := load(t, "-n", " alice ", "--room", "AB12", "--ws_url", "wss://game.example", "--qr", "--handshake-timeout", "3s")

	assert.Equal(t, "alice", cfg.Player.Nickname)
	assert.Equal(t, "AB12", cfg.Player.RoomCode)
	assert.Equal(t, "wss://game.example", cfg.Server.WSURL)
	assert.Equal(t, 3*time.Second, cfg.Server.HandshakeTimeout)
	assert.True(t, cfg.UI.ShowQR)
}

func TestLoad_RoomCodeUpperCased(t *testing.T) {
	cfg := load(t, "--room", " ab12cd ")
	assert.Equal(t, "AB12CD", cfg.Player.RoomCode)

	t.Setenv("DOMAINRACE_ROOM", "qx7p2m")
	assert.Equal(t, "QX7P2M", load(t).Player.RoomCode)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("DOMAINRACE_NICKNAME", "bob")
	t.Setenv("DOMAINRACE_LOG_FORMAT", "json")
	t.Setenv("DOMAINRACE_API_URL", "https://api.example")

	cfg := load(t)
	assert.Equal(t, "bob", cfg.Player.Nickname)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "https://api.example", cfg.Server.APIURL)

	// flags win over the environment
	cfg = load(t, "--nickname", "carol")
	assert.Equal(t, "carol", cfg.Player.Nickname)
}

func TestValidate(t *testing.T) {
	base := load(t)
	base.Player.Nickname = "alice"
	valid := func() *Config {
		c := *base
		return &c
	}

	require.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "no nickname", mutate: func(c *Config) { c.Player.Nickname = "" }},
		{name: "slash in nickname", mutate: func(c *Config) { c.Player.Nickname = "a/b" }},
		{name: "slash in room", mutate: func(c *Config) { c.Player.RoomCode = "AB/12" }},
		{name: "http websocket url", mutate: func(c *Config) { c.Server.WSURL = "http://localhost:8000" }},
		{name: "ws api url", mutate: func(c *Config) { c.Server.APIURL = "ws://localhost:8000" }},
		{name: "missing host", mutate: func(c *Config) { c.Server.WSURL = "ws://" }},
		{name: "zero timeout", mutate: func(c *Config) { c.Server.HandshakeTimeout = 0 }},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
