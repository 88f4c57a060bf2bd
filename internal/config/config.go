package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable
const EnvPrefix = "DOMAINRACE"

// Flag names, also used as viper keys
const (
	KeyAPIURL           = "api-url"
	KeyWSURL            = "ws-url"
	KeyHandshakeTimeout = "handshake-timeout"
	KeyNickname         = "nickname"
	KeyRoomCode         = "room"
	KeyLogLevel         = "log-level"
	KeyLogFormat        = "log-format"
	KeyShowQR           = "qr"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Player  PlayerConfig
	Logging LoggingConfig
	UI      UIConfig
}

// ServerConfig holds game server endpoints
type ServerConfig struct {
	APIURL           string
	WSURL            string
	HandshakeTimeout time.Duration
}

// PlayerConfig holds who joins which room
type PlayerConfig struct {
	Nickname string
	RoomCode string // empty means provision a new room
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// UIConfig holds terminal options
type UIConfig struct {
	ShowQR bool
}

// NewViper returns a viper instance reading DOMAINRACE_* variables
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags registers every option on fs and binds it to v
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.String(KeyAPIURL, "http://localhost:8000", "game server HTTP base URL (env: DOMAINRACE_API_URL)")
	fs.String(KeyWSURL, "ws://localhost:8000", "game server websocket base URL (env: DOMAINRACE_WS_URL)")
	fs.Duration(KeyHandshakeTimeout, 10*time.Second, "websocket handshake timeout (env: DOMAINRACE_HANDSHAKE_TIMEOUT)")
	fs.StringP(KeyNickname, "n", "", "nickname to play as (env: DOMAINRACE_NICKNAME)")
	fs.StringP(KeyRoomCode, "r", "", "room code to join, a new room is created if empty (env: DOMAINRACE_ROOM)")
	fs.String(KeyLogLevel, "info", "log level: debug, info, warn or error (env: DOMAINRACE_LOG_LEVEL)")
	fs.String(KeyLogFormat, "text", "log format: text or json (env: DOMAINRACE_LOG_FORMAT)")
	fs.Bool(KeyShowQR, false, "print the room code as a QR code (env: DOMAINRACE_QR)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
	})
}

// Load reads the configuration out of v
func Load(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			APIURL:           v.GetString(KeyAPIURL),
			WSURL:            v.GetString(KeyWSURL),
			HandshakeTimeout: v.GetDuration(KeyHandshakeTimeout),
		},
		Player: PlayerConfig{
			Nickname: strings.TrimSpace(v.GetString(KeyNickname)),
			RoomCode: strings.ToUpper(strings.TrimSpace(v.GetString(KeyRoomCode))),
		},
		Logging: LoggingConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		UI: UIConfig{
			ShowQR: v.GetBool(KeyShowQR),
		},
	}
}

// Validate checks the configuration before anything connects
func (c *Config) Validate() error {
	if c.Player.Nickname == "" {
		return errors.New("a nickname is required (--nickname or DOMAINRACE_NICKNAME)")
	}
	if strings.ContainsRune(c.Player.Nickname, '/') || strings.ContainsRune(c.Player.RoomCode, '/') {
		return errors.New("nickname and room code cannot contain '/'")
	}
	if err := checkURL(KeyWSURL, c.Server.WSURL, "ws", "wss"); err != nil {
		return err
	}
	if err := checkURL(KeyAPIURL, c.Server.APIURL, "http", "https"); err != nil {
		return err
	}
	if c.Server.HandshakeTimeout <= 0 {
		return fmt.Errorf("invalid %s: %v", KeyHandshakeTimeout, c.Server.HandshakeTimeout)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid %s %q (must be text or json)", KeyLogFormat, c.Logging.Format)
	}
	return nil
}

func checkURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: missing host", key, raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: scheme must be one of %s", key, raw, strings.Join(schemes, ", "))
}
