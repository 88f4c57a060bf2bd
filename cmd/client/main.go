package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"domainrace/internal/app"
	"domainrace/internal/config"
	"domainrace/internal/domain"
	httpTransport "domainrace/internal/transport/http"
	"domainrace/internal/transport/ws"
	"domainrace/internal/ui"
)

const releaseVersion = "0.1.0"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: could not read .env:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:     "domainrace",
		Short:   "Terminal client for the domain guessing race.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg.Logging)
			slog.SetDefault(logger)

			return run(cmd.Context(), cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	config.BindFlags(cmd.Flags(), v)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("domainrace v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) error {
	roomCode := cfg.Player.RoomCode
	if roomCode == "" {
		code, err := httpTransport.NewRoomClient(cfg.Server.APIURL, logger).CreateRoom(ctx)
		if err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		roomCode = code
	}

	if err := ui.RenderInvite(out, roomCode, cfg.UI.ShowQR); err != nil {
		return err
	}

	channel := ws.NewChannel(cfg.Server.WSURL, logger, ws.WithHandshakeTimeout(cfg.Server.HandshakeTimeout))
	view := app.NewGameView(channel, logger)
	defer view.Leave()

	id := domain.Identity{RoomCode: roomCode, Nickname: cfg.Player.Nickname}
	if err := view.Join(ctx, id); err != nil {
		ui.Render(out, view.Snapshot(), id.Nickname)
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprint(out, ui.Help)

	for {
		select {
		case <-ctx.Done():
			logger.Info("interrupted, leaving room")
			return nil

		case <-view.Changes():
			if err := ui.Render(out, view.Snapshot(), id.Nickname); err != nil {
				return err
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleLine(ctx, view, id, out, line); quit {
				return nil
			}
		}
	}
}

// handleLine executes one typed command and reports whether to quit
func handleLine(ctx context.Context, view *app.GameView, id domain.Identity, out io.Writer, line string) bool {
	cmd := ui.ParseCommand(line)
	switch cmd.Kind {
	case ui.CmdNone:
	case ui.CmdQuit:
		return true
	case ui.CmdHelp:
		fmt.Fprint(out, ui.Help)
	case ui.CmdStart:
		view.RequestStart()
	case ui.CmdNewGame:
		view.AcknowledgeOutcome()
	case ui.CmdGuess:
		if !view.Snapshot().Connected {
			// reconnect after the server dropped us
			if err := view.Join(ctx, id); err != nil {
				fmt.Fprintln(out, "still disconnected:", err)
				return false
			}
		}
		if err := view.Submit(cmd.Arg); err != nil {
			fmt.Fprintln(out, err)
		}
	case ui.CmdUnknown:
		fmt.Fprintf(out, "unknown command %s, type /help\n", cmd.Arg)
	}
	return false
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	}

	// stdout belongs to the game screen
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, logOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, logOpts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
