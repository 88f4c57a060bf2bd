// Package ui renders the game view to a terminal and parses typed commands.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/skip2/go-qrcode"

	"domainrace/internal/app"
)

const rule = "----------------------------------------"

// Render writes a full frame of the view for the player named self
func Render(w io.Writer, snap app.Snapshot, self string) error {
	var b strings.Builder

	status := "disconnected"
	if snap.Connected {
		status = "connected"
	}
	room := snap.Identity.RoomCode
	if room == "" {
		room = "-"
	}
	fmt.Fprintf(&b, "%s\nRoom: %s (%s)\n%s\n", rule, room, status, rule)

	if o := snap.Outcome; o != nil {
		fmt.Fprintf(&b, "Game Over! Winner: %s with %d points!\n", o.WinnerNickname, o.WinnerScore)
		b.WriteString("Type /new to play again.\n\n")
	}

	if snap.Error != "" {
		fmt.Fprintf(&b, "! %s\n\n", snap.Error)
	}

	state := snap.State
	b.WriteString("Players\n")
	if len(state.Players) == 0 {
		b.WriteString("  (none yet)\n")
	}
	for _, p := range state.Players {
		marker := " "
		if p.Nickname == self {
			marker = "*"
		}
		fmt.Fprintf(&b, " %s %-20s %6d  %s\n", marker, p.Nickname, p.Score, p.Color)
	}

	if state.CanStart() {
		b.WriteString("\nType /start to start the game.\n")
	}

	if state.IsActive {
		fmt.Fprintf(&b, "\nTime: %ds  (type a domain and press enter)\n", state.TimeRemaining)
	}

	if d := state.LatestDomain; d != nil {
		fmt.Fprintf(&b, "\nLatest domain: %s (Rank: %d)\n", d.Domain, d.Rank)
	}

	if len(state.EnteredDomains) > 0 {
		b.WriteString("\nEntered Domains\n")
		for _, e := range state.EnteredDomains {
			fmt.Fprintf(&b, "  #%-8d %-30s %s\n", e.Rank, e.Domain, state.PlayerColor(e.PlayerID))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderInvite prints the room code, optionally followed by a QR code of it
func RenderInvite(w io.Writer, roomCode string, withQR bool) error {
	if _, err := fmt.Fprintf(w, "Room code: %s\nShare it with other players to let them join.\n", roomCode); err != nil {
		return err
	}
	if !withQR {
		return nil
	}

	qr, err := qrcode.New(roomCode, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("render qr code: %w", err)
	}
	_, err = io.WriteString(w, qr.ToSmallString(false))
	return err
}
