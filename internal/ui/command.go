package ui

import "strings"

// CommandKind is what a typed line asks for
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdGuess
	CmdStart
	CmdNewGame
	CmdHelp
	CmdQuit
	CmdUnknown
)

// Command is a parsed input line
type Command struct {
	Kind CommandKind
	Arg  string
}

// Help lists the commands understood by ParseCommand
const Help = `Commands:
  /start   start the round
  /new     dismiss the result and start a new round
  /help    show this help
  /quit    leave the room
Anything else is submitted as a domain guess.
`

// ParseCommand interprets one line of input. Lines starting with "/" are
// commands, everything else is a guess.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CmdNone}
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: CmdGuess, Arg: line}
	}

	name := strings.ToLower(strings.Fields(line)[0])
	switch name {
	case "/start":
		return Command{Kind: CmdStart}
	case "/new":
		return Command{Kind: CmdNewGame}
	case "/help", "/?":
		return Command{Kind: CmdHelp}
	case "/quit", "/exit":
		return Command{Kind: CmdQuit}
	default:
		return Command{Kind: CmdUnknown, Arg: name}
	}
}
