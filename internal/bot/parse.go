package bot

import (
	"strings"

	"seat_tracker/internal/model"
)

// Command is a recognised chat command.
type Command int

// Supported commands. CommandUnknown is the no-op for anything else.
const (
	CommandUnknown Command = iota
	CommandStart
	CommandHelp
	CommandBoth
	CommandUni
	CommandHome
	CommandStatus
	CommandStop
)

var commands = map[string]Command{
	"/start":  CommandStart,
	"/help":   CommandHelp,
	"/both":   CommandBoth,
	"/uni":    CommandUni,
	"/home":   CommandHome,
	"/status": CommandStatus,
	"/stop":   CommandStop,
}

var commandTokens = func() map[Command]string {
	m := make(map[Command]string, len(commands))
	for tok, cmd := range commands {
		m[cmd] = tok
	}
	return m
}()

// String returns the command token, or "unknown".
func (c Command) String() string {
	if tok, ok := commandTokens[c]; ok {
		return tok
	}
	return "unknown"
}

// Preference returns the preference selected by a preference command.
func (c Command) Preference() (model.Preference, bool) {
	switch c {
	case CommandBoth:
		return model.PreferenceBoth, true
	case CommandUni:
		return model.PreferenceUni, true
	case CommandHome:
		return model.PreferenceHome, true
	}
	return "", false
}

// ParseCommand maps message text to a Command. Only the first word counts;
// it is lower-cased and a trailing "@botname" mention is dropped.
func ParseCommand(text string) Command {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return CommandUnknown
	}
	tok := strings.ToLower(fields[0])
	if i := strings.IndexByte(tok, '@'); i >= 0 {
		tok = tok[:i]
	}
	if cmd, ok := commands[tok]; ok {
		return cmd
	}
	return CommandUnknown
}
