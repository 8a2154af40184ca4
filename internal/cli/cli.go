package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandSearch  Command = "search"
	CommandPanel   Command = "panel"
	CommandQuery   Command = "query"
	CommandStatus  Command = "status"
	CommandOpen    Command = "open"
	CommandStart   Command = "start"
	CommandClose   Command = "close"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandSearch:  {},
	CommandPanel:   {},
	CommandQuery:   {},
	CommandStatus:  {},
	CommandOpen:    {},
	CommandStart:   {},
	CommandClose:   {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	// Query is the typed text for the query command.
	Query string
}

// Forwarded reports whether the command is relayed to a running session owner.
func (c Command) Forwarded() bool {
	switch c {
	case CommandStatus, CommandOpen, CommandStart, CommandClose:
		return true
	default:
		return false
	}
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			if cmd == CommandQuery {
				text := strings.TrimSpace(strings.Join(args[i+1:], " "))
				if text == "" {
					return Parsed{}, errors.New("query requires text")
				}
				parsed.Query = text
				return parsed, nil
			}
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  search      Listen for one spoken date, search lessons, and print the results
  panel       Open the interactive voice search panel
  query TEXT  Search lessons for typed text without speech
  status      Print the state of the running session
  open        Open a fresh session in the running owner
  start       Start listening in the running owner
  close       Close the running session
  devices     List available input devices
  doctor      Run configuration and environment checks
  version     Print version information
  help        Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/voicesearch/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
