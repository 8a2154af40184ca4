// Package ipc carries voice-search commands between CLI invocations and the
// process that owns the live session, as JSON lines over a unix socket.
package ipc

// Commands understood by the session owner.
const (
	CommandStatus = "status"
	CommandOpen   = "open"
	CommandStart  = "start"
	CommandClose  = "close"
)

// IsCommand reports whether name is a forwardable session command.
func IsCommand(name string) bool {
	switch name {
	case CommandStatus, CommandOpen, CommandStart, CommandClose:
		return true
	default:
		return false
	}
}

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
