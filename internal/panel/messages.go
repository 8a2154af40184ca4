package panel

import "github.com/gestionelezioni/voicesearch/internal/session"

// SnapshotMsg carries a session snapshot published by the controller.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// CommandResultMsg reports the result of a controller command issued from a key.
type CommandResultMsg struct {
	Action string
	Err    error
}

// closedMsg is sent after the quit key closed the session.
type closedMsg struct{}
