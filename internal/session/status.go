package session

import (
	"fmt"

	"github.com/gestionelezioni/voicesearch/internal/render"
)

// Phase is the headline of the session status line.
type Phase string

const (
	PhaseClosed    Phase = "closed"
	PhaseReady     Phase = "ready"
	PhaseListening Phase = "listening"
	PhaseHeard     Phase = "heard"
	PhaseError     Phase = "error"
)

// Status is the structured status of the live session. Text derives the
// user-facing line; Ended marks that the capture cycle has finished.
type Status struct {
	Phase  Phase
	Detail string
	Ended  bool
}

// Text renders the status with the given string table.
func (s Status) Text(m render.Messages) string {
	var text string
	switch s.Phase {
	case PhaseReady:
		text = m.Ready
	case PhaseListening:
		text = m.Listening
	case PhaseHeard:
		text = fmt.Sprintf(m.Heard, s.Detail)
	case PhaseError:
		text = fmt.Sprintf(m.Error, s.Detail)
	default:
		return ""
	}
	if s.Ended {
		text += m.Ended
	}
	return text
}
