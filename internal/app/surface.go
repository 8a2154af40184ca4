package app

import (
	"fmt"
	"io"

	"github.com/gestionelezioni/voicesearch/internal/fsm"
	"github.com/gestionelezioni/voicesearch/internal/session"
)

// textSurface prints status changes as lines and hands the first settled
// snapshot of the session to the search command.
type textSurface struct {
	out      io.Writer
	lastText string
	final    chan session.Snapshot
}

func newTextSurface(out io.Writer) *textSurface {
	return &textSurface{out: out, final: make(chan session.Snapshot, 1)}
}

func (s *textSurface) Show(snap session.Snapshot) {
	if snap.StatusText != "" && snap.StatusText != s.lastText {
		fmt.Fprintln(s.out, snap.StatusText)
	}
	s.lastText = snap.StatusText

	if !settled(snap) {
		return
	}
	select {
	case s.final <- snap:
	default:
	}
}

// settled reports whether snap ends a one-shot search: a rendered outcome,
// a recognition error, or a close.
func settled(snap session.Snapshot) bool {
	switch snap.State {
	case fsm.StateResultsShown, fsm.StateErrored:
		return true
	case fsm.StateIdle:
		return snap.Status.Phase == session.PhaseClosed
	default:
		return false
	}
}
