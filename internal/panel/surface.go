package panel

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gestionelezioni/voicesearch/internal/render"
	"github.com/gestionelezioni/voicesearch/internal/session"
)

// Surface forwards controller snapshots into a running panel program.
// Snapshots published while no program is attached are dropped.
type Surface struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// NewSurface returns a detached surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Show implements session.Surface.
func (s *Surface) Show(snap session.Snapshot) {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()

	if send != nil {
		send(SnapshotMsg{Snapshot: snap})
	}
}

func (s *Surface) attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
}

// Run shows the panel until the user quits or ctx ends.
func Run(ctx context.Context, controls Controls, renderer render.Renderer, surface *Surface, opts ...tea.ProgramOption) error {
	model := New(ctx, controls, renderer)
	program := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	if surface != nil {
		surface.attach(program.Send)
		defer surface.attach(nil)
	}

	_, err := program.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
