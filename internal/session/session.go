// Package session owns the voice-search session: it drives the capture adapter,
// runs searches, and publishes snapshots of the one live session to surfaces.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gestionelezioni/voicesearch/internal/fsm"
	"github.com/gestionelezioni/voicesearch/internal/ipc"
	"github.com/gestionelezioni/voicesearch/internal/render"
	"github.com/gestionelezioni/voicesearch/internal/search"
	"github.com/gestionelezioni/voicesearch/internal/speech"
)

// ErrStopped is returned by commands issued after Run has returned.
var ErrStopped = errors.New("session controller is not running")

// Capture is the controller-facing subset of the speech adapter.
type Capture interface {
	IsSupported() bool
	Unsupported() error
	Start(context.Context) error
	Stop()
	Events() <-chan speech.Event
}

// Searcher runs one lesson search.
type Searcher interface {
	Search(context.Context, string) search.Outcome
}

// Surface displays session snapshots. Show is called from the controller loop.
type Surface interface {
	Show(Snapshot)
}

// SurfaceFunc adapts a function to the Surface interface.
type SurfaceFunc func(Snapshot)

func (f SurfaceFunc) Show(s Snapshot) {
	f(s)
}

// Snapshot is an immutable view of the live session.
type Snapshot struct {
	State      fsm.State
	Transcript string
	Status     Status
	StatusText string
	Token      uint64
	TraceID    uuid.UUID
	Display    render.DisplayModel
}

type commandKind int

const (
	commandOpen commandKind = iota + 1
	commandStart
	commandClose
)

func (k commandKind) String() string {
	switch k {
	case commandOpen:
		return "open"
	case commandStart:
		return "start"
	case commandClose:
		return "close"
	default:
		return "unknown"
	}
}

type command struct {
	kind  commandKind
	reply chan error
}

// completion carries a search outcome back to the loop with its session token.
type completion struct {
	token   uint64
	outcome search.Outcome
	elapsed time.Duration
}

// Controller serializes user commands, capture events and search completions
// through one loop goroutine.
type Controller struct {
	logger   *slog.Logger
	capture  Capture
	searcher Searcher
	renderer render.Renderer
	surfaces []Surface

	commands    chan command
	completions chan completion
	stopped     chan struct{}
	stopOnce    sync.Once

	mu   sync.RWMutex
	snap Snapshot

	// Loop-owned state.
	nextToken    uint64
	opened       bool
	cycles       []uint64
	cancelSearch context.CancelFunc
	startedAt    time.Time
}

// NewController builds a controller. A nil or unsupported capture yields a
// disabled controller whose Open and Start always fail.
func NewController(
	logger *slog.Logger,
	capture Capture,
	searcher Searcher,
	renderer render.Renderer,
	surfaces ...Surface,
) *Controller {
	c := &Controller{
		logger:      logger,
		capture:     capture,
		searcher:    searcher,
		renderer:    renderer,
		commands:    make(chan command),
		completions: make(chan completion, 1),
		stopped:     make(chan struct{}),
	}
	for _, s := range surfaces {
		if s != nil {
			c.surfaces = append(c.surfaces, s)
		}
	}
	c.snap = Snapshot{State: fsm.StateIdle, Status: Status{Phase: PhaseClosed}}
	return c
}

// Enabled reports whether voice search can run on this host.
func (c *Controller) Enabled() bool {
	return c.capture != nil && c.capture.IsSupported()
}

// DisabledReason explains why Enabled is false.
func (c *Controller) DisabledReason() error {
	if c.Enabled() {
		return nil
	}
	if c.capture != nil {
		if err := c.capture.Unsupported(); err != nil && !errors.Is(err, speech.ErrCapabilityUnavailable) {
			return fmt.Errorf("%w: %v", speech.ErrCapabilityUnavailable, err)
		}
	}
	return speech.ErrCapabilityUnavailable
}

// Renderer returns the renderer used for display models.
func (c *Controller) Renderer() render.Renderer {
	return c.renderer
}

// State returns the current session state.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.State
}

// Snapshot returns a copy of the live session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Open starts a fresh session with cleared results and a ready status.
func (c *Controller) Open(ctx context.Context) error {
	return c.send(ctx, commandOpen)
}

// Start arms the capture adapter for one utterance.
func (c *Controller) Start(ctx context.Context) error {
	return c.send(ctx, commandStart)
}

// Close discards the live session and stops any active capture.
func (c *Controller) Close(ctx context.Context) error {
	return c.send(ctx, commandClose)
}

func (c *Controller) send(ctx context.Context, kind commandKind) error {
	if !c.Enabled() {
		if kind == commandClose {
			return nil
		}
		return c.DisabledReason()
	}

	cmd := command{kind: kind, reply: make(chan error, 1)}
	select {
	case c.commands <- cmd:
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes commands, capture events and search completions until ctx ends.
func (c *Controller) Run(ctx context.Context) error {
	defer c.stopOnce.Do(func() { close(c.stopped) })

	var events <-chan speech.Event
	if c.Enabled() {
		events = c.capture.Events()
	}

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case cmd := <-c.commands:
			cmd.reply <- c.apply(ctx, cmd.kind)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.onSpeech(ctx, ev)
		case done := <-c.completions:
			c.onSearchDone(done)
		}
	}
}

func (c *Controller) apply(ctx context.Context, kind commandKind) error {
	switch kind {
	case commandOpen:
		return c.open()
	case commandStart:
		return c.start(ctx)
	case commandClose:
		return c.close()
	default:
		return fmt.Errorf("unknown command %d", kind)
	}
}

func (c *Controller) open() error {
	snap := c.Snapshot()
	next, err := fsm.Transition(snap.State, fsm.EventOpen)
	if err != nil {
		return err
	}

	c.newSession(&snap)
	c.opened = true
	snap.State = next
	snap.Status = Status{Phase: PhaseReady}
	c.publish(snap)
	return nil
}

func (c *Controller) start(ctx context.Context) error {
	snap := c.Snapshot()
	if fsm.Busy(snap.State) {
		c.logWarn("start rejected: session invariant violated",
			"state", string(snap.State),
			"token", snap.Token,
		)
		return fmt.Errorf("start from %s: %w", snap.State, speech.ErrAlreadyListening)
	}
	if len(c.cycles) > 0 {
		c.logWarn("start rejected: previous capture has not ended",
			"state", string(snap.State),
			"token", snap.Token,
			"pending_cycles", len(c.cycles),
		)
		return fmt.Errorf("start before capture ended: %w", speech.ErrAlreadyListening)
	}

	next, err := fsm.Transition(snap.State, fsm.EventStart)
	if err != nil {
		return err
	}

	if err := c.capture.Start(ctx); err != nil {
		if errors.Is(err, speech.ErrAlreadyListening) {
			c.logWarn("start rejected: capture still active",
				"state", string(snap.State),
				"token", snap.Token,
			)
		}
		return fmt.Errorf("arm speech capture: %w", err)
	}

	if fsm.Terminal(snap.State) || !c.opened {
		c.newSession(&snap)
		c.opened = true
	}
	c.cycles = append(c.cycles, snap.Token)
	c.startedAt = time.Now()

	snap.State = next
	snap.Transcript = ""
	snap.Status = Status{Phase: PhaseListening}
	snap.Display = render.Blank()
	c.publish(snap)
	return nil
}

func (c *Controller) close() error {
	snap := c.Snapshot()
	next, err := fsm.Transition(snap.State, fsm.EventClose)
	if err != nil {
		return err
	}

	c.capture.Stop()
	if c.cancelSearch != nil {
		c.cancelSearch()
		c.cancelSearch = nil
	}

	c.nextToken++
	c.opened = false
	c.publish(Snapshot{
		State:   next,
		Status:  Status{Phase: PhaseClosed},
		Token:   c.nextToken,
		Display: render.Blank(),
	})
	return nil
}

func (c *Controller) onSpeech(ctx context.Context, ev speech.Event) {
	if len(c.cycles) == 0 {
		c.logWarn("speech event without capture cycle", "kind", ev.Kind.String())
		return
	}
	cycle := c.cycles[0]
	if ev.Kind == speech.EventEnded {
		c.cycles = c.cycles[1:]
	}

	snap := c.Snapshot()
	if cycle != snap.Token {
		c.logDebug("stale speech event discarded",
			"kind", ev.Kind.String(),
			"event_token", cycle,
			"token", snap.Token,
		)
		return
	}

	switch ev.Kind {
	case speech.EventTranscript:
		c.onTranscript(ctx, snap, ev.Text)
	case speech.EventError:
		c.onRecognitionError(snap, ev)
	case speech.EventEnded:
		if snap.State == fsm.StateIdle {
			return
		}
		snap.Status.Ended = true
		c.publish(snap)
	}
}

func (c *Controller) onTranscript(ctx context.Context, snap Snapshot, text string) {
	next, err := fsm.Transition(snap.State, fsm.EventTranscript)
	if err != nil {
		c.logWarn("transcript ignored", "error", err.Error(), "token", snap.Token)
		return
	}
	snap.State = next
	snap.Transcript = text
	snap.Status = Status{Phase: PhaseHeard, Detail: text}
	c.publish(snap)

	next, err = fsm.Transition(snap.State, fsm.EventSearch)
	if err != nil {
		c.logWarn("search not started", "error", err.Error(), "token", snap.Token)
		return
	}
	snap.State = next
	snap.Display = c.renderer.Loading()
	c.publish(snap)

	c.launchSearch(ctx, snap.Token, text)
}

func (c *Controller) onRecognitionError(snap Snapshot, ev speech.Event) {
	next, err := fsm.Transition(snap.State, fsm.EventRecognition)
	if err != nil {
		c.logWarn("recognition error ignored", "error", err.Error(), "token", snap.Token)
		return
	}
	snap.State = next
	snap.Status = Status{Phase: PhaseError, Detail: string(ev.Code)}
	snap.Display = render.Blank()
	c.publish(snap)

	args := []any{
		"token", snap.Token,
		"trace_id", snap.TraceID.String(),
		"state", string(snap.State),
		"code", string(ev.Code),
		"duration_ms", time.Since(c.startedAt).Milliseconds(),
	}
	if ev.Err != nil {
		args = append(args, "error", ev.Err.Error())
	}
	c.logInfo("session failed", args...)
}

func (c *Controller) launchSearch(ctx context.Context, token uint64, query string) {
	searchCtx, cancel := context.WithCancel(ctx)
	c.cancelSearch = cancel

	go func() {
		defer cancel()
		started := time.Now()
		outcome := c.searcher.Search(searchCtx, query)
		select {
		case c.completions <- completion{token: token, outcome: outcome, elapsed: time.Since(started)}:
		case <-c.stopped:
		}
	}()
}

func (c *Controller) onSearchDone(done completion) {
	snap := c.Snapshot()
	if done.token != snap.Token || snap.State != fsm.StateSearching {
		c.logDebug("stale search outcome discarded",
			"outcome", done.outcome.Kind.String(),
			"outcome_token", done.token,
			"token", snap.Token,
			"state", string(snap.State),
		)
		return
	}
	c.cancelSearch = nil

	next, err := fsm.Transition(snap.State, fsm.EventResolved)
	if err != nil {
		c.logWarn("search outcome ignored", "error", err.Error(), "token", snap.Token)
		return
	}
	snap.State = next
	snap.Display = c.renderer.Render(done.outcome)
	c.publish(snap)

	args := []any{
		"token", snap.Token,
		"trace_id", snap.TraceID.String(),
		"state", string(snap.State),
		"outcome", done.outcome.Kind.String(),
		"transcript_length", len(snap.Transcript),
		"lessons", len(done.outcome.Lessons),
		"search_ms", done.elapsed.Milliseconds(),
		"duration_ms", time.Since(c.startedAt).Milliseconds(),
	}
	if done.outcome.Kind == search.OutcomeFailure {
		args = append(args, "reason", done.outcome.Reason)
		c.logWarn("session complete", args...)
		return
	}
	c.logInfo("session complete", args...)
}

// newSession assigns a fresh token and trace id and clears results.
func (c *Controller) newSession(snap *Snapshot) {
	c.nextToken++
	snap.Token = c.nextToken
	snap.TraceID = uuid.New()
	snap.Transcript = ""
	snap.Display = render.Blank()
}

func (c *Controller) publish(snap Snapshot) {
	snap.StatusText = snap.Status.Text(c.renderer.Messages())

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	for _, s := range c.surfaces {
		s.Show(snap)
	}
}

func (c *Controller) shutdown() {
	if c.capture != nil {
		c.capture.Stop()
	}
	if c.cancelSearch != nil {
		c.cancelSearch()
		c.cancelSearch = nil
	}
}

// Handle serves IPC commands for the live session.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	var err error
	switch req.Command {
	case ipc.CommandStatus:
		snap := c.Snapshot()
		return ipc.Response{OK: true, State: string(snap.State), Message: snap.StatusText}
	case ipc.CommandOpen:
		err = c.Open(ctx)
	case ipc.CommandStart:
		err = c.Start(ctx)
	case ipc.CommandClose:
		err = c.Close(ctx)
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}

	snap := c.Snapshot()
	if err != nil {
		return ipc.Response{OK: false, State: string(snap.State), Error: err.Error()}
	}
	return ipc.Response{OK: true, State: string(snap.State), Message: snap.StatusText}
}

func (c *Controller) logInfo(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, args...)
}

func (c *Controller) logWarn(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(message, args...)
}

func (c *Controller) logDebug(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(message, args...)
}
