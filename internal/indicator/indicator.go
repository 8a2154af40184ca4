// Package indicator mirrors session phases as desktop notifications and audio cues.
package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gestionelezioni/voicesearch/internal/config"
	"github.com/gestionelezioni/voicesearch/internal/fsm"
	"github.com/gestionelezioni/voicesearch/internal/render"
	"github.com/gestionelezioni/voicesearch/internal/session"
)

const (
	pendingTimeoutMS = 300000
	resultTimeoutMS  = 4000
	dispatchTimeout  = 400 * time.Millisecond
)

// Notifier is a session surface that reacts to state changes only; status
// refinements within one state (such as the ended marker) are not re-announced.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages render.Messages

	notify  func(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error)
	dismiss func(ctx context.Context, id uint32) error
	cue     func(ctx context.Context, kind cueKind) error

	mu             sync.Mutex
	lastState      fsm.State
	lastToken      uint64
	notificationID uint32

	soundMu sync.Mutex
	cues    sync.WaitGroup

	queueMu    sync.Mutex
	queue      []func(context.Context)
	draining   bool
	dispatches sync.WaitGroup
}

// New builds a notifier from config.
func New(cfg config.IndicatorConfig, messages render.Messages, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:       cfg,
		logger:    logger,
		messages:  messages,
		notify:    desktopNotify,
		dismiss:   desktopDismiss,
		cue:       emitCue,
		lastState: fsm.StateIdle,
	}
}

// Show announces the snapshot when it entered a new state or session.
func (n *Notifier) Show(s session.Snapshot) {
	n.mu.Lock()
	changed := s.State != n.lastState || s.Token != n.lastToken
	n.lastState = s.State
	n.lastToken = s.Token
	n.mu.Unlock()
	if !changed {
		return
	}

	switch s.State {
	case fsm.StateListening:
		n.playCue(cueStart)
		n.postAsync(s.StatusText, pendingTimeoutMS)
	case fsm.StateSearching:
		n.playCue(cueStop)
		n.postAsync(n.messages.Searching, pendingTimeoutMS)
	case fsm.StateResultsShown:
		n.showResults(s.Display)
	case fsm.StateErrored:
		n.playCue(cueError)
		n.postAsync(s.StatusText, n.errorTimeout())
	case fsm.StateIdle:
		if s.Status.Phase == session.PhaseClosed {
			n.enqueue(n.hide)
		}
	}
}

func (n *Notifier) showResults(model render.DisplayModel) {
	switch model.Kind {
	case render.KindResults:
		n.playCue(cueComplete)
		n.postAsync(fmt.Sprintf(n.messages.Found, len(model.Entries)), resultTimeoutMS)
	case render.KindError:
		n.playCue(cueError)
		n.postAsync(model.Notice, n.errorTimeout())
	default:
		n.playCue(cueComplete)
		n.postAsync(model.Notice, resultTimeoutMS)
	}
}

// Close dismisses the last notification and waits for pending dispatches and cues.
func (n *Notifier) Close() {
	n.enqueue(n.hide)
	n.dispatches.Wait()
	n.cues.Wait()
}

func (n *Notifier) postAsync(text string, timeoutMS int) {
	n.enqueue(func(ctx context.Context) { n.post(ctx, text, timeoutMS) })
}

// enqueue runs job off the caller's goroutine. Jobs run one at a time in
// submission order, so replacement IDs chain across notifications.
func (n *Notifier) enqueue(job func(context.Context)) {
	n.queueMu.Lock()
	defer n.queueMu.Unlock()

	n.queue = append(n.queue, job)
	if n.draining {
		return
	}
	n.draining = true
	n.dispatches.Add(1)
	go n.drain()
}

func (n *Notifier) drain() {
	defer n.dispatches.Done()
	for {
		n.queueMu.Lock()
		if len(n.queue) == 0 {
			n.draining = false
			n.queueMu.Unlock()
			return
		}
		job := n.queue[0]
		n.queue = n.queue[1:]
		n.queueMu.Unlock()

		job(context.Background())
	}
}

func (n *Notifier) enabled() bool {
	return n.cfg.Enable && n.cfg.Backend == config.IndicatorBackendDesktop
}

func (n *Notifier) errorTimeout() int {
	if n.cfg.ErrorTimeoutMS <= 0 {
		return 1200
	}
	return n.cfg.ErrorTimeoutMS
}

// post sends a replaceable desktop notification and keeps its ID.
func (n *Notifier) post(ctx context.Context, text string, timeoutMS int) {
	if !n.enabled() || strings.TrimSpace(text) == "" {
		return
	}

	n.mu.Lock()
	replaceID := n.notificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "voicesearch"
	}

	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	id, err := n.notify(runCtx, appName, replaceID, text, timeoutMS)
	if err != nil {
		n.log("indicator dispatch failed", err)
		return
	}

	n.mu.Lock()
	n.notificationID = id
	n.mu.Unlock()
}

func (n *Notifier) hide(ctx context.Context) {
	n.mu.Lock()
	id := n.notificationID
	n.notificationID = 0
	n.mu.Unlock()

	if !n.enabled() || id == 0 {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := n.dismiss(runCtx, id); err != nil {
		n.log("indicator dismiss failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := n.cue(ctx, kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
