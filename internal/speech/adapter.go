// Package speech wraps a host speech-recognition capability behind a single
// start/stop adapter that reports each capture cycle as an ordered event stream.
package speech

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gestionelezioni/voicesearch/internal/transcript"
)

// EventKind tags one adapter event.
type EventKind int

const (
	EventTranscript EventKind = iota + 1
	EventError
	EventEnded
)

func (k EventKind) String() string {
	switch k {
	case EventTranscript:
		return "transcript"
	case EventError:
		return "error"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is one adapter emission. Every cycle yields exactly one Transcript or
// Error event followed by exactly one Ended event.
type Event struct {
	Kind EventKind
	Text string
	Code ErrorCode
	// Err carries the underlying diagnostic for logs; it is never displayed.
	Err error
	At  time.Time
}

// Recognizer is the host capability: one blocking utterance recognition per call.
type Recognizer interface {
	Name() string
	// Probe reports whether the capability can be used at all on this host.
	Probe(context.Context) error
	// Recognize captures a single utterance and returns its final text.
	// It must return promptly once ctx is cancelled.
	Recognize(context.Context) (string, error)
}

// Adapter owns the recognition capability and serializes capture cycles.
type Adapter struct {
	recognizer Recognizer
	logger     *slog.Logger
	opts       transcript.Options
	supported  bool
	probeErr   error

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	active    bool
	cancel    context.CancelFunc
	lastCycle chan struct{}
	closed    bool
}

// NewAdapter probes recognizer once and returns an adapter around it.
// A nil recognizer yields an unsupported adapter.
func NewAdapter(ctx context.Context, recognizer Recognizer, logger *slog.Logger, opts transcript.Options) *Adapter {
	a := &Adapter{
		recognizer: recognizer,
		logger:     logger,
		opts:       opts,
		events:     make(chan Event, 4),
		done:       make(chan struct{}),
	}

	if recognizer == nil {
		a.probeErr = ErrCapabilityUnavailable
		return a
	}
	if err := recognizer.Probe(ctx); err != nil {
		a.probeErr = err
		a.logDebug("speech capability probe failed", "recognizer", recognizer.Name(), "error", err.Error())
		return a
	}
	a.supported = true
	return a
}

// IsSupported reports whether Start can ever succeed.
func (a *Adapter) IsSupported() bool {
	return a.supported
}

// Unsupported returns the probe failure that disabled the adapter, if any.
func (a *Adapter) Unsupported() error {
	return a.probeErr
}

// Events is the single event stream consumed by the session controller.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Start begins one capture cycle.
func (a *Adapter) Start(ctx context.Context) error {
	if !a.supported {
		return ErrCapabilityUnavailable
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrCapabilityUnavailable
	}
	if a.active {
		return ErrAlreadyListening
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	previous := a.lastCycle
	finished := make(chan struct{})

	a.active = true
	a.cancel = cancel
	a.lastCycle = finished

	go a.listen(cycleCtx, cancel, previous, finished)
	return nil
}

// Stop aborts the active cycle. It is a no-op when nothing is listening.
func (a *Adapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active || a.cancel == nil {
		return
	}
	a.cancel()
}

// listening reports whether a cycle is active.
func (a *Adapter) listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Close aborts any active cycle and releases pending emitters.
func (a *Adapter) Close() {
	a.closeOnce.Do(func() { close(a.done) })

	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.cancel != nil {
		a.cancel()
	}
}

// listen runs one recognition and emits its ordered events.
func (a *Adapter) listen(ctx context.Context, cancel context.CancelFunc, previous <-chan struct{}, finished chan<- struct{}) {
	defer close(finished)
	defer cancel()

	text, err := a.recognizer.Recognize(ctx)
	if err == nil {
		text = transcript.Normalize(text, a.opts)
		if text == "" {
			err = &RecognitionError{Code: CodeNoSpeech}
		}
	}

	// Events of the prior cycle must reach the consumer first.
	if previous != nil {
		select {
		case <-previous:
		case <-a.done:
			return
		}
	}

	if err != nil {
		code := Classify(err)
		a.logDebug("speech recognition failed", "code", string(code), "error", err.Error())
		a.emit(Event{Kind: EventError, Code: code, Err: err, At: time.Now()})
	} else {
		a.emit(Event{Kind: EventTranscript, Text: text, At: time.Now()})
	}

	// Ended is queued under the lock: Start keeps failing until it is in the stream.
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = false
	a.cancel = nil
	a.emit(Event{Kind: EventEnded, At: time.Now()})
}

func (a *Adapter) emit(ev Event) {
	select {
	case a.events <- ev:
	case <-a.done:
	}
}

func (a *Adapter) logDebug(message string, args ...any) {
	if a.logger == nil {
		return
	}
	a.logger.Debug(message, args...)
}
