package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gestionelezioni/voicesearch/internal/config"
	"github.com/gestionelezioni/voicesearch/internal/fsm"
	"github.com/gestionelezioni/voicesearch/internal/indicator"
	"github.com/gestionelezioni/voicesearch/internal/ipc"
	"github.com/gestionelezioni/voicesearch/internal/panel"
	"github.com/gestionelezioni/voicesearch/internal/render"
	"github.com/gestionelezioni/voicesearch/internal/search"
	"github.com/gestionelezioni/voicesearch/internal/session"
	"github.com/gestionelezioni/voicesearch/internal/speech"
	"github.com/gestionelezioni/voicesearch/internal/transcript"
	"github.com/gestionelezioni/voicesearch/internal/version"
)

const (
	acquireProbeTimeout = 180 * time.Millisecond
	acquireRetries      = 8
)

// buildRecognizer is swapped in tests to run the owner without a microphone.
var buildRecognizer = newRecognizer

// owner is the process holding the session socket and the live controller.
type owner struct {
	ctrl   *session.Controller
	closer func()
}

// ownSession acquires the session socket, wires the controller and serves IPC
// while body runs. body receives a context that ends with the owner.
func (r Runner) ownSession(
	ctx context.Context,
	cfg config.Config,
	renderer render.Renderer,
	logger *slog.Logger,
	surfaces []session.Surface,
	body func(context.Context, *session.Controller) int,
) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, acquireProbeTimeout, acquireRetries)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	o, err := newOwner(ctx, cfg, renderer, logger, surfaces)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer o.closer()

	if !o.ctrl.Enabled() {
		reason := o.ctrl.DisabledReason()
		fmt.Fprintln(r.Stderr, renderer.Messages().Unavailable)
		fmt.Fprintf(r.Stderr, "error: %v\n", reason)
		logger.Warn("voice search disabled", "error", reason.Error())
		return 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- o.ctrl.Run(runCtx) }()

	serveDone := make(chan error, 1)
	go func() { serveDone <- ipc.Serve(runCtx, listener, o.ctrl) }()

	code := body(runCtx, o.ctrl)

	cancel()
	if runErr := <-runDone; runErr != nil {
		logger.Error("session controller failed", "error", runErr.Error())
	}
	if serveErr := <-serveDone; serveErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serveErr)
		return 1
	}
	return code
}

func newOwner(
	ctx context.Context,
	cfg config.Config,
	renderer render.Renderer,
	logger *slog.Logger,
	surfaces []session.Surface,
) (*owner, error) {
	recognizer, sinkCloser, err := buildRecognizer(cfg, logger)
	if err != nil {
		return nil, err
	}

	adapter := speech.NewAdapter(ctx, recognizer, logger, transcript.Options{
		Language: transcript.ParseLanguage(cfg.Speech.LanguageCode),
	})

	client := search.NewClient(cfg.Search.URL, logger,
		search.WithTimeout(time.Duration(cfg.Search.TimeoutMS)*time.Millisecond),
		search.WithUserAgent(version.UserAgent()),
	)

	notifier := indicator.New(cfg.Indicator, renderer.Messages(), logger)
	all := append([]session.Surface{notifier}, surfaces...)

	ctrl := session.NewController(logger, adapter, client, renderer, all...)

	return &owner{
		ctrl: ctrl,
		closer: func() {
			adapter.Close()
			notifier.Close()
			_ = sinkCloser.Close()
		},
	}, nil
}

// commandSearch listens for one utterance, searches, and prints the result.
func (r Runner) commandSearch(ctx context.Context, cfg config.Config, renderer render.Renderer, logger *slog.Logger) int {
	surface := newTextSurface(r.Stderr)

	return r.ownSession(ctx, cfg, renderer, logger, []session.Surface{surface}, func(ctx context.Context, ctrl *session.Controller) int {
		if err := ctrl.Open(ctx); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if err := ctrl.Start(ctx); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}

		var final session.Snapshot
		select {
		case final = <-surface.final:
		case <-ctx.Done():
			_ = ctrl.Close(context.Background())
			fmt.Fprintln(r.Stderr, "cancelled")
			return 1
		}

		switch final.State {
		case fsm.StateResultsShown:
			if err := renderer.WriteText(r.Stdout, final.Display); err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			if final.Display.Kind == render.KindError {
				return 1
			}
			return 0
		case fsm.StateErrored:
			return 1
		default:
			fmt.Fprintln(r.Stderr, "closed")
			return 0
		}
	})
}

// commandPanel runs the interactive panel as the session owner.
func (r Runner) commandPanel(ctx context.Context, cfg config.Config, renderer render.Renderer, logger *slog.Logger) int {
	surface := panel.NewSurface()

	return r.ownSession(ctx, cfg, renderer, logger, []session.Surface{surface}, func(ctx context.Context, ctrl *session.Controller) int {
		if err := panel.Run(ctx, ctrl, renderer, surface); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	})
}
