package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gestionelezioni/voicesearch/internal/audio"
	"github.com/gestionelezioni/voicesearch/internal/config"
	"github.com/gestionelezioni/voicesearch/internal/ipc"
	"github.com/gestionelezioni/voicesearch/internal/render"
	"github.com/gestionelezioni/voicesearch/internal/search"
	"github.com/gestionelezioni/voicesearch/internal/version"
)

const forwardTimeout = 2 * time.Second

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

// commandQuery runs the search and render path for typed text.
func (r Runner) commandQuery(ctx context.Context, cfg config.Config, renderer render.Renderer, logger *slog.Logger, query string) int {
	client := search.NewClient(cfg.Search.URL, logger,
		search.WithTimeout(time.Duration(cfg.Search.TimeoutMS)*time.Millisecond),
		search.WithUserAgent(version.UserAgent()),
	)

	started := time.Now()
	outcome := client.Search(ctx, query)
	model := renderer.Render(outcome)

	fields := []any{
		"outcome", outcome.Kind.String(),
		"lessons", len(outcome.Lessons),
		"query_length", len(query),
		"search_ms", time.Since(started).Milliseconds(),
	}
	if outcome.Kind == search.OutcomeFailure {
		logger.Warn("query complete", append(fields, "reason", outcome.Reason)...)
	} else {
		logger.Info("query complete", fields...)
	}

	if err := renderer.WriteText(r.Stdout, model); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if model.Kind == render.KindError {
		return 1
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, err := ipc.Forward(ctx, socketPath, ipc.CommandStatus, forwardTimeout)
	if errors.Is(err, ipc.ErrNoSession) {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err == nil && !resp.OK {
		err = errors.New(resp.Error)
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if resp.State == "" {
		resp.State = "idle"
	}
	if resp.Message != "" {
		fmt.Fprintf(r.Stdout, "%s: %s\n", resp.State, resp.Message)
		return 0
	}
	fmt.Fprintln(r.Stdout, resp.State)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, err := ipc.Forward(ctx, socketPath, command, forwardTimeout)
	if errors.Is(err, ipc.ErrNoSession) {
		fmt.Fprintln(r.Stderr, "error: no active voicesearch session")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: forward command %q: %v\n", command, err)
		return 1
	}
	if !resp.OK {
		fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}
