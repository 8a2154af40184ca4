package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gestionelezioni/voicesearch/internal/cli"
	"github.com/gestionelezioni/voicesearch/internal/config"
	"github.com/gestionelezioni/voicesearch/internal/doctor"
	"github.com/gestionelezioni/voicesearch/internal/logging"
	"github.com/gestionelezioni/voicesearch/internal/render"
	"github.com/gestionelezioni/voicesearch/internal/version"
)

const binaryName = "voicesearch"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
		"version", version.Version,
	)

	renderer := render.New(render.LocaleFromEnv(), cfgLoaded.Config.Search.DetailPath)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandQuery:
		return r.commandQuery(ctx, cfgLoaded.Config, renderer, logger, parsed.Query)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandOpen, cli.CommandStart, cli.CommandClose:
		return r.forwardOrFail(ctx, string(parsed.Command))
	case cli.CommandSearch:
		return r.commandSearch(ctx, cfgLoaded.Config, renderer, logger)
	case cli.CommandPanel:
		return r.commandPanel(ctx, cfgLoaded.Config, renderer, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}
