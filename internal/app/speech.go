package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gestionelezioni/voicesearch/internal/config"
	"github.com/gestionelezioni/voicesearch/internal/speech"
	"github.com/gestionelezioni/voicesearch/internal/speech/cloud"
)

// unprobed skips the host capability probe when speech.probe is false.
type unprobed struct {
	speech.Recognizer
}

func (unprobed) Probe(context.Context) error {
	return nil
}

// newRecognizer builds the configured recognizer. The returned closer releases
// debug sinks and is never nil. A nil recognizer means speech is disabled.
func newRecognizer(cfg config.Config, logger *slog.Logger) (speech.Recognizer, io.Closer, error) {
	if cfg.Speech.Backend == config.SpeechBackendNone {
		return nil, nopCloser{}, nil
	}

	phrases, warnings, err := config.BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("build speech contexts: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("speech context warning", "message", w.Message)
	}
	logger.Debug("speech context plan", "phrase_count", len(phrases))

	cloudPhrases := make([]cloud.Phrase, 0, len(phrases))
	for _, phrase := range phrases {
		cloudPhrases = append(cloudPhrases, cloud.Phrase{Text: phrase.Phrase, Boost: phrase.Boost})
	}

	var (
		sink   io.Writer
		closer io.Closer = nopCloser{}
	)
	if cfg.Debug.EnableGRPCDump {
		file, err := createDebugFile("grpc", "jsonl")
		if err != nil {
			return nil, nopCloser{}, err
		}
		logger.Info("grpc debug dump enabled", "path", file.Name())
		sink, closer = file, file
	}

	var recognizer speech.Recognizer = cloud.New(cloud.Config{
		LanguageCode:    cfg.Speech.LanguageCode,
		Model:           cfg.Speech.Model,
		CredentialsFile: cfg.Speech.CredentialsFile,
		AudioInput:      cfg.Audio.Input,
		AudioFallback:   cfg.Audio.Fallback,
		ListenTimeout:   time.Duration(cfg.Speech.ListenTimeoutMS) * time.Millisecond,
		Phrases:         cloudPhrases,
		DebugSink:       sink,
	}, logger)

	if !cfg.Speech.Probe {
		recognizer = unprobed{Recognizer: recognizer}
	}
	return recognizer, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// createDebugFile creates timestamped debug artifacts under state/voicesearch/debug.
func createDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	debugDir := filepath.Join(stateDir, binaryName, "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

// resolveStateDir returns XDG_STATE_HOME or its ~/.local/state fallback.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}
