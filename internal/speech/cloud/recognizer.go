// Package cloud implements the host speech capability on top of Pulse capture
// and Google Cloud Speech-to-Text streaming recognition.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/gestionelezioni/voicesearch/internal/audio"
	"github.com/gestionelezioni/voicesearch/internal/speech"
)

const defaultListenTimeout = 8 * time.Second

// Phrase is one vocabulary hint passed to the recognizer with its boost.
type Phrase struct {
	Text  string
	Boost float32
}

// Config controls device selection and recognition request shape.
type Config struct {
	LanguageCode    string
	Model           string
	CredentialsFile string
	AudioInput      string
	AudioFallback   string
	ListenTimeout   time.Duration
	Phrases         []Phrase
	// DebugSink receives one protojson line per recognition response when set.
	DebugSink io.Writer
}

// Source is a running microphone capture.
type Source interface {
	Chunks() <-chan []byte
	Stop() error
	Device() audio.Device
}

// StreamOpener opens one StreamingRecognize call and returns its release func.
type StreamOpener func(context.Context) (speechpb.Speech_StreamingRecognizeClient, func() error, error)

// SourceOpener starts capture on the selected input device.
type SourceOpener func(context.Context) (Source, error)

// Recognizer captures exactly one utterance per Recognize call.
type Recognizer struct {
	cfg    Config
	logger *slog.Logger

	openStream StreamOpener
	openSource SourceOpener
	probeAudio func(context.Context) error
}

// New builds a recognizer wired to Pulse and Google Cloud Speech.
func New(cfg Config, logger *slog.Logger) *Recognizer {
	if strings.TrimSpace(cfg.LanguageCode) == "" {
		cfg.LanguageCode = "it-IT"
	}
	if cfg.ListenTimeout <= 0 {
		cfg.ListenTimeout = defaultListenTimeout
	}

	r := &Recognizer{cfg: cfg, logger: logger}
	r.openStream = r.dialGoogle
	r.openSource = r.startPulse
	r.probeAudio = func(ctx context.Context) error {
		_, err := audio.SelectDevice(ctx, cfg.AudioInput, cfg.AudioFallback)
		return err
	}
	return r
}

// WithStreamOpener replaces the Google transport, for alternate endpoints and tests.
func (r *Recognizer) WithStreamOpener(open StreamOpener) *Recognizer {
	r.openStream = open
	return r
}

// WithSourceOpener replaces microphone capture.
func (r *Recognizer) WithSourceOpener(open SourceOpener, probe func(context.Context) error) *Recognizer {
	r.openSource = open
	r.probeAudio = probe
	return r
}

func (r *Recognizer) Name() string {
	return "google-cloud-speech"
}

// Probe checks that a microphone is selectable and configured credentials exist.
func (r *Recognizer) Probe(ctx context.Context) error {
	if path := strings.TrimSpace(r.cfg.CredentialsFile); path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("speech credentials: %w", err)
		}
	}
	if r.probeAudio == nil {
		return nil
	}
	if err := r.probeAudio(ctx); err != nil {
		return fmt.Errorf("audio input: %w", err)
	}
	return nil
}

// Recognize listens for one utterance and returns its final transcript.
func (r *Recognizer) Recognize(ctx context.Context) (string, error) {
	listenCtx, cancel := context.WithTimeout(ctx, r.cfg.ListenTimeout)
	defer cancel()

	source, err := r.openSource(listenCtx)
	if err != nil {
		return "", &speech.RecognitionError{Code: speech.CodeAudioCapture, Err: err}
	}
	defer func() { _ = source.Stop() }()

	stream, release, err := r.openStream(listenCtx)
	if err != nil {
		return "", r.contextOr(listenCtx, fmt.Errorf("open streaming recognizer: %w", err))
	}
	defer func() { _ = release() }()

	if err := stream.Send(r.configRequest()); err != nil {
		// io.EOF on Send means the server ended the call; Recv carries the real status.
		if errors.Is(err, io.EOF) {
			if _, recvErr := stream.Recv(); recvErr != nil && !errors.Is(recvErr, io.EOF) {
				err = recvErr
			}
		}
		return "", r.contextOr(listenCtx, fmt.Errorf("send streaming config: %w", err))
	}

	started := time.Now()
	u := newUtterance(stream, source, r.cfg.DebugSink)
	go u.sendLoop()

	text, err := u.receive()
	if err != nil {
		return "", r.contextOr(listenCtx, err)
	}

	if r.logger != nil {
		r.logger.Debug("utterance recognized",
			"device", source.Device().Label(),
			"latency_ms", time.Since(started).Milliseconds(),
			"transcript_length", len(text),
		)
	}
	return text, nil
}

// configRequest builds the first streaming message: final results only, one utterance.
func (r *Recognizer) configRequest() *speechpb.StreamingRecognizeRequest {
	cfg := &speechpb.RecognitionConfig{
		Encoding:          speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz:   audio.SampleRate,
		AudioChannelCount: 1,
		LanguageCode:      r.cfg.LanguageCode,
		Model:             strings.TrimSpace(r.cfg.Model),
	}
	for _, phrase := range r.cfg.Phrases {
		text := strings.TrimSpace(phrase.Text)
		if text == "" {
			continue
		}
		cfg.SpeechContexts = append(cfg.SpeechContexts, &speechpb.SpeechContext{
			Phrases: []string{text},
			Boost:   phrase.Boost,
		})
	}

	return &speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:          cfg,
				SingleUtterance: true,
				InterimResults:  false,
			},
		},
	}
}

// contextOr prefers the listen context error so cancellation and timeouts classify cleanly.
func (r *Recognizer) contextOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (r *Recognizer) dialGoogle(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, func() error, error) {
	var opts []option.ClientOption
	if path := strings.TrimSpace(r.cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	client, err := gspeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create speech client: %w", err)
	}
	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return stream, client.Close, nil
}

func (r *Recognizer) startPulse(ctx context.Context) (Source, error) {
	selection, err := audio.SelectDevice(ctx, r.cfg.AudioInput, r.cfg.AudioFallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" && r.logger != nil {
		r.logger.Warn(selection.Warning)
	}
	capture, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		return nil, err
	}
	return capture, nil
}

// NewClientStreamOpener adapts an existing speech client, for callers that
// manage their own connection (custom endpoints, tests).
func NewClientStreamOpener(client *gspeech.Client) StreamOpener {
	return func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, func() error, error) {
		if client == nil {
			return nil, nil, errors.New("speech client is nil")
		}
		stream, err := client.StreamingRecognize(ctx)
		if err != nil {
			return nil, nil, err
		}
		return stream, func() error { return nil }, nil
	}
}
