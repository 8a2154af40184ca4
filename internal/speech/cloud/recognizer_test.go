package cloud

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/gestionelezioni/voicesearch/internal/audio"
	"github.com/gestionelezioni/voicesearch/internal/speech"
)

type fakeSpeechServer struct {
	speechpb.UnimplementedSpeechServer

	mu         sync.Mutex
	config     *speechpb.StreamingRecognitionConfig
	audioBytes int

	handle func(speechpb.Speech_StreamingRecognizeServer) error
}

func (s *fakeSpeechServer) StreamingRecognize(stream speechpb.Speech_StreamingRecognizeServer) error {
	first, err := stream.Recv()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.config = first.GetStreamingConfig()
	s.mu.Unlock()
	return s.handle(stream)
}

func (s *fakeSpeechServer) drainAudio(stream speechpb.Speech_StreamingRecognizeServer) error {
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.audioBytes += len(req.GetAudioContent())
		s.mu.Unlock()
	}
}

func (s *fakeSpeechServer) snapshot() (*speechpb.StreamingRecognitionConfig, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config, s.audioBytes
}

type fakeSource struct {
	chunks chan []byte
	once   sync.Once
	stops  int
	mu     sync.Mutex
}

func newFakeSource(chunks ...[]byte) *fakeSource {
	s := &fakeSource{chunks: make(chan []byte, len(chunks)+1)}
	for _, c := range chunks {
		s.chunks <- c
	}
	return s
}

func (s *fakeSource) Chunks() <-chan []byte { return s.chunks }

func (s *fakeSource) Stop() error {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	s.once.Do(func() { close(s.chunks) })
	return nil
}

func (*fakeSource) Device() audio.Device { return audio.Device{ID: "fake-mic", Description: "Fake Mic"} }

func startFakeServer(t *testing.T, srv *fakeSpeechServer) *gspeech.Client {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	speechpb.RegisterSpeechServer(server, srv)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	client, err := gspeech.NewClient(context.Background(), option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestRecognizer(client *gspeech.Client, source *fakeSource, cfg Config) *Recognizer {
	return New(cfg, nil).
		WithStreamOpener(NewClientStreamOpener(client)).
		WithSourceOpener(
			func(context.Context) (Source, error) { return source, nil },
			func(context.Context) error { return nil },
		)
}

func TestRecognizeReturnsFinalTranscript(t *testing.T) {
	srv := &fakeSpeechServer{}
	srv.handle = func(stream speechpb.Speech_StreamingRecognizeServer) error {
		if err := srv.drainAudio(stream); err != nil {
			return err
		}
		return stream.Send(&speechpb.StreamingRecognizeResponse{
			Results: []*speechpb.StreamingRecognitionResult{{
				IsFinal:      true,
				Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "15 Maggio 2023"}},
			}},
		})
	}
	client := startFakeServer(t, srv)

	source := newFakeSource(make([]byte, audio.ChunkSize), make([]byte, audio.ChunkSize))
	source.once.Do(func() { close(source.chunks) })

	var debug bytes.Buffer
	rec := newTestRecognizer(client, source, Config{
		Phrases:   []Phrase{{Text: "maggio", Boost: 10}, {Text: "  "}},
		DebugSink: &debug,
	})

	text, err := rec.Recognize(context.Background())
	require.NoError(t, err)
	require.Equal(t, "15 Maggio 2023", text)

	cfg, audioBytes := srv.snapshot()
	require.NotNil(t, cfg)
	require.True(t, cfg.GetSingleUtterance())
	require.False(t, cfg.GetInterimResults())
	require.Equal(t, "it-IT", cfg.GetConfig().GetLanguageCode())
	require.Equal(t, int32(audio.SampleRate), cfg.GetConfig().GetSampleRateHertz())
	require.Len(t, cfg.GetConfig().GetSpeechContexts(), 1)
	require.Equal(t, []string{"maggio"}, cfg.GetConfig().GetSpeechContexts()[0].GetPhrases())
	require.Equal(t, 2*audio.ChunkSize, audioBytes)
	require.Contains(t, debug.String(), "15 Maggio 2023")
}

func TestRecognizeStopsCaptureOnEndOfUtterance(t *testing.T) {
	srv := &fakeSpeechServer{}
	srv.handle = func(stream speechpb.Speech_StreamingRecognizeServer) error {
		if _, err := stream.Recv(); err != nil {
			return err
		}
		if err := stream.Send(&speechpb.StreamingRecognizeResponse{
			SpeechEventType: speechpb.StreamingRecognizeResponse_END_OF_SINGLE_UTTERANCE,
		}); err != nil {
			return err
		}
		if err := srv.drainAudio(stream); err != nil {
			return err
		}
		return stream.Send(&speechpb.StreamingRecognizeResponse{
			Results: []*speechpb.StreamingRecognitionResult{
				{IsFinal: false, Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "primo"}}},
				{IsFinal: true, Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "primo gennaio"}}},
			},
		})
	}
	client := startFakeServer(t, srv)

	// The source never closes by itself; only the end-of-utterance event stops it.
	source := newFakeSource(make([]byte, audio.ChunkSize))
	rec := newTestRecognizer(client, source, Config{})

	text, err := rec.Recognize(context.Background())
	require.NoError(t, err)
	require.Equal(t, "primo gennaio", text)
}

func TestRecognizeMapsServerErrorToStatus(t *testing.T) {
	srv := &fakeSpeechServer{}
	srv.handle = func(speechpb.Speech_StreamingRecognizeServer) error {
		return status.Error(codes.PermissionDenied, "api disabled")
	}
	client := startFakeServer(t, srv)

	source := newFakeSource()
	rec := newTestRecognizer(client, source, Config{})

	_, err := rec.Recognize(context.Background())
	require.Error(t, err)
	require.Equal(t, speech.CodeNotAllowed, speech.Classify(err))
}

func TestRecognizeCancelledIsAborted(t *testing.T) {
	srv := &fakeSpeechServer{}
	srv.handle = func(stream speechpb.Speech_StreamingRecognizeServer) error {
		return srv.drainAudio(stream)
	}
	client := startFakeServer(t, srv)

	source := newFakeSource()
	rec := newTestRecognizer(client, source, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := rec.Recognize(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, speech.CodeAborted, speech.Classify(err))
}

func TestRecognizeListenTimeoutIsNoSpeech(t *testing.T) {
	srv := &fakeSpeechServer{}
	srv.handle = func(stream speechpb.Speech_StreamingRecognizeServer) error {
		return srv.drainAudio(stream)
	}
	client := startFakeServer(t, srv)

	rec := newTestRecognizer(client, newFakeSource(), Config{ListenTimeout: 60 * time.Millisecond})

	_, err := rec.Recognize(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, speech.CodeNoSpeech, speech.Classify(err))
}

func TestRecognizeSourceFailureIsAudioCapture(t *testing.T) {
	rec := New(Config{}, nil).WithSourceOpener(
		func(context.Context) (Source, error) { return nil, audio.ErrNoInput },
		nil,
	)

	_, err := rec.Recognize(context.Background())
	require.ErrorIs(t, err, audio.ErrNoInput)
	require.Equal(t, speech.CodeAudioCapture, speech.Classify(err))
}

func TestProbe(t *testing.T) {
	rec := New(Config{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}, nil).
		WithSourceOpener(nil, func(context.Context) error { return nil })
	err := rec.Probe(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "speech credentials")

	creds := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(creds, []byte("{}"), 0o600))

	rec = New(Config{CredentialsFile: creds}, nil).
		WithSourceOpener(nil, func(context.Context) error { return audio.ErrNoInput })
	err = rec.Probe(context.Background())
	require.ErrorIs(t, err, audio.ErrNoInput)

	rec = New(Config{CredentialsFile: creds}, nil).
		WithSourceOpener(nil, func(context.Context) error { return nil })
	require.NoError(t, rec.Probe(context.Background()))
	require.Equal(t, "google-cloud-speech", rec.Name())
}
