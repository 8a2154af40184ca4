package cloud

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
)

// utterance tracks one StreamingRecognize exchange.
type utterance struct {
	stream speechpb.Speech_StreamingRecognizeClient
	source Source
	debug  io.Writer

	sendErr chan error

	mu       sync.Mutex
	segments []string
	endOnce  sync.Once
}

func newUtterance(stream speechpb.Speech_StreamingRecognizeClient, source Source, debug io.Writer) *utterance {
	return &utterance{
		stream:  stream,
		source:  source,
		debug:   debug,
		sendErr: make(chan error, 1),
	}
}

// sendLoop forwards capture chunks until capture stops, then half-closes the stream.
func (u *utterance) sendLoop() {
	var err error
	for chunk := range u.source.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		err = u.stream.Send(&speechpb.StreamingRecognizeRequest{
			StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: chunk},
		})
		if err != nil {
			_ = u.source.Stop()
			break
		}
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = u.stream.CloseSend()
	}
	u.sendErr <- err
}

// receive collects final results until the server closes the stream.
func (u *utterance) receive() (string, error) {
	for {
		resp, err := u.stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			u.endCapture()
			return "", fmt.Errorf("receive recognition: %w", err)
		}
		if err := u.record(resp); err != nil {
			u.endCapture()
			return "", err
		}
	}

	u.endCapture()
	if err := <-u.sendErr; err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("send audio: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	return strings.Join(u.segments, " "), nil
}

func (u *utterance) record(resp *speechpb.StreamingRecognizeResponse) error {
	if u.debug != nil {
		if b, err := protojson.Marshal(resp); err == nil {
			_, _ = u.debug.Write(append(b, '\n'))
		}
	}

	if st := resp.GetError(); st != nil && st.GetCode() != 0 {
		return status.ErrorProto(st)
	}

	if resp.GetSpeechEventType() == speechpb.StreamingRecognizeResponse_END_OF_SINGLE_UTTERANCE {
		u.endCapture()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, result := range resp.GetResults() {
		if !result.GetIsFinal() {
			continue
		}
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(alternatives[0].GetTranscript()); text != "" {
			u.segments = append(u.segments, text)
		}
	}
	return nil
}

// endCapture stops the microphone once; the send loop then half-closes the stream.
func (u *utterance) endCapture() {
	u.endOnce.Do(func() {
		_ = u.source.Stop()
	})
}
