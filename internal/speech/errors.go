package speech

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrCapabilityUnavailable indicates the host exposes no usable recognition capability.
	ErrCapabilityUnavailable = errors.New("speech recognition is not available on this host")
	// ErrAlreadyListening indicates Start was called while a capture cycle is still active.
	ErrAlreadyListening = errors.New("speech recognition already listening")
)

// ErrorCode is the recognition failure vocabulary surfaced to the session.
type ErrorCode string

const (
	CodeNoSpeech     ErrorCode = "no-speech"
	CodeAudioCapture ErrorCode = "audio-capture"
	CodeNotAllowed   ErrorCode = "not-allowed"
	CodeNetwork      ErrorCode = "network"
	CodeAborted      ErrorCode = "aborted"
	CodeOther        ErrorCode = "other"
)

// RecognitionError tags a capability failure with its recognition code.
type RecognitionError struct {
	Code ErrorCode
	Err  error
}

func (e *RecognitionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("recognition error: %s", e.Code)
	}
	return fmt.Sprintf("recognition error: %s: %v", e.Code, e.Err)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// Classify maps a raw capability error onto the recognition error vocabulary.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var recErr *RecognitionError
	if errors.As(err, &recErr) && recErr.Code != "" {
		return recErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return CodeAborted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeNoSpeech
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
			return CodeNetwork
		case codes.PermissionDenied, codes.Unauthenticated:
			return CodeNotAllowed
		case codes.Canceled:
			return CodeAborted
		}
	}

	return CodeOther
}
