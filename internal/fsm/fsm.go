// Package fsm defines the voice-search session state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateListening    State = "listening"
	StateTranscribed  State = "transcribed"
	StateSearching    State = "searching"
	StateResultsShown State = "results_shown"
	StateErrored      State = "errored"
)

const (
	EventOpen        Event = "open"
	EventStart       Event = "start"
	EventTranscript  Event = "transcript"
	EventRecognition Event = "recognition_error"
	EventSearch      Event = "search"
	EventResolved    Event = "resolved"
	EventClose       Event = "close"
)

// Transition returns the state reached from current on event.
//
// Close is accepted from every state. Open and start are accepted from idle
// and from the two terminal states: open resets to idle, start begins a fresh
// capture cycle.
func Transition(current State, event Event) (State, error) {
	if event == EventClose {
		if !Known(current) {
			return current, fmt.Errorf("unknown state %q", current)
		}
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventOpen:
			return StateIdle, nil
		case EventStart:
			return StateListening, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventTranscript:
			return StateTranscribed, nil
		case EventRecognition:
			return StateErrored, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTranscribed:
		switch event {
		case EventSearch:
			return StateSearching, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSearching:
		switch event {
		case EventResolved:
			return StateResultsShown, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateResultsShown, StateErrored:
		switch event {
		case EventOpen:
			return StateIdle, nil
		case EventStart:
			return StateListening, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// Known reports whether state is one of the declared session states.
func Known(state State) bool {
	switch state {
	case StateIdle, StateListening, StateTranscribed, StateSearching, StateResultsShown, StateErrored:
		return true
	default:
		return false
	}
}

// Terminal reports whether state ends a capture cycle.
func Terminal(state State) bool {
	return state == StateResultsShown || state == StateErrored
}

// Busy reports whether a capture or search is still pending in state.
func Busy(state State) bool {
	return state == StateListening || state == StateTranscribed || state == StateSearching
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
