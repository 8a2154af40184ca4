// Package search queries the lesson-search endpoint with a spoken transcript.
package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OutcomeKind classifies one search attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeEmpty
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Lesson is one scheduled lesson returned by the service.
type Lesson struct {
	ID        string
	Subject   string
	Date      string
	StartTime string
	EndTime   string
	CourseID  string
	Location  string
}

// Outcome is the tagged result of one search. Lessons is set only for
// OutcomeSuccess and Reason only for OutcomeFailure.
type Outcome struct {
	Kind    OutcomeKind
	Lessons []Lesson
	Reason  string
}

// Success builds a success outcome; an empty list yields OutcomeEmpty.
func Success(lessons []Lesson) Outcome {
	if len(lessons) == 0 {
		return Empty()
	}
	return Outcome{Kind: OutcomeSuccess, Lessons: lessons}
}

func Empty() Outcome {
	return Outcome{Kind: OutcomeEmpty}
}

func Failure(format string, args ...any) Outcome {
	return Outcome{Kind: OutcomeFailure, Reason: fmt.Sprintf(format, args...)}
}

// request is the outbound payload: the lower-cased utterance, unmodified.
type request struct {
	Query string `json:"query"`
}

type response struct {
	Success *bool        `json:"success"`
	Lessons []wireLesson `json:"lezioni"`
	Error   string       `json:"error,omitempty"`
}

type wireLesson struct {
	ID        flexString `json:"id"`
	Subject   flexString `json:"materia"`
	Date      flexString `json:"data"`
	StartTime flexString `json:"ora_inizio"`
	EndTime   flexString `json:"ora_fine"`
	CourseID  flexString `json:"id_corso"`
	Location  flexString `json:"luogo"`
}

func (w wireLesson) lesson() Lesson {
	return Lesson{
		ID:        string(w.ID),
		Subject:   string(w.Subject),
		Date:      string(w.Date),
		StartTime: string(w.StartTime),
		EndTime:   string(w.EndTime),
		CourseID:  string(w.CourseID),
		Location:  string(w.Location),
	}
}

// flexString accepts JSON strings, numbers and null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*s = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*s = flexString(n.String())
	return nil
}
