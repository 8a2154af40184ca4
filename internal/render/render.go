// Package render turns search outcomes into display models for the voice search surfaces.
package render

import (
	"strings"

	"github.com/gestionelezioni/voicesearch/internal/search"
)

// DefaultDetailPath is the route prefix of the lesson detail view.
const DefaultDetailPath = "/modifica_lezione/"

// Kind tags the variant of a DisplayModel.
type Kind int

const (
	KindBlank Kind = iota
	KindLoading
	KindResults
	KindEmpty
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindLoading:
		return "loading"
	case KindResults:
		return "results"
	case KindEmpty:
		return "empty"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the model is a final search display.
func (k Kind) Terminal() bool {
	return k == KindResults || k == KindEmpty || k == KindError
}

// Entry is one rendered lesson.
type Entry struct {
	LessonID   string
	Subject    string
	Date       string
	TimeRange  string
	Course     string
	Location   string
	DetailPath string
}

// DisplayModel is what a surface shows below the session status.
// Entries is set only for KindResults; Notice for every other non-blank kind.
type DisplayModel struct {
	Kind    Kind
	Entries []Entry
	Notice  string
}

// Renderer formats outcomes for one locale.
type Renderer struct {
	locale     Locale
	messages   Messages
	detailPath string
}

// New builds a renderer. An empty detailPath uses DefaultDetailPath.
func New(locale Locale, detailPath string) Renderer {
	detailPath = strings.TrimSpace(detailPath)
	if detailPath == "" {
		detailPath = DefaultDetailPath
	}
	if !strings.HasSuffix(detailPath, "/") {
		detailPath += "/"
	}
	return Renderer{
		locale:     locale,
		messages:   MessagesFor(locale),
		detailPath: detailPath,
	}
}

// Render formats outcome with the Italian table and default detail route.
func Render(outcome search.Outcome) DisplayModel {
	return New(LocaleItalian, DefaultDetailPath).Render(outcome)
}

func (r Renderer) Locale() Locale {
	return r.locale
}

func (r Renderer) Messages() Messages {
	return r.messages
}

// Render maps one search outcome to its display model, preserving lesson order.
func (r Renderer) Render(outcome search.Outcome) DisplayModel {
	switch outcome.Kind {
	case search.OutcomeSuccess:
		// search.Success never builds this, but an Outcome literal can.
		if len(outcome.Lessons) == 0 {
			return DisplayModel{Kind: KindEmpty, Notice: r.messages.Empty}
		}
		entries := make([]Entry, 0, len(outcome.Lessons))
		for _, lesson := range outcome.Lessons {
			entries = append(entries, r.entry(lesson))
		}
		return DisplayModel{Kind: KindResults, Entries: entries}
	case search.OutcomeEmpty:
		return DisplayModel{Kind: KindEmpty, Notice: r.messages.Empty}
	default:
		// Failure reasons are logged by the caller, never shown.
		return DisplayModel{Kind: KindError, Notice: r.messages.Failure}
	}
}

// Loading is shown while a search is in flight.
func (r Renderer) Loading() DisplayModel {
	return DisplayModel{Kind: KindLoading, Notice: r.messages.Loading}
}

// Blank is the display of a freshly opened session.
func Blank() DisplayModel {
	return DisplayModel{Kind: KindBlank}
}

func (r Renderer) entry(lesson search.Lesson) Entry {
	e := Entry{
		LessonID:  lesson.ID,
		Subject:   lesson.Subject,
		Date:      FormatDate(lesson.Date, r.locale),
		TimeRange: FormatTimeRange(lesson.StartTime, lesson.EndTime),
		Course:    lesson.CourseID,
		Location:  lesson.Location,
	}
	if id := strings.TrimSpace(lesson.ID); id != "" {
		e.DetailPath = r.detailPath + id
	}
	return e
}
