package render

import (
	"os"
	"strings"
)

// Locale selects the user-facing string table.
type Locale string

const (
	LocaleItalian Locale = "it"
	LocaleEnglish Locale = "en"
)

// Messages holds every user-facing string of the search surfaces.
type Messages struct {
	Ready       string
	Listening   string
	Heard       string // format, one %s for the transcript
	Error       string // format, one %s for the error code
	Ended       string
	Searching   string
	Found       string // format, one %d for the lesson count
	Loading     string
	Empty       string
	Failure     string
	Time        string
	Course      string
	Location    string
	Detail      string
	Unavailable string
	Title       string
	KeyStart    string
	KeyClose    string
	KeyQuit     string
}

// LocaleFromEnv resolves the locale from LANG.
func LocaleFromEnv() Locale {
	return ResolveLocale(os.Getenv("LANG"))
}

// ResolveLocale maps a POSIX locale string to a supported table; Italian is the default.
func ResolveLocale(raw string) Locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return LocaleEnglish
	}
	return LocaleItalian
}

// MessagesFor returns the string table for locale.
func MessagesFor(locale Locale) Messages {
	switch locale {
	case LocaleEnglish:
		return Messages{
			Ready:       `Ready to listen. Say a date (e.g. "15 May 2023")`,
			Listening:   "Listening...",
			Heard:       `You said: "%s"`,
			Error:       "Error: %s",
			Ended:       " (Listening ended)",
			Searching:   "Searching...",
			Found:       "Lessons found: %d",
			Loading:     "Loading...",
			Empty:       "No lessons found for the given date.",
			Failure:     "An error occurred during the search.",
			Time:        "Time",
			Course:      "Course",
			Location:    "Location",
			Detail:      "Details",
			Unavailable: "Voice search is not available on this system.",
			Title:       "Voice lesson search",
			KeyStart:    "listen",
			KeyClose:    "close",
			KeyQuit:     "quit",
		}
	default:
		return Messages{
			Ready:       `Pronto per ascoltare. Pronuncia una data (es. "15 maggio 2023")`,
			Listening:   "In ascolto...",
			Heard:       `Hai detto: "%s"`,
			Error:       "Errore: %s",
			Ended:       " (Ascolto terminato)",
			Searching:   "Ricerca in corso...",
			Found:       "Lezioni trovate: %d",
			Loading:     "Caricamento...",
			Empty:       "Nessuna lezione trovata per la data specificata.",
			Failure:     "Si è verificato un errore durante la ricerca.",
			Time:        "Orario",
			Course:      "Corso",
			Location:    "Luogo",
			Detail:      "Dettagli",
			Unavailable: "La ricerca vocale non è disponibile su questo sistema.",
			Title:       "Ricerca vocale lezioni",
			KeyStart:    "ascolta",
			KeyClose:    "chiudi",
			KeyQuit:     "esci",
		}
	}
}
