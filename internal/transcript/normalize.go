// Package transcript normalizes recognized utterance text.
package transcript

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Options controls transcript normalization.
type Options struct {
	// Language selects the casing rules; the zero value means Italian.
	Language language.Tag
}

// Normalize collapses whitespace and lower-cases text with locale-aware rules.
func Normalize(text string, opts Options) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return ""
	}
	return cases.Lower(opts.tag()).String(normalized)
}

// ParseLanguage maps a BCP 47 code such as "it-IT" to a casing tag, falling back to Italian.
func ParseLanguage(code string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return language.Italian
	}
	return tag
}

func (o Options) tag() language.Tag {
	if o.Language == language.Und {
		return language.Italian
	}
	return o.Language
}
