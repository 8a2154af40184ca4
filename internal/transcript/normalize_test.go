package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNormalizeCollapsesJoinedSegments(t *testing.T) {
	t.Parallel()

	require.Equal(t, "15 maggio 2023", Normalize(" 15 Maggio \n2023 ", Options{}))
	require.Empty(t, Normalize("  \n\t", Options{}))
}

func TestNormalizeKeepsAccentedLetters(t *testing.T) {
	t.Parallel()

	require.Equal(t, "lunedì primo gennaio", Normalize("LUNEDÌ  Primo Gennaio", Options{}))
}

func TestNormalizeUsesConfiguredLanguage(t *testing.T) {
	t.Parallel()

	// Turkish casing maps dotted capital I to a plain i.
	require.Equal(t, "istanbul", Normalize("İSTANBUL", Options{Language: language.Turkish}))
	require.Equal(t, "may 15", Normalize("May 15", Options{Language: ParseLanguage("en-US")}))
}

func TestParseLanguageFallsBackToItalian(t *testing.T) {
	t.Parallel()

	require.Equal(t, language.Italian, ParseLanguage("not a tag!!"))
	require.Equal(t, language.MustParse("it-IT"), ParseLanguage("it-IT"))
}
