package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestionelezioni/voicesearch/internal/search"
)

func TestRenderSingleLesson(t *testing.T) {
	model := Render(search.Success([]search.Lesson{{
		ID:        "7",
		Subject:   "Matematica",
		Date:      "2023-05-15",
		StartTime: "09:00",
		EndTime:   "10:00",
		CourseID:  "C1",
		Location:  "Aula 3",
	}}))

	require.Equal(t, KindResults, model.Kind)
	require.Empty(t, model.Notice)
	require.Equal(t, []Entry{{
		LessonID:   "7",
		Subject:    "Matematica",
		Date:       "lunedì 15 maggio 2023",
		TimeRange:  "09:00 - 10:00",
		Course:     "C1",
		Location:   "Aula 3",
		DetailPath: "/modifica_lezione/7",
	}}, model.Entries)
}

func TestRenderPreservesServiceOrder(t *testing.T) {
	model := Render(search.Success([]search.Lesson{
		{ID: "3", Subject: "Storia", Date: "2023-05-16"},
		{ID: "1", Subject: "Arte", Date: "2023-05-15"},
		{ID: "2", Subject: "Fisica", Date: "2023-05-15"},
	}))

	require.Len(t, model.Entries, 3)
	require.Equal(t, "Storia", model.Entries[0].Subject)
	require.Equal(t, "Arte", model.Entries[1].Subject)
	require.Equal(t, "Fisica", model.Entries[2].Subject)
}

func TestRenderEmptyIsNotError(t *testing.T) {
	model := Render(search.Empty())
	require.Equal(t, KindEmpty, model.Kind)
	require.Equal(t, "Nessuna lezione trovata per la data specificata.", model.Notice)
	require.Empty(t, model.Entries)

	// A success carrying no lessons is still the empty variant.
	require.Equal(t, KindEmpty, Render(search.Outcome{Kind: search.OutcomeSuccess}).Kind)
}

func TestRenderFailureHidesReason(t *testing.T) {
	model := Render(search.Failure("request failed: dial tcp: connection refused"))
	require.Equal(t, KindError, model.Kind)
	require.Equal(t, "Si è verificato un errore durante la ricerca.", model.Notice)
	require.NotContains(t, model.Notice, "connection refused")
	require.Empty(t, model.Entries)
}

func TestLoadingAndBlank(t *testing.T) {
	r := New(LocaleItalian, "")
	require.Equal(t, KindLoading, r.Loading().Kind)
	require.Equal(t, "Caricamento...", r.Loading().Notice)
	require.False(t, r.Loading().Kind.Terminal())
	require.Equal(t, KindBlank, Blank().Kind)
	require.False(t, Blank().Kind.Terminal())
	require.True(t, KindEmpty.Terminal())
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		raw    string
		locale Locale
		want   string
	}{
		{raw: "2023-05-15", locale: LocaleItalian, want: "lunedì 15 maggio 2023"},
		{raw: "2024-02-29", locale: LocaleItalian, want: "giovedì 29 febbraio 2024"},
		{raw: "2023-05-14T08:00:00+02:00", locale: LocaleItalian, want: "domenica 14 maggio 2023"},
		{raw: "Mon, 15 May 2023 00:00:00 GMT", locale: LocaleItalian, want: "lunedì 15 maggio 2023"},
		{raw: "2023-05-15", locale: LocaleEnglish, want: "Monday, May 15, 2023"},
		{raw: "domani", locale: LocaleItalian, want: "domani"},
		{raw: "", locale: LocaleItalian, want: ""},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, FormatDate(tc.raw, tc.locale), tc.raw)
	}
}

func TestFormatTimeRange(t *testing.T) {
	require.Equal(t, "09:00 - 10:00", FormatTimeRange("09:00", "10:00"))
	require.Equal(t, "09:00", FormatTimeRange(" 09:00 ", ""))
	require.Empty(t, FormatTimeRange("", ""))
}

func TestCustomDetailPath(t *testing.T) {
	model := New(LocaleEnglish, "/lessons").Render(search.Success([]search.Lesson{{ID: "42", Subject: "Art"}}))
	require.Equal(t, "/lessons/42", model.Entries[0].DetailPath)

	model = Render(search.Success([]search.Lesson{{Subject: "Senza id"}}))
	require.Empty(t, model.Entries[0].DetailPath)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	model := Render(search.Success([]search.Lesson{{
		ID: "7", Subject: "Matematica", Date: "2023-05-15", StartTime: "09:00", EndTime: "10:00", CourseID: "C1", Location: "Aula 3",
	}}))
	require.NoError(t, WriteText(&buf, model))
	require.Equal(t, "Matematica  lunedì 15 maggio 2023\n"+
		"  Orario: 09:00 - 10:00\n"+
		"  Corso: C1\n"+
		"  Luogo: Aula 3\n"+
		"  Dettagli: /modifica_lezione/7\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteText(&buf, Render(search.Empty())))
	require.Equal(t, "Nessuna lezione trovata per la data specificata.\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteText(&buf, Blank()))
	require.Empty(t, buf.String())
}

func TestResolveLocale(t *testing.T) {
	require.Equal(t, LocaleEnglish, ResolveLocale("en_US.UTF-8"))
	require.Equal(t, LocaleItalian, ResolveLocale("it_IT.UTF-8"))
	require.Equal(t, LocaleItalian, ResolveLocale(""))
	require.Equal(t, LocaleItalian, ResolveLocale("C"))

	t.Setenv("LANG", "en_GB.UTF-8")
	require.Equal(t, LocaleEnglish, LocaleFromEnv())
	require.Equal(t, "In ascolto...", MessagesFor(LocaleItalian).Listening)
}
