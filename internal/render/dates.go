package render

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the forms the search service is known to emit for lesson dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
}

var (
	italianWeekdays = [...]string{"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato"}
	italianMonths   = [...]string{"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno", "luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"}
)

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders raw as a long date ("lunedì 15 maggio 2023").
// Unparsable input is returned verbatim.
func FormatDate(raw string, locale Locale) string {
	t, ok := parseDate(raw)
	if !ok {
		return raw
	}

	switch locale {
	case LocaleEnglish:
		return t.Format("Monday, January 2, 2006")
	default:
		return fmt.Sprintf("%s %d %s %d",
			italianWeekdays[t.Weekday()],
			t.Day(),
			italianMonths[t.Month()-1],
			t.Year(),
		)
	}
}

// FormatTimeRange joins lesson start and end times as "09:00 - 10:00".
func FormatTimeRange(start, end string) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start
	case start == "":
		return end
	default:
		return start + " - " + end
	}
}
