package render

import (
	"bufio"
	"fmt"
	"io"
)

// WriteText writes model as a plain-text panel.
func (r Renderer) WriteText(w io.Writer, model DisplayModel) error {
	bw := bufio.NewWriter(w)

	switch model.Kind {
	case KindBlank:
	case KindResults:
		for i, entry := range model.Entries {
			if i > 0 {
				fmt.Fprintln(bw)
			}
			fmt.Fprintf(bw, "%s  %s\n", entry.Subject, entry.Date)
			fmt.Fprintf(bw, "  %s: %s\n", r.messages.Time, entry.TimeRange)
			fmt.Fprintf(bw, "  %s: %s\n", r.messages.Course, entry.Course)
			fmt.Fprintf(bw, "  %s: %s\n", r.messages.Location, entry.Location)
			if entry.DetailPath != "" {
				fmt.Fprintf(bw, "  %s: %s\n", r.messages.Detail, entry.DetailPath)
			}
		}
	default:
		fmt.Fprintln(bw, model.Notice)
	}

	return bw.Flush()
}

// WriteText writes model with the Italian table.
func WriteText(w io.Writer, model DisplayModel) error {
	return New(LocaleItalian, DefaultDetailPath).WriteText(w, model)
}
