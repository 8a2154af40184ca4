package panel

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#00AFAF")
	colorGray   = lipgloss.Color("#666666")
	colorDim    = lipgloss.Color("#444444")
	colorRed    = lipgloss.Color("#D70000")
	colorYellow = lipgloss.Color("#D7AF00")
	colorGreen  = lipgloss.Color("#5FAF00")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	listeningStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	subjectStyle = lipgloss.NewStyle().
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	linkStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Underline(true)

	entryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(colorDim).
			PaddingLeft(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)
