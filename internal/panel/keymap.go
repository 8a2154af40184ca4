package panel

// Key binding constants used in handleKey.
const (
	KeyStart     = "s"
	KeySpace     = " "
	KeyEnter     = "enter"
	KeyClose     = "c"
	KeyEscape    = "esc"
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
)
