package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI sets the lipgloss color profile from the environment.
// CLICOLOR_FORCE=1 or COLORTERM=truecolor force true color output, which keeps
// board snapshots colored when stdout is not a terminal. NO_COLOR disables color.
func InitializeTUI() {
	switch {
	case os.Getenv("NO_COLOR") != "":
		lipgloss.SetColorProfile(termenv.Ascii)
	case os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// DisableColor forces plain output, used by --no-color.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
