// Package display provides terminal styling for the human-facing
// subcommands, built on lipgloss.
//
// It respects the NO_COLOR environment variable (https://no-color.org/) and
// detects whether stdout is a terminal. Styling is disabled when output is
// piped or redirected, or when NO_COLOR is set.
package display

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var renderer = lipgloss.NewRenderer(os.Stdout)

var (
	boldStyle   = renderer.NewStyle().Bold(true)
	dimStyle    = renderer.NewStyle().Foreground(lipgloss.Color("#6C757D"))
	greenStyle  = renderer.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	yellowStyle = renderer.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	accentStyle = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
)

// enabled reports whether styled output is active.
// It is set once at init time.
var enabled bool

func init() {
	enabled = shouldEnable()
	if !enabled {
		renderer.SetColorProfile(termenv.Ascii)
	} else if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		renderer.SetColorProfile(termenv.TrueColor)
	}
}

// shouldEnable determines whether to use styled output.
func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	// FORCE_COLOR is honored for testing.
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return isTerminal(os.Stdout)
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// SetEnabled overrides the auto-detected state. Enabling forces true color
// even when stdout is not a terminal.
func SetEnabled(b bool) {
	enabled = b
	if b {
		renderer.SetColorProfile(termenv.TrueColor)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
}

// Enabled reports whether styled output is currently active.
func Enabled() bool {
	return enabled
}

func render(s lipgloss.Style, text string) string {
	if !enabled {
		return text
	}
	return s.Render(text)
}

// Bold returns text rendered in bold.
func Bold(text string) string {
	return render(boldStyle, text)
}

// Dim returns text rendered in a muted gray.
func Dim(text string) string {
	return render(dimStyle, text)
}

// Green returns text rendered in green.
func Green(text string) string {
	return render(greenStyle, text)
}

// Yellow returns text rendered in yellow.
func Yellow(text string) string {
	return render(yellowStyle, text)
}

// Accent marks the next prayer.
func Accent(text string) string {
	return render(accentStyle, text)
}

// Boldf formats and bolds a string.
func Boldf(format string, a ...interface{}) string {
	return Bold(fmt.Sprintf(format, a...))
}
