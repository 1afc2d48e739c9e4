package ui

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is used when stdout is not a terminal.
	DefaultTerminalWidth = 80

	DashboardTitle = "Recently Played Games Dashboard"

	barFilled = "█"
	barEmpty  = " "
)

// Completion returns achieved/total clamped to [0, 1]. A zero total is 0.
func Completion(achieved, total int) float64 {
	if total <= 0 || achieved <= 0 {
		return 0
	}
	ratio := float64(achieved) / float64(total)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// RenderBar draws a bracketed bar of width cells filled in proportion to
// achieved/total. Counts above total render as a full bar; a zero total
// renders an empty bar.
func RenderBar(achieved, total, width int) string {
	if width < 0 {
		width = 0
	}
	filled := int(math.Round(Completion(achieved, total) * float64(width)))
	return "[" + strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, width-filled) + "]"
}

// ProgressLine renders the bar followed by the percentage and raw counts,
// e.g. "[█████     ] 50.0% (5/10)".
func ProgressLine(achieved, total, width int) string {
	pct := FormatPercentage(Completion(achieved, total) * 100)
	return fmt.Sprintf("%s %s (%d/%d)", RenderBar(achieved, total, width), color.GreenString(pct), achieved, total)
}

// TerminalWidth returns the column count of f, or DefaultTerminalWidth when
// f is not a terminal.
func TerminalWidth(f *os.File) int {
	if f == nil {
		return DefaultTerminalWidth
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return width
}

// BarWidth is the progress bar width for a terminal of the given width.
func BarWidth(terminalWidth int) int {
	if terminalWidth <= 0 {
		terminalWidth = DefaultTerminalWidth
	}
	return terminalWidth / 2
}

// DashboardHeader returns the boxed title lines of the dashboard.
func DashboardHeader(width int) []string {
	if width < len(DashboardTitle) {
		width = len(DashboardTitle)
	}
	rule := strings.Repeat("=", width)
	padding := strings.Repeat(" ", (width-len(DashboardTitle))/2)
	return []string{rule, padding + color.New(color.Bold).Sprint(DashboardTitle), rule}
}
