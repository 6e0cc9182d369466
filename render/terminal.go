package render

import (
	"os"
	"strconv"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var isTerminalFn = term.IsTerminal

// colorsWanted decides whether screens on fd get colors. NO_COLOR wins over
// FORCE_COLOR; otherwise fd must be a terminal that is not "dumb".
func colorsWanted(fd int) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if !isTerminalFn(fd) || color.NoColor {
		return false
	}
	t := os.Getenv("TERM")
	return t != "dumb"
}

// terminalWidth returns the column count of fd, then $COLUMNS, then
// defaultWidth.
func terminalWidth(fd int) int {
	if isTerminalFn(fd) {
		if cols, _, err := term.GetSize(fd); err == nil && cols > 0 {
			return cols
		}
	}
	if c, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && c > 0 {
		return c
	}
	return defaultWidth
}
