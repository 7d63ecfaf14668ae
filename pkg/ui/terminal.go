package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// ASCII logo for the application
const ASCIILogo = `
  _                        _ _
 (_) __ _  __ ___   ____ _(_) |
 | |/ _' |/ _' \ \ / / _' | | |
 | | (_| | (_| |\ V / (_| | | |
 |_|\__, |\__,_| \_/ \__,_|_|_|
    |___/   username availability checker
`

// Color functions for terminal output
var (
	Cyan    = color.New(color.FgCyan).SprintFunc()
	Yellow  = color.New(color.FgYellow).SprintFunc()
	Red     = color.New(color.FgRed, color.Bold).SprintFunc()
	Green   = color.New(color.FgGreen, color.Bold).SprintFunc()
	Magenta = color.New(color.FgHiMagenta).SprintFunc()
	Dim     = color.New(color.Faint).SprintFunc()
)

var (
	mu        sync.Mutex
	out       io.Writer = color.Output
	quietMode bool
)

// SetOutput redirects terminal output
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetQuietMode suppresses everything except available names and errors
func SetQuietMode(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

// IsQuiet reports whether quiet mode is on
func IsQuiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quietMode
}

// SetNoColor disables ANSI colours globally
func SetNoColor(noColor bool) {
	color.NoColor = noColor
}

func printLine(always bool, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if quietMode && !always {
		return
	}
	fmt.Fprintf(out, format, args...)
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	printLine(false, "%s\n", Cyan(ASCIILogo))
}

// PrintAvailable reports a free username
func PrintAvailable(url string) {
	printLine(true, "%s %s\n", Green("[AVAILABLE]"), url)
}

// PrintUnavailable reports a taken username with the status that decided it
func PrintUnavailable(url string, status int) {
	printLine(false, "%s %s %s\n", Red("[UNAVAILABLE]"), url, Dim(fmt.Sprintf("(status=%d)", status)))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		printLine(true, "%s\n", Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		printLine(true, "%s\n", Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	printLine(false, "%s\n", Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	printLine(false, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		printLine(false, "%s\n", Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		printLine(false, "%s\n", Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	printLine(false, "%s\n", Magenta(msg))
}
