package ui

import (
	"fmt"
	"io"
	"os"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔═════════════════════════════════════════════════════════╗
    ║  ██████╗ ████████╗██╗    ██╗                            ║
    ║ ██╔═══██╗╚══██╔══╝██║    ██║   open-to-work harvester   ║
    ║ ██║   ██║   ██║   ██║ █╗ ██║                            ║
    ║ ██║   ██║   ██║   ██║███╗██║   people search, paced     ║
    ║ ╚██████╔╝   ██║   ╚███╔███╔╝   like a human would       ║
    ║  ╚═════╝    ╚═╝    ╚══╝╚══╝                             ║
    ╚═════════════════════════════════════════════════════════╝
`

// Out is where the print helpers write
var Out io.Writer = os.Stdout

var quiet bool

// SetQuietMode suppresses everything but errors and warnings
func SetQuietMode(q bool) { quiet = q }

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool { return quiet }

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if quiet {
		return
	}
	fmt.Fprint(Out, Cyan(ASCIILogo))
}

// PrintError prints an error message in red, followed by its cause if given
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(Out, Red(withCause(msg, args)))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(Out, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(Out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	fmt.Fprintln(Out, Yellow(withCause(msg, args)))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(Out, Magenta(msg))
}

func withCause(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}
