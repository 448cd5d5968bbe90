package ui

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// Out receives everything printed by this package.
var Out io.Writer = color.Output

var (
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed)
	success = color.New(color.FgGreen)
	info    = color.New(color.FgBlue)
	banner  = color.New(color.FgCyan)
	key     = color.New(color.Bold)
)

func PrintBanner(title string) {
	fig := figure.NewFigure(title, "isometric1", true)
	banner.Fprintln(Out, fig.String())
	fmt.Fprintln(Out)
}

// PrintWarning displays a warning message with consistent formatting
func PrintWarning(message string) {
	warning.Fprintln(Out, "\nWarning:")
	warning.Fprintln(Out, message)
}

// PrintError displays an error message with consistent formatting
func PrintError(message string) {
	failure.Fprintf(Out, "\nError: %s\n", message)
}

// PrintSuccess displays a success message with consistent formatting
func PrintSuccess(message string) {
	success.Fprintf(Out, "\n%s\n", message)
}

// PrintInfo displays an info message with consistent formatting
func PrintInfo(message string) {
	info.Fprintln(Out, message)
}

func PrintField(name string, value interface{}) {
	key.Fprintf(Out, "  %-16s", name+":")
	fmt.Fprintf(Out, " %v\n", value)
}
