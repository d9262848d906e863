// Package output provides the colored status lines printed by relnotes
// commands. It has no internal dependencies so any package can use it.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// PrintSeparator prints a dim rule with a centered label, used between the
// status lines and rendered notes in preview output.
func PrintSeparator(out io.Writer, label string) {
	magenta := color.New(color.FgMagenta, color.Faint).SprintFunc()

	label = " " + label + " "
	lineLen := (GetTerminalWidth() - len(label)) / 2
	if lineLen < 3 {
		lineLen = 3
	}

	line := strings.Repeat("─", lineLen)
	fmt.Fprintf(out, "\n%s%s%s\n", magenta(line), magenta(label), magenta(line))
}

// PrintRange prints the commit range being processed (e.g. "Range v1.2.0..HEAD (14 commits)").
func PrintRange(out io.Writer, rng string, commits int) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s %s\n", cyan("Range"), rng, pluralize(commits, "commit"))
}

// PrintVersionBump prints the base and next version with the bump level.
func PrintVersionBump(out io.Writer, from, to, level string) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(out, "%s %s → %s %s\n", cyan("Version"), from, white(to), dim("("+level+")"))
}

// PrintSuccess prints a green checkmark followed by the message.
func PrintSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("✓"), cyan(message))
}

// PrintWarning prints a yellow warning line.
func PrintWarning(out io.Writer, message string) {
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", yellow("!"), message)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("(%d %s)", n, noun)
	}
	return fmt.Sprintf("(%d %ss)", n, noun)
}
