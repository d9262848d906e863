package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ariel-frischer/relnotes/internal/notes"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// SectionStyle defines the color and icon for a release note section.
type SectionStyle struct {
	Color *color.Color
	Icon  string
}

// sectionStyles maps well-known category names to their terminal styling.
// Custom categories cycle through fallbackStyles.
var sectionStyles = map[string]SectionStyle{
	"features": {Color: color.New(color.FgGreen), Icon: "✓"},
	"fixes":    {Color: color.New(color.FgYellow), Icon: "⚡"},
	"chore":    {Color: color.New(color.FgBlue), Icon: "~"},
	"ci":       {Color: color.New(color.FgCyan), Icon: "⚙"},
	"other":    {Color: color.New(color.FgWhite), Icon: "•"},
}

var fallbackStyles = []SectionStyle{
	{Color: color.New(color.FgMagenta), Icon: "•"},
	{Color: color.New(color.FgCyan), Icon: "•"},
	{Color: color.New(color.FgBlue), Icon: "•"},
}

var breakingStyle = SectionStyle{Color: color.New(color.FgRed, color.Bold), Icon: "!"}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors and icons
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

// FormatTerminal writes a styled preview of note. Empty sections are
// skipped; breaking changes come first.
func FormatTerminal(w io.Writer, note notes.ReleaseNote, opts FormatOptions) error {
	width := resolveWidth(opts.MaxWidth)

	if err := writeVersionHeader(note.Version, w, opts); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if note.HasBreaking() {
		if err := writeSection("breaking changes", note.Breaking, breakingStyle, w, opts, width); err != nil {
			return err
		}
	}

	custom := 0
	for _, s := range note.Sections {
		style, ok := sectionStyles[s.Name]
		if !ok {
			style = fallbackStyles[custom%len(fallbackStyles)]
			custom++
		}
		if len(s.Items) == 0 {
			continue
		}
		if err := writeSection(s.Name, s.Items, style, w, opts, width); err != nil {
			return fmt.Errorf("formatting section %s: %w", s.Name, err)
		}
	}

	if note.IsEmpty() {
		_, err := fmt.Fprintln(w, "\n  (no changes)")
		return err
	}
	return nil
}

func writeVersionHeader(version string, w io.Writer, opts FormatOptions) error {
	header := "Unreleased"
	if version != "" {
		header = version
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "## %s\n", header)
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "## %s\n", bold(header))
	return err
}

func writeSection(name string, items []notes.Item, style SectionStyle, w io.Writer, opts FormatOptions, width int) error {
	displayName := capitalizeFirst(name)

	if opts.Plain {
		if _, err := fmt.Fprintf(w, "\n### %s\n", displayName); err != nil {
			return err
		}
	} else {
		colored := style.Color.SprintFunc()
		if _, err := fmt.Fprintf(w, "\n%s %s\n", colored(style.Icon), colored(displayName)); err != nil {
			return err
		}
	}

	for _, item := range items {
		if err := writeItem(item, style, w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

func writeItem(item notes.Item, style SectionStyle, w io.Writer, opts FormatOptions, width int) error {
	prefix := "  - "
	text := item.Subject
	if item.Scope != "" {
		text = item.Scope + ": " + text
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "%s%s\n", prefix, text)
		return err
	}

	wrapped := wrapText(text, width-len(prefix), "    ")
	colored := style.Color.SprintFunc()
	_, err := fmt.Fprintf(w, "%s%s\n", prefix, colored(wrapped))
	return err
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var lines []string
	remaining := text
	for len(remaining) > maxWidth {
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}
		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
	}
	if remaining != "" {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
