// Package commit models raw commit records and classifies their subjects
// as conventional commits.
package commit

import (
	"strings"
	"time"
)

// Signature identifies who authored or committed a change.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is a raw commit record as supplied by a commit source.
type Commit struct {
	Hash      string
	Subject   string
	Body      string
	Author    Signature
	Committer Signature
	Parents   []string
}

// IsMerge returns true if the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// ShortHash returns the abbreviated commit hash.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// SplitMessage splits a full commit message into subject and body the way
// git's %s and %b placeholders do: the subject is the first paragraph joined
// into a single line, the body is everything after the first blank line.
func SplitMessage(message string) (subject, body string) {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	message = strings.TrimLeft(message, "\n")

	head, rest, _ := strings.Cut(message, "\n\n")

	lines := strings.Split(head, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}

	subject = strings.Join(parts, " ")
	body = strings.Trim(rest, "\n")
	return subject, body
}

// EscapeNewlines replaces line breaks with the literal two-character
// sequence `\n` so a multi-line body can be embedded in single-line output.
func EscapeNewlines(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.ReplaceAll(body, "\n", `\n`)
}

// UnescapeNewlines reverses EscapeNewlines.
func UnescapeNewlines(body string) string {
	return strings.ReplaceAll(body, `\n`, "\n")
}
