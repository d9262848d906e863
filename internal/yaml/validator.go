// Package yaml holds the YAML helpers used by relnotes: syntax checks for
// config and pipeline files, and in-place key updates that keep the rest of
// the document intact.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValidateSyntax streams every document in r through the decoder and
// returns the first syntax error, which carries yaml.v3's line info.
func ValidateSyntax(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	for {
		var n yaml.Node
		if err := dec.Decode(&n); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// ValidateFile validates the YAML syntax of the file at path.
func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := ValidateSyntax(f); err != nil {
		return &SyntaxError{File: path, Line: errorLine(err), Message: err.Error()}
	}
	return nil
}

// SyntaxError is a YAML syntax error with its location.
type SyntaxError struct {
	File    string
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

var linePattern = regexp.MustCompile(`line (\d+)`)

// errorLine extracts the line number yaml.v3 embeds in its messages.
func errorLine(err error) int {
	m := linePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
