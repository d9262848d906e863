package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Display reports the progress of a run. On a terminal each stage gets an
// animated spinner; otherwise only the final status lines are printed.
type Display struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols

	mu      sync.Mutex
	spinner *spinner.Spinner
	stage   string
}

// NewDisplay creates a Display writing to out.
func NewDisplay(out io.Writer, caps TerminalCapabilities) *Display {
	return &Display{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
	}
}

// Start begins a stage. A previous stage still running is stopped silently.
func (d *Display) Start(stage string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.stage = stage
	if !d.caps.IsTTY {
		return
	}

	s := spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(d.out))
	s.Suffix = " " + stage + "..."
	if d.caps.SupportsColor {
		_ = s.Color("cyan")
	}
	s.Start()
	d.spinner = s
}

// Succeed ends the current stage with a success line.
func (d *Display) Succeed(detail string) {
	d.finish(d.symbols.Checkmark, color.FgGreen, detail)
}

// Fail ends the current stage with a failure line.
func (d *Display) Fail(detail string) {
	d.finish(d.symbols.Failure, color.FgRed, detail)
}

// Stop ends the current stage without printing anything.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.stage = ""
}

func (d *Display) finish(symbol string, attr color.Attribute, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	if d.stage == "" {
		return
	}

	marker := symbol
	if d.caps.SupportsColor {
		marker = color.New(attr, color.Bold).Sprint(symbol)
	}
	line := fmt.Sprintf("%s %s", marker, d.stage)
	if detail != "" {
		line += " (" + detail + ")"
	}
	fmt.Fprintln(d.out, line)
	d.stage = ""
}

func (d *Display) stopLocked() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
