// Package report renders run reports for humans.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/hamed0406/pagecheck/internal/domain"
)

type palette struct {
	ok    *color.Color
	fail  *color.Color
	warn  *color.Color
	label *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		ok:    color.New(color.FgGreen),
		fail:  color.New(color.FgRed),
		warn:  color.New(color.FgYellow),
		label: color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.ok, p.fail, p.warn, p.label} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Printer writes one block per report. Blocks from concurrent runs never
// interleave.
type Printer struct {
	mu  sync.Mutex
	w   io.Writer
	pal palette
}

// NewPrinter colours output only when w is a terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, pal: newPalette(isTerminal(w))}
}

// NewPlainPrinter never colours output.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w, pal: newPalette(false)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) Print(r domain.RunReport) error {
	var buf bytes.Buffer
	p.render(&buf, r)

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.w.Write(buf.Bytes())
	return err
}

func (p *Printer) render(buf *bytes.Buffer, r domain.RunReport) {
	fmt.Fprintf(buf, "%s\n", p.pal.label.Sprintf("== %s ==", r.Target.URL))

	if r.Err != nil {
		fmt.Fprintf(buf, "%s %s\n", p.pal.fail.Sprint("Connection error:"), r.Err.Error())
	} else if r.Result != nil {
		fmt.Fprintf(buf, "Status: %d\n", r.Result.StatusCode)
	}

	for _, c := range r.Checks {
		mark := p.pal.ok.Sprint("✔ found  ")
		if !c.Found {
			mark = p.pal.fail.Sprint("✘ missing")
		}
		fmt.Fprintf(buf, "%s %s: %q\n", mark, c.Label, c.Fragment)
	}

	if r.MissingModule.Present {
		path := r.MissingModule.Path
		if path == "" {
			path = "unknown"
		}
		fmt.Fprintf(buf, "%s %s\n", p.pal.warn.Sprint("Missing module:"), path)
	}

	verdict := p.pal.ok.Sprint(string(domain.VerdictWorking))
	if r.Verdict != domain.VerdictWorking {
		verdict = p.pal.fail.Sprint(string(domain.VerdictNeedsDebugging))
	}
	fmt.Fprintf(buf, "Result: %s\n\n", verdict)
}
