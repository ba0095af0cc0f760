package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/prefkit/prefkit/compiler/gen"
)

// Printer writes colored status lines.
type Printer struct {
	w       io.Writer
	success *color.Color
	info    *color.Color
	warn    *color.Color
	err     *color.Color
	detail  *color.Color
}

// NewPrinter returns a Printer writing to w. Colors are disabled when noColor
// is set or the terminal does not support them.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:       w,
		success: color.New(color.FgGreen, color.Bold),
		info:    color.New(color.FgCyan),
		warn:    color.New(color.FgYellow, color.Bold),
		err:     color.New(color.FgRed, color.Bold),
		detail:  color.New(color.FgRed),
	}
	if noColor {
		for _, c := range []*color.Color{p.success, p.info, p.warn, p.err, p.detail} {
			c.DisableColor()
		}
	}
	return p
}

// Success prints a line prefixed with a check mark.
func (p *Printer) Success(format string, args ...any) {
	p.success.Fprintf(p.w, "✓ "+format+"\n", args...)
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	p.info.Fprintf(p.w, format+"\n", args...)
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	p.warn.Fprintf(p.w, "! "+format+"\n", args...)
}

// Error prints err with a header naming its kind, then one line per joined
// error.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	lines := Lines(err)
	p.err.Fprintf(p.w, "✗ %s\n", Title(err))
	for _, l := range lines {
		p.detail.Fprintf(p.w, "   %s\n", l)
	}
}

// Report prints the summary of a generation run.
func (p *Printer) Report(r *gen.Report) {
	if r == nil {
		return
	}
	switch {
	case len(r.Files) == 0 && len(r.Removed) == 0:
		p.Info("no preferences found")
		return
	case r.Written == 0 && len(r.Removed) == 0:
		p.Success("%d files up to date", len(r.Files))
	default:
		p.Success("generated %d files (%d written) in %s", len(r.Files), r.Written, plural(r.Rounds, "round"))
	}
	for _, name := range r.Removed {
		p.Info("  removed %s", name)
	}
}

// Title names the kind of err.
func Title(err error) string {
	switch {
	case gen.IsValidationError(err):
		return "invalid preference declarations"
	case gen.IsUnresolved(err):
		return "unresolved types"
	case gen.IsSchemaError(err):
		return "schema errors"
	case gen.IsConfigError(err):
		return "configuration errors"
	case gen.IsGenerationError(err):
		return "generation failed"
	default:
		return "error"
	}
}

// Lines flattens joined errors into one message per line.
func Lines(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, Lines(e)...)
		}
		return out
	}
	var lines []string
	for _, l := range strings.Split(err.Error(), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
