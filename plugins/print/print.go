// Package print is a demo plugin exercising internal/plugin's contract
// with an output capability: (print ...) and (println ...) render their
// arguments in display mode and write them to the plugin's sink.
package print

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/nanolisp/nanolisp/internal/lisperr"
	"github.com/nanolisp/nanolisp/internal/plugin"
	"github.com/nanolisp/nanolisp/internal/printer"
	"github.com/nanolisp/nanolisp/internal/value"
)

// Plugin writes rendered values to a single output sink. The interpreter
// core never prints; this plugin is the only path from Lisp code to an
// output stream.
type Plugin struct {
	mu  sync.Mutex
	out io.Writer
}

// New returns a print plugin writing to stdout.
func New() *Plugin { return NewWithWriter(os.Stdout) }

// NewWithWriter returns a print plugin writing to w, so tests (or an
// embedder with its own frontend) can capture the output.
func NewWithWriter(w io.Writer) *Plugin { return &Plugin{out: w} }

func (p *Plugin) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:    "print",
		Version: "v1.0.0",
		Ops: map[string]plugin.Op{
			"print":   {Fn: p.opPrint},
			"println": {Fn: p.opPrintln},
		},
	}
}

func (p *Plugin) Context() interface{} { return p }

func (p *Plugin) opPrint(args []*value.Value, _ interface{}) (*value.Value, error) {
	return p.emit(args, "")
}

func (p *Plugin) opPrintln(args []*value.Value, _ interface{}) (*value.Value, error) {
	return p.emit(args, "\n")
}

// emit renders each argument in display mode (raw strings, no quoting),
// space-separated, then writes the suffix. Both ops return nil so a
// REPL echoing the expression's value doesn't duplicate the output.
func (p *Plugin) emit(args []*value.Value, suffix string) (*value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = printer.Print(a, false)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := io.WriteString(p.out, strings.Join(parts, " ")+suffix); err != nil {
		return nil, lisperr.Wrap(lisperr.Unhandled, "print", err)
	}
	return value.NewBool(false), nil
}
