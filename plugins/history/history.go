// Package history is a demo plugin exercising internal/plugin's contract
// end-to-end: it records every top-level form the REPL hands it and
// exposes (history) / (history-clear) back to Lisp code.
package history

import (
	"sync"

	"github.com/nanolisp/nanolisp/internal/plugin"
	"github.com/nanolisp/nanolisp/internal/printer"
	"github.com/nanolisp/nanolisp/internal/value"
)

// Plugin records printed forms in registration order. Record is called
// by the REPL loop (not by Lisp code) after each successfully evaluated
// top-level form; (history) and (history-clear) are the Lisp-visible
// operations.
type Plugin struct {
	mu      sync.Mutex
	entries []string
}

// New returns a fresh, empty history plugin.
func New() *Plugin {
	return &Plugin{}
}

// Record appends v's printed (readable) form to the history. Exported so
// cmd/nanolisp's REPL loop can call it directly after each top-level eval,
// independent of the (history)/(history-clear) Lisp-visible ops.
func (p *Plugin) Record(v *value.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, printer.Print(v, true))
}

func (p *Plugin) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name:    "history",
		Version: "v1.0.0",
		Ops: map[string]plugin.Op{
			"history":       {Fn: p.opHistory},
			"history-clear": {Fn: p.opHistoryClear},
		},
	}
}

// Context returns the plugin itself as the opaque context - the ops
// above are bound methods and ignore pctx, but Descriptor().Ops is built
// once at registration so an implementation that instead wanted
// stateless Op funcs closing over pctx.(*Plugin) could use this.
func (p *Plugin) Context() interface{} { return p }

func (p *Plugin) opHistory(args []*value.Value, _ interface{}) (*value.Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	elems := make([]*value.Value, len(p.entries))
	for i, s := range p.entries {
		elems[i] = value.NewString(s)
	}
	return value.NewList(elems), nil
}

func (p *Plugin) opHistoryClear(args []*value.Value, _ interface{}) (*value.Value, error) {
	p.mu.Lock()
	p.entries = nil
	p.mu.Unlock()
	return value.NewBool(true), nil
}
