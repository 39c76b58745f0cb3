// Package plugin implements the plugin dispatcher: registering
// external capability objects and splicing their exposed operations into
// an environment's fnTable as PluginBuiltin callables.
package plugin

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"

	"github.com/nanolisp/nanolisp/internal/env"
	"github.com/nanolisp/nanolisp/internal/lisperr"
	"github.com/nanolisp/nanolisp/internal/value"
)

// OpFunc is a plugin operation: it receives the already-evaluated
// argument list and the plugin's own opaque context (whatever Context()
// returned at registration).
type OpFunc func(args []*value.Value, pctx interface{}) (*value.Value, error)

// ParamSchema optionally constrains an operation's argument shape as a
// JSON Schema document, validated (as a JSON array of the argument
// values mapped to JSON types: Bool to boolean, Number to number,
// String and Symbol to string, List and Vector to array) before the
// operation itself runs. Nil means
// unconstrained - most of the bundled demo plugins leave it nil.
type ParamSchema map[string]interface{}

// Op is one exposed operation: its callable body plus an optional
// parameter schema.
type Op struct {
	Fn     OpFunc
	Params ParamSchema
}

// Descriptor is what a Plugin reports about itself at registration.
type Descriptor struct {
	Name    string
	Version string
	Ops     map[string]Op
}

// Plugin is the contract an external capability object implements to
// become callable from Lisp code.
type Plugin interface {
	Descriptor() Descriptor
	// Context returns the opaque pointer threaded through to each Op
	// call as pctx.
	Context() interface{}
}

// Registry tracks registered plugins by name so a PluginBuiltin
// callable's Origin can be resolved back to the plugin that owns it
// (used by diagnostics; dispatch itself closes over the context
// directly, see Register).
type Registry struct {
	plugins map[string]Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register records p under its descriptor name and splices every
// exposed (name -> Op) pair into e's fnTable as a PluginBuiltin
// callable with Origin set to the plugin's name. A later Register under
// the same plugin name or the same op name silently overwrites the
// earlier registration (last writer wins) - the dispatcher never
// inspects argument types to pick between candidates.
func (r *Registry) Register(e *env.Env, p Plugin) error {
	desc := p.Descriptor()
	if desc.Name == "" {
		return lisperr.New(lisperr.IllegalType, "plugin-register")
	}
	if desc.Version != "" && !semver.IsValid(desc.Version) {
		return lisperr.Wrap(lisperr.IllegalType, "plugin-register",
			fmt.Errorf("plugin %q: invalid version %q", desc.Name, desc.Version))
	}

	r.plugins[desc.Name] = p
	pctx := p.Context()

	for name, op := range desc.Ops {
		op := op
		var compiled *jsonschema.Schema
		if len(op.Params) > 0 {
			c, err := compileParamSchema(op.Params)
			if err != nil {
				return lisperr.Wrap(lisperr.Unhandled, "plugin-register:"+name, err)
			}
			compiled = c
		}
		e.AddCallable(name, env.Callable{
			Kind:   env.PluginBuiltin,
			Origin: desc.Name,
			Fn: func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
				if compiled != nil {
					if err := validateArgs(compiled, args); err != nil {
						return nil, lisperr.Wrap(lisperr.IllegalType, name, err)
					}
				}
				return op.Fn(args, pctx)
			},
		})
	}
	return nil
}

// Lookup returns the registered plugin by name, for diagnostics.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

func compileParamSchema(schema ParamSchema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(map[string]interface{}(schema))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const resource = "plugin-op-params.json"
	if err := compiler.AddResource(resource, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// validateArgs checks args, mapped to JSON values by argToJSON, as a
// JSON array against the operation's declared parameter schema.
func validateArgs(schema *jsonschema.Schema, args []*value.Value) error {
	arr := make([]interface{}, len(args))
	for i, a := range args {
		arr[i] = argToJSON(a)
	}
	return schema.Validate(arr)
}

func argToJSON(v *value.Value) interface{} {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindNumber:
		n, _ := v.AsNumber()
		return n
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindSymbol:
		s, _ := v.AsSymbolName()
		return s
	case value.KindList, value.KindVector:
		elems, _ := v.Elems()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = argToJSON(e)
		}
		return out
	default:
		return nil
	}
}
