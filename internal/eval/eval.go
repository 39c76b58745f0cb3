// Package eval implements the evaluator: apply rules for
// self-evaluating atoms, symbol lookup, and list application, plus the
// special forms (def!, let*, if, lambda, quote, do) and the stock fnTable
// installed at root-env construction.
package eval

import (
	"log/slog"
	"os"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nanolisp/nanolisp/internal/env"
	"github.com/nanolisp/nanolisp/internal/lisperr"
	"github.com/nanolisp/nanolisp/internal/value"
)

// specialForms is the small closed set of head-symbol names that take
// their arguments unevaluated. Membership is checked at dispatch time
// rather than tagging each callable.
var specialForms = map[string]bool{
	"def!":   true,
	"let*":   true,
	"if":     true,
	"lambda": true,
	"quote":  true,
	"do":     true,
}

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// SetLogger installs a logger for dispatch tracing. Passing nil is a
// no-op, keeping the current logger (the package default is errors-only,
// effectively silent for Debug calls).
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	logger = l
}

// NewRoot builds a root environment with the stock fnTable installed.
// Passing fr=nil uses OSFileReader. Callers that
// want an env with no stock builtins at all (cmd/nanolisp's --no-stock) use
// env.NewRoot(nil) directly instead.
func NewRoot(fr FileReader) *env.Env {
	return env.NewRoot(Stock(fr))
}

// Apply is the evaluator's single entry point. Self-evaluating values
// come back unchanged, a Symbol resolves through the env chain, and a
// List is an application form.
func Apply(v *value.Value, e *env.Env) (*value.Value, error) {
	if v.IsSelfEvaluating() {
		return v, nil
	}
	switch v.Kind() {
	case value.KindSymbol:
		name, _ := v.AsSymbolName()
		return e.GetVar(name), nil
	case value.KindList:
		return applyList(v, e)
	case value.KindIncomplete:
		return nil, lisperr.New(lisperr.IllegalType, "eval")
	default:
		// Sentinels (ListEnd/VectorEnd/Undefined) should never reach eval
		// in a well-formed tree; treat as a shape violation rather than
		// panic, since a caller could hand us a malformed tree directly.
		return nil, lisperr.New(lisperr.IllegalType, "eval")
	}
}

// applyList classifies the head, prepares arguments, and invokes.
func applyList(v *value.Value, e *env.Env) (*value.Value, error) {
	elems, _ := v.AsList()
	if len(elems) == 0 {
		// Empty list behaviour: () evaluates to itself.
		return v, nil
	}
	head := elems[0]
	rest := elems[1:]

	if head.Kind() == value.KindSymbol {
		name, _ := head.AsSymbolName()
		if specialForms[name] {
			logger.Debug("dispatch special form", "name", name)
			return applySpecial(name, rest, e)
		}
		if c, ok := e.GetCallable(name); ok {
			return invoke(c, rest, e)
		}
		// A def!- or let*-bound lambda lives in the data chain, not the
		// fnTable; calling it by name resolves through GetVar and takes
		// the same UserLambda path a Function in head position does.
		if fn := e.GetVar(name); fn.Kind() == value.KindFunction {
			return invoke(lambdaCallable(fn), rest, e)
		}
		return nil, unboundCallable(name, e)
	}

	callable, err := resolveCallable(head, e)
	if err != nil {
		return nil, err
	}
	return invoke(callable, rest, e)
}

// resolveCallable handles a non-symbol head: a Function head is used
// directly; a List head is recursively applied and its result used if it
// is a Function; anything else is IllegalType.
func resolveCallable(head *value.Value, e *env.Env) (env.Callable, error) {
	switch head.Kind() {
	case value.KindFunction:
		return lambdaCallable(head), nil
	case value.KindList:
		result, err := Apply(head, e)
		if err != nil {
			return env.Callable{}, err
		}
		if result.Kind() != value.KindFunction {
			return env.Callable{}, lisperr.New(lisperr.IllegalType, "apply")
		}
		return lambdaCallable(result), nil
	default:
		return env.Callable{}, lisperr.New(lisperr.IllegalType, "apply")
	}
}

func unboundCallable(name string, e *env.Env) error {
	if suggestion := suggest(name, e.Names()); suggestion != "" {
		logger.Warn("unbound symbol", "name", name, "suggestion", suggestion)
	}
	return lisperr.New(lisperr.Unhandled, "eval:"+name)
}

// suggest returns the closest binding name to an unbound symbol using
// fuzzy string matching, or "" if nothing is close. This only shapes a
// Warn log line; it never changes the error returned.
func suggest(name string, candidates []string) string {
	best := ""
	bestRank := -1
	for _, c := range candidates {
		r := fuzzy.RankMatch(name, c)
		if r < 0 {
			continue
		}
		if bestRank == -1 || r < bestRank {
			bestRank = r
			best = c
		}
	}
	return best
}

// invoke evaluates rest eagerly and calls the callable. Special forms
// never reach here - they take their own unevaluated path in
// applySpecial. Builtin, PluginBuiltin, and UserLambda callables all
// share this same eager-args path; a PluginBuiltin's Fn closes over its
// own plugin context at registration time (internal/plugin), so
// CallContext.Plugin is left nil here rather than populated by a
// registry lookup keyed on Callable.Origin.
func invoke(c env.Callable, rest []*value.Value, e *env.Env) (*value.Value, error) {
	args, err := evalArgs(rest, e)
	if err != nil {
		return nil, err
	}
	cctx := &env.CallContext{Env: e}
	return c.Fn(args, cctx)
}

// evalArgs evaluates each element left-to-right; List and Symbol
// elements recurse through Apply, everything else passes through
// unchanged.
func evalArgs(forms []*value.Value, e *env.Env) ([]*value.Value, error) {
	out := make([]*value.Value, len(forms))
	for i, f := range forms {
		switch f.Kind() {
		case value.KindList, value.KindSymbol:
			v, err := Apply(f, e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		default:
			out[i] = f
		}
	}
	return out, nil
}
