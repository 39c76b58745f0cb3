package eval

import (
	"github.com/nanolisp/nanolisp/internal/env"
	"github.com/nanolisp/nanolisp/internal/invariant"
	"github.com/nanolisp/nanolisp/internal/lisperr"
	"github.com/nanolisp/nanolisp/internal/value"
)

// applyLambda implements (lambda (p1 ... pN) body): build an
// Independent child env, bind each parameter to Undefined, store body,
// and wrap it all in a Function value. The callable that actually runs
// the body at call time lives in lambdaCallable, built on demand from
// the Function value rather than stored in the env's own fnTable - a
// lambda is called by value (head position) or through a data binding,
// never by a registration of its own.
func applyLambda(args []*value.Value, e *env.Env) (*value.Value, error) {
	if len(args) != 2 {
		return nil, lisperr.New(lisperr.IllegalType, "lambda")
	}
	paramForms, err := args[0].AsList()
	if err != nil {
		return nil, lisperr.New(lisperr.IllegalType, "lambda")
	}
	params := make([]string, len(paramForms))
	for i, p := range paramForms {
		name, err := p.AsSymbolName()
		if err != nil {
			return nil, lisperr.New(lisperr.IllegalType, "lambda")
		}
		params[i] = name
	}

	fnEnv := e.NewChild(env.Independent)
	for _, name := range params {
		fnEnv.AddVar(name, value.Undefined())
	}
	body := args[1].Incref()
	return value.NewFunction(fnEnv, params, body), nil
}

// lambdaCallable adapts a Function value into the fnTable's CallableFunc
// shape so the evaluator's invoke path can treat a lambda call exactly
// like any other callable. Each application gets its own Independent
// child of the Function's env: parameters are pre-bound to Undefined
// there and then rebound via SetVar to the caller-supplied arguments
// (already evaluated by invoke's eager-args path), and the body runs in
// that per-call env. The per-call env is never explicitly released - a
// lambda created during the call may have captured it through its outer
// chain, so its lifetime is left to the process (the refcount discipline
// covers values; env storage leans on ordinary reachability).
func lambdaCallable(fn *value.Value) env.Callable {
	return env.Callable{
		Kind:   env.UserLambda,
		Origin: "user",
		Fn: func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
			iface, err := fn.FunctionEnv()
			if err != nil {
				return nil, err
			}
			fnEnv, ok := iface.(*env.Env)
			invariant.Invariant(ok, "Function env must be *env.Env, got %T", iface)

			params, err := fn.FunctionParams()
			if err != nil {
				return nil, err
			}
			if len(args) != len(params) {
				return nil, lisperr.New(lisperr.IllegalType, "lambda-call")
			}
			callEnv := fnEnv.NewChild(env.Independent)
			for _, name := range params {
				callEnv.AddVar(name, value.Undefined())
			}
			for i, name := range params {
				if err := callEnv.SetVar(name, args[i].Incref()); err != nil {
					return nil, err
				}
			}
			body, err := fn.FunctionBody()
			if err != nil {
				return nil, err
			}
			return Apply(body, callEnv)
		},
	}
}
