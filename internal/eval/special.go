package eval

import (
	"github.com/nanolisp/nanolisp/internal/env"
	"github.com/nanolisp/nanolisp/internal/lisperr"
	"github.com/nanolisp/nanolisp/internal/value"
)

// applySpecial dispatches the special forms, which receive their
// operand forms unevaluated and control evaluation themselves.
func applySpecial(name string, args []*value.Value, e *env.Env) (*value.Value, error) {
	switch name {
	case "def!":
		return applyDef(args, e)
	case "let*":
		return applyLetStar(args, e)
	case "if":
		return applyIf(args, e)
	case "lambda":
		return applyLambda(args, e)
	case "quote":
		return applyQuote(args)
	case "do":
		return applyDo(args, e)
	default:
		return nil, lisperr.New(lisperr.Unhandled, "special:"+name)
	}
}

// applyDef implements (def! name expr): evaluate expr in the current env,
// bind name to the result, return the result.
func applyDef(args []*value.Value, e *env.Env) (*value.Value, error) {
	if len(args) != 2 {
		return nil, lisperr.New(lisperr.IllegalType, "def!")
	}
	name, err := args[0].AsSymbolName()
	if err != nil {
		return nil, lisperr.New(lisperr.IllegalType, "def!")
	}
	result, err := Apply(args[1], e)
	if err != nil {
		return nil, err
	}
	e.AddVar(name, result.Incref())
	return result, nil
}

// applyLetStar implements (let* ((k1 v1) (k2 v2) ...) body): a Transparent
// child env, bindings introduced in source order so later bindings see
// earlier ones, then apply(body, child).
func applyLetStar(args []*value.Value, e *env.Env) (*value.Value, error) {
	if len(args) != 2 {
		return nil, lisperr.New(lisperr.IllegalType, "let*")
	}
	bindings, err := args[0].AsList()
	if err != nil {
		return nil, lisperr.New(lisperr.IllegalType, "let*")
	}
	child := e.NewChild(env.Transparent)
	for _, pair := range bindings {
		kv, err := pair.AsList()
		if err != nil || len(kv) != 2 {
			return nil, lisperr.New(lisperr.IllegalType, "let*")
		}
		k, err := kv[0].AsSymbolName()
		if err != nil {
			return nil, lisperr.New(lisperr.IllegalType, "let*")
		}
		v, err := Apply(kv[1], child)
		if err != nil {
			return nil, err
		}
		child.AddVar(k, v.Incref())
	}
	return Apply(args[1], child)
}

// applyIf implements (if cond then else?): any non-Bool cond is treated
// as true; a Bool false cond evaluates else (or Bool false if absent).
// The then branch is always the third list element and else the fourth;
// anything beyond the fourth is ignored.
func applyIf(args []*value.Value, e *env.Env) (*value.Value, error) {
	if len(args) < 2 {
		return nil, lisperr.New(lisperr.IllegalType, "if")
	}
	cond, err := Apply(args[0], e)
	if err != nil {
		return nil, err
	}
	truthy := true
	if cond.Kind() == value.KindBool {
		b, _ := cond.AsBool()
		truthy = b
	}
	if truthy {
		return Apply(args[1], e)
	}
	if len(args) >= 3 {
		return Apply(args[2], e)
	}
	return value.NewBool(false), nil
}

// applyQuote implements (quote x): return the single argument
// unevaluated.
func applyQuote(args []*value.Value) (*value.Value, error) {
	if len(args) != 1 {
		return nil, lisperr.New(lisperr.IllegalType, "quote")
	}
	return args[0].Incref(), nil
}

// applyDo implements (do e1 e2 ... en): evaluate every argument
// left-to-right, returning the last. (do) with no arguments returns
// Bool false.
func applyDo(args []*value.Value, e *env.Env) (*value.Value, error) {
	result := value.NewBool(false)
	for _, a := range args {
		v, err := Apply(a, e)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}
