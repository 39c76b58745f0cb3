package env_test

import (
	"testing"

	"github.com/nanolisp/nanolisp/internal/env"
	"github.com/nanolisp/nanolisp/internal/value"
)

func TestGetVarMissingReturnsFalse(t *testing.T) {
	root := env.NewRoot(nil)
	v := root.GetVar("nope")
	b, err := v.AsBool()
	if err != nil || b != false {
		t.Errorf("got (%v, %v), want (false, nil)", b, err)
	}
}

func TestAddVarThenGetVar(t *testing.T) {
	root := env.NewRoot(nil)
	root.AddVar("x", value.NewNumber(42))
	n, err := root.GetVar("x").AsNumber()
	if err != nil || n != 42 {
		t.Errorf("got (%v, %v), want (42, nil)", n, err)
	}
}

func TestChildSeesParentBinding(t *testing.T) {
	root := env.NewRoot(nil)
	root.AddVar("x", value.NewNumber(1))
	child := root.NewChild(env.Transparent)
	n, _ := child.GetVar("x").AsNumber()
	if n != 1 {
		t.Errorf("child did not see parent binding: got %v", n)
	}
}

func TestChildBindingNotVisibleToParent(t *testing.T) {
	root := env.NewRoot(nil)
	child := root.NewChild(env.Transparent)
	child.AddVar("y", value.NewNumber(2))

	b, _ := root.GetVar("y").AsBool()
	if b != false {
		t.Errorf("expected parent not to see child's binding, got %v", b)
	}
}

func TestFnTableShallowCopyAtConstruction(t *testing.T) {
	root := env.NewRoot(map[string]env.Callable{
		"+": {Kind: env.Builtin, Origin: "stock", Fn: func(args []*value.Value, cctx *env.CallContext) (*value.Value, error) {
			return value.NewNumber(0), nil
		}},
	})
	child := root.NewChild(env.Transparent)
	if _, ok := child.GetCallable("+"); !ok {
		t.Fatalf("expected child to inherit stock fnTable entries")
	}

	child.AddCallable("only-in-child", env.Callable{Kind: env.Builtin})
	if _, ok := root.GetCallable("only-in-child"); ok {
		t.Errorf("expected parent not to see child-only fnTable entries")
	}
}

func TestGetCallableWalksOuterForLateRegistrations(t *testing.T) {
	root := env.NewRoot(nil)
	child := root.NewChild(env.Transparent)

	// Registered on the parent after the child was constructed - the
	// shallow copy at construction time can't see it, so GetCallable
	// must fall back to walking outer.
	root.AddCallable("late", env.Callable{Kind: env.Builtin})

	if _, ok := child.GetCallable("late"); !ok {
		t.Errorf("expected GetCallable to find a late parent registration via the outer chain")
	}
}

func TestSetVarRequiresPriorUndefinedBinding(t *testing.T) {
	root := env.NewRoot(nil)
	root.AddVar("p", value.Undefined())
	if err := root.SetVar("p", value.NewNumber(5)); err != nil {
		t.Fatalf("SetVar on an Undefined binding should succeed: %v", err)
	}
	n, _ := root.GetVar("p").AsNumber()
	if n != 5 {
		t.Errorf("got %v, want 5", n)
	}

	if err := root.SetVar("p", value.NewNumber(6)); err == nil {
		t.Errorf("expected SetVar to fail once the binding is no longer Undefined")
	}
}

func TestTransparentChildReleaseCascadesFromRoot(t *testing.T) {
	root := env.NewRoot(nil)
	n := value.NewNumber(1)
	child := root.NewChild(env.Transparent)
	child.AddVar("x", n)

	root.Release()

	if got := n.Refcount(); got != 0 {
		t.Errorf("expected cascading release to decref the child's bindings, refcount = %d", got)
	}
}

func TestIndependentChildNotInParentReleaseChain(t *testing.T) {
	root := env.NewRoot(nil)
	lambdaEnv := root.NewChild(env.Independent)
	n := value.NewNumber(1)
	lambdaEnv.AddVar("p", n)

	root.Release() // must not reach into lambdaEnv

	if got := n.Refcount(); got != 1 {
		t.Errorf("expected an Independent child to survive the parent's release, refcount = %d", got)
	}

	lambdaEnv.Release()
	if got := n.Refcount(); got != 0 {
		t.Errorf("expected explicit release of the Independent env to decref its bindings, refcount = %d", got)
	}
}

func TestEnvImplementsValueEnvironment(t *testing.T) {
	var _ value.Environment = env.NewRoot(nil)
}
