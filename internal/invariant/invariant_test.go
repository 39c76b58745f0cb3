package invariant_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nanolisp/nanolisp/internal/invariant"
)

func TestPreconditionPass(t *testing.T) {
	invariant.Precondition(true, "this should pass")
	invariant.Precondition(1 == 1, "math works")
}

func TestPreconditionFail(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for false precondition")
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, "PRECONDITION VIOLATION") {
			t.Errorf("expected PRECONDITION VIOLATION, got: %s", msg)
		}
		if !strings.Contains(msg, "data must not be empty") {
			t.Errorf("expected custom message, got: %s", msg)
		}
	}()
	invariant.Precondition(false, "data must not be empty")
}

func TestInvariantFail(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for false invariant")
		}
	}()
	invariant.Invariant(false, "refcount must never go negative")
}

func TestNotNilTypedNil(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for typed nil pointer")
		}
	}()
	var p *int
	invariant.NotNil(p, "p")
}

func TestNotNilPass(t *testing.T) {
	x := 1
	invariant.NotNil(&x, "x")
}

func TestInRange(t *testing.T) {
	invariant.InRange(2, 0, 3, "index")

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for out-of-range value")
		}
	}()
	invariant.InRange(5, 0, 3, "index")
}
