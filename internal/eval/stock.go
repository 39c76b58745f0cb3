package eval

import (
	"os"

	"github.com/nanolisp/nanolisp/internal/env"
	"github.com/nanolisp/nanolisp/internal/lisperr"
	"github.com/nanolisp/nanolisp/internal/printer"
	"github.com/nanolisp/nanolisp/internal/reader"
	"github.com/nanolisp/nanolisp/internal/value"
)

// FileReader is the filesystem collaborator contract: read a whole file
// to bytes, with FileNotFound as the only distinguished error. The
// stock fnTable is parameterized over it so every file read the core
// makes goes through this one seam, and embedders can supply a
// sandboxed or in-memory reader.
type FileReader func(path string) ([]byte, error)

// OSFileReader reads a real file from the host filesystem, mapping a
// missing file to lisperr.FileNotFound.
func OSFileReader(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lisperr.Wrap(lisperr.FileNotFound, "fs-load", err)
		}
		return nil, lisperr.Wrap(lisperr.Unhandled, "fs-load", err)
	}
	return b, nil
}

// Stock builds the stock fnTable installed at root-env construction:
// arithmetic, comparison, list/vector ops, the I/O-adjacent builtins,
// and not/and/or. fr is the filesystem collaborator used by
// fs-load/load/slurp; pass nil to get OSFileReader.
func Stock(fr FileReader) map[string]env.Callable {
	if fr == nil {
		fr = OSFileReader
	}
	table := map[string]env.Callable{}
	register := func(name string, fn env.CallableFunc) {
		table[name] = env.Callable{Kind: env.Builtin, Origin: "stock", Fn: fn}
	}

	registerArith(register)
	registerCompare(register)
	registerListVector(register)
	registerIO(register, fr)
	registerLogic(register)

	return table
}

func numbers(args []*value.Value, op string) ([]float64, error) {
	if len(args) < 2 {
		return nil, lisperr.New(lisperr.IllegalType, op)
	}
	out := make([]float64, len(args))
	for i, a := range args {
		n, err := a.AsNumber()
		if err != nil {
			return nil, lisperr.New(lisperr.IllegalType, op)
		}
		out[i] = n
	}
	return out, nil
}

func registerArith(register func(string, env.CallableFunc)) {
	fold := func(op string, step func(acc, n float64) float64) env.CallableFunc {
		return func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
			ns, err := numbers(args, op)
			if err != nil {
				return nil, err
			}
			acc := ns[0]
			for _, n := range ns[1:] {
				acc = step(acc, n)
			}
			return value.NewNumber(acc), nil
		}
	}
	register("+", fold("+", func(a, n float64) float64 { return a + n }))
	register("-", fold("-", func(a, n float64) float64 { return a - n }))
	register("*", fold("*", func(a, n float64) float64 { return a * n }))
	register("/", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		ns, err := numbers(args, "/")
		if err != nil {
			return nil, err
		}
		acc := ns[0]
		for _, n := range ns[1:] {
			if n == 0 {
				return nil, lisperr.New(lisperr.ArithError, "/")
			}
			acc = acc / n
		}
		return value.NewNumber(acc), nil
	})
}

// The three possible outcomes of comparing two numbers are encoded as
// three bits (eq, lt, gt); each comparison operator masks with its own
// bit pattern and the predicate holds iff every adjacent pair satisfies
// it.
const (
	bitEq = 1 << iota
	bitLt
	bitGt
)

func registerCompare(register func(string, env.CallableFunc)) {
	ops := map[string]int{
		"=":  bitEq,
		"<":  bitLt,
		"<=": bitEq | bitLt,
		">":  bitGt,
		">=": bitEq | bitGt,
	}
	for name, mask := range ops {
		mask := mask
		register(name, func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
			ns, err := numbers(args, name)
			if err != nil {
				return nil, err
			}
			for i := 1; i < len(ns); i++ {
				bits := 0
				switch {
				case ns[i-1] == ns[i]:
					bits = bitEq
				case ns[i-1] < ns[i]:
					bits = bitLt
				default:
					bits = bitGt
				}
				if bits&mask == 0 {
					return value.NewBool(false), nil
				}
			}
			return value.NewBool(true), nil
		})
	}
}

func registerListVector(register func(string, env.CallableFunc)) {
	register("list", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		elems := make([]*value.Value, len(args))
		for i, a := range args {
			elems[i] = a.Incref()
		}
		return value.NewList(elems), nil
	})
	register("listp", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		return value.NewBool(len(args) == 1 && args[0].Kind() == value.KindList), nil
	})
	register("vectorp", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		return value.NewBool(len(args) == 1 && args[0].Kind() == value.KindVector), nil
	})
	register("emptyp", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		if len(args) != 1 {
			return nil, lisperr.New(lisperr.IllegalType, "emptyp")
		}
		elems, err := args[0].Elems()
		if err != nil {
			return nil, err
		}
		return value.NewBool(len(elems) == 0), nil
	})
	register("count", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		if len(args) != 1 {
			return nil, lisperr.New(lisperr.IllegalType, "count")
		}
		elems, err := args[0].Elems()
		if err != nil {
			return nil, err
		}
		return value.NewNumber(float64(len(elems))), nil
	})
	register("vector", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		elems := make([]*value.Value, len(args))
		for i, a := range args {
			elems[i] = a.Incref()
		}
		return value.NewVector(elems), nil
	})
	register("aref", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		if len(args) != 2 {
			return nil, lisperr.New(lisperr.IllegalType, "aref")
		}
		elems, err := args[0].Elems()
		if err != nil {
			return nil, err
		}
		idxF, err := args[1].AsNumber()
		if err != nil {
			return nil, err
		}
		idx := int(idxF)
		if idx < 0 || idx >= len(elems) {
			return value.NewBool(false), nil
		}
		return elems[idx].Incref(), nil
	})
}

func registerIO(register func(string, env.CallableFunc), fr FileReader) {
	readFile := func(op string) env.CallableFunc {
		return func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
			if len(args) != 1 {
				return nil, lisperr.New(lisperr.IllegalType, op)
			}
			path, err := args[0].AsString()
			if err != nil {
				return nil, lisperr.New(lisperr.IllegalType, op)
			}
			b, err := fr(path)
			if err != nil {
				return nil, err
			}
			return value.NewString(string(b)), nil
		}
	}
	register("fs-load", readFile("fs-load"))
	register("slurp", readFile("slurp"))

	register("load", func(args []*value.Value, cctx *env.CallContext) (*value.Value, error) {
		if len(args) != 1 {
			return nil, lisperr.New(lisperr.IllegalType, "load")
		}
		path, err := args[0].AsString()
		if err != nil {
			return nil, lisperr.New(lisperr.IllegalType, "load")
		}
		b, err := fr(path)
		if err != nil {
			return nil, err
		}
		form, ok := reader.ReadString(string(b))
		if !ok {
			return nil, lisperr.New(lisperr.IllegalType, "load")
		}
		// The parsed tree is retained in the calling env (keyed by path)
		// until the env is released - this keeps the form's
		// owned reference alive for as long as anything evaluated from
		// it (e.g. a def!'d closure over a symbol read from the file)
		// might still be reachable.
		cctx.Env.AddVar(loadRetentionKey(path), form.Incref())
		return Apply(form, cctx.Env)
	})

	register("read-string", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		if len(args) != 1 {
			return nil, lisperr.New(lisperr.IllegalType, "read-string")
		}
		s, err := args[0].AsString()
		if err != nil {
			return nil, lisperr.New(lisperr.IllegalType, "read-string")
		}
		v, ok := reader.ReadString(s)
		if !ok {
			return nil, lisperr.New(lisperr.IllegalType, "read-string")
		}
		return v, nil
	})

	register("eval", func(args []*value.Value, cctx *env.CallContext) (*value.Value, error) {
		if len(args) != 1 {
			return nil, lisperr.New(lisperr.IllegalType, "eval")
		}
		return Apply(args[0], cctx.Env)
	})

	register("pr-str", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = printer.Print(a, true)
		}
		return value.NewString(joinSpace(parts)), nil
	})

	register("str", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = printer.Print(a, false)
		}
		return value.NewString(joinNoSep(parts)), nil
	})
}

func registerLogic(register func(string, env.CallableFunc)) {
	truthy := func(v *value.Value) bool {
		if v.Kind() == value.KindBool {
			b, _ := v.AsBool()
			return b
		}
		return true
	}
	register("not", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		if len(args) != 1 {
			return nil, lisperr.New(lisperr.IllegalType, "not")
		}
		return value.NewBool(!truthy(args[0])), nil
	})
	register("and", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		for _, a := range args {
			if !truthy(a) {
				return value.NewBool(false), nil
			}
		}
		return value.NewBool(true), nil
	})
	register("or", func(args []*value.Value, _ *env.CallContext) (*value.Value, error) {
		for _, a := range args {
			if truthy(a) {
				return value.NewBool(true), nil
			}
		}
		return value.NewBool(false), nil
	})
}

// loadRetentionKey names the hidden data-binding load() uses to keep a
// loaded file's parsed tree alive; the leading space keeps it out of the
// symbol namespace a reader can ever produce (atoms never contain
// whitespace, per the tokenizer's atom-stopper rules).
func loadRetentionKey(path string) string {
	return " load:" + path
}

func joinSpace(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

func joinNoSep(parts []string) string {
	out := ""
	for _, p := range parts {
		out += p
	}
	return out
}
