// Package printer implements the printer: rendering a value.Value
// back to text, in either a "readable" mode (output that reparses to an
// equal value) or a raw display mode.
package printer

import (
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/nanolisp/nanolisp/internal/lisperr"
	"github.com/nanolisp/nanolisp/internal/value"
)

// Print renders v as text. When readably is true the output parses back
// to a structurally equal value; when false, strings are rendered as
// their raw bytes with no quoting.
func Print(v *value.Value, readably bool) string {
	var sb strings.Builder
	write(&sb, v, readably)
	return sb.String()
}

func write(sb *strings.Builder, v *value.Value, readably bool) {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			sb.WriteString("t")
		} else {
			sb.WriteString("nil")
		}
	case value.KindNumber:
		n, _ := v.AsNumber()
		sb.WriteString(strconv.FormatFloat(n, 'f', -1, 64))
	case value.KindSymbol:
		name, _ := v.AsSymbolName()
		sb.WriteString(name)
	case value.KindString:
		s, _ := v.AsString()
		if readably {
			writeReadableString(sb, s)
		} else {
			sb.WriteString(s)
		}
	case value.KindList:
		elems, _ := v.AsList()
		writeSeq(sb, elems, "(", ")", readably)
	case value.KindVector:
		elems, _ := v.AsVector()
		writeSeq(sb, elems, "[", "]", readably)
	case value.KindFunction:
		sb.WriteString("#<function>")
	default:
		// Sentinels are parser-internal and never reach the printer in a
		// well-behaved core, but render something recognizable rather
		// than panic if a caller mistakenly tries to print one.
		sb.WriteString("#<" + v.Kind().String() + ">")
	}
}

func writeSeq(sb *strings.Builder, elems []*value.Value, open, close string, readably bool) {
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(" ")
		}
		write(sb, e, readably)
	}
	sb.WriteString(close)
}

func writeReadableString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(s[i])
		}
	}
	sb.WriteByte('"')
}

// cborNode is the wire shape DumpCBOR encodes a value tree into: a small
// tagged struct rather than value.Value's unexported fields directly,
// since cbor can only see exported data.
type cborNode struct {
	Kind  string     `cbor:"kind"`
	Bool  bool       `cbor:"bool,omitempty"`
	Num   float64    `cbor:"num,omitempty"`
	Str   string     `cbor:"str,omitempty"`
	Elems []cborNode `cbor:"elems,omitempty"`
}

func toCBORNode(v *value.Value) cborNode {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return cborNode{Kind: "bool", Bool: b}
	case value.KindNumber:
		n, _ := v.AsNumber()
		return cborNode{Kind: "number", Num: n}
	case value.KindString:
		s, _ := v.AsString()
		return cborNode{Kind: "string", Str: s}
	case value.KindSymbol:
		name, _ := v.AsSymbolName()
		return cborNode{Kind: "symbol", Str: name}
	case value.KindList, value.KindVector:
		elems, _ := v.Elems()
		nodes := make([]cborNode, len(elems))
		for i, e := range elems {
			nodes[i] = toCBORNode(e)
		}
		kind := "list"
		if v.Kind() == value.KindVector {
			kind = "vector"
		}
		return cborNode{Kind: kind, Elems: nodes}
	case value.KindFunction:
		return cborNode{Kind: "function"}
	default:
		return cborNode{Kind: v.Kind().String()}
	}
}

// DumpCBOR serializes a parsed value tree to CBOR, for external tooling
// that wants a binary AST dump (cmd/nanolisp's --dump-ast cbor flag).
// This is not part of the interpreter's evaluation path - it exists
// purely as an inspection format.
func DumpCBOR(v *value.Value) ([]byte, error) {
	b, err := cbor.Marshal(toCBORNode(v))
	if err != nil {
		return nil, lisperr.Wrap(lisperr.Unhandled, "dump-ast-cbor", err)
	}
	return b, nil
}
