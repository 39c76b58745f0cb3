// Package reader implements the parser: a recursive-descent reader
// that turns a token sequence into a value.Value tree. Structural failure
// (an opener with no matching closer) produces the Incomplete sentinel
// rather than a Go error - a failed parse is itself a value the caller
// can inspect.
package reader

import (
	"strconv"
	"strings"

	"github.com/nanolisp/nanolisp/internal/token"
	"github.com/nanolisp/nanolisp/internal/value"
)

// Reader reads forms one at a time from a fixed token sequence. Re-entrant
// reading (e.g. from read-string) just builds a fresh Reader over fresh
// tokens.
type Reader struct {
	toks []token.Token
	pos  int
}

// New wraps an already-tokenized sequence.
func New(toks []token.Token) *Reader {
	return &Reader{toks: toks}
}

// Next reads one top-level form. ok is false only when the reader is
// already at the end of its token sequence with nothing left to read -
// that is a clean "no more input", distinct from Incomplete (a form
// was started but its closing delimiter never arrived).
func (r *Reader) Next() (v *value.Value, ok bool) {
	if r.pos >= len(r.toks) {
		return nil, false
	}
	return r.readForm(), true
}

func (r *Reader) peek() (token.Token, bool) {
	if r.pos >= len(r.toks) {
		return token.Token{}, false
	}
	return r.toks[r.pos], true
}

func (r *Reader) advance() token.Token {
	t := r.toks[r.pos]
	r.pos++
	return t
}

// readForm dispatches on the next token's shape.
func (r *Reader) readForm() *value.Value {
	tok, ok := r.peek()
	if !ok {
		return value.Incomplete()
	}
	r.advance()

	switch tok.Type {
	case token.LParen:
		return r.readSeq(token.RParen, value.NewList)
	case token.LBracket:
		return r.readSeq(token.RBracket, value.NewVector)
	case token.RParen:
		return value.ListEnd()
	case token.RBracket:
		return value.VectorEnd()
	case token.Quote:
		return r.readQuoted()
	default:
		return r.readAtom(tok)
	}
}

// readQuoted implements the 'x reader macro: desugar to
// (quote x). Running out of input for the quoted form propagates
// Incomplete exactly as an unclosed list would.
func (r *Reader) readQuoted() *value.Value {
	inner := r.readForm()
	if inner.Kind() == value.KindIncomplete {
		return value.Incomplete()
	}
	return value.NewList([]*value.Value{value.NewSymbol("quote"), inner})
}

// readSeq implements read_list/read_vector: repeatedly read forms until
// the matching end sentinel appears, or the tokens run out first (Incomplete).
func (r *Reader) readSeq(endTok token.Type, build func([]*value.Value) *value.Value) *value.Value {
	var elems []*value.Value
	endKind := value.KindListEnd
	if endTok == token.RBracket {
		endKind = value.KindVectorEnd
	}
	for {
		if _, ok := r.peek(); !ok {
			return value.Incomplete()
		}
		form := r.readForm()
		switch form.Kind() {
		case value.KindIncomplete:
			return value.Incomplete()
		case value.KindListEnd, value.KindVectorEnd:
			if form.Kind() != endKind {
				// mismatched closer (e.g. "(1]"): treated the same as
				// running out of input - a structural failure.
				return value.Incomplete()
			}
			return build(elems)
		default:
			elems = append(elems, form)
		}
	}
}

// readAtom implements read_atom's classification rules.
func (r *Reader) readAtom(tok token.Token) *value.Value {
	if tok.Type == token.String {
		return value.NewString(decodeString(tok.Text))
	}

	text := tok.Text
	switch text {
	case "t":
		return value.NewBool(true)
	case "nil":
		return value.NewBool(false)
	}
	if isNumberLiteral(text) {
		return parseNumber(text)
	}
	return value.NewSymbol(text)
}

// isNumberLiteral recognizes an optional leading '-', a run of digits,
// and an optional '.' followed by more digits. The fractional part is
// accepted so every Number the evaluator can produce (e.g. the result
// of (/ 1 2)) is also one a user can type back in - without it, the
// printer's output would not round-trip for non-integral numbers.
func isNumberLiteral(text string) bool {
	if text == "" {
		return false
	}
	i := 0
	if text[0] == '-' {
		i = 1
	}
	digitsBefore := 0
	for ; i < len(text) && text[i] >= '0' && text[i] <= '9'; i++ {
		digitsBefore++
	}
	if i == len(text) {
		return digitsBefore > 0
	}
	if text[i] != '.' {
		return false
	}
	i++
	digitsAfter := 0
	for ; i < len(text) && text[i] >= '0' && text[i] <= '9'; i++ {
		digitsAfter++
	}
	return i == len(text) && digitsBefore > 0 && digitsAfter > 0
}

// parseNumber converts a digit run to a Number. Overflow during numeric
// parsing is fatal - an interpreter abort, not a recoverable lisperr,
// since isNumberLiteral already guarantees the text is syntactically a
// plain numeric literal.
func parseNumber(text string) *value.Value {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		panic("numeric literal overflow: " + text)
	}
	return value.NewNumber(f)
}

// decodeString un-escapes a raw string token's text (including its
// leading quote and, if present, trailing quote). The three recognized
// escapes are \" \\ \n; an unknown escape sequence is passed through
// verbatim.
// A missing trailing quote is not an error - decoding simply runs to the
// end of the raw text.
func decodeString(raw string) string {
	var sb strings.Builder
	i := 1 // skip opening quote
	for i < len(raw) {
		c := raw[i]
		if c == '"' {
			break
		}
		if c == '\\' && i+1 < len(raw) {
			switch raw[i+1] {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(raw[i+1])
			}
			i += 2
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

// ReadString tokenizes src and reads exactly one top-level form. ok is
// false when src contains no tokens at all.
func ReadString(src string) (v *value.Value, ok bool) {
	return New(token.Tokenize(src)).Next()
}
