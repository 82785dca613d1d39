// docexec - a document format parser and page-language interpreter
// Copyright (C) 2026 The docexec Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package page

import (
	"log/slog"
	"strconv"
	"strings"
)

const maxOperandStackDepth = 500

// Interpreter holds the full mutable state of one execution: the operand
// stack, the dictionary stack, and the graphics state stack. Nothing about
// it is safe for concurrent use, and nothing needs to be: token execution
// is a synchronous tail of recursive calls on the caller's goroutine.
type Interpreter struct {
	Stack     []Value
	DictStack []Dict

	graphics []*GraphicsState
	events   EventSink

	strict bool
	Logger *slog.Logger
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithStrictOperators makes an unrecognized operator token a fatal
// UnknownOperator error instead of the default, recoverable behavior of
// logging a warning and pushing the token as a literal string.
func WithStrictOperators() Option {
	return func(intp *Interpreter) { intp.strict = true }
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(intp *Interpreter) { intp.Logger = l }
}

// NewInterpreter constructs an Interpreter with one default dictionary,
// populated with the operator registry, and one default graphics state.
func NewInterpreter(opts ...Option) *Interpreter {
	intp := &Interpreter{
		DictStack: []Dict{makeOperatorDict()},
		graphics:  []*GraphicsState{newGraphicsState()},
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(intp)
	}
	return intp
}

// Execute tokenizes source and runs every resulting token in order.
func (intp *Interpreter) Execute(source string) error {
	for _, tok := range Tokenize(source) {
		if err := intp.ExecuteToken(tok); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteToken runs a single, already-tokenized token against the current
// interpreter state, following the classification precedence: registered
// operator, /name literal, dictionary-bound procedure, real, integer,
// parenthesized string, bracketed array (evaluated through a mark on this
// same stack), dictionary literal, procedure literal, true/false, and
// finally a literal-string fallback.
func (intp *Interpreter) ExecuteToken(tok string) error {
	if tok == "" {
		return nil
	}
	if len(intp.Stack) > maxOperandStackDepth {
		return intp.newError(RangeError, tok, "operand stack overflow")
	}

	if op, ok := intp.lookupOperator(tok); ok {
		return op(intp)
	}

	if strings.HasPrefix(tok, "/") {
		intp.push(Name(tok))
		return nil
	}

	if proc, ok := intp.lookupProcedure(tok); ok {
		return intp.runProcedure(proc)
	}

	if looksLikeReal(tok) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			intp.push(Real(f))
			return nil
		}
	}

	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		intp.push(Integer(i))
		return nil
	}

	if strings.HasPrefix(tok, "(") && strings.HasSuffix(tok, ")") {
		intp.push(unescapeString(tok[1 : len(tok)-1]))
		return nil
	}

	if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") {
		return intp.execArrayLiteral(tok[1 : len(tok)-1])
	}

	if strings.HasPrefix(tok, "<<") && strings.HasSuffix(tok, ">>") {
		return intp.execDictLiteral(tok[2 : len(tok)-2])
	}

	if strings.HasPrefix(tok, "{") && strings.HasSuffix(tok, "}") {
		intp.push(Procedure(Tokenize(tok[1 : len(tok)-1])))
		return nil
	}

	switch tok {
	case "true":
		intp.push(Boolean(true))
		return nil
	case "false":
		intp.push(Boolean(false))
		return nil
	}

	if intp.strict {
		return intp.newError(UnknownOperator, tok, "unrecognized token")
	}
	intp.Logger.Warn("unrecognized token treated as literal string", "token", tok)
	intp.push(String(tok))
	return nil
}

// lookupOperator reports whether tok is bound, on the dictionary stack
// (top down), to a builtin. Operators shadow dictionary-bound procedures
// of the same name, so a hit that resolves to a non-builtin value stops
// the search rather than falling through to lookupProcedure.
func (intp *Interpreter) lookupOperator(tok string) (builtin, bool) {
	for i := len(intp.DictStack) - 1; i >= 0; i-- {
		if v, ok := intp.DictStack[i][tok]; ok {
			b, ok := v.(builtin)
			return b, ok
		}
	}
	return nil, false
}

// lookupProcedure reports whether tok is bound, on the dictionary stack,
// to a Procedure value.
func (intp *Interpreter) lookupProcedure(tok string) (Procedure, bool) {
	for i := len(intp.DictStack) - 1; i >= 0; i-- {
		if v, ok := intp.DictStack[i][tok]; ok {
			p, ok := v.(Procedure)
			return p, ok
		}
	}
	return nil, false
}

// runProcedure replays a procedure's captured tokens. There is no separate
// call stack for this: nesting rides the host Go call stack through
// ExecuteToken, so recursion depth bounds on the goroutine stack rather
// than on any interpreter-maintained structure.
func (intp *Interpreter) runProcedure(proc Procedure) error {
	for _, tok := range proc {
		if err := intp.ExecuteToken(tok); err != nil {
			return err
		}
	}
	return nil
}

// execArrayLiteral evaluates the tokens between [ and ] against this same
// interpreter, delimited by a mark on the operand stack, then collects
// everything above the mark into a fresh Array. This avoids allocating a
// throwaway Interpreter per literal while keeping the composite's elements
// subject to the full token-classification rules (nested literals, bound
// names, and so on).
func (intp *Interpreter) execArrayLiteral(inner string) error {
	intp.push(theMark)
	for _, tok := range Tokenize(inner) {
		if err := intp.ExecuteToken(tok); err != nil {
			return err
		}
	}
	markAt := intp.findMark()
	if markAt < 0 {
		return intp.newError(RangeError, "[", "unmatched mark")
	}
	elems := append(Array(nil), intp.Stack[markAt+1:]...)
	intp.Stack = intp.Stack[:markAt]
	intp.push(elems)
	return nil
}

// execDictLiteral tokenizes inner as a flat run of (/key, value-token)
// pairs and populates a fresh Dict. Each value token is evaluated the same
// way any other token is, mark-delimited so a value that is itself a
// composite literal works too.
func (intp *Interpreter) execDictLiteral(inner string) error {
	toks := Tokenize(inner)
	d := Dict{}
	for i := 0; i < len(toks); {
		keyTok := toks[i]
		if !strings.HasPrefix(keyTok, "/") {
			return intp.newError(TypeError, keyTok, "dictionary literal key must be a name")
		}
		key := strings.TrimPrefix(keyTok, "/")
		i++
		if i >= len(toks) {
			return intp.newError(RangeError, "<<", "dictionary literal has a key with no value")
		}

		intp.push(theMark)
		if err := intp.ExecuteToken(toks[i]); err != nil {
			return err
		}
		i++
		markAt := intp.findMark()
		if markAt < 0 || markAt != len(intp.Stack)-2 {
			return intp.newError(TypeError, toks[i-1], "dictionary literal value must leave exactly one value")
		}
		val := intp.Stack[markAt+1]
		intp.Stack = intp.Stack[:markAt]
		d[key] = val
	}
	intp.push(d)
	return nil
}

func (intp *Interpreter) findMark() int {
	for i := len(intp.Stack) - 1; i >= 0; i-- {
		if _, ok := intp.Stack[i].(mark); ok {
			return i
		}
	}
	return -1
}

func (intp *Interpreter) push(v Value) { intp.Stack = append(intp.Stack, v) }

// OperandStack returns the current operand stack, bottom to top. The
// returned slice aliases interpreter state; callers must not mutate it.
func (intp *Interpreter) OperandStack() []Value { return intp.Stack }

// DictionaryStack returns the current dictionary stack, bottom to top.
func (intp *Interpreter) DictionaryStack() []Dict { return intp.DictStack }

// GraphicsState returns the current (topmost) graphics state.
func (intp *Interpreter) GraphicsState() *GraphicsState { return intp.gstate() }

func looksLikeReal(tok string) bool {
	return strings.ContainsRune(tok, '.')
}

func unescapeString(s string) String {
	var out []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, s[i])
			}
			continue
		}
		out = append(out, s[i])
	}
	return String(out)
}
