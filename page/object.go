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

// Package page implements a small stack-based graphics and computation
// language: a tagged value model, an operand and dictionary stack, an
// operator registry, and an interpreter that executes tokenized source
// against them.
package page

import (
	"fmt"
	"strings"
)

// Value is any value that can live on the operand stack or in a dictionary.
type Value interface {
	fmt.Stringer
}

// Null is the absence of a value.
type Null struct{}

func (Null) String() string { return "null" }

// Integer is a signed integer value.
type Integer int64

func (x Integer) String() string { return fmt.Sprintf("%d", int64(x)) }

// Real is a floating point value.
type Real float64

func (x Real) String() string { return fmt.Sprintf("%g", float64(x)) }

// Boolean is a truth value.
type Boolean bool

func (x Boolean) String() string { return fmt.Sprintf("%t", bool(x)) }

// String is a byte string. Content streams carry no character set encoding
// for strings; interpretation of the bytes is left to the caller.
type String []byte

func (s String) String() string { return fmt.Sprintf("(%s)", string(s)) }

// Name is an identifier. Pushed as a Value it keeps its leading slash; used
// as a bare dictionary key (def/load/known strip the slash themselves).
type Name string

func (n Name) String() string { return string(n) }

// Array is an ordered, shared sequence of values. Because it is a Go slice,
// every copy of an Array value aliases the same backing storage, so
// mutation through one alias (e.g. via put) is visible through all others,
// matching the spec's aliasing requirement without extra bookkeeping.
type Array []Value

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Dict is a shared mapping from name to value. As with Array, it is a Go
// map and therefore aliases naturally between stack entries.
type Dict map[string]Value

func (d Dict) String() string { return fmt.Sprintf("<<Dict %d>>", len(d)) }

// Procedure is a deferred, uninterpreted sequence of source tokens. It
// captures no dictionary or lexical environment: executing a procedure
// twice re-resolves every name against whatever dictionary stack happens
// to be current at each invocation.
type Procedure []string

func (p Procedure) String() string { return "{" + strings.Join(p, " ") + "}" }

// builtin is an operator implemented natively rather than as a Procedure.
type builtin func(*Interpreter) error

func (builtin) String() string { return "<builtin>" }

// mark is pushed by the mark-based operators (the array/dict literal
// evaluator and the explicit mark/cleartomark/counttomark operators) to
// delimit a region of the operand stack.
type mark struct{}

func (mark) String() string { return "-mark-" }

var theMark Value = mark{}

// truthy reports whether v is accepted by if/ifelse/repeat-style operators:
// booleans by their value, numbers by being nonzero.
func truthy(v Value) (bool, bool) {
	switch v := v.(type) {
	case Boolean:
		return bool(v), true
	case Integer:
		return v != 0, true
	case Real:
		return v != 0, true
	default:
		return false, false
	}
}

// sameArray reports whether a and b share backing storage, which is how eq
// compares arrays: by aliased identity, not by deep structural equality.
func sameArray(a, b Array) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return a != nil && b != nil && len(a) == len(b)
	}
	return &a[0] == &b[0]
}
