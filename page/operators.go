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
	"errors"
	"math"
	"strings"

	"golang.org/x/exp/maps"
)

// errExit unwinds repeat/for/forall, stopping the innermost loop
// without propagating further.
var errExit = errors.New("exit")

// makeOperatorDict builds the bottom dictionary of a fresh interpreter's
// dictionary stack: every builtin operator. The true/false literals are
// not entries here; ExecuteToken recognizes them directly.
func makeOperatorDict() Dict {
	return Dict{
		"add":          builtin(bAdd),
		"sub":          builtin(bSub),
		"mul":          builtin(bMul),
		"div":          builtin(bDiv),
		"dup":          builtin(bDup),
		"pop":          builtin(bPop),
		"exch":         builtin(bExch),
		"clear":        builtin(bClear),
		"eq":           builtin(bEq),
		"ne":           builtin(bNe),
		"lt":           builtin(bLt),
		"le":           builtin(bLe),
		"gt":           builtin(bGt),
		"ge":           builtin(bGe),
		"array":        builtin(bArray),
		"get":          builtin(bGet),
		"put":          builtin(bPut),
		"length":       builtin(bLength),
		"aload":        builtin(bAload),
		"astore":       builtin(bAstore),
		"dict":         builtin(bDict),
		"def":          builtin(bDef),
		"load":         builtin(bLoad),
		"store":        builtin(bStore),
		"known":        builtin(bKnown),
		"keys":         builtin(bKeys),
		"if":           builtin(bIf),
		"ifelse":       builtin(bIfelse),
		"repeat":       builtin(bRepeat),
		"for":          builtin(bFor),
		"exec":         builtin(bExec),
		"exit":         builtin(bExit),
		"forall":       builtin(bForall),
		"roll":         builtin(bRoll),
		"index":        builtin(bIndex),
		"copy":         builtin(bCopy),
		"mark":         builtin(bMark),
		"cleartomark":  builtin(bCleartomark),
		"counttomark":  builtin(bCounttomark),
		"moveto":       builtin(bMoveto),
		"lineto":       builtin(bLineto),
		"curveto":      builtin(bCurveto),
		"closepath":    builtin(bClosepath),
		"newpath":      builtin(bNewpath),
		"stroke":       builtin(bStroke),
		"fill":         builtin(bFill),
		"gsave":        builtin(bGsave),
		"grestore":     builtin(bGrestore),
		"translate":    builtin(bTranslate),
		"scale":        builtin(bScale),
		"rotate":       builtin(bRotate),
		"concat":       builtin(bConcat),
		"setrgbcolor":  builtin(bSetrgbcolor),
		"setlinewidth": builtin(bSetlinewidth),
		"setlinecap":   builtin(bSetlinecap),
		"setlinejoin":  builtin(bSetlinejoin),
		"setdash":      builtin(bSetdash),
		"filleo":       builtin(bFillEvenOdd),
		"clip":         builtin(bClip),
		"clipeo":       builtin(bClipEvenOdd),
		"showpage":     builtin(bShowpage),

		"rectpath":       builtin(bRectpath),
		"curvetov":       builtin(bCurvetoV),
		"curvetoy":       builtin(bCurvetoY),
		"fillstroke":     builtin(bFillstroke),
		"fillstrokeeo":   builtin(bFillstrokeEvenOdd),
		"setgraycolor":   builtin(bSetgraycolor),
		"setcmykcolor":   builtin(bSetcmykcolor),
		"showtext":       builtin(bShowtext),
		"showtextspaced": builtin(bShowtextspaced),
		"showtextarray":  builtin(bShowtextarray),
		"shading":        builtin(bShading),
		"inlineimage":    builtin(bInlineImage),
	}
}

func popN(intp *Interpreter, n int, op string) ([]Value, error) {
	if len(intp.Stack) < n {
		return nil, intp.newError(StackUnderflow, op, "not enough operands")
	}
	top := len(intp.Stack)
	vals := append([]Value(nil), intp.Stack[top-n:]...)
	intp.Stack = intp.Stack[:top-n]
	return vals, nil
}

func asNumber(v Value) (float64, bool) {
	switch v := v.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	default:
		return 0, false
	}
}

func bothInt(a, b Value) (Integer, Integer, bool) {
	ai, aok := a.(Integer)
	bi, bok := b.(Integer)
	return ai, bi, aok && bok
}

// --- arithmetic ---

func bAdd(intp *Interpreter) error { return arith(intp, "add", func(a, b float64) float64 { return a + b }) }
func bSub(intp *Interpreter) error { return arith(intp, "sub", func(a, b float64) float64 { return a - b }) }
func bMul(intp *Interpreter) error { return arith(intp, "mul", func(a, b float64) float64 { return a * b }) }

func arith(intp *Interpreter, op string, f func(a, b float64) float64) error {
	vals, err := popN(intp, 2, op)
	if err != nil {
		return err
	}
	a, b := vals[0], vals[1]
	if ai, bi, ok := bothInt(a, b); ok {
		r := f(float64(ai), float64(bi))
		intp.push(Integer(r))
		return nil
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if !aok || !bok {
		return intp.newError(TypeError, op, "operands must be numbers")
	}
	intp.push(Real(f(af, bf)))
	return nil
}

func bDiv(intp *Interpreter) error {
	vals, err := popN(intp, 2, "div")
	if err != nil {
		return err
	}
	af, aok := asNumber(vals[0])
	bf, bok := asNumber(vals[1])
	if !aok || !bok {
		return intp.newError(TypeError, "div", "operands must be numbers")
	}
	if bf == 0 {
		return intp.newError(RangeError, "div", "division by zero")
	}
	if ai, bi, ok := bothInt(vals[0], vals[1]); ok && ai%bi == 0 {
		intp.push(Integer(ai / bi))
		return nil
	}
	intp.push(Real(af / bf))
	return nil
}

// --- stack ---

func bDup(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.newError(StackUnderflow, "dup", "not enough operands")
	}
	intp.push(intp.Stack[len(intp.Stack)-1])
	return nil
}

func bPop(intp *Interpreter) error {
	if len(intp.Stack) < 1 {
		return intp.newError(StackUnderflow, "pop", "not enough operands")
	}
	intp.Stack = intp.Stack[:len(intp.Stack)-1]
	return nil
}

func bExch(intp *Interpreter) error {
	n := len(intp.Stack)
	if n < 2 {
		return intp.newError(StackUnderflow, "exch", "not enough operands")
	}
	intp.Stack[n-1], intp.Stack[n-2] = intp.Stack[n-2], intp.Stack[n-1]
	return nil
}

func bClear(intp *Interpreter) error {
	intp.Stack = intp.Stack[:0]
	return nil
}

// --- comparison ---

// valuesEqual implements eq/ne's type-exact equality: unlike lt/le/gt/ge,
// which numerically promote Integer and Real operands (numCompare), eq
// considers a mixed Integer/Real pair unequal regardless of value.
func valuesEqual(a, b Value) bool {
	switch a := a.(type) {
	case Integer:
		bi, ok := b.(Integer)
		return ok && a == bi
	case Real:
		br, ok := b.(Real)
		return ok && a == br
	case Boolean:
		bb, ok := b.(Boolean)
		return ok && a == bb
	case Name:
		bn, ok := b.(Name)
		return ok && a == bn
	case String:
		bs, ok := b.(String)
		return ok && string(a) == string(bs)
	case Array:
		bs, ok := b.(Array)
		return ok && sameArray(a, bs)
	default:
		return false
	}
}

func bEq(intp *Interpreter) error {
	vals, err := popN(intp, 2, "eq")
	if err != nil {
		return err
	}
	intp.push(Boolean(valuesEqual(vals[0], vals[1])))
	return nil
}

func bNe(intp *Interpreter) error {
	vals, err := popN(intp, 2, "ne")
	if err != nil {
		return err
	}
	intp.push(Boolean(!valuesEqual(vals[0], vals[1])))
	return nil
}

func numCompare(intp *Interpreter, op string, f func(a, b float64) bool) error {
	vals, err := popN(intp, 2, op)
	if err != nil {
		return err
	}
	af, aok := asNumber(vals[0])
	bf, bok := asNumber(vals[1])
	if !aok || !bok {
		return intp.newError(TypeError, op, "operands must be numbers")
	}
	intp.push(Boolean(f(af, bf)))
	return nil
}

func bLt(intp *Interpreter) error { return numCompare(intp, "lt", func(a, b float64) bool { return a < b }) }
func bLe(intp *Interpreter) error { return numCompare(intp, "le", func(a, b float64) bool { return a <= b }) }
func bGt(intp *Interpreter) error { return numCompare(intp, "gt", func(a, b float64) bool { return a > b }) }
func bGe(intp *Interpreter) error { return numCompare(intp, "ge", func(a, b float64) bool { return a >= b }) }

// --- arrays ---

func bArray(intp *Interpreter) error {
	vals, err := popN(intp, 1, "array")
	if err != nil {
		return err
	}
	n, ok := vals[0].(Integer)
	if !ok || n < 0 {
		return intp.newError(TypeError, "array", "size must be a nonnegative integer")
	}
	a := make(Array, n)
	for i := range a {
		a[i] = Null{}
	}
	intp.push(a)
	return nil
}

func bGet(intp *Interpreter) error {
	vals, err := popN(intp, 2, "get")
	if err != nil {
		return err
	}
	switch obj := vals[0].(type) {
	case Array:
		idx, ok := vals[1].(Integer)
		if !ok {
			return intp.newError(TypeError, "get", "array index must be an integer")
		}
		if idx < 0 || int(idx) >= len(obj) {
			return intp.newError(RangeError, "get", "array index out of bounds")
		}
		intp.push(obj[idx])
	case Dict:
		name, ok := keyOf(vals[1])
		if !ok {
			return intp.newError(TypeError, "get", "dict key must be a name")
		}
		v, ok := obj[name]
		if !ok {
			return intp.newError(RangeError, "get", "undefined dict key")
		}
		intp.push(v)
	case String:
		idx, ok := vals[1].(Integer)
		if !ok {
			return intp.newError(TypeError, "get", "string index must be an integer")
		}
		if idx < 0 || int(idx) >= len(obj) {
			return intp.newError(RangeError, "get", "string index out of bounds")
		}
		intp.push(Integer(obj[idx]))
	default:
		return intp.newError(TypeError, "get", "expects array, dict, or string")
	}
	return nil
}

func bPut(intp *Interpreter) error {
	vals, err := popN(intp, 3, "put")
	if err != nil {
		return err
	}
	switch obj := vals[0].(type) {
	case Array:
		idx, ok := vals[1].(Integer)
		if !ok {
			return intp.newError(TypeError, "put", "array index must be an integer")
		}
		if idx < 0 || int(idx) >= len(obj) {
			return intp.newError(RangeError, "put", "array index out of bounds")
		}
		obj[idx] = vals[2]
	case Dict:
		name, ok := keyOf(vals[1])
		if !ok {
			return intp.newError(TypeError, "put", "dict key must be a name")
		}
		obj[name] = vals[2]
	default:
		return intp.newError(TypeError, "put", "expects array or dict")
	}
	return nil
}

func bLength(intp *Interpreter) error {
	vals, err := popN(intp, 1, "length")
	if err != nil {
		return err
	}
	switch obj := vals[0].(type) {
	case Array:
		intp.push(Integer(len(obj)))
	case String:
		intp.push(Integer(len(obj)))
	case Dict:
		intp.push(Integer(len(obj)))
	default:
		return intp.newError(TypeError, "length", "expects array, string, or dict")
	}
	return nil
}

func bAload(intp *Interpreter) error {
	vals, err := popN(intp, 1, "aload")
	if err != nil {
		return err
	}
	a, ok := vals[0].(Array)
	if !ok {
		return intp.newError(TypeError, "aload", "expects an array")
	}
	for _, v := range a {
		intp.push(v)
	}
	intp.push(a)
	return nil
}

func bAstore(intp *Interpreter) error {
	vals, err := popN(intp, 1, "astore")
	if err != nil {
		return err
	}
	a, ok := vals[0].(Array)
	if !ok {
		return intp.newError(TypeError, "astore", "expects an array")
	}
	n := len(a)
	if len(intp.Stack) < n {
		return intp.newError(StackUnderflow, "astore", "not enough operands")
	}
	copy(a, intp.Stack[len(intp.Stack)-n:])
	intp.Stack = intp.Stack[:len(intp.Stack)-n]
	intp.push(a)
	return nil
}

func keyOf(v Value) (string, bool) {
	switch v := v.(type) {
	case Name:
		s := string(v)
		if len(s) > 0 && s[0] == '/' {
			s = s[1:]
		}
		return s, true
	case String:
		return string(v), true
	default:
		return "", false
	}
}

// --- dictionaries ---

func bDict(intp *Interpreter) error {
	vals, err := popN(intp, 1, "dict")
	if err != nil {
		return err
	}
	if _, ok := vals[0].(Integer); !ok {
		return intp.newError(TypeError, "dict", "expects an integer capacity hint")
	}
	intp.push(Dict{})
	return nil
}

func bDef(intp *Interpreter) error {
	vals, err := popN(intp, 2, "def")
	if err != nil {
		return err
	}
	key, ok := keyOf(vals[0])
	if !ok {
		return intp.newError(TypeError, "def", "key must be a name")
	}
	intp.DictStack[len(intp.DictStack)-1][key] = vals[1]
	return nil
}

func bLoad(intp *Interpreter) error {
	vals, err := popN(intp, 1, "load")
	if err != nil {
		return err
	}
	key, ok := keyOf(vals[0])
	if !ok {
		return intp.newError(TypeError, "load", "key must be a name")
	}
	for i := len(intp.DictStack) - 1; i >= 0; i-- {
		if v, ok := intp.DictStack[i][key]; ok {
			intp.push(v)
			return nil
		}
	}
	return intp.newError(UnknownOperator, key, "undefined")
}

func bStore(intp *Interpreter) error {
	vals, err := popN(intp, 3, "store")
	if err != nil {
		return err
	}
	d, ok := vals[0].(Dict)
	if !ok {
		return intp.newError(TypeError, "store", "expects a dict")
	}
	key, ok := keyOf(vals[1])
	if !ok {
		return intp.newError(TypeError, "store", "key must be a name")
	}
	d[key] = vals[2]
	return nil
}

func bKnown(intp *Interpreter) error {
	vals, err := popN(intp, 2, "known")
	if err != nil {
		return err
	}
	d, ok := vals[0].(Dict)
	if !ok {
		return intp.newError(TypeError, "known", "expects a dict")
	}
	key, ok := keyOf(vals[1])
	if !ok {
		return intp.newError(TypeError, "known", "key must be a name")
	}
	_, present := d[key]
	intp.push(Boolean(present))
	return nil
}

func bKeys(intp *Interpreter) error {
	vals, err := popN(intp, 1, "keys")
	if err != nil {
		return err
	}
	d, ok := vals[0].(Dict)
	if !ok {
		return intp.newError(TypeError, "keys", "expects a dict")
	}
	ks := maps.Keys(d)
	a := make(Array, len(ks))
	for i, k := range ks {
		a[i] = Name("/" + k)
	}
	intp.push(a)
	return nil
}

// --- control flow ---

func bIf(intp *Interpreter) error {
	vals, err := popN(intp, 2, "if")
	if err != nil {
		return err
	}
	proc, ok := vals[1].(Procedure)
	if !ok {
		return intp.newError(TypeError, "if", "expects a procedure")
	}
	cond, ok := truthy(vals[0])
	if !ok {
		return intp.newError(TypeError, "if", "condition must be boolean or numeric")
	}
	if cond {
		return intp.runProcedure(proc)
	}
	return nil
}

func bIfelse(intp *Interpreter) error {
	vals, err := popN(intp, 3, "ifelse")
	if err != nil {
		return err
	}
	thenProc, ok1 := vals[1].(Procedure)
	elseProc, ok2 := vals[2].(Procedure)
	if !ok1 || !ok2 {
		return intp.newError(TypeError, "ifelse", "expects two procedures")
	}
	cond, ok := truthy(vals[0])
	if !ok {
		return intp.newError(TypeError, "ifelse", "condition must be boolean or numeric")
	}
	if cond {
		return intp.runProcedure(thenProc)
	}
	return intp.runProcedure(elseProc)
}

func bRepeat(intp *Interpreter) error {
	vals, err := popN(intp, 2, "repeat")
	if err != nil {
		return err
	}
	n, ok := vals[0].(Integer)
	if !ok {
		return intp.newError(TypeError, "repeat", "count must be an integer")
	}
	proc, ok := vals[1].(Procedure)
	if !ok {
		return intp.newError(TypeError, "repeat", "expects a procedure")
	}
	for i := Integer(0); i < n; i++ {
		if err := intp.runProcedure(proc); err != nil {
			if err == errExit {
				break
			}
			return err
		}
	}
	return nil
}

func bFor(intp *Interpreter) error {
	vals, err := popN(intp, 4, "for")
	if err != nil {
		return err
	}
	start, ok1 := asNumber(vals[0])
	step, ok2 := asNumber(vals[1])
	end, ok3 := asNumber(vals[2])
	proc, ok4 := vals[3].(Procedure)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return intp.newError(TypeError, "for", "invalid operand types")
	}
	if step == 0 {
		return intp.newError(RangeError, "for", "step must be nonzero")
	}
	_, startIsInt := vals[0].(Integer)
	_, stepIsInt := vals[1].(Integer)
	allInt := startIsInt && stepIsInt

	for v := start; (step > 0 && v <= end) || (step < 0 && v >= end); v += step {
		if allInt {
			intp.push(Integer(v))
		} else {
			intp.push(Real(v))
		}
		if err := intp.runProcedure(proc); err != nil {
			if err == errExit {
				break
			}
			return err
		}
	}
	return nil
}

func bExec(intp *Interpreter) error {
	vals, err := popN(intp, 1, "exec")
	if err != nil {
		return err
	}
	proc, ok := vals[0].(Procedure)
	if !ok {
		return intp.newError(TypeError, "exec", "expects a procedure")
	}
	return intp.runProcedure(proc)
}

func bExit(intp *Interpreter) error {
	return errExit
}

func bForall(intp *Interpreter) error {
	vals, err := popN(intp, 2, "forall")
	if err != nil {
		return err
	}
	proc, ok := vals[1].(Procedure)
	if !ok {
		return intp.newError(TypeError, "forall", "expects a procedure")
	}
	switch obj := vals[0].(type) {
	case Array:
		for _, v := range obj {
			intp.push(v)
			if err := intp.runProcedure(proc); err != nil {
				if err == errExit {
					return nil
				}
				return err
			}
		}
	case Dict:
		for k, v := range obj {
			intp.push(Name("/" + k))
			intp.push(v)
			if err := intp.runProcedure(proc); err != nil {
				if err == errExit {
					return nil
				}
				return err
			}
		}
	default:
		return intp.newError(TypeError, "forall", "expects an array or dict")
	}
	return nil
}

// --- stack manipulation supplement (§4.3.1) ---

func bRoll(intp *Interpreter) error {
	vals, err := popN(intp, 2, "roll")
	if err != nil {
		return err
	}
	n, ok1 := vals[0].(Integer)
	j, ok2 := vals[1].(Integer)
	if !ok1 || !ok2 {
		return intp.newError(TypeError, "roll", "operands must be integers")
	}
	if n < 0 || int(n) > len(intp.Stack) {
		return intp.newError(RangeError, "roll", "invalid count")
	}
	if n == 0 {
		return nil
	}
	top := len(intp.Stack)
	seg := intp.Stack[top-int(n):]
	shift := int(j) % int(n)
	if shift < 0 {
		shift += int(n)
	}
	rolled := make([]Value, n)
	for i, v := range seg {
		rolled[(i+shift)%int(n)] = v
	}
	copy(seg, rolled)
	return nil
}

func bIndex(intp *Interpreter) error {
	vals, err := popN(intp, 1, "index")
	if err != nil {
		return err
	}
	n, ok := vals[0].(Integer)
	if !ok || n < 0 {
		return intp.newError(TypeError, "index", "operand must be a nonnegative integer")
	}
	if int(n) >= len(intp.Stack) {
		return intp.newError(RangeError, "index", "index out of bounds")
	}
	intp.push(intp.Stack[len(intp.Stack)-1-int(n)])
	return nil
}

func bCopy(intp *Interpreter) error {
	vals, err := popN(intp, 1, "copy")
	if err != nil {
		return err
	}
	switch v := vals[0].(type) {
	case Integer:
		if v < 0 || int(v) > len(intp.Stack) {
			return intp.newError(RangeError, "copy", "invalid count")
		}
		top := len(intp.Stack)
		intp.Stack = append(intp.Stack, intp.Stack[top-int(v):top]...)
	case Array:
		intp.push(append(Array(nil), v...))
	case Dict:
		cp := make(Dict, len(v))
		for k, val := range v {
			cp[k] = val
		}
		intp.push(cp)
	default:
		return intp.newError(TypeError, "copy", "unsupported operand type")
	}
	return nil
}

func bMark(intp *Interpreter) error {
	intp.push(theMark)
	return nil
}

func bCleartomark(intp *Interpreter) error {
	i := intp.findMark()
	if i < 0 {
		return intp.newError(RangeError, "cleartomark", "no mark on the stack")
	}
	intp.Stack = intp.Stack[:i]
	return nil
}

func bCounttomark(intp *Interpreter) error {
	i := intp.findMark()
	if i < 0 {
		return intp.newError(RangeError, "counttomark", "no mark on the stack")
	}
	intp.push(Integer(len(intp.Stack) - 1 - i))
	return nil
}

// --- graphics ---

func popFloats(intp *Interpreter, op string, n int) ([]float64, error) {
	vals, err := popN(intp, n, op)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, v := range vals {
		f, ok := asNumber(v)
		if !ok {
			return nil, intp.newError(TypeError, op, "operands must be numbers")
		}
		out[i] = f
	}
	return out, nil
}

func bMoveto(intp *Interpreter) error {
	f, err := popFloats(intp, "moveto", 2)
	if err != nil {
		return err
	}
	intp.gstate().moveTo(f[0], f[1])
	return nil
}

func bLineto(intp *Interpreter) error {
	f, err := popFloats(intp, "lineto", 2)
	if err != nil {
		return err
	}
	intp.gstate().lineTo(f[0], f[1])
	return nil
}

func bCurveto(intp *Interpreter) error {
	f, err := popFloats(intp, "curveto", 6)
	if err != nil {
		return err
	}
	intp.gstate().curveTo(f[0], f[1], f[2], f[3], f[4], f[5])
	return nil
}

func bClosepath(intp *Interpreter) error {
	intp.gstate().closePath()
	return nil
}

func bNewpath(intp *Interpreter) error {
	intp.gstate().newPath()
	return nil
}

func bStroke(intp *Interpreter) error {
	gs := intp.gstate()
	intp.emit(StrokeEvent{
		Path:      gs.Path,
		CTM:       gs.CTM,
		Color:     gs.Color,
		LineWidth: gs.LineWidth,
		Clipped:   gs.Clipped,
	})
	gs.newPath()
	return nil
}

func bFill(intp *Interpreter) error {
	gs := intp.gstate()
	intp.emit(FillEvent{
		Path:    gs.Path,
		CTM:     gs.CTM,
		Color:   gs.Color,
		Clipped: gs.Clipped,
	})
	gs.newPath()
	return nil
}

func bGsave(intp *Interpreter) error {
	intp.gsave()
	return nil
}

func bGrestore(intp *Interpreter) error {
	return intp.grestore()
}

func bTranslate(intp *Interpreter) error {
	f, err := popFloats(intp, "translate", 2)
	if err != nil {
		return err
	}
	gs := intp.gstate()
	gs.CTM = Translate(f[0], f[1]).Mul(gs.CTM)
	return nil
}

func bScale(intp *Interpreter) error {
	f, err := popFloats(intp, "scale", 2)
	if err != nil {
		return err
	}
	gs := intp.gstate()
	gs.CTM = Scale(f[0], f[1]).Mul(gs.CTM)
	return nil
}

func bRotate(intp *Interpreter) error {
	f, err := popFloats(intp, "rotate", 1)
	if err != nil {
		return err
	}
	gs := intp.gstate()
	gs.CTM = Rotate(f[0] * math.Pi / 180).Mul(gs.CTM)
	return nil
}

func bSetrgbcolor(intp *Interpreter) error {
	f, err := popFloats(intp, "setrgbcolor", 3)
	if err != nil {
		return err
	}
	intp.gstate().Color = RGB{f[0], f[1], f[2]}
	return nil
}

func bSetlinewidth(intp *Interpreter) error {
	f, err := popFloats(intp, "setlinewidth", 1)
	if err != nil {
		return err
	}
	intp.gstate().LineWidth = f[0]
	return nil
}

func bShowpage(intp *Interpreter) error {
	intp.emit(ShowPageEvent{})
	return nil
}

func bConcat(intp *Interpreter) error {
	f, err := popFloats(intp, "concat", 6)
	if err != nil {
		return err
	}
	gs := intp.gstate()
	local := Matrix{f[0], f[1], f[2], f[3], f[4], f[5]}
	gs.CTM = local.Mul(gs.CTM)
	return nil
}

func bSetlinecap(intp *Interpreter) error {
	vals, err := popN(intp, 1, "setlinecap")
	if err != nil {
		return err
	}
	n, ok := vals[0].(Integer)
	if !ok {
		return intp.newError(TypeError, "setlinecap", "expects an integer")
	}
	intp.gstate().LineCap = int(n)
	return nil
}

func bSetlinejoin(intp *Interpreter) error {
	vals, err := popN(intp, 1, "setlinejoin")
	if err != nil {
		return err
	}
	n, ok := vals[0].(Integer)
	if !ok {
		return intp.newError(TypeError, "setlinejoin", "expects an integer")
	}
	intp.gstate().LineJoin = int(n)
	return nil
}

func bSetdash(intp *Interpreter) error {
	vals, err := popN(intp, 2, "setdash")
	if err != nil {
		return err
	}
	arr, ok := vals[0].(Array)
	if !ok {
		return intp.newError(TypeError, "setdash", "pattern must be an array")
	}
	phase, ok := asNumber(vals[1])
	if !ok {
		return intp.newError(TypeError, "setdash", "phase must be a number")
	}
	pattern := make([]float64, len(arr))
	for i, v := range arr {
		f, ok := asNumber(v)
		if !ok {
			return intp.newError(TypeError, "setdash", "pattern entries must be numbers")
		}
		pattern[i] = f
	}
	gs := intp.gstate()
	gs.DashArray = pattern
	gs.DashPhase = phase
	return nil
}

func bFillEvenOdd(intp *Interpreter) error {
	gs := intp.gstate()
	intp.emit(FillEvent{
		Path:    gs.Path,
		CTM:     gs.CTM,
		Color:   gs.Color,
		EvenOdd: true,
		Clipped: gs.Clipped,
	})
	gs.newPath()
	return nil
}

func bClip(intp *Interpreter) error {
	intp.gstate().Clipped = true
	return nil
}

func bClipEvenOdd(intp *Interpreter) error {
	intp.gstate().Clipped = true
	return nil
}

// bRectpath implements the DF→PL mapping for "re": append a rectangle
// subpath (x,y)-(x+w,y+h) as moveto/lineto/lineto/lineto/closepath,
// without disturbing the current point the way a literal expansion to
// those five tokens would.
func bRectpath(intp *Interpreter) error {
	f, err := popFloats(intp, "rectpath", 4)
	if err != nil {
		return err
	}
	x, y, w, h := f[0], f[1], f[2], f[3]
	gs := intp.gstate()
	savedX, savedY, savedHas := gs.CurrentX, gs.CurrentY, gs.HasCurrent
	gs.moveTo(x, y)
	gs.lineTo(x+w, y)
	gs.lineTo(x+w, y+h)
	gs.lineTo(x, y+h)
	gs.closePath()
	if savedHas {
		gs.CurrentX, gs.CurrentY = savedX, savedY
	}
	return nil
}

// bCurvetoV implements "v": the first Bezier control point is the current
// point.
func bCurvetoV(intp *Interpreter) error {
	f, err := popFloats(intp, "curvetov", 4)
	if err != nil {
		return err
	}
	gs := intp.gstate()
	gs.curveTo(gs.CurrentX, gs.CurrentY, f[0], f[1], f[2], f[3])
	return nil
}

// bCurvetoY implements "y": the second Bezier control point coincides
// with the curve's endpoint.
func bCurvetoY(intp *Interpreter) error {
	f, err := popFloats(intp, "curvetoy", 4)
	if err != nil {
		return err
	}
	gs := intp.gstate()
	gs.curveTo(f[0], f[1], f[2], f[3], f[2], f[3])
	return nil
}

// bFillstroke implements the DF operators that both fill and stroke the
// same path ("B", "b") before clearing it: two events over one snapshot
// of the path, in fill-then-stroke order.
func bFillstroke(intp *Interpreter) error {
	gs := intp.gstate()
	intp.emit(FillEvent{Path: gs.Path, CTM: gs.CTM, Color: gs.Color, Clipped: gs.Clipped})
	intp.emit(StrokeEvent{Path: gs.Path, CTM: gs.CTM, Color: gs.Color, LineWidth: gs.LineWidth, Clipped: gs.Clipped})
	gs.newPath()
	return nil
}

func bFillstrokeEvenOdd(intp *Interpreter) error {
	gs := intp.gstate()
	intp.emit(FillEvent{Path: gs.Path, CTM: gs.CTM, Color: gs.Color, EvenOdd: true, Clipped: gs.Clipped})
	intp.emit(StrokeEvent{Path: gs.Path, CTM: gs.CTM, Color: gs.Color, LineWidth: gs.LineWidth, Clipped: gs.Clipped})
	gs.newPath()
	return nil
}

func bSetgraycolor(intp *Interpreter) error {
	f, err := popFloats(intp, "setgraycolor", 1)
	if err != nil {
		return err
	}
	intp.gstate().Color = RGB{f[0], f[0], f[0]}
	return nil
}

// bShowtext implements "Tj" and "'": pop a string operand and emit it as
// a TextEvent under the current CTM and color.
func bShowtext(intp *Interpreter) error {
	vals, err := popN(intp, 1, "showtext")
	if err != nil {
		return err
	}
	s, ok := vals[0].(String)
	if !ok {
		return intp.newError(TypeError, "showtext", "expects a string")
	}
	gs := intp.gstate()
	intp.emit(TextEvent{Text: string(s), CTM: gs.CTM, Color: gs.Color})
	return nil
}

// bShowtextspaced implements "\"": aw ac string " — word and character
// spacing are accepted and discarded; this engine has no text-layout
// model to apply them to.
func bShowtextspaced(intp *Interpreter) error {
	vals, err := popN(intp, 3, "showtextspaced")
	if err != nil {
		return err
	}
	s, ok := vals[2].(String)
	if !ok {
		return intp.newError(TypeError, "showtextspaced", "expects a string")
	}
	gs := intp.gstate()
	intp.emit(TextEvent{Text: string(s), CTM: gs.CTM, Color: gs.Color})
	return nil
}

// bShowtextarray implements "TJ": an array mixing strings and numeric
// kerning adjustments. The strings are concatenated in order; numeric
// adjustments are discarded along with the spacing in bShowtextspaced.
func bShowtextarray(intp *Interpreter) error {
	vals, err := popN(intp, 1, "showtextarray")
	if err != nil {
		return err
	}
	arr, ok := vals[0].(Array)
	if !ok {
		return intp.newError(TypeError, "showtextarray", "expects an array")
	}
	var text []byte
	for _, v := range arr {
		if s, ok := v.(String); ok {
			text = append(text, s...)
		}
	}
	gs := intp.gstate()
	intp.emit(TextEvent{Text: string(text), CTM: gs.CTM, Color: gs.Color})
	return nil
}

// bShading implements "sh": pop a shading-dictionary name and emit it as a
// ShadingEvent. Shading patterns are out of scope (colorspaces beyond
// RGB/gray), so no pixels are ever produced from this.
func bShading(intp *Interpreter) error {
	vals, err := popN(intp, 1, "shading")
	if err != nil {
		return err
	}
	name, ok := vals[0].(Name)
	if !ok {
		return intp.newError(TypeError, "shading", "expects a name")
	}
	intp.emit(ShadingEvent{Name: strings.TrimPrefix(string(name), "/")})
	return nil
}

// bInlineImage implements "inlineimage": a no-op that only emits an event.
// Inline image pixel data is never decoded by this interpreter.
func bInlineImage(intp *Interpreter) error {
	intp.emit(InlineImageEvent{})
	return nil
}

// bSetcmykcolor implements "k"/"K": naive CMYK to RGB conversion,
// r = (1-c)(1-k), matching the conversion every simple DF/PL bridge uses
// in the absence of ICC profile support.
func bSetcmykcolor(intp *Interpreter) error {
	f, err := popFloats(intp, "setcmykcolor", 4)
	if err != nil {
		return err
	}
	c, m, y, k := f[0], f[1], f[2], f[3]
	intp.gstate().Color = RGB{
		R: (1 - c) * (1 - k),
		G: (1 - m) * (1 - k),
		B: (1 - y) * (1 - k),
	}
	return nil
}
