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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func runAndDump(t *testing.T, src string) []Value {
	t.Helper()
	intp := NewInterpreter()
	if err := intp.Execute(src); err != nil {
		t.Fatalf("Execute(%q): %v", src, err)
	}
	return intp.OperandStack()
}

func TestArithmeticIntStaysInt(t *testing.T) {
	got := runAndDump(t, "3 4 add 2 mul")
	want := []Value{Integer(14)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDivPromotesOnInexact(t *testing.T) {
	got := runAndDump(t, "7 2 div")
	want := []Value{Real(3.5)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDivStaysIntOnExact(t *testing.T) {
	got := runAndDump(t, "8 2 div")
	want := []Value{Integer(4)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDivByZero(t *testing.T) {
	intp := NewInterpreter()
	err := intp.Execute("1 0 div")
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !errors.Is(err, RangeError) {
		t.Errorf("got %v, want a RangeError", err)
	}
}

func TestStackOps(t *testing.T) {
	got := runAndDump(t, "1 2 3 exch pop dup")
	want := []Value{Integer(1), Integer(3), Integer(3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestComparisons(t *testing.T) {
	got := runAndDump(t, "1 2 lt 2 2 eq (a) (a) eq")
	want := []Value{Boolean(true), Boolean(true), Boolean(true)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEqDoesNotPromoteAcrossIntegerAndReal(t *testing.T) {
	// lt/le/gt/ge numerically promote Integer and Real operands, but
	// eq/ne require the same concrete type: 1 and 1.0 compare unequal
	// even though 1 le 1.0 (numeric promotion) holds.
	got := runAndDump(t, "1 1.0 eq 1.0 1 ne 1 1.0 le")
	want := []Value{Boolean(false), Boolean(true), Boolean(true)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayLiteralAndAccess(t *testing.T) {
	got := runAndDump(t, "[1 2 3] dup length exch 1 get")
	want := []Value{Integer(3), Integer(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayAliasing(t *testing.T) {
	// put mutates through any alias of the same backing array.
	got := runAndDump(t, "[1 2 3] dup 0 99 put 0 get")
	want := []Value{Integer(99)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDictLiteralAndGet(t *testing.T) {
	got := runAndDump(t, "<< /a 1 /b 2 >> dup /a get exch /b get")
	want := []Value{Integer(1), Integer(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestUserDefinedProcedure(t *testing.T) {
	got := runAndDump(t, "/double { 2 mul } def 21 double")
	want := []Value{Integer(42)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestIfElse(t *testing.T) {
	got := runAndDump(t, "1 2 lt { (yes) } { (no) } ifelse")
	want := []Value{String("yes")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestForLoopAccumulates(t *testing.T) {
	got := runAndDump(t, "0 1 1 4 { add } for")
	want := []Value{Integer(10)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestForallOverArray(t *testing.T) {
	got := runAndDump(t, "0 [1 2 3] { add } forall")
	want := []Value{Integer(6)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExitStopsInnermostLoop(t *testing.T) {
	got := runAndDump(t, "0 1 1 10 { dup 3 gt { exit } if add } for")
	want := []Value{Integer(6), Integer(4)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRollIndex(t *testing.T) {
	got := runAndDump(t, "1 2 3 3 1 roll")
	want := []Value{Integer(3), Integer(1), Integer(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got = runAndDump(t, "1 2 3 1 index")
	want = []Value{Integer(1), Integer(2), Integer(3), Integer(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkCleartomarkCounttomark(t *testing.T) {
	got := runAndDump(t, "1 mark 2 3 4 counttomark")
	want := []Value{Integer(1), mark{}, Integer(2), Integer(3), Integer(4), Integer(3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got = runAndDump(t, "1 mark 2 3 4 cleartomark")
	want = []Value{Integer(1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownOperatorIsLenientByDefault(t *testing.T) {
	intp := NewInterpreter()
	if err := intp.Execute("frobnicate"); err != nil {
		t.Fatalf("unexpected error in lenient mode: %v", err)
	}
	got := intp.OperandStack()
	want := []Value{String("frobnicate")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownOperatorIsFatalWhenStrict(t *testing.T) {
	intp := NewInterpreter(WithStrictOperators())
	err := intp.Execute("frobnicate")
	if !errors.Is(err, UnknownOperator) {
		t.Errorf("got %v, want an UnknownOperator error", err)
	}
}

func TestStackUnderflow(t *testing.T) {
	intp := NewInterpreter()
	err := intp.Execute("add")
	if !errors.Is(err, StackUnderflow) {
		t.Errorf("got %v, want a StackUnderflow error", err)
	}
}

func TestGraphicsStateStackDefaultsAndSave(t *testing.T) {
	intp := NewInterpreter()
	if err := intp.Execute("1 0 0 setrgbcolor gsave 0 1 0 setrgbcolor"); err != nil {
		t.Fatal(err)
	}
	if got, want := intp.GraphicsState().Color, (RGB{0, 1, 0}); got != want {
		t.Errorf("after gsave+set, color = %v, want %v", got, want)
	}
	if err := intp.Execute("grestore"); err != nil {
		t.Fatal(err)
	}
	if got, want := intp.GraphicsState().Color, (RGB{1, 0, 0}); got != want {
		t.Errorf("after grestore, color = %v, want %v", got, want)
	}
}

func TestGrestoreOnEmptyStackErrors(t *testing.T) {
	intp := NewInterpreter()
	err := intp.Execute("grestore")
	if !errors.Is(err, RangeError) {
		t.Errorf("got %v, want a RangeError", err)
	}
}

func TestEventSinkReceivesStrokeAndFill(t *testing.T) {
	var events []Event
	intp := NewInterpreter(WithEventSink(func(ev Event) { events = append(events, ev) }))
	err := intp.Execute("0 0 moveto 10 0 lineto stroke 0 0 moveto 5 5 lineto fill showpage")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if _, ok := events[0].(StrokeEvent); !ok {
		t.Errorf("events[0] = %T, want StrokeEvent", events[0])
	}
	if _, ok := events[1].(FillEvent); !ok {
		t.Errorf("events[1] = %T, want FillEvent", events[1])
	}
	if _, ok := events[2].(ShowPageEvent); !ok {
		t.Errorf("events[2] = %T, want ShowPageEvent", events[2])
	}
}

func TestOperatorShadowsProcedureOfSameName(t *testing.T) {
	// Redefining "add" as a procedure must not be reachable: operators are
	// looked up before dictionary-bound procedures.
	intp := NewInterpreter()
	if err := intp.Execute("/add { pop pop 0 } def 1 2 add"); err != nil {
		t.Fatal(err)
	}
	got := intp.OperandStack()
	want := []Value{Integer(3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
