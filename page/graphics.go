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
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
)

// RGB is a device RGB color, each component in [0, 1].
type RGB struct {
	R, G, B float64
}

// GraphicsState is the state affected by gsave/grestore: the current
// transformation matrix, the current point, the path under construction,
// and the paint/stroke parameters. Everything else (the operand stack, the
// dictionary stack) lives outside the graphics state and is unaffected by
// gsave/grestore.
type GraphicsState struct {
	CTM Matrix

	Path        path.Data
	HasCurrent  bool
	CurrentX    float64
	CurrentY    float64

	LineWidth float64
	LineCap   int
	LineJoin  int
	DashArray []float64
	DashPhase float64
	Color     RGB
	Clipped   bool
}

func newGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM:       Identity,
		LineWidth: 1,
		Color:     RGB{0, 0, 0},
	}
}

// clone deep-copies gs so that grestore never lets a subsequent mutation of
// the restored state reach back into the state that was popped.
func (gs *GraphicsState) clone() *GraphicsState {
	cp := *gs
	cp.Path = path.Data{
		Cmds:   append([]path.Command(nil), gs.Path.Cmds...),
		Coords: append([]vec.Vec2(nil), gs.Path.Coords...),
	}
	return &cp
}

// gstate returns the current (topmost) graphics state.
func (intp *Interpreter) gstate() *GraphicsState {
	return intp.graphics[len(intp.graphics)-1]
}

// gsave pushes a copy of the current graphics state.
func (intp *Interpreter) gsave() {
	intp.graphics = append(intp.graphics, intp.gstate().clone())
}

// grestore pops the current graphics state, restoring the one below it. It
// is an error to call grestore when only the default state remains.
func (intp *Interpreter) grestore() error {
	if len(intp.graphics) <= 1 {
		return intp.newError(RangeError, "grestore", "graphics state stack is empty")
	}
	intp.graphics = intp.graphics[:len(intp.graphics)-1]
	return nil
}

// moveTo starts a new subpath at the user-space point (x, y), transformed
// by the current CTM.
func (gs *GraphicsState) moveTo(x, y float64) {
	p := gs.CTM.Apply(vec.Vec2{X: x, Y: y})
	gs.Path.Cmds = append(gs.Path.Cmds, path.CmdMoveTo)
	gs.Path.Coords = append(gs.Path.Coords, p)
	gs.CurrentX, gs.CurrentY = x, y
	gs.HasCurrent = true
}

// lineTo appends a straight segment from the current point to (x, y).
func (gs *GraphicsState) lineTo(x, y float64) {
	p := gs.CTM.Apply(vec.Vec2{X: x, Y: y})
	gs.Path.Cmds = append(gs.Path.Cmds, path.CmdLineTo)
	gs.Path.Coords = append(gs.Path.Coords, p)
	gs.CurrentX, gs.CurrentY = x, y
	gs.HasCurrent = true
}

// curveTo appends a cubic Bezier segment from the current point through
// two control points to (x3, y3).
func (gs *GraphicsState) curveTo(x1, y1, x2, y2, x3, y3 float64) {
	p1 := gs.CTM.Apply(vec.Vec2{X: x1, Y: y1})
	p2 := gs.CTM.Apply(vec.Vec2{X: x2, Y: y2})
	p3 := gs.CTM.Apply(vec.Vec2{X: x3, Y: y3})
	gs.Path.Cmds = append(gs.Path.Cmds, path.CmdCubeTo)
	gs.Path.Coords = append(gs.Path.Coords, p1, p2, p3)
	gs.CurrentX, gs.CurrentY = x3, y3
	gs.HasCurrent = true
}

// closePath closes the current subpath with a straight line back to its
// starting point.
func (gs *GraphicsState) closePath() {
	gs.Path.Cmds = append(gs.Path.Cmds, path.CmdClose)
}

// newPath discards the path under construction without affecting the
// current point.
func (gs *GraphicsState) newPath() {
	gs.Path = path.Data{}
}
