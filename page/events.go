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

import "seehuhn.de/go/geom/path"

// Event is emitted by the graphics operators (stroke, fill, showpage) and
// by the text-showing operator mapping (§4.6.1). Callers that care about
// rendered output register an EventSink; callers that only care about
// final interpreter state (tests, the operand stack) can ignore it.
type Event interface{ isEvent() }

// StrokeEvent describes a stroke operation: the path (each point already
// transformed by the CTM in effect when it was added), the CTM in effect
// at the stroke, the stroke color and line width.
type StrokeEvent struct {
	Path      path.Data
	CTM       Matrix
	Color     RGB
	LineWidth float64
	Clipped   bool
}

func (StrokeEvent) isEvent() {}

// FillEvent describes a fill operation. EvenOdd selects the even-odd fill
// rule (f*, B*, b*) over the default nonzero-winding rule.
type FillEvent struct {
	Path    path.Data
	CTM     Matrix
	Color   RGB
	EvenOdd bool
	Clipped bool
}

func (FillEvent) isEvent() {}

// ShowPageEvent marks the end of a page.
type ShowPageEvent struct{}

func (ShowPageEvent) isEvent() {}

// TextEvent is emitted by the DF→PL operator mapping (§4.6.1) for Tj/TJ/'/"
// content-stream operators: the PL interpreter has no native font or
// glyph model, so showing text is surfaced as structured data for the
// caller rather than decomposed into path-construction operators.
type TextEvent struct {
	Text  string
	CTM   Matrix
	Color RGB
}

func (TextEvent) isEvent() {}

// ShadingEvent is emitted by the DF→PL operator mapping (§4.6.1) for the
// "sh" content-stream operator: shading patterns are out of scope
// (colorspaces beyond RGB/gray), so this records the shading dictionary's
// name for a downstream consumer without rasterizing it.
type ShadingEvent struct {
	Name string
}

func (ShadingEvent) isEvent() {}

// InlineImageEvent is emitted by the DF→PL operator mapping (§4.6.1) for a
// "BI...ID...EI" inline image: pixel data is not decoded, so this marks
// that an image occupied this point in the content stream.
type InlineImageEvent struct{}

func (InlineImageEvent) isEvent() {}

// EventSink receives events as operators emit them. A nil sink is valid:
// emit becomes a no-op.
type EventSink func(Event)

func (intp *Interpreter) emit(ev Event) {
	if intp.events != nil {
		intp.events(ev)
	}
}

// WithEventSink registers a callback for STROKE/FILL/SHOWPAGE/TEXT events.
func WithEventSink(sink EventSink) Option {
	return func(intp *Interpreter) { intp.events = sink }
}
