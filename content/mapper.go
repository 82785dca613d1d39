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

// Package content maps a document's content-stream operator vocabulary
// onto the page language's operator set and drives an interpreter through
// a page's tokens.
package content

// opMap translates a content-stream operator token into the equivalent
// page-language token(s). Multi-token replacements are pre-split; the
// driver appends each resulting token to the outgoing token stream in
// order. Operands are never touched here: a content-stream operator and
// its page-language equivalent always consume operands in the same order
// off the same stack, so numbers, strings, names, and array/dict literals
// pass through the tokenizer unchanged.
var opMap = map[string][]string{
	// General graphics state
	"q":  {"gsave"},
	"Q":  {"grestore"},
	"cm": {"concat"},
	"w":  {"setlinewidth"},
	"J":  {"setlinecap"},
	"j":  {"setlinejoin"},
	"d":  {"setdash"},

	// Path construction
	"m":  {"moveto"},
	"l":  {"lineto"},
	"c":  {"curveto"},
	"v":  {"curvetov"},
	"y":  {"curvetoy"},
	"h":  {"closepath"},
	"re": {"rectpath"},

	// Path painting
	"S":  {"stroke"},
	"s":  {"closepath", "stroke"},
	"f":  {"fill"},
	"F":  {"fill"},
	"f*": {"filleo"},
	"B":  {"fillstroke"},
	"B*": {"fillstrokeeo"},
	"b":  {"closepath", "fillstroke"},
	"b*": {"closepath", "fillstrokeeo"},
	"n":  {"newpath"},

	// Clipping
	"W":  {"clip"},
	"W*": {"clipeo"},

	// Device colors — RG/G/K share the same single Color slot as rg/g/k
	// (§4.6 does not distinguish stroke and fill color state).
	"g":  {"setgraycolor"},
	"G":  {"setgraycolor"},
	"rg": {"setrgbcolor"},
	"RG": {"setrgbcolor"},
	"k":  {"setcmykcolor"},
	"K":  {"setcmykcolor"},

	// Text showing — the page language has no font or glyph model, so
	// these surface as a TextEvent (§4.6.1) rather than path construction.
	"Tj":  {"showtext"},
	"'":   {"showtext"},
	"\"":  {"showtextspaced"},
	"TJ":  {"showtextarray"},

	// Shading — no rasterizer to feed, so this is a pass-through event
	// rather than a dropped no-op (§4.6.1).
	"sh": {"shading"},
}

// inlineImageOps delimit an inline image (BI ... ID <binary> EI); the
// image data itself is opaque to a content-stream token scanner and is
// skipped as a unit rather than mapped.
const (
	inlineImageBegin = "BI"
	inlineImageData  = "ID"
	inlineImageEnd   = "EI"
)

// noOps map to nothing: recognized but semantically inert for this
// engine (text-state scalars, marked content, compatibility sections).
// "Do" is deliberately absent: resolving a named XObject needs the
// current page's /Resources at the time of the call, which mapToken's
// static string table cannot supply, so the orchestrator intercepts it
// before falling through to this table (see orchestrator.go's execXObject).
var noOps = map[string]bool{
	"BT": true, "ET": true,
	"Tc": true, "Tw": true, "Tz": true, "TL": true, "Tf": true, "Tr": true, "Ts": true,
	"Td": true, "TD": true, "Tm": true, "T*": true,
	"cs": true, "CS": true, "sc": true, "SC": true, "scn": true, "SCN": true,
	"gs": true, "ri": true, "i": true, "M": true,
	"MP": true, "DP": true, "BMC": true, "BDC": true, "EMC": true,
	"BX": true, "EX": true,
	"d0": true, "d1": true,
}

// mapToken translates one content-stream token, returning the
// page-language tokens it expands to. Anything not recognized as an
// operator — numbers, strings, names, array/dict literals — passes
// through unchanged; anything in noOps is dropped. "Do" is handled by
// the orchestrator before mapToken is ever consulted.
func mapToken(tok string) []string {
	if repl, ok := opMap[tok]; ok {
		return repl
	}
	if noOps[tok] {
		return nil
	}
	return []string{tok}
}
