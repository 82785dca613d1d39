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

package content

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ashgrove/docexec/df"
	"github.com/ashgrove/docexec/page"
)

// Orchestrator parses a document, walks its page tree, and drives one
// page-language interpreter per page through each page's translated
// content stream. A page-level failure is logged and isolated: it does
// not prevent the remaining pages from being processed, matching the
// propagation rule in spec §7.
type Orchestrator struct {
	Logger *slog.Logger
	Sink   page.EventSink
}

// NewOrchestrator constructs an Orchestrator with a default logger and no
// event sink; set Sink before calling ProcessFile to observe drawing
// events.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{Logger: slog.Default()}
}

// ProcessFile parses path as a document, walks its page tree, and
// executes every page's content stream in turn.
func (o *Orchestrator) ProcessFile(path string) error {
	doc, err := df.ParseFile(path)
	if err != nil {
		return err
	}
	return o.processDocument(doc)
}

func (o *Orchestrator) processDocument(doc *df.Document) error {
	pages, err := doc.Pages()
	if err != nil {
		return err
	}
	for i, p := range pages {
		if err := o.processPage(doc, p); err != nil {
			o.Logger.Warn("skipping page after error", "page", i, "error", err)
		}
	}
	return nil
}

func (o *Orchestrator) processPage(doc *df.Document, p *df.Page) error {
	raw, err := doc.Contents(p)
	if err != nil {
		return err
	}

	intp := page.NewInterpreter(page.WithLogger(o.Logger), page.WithEventSink(o.Sink))
	run := &streamRun{doc: doc, intp: intp}
	return run.exec(replaceInlineImages(raw), p.Resources, map[df.Reference]bool{})
}

// streamRun drives one interpreter through a sequence of content streams,
// threading the /Resources dict in effect and a cycle guard through any
// nested Form XObjects a "Do" resolves into.
type streamRun struct {
	doc  *df.Document
	intp *page.Interpreter
}

// exec tokenizes src and runs every token against r.intp, translating DF
// operator tokens to PL ones (mapToken) except for "Do": resolving a named
// XObject needs the page's current /Resources, which mapToken's static
// table has no way to supply, so it is handled here instead.
func (r *streamRun) exec(src []byte, resources df.Dict, seen map[df.Reference]bool) error {
	for _, tok := range page.Tokenize(string(src)) {
		if tok == "Do" {
			if err := r.execXObject(resources, seen); err != nil {
				return err
			}
			continue
		}
		for _, mapped := range mapToken(tok) {
			if err := r.intp.ExecuteToken(mapped); err != nil {
				return err
			}
		}
	}
	return nil
}

// execXObject implements the base spec's required "Do | exec (resolve
// named XObject)" mapping: it pops the operand "Do" leaves on the operand
// stack (the name pushed by the preceding "/Name" token), looks it up in
// resources' /XObject dict, and for a /Subtype /Form XObject, executes its
// content stream under a gsave/grestore bracket with the Form's /Matrix
// (if any) applied. Image XObjects are left unresolved: decoding pixel
// data is adjacent to the font/rendering non-goals.
func (r *streamRun) execXObject(resources df.Dict, seen map[df.Reference]bool) error {
	n := len(r.intp.Stack)
	if n < 1 {
		return nil
	}
	name, ok := r.intp.Stack[n-1].(page.Name)
	if !ok {
		return nil
	}
	r.intp.Stack = r.intp.Stack[:n-1]

	xobjects, _ := r.doc.Resolve(resources["XObject"]).(df.Dict)
	if xobjects == nil {
		return nil
	}
	ref, ok := xobjects[df.Name(strings.TrimPrefix(string(name), "/"))].(df.Reference)
	if !ok || seen[ref] {
		return nil
	}
	stream, ok := r.doc.Resolve(ref).(*df.Stream)
	if !ok {
		return nil
	}
	if subtype, _ := stream.Dict["Subtype"].(df.Name); subtype != "Form" {
		return nil
	}

	body, err := df.DecodeStream(stream)
	if err != nil {
		return err
	}

	formResources := resources
	if fr, ok := r.doc.Resolve(stream.Dict["Resources"]).(df.Dict); ok {
		formResources = fr
	}

	seen[ref] = true
	defer delete(seen, ref)

	if err := r.intp.ExecuteToken("gsave"); err != nil {
		return err
	}
	if err := r.applyFormMatrix(stream.Dict["Matrix"]); err != nil {
		return err
	}
	if err := r.exec(replaceInlineImages(body), formResources, seen); err != nil {
		return err
	}
	return r.intp.ExecuteToken("grestore")
}

// applyFormMatrix pushes a Form XObject's /Matrix (six numbers) and runs
// "concat", matching how "cm" composes an operator-supplied matrix with
// the CTM. A missing or malformed /Matrix leaves the CTM untouched.
func (r *streamRun) applyFormMatrix(m df.Object) error {
	arr, ok := m.(df.Array)
	if !ok || len(arr) != 6 {
		return nil
	}
	for _, v := range arr {
		f, ok := dfNumber(v)
		if !ok {
			return nil
		}
		if err := r.intp.ExecuteToken(strconv.FormatFloat(f, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return r.intp.ExecuteToken("concat")
}

func dfNumber(v df.Object) (float64, bool) {
	switch v := v.(type) {
	case df.Integer:
		return float64(v), true
	case df.Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// replaceInlineImages rewrites every "BI ... ID <binary> EI" inline-image
// block in a content stream into a single "inlineimage" token before
// tokenizing, since the binary payload between ID and EI is not itself
// PostScript-shaped text and cannot survive the generic tokenizer. Per
// §4.6.1 this maps to a no-op PL operator that only emits an event.
//
// When the inline image dict carries /L (or /Length), the image body is
// skipped by that exact byte count; a raw scan for the next "EI" is used
// only as a fallback, since the payload itself can coincidentally contain
// the two-byte sequence "EI".
func replaceInlineImages(src []byte) []byte {
	bi, id, ei := []byte(inlineImageBegin), []byte(inlineImageData), []byte(inlineImageEnd)
	var out []byte
	for {
		biIdx := bytes.Index(src, bi)
		if biIdx < 0 {
			out = append(out, src...)
			return out
		}
		idRel := bytes.Index(src[biIdx:], id)
		if idRel < 0 {
			out = append(out, src...)
			return out
		}
		dictText := string(src[biIdx+len(bi) : biIdx+idRel])
		out = append(out, src[:biIdx]...)
		out = append(out, " inlineimage "...)

		bodyStart := biIdx + idRel + len(id)
		if bodyStart < len(src) && isInlineImageSpace(src[bodyStart]) {
			bodyStart++
		}

		if n, ok := inlineImageLength(dictText); ok && bodyStart+n <= len(src) {
			rest := src[bodyStart+n:]
			if eiIdx := bytes.Index(rest, ei); eiIdx >= 0 {
				rest = rest[eiIdx+len(ei):]
			}
			src = rest
			continue
		}

		eiRel := bytes.Index(src[bodyStart:], ei)
		if eiRel < 0 {
			return out
		}
		src = src[bodyStart+eiRel+len(ei):]
	}
}

func isInlineImageSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	default:
		return false
	}
}

// inlineImageLength looks for a /L or /Length entry in an inline image's
// dictionary text (the run between "BI" and "ID") and returns its integer
// value, if present.
func inlineImageLength(dictText string) (int, bool) {
	toks := page.Tokenize(dictText)
	for i := 0; i+1 < len(toks); i++ {
		if toks[i] == "/L" || toks[i] == "/Length" {
			if n, err := strconv.Atoi(toks[i+1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
