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

package df

import (
	"bytes"
	"log/slog"
	"os"
)

// Document is a parsed file: the raw bytes, the resolved cross-reference
// table, and the trailer dictionary. Objects are read lazily from Resolve;
// nothing beyond the xref table and trailer is parsed up front.
type Document struct {
	buf     []byte
	xref    map[int]*xrefEntry
	Trailer Dict

	objStmCache map[int]*objStm
	Logger      *slog.Logger
}

type objStm struct {
	entries []stmObjLoc
	body    []byte
	first   int64
}

type stmObjLoc struct {
	number int
	offset int
}

// ParseFile reads path into memory, checks the header, locates and decodes
// the cross-reference table (classic or stream, following /Prev chains),
// and returns a Document ready for Resolve calls.
func ParseFile(path string) (*Document, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(StructuralErr, -1, "reading %s: %v", path, err)
	}
	return ParseBytes(buf)
}

// ParseBytes is ParseFile without a filesystem read, useful for tests and
// for callers that already have the document in memory.
func ParseBytes(buf []byte) (*Document, error) {
	if !bytes.HasPrefix(buf, []byte("%PDF-")) {
		return nil, newError(InvalidHeader, 0, "missing %%PDF- header")
	}

	off, err := findStartXRef(buf)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		buf:         buf,
		xref:        map[int]*xrefEntry{},
		objStmCache: map[int]*objStm{},
		Logger:      slog.Default(),
	}

	var trailer Dict
	seen := map[int64]bool{}
	for {
		if seen[off] {
			return nil, newError(StructuralErr, off, "cyclic /Prev chain in cross-reference sections")
		}
		seen[off] = true

		sectionTrailer, err := readXRefSection(buf, off, doc.xref)
		if err != nil {
			return nil, err
		}
		if trailer == nil {
			trailer = sectionTrailer
		}

		prev, ok := sectionTrailer["Prev"].(Integer)
		if !ok {
			break
		}
		off = int64(prev)
	}
	if trailer == nil {
		return nil, newError(StructuralErr, -1, "no trailer found")
	}
	doc.Trailer = trailer

	return doc, nil
}

// Resolve follows a single level of indirection: if obj is a Reference it
// is looked up in the xref table and the referenced object is returned;
// any other value is returned unchanged. A reference to a missing object
// resolves to Null rather than failing the whole parse (spec's
// ResolveError is non-fatal).
func (doc *Document) Resolve(obj Object) Object {
	ref, ok := obj.(Reference)
	if !ok {
		return obj
	}
	v, err := doc.getObject(ref)
	if err != nil {
		doc.Logger.Warn("unresolved reference", "number", ref.Number, "generation", ref.Generation, "error", err)
		return Null{}
	}
	return v
}

func (doc *Document) getObject(ref Reference) (Object, error) {
	entry, ok := doc.xref[ref.Number]
	if !ok || entry.Free {
		return nil, newError(ResolveErr, -1, "object %d is not in use", ref.Number)
	}
	if entry.Compressed {
		return doc.getFromObjectStream(entry.InStream, entry.IndexInStream)
	}

	s := newScanner(doc.buf, entry.Offset)
	s.resolveLength = doc.resolveLengthRef
	_, obj, err := s.ReadIndirectObject()
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (doc *Document) resolveLengthRef(ref Reference) (int64, error) {
	obj, err := doc.getObject(ref)
	if err != nil {
		return 0, err
	}
	n, ok := obj.(Integer)
	if !ok {
		return 0, newError(StructuralErr, -1, "indirect /Length did not resolve to an integer")
	}
	return int64(n), nil
}

// getFromObjectStream resolves a type-2 (compressed) xref entry: the
// containing stream object is read and decoded once (and cached), then
// the object at the recorded index is parsed out of the decoded body.
func (doc *Document) getFromObjectStream(streamNumber, index int) (Object, error) {
	stm, ok := doc.objStmCache[streamNumber]
	if !ok {
		var err error
		stm, err = doc.loadObjectStream(streamNumber)
		if err != nil {
			return nil, err
		}
		doc.objStmCache[streamNumber] = stm
	}
	if index < 0 || index >= len(stm.entries) {
		return nil, newError(ResolveErr, -1, "object index %d out of range in object stream %d", index, streamNumber)
	}
	loc := stm.entries[index]
	s := newScanner(stm.body, stm.first+int64(loc.offset))
	return s.ReadObject()
}

// loadObjectStream decompresses object stream streamNumber and parses its
// header: N (object number, offset) pairs followed, at byte /First, by the packed
// object bodies themselves.
func (doc *Document) loadObjectStream(streamNumber int) (*objStm, error) {
	obj, err := doc.getObject(Reference{Number: streamNumber})
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return nil, newError(StructuralErr, -1, "object %d is not a stream", streamNumber)
	}
	n, ok := stream.Dict["N"].(Integer)
	if !ok || n < 0 {
		return nil, newError(StructuralErr, -1, "object stream %d has no valid /N", streamNumber)
	}
	first, ok := stream.Dict["First"].(Integer)
	if !ok || first < 0 {
		return nil, newError(StructuralErr, -1, "object stream %d has no valid /First", streamNumber)
	}

	body, err := decodeStream(stream)
	if err != nil {
		return nil, err
	}

	s := newScanner(body, 0)
	entries := make([]stmObjLoc, n)
	for i := range entries {
		s.skipWhiteSpace()
		num, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		s.skipWhiteSpace()
		offs, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		entries[i] = stmObjLoc{number: int(num), offset: int(offs)}
	}

	return &objStm{entries: entries, body: body, first: int64(first)}, nil
}
