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
	"strconv"
	"strings"
)

// xrefEntry is one resolved cross-reference table entry: either a direct
// byte offset into the file, or (for a compressed object) the number of
// the containing object stream plus an index within it.
type xrefEntry struct {
	Offset     int64
	Generation int
	Free       bool

	InStream      int // containing object stream's object number
	IndexInStream int
	Compressed    bool
}

// findStartXRef locates the byte offset named by the last "startxref"
// keyword in the file, scanning backward from the end the way real
// readers tolerate trailing garbage after %%EOF.
func findStartXRef(buf []byte) (int64, error) {
	idx := bytes.LastIndex(buf, []byte("startxref"))
	if idx < 0 {
		return 0, newError(StructuralErr, -1, "no startxref keyword found")
	}
	s := newScanner(buf, int64(idx+len("startxref")))
	s.skipWhiteSpace()
	start := s.pos
	for !s.atEOF() && s.buf[s.pos] >= '0' && s.buf[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == start {
		return 0, newError(StructuralErr, start, "startxref not followed by an offset")
	}
	off, err := strconv.ParseInt(string(s.buf[start:s.pos]), 10, 64)
	if err != nil {
		return 0, newError(StructuralErr, start, "malformed startxref offset")
	}
	return off, nil
}

// readXRefSection reads one cross-reference section, classic or stream
// encoded, at byte offset off. It returns the section's trailer (or
// xref-stream dict, which doubles as the trailer); the caller reads the
// previous section's offset, if any, from that dict's /Prev entry.
func readXRefSection(buf []byte, off int64, table map[int]*xrefEntry) (Dict, error) {
	s := newScanner(buf, off)
	s.skipWhiteSpace()
	if bytes.HasPrefix(s.peekN(4), []byte("xref")) {
		return readClassicXRef(s, table)
	}
	return readXRefStream(s, table)
}

func readClassicXRef(s *scanner, table map[int]*xrefEntry) (Dict, error) {
	if err := s.skipString("xref"); err != nil {
		return nil, err
	}
	for {
		s.skipWhiteSpace()
		if bytes.HasPrefix(s.peekN(7), []byte("trailer")) {
			s.pos += 7
			s.skipWhiteSpace()
			trailer, err := s.readDict()
			if err != nil {
				return nil, err
			}
			return trailer, nil
		}

		startObj, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		s.skipWhiteSpace()
		count, err := s.readInteger()
		if err != nil {
			return nil, err
		}
		for i := int64(0); i < count; i++ {
			s.skipWhiteSpace()
			line := s.peekN(20)
			if len(line) < 18 {
				return nil, newError(StructuralErr, s.pos, "truncated classic xref entry")
			}
			offset, err := strconv.ParseInt(strings.TrimSpace(string(line[0:10])), 10, 64)
			if err != nil {
				return nil, newError(StructuralErr, s.pos, "malformed xref offset field")
			}
			genStr := strings.TrimSpace(string(line[11:16]))
			gen, err := strconv.ParseUint(genStr, 10, 16)
			if err != nil {
				if bytes.HasPrefix(line, []byte("0000000000 65536 ")) {
					gen = 65535
				} else {
					return nil, newError(StructuralErr, s.pos, "malformed xref generation field")
				}
			}
			num := int(startObj + i)
			if _, seen := table[num]; !seen {
				switch line[17] {
				case 'n':
					table[num] = &xrefEntry{Offset: offset, Generation: int(gen)}
				case 'f':
					table[num] = &xrefEntry{Free: true, Generation: int(gen)}
				default:
					return nil, newError(StructuralErr, s.pos, "malformed xref entry type")
				}
			}
			s.pos += 20
		}
	}
}

func readXRefStream(s *scanner, table map[int]*xrefEntry) (Dict, error) {
	_, obj, err := s.ReadIndirectObject()
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return nil, newError(StructuralErr, s.pos, "expected an xref stream")
	}
	dict := stream.Dict
	if tp, _ := dict["Type"].(Name); tp != "XRef" {
		return nil, newError(StructuralErr, s.pos, "xref stream missing /Type /XRef")
	}

	w, ok := dict["W"].(Array)
	if !ok || len(w) < 3 {
		return nil, newError(StructuralErr, s.pos, "xref stream missing /W")
	}
	widths := make([]int, 3)
	for i := 0; i < 3; i++ {
		wi, ok := w[i].(Integer)
		if !ok {
			return nil, newError(StructuralErr, s.pos, "xref stream /W entries must be integers")
		}
		widths[i] = int(wi)
	}

	size, _ := dict["Size"].(Integer)
	var subsections [][2]int
	if idx, ok := dict["Index"].(Array); ok {
		for i := 0; i+1 < len(idx); i += 2 {
			start, ok1 := idx[i].(Integer)
			count, ok2 := idx[i+1].(Integer)
			if !ok1 || !ok2 {
				return nil, newError(StructuralErr, s.pos, "xref stream /Index entries must be integers")
			}
			subsections = append(subsections, [2]int{int(start), int(count)})
		}
	} else {
		subsections = [][2]int{{0, int(size)}}
	}

	decoded, err := decodeStream(stream)
	if err != nil {
		return nil, err
	}
	rowWidth := widths[0] + widths[1] + widths[2]
	pos := 0
	for _, sub := range subsections {
		for i := 0; i < sub[1]; i++ {
			if pos+rowWidth > len(decoded) {
				return nil, newError(DecodeErr, s.pos, "xref stream truncated")
			}
			row := decoded[pos : pos+rowWidth]
			pos += rowWidth

			tp := int64(1)
			if widths[0] > 0 {
				tp = decodeBigEndian(row[:widths[0]])
			}
			a := decodeBigEndian(row[widths[0] : widths[0]+widths[1]])
			b := decodeBigEndian(row[widths[0]+widths[1] : rowWidth])

			num := sub[0] + i
			if _, seen := table[num]; seen {
				continue
			}
			switch tp {
			case 0:
				table[num] = &xrefEntry{Free: true, Generation: int(b)}
			case 1:
				table[num] = &xrefEntry{Offset: a, Generation: int(b)}
			case 2:
				table[num] = &xrefEntry{Compressed: true, InStream: int(a), IndexInStream: int(b)}
			}
		}
	}

	return dict, nil
}

func decodeBigEndian(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}
