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
	"compress/zlib"
	"testing"
)

func flateCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeStreamFlate(t *testing.T) {
	original := []byte("1 0 0 1 0 0 cm 0 0 100 100 re f")
	stream := &Stream{
		Dict:  Dict{"Filter": Name("FlateDecode")},
		Bytes: flateCompress(t, original),
	}
	got, err := decodeStream(stream)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("got %q, want %q", got, original)
	}
}

func TestDecodeStreamFilterArray(t *testing.T) {
	original := []byte("hello world")
	stream := &Stream{
		Dict:  Dict{"Filter": Array{Name("FlateDecode")}},
		Bytes: flateCompress(t, original),
	}
	got, err := decodeStream(stream)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("got %q, want %q", got, original)
	}
}

func TestDecodeStreamNoFilterPassesThrough(t *testing.T) {
	stream := &Stream{Dict: Dict{}, Bytes: []byte("raw")}
	got, err := decodeStream(stream)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "raw" {
		t.Errorf("got %q, want %q", got, "raw")
	}
}

func TestDecodeStreamUnsupportedFilter(t *testing.T) {
	stream := &Stream{Dict: Dict{"Filter": Name("DCTDecode")}, Bytes: []byte{0}}
	_, err := decodeStream(stream)
	if err == nil {
		t.Fatal("expected an error for an unsupported filter")
	}
}
