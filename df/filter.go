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
	"io"
)

// DecodeStream applies stream's filter chain and returns the decoded
// bytes, for callers that hold a *Stream obtained some way other than
// Document.Contents (e.g. a resolved XObject).
func DecodeStream(stream *Stream) ([]byte, error) {
	return decodeStream(stream)
}

// decodeStream applies the filter chain named in stream.Dict["Filter"] and
// returns the decoded bytes. /FlateDecode is the only filter implemented;
// an unrecognized filter name is a decode error rather than a silent
// pass-through, since a caller that asked for decoded bytes should not
// receive still-encoded ones without knowing it.
func decodeStream(stream *Stream) ([]byte, error) {
	names, err := filterNames(stream.Dict)
	if err != nil {
		return nil, err
	}
	data := stream.Bytes
	for _, name := range names {
		switch name {
		case "FlateDecode", "Fl":
			data, err = inflate(data)
			if err != nil {
				return nil, err
			}
		default:
			return nil, newError(DecodeErr, -1, "unsupported filter %q", name)
		}
	}
	return data, nil
}

func filterNames(dict Dict) ([]Name, error) {
	switch f := dict["Filter"].(type) {
	case nil:
		return nil, nil
	case Name:
		return []Name{f}, nil
	case Array:
		names := make([]Name, 0, len(f))
		for _, v := range f {
			n, ok := v.(Name)
			if !ok {
				return nil, newError(DecodeErr, -1, "/Filter array must contain names")
			}
			names = append(names, n)
		}
		return names, nil
	default:
		return nil, newError(DecodeErr, -1, "/Filter must be a name or array of names")
	}
}

// inflate decompresses zlib-wrapped Flate data. The output buffer starts
// at 4x the input size, a heuristic for typical content-stream
// compression ratios, and grows on demand via io.Copy's internal buffer
// management.
func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, newError(DecodeErr, -1, "zlib: %v", err)
	}
	defer r.Close()

	out := bytes.NewBuffer(make([]byte, 0, 4*len(data)))
	if _, err := io.Copy(out, r); err != nil {
		return nil, newError(DecodeErr, -1, "flate decode: %v", err)
	}
	return out.Bytes(), nil
}
