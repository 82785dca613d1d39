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

// Page is a leaf /Type /Page node, with the inheritable attributes
// (/Resources, /MediaBox) resolved down from its ancestor /Pages nodes
// when the leaf itself does not override them.
type Page struct {
	Ref       Reference
	Dict      Dict
	Resources Dict
	MediaBox  Array
}

// Pages walks the document's page tree, starting from the Catalog's
// /Pages root, and returns every /Type /Page leaf in document order. A
// node revisited through a cyclic /Kids reference is skipped rather than
// followed again, so a malformed tree cannot loop forever.
func (doc *Document) Pages() ([]*Page, error) {
	catalog, ok := doc.Resolve(doc.Trailer["Root"]).(Dict)
	if !ok {
		return nil, newError(StructuralErr, -1, "trailer /Root is not a dictionary")
	}
	rootRef, ok := catalog["Pages"].(Reference)
	if !ok {
		return nil, newError(StructuralErr, -1, "catalog has no /Pages reference")
	}

	var pages []*Page
	seen := map[Reference]bool{}
	err := doc.walkPageTree(rootRef, Dict{}, nil, seen, &pages)
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func (doc *Document) walkPageTree(ref Reference, inheritedResources Dict, inheritedMediaBox Array, seen map[Reference]bool, out *[]*Page) error {
	if seen[ref] {
		return nil
	}
	seen[ref] = true

	node, ok := doc.Resolve(ref).(Dict)
	if !ok {
		return newError(StructuralErr, -1, "page tree node %v is not a dictionary", ref)
	}

	resources := inheritedResources
	if r, ok := doc.Resolve(node["Resources"]).(Dict); ok {
		resources = r
	}
	mediaBox := inheritedMediaBox
	if mb, ok := doc.Resolve(node["MediaBox"]).(Array); ok {
		mediaBox = mb
	}

	switch node["Type"] {
	case Name("Page"):
		*out = append(*out, &Page{Ref: ref, Dict: node, Resources: resources, MediaBox: mediaBox})
		return nil
	case Name("Pages"):
		kids, ok := doc.Resolve(node["Kids"]).(Array)
		if !ok {
			return newError(StructuralErr, -1, "pages node %v has no /Kids array", ref)
		}
		for _, kid := range kids {
			kidRef, ok := kid.(Reference)
			if !ok {
				continue
			}
			if err := doc.walkPageTree(kidRef, resources, mediaBox, seen, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return newError(StructuralErr, -1, "page tree node %v has unexpected /Type %v", ref, node["Type"])
	}
}

// Contents returns the decoded content-stream bytes for a page, following
// /Contents whether it names a single stream or an array of streams (the
// latter's bodies are concatenated with an intervening newline, matching
// how a reader consuming the content language must treat them: as one
// logical token stream).
func (doc *Document) Contents(page *Page) ([]byte, error) {
	switch c := doc.Resolve(page.Dict["Contents"]).(type) {
	case *Stream:
		return decodeStream(c)
	case Array:
		var out []byte
		for i, item := range c {
			stream, ok := doc.Resolve(item).(*Stream)
			if !ok {
				return nil, newError(StructuralErr, -1, "content array element %d is not a stream", i)
			}
			decoded, err := decodeStream(stream)
			if err != nil {
				return nil, err
			}
			if i > 0 {
				out = append(out, '\n')
			}
			out = append(out, decoded...)
		}
		return out, nil
	default:
		return nil, newError(StructuralErr, -1, "page has no usable /Contents")
	}
}
