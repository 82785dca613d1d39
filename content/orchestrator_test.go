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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ashgrove/docexec/page"
)

// buildSinglePageDocument writes a minimal one-page document with a
// classic cross-reference table and the given raw content stream, using
// computed offsets rather than hard-coded ones.
func buildSinglePageDocument(t *testing.T, content string) string {
	t.Helper()
	var buf bytes.Buffer
	offsets := make(map[int]int)

	buf.WriteString("%PDF-1.4\n")

	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /Resources << >> /MediaBox [0 0 200 200] /Contents 4 0 R >>\nendobj\n")

	offsets[4] = buf.Len()
	fmt.Fprintf(&buf, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content)

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 5\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offsets[i], 0)
	}
	buf.WriteString("trailer\n<< /Size 5 /Root 1 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOffset)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOrchestratorProcessFileDrawsPath(t *testing.T) {
	content := "1 0 0 1 0 0 cm\n0 0 1 rg\n10 10 50 50 re\nf\n"
	path := buildSinglePageDocument(t, content)

	var events []page.Event
	o := NewOrchestrator()
	o.Sink = func(ev page.Event) { events = append(events, ev) }

	if err := o.ProcessFile(path); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %#v", len(events), events)
	}
	fill, ok := events[0].(page.FillEvent)
	if !ok {
		t.Fatalf("events[0] = %T, want page.FillEvent", events[0])
	}
	if fill.Color != (page.RGB{R: 0, G: 0, B: 1}) {
		t.Errorf("fill color = %v, want blue", fill.Color)
	}
}

func TestOrchestratorProcessFileEmitsTextEvent(t *testing.T) {
	content := "BT /F1 12 Tf 0 0 Td (Hello) Tj ET\n"
	path := buildSinglePageDocument(t, content)

	var events []page.Event
	o := NewOrchestrator()
	o.Sink = func(ev page.Event) { events = append(events, ev) }

	if err := o.ProcessFile(path); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %#v", len(events), events)
	}
	text, ok := events[0].(page.TextEvent)
	if !ok {
		t.Fatalf("events[0] = %T, want page.TextEvent", events[0])
	}
	if text.Text != "Hello" {
		t.Errorf("text = %q, want %q", text.Text, "Hello")
	}
}

// buildFormXObjectDocument writes a one-page document whose page resources
// name a single /Subtype /Form XObject, and whose page content stream
// invokes it via "/Fx1 Do".
func buildFormXObjectDocument(t *testing.T, pageContent, formContent string) string {
	t.Helper()
	var buf bytes.Buffer
	offsets := make(map[int]int)

	buf.WriteString("%PDF-1.4\n")

	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /Resources << /XObject << /Fx1 5 0 R >> >> /MediaBox [0 0 200 200] /Contents 4 0 R >>\nendobj\n")

	offsets[4] = buf.Len()
	fmt.Fprintf(&buf, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(pageContent), pageContent)

	offsets[5] = buf.Len()
	fmt.Fprintf(&buf, "5 0 obj\n<< /Type /XObject /Subtype /Form /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(formContent), formContent)

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 6\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offsets[i], 0)
	}
	buf.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOffset)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOrchestratorProcessFileExecutesFormXObject(t *testing.T) {
	pageContent := "/Fx1 Do\n"
	formContent := "0 1 0 rg\n10 10 20 20 re\nf\n"
	path := buildFormXObjectDocument(t, pageContent, formContent)

	var events []page.Event
	o := NewOrchestrator()
	o.Sink = func(ev page.Event) { events = append(events, ev) }

	if err := o.ProcessFile(path); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %#v", len(events), events)
	}
	fill, ok := events[0].(page.FillEvent)
	if !ok {
		t.Fatalf("events[0] = %T, want page.FillEvent", events[0])
	}
	if fill.Color != (page.RGB{R: 0, G: 1, B: 0}) {
		t.Errorf("fill color = %v, want green", fill.Color)
	}
}

func TestOrchestratorProcessFileIgnoresUnresolvableXObject(t *testing.T) {
	content := "/Missing Do\n0 0 1 rg\n10 10 20 20 re\nf\n"
	path := buildSinglePageDocument(t, content)

	var events []page.Event
	o := NewOrchestrator()
	o.Sink = func(ev page.Event) { events = append(events, ev) }

	if err := o.ProcessFile(path); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %#v", len(events), events)
	}
}

func TestOrchestratorProcessFileEmitsShadingEvent(t *testing.T) {
	content := "/Sh1 sh\n"
	path := buildSinglePageDocument(t, content)

	var events []page.Event
	o := NewOrchestrator()
	o.Sink = func(ev page.Event) { events = append(events, ev) }

	if err := o.ProcessFile(path); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %#v", len(events), events)
	}
	shading, ok := events[0].(page.ShadingEvent)
	if !ok {
		t.Fatalf("events[0] = %T, want page.ShadingEvent", events[0])
	}
	if shading.Name != "Sh1" {
		t.Errorf("shading name = %q, want %q", shading.Name, "Sh1")
	}
}

func TestOrchestratorProcessFileEmitsInlineImageEvent(t *testing.T) {
	content := "0 0 m\nBI /W 1 /H 1 /L 3 ID \x00\x01\x02 EI\n1 1 l\n"
	path := buildSinglePageDocument(t, content)

	var events []page.Event
	o := NewOrchestrator()
	o.Sink = func(ev page.Event) { events = append(events, ev) }

	if err := o.ProcessFile(path); err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %#v", len(events), events)
	}
	if _, ok := events[0].(page.InlineImageEvent); !ok {
		t.Fatalf("events[0] = %T, want page.InlineImageEvent", events[0])
	}
}

func TestReplaceInlineImagesUsesExplicitLength(t *testing.T) {
	src := []byte("0 0 m BI /W 1 /H 1 /L 3 ID \x00\x01\x02 EI 1 1 l")
	got := string(replaceInlineImages(src))
	want := "0 0 m  inlineimage  1 1 l"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReplaceInlineImagesFallsBackToEIScan(t *testing.T) {
	src := []byte("0 0 m BI /W 1 /H 1 ID \x00\x01\x02 EI 1 1 l")
	got := string(replaceInlineImages(src))
	want := "0 0 m  inlineimage  1 1 l"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
