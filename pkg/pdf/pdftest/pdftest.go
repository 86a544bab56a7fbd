// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pdftest builds small well-formed PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// Options controls the generated document.
type Options struct {
	// MinSize pads the page content stream until the file is at least this long.
	MinSize int
	// AcroForm is written verbatim as the catalog's /AcroForm value when set.
	AcroForm string
	// Extra objects appended after the fixed ones, numbered from 6.
	Extra []string
	// Info adds an /Info dictionary and a trailer /ID.
	Info bool
}

// Document returns a one-page PDF of at least minSize bytes.
func Document(minSize int) []byte {
	return Build(Options{MinSize: minSize})
}

// Build returns a one-page PDF with a classic cross-reference table.
func Build(opts Options) []byte {
	catalog := "<< /Type /Catalog /Pages 2 0 R"
	if opts.AcroForm != "" {
		catalog += " /AcroForm " + opts.AcroForm
	}
	catalog += " >>"

	objects := []string{
		catalog,
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		"", // content stream, filled below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	objects = append(objects, opts.Extra...)
	if opts.Info {
		objects = append(objects, "<< /Title (Sample Document) /Producer (pdftest) >>")
	}

	render := func(content []byte) []byte {
		objects[3] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)

		var b bytes.Buffer
		b.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
		offsets := make([]int, len(objects))
		for i, o := range objects {
			offsets[i] = b.Len()
			fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
		}
		xref := b.Len()
		fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
		for _, off := range offsets {
			fmt.Fprintf(&b, "%010d 00000 n \n", off)
		}
		fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R", len(objects)+1)
		if opts.Info {
			fmt.Fprintf(&b, " /Info %d 0 R /ID [<0123456789ABCDEF0123456789ABCDEF> <0123456789ABCDEF0123456789ABCDEF>]", len(objects))
		}
		fmt.Fprintf(&b, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
		return b.Bytes()
	}

	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf 72 720 Td (Hello, signed world) Tj ET")
	out := render(content.Bytes())
	for line := 1; len(out) < opts.MinSize; line++ {
		fmt.Fprintf(&content, "\nBT /F1 8 Tf 72 %d Td (Line %04d of the sample document body) Tj ET", 700-(line%80)*8, line)
		out = render(content.Bytes())
	}
	return out
}
