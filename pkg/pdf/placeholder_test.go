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

package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"

	hashio "github.com/minchaudhary/digital-signature/pkg/hashing/engines/io"
	"github.com/minchaudhary/digital-signature/pkg/pdf/pdftest"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

func TestParse(t *testing.T) {
	data := pdftest.Build(pdftest.Options{Info: true})

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	tr := doc.Trailer()
	if tr.Size != 7 {
		t.Errorf("Size = %d, want 7", tr.Size)
	}
	if tr.Root != (Ref{Num: 1, Gen: 0}) {
		t.Errorf("Root = %v, want 1 0 R", tr.Root)
	}
	if string(tr.Info) != "6 0 R" {
		t.Errorf("Info = %q, want %q", tr.Info, "6 0 R")
	}
	if !bytes.HasPrefix(tr.ID, []byte("[<")) {
		t.Errorf("ID = %q, want an array", tr.ID)
	}
	if tr.XRefStream {
		t.Error("XRefStream = true for a classic xref table")
	}
	if got := doc.StartXref(); !bytes.HasPrefix(data[got:], []byte("xref")) {
		t.Errorf("StartXref() = %d does not point at xref", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("hello world")},
		{"no trailer", []byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj\n")},
		{"encrypted", []byte("%PDF-1.4\nxref\n0 1\n0000000000 65535 f \ntrailer\n<< /Size 1 /Root 1 0 R /Encrypt 2 0 R >>\nstartxref\n9\n%%EOF\n")},
		{"no root", []byte("%PDF-1.4\nxref\n0 1\n0000000000 65535 f \ntrailer\n<< /Size 1 >>\nstartxref\n9\n%%EOF\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !signerr.IsKind(err, signerr.KindInvalidDocument) {
				t.Errorf("Parse() error = %v, want InvalidDocument", err)
			}
		})
	}
}

func TestReserve_Layout(t *testing.T) {
	data := pdftest.Build(pdftest.Options{Info: true})
	signingTime := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	prepared, err := Reserve(data, 512, SignatureInfo{
		Name:        "Test Certificate",
		Reason:      "Test Signature",
		Location:    "Virtual Office",
		ContactInfo: "signer@example.com",
		SigningTime: signingTime,
	})
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	out := prepared.Data
	if !bytes.HasPrefix(out, data) {
		t.Fatal("Reserve() did not preserve the original bytes as a prefix")
	}

	ph := prepared.Placeholder
	if ph.Capacity != 512 || ph.Length != 2*512+2 {
		t.Errorf("Placeholder = %+v, want capacity 512 and length 1026", ph)
	}
	if out[ph.Offset] != '<' || out[ph.Offset+ph.Length-1] != '>' {
		t.Error("placeholder is not delimited by <>")
	}
	if strings.Trim(string(out[ph.Offset+1:ph.Offset+ph.Length-1]), "0") != "" {
		t.Error("placeholder is not zero filled")
	}

	want := []hashio.ByteRange{
		{Offset: 0, Length: ph.Offset},
		{Offset: ph.Offset + ph.Length, Length: int64(len(out)) - ph.Offset - ph.Length},
	}
	if len(prepared.ByteRanges) != 2 || prepared.ByteRanges[0] != want[0] || prepared.ByteRanges[1] != want[1] {
		t.Errorf("ByteRanges = %v, want %v", prepared.ByteRanges, want)
	}
	if prepared.FieldName != "Signature1" {
		t.Errorf("FieldName = %q, want Signature1", prepared.FieldName)
	}

	doc, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(prepared) error = %v", err)
	}
	tr := doc.Trailer()
	if tr.Size != 9 || tr.Root.Num != 1 || string(tr.Info) != "6 0 R" || tr.ID == nil {
		t.Errorf("updated trailer = %+v", tr)
	}
	if doc.StartXref() <= int64(len(data)) {
		t.Errorf("StartXref() = %d, want an offset in the update", doc.StartXref())
	}

	catalog, err := doc.Object(1)
	if err != nil {
		t.Fatalf("Object(1) error = %v", err)
	}
	form, ok := lookup(catalog.Body, "AcroForm")
	if !ok {
		t.Fatal("catalog has no /AcroForm")
	}
	fields, _ := lookup(form, "Fields")
	if string(fields) != "[8 0 R]" {
		t.Errorf("/Fields = %q, want [8 0 R]", fields)
	}
	flags, _ := lookup(form, "SigFlags")
	if string(flags) != "3" {
		t.Errorf("/SigFlags = %q, want 3", flags)
	}

	sigs := FindSignatures(out)
	if len(sigs) != 1 {
		t.Fatalf("FindSignatures() returned %d, want 1", len(sigs))
	}
	sig := sigs[0]
	if sig.Err != nil {
		t.Errorf("signature Err = %v", sig.Err)
	}
	if sig.Num != 7 || sig.FieldName != "Signature1" || sig.SubFilter != "adbe.pkcs7.detached" {
		t.Errorf("signature = %+v", sig)
	}
	if sig.Name != "Test Certificate" || sig.Reason != "Test Signature" ||
		sig.Location != "Virtual Office" || sig.ContactInfo != "signer@example.com" {
		t.Errorf("signature metadata = %q %q %q %q", sig.Name, sig.Reason, sig.Location, sig.ContactInfo)
	}
	if !sig.SigningTime.Equal(signingTime) {
		t.Errorf("SigningTime = %v, want %v", sig.SigningTime, signingTime)
	}
	if sig.ByteRanges[0] != want[0] || sig.ByteRanges[1] != want[1] {
		t.Errorf("/ByteRange = %v, want %v", sig.ByteRanges, want)
	}
	if sig.ContentsRange != ph.Range() {
		t.Errorf("ContentsRange = %v, want %v", sig.ContentsRange, ph.Range())
	}
	if !sig.CoversWholeDocument(int64(len(out))) {
		t.Error("CoversWholeDocument() = false")
	}
	if len(sig.Contents) != 512 {
		t.Errorf("len(Contents) = %d, want 512", len(sig.Contents))
	}
}

func TestReserve_ExistingAcroForm(t *testing.T) {
	tests := []struct {
		name       string
		opts       pdftest.Options
		formObject int
		wantFields string
	}{
		{
			name:       "inline form without fields",
			opts:       pdftest.Options{AcroForm: "<< /DA (/Helv 0 Tf 0 g) >>"},
			formObject: 1,
			wantFields: "[7 0 R]",
		},
		{
			name:       "inline form with fields",
			opts:       pdftest.Options{AcroForm: "<< /Fields [ ] /SigFlags 0 >>"},
			formObject: 1,
			wantFields: "[7 0 R]",
		},
		{
			name: "indirect form",
			opts: pdftest.Options{
				AcroForm: "6 0 R",
				Extra:    []string{"<< /Fields [] /DA (/Helv 0 Tf 0 g) >>"},
			},
			formObject: 6,
			wantFields: "[8 0 R]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepared, err := Reserve(pdftest.Build(tt.opts), 64, SignatureInfo{})
			if err != nil {
				t.Fatalf("Reserve() error = %v", err)
			}
			doc, err := Parse(prepared.Data)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			obj, err := doc.Object(tt.formObject)
			if err != nil {
				t.Fatalf("Object(%d) error = %v", tt.formObject, err)
			}
			form := obj.Body
			if tt.formObject == 1 {
				form, _ = lookup(obj.Body, "AcroForm")
			}
			fields, _ := lookup(form, "Fields")
			if string(fields) != tt.wantFields {
				t.Errorf("/Fields = %q, want %q", fields, tt.wantFields)
			}
			flags, _ := lookup(form, "SigFlags")
			if string(flags) != "3" {
				t.Errorf("/SigFlags = %q, want 3", flags)
			}
		})
	}
}

func TestReserve_InvalidInput(t *testing.T) {
	if _, err := Reserve([]byte("not a pdf"), 64, SignatureInfo{}); !signerr.IsKind(err, signerr.KindInvalidDocument) {
		t.Errorf("Reserve(non-pdf) error = %v, want InvalidDocument", err)
	}
	if _, err := Reserve(pdftest.Document(0), 0, SignatureInfo{}); !signerr.IsKind(err, signerr.KindConfiguration) {
		t.Errorf("Reserve(capacity 0) error = %v, want ConfigurationError", err)
	}
}

func TestFill(t *testing.T) {
	prepared, err := Reserve(pdftest.Document(0), 16, SignatureInfo{})
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	size := len(prepared.Data)

	container := []byte{0x30, 0x82, 0xde, 0xad, 0xbe, 0xef}
	if err := Fill(prepared.Data, prepared.Placeholder, container); err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if len(prepared.Data) != size {
		t.Errorf("Fill() changed the document length from %d to %d", size, len(prepared.Data))
	}

	ph := prepared.Placeholder
	got := string(prepared.Data[ph.Offset : ph.Offset+ph.Length])
	want := "<3082deadbeef" + strings.Repeat("0", 2*16-12) + ">"
	if got != want {
		t.Errorf("placeholder = %q, want %q", got, want)
	}

	sigs := FindSignatures(prepared.Data)
	if len(sigs) != 1 || !bytes.HasPrefix(sigs[0].Contents, container) {
		t.Errorf("FindSignatures() did not return the filled container")
	}
}

func TestFill_ContainerTooLarge(t *testing.T) {
	prepared, err := Reserve(pdftest.Document(0), 4, SignatureInfo{})
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	before := append([]byte(nil), prepared.Data...)

	err = Fill(prepared.Data, prepared.Placeholder, []byte{1, 2, 3, 4, 5})
	if !signerr.IsKind(err, signerr.KindContainerTooLarge) {
		t.Fatalf("Fill() error = %v, want ContainerTooLarge", err)
	}
	if !bytes.Equal(before, prepared.Data) {
		t.Error("Fill() modified the document on failure")
	}
}

func TestFill_BadPlaceholder(t *testing.T) {
	data := pdftest.Document(0)
	err := Fill(data, Placeholder{Offset: int64(len(data)), Length: 10, Capacity: 4}, []byte{1})
	if !signerr.IsKind(err, signerr.KindInvalidDocument) {
		t.Errorf("Fill() error = %v, want InvalidDocument", err)
	}
}

func TestFindSignatures_Unsigned(t *testing.T) {
	if sigs := FindSignatures(pdftest.Document(2048)); len(sigs) != 0 {
		t.Errorf("FindSignatures() = %d signatures, want 0", len(sigs))
	}
	if sigs := FindSignatures([]byte("plain text /ByteRange [")); len(sigs) != 0 {
		t.Errorf("FindSignatures(garbage) = %d signatures, want 0", len(sigs))
	}
	if HasSignatures(nil) {
		t.Error("HasSignatures(nil) = true")
	}
}

func TestFindSignatures_MalformedContents(t *testing.T) {
	doc := pdftest.Build(pdftest.Options{
		Extra: []string{"<< /Type /Sig /ByteRange [0 10 20 30] /Contents (not hex) >>"},
	})
	sigs := FindSignatures(doc)
	if len(sigs) != 1 {
		t.Fatalf("FindSignatures() = %d signatures, want 1", len(sigs))
	}
	if sigs[0].Err == nil {
		t.Error("Err = nil for a literal /Contents")
	}
	if sigs[0].CoversWholeDocument(int64(len(doc))) {
		t.Error("CoversWholeDocument() = true for arbitrary ranges")
	}
}
