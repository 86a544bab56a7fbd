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
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	hashio "github.com/minchaudhary/digital-signature/pkg/hashing/engines/io"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

const (
	// DefaultFieldName prefixes generated signature field names.
	DefaultFieldName = "Signature"

	byteRangeWidth = 10
	// sigFlags marks the document as SignaturesExist|AppendOnly.
	sigFlags = "3"
	// widgetFlags is Print|Locked.
	widgetFlags = "132"
)

var byteRangeTemplate = fmt.Sprintf("[%0*d %0*d %0*d %0*d]",
	byteRangeWidth, 0, byteRangeWidth, 0, byteRangeWidth, 0, byteRangeWidth, 0)

// SignatureInfo is the descriptive metadata written into the signature dictionary.
type SignatureInfo struct {
	// FieldName is the signature field name. Empty selects "SignatureN".
	FieldName   string
	Name        string
	Reason      string
	Location    string
	ContactInfo string
	// SigningTime is written as /M. Zero omits the entry.
	SigningTime time.Time
}

// Placeholder is the reserved /Contents hex string of a signature dictionary.
type Placeholder struct {
	// Offset of the opening '<'.
	Offset int64
	// Length of the hex string including both delimiters.
	Length int64
	// Capacity is the number of container bytes that fit.
	Capacity int
}

// Range returns the span of the placeholder.
func (p Placeholder) Range() hashio.ByteRange {
	return hashio.ByteRange{Offset: p.Offset, Length: p.Length}
}

// Prepared is a document with a reserved, unfilled signature placeholder.
type Prepared struct {
	// Data is the updated document. The input document is a prefix of it.
	Data []byte
	// Placeholder locates the reserved container space.
	Placeholder Placeholder
	// ByteRanges cover everything except the placeholder. They are also
	// written into the /ByteRange entry.
	ByteRanges []hashio.ByteRange
	// FieldName is the name given to the new signature field.
	FieldName string
}

type pendingObject struct {
	ref  Ref
	body []byte
}

// Reserve appends an incremental update to data that adds a signature
// field whose /Contents holds capacity bytes of filler.
func Reserve(data []byte, capacity int, info SignatureInfo) (*Prepared, error) {
	if capacity <= 0 {
		return nil, signerr.Newf(signerr.KindConfiguration, "placeholder capacity must be positive, got %d", capacity)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	trailer := doc.Trailer()

	fieldName := info.FieldName
	if fieldName == "" {
		fieldName = fmt.Sprintf("%s%d", DefaultFieldName, len(FindSignatures(data))+1)
	}

	sigRef := Ref{Num: trailer.Size}
	fieldRef := Ref{Num: trailer.Size + 1}

	updated, err := addFieldToCatalog(doc, fieldRef)
	if err != nil {
		return nil, err
	}

	sigBody, contentsAt, byteRangeAt := signatureDictionary(capacity, info)
	widget := fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Sig /T %s /V %s /F %s /Rect [0 0 0 0] >>",
		EncodeTextString(fieldName), sigRef, widgetFlags)

	objects := append(updated,
		pendingObject{ref: sigRef, body: sigBody},
		pendingObject{ref: fieldRef, body: []byte(widget)},
	)

	out := make([]byte, 0, len(data)+len(sigBody)+4096)
	out = append(out, data...)
	if n := len(out); n > 0 && out[n-1] != '\n' && out[n-1] != '\r' {
		out = append(out, '\n')
	}

	type xrefEntry struct {
		ref    Ref
		offset int
	}
	var xref []xrefEntry
	var sigBodyAt int
	for _, o := range objects {
		xref = append(xref, xrefEntry{ref: o.ref, offset: len(out)})
		out = append(out, fmt.Sprintf("%d %d obj\n", o.ref.Num, o.ref.Gen)...)
		if o.ref == sigRef {
			sigBodyAt = len(out)
		}
		out = append(out, o.body...)
		out = append(out, "\nendobj\n"...)
	}

	sort.Slice(xref, func(i, j int) bool { return xref[i].ref.Num < xref[j].ref.Num })
	xrefAt := len(out)
	out = append(out, "xref\n"...)
	for _, e := range xref {
		out = append(out, fmt.Sprintf("%d 1\n%010d %05d n \n", e.ref.Num, e.offset, e.ref.Gen)...)
	}

	size := trailer.Size + 2
	out = append(out, fmt.Sprintf("trailer\n<< /Size %d /Root %s /Prev %d", size, trailer.Root, doc.StartXref())...)
	if trailer.Info != nil {
		out = append(out, " /Info "...)
		out = append(out, trailer.Info...)
	}
	if trailer.ID != nil {
		out = append(out, " /ID "...)
		out = append(out, trailer.ID...)
	}
	out = append(out, fmt.Sprintf(" >>\nstartxref\n%d\n%%%%EOF\n", xrefAt)...)

	contentsStart := int64(sigBodyAt + contentsAt)
	contentsEnd := contentsStart + int64(2*capacity+2)
	total := int64(len(out))
	ranges := []hashio.ByteRange{
		{Offset: 0, Length: contentsStart},
		{Offset: contentsEnd, Length: total - contentsEnd},
	}

	patched := fmt.Sprintf("[%0*d %0*d %0*d %0*d]",
		byteRangeWidth, ranges[0].Offset, byteRangeWidth, ranges[0].Length,
		byteRangeWidth, ranges[1].Offset, byteRangeWidth, ranges[1].Length)
	if len(patched) != len(byteRangeTemplate) {
		return nil, signerr.New(signerr.KindInvalidDocument, "document too large for /ByteRange layout")
	}
	copy(out[sigBodyAt+byteRangeAt:], patched)

	return &Prepared{
		Data: out,
		Placeholder: Placeholder{
			Offset:   contentsStart,
			Length:   contentsEnd - contentsStart,
			Capacity: capacity,
		},
		ByteRanges: ranges,
		FieldName:  fieldName,
	}, nil
}

// signatureDictionary renders the signature dictionary and returns the
// offsets of the /Contents '<' and of the /ByteRange array within it.
func signatureDictionary(capacity int, info SignatureInfo) ([]byte, int, int) {
	var b bytes.Buffer
	b.WriteString("<<\n/Type /Sig\n/Filter /Adobe.PPKLite\n/SubFilter /adbe.pkcs7.detached\n/ByteRange ")
	byteRangeAt := b.Len()
	b.WriteString(byteRangeTemplate)
	b.WriteString("\n/Contents ")
	contentsAt := b.Len()
	b.WriteByte('<')
	b.Write(bytes.Repeat([]byte{'0'}, 2*capacity))
	b.WriteString(">\n")

	if !info.SigningTime.IsZero() {
		fmt.Fprintf(&b, "/M %s\n", EncodeTextString(FormatDate(info.SigningTime)))
	}
	for _, kv := range []struct{ key, value string }{
		{"Name", info.Name},
		{"Reason", info.Reason},
		{"Location", info.Location},
		{"ContactInfo", info.ContactInfo},
	} {
		if kv.value != "" {
			fmt.Fprintf(&b, "/%s %s\n", kv.key, EncodeTextString(kv.value))
		}
	}
	b.WriteString(">>")
	return b.Bytes(), contentsAt, byteRangeAt
}

// addFieldToCatalog returns the rewritten objects that register field in
// the document's interactive form.
func addFieldToCatalog(doc *Document, field Ref) ([]pendingObject, error) {
	catalog, err := doc.Object(doc.Trailer().Root.Num)
	if err != nil {
		return nil, err
	}
	if _, err := dictEntries(catalog.Body); err != nil {
		return nil, signerr.Wrap(signerr.KindInvalidDocument, "catalog is not a dictionary", err)
	}

	acroVal, hasAcro := lookup(catalog.Body, "AcroForm")
	if !hasAcro {
		body, err := setKey(catalog.Body, "AcroForm",
			fmt.Sprintf("<< /Fields [%s] /SigFlags %s >>", field, sigFlags))
		if err != nil {
			return nil, signerr.Wrap(signerr.KindInvalidDocument, "updating catalog", err)
		}
		return []pendingObject{{ref: catalog.Ref, body: body}}, nil
	}

	if acroRef, ok := parseRef(acroVal); ok {
		acro, err := doc.Object(acroRef.Num)
		if err != nil {
			return nil, err
		}
		body, extra, err := addFieldToForm(doc, acro.Body, field)
		if err != nil {
			return nil, err
		}
		return append(extra, pendingObject{ref: acro.Ref, body: body}), nil
	}

	form, extra, err := addFieldToForm(doc, acroVal, field)
	if err != nil {
		return nil, err
	}
	body, err := setKey(catalog.Body, "AcroForm", string(form))
	if err != nil {
		return nil, signerr.Wrap(signerr.KindInvalidDocument, "updating catalog", err)
	}
	return append(extra, pendingObject{ref: catalog.Ref, body: body}), nil
}

// addFieldToForm appends field to the /Fields of the AcroForm dictionary
// form and sets /SigFlags. An indirect /Fields array is rewritten as an
// extra object.
func addFieldToForm(doc *Document, form []byte, field Ref) ([]byte, []pendingObject, error) {
	var extra []pendingObject
	fieldsVal, ok := lookup(form, "Fields")
	switch {
	case !ok:
		var err error
		form, err = setKey(form, "Fields", fmt.Sprintf("[%s]", field))
		if err != nil {
			return nil, nil, signerr.Wrap(signerr.KindInvalidDocument, "updating AcroForm", err)
		}
	default:
		if ref, isRef := parseRef(fieldsVal); isRef {
			arr, err := doc.Object(ref.Num)
			if err != nil {
				return nil, nil, err
			}
			updated, err := appendToArray(arr.Body, field.String())
			if err != nil {
				return nil, nil, signerr.Wrap(signerr.KindInvalidDocument, "updating /Fields", err)
			}
			extra = append(extra, pendingObject{ref: arr.Ref, body: updated})
			break
		}
		updated, err := appendToArray(fieldsVal, field.String())
		if err != nil {
			return nil, nil, signerr.Wrap(signerr.KindInvalidDocument, "updating /Fields", err)
		}
		form, err = setKey(form, "Fields", string(updated))
		if err != nil {
			return nil, nil, signerr.Wrap(signerr.KindInvalidDocument, "updating AcroForm", err)
		}
	}

	form, err := setKey(form, "SigFlags", sigFlags)
	if err != nil {
		return nil, nil, signerr.Wrap(signerr.KindInvalidDocument, "updating AcroForm", err)
	}
	return form, extra, nil
}

// Fill writes container into the placeholder of data in place, padding
// the remainder with '0' digits so the document length is unchanged.
func Fill(data []byte, ph Placeholder, container []byte) error {
	if len(container) > ph.Capacity {
		return signerr.Newf(signerr.KindContainerTooLarge,
			"signature container is %d bytes but the placeholder holds %d; retry with a larger reservation",
			len(container), ph.Capacity)
	}
	end := ph.Offset + ph.Length
	if ph.Offset < 0 || end > int64(len(data)) || ph.Length != int64(2*ph.Capacity+2) {
		return signerr.New(signerr.KindInvalidDocument, "placeholder lies outside the document")
	}
	if data[ph.Offset] != '<' || data[end-1] != '>' {
		return signerr.New(signerr.KindInvalidDocument, "placeholder is not a hex string")
	}

	digits := data[ph.Offset+1 : end-1]
	n := hex.Encode(digits, container)
	for i := n; i < len(digits); i++ {
		digits[i] = '0'
	}
	return nil
}
