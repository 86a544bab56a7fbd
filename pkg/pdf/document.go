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

// Package pdf implements the parts of the PDF file structure needed to
// embed and locate detached signatures.
//
// It reads the trailer and the objects a signature update touches,
// appends incremental updates, and enumerates signature dictionaries. It
// does not model page trees, content streams or compressed object streams.
package pdf

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

var objHeaderRe = regexp.MustCompile(`(\d+)\s+(\d+)\s+obj\b`)

// headerSearchWindow bounds how far into the file the %PDF- marker may appear.
const headerSearchWindow = 1024

// Object is an indirect object located in the file.
type Object struct {
	Ref
	// Offset of the "N G obj" header.
	Offset int
	// Body is the raw object value following the header.
	Body []byte
}

// Trailer holds the trailer entries carried into an incremental update.
type Trailer struct {
	Size int
	Root Ref
	// Info and ID are raw values copied verbatim, nil when absent.
	Info []byte
	ID   []byte
	// XRefStream is set when the last section is a cross-reference stream.
	XRefStream bool
}

// Document is a parsed view over the bytes of a PDF file.
type Document struct {
	data      []byte
	startXref int64
	trailer   Trailer
	headers   map[int]objHeader
}

type objHeader struct {
	ref    Ref
	offset int
	end    int
}

// Parse reads the trailer of data. Problems are reported as
// signerr.KindInvalidDocument.
func Parse(data []byte) (*Document, error) {
	window := data
	if len(window) > headerSearchWindow {
		window = window[:headerSearchWindow]
	}
	if !bytes.Contains(window, []byte("%PDF-")) {
		return nil, signerr.New(signerr.KindInvalidDocument, "missing %PDF- header")
	}

	d := &Document{data: data}
	d.indexObjects()

	dict, startXref, xrefStream, err := d.findTrailer()
	if err != nil {
		return nil, signerr.Wrap(signerr.KindInvalidDocument, "reading trailer", err)
	}
	d.startXref = startXref

	if _, ok := lookup(dict, "Encrypt"); ok {
		return nil, signerr.New(signerr.KindInvalidDocument, "encrypted documents are not supported")
	}

	sizeVal, ok := lookup(dict, "Size")
	size, okInt := parseInt(sizeVal)
	if !ok || !okInt || size <= 0 {
		return nil, signerr.New(signerr.KindInvalidDocument, "trailer has no valid /Size")
	}
	rootVal, ok := lookup(dict, "Root")
	root, okRef := parseRef(rootVal)
	if !ok || !okRef {
		return nil, signerr.New(signerr.KindInvalidDocument, "trailer has no valid /Root")
	}

	d.trailer = Trailer{Size: int(size), Root: root, XRefStream: xrefStream}
	if info, ok := lookup(dict, "Info"); ok {
		d.trailer.Info = info
	}
	if id, ok := lookup(dict, "ID"); ok {
		d.trailer.ID = id
	}
	return d, nil
}

// Data returns the underlying bytes.
func (d *Document) Data() []byte {
	return d.data
}

// Trailer returns the parsed trailer.
func (d *Document) Trailer() Trailer {
	return d.trailer
}

// StartXref returns the offset of the last cross-reference section.
func (d *Document) StartXref() int64 {
	return d.startXref
}

// Object returns the last definition of object num in the file.
func (d *Document) Object(num int) (*Object, error) {
	h, ok := d.headers[num]
	if !ok {
		return nil, signerr.Newf(signerr.KindInvalidDocument,
			"object %d not found (objects inside compressed object streams are not supported)", num)
	}
	start := skipSpace(d.data, h.end)
	end, err := valueEnd(d.data, start)
	if err != nil {
		return nil, signerr.Wrap(signerr.KindInvalidDocument, fmt.Sprintf("parsing object %d", num), err)
	}
	return &Object{Ref: h.ref, Offset: h.offset, Body: d.data[start:end]}, nil
}

// Resolve follows v if it is an indirect reference.
func (d *Document) Resolve(v []byte) ([]byte, error) {
	ref, ok := parseRef(v)
	if !ok {
		return v, nil
	}
	obj, err := d.Object(ref.Num)
	if err != nil {
		return nil, err
	}
	return obj.Body, nil
}

// indexObjects records the last header of every object number. Later
// definitions win, which is how incremental updates replace objects.
func (d *Document) indexObjects() {
	d.headers = make(map[int]objHeader)
	for _, h := range allHeaders(d.data) {
		d.headers[h.ref.Num] = h
	}
}

// findTrailer locates the trailer dictionary of the last cross-reference
// section, falling back to the last "trailer" keyword when startxref is
// missing or wrong.
func (d *Document) findTrailer() ([]byte, int64, bool, error) {
	data := d.data
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx >= 0 {
		i := skipSpace(data, idx+len("startxref"))
		j := tokenEnd(data, i)
		if off, ok := parseInt(data[i:j]); ok && off >= 0 && off < int64(len(data)) {
			if dict, isStream, err := d.trailerAt(int(off)); err == nil {
				return dict, off, isStream, nil
			}
		}
	}

	t := bytes.LastIndex(data, []byte("trailer"))
	if t < 0 {
		return nil, 0, false, fmt.Errorf("no trailer found")
	}
	dict, err := dictAt(data, t+len("trailer"))
	if err != nil {
		return nil, 0, false, err
	}
	var off int64
	if x := bytes.LastIndex(data[:t], []byte("xref")); x >= 0 {
		off = int64(x)
	}
	return dict, off, false, nil
}

func (d *Document) trailerAt(off int) ([]byte, bool, error) {
	data := d.data
	if bytes.HasPrefix(data[off:], []byte("xref")) {
		t := bytes.Index(data[off:], []byte("trailer"))
		if t < 0 {
			return nil, false, fmt.Errorf("xref section at %d has no trailer", off)
		}
		dict, err := dictAt(data, off+t+len("trailer"))
		return dict, false, err
	}

	loc := objHeaderRe.FindIndex(data[off:])
	if loc == nil || loc[0] != 0 {
		return nil, false, fmt.Errorf("no cross-reference section at %d", off)
	}
	dict, err := dictAt(data, off+loc[1])
	if err != nil {
		return nil, false, err
	}
	if typ, ok := lookup(dict, "Type"); !ok || string(bytes.TrimSpace(typ)) != "/XRef" {
		return nil, false, fmt.Errorf("object at %d is not a cross-reference stream", off)
	}
	return dict, true, nil
}

func dictAt(data []byte, i int) ([]byte, error) {
	start := skipSpace(data, i)
	end, err := dictEnd(data, start)
	if err != nil {
		return nil, err
	}
	return data[start:end], nil
}
