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
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	hashio "github.com/minchaudhary/digital-signature/pkg/hashing/engines/io"
)

var byteRangeRe = regexp.MustCompile(`/ByteRange\s*\[`)

// SignatureField is a signature dictionary found in a document.
type SignatureField struct {
	Ref
	// FieldName is the /T of the field whose /V points here, if any.
	FieldName   string
	SubFilter   string
	Name        string
	Reason      string
	Location    string
	ContactInfo string
	// SigningTime is /M, zero when absent or unparsable.
	SigningTime time.Time
	ByteRanges  []hashio.ByteRange
	// Contents is the decoded /Contents, including trailing zero padding.
	Contents []byte
	// ContentsRange is the span of the /Contents hex string, delimiters included.
	ContentsRange hashio.ByteRange
	// Err is set when the dictionary could not be read completely.
	Err error
}

// CoversWholeDocument reports whether the byte ranges start at zero, end
// at size and leave out exactly the /Contents string.
func (f *SignatureField) CoversWholeDocument(size int64) bool {
	if len(f.ByteRanges) != 2 {
		return false
	}
	first, second := f.ByteRanges[0], f.ByteRanges[1]
	return first.Offset == 0 &&
		first.End() == f.ContentsRange.Offset &&
		second.Offset == f.ContentsRange.End() &&
		second.End() == size
}

// HasSignatures reports whether data contains any signature dictionary.
func HasSignatures(data []byte) bool {
	return len(FindSignatures(data)) > 0
}

// FindSignatures enumerates the signature dictionaries of data in file
// order. Input that is not a PDF, or carries no signature, yields nil.
// A dictionary that cannot be fully read is still returned with Err set.
func FindSignatures(data []byte) []SignatureField {
	doc := &Document{data: data}
	doc.indexObjects()
	names := fieldNames(doc)

	matches := byteRangeRe.FindAllIndex(data, -1)
	if len(matches) == 0 && len(names) == 0 {
		return nil
	}
	headers := allHeaders(data)

	type located struct {
		pos   int
		field SignatureField
	}
	var found []located
	seen := make(map[int]int)
	add := func(pos int, field SignatureField) {
		if i, dup := seen[field.Num]; dup && field.Num > 0 {
			found[i] = located{pos: pos, field: field}
			return
		}
		if field.Num > 0 {
			seen[field.Num] = len(found)
		}
		found = append(found, located{pos: pos, field: field})
	}

	for _, m := range matches {
		h, ok := enclosingHeader(headers, m[0])
		if !ok {
			add(m[0], damagedField(data, m, errors.New("no object header before /ByteRange")))
			continue
		}
		start := skipSpace(data, h.end)
		end, err := dictEnd(data, start)
		if err == nil && m[0] >= end {
			field := damagedField(data, m, fmt.Errorf("/ByteRange lies outside object %d", h.ref.Num))
			if _, referenced := names[h.ref.Num]; referenced {
				field.Ref = h.ref
			}
			add(m[0], field)
			continue
		}
		if err != nil {
			field := damagedField(data, m, err)
			field.Ref = h.ref
			add(h.offset, field)
			continue
		}
		dict := data[start:end]
		if _, ok := lookup(dict, "ByteRange"); !ok {
			field := damagedField(data, m, fmt.Errorf("/ByteRange is not an entry of object %d", h.ref.Num))
			field.Ref = h.ref
			add(h.offset, field)
			continue
		}
		if typ, ok := lookup(dict, "Type"); ok {
			if name, _ := parseName(typ); name == "DocTimeStamp" {
				continue
			}
		}

		field := readSignatureDict(dict, int64(start))
		field.Ref = h.ref
		add(h.offset, field)
	}

	// Signature values referenced by a field but missing from the scan
	// above have lost their /ByteRange key.
	for num := range names {
		if _, ok := seen[num]; ok {
			continue
		}
		h, ok := doc.headers[num]
		if !ok {
			continue
		}
		start := skipSpace(data, h.end)
		end, err := dictEnd(data, start)
		if err != nil {
			add(h.offset, SignatureField{Ref: h.ref, Err: fmt.Errorf("reading signature dictionary: %w", err)})
			continue
		}
		dict := data[start:end]
		if !looksLikeSignature(dict) {
			continue
		}
		field := readSignatureDict(dict, int64(start))
		field.Ref = h.ref
		add(h.offset, field)
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	fields := make([]SignatureField, len(found))
	for i, l := range found {
		fields[i] = l.field
		fields[i].FieldName = names[l.field.Num]
	}
	return fields
}

// looksLikeSignature reports whether dict can be a signature value: it
// carries /Contents or /Filter, or cannot be read as a dictionary at all.
func looksLikeSignature(dict []byte) bool {
	entries, err := dictEntries(dict)
	if err != nil {
		return true
	}
	for _, e := range entries {
		if e.key == "Contents" || e.key == "Filter" {
			return true
		}
	}
	return false
}

// damagedField describes a /ByteRange whose dictionary cannot be read.
// The ranges are taken from the array itself and the contents from the
// single gap they leave, so the signed bytes can still be checked.
func damagedField(data []byte, m []int, cause error) SignatureField {
	f := SignatureField{Err: fmt.Errorf("reading signature dictionary: %w", cause)}
	open := m[1] - 1
	end, err := arrayEnd(data, open)
	if err != nil {
		f.Err = errors.Join(f.Err, fmt.Errorf("/ByteRange: %w", err))
		return f
	}
	ranges, err := parseByteRange(data[open:end])
	if err != nil {
		f.Err = errors.Join(f.Err, err)
		return f
	}
	f.ByteRanges = ranges

	if len(ranges) != 2 {
		return f
	}
	gap := hashio.ByteRange{Offset: ranges[0].End(), Length: ranges[1].Offset - ranges[0].End()}
	if gap.Offset < 0 || gap.Length < 2 || gap.End() > int64(len(data)) {
		return f
	}
	raw := data[gap.Offset:gap.End()]
	if raw[0] != '<' || raw[len(raw)-1] != '>' {
		return f
	}
	if contents, err := decodeHexString(raw); err == nil {
		f.ContentsRange = gap
		f.Contents = contents
	}
	return f
}

func readSignatureDict(dict []byte, base int64) SignatureField {
	var f SignatureField
	entries, err := dictEntries(dict)
	if err != nil {
		f.Err = fmt.Errorf("reading signature dictionary: %w", err)
		return f
	}

	var errs []error
	for _, e := range entries {
		switch e.key {
		case "ByteRange":
			ranges, err := parseByteRange(e.value)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			f.ByteRanges = ranges
		case "Contents":
			f.ContentsRange = hashio.ByteRange{Offset: base + int64(e.start), Length: int64(e.end - e.start)}
			if len(e.value) < 2 || e.value[0] != '<' {
				errs = append(errs, errors.New("/Contents is not a hex string"))
				continue
			}
			contents, err := decodeHexString(e.value)
			if err != nil {
				errs = append(errs, fmt.Errorf("/Contents: %w", err))
				continue
			}
			f.Contents = contents
		case "SubFilter":
			f.SubFilter, _ = parseName(e.value)
		case "Name":
			f.Name, _ = DecodeTextString(e.value)
		case "Reason":
			f.Reason, _ = DecodeTextString(e.value)
		case "Location":
			f.Location, _ = DecodeTextString(e.value)
		case "ContactInfo":
			f.ContactInfo, _ = DecodeTextString(e.value)
		case "M":
			if s, err := DecodeTextString(e.value); err == nil {
				if t, err := ParseDate(s); err == nil {
					f.SigningTime = t
				}
			}
		}
	}

	if f.ByteRanges == nil && len(errs) == 0 {
		errs = append(errs, errors.New("signature dictionary has no /ByteRange"))
	}
	if f.Contents == nil && f.ContentsRange.Length == 0 {
		errs = append(errs, errors.New("signature dictionary has no /Contents"))
	}
	f.Err = errors.Join(errs...)
	return f
}

func parseByteRange(v []byte) ([]hashio.ByteRange, error) {
	elems, err := arrayElements(v)
	if err != nil {
		return nil, fmt.Errorf("/ByteRange: %w", err)
	}
	if len(elems) == 0 || len(elems)%2 != 0 {
		return nil, fmt.Errorf("/ByteRange has %d elements, want an even number", len(elems))
	}
	ranges := make([]hashio.ByteRange, 0, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		off, ok1 := parseInt(elems[i])
		length, ok2 := parseInt(elems[i+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("/ByteRange element %d is not an integer pair", i/2)
		}
		ranges = append(ranges, hashio.ByteRange{Offset: off, Length: length})
	}
	return ranges, nil
}

// allHeaders returns every object header of data ordered by offset.
func allHeaders(data []byte) []objHeader {
	var headers []objHeader
	for _, m := range objHeaderRe.FindAllSubmatchIndex(data, -1) {
		if m[0] > 0 && data[m[0]-1] >= '0' && data[m[0]-1] <= '9' {
			continue
		}
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		headers = append(headers, objHeader{ref: Ref{Num: num, Gen: gen}, offset: m[0], end: m[1]})
	}
	return headers
}

// enclosingHeader returns the last header starting before pos.
func enclosingHeader(headers []objHeader, pos int) (objHeader, bool) {
	i := sort.Search(len(headers), func(i int) bool { return headers[i].offset >= pos })
	if i == 0 {
		return objHeader{}, false
	}
	return headers[i-1], true
}

// fieldNames maps the object number of every signature value referenced
// by a signature field (/FT /Sig) to the field's /T, empty when unnamed.
func fieldNames(doc *Document) map[int]string {
	names := make(map[int]string)
	for num := range doc.headers {
		obj, err := doc.Object(num)
		if err != nil || !bytes.HasPrefix(obj.Body, []byte("<<")) {
			continue
		}
		ft, ok := lookup(obj.Body, "FT")
		if !ok {
			continue
		}
		if name, _ := parseName(ft); name != "Sig" {
			continue
		}
		v, ok := lookup(obj.Body, "V")
		if !ok {
			continue
		}
		ref, ok := parseRef(v)
		if !ok {
			continue
		}
		names[ref.Num] = ""
		if t, ok := lookup(obj.Body, "T"); ok {
			if s, err := DecodeTextString(t); err == nil {
				names[ref.Num] = s
			}
		}
	}
	return names
}
