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
	"fmt"
	"regexp"
	"strconv"
)

var refRe = regexp.MustCompile(`^(\d+)\s+(\d+)\s+R$`)

// Ref is an indirect object reference.
type Ref struct {
	Num int
	Gen int
}

// String formats the reference as "N G R".
func (r Ref) String() string {
	return fmt.Sprintf("%d %d R", r.Num, r.Gen)
}

// entry is a top-level key/value pair of a dictionary. start and end
// delimit the raw value within the dictionary bytes.
type entry struct {
	key   string
	value []byte
	start int
	end   int
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skipSpace advances past whitespace and comments.
func skipSpace(b []byte, i int) int {
	for i < len(b) {
		switch {
		case isWhitespace(b[i]):
			i++
		case b[i] == '%':
			for i < len(b) && b[i] != '\n' && b[i] != '\r' {
				i++
			}
		default:
			return i
		}
	}
	return i
}

// tokenEnd returns the end of a regular (non-delimited) token.
func tokenEnd(b []byte, i int) int {
	for i < len(b) && !isWhitespace(b[i]) && !isDelimiter(b[i]) {
		i++
	}
	return i
}

func isInteger(tok []byte) bool {
	if len(tok) == 0 {
		return false
	}
	for _, c := range tok {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// valueEnd returns the index one past the object starting at b[i]. An
// indirect reference "N G R" is treated as a single value.
func valueEnd(b []byte, i int) (int, error) {
	if i >= len(b) {
		return 0, fmt.Errorf("unexpected end of data")
	}
	switch b[i] {
	case '<':
		if i+1 < len(b) && b[i+1] == '<' {
			return dictEnd(b, i)
		}
		return hexStringEnd(b, i)
	case '[':
		return arrayEnd(b, i)
	case '(':
		return literalStringEnd(b, i)
	case '/':
		return tokenEnd(b, i+1), nil
	}

	j := tokenEnd(b, i)
	if j == i {
		return 0, fmt.Errorf("unexpected %q at offset %d", b[i], i)
	}
	if isInteger(b[i:j]) {
		k := skipSpace(b, j)
		l := tokenEnd(b, k)
		if l > k && isInteger(b[k:l]) {
			m := skipSpace(b, l)
			if m < len(b) && b[m] == 'R' && (m+1 == len(b) || isWhitespace(b[m+1]) || isDelimiter(b[m+1])) {
				return m + 1, nil
			}
		}
	}
	return j, nil
}

// dictEnd returns the index one past the ">>" matching the "<<" at b[i].
func dictEnd(b []byte, i int) (int, error) {
	if i+1 >= len(b) || b[i] != '<' || b[i+1] != '<' {
		return 0, fmt.Errorf("expected dictionary at offset %d", i)
	}
	j := i + 2
	for {
		j = skipSpace(b, j)
		if j+1 < len(b) && b[j] == '>' && b[j+1] == '>' {
			return j + 2, nil
		}
		next, err := valueEnd(b, j)
		if err != nil {
			return 0, err
		}
		j = next
	}
}

func arrayEnd(b []byte, i int) (int, error) {
	j := i + 1
	for {
		j = skipSpace(b, j)
		if j < len(b) && b[j] == ']' {
			return j + 1, nil
		}
		next, err := valueEnd(b, j)
		if err != nil {
			return 0, err
		}
		j = next
	}
}

func literalStringEnd(b []byte, i int) (int, error) {
	depth := 0
	for j := i; j < len(b); j++ {
		switch b[j] {
		case '\\':
			j++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated string at offset %d", i)
}

func hexStringEnd(b []byte, i int) (int, error) {
	j := bytes.IndexByte(b[i:], '>')
	if j < 0 {
		return 0, fmt.Errorf("unterminated hex string at offset %d", i)
	}
	return i + j + 1, nil
}

// dictEntries lists the top-level entries of the dictionary d, which must
// start with "<<" and end with ">>".
func dictEntries(d []byte) ([]entry, error) {
	if len(d) < 4 || !bytes.HasPrefix(d, []byte("<<")) || !bytes.HasSuffix(d, []byte(">>")) {
		return nil, fmt.Errorf("not a dictionary")
	}
	var entries []entry
	j := 2
	for {
		j = skipSpace(d, j)
		if j+1 < len(d) && d[j] == '>' && d[j+1] == '>' {
			return entries, nil
		}
		if j >= len(d) || d[j] != '/' {
			return nil, fmt.Errorf("expected name at offset %d", j)
		}
		k := tokenEnd(d, j+1)
		v0 := skipSpace(d, k)
		v1, err := valueEnd(d, v0)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: string(d[j+1 : k]), value: d[v0:v1], start: v0, end: v1})
		j = v1
	}
}

// lookup returns the raw value of key in dictionary d.
func lookup(d []byte, key string) ([]byte, bool) {
	entries, err := dictEntries(d)
	if err != nil {
		return nil, false
	}
	for _, e := range entries {
		if e.key == key {
			return e.value, true
		}
	}
	return nil, false
}

// setKey returns a copy of dictionary d with key set to value.
func setKey(d []byte, key, value string) ([]byte, error) {
	entries, err := dictEntries(d)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(d)+len(key)+len(value)+4)
	for _, e := range entries {
		if e.key == key {
			out = append(out, d[:e.start]...)
			out = append(out, value...)
			out = append(out, d[e.end:]...)
			return out, nil
		}
	}
	out = append(out, bytes.TrimRight(d[:len(d)-2], " \t\r\n")...)
	out = append(out, " /"+key+" "+value+" >>"...)
	return out, nil
}

// arrayElements splits the array a into its raw elements.
func arrayElements(a []byte) ([][]byte, error) {
	if len(a) < 2 || a[0] != '[' || a[len(a)-1] != ']' {
		return nil, fmt.Errorf("not an array")
	}
	var elems [][]byte
	j := 1
	for {
		j = skipSpace(a, j)
		if j >= len(a)-1 {
			return elems, nil
		}
		next, err := valueEnd(a, j)
		if err != nil {
			return nil, err
		}
		elems = append(elems, a[j:next])
		j = next
	}
}

// appendToArray returns a copy of array a with item appended.
func appendToArray(a []byte, item string) ([]byte, error) {
	if len(a) < 2 || a[0] != '[' || a[len(a)-1] != ']' {
		return nil, fmt.Errorf("not an array")
	}
	body := bytes.TrimSpace(a[1 : len(a)-1])
	out := make([]byte, 0, len(a)+len(item)+2)
	out = append(out, '[')
	out = append(out, body...)
	if len(body) > 0 {
		out = append(out, ' ')
	}
	out = append(out, item...)
	out = append(out, ']')
	return out, nil
}

func parseRef(v []byte) (Ref, bool) {
	m := refRe.FindSubmatch(bytes.TrimSpace(v))
	if m == nil {
		return Ref{}, false
	}
	num, err1 := strconv.Atoi(string(m[1]))
	gen, err2 := strconv.Atoi(string(m[2]))
	if err1 != nil || err2 != nil {
		return Ref{}, false
	}
	return Ref{Num: num, Gen: gen}, true
}

func parseInt(v []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(bytes.TrimSpace(v)), 10, 64)
	return n, err == nil
}

func parseName(v []byte) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) < 1 || v[0] != '/' {
		return "", false
	}
	return string(v[1:]), true
}
