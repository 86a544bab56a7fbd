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
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

var dateRe = regexp.MustCompile(`^D:(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?(?:([Zz+\-])(?:(\d{2})'?(\d{2})?'?)?)?$`)

// EncodeTextString encodes s as a PDF text string. ASCII input becomes a
// literal string; anything else is written as UTF-16BE with a byte order mark.
func EncodeTextString(s string) string {
	ascii := true
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			ascii = false
			break
		}
	}
	if ascii {
		r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
		return "(" + r.Replace(s) + ")"
	}

	units := utf16.Encode([]rune(s))
	buf := make([]byte, 0, 2+2*len(units))
	buf = append(buf, 0xfe, 0xff)
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return "<" + strings.ToUpper(hex.EncodeToString(buf)) + ">"
}

// DecodeTextString decodes a raw literal or hex string value.
func DecodeTextString(v []byte) (string, error) {
	raw, err := decodeString(v)
	if err != nil {
		return "", err
	}
	if len(raw) >= 2 && raw[0] == 0xfe && raw[1] == 0xff {
		raw = raw[2:]
		units := make([]uint16, len(raw)/2)
		for i := range units {
			units[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
		}
		return string(utf16.Decode(units)), nil
	}
	return string(raw), nil
}

// decodeString returns the bytes of a literal "(...)" or hex "<...>" string.
func decodeString(v []byte) ([]byte, error) {
	v = bytes.TrimSpace(v)
	if len(v) < 2 {
		return nil, fmt.Errorf("not a string")
	}
	switch {
	case v[0] == '<' && v[len(v)-1] == '>':
		return decodeHexString(v)
	case v[0] == '(' && v[len(v)-1] == ')':
		return unescapeLiteral(v[1 : len(v)-1]), nil
	}
	return nil, fmt.Errorf("not a string")
}

// decodeHexString decodes "<...>", ignoring whitespace. An odd final digit
// is completed with 0.
func decodeHexString(v []byte) ([]byte, error) {
	digits := make([]byte, 0, len(v))
	for _, c := range v[1 : len(v)-1] {
		if isWhitespace(c) {
			continue
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, fmt.Errorf("invalid hex string: %w", err)
	}
	return out, nil
}

func unescapeLiteral(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
		case '0', '1', '2', '3', '4', '5', '6', '7':
			n := 0
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				n = n*8 + int(s[j]-'0')
				j++
			}
			out = append(out, byte(n))
			i = j - 1
		default:
			out = append(out, s[i])
		}
	}
	return out
}

// FormatDate formats t as a PDF date string, e.g. "D:20250102150405+01'00'".
func FormatDate(t time.Time) string {
	_, offset := t.Zone()
	if offset == 0 {
		return t.Format("D:20060102150405") + "Z"
	}
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%s%c%02d'%02d'", t.Format("D:20060102150405"), sign, offset/3600, (offset%3600)/60)
}

// ParseDate parses a PDF date string. Missing trailing fields default to
// their minimum value and a missing zone means UTC.
func ParseDate(s string) (time.Time, error) {
	m := dateRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid PDF date %q", s)
	}
	field := func(i, def int) int {
		if m[i] == "" {
			return def
		}
		n, _ := strconv.Atoi(m[i])
		return n
	}

	loc := time.UTC
	if m[7] == "+" || m[7] == "-" {
		offset := field(8, 0)*3600 + field(9, 0)*60
		if m[7] == "-" {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	}

	return time.Date(field(1, 0), time.Month(field(2, 1)), field(3, 1),
		field(4, 0), field(5, 0), field(6, 0), 0, loc), nil
}
