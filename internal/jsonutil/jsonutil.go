// Package jsonutil holds the byte-level encoding helpers used only by the
// HTTP adapter: JSON string escaping for arbitrary byte values, and the
// URL encode/decode used when extracting {key} from a request path.
//
// The core never imports this package. These helpers exist strictly at
// the HTTP boundary.
package jsonutil

import (
	"fmt"
	"net/url"
	"strings"
)

// EscapeJSONString escapes b for inclusion inside a JSON string literal
// (without the surrounding quotes): `"`, `\`, and the named
// single-character escapes for backspace, form feed, newline, carriage
// return, and tab; every other control byte below 0x20 is escaped as
// \u00XX. Bytes >= 0x20 are passed through unescaped, so any valid-UTF-8
// byte string round-trips exactly through a standard JSON decoder.
func EscapeJSONString(b []byte) string {
	var out strings.Builder
	out.Grow(len(b))
	for _, c := range b {
		switch c {
		case '"':
			out.WriteString(`\"`)
		case '\\':
			out.WriteString(`\\`)
		case '\b':
			out.WriteString(`\b`)
		case '\f':
			out.WriteString(`\f`)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		case '\t':
			out.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(&out, `\u%04x`, c)
			} else {
				out.WriteByte(c)
			}
		}
	}
	return out.String()
}

// DecodeKeySegment decodes a single URL path segment (the {key} portion
// of /api/v1/kv/keys/{key}), reversing percent-encoding and '+' handling
// the way url.PathUnescape does for a path segment.
func DecodeKeySegment(segment string) (string, error) {
	return url.PathUnescape(segment)
}

// EncodeKeySegment is the inverse of DecodeKeySegment, used by test
// helpers and any client-facing code that needs to build a request path
// from a raw key.
func EncodeKeySegment(key string) string {
	return url.PathEscape(key)
}
