package grammar

import (
	"bytes"
	"strings"
)

// Unescape converts each 3-byte encoded substring of the form "% HEXDIG HEXDIG" into the hex-decoded byte.
// Malformed escapes are copied as is.
func Unescape[T ~string | ~[]byte](s T) T {
	if len(s) == 0 {
		return s
	}

	var b bytes.Buffer
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		} else {
			b.WriteByte(s[i])
		}
	}
	return T(b.Bytes())
}

// UnescapeLossy unescapes s and replaces invalid UTF-8 sequences of the result with U+FFFD.
func UnescapeLossy(s string) string {
	return strings.ToValidUTF8(Unescape(s), "\uFFFD")
}

// Escape replaces each byte matched by shouldEscape with the hex form "% HEXDIG HEXDIG".
// The "%" byte is always escaped, so Escape(Unescape(s)) never produces ambiguous sequences.
func Escape[T ~string | ~[]byte](s T, shouldEscape func(c byte) bool) T {
	if len(s) == 0 {
		return s
	}

	if shouldEscape == nil {
		shouldEscape = func(c byte) bool { return !IsCharUnreserved(c) }
	}

	var b bytes.Buffer
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' || shouldEscape(s[i]) {
			b.WriteByte('%')
			b.WriteByte(upperhex[s[i]>>4])
			b.WriteByte(upperhex[s[i]&15])
		} else {
			b.WriteByte(s[i])
		}
	}
	return T(b.Bytes())
}

const upperhex = "0123456789ABCDEF"

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// IsAlphanumChar checks alphanum rule.
func IsAlphanumChar(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

// IsCharUnreserved checks on unreserved rule.
func IsCharUnreserved(c byte) bool {
	switch c {
	case '-', '.', '_', '~':
		return true
	}
	return IsAlphanumChar(c)
}

// IsSubDelim checks on sub-delims rule.
func IsSubDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

// IsUserCharUnreserved reports whether c may appear unescaped in the user part of userinfo.
func IsUserCharUnreserved(c byte) bool {
	return IsCharUnreserved(c) || IsSubDelim(c)
}

// IsPasswdCharUnreserved reports whether c may appear unescaped in the password part of userinfo.
func IsPasswdCharUnreserved(c byte) bool {
	return c == ':' || IsUserCharUnreserved(c)
}
