// Package tokenizer implements a small character-level scanning engine used by
// the inline syntax extensions. A scan walks one candidate span, records
// balanced enter/exit token events and either matches or backtracks.
package tokenizer

import "unicode/utf8"

// Code is one unit of input: a rune, or one of the special codes below.
type Code rune

const (
	// CodeEOF marks the end of the scanned input.
	CodeEOF Code = -1
	// CodeLineEnding stands for LF, CR and CRLF alike.
	CodeLineEnding Code = -2
)

// IsLineEnding reports whether c ends a line.
func IsLineEnding(c Code) bool { return c == CodeLineEnding }

// IsLineEndingOrEOF reports whether c ends the line or the input.
func IsLineEndingOrEOF(c Code) bool { return c == CodeLineEnding || c == CodeEOF }

// IsWhitespace reports whether c is a line ending, a space or a tab.
func IsWhitespace(c Code) bool {
	return c == CodeLineEnding || c == ' ' || c == '\t'
}

// decode returns the code at src[pos] and its width in bytes.
func decode(src []byte, pos int) (Code, int) {
	if pos >= len(src) {
		return CodeEOF, 0
	}
	switch src[pos] {
	case '\n':
		return CodeLineEnding, 1
	case '\r':
		if pos+1 < len(src) && src[pos+1] == '\n' {
			return CodeLineEnding, 2
		}
		return CodeLineEnding, 1
	}
	r, w := utf8.DecodeRune(src[pos:])
	return Code(r), w
}
