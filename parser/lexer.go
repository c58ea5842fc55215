package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidLabel reports whether name matches the label grammar
// `[A-Za-z_][A-Za-z0-9_]*`.
func IsValidLabel(name string) bool {
	return labelPattern.MatchString(name)
}

// stripComment removes a trailing `;` comment, respecting quoted strings so
// a `;` inside an .ascii literal is not treated as a comment start.
func stripComment(line string) string {
	inString := false
	for i, r := range line {
		switch r {
		case '"':
			inString = !inString
		case ';':
			if !inString {
				return line[:i]
			}
		}
	}
	return line
}

// tokenize splits a line on whitespace and commas, treating `[...]` and
// `"..."` as opaque (their contents are never split), per spec.md section
// 4.10 step 5.
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	depth := 0
	inString := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range text {
		switch {
		case inString:
			cur.WriteRune(r)
			if r == '"' {
				inString = false
			}
		case r == '"':
			cur.WriteRune(r)
			inString = true
		case r == '[':
			depth++
			cur.WriteRune(r)
		case r == ']':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case depth > 0:
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == ',':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// ParseNumericLiteral accepts decimal, `0x` hex, and `0b` binary integer
// literals, with an optional leading `-`. Exported for other assembler
// packages (e.g. testrunner's assertion grammar) that share the same
// numeric-literal syntax.
func ParseNumericLiteral(text string) (int64, bool) {
	return parseNumericLiteral(text)
}

// parseNumericLiteral accepts decimal, `0x` hex, and `0b` binary integer
// literals, with an optional leading `-`.
func parseNumericLiteral(text string) (int64, bool) {
	neg := false
	t := text
	if strings.HasPrefix(t, "-") {
		neg = true
		t = t[1:]
	}
	var v int64
	var err error
	switch {
	case strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X"):
		v, err = strconv.ParseInt(t[2:], 16, 64)
	case strings.HasPrefix(t, "0b") || strings.HasPrefix(t, "0B"):
		v, err = strconv.ParseInt(t[2:], 2, 64)
	default:
		v, err = strconv.ParseInt(t, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// parseQuotedString strips a surrounding pair of double quotes, reporting
// false if the string is unterminated.
func parseQuotedString(text string) (string, bool) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", false
	}
	return text[1 : len(text)-1], true
}
