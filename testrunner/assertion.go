// Package testrunner evaluates literate `n1test` blocks against a CPU
// core: each block's assertions run at the next HALT, per spec.md
// section 4.13.
package testrunner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucaspiller/n1core/parser"
)

// AssertionKind discriminates what an Assertion compares.
type AssertionKind int

const (
	AssertRegister AssertionKind = iota
	AssertPC
	AssertMemory
)

// Assertion is one parsed line of a test block: `Rn==v`, `Rn!=v`, `PC==v`,
// `[addr]==byte`, or `[addr]!=byte`.
type Assertion struct {
	Kind     AssertionKind
	Register uint8  // valid when Kind == AssertRegister
	Address  uint16 // valid when Kind == AssertMemory
	Negate   bool   // true for "!=" forms
	Expected int64
	Source   string // the original assertion text, for diagnostics
}

var (
	registerAssertion = regexp.MustCompile(`^R([0-7])\s*(==|!=)\s*(\S+)$`)
	pcAssertion       = regexp.MustCompile(`^PC\s*(==|!=)\s*(\S+)$`)
	memoryAssertion   = regexp.MustCompile(`^\[\s*(\S+?)\s*\]\s*(==|!=)\s*(\S+)$`)
)

// MalformedAssertionError reports a line that matches no assertion form.
type MalformedAssertionError struct {
	Line int
	Text string
}

func (e *MalformedAssertionError) Error() string {
	return fmt.Sprintf("line %d: malformed assertion %q", e.Line, e.Text)
}

// ParseAssertion parses one assertion-grammar line.
func ParseAssertion(text string, line int) (Assertion, error) {
	trimmed := strings.TrimSpace(text)

	if m := registerAssertion.FindStringSubmatch(trimmed); m != nil {
		regNo, _ := strconv.Atoi(m[1])
		v, ok := parser.ParseNumericLiteral(m[3])
		if !ok {
			return Assertion{}, &MalformedAssertionError{Line: line, Text: text}
		}
		return Assertion{
			Kind: AssertRegister, Register: uint8(regNo), Negate: m[2] == "!=",
			Expected: v, Source: trimmed,
		}, nil
	}

	if m := pcAssertion.FindStringSubmatch(trimmed); m != nil {
		v, ok := parser.ParseNumericLiteral(m[2])
		if !ok {
			return Assertion{}, &MalformedAssertionError{Line: line, Text: text}
		}
		return Assertion{Kind: AssertPC, Negate: m[1] == "!=", Expected: v, Source: trimmed}, nil
	}

	if m := memoryAssertion.FindStringSubmatch(trimmed); m != nil {
		addr, ok := parser.ParseNumericLiteral(m[1])
		if !ok || addr < 0 || addr > 0xFFFF {
			return Assertion{}, &MalformedAssertionError{Line: line, Text: text}
		}
		v, ok := parser.ParseNumericLiteral(m[3])
		if !ok {
			return Assertion{}, &MalformedAssertionError{Line: line, Text: text}
		}
		return Assertion{
			Kind: AssertMemory, Address: uint16(addr), Negate: m[2] == "!=",
			Expected: v, Source: trimmed,
		}, nil
	}

	return Assertion{}, &MalformedAssertionError{Line: line, Text: text}
}

// ParseBlock parses every non-blank line of a test block's body.
func ParseBlock(lines []string, startLine int) ([]Assertion, error) {
	var out []Assertion
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		a, err := ParseAssertion(l, startLine+i)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
