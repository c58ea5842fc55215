package source

import (
	"fmt"
	"strings"

	"github.com/lucaspiller/n1core/parser"
)

// ErrorKind categorises an include-expansion failure, per spec.md section 4.9.
type ErrorKind int

const (
	ErrFileNotFound ErrorKind = iota
	ErrIoError
	ErrCircularInclude
	ErrParseError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrFileNotFound:
		return "FileNotFound"
	case ErrIoError:
		return "IoError"
	case ErrCircularInclude:
		return "CircularInclude"
	case ErrParseError:
		return "ParseError"
	default:
		return "Unknown"
	}
}

// Error is an include-expansion diagnostic, carrying the originating path
// and the include chain at the point of failure.
type Error struct {
	Path    string
	Kind    ErrorKind
	Message string
	Chain   []parser.IncludeFrame
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s: %s", e.Path, e.Kind, e.Message)
	for i := len(e.Chain) - 1; i >= 0; i-- {
		f := e.Chain[i]
		fmt.Fprintf(&sb, " (included from %s:%d", f.File, f.Line)
	}
	sb.WriteString(strings.Repeat(")", len(e.Chain)))
	return sb.String()
}
