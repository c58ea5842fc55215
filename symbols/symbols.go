// Package symbols performs assembler pass 1: walking a program's parsed
// lines in order, assigning each instruction and directive an address, and
// recording label definitions. It does not resolve operand values against
// those addresses; see package encoder for pass 2.
package symbols

import (
	"fmt"

	"github.com/lucaspiller/n1core/parser"
)

// SymbolErrorKind categorises a pass-1 failure.
type SymbolErrorKind int

const (
	ErrDuplicateLabel SymbolErrorKind = iota
	ErrAddressOverflow
	ErrOrgBackwards
)

func (k SymbolErrorKind) String() string {
	switch k {
	case ErrDuplicateLabel:
		return "DuplicateLabel"
	case ErrAddressOverflow:
		return "AddressOverflow"
	case ErrOrgBackwards:
		return "OrgBackwards"
	default:
		return "Unknown"
	}
}

// SymbolError is a pass-1 diagnostic.
type SymbolError struct {
	Pos     parser.SourceLocation
	Kind    SymbolErrorKind
	Message string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s:%d:%d: error: %s", e.Pos.File, e.Pos.Line, e.Pos.Column, e.Message)
}

// Symbol is a label bound to an address during pass 1.
type Symbol struct {
	Name    string
	Address uint32
	Pos     parser.SourceLocation
}

// SymbolTable maps label names to their assigned addresses.
type SymbolTable struct {
	entries map[string]Symbol
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]Symbol)}
}

// Define binds name to addr, rejecting a redefinition.
func (t *SymbolTable) Define(name string, addr uint32, pos parser.SourceLocation) error {
	if existing, ok := t.entries[name]; ok {
		return &SymbolError{
			Pos:  pos,
			Kind: ErrDuplicateLabel,
			Message: fmt.Sprintf(
				"label %q already defined at %s:%d", name, existing.Pos.File, existing.Pos.Line),
		}
	}
	t.entries[name] = Symbol{Name: name, Address: addr, Pos: pos}
	return nil
}

// Lookup returns the address bound to name, if any.
func (t *SymbolTable) Lookup(name string) (uint32, bool) {
	s, ok := t.entries[name]
	return s.Address, ok
}

// AddressedLine pairs a parsed line with the address pass 1 assigned it.
// Blank lines and bare label definitions carry the address of the next
// emitting line (equivalently, the table's running cursor at that point).
type AddressedLine struct {
	Line    parser.ParsedLine
	Address uint32
}

// Assignment is pass 1's complete result: every input line tagged with its
// address, plus the symbol table built along the way.
type Assignment struct {
	Lines   []AddressedLine
	Symbols *SymbolTable
}

// lineSize returns the number of bytes a parsed line occupies in the
// assembled image: 0 for blank/label-only lines, the directive's payload
// size, or the instruction's encoded size (2 or 4 bytes).
func lineSize(line parser.ParsedLine) uint32 {
	switch line.Kind {
	case parser.LineDirective:
		switch line.Directive.Kind {
		case parser.DirWord:
			return 2
		case parser.DirByte:
			return 1
		case parser.DirAscii:
			return uint32(len(line.Directive.AsciiValue))
		case parser.DirZero:
			return uint32(line.Directive.ZeroCount)
		default: // DirOrg, DirInclude: no payload of their own
			return 0
		}
	case parser.LineInstruction:
		return uint32(line.Instruction.Size.Bytes())
	default:
		return 0
	}
}

// AssignAddressesWithLines runs pass 1 over lines in order: it walks a
// cursor starting at 0, advances it by each line's emitted size, honours
// `.org` by relocating the cursor (forward only, per spec.md section 4.11),
// and defines every label at the cursor position current when it is
// encountered.
func AssignAddressesWithLines(lines []parser.ParsedLine, filename string) (*Assignment, error) {
	table := NewSymbolTable()
	out := make([]AddressedLine, 0, len(lines))
	var cursor uint32

	for _, line := range lines {
		pos := parser.SourceLocation{File: filename, Line: line.SourceLine, Column: 1}

		if line.Kind == parser.LineDirective && line.Directive.Kind == parser.DirOrg {
			target := line.Directive.OrgAddress
			if target < cursor {
				return nil, &SymbolError{
					Pos:  pos,
					Kind: ErrOrgBackwards,
					Message: fmt.Sprintf(
						".org target 0x%04X is behind current address 0x%04X", target, cursor),
				}
			}
			cursor = target
		}

		if line.Label != "" {
			if err := table.Define(line.Label, cursor, pos); err != nil {
				return nil, err
			}
		}

		out = append(out, AddressedLine{Line: line, Address: cursor})

		size := lineSize(line)
		next := uint64(cursor) + uint64(size)
		if next > 0xFFFF+1 {
			return nil, &SymbolError{
				Pos:  pos,
				Kind: ErrAddressOverflow,
				Message: fmt.Sprintf(
					"address 0x%X exceeds 16-bit address space", next),
			}
		}
		cursor = uint32(next)
	}

	return &Assignment{Lines: out, Symbols: table}, nil
}
