// Package parser turns one assembly source line into a structured
// ParsedLine: a blank line, a label definition, a directive, or an
// instruction with resolved mnemonic and typed operands. It performs no
// address assignment and consults no symbol table; see package symbols for
// pass 1 and package encoder for pass 2.
package parser

import "github.com/lucaspiller/n1core/core"

// Register names a general-purpose register operand, 0-7.
type Register uint8

// MemoryOperand is a `[Rn]` or `[Rn+disp]`/`[Rn-disp]` operand.
type MemoryOperand struct {
	Base         Register
	Displacement *int16 // nil when no explicit displacement was written
}

// OperandKind discriminates Operand's active field.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandRegister
	OperandMemory
	OperandImmediate
)

// Operand is one instruction operand: a bare register, a memory reference,
// or an immediate (numeric or label-shaped, resolved later by the encoder).
type Operand struct {
	Kind      OperandKind
	Register  Register
	Memory    MemoryOperand
	ImmValue  int64
	IsLabel   bool
	LabelName string
}

// InstructionSize is the number of 16-bit words an instruction occupies.
type InstructionSize int

const (
	SizeOneWord InstructionSize = iota
	SizeTwoWord
)

// Bytes returns the instruction's size in bytes (2 or 4).
func (s InstructionSize) Bytes() int {
	if s == SizeTwoWord {
		return 4
	}
	return 2
}

// ParsedInstruction is a fully resolved instruction line: mnemonic, its
// (OP, SUB, encoding) triple, register fields, and at most one addressed
// operand.
type ParsedInstruction struct {
	Mnemonic string
	Op       uint8
	Sub      uint8
	Encoding core.OpcodeEncoding
	RD       Register
	RA       Register
	Operand  Operand
	Size     InstructionSize
}

// DirectiveKind discriminates Directive's active field.
type DirectiveKind int

const (
	DirOrg DirectiveKind = iota
	DirWord
	DirByte
	DirAscii
	DirZero
	DirInclude
)

// Directive is one of .org/.word/.byte/.ascii/.zero/.include.
type Directive struct {
	Kind        DirectiveKind
	OrgAddress  uint32
	WordValue   uint16
	ByteValue   uint8
	AsciiValue  string
	ZeroCount   int
	IncludePath string
}

// ParsedLineKind discriminates ParsedLine's active field.
type ParsedLineKind int

const (
	LineBlank ParsedLineKind = iota
	LineLabel
	LineDirective
	LineInstruction
)

// ParsedLine is the output of parsing one source line.
type ParsedLine struct {
	Kind        ParsedLineKind
	Label       string
	Directive   Directive
	Instruction ParsedInstruction
	SourceLine  int
}

// SourceLocation pinpoints a parse position for diagnostics.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}
