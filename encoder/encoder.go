// Package encoder performs assembler pass 2: turning pass 1's
// address-tagged lines into the exact byte sequence spec.md section 3
// requires the core to decode, resolving every label reference against the
// symbol table pass 1 built.
package encoder

import (
	"fmt"

	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/parser"
	"github.com/lucaspiller/n1core/symbols"
)

// EncodeErrorKind categorises a pass-2 failure.
type EncodeErrorKind int

const (
	ErrUndefinedLabel EncodeErrorKind = iota
	ErrDisplacementOutOfRange
	ErrImmediateOutOfRange
	ErrPcRelativeOutOfRange
	ErrInvalidEncoding
)

func (k EncodeErrorKind) String() string {
	switch k {
	case ErrUndefinedLabel:
		return "UndefinedLabel"
	case ErrDisplacementOutOfRange:
		return "DisplacementOutOfRange"
	case ErrImmediateOutOfRange:
		return "ImmediateOutOfRange"
	case ErrPcRelativeOutOfRange:
		return "PcRelativeOutOfRange"
	case ErrInvalidEncoding:
		return "InvalidEncoding"
	default:
		return "Unknown"
	}
}

// EncodeError is a pass-2 diagnostic.
type EncodeError struct {
	Pos     parser.SourceLocation
	Kind    EncodeErrorKind
	Message string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s:%d:%d: error: %s", e.Pos.File, e.Pos.Line, e.Pos.Column, e.Message)
}

// EncodedOutput is the complete assembled program: the flat memory image
// (always exactly core.MemorySize bytes, zero-filled outside emitted
// ranges) plus one past the highest address written, for diagnostics.
type EncodedOutput struct {
	Image    [core.MemorySize]byte
	HighWater uint32
}

func isBranchEncoding(enc core.OpcodeEncoding) bool {
	switch enc {
	case core.EncBeq, core.EncBne, core.EncBlt, core.EncBle, core.EncBgt, core.EncBge, core.EncJmp:
		return true
	case core.EncCallOrRet:
		return true
	default:
		return false
	}
}

func isMemoryEncoding(enc core.OpcodeEncoding) bool {
	return enc == core.EncLoad || enc == core.EncStore
}

// resolveImmediateValue resolves an Operand's numeric value, looking up a
// label in syms if necessary.
func resolveImmediateValue(op parser.Operand, syms *symbols.SymbolTable, pos parser.SourceLocation) (int64, error) {
	if !op.IsLabel {
		return op.ImmValue, nil
	}
	addr, ok := syms.Lookup(op.LabelName)
	if !ok {
		return 0, &EncodeError{Pos: pos, Kind: ErrUndefinedLabel, Message: "undefined label " + op.LabelName}
	}
	return int64(addr), nil
}

// encodeOperand determines the (AM, RA, extension-word) triple an
// instruction's addressed operand assembles to. pcNext is the address of
// the byte immediately following this instruction's encoded bytes, the
// base PCRelative displacements are computed from (matching the core's own
// PC-after-fetch semantics in core.resolveEffectiveAddress).
func encodeOperand(instr parser.ParsedInstruction, op parser.Operand, syms *symbols.SymbolTable, pcNext uint32, pos parser.SourceLocation) (core.AddressingMode, uint8, uint16, bool, error) {
	switch op.Kind {
	case parser.OperandNone:
		return core.AmDirectRegister, 0, 0, false, nil

	case parser.OperandRegister:
		// The primary word has one addressing-base register field (RA).
		// When an explicit base register was already given (RA != RD
		// sentinel) it must agree with this operand; the primary word has
		// no room for a third, distinct register.
		ra := uint8(op.Register)
		if instr.RA != instr.RD && uint8(instr.RA) != ra {
			return 0, 0, 0, false, &EncodeError{
				Pos: pos, Kind: ErrInvalidEncoding,
				Message: "register operand conflicts with explicit base register; only one register field is available",
			}
		}
		return core.AmDirectRegister, ra, 0, false, nil

	case parser.OperandMemory:
		base := uint8(op.Memory.Base)
		if op.Memory.Displacement == nil {
			return core.AmRegisterIndirect, base, 0, false, nil
		}
		d := *op.Memory.Displacement
		if d < -128 || d > 127 {
			return 0, 0, 0, false, &EncodeError{Pos: pos, Kind: ErrDisplacementOutOfRange, Message: "displacement out of -128..127 range"}
		}
		return core.AmSignExtendedDisplacement, base, uint16(d), true, nil

	case parser.OperandImmediate:
		v, err := resolveImmediateValue(op, syms, pos)
		if err != nil {
			return 0, 0, 0, false, err
		}

		switch {
		case isBranchEncoding(instr.Encoding):
			disp := v - int64(pcNext)
			if disp < -32768 || disp > 32767 {
				return 0, 0, 0, false, &EncodeError{Pos: pos, Kind: ErrPcRelativeOutOfRange, Message: "branch target out of PC-relative range"}
			}
			return core.AmPCRelative, 0, uint16(int16(disp)), true, nil

		case isMemoryEncoding(instr.Encoding):
			if v < 0 || v > 0xFFFF {
				return 0, 0, 0, false, &EncodeError{Pos: pos, Kind: ErrImmediateOutOfRange, Message: "absolute address out of range"}
			}
			return core.AmZeroExtendedDisplacement, uint8(instr.RA), uint16(v), true, nil

		default:
			if v < 0 || v > 0xFFFF {
				return 0, 0, 0, false, &EncodeError{Pos: pos, Kind: ErrImmediateOutOfRange, Message: "immediate out of 0..0xFFFF range"}
			}
			// RA keeps the ALU first source: RD in the one- and two-operand
			// forms, the explicit RA in the three-operand form.
			return core.AmImmediate, uint8(instr.RA), uint16(v), true, nil
		}

	default:
		return 0, 0, 0, false, &EncodeError{Pos: pos, Kind: ErrInvalidEncoding, Message: "unrecognised operand kind"}
	}
}

func encodePrimaryWord(op, rd, ra, sub uint8, am core.AddressingMode) uint16 {
	return uint16(op&0xF)<<12 | uint16(rd&0x7)<<9 | uint16(ra&0x7)<<6 | uint16(sub&0x7)<<3 | uint16(am&0x7)
}

// EncodeInstruction assembles one instruction line into its 2 or 4-byte
// encoding at address addr.
func EncodeInstruction(instr parser.ParsedInstruction, addr uint32, syms *symbols.SymbolTable, filename string, line int) ([]byte, error) {
	pos := parser.SourceLocation{File: filename, Line: line, Column: 1}
	pcNext := addr + uint32(instr.Size.Bytes())

	am, ra, ext, hasExt, err := encodeOperand(instr, instr.Operand, syms, pcNext, pos)
	if err != nil {
		return nil, err
	}

	word := encodePrimaryWord(instr.Op, uint8(instr.RD), ra, instr.Sub, am)
	out := make([]byte, 0, 4)
	out = append(out, byte(word>>8), byte(word))
	if hasExt {
		out = append(out, byte(ext>>8), byte(ext))
	}
	return out, nil
}

// EncodeDirective emits a directive's payload bytes. .org and .include
// carry no payload of their own (.org only relocates the cursor, handled
// in pass 1; .include is expanded away before parsing ever sees it).
func EncodeDirective(dir parser.Directive) ([]byte, error) {
	switch dir.Kind {
	case parser.DirWord:
		return []byte{byte(dir.WordValue >> 8), byte(dir.WordValue)}, nil
	case parser.DirByte:
		return []byte{dir.ByteValue}, nil
	case parser.DirAscii:
		return []byte(dir.AsciiValue), nil
	case parser.DirZero:
		return make([]byte, dir.ZeroCount), nil
	case parser.DirOrg, parser.DirInclude:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown directive kind %d", dir.Kind)
	}
}

// Encode runs pass 2 over assignment, producing a complete memory image.
func Encode(assignment *symbols.Assignment, filename string) (*EncodedOutput, error) {
	out := &EncodedOutput{}
	for _, al := range assignment.Lines {
		var bytes []byte
		var err error
		switch al.Line.Kind {
		case parser.LineInstruction:
			bytes, err = EncodeInstruction(al.Line.Instruction, al.Address, assignment.Symbols, filename, al.Line.SourceLine)
		case parser.LineDirective:
			bytes, err = EncodeDirective(al.Line.Directive)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		for i, b := range bytes {
			addr := al.Address + uint32(i)
			if addr >= core.MemorySize {
				pos := parser.SourceLocation{File: filename, Line: al.Line.SourceLine, Column: 1}
				return nil, &EncodeError{Pos: pos, Kind: ErrInvalidEncoding, Message: "encoded bytes exceed the 64KiB address space"}
			}
			out.Image[addr] = b
			if addr+1 > out.HighWater {
				out.HighWater = addr + 1
			}
		}
	}
	return out, nil
}

// EncodeLine is a convenience wrapper encoding one already-addressed line,
// used by tools that want per-line byte output (e.g. the listing printer).
func EncodeLine(al symbols.AddressedLine, syms *symbols.SymbolTable, filename string) ([]byte, error) {
	switch al.Line.Kind {
	case parser.LineInstruction:
		return EncodeInstruction(al.Line.Instruction, al.Address, syms, filename, al.Line.SourceLine)
	case parser.LineDirective:
		return EncodeDirective(al.Line.Directive)
	default:
		return nil, nil
	}
}
