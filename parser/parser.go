package parser

import (
	"strings"

	"github.com/lucaspiller/n1core/core"
)

// ParseLine parses one source line, per spec.md section 4.10's one-pass,
// leftmost-match grammar. filename/lineNo are used only for diagnostics.
func ParseLine(text string, filename string, lineNo int) (ParsedLine, *Warning, error) {
	stripped := stripComment(text)
	trimmed := strings.TrimSpace(stripped)
	if trimmed == "" {
		return ParsedLine{Kind: LineBlank, SourceLine: lineNo}, nil, nil
	}

	label, rest := splitLabel(trimmed)
	if label != "" {
		trimmed = strings.TrimSpace(rest)
		if trimmed == "" {
			return ParsedLine{Kind: LineLabel, Label: label, SourceLine: lineNo}, nil, nil
		}
	}

	pos := SourceLocation{File: filename, Line: lineNo, Column: 1}

	if strings.HasPrefix(trimmed, ".") {
		dir, err := parseDirective(trimmed, pos)
		if err != nil {
			return ParsedLine{}, nil, err
		}
		pl := ParsedLine{Kind: LineDirective, Label: label, Directive: dir, SourceLine: lineNo}
		return pl, nil, nil
	}

	instr, err := parseInstruction(trimmed, pos)
	if err != nil {
		return ParsedLine{}, nil, err
	}
	pl := ParsedLine{Kind: LineInstruction, Label: label, Instruction: instr, SourceLine: lineNo}
	return pl, nil, nil
}

// splitLabel splits a leading "identifier:" label from the rest of the
// line. Returns ("", original) when no valid label prefix is present.
func splitLabel(trimmed string) (label, rest string) {
	idx := strings.IndexByte(trimmed, ':')
	if idx < 0 {
		return "", trimmed
	}
	candidate := trimmed[:idx]
	if !IsValidLabel(candidate) {
		return "", trimmed
	}
	return candidate, trimmed[idx+1:]
}

func parseDirective(text string, pos SourceLocation) (Directive, error) {
	tokens := tokenize(text)
	name := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch name {
	case ".org":
		if len(args) != 1 {
			return Directive{}, NewError(pos, ErrMissingOperand, ".org requires one address argument")
		}
		v, ok := parseNumericLiteral(args[0])
		if !ok || v < 0 || v > 0xFFFF {
			return Directive{}, NewError(pos, ErrInvalidDirectiveValue, ".org address out of range")
		}
		return Directive{Kind: DirOrg, OrgAddress: uint32(v)}, nil

	case ".word":
		if len(args) != 1 {
			return Directive{}, NewError(pos, ErrMissingOperand, ".word requires one value argument")
		}
		v, ok := parseNumericLiteral(args[0])
		if !ok || v < 0 || v > 0xFFFF {
			return Directive{}, NewError(pos, ErrInvalidDirectiveValue, ".word value out of range")
		}
		return Directive{Kind: DirWord, WordValue: uint16(v)}, nil

	case ".byte":
		if len(args) != 1 {
			return Directive{}, NewError(pos, ErrMissingOperand, ".byte requires one value argument")
		}
		v, ok := parseNumericLiteral(args[0])
		if !ok || v < 0 || v > 0xFF {
			return Directive{}, NewError(pos, ErrInvalidDirectiveValue, ".byte value out of range")
		}
		return Directive{Kind: DirByte, ByteValue: uint8(v)}, nil

	case ".ascii":
		if len(args) != 1 {
			return Directive{}, NewError(pos, ErrMissingOperand, ".ascii requires one string argument")
		}
		s, ok := parseQuotedString(args[0])
		if !ok {
			return Directive{}, NewError(pos, ErrUnterminatedString, "unterminated string literal")
		}
		return Directive{Kind: DirAscii, AsciiValue: s}, nil

	case ".zero":
		if len(args) != 1 {
			return Directive{}, NewError(pos, ErrMissingOperand, ".zero requires one count argument")
		}
		v, ok := parseNumericLiteral(args[0])
		if !ok || v < 0 {
			return Directive{}, NewError(pos, ErrInvalidDirectiveValue, ".zero count out of range")
		}
		return Directive{Kind: DirZero, ZeroCount: int(v)}, nil

	case ".include":
		if len(args) != 1 {
			return Directive{}, NewError(pos, ErrMissingOperand, ".include requires one path argument")
		}
		s, ok := parseQuotedString(args[0])
		if !ok {
			return Directive{}, NewError(pos, ErrUnterminatedString, "unterminated string literal")
		}
		return Directive{Kind: DirInclude, IncludePath: s}, nil

	default:
		return Directive{}, NewError(pos, ErrInvalidDirective, "unknown directive "+tokens[0])
	}
}

func parseInstruction(text string, pos SourceLocation) (ParsedInstruction, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return ParsedInstruction{}, NewError(pos, ErrInvalidSyntax, "empty instruction")
	}
	mnemonic := tokens[0]
	operandTokens := tokens[1:]
	hasOperand := len(operandTokens) > 0

	res, ok := ResolveMnemonicWithOperandForm(mnemonic, hasOperand)
	if !ok {
		return ParsedInstruction{}, NewError(pos, ErrUnknownMnemonic, "unknown mnemonic "+mnemonic)
	}

	instr := ParsedInstruction{Mnemonic: strings.ToUpper(mnemonic), Op: res.Op, Sub: res.Sub, Encoding: res.Encoding}

	if err := parseOperandsForEncoding(&instr, res.Encoding, mnemonic, operandTokens, pos); err != nil {
		return ParsedInstruction{}, err
	}

	instr.Size = SizeOneWord
	if instr.Operand.Kind == OperandMemory && instr.Operand.Memory.Displacement != nil {
		instr.Size = SizeTwoWord
	}
	if instr.Operand.Kind == OperandImmediate {
		instr.Size = SizeTwoWord
	}
	return instr, nil
}

func parseRegisterToken(tok string, pos SourceLocation) (Register, error) {
	if len(tok) < 2 || (tok[0] != 'R' && tok[0] != 'r') {
		return 0, NewError(pos, ErrInvalidRegister, "expected register, got "+tok)
	}
	v, ok := parseNumericLiteral(tok[1:])
	if !ok || v < 0 || v > 7 {
		return 0, NewError(pos, ErrInvalidRegister, "register out of range: "+tok)
	}
	return Register(v), nil
}

func parseOperandToken(tok string, pos SourceLocation) (Operand, error) {
	switch {
	case strings.HasPrefix(tok, "["):
		return parseMemoryOperandToken(tok, pos)
	case strings.HasPrefix(tok, "#"):
		return parseImmediateToken(tok[1:], pos)
	case (tok[0] == 'R' || tok[0] == 'r') && len(tok) > 1 && isAsciiDigit(tok[1]):
		r, err := parseRegisterToken(tok, pos)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Kind: OperandRegister, Register: r}, nil
	default:
		return parseImmediateToken(tok, pos)
	}
}

func isAsciiDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseImmediateToken(tok string, pos SourceLocation) (Operand, error) {
	if IsValidLabel(tok) {
		return Operand{Kind: OperandImmediate, IsLabel: true, LabelName: tok}, nil
	}
	v, ok := parseNumericLiteral(tok)
	if !ok {
		return Operand{}, NewError(pos, ErrInvalidImmediate, "invalid immediate "+tok)
	}
	return Operand{Kind: OperandImmediate, ImmValue: v}, nil
}

func parseMemoryOperandToken(tok string, pos SourceLocation) (Operand, error) {
	if !strings.HasSuffix(tok, "]") {
		return Operand{}, NewError(pos, ErrInvalidSyntax, "unterminated memory operand "+tok)
	}
	inner := tok[1 : len(tok)-1]
	var baseTok, dispTok string
	var sign int64 = 1
	if i := strings.IndexAny(inner, "+-"); i >= 0 {
		baseTok = inner[:i]
		dispTok = inner[i+1:]
		if inner[i] == '-' {
			sign = -1
		}
	} else {
		baseTok = inner
	}
	base, err := parseRegisterToken(strings.TrimSpace(baseTok), pos)
	if err != nil {
		return Operand{}, err
	}
	mo := MemoryOperand{Base: base}
	if dispTok != "" {
		v, ok := parseNumericLiteral(strings.TrimSpace(dispTok))
		if !ok || v*sign < -128 || v*sign > 127 {
			return Operand{}, NewError(pos, ErrInvalidDisplacement, "displacement out of range in "+tok)
		}
		d := int16(v * sign)
		mo.Displacement = &d
	}
	return Operand{Kind: OperandMemory, Memory: mo}, nil
}

// parseOperandsForEncoding dispatches operand-token parsing per instruction
// arity class, per spec.md section 4.10 step 7 and the operand-form table
// observed in the original assembler's parser.
func parseOperandsForEncoding(instr *ParsedInstruction, enc core.OpcodeEncoding, mnemonic string, tokens []string, pos SourceLocation) error {
	switch enc {
	case core.EncNop, core.EncSync, core.EncHalt, core.EncTrap, core.EncSwi, core.EncEwait:
		return expectOperandCount(tokens, 0, pos)

	case core.EncEret:
		return expectOperandCount(tokens, 0, pos)

	case core.EncPush, core.EncPop, core.EncEget:
		if len(tokens) != 1 {
			return NewError(pos, ErrMissingOperand, mnemonic+" requires exactly one register operand")
		}
		r, err := parseRegisterToken(tokens[0], pos)
		if err != nil {
			return err
		}
		instr.RD = r
		return nil

	case core.EncJmp, core.EncBeq, core.EncBne, core.EncBlt, core.EncBle, core.EncBgt, core.EncBge:
		if len(tokens) != 1 {
			return NewError(pos, ErrMissingOperand, mnemonic+" requires exactly one target operand")
		}
		op, err := parseOperandToken(tokens[0], pos)
		if err != nil {
			return err
		}
		instr.Operand = op
		return nil

	case core.EncCallOrRet:
		if strings.EqualFold(mnemonic, retMnemonic) {
			if len(tokens) != 0 {
				return NewError(pos, ErrUnexpectedOperand, "RET takes no operand")
			}
			instr.RD = 1 // RET discriminator, see core.executeInstruction
			return nil
		}
		if len(tokens) != 1 {
			return NewError(pos, ErrMissingOperand, "CALL requires exactly one target operand")
		}
		op, err := parseOperandToken(tokens[0], pos)
		if err != nil {
			return err
		}
		instr.RD = 0 // CALL discriminator
		instr.Operand = op
		return nil

	case core.EncMov, core.EncLoad, core.EncStore:
		if len(tokens) < 1 {
			return NewError(pos, ErrMissingOperand, mnemonic+" requires a destination register")
		}
		r, err := parseRegisterToken(tokens[0], pos)
		if err != nil {
			return err
		}
		instr.RD = r
		instr.RA = r // no explicit base register; encoder treats RA==RD as "unset"
		if len(tokens) == 1 {
			return nil
		}
		if len(tokens) != 2 {
			return NewError(pos, ErrUnexpectedOperand, mnemonic+" takes at most two operands")
		}
		op, err := parseOperandToken(tokens[1], pos)
		if err != nil {
			return err
		}
		instr.Operand = op
		if op.Kind == OperandMemory {
			instr.RA = op.Memory.Base
		}
		return nil

	case core.EncIn:
		if len(tokens) < 1 {
			return NewError(pos, ErrMissingOperand, "IN requires a destination register")
		}
		r, err := parseRegisterToken(tokens[0], pos)
		if err != nil {
			return err
		}
		instr.RD = r
		instr.RA = r // no explicit base register; encoder treats RA==RD as "unset"
		if len(tokens) == 1 {
			return nil
		}
		op, err := parseOperandToken(tokens[1], pos)
		if err != nil {
			return err
		}
		instr.Operand = op
		if op.Kind == OperandMemory {
			instr.RA = op.Memory.Base
		}
		return nil

	case core.EncOut:
		if len(tokens) < 1 {
			return NewError(pos, ErrMissingOperand, "OUT requires a source register")
		}
		r, err := parseRegisterToken(tokens[0], pos)
		if err != nil {
			return err
		}
		// RD carries the source register (OUT writes no register of its
		// own); RA==RD signals "no explicit addressing base yet" to the
		// encoder, overridden below when the port operand is addressed.
		instr.RD = r
		instr.RA = r
		if len(tokens) == 1 {
			return nil
		}
		op, err := parseOperandToken(tokens[1], pos)
		if err != nil {
			return err
		}
		instr.Operand = op
		if op.Kind == OperandMemory {
			instr.RA = op.Memory.Base
		}
		return nil

	case core.EncBset, core.EncBclr, core.EncBtest:
		if len(tokens) < 1 {
			return NewError(pos, ErrMissingOperand, mnemonic+" requires a bit-index register")
		}
		r, err := parseRegisterToken(tokens[0], pos)
		if err != nil {
			return err
		}
		instr.RD = r
		instr.RA = r
		if len(tokens) == 1 {
			return nil
		}
		op, err := parseOperandToken(tokens[1], pos)
		if err != nil {
			return err
		}
		instr.Operand = op
		if op.Kind == OperandMemory {
			instr.RA = op.Memory.Base
		}
		return nil

	default: // ALU/math family: rd [, ra] [, operand]
		if len(tokens) < 1 {
			return NewError(pos, ErrMissingOperand, mnemonic+" requires a destination register")
		}
		rd, err := parseRegisterToken(tokens[0], pos)
		if err != nil {
			return err
		}
		instr.RD = rd
		switch len(tokens) {
		case 1:
			instr.RA = rd
			return nil
		case 2:
			instr.RA = rd
			op, err := parseOperandToken(tokens[1], pos)
			if err != nil {
				return err
			}
			instr.Operand = op
			return nil
		case 3:
			ra, err := parseRegisterToken(tokens[1], pos)
			if err != nil {
				return err
			}
			instr.RA = ra
			op, err := parseOperandToken(tokens[2], pos)
			if err != nil {
				return err
			}
			instr.Operand = op
			return nil
		default:
			return NewError(pos, ErrUnexpectedOperand, mnemonic+" takes at most three operands")
		}
	}
}

func expectOperandCount(tokens []string, n int, pos SourceLocation) error {
	if len(tokens) != n {
		if len(tokens) > n {
			return NewError(pos, ErrUnexpectedOperand, "unexpected operand")
		}
		return NewError(pos, ErrMissingOperand, "missing operand")
	}
	return nil
}
