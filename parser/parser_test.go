package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/parser"
)

func TestParseLineBlankAndLabel(t *testing.T) {
	pl, warn, err := parser.ParseLine("   ; just a comment", "f.n1", 1)
	require.NoError(t, err)
	require.Nil(t, warn)
	require.Equal(t, parser.LineBlank, pl.Kind)

	pl, _, err = parser.ParseLine("loop:", "f.n1", 2)
	require.NoError(t, err)
	require.Equal(t, parser.LineLabel, pl.Kind)
	require.Equal(t, "loop", pl.Label)
}

func TestParseLineSimpleInstruction(t *testing.T) {
	pl, _, err := parser.ParseLine("MOV R0, #5", "f.n1", 1)
	require.NoError(t, err)
	require.Equal(t, parser.LineInstruction, pl.Kind)
	require.Equal(t, core.EncMov, pl.Instruction.Encoding)
	require.Equal(t, parser.Register(0), pl.Instruction.RD)
	require.Equal(t, parser.OperandImmediate, pl.Instruction.Operand.Kind)
	require.Equal(t, int64(5), pl.Instruction.Operand.ImmValue)
}

func TestParseLineMemoryOperand(t *testing.T) {
	pl, _, err := parser.ParseLine("LOAD R1, [R2+4]", "f.n1", 1)
	require.NoError(t, err)
	require.Equal(t, core.EncLoad, pl.Instruction.Encoding)
	require.Equal(t, parser.Register(2), pl.Instruction.RA)
	require.NotNil(t, pl.Instruction.Operand.Memory.Displacement)
	require.Equal(t, int16(4), *pl.Instruction.Operand.Memory.Displacement)
}

func TestParseLineCallAndRetDisambiguation(t *testing.T) {
	call, _, err := parser.ParseLine("CALL #target", "f.n1", 1)
	require.NoError(t, err)
	require.Equal(t, core.EncCallOrRet, call.Instruction.Encoding)
	require.Equal(t, parser.Register(0), call.Instruction.RD)

	ret, _, err := parser.ParseLine("RET", "f.n1", 2)
	require.NoError(t, err)
	require.Equal(t, core.EncCallOrRet, ret.Instruction.Encoding)
	require.Equal(t, parser.Register(1), ret.Instruction.RD)

	_, _, err = parser.ParseLine("CALL", "f.n1", 3)
	require.Error(t, err)

	_, _, err = parser.ParseLine("RET #target", "f.n1", 4)
	require.Error(t, err)
}

func TestParseLineThreeOperandAlu(t *testing.T) {
	pl, _, err := parser.ParseLine("ADD R0, R1, #2", "f.n1", 1)
	require.NoError(t, err)
	require.Equal(t, parser.Register(0), pl.Instruction.RD)
	require.Equal(t, parser.Register(1), pl.Instruction.RA)
	require.Equal(t, parser.OperandImmediate, pl.Instruction.Operand.Kind)
}

func TestParseLineDirectives(t *testing.T) {
	pl, _, err := parser.ParseLine(".org 0x1000", "f.n1", 1)
	require.NoError(t, err)
	require.Equal(t, parser.DirOrg, pl.Directive.Kind)
	require.Equal(t, uint32(0x1000), pl.Directive.OrgAddress)

	pl, _, err = parser.ParseLine(`.ascii "hi"`, "f.n1", 2)
	require.NoError(t, err)
	require.Equal(t, "hi", pl.Directive.AsciiValue)
}

func TestParseLineUnknownMnemonic(t *testing.T) {
	_, _, err := parser.ParseLine("FROB R0", "f.n1", 1)
	require.Error(t, err)
	var perr *parser.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, parser.ErrUnknownMnemonic, perr.Kind)
}
