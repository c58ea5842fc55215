package encoder_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/encoder"
	"github.com/lucaspiller/n1core/symbols"

	"github.com/lucaspiller/n1core/parser"
)

func assemble(t *testing.T, src string) *encoder.EncodedOutput {
	t.Helper()
	var lines []parser.ParsedLine
	for i, text := range strings.Split(src, "\n") {
		pl, _, err := parser.ParseLine(text, "test.n1", i+1)
		require.NoError(t, err)
		lines = append(lines, pl)
	}
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)
	out, err := encoder.Encode(assignment, "test.n1")
	require.NoError(t, err)
	return out
}

func TestEncodeMovImmediateUsesImmediateMode(t *testing.T) {
	out := assemble(t, "MOV R0, #5\n")
	word := uint16(out.Image[0])<<8 | uint16(out.Image[1])
	am := core.AddressingMode(word & 0x7)
	require.Equal(t, core.AmImmediate, am)
	ext := uint16(out.Image[2])<<8 | uint16(out.Image[3])
	require.Equal(t, uint16(5), ext)
}

func TestEncodeLoadAbsoluteUsesZeroExtendedDisplacement(t *testing.T) {
	out := assemble(t, "LOAD R0, #0x200\n")
	word := uint16(out.Image[0])<<8 | uint16(out.Image[1])
	am := core.AddressingMode(word & 0x7)
	require.Equal(t, core.AmZeroExtendedDisplacement, am)
	ext := uint16(out.Image[2])<<8 | uint16(out.Image[3])
	require.Equal(t, uint16(0x200), ext)
}

func TestEncodeBranchUsesPcRelativeDisplacement(t *testing.T) {
	out := assemble(t, "JMP #target\nNOP\ntarget:\nHALT\n")
	word := uint16(out.Image[0])<<8 | uint16(out.Image[1])
	am := core.AddressingMode(word & 0x7)
	require.Equal(t, core.AmPCRelative, am)
	ext := int16(uint16(out.Image[2])<<8 | uint16(out.Image[3]))
	// JMP is 4 bytes, so pcNext=4; target is at address 6.
	require.Equal(t, int16(2), ext)
}

func TestEncodeMemoryDisplacementWithinRange(t *testing.T) {
	out := assemble(t, "LOAD R0, [R1+4]\n")
	word := uint16(out.Image[0])<<8 | uint16(out.Image[1])
	am := core.AddressingMode(word & 0x7)
	require.Equal(t, core.AmSignExtendedDisplacement, am)
}

func TestEncodeUndefinedLabelErrors(t *testing.T) {
	var lines []parser.ParsedLine
	for i, text := range strings.Split("JMP #nowhere\n", "\n") {
		pl, _, err := parser.ParseLine(text, "test.n1", i+1)
		require.NoError(t, err)
		lines = append(lines, pl)
	}
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)

	_, err = encoder.Encode(assignment, "test.n1")
	require.Error(t, err)
	var eerr *encoder.EncodeError
	require.ErrorAs(t, err, &eerr)
	require.Equal(t, encoder.ErrUndefinedLabel, eerr.Kind)
}

func TestEncodeDisplacementOutOfRangeRejectedAtParse(t *testing.T) {
	// [-128..127] is enforced at parse time already, before the encoder
	// ever sees the operand.
	_, _, err := parser.ParseLine("LOAD R0, [R1+200]", "test.n1", 1)
	require.Error(t, err)
	var perr *parser.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, parser.ErrInvalidDisplacement, perr.Kind)
}

func TestEncodeImmediateOutOfRangeErrors(t *testing.T) {
	var lines []parser.ParsedLine
	for i, text := range strings.Split("MOV R0, #0x10000\n", "\n") {
		pl, _, err := parser.ParseLine(text, "test.n1", i+1)
		require.NoError(t, err)
		lines = append(lines, pl)
	}
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)
	_, err = encoder.Encode(assignment, "test.n1")
	require.Error(t, err)
	var eerr *encoder.EncodeError
	require.ErrorAs(t, err, &eerr)
	require.Equal(t, encoder.ErrImmediateOutOfRange, eerr.Kind)
}

func TestEncodeNegativeImmediateErrors(t *testing.T) {
	var lines []parser.ParsedLine
	for i, text := range strings.Split("MOV R0, #-1\n", "\n") {
		pl, _, err := parser.ParseLine(text, "test.n1", i+1)
		require.NoError(t, err)
		lines = append(lines, pl)
	}
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)
	_, err = encoder.Encode(assignment, "test.n1")
	require.Error(t, err)
	var eerr *encoder.EncodeError
	require.ErrorAs(t, err, &eerr)
	require.Equal(t, encoder.ErrImmediateOutOfRange, eerr.Kind)
}
