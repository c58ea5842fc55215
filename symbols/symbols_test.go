package symbols_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/parser"
	"github.com/lucaspiller/n1core/symbols"
)

func parseAll(t *testing.T, src string) []parser.ParsedLine {
	t.Helper()
	var lines []parser.ParsedLine
	for i, text := range strings.Split(src, "\n") {
		pl, _, err := parser.ParseLine(text, "test.n1", i+1)
		require.NoError(t, err)
		lines = append(lines, pl)
	}
	return lines
}

func TestAssignAddressesSequentialInstructions(t *testing.T) {
	lines := parseAll(t, "NOP\nHALT\n")
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)
	require.Equal(t, uint32(0), assignment.Lines[0].Address)
	require.Equal(t, uint32(2), assignment.Lines[1].Address)
}

func TestAssignAddressesLabelsResolveToFollowingInstruction(t *testing.T) {
	lines := parseAll(t, "NOP\nloop:\nHALT\n")
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)

	addr, ok := assignment.Symbols.Lookup("loop")
	require.True(t, ok)
	require.Equal(t, uint32(2), addr)
}

func TestAssignAddressesOrgRelocatesCursor(t *testing.T) {
	lines := parseAll(t, ".org 0x100\nstart:\nNOP\n")
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)

	addr, ok := assignment.Symbols.Lookup("start")
	require.True(t, ok)
	require.Equal(t, uint32(0x100), addr)
}

func TestAssignAddressesOrgBackwardsErrors(t *testing.T) {
	lines := parseAll(t, ".org 0x100\nNOP\n.org 0x10\n")
	_, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.Error(t, err)
	var serr *symbols.SymbolError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, symbols.ErrOrgBackwards, serr.Kind)
}

func TestAssignAddressesDuplicateLabelErrors(t *testing.T) {
	lines := parseAll(t, "dup:\nNOP\ndup:\nHALT\n")
	_, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.Error(t, err)
	var serr *symbols.SymbolError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, symbols.ErrDuplicateLabel, serr.Kind)
}

func TestAssignAddressesDirectiveSizes(t *testing.T) {
	lines := parseAll(t, ".byte 1\n.word 2\nend:\n")
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)

	addr, ok := assignment.Symbols.Lookup("end")
	require.True(t, ok)
	require.Equal(t, uint32(3), addr)
}

func TestCheckROMBoundsWarnsOnCodeOutsideROM(t *testing.T) {
	lines := parseAll(t, ".org 0x4000\nNOP\n")
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)

	warnings := symbols.CheckROMBounds(assignment, "test.n1")
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "0x4000")
}

func TestCheckROMBoundsSilentWhenCodeFitsInROM(t *testing.T) {
	lines := parseAll(t, "NOP\nHALT\n")
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)
	require.Less(t, assignment.Lines[len(assignment.Lines)-1].Address, uint32(core.ROMEnd))

	warnings := symbols.CheckROMBounds(assignment, "test.n1")
	require.Empty(t, warnings)
}
