package testrunner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/encoder"
	"github.com/lucaspiller/n1core/parser"
	"github.com/lucaspiller/n1core/symbols"
	"github.com/lucaspiller/n1core/testrunner"
)

func TestParseAssertionForms(t *testing.T) {
	a, err := testrunner.ParseAssertion("R0==5", 1)
	require.NoError(t, err)
	require.Equal(t, testrunner.AssertRegister, a.Kind)
	require.Equal(t, uint8(0), a.Register)
	require.False(t, a.Negate)
	require.Equal(t, int64(5), a.Expected)

	a, err = testrunner.ParseAssertion("PC!=0x10", 2)
	require.NoError(t, err)
	require.Equal(t, testrunner.AssertPC, a.Kind)
	require.True(t, a.Negate)
	require.Equal(t, int64(0x10), a.Expected)

	a, err = testrunner.ParseAssertion("[0x100]==0xFF", 3)
	require.NoError(t, err)
	require.Equal(t, testrunner.AssertMemory, a.Kind)
	require.Equal(t, uint16(0x100), a.Address)
	require.Equal(t, int64(0xFF), a.Expected)
}

func TestParseAssertionMalformed(t *testing.T) {
	_, err := testrunner.ParseAssertion("not an assertion", 1)
	require.Error(t, err)
	var merr *testrunner.MalformedAssertionError
	require.ErrorAs(t, err, &merr)
}

func assembleImage(t *testing.T, src string) [core.MemorySize]byte {
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
	return out.Image
}

func TestRunEvaluatesAssertionsAtHalt(t *testing.T) {
	image := assembleImage(t, "MOV R0, #7\nHALT\n")
	blocks := []testrunner.TestBlock{
		{Assertions: []testrunner.Assertion{{Kind: testrunner.AssertRegister, Register: 0, Expected: 7}}},
	}

	result := testrunner.Run(image, blocks, core.ProfileAuthority)
	require.True(t, result.Success())
	require.Equal(t, 1, result.HaltsReached)
	require.Equal(t, 0, result.Unexecuted)
}

func TestRunFailsAssertionOnMismatch(t *testing.T) {
	image := assembleImage(t, "MOV R0, #7\nHALT\n")
	blocks := []testrunner.TestBlock{
		{Assertions: []testrunner.Assertion{{Kind: testrunner.AssertRegister, Register: 0, Expected: 9}}},
	}

	result := testrunner.Run(image, blocks, core.ProfileAuthority)
	require.False(t, result.Success())
	require.False(t, result.Blocks[0].Passed())
}

func TestRunMarksTrailingBlocksUnexecuted(t *testing.T) {
	image := assembleImage(t, "HALT\n")
	blocks := []testrunner.TestBlock{
		{Assertions: []testrunner.Assertion{{Kind: testrunner.AssertPC, Expected: 0}}},
		{Assertions: []testrunner.Assertion{{Kind: testrunner.AssertPC, Expected: 0}}},
	}

	result := testrunner.Run(image, blocks, core.ProfileAuthority)
	require.Equal(t, 1, result.HaltsReached)
	require.Equal(t, 1, result.Unexecuted)
	require.False(t, result.Success())
}
