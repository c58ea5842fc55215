package tools_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucaspiller/n1core/parser"
	"github.com/lucaspiller/n1core/symbols"
	"github.com/lucaspiller/n1core/tools"
)

func assemble(t *testing.T, src string) *symbols.Assignment {
	t.Helper()
	var lines []parser.ParsedLine
	for i, text := range strings.Split(src, "\n") {
		pl, _, err := parser.ParseLine(text, "test.n1", i+1)
		require.NoError(t, err)
		lines = append(lines, pl)
	}
	assignment, err := symbols.AssignAddressesWithLines(lines, "test.n1")
	require.NoError(t, err)
	return assignment
}

func TestFormatListingIncludesAddressesAndBytes(t *testing.T) {
	assignment := assemble(t, "NOP\nHALT\n")
	out, err := tools.FormatListing(assignment, "test.n1", nil)
	require.NoError(t, err)
	require.Contains(t, out, "0000")
	require.Contains(t, out, "00 00")
}

func TestBuildXRefReportsLabelReferencers(t *testing.T) {
	assignment := assemble(t, "loop:\nNOP\nJMP #loop\n")
	entries := tools.BuildXRef(assignment)
	require.Len(t, entries, 1)
	require.Equal(t, "loop", entries[0].Name)
	require.Len(t, entries[0].Referencers, 1)
}

func TestLintFlagsUnusedLabelAndMissingHalt(t *testing.T) {
	assignment := assemble(t, "unused:\nNOP\n")
	issues := tools.Lint(assignment, nil)

	var sawUnused, sawNoHalt bool
	for _, iss := range issues {
		if iss.Code == "UNUSED_LABEL" {
			sawUnused = true
		}
		if iss.Code == "NO_HALT" {
			sawNoHalt = true
		}
	}
	require.True(t, sawUnused)
	require.True(t, sawNoHalt)
}

func TestLintFlagsUnreachableCode(t *testing.T) {
	assignment := assemble(t, "JMP #done\nNOP\ndone:\nHALT\n")
	issues := tools.Lint(assignment, nil)

	var sawUnreachable bool
	for _, iss := range issues {
		if iss.Code == "UNREACHABLE_CODE" {
			sawUnreachable = true
		}
	}
	require.True(t, sawUnreachable)
}
