package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucaspiller/n1core/loader"
)

func writeSource(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.n1")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAssembleEmitsOutsideROMWarning(t *testing.T) {
	path := writeSource(t, ".org 0x4000\nNOP\n")
	result, err := loader.Assemble(path)
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0].Message, "outside ROM region")
	require.Contains(t, result.Warnings[0].Message, "0x4000")
	require.EqualValues(t, 0x4002, result.Output.HighWater)
}

func TestAssembleProducesNoWarningsForCodeInsideROM(t *testing.T) {
	path := writeSource(t, "NOP\nHALT\n")
	result, err := loader.Assemble(path)
	require.NoError(t, err)
	require.Empty(t, result.Warnings)
}
