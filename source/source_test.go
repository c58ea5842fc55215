package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucaspiller/n1core/source"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExpandPlainFileNoIncludes(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "main.n1", "NOP\nHALT\n")

	result, err := source.Expand(root)
	require.NoError(t, err)
	require.Len(t, result.AssemblyLines, 2)
	require.Equal(t, "NOP", result.AssemblyLines[0].Text)
	require.Equal(t, "HALT", result.AssemblyLines[1].Text)
	require.Empty(t, result.TestBlocks)
}

func TestExpandResolvesIncludeRelativeToIncludingFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "macros.n1", "NOP\n")
	root := writeFile(t, dir, "main.n1", `.include "lib/macros.n1"`+"\nHALT\n")

	result, err := source.Expand(root)
	require.NoError(t, err)
	require.Len(t, result.AssemblyLines, 2)
	require.Equal(t, "NOP", result.AssemblyLines[0].Text)
	require.Equal(t, "macros.n1", filepath.Base(result.AssemblyLines[0].File))
	require.Equal(t, "HALT", result.AssemblyLines[1].Text)
}

func TestExpandDetectsCircularInclude(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.n1")
	b := filepath.Join(dir, "b.n1")
	require.NoError(t, os.WriteFile(a, []byte(`.include "b.n1"`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(`.include "a.n1"`+"\n"), 0o644))

	_, err := source.Expand(a)
	require.Error(t, err)
	var serr *source.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, source.ErrCircularInclude, serr.Kind)
}

func TestExpandMissingFileErrors(t *testing.T) {
	_, err := source.Expand(filepath.Join(t.TempDir(), "missing.n1"))
	require.Error(t, err)
	var serr *source.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, source.ErrFileNotFound, serr.Kind)
}

func TestExpandLiterateMarkdownGroupsTestBlocks(t *testing.T) {
	dir := t.TempDir()
	content := "" +
		"# Demo\n\n" +
		"```n1asm\n" +
		"MOV R0, #1\n" +
		"HALT\n" +
		"```\n\n" +
		"```n1test\n" +
		"R0==1\n" +
		"```\n\n" +
		"some prose in between\n\n" +
		"```n1test\n" +
		"PC!=0\n" +
		"```\n"
	root := writeFile(t, dir, "demo.n1.md", content)

	result, err := source.Expand(root)
	require.NoError(t, err)
	require.Len(t, result.AssemblyLines, 2)
	require.Equal(t, "MOV R0, #1", result.AssemblyLines[0].Text)
	require.Equal(t, "HALT", result.AssemblyLines[1].Text)

	require.Len(t, result.TestBlocks, 2)
	require.Len(t, result.TestBlocks[0], 1)
	require.Equal(t, "R0==1", result.TestBlocks[0][0].Text)
	require.Len(t, result.TestBlocks[1], 1)
	require.Equal(t, "PC!=0", result.TestBlocks[1][0].Text)
}
