// Package source turns a root assembly path into a flat stream of source
// lines ready for the parser: it extracts fenced code from literate
// Markdown (via goldmark) and recursively expands `.include` directives,
// detecting circular includes and tracking the chain used to render
// "included from" diagnostics, per spec.md section 4.9.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/lucaspiller/n1core/parser"
)

// RawLine is one physical source line before include expansion, tagged
// with its original 1-indexed line number within its own file.
type RawLine struct {
	Text string
	Line int
}

// ExpandedLine is one source line after include expansion: its text, the
// file it came from, its original line number in that file, and the
// include chain (outermost first) that pulled it in.
type ExpandedLine struct {
	Text  string
	File  string
	Line  int
	Chain []parser.IncludeFrame
}

// ExpandResult is the complete expanded stream: assembly lines in document
// order, plus literate test blocks (each a group of lines from one fenced
// `n1test` block) collected in document order across the entire expansion.
type ExpandResult struct {
	AssemblyLines []ExpandedLine
	TestBlocks    [][]ExpandedLine
}

var includeDirective = regexp.MustCompile(`^\s*\.include\s+"([^"]*)"\s*$`)

// isLiteratePath reports whether path's filename matches the literate
// suffix, case-insensitively: ".n1.md" or plain ".md".
func isLiteratePath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".n1.md") || strings.HasSuffix(lower, ".md")
}

// readLinesPlain splits src into RawLines, one per physical line, 1-indexed.
func readLinesPlain(src []byte) []RawLine {
	var out []RawLine
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		out = append(out, RawLine{Text: scanner.Text(), Line: n})
	}
	return out
}

// lineStartOffsets returns, for each 1-indexed line, the byte offset its
// first character starts at (index 0 unused, index 1 is line 1's start).
func lineStartOffsets(src []byte) []int {
	starts := []int{0, 0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineNumberForOffset(starts []int, offset int) int {
	// starts is sorted ascending by construction; find the last start <= offset.
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
	if i == 0 {
		return 1
	}
	return i
}

// extractLiterate walks src's Markdown AST for fenced code blocks whose
// info string starts with "n1asm" (assembly) or "n1test" (test blocks),
// preserving each contained line's original line number.
func extractLiterate(src []byte) (asmLines []RawLine, testBlocks [][]RawLine) {
	reader := text.NewReader(src)
	p := gmparser.NewParser(gmparser.WithBlockParsers(gmparser.DefaultBlockParsers()...))
	doc := p.Parse(reader)
	starts := lineStartOffsets(src)

	gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		fcb, ok := n.(*gast.FencedCodeBlock)
		if !ok {
			return gast.WalkContinue, nil
		}
		info := ""
		if fcb.Info != nil {
			info = string(fcb.Info.Text(src))
		}
		fields := strings.Fields(info)
		tag := ""
		if len(fields) > 0 {
			tag = strings.ToLower(fields[0])
		}
		if !strings.HasPrefix(tag, "n1asm") && !strings.HasPrefix(tag, "n1test") {
			return gast.WalkSkipChildren, nil
		}

		lines := fcb.Lines()
		var block []RawLine
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			lineText := strings.TrimRight(string(seg.Value(src)), "\n")
			lineNo := lineNumberForOffset(starts, seg.Start)
			block = append(block, RawLine{Text: lineText, Line: lineNo})
		}
		if strings.HasPrefix(tag, "n1asm") {
			asmLines = append(asmLines, block...)
		} else {
			testBlocks = append(testBlocks, block)
		}
		return gast.WalkSkipChildren, nil
	})
	return asmLines, testBlocks
}

// extractFile reads path and splits it into assembly raw lines and test
// blocks (each a group of raw lines from one fenced `n1test` block), taking
// the literate extraction path when the filename matches.
func extractFile(path string) (asmLines []RawLine, testBlocks [][]RawLine, err error) {
	data, ioErr := os.ReadFile(path)
	if ioErr != nil {
		if os.IsNotExist(ioErr) {
			return nil, nil, &Error{Path: path, Kind: ErrFileNotFound, Message: ioErr.Error()}
		}
		return nil, nil, &Error{Path: path, Kind: ErrIoError, Message: ioErr.Error()}
	}
	if isLiteratePath(path) {
		asm, blocks := extractLiterate(data)
		return asm, blocks, nil
	}
	return readLinesPlain(data), nil, nil
}

type expander struct {
	visited    map[string]bool
	testBlocks [][]ExpandedLine
}

// Expand reads rootPath and produces the fully include-expanded line
// stream, plus every literate test block encountered, in document order.
func Expand(rootPath string) (*ExpandResult, error) {
	e := &expander{visited: make(map[string]bool)}
	asm, err := e.expandFile(rootPath, nil)
	if err != nil {
		return nil, err
	}
	return &ExpandResult{AssemblyLines: asm, TestBlocks: e.testBlocks}, nil
}

func (e *expander) expandFile(path string, chain []parser.IncludeFrame) ([]ExpandedLine, error) {
	canon, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Path: path, Kind: ErrIoError, Message: err.Error(), Chain: chain}
	}
	if e.visited[canon] {
		return nil, &Error{Path: path, Kind: ErrCircularInclude, Message: fmt.Sprintf("circular include of %s", path), Chain: chain}
	}
	e.visited[canon] = true
	defer delete(e.visited, canon)

	asmRaw, testBlockRaw, err := extractFile(path)
	if err != nil {
		if se, ok := err.(*Error); ok {
			se.Chain = chain
			return nil, se
		}
		return nil, err
	}

	for _, block := range testBlockRaw {
		var expandedBlock []ExpandedLine
		for _, rl := range block {
			expandedBlock = append(expandedBlock, ExpandedLine{Text: rl.Text, File: path, Line: rl.Line, Chain: chain})
		}
		e.testBlocks = append(e.testBlocks, expandedBlock)
	}

	var out []ExpandedLine
	dir := filepath.Dir(path)
	for _, rl := range asmRaw {
		if m := includeDirective.FindStringSubmatch(rl.Text); m != nil {
			incPath := m[1]
			if !filepath.IsAbs(incPath) {
				incPath = filepath.Join(dir, incPath)
			}
			childChain := append(append([]parser.IncludeFrame{}, chain...), parser.IncludeFrame{File: path, Line: rl.Line})
			expanded, err := e.expandFile(incPath, childChain)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		out = append(out, ExpandedLine{Text: rl.Text, File: path, Line: rl.Line, Chain: chain})
	}
	return out, nil
}
