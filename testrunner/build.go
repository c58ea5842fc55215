package testrunner

import "github.com/lucaspiller/n1core/source"

// BuildBlocks converts the raw literate test blocks from an include
// expansion into parsed TestBlocks, ready for Run.
func BuildBlocks(expanded [][]source.ExpandedLine) ([]TestBlock, error) {
	var out []TestBlock
	for _, block := range expanded {
		if len(block) == 0 {
			continue
		}
		lines := make([]string, len(block))
		for i, l := range block {
			lines[i] = l.Text
		}
		assertions, err := ParseBlock(lines, block[0].Line)
		if err != nil {
			return nil, err
		}
		out = append(out, TestBlock{Assertions: assertions, File: block[0].File, StartLine: block[0].Line})
	}
	return out, nil
}
