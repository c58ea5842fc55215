package symbols

import (
	"fmt"

	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/parser"
)

// CheckROMBounds walks a pass-1 assignment and warns about every
// instruction whose assigned address falls outside the ROM region
// (spec.md section 6's "code at address X is outside ROM region"). It is a
// non-fatal advisory: code executing from RAM is otherwise unremarkable,
// since core.DecodeRegion permits fetch from both ROM and RAM.
func CheckROMBounds(assignment *Assignment, filename string) []parser.Warning {
	var warnings []parser.Warning
	for _, al := range assignment.Lines {
		if al.Line.Kind != parser.LineInstruction {
			continue
		}
		if al.Address > core.ROMEnd {
			warnings = append(warnings, parser.Warning{
				Pos: parser.SourceLocation{
					File:   filename,
					Line:   al.Line.SourceLine,
					Column: 1,
				},
				Message: fmt.Sprintf("code at address 0x%04X is outside ROM region", al.Address),
			})
		}
	}
	return warnings
}
