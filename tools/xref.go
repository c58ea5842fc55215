package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucaspiller/n1core/parser"
	"github.com/lucaspiller/n1core/symbols"
)

// SymbolXRef is one label's definition site plus every line that refers to
// it (branch targets, load/store operands, or plain immediate references).
type SymbolXRef struct {
	Name        string
	Address     uint32
	DefLine     int
	Referencers []int // source lines that name this label
}

// BuildXRef walks assignment and produces one SymbolXRef per defined or
// referenced label, sorted by address; a referenced label that is never
// defined gets Address 0 and DefLine 0.
func BuildXRef(assignment *symbols.Assignment) []SymbolXRef {
	index := make(map[string]*SymbolXRef)
	var order []string

	for _, al := range assignment.Lines {
		if al.Line.Label != "" {
			if _, ok := index[al.Line.Label]; !ok {
				addr, _ := assignment.Symbols.Lookup(al.Line.Label)
				index[al.Line.Label] = &SymbolXRef{Name: al.Line.Label, Address: addr, DefLine: al.Line.SourceLine}
				order = append(order, al.Line.Label)
			}
		}
		if al.Line.Kind != parser.LineInstruction {
			continue
		}
		op := al.Line.Instruction.Operand
		if op.Kind == parser.OperandImmediate && op.IsLabel {
			sym, ok := index[op.LabelName]
			if !ok {
				sym = &SymbolXRef{Name: op.LabelName}
				index[op.LabelName] = sym
				order = append(order, op.LabelName)
			}
			sym.Referencers = append(sym.Referencers, al.Line.SourceLine)
		}
	}

	out := make([]SymbolXRef, 0, len(order))
	for _, name := range order {
		out = append(out, *index[name])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// FormatXRef renders a human-readable cross-reference report.
func FormatXRef(entries []SymbolXRef) string {
	var sb strings.Builder
	for _, e := range entries {
		if len(e.Referencers) == 0 {
			fmt.Fprintf(&sb, "%-20s 0x%04X  (defined at line %d, unreferenced)\n", e.Name, e.Address, e.DefLine)
			continue
		}
		lines := make([]string, len(e.Referencers))
		for i, l := range e.Referencers {
			lines[i] = fmt.Sprintf("%d", l)
		}
		fmt.Fprintf(&sb, "%-20s 0x%04X  (defined at line %d, referenced at %s)\n",
			e.Name, e.Address, e.DefLine, strings.Join(lines, ", "))
	}
	return sb.String()
}
