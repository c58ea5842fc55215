package tools

import (
	"fmt"

	"github.com/lucaspiller/n1core/parser"
	"github.com/lucaspiller/n1core/symbols"
)

// LintLevel represents the severity of a lint issue.
type LintLevel int

const (
	LintError   LintLevel = iota // undefined references, structural problems
	LintWarning                  // likely mistakes that still assemble
	LintInfo                     // style suggestions
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue is a single lint finding.
type LintIssue struct {
	Level   LintLevel
	Line    int
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d: %s: %s [%s]", i.Line, i.Level, i.Message, i.Code)
}

// LintOptions controls linter behavior.
type LintOptions struct {
	CheckUnusedLabels    bool
	CheckUnreachableCode bool
	CheckFallthroughHalt bool
}

// DefaultLintOptions returns default linter options.
func DefaultLintOptions() *LintOptions {
	return &LintOptions{CheckUnusedLabels: true, CheckUnreachableCode: true, CheckFallthroughHalt: true}
}

// Lint analyzes an already-assigned program for common mistakes: labels
// defined but never referenced, code after an unconditional JMP/RET/HALT
// with no intervening label (dead until something jumps in), and a
// program that contains no HALT instruction at all.
func Lint(assignment *symbols.Assignment, opts *LintOptions) []*LintIssue {
	if opts == nil {
		opts = DefaultLintOptions()
	}
	var issues []*LintIssue

	referenced := make(map[string]bool)
	defLine := make(map[string]int)
	sawHalt := false
	unreachable := false

	for _, al := range assignment.Lines {
		if al.Line.Label != "" {
			if _, ok := defLine[al.Line.Label]; !ok {
				defLine[al.Line.Label] = al.Line.SourceLine
			}
			unreachable = false // a label makes the following code reachable again
		}

		if al.Line.Kind != parser.LineInstruction {
			continue
		}
		instr := al.Line.Instruction

		if opts.CheckUnreachableCode && unreachable {
			issues = append(issues, &LintIssue{
				Level: LintWarning, Line: al.Line.SourceLine,
				Message: "instruction is unreachable: falls after an unconditional transfer with no label",
				Code:    "UNREACHABLE_CODE",
			})
		}

		if instr.Operand.Kind == parser.OperandImmediate && instr.Operand.IsLabel {
			referenced[instr.Operand.LabelName] = true
		}

		switch instr.Mnemonic {
		case "JMP", "RET", "HALT":
			unreachable = true
		}
		if instr.Mnemonic == "HALT" {
			sawHalt = true
		}
	}

	if opts.CheckUnusedLabels {
		for name, line := range defLine {
			if !referenced[name] {
				issues = append(issues, &LintIssue{
					Level: LintInfo, Line: line,
					Message: fmt.Sprintf("label %q is never referenced", name),
					Code:    "UNUSED_LABEL",
				})
			}
		}
	}

	if opts.CheckFallthroughHalt && !sawHalt && len(assignment.Lines) > 0 {
		issues = append(issues, &LintIssue{
			Level: LintWarning, Line: assignment.Lines[len(assignment.Lines)-1].Line.SourceLine,
			Message: "program contains no HALT; execution will run until a fault or budget overrun",
			Code:    "NO_HALT",
		})
	}

	return issues
}
