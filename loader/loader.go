// Package loader drives the full assemble pipeline — include expansion,
// line parsing, pass-1 address assignment, pass-2 encoding — and loads the
// resulting image into a fresh core.CoreState; no peripherals are attached
// here, the caller passes its MMIO bus to RunOne.
package loader

import (
	"fmt"

	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/encoder"
	"github.com/lucaspiller/n1core/parser"
	"github.com/lucaspiller/n1core/source"
	"github.com/lucaspiller/n1core/symbols"
)

// AssembleResult is everything the pipeline produced from one root source
// file: the encoded image, the address assignment (for listings/xref), any
// non-fatal warnings (from parsing and the ROM-bounds check), and the
// literate test blocks found along the
// way (ready for package testrunner).
type AssembleResult struct {
	Output     *encoder.EncodedOutput
	Assignment *symbols.Assignment
	Warnings   []parser.Warning
	TestBlocks [][]source.ExpandedLine
}

// Assemble runs the complete pipeline over rootPath: expand includes and
// literate fences, parse every assembly line, assign addresses and build
// the symbol table, then encode to bytes.
func Assemble(rootPath string) (*AssembleResult, error) {
	expanded, err := source.Expand(rootPath)
	if err != nil {
		return nil, fmt.Errorf("include expansion failed: %w", err)
	}

	var parsed []parser.ParsedLine
	var warnings []parser.Warning
	for _, line := range expanded.AssemblyLines {
		pl, warn, err := parser.ParseLine(line.Text, line.File, line.Line)
		if err != nil {
			return nil, fmt.Errorf("parse failed: %w", err)
		}
		parsed = append(parsed, pl)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
	}

	filename := rootPath
	if len(expanded.AssemblyLines) > 0 {
		filename = expanded.AssemblyLines[0].File
	}

	assignment, err := symbols.AssignAddressesWithLines(parsed, filename)
	if err != nil {
		return nil, fmt.Errorf("address assignment failed: %w", err)
	}
	warnings = append(warnings, symbols.CheckROMBounds(assignment, filename)...)

	output, err := encoder.Encode(assignment, filename)
	if err != nil {
		return nil, fmt.Errorf("encoding failed: %w", err)
	}

	return &AssembleResult{
		Output:     output,
		Assignment: assignment,
		Warnings:   warnings,
		TestBlocks: expanded.TestBlocks,
	}, nil
}

// LoadIntoCore constructs a fresh CoreState for profile with image loaded
// at address 0x0000. Boot state is the architectural reset state: PC=0x0000,
// CAP set to the profile's default capability mask, and every other register
// zeroed; programs are expected to initialise SP themselves before using the
// stack.
func LoadIntoCore(image [core.MemorySize]byte, profile core.CoreProfile) *core.CoreState {
	state := core.NewCoreState(profile)
	state.Memory = image
	return state
}
