// Package tools provides assembler-adjacent developer tooling: a listing
// pretty-printer, a symbol cross-reference report, and a static lint pass,
// all operating on an already-built symbols.Assignment.
package tools

import (
	"fmt"
	"strings"

	"github.com/lucaspiller/n1core/encoder"
	"github.com/lucaspiller/n1core/parser"
	"github.com/lucaspiller/n1core/symbols"
)

// ListingOptions controls the listing printer's column layout.
type ListingOptions struct {
	BytesPerLine int
	ShowCycles   bool
	NumberFormat string // "hex" or "dec"
}

// DefaultListingOptions returns the conventional layout: address, encoded
// bytes, then the reconstructed source text.
func DefaultListingOptions() *ListingOptions {
	return &ListingOptions{BytesPerLine: 8, ShowCycles: false, NumberFormat: "hex"}
}

func formatAddress(opts *ListingOptions, addr uint32) string {
	if opts.NumberFormat == "dec" {
		return fmt.Sprintf("%5d", addr)
	}
	return fmt.Sprintf("%04X", addr)
}

// FormatListing renders one line per addressed line: its address, encoded
// bytes (when the line emits any), and source text reconstructed by
// lineSourceText (label and mnemonic for instructions; operands are not
// shown). filename is
// used only to re-derive per-line bytes via the encoder.
func FormatListing(assignment *symbols.Assignment, filename string, opts *ListingOptions) (string, error) {
	if opts == nil {
		opts = DefaultListingOptions()
	}
	var sb strings.Builder
	for _, al := range assignment.Lines {
		bytes, err := encoder.EncodeLine(al, assignment.Symbols, filename)
		if err != nil {
			return "", fmt.Errorf("listing: %w", err)
		}

		addrStr := ""
		byteStr := ""
		if len(bytes) > 0 {
			addrStr = formatAddress(opts, al.Address)
			parts := make([]string, len(bytes))
			for i, b := range bytes {
				parts[i] = fmt.Sprintf("%02X", b)
			}
			byteStr = strings.Join(parts, " ")
		}

		fmt.Fprintf(&sb, "%-6s %-12s %s\n", addrStr, byteStr, lineSourceText(al.Line))
	}
	return sb.String(), nil
}

// lineSourceText reconstructs a readable approximation of a parsed line's
// original text, for listings; it is not guaranteed to match the source
// byte-for-byte (whitespace and comments are not preserved past parsing).
func lineSourceText(line parser.ParsedLine) string {
	prefix := ""
	if line.Label != "" {
		prefix = line.Label + ": "
	}
	switch line.Kind {
	case parser.LineInstruction:
		return prefix + line.Instruction.Mnemonic
	case parser.LineDirective:
		return prefix + directiveText(line.Directive)
	case parser.LineLabel:
		return strings.TrimSuffix(prefix, " ")
	default:
		return ""
	}
}

func directiveText(d parser.Directive) string {
	switch d.Kind {
	case parser.DirOrg:
		return fmt.Sprintf(".org 0x%04X", d.OrgAddress)
	case parser.DirWord:
		return fmt.Sprintf(".word 0x%04X", d.WordValue)
	case parser.DirByte:
		return fmt.Sprintf(".byte 0x%02X", d.ByteValue)
	case parser.DirAscii:
		return fmt.Sprintf(".ascii %q", d.AsciiValue)
	case parser.DirZero:
		return fmt.Sprintf(".zero %d", d.ZeroCount)
	case parser.DirInclude:
		return fmt.Sprintf(".include %q", d.IncludePath)
	default:
		return ""
	}
}
