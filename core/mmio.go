package core

// MmioWriteResult reports how the bus handled a write: applied, or silently
// denied (suppressed, not faulting).
type MmioWriteResult int

const (
	MmioWriteApplied MmioWriteResult = iota
	MmioWriteDeniedSuppressed
)

// MmioBus is the single-owner collaborator invoked exactly at the executor's
// memory-read and memory-write commit steps for addresses in the MMIO
// region. Implementations must be pure with respect to core state: they may
// not reach back into the core's own memory image.
//
// A read/write failure is routed to DIAG-region diagnostics without becoming
// an ISA-visible fault; a denied write is counted but likewise non-faulting.
type MmioBus interface {
	Read16(addr uint16) (value uint16, ok bool)
	Write16(addr uint16, value uint16) MmioWriteResult
}

// NullMmio is an MmioBus that has no peripherals: every read returns 0, every
// write is denied-suppressed. Used by the test runner and by any core
// instance not wired to concrete peripherals.
type NullMmio struct{}

func (NullMmio) Read16(uint16) (uint16, bool)         { return 0, true }
func (NullMmio) Write16(uint16, uint16) MmioWriteResult { return MmioWriteDeniedSuppressed }
