package core

// DIAG region byte offsets within 0xF000-0xF0FF, per the original core's
// diagnostics layout (original_source/crates/emulator-core/src/diag.rs),
// supplementing spec.md's glossary mention of "fault counters and the most
// recent fault record" with a concrete field layout.
const (
	DiagLastFaultCodeOffset  = 0x00
	DiagLastFaultPCOffset    = 0x01 // 2 bytes
	DiagLastFaultTickOffset  = 0x03 // 2 bytes
	DiagDecodeFaultCountOff  = 0x05 // 2 bytes
	DiagMemoryFaultCountOff  = 0x07
	DiagMmioFaultCountOff    = 0x09
	DiagEventFaultCountOff   = 0x0B
	DiagDispatchFaultCountOff = 0x0D
	DiagBudgetFaultCountOff  = 0x0F
	DiagCapabilityFaultCountOff = 0x11
	DiagDeniedWriteCountOffset = 0x13

	DiagCoreOwnedFieldCount = 11
)

// DiagFields holds the core-owned diagnostic counters backing the read-only
// DIAG memory window. All counters saturate at 0xFFFF rather than wrapping.
type DiagFields struct {
	lastFaultCode FaultCode
	lastFaultPC   uint16
	lastFaultTick uint16

	decodeFaults     uint16
	memoryFaults     uint16
	mmioFaults       uint16
	eventFaults      uint16
	dispatchFaults   uint16
	budgetFaults     uint16
	capabilityFaults uint16
	deniedWrites     uint16
}

func saturatingIncrement(v uint16) uint16 {
	if v == 0xFFFF {
		return v
	}
	return v + 1
}

// RecordFault updates the last-fault record and increments the matching
// per-class counter.
func (d *DiagFields) RecordFault(code FaultCode, pc uint16, tick uint16) {
	d.lastFaultCode = code
	d.lastFaultPC = pc
	d.lastFaultTick = tick

	switch code.Class() {
	case FaultClassDecode:
		d.decodeFaults = saturatingIncrement(d.decodeFaults)
	case FaultClassMemory:
		d.memoryFaults = saturatingIncrement(d.memoryFaults)
	case FaultClassMmio:
		d.mmioFaults = saturatingIncrement(d.mmioFaults)
	case FaultClassEvent:
		d.eventFaults = saturatingIncrement(d.eventFaults)
	case FaultClassDispatch:
		d.dispatchFaults = saturatingIncrement(d.dispatchFaults)
	case FaultClassBudget:
		d.budgetFaults = saturatingIncrement(d.budgetFaults)
	case FaultClassCapability:
		d.capabilityFaults = saturatingIncrement(d.capabilityFaults)
	}
}

// RecordDeniedWrite increments the denied-MMIO-write counter.
func (d *DiagFields) RecordDeniedWrite() {
	d.deniedWrites = saturatingIncrement(d.deniedWrites)
}

// ReadByte returns the DIAG-region byte at the given offset (0x00-0xFF
// relative to DIAGStart). Offsets beyond the populated fields read as zero.
func (d *DiagFields) ReadByte(offset uint16) uint8 {
	put16 := func(base uint16, v uint16) (uint8, bool) {
		if offset == base {
			return uint8(v >> 8), true
		}
		if offset == base+1 {
			return uint8(v), true
		}
		return 0, false
	}

	if offset == DiagLastFaultCodeOffset {
		return uint8(d.lastFaultCode)
	}
	if b, ok := put16(DiagLastFaultPCOffset, d.lastFaultPC); ok {
		return b
	}
	if b, ok := put16(DiagLastFaultTickOffset, d.lastFaultTick); ok {
		return b
	}
	if b, ok := put16(DiagDecodeFaultCountOff, d.decodeFaults); ok {
		return b
	}
	if b, ok := put16(DiagMemoryFaultCountOff, d.memoryFaults); ok {
		return b
	}
	if b, ok := put16(DiagMmioFaultCountOff, d.mmioFaults); ok {
		return b
	}
	if b, ok := put16(DiagEventFaultCountOff, d.eventFaults); ok {
		return b
	}
	if b, ok := put16(DiagDispatchFaultCountOff, d.dispatchFaults); ok {
		return b
	}
	if b, ok := put16(DiagBudgetFaultCountOff, d.budgetFaults); ok {
		return b
	}
	if b, ok := put16(DiagCapabilityFaultCountOff, d.capabilityFaults); ok {
		return b
	}
	if b, ok := put16(DiagDeniedWriteCountOffset, d.deniedWrites); ok {
		return b
	}
	return 0
}
