package core

// TraceEventKind names the ambient, non-architectural events the step loop
// can emit when CoreConfig.TracingEnabled is set.
type TraceEventKind int

const (
	TraceInstructionStart TraceEventKind = iota
	TraceRetired
	TraceDispatch
	TraceHalted
	TraceFault
)

// TraceEvent is an observability record; it never feeds back into
// architectural state and carries no effect on determinism. Fault is valid
// only when Kind == TraceFault.
type TraceEvent struct {
	Kind  TraceEventKind
	PC    uint16
	Tick  uint16
	Fault FaultCode
}

func (k TraceEventKind) String() string {
	switch k {
	case TraceInstructionStart:
		return "InstructionStart"
	case TraceRetired:
		return "Retired"
	case TraceDispatch:
		return "Dispatch"
	case TraceHalted:
		return "Halted"
	case TraceFault:
		return "Fault"
	default:
		return "Unknown"
	}
}
