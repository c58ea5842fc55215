package core

import "fmt"

// SnapshotVersion tags the canonical layout so future formats can be
// rejected cleanly rather than silently misread.
type SnapshotVersion uint8

const SnapshotVersionV1 SnapshotVersion = 1

// SnapshotLayoutError reports a violation of the canonical layout
// invariants during import, per spec.md sections 3 and 8.
type SnapshotLayoutError struct {
	Kind     string
	Expected int
	Actual   int
}

func (e *SnapshotLayoutError) Error() string {
	if e.Kind == "memoryLength" {
		return fmt.Sprintf("snapshot: invalid memory length: expected %d, got %d", e.Expected, e.Actual)
	}
	return fmt.Sprintf("snapshot: invalid %s: %d", e.Kind, e.Actual)
}

func newMemoryLengthError(actual int) error {
	return &SnapshotLayoutError{Kind: "memoryLength", Expected: MemorySize, Actual: actual}
}

func newFieldError(kind string, actual int) error {
	return &SnapshotLayoutError{Kind: kind, Actual: actual}
}

// CoreSnapshot is the versioned, canonical serialisation of a CoreState.
type CoreSnapshot struct {
	Version SnapshotVersion
	Layout  CanonicalStateLayout
}

// CanonicalStateLayout is the field-for-field canonical record exported from
// and validated on import into a CoreState, per spec.md sections 3 and 8.
type CanonicalStateLayout struct {
	Profile CoreProfile

	GPR   [GeneralRegisterCount]uint16
	PC    uint16
	SP    uint16
	Flags uint16
	Tick  uint16
	Cap   uint16
	Cause uint16
	Evp   uint16

	Memory []byte

	EventQueue    [EventQueueCapacity]uint8
	EventQueueLen uint8

	RunStateTag    uint8
	LatchedFaultOK bool
	FaultCode      uint8
}

// Export serialises c into its canonical layout.
func (c *CoreState) Export() CoreSnapshot {
	l := CanonicalStateLayout{
		Profile:       c.Profile,
		PC:            c.Arch.PC(),
		SP:            c.Arch.SP(),
		Flags:         c.Arch.Flags(),
		Tick:          c.Arch.Tick(),
		Cap:           c.Arch.Cap(),
		Cause:         c.Arch.Cause(),
		Evp:           c.Arch.Evp(),
		Memory:        append([]byte(nil), c.Memory[:]...),
		EventQueueLen: c.Events.Len(),
		RunStateTag:   c.Arch.RunState().RunStateTag(),
	}
	for i := uint8(0); i < GeneralRegisterCount; i++ {
		l.GPR[i] = c.Arch.GPR(i)
	}
	copy(l.EventQueue[:], c.Events.Snapshot())
	if c.Arch.RunState() == RunFaultLatched {
		l.LatchedFaultOK = true
		l.FaultCode = uint8(c.Arch.LatchedFault())
	}
	return CoreSnapshot{Version: SnapshotVersionV1, Layout: l}
}

// Import validates snap and, if valid, returns a freshly reconstructed
// CoreState. It never mutates an existing CoreState in place.
func Import(snap CoreSnapshot) (*CoreState, error) {
	if snap.Version != SnapshotVersionV1 {
		return nil, fmt.Errorf("snapshot: unsupported version %d", snap.Version)
	}
	l := snap.Layout

	if len(l.Memory) != MemorySize {
		return nil, newMemoryLengthError(len(l.Memory))
	}
	if l.EventQueueLen > EventQueueCapacity {
		return nil, newFieldError("eventQueueLen", int(l.EventQueueLen))
	}
	runState, ok := RunStateFromTag(l.RunStateTag)
	if !ok {
		return nil, newFieldError("runStateTag", int(l.RunStateTag))
	}
	if runState == RunFaultLatched {
		if !l.LatchedFaultOK || !FaultCode(l.FaultCode).IsValid() {
			return nil, newFieldError("faultCode", int(l.FaultCode))
		}
	}

	c := &CoreState{Profile: l.Profile, Arch: NewArchitecturalState(l.Profile)}
	copy(c.Memory[:], l.Memory)
	for i := uint8(0); i < GeneralRegisterCount; i++ {
		c.Arch.SetGPR(i, l.GPR[i])
	}
	c.Arch.SetPC(l.PC)
	c.Arch.SetSP(l.SP)
	c.Arch.SetFlags(l.Flags)
	c.Arch.SetTick(l.Tick)
	c.Arch.SetCapCoreOwned(l.Cap)
	c.Arch.SetCause(l.Cause)
	c.Arch.SetEvpCoreOwned(l.Evp)
	c.Events.Restore(l.EventQueue[:l.EventQueueLen])
	c.Arch.setRunState(runState)
	if runState == RunFaultLatched {
		c.Arch.latchedFault = FaultCode(l.FaultCode)
	}
	return c, nil
}

// ReplayEventStream is an ordered, fixed sequence of event IDs to enqueue
// into a freshly restored core before it runs, per spec.md section 4.8.
type ReplayEventStream struct {
	events []uint8
}

// NewReplayEventStream returns an empty stream.
func NewReplayEventStream() *ReplayEventStream {
	return &ReplayEventStream{}
}

// AddEvent appends id to the end of the stream.
func (s *ReplayEventStream) AddEvent(id uint8) {
	s.events = append(s.events, id)
}

// ReplayResult is the outcome of replaying a snapshot against an event
// stream to a boundary.
type ReplayResult struct {
	Steps        int
	FinalOutcome StepOutcome
	FinalState   *CoreState
}

// Replay reconstructs a fresh CoreState from snap via Import, enqueues
// every event in stream in order, and runs it to boundary with RunOne. It
// mutates no shared state: snap and stream are read-only, and the returned
// FinalState is a CoreState that exists nowhere else. Two Replay calls
// given the same snap, stream, cfg, and boundary always retire the same
// number of steps and produce a FinalState whose Export() is byte-identical
// — the testable property from spec.md section 8 — because CoreState
// carries no hidden state beyond what Export/Import already canonicalise
// and mmio is supplied fresh by the caller for each call.
func Replay(snap CoreSnapshot, stream *ReplayEventStream, mmio MmioBus, cfg CoreConfig, boundary RunBoundary) (*ReplayResult, error) {
	state, err := Import(snap)
	if err != nil {
		return nil, err
	}
	for _, id := range stream.events {
		if f := state.EnqueueEvent(id); f != nil {
			return nil, fmt.Errorf("replay: event stream overflowed the queue enqueuing id %d: %s", id, f.String())
		}
	}
	outcome := state.RunOne(mmio, cfg, boundary)
	return &ReplayResult{Steps: outcome.Steps, FinalOutcome: outcome.FinalStep, FinalState: state}, nil
}
