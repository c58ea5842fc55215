package core

// DefaultTickBudgetCycles is the default per-tick cycle budget.
const DefaultTickBudgetCycles uint16 = 640

// TraceSink receives ambient TraceEvents as the step loop runs, when enabled.
// It must not block; a nil sink disables tracing entirely (the zero cost path).
type TraceSink func(TraceEvent)

// CoreConfig parameterises a CoreState: its capability profile, tick budget,
// and optional tracing hook.
type CoreConfig struct {
	Profile          CoreProfile
	TickBudgetCycles uint16
	TracingEnabled   bool
	Trace            TraceSink
}

// DefaultCoreConfig returns the authority profile with the default tick budget.
func DefaultCoreConfig() CoreConfig {
	return CoreConfig{Profile: ProfileAuthority, TickBudgetCycles: DefaultTickBudgetCycles}
}

func (c CoreConfig) emit(ev TraceEvent) {
	if c.TracingEnabled && c.Trace != nil {
		c.Trace(ev)
	}
}

// CoreState is the complete state of one emulator instance: architectural
// registers, the flat memory image, the event queue, DIAG counters, and the
// run-state machine. It owns no goroutines and shares nothing implicitly;
// host code may run many instances in parallel as long as each owns its own
// CoreState (spec.md section 5).
type CoreState struct {
	Profile CoreProfile
	Arch    *ArchitecturalState
	Memory  [MemorySize]byte
	Events  EventQueue
	Diag    DiagFields
}

// NewCoreState returns a freshly reset core for the given profile.
func NewCoreState(profile CoreProfile) *CoreState {
	return &CoreState{
		Profile: profile,
		Arch:    NewArchitecturalState(profile),
	}
}

// ResetCanonical restores a core to its canonical boot state, preserving the
// loaded memory image (callers that want a blank image should construct a
// fresh CoreState instead).
func (c *CoreState) ResetCanonical() {
	c.Arch = NewArchitecturalState(c.Profile)
	c.Events = EventQueue{}
}

// EnqueueEvent appends an event id, returning the overflow fault when the
// queue is already at capacity.
func (c *CoreState) EnqueueEvent(id uint8) *FaultCode {
	if !c.Events.Enqueue(id) {
		f := FaultEventQueueOverflow
		return &f
	}
	return nil
}

// StepOutcomeKind classifies what step_one produced.
type StepOutcomeKind int

const (
	StepRetired StepOutcomeKind = iota
	StepHaltedForTick
	StepTrapDispatch
	StepEventDispatch
	StepFault
)

// StepOutcome is the per-step result returned by StepOne.
type StepOutcome struct {
	Kind  StepOutcomeKind
	Fault FaultCode // valid only when Kind == StepFault
}

func (c *CoreState) pushReturnAddress(mmio MmioBus, addr uint16) *FaultCode {
	newSP := c.Arch.SP() - 2
	if f := ValidateWriteAccess(newSP); f != nil {
		return f
	}
	c.Memory[newSP] = uint8(addr >> 8)
	c.Memory[newSP+1] = uint8(addr)
	c.Arch.SetSP(newSP)
	return nil
}

func (c *CoreState) dispatch(mmio MmioBus, cfg CoreConfig, vector DispatchVector, cost CycleCostKind, returnPC uint16) StepOutcome {
	vecAddr := readWord(&c.Memory, vector.address())
	if vecAddr == 0 {
		return c.latchTerminal(cfg, FaultInvalidFaultVector)
	}
	if f := c.pushReturnAddress(mmio, returnPC); f != nil {
		return c.latchTerminal(cfg, *f)
	}
	c.Arch.setRunState(RunHandlerContext)
	c.Arch.SetPC(vecAddr)
	c.Arch.SetTick(c.Arch.Tick() + CycleCost(cost))
	cfg.emit(TraceEvent{Kind: TraceDispatch, PC: vecAddr, Tick: c.Arch.Tick()})
	switch vector {
	case VectorTrap:
		return StepOutcome{Kind: StepTrapDispatch}
	case VectorEvent:
		return StepOutcome{Kind: StepEventDispatch}
	default:
		return StepOutcome{Kind: StepFault, Fault: FaultCode(c.Arch.Cause())}
	}
}

func (c *CoreState) latchTerminal(cfg CoreConfig, code FaultCode) StepOutcome {
	c.Diag.RecordFault(code, c.Arch.PC(), c.Arch.Tick())
	c.Arch.latchFault(code)
	cfg.emit(TraceEvent{Kind: TraceFault, PC: c.Arch.PC(), Tick: c.Arch.Tick(), Fault: code})
	return StepOutcome{Kind: StepFault, Fault: code}
}

// handleFault routes a fault raised during decode or execute: terminal
// faults (and any fault while already in HandlerContext, which becomes
// DoubleFault) latch the core; everything else dispatches through VEC_FAULT
// into a handler, per the reconciliation of spec.md sections 4.6 and 4.7.
func (c *CoreState) handleFault(mmio MmioBus, cfg CoreConfig, code FaultCode) StepOutcome {
	faultingPC := c.Arch.PC()
	if code.IsTerminal() {
		return c.latchTerminal(cfg, code)
	}
	if c.Arch.RunState() == RunHandlerContext {
		return c.latchTerminal(cfg, FaultDoubleFault)
	}
	c.Diag.RecordFault(code, faultingPC, c.Arch.Tick())
	c.Arch.SetCause(uint16(code))
	return c.dispatch(mmio, cfg, VectorFault, CostFaultDispatchEntry, faultingPC)
}

// StepOne executes exactly one architectural step, per spec.md section 4.6.
func (c *CoreState) StepOne(mmio MmioBus, cfg CoreConfig) StepOutcome {
	if c.Arch.RunState() == RunFaultLatched {
		return StepOutcome{Kind: StepFault, Fault: c.Arch.LatchedFault()}
	}

	if c.Arch.RunState() == RunHaltedForTick {
		if c.Arch.Tick() >= cfg.TickBudgetCycles {
			return c.latchTerminal(cfg, FaultBudgetOverrun)
		}
		c.Arch.setRunState(RunRunning)
	}

	pc := c.Arch.PC()
	if f := ValidateFetchAccess(pc); f != nil {
		return c.handleFault(mmio, cfg, *f)
	}
	if f := ValidateWordAlignment(pc); f != nil {
		return c.handleFault(mmio, cfg, *f)
	}
	primary := readWord(&c.Memory, pc)

	op, _ := DecodePrimaryWordOpSub(primary)
	am := AddressingModeFromU3(uint8(primary) & 0x7)
	_ = op
	var extension uint16
	hasExtension := am.HasExtensionWord()
	if hasExtension {
		extAddr := pc + 2
		if f := ValidateFetchAccess(extAddr); f != nil {
			return c.handleFault(mmio, cfg, *f)
		}
		extension = readWord(&c.Memory, extAddr)
	}

	instr, f := DecodeWord(primary, hasExtension, extension)
	if f != nil {
		return c.handleFault(mmio, cfg, *f)
	}

	cfg.emit(TraceEvent{Kind: TraceInstructionStart, PC: pc, Tick: c.Arch.Tick()})

	outcome, f := executeInstruction(c.Arch, &c.Memory, mmio, &c.Diag, &c.Events, instr, c.Profile)
	if f != nil {
		return c.handleFault(mmio, cfg, *f)
	}

	c.Arch.SetTick(c.Arch.Tick() + outcome.Cycles)
	cfg.emit(TraceEvent{Kind: TraceRetired, PC: pc, Tick: c.Arch.Tick()})

	switch outcome.Kind {
	case OutcomeHaltedForTick:
		c.Arch.setRunState(RunHaltedForTick)
		cfg.emit(TraceEvent{Kind: TraceHalted, PC: c.Arch.PC(), Tick: c.Arch.Tick()})
		return StepOutcome{Kind: StepHaltedForTick}
	case OutcomeTrapDispatch:
		return c.dispatch(mmio, cfg, VectorTrap, CostTrapDispatchEntry, c.Arch.PC())
	}

	if c.Arch.Tick() >= cfg.TickBudgetCycles {
		c.Arch.setRunState(RunHaltedForTick)
		return StepOutcome{Kind: StepHaltedForTick}
	}

	if c.Arch.RunState() == RunRunning && c.Arch.FlagSet(FlagI) && c.Arch.Evp() != 0 {
		return c.dispatch(mmio, cfg, VectorEvent, CostEventDispatchEntry, c.Arch.PC())
	}

	return StepOutcome{Kind: StepRetired}
}

// RunBoundary selects when RunOne stops.
type RunBoundary int

const (
	BoundaryTickBoundary RunBoundary = iota
	BoundaryHalted
	BoundaryFault
)

// RunOutcome records how many steps RunOne retired and how it terminated.
type RunOutcome struct {
	Steps     int
	FinalStep StepOutcome
}

// RunOne repeatedly steps until the chosen boundary is reached.
func (c *CoreState) RunOne(mmio MmioBus, cfg CoreConfig, boundary RunBoundary) RunOutcome {
	steps := 0
	for {
		out := c.StepOne(mmio, cfg)
		steps++
		switch boundary {
		case BoundaryTickBoundary:
			if c.Arch.Tick() >= cfg.TickBudgetCycles || out.Kind == StepFault {
				return RunOutcome{Steps: steps, FinalStep: out}
			}
		case BoundaryHalted:
			if out.Kind == StepHaltedForTick || out.Kind == StepFault {
				return RunOutcome{Steps: steps, FinalStep: out}
			}
		case BoundaryFault:
			if out.Kind == StepFault {
				return RunOutcome{Steps: steps, FinalStep: out}
			}
		}
	}
}
