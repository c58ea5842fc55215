package core

// ExecuteOutcomeKind classifies what a single instruction's execution produced.
type ExecuteOutcomeKind int

const (
	OutcomeRetired ExecuteOutcomeKind = iota
	OutcomeHaltedForTick
	OutcomeTrapDispatch
)

// ExecuteOutcome is the result of executing one decoded instruction, before
// the step loop folds in event/fault dispatch (which span more than one
// instruction's worth of decision-making; see step.go).
type ExecuteOutcome struct {
	Kind   ExecuteOutcomeKind
	Cycles uint16
}

// executeScratch stages every side effect of one instruction. Nothing in
// `state`/`mem`/`mmio` is mutated until commit() runs, which only happens
// once every potentially-faulting computation (operand fetch, effective
// address resolution, memory/MMIO access) has already succeeded — this is
// what gives the executor its precise-fault invariant without needing to
// snapshot and roll back the whole machine on every instruction.
type executeScratch struct {
	writeReg   bool
	destReg    uint8
	destValue  uint16

	writeSP  bool
	newSP    uint16

	writeMem   bool
	memAddr    uint16
	memValue   uint16
	memIsMmio  bool

	writeFlags bool
	newFlags   uint16

	newPC uint16

	writeCauseForTrap bool

	writeCapCoreOwned bool
	newCap            uint16

	writeEvpCoreOwned bool
	newEvp            uint16

	dequeueEvent bool

	outcome ExecuteOutcomeKind
	cycles  uint16
}

func (s *executeScratch) commit(state *ArchitecturalState, mem *[MemorySize]byte, mmio MmioBus, diag *DiagFields) {
	if s.writeMem {
		if s.memIsMmio {
			if mmio.Write16(s.memAddr, s.memValue) == MmioWriteDeniedSuppressed {
				diag.RecordDeniedWrite()
			}
		} else {
			mem[s.memAddr] = uint8(s.memValue >> 8)
			mem[s.memAddr+1] = uint8(s.memValue)
		}
	}
	if s.writeReg {
		state.SetGPR(s.destReg, s.destValue)
	}
	if s.writeSP {
		state.SetSP(s.newSP)
	}
	if s.writeFlags {
		state.SetFlags(s.newFlags)
	}
	if s.writeCapCoreOwned {
		state.SetCapCoreOwned(s.newCap)
	}
	if s.writeEvpCoreOwned {
		state.SetEvpCoreOwned(s.newEvp)
	}
	state.SetPC(s.newPC)
}

func signExtendByte(b uint8) int16 { return int16(int8(b)) }

func readWord(mem *[MemorySize]byte, addr uint16) uint16 {
	return uint16(mem[addr])<<8 | uint16(mem[addr+1])
}

// memoryRead16 performs a data-path 16-bit read, routing MMIO-region
// addresses through the bus and DIAG-region addresses through diag, per
// spec.md section 4.5 ("MMIO-region addresses are routed through the bus;
// RAM/ROM addresses use the backing image").
func memoryRead16(mem *[MemorySize]byte, mmio MmioBus, diag *DiagFields, addr uint16) (uint16, *FaultCode) {
	if f := ValidateWordAlignment(addr); f != nil {
		return 0, f
	}
	switch DecodeRegion(addr) {
	case RegionMMIO:
		v, ok := mmio.Read16(addr)
		if !ok {
			return 0, nil // read failure is routed to diagnostics, not an ISA fault
		}
		return v, nil
	case RegionDIAG:
		off := addr - DIAGStart
		hi := diag.ReadByte(off)
		lo := diag.ReadByte(off + 1)
		return uint16(hi)<<8 | uint16(lo), nil
	default:
		return readWord(mem, addr), nil
	}
}

// resolveEffectiveAddress computes the memory address an addressed operand
// refers to, for LOAD/STORE/IN/OUT/BSET/BCLR/BTEST.
func resolveEffectiveAddress(state *ArchitecturalState, instr DecodedInstruction, pcNext uint16) uint16 {
	switch instr.AM {
	case AmRegisterIndirect:
		return state.GPR(instr.RA)
	case AmSignExtendedDisplacement:
		return state.GPR(instr.RA) + uint16(signExtendByte(uint8(instr.ExtensionWord)))
	case AmZeroExtendedDisplacement:
		return instr.ExtensionWord
	case AmPCRelative:
		return pcNext + instr.ExtensionWord
	default: // AmDirectRegister, AmImmediate: degenerate address-as-register/literal
		return state.GPR(instr.RA)
	}
}

// resolveOperandValue resolves the non-destination source operand for
// MOV/ALU/CMP, reading through memory when the addressing mode names one.
func resolveOperandValue(state *ArchitecturalState, mem *[MemorySize]byte, mmio MmioBus, diag *DiagFields, instr DecodedInstruction, pcNext uint16) (uint16, *FaultCode) {
	switch instr.AM {
	case AmDirectRegister:
		return state.GPR(instr.RA), nil
	case AmImmediate, AmZeroExtendedDisplacement:
		return instr.ExtensionWord, nil
	case AmRegisterIndirect, AmSignExtendedDisplacement, AmPCRelative:
		addr := resolveEffectiveAddress(state, instr, pcNext)
		return memoryRead16(mem, mmio, diag, addr)
	default:
		return 0, nil
	}
}

func computeNZ(v uint16) (z, n bool) {
	return v == 0, v&0x8000 != 0
}

func addFlags(a, b, result uint16) (c, v bool) {
	c = uint32(a)+uint32(b) > 0xFFFF
	v = (a^result)&(b^result)&0x8000 != 0
	return
}

func subFlags(a, b, result uint16) (c, v bool) {
	c = a < b
	v = (a^b)&(a^result)&0x8000 != 0
	return
}

func flagsWord(z, n, c, v bool) uint16 {
	var f uint16
	if z {
		f |= FlagZ
	}
	if n {
		f |= FlagN
	}
	if c {
		f |= FlagC
	}
	if v {
		f |= FlagV
	}
	return f
}

func branchTaken(enc OpcodeEncoding, flags uint16) bool {
	z := flags&FlagZ != 0
	n := flags&FlagN != 0
	v := flags&FlagV != 0
	switch enc {
	case EncBeq:
		return z
	case EncBne:
		return !z
	case EncBlt:
		return n != v
	case EncBle:
		return z || (n != v)
	case EncBgt:
		return !z && (n == v)
	case EncBge:
		return n == v
	default:
		return true
	}
}

// saturateInt16 clamps v to the signed 16-bit range, reporting whether it had to clamp.
func saturateInt16(v int32) (uint16, bool) {
	if v > 32767 {
		return 32767, true
	}
	if v < -32768 {
		return 0x8000, true
	}
	return uint16(int16(v)), false
}

// executeInstruction runs the 7-step commit sequence for one decoded
// instruction. On any fault the returned scratch is the zero value and
// nothing in state/mem/mmio is touched — callers must check the fault
// pointer before using the outcome.
func executeInstruction(state *ArchitecturalState, mem *[MemorySize]byte, mmio MmioBus, diag *DiagFields, queue *EventQueue, instr DecodedInstruction, profile CoreProfile) (ExecuteOutcome, *FaultCode) {
	pc := state.PC()
	pcNext := pc + uint16(instr.Size)
	var s executeScratch
	s.newPC = pcNext

	capFault := func() *FaultCode {
		if profile == ProfileRestricted {
			f := FaultCapabilityViolation
			return &f
		}
		return nil
	}

	switch instr.Encoding {
	case EncNop, EncSync:
		s.cycles = CycleCost(CostNop)
		s.outcome = OutcomeRetired

	case EncHalt:
		s.cycles = CycleCost(CostNop)
		s.outcome = OutcomeHaltedForTick

	case EncTrap, EncSwi:
		s.cycles = CycleCost(CostNop)
		s.outcome = OutcomeTrapDispatch

	case EncEret:
		if state.RunState() != RunHandlerContext {
			f := FaultHandlerContextViolation
			return ExecuteOutcome{}, &f
		}
		ret, f := memoryRead16(mem, mmio, diag, state.SP())
		if f != nil {
			return ExecuteOutcome{}, f
		}
		s.newPC = ret
		s.writeSP = true
		s.newSP = state.SP() + 2
		s.cycles = CycleCost(CostEretReturn)
		s.outcome = OutcomeRetired

	case EncMov:
		v, f := resolveOperandValue(state, mem, mmio, diag, instr, pcNext)
		if f != nil {
			return ExecuteOutcome{}, f
		}
		z, n := computeNZ(v)
		s.writeReg = true
		s.destReg = instr.RD
		s.destValue = v
		s.writeFlags = true
		s.newFlags = flagsWord(z, n, false, false)
		s.cycles = CycleCost(CostMove)
		s.outcome = OutcomeRetired

	case EncLoad:
		addr := resolveEffectiveAddress(state, instr, pcNext)
		v, f := memoryRead16(mem, mmio, diag, addr)
		if f != nil {
			return ExecuteOutcome{}, f
		}
		z, n := computeNZ(v)
		s.writeReg = true
		s.destReg = instr.RD
		s.destValue = v
		s.writeFlags = true
		s.newFlags = flagsWord(z, n, state.FlagSet(FlagC), state.FlagSet(FlagV))
		s.cycles = CycleCost(CostLoad)
		s.outcome = OutcomeRetired

	case EncStore:
		addr := resolveEffectiveAddress(state, instr, pcNext)
		if f := ValidateWriteAccess(addr); f != nil {
			return ExecuteOutcome{}, f
		}
		if f := ValidateWordAlignment(addr); f != nil {
			return ExecuteOutcome{}, f
		}
		s.writeMem = true
		s.memAddr = addr
		s.memValue = state.GPR(instr.RD)
		s.memIsMmio = DecodeRegion(addr) == RegionMMIO
		s.cycles = CycleCost(CostStore)
		s.outcome = OutcomeRetired

	case EncAdd, EncSub, EncAnd, EncOr, EncXor, EncCmp:
		a := state.GPR(instr.RA)
		b, f := resolveOperandValue(state, mem, mmio, diag, instr, pcNext)
		if f != nil {
			return ExecuteOutcome{}, f
		}
		var result uint16
		var c, v bool
		switch instr.Encoding {
		case EncAdd:
			result = a + b
			c, v = addFlags(a, b, result)
		case EncSub, EncCmp:
			result = a - b
			c, v = subFlags(a, b, result)
		case EncAnd:
			result = a & b
		case EncOr:
			result = a | b
		case EncXor:
			result = a ^ b
		}
		z, n := computeNZ(result)
		if instr.Encoding != EncCmp {
			s.writeReg = true
			s.destReg = instr.RD
			s.destValue = result
		}
		s.writeFlags = true
		s.newFlags = flagsWord(z, n, c, v)
		s.cycles = CycleCost(CostAlu)
		s.outcome = OutcomeRetired

	case EncShl, EncShr:
		a := state.GPR(instr.RA)
		raw, f := resolveOperandValue(state, mem, mmio, diag, instr, pcNext)
		if f != nil {
			return ExecuteOutcome{}, f
		}
		count := raw & 0xF
		var result uint16
		var c bool
		if instr.Encoding == EncShl {
			if count > 0 && count <= 16 {
				result = a << count
				c = (a>>(16-count))&1 != 0
			} else {
				result = a
			}
		} else {
			if count > 0 {
				result = a >> count
				c = (a>>(count-1))&1 != 0
			} else {
				result = a
			}
		}
		z, n := computeNZ(result)
		s.writeReg = true
		s.destReg = instr.RD
		s.destValue = result
		s.writeFlags = true
		s.newFlags = flagsWord(z, n, c, false)
		s.cycles = CycleCost(CostAlu)
		s.outcome = OutcomeRetired

	case EncMul, EncMulh:
		a := uint32(state.GPR(instr.RA))
		b, f := resolveOperandValue(state, mem, mmio, diag, instr, pcNext)
		if f != nil {
			return ExecuteOutcome{}, f
		}
		product := a * uint32(b)
		var result uint16
		if instr.Encoding == EncMul {
			result = uint16(product)
		} else {
			result = uint16(product >> 16)
		}
		s.writeReg = true
		s.destReg = instr.RD
		s.destValue = result
		s.cycles = CycleCost(CostMul)
		s.outcome = OutcomeRetired

	case EncDiv, EncMod:
		a := state.GPR(instr.RA)
		b, f := resolveOperandValue(state, mem, mmio, diag, instr, pcNext)
		if f != nil {
			return ExecuteOutcome{}, f
		}
		var result uint16
		if b == 0 {
			result = 0
		} else if instr.Encoding == EncDiv {
			result = a / b
		} else {
			result = a % b
		}
		s.writeReg = true
		s.destReg = instr.RD
		s.destValue = result
		s.cycles = CycleCost(CostDiv)
		s.outcome = OutcomeRetired

	case EncQadd, EncQsub:
		a := int32(int16(state.GPR(instr.RA)))
		b, f := resolveOperandValue(state, mem, mmio, diag, instr, pcNext)
		if f != nil {
			return ExecuteOutcome{}, f
		}
		bi := int32(int16(b))
		var raw int32
		if instr.Encoding == EncQadd {
			raw = a + bi
		} else {
			raw = a - bi
		}
		result, sat := saturateInt16(raw)
		s.writeReg = true
		s.destReg = instr.RD
		s.destValue = result
		s.writeFlags = true
		s.newFlags = flagsWord(result == 0, int16(result) < 0, sat, sat)
		s.cycles = CycleCost(CostSaturatingHelper)
		s.outcome = OutcomeRetired

	case EncScv:
		a := state.GPR(instr.RA)
		result := uint16(int16(int8(uint8(a))))
		s.writeReg = true
		s.destReg = instr.RD
		s.destValue = result
		s.cycles = CycleCost(CostSaturatingHelper)
		s.outcome = OutcomeRetired

	case EncBeq, EncBne, EncBlt, EncBle, EncBgt, EncBge, EncJmp:
		taken := branchTaken(instr.Encoding, state.Flags())
		if taken {
			s.newPC = resolveEffectiveAddress(state, instr, pcNext)
			s.cycles = CycleCost(CostBranchTaken)
		} else {
			s.cycles = CycleCost(CostBranchNotTaken)
		}
		if instr.Encoding == EncJmp {
			s.cycles = CycleCost(CostJump)
		}
		s.outcome = OutcomeRetired

	case EncCallOrRet:
		// CALL and RET share the (OP=6,SUB=7) row with no free bit of their
		// own, since RET takes no operand and CALL always does. The parser
		// (parser.parseOperandsForEncoding) sets the otherwise-unused RD
		// field as a pure discriminator: RD=1 for RET, RD=0 for CALL.
		if instr.RD == 1 {
			ret, f := memoryRead16(mem, mmio, diag, state.SP())
			if f != nil {
				return ExecuteOutcome{}, f
			}
			s.newPC = ret
			s.writeSP = true
			s.newSP = state.SP() + 2
		} else {
			target := resolveEffectiveAddress(state, instr, pcNext)
			newSP := state.SP() - 2
			if f := ValidateWriteAccess(newSP); f != nil {
				return ExecuteOutcome{}, f
			}
			s.writeMem = true
			s.memAddr = newSP
			s.memValue = pcNext
			s.memIsMmio = false
			s.writeSP = true
			s.newSP = newSP
			s.newPC = target
		}
		s.cycles = CycleCost(CostCallReturn)
		s.outcome = OutcomeRetired

	case EncPush:
		newSP := state.SP() - 2
		if f := ValidateWriteAccess(newSP); f != nil {
			return ExecuteOutcome{}, f
		}
		s.writeMem = true
		s.memAddr = newSP
		s.memValue = state.GPR(instr.RD)
		s.writeSP = true
		s.newSP = newSP
		s.cycles = CycleCost(CostStackOp)
		s.outcome = OutcomeRetired

	case EncPop:
		v, f := memoryRead16(mem, mmio, diag, state.SP())
		if f != nil {
			return ExecuteOutcome{}, f
		}
		z, n := computeNZ(v)
		s.writeReg = true
		s.destReg = instr.RD
		s.destValue = v
		s.writeSP = true
		s.newSP = state.SP() + 2
		s.writeFlags = true
		s.newFlags = flagsWord(z, n, state.FlagSet(FlagC), state.FlagSet(FlagV))
		s.cycles = CycleCost(CostStackOp)
		s.outcome = OutcomeRetired

	case EncIn:
		addr := resolveEffectiveAddress(state, instr, pcNext)
		v, f := memoryRead16(mem, mmio, diag, addr)
		if f != nil {
			return ExecuteOutcome{}, f
		}
		z, n := computeNZ(v)
		s.writeReg = true
		s.destReg = instr.RD
		s.destValue = v
		s.writeFlags = true
		s.newFlags = flagsWord(z, n, false, false)
		s.cycles = CycleCost(CostMmioPort)
		s.outcome = OutcomeRetired

	case EncOut:
		addr := resolveEffectiveAddress(state, instr, pcNext)
		if f := ValidateWordAlignment(addr); f != nil {
			return ExecuteOutcome{}, f
		}
		s.writeMem = true
		s.memAddr = addr
		s.memValue = state.GPR(instr.RD)
		s.memIsMmio = true
		s.cycles = CycleCost(CostMmioPort)
		s.outcome = OutcomeRetired

	case EncBset, EncBclr, EncBtest:
		if f := capFault(); f != nil {
			return ExecuteOutcome{}, f
		}
		addr := resolveEffectiveAddress(state, instr, pcNext)
		if f := ValidateWordAlignment(addr); f != nil {
			return ExecuteOutcome{}, f
		}
		cur, f := memoryRead16(mem, mmio, diag, addr)
		if f != nil {
			return ExecuteOutcome{}, f
		}
		bit := uint16(1) << (state.GPR(instr.RD) & 0xF)
		testedSet := cur&bit != 0
		if instr.Encoding != EncBtest {
			var newVal uint16
			if instr.Encoding == EncBset {
				newVal = cur | bit
			} else {
				newVal = cur &^ bit
			}
			s.writeMem = true
			s.memAddr = addr
			s.memValue = newVal
			s.memIsMmio = true
		}
		s.writeFlags = true
		s.newFlags = flagsWord(!testedSet, state.FlagSet(FlagN), state.FlagSet(FlagC), state.FlagSet(FlagV))
		s.cycles = CycleCost(CostMmioBitOp)
		s.outcome = OutcomeRetired

	case EncEwait:
		if f := capFault(); f != nil {
			return ExecuteOutcome{}, f
		}
		if queue.Len() == 0 {
			s.newPC = pc // does not advance: re-executes next tick
		}
		s.cycles = CycleCost(CostEventWait)
		s.outcome = OutcomeRetired

	case EncEget:
		if f := capFault(); f != nil {
			return ExecuteOutcome{}, f
		}
		id, ok := queue.Dequeue()
		s.writeReg = true
		s.destReg = instr.RD
		if ok {
			s.destValue = uint16(id)
		} else {
			s.destValue = 0
		}
		// Z reflects an empty queue (spec.md sections 3 and 4.5 pin Z only);
		// N is cleared unconditionally rather than taken from event id bit 7,
		// a deliberate simplification versus the original implementation.
		s.writeFlags = true
		s.newFlags = flagsWord(s.destValue == 0, false, state.FlagSet(FlagC), state.FlagSet(FlagV))
		s.cycles = CycleCost(CostEventGet)
		s.outcome = OutcomeRetired

	default:
		f := FaultIllegalEncoding
		return ExecuteOutcome{}, &f
	}

	s.commitInto(state, mem, mmio, diag, instr, pc, pcNext)
	return ExecuteOutcome{Kind: s.outcome, Cycles: s.cycles}, nil
}

// commitInto delegates to commit for the generic register/memory/flags/PC
// writes; it adds no processing of its own (EGET's queue dequeue and
// EWAIT's conditional PC hold are settled in executeInstruction).
func (s *executeScratch) commitInto(state *ArchitecturalState, mem *[MemorySize]byte, mmio MmioBus, diag *DiagFields, instr DecodedInstruction, pc, pcNext uint16) {
	_ = pc
	s.commit(state, mem, mmio, diag)
}
