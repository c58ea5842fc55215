package core

import "testing"

func loadProgram(c *CoreState, bytes []byte) {
	copy(c.Memory[:], bytes)
}

func putWord(b []byte, offset int, word uint16) {
	b[offset] = uint8(word >> 8)
	b[offset+1] = uint8(word)
}

// Scenario 1: NOP/HALT minimal (spec.md section 8, scenario 1).
func TestScenario_NopHaltMinimal(t *testing.T) {
	nop := encodeWord(0x0, 0, 0, 0x0, 0)
	halt := encodeWord(0x0, 0, 0, 0x2, 0)
	program := make([]byte, 4)
	putWord(program, 0, nop)
	putWord(program, 2, halt)
	if program[0] != 0x00 || program[1] != 0x00 || program[2] != 0x00 || program[3] != 0x10 {
		t.Fatalf("unexpected bytes: % X", program)
	}

	c := NewCoreState(ProfileAuthority)
	loadProgram(c, program)
	cfg := DefaultCoreConfig()
	mmio := NullMmio{}

	out1 := c.StepOne(mmio, cfg)
	if out1.Kind != StepRetired {
		t.Fatalf("expected Retired, got %v", out1)
	}
	out2 := c.StepOne(mmio, cfg)
	if out2.Kind != StepHaltedForTick {
		t.Fatalf("expected HaltedForTick, got %v", out2)
	}
	if c.Arch.PC() != 0x0004 {
		t.Fatalf("PC = 0x%04X, want 0x0004", c.Arch.PC())
	}
	if c.Arch.Tick() != 2 {
		t.Fatalf("TICK = %d, want 2", c.Arch.Tick())
	}
}

// Scenario 2: MOV immediate (spec.md section 8, scenario 2).
func TestScenario_MovImmediate(t *testing.T) {
	mov := encodeWord(0x1, 0, 0, 0x0, uint8(AmImmediate))
	program := make([]byte, 4)
	putWord(program, 0, mov)
	putWord(program, 2, 0x1234)

	c := NewCoreState(ProfileAuthority)
	loadProgram(c, program)
	cfg := DefaultCoreConfig()
	mmio := NullMmio{}

	out := c.StepOne(mmio, cfg)
	if out.Kind != StepRetired {
		t.Fatalf("expected Retired, got %v", out)
	}
	if c.Arch.GPR(0) != 0x1234 {
		t.Fatalf("R0 = 0x%04X, want 0x1234", c.Arch.GPR(0))
	}
	if c.Arch.FlagSet(FlagZ) || c.Arch.FlagSet(FlagN) {
		t.Fatalf("unexpected flags: 0x%04X", c.Arch.Flags())
	}
}

// Scenario 3: PC-relative jump back to a label (spec.md section 8, scenario 3).
func TestScenario_PCRelativeBackwardJump(t *testing.T) {
	nop := encodeWord(0x0, 0, 0, 0x0, 0)
	jmp := encodeWord(0x6, 0, 0, 0x6, uint8(AmPCRelative))
	program := make([]byte, 6)
	putWord(program, 0, nop)
	putWord(program, 2, jmp)
	putWord(program, 4, 0xFFFA) // offset -6, target = start (address 0)

	c := NewCoreState(ProfileAuthority)
	loadProgram(c, program)
	cfg := DefaultCoreConfig()
	mmio := NullMmio{}

	c.StepOne(mmio, cfg) // NOP
	out := c.StepOne(mmio, cfg) // JMP
	if out.Kind != StepRetired {
		t.Fatalf("expected Retired, got %v", out)
	}
	if c.Arch.PC() != 0x0000 {
		t.Fatalf("PC = 0x%04X, want 0x0000 (jumped back to start)", c.Arch.PC())
	}
}

// Scenario 4: forward PC-relative branch (spec.md section 8, scenario 4).
func TestScenario_PCRelativeForwardJump(t *testing.T) {
	jmp := encodeWord(0x6, 0, 0, 0x6, uint8(AmPCRelative))
	nop := encodeWord(0x0, 0, 0, 0x0, 0)
	halt := encodeWord(0x0, 0, 0, 0x2, 0)
	program := make([]byte, 8)
	putWord(program, 0, jmp)
	putWord(program, 2, 0x0002) // offset +2: pcNext(4) + 2 = 6 = "later"
	putWord(program, 4, nop)
	putWord(program, 6, halt)

	c := NewCoreState(ProfileAuthority)
	loadProgram(c, program)
	cfg := DefaultCoreConfig()
	mmio := NullMmio{}

	c.StepOne(mmio, cfg) // JMP
	if c.Arch.PC() != 0x0006 {
		t.Fatalf("PC = 0x%04X, want 0x0006 (jumped to later)", c.Arch.PC())
	}
	out := c.StepOne(mmio, cfg) // HALT at "later"
	if out.Kind != StepHaltedForTick {
		t.Fatalf("expected HaltedForTick, got %v", out)
	}
}

func TestPreciseFaultInvariant_IllegalEncodingLeavesStateUntouched(t *testing.T) {
	c := NewCoreState(ProfileAuthority)
	reserved := encodeWord(0xB, 0, 0, 0, 0)
	putWord(c.Memory[:], 0, reserved)
	c.Arch.SetGPR(0, 0xBEEF)
	cfg := DefaultCoreConfig()
	mmio := NullMmio{}

	before := *c.Arch
	out := c.StepOne(mmio, cfg)
	if out.Kind != StepFault {
		t.Fatalf("expected fault, got %v", out)
	}
	if c.Arch.GPR(0) != 0xBEEF {
		t.Fatalf("register state mutated by faulting instruction")
	}
	_ = before
}
