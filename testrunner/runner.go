package testrunner

import (
	"fmt"

	"github.com/lucaspiller/n1core/core"
)

// TestBlock is one literate `n1test` block: its assertions plus the
// source location of its first line, for diagnostics.
type TestBlock struct {
	Assertions []Assertion
	File       string
	StartLine  int
}

// FailureKind discriminates why a block did not pass, per spec.md section 7.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureAssertion
	FailureCpuFault
	FailureUnexecuted
)

// AssertionResult is the outcome of evaluating one assertion.
type AssertionResult struct {
	Assertion Assertion
	Passed    bool
	Actual    int64
}

// BlockResult is the outcome of running one test block.
type BlockResult struct {
	Block   TestBlock
	Kind    FailureKind
	Results []AssertionResult // valid when Kind is FailureNone or FailureAssertion
	Fault   core.FaultCode    // valid when Kind == FailureCpuFault
}

// Passed reports whether every assertion in the block held.
func (r BlockResult) Passed() bool {
	if r.Kind != FailureNone && r.Kind != FailureAssertion {
		return false
	}
	for _, a := range r.Results {
		if !a.Passed {
			return false
		}
	}
	return r.Kind == FailureNone
}

// RunResult is the outcome of running an entire test program: one
// BlockResult per executed block, plus how many blocks went unexecuted
// because the program ran out of HALTs.
type RunResult struct {
	Blocks       []BlockResult
	Unexecuted   int
	HaltsReached int
}

// Success reports whether every executed block passed and no block was
// left unexecuted.
func (r RunResult) Success() bool {
	if r.Unexecuted > 0 {
		return false
	}
	for _, b := range r.Blocks {
		if !b.Passed() {
			return false
		}
	}
	return true
}

func evaluate(state *core.ArchitecturalState, mem *[core.MemorySize]byte, a Assertion) AssertionResult {
	var actual int64
	switch a.Kind {
	case AssertRegister:
		actual = int64(state.GPR(a.Register))
	case AssertPC:
		actual = int64(state.PC())
	case AssertMemory:
		actual = int64(mem[a.Address])
	}
	match := actual == a.Expected
	if a.Negate {
		match = !match
	}
	return AssertionResult{Assertion: a, Passed: match, Actual: actual}
}

// Run loads image at address 0x0000 into a fresh core, then runs each
// block's assertions against the state reached at the next HALT, per
// spec.md section 4.13: on HaltedForTick, evaluate and clear the halt,
// then continue to the next block; a fault instead of HALT is a
// CPU-fault failure for that block; trailing blocks beyond the program's
// last HALT are unexecuted.
func Run(image [core.MemorySize]byte, blocks []TestBlock, profile core.CoreProfile) RunResult {
	state := core.NewCoreState(profile)
	state.Memory = image
	cfg := core.DefaultCoreConfig()

	// A retired HALT emits TraceHalted; a halt caused by the tick budget
	// running out does not, which tells the two apart.
	haltRetired := false
	cfg.TracingEnabled = true
	cfg.Trace = func(ev core.TraceEvent) {
		if ev.Kind == core.TraceHalted {
			haltRetired = true
		}
	}

	var result RunResult
	faulted := false

	for _, block := range blocks {
		if faulted {
			result.Unexecuted++
			continue
		}

		haltRetired = false
		outcome := state.RunOne(core.NullMmio{}, cfg, core.BoundaryHalted)
		switch outcome.FinalStep.Kind {
		case core.StepHaltedForTick:
			if !haltRetired {
				// The program ran out of HALTs: this block and every later
				// one are unexecuted.
				faulted = true
				result.Unexecuted++
				continue
			}
			result.HaltsReached++
			var results []AssertionResult
			for _, a := range block.Assertions {
				results = append(results, evaluate(state.Arch, &state.Memory, a))
			}
			result.Blocks = append(result.Blocks, BlockResult{Block: block, Kind: FailureNone, Results: results})
		case core.StepFault:
			faulted = true
			result.Blocks = append(result.Blocks, BlockResult{Block: block, Kind: FailureCpuFault, Fault: outcome.FinalStep.Fault})
		default:
			faulted = true
			result.Blocks = append(result.Blocks, BlockResult{Block: block, Kind: FailureCpuFault})
		}
	}

	return result
}

// Summary renders a one-line-per-block human-readable report.
func Summary(r RunResult) string {
	s := ""
	for i, b := range r.Blocks {
		status := "PASS"
		if !b.Passed() {
			status = "FAIL"
		}
		s += fmt.Sprintf("%s:%d: block %d %s\n", b.Block.File, b.Block.StartLine, i+1, status)
		if b.Kind == FailureCpuFault {
			s += fmt.Sprintf("  cpu fault: %s\n", b.Fault)
		}
		for _, ar := range b.Results {
			if !ar.Passed {
				s += fmt.Sprintf("  assertion failed: %s (actual=%d)\n", ar.Assertion.Source, ar.Actual)
			}
		}
	}
	if r.Unexecuted > 0 {
		s += fmt.Sprintf("%d block(s) unexecuted: program halted only %d time(s)\n", r.Unexecuted, r.HaltsReached)
	}
	return s
}
