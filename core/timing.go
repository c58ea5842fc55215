package core

// CycleCostKind names every fixed-cost form the cycle-cost table prices,
// per spec.md section 4.1. Cycle costs are deterministic and never depend on
// data values.
type CycleCostKind int

const (
	CostNop CycleCostKind = iota
	CostMove
	CostLoad
	CostStore
	CostAlu
	CostMul
	CostDiv
	CostSaturatingHelper
	CostBranchTaken
	CostBranchNotTaken
	CostJump
	CostCallReturn
	CostStackOp
	CostMmioPort
	CostMmioBitOp
	CostEventWait
	CostEventGet
	CostTrapDispatchEntry
	CostEventDispatchEntry
	CostFaultDispatchEntry
	CostEretReturn
)

// CycleCostTable maps every fixed-cost form to its cycle count.
var CycleCostTable = map[CycleCostKind]uint16{
	CostNop:                1,
	CostMove:                1,
	CostLoad:                2,
	CostStore:               2,
	CostAlu:                 1,
	CostMul:                 2,
	CostDiv:                 3,
	CostSaturatingHelper:    1,
	CostBranchTaken:         2,
	CostBranchNotTaken:      1,
	CostJump:                2,
	CostCallReturn:          2,
	CostStackOp:             2,
	CostMmioPort:            4,
	CostMmioBitOp:           4,
	CostEventWait:           1,
	CostEventGet:            1,
	CostTrapDispatchEntry:   5,
	CostEventDispatchEntry:  5,
	CostFaultDispatchEntry:  5,
	CostEretReturn:          4,
}

// CycleCost looks up a fixed cost; every CycleCostKind value is present in
// CycleCostTable, so this never returns a zero value by omission.
func CycleCost(kind CycleCostKind) uint16 {
	return CycleCostTable[kind]
}
