package core

import "sync"

// OpcodeClass groups OP values into the coarse instruction-class families the
// executor dispatches on, mirroring the emulator's original encoding table.
type OpcodeClass int

const (
	ClassControl OpcodeClass = iota
	ClassMove
	ClassMemory
	ClassMemoryStore
	ClassAlu
	ClassMath
	ClassBranch
	ClassStack
	ClassMmioPort
	ClassMmioBit
	ClassEvent
)

// OpcodeEncoding names every defined (OP, SUB) mnemonic-level form. Any
// (OP, SUB) pair absent from OpcodeEncodingTable is illegal; OP 0xB-0xF is
// always reserved.
type OpcodeEncoding int

const (
	EncNop OpcodeEncoding = iota
	EncSync
	EncHalt
	EncTrap
	EncSwi
	EncMov
	EncLoad
	EncStore
	EncAdd
	EncSub
	EncAnd
	EncOr
	EncXor
	EncShl
	EncShr
	EncCmp
	EncMul
	EncMulh
	EncDiv
	EncMod
	EncQadd
	EncQsub
	EncScv
	EncBeq
	EncBne
	EncBlt
	EncBle
	EncBgt
	EncBge
	EncJmp
	EncCallOrRet
	EncPush
	EncPop
	EncIn
	EncOut
	EncBset
	EncBclr
	EncBtest
	EncEwait
	EncEget
	EncEret
)

func (e OpcodeEncoding) String() string {
	names := [...]string{
		"Nop", "Sync", "Halt", "Trap", "Swi", "Mov", "Load", "Store", "Add",
		"Sub", "And", "Or", "Xor", "Shl", "Shr", "Cmp", "Mul", "Mulh", "Div",
		"Mod", "Qadd", "Qsub", "Scv", "Beq", "Bne", "Blt", "Ble", "Bgt", "Bge",
		"Jmp", "CallOrRet", "Push", "Pop", "In", "Out", "Bset", "Bclr",
		"Btest", "Ewait", "Eget", "Eret",
	}
	if int(e) < 0 || int(e) >= len(names) {
		return "Unknown"
	}
	return names[e]
}

// OpcodeEntry is one row of the authoritative (OP, SUB) -> encoding table.
type OpcodeEntry struct {
	Op       uint8
	Sub      uint8
	Encoding OpcodeEncoding
}

// OpcodeEncodingTable is the single authoritative list mapping each defined
// (OP, SUB) pair to its mnemonic-level encoding, per spec.md section 4.1.
// CALL and RET intentionally share the (OP=6, SUB=7) row; disambiguation is
// by operand form at parse time, never by a distinct encoding.
var OpcodeEncodingTable = []OpcodeEntry{
	{0x0, 0x0, EncNop},
	{0x0, 0x1, EncSync},
	{0x0, 0x2, EncHalt},
	{0x0, 0x3, EncTrap},
	{0x0, 0x4, EncSwi},
	{0x1, 0x0, EncMov},
	{0x2, 0x0, EncLoad},
	{0x3, 0x0, EncStore},
	{0x4, 0x0, EncAdd},
	{0x4, 0x1, EncSub},
	{0x4, 0x2, EncAnd},
	{0x4, 0x3, EncOr},
	{0x4, 0x4, EncXor},
	{0x4, 0x5, EncShl},
	{0x4, 0x6, EncShr},
	{0x4, 0x7, EncCmp},
	{0x5, 0x0, EncMul},
	{0x5, 0x1, EncMulh},
	{0x5, 0x2, EncDiv},
	{0x5, 0x3, EncMod},
	{0x5, 0x4, EncQadd},
	{0x5, 0x5, EncQsub},
	{0x5, 0x6, EncScv},
	{0x6, 0x0, EncBeq},
	{0x6, 0x1, EncBne},
	{0x6, 0x2, EncBlt},
	{0x6, 0x3, EncBle},
	{0x6, 0x4, EncBgt},
	{0x6, 0x5, EncBge},
	{0x6, 0x6, EncJmp},
	{0x6, 0x7, EncCallOrRet},
	{0x7, 0x0, EncPush},
	{0x7, 0x1, EncPop},
	{0x8, 0x0, EncIn},
	{0x8, 0x1, EncOut},
	{0x9, 0x0, EncBset},
	{0x9, 0x1, EncBclr},
	{0x9, 0x2, EncBtest},
	{0xA, 0x0, EncEwait},
	{0xA, 0x1, EncEget},
	{0xA, 0x2, EncEret},
}

var (
	opcodeIndexOnce sync.Once
	opcodeIndex     map[[2]uint8]OpcodeEncoding
)

func buildOpcodeIndex() {
	opcodeIndex = make(map[[2]uint8]OpcodeEncoding, len(OpcodeEncodingTable))
	for _, e := range OpcodeEncodingTable {
		opcodeIndex[[2]uint8{e.Op, e.Sub}] = e.Encoding
	}
}

// IsReservedPrimaryOpcode reports whether op (0x0-0xF) is a reserved OP value
// (0xB-0xF), which is always illegal regardless of SUB.
func IsReservedPrimaryOpcode(op uint8) bool {
	return op >= 0xB
}

// ClassifyOpcode resolves (op, sub) to its encoding, reporting ok=false when
// the pair is unassigned or op is reserved.
func ClassifyOpcode(op, sub uint8) (OpcodeEncoding, bool) {
	if IsReservedPrimaryOpcode(op) {
		return 0, false
	}
	opcodeIndexOnce.Do(buildOpcodeIndex)
	enc, ok := opcodeIndex[[2]uint8{op, sub}]
	return enc, ok
}

// DecodePrimaryWordOpSub extracts the OP and SUB fields from a raw primary
// word, ahead of full decoding.
func DecodePrimaryWordOpSub(word uint16) (op, sub uint8) {
	return uint8(word>>12) & 0xF, uint8(word>>3) & 0x7
}
