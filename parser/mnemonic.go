package parser

import (
	"strings"
	"sync"

	"github.com/lucaspiller/n1core/core"
)

// MnemonicResolution is the (OP, SUB, encoding) triple a mnemonic resolves to.
type MnemonicResolution struct {
	Op       uint8
	Sub      uint8
	Encoding core.OpcodeEncoding
}

type mnemonicEntry struct {
	name string
	op   uint8
	sub  uint8
	enc  core.OpcodeEncoding
}

const (
	callMnemonic = "CALL"
	retMnemonic  = "RET"
)

// mnemonicEntries is the assembler-side mnemonic table. It is verified
// against core.OpcodeEncodingTable once, at first use (mnemonicIndex()),
// per spec.md section 9: "the assembler table must be verified against the
// core table at construction; any divergence is a build-time bug."
var mnemonicEntries = []mnemonicEntry{
	{"NOP", 0x0, 0x0, core.EncNop},
	{"SYNC", 0x0, 0x1, core.EncSync},
	{"HALT", 0x0, 0x2, core.EncHalt},
	{"TRAP", 0x0, 0x3, core.EncTrap},
	{"SWI", 0x0, 0x4, core.EncSwi},
	{"MOV", 0x1, 0x0, core.EncMov},
	{"LOAD", 0x2, 0x0, core.EncLoad},
	{"STORE", 0x3, 0x0, core.EncStore},
	{"ADD", 0x4, 0x0, core.EncAdd},
	{"SUB", 0x4, 0x1, core.EncSub},
	{"AND", 0x4, 0x2, core.EncAnd},
	{"OR", 0x4, 0x3, core.EncOr},
	{"XOR", 0x4, 0x4, core.EncXor},
	{"SHL", 0x4, 0x5, core.EncShl},
	{"SHR", 0x4, 0x6, core.EncShr},
	{"CMP", 0x4, 0x7, core.EncCmp},
	{"MUL", 0x5, 0x0, core.EncMul},
	{"MULH", 0x5, 0x1, core.EncMulh},
	{"DIV", 0x5, 0x2, core.EncDiv},
	{"MOD", 0x5, 0x3, core.EncMod},
	{"QADD", 0x5, 0x4, core.EncQadd},
	{"QSUB", 0x5, 0x5, core.EncQsub},
	{"SCV", 0x5, 0x6, core.EncScv},
	{"BEQ", 0x6, 0x0, core.EncBeq},
	{"BNE", 0x6, 0x1, core.EncBne},
	{"BLT", 0x6, 0x2, core.EncBlt},
	{"BLE", 0x6, 0x3, core.EncBle},
	{"BGT", 0x6, 0x4, core.EncBgt},
	{"BGE", 0x6, 0x5, core.EncBge},
	{"JMP", 0x6, 0x6, core.EncJmp},
	{callMnemonic, 0x6, 0x7, core.EncCallOrRet},
	{retMnemonic, 0x6, 0x7, core.EncCallOrRet},
	{"PUSH", 0x7, 0x0, core.EncPush},
	{"POP", 0x7, 0x1, core.EncPop},
	{"IN", 0x8, 0x0, core.EncIn},
	{"OUT", 0x8, 0x1, core.EncOut},
	{"BSET", 0x9, 0x0, core.EncBset},
	{"BCLR", 0x9, 0x1, core.EncBclr},
	{"BTEST", 0x9, 0x2, core.EncBtest},
	{"EWAIT", 0xA, 0x0, core.EncEwait},
	{"EGET", 0xA, 0x1, core.EncEget},
	{"ERET", 0xA, 0x2, core.EncEret},
}

var (
	mnemonicIndexOnce sync.Once
	mnemonicIndex     map[string]mnemonicEntry
)

func buildMnemonicIndex() {
	for _, e := range mnemonicEntries {
		if enc, ok := core.ClassifyOpcode(e.op, e.sub); !ok || enc != e.enc {
			panic("parser: mnemonic table diverged from core.OpcodeEncodingTable for " + e.name)
		}
	}
	mnemonicIndex = make(map[string]mnemonicEntry, len(mnemonicEntries))
	for _, e := range mnemonicEntries {
		mnemonicIndex[strings.ToUpper(e.name)] = e
	}
}

// ResolveMnemonic resolves name (ASCII case-insensitive) to its
// (OP, SUB, encoding) triple.
func ResolveMnemonic(name string) (MnemonicResolution, bool) {
	mnemonicIndexOnce.Do(buildMnemonicIndex)
	e, ok := mnemonicIndex[strings.ToUpper(name)]
	if !ok {
		return MnemonicResolution{}, false
	}
	return MnemonicResolution{Op: e.op, Sub: e.sub, Encoding: e.enc}, true
}

// ResolveMnemonicWithOperandForm resolves name, disambiguating CALL (requires
// an operand) from RET (requires none); every other mnemonic ignores
// hasOperand.
func ResolveMnemonicWithOperandForm(name string, hasOperand bool) (MnemonicResolution, bool) {
	upper := strings.ToUpper(name)
	if upper == callMnemonic {
		if !hasOperand {
			return MnemonicResolution{}, false
		}
		return ResolveMnemonic(name)
	}
	if upper == retMnemonic {
		if hasOperand {
			return MnemonicResolution{}, false
		}
		return ResolveMnemonic(name)
	}
	return ResolveMnemonic(name)
}
