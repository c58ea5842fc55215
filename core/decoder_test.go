package core

import "testing"

func encodeWord(op, rd, ra, sub, am uint8) uint16 {
	return uint16(op&0xF)<<12 | uint16(rd&0x7)<<9 | uint16(ra&0x7)<<6 | uint16(sub&0x7)<<3 | uint16(am&0x7)
}

func TestDecodeWord_ReservedOpcodeFaults(t *testing.T) {
	word := encodeWord(0xB, 0, 0, 0, 0)
	_, f := DecodeWord(word, false, 0)
	if f == nil || *f != FaultIllegalEncoding {
		t.Fatalf("reserved OP should fault IllegalEncoding, got %v", f)
	}
}

func TestDecodeWord_UnassignedSubFaults(t *testing.T) {
	word := encodeWord(0x0, 0, 0, 0x7, 0) // OP=0 only defines SUB 0-4
	_, f := DecodeWord(word, false, 0)
	if f == nil || *f != FaultIllegalEncoding {
		t.Fatalf("unassigned (OP,SUB) should fault IllegalEncoding, got %v", f)
	}
}

func TestDecodeWord_ReservedAddressingModeFaults(t *testing.T) {
	word := encodeWord(0x1, 0, 0, 0, 0b110)
	_, f := DecodeWord(word, false, 0)
	if f == nil || *f != FaultIllegalEncoding {
		t.Fatalf("reserved AM should fault IllegalEncoding, got %v", f)
	}
}

func TestDecodeWord_NopWithNonzeroFieldsFaults(t *testing.T) {
	word := encodeWord(0x0, 1, 0, 0, 0)
	_, f := DecodeWord(word, false, 0)
	if f == nil || *f != FaultIllegalEncoding {
		t.Fatalf("NOP with nonzero RD should fault IllegalEncoding, got %v", f)
	}
}

func TestDecodeWord_SignExtendedDisplacementRequiresCleanHighByte(t *testing.T) {
	word := encodeWord(0x1, 0, 0, 0, uint8(AmSignExtendedDisplacement))
	_, f := DecodeWord(word, true, 0x01FF) // high byte 0x01: illegal
	if f == nil || *f != FaultIllegalEncoding {
		t.Fatalf("dirty sign-extension high byte should fault, got %v", f)
	}
	if _, f := DecodeWord(word, true, 0x00FF); f != nil {
		t.Fatalf("high byte 0x00 should be legal, got %v", f)
	}
	if _, f := DecodeWord(word, true, 0xFF80); f != nil {
		t.Fatalf("high byte 0xFF should be legal, got %v", f)
	}
}

func TestDecodeWord_ValidMovImmediate(t *testing.T) {
	word := encodeWord(0x1, 2, 0, 0, uint8(AmImmediate))
	instr, f := DecodeWord(word, true, 0x1234)
	if f != nil {
		t.Fatalf("unexpected fault: %v", f)
	}
	if instr.Encoding != EncMov || instr.RD != 2 || instr.Size != 4 || instr.ExtensionWord != 0x1234 {
		t.Fatalf("unexpected decode: %+v", instr)
	}
}

func TestDecodeWord_CallOrRetSharedEncoding(t *testing.T) {
	word := encodeWord(0x6, 0, 0, 0x7, 0)
	instr, f := DecodeWord(word, false, 0)
	if f != nil || instr.Encoding != EncCallOrRet {
		t.Fatalf("expected CallOrRet, got %+v / %v", instr, f)
	}
}
