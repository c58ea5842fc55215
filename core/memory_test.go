package core

import "testing"

func TestFixedMemoryRegionsAreExhaustiveAndNonOverlapping(t *testing.T) {
	var covered [MemorySize]bool
	for _, b := range fixedMemoryRegions {
		for a := b.start; a <= b.end; a++ {
			if covered[a] {
				t.Fatalf("address 0x%04X covered by more than one region", a)
			}
			covered[a] = true
		}
	}
	for a := range covered {
		if !covered[a] {
			t.Fatalf("address 0x%04X not covered by any region", a)
		}
	}
}

func TestDecodeRegionBoundaries(t *testing.T) {
	cases := []struct {
		addr   uint16
		region MemoryRegion
	}{
		{0x0000, RegionROM},
		{0x3FFF, RegionROM},
		{0x4000, RegionRAM},
		{0xDFFF, RegionRAM},
		{0xE000, RegionMMIO},
		{0xEFFF, RegionMMIO},
		{0xF000, RegionDIAG},
		{0xF0FF, RegionDIAG},
		{0xF100, RegionReserved},
		{0xFFFF, RegionReserved},
	}
	for _, c := range cases {
		if got := DecodeRegion(c.addr); got != c.region {
			t.Errorf("DecodeRegion(0x%04X) = %v, want %v", c.addr, got, c.region)
		}
	}
}

func TestValidateFetchAccess(t *testing.T) {
	if f := ValidateFetchAccess(0x1000); f != nil {
		t.Errorf("ROM fetch should be valid, got %v", f)
	}
	if f := ValidateFetchAccess(0x5000); f != nil {
		t.Errorf("RAM fetch should be valid, got %v", f)
	}
	if f := ValidateFetchAccess(0xE000); f == nil || *f != FaultNonExecutableFetch {
		t.Errorf("MMIO fetch should fault NonExecutableFetch, got %v", f)
	}
}

func TestValidateWriteAccess(t *testing.T) {
	if f := ValidateWriteAccess(0x0000); f == nil || *f != FaultIllegalMemoryAccess {
		t.Errorf("ROM write should fault IllegalMemoryAccess, got %v", f)
	}
	if f := ValidateWriteAccess(0x4000); f != nil {
		t.Errorf("RAM write should be valid, got %v", f)
	}
	if f := ValidateWriteAccess(0xE000); f != nil {
		t.Errorf("MMIO write should be valid (routed via bus), got %v", f)
	}
}

func TestValidateWordAlignment(t *testing.T) {
	if f := ValidateWordAlignment(0x4000); f != nil {
		t.Errorf("even address should align, got %v", f)
	}
	if f := ValidateWordAlignment(0x4001); f == nil || *f != FaultUnalignedDataAccess {
		t.Errorf("odd address should fault UnalignedDataAccess, got %v", f)
	}
}
