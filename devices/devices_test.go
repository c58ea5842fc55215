package devices_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucaspiller/n1core/core"
	"github.com/lucaspiller/n1core/devices"
)

func TestConsoleWritesLowByte(t *testing.T) {
	var buf bytes.Buffer
	console := devices.NewConsole(&buf)

	result := console.Write16(0, 0x41)
	require.Equal(t, core.MmioWriteApplied, result)
	require.Equal(t, "A", buf.String())

	v, ok := console.Read16(0)
	require.True(t, ok)
	require.Equal(t, uint16(0), v)
}

func TestTimerTicksAndDeniesWrite(t *testing.T) {
	timer := &devices.Timer{}
	v, ok := timer.Read16(0)
	require.True(t, ok)
	require.Equal(t, uint16(0), v)

	timer.TickOnce()
	timer.TickOnce()
	v, _ = timer.Read16(0)
	require.Equal(t, uint16(2), v)

	result := timer.Write16(0, 99)
	require.Equal(t, core.MmioWriteDeniedSuppressed, result)
	v, _ = timer.Read16(0)
	require.Equal(t, uint16(2), v)
}

func TestBitPortReadWrite(t *testing.T) {
	port := &devices.BitPort{}
	result := port.Write16(0, 0xABCD)
	require.Equal(t, core.MmioWriteApplied, result)
	require.Equal(t, uint16(0xABCD), port.Value())

	v, ok := port.Read16(0)
	require.True(t, ok)
	require.Equal(t, uint16(0xABCD), v)
}

func TestBusDispatchesByAddress(t *testing.T) {
	var buf bytes.Buffer
	bus, _, timer, port := devices.NewStandardBus(&buf)

	bus.Write16(devices.AddrConsole, 0x42)
	require.Equal(t, "B", buf.String())

	timer.TickOnce()
	v, ok := bus.Read16(devices.AddrTimer)
	require.True(t, ok)
	require.Equal(t, uint16(1), v)

	bus.Write16(devices.AddrBitPort, 0xFF)
	require.Equal(t, uint16(0xFF), port.Value())
}

func TestBusUnownedAddressDeniesWithoutFault(t *testing.T) {
	bus := devices.NewBus()
	_, ok := bus.Read16(0x1234)
	require.False(t, ok)

	result := bus.Write16(0x1234, 1)
	require.Equal(t, core.MmioWriteDeniedSuppressed, result)
}
