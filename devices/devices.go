// Package devices provides a small set of illustrative core.MmioBus
// peripherals: a console UART, a free-running tick counter, and an LED/bit
// port, plus a Bus that dispatches MMIO accesses across them by exact
// register address.
package devices

import (
	"bufio"
	"io"
	"sync"

	"github.com/lucaspiller/n1core/core"
)

// Console is a one-register UART: writing a 16-bit value emits its low
// byte to Out; reading always returns 0 (input is not modelled).
type Console struct {
	mu  sync.Mutex
	Out *bufio.Writer
}

// NewConsole wraps w for buffered byte output.
func NewConsole(w io.Writer) *Console {
	return &Console{Out: bufio.NewWriter(w)}
}

func (c *Console) Read16(uint16) (uint16, bool) { return 0, true }

func (c *Console) Write16(_ uint16, value uint16) core.MmioWriteResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.Out.WriteByte(byte(value))
	_ = c.Out.Flush()
	return core.MmioWriteApplied
}

// Timer is a free-running counter incremented once per TickOnce call (the
// CLI's run loop calls it once per RunOne call).
// Reading it is always accepted; writes are denied, as the register is
// read-only hardware state.
type Timer struct {
	mu    sync.Mutex
	ticks uint16
}

func (t *Timer) Read16(uint16) (uint16, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks, true
}

func (t *Timer) Write16(uint16, uint16) core.MmioWriteResult {
	return core.MmioWriteDeniedSuppressed
}

// TickOnce advances the timer by one tick, wrapping at 0xFFFF.
func (t *Timer) TickOnce() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks++
}

// BitPort is a 16-bit read/write register modelling a bank of LEDs or
// discrete output bits; BSET/BCLR/BTEST address it like any other MMIO
// word.
type BitPort struct {
	mu    sync.Mutex
	value uint16
}

func (p *BitPort) Read16(uint16) (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, true
}

func (p *BitPort) Write16(_ uint16, value uint16) core.MmioWriteResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = value
	return core.MmioWriteApplied
}

// Value returns the port's current bits.
func (p *BitPort) Value() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// region binds one peripheral to the single MMIO address it owns. n1's
// MMIO region is word-addressed for these simple devices: each peripheral
// claims exactly one 16-bit register, mirroring the single-port-per-device
// convention of the original emulator this package is adapted from.
type region struct {
	addr uint16
	dev  core.MmioBus
}

// Bus dispatches MMIO reads and writes to whichever registered peripheral
// owns the target address, denying (without faulting, per the MmioBus
// contract) any address with no owner.
type Bus struct {
	regions []region
}

// NewBus returns an empty bus; attach peripherals with Attach.
func NewBus() *Bus {
	return &Bus{}
}

// Attach binds dev to addr, which must lie within core.MMIOStart and
// core.MMIOEnd; the caller is responsible for choosing non-overlapping
// addresses.
func (b *Bus) Attach(addr uint16, dev core.MmioBus) {
	b.regions = append(b.regions, region{addr: addr, dev: dev})
}

func (b *Bus) find(addr uint16) core.MmioBus {
	for _, r := range b.regions {
		if r.addr == addr {
			return r.dev
		}
	}
	return nil
}

func (b *Bus) Read16(addr uint16) (uint16, bool) {
	if dev := b.find(addr); dev != nil {
		return dev.Read16(addr)
	}
	return 0, false
}

func (b *Bus) Write16(addr uint16, value uint16) core.MmioWriteResult {
	if dev := b.find(addr); dev != nil {
		return dev.Write16(addr, value)
	}
	return core.MmioWriteDeniedSuppressed
}

// Standard register addresses for the devices this package provides,
// placed at the base of the MMIO region.
const (
	AddrConsole = 0xE000
	AddrTimer   = 0xE002
	AddrBitPort = 0xE004
)

// NewStandardBus returns a Bus with a Console (writing to out), a Timer,
// and a BitPort attached at their standard addresses.
func NewStandardBus(out io.Writer) (*Bus, *Console, *Timer, *BitPort) {
	bus := NewBus()
	console := NewConsole(out)
	timer := &Timer{}
	port := &BitPort{}
	bus.Attach(AddrConsole, console)
	bus.Attach(AddrTimer, timer)
	bus.Attach(AddrBitPort, port)
	return bus, console, timer, port
}
