package dcpu16

import "testing"

// fakeDevice is a minimal Device used to exercise the HWN/HWQ/HWI contract
// and the detach/reattach reentrancy guard; it carries no real peripheral
// behavior.
type fakeDevice struct {
	info         DeviceInfo
	interrupts   int
	ticks        int
	reenterIndex int // if >= 0, Interrupt calls cpu.hardwareInterrupt(reenterIndex) on itself
}

func (d *fakeDevice) Info() DeviceInfo { return d.info }

func (d *fakeDevice) Interrupt(cpu *DCPU16) {
	d.interrupts++
	if d.reenterIndex >= 0 {
		cpu.hardwareInterrupt(uint16(d.reenterIndex)) // must be a no-op: self is detached right now
	}
}

func (d *fakeDevice) Tick(cpu *DCPU16, cycles uint16) { d.ticks++ }

func TestHWNReportsDeviceCount(t *testing.T) {
	c := New()
	c.Attach(&fakeDevice{reenterIndex: -1})
	c.Attach(&fakeDevice{reenterIndex: -1})

	hwn := uint16(EXT) | (uint16(HWN) << 5) | (0x00 << 10) // HWN A
	c.Write(0, []uint16{hwn})
	c.Tick()
	checkRegisters(t, c, map[int]uint16{A: 2})
}

func TestHWQPopulatesRegisters(t *testing.T) {
	c := New()
	c.Attach(&fakeDevice{info: DeviceInfo{ID: 0x12345678, Version: 0x0001, Manufacturer: 0x89abcdef}, reenterIndex: -1})

	// HWQ A, index held in A via SET A,0 then HWQ A
	setA0 := uint16(SET) | (0 << 5) | (0x21 << 10)
	hwq := uint16(EXT) | (uint16(HWQ) << 5) | (0x00 << 10)
	c.Write(0, []uint16{setA0, hwq})
	c.Tick()
	c.Tick()

	checkRegisters(t, c, map[int]uint16{
		A: 0x5678, B: 0x1234, C: 0x0001, X: 0xcdef, Y: 0x89ab,
	})
}

func TestHWIDispatchesToDevice(t *testing.T) {
	c := New()
	d := &fakeDevice{reenterIndex: -1}
	c.Attach(d)

	setA0 := uint16(SET) | (0 << 5) | (0x21 << 10)
	hwi := uint16(EXT) | (uint16(HWI) << 5) | (0x00 << 10)
	c.Write(0, []uint16{setA0, hwi})
	c.Tick()
	c.Tick()

	if d.interrupts != 1 {
		t.Errorf("interrupts = %d, want 1", d.interrupts)
	}
}

func TestHWICannotReenterItself(t *testing.T) {
	c := New()
	d := &fakeDevice{reenterIndex: 0}
	c.Attach(d)

	setA0 := uint16(SET) | (0 << 5) | (0x21 << 10)
	hwi := uint16(EXT) | (uint16(HWI) << 5) | (0x00 << 10)
	c.Write(0, []uint16{setA0, hwi})
	c.Tick()
	c.Tick()

	if d.interrupts != 1 {
		t.Errorf("interrupts = %d, want 1 (self-targeted HWI during dispatch must be a no-op)", d.interrupts)
	}
	if c.devices[0] != Device(d) {
		t.Error("device was not reattached after Interrupt returned")
	}
}

func TestRunInvokesDeviceTick(t *testing.T) {
	c := New()
	d := &fakeDevice{reenterIndex: -1}
	c.Attach(d)
	c.Write(0, []uint16{0x8801}) // SET A, 1
	c.Run(10)
	if d.ticks != 1 {
		t.Errorf("ticks = %d, want 1 (one Tick call per Run batch)", d.ticks)
	}
}
