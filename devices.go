package dcpu16

// DeviceInfo is the 5-word identity block a device reports to HWQ: the
// 32-bit hardware id (split high/low), the 16-bit version, and the 32-bit
// manufacturer id (split high/low). Register layout matches spec.md's HWQ
// table: A=id low, B=id high, C=version, X=manufacturer low, Y=manufacturer
// high.
type DeviceInfo struct {
	ID           uint32
	Version      uint16
	Manufacturer uint32
}

// Device is the synchronous hardware protocol every attached peripheral
// implements. There is no goroutine or channel involved: Interrupt and Tick
// both run on the calling goroutine's stack, inline within DCPU16.Run or
// DCPU16.Tick, so a device's handler can read and write VM state (registers,
// memory, even call cpu.Interrupt to enqueue a software interrupt) without
// any synchronization of its own.
type Device interface {
	// Info reports the identity block HWQ copies into the guest's registers.
	Info() DeviceInfo
	// Interrupt runs the device's HWI handler. cpu is the owning VM, already
	// holding its mutex; the device reads its request out of the guest
	// registers (conventionally A) and may write a response back the same
	// way.
	Interrupt(cpu *DCPU16)
	// Tick runs once per call to DCPU16.Run, after the batch of instructions
	// completes, and is given the number of cycles just executed. Most
	// devices use this to advance an internal clock or decide whether to
	// raise an interrupt via cpu.Interrupt; a no-op Tick is valid for purely
	// interrupt-driven devices.
	Tick(cpu *DCPU16, cycles uint16)
}

// Attach registers a device, assigning it the next hardware index (the
// value HWN reports and HWQ/HWI address by). Devices are never removed once
// attached; assembling a machine is expected to happen once at startup.
func (c *DCPU16) Attach(d Device) (index uint16) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.devices = append(c.devices, d)
	return uint16(len(c.devices) - 1)
}

// DeviceCount returns the number of attached devices, equivalent to what
// HWN reports to the guest.
func (c *DCPU16) DeviceCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.devices)
}

// tickDevices calls Tick(cpu, cycles) on every attached device; DCPU16.Run
// invokes this once per batch, after the requested cycle budget has run.
func (c *DCPU16) tickDevices(cycles uint16) {
	for _, d := range c.devices {
		d.Tick(c, cycles)
	}
}

// hardwareQuery implements HWQ: index identifies the device (from the a
// operand), and the result is written into A/B/C/X/Y per spec.md's table.
// An out-of-range index is a no-op, matching the reference behavior of
// simply leaving the registers untouched.
func (c *DCPU16) hardwareQuery(index uint16) {
	if int(index) >= len(c.devices) {
		return
	}
	info := c.devices[index].Info()
	c.register[A] = uint16(info.ID)
	c.register[B] = uint16(info.ID >> 16)
	c.register[C] = info.Version
	c.register[X] = uint16(info.Manufacturer)
	c.register[Y] = uint16(info.Manufacturer >> 16)
}

// hardwareInterrupt implements HWI. It detaches the target device from
// c.devices before calling its Interrupt handler and reattaches it
// afterward, so a handler that inspects or re-triggers HWI against its own
// index never observes or reenters itself; a handler remains free to call
// cpu.Interrupt to queue a software interrupt for later dispatch. An
// out-of-range index, or one currently detached for its own HWI dispatch
// (self-reentrant HWI), is a no-op.
func (c *DCPU16) hardwareInterrupt(index uint16) {
	if int(index) >= len(c.devices) || c.devices[index] == nil {
		return
	}
	d := c.devices[index]
	c.devices[index] = nil
	d.Interrupt(c)
	c.devices[index] = d
}
