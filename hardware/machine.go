// This file is part of vamos.
//
// vamos is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// vamos is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with vamos.  If not, see <https://www.gnu.org/licenses/>.

package hardware

import (
	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/memory"
	"github.com/cnvogelg/vamos/hardware/traps"
	"github.com/cnvogelg/vamos/logger"
)

// Addresses in low memory.
const (
	ExecBasePtr   = uint32(0x0004)
	ExitAddr      = uint32(0x0400)
	QuickTrapAddr = uint32(0x0800)
	QuickTrapEnd  = uint32(0x0900)
	RAMBegin      = uint32(0x1000)
)

// each quick trap is a trap opcode followed by an RTS.
const quickTrapSize = 4

// NoQuickTrap is the sentinel error returned when the quick trap area is full.
const NoQuickTrap = "hardware: no quick trap available"

const opcodeRTS = uint16(0x4e75)

// Machine is the emulated machine.
type Machine struct {
	CPU   cpu.Core
	Mem   *memory.RAM
	Traps *traps.Table

	exitTrap int

	// trap IDs for the quick trap area. -1 indicates a free slot
	quick []int
}

// NewMachine is the preferred method of initialisation for the Machine type.
// The size of memory is in bytes and must be larger than RAMBegin.
func NewMachine(ramSize uint32) (*Machine, error) {
	if ramSize <= RAMBegin {
		return nil, curated.Errorf("hardware: memory too small (%d bytes)", ramSize)
	}

	mem := memory.NewRAM(ramSize)
	core := cpu.NewM68K(mem)

	m := &Machine{
		CPU:   core,
		Mem:   mem,
		Traps: traps.NewTable(core, mem, traps.MaxTraps),
		quick: make([]int, (QuickTrapEnd-QuickTrapAddr)/quickTrapSize),
	}
	for i := range m.quick {
		m.quick[i] = -1
	}

	// the exit trap is never triggered. the Execute() function recognises it
	// before it can be
	var err error
	m.exitTrap, err = m.Traps.Setup("exit", func(uint16, uint32) error { return nil }, false)
	if err != nil {
		return nil, curated.Errorf("hardware: %v", err)
	}
	mem.Write16(ExitAddr, traps.Opcode(m.exitTrap))

	logger.Logf(logger.Allow, "hardware", "machine with %d KiB of memory", ramSize/1024)

	return m, nil
}

// Close releases the traps held by the machine.
func (m *Machine) Close() {
	for i, id := range m.quick {
		if id >= 0 {
			_ = m.Traps.Free(id)
			m.quick[i] = -1
		}
	}
	_ = m.Traps.Free(m.exitTrap)
}

// Execute runs the CPU for the maximum number of cycles. Reaching the exit
// sentinel is reported as StatusExit.
func (m *Machine) Execute(maxCycles int) cpu.RunState {
	rs := m.CPU.Execute(maxCycles)
	if rs.Status == cpu.StatusTrap && rs.PC == ExitAddr && rs.Opcode == traps.Opcode(m.exitTrap) {
		rs.Status = cpu.StatusExit
	}
	return rs
}

// Prepare the CPU to run the code at pc using the stack pointer. The address
// of the exit sentinel is pushed onto the stack.
func (m *Machine) Prepare(pc uint32, sp uint32) {
	sp -= 4
	m.Mem.Write32(sp, ExitAddr)
	m.CPU.SetReg(cpu.SP, sp)
	m.CPU.SetPC(pc)
}

// SetupQuickTrap binds the host function to a trap and places the trap in the
// quick trap area. Returns the address of the trap which can be called with
// JSR from emulated code.
func (m *Machine) SetupQuickTrap(label string, fn traps.Func) (uint32, error) {
	for i, id := range m.quick {
		if id != -1 {
			continue
		}

		tid, err := m.Traps.Setup(label, fn, false)
		if err != nil {
			return 0, err
		}
		m.quick[i] = tid

		addr := QuickTrapAddr + uint32(i*quickTrapSize)
		m.Mem.Write16(addr, traps.Opcode(tid))
		m.Mem.Write16(addr+2, opcodeRTS)
		return addr, nil
	}
	return 0, curated.Errorf(NoQuickTrap)
}

// FreeQuickTrap releases the quick trap at the address.
func (m *Machine) FreeQuickTrap(addr uint32) error {
	if addr < QuickTrapAddr || addr >= QuickTrapEnd {
		return curated.Errorf("hardware: not a quick trap address (%#06x)", addr)
	}
	i := (addr - QuickTrapAddr) / quickTrapSize
	if m.quick[i] == -1 {
		return curated.Errorf("hardware: quick trap not in use (%#06x)", addr)
	}
	err := m.Traps.Free(m.quick[i])
	m.quick[i] = -1
	m.Mem.Write32(addr, 0)
	return err
}
