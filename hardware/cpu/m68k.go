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

package cpu

import (
	"fmt"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/memory"
)

// nominal cost of every word fetched and every operand accessed. cycle counts
// are used only to slice execution between tasks and do not need to be
// accurate.
const cyclesAccess = 4

// M68K is an interpreter for the integer subset of the 68000 instruction set.
type M68K struct {
	mem memory.Bus

	regs [16]uint32
	pc   uint32
	sr   uint16

	// address of the instruction currently being executed
	instPC uint32

	// cycles consumed by the current instruction
	cycles int
}

// NewM68K is the preferred method of initialisation for the M68K type.
func NewM68K(mem memory.Bus) *M68K {
	return &M68K{
		mem: mem,
	}
}

func (mc *M68K) String() string {
	return mc.Context().String()
}

// Reg implements the Core interface.
func (mc *M68K) Reg(r Register) uint32 {
	return mc.regs[r]
}

// SetReg implements the Core interface.
func (mc *M68K) SetReg(r Register, v uint32) {
	mc.regs[r] = v
}

// PC implements the Core interface.
func (mc *M68K) PC() uint32 {
	return mc.pc
}

// SetPC implements the Core interface.
func (mc *M68K) SetPC(pc uint32) {
	mc.pc = pc
}

// SR implements the Core interface.
func (mc *M68K) SR() uint16 {
	return mc.sr
}

// SetSR implements the Core interface.
func (mc *M68K) SetSR(sr uint16) {
	mc.sr = sr
}

// Context implements the Core interface.
func (mc *M68K) Context() Context {
	return Context{
		Regs: mc.regs,
		PC:   mc.pc,
		SR:   mc.sr,
	}
}

// SetContext implements the Core interface.
func (mc *M68K) SetContext(ctx Context) {
	mc.regs = ctx.Regs
	mc.pc = ctx.PC
	mc.sr = ctx.SR
}

// Execute implements the Core interface.
func (mc *M68K) Execute(maxCycles int) RunState {
	var total int

	for {
		mc.instPC = mc.pc
		mc.cycles = 0

		opcode := mc.fetch16()

		// line A opcodes are traps. the PC has already advanced past the
		// opcode so execution continues with the next instruction unless the
		// trap handler changes it
		if opcode&0xf000 == 0xa000 {
			total += mc.cycles
			return RunState{
				Status: StatusTrap,
				PC:     mc.instPC,
				Cycles: total,
				Opcode: opcode,
			}
		}

		err := mc.execute(opcode)
		if err == nil {
			if f := mc.mem.Fault(); f != nil {
				mc.mem.ClearFault()
				err = curated.Errorf(InvalidCPUState, f, mc.instPC)
			}
		}

		total += mc.cycles

		if err != nil {
			mc.pc = mc.instPC
			return RunState{
				Status: StatusError,
				PC:     mc.instPC,
				Cycles: total,
				Err:    err,
			}
		}

		if maxCycles > 0 && total >= maxCycles {
			return RunState{
				Status: StatusMaxCycles,
				PC:     mc.pc,
				Cycles: total,
			}
		}
	}
}

func (mc *M68K) invalid(opcode uint16) error {
	return curated.Errorf(InvalidCPUState, fmt.Sprintf("unsupported opcode %04x", opcode), mc.instPC)
}

func (mc *M68K) fetch16() uint16 {
	v := mc.mem.Read16(mc.pc)
	mc.pc += 2
	mc.cycles += cyclesAccess
	return v
}

func (mc *M68K) fetch32() uint32 {
	hi := uint32(mc.fetch16())
	return hi<<16 | uint32(mc.fetch16())
}

func (mc *M68K) push(v uint32) {
	mc.regs[SP] -= 4
	mc.mem.Write32(mc.regs[SP], v)
	mc.cycles += cyclesAccess
}

func (mc *M68K) pop() uint32 {
	v := mc.mem.Read32(mc.regs[SP])
	mc.regs[SP] += 4
	mc.cycles += cyclesAccess
	return v
}

func (mc *M68K) execute(opcode uint16) error {
	switch opcode >> 12 {
	case 0x0:
		return mc.immediate(opcode)
	case 0x1, 0x2, 0x3:
		return mc.move(opcode)
	case 0x4:
		return mc.miscellaneous(opcode)
	case 0x5:
		return mc.quick(opcode)
	case 0x6:
		return mc.branch(opcode)
	case 0x7:
		return mc.moveq(opcode)
	case 0x8:
		return mc.orDivide(opcode)
	case 0x9:
		return mc.arithmetic(opcode, true)
	case 0xb:
		return mc.compare(opcode)
	case 0xc:
		return mc.andMultiply(opcode)
	case 0xd:
		return mc.arithmetic(opcode, false)
	case 0xe:
		return mc.shift(opcode)
	}
	return mc.invalid(opcode)
}
