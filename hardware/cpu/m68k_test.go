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

package cpu_test

import (
	"testing"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/memory"
	"github.com/cnvogelg/vamos/test"
)

const (
	codeAddr  = 0x100
	stackAddr = 0x800
)

func putInstructions(mem *memory.RAM, addr uint32, words ...uint16) {
	for i, w := range words {
		mem.Write16(addr+uint32(i*2), w)
	}
}

func newCPU(t *testing.T) (*cpu.M68K, *memory.RAM) {
	t.Helper()
	mem := memory.NewRAM(0x1000)
	mc := cpu.NewM68K(mem)
	mc.SetPC(codeAddr)
	mc.SetReg(cpu.SP, stackAddr)
	return mc, mem
}

func TestTrap(t *testing.T) {
	mc, mem := newCPU(t)

	// moveq #42,d0; nop; trap
	putInstructions(mem, codeAddr, 0x702a, 0x4e71, 0xa123)

	rs := mc.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusTrap)
	test.Equate(t, rs.Opcode, 0xa123)
	test.Equate(t, rs.PC, codeAddr+4)
	test.Equate(t, mc.PC(), codeAddr+6)
	test.Equate(t, mc.Reg(cpu.D0), 42)
	test.ExpectEquality(t, rs.Cycles, 12)
}

func TestLoop(t *testing.T) {
	mc, mem := newCPU(t)

	// moveq #9,d1; loop: addq.l #1,d0; dbra d1,loop; trap
	putInstructions(mem, codeAddr, 0x7209, 0x5280, 0x51c9, 0xfffc, 0xa000)

	rs := mc.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusTrap)
	test.Equate(t, mc.Reg(cpu.D0), 10)
	test.Equate(t, mc.Reg(cpu.D1), 0xffff)
}

func TestSubroutine(t *testing.T) {
	mc, mem := newCPU(t)

	// jsr $200; trap
	putInstructions(mem, codeAddr, 0x4eb9, 0x0000, 0x0200, 0xa0ff)

	// moveq #5,d2; rts
	putInstructions(mem, 0x200, 0x7405, 0x4e75)

	rs := mc.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusTrap)
	test.Equate(t, rs.Opcode, 0xa0ff)
	test.Equate(t, mc.Reg(cpu.D2), 5)
	test.Equate(t, mc.Reg(cpu.SP), stackAddr)

	// return address was pushed onto the stack
	test.Equate(t, mem.Read32(stackAddr-4), codeAddr+6)
}

func TestCompareAndBranch(t *testing.T) {
	mc, mem := newCPU(t)

	// moveq #3,d0; cmpi.l #3,d0; beq.s +2; moveq #1,d1; trap
	putInstructions(mem, codeAddr, 0x7003, 0x0c80, 0x0000, 0x0003, 0x6702, 0x7201, 0xa000)

	rs := mc.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusTrap)
	test.Equate(t, mc.Reg(cpu.D1), 0)
	test.ExpectSuccess(t, mc.SR()&cpu.FlagZ == cpu.FlagZ)
}

func TestMoveMemory(t *testing.T) {
	mc, mem := newCPU(t)

	// lea $300.w,a0; move.l #$12345678,(a0); move.l (a0),d3; trap
	putInstructions(mem, codeAddr, 0x41f8, 0x0300, 0x20bc, 0x1234, 0x5678, 0x2610, 0xa000)

	rs := mc.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusTrap)
	test.Equate(t, mc.Reg(cpu.A0), 0x300)
	test.Equate(t, mem.Read32(0x300), 0x12345678)
	test.Equate(t, mc.Reg(cpu.D3), 0x12345678)
}

func TestReset(t *testing.T) {
	mc, mem := newCPU(t)
	putInstructions(mem, codeAddr, 0x4e71, 0x4e70)

	rs := mc.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusError)
	test.Equate(t, rs.PC, codeAddr+2)
	test.ExpectSuccess(t, curated.Is(rs.Err, cpu.InvalidCPUState))
}

func TestMemoryFault(t *testing.T) {
	mc, mem := newCPU(t)

	// move.l (a0),d0 with a0 outside of memory
	mc.SetReg(cpu.A0, 0x10000)
	putInstructions(mem, codeAddr, 0x2010)

	rs := mc.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusError)
	test.ExpectSuccess(t, curated.Has(rs.Err, memory.InvalidAccess))
	test.ExpectSuccess(t, mem.Fault())
}

func TestMaxCycles(t *testing.T) {
	mc, mem := newCPU(t)

	// bra.s * (infinite loop)
	putInstructions(mem, codeAddr, 0x60fe)

	rs := mc.Execute(100)
	test.ExpectEquality(t, rs.Status, cpu.StatusMaxCycles)
	test.ExpectSuccess(t, rs.Cycles >= 100)
	test.Equate(t, mc.PC(), codeAddr)
}

func TestContext(t *testing.T) {
	mc, _ := newCPU(t)
	mc.SetReg(cpu.D7, 0x77)
	ctx := mc.Context()

	mc.SetReg(cpu.D7, 0)
	mc.SetPC(0x400)
	mc.SetContext(ctx)
	test.Equate(t, mc.Reg(cpu.D7), 0x77)
	test.Equate(t, mc.PC(), codeAddr)
}

func TestParseRegister(t *testing.T) {
	r, err := cpu.ParseRegister("A6")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, r, cpu.A6)
	test.ExpectEquality(t, r.String(), "a6")

	r, err = cpu.ParseRegister("d1")
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, r, cpu.D1)

	_, err = cpu.ParseRegister("x9")
	test.ExpectFailure(t, err)
}
