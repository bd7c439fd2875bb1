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

package hardware_test

import (
	"testing"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/test"
)

func TestExit(t *testing.T) {
	m, err := hardware.NewMachine(0x10000)
	test.DemandSuccess(t, err)
	defer m.Close()

	// moveq #42,d0; rts
	m.Mem.Write16(0x2000, 0x702a)
	m.Mem.Write16(0x2002, 0x4e75)

	m.Prepare(0x2000, 0x3000)
	test.Equate(t, m.CPU.Reg(cpu.SP), 0x3000-4)
	test.Equate(t, m.Mem.Read32(0x3000-4), hardware.ExitAddr)

	rs := m.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusExit)
	test.Equate(t, m.CPU.Reg(cpu.D0), 42)
	test.Equate(t, m.CPU.Reg(cpu.SP), 0x3000)
}

func TestQuickTrap(t *testing.T) {
	m, err := hardware.NewMachine(0x10000)
	test.DemandSuccess(t, err)
	defer m.Close()

	free := m.Traps.NumFree()

	called := 0
	addr, err := m.SetupQuickTrap("quick", func(uint16, uint32) error {
		called++
		return nil
	})
	test.DemandSuccess(t, err)
	test.Equate(t, addr, hardware.QuickTrapAddr)
	test.ExpectEquality(t, m.Traps.NumFree(), free-1)

	// jsr addr; rts
	m.Mem.Write16(0x2000, 0x4eb9)
	m.Mem.Write32(0x2002, addr)
	m.Mem.Write16(0x2006, 0x4e75)
	m.Prepare(0x2000, 0x3000)

	rs := m.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusTrap)
	test.DemandSuccess(t, m.Traps.Trigger(rs.Opcode, rs.PC))
	rs = m.Execute(0)
	test.ExpectEquality(t, rs.Status, cpu.StatusExit)
	test.ExpectEquality(t, called, 1)

	test.ExpectSuccess(t, m.FreeQuickTrap(addr))
	test.ExpectEquality(t, m.Traps.NumFree(), free)
	test.ExpectFailure(t, m.FreeQuickTrap(addr))
}

func TestTooSmall(t *testing.T) {
	_, err := hardware.NewMachine(0x100)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.IsAny(err))
}
