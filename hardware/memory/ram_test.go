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

package memory_test

import (
	"testing"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/memory"
	"github.com/cnvogelg/vamos/test"
)

func TestEndian(t *testing.T) {
	ram := memory.NewRAM(0x100)

	ram.Write32(0x10, 0xdeadbeef)
	test.Equate(t, ram.Read8(0x10), 0xde)
	test.Equate(t, ram.Read8(0x13), 0xef)
	test.Equate(t, ram.Read16(0x10), 0xdead)
	test.Equate(t, ram.Read16(0x12), 0xbeef)
	test.Equate(t, ram.Read32(0x10), 0xdeadbeef)

	ram.WriteS16(0x20, -2)
	test.Equate(t, ram.Read16(0x20), 0xfffe)
	test.ExpectEquality(t, ram.ReadS16(0x20), -2)
	ram.WriteS8(0x22, -1)
	test.ExpectEquality(t, ram.ReadS8(0x22), -1)
	ram.WriteS32(0x24, -100)
	test.ExpectEquality(t, ram.ReadS32(0x24), -100)

	test.ExpectSuccess(t, ram.Fault())
}

func TestFault(t *testing.T) {
	ram := memory.NewRAM(0x100)

	// last long word is fine
	ram.Write32(0xfc, 1)
	test.ExpectSuccess(t, ram.Fault())

	// straddling the end is not
	test.Equate(t, ram.Read32(0xfe), 0)
	err := ram.Fault()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, memory.InvalidAccess))
	test.ExpectEquality(t, err.Error(), "memory: invalid access: R4 @ 0x000000fe")

	// the first fault is kept
	ram.Write8(0x200, 1)
	test.ExpectEquality(t, ram.Fault().Error(), "memory: invalid access: R4 @ 0x000000fe")

	ram.ClearFault()
	test.ExpectSuccess(t, ram.Fault())
}

func TestStrings(t *testing.T) {
	ram := memory.NewRAM(0x100)

	ram.WriteCStr(0x10, "exec.library")
	test.ExpectEquality(t, ram.ReadCStr(0x10), "exec.library")
	test.Equate(t, ram.Read8(0x10+12), 0)

	ram.WriteBStr(0x40, "dos")
	test.Equate(t, ram.Read8(0x40), 3)
	test.ExpectEquality(t, ram.ReadBStr(0x40), "dos")
	test.ExpectEquality(t, ram.ReadCStr(0x41), "dos")
}

func TestBlocks(t *testing.T) {
	ram := memory.NewRAM(0x100)
	ram.WriteBlock(0x10, []byte{1, 2, 3, 4})
	test.ExpectEquality(t, string(ram.ReadBlock(0x10, 4)), string([]byte{1, 2, 3, 4}))
	ram.Clear(0x10, 4, 0)
	test.Equate(t, ram.Read32(0x10), 0)
}
