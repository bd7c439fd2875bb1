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

package libcore

import (
	"fmt"
	"io"

	"github.com/cnvogelg/vamos/fd"
	"github.com/cnvogelg/vamos/hardware/memory"
	"github.com/cnvogelg/vamos/hardware/traps"
)

// opcodes used in jump table entries.
const (
	opRTS       = uint16(0x4e75)
	opNOP       = uint16(0x4e71)
	opJMP       = uint16(0x4ef9)
	opMoveqZero = uint16(0x7000)
)

// EntryKind describes the content of a jump table entry.
type EntryKind int

// List of valid EntryKind values.
const (
	EntryUnknown EntryKind = iota
	EntryTrap
	EntryZero
	EntryJump
)

func (k EntryKind) String() string {
	switch k {
	case EntryTrap:
		return "trap"
	case EntryZero:
		return "zero"
	case EntryJump:
		return "jump"
	}
	return "unknown"
}

// Entry is a decoded jump table entry.
type Entry struct {
	Index int
	Bias  int
	Addr  uint32
	Kind  EntryKind

	// trap ID for EntryTrap entries and the destination address for
	// EntryJump entries
	Trap   int
	Target uint32

	// nil for holes in the jump table
	Func *fd.Func
}

func (e Entry) String() string {
	name := "-"
	if e.Func != nil {
		name = e.Func.Name
	}
	s := fmt.Sprintf("#%03d (-%-4d) %-20s %06x %s", e.Index, e.Bias, name, e.Addr, e.Kind)
	switch e.Kind {
	case EntryTrap:
		s = fmt.Sprintf("%s %d", s, e.Trap)
	case EntryJump:
		s = fmt.Sprintf("%s %06x", s, e.Target)
	}
	return s
}

// JumpTable gives access to the jump table below the base address of a
// library.
type JumpTable struct {
	mem  *memory.RAM
	base uint32
	ft   *fd.FuncTable
}

// NewJumpTable is the preferred method of initialisation for the JumpTable
// type. The function table is used to name the entries and may be nil.
func NewJumpTable(mem *memory.RAM, base uint32, ft *fd.FuncTable) JumpTable {
	return JumpTable{mem: mem, base: base, ft: ft}
}

// Addr returns the address of the entry with the bias.
func (jt JumpTable) Addr(bias int) uint32 {
	return jt.base - uint32(bias)
}

func (jt JumpTable) writeTrap(bias int, id int) {
	a := jt.Addr(bias)
	jt.mem.Write16(a, traps.Opcode(id))
	jt.mem.Write16(a+2, opRTS)
	jt.mem.Write16(a+4, opNOP)
}

func (jt JumpTable) writeZero(bias int) {
	a := jt.Addr(bias)
	jt.mem.Write16(a, opMoveqZero)
	jt.mem.Write16(a+2, opRTS)
	jt.mem.Write16(a+4, opNOP)
}

// SetJump makes the entry jump to the address. Native libraries use entries
// of this form.
func (jt JumpTable) SetJump(bias int, target uint32) {
	a := jt.Addr(bias)
	jt.mem.Write16(a, opJMP)
	jt.mem.Write32(a+2, target)
}

// Entry decodes the entry at the bias.
func (jt JumpTable) Entry(bias int) Entry {
	a := jt.Addr(bias)
	e := Entry{
		Index: bias/fd.EntrySize - 1,
		Bias:  bias,
		Addr:  a,
	}
	if jt.ft != nil {
		e.Func = jt.ft.ByBias(bias)
	}

	op := jt.mem.Read16(a)
	if id, ok := traps.ID(op); ok {
		e.Kind = EntryTrap
		e.Trap = id
		return e
	}
	switch op {
	case opMoveqZero:
		e.Kind = EntryZero
	case opJMP:
		e.Kind = EntryJump
		e.Target = jt.mem.Read32(a + 2)
	}
	return e
}

// Entries decodes the number of entries.
func (jt JumpTable) Entries(num int) []Entry {
	l := make([]Entry, num)
	for i := range l {
		l[i] = jt.Entry((i + 1) * fd.EntrySize)
	}
	return l
}

// Dump writes the decoded entries.
func (jt JumpTable) Dump(w io.Writer, num int) {
	for _, e := range jt.Entries(num) {
		fmt.Fprintln(w, e.String())
	}
}
