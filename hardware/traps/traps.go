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

package traps

import (
	"fmt"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/memory"
	"github.com/cnvogelg/vamos/logger"
)

// Sentinel errors for the traps package.
const (
	NoTrapAvailable = "traps: no trap available"
	UnboundTrap     = "traps: unbound trap %#04x at pc=%#06x"
	NotInUse        = "traps: trap %d is not in use"
)

// MaxTraps is the number of trap IDs that can be encoded in a trap opcode.
const MaxTraps = 0x1000

const opcodeBase = 0xa000

// Func is the host function called when a trap is triggered. The opcode and
// the address of the trap instruction are passed to the function.
type Func func(opcode uint16, pc uint32) error

type trap struct {
	label   string
	fn      Func
	autoRTS bool
}

// Table is a bounded pool of trap IDs and the host functions bound to them.
type Table struct {
	core cpu.Core
	mem  memory.Bus

	traps   []*trap
	numFree int

	// lowest ID that may be free
	hint int
}

// NewTable is the preferred method of initialisation for the Table type. The
// size is capped to MaxTraps.
func NewTable(core cpu.Core, mem memory.Bus, size int) *Table {
	if size <= 0 || size > MaxTraps {
		size = MaxTraps
	}
	return &Table{
		core:    core,
		mem:     mem,
		traps:   make([]*trap, size),
		numFree: size,
	}
}

// Opcode returns the trap opcode for a trap ID.
func Opcode(id int) uint16 {
	return opcodeBase | uint16(id&0x0fff)
}

// ID returns the trap ID encoded in the opcode. Returns false if the opcode is
// not a trap opcode.
func ID(opcode uint16) (int, bool) {
	if opcode&0xf000 != opcodeBase {
		return 0, false
	}
	return int(opcode & 0x0fff), true
}

// Size returns the number of IDs in the pool.
func (tbl *Table) Size() int {
	return len(tbl.traps)
}

// NumFree returns the number of IDs that are not in use.
func (tbl *Table) NumFree() int {
	return tbl.numFree
}

// Setup binds the host function to the lowest free trap ID and returns the ID.
// Returns the NoTrapAvailable error if the pool is exhausted. The caller may
// choose to continue without the trap.
func (tbl *Table) Setup(label string, fn Func, autoRTS bool) (int, error) {
	if tbl.numFree == 0 {
		return 0, curated.Errorf(NoTrapAvailable)
	}

	for id := tbl.hint; id < len(tbl.traps); id++ {
		if tbl.traps[id] == nil {
			tbl.traps[id] = &trap{
				label:   label,
				fn:      fn,
				autoRTS: autoRTS,
			}
			tbl.numFree--
			tbl.hint = id + 1
			return id, nil
		}
	}

	// numFree and the hint disagree. this can only be a programming error
	panic(fmt.Sprintf("traps: %d free traps but none found after %d", tbl.numFree, tbl.hint))
}

// Free returns the trap ID to the pool.
func (tbl *Table) Free(id int) error {
	if id < 0 || id >= len(tbl.traps) || tbl.traps[id] == nil {
		return curated.Errorf(NotInUse, id)
	}
	tbl.traps[id] = nil
	tbl.numFree++
	if id < tbl.hint {
		tbl.hint = id
	}
	return nil
}

// Label returns the label given to the trap when it was set up.
func (tbl *Table) Label(id int) string {
	if id < 0 || id >= len(tbl.traps) || tbl.traps[id] == nil {
		return ""
	}
	return tbl.traps[id].label
}

// Trigger calls the host function bound to the trap opcode. It is an error
// to trigger a trap that is not bound to a function.
//
// Errors returned by the host function are returned unchanged and the RTS
// for autoRTS traps is not performed.
func (tbl *Table) Trigger(opcode uint16, pc uint32) error {
	id, ok := ID(opcode)
	if !ok || id >= len(tbl.traps) || tbl.traps[id] == nil {
		logger.Logf(logger.Allow, "traps", "unbound trap %04x at %06x", opcode, pc)
		return curated.Errorf(UnboundTrap, opcode, pc)
	}
	t := tbl.traps[id]

	if err := t.fn(opcode, pc); err != nil {
		return err
	}

	if t.autoRTS {
		sp := tbl.core.Reg(cpu.SP)
		tbl.core.SetPC(tbl.mem.Read32(sp))
		tbl.core.SetReg(cpu.SP, sp+4)
	}

	return nil
}
