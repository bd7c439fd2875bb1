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

package schedule

import (
	"github.com/cnvogelg/vamos/alloc"
	"github.com/cnvogelg/vamos/hardware/memory"
)

// TCBSize is the size of the exec Task structure.
const TCBSize = 92

// offsets into the exec Task structure.
const (
	tcbType      = 8
	tcbName      = 10
	tcbState     = 15
	tcbTDNestCnt = 17
	tcbSigAlloc  = 18
	tcbSigWait   = 22
	tcbSigRecvd  = 26
	tcbSPLower   = 58
	tcbSPUpper   = 62
)

// NTTask is the node type of a task.
const NTTask = 1

// exec task states as stored in the tc_State field.
var tcbStates = map[State]uint8{
	StateAdded:   1,
	StateRun:     2,
	StateReady:   3,
	StateWait:    4,
	StateRemoved: 6,
}

// tcb is the exec Task structure of a task. emulated code finds tasks by the
// address of this structure.
type tcb struct {
	mem  *memory.RAM
	addr uint32
	name uint32
}

func allocTCB(a *alloc.Allocator, mem *memory.RAM, name string) (tcb, error) {
	addr, err := a.Alloc(TCBSize, name)
	if err != nil {
		return tcb{}, err
	}
	nameAddr, err := a.AllocCStr(name, name+" name")
	if err != nil {
		_ = a.Free(addr, TCBSize)
		return tcb{}, err
	}
	mem.Write8(addr+tcbType, NTTask)
	mem.Write32(addr+tcbName, nameAddr)
	return tcb{mem: mem, addr: addr, name: nameAddr}, nil
}

func (c tcb) free(a *alloc.Allocator) error {
	if err := a.Release(c.name); err != nil {
		return err
	}
	return a.Free(c.addr, TCBSize)
}

// sync copies the host side state of the task into the structure.
func (c tcb) sync(t *Task) {
	c.mem.Write8(c.addr+tcbState, tcbStates[t.state])
	// the nest count is -1 outside of a Forbid() region
	c.mem.Write8(c.addr+tcbTDNestCnt, uint8(t.forbid-1))
	c.mem.Write32(c.addr+tcbSigAlloc, t.sigAlloc)
	c.mem.Write32(c.addr+tcbSigWait, t.sigWait)
	c.mem.Write32(c.addr+tcbSigRecvd, t.sigRecvd)
	c.mem.Write32(c.addr+tcbSPLower, t.stack.Lower)
	c.mem.Write32(c.addr+tcbSPUpper, t.stack.Upper)
}
