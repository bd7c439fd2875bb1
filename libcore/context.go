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
	"github.com/cnvogelg/vamos/alloc"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/memory"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/hardware/traps"
	"github.com/cnvogelg/vamos/schedule"
)

// Context is given to every Method. It bundles the parts of the emulation a
// library function needs.
type Context struct {
	Machine *hardware.Machine
	CPU     cpu.Core
	Mem     *memory.RAM
	Traps   *traps.Table
	Alloc   *alloc.Allocator
	Sched   *schedule.Scheduler

	// base address of the library the context belongs to. set when the
	// library is created
	Base uint32
}

// NewContext is the preferred method of initialisation for the Context type.
func NewContext(machine *hardware.Machine, a *alloc.Allocator, sched *schedule.Scheduler) *Context {
	return &Context{
		Machine: machine,
		CPU:     machine.CPU,
		Mem:     machine.Mem,
		Traps:   machine.Traps,
		Alloc:   a,
		Sched:   sched,
	}
}

// ForLibrary returns a copy of the context with the Base field set.
func (ctx *Context) ForLibrary(base uint32) *Context {
	c := *ctx
	c.Base = base
	return &c
}

// Task returns the current task. Returns nil if no task is running.
func (ctx *Context) Task() *schedule.Task {
	if ctx.Sched == nil {
		return nil
	}
	return ctx.Sched.Current()
}

// CallerPC returns the return address of the library call. Only meaningful
// while a stub is running.
func (ctx *Context) CallerPC() uint32 {
	return ctx.Mem.Read32(ctx.CPU.Reg(cpu.SP))
}

// Reg returns the value of the register.
func (ctx *Context) Reg(r cpu.Register) uint32 {
	return ctx.CPU.Reg(r)
}

// SetReg sets the value of the register.
func (ctx *Context) SetReg(r cpu.Register, v uint32) {
	ctx.CPU.SetReg(r, v)
}

// SubRun runs emulated code as a nested run of the current task. Outside of a
// task the code is run on a runtime of its own.
func (ctx *Context) SubRun(code runtime.Code) (*runtime.RunState, error) {
	if t := ctx.Task(); t != nil {
		return t.SubRun(code)
	}
	return runtime.NewRuntime(ctx.Machine, 0).Run(code)
}
