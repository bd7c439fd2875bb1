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

package exec_test

import (
	"testing"

	"github.com/cnvogelg/vamos/alloc"
	"github.com/cnvogelg/vamos/fd"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/libcore"
	"github.com/cnvogelg/vamos/libmgr"
	"github.com/cnvogelg/vamos/libs/exec"
	"github.com/cnvogelg/vamos/schedule"
	"github.com/cnvogelg/vamos/test"
)

// function biases
const (
	biasForbid      = 132
	biasPermit      = 138
	biasAllocMem    = 198
	biasFreeMem     = 210
	biasAvailMem    = 216
	biasFindTask    = 294
	biasSetSignal   = 306
	biasWait        = 318
	biasSignal      = 324
	biasAllocSignal = 330
	biasFreeSignal  = 336
	biasOpenLibrary = 552
	biasCloseLib    = 414
)

// emulated code and data are placed below the region managed by the
// allocator
const (
	codeA    = uint32(0x0a00)
	codeB    = uint32(0x0a40)
	callCode = uint32(0x0a80)
	strAddr  = uint32(0x0b00)
)

type fixture struct {
	m    *hardware.Machine
	a    *alloc.Allocator
	s    *schedule.Scheduler
	mgr  *libmgr.Manager
	base uint32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	m, err := hardware.NewMachine(0x20000)
	test.DemandSuccess(t, err)

	ldr, err := fd.NewLoader("", 0)
	test.DemandSuccess(t, err)

	f := &fixture{
		m: m,
		a: alloc.NewAllocator(m.Mem, hardware.RAMBegin, 0),
	}
	f.s = schedule.NewScheduler(m, f.a, schedule.Config{}, nil)
	f.mgr = libmgr.NewManager(libcore.NewContext(m, f.a, f.s), ldr, libmgr.Config{})
	exec.Register(f.mgr)

	v, err := exec.Bootstrap(f.mgr)
	test.DemandSuccess(t, err)
	f.base = v.Base()

	t.Cleanup(func() {
		_ = f.s.Close()
		m.Close()
	})

	return f
}

func (f *fixture) code(addr uint32, words ...uint16) {
	for i, w := range words {
		f.m.Mem.Write16(addr+uint32(i*2), w)
	}
}

// jsr -bias(a6)
func jsr(bias int) (uint16, uint16) {
	return 0x4eae, uint16(-bias)
}

// call the exec function from a nested run of the task. returns d0.
func (f *fixture) call(task *schedule.Task, bias int, regs map[cpu.Register]uint32) (uint32, error) {
	op, disp := jsr(bias)
	f.code(callCode, op, disp, 0x4e75)

	set := map[cpu.Register]uint32{cpu.A6: f.base}
	for r, v := range regs {
		set[r] = v
	}
	rs, err := task.SubRun(runtime.Code{
		Name:    "call",
		PC:      callCode,
		SetRegs: set,
		GetRegs: []cpu.Register{cpu.D0},
	})
	if err != nil {
		return 0, err
	}
	return rs.Regs[cpu.D0], nil
}

// host runs the function as the only task.
func (f *fixture) host(t *testing.T, name string, fn schedule.HostFunc) {
	t.Helper()
	task, err := f.s.NewHostTask(name, fn, 0)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, f.s.AddTask(task))
	test.DemandSuccess(t, f.s.Schedule())
}

func TestBootstrap(t *testing.T) {
	f := newFixture(t)
	test.ExpectEquality(t, f.m.Mem.Read32(hardware.ExecBasePtr), f.base)

	lib := libcore.NewLibrary(f.m.Mem, f.base)
	test.ExpectEquality(t, lib.Name(), exec.Name)
	test.ExpectEquality(t, lib.Version(), uint16(40))
	test.ExpectEquality(t, lib.OpenCnt(), uint16(1))

	left, err := f.mgr.Shutdown()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, left, 0)
	test.ExpectEquality(t, f.m.Mem.Read32(hardware.ExecBasePtr), uint32(0))
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestWaitAndSignal(t *testing.T) {
	f := newFixture(t)

	// movea.l 4.w,a6; moveq #1,d0; jsr Wait(a6); rts
	op, disp := jsr(biasWait)
	f.code(codeA, 0x2c78, 0x0004, 0x7001, op, disp, 0x4e75)

	// movea.l 4.w,a6; moveq #1,d0; jsr Signal(a6); moveq #7,d0; rts
	op, disp = jsr(biasSignal)
	f.code(codeB, 0x2c78, 0x0004, 0x7001, op, disp, 0x7007, 0x4e75)

	ta, err := f.s.NewNativeTask("A", codeA, 0, nil)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, f.s.AddTask(ta))

	tb, err := f.s.NewNativeTask("B", codeB, 0, map[cpu.Register]uint32{cpu.A1: ta.Addr()})
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, f.s.AddTask(tb))

	test.DemandSuccess(t, f.s.Schedule())
	test.ExpectEquality(t, ta.ExitCode(), uint32(1))
	test.ExpectEquality(t, tb.ExitCode(), uint32(7))
	test.ExpectEquality(t, f.s.NumTasks(), 0)

	_, err = f.mgr.Shutdown()
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestOpenLibrary(t *testing.T) {
	f := newFixture(t)
	f.m.Mem.WriteCStr(strAddr, exec.Name)
	f.m.Mem.WriteCStr(strAddr+0x20, "missing.library")

	lib := libcore.NewLibrary(f.m.Mem, f.base)

	f.host(t, "opener", func(task *schedule.Task) (uint32, error) {
		base, err := f.call(task, biasOpenLibrary, map[cpu.Register]uint32{cpu.A1: strAddr, cpu.D0: 33})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, base, f.base)
		test.ExpectEquality(t, lib.OpenCnt(), uint16(2))

		_, err = f.call(task, biasCloseLib, map[cpu.Register]uint32{cpu.A1: base})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, lib.OpenCnt(), uint16(1))

		// too new
		base, err = f.call(task, biasOpenLibrary, map[cpu.Register]uint32{cpu.A1: strAddr, cpu.D0: 50})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, base, uint32(0))

		// no function description so not even a fake library is possible
		base, err = f.call(task, biasOpenLibrary, map[cpu.Register]uint32{cpu.A1: strAddr + 0x20})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, base, uint32(0))

		// closing nothing is harmless
		_, err = f.call(task, biasCloseLib, map[cpu.Register]uint32{cpu.A1: 0})
		test.ExpectSuccess(t, err)
		return 0, nil
	})
}

func TestMemory(t *testing.T) {
	f := newFixture(t)

	f.host(t, "memory", func(task *schedule.Task) (uint32, error) {
		avail, err := f.call(task, biasAvailMem, map[cpu.Register]uint32{cpu.D1: exec.MemfAny})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, avail, f.a.FreeBytes())

		addr, err := f.call(task, biasAllocMem, map[cpu.Register]uint32{cpu.D0: 100, cpu.D1: exec.MemfClear})
		test.ExpectSuccess(t, err)
		test.ExpectInequality(t, addr, uint32(0))
		test.ExpectEquality(t, f.a.FreeBytes(), avail-100)

		// far too much
		none, err := f.call(task, biasAllocMem, map[cpu.Register]uint32{cpu.D0: 0x100000})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, none, uint32(0))

		largest, err := f.call(task, biasAvailMem, map[cpu.Register]uint32{cpu.D1: exec.MemfLargest})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, largest, f.a.LargestChunk())

		_, err = f.call(task, biasFreeMem, map[cpu.Register]uint32{cpu.A1: addr, cpu.D0: 100})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, f.a.FreeBytes(), avail)
		return 0, nil
	})
}

func TestFreeMemInvalid(t *testing.T) {
	f := newFixture(t)

	task, err := f.s.NewHostTask("memory", func(task *schedule.Task) (uint32, error) {
		return f.call(task, biasFreeMem, map[cpu.Register]uint32{cpu.A1: 0x8000, cpu.D0: 16})
	}, 0)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, f.s.AddTask(task))
	err = f.s.Schedule()
	test.ExpectFailure(t, err)
}

func TestTasksAndSignals(t *testing.T) {
	f := newFixture(t)
	f.m.Mem.WriteCStr(strAddr, "signals")

	f.host(t, "signals", func(task *schedule.Task) (uint32, error) {
		me, err := f.call(task, biasFindTask, map[cpu.Register]uint32{cpu.A1: 0})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, me, task.Addr())

		me, err = f.call(task, biasFindTask, map[cpu.Register]uint32{cpu.A1: strAddr})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, me, task.Addr())

		sig, err := f.call(task, biasAllocSignal, map[cpu.Register]uint32{cpu.D0: 0xffffffff})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, sig, uint32(31))

		sig, err = f.call(task, biasAllocSignal, map[cpu.Register]uint32{cpu.D0: 31})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, sig, uint32(0xffffffff))

		old, err := f.call(task, biasSetSignal, map[cpu.Register]uint32{cpu.D0: 1 << 31, cpu.D1: 1 << 31})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, old, uint32(0))

		// already received so no wait
		got, err := f.call(task, biasWait, map[cpu.Register]uint32{cpu.D0: 1 << 31})
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, got, uint32(1<<31))

		_, err = f.call(task, biasFreeSignal, map[cpu.Register]uint32{cpu.D0: 31})
		test.ExpectSuccess(t, err)
		alloc, _, _ := task.Signals()
		test.ExpectEquality(t, alloc, uint32(0xffff))

		_, err = f.call(task, biasForbid, nil)
		test.ExpectSuccess(t, err)
		test.ExpectSuccess(t, task.IsForbidden())
		_, err = f.call(task, biasPermit, nil)
		test.ExpectSuccess(t, err)
		test.ExpectFailure(t, task.IsForbidden())
		return 0, nil
	})
}
