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

package schedule_test

import (
	goruntime "runtime"
	"testing"

	"github.com/cnvogelg/vamos/alloc"
	"github.com/cnvogelg/vamos/assert"
	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/notifications"
	"github.com/cnvogelg/vamos/schedule"
	"github.com/cnvogelg/vamos/test"
)

// emulated code is placed below the region managed by the allocator
const codeAddr = uint32(0x0a00)

type fixture struct {
	m     *hardware.Machine
	a     *alloc.Allocator
	s     *schedule.Scheduler
	rec   *notifications.Recorder
	trace []string
}

func newFixture(t *testing.T, slice int) *fixture {
	t.Helper()

	m, err := hardware.NewMachine(0x20000)
	test.DemandSuccess(t, err)

	f := &fixture{
		m:   m,
		a:   alloc.NewAllocator(m.Mem, hardware.RAMBegin, 0),
		rec: &notifications.Recorder{},
	}
	f.s = schedule.NewScheduler(m, f.a, schedule.Config{SliceCycles: slice}, f.rec)

	t.Cleanup(func() {
		_ = f.s.Close()
		m.Close()
	})

	return f
}

func (f *fixture) log(s string) {
	f.trace = append(f.trace, s)
}

func (f *fixture) code(words ...uint16) {
	for i, w := range words {
		f.m.Mem.Write16(codeAddr+uint32(i*2), w)
	}
}

func (f *fixture) host(t *testing.T, name string, fn schedule.HostFunc) *schedule.Task {
	t.Helper()
	task, err := f.s.NewHostTask(name, fn, 0)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, f.s.AddTask(task))
	return task
}

func (f *fixture) native(t *testing.T, name string, regs map[cpu.Register]uint32) *schedule.Task {
	t.Helper()
	task, err := f.s.NewNativeTask(name, codeAddr, 0, regs)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, f.s.AddTask(task))
	return task
}

func expectTrace(t *testing.T, trace []string, expected ...string) {
	t.Helper()
	if test.ExpectEquality(t, len(trace), len(expected), "trace length") {
		for i := range trace {
			test.ExpectEquality(t, trace[i], expected[i], i)
		}
	}
}

func TestNoTasks(t *testing.T) {
	f := newFixture(t, 0)
	err := f.s.Schedule()
	test.ExpectSuccess(t, curated.Is(err, schedule.NoTasks))
}

func TestHostExitCode(t *testing.T) {
	f := newFixture(t, 0)
	task := f.host(t, "host", func(*schedule.Task) (uint32, error) {
		return 42, nil
	})
	test.ExpectEquality(t, task.State(), schedule.StateAdded)

	test.DemandSuccess(t, f.s.Schedule())
	test.ExpectEquality(t, task.ExitCode(), uint32(42))
	test.ExpectEquality(t, task.State(), schedule.StateRemoved)
	test.ExpectEquality(t, f.s.NumTasks(), 0)
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestNativeExitCode(t *testing.T) {
	f := newFixture(t, 0)

	// add.l d1,d0; rts
	f.code(0xd081, 0x4e75)

	task := f.native(t, "native", map[cpu.Register]uint32{cpu.D0: 40, cpu.D1: 2})
	test.ExpectSuccess(t, task.IsNative())

	test.DemandSuccess(t, f.s.Schedule())
	test.ExpectEquality(t, task.ExitCode(), uint32(42))
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestFIFO(t *testing.T) {
	f := newFixture(t, 0)

	for _, n := range []string{"T1", "T2", "T3"} {
		n := n
		f.host(t, n, func(*schedule.Task) (uint32, error) {
			f.log(n + " start")
			f.log(n + " end")
			return 0, nil
		})
	}

	test.DemandSuccess(t, f.s.Schedule())
	expectTrace(t, f.trace, "T1 start", "T1 end", "T2 start", "T2 end", "T3 start", "T3 end")
	expectTrace(t, f.rec.Filter(notifications.NotifyActiveTask), "T1", "T2", "T3", "")
	expectTrace(t, f.rec.Filter(notifications.NotifyRemoveTask), "T1", "T2", "T3")
}

func TestFiberPerTask(t *testing.T) {
	f := newFixture(t, 0)
	sched := assert.GoroutineID()

	ids := make(map[string]uint64)
	for _, n := range []string{"T1", "T2"} {
		n := n
		f.host(t, n, func(task *schedule.Task) (uint32, error) {
			ids[n] = assert.GoroutineID()
			task.Reschedule()
			test.ExpectEquality(t, assert.GoroutineID(), ids[n], n)
			return 0, nil
		})
	}

	test.DemandSuccess(t, f.s.Schedule())
	test.ExpectInequality(t, ids["T1"], sched)
	test.ExpectInequality(t, ids["T2"], sched)
	test.ExpectInequality(t, ids["T1"], ids["T2"])
}

func TestWaitAndSignal(t *testing.T) {
	f := newFixture(t, 0)

	var a *schedule.Task
	a = f.host(t, "A", func(task *schedule.Task) (uint32, error) {
		f.log("A wait")
		got, err := task.Wait(1)
		if err != nil {
			return 0, err
		}
		f.log("A woke")
		return got + 10, nil
	})
	b := f.host(t, "B", func(task *schedule.Task) (uint32, error) {
		f.log("B signal")
		test.ExpectEquality(t, a.State(), schedule.StateWait)
		a.SetSignal(1, 1)
		f.log("B exit")
		return 20, nil
	})

	test.DemandSuccess(t, f.s.Schedule())
	expectTrace(t, f.trace, "A wait", "B signal", "A woke", "B exit")
	test.ExpectEquality(t, a.ExitCode(), uint32(11))
	test.ExpectEquality(t, b.ExitCode(), uint32(20))
	test.ExpectEquality(t, f.s.NumTasks(), 0)
	test.ExpectSuccess(t, f.a.IsAllFree())

	expectTrace(t, f.rec.Filter(notifications.NotifyWaitingTask), "A")
	expectTrace(t, f.rec.Filter(notifications.NotifyWakeUpTask), "A")
}

func TestSignalAlreadyReceived(t *testing.T) {
	f := newFixture(t, 0)

	f.host(t, "self", func(task *schedule.Task) (uint32, error) {
		old := task.SetSignal(0x30000, 0x30000)
		test.ExpectEquality(t, old, uint32(0))

		// does not block
		got, err := task.Wait(0x10000)
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, got, uint32(0x10000))

		_, _, recvd := task.Signals()
		test.ExpectEquality(t, recvd, uint32(0x20000))

		got, _ = task.Wait(0)
		test.ExpectEquality(t, got, uint32(0))
		return 0, nil
	})

	test.DemandSuccess(t, f.s.Schedule())
}

func TestWakePriority(t *testing.T) {
	f := newFixture(t, 0)

	var a *schedule.Task
	a = f.host(t, "A", func(task *schedule.Task) (uint32, error) {
		f.log("A wait")
		_, err := task.Wait(0x100)
		f.log("A woke")
		return 1, err
	})
	f.host(t, "B", func(task *schedule.Task) (uint32, error) {
		f.log("B1")
		task.Reschedule()
		f.log("B2")
		a.SetSignal(0x100, 0x100)
		f.log("B3")
		return 2, nil
	})
	f.host(t, "C", func(task *schedule.Task) (uint32, error) {
		f.log("C1")
		task.Reschedule()
		f.log("C2")
		return 3, nil
	})

	test.DemandSuccess(t, f.s.Schedule())

	// the woken task runs before C which was merely preempted
	expectTrace(t, f.trace, "A wait", "B1", "C1", "B2", "A woke", "C2", "B3")
}

func TestWakeOrder(t *testing.T) {
	f := newFixture(t, 0)

	var w1, w2 *schedule.Task
	w1 = f.host(t, "W1", func(task *schedule.Task) (uint32, error) {
		_, err := task.Wait(0x100)
		f.log("W1")
		return 0, err
	})
	w2 = f.host(t, "W2", func(task *schedule.Task) (uint32, error) {
		_, err := task.Wait(0x100)
		f.log("W2")
		return 0, err
	})
	f.host(t, "S", func(task *schedule.Task) (uint32, error) {
		task.Forbid()
		w1.SetSignal(0x100, 0x100)
		w2.SetSignal(0x100, 0x100)
		task.Permit()
		f.log("S")
		return 0, nil
	})

	test.DemandSuccess(t, f.s.Schedule())

	// both waiters run ahead of the signalling task, in the order they were
	// woken
	expectTrace(t, f.trace, "W1", "W2", "S")
	expectTrace(t, f.rec.Filter(notifications.NotifyWakeUpTask), "W1", "W2")
}

func TestDeadlock(t *testing.T) {
	f := newFixture(t, 0)

	f.host(t, "A", func(task *schedule.Task) (uint32, error) {
		_, err := task.Wait(0x100)
		return 0, err
	})
	f.host(t, "B", func(task *schedule.Task) (uint32, error) {
		_, err := task.Wait(0x200)
		return 0, err
	})

	err := f.s.Schedule()
	test.ExpectSuccess(t, curated.Is(err, schedule.Deadlock))
	test.ExpectEquality(t, f.s.NumTasks(), 2)
	test.ExpectSuccess(t, f.s.Current() == nil)

	test.ExpectSuccess(t, f.s.Close())
	test.ExpectEquality(t, f.s.NumTasks(), 0)
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestHostError(t *testing.T) {
	f := newFixture(t, 0)

	f.host(t, "failing", func(task *schedule.Task) (uint32, error) {
		return 0, curated.Errorf("test error")
	})
	f.host(t, "never", func(task *schedule.Task) (uint32, error) {
		t.Errorf("task after failure must not run")
		return 0, nil
	})

	err := f.s.Schedule()
	test.ExpectSuccess(t, curated.Is(err, schedule.TaskFailed))
	test.ExpectSuccess(t, curated.Has(err, "test error"))
	test.ExpectEquality(t, f.s.NumTasks(), 1)

	test.ExpectSuccess(t, f.s.Close())
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestHostPanic(t *testing.T) {
	f := newFixture(t, 0)

	f.host(t, "panic", func(task *schedule.Task) (uint32, error) {
		var m map[string]int
		m["boom"] = 1
		return 0, nil
	})

	err := f.s.Schedule()
	test.ExpectSuccess(t, curated.Is(err, schedule.TaskFailed))
	test.ExpectSuccess(t, curated.Has(err, schedule.UnexpectedHostException))
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestNativeReset(t *testing.T) {
	f := newFixture(t, 0)

	// moveq #1,d0; reset
	f.code(0x7001, 0x4e70)
	f.native(t, "reset", nil)

	err := f.s.Schedule()
	test.ExpectSuccess(t, curated.Is(err, schedule.TaskFailed))
	test.ExpectSuccess(t, curated.Has(err, cpu.InvalidCPUState))
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestPreemption(t *testing.T) {
	f := newFixture(t, 100)

	// moveq #100,d2; loop: dbra d2,loop; move.l d1,d0; rts
	f.code(0x7464, 0x51ca, 0xfffe, 0x2001, 0x4e75)

	x := f.native(t, "X", map[cpu.Register]uint32{cpu.D1: 1})
	y := f.native(t, "Y", map[cpu.Register]uint32{cpu.D1: 2})

	test.DemandSuccess(t, f.s.Schedule())
	test.ExpectEquality(t, x.ExitCode(), uint32(1))
	test.ExpectEquality(t, y.ExitCode(), uint32(2))
	test.ExpectSuccess(t, f.a.IsAllFree())

	// the tasks take turns
	active := f.rec.Filter(notifications.NotifyActiveTask)
	test.ExpectSuccess(t, len(active) > 4)
	test.ExpectEquality(t, active[0], "X")
	test.ExpectEquality(t, active[1], "Y")
	test.ExpectEquality(t, active[2], "X")
}

func TestForbid(t *testing.T) {
	f := newFixture(t, 0)

	f.host(t, "A", func(task *schedule.Task) (uint32, error) {
		f.log("A1")
		task.Forbid()
		test.ExpectSuccess(t, task.IsForbidden())
		task.Reschedule()
		f.log("A2")
		task.Permit()
		f.log("A3")
		return 0, nil
	})
	f.host(t, "B", func(task *schedule.Task) (uint32, error) {
		f.log("B1")
		return 0, nil
	})

	test.DemandSuccess(t, f.s.Schedule())
	expectTrace(t, f.trace, "A1", "A2", "B1", "A3")
}

func TestForbidIgnoredWhenNotRunning(t *testing.T) {
	f := newFixture(t, 0)
	task := f.host(t, "A", func(task *schedule.Task) (uint32, error) {
		return 0, nil
	})
	task.Forbid()
	test.ExpectSuccess(t, !task.IsForbidden())
}

func TestRemTask(t *testing.T) {
	f := newFixture(t, 0)

	var b *schedule.Task
	f.host(t, "A", func(task *schedule.Task) (uint32, error) {
		task.Reschedule()
		test.ExpectEquality(t, b.State(), schedule.StateWait)
		f.log("remove B")
		return 0, f.s.RemTask(b)
	})
	b = f.host(t, "B", func(task *schedule.Task) (uint32, error) {
		f.log("B wait")
		_, err := task.Wait(0x100)
		f.log("B never")
		return 0, err
	})
	f.host(t, "C", func(task *schedule.Task) (uint32, error) {
		f.log("C remove self")
		_ = f.s.RemTask(task)
		f.log("C never")
		return 0, nil
	})

	test.DemandSuccess(t, f.s.Schedule())
	expectTrace(t, f.trace, "B wait", "C remove self", "remove B")
	test.ExpectEquality(t, b.State(), schedule.StateRemoved)
	test.ExpectSuccess(t, curated.Is(f.s.RemTask(b), schedule.NotScheduled))
	test.ExpectSuccess(t, f.a.IsAllFree())
	expectTrace(t, f.rec.Filter(notifications.NotifyRemoveTask), "C", "B", "A")
}

func TestRemSelfFromTrap(t *testing.T) {
	f := newFixture(t, 0)

	var a *schedule.Task
	trap, err := f.m.SetupQuickTrap("remove", func(uint16, uint32) error {
		f.log("A trap")
		return f.s.RemTask(a)
	})
	test.DemandSuccess(t, err)
	t.Cleanup(func() {
		_ = f.m.FreeQuickTrap(trap)
	})

	a = f.host(t, "A", func(task *schedule.Task) (uint32, error) {
		defer func() {
			// give another goroutine the chance to run before the
			// unwinding is recorded
			for i := 0; i < 10; i++ {
				goruntime.Gosched()
			}
			f.log("A unwound")
		}()
		_, err := task.SubRun(runtime.Code{Name: "remove", PC: trap})
		f.log("A never")
		return 0, err
	})
	b := f.host(t, "B", func(task *schedule.Task) (uint32, error) {
		f.log("B")
		return 7, nil
	})

	test.DemandSuccess(t, f.s.Schedule())

	// the next task starts only once the removed task has unwound
	expectTrace(t, f.trace, "A trap", "A unwound", "B")
	test.ExpectEquality(t, a.State(), schedule.StateRemoved)
	test.ExpectEquality(t, b.ExitCode(), uint32(7))
	test.ExpectEquality(t, f.s.NumTasks(), 0)
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestRemAddedTask(t *testing.T) {
	f := newFixture(t, 0)
	task := f.host(t, "A", func(task *schedule.Task) (uint32, error) {
		return 0, nil
	})
	test.ExpectSuccess(t, f.s.RemTask(task))
	test.ExpectEquality(t, f.s.NumTasks(), 0)
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestSubRun(t *testing.T) {
	f := newFixture(t, 0)

	// moveq #42,d0; rts
	f.code(0x702a, 0x4e75)

	f.host(t, "host", func(task *schedule.Task) (uint32, error) {
		rs, err := task.SubRun(runtime.Code{
			Name:    "sub",
			PC:      codeAddr,
			GetRegs: []cpu.Register{cpu.D0},
		})
		if err != nil {
			return 0, err
		}
		test.ExpectEquality(t, rs.SP, task.Stack().InitialSP)
		return rs.Regs[cpu.D0], nil
	})

	test.DemandSuccess(t, f.s.Schedule())
	test.ExpectSuccess(t, f.a.IsAllFree())
}

func TestSignalAllocation(t *testing.T) {
	f := newFixture(t, 0)
	task := f.host(t, "A", func(task *schedule.Task) (uint32, error) {
		return 0, nil
	})

	test.ExpectEquality(t, task.AllocSignal(-1), 31)
	test.ExpectEquality(t, task.AllocSignal(-1), 30)
	test.ExpectEquality(t, task.AllocSignal(31), -1)
	test.ExpectEquality(t, task.AllocSignal(5), -1)
	test.ExpectEquality(t, task.AllocSignal(20), 20)

	alloc, _, _ := task.Signals()
	test.ExpectEquality(t, alloc, uint32(0xc010ffff))
	test.Equate(t, f.m.Mem.Read32(task.Addr()+18), 0xc010ffff)

	task.FreeSignal(31)
	task.FreeSignal(5)
	alloc, _, _ = task.Signals()
	test.ExpectEquality(t, alloc, uint32(0x4010ffff))
}

func TestTaskStructure(t *testing.T) {
	f := newFixture(t, 0)
	task := f.host(t, "structure", func(task *schedule.Task) (uint32, error) {
		test.ExpectSuccess(t, f.s.Current() == task)
		test.Equate(t, f.m.Mem.Read8(task.Addr()+15), 2)
		return 0, nil
	})

	mem := f.m.Mem
	test.Equate(t, mem.Read8(task.Addr()+8), schedule.NTTask)
	test.ExpectEquality(t, mem.ReadCStr(mem.Read32(task.Addr()+10)), "structure")
	test.Equate(t, mem.Read8(task.Addr()+15), 1)
	test.ExpectSuccess(t, f.s.TaskByAddr(task.Addr()) == task)
	test.ExpectSuccess(t, f.s.FindTask("structure") == task)

	stk := task.Stack()
	test.Equate(t, stk.Size(), schedule.DefaultStackSize)
	test.Equate(t, mem.Read32(stk.Upper-4), schedule.DefaultStackSize)
	test.Equate(t, stk.InitialSP, stk.Upper-8)

	test.DemandSuccess(t, f.s.Schedule())
	test.ExpectSuccess(t, f.s.TaskByAddr(task.Addr()) == nil)
}
