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
	"fmt"
	goruntime "runtime"

	"github.com/pkg/errors"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/logger"
)

// State of a task. A task is in exactly one state at any time.
type State int

// List of valid task states.
const (
	StateAdded State = iota
	StateRun
	StateReady
	StateWait
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateAdded:
		return "added"
	case StateRun:
		return "run"
	case StateReady:
		return "ready"
	case StateWait:
		return "wait"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// Signals below this mask are reserved for the system and are never returned
// by AllocSignal() when any signal is requested.
const reservedSignals = 0x0000ffff

// HostFunc is the body of a host task. The value returned by the function is
// the exit code of the task.
type HostFunc func(task *Task) (uint32, error)

// the reason a task gave control back to the scheduler.
type yieldKind int

const (
	yieldPreempt yieldKind = iota
	yieldWait
	yieldExit
	yieldRemoved
)

type yield struct {
	kind yieldKind
	code uint32
	err  error
}

// Task is a unit of execution for the scheduler.
type Task struct {
	sched *Scheduler
	name  string
	state State

	stack Stack
	tcb   tcb
	rt    *runtime.Runtime

	// entry point and registers of native tasks
	pc   uint32
	regs map[cpu.Register]uint32

	// body of host tasks. nil for native tasks
	fn HostFunc

	sigAlloc uint32
	sigWait  uint32
	sigRecvd uint32

	// Forbid() nesting count. a reschedule requested while forbidden is held
	// until the final Permit()
	forbid  int
	pending bool

	exitCode uint32
	freed    bool

	// the task removed itself while running
	removed bool

	// fiber handoff
	started bool
	resume  chan struct{}
	yield   chan yield
	done    chan struct{}
}

func (t *Task) String() string {
	return fmt.Sprintf("%s [%s]", t.name, t.state)
}

// Name returns the name of the task.
func (t *Task) Name() string {
	return t.name
}

// State returns the current state of the task.
func (t *Task) State() State {
	return t.state
}

// Stack returns the stack of the task.
func (t *Task) Stack() Stack {
	return t.stack
}

// Addr returns the address of the exec Task structure of the task.
func (t *Task) Addr() uint32 {
	return t.tcb.addr
}

// ExitCode returns the value the task returned when it finished.
func (t *Task) ExitCode() uint32 {
	return t.exitCode
}

// IsNative returns true if the task runs emulated code from an entry point.
func (t *Task) IsNative() bool {
	return t.fn == nil
}

// Runtime returns the runtime used by the task to run emulated code.
func (t *Task) Runtime() *runtime.Runtime {
	return t.rt
}

// SubRun runs emulated code on behalf of the task and waits for it to
// return. If the task is not already running emulated code and no stack
// pointer is given then the code runs on the stack of the task.
func (t *Task) SubRun(code runtime.Code) (*runtime.RunState, error) {
	if code.SP == 0 && t.rt.Nesting() == 0 {
		code.SP = t.stack.InitialSP
	}
	return t.rt.Run(code)
}

// AllocSignal reserves a signal bit for the task. A value of -1 requests any
// free bit above the bits reserved for the system. Returns -1 if the signal
// is not available.
func (t *Task) AllocSignal(n int) int {
	if n < 0 {
		for i := 31; i >= 16; i-- {
			if t.sigAlloc&(1<<i) == 0 {
				n = i
				break
			}
		}
		if n < 0 {
			return -1
		}
	} else if n > 31 || t.sigAlloc&(1<<n) != 0 {
		return -1
	}

	t.sigAlloc |= 1 << n
	t.sigRecvd &^= 1 << n
	t.tcb.sync(t)
	return n
}

// FreeSignal releases a signal bit reserved by AllocSignal(). Reserved system
// signals cannot be freed.
func (t *Task) FreeSignal(n int) {
	if n < 16 || n > 31 {
		return
	}
	t.sigAlloc &^= 1 << n
	t.tcb.sync(t)
}

// Signals returns the allocated, waited for and received signal masks.
func (t *Task) Signals() (alloc uint32, wait uint32, recvd uint32) {
	return t.sigAlloc, t.sigWait, t.sigRecvd
}

// SetSignal changes the received signals selected by the mask and returns the
// received signals as they were before the change. If the task is waiting for
// one of the signals now received it is woken.
func (t *Task) SetSignal(newSignals uint32, mask uint32) uint32 {
	old := t.sigRecvd
	t.sigRecvd = (t.sigRecvd &^ mask) | (newSignals & mask)
	t.tcb.sync(t)

	if t.state == StateWait && t.sigRecvd&t.sigWait != 0 {
		t.sched.WakeUpTask(t)
	}

	return old
}

// Wait until one of the signals in the mask is received. Returns the signals
// in the mask that were received, clearing them. Returns immediately if one
// of the signals has already been received or if the mask is zero.
func (t *Task) Wait(mask uint32) (uint32, error) {
	if mask == 0 {
		return 0, nil
	}

	got := t.sigRecvd & mask
	if got == 0 {
		t.sigWait = mask
		if err := t.sched.WaitTask(t); err != nil {
			t.sigWait = 0
			return 0, err
		}
		got = t.sigRecvd & mask
	}

	t.sigWait = 0
	t.sigRecvd &^= got
	t.tcb.sync(t)

	return got, nil
}

// Forbid task switching until the matching call to Permit(). Forbid() has no
// effect if the task is not running.
func (t *Task) Forbid() {
	if t.state != StateRun {
		return
	}
	t.forbid++
	t.tcb.sync(t)
}

// Permit task switching after an earlier Forbid(). If a switch was requested
// while forbidden then it happens now.
func (t *Task) Permit() {
	if t.forbid == 0 {
		return
	}
	t.forbid--
	t.tcb.sync(t)

	if t.forbid == 0 && t.pending {
		t.pending = false
		t.Reschedule()
	}
}

// IsForbidden returns true if the task is in a Forbid() region.
func (t *Task) IsForbidden() bool {
	return t.forbid > 0
}

// Reschedule gives other tasks the chance to run. The task continues to run
// if no other task is ready or if it is in a Forbid() region.
func (t *Task) Reschedule() {
	if t != t.sched.current || t.state != StateRun {
		return
	}
	if t.forbid > 0 {
		t.pending = true
		return
	}
	t.suspend(yieldPreempt)
}

// called by the runtime at the end of every slice.
func (t *Task) slice(rs *runtime.RunState) error {
	t.Reschedule()
	return nil
}

// suspend gives control to the scheduler and blocks until the task is resumed.
// must be called on the goroutine of the task.
func (t *Task) suspend(kind yieldKind) {
	ctx := t.sched.machine.CPU.Context()
	t.yield <- yield{kind: kind}
	t.park()
	t.sched.machine.CPU.SetContext(ctx)
}

// park blocks until the task is resumed. a task that is removed while parked
// never resumes and its goroutine ends.
func (t *Task) park() {
	if _, ok := <-t.resume; !ok {
		t.rt.Abandon()
		goruntime.Goexit()
	}
}

// switchTo gives control to the task and blocks until the task gives it
// back. must be called on the goroutine of the scheduler.
func (t *Task) switchTo() yield {
	if !t.started {
		t.started = true
		go t.fiber()
	}
	t.resume <- struct{}{}
	return <-t.yield
}

// kill the goroutine of the task. the task must not be running.
func (t *Task) kill() {
	close(t.resume)
	if t.started {
		<-t.done
	}
}

func (t *Task) fiber() {
	defer close(t.done)
	defer func() {
		if t.removed {
			t.yield <- yield{kind: yieldRemoved}
		}
	}()

	if _, ok := <-t.resume; !ok {
		return
	}

	code, err := t.execute()
	t.yield <- yield{kind: yieldExit, code: code, err: err}
}

// execute the body of the task. panics are returned as errors.
func (t *Task) execute() (code uint32, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := errors.Errorf("%v", r)
			logger.Logf(logger.Allow, "task", "%s: panic: %+v", t.name, perr)
			err = curated.Errorf(UnexpectedHostException, t.name, perr)
		}
	}()

	logger.Logf(logger.Allow, "task", "%s: start", t.name)

	if t.fn != nil {
		return t.fn(t)
	}

	rs, err := t.rt.Run(runtime.Code{
		Name:    t.name,
		PC:      t.pc,
		SP:      t.stack.InitialSP,
		SetRegs: t.regs,
		GetRegs: []cpu.Register{cpu.D0},
	})
	if err != nil {
		return 0, err
	}
	return rs.Regs[cpu.D0], nil
}

// free the resources of the task. safe to call more than once.
func (t *Task) free() error {
	if t.freed {
		return nil
	}
	t.freed = true

	a := t.sched.alloc
	if err := t.tcb.free(a); err != nil {
		return err
	}
	return a.Free(t.stack.Lower, t.stack.Size())
}
