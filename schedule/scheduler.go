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
	"strings"

	"github.com/cnvogelg/vamos/alloc"
	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/logger"
	"github.com/cnvogelg/vamos/notifications"
)

// Sentinel errors for the schedule package.
const (
	NoTasks                 = "schedule: no tasks to schedule"
	Deadlock                = "schedule: deadlock: all tasks waiting (%s)"
	TaskFailed              = "schedule: task '%s' failed at pc=%#06x (nesting %d): %v"
	UnexpectedHostException = "schedule: unexpected host exception in task '%s': %v"
	NotRunning              = "schedule: task '%s' is not running"
	NotScheduled            = "schedule: task '%s' is not scheduled"
)

// DefaultStackSize is the stack size of a task if no other size is given.
const DefaultStackSize = 4096

// Config for the scheduler.
type Config struct {
	// number of cycles before a running task is preempted. zero disables
	// preemption
	SliceCycles int

	// maximum nesting depth of runs within a task
	MaxNesting int

	// stack size of tasks created with a zero stack size
	StackSize uint32
}

// Scheduler switches between tasks.
type Scheduler struct {
	machine *hardware.Machine
	alloc   *alloc.Allocator
	cfg     Config
	notify  notifications.Notify

	added   []*Task
	ready   []*Task
	waiting []*Task
	current *Task

	// number of woken tasks at the front of the ready list. tasks woken
	// together run in the order they were woken
	woken int

	// all tasks not yet removed, keyed by the address of their exec Task
	// structure
	tasks map[uint32]*Task
}

// NewScheduler is the preferred method of initialisation for the Scheduler
// type. The notify argument can be nil.
func NewScheduler(machine *hardware.Machine, a *alloc.Allocator, cfg Config, notify notifications.Notify) *Scheduler {
	if cfg.StackSize == 0 {
		cfg.StackSize = DefaultStackSize
	}
	if cfg.MaxNesting == 0 {
		cfg.MaxNesting = runtime.DefaultMaxNesting
	}
	return &Scheduler{
		machine: machine,
		alloc:   a,
		cfg:     cfg,
		notify:  notify,
		tasks:   make(map[uint32]*Task),
	}
}

func (s *Scheduler) String() string {
	names := func(l []*Task) string {
		n := make([]string, len(l))
		for i, t := range l {
			n[i] = t.name
		}
		return strings.Join(n, ",")
	}
	cur := "-"
	if s.current != nil {
		cur = s.current.name
	}
	return fmt.Sprintf("current: %s added: [%s] ready: [%s] waiting: [%s]",
		cur, names(s.added), names(s.ready), names(s.waiting))
}

func (s *Scheduler) notice(notice notifications.Notice, t *Task) {
	name := ""
	if t != nil {
		name = t.name
	}
	logger.Logf(logger.Allow, "schedule", "%s %s", notice, name)
	if s.notify == nil {
		return
	}
	if err := s.notify.Notify(notice, name); err != nil {
		logger.Logf(logger.Allow, "schedule", "notification failed: %v", err)
	}
}

// NumTasks returns the number of tasks that have not been removed.
func (s *Scheduler) NumTasks() int {
	return len(s.tasks)
}

// Current returns the running task. Returns nil if no task is running.
func (s *Scheduler) Current() *Task {
	return s.current
}

// TaskByAddr returns the task with the exec Task structure at the address.
func (s *Scheduler) TaskByAddr(addr uint32) *Task {
	return s.tasks[addr]
}

// FindTask returns the task with the name. Returns nil if there is no such
// task.
func (s *Scheduler) FindTask(name string) *Task {
	for _, t := range s.tasks {
		if t.name == name {
			return t
		}
	}
	return nil
}

func (s *Scheduler) newTask(name string, stackSize uint32) (*Task, error) {
	if stackSize == 0 {
		stackSize = s.cfg.StackSize
	}

	stk, err := allocStack(s.alloc, s.machine.Mem, stackSize, name)
	if err != nil {
		return nil, err
	}

	c, err := allocTCB(s.alloc, s.machine.Mem, name)
	if err != nil {
		_ = s.alloc.Free(stk.Lower, stk.Size())
		return nil, err
	}

	t := &Task{
		sched:    s,
		name:     name,
		state:    StateAdded,
		stack:    stk,
		tcb:      c,
		rt:       runtime.NewRuntime(s.machine, s.cfg.SliceCycles),
		sigAlloc: reservedSignals,
		resume:   make(chan struct{}),
		yield:    make(chan yield),
		done:     make(chan struct{}),
	}
	t.rt.SetMaxNesting(s.cfg.MaxNesting)
	t.rt.SetSliceFunc(t.slice)
	t.tcb.sync(t)

	return t, nil
}

// NewNativeTask creates a task that runs the emulated code at pc. The
// registers are set before the code starts. The exit code of the task is the
// value of D0 when the code returns. A stack size of zero selects the
// default size.
func (s *Scheduler) NewNativeTask(name string, pc uint32, stackSize uint32, regs map[cpu.Register]uint32) (*Task, error) {
	t, err := s.newTask(name, stackSize)
	if err != nil {
		return nil, err
	}
	t.pc = pc
	t.regs = regs
	return t, nil
}

// NewHostTask creates a task that runs the Go function.
func (s *Scheduler) NewHostTask(name string, fn HostFunc, stackSize uint32) (*Task, error) {
	t, err := s.newTask(name, stackSize)
	if err != nil {
		return nil, err
	}
	t.fn = fn
	return t, nil
}

// AddTask makes the task available to the scheduler. The task will run for
// the first time after any task added earlier has started.
func (s *Scheduler) AddTask(t *Task) error {
	if t.sched != s || t.state != StateAdded || t.started {
		return curated.Errorf("schedule: task '%s' cannot be added", t.name)
	}
	if _, ok := s.tasks[t.Addr()]; ok {
		return curated.Errorf("schedule: task '%s' already added", t.name)
	}
	s.tasks[t.Addr()] = t
	s.added = append(s.added, t)
	s.notice(notifications.NotifyAddTask, t)
	return nil
}

func remove(l []*Task, t *Task) ([]*Task, bool) {
	for i, o := range l {
		if o == t {
			return append(l[:i], l[i+1:]...), true
		}
	}
	return l, false
}

// RemTask removes the task from the scheduler and releases its resources.
// The task can be in any state other than removed.
//
// Removing the running task ends the task immediately. In that case RemTask()
// does not return.
func (s *Scheduler) RemTask(t *Task) error {
	if _, ok := s.tasks[t.Addr()]; !ok {
		return curated.Errorf(NotScheduled, t.name)
	}

	if t == s.current && t.state == StateRun {
		err := s.release(t)
		if err != nil {
			return err
		}
		// the scheduler resumes once the goroutine of the task has
		// unwound. see fiber()
		t.rt.Abandon()
		t.removed = true
		goruntime.Goexit()
	}

	var ok bool
	switch t.state {
	case StateAdded:
		s.added, ok = remove(s.added, t)
	case StateReady:
		ok = s.removeReady(t)
	case StateWait:
		s.waiting, ok = remove(s.waiting, t)
	}
	if !ok {
		return curated.Errorf(NotScheduled, t.name)
	}

	t.kill()
	return s.release(t)
}

// release the task and its resources.
func (s *Scheduler) release(t *Task) error {
	t.state = StateRemoved
	delete(s.tasks, t.Addr())
	t.tcb.sync(t)
	if s.current == t {
		s.current = nil
	}
	s.notice(notifications.NotifyRemoveTask, t)
	return t.free()
}

// WaitTask suspends the running task until it is woken by WakeUpTask(). Other
// tasks run in the meantime. Must be called by the task itself.
func (s *Scheduler) WaitTask(t *Task) error {
	if t != s.current || t.state != StateRun {
		return curated.Errorf(NotRunning, t.name)
	}

	t.state = StateWait
	t.tcb.sync(t)
	s.waiting = append(s.waiting, t)
	s.notice(notifications.NotifyWaitingTask, t)

	t.suspend(yieldWait)
	return nil
}

// removeReady removes the task from the ready list.
func (s *Scheduler) removeReady(t *Task) bool {
	for i, o := range s.ready {
		if o == t {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			if i < s.woken {
				s.woken--
			}
			return true
		}
	}
	return false
}

// WakeUpTask moves a waiting task to the ready list ahead of tasks that are
// merely ready and gives it the chance to run immediately. Tasks woken before
// the next switch run in the order they were woken.
func (s *Scheduler) WakeUpTask(t *Task) {
	var ok bool
	s.waiting, ok = remove(s.waiting, t)
	if !ok {
		return
	}

	t.state = StateReady
	t.tcb.sync(t)
	s.ready = append(s.ready, nil)
	copy(s.ready[s.woken+1:], s.ready[s.woken:])
	s.ready[s.woken] = t
	s.woken++
	s.notice(notifications.NotifyWakeUpTask, t)

	if s.current != nil {
		s.current.Reschedule()
	}
}

// pick the next task to run.
func (s *Scheduler) pick() (*Task, error) {
	cur := s.current
	if cur != nil && cur.state == StateRun && cur.forbid > 0 {
		return cur, nil
	}

	if len(s.added) > 0 {
		t := s.added[0]
		s.added = s.added[1:]
		return t, nil
	}

	if len(s.ready) > 0 {
		t := s.ready[0]
		s.ready = s.ready[1:]
		if s.woken > 0 {
			s.woken--
		}
		return t, nil
	}

	if cur != nil && cur.state == StateRun {
		return cur, nil
	}

	names := make([]string, len(s.waiting))
	for i, t := range s.waiting {
		names[i] = t.name
	}
	return nil, curated.Errorf(Deadlock, strings.Join(names, ", "))
}

// Schedule runs tasks until none remain. Returns an error if a task fails or
// if all remaining tasks are waiting for signals that can never arrive.
//
// Tasks remaining after an error are not removed. Use Close() to remove them.
func (s *Scheduler) Schedule() error {
	if len(s.tasks) == 0 {
		return curated.Errorf(NoTasks)
	}

	defer func() {
		s.current = nil
		s.notice(notifications.NotifyActiveTask, nil)
	}()

	for len(s.tasks) > 0 {
		next, err := s.pick()
		if err != nil {
			return err
		}

		if next != s.current {
			if cur := s.current; cur != nil && cur.state == StateRun {
				cur.state = StateReady
				cur.tcb.sync(cur)
				s.ready = append(s.ready, cur)
				s.notice(notifications.NotifyReadyTask, cur)
			}
			s.current = next
			s.notice(notifications.NotifyActiveTask, next)
		}

		next.state = StateRun
		next.tcb.sync(next)

		y := next.switchTo()

		switch y.kind {
		case yieldExit:
			next.exitCode = y.code
			if y.err != nil {
				pc, nesting, ok := next.rt.Failure()
				if !ok {
					pc = s.machine.CPU.PC()
				}
				logger.Logf(logger.Allow, "schedule", "%s failed: %v", next.name, y.err)
				if err := s.release(next); err != nil {
					logger.Logf(logger.Allow, "schedule", "%s: %v", next.name, err)
				}
				return curated.Errorf(TaskFailed, next.name, pc, nesting, y.err)
			}
			logger.Logf(logger.Allow, "schedule", "%s exited with %d", next.name, y.code)
			if err := s.release(next); err != nil {
				return err
			}
		case yieldRemoved:
			s.current = nil
		}
	}

	return nil
}

// Close removes all remaining tasks.
func (s *Scheduler) Close() error {
	var errs []string
	for _, t := range s.tasks {
		if t == s.current {
			s.current = nil
		}
		t.kill()
		if err := s.release(t); err != nil {
			errs = append(errs, err.Error())
		}
	}
	s.added = s.added[:0]
	s.ready = s.ready[:0]
	s.waiting = s.waiting[:0]
	s.woken = 0
	if len(errs) > 0 {
		return curated.Errorf("schedule: close: %s", strings.Join(errs, "; "))
	}
	return nil
}
