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

package runtime

import (
	"fmt"
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/logger"
)

// Sentinel errors for the runtime package.
const (
	NestedRunFailed = "runtime: run '%s' failed at pc=%#06x (nesting %d): %v"
	TooDeep         = "runtime: maximum nesting depth (%d) exceeded"
	NoStack         = "runtime: no stack for top level run '%s'"
	HostMemAccess   = "runtime: host access to invalid memory after trap: %v"
)

// DefaultMaxNesting is the maximum nesting depth used if no other value is
// specified.
const DefaultMaxNesting = 16

// Code describes the emulated code to run.
type Code struct {
	Name string
	PC   uint32

	// stack pointer for the run. for nested runs a value of zero means that
	// the stack of the enclosing run is used, starting just below the current
	// stack pointer
	SP uint32

	// registers to set before the run and registers to capture after it
	SetRegs map[cpu.Register]uint32
	GetRegs []cpu.Register
}

// RunState is the result of a run. While a run is in progress the RunState
// is also available through the Current() function.
type RunState struct {
	Name    string
	PC      uint32
	SP      uint32
	Nesting int

	// cycles consumed by this run, including the cycles of any nested runs
	Cycles int

	ExitPC uint32
	Regs   map[cpu.Register]uint32
}

func (rs *RunState) String() string {
	s := fmt.Sprintf("%s: pc=%06x sp=%06x nesting=%d cycles=%d", rs.Name, rs.PC, rs.SP, rs.Nesting, rs.Cycles)
	if len(rs.Regs) > 0 {
		regs := make([]cpu.Register, 0, len(rs.Regs))
		for r := range rs.Regs {
			regs = append(regs, r)
		}
		sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })
		for _, r := range regs {
			s = fmt.Sprintf("%s %s=%08x", s, r, rs.Regs[r])
		}
	}
	return s
}

// SliceFunc is called whenever the cycle budget of a slice is used up. The
// RunState is that of the innermost run. An error returned by the function
// ends the run.
type SliceFunc func(rs *RunState) error

// Runtime runs code on a machine.
type Runtime struct {
	machine *hardware.Machine

	sliceCycles int
	leftCycles  int
	totalCycles int
	sliceFunc   SliceFunc

	maxNesting int
	states     []*RunState

	// position of the most recent failure
	failed      bool
	failPC      uint32
	failNesting int

	// the runtime no longer owns the CPU. see Abandon()
	abandoned bool
}

// NewRuntime is the preferred method of initialisation for the Runtime type.
// A sliceCycles value of zero or less means that execution is never sliced.
func NewRuntime(machine *hardware.Machine, sliceCycles int) *Runtime {
	return &Runtime{
		machine:     machine,
		sliceCycles: sliceCycles,
		maxNesting:  DefaultMaxNesting,
	}
}

// SetSliceFunc sets the function to call when a slice is exhausted.
func (rt *Runtime) SetSliceFunc(f SliceFunc) {
	rt.sliceFunc = f
}

// SetMaxNesting changes the maximum depth of nested runs.
func (rt *Runtime) SetMaxNesting(n int) {
	rt.maxNesting = n
}

// Nesting returns the number of runs in progress. Zero means that nothing is
// running.
func (rt *Runtime) Nesting() int {
	return len(rt.states)
}

// TotalCycles returns the number of cycles executed since the runtime was
// created.
func (rt *Runtime) TotalCycles() int {
	return rt.totalCycles
}

// Failure returns the address and nesting depth at which the most recent
// run failed. The information is reset when a new top level run starts.
// Returns false if no run has failed.
func (rt *Runtime) Failure() (uint32, int, bool) {
	return rt.failPC, rt.failNesting, rt.failed
}

// Abandon detaches the runtime from the CPU. Runs that are suspended when the
// runtime is abandoned will not restore the CPU context as they unwind. Used
// when the owner of the runtime is discarded while another owner has control
// of the CPU.
func (rt *Runtime) Abandon() {
	rt.abandoned = true
}

// Current returns the RunState of the innermost run in progress. Returns nil
// if nothing is running.
func (rt *Runtime) Current() *RunState {
	if len(rt.states) == 0 {
		return nil
	}
	return rt.states[len(rt.states)-1]
}

// Run executes the code until it returns through the exit sentinel. If
// another run is in progress then the new run is nested and the CPU context
// is restored exactly when the nested run finishes, whether it succeeds or
// fails.
func (rt *Runtime) Run(code Code) (*RunState, error) {
	nesting := len(rt.states)
	if nesting >= rt.maxNesting {
		return nil, curated.Errorf(TooDeep, rt.maxNesting)
	}

	core := rt.machine.CPU

	var saved cpu.Context
	if nesting > 0 {
		saved = core.Context()
		defer func() {
			if !rt.abandoned {
				core.SetContext(saved)
			}
		}()
	} else {
		rt.failed = false
	}

	sp := code.SP
	if sp == 0 {
		if nesting == 0 {
			return nil, curated.Errorf(NoStack, code.Name)
		}
		sp = saved.Regs[cpu.SP] - 4
	}

	rs := &RunState{
		Name:    code.Name,
		PC:      code.PC,
		SP:      sp,
		Nesting: nesting,
	}

	rt.states = append(rt.states, rs)
	defer func() {
		rt.states = rt.states[:len(rt.states)-1]
	}()

	for r, v := range code.SetRegs {
		core.SetReg(r, v)
	}
	rt.machine.Prepare(code.PC, sp)

	logger.Logf(logger.Allow, "runtime", "run '%s' at %06x (sp=%06x, nesting %d)", code.Name, code.PC, sp, nesting)

	err := rt.loop(rs)
	if err != nil {
		logger.Logf(logger.Allow, "runtime", "failed: %s", spew.Sprintf("%+v", *rs))
		return rs, err
	}

	if len(code.GetRegs) > 0 {
		rs.Regs = make(map[cpu.Register]uint32, len(code.GetRegs))
		for _, r := range code.GetRegs {
			rs.Regs[r] = core.Reg(r)
		}
	}

	return rs, nil
}

func (rt *Runtime) loop(rs *RunState) error {
	// errors are decorated with the details of the innermost run only
	fail := func(pc uint32, err error) error {
		if curated.Has(err, NestedRunFailed) {
			return err
		}
		rt.failed = true
		rt.failPC = pc
		rt.failNesting = rs.Nesting
		return curated.Errorf(NestedRunFailed, rs.Name, pc, rs.Nesting, err)
	}

	for {
		if rt.leftCycles <= 0 {
			rt.leftCycles = rt.sliceCycles
		}

		es := rt.machine.Execute(rt.leftCycles)
		rt.leftCycles -= es.Cycles
		rt.totalCycles += es.Cycles
		for _, s := range rt.states {
			s.Cycles += es.Cycles
		}

		switch es.Status {
		case cpu.StatusExit:
			rs.ExitPC = es.PC
			return nil

		case cpu.StatusError:
			return fail(es.PC, es.Err)

		case cpu.StatusTrap:
			if err := rt.machine.Traps.Trigger(es.Opcode, es.PC); err != nil {
				return fail(es.PC, err)
			}
			if f := rt.machine.Mem.Fault(); f != nil {
				rt.machine.Mem.ClearFault()
				return fail(es.PC, curated.Errorf(HostMemAccess, f))
			}
		}

		if rt.sliceCycles > 0 && rt.leftCycles <= 0 && rt.sliceFunc != nil {
			if err := rt.sliceFunc(rs); err != nil {
				return err
			}
		}
	}
}
