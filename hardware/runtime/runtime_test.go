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

package runtime_test

import (
	"strings"
	"testing"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/test"
)

const (
	outerCode = uint32(0x2000)
	innerCode = uint32(0x2100)
	stackTop  = uint32(0x8000)
)

func put(m *hardware.Machine, addr uint32, words ...uint16) {
	for i, w := range words {
		m.Mem.Write16(addr+uint32(i*2), w)
	}
}

func newRuntime(t *testing.T, slice int) (*hardware.Machine, *runtime.Runtime) {
	t.Helper()
	m, err := hardware.NewMachine(0x10000)
	test.DemandSuccess(t, err)
	t.Cleanup(m.Close)
	return m, runtime.NewRuntime(m, slice)
}

func TestRun(t *testing.T) {
	m, rt := newRuntime(t, 0)

	// moveq #42,d0; rts
	put(m, outerCode, 0x702a, 0x4e75)

	rs, err := rt.Run(runtime.Code{
		Name:    "simple",
		PC:      outerCode,
		SP:      stackTop,
		GetRegs: []cpu.Register{cpu.D0},
	})
	test.DemandSuccess(t, err)
	test.Equate(t, rs.Regs[cpu.D0], 42)
	test.Equate(t, rs.ExitPC, hardware.ExitAddr)
	test.ExpectEquality(t, rs.Nesting, 0)
	test.ExpectEquality(t, rt.Nesting(), 0)
	test.ExpectInequality(t, rs.Cycles, 0)
	test.ExpectEquality(t, rt.TotalCycles(), rs.Cycles)
}

func TestNoStack(t *testing.T) {
	_, rt := newRuntime(t, 0)
	_, err := rt.Run(runtime.Code{Name: "nostack", PC: outerCode})
	test.ExpectSuccess(t, curated.Is(err, runtime.NoStack))
}

func TestSetRegs(t *testing.T) {
	m, rt := newRuntime(t, 0)

	// exg d0,d1; rts
	put(m, outerCode, 0xc141, 0x4e75)

	rs, err := rt.Run(runtime.Code{
		Name:    "exg",
		PC:      outerCode,
		SP:      stackTop,
		SetRegs: map[cpu.Register]uint32{cpu.D0: 1, cpu.D1: 2},
		GetRegs: []cpu.Register{cpu.D0, cpu.D1},
	})
	test.DemandSuccess(t, err)
	test.Equate(t, rs.Regs[cpu.D0], 2)
	test.Equate(t, rs.Regs[cpu.D1], 1)
}

func TestNested(t *testing.T) {
	m, rt := newRuntime(t, 0)

	var inner *runtime.RunState
	var nesting int
	var before cpu.Context
	var after cpu.Context

	addr, err := m.SetupQuickTrap("nest", func(uint16, uint32) error {
		nesting = rt.Nesting()
		before = m.CPU.Context()

		var err error
		inner, err = rt.Run(runtime.Code{
			Name:    "inner",
			PC:      innerCode,
			GetRegs: []cpu.Register{cpu.D0, cpu.D1},
		})

		after = m.CPU.Context()
		return err
	})
	test.DemandSuccess(t, err)

	// moveq #7,d1; jsr addr; moveq #42,d0; rts
	put(m, outerCode, 0x7207, 0x4eb9, uint16(addr>>16), uint16(addr), 0x702a, 0x4e75)

	// moveq #99,d1; moveq #5,d0; rts
	put(m, innerCode, 0x7263, 0x7005, 0x4e75)

	rs, err := rt.Run(runtime.Code{
		Name:    "outer",
		PC:      outerCode,
		SP:      stackTop,
		GetRegs: []cpu.Register{cpu.D0, cpu.D1},
	})
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, nesting, 1)
	test.ExpectEquality(t, inner.Nesting, 1)
	test.Equate(t, inner.Regs[cpu.D0], 5)
	test.Equate(t, inner.Regs[cpu.D1], 99)

	// inner stack starts just below the outer stack pointer
	test.Equate(t, inner.SP, before.Regs[cpu.SP]-4)

	// outer context is untouched by the nested run
	test.ExpectEquality(t, after, before)
	test.Equate(t, rs.Regs[cpu.D0], 42)
	test.Equate(t, rs.Regs[cpu.D1], 7)

	// outer cycles include the cycles of the nested run
	test.ExpectSuccess(t, rs.Cycles > inner.Cycles)
	test.ExpectEquality(t, rt.TotalCycles(), rs.Cycles)
}

func TestNestedFailure(t *testing.T) {
	m, rt := newRuntime(t, 0)

	var before cpu.Context
	var after cpu.Context

	addr, err := m.SetupQuickTrap("nest", func(uint16, uint32) error {
		before = m.CPU.Context()
		_, err := rt.Run(runtime.Code{Name: "inner", PC: innerCode})
		after = m.CPU.Context()
		return err
	})
	test.DemandSuccess(t, err)

	// jsr addr; rts
	put(m, outerCode, 0x4eb9, uint16(addr>>16), uint16(addr), 0x4e75)

	// moveq #1,d0; illegal
	put(m, innerCode, 0x7001, 0x4afc)

	_, err = rt.Run(runtime.Code{Name: "outer", PC: outerCode, SP: stackTop})
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, runtime.NestedRunFailed))
	test.ExpectSuccess(t, curated.Has(err, cpu.InvalidCPUState))
	test.ExpectEquality(t, after, before)
	test.ExpectEquality(t, rt.Nesting(), 0)

	// the error describes the innermost run only
	test.ExpectSuccess(t, strings.Contains(err.Error(), "'inner'"))
	test.ExpectSuccess(t, strings.Contains(err.Error(), "nesting 1"))
	test.ExpectSuccess(t, !strings.Contains(err.Error(), "'outer'"))

	pc, nesting, ok := rt.Failure()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, nesting, 1)
	test.ExpectEquality(t, pc, innerCode+2)
}

func TestTooDeep(t *testing.T) {
	m, rt := newRuntime(t, 0)
	rt.SetMaxNesting(4)

	var deepest int
	addr, err := m.SetupQuickTrap("recurse", func(uint16, uint32) error {
		if rt.Nesting() > deepest {
			deepest = rt.Nesting()
		}
		_, err := rt.Run(runtime.Code{Name: "recurse", PC: outerCode})
		return err
	})
	test.DemandSuccess(t, err)

	// jsr addr; rts
	put(m, outerCode, 0x4eb9, uint16(addr>>16), uint16(addr), 0x4e75)

	_, err = rt.Run(runtime.Code{Name: "recurse", PC: outerCode, SP: stackTop})
	test.ExpectSuccess(t, curated.Has(err, runtime.TooDeep))
	test.ExpectEquality(t, deepest, 4)
	test.ExpectEquality(t, rt.Nesting(), 0)
}

func TestSlices(t *testing.T) {
	m, rt := newRuntime(t, 100)

	var slices int
	var names []string
	rt.SetSliceFunc(func(rs *runtime.RunState) error {
		slices++
		names = append(names, rs.Name)
		return nil
	})

	// moveq #100,d2; loop: dbra d2,loop; rts
	put(m, outerCode, 0x7464, 0x51ca, 0xfffe, 0x4e75)

	rs, err := rt.Run(runtime.Code{Name: "loop", PC: outerCode, SP: stackTop})
	test.DemandSuccess(t, err)
	// a slice can overrun its budget by the length of one instruction
	test.ExpectSuccess(t, slices <= rs.Cycles/100)
	test.ExpectSuccess(t, slices >= rs.Cycles/110)
	test.ExpectInequality(t, slices, 0)
	test.ExpectEquality(t, names[0], "loop")
}

func TestSliceError(t *testing.T) {
	m, rt := newRuntime(t, 50)

	stop := curated.Errorf("stop")
	rt.SetSliceFunc(func(rs *runtime.RunState) error {
		return stop
	})

	// loop: bra loop
	put(m, outerCode, 0x60fe)

	_, err := rt.Run(runtime.Code{Name: "forever", PC: outerCode, SP: stackTop})
	test.ExpectSuccess(t, curated.Is(err, "stop"))
}

func TestHostFault(t *testing.T) {
	m, rt := newRuntime(t, 0)

	addr, err := m.SetupQuickTrap("fault", func(uint16, uint32) error {
		_ = m.Mem.Read32(0xfffffff0)
		return nil
	})
	test.DemandSuccess(t, err)

	// jsr addr; rts
	put(m, outerCode, 0x4eb9, uint16(addr>>16), uint16(addr), 0x4e75)

	_, err = rt.Run(runtime.Code{Name: "fault", PC: outerCode, SP: stackTop})
	test.ExpectSuccess(t, curated.Has(err, runtime.HostMemAccess))
	test.ExpectSuccess(t, m.Mem.Fault() == nil)
}
