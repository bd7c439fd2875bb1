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

// Package vamostest is a library used to test the library call bridge from
// emulated code. Its functions cover the calling conventions and the ways a
// host function can fail.
package vamostest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/libcore"
	"github.com/cnvogelg/vamos/libmgr"
	"github.com/cnvogelg/vamos/logger"
)

// Name of the library.
const Name = "vamostest.library"

// InternalError is the error raised by RaiseError("VamosInternalError").
const InternalError = "vamostest: internal error raised by %s"

// Info of the library.
var Info = libcore.Info{
	Name:     Name,
	Version:  23,
	Revision: 0,
	Date:     time.Date(2007, time.July, 7, 0, 0, 0, 0, time.UTC),
}

// VamosTest implements the libcore.Impl interface.
type VamosTest struct {
	out io.Writer

	// open count as seen by the library. -1 before setup and after finish
	cnt int
}

// Register the implementation with the library manager. Output of the print
// functions goes to out, or to stdout if out is nil.
func Register(mgr *libmgr.Manager, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	mgr.AddHost(Info, func() libcore.Impl {
		return &VamosTest{out: out, cnt: -1}
	})
}

// Count returns the open count as seen by the library.
func (vt *VamosTest) Count() int {
	return vt.cnt
}

// SetupLib implements the libcore.Setupper interface.
func (vt *VamosTest) SetupLib(*libcore.Context, uint32) error {
	vt.cnt = 0
	return nil
}

// FinishLib implements the libcore.Finisher interface.
func (vt *VamosTest) FinishLib(*libcore.Context) error {
	vt.cnt = -1
	return nil
}

// OpenLib implements the libcore.Opener interface.
func (vt *VamosTest) OpenLib(*libcore.Context) error {
	vt.cnt++
	return nil
}

// CloseLib implements the libcore.Opener interface.
func (vt *VamosTest) CloseLib(*libcore.Context) error {
	vt.cnt--
	return nil
}

// Methods implements the libcore.Impl interface. Dummy has no
// implementation.
func (vt *VamosTest) Methods() map[string]libcore.Method {
	return map[string]libcore.Method{
		"PrintHello":  vt.printHello,
		"PrintString": vt.printString,
		"Add":         vt.add,
		"Swap":        vt.swap,
		"RaiseError":  vt.raiseError,
		"ExecuteTest": vt.executeTest,
	}
}

func (vt *VamosTest) printHello(*libcore.Context, libcore.Args) (libcore.Result, error) {
	fmt.Fprintln(vt.out, "VamosTest: PrintHello()")
	return libcore.Ret(0), nil
}

func (vt *VamosTest) printString(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	fmt.Fprintf(vt.out, "VamosTest: PrintString(%s)\n", ctx.Mem.ReadCStr(args.Get(0)))
	return libcore.Ret(0), nil
}

func (vt *VamosTest) add(_ *libcore.Context, args libcore.Args) (libcore.Result, error) {
	return libcore.Ret(args.Get(0) + args.Get(1)), nil
}

func (vt *VamosTest) swap(_ *libcore.Context, args libcore.Args) (libcore.Result, error) {
	return libcore.Ret2(args.Get(1), args.Get(0)), nil
}

// the kind of failure is selected by the string argument.
func (vt *VamosTest) raiseError(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	kind := ctx.Mem.ReadCStr(args.Get(0))
	switch kind {
	case "RuntimeError":
		fmt.Fprintln(vt.out, "VamosTest: raise RuntimeError")
		panic("VamosTest")
	case "VamosInternalError":
		fmt.Fprintln(vt.out, "VamosTest: raise VamosInternalError")
		return libcore.NoResult, curated.Errorf(InternalError, "RaiseError")
	case "InvalidMemoryAccessError":
		fmt.Fprintln(vt.out, "VamosTest: raise InvalidMemoryAccessError")
		ctx.Mem.Read16(ctx.Mem.Size())
		return libcore.NoResult, nil
	}
	fmt.Fprintf(vt.out, "VamosTest: Invalid Error: %s\n", kind)
	return libcore.NoResult, nil
}

// run the code as a nested run with the argument in D0. the result is the
// value of D0 when the code returns.
func (vt *VamosTest) executeTest(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	code, arg := args.Get(0), args.Get(1)
	logger.Logf(logger.Allow, "vamostest", "ExecuteTest(%#06x, %d)", code, arg)
	rs, err := ctx.SubRun(runtime.Code{
		Name:    "ExecuteTest",
		PC:      code,
		SetRegs: map[cpu.Register]uint32{cpu.D0: arg},
		GetRegs: []cpu.Register{cpu.D0},
	})
	if err != nil {
		return libcore.NoResult, err
	}
	return libcore.Ret(rs.Regs[cpu.D0]), nil
}
