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
	"strings"
	"time"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/fd"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/logger"
	"github.com/pkg/errors"
)

// UnexpectedHostException is the error returned by a guarded stub when the
// host implementation panics.
const UnexpectedHostException = "libcore: unexpected host exception in %s.%s (-%d) called from %#06x: %v"

// Variant selects the wrappers placed around the stubs of a library.
// Variants can be combined.
type Variant int

// List of valid Variant values.
const (
	VariantPlain   Variant = 0
	VariantLog     Variant = 1 << 0
	VariantProfile Variant = 1 << 1
	VariantGuard   Variant = 1 << 2
)

func (v Variant) String() string {
	if v == VariantPlain {
		return "plain"
	}
	var s []string
	if v&VariantLog == VariantLog {
		s = append(s, "log")
	}
	if v&VariantProfile == VariantProfile {
		s = append(s, "profile")
	}
	if v&VariantGuard == VariantGuard {
		s = append(s, "guard")
	}
	return strings.Join(s, "+")
}

// stub is the host side of a jump table entry.
type stub func() error

// stubber creates the stubs for one library.
type stubber struct {
	ctx     *Context
	libName string
	variant Variant
	profile *Profile
}

// valid returns the stub for a function with a host implementation. the
// wrappers are chosen here, once per function.
func (sg stubber) valid(f *fd.Func, m Method) stub {
	s := sg.call(f, m)
	if sg.variant&VariantProfile == VariantProfile && sg.profile != nil {
		s = sg.timed(f, s)
	}
	if sg.variant&VariantLog == VariantLog {
		s = sg.logged(f, s)
	}
	if sg.variant&VariantGuard == VariantGuard {
		s = sg.guarded(f, s)
	}
	return s
}

// missing returns the stub for a function that has no host implementation.
// returns nil if the jump table entry can do without a trap.
func (sg stubber) missing(f *fd.Func) stub {
	if sg.variant&VariantLog != VariantLog {
		return nil
	}
	ctx := sg.ctx
	return func() error {
		logger.Logf(logger.Allow, "libcore", "%s: missing %s from %#06x", sg.libName, f, ctx.CallerPC())
		ctx.CPU.SetReg(cpu.D0, 0)
		return nil
	}
}

func (sg stubber) call(f *fd.Func, m Method) stub {
	ctx := sg.ctx
	return func() error {
		args := make(Args, len(f.Args))
		for i, a := range f.Args {
			args[i] = ctx.CPU.Reg(a.Reg)
		}
		r, err := m(ctx, args)
		if err != nil {
			return err
		}
		switch r.Regs {
		case 0:
		case 1:
			ctx.CPU.SetReg(cpu.D0, r.D0)
		default:
			ctx.CPU.SetReg(cpu.D0, r.D0)
			ctx.CPU.SetReg(cpu.D1, r.D1)
		}
		return nil
	}
}

func (sg stubber) timed(f *fd.Func, s stub) stub {
	fp := sg.profile.Func(f.Index())
	return func() error {
		start := time.Now()
		err := s()
		fp.count(time.Since(start))
		return err
	}
}

func (sg stubber) logged(f *fd.Func, s stub) stub {
	ctx := sg.ctx
	return func() error {
		logger.Logf(logger.Allow, "libcore", "%s: %s from %#06x", sg.libName, f, ctx.CallerPC())
		err := s()
		if err != nil {
			logger.Logf(logger.Allow, "libcore", "%s: %s failed: %v", sg.libName, f.Name, err)
			return err
		}
		logger.Logf(logger.Allow, "libcore", "%s: %s returned d0=%08x d1=%08x", sg.libName, f.Name,
			ctx.CPU.Reg(cpu.D0), ctx.CPU.Reg(cpu.D1))
		return nil
	}
}

func (sg stubber) guarded(f *fd.Func, s stub) stub {
	ctx := sg.ctx
	return func() (err error) {
		// caller pc must be read before the implementation has a chance to
		// change the stack
		caller := ctx.CallerPC()
		defer func() {
			if r := recover(); r != nil {
				cause := errors.Errorf("%v", r)
				logger.Logf(logger.Allow, "libcore", "%+v", cause)
				err = curated.Errorf(UnexpectedHostException, sg.libName, f.Name, f.Bias, caller, cause)
			}
		}()
		return s()
	}
}
