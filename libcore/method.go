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

import "fmt"

// Args are the values of the argument registers of a function, in the order
// the function description lists them.
type Args []uint32

// Get returns the argument at position i. Missing arguments are zero.
func (args Args) Get(i int) uint32 {
	if i < 0 || i >= len(args) {
		return 0
	}
	return args[i]
}

// Result is the value returned by a Method.
type Result struct {
	D0 uint32
	D1 uint32

	// number of result registers written. zero means the registers are left
	// untouched
	Regs int
}

// NoResult leaves the result registers untouched.
var NoResult = Result{}

// Ret returns a result in D0.
func Ret(d0 uint32) Result {
	return Result{D0: d0, Regs: 1}
}

// Ret2 returns a result in D0 and D1.
func Ret2(d0 uint32, d1 uint32) Result {
	return Result{D0: d0, D1: d1, Regs: 2}
}

func (r Result) String() string {
	switch r.Regs {
	case 0:
		return "-"
	case 1:
		return fmt.Sprintf("d0=%08x", r.D0)
	}
	return fmt.Sprintf("d0=%08x d1=%08x", r.D0, r.D1)
}

// Method is the host implementation of a library function.
type Method func(ctx *Context, args Args) (Result, error)

// Impl is the host implementation of a library. The methods are keyed by the
// function names used in the function description. Functions that have no
// entry are treated as missing.
type Impl interface {
	Methods() map[string]Method
}

// Setupper is implemented by an Impl that needs to initialise the library
// after the jump table has been written.
type Setupper interface {
	SetupLib(ctx *Context, base uint32) error
}

// Finisher is implemented by an Impl that needs to clean up before the
// library memory is released.
type Finisher interface {
	FinishLib(ctx *Context) error
}

// Opener is implemented by an Impl that is interested in the library being
// opened and closed.
type Opener interface {
	OpenLib(ctx *Context) error
	CloseLib(ctx *Context) error
}
