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
	"fmt"

	"github.com/cnvogelg/vamos/alloc"
	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/fd"
	"github.com/cnvogelg/vamos/logger"
)

// NativeLib is a library whose functions are emulated code. The jump table
// holds JMP instructions to the functions.
type NativeLib struct {
	info Info
	a    *alloc.Allocator

	mem      alloc.LibraryMem
	lib      Library
	jt       JumpTable
	name     uint32
	idString uint32

	freed bool
}

// MakeLibrary creates a native library in emulated memory. The vectors are
// the addresses of the functions in jump table order, the first vector being
// the _OpenLib function. A vector of zero makes a function that clears D0.
func MakeLibrary(ctx *Context, info Info, vectors []uint32) (*NativeLib, error) {
	if len(vectors) < 3 {
		return nil, curated.Errorf("libcore: %s: native library needs at least 3 vectors (%d)", info.Name, len(vectors))
	}

	posSize := info.PosSize
	if posSize < LibSize {
		posSize = LibSize
	}
	negSize := uint32(len(vectors) * fd.EntrySize)

	nl := &NativeLib{
		info: info,
		a:    ctx.Alloc,
	}

	var err error
	nl.mem, err = ctx.Alloc.AllocLibrary(negSize, posSize, info.Name)
	if err != nil {
		return nil, err
	}
	nl.name, err = ctx.Alloc.AllocCStr(info.Name, info.Name+" name")
	if err != nil {
		_ = ctx.Alloc.FreeLibrary(nl.mem)
		return nil, err
	}
	nl.idString, err = ctx.Alloc.AllocCStr(info.IDString(), info.Name+" id")
	if err != nil {
		_ = ctx.Alloc.Release(nl.name)
		_ = ctx.Alloc.FreeLibrary(nl.mem)
		return nil, err
	}

	nl.lib = NewLibrary(ctx.Mem, nl.mem.Base)
	nl.lib.init(info, nl.name, nl.idString, nl.mem.NegSize, posSize)
	nl.jt = NewJumpTable(ctx.Mem, nl.mem.Base, nil)
	for i, v := range vectors {
		bias := (i + 1) * fd.EntrySize
		if v == 0 {
			nl.jt.writeZero(bias)
		} else {
			nl.jt.SetJump(bias, v)
		}
	}
	nl.lib.UpdateSum()

	logger.Logf(logger.Allow, "libcore", "made native %s at %#06x", info, nl.mem.Base)

	return nl, nil
}

func (nl *NativeLib) String() string {
	return fmt.Sprintf("%s at %#06x (native)", nl.info, nl.mem.Base)
}

// Name of the library.
func (nl *NativeLib) Name() string {
	return nl.info.Name
}

// Base returns the base address of the library.
func (nl *NativeLib) Base() uint32 {
	return nl.mem.Base
}

// Library returns the exec Library structure.
func (nl *NativeLib) Library() Library {
	return nl.lib
}

// JumpTable returns the jump table of the library.
func (nl *NativeLib) JumpTable() JumpTable {
	return nl.jt
}

// Free the memory of the library. Safe to call more than once.
func (nl *NativeLib) Free() error {
	if nl.freed {
		return nil
	}
	nl.freed = true
	for _, err := range []error{
		nl.a.Release(nl.idString),
		nl.a.Release(nl.name),
		nl.a.FreeLibrary(nl.mem),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
