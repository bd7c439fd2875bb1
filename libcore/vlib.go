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
	"io"

	"github.com/cnvogelg/vamos/alloc"
	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/fd"
	"github.com/cnvogelg/vamos/hardware/traps"
	"github.com/cnvogelg/vamos/logger"
)

// Sentinel errors for the library lifecycle.
const (
	NotOpen   = "libcore: %s is not open"
	StillOpen = "libcore: %s is still open (%d)"
	Freed     = "libcore: %s has been freed"
)

// VLib is a host implemented library in emulated memory.
type VLib struct {
	info    Info
	ft      *fd.FuncTable
	impl    Impl
	ctx     *Context
	variant Variant
	profile *Profile

	mem      alloc.LibraryMem
	lib      Library
	jt       JumpTable
	name     uint32
	idString uint32

	// trap IDs used by the jump table
	traps []int

	// number of entries that fell back to a zero result because the trap
	// pool was exhausted
	noTrap int

	locked bool
	freed  bool
}

// NewVLib creates the library in emulated memory. The Library structure is
// initialised and the jump table is written. An Impl of nil creates a fake
// library in which every function is missing.
func NewVLib(ctx *Context, info Info, ft *fd.FuncTable, impl Impl, variant Variant) (*VLib, error) {
	posSize := info.PosSize
	if posSize < LibSize {
		posSize = LibSize
	}

	v := &VLib{
		info:    info,
		ft:      ft,
		impl:    impl,
		variant: variant,
	}

	var err error
	v.mem, err = ctx.Alloc.AllocLibrary(uint32(ft.NegSize()), posSize, info.Name)
	if err != nil {
		return nil, err
	}
	v.name, err = ctx.Alloc.AllocCStr(info.Name, info.Name+" name")
	if err != nil {
		_ = ctx.Alloc.FreeLibrary(v.mem)
		return nil, err
	}
	v.idString, err = ctx.Alloc.AllocCStr(info.IDString(), info.Name+" id")
	if err != nil {
		_ = ctx.Alloc.Release(v.name)
		_ = ctx.Alloc.FreeLibrary(v.mem)
		return nil, err
	}

	v.ctx = ctx.ForLibrary(v.mem.Base)
	v.lib = NewLibrary(ctx.Mem, v.mem.Base)
	v.lib.init(info, v.name, v.idString, v.mem.NegSize, posSize)
	v.jt = NewJumpTable(ctx.Mem, v.mem.Base, ft)

	if variant&VariantProfile == VariantProfile {
		v.profile = NewProfile(info.Name, ft)
	}

	if err := v.patch(); err != nil {
		v.release()
		return nil, err
	}
	v.lib.UpdateSum()

	if s, ok := impl.(Setupper); ok {
		if err := s.SetupLib(v.ctx, v.mem.Base); err != nil {
			v.release()
			return nil, err
		}
	}

	logger.Logf(logger.Allow, "libcore", "created %s at %#06x (%s, %d traps)", info, v.mem.Base, variant, len(v.traps))
	if v.noTrap > 0 {
		logger.Logf(logger.Allow, "libcore", "%s: %d functions without trap", info.Name, v.noTrap)
	}

	return v, nil
}

// patch writes every entry of the jump table.
func (v *VLib) patch() error {
	var methods map[string]Method
	if v.impl != nil {
		methods = v.impl.Methods()
	}

	sg := stubber{
		ctx:     v.ctx,
		libName: v.info.Name,
		variant: v.variant,
		profile: v.profile,
	}

	for idx := 0; idx < v.ft.NumIndices(); idx++ {
		bias := (idx + 1) * fd.EntrySize
		f := v.ft.ByIndex(idx)
		if f == nil {
			v.jt.writeZero(bias)
			continue
		}

		var s stub
		if m, ok := methods[f.Name]; ok {
			s = sg.valid(f, m)
		} else {
			s = sg.missing(f)
		}
		if s == nil {
			v.jt.writeZero(bias)
			continue
		}

		id, err := v.ctx.Traps.Setup(fmt.Sprintf("%s.%s", v.info.Name, f.Name), func(uint16, uint32) error {
			return s()
		}, false)
		if err != nil {
			if curated.Is(err, traps.NoTrapAvailable) {
				v.noTrap++
				v.jt.writeZero(bias)
				continue
			}
			return err
		}
		v.traps = append(v.traps, id)
		v.jt.writeTrap(bias, id)
	}

	return nil
}

// release the traps and the memory.
func (v *VLib) release() {
	for _, id := range v.traps {
		if err := v.ctx.Traps.Free(id); err != nil {
			logger.Logf(logger.Allow, "libcore", "%s: %v", v.info.Name, err)
		}
	}
	v.traps = nil

	a := v.ctx.Alloc
	for _, err := range []error{
		a.Release(v.idString),
		a.Release(v.name),
		a.FreeLibrary(v.mem),
	} {
		if err != nil {
			logger.Logf(logger.Allow, "libcore", "%s: %v", v.info.Name, err)
		}
	}
}

func (v *VLib) String() string {
	return fmt.Sprintf("%s at %#06x (open %d)", v.info, v.mem.Base, v.OpenCnt())
}

// Name of the library.
func (v *VLib) Name() string {
	return v.info.Name
}

// Info returns the Info the library was created with.
func (v *VLib) Info() Info {
	return v.info
}

// Base returns the base address of the library.
func (v *VLib) Base() uint32 {
	return v.mem.Base
}

// Library returns the exec Library structure.
func (v *VLib) Library() Library {
	return v.lib
}

// JumpTable returns the jump table of the library.
func (v *VLib) JumpTable() JumpTable {
	return v.jt
}

// FuncTable returns the function description of the library.
func (v *VLib) FuncTable() *fd.FuncTable {
	return v.ft
}

// Impl returns the host implementation. Nil for fake libraries.
func (v *VLib) Impl() Impl {
	return v.impl
}

// Context returns the context given to the methods of the library.
func (v *VLib) Context() *Context {
	return v.ctx
}

// Profile returns the call profile. Nil unless the library was created with
// VariantProfile.
func (v *VLib) Profile() *Profile {
	return v.profile
}

// NumTraps returns the number of traps held by the jump table.
func (v *VLib) NumTraps() int {
	return len(v.traps)
}

// OpenCnt returns the open count stored in the Library structure.
func (v *VLib) OpenCnt() int {
	if v.freed {
		return 0
	}
	return int(v.lib.OpenCnt())
}

// Open increases the open count.
func (v *VLib) Open() error {
	if v.freed {
		return curated.Errorf(Freed, v.info.Name)
	}
	v.lib.SetOpenCnt(v.lib.OpenCnt() + 1)
	if o, ok := v.impl.(Opener); ok {
		if err := o.OpenLib(v.ctx); err != nil {
			v.lib.SetOpenCnt(v.lib.OpenCnt() - 1)
			return err
		}
	}
	return nil
}

// Close decreases the open count. It is an error to close a library that is
// not open.
func (v *VLib) Close() error {
	if v.freed {
		return curated.Errorf(Freed, v.info.Name)
	}
	if v.lib.OpenCnt() == 0 {
		return curated.Errorf(NotOpen, v.info.Name)
	}
	v.lib.SetOpenCnt(v.lib.OpenCnt() - 1)
	if o, ok := v.impl.(Opener); ok {
		return o.CloseLib(v.ctx)
	}
	return nil
}

// Lock the library in memory. A locked library holds one extra open
// reference and so is never expunged.
func (v *VLib) Lock() {
	if v.locked || v.freed {
		return
	}
	v.locked = true
	v.lib.SetOpenCnt(v.lib.OpenCnt() + 1)
}

// Unlock drops the reference held by Lock().
func (v *VLib) Unlock() {
	if !v.locked || v.freed {
		return
	}
	v.locked = false
	v.lib.SetOpenCnt(v.lib.OpenCnt() - 1)
}

// IsLocked returns true if the library is locked in memory.
func (v *VLib) IsLocked() bool {
	return v.locked
}

// CanExpunge returns true if the library can be freed.
func (v *VLib) CanExpunge() bool {
	return !v.freed && v.lib.OpenCnt() == 0
}

// Free releases the traps and memory of the library. The library must not be
// open.
func (v *VLib) Free() error {
	if v.freed {
		return curated.Errorf(Freed, v.info.Name)
	}
	if n := v.lib.OpenCnt(); n != 0 {
		return curated.Errorf(StillOpen, v.info.Name, n)
	}

	var err error
	if f, ok := v.impl.(Finisher); ok {
		err = f.FinishLib(v.ctx)
	}

	v.release()
	v.freed = true
	logger.Logf(logger.Allow, "libcore", "freed %s", v.info)

	return err
}

// Dump the jump table.
func (v *VLib) Dump(w io.Writer) {
	fmt.Fprintln(w, v.String())
	v.jt.Dump(w, v.ft.NumIndices())
}
