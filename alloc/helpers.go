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

package alloc

import "github.com/cnvogelg/vamos/curated"

// AllocCStr allocates memory for a null terminated string and writes the
// string to it.
func (a *Allocator) AllocCStr(s string, tag string) (uint32, error) {
	addr, err := a.Alloc(uint32(len(s)+1), tag)
	if err != nil {
		return 0, err
	}
	a.mem.WriteCStr(addr, s)
	return addr, nil
}

// AllocBStr allocates memory for a BCPL string (a length byte followed by
// the characters) and writes the string to it. One extra byte is allocated
// so that the string is also null terminated.
func (a *Allocator) AllocBStr(s string, tag string) (uint32, error) {
	if len(s) > 255 {
		return 0, curated.Errorf("alloc: BCPL string too long (%d)", len(s))
	}
	addr, err := a.Alloc(uint32(len(s)+2), tag)
	if err != nil {
		return 0, err
	}
	a.mem.WriteBStr(addr, s)
	return addr, nil
}

// LibraryMem is a library shaped allocation. The vectors of the library sit
// below Base and the fields of the library structure start at Base.
type LibraryMem struct {
	Addr    uint32
	Base    uint32
	NegSize uint32
	PosSize uint32
}

// Size returns the total size of the allocation.
func (l LibraryMem) Size() uint32 {
	return l.NegSize + l.PosSize
}

// AllocLibrary allocates a single block for a library. The size of the vector
// area is rounded up to a multiple of four so that the base address is
// aligned.
func (a *Allocator) AllocLibrary(negSize uint32, posSize uint32, tag string) (LibraryMem, error) {
	negSize = (negSize + 3) &^ 3
	addr, err := a.Alloc(negSize+posSize, tag)
	if err != nil {
		return LibraryMem{}, err
	}
	return LibraryMem{
		Addr:    addr,
		Base:    addr + negSize,
		NegSize: negSize,
		PosSize: posSize,
	}, nil
}

// FreeLibrary frees the memory allocated by AllocLibrary().
func (a *Allocator) FreeLibrary(l LibraryMem) error {
	return a.Free(l.Addr, l.Size())
}
