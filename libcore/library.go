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
	"time"

	"github.com/cnvogelg/vamos/hardware/memory"
)

// LibSize is the size of the exec Library structure.
const LibSize = 34

// NTLibrary is the node type of a library.
const NTLibrary = 9

// offsets into the exec Library structure.
const (
	libSucc     = 0
	libPred     = 4
	libType     = 8
	libPri      = 9
	libName     = 10
	libFlags    = 14
	libNegSize  = 16
	libPosSize  = 18
	libVersion  = 20
	libRevision = 22
	libIDString = 24
	libSum      = 28
	libOpenCnt  = 32
)

// Info describes a library before it is created.
type Info struct {
	Name     string
	Version  uint16
	Revision uint16
	Date     time.Time

	// size of the structure at the base address. zero means LibSize. sizes
	// smaller than LibSize are increased to LibSize
	PosSize uint32
}

// IDString returns the string pointed to by the lib_IdString field.
func (info Info) IDString() string {
	d := info.Date
	if d.IsZero() {
		d = time.Date(2007, time.July, 7, 0, 0, 0, 0, time.UTC)
	}
	return fmt.Sprintf("%s %d.%d (%d.%d.%d)\r\n", info.Name, info.Version, info.Revision,
		d.Day(), int(d.Month()), d.Year())
}

func (info Info) String() string {
	return fmt.Sprintf("%s %d.%d", info.Name, info.Version, info.Revision)
}

// Library gives access to the fields of an exec Library structure in
// emulated memory.
type Library struct {
	mem  *memory.RAM
	Base uint32
}

// NewLibrary returns a Library for the structure at the base address. Memory
// is not changed.
func NewLibrary(mem *memory.RAM, base uint32) Library {
	return Library{mem: mem, Base: base}
}

// init fills the structure. strings must have been allocated already.
func (lib Library) init(info Info, name uint32, idString uint32, negSize uint32, posSize uint32) {
	lib.mem.Clear(lib.Base, posSize, 0)
	lib.mem.Write32(lib.Base+libSucc, 0)
	lib.mem.Write32(lib.Base+libPred, 0)
	lib.mem.Write8(lib.Base+libType, NTLibrary)
	lib.mem.Write8(lib.Base+libPri, 0)
	lib.mem.Write32(lib.Base+libName, name)
	lib.mem.Write8(lib.Base+libFlags, 0)
	lib.mem.Write16(lib.Base+libNegSize, uint16(negSize))
	lib.mem.Write16(lib.Base+libPosSize, uint16(posSize))
	lib.mem.Write16(lib.Base+libVersion, info.Version)
	lib.mem.Write16(lib.Base+libRevision, info.Revision)
	lib.mem.Write32(lib.Base+libIDString, idString)
	lib.mem.Write16(lib.Base+libOpenCnt, 0)
}

// Name reads the string pointed to by lib_Name.
func (lib Library) Name() string {
	return lib.mem.ReadCStr(lib.mem.Read32(lib.Base + libName))
}

// IDString reads the string pointed to by lib_IdString.
func (lib Library) IDString() string {
	return lib.mem.ReadCStr(lib.mem.Read32(lib.Base + libIDString))
}

func (lib Library) Type() uint8 {
	return lib.mem.Read8(lib.Base + libType)
}

func (lib Library) Version() uint16 {
	return lib.mem.Read16(lib.Base + libVersion)
}

func (lib Library) Revision() uint16 {
	return lib.mem.Read16(lib.Base + libRevision)
}

func (lib Library) NegSize() uint16 {
	return lib.mem.Read16(lib.Base + libNegSize)
}

func (lib Library) PosSize() uint16 {
	return lib.mem.Read16(lib.Base + libPosSize)
}

// OpenCnt returns the value of lib_OpenCnt.
func (lib Library) OpenCnt() uint16 {
	return lib.mem.Read16(lib.Base + libOpenCnt)
}

// SetOpenCnt sets the value of lib_OpenCnt.
func (lib Library) SetOpenCnt(n uint16) {
	lib.mem.Write16(lib.Base+libOpenCnt, n)
}

// Sum returns the value of lib_Sum.
func (lib Library) Sum() uint32 {
	return lib.mem.Read32(lib.Base + libSum)
}

// CalcSum returns the sum of the longwords in the jump table. The same
// calculation is performed by SumLibrary() in exec.
func (lib Library) CalcSum() uint32 {
	var sum uint32
	neg := uint32(lib.NegSize())
	for a := lib.Base - neg; a < lib.Base; a += 4 {
		sum += lib.mem.Read32(a)
	}
	return sum
}

// UpdateSum stores the result of CalcSum() in lib_Sum.
func (lib Library) UpdateSum() {
	lib.mem.Write32(lib.Base+libSum, lib.CalcSum())
}
