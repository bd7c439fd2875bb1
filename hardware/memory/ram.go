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

package memory

import (
	"github.com/cnvogelg/vamos/curated"
)

// InvalidAccess is the sentinel pattern for a latched memory fault. The values
// are: access type ('R' or 'W'), width in bytes and address.
const InvalidAccess = "memory: invalid access: %c%d @ %#08x"

// Bus defines the operations for reading and writing emulated memory. The RAM
// type is the only implementation but the interface allows the CPU and the
// trap table to be tested with alternative memory.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
	Fault() error
	ClearFault()
}

// RAM is the emulated memory.
type RAM struct {
	data  []byte
	fault error
}

// NewRAM is the preferred method of initialisation for the RAM type. The size
// is in bytes.
func NewRAM(size uint32) *RAM {
	return &RAM{
		data: make([]byte, size),
	}
}

// Size returns the size of memory in bytes.
func (ram *RAM) Size() uint32 {
	return uint32(len(ram.data))
}

// Fault returns the first invalid access since the last call to ClearFault().
func (ram *RAM) Fault() error {
	return ram.fault
}

// ClearFault forgets any latched invalid access.
func (ram *RAM) ClearFault() {
	ram.fault = nil
}

// check returns true if the access is in range. latches a fault if it is not.
func (ram *RAM) check(mode rune, width int, addr uint32) bool {
	if uint64(addr)+uint64(width) <= uint64(len(ram.data)) {
		return true
	}
	if ram.fault == nil {
		ram.fault = curated.Errorf(InvalidAccess, mode, width, addr)
	}
	return false
}

// Read8 returns the byte at the address.
func (ram *RAM) Read8(addr uint32) uint8 {
	if !ram.check('R', 1, addr) {
		return 0
	}
	return ram.data[addr]
}

// Read16 returns the word at the address.
func (ram *RAM) Read16(addr uint32) uint16 {
	if !ram.check('R', 2, addr) {
		return 0
	}
	return uint16(ram.data[addr])<<8 | uint16(ram.data[addr+1])
}

// Read32 returns the long word at the address.
func (ram *RAM) Read32(addr uint32) uint32 {
	if !ram.check('R', 4, addr) {
		return 0
	}
	d := ram.data[addr : addr+4]
	return uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3])
}

// ReadS8 returns the byte at the address as a signed value.
func (ram *RAM) ReadS8(addr uint32) int8 {
	return int8(ram.Read8(addr))
}

// ReadS16 returns the word at the address as a signed value.
func (ram *RAM) ReadS16(addr uint32) int16 {
	return int16(ram.Read16(addr))
}

// ReadS32 returns the long word at the address as a signed value.
func (ram *RAM) ReadS32(addr uint32) int32 {
	return int32(ram.Read32(addr))
}

// Write8 stores the byte at the address.
func (ram *RAM) Write8(addr uint32, v uint8) {
	if !ram.check('W', 1, addr) {
		return
	}
	ram.data[addr] = v
}

// Write16 stores the word at the address.
func (ram *RAM) Write16(addr uint32, v uint16) {
	if !ram.check('W', 2, addr) {
		return
	}
	ram.data[addr] = uint8(v >> 8)
	ram.data[addr+1] = uint8(v)
}

// Write32 stores the long word at the address.
func (ram *RAM) Write32(addr uint32, v uint32) {
	if !ram.check('W', 4, addr) {
		return
	}
	ram.data[addr] = uint8(v >> 24)
	ram.data[addr+1] = uint8(v >> 16)
	ram.data[addr+2] = uint8(v >> 8)
	ram.data[addr+3] = uint8(v)
}

// WriteS8 stores a signed byte at the address.
func (ram *RAM) WriteS8(addr uint32, v int8) {
	ram.Write8(addr, uint8(v))
}

// WriteS16 stores a signed word at the address.
func (ram *RAM) WriteS16(addr uint32, v int16) {
	ram.Write16(addr, uint16(v))
}

// WriteS32 stores a signed long word at the address.
func (ram *RAM) WriteS32(addr uint32, v int32) {
	ram.Write32(addr, uint32(v))
}

// Clear sets size bytes starting at the address to the fill value.
func (ram *RAM) Clear(addr uint32, size uint32, fill uint8) {
	if size == 0 || !ram.check('W', int(size), addr) {
		return
	}
	d := ram.data[addr : addr+size]
	for i := range d {
		d[i] = fill
	}
}

// ReadBlock returns a copy of size bytes starting at the address.
func (ram *RAM) ReadBlock(addr uint32, size uint32) []byte {
	b := make([]byte, size)
	if size == 0 || !ram.check('R', int(size), addr) {
		return b
	}
	copy(b, ram.data[addr:addr+size])
	return b
}

// WriteBlock copies the data into memory starting at the address.
func (ram *RAM) WriteBlock(addr uint32, data []byte) {
	if len(data) == 0 || !ram.check('W', len(data), addr) {
		return
	}
	copy(ram.data[addr:], data)
}
