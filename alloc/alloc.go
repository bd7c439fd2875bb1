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

import (
	"fmt"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/memory"
	"github.com/cnvogelg/vamos/logger"
)

// Sentinel errors for the alloc package.
const (
	OutOfMemory = "alloc: out of memory (%#x bytes requested, %#x free)"
	InvalidFree = "alloc: invalid free at %#06x: %s"
)

// chunk is a node in the free list.
type chunk struct {
	addr uint32
	size uint32
	next *chunk
	prev *chunk
}

func (c *chunk) String() string {
	return fmt.Sprintf("[@%06x +%06x %06x]", c.addr, c.size, c.addr+c.size)
}

// Allocation is the record of a live allocation.
type Allocation struct {
	Addr uint32
	Size uint32
	Tag  string
}

func (a Allocation) String() string {
	s := fmt.Sprintf("[@%06x +%06x %06x]", a.Addr, a.Size, a.Addr+a.Size)
	if a.Tag != "" {
		s = fmt.Sprintf("%s %s", s, a.Tag)
	}
	return s
}

// Allocator manages a region of emulated memory.
type Allocator struct {
	mem *memory.RAM

	addr uint32
	size uint32

	free        *chunk
	freeBytes   uint32
	freeEntries int

	allocs map[uint32]*Allocation
}

// NewAllocator is the preferred method of initialisation for the Allocator
// type. The region starts at addr and is size bytes long. A size of zero
// means the region extends to the end of memory.
//
// Address zero is never handed out. If the region starts at zero then the
// first four bytes are excluded from it.
func NewAllocator(mem *memory.RAM, addr uint32, size uint32) *Allocator {
	if size == 0 {
		size = mem.Size() - addr
	}
	if addr == 0 {
		addr = 4
		size -= 4
	}
	size &^= 3

	a := &Allocator{
		mem:    mem,
		addr:   addr,
		size:   size,
		allocs: make(map[uint32]*Allocation),
	}
	a.free = &chunk{addr: addr, size: size}
	a.freeBytes = size
	a.freeEntries = 1

	return a
}

func (a *Allocator) String() string {
	return fmt.Sprintf("free %06x (%d chunks), %d allocations", a.freeBytes, a.freeEntries, len(a.allocs))
}

// Addr returns the first address of the region managed by the allocator.
func (a *Allocator) Addr() uint32 {
	return a.addr
}

// TotalBytes returns the size of the region managed by the allocator.
func (a *Allocator) TotalBytes() uint32 {
	return a.size
}

// FreeBytes returns the number of bytes not allocated.
func (a *Allocator) FreeBytes() uint32 {
	return a.freeBytes
}

// NumAllocations returns the number of live allocations.
func (a *Allocator) NumAllocations() int {
	return len(a.allocs)
}

// NumFreeChunks returns the number of chunks in the free list.
func (a *Allocator) NumFreeChunks() int {
	return a.freeEntries
}

// LargestChunk returns the size of the largest allocation that can succeed.
func (a *Allocator) LargestChunk() uint32 {
	var largest uint32
	for c := a.free; c != nil; c = c.next {
		if c.size > largest {
			largest = c.size
		}
	}
	return largest
}

// IsAllFree returns true if there are no live allocations.
func (a *Allocator) IsAllFree() bool {
	return a.freeBytes == a.size
}

// IsValidAddress returns true if the address is inside the region managed by
// the allocator.
func (a *Allocator) IsValidAddress(addr uint32) bool {
	return addr >= a.addr && addr < a.addr+a.size
}

// Lookup returns the allocation starting at the address.
func (a *Allocator) Lookup(addr uint32) (Allocation, bool) {
	if r, ok := a.allocs[addr]; ok {
		return *r, true
	}
	return Allocation{}, false
}

func roundSize(size uint32) uint32 {
	size = (size + 3) &^ 3

	// zero sized allocations would share an address with the next
	// allocation
	if size == 0 {
		size = 4
	}

	return size
}

// AllocProbe allocates memory without treating a lack of memory as an error.
// Returns false if there is no chunk large enough for the allocation.
func (a *Allocator) AllocProbe(size uint32, tag string) (uint32, bool) {
	// rounding would wrap for sizes near the top of the address space
	if size > a.size {
		return 0, false
	}
	size = roundSize(size)

	var c *chunk
	for c = a.free; c != nil; c = c.next {
		if c.size >= size {
			break
		}
	}
	if c == nil {
		return 0, false
	}

	addr := c.addr
	if c.size == size {
		a.remove(c)
	} else {
		c.addr += size
		c.size -= size
	}

	a.allocs[addr] = &Allocation{Addr: addr, Size: size, Tag: tag}
	a.freeBytes -= size
	a.mem.Clear(addr, size, 0)

	logger.Logf(logger.Allow, "alloc", "alloc @%06x-%06x: %06x bytes %s (%s)", addr, addr+size, size, tag, a)

	return addr, true
}

// Alloc allocates at least size bytes and returns the address of the
// allocation. The tag is used to identify the allocation in dumps.
//
// Returns the OutOfMemory error if there is no chunk large enough. Live
// allocations and orphaned memory are written to the log in that case.
func (a *Allocator) Alloc(size uint32, tag string) (uint32, error) {
	addr, ok := a.AllocProbe(size, tag)
	if !ok {
		logger.Logf(logger.Allow, "alloc", "no memory for %06x bytes (%s)", size, tag)
		a.logState()
		return 0, curated.Errorf(OutOfMemory, size, a.freeBytes)
	}
	return addr, nil
}

// Free returns memory to the allocator. The address and size must be the
// same as those of an earlier allocation.
func (a *Allocator) Free(addr uint32, size uint32) error {
	r, ok := a.allocs[addr]
	if !ok {
		return curated.Errorf(InvalidFree, addr, "not allocated")
	}
	if size > r.Size || roundSize(size) != r.Size {
		return curated.Errorf(InvalidFree, addr, fmt.Sprintf("size %#x does not match allocation %s", size, r))
	}
	a.release(r)
	return nil
}

// Release frees the allocation at the address whatever its size.
func (a *Allocator) Release(addr uint32) error {
	r, ok := a.allocs[addr]
	if !ok {
		return curated.Errorf(InvalidFree, addr, "not allocated")
	}
	a.release(r)
	return nil
}

func (a *Allocator) release(r *Allocation) {
	delete(a.allocs, r.Addr)

	c := &chunk{addr: r.Addr, size: r.Size}
	a.insert(c)

	if c.prev != nil && c.prev.addr+c.prev.size == c.addr {
		c = a.merge(c.prev, c)
	}
	if c.next != nil && c.addr+c.size == c.next.addr {
		a.merge(c, c.next)
	}

	a.freeBytes += r.Size

	logger.Logf(logger.Allow, "alloc", "free  @%06x-%06x: %06x bytes %s (%s)", r.Addr, r.Addr+r.Size, r.Size, r.Tag, a)
}

func (a *Allocator) remove(c *chunk) {
	if c == a.free {
		a.free = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	}
	if c.prev != nil {
		c.prev.next = c.next
	}
	a.freeEntries--
}

// insert chunk into the free list in address order.
func (a *Allocator) insert(c *chunk) {
	var last *chunk
	cur := a.free
	for cur != nil && cur.addr < c.addr {
		last = cur
		cur = cur.next
	}

	if last == nil {
		a.free = c
	} else {
		last.next = c
		c.prev = last
	}
	if cur != nil {
		c.next = cur
		cur.prev = c
	}

	a.freeEntries++
}

// merge y into the chunk immediately before it. returns x.
func (a *Allocator) merge(x *chunk, y *chunk) *chunk {
	x.size += y.size
	x.next = y.next
	if y.next != nil {
		y.next.prev = x
	}
	a.freeEntries--
	return x
}
