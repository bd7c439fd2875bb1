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

// Package alloc is the heap allocator for the emulated address space. Every
// structure that emulated code can see, and most of the bookkeeping the host
// keeps in emulated memory, is allocated here.
//
// Free memory is a list of chunks sorted by address. Allocation takes the
// first chunk that is large enough, splitting it if it is larger than
// required. Freed memory is merged with adjacent free chunks immediately so
// that no two free chunks are ever contiguous.
//
// All sizes are rounded up to a multiple of four and all addresses returned
// by the allocator are aligned to four bytes. Allocated memory is cleared to
// zero.
//
// The allocator keeps a record of every live allocation. Freeing an address
// that has not been returned by the allocator is always an error of the host
// and is reported as InvalidFree.
package alloc
