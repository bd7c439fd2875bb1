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

// Package memory implements the flat, byte addressable memory of the emulated
// machine. Multi-byte values are big-endian, as they are on the 68000.
//
// Accesses outside of the memory are not reported by the access functions
// themselves. Instead, the first invalid access is latched and can be
// retrieved with the Fault() function. Reads from invalid addresses return
// zero and writes to invalid addresses are dropped. This mirrors a bus error
// on the real hardware: the CPU checks for a fault after every instruction
// and host code that touches memory on behalf of the emulated program is
// checked at the boundary of the call.
package memory
