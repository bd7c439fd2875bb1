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

// Package traps implements the trap table. Traps are the only way for
// emulated code to invoke host functionality.
//
// A trap is a line A opcode (0xa000 to 0xafff). The lower twelve bits of the
// opcode are the trap ID. When the CPU core decodes a trap opcode it stops and
// the opcode is passed to the Trigger() function, which calls the host
// function registered for that ID.
//
// A trap can be registered with the autoRTS flag. After the host function
// has returned, the trap table performs the equivalent of an RTS instruction
// on behalf of the emulated code. This allows a trap opcode to be the only
// instruction in a subroutine, which is how library jump tables use them.
package traps
