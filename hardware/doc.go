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

// Package hardware is the base package for the emulated machine. The Machine
// type composes the CPU core, the memory and the trap table and fixes the
// layout of the low memory area.
//
// Low memory is laid out as follows:
//
//	0x000 - 0x003  never allocated (null pointer guard)
//	0x004 - 0x007  pointer to exec library base
//	0x400          exit sentinel (a trap opcode)
//	0x800 - 0x8ff  quick traps: trap opcode followed by RTS
//	0x1000 -       memory available to the allocator
//
// Emulated code runs until it returns through the exit sentinel. The Prepare()
// function pushes the address of the sentinel onto the stack before setting
// the program counter, so that the final RTS of the entry routine lands on
// the sentinel. The Execute() function reports reaching the sentinel with
// the StatusExit status.
package hardware
