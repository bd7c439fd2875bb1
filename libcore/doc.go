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

// Package libcore makes host implemented libraries appear to emulated code as
// ordinary in-memory libraries.
//
// A library occupies one allocation. The exec Library structure starts at the
// base address and the jump table sits below it, one six byte entry per
// function. Emulated code calls a function with JSR to the base address minus
// the bias of the function.
//
// Entries for functions that have a host implementation hold a trap opcode
// followed by an RTS. When the trap is triggered the stub for the function
// reads the argument registers, calls the Method and writes the result to D0
// (and D1 for two register results). Entries for functions without an
// implementation clear D0 and return.
//
// Logging, profiling and the containment of host panics are stub variants.
// The variant is selected when the library is created and so there is no
// per-call test for the options.
//
// The VLib type is the lifecycle of a single library: creation patches the
// jump table, Open() and Close() maintain the open count in the Library
// structure and Free() releases the traps and the memory. Deciding which
// library to create, and when to free it, is the job of the libmgr package.
package libcore
