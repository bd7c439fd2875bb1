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

// Package cpu defines how the rest of the emulation talks to the 68000 CPU
// core and provides a core that implements a useful subset of the 68000
// instruction set.
//
// The emulation only ever needs four things from a CPU core: the ability to
// execute instructions for a bounded number of cycles, access to the
// registers, the ability to save and restore the entire register context and
// access to memory (which is provided separately by the memory package). The
// Core interface captures the first three.
//
// Execution stops for one of four reasons, described by the Status type.
// The StatusTrap status is the hook through which all host functionality is
// invoked: opcodes in the range 0xa000 to 0xafff (the 68000's "line A"
// opcodes) are never executed by the core. The core stops with the program
// counter pointing to the instruction following the trap and reports the
// opcode and its address in the RunState.
//
// The M68K type is a straightforward interpreter. It decodes the common
// integer instructions with all 68000 addressing modes. It does not implement
// supervisor mode, exceptions, BCD arithmetic, bit manipulation or MOVEM.
// Decoding an unimplemented instruction stops execution with an
// InvalidCPUState error.
package cpu
