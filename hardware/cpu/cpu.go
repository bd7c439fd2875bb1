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

package cpu

import "fmt"

// InvalidCPUState is the sentinel pattern for any condition from which the
// CPU cannot continue. The values are a description and the failing address.
const InvalidCPUState = "cpu: invalid cpu state: %s at pc=%#06x"

// Status describes why a call to Execute() returned.
type Status int

// List of valid Status values.
const (
	// the emulated program returned through the exit sentinel. the core
	// itself never returns this status, it is reported by the hardware
	// package when the trap at the sentinel address is reached
	StatusExit Status = iota

	// a trap opcode was decoded
	StatusTrap

	// the cycle budget was exhausted
	StatusMaxCycles

	// the core could not continue. the Err field of RunState says why
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusExit:
		return "exit"
	case StatusTrap:
		return "trap"
	case StatusMaxCycles:
		return "max cycles"
	case StatusError:
		return "error"
	}
	return "unknown status"
}

// RunState is the result of a single call to Execute().
type RunState struct {
	Status Status

	// PC is the address of the trap instruction for StatusTrap, the address of
	// the failing instruction for StatusError and the program counter in all
	// other cases
	PC uint32

	// number of cycles consumed during the call to Execute()
	Cycles int

	// the trap opcode for StatusTrap
	Opcode uint16

	// non-nil for StatusError
	Err error
}

func (rs RunState) String() string {
	switch rs.Status {
	case StatusTrap:
		return fmt.Sprintf("%s %04x at %06x (%d cycles)", rs.Status, rs.Opcode, rs.PC, rs.Cycles)
	case StatusError:
		return fmt.Sprintf("%s at %06x: %v", rs.Status, rs.PC, rs.Err)
	}
	return fmt.Sprintf("%s at %06x (%d cycles)", rs.Status, rs.PC, rs.Cycles)
}

// Core is the interface to the CPU used by the rest of the emulation.
type Core interface {
	// Execute instructions until the cycle budget is consumed or until a
	// trap or error occurs. A budget of zero or less means no limit.
	Execute(maxCycles int) RunState

	Reg(r Register) uint32
	SetReg(r Register, v uint32)
	PC() uint32
	SetPC(pc uint32)
	SR() uint16
	SetSR(sr uint16)

	Context() Context
	SetContext(ctx Context)
}
