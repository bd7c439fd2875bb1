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

import (
	"fmt"
	"strings"

	"github.com/cnvogelg/vamos/curated"
)

// Register identifies one of the sixteen general purpose registers. Data
// registers come first so that the register number matches the register
// field of an extension word.
type Register int

// List of valid Register values.
const (
	D0 Register = iota
	D1
	D2
	D3
	D4
	D5
	D6
	D7
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
)

// UnknownRegister is returned by ParseRegister() for unrecognised names.
const UnknownRegister = "cpu: unknown register: %s"

// SP is an alias for A7.
const SP = A7

func (r Register) String() string {
	if r >= D0 && r <= D7 {
		return fmt.Sprintf("d%d", r-D0)
	}
	if r >= A0 && r <= A7 {
		return fmt.Sprintf("a%d", r-A0)
	}
	return fmt.Sprintf("r%d", int(r))
}

// ParseRegister converts a register name ("d0" .. "a7", any case) to a
// Register.
func ParseRegister(s string) (Register, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "sp" {
		return A7, nil
	}
	if len(s) == 2 && s[1] >= '0' && s[1] <= '7' {
		n := Register(s[1] - '0')
		switch s[0] {
		case 'd':
			return D0 + n, nil
		case 'a':
			return A0 + n, nil
		}
	}
	return 0, curated.Errorf(UnknownRegister, s)
}

// Status register bits.
const (
	FlagC uint16 = 0x0001
	FlagV uint16 = 0x0002
	FlagZ uint16 = 0x0004
	FlagN uint16 = 0x0008
	FlagX uint16 = 0x0010
)

// Context is the complete register context of the CPU. It is used to save and
// restore the state of the CPU around nested execution and task switches.
type Context struct {
	Regs [16]uint32
	PC   uint32
	SR   uint16
}

func (ctx Context) String() string {
	s := strings.Builder{}
	for i, r := range ctx.Regs {
		if i == 8 {
			s.WriteString("\n")
		} else if i > 0 {
			s.WriteString(" ")
		}
		s.WriteString(fmt.Sprintf("%s=%08x", Register(i), r))
	}
	s.WriteString(fmt.Sprintf("\npc=%08x sr=%04x", ctx.PC, ctx.SR))
	return s.String()
}
