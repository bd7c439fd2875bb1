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

func (mc *M68K) flag(f uint16) bool {
	return mc.sr&f == f
}

func (mc *M68K) setFlag(f uint16, v bool) {
	if v {
		mc.sr |= f
	} else {
		mc.sr &^= f
	}
}

// flags for moves and logical operations. X is not affected.
func (mc *M68K) logicFlags(v uint32, size int) {
	mc.setFlag(FlagN, v&msb(size) != 0)
	mc.setFlag(FlagZ, v&mask(size) == 0)
	mc.setFlag(FlagV, false)
	mc.setFlag(FlagC, false)
}

// flags for r = d + s.
func (mc *M68K) addFlags(s, d, r uint32, size int) {
	m := msb(size)
	mc.setFlag(FlagN, r&m != 0)
	mc.setFlag(FlagZ, r&mask(size) == 0)
	mc.setFlag(FlagV, (s^r)&(d^r)&m != 0)
	c := (s&d|^r&(s|d))&m != 0
	mc.setFlag(FlagC, c)
	mc.setFlag(FlagX, c)
}

// flags for r = d - s. X is not affected by compare instructions.
func (mc *M68K) subFlags(s, d, r uint32, size int, extend bool) {
	m := msb(size)
	mc.setFlag(FlagN, r&m != 0)
	mc.setFlag(FlagZ, r&mask(size) == 0)
	mc.setFlag(FlagV, (s^d)&(r^d)&m != 0)
	c := (s&^d|r&^d|s&r)&m != 0
	mc.setFlag(FlagC, c)
	if extend {
		mc.setFlag(FlagX, c)
	}
}

// condition tests the condition field used by Bcc, DBcc and Scc.
func (mc *M68K) condition(cc uint16) bool {
	c := mc.flag(FlagC)
	v := mc.flag(FlagV)
	z := mc.flag(FlagZ)
	n := mc.flag(FlagN)

	switch cc & 0xf {
	case 0x0:
		return true
	case 0x1:
		return false
	case 0x2:
		return !c && !z
	case 0x3:
		return c || z
	case 0x4:
		return !c
	case 0x5:
		return c
	case 0x6:
		return !z
	case 0x7:
		return z
	case 0x8:
		return !v
	case 0x9:
		return v
	case 0xa:
		return !n
	case 0xb:
		return n
	case 0xc:
		return n == v
	case 0xd:
		return n != v
	case 0xe:
		return !z && n == v
	}
	return z || n != v
}
