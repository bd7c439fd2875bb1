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

package memory

// ReadCStr returns the zero terminated string starting at the address. The
// read stops at the end of memory, latching a fault.
func (ram *RAM) ReadCStr(addr uint32) string {
	var b []byte
	for ram.check('R', 1, addr) {
		c := ram.data[addr]
		if c == 0 {
			break
		}
		b = append(b, c)
		addr++
	}
	return string(b)
}

// WriteCStr stores the string followed by a zero byte.
func (ram *RAM) WriteCStr(addr uint32, s string) {
	ram.WriteBlock(addr, []byte(s))
	ram.Write8(addr+uint32(len(s)), 0)
}

// ReadBStr returns the BCPL string at the address. A BCPL string is a length
// byte followed by that many characters.
func (ram *RAM) ReadBStr(addr uint32) string {
	n := ram.Read8(addr)
	return string(ram.ReadBlock(addr+1, uint32(n)))
}

// WriteBStr stores the BCPL string at the address. Strings longer than 255
// characters are truncated. A zero byte is stored after the characters so
// that the string is also usable as a C string starting at addr+1.
func (ram *RAM) WriteBStr(addr uint32, s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	ram.Write8(addr, uint8(len(s)))
	ram.WriteCStr(addr+1, s)
}
