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

// operand sizes in bytes.
const (
	sizeByte = 1
	sizeWord = 2
	sizeLong = 4
)

// sizeField decodes the two bit size field used by most instructions. returns
// zero for the invalid encoding.
func sizeField(bits uint16) int {
	switch bits & 3 {
	case 0:
		return sizeByte
	case 1:
		return sizeWord
	case 2:
		return sizeLong
	}
	return 0
}

func mask(size int) uint32 {
	switch size {
	case sizeByte:
		return 0xff
	case sizeWord:
		return 0xffff
	}
	return 0xffffffff
}

func msb(size int) uint32 {
	switch size {
	case sizeByte:
		return 0x80
	case sizeWord:
		return 0x8000
	}
	return 0x80000000
}

func sext8(v uint32) uint32 {
	return uint32(int32(int8(v)))
}

func sext16(v uint32) uint32 {
	return uint32(int32(int16(v)))
}

type operandKind int

const (
	opData operandKind = iota
	opAddr
	opMem
	opImm
)

// operand is a decoded effective address.
type operand struct {
	kind operandKind
	reg  int
	addr uint32
	imm  uint32

	// the addressing mode allows writing
	alterable bool

	// the addressing mode is a control addressing mode (usable by JMP, JSR,
	// LEA and PEA)
	control bool
}

// decodeEA decodes the mode and register fields of an effective address,
// fetching extension words as required. post-increment and pre-decrement
// side effects happen during decoding.
func (mc *M68K) decodeEA(mode int, reg int, size int) (operand, bool) {
	switch mode {
	case 0:
		return operand{kind: opData, reg: reg, alterable: true}, true
	case 1:
		return operand{kind: opAddr, reg: reg, alterable: true}, true
	case 2:
		return operand{kind: opMem, addr: mc.regs[A0+Register(reg)], alterable: true, control: true}, true
	case 3:
		a := mc.regs[A0+Register(reg)]
		mc.regs[A0+Register(reg)] += mc.step(reg, size)
		return operand{kind: opMem, addr: a, alterable: true}, true
	case 4:
		mc.regs[A0+Register(reg)] -= mc.step(reg, size)
		return operand{kind: opMem, addr: mc.regs[A0+Register(reg)], alterable: true}, true
	case 5:
		d := sext16(uint32(mc.fetch16()))
		return operand{kind: opMem, addr: mc.regs[A0+Register(reg)] + d, alterable: true, control: true}, true
	case 6:
		base := mc.regs[A0+Register(reg)]
		return operand{kind: opMem, addr: base + mc.index(), alterable: true, control: true}, true
	case 7:
		switch reg {
		case 0:
			a := sext16(uint32(mc.fetch16()))
			return operand{kind: opMem, addr: a, alterable: true, control: true}, true
		case 1:
			a := mc.fetch32()
			return operand{kind: opMem, addr: a, alterable: true, control: true}, true
		case 2:
			base := mc.pc
			d := sext16(uint32(mc.fetch16()))
			return operand{kind: opMem, addr: base + d, control: true}, true
		case 3:
			base := mc.pc
			return operand{kind: opMem, addr: base + mc.index(), control: true}, true
		case 4:
			var v uint32
			switch size {
			case sizeByte:
				v = uint32(mc.fetch16()) & 0xff
			case sizeWord:
				v = uint32(mc.fetch16())
			default:
				v = mc.fetch32()
			}
			return operand{kind: opImm, imm: v}, true
		}
	}
	return operand{}, false
}

// the amount by which an address register is adjusted for post-increment
// and pre-decrement modes. the stack pointer is kept word aligned.
func (mc *M68K) step(reg int, size int) uint32 {
	if reg == 7 && size == sizeByte {
		return 2
	}
	return uint32(size)
}

// index decodes a brief extension word and returns the index value plus the
// 8bit displacement.
func (mc *M68K) index() uint32 {
	ext := mc.fetch16()
	v := mc.regs[(ext>>12)&0xf]
	if ext&0x0800 == 0 {
		v = sext16(v)
	}
	return v + sext8(uint32(ext))
}

func (mc *M68K) read(op operand, size int) uint32 {
	switch op.kind {
	case opData:
		return mc.regs[D0+Register(op.reg)] & mask(size)
	case opAddr:
		return mc.regs[A0+Register(op.reg)] & mask(size)
	case opImm:
		return op.imm & mask(size)
	}

	mc.cycles += cyclesAccess
	switch size {
	case sizeByte:
		return uint32(mc.mem.Read8(op.addr))
	case sizeWord:
		return uint32(mc.mem.Read16(op.addr))
	}
	return mc.mem.Read32(op.addr)
}

// write the value to the operand. writes to a data register only affect the
// bits covered by the size. writes to an address register always affect the
// whole register and the caller is responsible for sign extension.
func (mc *M68K) write(op operand, size int, v uint32) {
	switch op.kind {
	case opData:
		r := D0 + Register(op.reg)
		mc.regs[r] = mc.regs[r]&^mask(size) | v&mask(size)
		return
	case opAddr:
		mc.regs[A0+Register(op.reg)] = v
		return
	case opImm:
		return
	}

	mc.cycles += cyclesAccess
	switch size {
	case sizeByte:
		mc.mem.Write8(op.addr, uint8(v))
	case sizeWord:
		mc.mem.Write16(op.addr, uint16(v))
	default:
		mc.mem.Write32(op.addr, v)
	}
}
