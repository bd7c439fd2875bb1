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

import "github.com/cnvogelg/vamos/curated"

func eaFields(opcode uint16) (int, int) {
	return int(opcode>>3) & 7, int(opcode) & 7
}

// ORI, ANDI, SUBI, ADDI, EORI, CMPI.
func (mc *M68K) immediate(opcode uint16) error {
	if opcode&0x0100 != 0 {
		return mc.invalid(opcode)
	}

	size := sizeField(opcode >> 6)
	if size == 0 {
		return mc.invalid(opcode)
	}

	mode, reg := eaFields(opcode)
	if mode == 1 || (mode == 7 && reg == 4) {
		return mc.invalid(opcode)
	}

	var imm uint32
	switch size {
	case sizeByte:
		imm = uint32(mc.fetch16()) & 0xff
	case sizeWord:
		imm = uint32(mc.fetch16())
	default:
		imm = mc.fetch32()
	}

	dst, ok := mc.decodeEA(mode, reg, size)
	if !ok || !dst.alterable {
		return mc.invalid(opcode)
	}
	d := mc.read(dst, size)

	var r uint32
	switch (opcode >> 9) & 7 {
	case 0:
		r = d | imm
		mc.logicFlags(r, size)
	case 1:
		r = d & imm
		mc.logicFlags(r, size)
	case 5:
		r = d ^ imm
		mc.logicFlags(r, size)
	case 2:
		r = (d - imm) & mask(size)
		mc.subFlags(imm, d, r, size, true)
	case 3:
		r = (d + imm) & mask(size)
		mc.addFlags(imm, d, r, size)
	case 6:
		r = (d - imm) & mask(size)
		mc.subFlags(imm, d, r, size, false)
		return nil
	default:
		return mc.invalid(opcode)
	}

	mc.write(dst, size, r)
	return nil
}

// MOVE and MOVEA.
func (mc *M68K) move(opcode uint16) error {
	var size int
	switch opcode >> 12 {
	case 1:
		size = sizeByte
	case 3:
		size = sizeWord
	default:
		size = sizeLong
	}

	mode, reg := eaFields(opcode)
	if mode == 1 && size == sizeByte {
		return mc.invalid(opcode)
	}
	src, ok := mc.decodeEA(mode, reg, size)
	if !ok {
		return mc.invalid(opcode)
	}
	v := mc.read(src, size)

	dstMode := int(opcode>>6) & 7
	dstReg := int(opcode>>9) & 7

	if dstMode == 1 {
		if size == sizeByte {
			return mc.invalid(opcode)
		}
		if size == sizeWord {
			v = sext16(v)
		}
		mc.regs[A0+Register(dstReg)] = v
		return nil
	}

	dst, ok := mc.decodeEA(dstMode, dstReg, size)
	if !ok || !dst.alterable {
		return mc.invalid(opcode)
	}
	mc.write(dst, size, v)
	mc.logicFlags(v, size)

	return nil
}

// controlAddress decodes an effective address that must be a control
// addressing mode.
func (mc *M68K) controlAddress(opcode uint16) (uint32, bool) {
	mode, reg := eaFields(opcode)
	op, ok := mc.decodeEA(mode, reg, sizeLong)
	if !ok || !op.control {
		return 0, false
	}
	return op.addr, true
}

// the 0x4xxx opcode space.
func (mc *M68K) miscellaneous(opcode uint16) error {
	switch {
	case opcode == 0x4e70:
		return curated.Errorf(InvalidCPUState, "reset opcode", mc.instPC)

	case opcode == 0x4afc:
		return curated.Errorf(InvalidCPUState, "illegal opcode", mc.instPC)

	case opcode == 0x4e71:
		// NOP

	case opcode == 0x4e75:
		// RTS
		mc.pc = mc.pop()

	case opcode&0xffc0 == 0x4e80:
		// JSR
		a, ok := mc.controlAddress(opcode)
		if !ok {
			return mc.invalid(opcode)
		}
		mc.push(mc.pc)
		mc.pc = a

	case opcode&0xffc0 == 0x4ec0:
		// JMP
		a, ok := mc.controlAddress(opcode)
		if !ok {
			return mc.invalid(opcode)
		}
		mc.pc = a

	case opcode&0xf1c0 == 0x41c0:
		// LEA
		a, ok := mc.controlAddress(opcode)
		if !ok {
			return mc.invalid(opcode)
		}
		mc.regs[A0+Register(opcode>>9&7)] = a

	case opcode&0xfff8 == 0x4840:
		// SWAP
		r := D0 + Register(opcode&7)
		v := mc.regs[r]<<16 | mc.regs[r]>>16
		mc.regs[r] = v
		mc.logicFlags(v, sizeLong)

	case opcode&0xffc0 == 0x4840:
		// PEA
		a, ok := mc.controlAddress(opcode)
		if !ok {
			return mc.invalid(opcode)
		}
		mc.push(a)

	case opcode&0xfff8 == 0x4880:
		// EXT.W
		r := D0 + Register(opcode&7)
		v := sext8(mc.regs[r]) & 0xffff
		mc.regs[r] = mc.regs[r]&0xffff0000 | v
		mc.logicFlags(v, sizeWord)

	case opcode&0xfff8 == 0x48c0:
		// EXT.L
		r := D0 + Register(opcode&7)
		mc.regs[r] = sext16(mc.regs[r])
		mc.logicFlags(mc.regs[r], sizeLong)

	case opcode&0xfff8 == 0x4e50:
		// LINK
		r := A0 + Register(opcode&7)
		d := sext16(uint32(mc.fetch16()))
		mc.push(mc.regs[r])
		mc.regs[r] = mc.regs[SP]
		mc.regs[SP] += d

	case opcode&0xfff8 == 0x4e58:
		// UNLK
		r := A0 + Register(opcode&7)
		mc.regs[SP] = mc.regs[r]
		mc.regs[r] = mc.pop()

	case opcode&0xff00 == 0x4200, opcode&0xff00 == 0x4400, opcode&0xff00 == 0x4600, opcode&0xff00 == 0x4a00:
		return mc.unary(opcode)

	default:
		return mc.invalid(opcode)
	}

	return nil
}

// CLR, NEG, NOT and TST.
func (mc *M68K) unary(opcode uint16) error {
	size := sizeField(opcode >> 6)
	mode, reg := eaFields(opcode)
	if size == 0 || mode == 1 {
		return mc.invalid(opcode)
	}

	op, ok := mc.decodeEA(mode, reg, size)
	if !ok {
		return mc.invalid(opcode)
	}

	switch opcode & 0xff00 {
	case 0x4a00:
		mc.logicFlags(mc.read(op, size), size)
		return nil
	case 0x4200:
		if !op.alterable {
			return mc.invalid(opcode)
		}
		mc.write(op, size, 0)
		mc.logicFlags(0, size)
		return nil
	}

	if !op.alterable {
		return mc.invalid(opcode)
	}
	d := mc.read(op, size)

	if opcode&0xff00 == 0x4600 {
		r := ^d & mask(size)
		mc.write(op, size, r)
		mc.logicFlags(r, size)
		return nil
	}

	r := (0 - d) & mask(size)
	mc.write(op, size, r)
	mc.subFlags(d, 0, r, size, true)
	return nil
}

// ADDQ, SUBQ, DBcc and Scc.
func (mc *M68K) quick(opcode uint16) error {
	mode, reg := eaFields(opcode)

	if (opcode>>6)&3 == 3 {
		cc := opcode >> 8
		if mode == 1 {
			// DBcc
			base := mc.pc
			d := sext16(uint32(mc.fetch16()))
			if !mc.condition(cc) {
				r := D0 + Register(reg)
				w := uint16(mc.regs[r]) - 1
				mc.regs[r] = mc.regs[r]&0xffff0000 | uint32(w)
				if w != 0xffff {
					mc.pc = base + d
				}
			}
			return nil
		}

		// Scc
		op, ok := mc.decodeEA(mode, reg, sizeByte)
		if !ok || !op.alterable {
			return mc.invalid(opcode)
		}
		if mc.condition(cc) {
			mc.write(op, sizeByte, 0xff)
		} else {
			mc.write(op, sizeByte, 0)
		}
		return nil
	}

	data := uint32(opcode>>9) & 7
	if data == 0 {
		data = 8
	}
	sub := opcode&0x0100 != 0
	size := sizeField(opcode >> 6)

	// address registers are always affected in full and flags are unchanged
	if mode == 1 {
		if size == sizeByte {
			return mc.invalid(opcode)
		}
		if sub {
			mc.regs[A0+Register(reg)] -= data
		} else {
			mc.regs[A0+Register(reg)] += data
		}
		return nil
	}

	op, ok := mc.decodeEA(mode, reg, size)
	if !ok || !op.alterable {
		return mc.invalid(opcode)
	}
	d := mc.read(op, size)

	var r uint32
	if sub {
		r = (d - data) & mask(size)
		mc.subFlags(data, d, r, size, true)
	} else {
		r = (d + data) & mask(size)
		mc.addFlags(data, d, r, size)
	}
	mc.write(op, size, r)

	return nil
}

// Bcc, BRA and BSR.
func (mc *M68K) branch(opcode uint16) error {
	base := mc.pc

	var d uint32
	switch opcode & 0xff {
	case 0x00:
		d = sext16(uint32(mc.fetch16()))
	case 0xff:
		// 32bit displacement is a 68020 extension
		return mc.invalid(opcode)
	default:
		d = sext8(uint32(opcode))
	}

	cc := (opcode >> 8) & 0xf
	if cc == 1 {
		// BSR
		mc.push(mc.pc)
		mc.pc = base + d
		return nil
	}

	if mc.condition(cc) {
		mc.pc = base + d
	}

	return nil
}

func (mc *M68K) moveq(opcode uint16) error {
	if opcode&0x0100 != 0 {
		return mc.invalid(opcode)
	}
	v := sext8(uint32(opcode))
	mc.regs[D0+Register(opcode>>9&7)] = v
	mc.logicFlags(v, sizeLong)
	return nil
}

// ADD, ADDA, SUB, SUBA.
func (mc *M68K) arithmetic(opcode uint16, sub bool) error {
	mode, reg := eaFields(opcode)
	dn := D0 + Register(opcode>>9&7)
	opmode := (opcode >> 6) & 7

	apply := func(s, d uint32, size int) uint32 {
		if sub {
			r := (d - s) & mask(size)
			mc.subFlags(s, d, r, size, true)
			return r
		}
		r := (d + s) & mask(size)
		mc.addFlags(s, d, r, size)
		return r
	}

	switch opmode {
	case 3, 7:
		size := sizeWord
		if opmode == 7 {
			size = sizeLong
		}
		src, ok := mc.decodeEA(mode, reg, size)
		if !ok {
			return mc.invalid(opcode)
		}
		s := mc.read(src, size)
		if size == sizeWord {
			s = sext16(s)
		}
		an := A0 + (dn - D0)
		if sub {
			mc.regs[an] -= s
		} else {
			mc.regs[an] += s
		}

	case 0, 1, 2:
		size := sizeField(opmode)
		if mode == 1 && size == sizeByte {
			return mc.invalid(opcode)
		}
		src, ok := mc.decodeEA(mode, reg, size)
		if !ok {
			return mc.invalid(opcode)
		}
		s := mc.read(src, size)
		d := mc.regs[dn] & mask(size)
		r := apply(s, d, size)
		mc.regs[dn] = mc.regs[dn]&^mask(size) | r

	default:
		// ADDX and SUBX share the register modes
		if mode < 2 {
			return mc.invalid(opcode)
		}
		size := sizeField(opmode)
		dst, ok := mc.decodeEA(mode, reg, size)
		if !ok || !dst.alterable {
			return mc.invalid(opcode)
		}
		d := mc.read(dst, size)
		r := apply(mc.regs[dn]&mask(size), d, size)
		mc.write(dst, size, r)
	}

	return nil
}

// CMP, CMPA and EOR.
func (mc *M68K) compare(opcode uint16) error {
	mode, reg := eaFields(opcode)
	dn := D0 + Register(opcode>>9&7)
	opmode := (opcode >> 6) & 7

	switch opmode {
	case 3, 7:
		size := sizeWord
		if opmode == 7 {
			size = sizeLong
		}
		src, ok := mc.decodeEA(mode, reg, size)
		if !ok {
			return mc.invalid(opcode)
		}
		s := mc.read(src, size)
		if size == sizeWord {
			s = sext16(s)
		}
		d := mc.regs[A0+(dn-D0)]
		mc.subFlags(s, d, d-s, sizeLong, false)

	case 0, 1, 2:
		size := sizeField(opmode)
		src, ok := mc.decodeEA(mode, reg, size)
		if !ok {
			return mc.invalid(opcode)
		}
		s := mc.read(src, size)
		d := mc.regs[dn] & mask(size)
		mc.subFlags(s, d, (d-s)&mask(size), size, false)

	default:
		// CMPM shares address register mode
		if mode == 1 {
			return mc.invalid(opcode)
		}
		size := sizeField(opmode)
		dst, ok := mc.decodeEA(mode, reg, size)
		if !ok || !dst.alterable {
			return mc.invalid(opcode)
		}
		r := mc.read(dst, size) ^ mc.regs[dn]&mask(size)
		mc.write(dst, size, r)
		mc.logicFlags(r, size)
	}

	return nil
}

// logical AND and OR share an encoding.
func (mc *M68K) logical(opcode uint16, and bool) error {
	mode, reg := eaFields(opcode)
	dn := D0 + Register(opcode>>9&7)
	opmode := (opcode >> 6) & 7
	size := sizeField(opmode)

	op := func(a, b uint32) uint32 {
		if and {
			return a & b
		}
		return a | b
	}

	if opmode < 3 {
		if mode == 1 {
			return mc.invalid(opcode)
		}
		src, ok := mc.decodeEA(mode, reg, size)
		if !ok {
			return mc.invalid(opcode)
		}
		r := op(mc.read(src, size), mc.regs[dn]&mask(size))
		mc.regs[dn] = mc.regs[dn]&^mask(size) | r
		mc.logicFlags(r, size)
		return nil
	}

	dst, ok := mc.decodeEA(mode, reg, size)
	if !ok || !dst.alterable || mode < 2 {
		return mc.invalid(opcode)
	}
	r := op(mc.read(dst, size), mc.regs[dn]&mask(size))
	mc.write(dst, size, r)
	mc.logicFlags(r, size)
	return nil
}

// OR, DIVU and DIVS.
func (mc *M68K) orDivide(opcode uint16) error {
	opmode := (opcode >> 6) & 7
	if opmode != 3 && opmode != 7 {
		return mc.logical(opcode, false)
	}

	mode, reg := eaFields(opcode)
	if mode == 1 {
		return mc.invalid(opcode)
	}
	src, ok := mc.decodeEA(mode, reg, sizeWord)
	if !ok {
		return mc.invalid(opcode)
	}
	divisor := mc.read(src, sizeWord)
	if divisor == 0 {
		return curated.Errorf(InvalidCPUState, "division by zero", mc.instPC)
	}

	dn := D0 + Register(opcode>>9&7)
	dividend := mc.regs[dn]

	var q, r uint32
	if opmode == 3 {
		q = dividend / divisor
		r = dividend % divisor
		if q > 0xffff {
			mc.setFlag(FlagV, true)
			mc.setFlag(FlagC, false)
			return nil
		}
	} else {
		sq := int32(dividend) / int32(int16(divisor))
		sr := int32(dividend) % int32(int16(divisor))
		if sq < -32768 || sq > 32767 {
			mc.setFlag(FlagV, true)
			mc.setFlag(FlagC, false)
			return nil
		}
		q = uint32(sq) & 0xffff
		r = uint32(sr) & 0xffff
	}

	mc.regs[dn] = r<<16 | q&0xffff
	mc.logicFlags(q, sizeWord)
	return nil
}

// AND, MULU, MULS and EXG.
func (mc *M68K) andMultiply(opcode uint16) error {
	mode, reg := eaFields(opcode)
	opmode := (opcode >> 6) & 7
	rx := Register(opcode >> 9 & 7)

	switch {
	case opmode == 3 || opmode == 7:
		if mode == 1 {
			return mc.invalid(opcode)
		}
		src, ok := mc.decodeEA(mode, reg, sizeWord)
		if !ok {
			return mc.invalid(opcode)
		}
		s := mc.read(src, sizeWord)
		d := mc.regs[D0+rx] & 0xffff
		var r uint32
		if opmode == 3 {
			r = s * d
		} else {
			r = uint32(int32(int16(s)) * int32(int16(d)))
		}
		mc.regs[D0+rx] = r
		mc.logicFlags(r, sizeLong)
		return nil

	case opmode == 5 && mode == 0:
		mc.regs[D0+rx], mc.regs[D0+Register(reg)] = mc.regs[D0+Register(reg)], mc.regs[D0+rx]
		return nil

	case opmode == 5 && mode == 1:
		mc.regs[A0+rx], mc.regs[A0+Register(reg)] = mc.regs[A0+Register(reg)], mc.regs[A0+rx]
		return nil

	case opmode == 6 && mode == 1:
		mc.regs[D0+rx], mc.regs[A0+Register(reg)] = mc.regs[A0+Register(reg)], mc.regs[D0+rx]
		return nil
	}

	return mc.logical(opcode, true)
}

// ASL, ASR, LSL, LSR, ROL and ROR on data registers.
func (mc *M68K) shift(opcode uint16) error {
	size := sizeField(opcode >> 6)
	kind := (opcode >> 3) & 3
	if size == 0 || kind == 2 {
		return mc.invalid(opcode)
	}

	count := uint32(opcode>>9) & 7
	if opcode&0x20 != 0 {
		count = mc.regs[D0+Register(count)] % 64
	} else if count == 0 {
		count = 8
	}

	left := opcode&0x0100 != 0
	r := D0 + Register(opcode&7)
	m := msb(size)
	mk := mask(size)
	v := mc.regs[r] & mk

	var carry, overflow bool
	for i := uint32(0); i < count; i++ {
		if left {
			carry = v&m != 0
			n := (v << 1) & mk
			if kind == 3 && carry {
				n |= 1
			}
			if kind == 0 && (n&m != 0) != (v&m != 0) {
				overflow = true
			}
			v = n
		} else {
			carry = v&1 != 0
			n := v >> 1
			switch kind {
			case 0:
				n |= v & m
			case 3:
				if carry {
					n |= m
				}
			}
			v = n
		}
	}

	mc.regs[r] = mc.regs[r]&^mk | v
	mc.setFlag(FlagN, v&m != 0)
	mc.setFlag(FlagZ, v == 0)
	mc.setFlag(FlagV, overflow)
	mc.setFlag(FlagC, count > 0 && carry)
	if count > 0 && kind != 3 {
		mc.setFlag(FlagX, carry)
	}
	mc.cycles += int(count) * 2

	return nil
}
