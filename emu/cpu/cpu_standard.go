/* MIPS R3000 simulator, computational and branch instructions

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package cpu

import (
	cp0 "github.com/rcornwell/R3000/emu/cp0"
	op "github.com/rcornwell/R3000/emu/opcodemap"
)

// Instructions with the special opcode, function in the low six bits.
func (cpu *CPU) executeSpecial(step *stepInfo) {
	switch step.funct {
	case op.FnSLL:
		cpu.SetReg(step.rd, cpu.Reg(step.rt)<<step.sa)
	case op.FnSRL:
		cpu.SetReg(step.rd, cpu.Reg(step.rt)>>step.sa)
	case op.FnSRA:
		cpu.SetReg(step.rd, uint32(int32(cpu.Reg(step.rt))>>step.sa))
	case op.FnSLLV:
		cpu.SetReg(step.rd, cpu.Reg(step.rt)<<(cpu.Reg(step.rs)&0x1f))
	case op.FnSRLV:
		cpu.SetReg(step.rd, cpu.Reg(step.rt)>>(cpu.Reg(step.rs)&0x1f))
	case op.FnSRAV:
		cpu.SetReg(step.rd, uint32(int32(cpu.Reg(step.rt))>>(cpu.Reg(step.rs)&0x1f)))
	case op.FnJR:
		cpu.jumpReg(cpu.Reg(step.rs))
	case op.FnJALR:
		target := cpu.Reg(step.rs)
		cpu.SetReg(step.rd, cpu.PC+8)
		cpu.jumpReg(target)
	case op.FnSYSCALL:
		cpu.trap(cp0.ExcSys, false)
	case op.FnBREAK:
		cpu.trap(cp0.ExcBp, false)
	case op.FnMFHI:
		cpu.SetReg(step.rd, cpu.HI)
	case op.FnMTHI:
		cpu.HI = cpu.Reg(step.rs)
	case op.FnMFLO:
		cpu.SetReg(step.rd, cpu.LO)
	case op.FnMTLO:
		cpu.LO = cpu.Reg(step.rs)
	case op.FnMULT:
		result := int64(int32(cpu.Reg(step.rs))) * int64(int32(cpu.Reg(step.rt)))
		cpu.HI = uint32(uint64(result) >> 32)
		cpu.LO = uint32(uint64(result))
	case op.FnMULTU:
		result := uint64(cpu.Reg(step.rs)) * uint64(cpu.Reg(step.rt))
		cpu.HI = uint32(result >> 32)
		cpu.LO = uint32(result)
	case op.FnDIV:
		cpu.opDIV(step)
	case op.FnDIVU:
		cpu.opDIVU(step)
	case op.FnADD:
		cpu.opADD(step)
	case op.FnADDU:
		cpu.SetReg(step.rd, cpu.Reg(step.rs)+cpu.Reg(step.rt))
	case op.FnSUB:
		cpu.opSUB(step)
	case op.FnSUBU:
		cpu.SetReg(step.rd, cpu.Reg(step.rs)-cpu.Reg(step.rt))
	case op.FnAND:
		cpu.SetReg(step.rd, cpu.Reg(step.rs)&cpu.Reg(step.rt))
	case op.FnOR:
		cpu.SetReg(step.rd, cpu.Reg(step.rs)|cpu.Reg(step.rt))
	case op.FnXOR:
		cpu.SetReg(step.rd, cpu.Reg(step.rs)^cpu.Reg(step.rt))
	case op.FnNOR:
		cpu.SetReg(step.rd, ^(cpu.Reg(step.rs) | cpu.Reg(step.rt)))
	case op.FnSLT:
		if int32(cpu.Reg(step.rs)) < int32(cpu.Reg(step.rt)) {
			cpu.SetReg(step.rd, 1)
		} else {
			cpu.SetReg(step.rd, 0)
		}
	case op.FnSLTU:
		if cpu.Reg(step.rs) < cpu.Reg(step.rt) {
			cpu.SetReg(step.rd, 1)
		} else {
			cpu.SetReg(step.rd, 0)
		}
	default:
		cpu.trap(cp0.ExcRI, false)
	}
}

// Conditional branch group, selector in rt. The link forms write ra
// before the condition is tested.
func (cpu *CPU) executeRegimm(step *stepInfo) {
	value := int32(cpu.Reg(step.rs))
	switch step.rt {
	case op.RiBLTZ:
		cpu.branch(step, value < 0)
	case op.RiBGEZ:
		cpu.branch(step, value >= 0)
	case op.RiBLTZAL:
		cpu.SetReg(RegRa, cpu.PC+8)
		cpu.branch(step, value < 0)
	case op.RiBGEZAL:
		cpu.SetReg(RegRa, cpu.PC+8)
		cpu.branch(step, value >= 0)
	default:
		cpu.trap(cp0.ExcRI, false)
	}
}

// Signed add, traps on overflow with the destination unchanged.
func (cpu *CPU) opADD(step *stepInfo) {
	src1 := cpu.Reg(step.rs)
	src2 := cpu.Reg(step.rt)
	sum := src1 + src2
	if (^(src1 ^ src2) & (src1 ^ sum) & 0x80000000) != 0 {
		cpu.trap(cp0.ExcOvf, false)
		return
	}
	cpu.SetReg(step.rd, sum)
}

// Signed subtract, traps on overflow with the destination unchanged.
func (cpu *CPU) opSUB(step *stepInfo) {
	src1 := cpu.Reg(step.rs)
	src2 := cpu.Reg(step.rt)
	diff := src1 - src2
	if ((src1 ^ src2) & (src1 ^ diff) & 0x80000000) != 0 {
		cpu.trap(cp0.ExcOvf, false)
		return
	}
	cpu.SetReg(step.rd, diff)
}

// Signed add immediate, traps on overflow.
func (cpu *CPU) opADDI(step *stepInfo) {
	src1 := cpu.Reg(step.rs)
	sum := src1 + step.simm
	if (^(src1 ^ step.simm) & (src1 ^ sum) & 0x80000000) != 0 {
		cpu.trap(cp0.ExcOvf, false)
		return
	}
	cpu.SetReg(step.rt, sum)
}

func (cpu *CPU) opSLTI(step *stepInfo) {
	if int32(cpu.Reg(step.rs)) < int32(step.simm) {
		cpu.SetReg(step.rt, 1)
	} else {
		cpu.SetReg(step.rt, 0)
	}
}

// The immediate is sign extended then compared unsigned.
func (cpu *CPU) opSLTIU(step *stepInfo) {
	if cpu.Reg(step.rs) < step.simm {
		cpu.SetReg(step.rt, 1)
	} else {
		cpu.SetReg(step.rt, 0)
	}
}

// Signed divide. Division by zero leaves the dividend in HI and all
// ones in LO. Overflow of the most negative value wraps.
func (cpu *CPU) opDIV(step *stepInfo) {
	dividend := int32(cpu.Reg(step.rs))
	divisor := int32(cpu.Reg(step.rt))
	switch {
	case divisor == 0:
		cpu.HI = uint32(dividend)
		cpu.LO = 0xffffffff
	case dividend == -0x80000000 && divisor == -1:
		cpu.HI = 0
		cpu.LO = 0x80000000
	default:
		cpu.HI = uint32(dividend % divisor)
		cpu.LO = uint32(dividend / divisor)
	}
}

// Unsigned divide. Division by zero leaves the dividend in HI and
// all ones in LO.
func (cpu *CPU) opDIVU(step *stepInfo) {
	dividend := cpu.Reg(step.rs)
	divisor := cpu.Reg(step.rt)
	if divisor == 0 {
		cpu.HI = dividend
		cpu.LO = 0xffffffff
		return
	}
	cpu.HI = dividend % divisor
	cpu.LO = dividend / divisor
}
