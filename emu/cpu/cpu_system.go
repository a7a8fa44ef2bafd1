/* MIPS R3000 simulator, memory and coprocessor instructions

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

// Byte merge tables for the unaligned load and store pairs, indexed
// by the byte offset within the word for a little endian machine.
// Big endian machines use the mirrored index.
var (
	lwlMask  = [4]uint32{0x00ffffff, 0x0000ffff, 0x000000ff, 0x00000000}
	lwlShift = [4]uint32{24, 16, 8, 0}
	lwrMask  = [4]uint32{0x00000000, 0xff000000, 0xffff0000, 0xffffff00}
	lwrShift = [4]uint32{0, 8, 16, 24}
	swlMask  = [4]uint32{0xffffff00, 0xffff0000, 0xff000000, 0x00000000}
	swlShift = [4]uint32{24, 16, 8, 0}
	swrMask  = [4]uint32{0x00000000, 0x000000ff, 0x0000ffff, 0x00ffffff}
	swrShift = [4]uint32{0, 8, 16, 24}
)

// Translate a data address, raising the fault on failure.
func (cpu *CPU) translate(vaddr uint32, write bool) (uint32, bool) {
	paddr, fault := cpu.CP0.Translate(vaddr, write)
	if fault != nil {
		cpu.trap(fault.Exc, fault.UTLB)
		return 0, false
	}
	return paddr, true
}

// Read a data word, full fault handling.
func (cpu *CPU) loadWord(vaddr uint32) (uint32, bool) {
	paddr, ok := cpu.translate(vaddr, false)
	if !ok {
		return 0, false
	}
	value, ok := cpu.bus.GetWord(paddr)
	if !ok {
		cpu.trap(cp0.ExcDBE, false)
		return 0, false
	}
	return value, true
}

// Write a data word, full fault handling.
func (cpu *CPU) storeWord(vaddr uint32, value uint32) {
	paddr, ok := cpu.translate(vaddr, true)
	if !ok {
		return
	}
	if !cpu.bus.PutWord(paddr, value) {
		cpu.trap(cp0.ExcDBE, false)
	}
}

// Load instructions. All results go through the load delay slot.
func (cpu *CPU) executeLoad(step *stepInfo) {
	vaddr := cpu.Reg(step.rs) + step.simm

	switch step.opcode {
	case op.OpLW:
		if vaddr&3 != 0 {
			cpu.addressError(vaddr, false)
			return
		}
		if value, ok := cpu.loadWord(vaddr); ok {
			cpu.scheduleLoad(step.rt, value)
		}

	case op.OpLH, op.OpLHU:
		if vaddr&1 != 0 {
			cpu.addressError(vaddr, false)
			return
		}
		paddr, ok := cpu.translate(vaddr, false)
		if !ok {
			return
		}
		half, ok := cpu.bus.GetHalf(paddr)
		if !ok {
			cpu.trap(cp0.ExcDBE, false)
			return
		}
		if step.opcode == op.OpLH {
			cpu.scheduleLoad(step.rt, uint32(int32(int16(half))))
		} else {
			cpu.scheduleLoad(step.rt, uint32(half))
		}

	case op.OpLB, op.OpLBU:
		paddr, ok := cpu.translate(vaddr, false)
		if !ok {
			return
		}
		b, ok := cpu.bus.GetByte(paddr)
		if !ok {
			cpu.trap(cp0.ExcDBE, false)
			return
		}
		if step.opcode == op.OpLB {
			cpu.scheduleLoad(step.rt, uint32(int32(int8(b))))
		} else {
			cpu.scheduleLoad(step.rt, uint32(b))
		}

	case op.OpLWL, op.OpLWR:
		word, ok := cpu.loadWord(vaddr &^ 3)
		if !ok {
			return
		}
		index := vaddr & 3
		if cpu.bigEnd {
			index ^= 3
		}
		old := cpu.mergeReg(step.rt)
		var value uint32
		if step.opcode == op.OpLWL {
			value = (old & lwlMask[index]) | (word << lwlShift[index])
		} else {
			value = (old & lwrMask[index]) | (word >> lwrShift[index])
		}
		cpu.scheduleLoad(step.rt, value)
	}
}

// Store instructions.
func (cpu *CPU) executeStore(step *stepInfo) {
	vaddr := cpu.Reg(step.rs) + step.simm

	switch step.opcode {
	case op.OpSW:
		if vaddr&3 != 0 {
			cpu.addressError(vaddr, true)
			return
		}
		cpu.storeWord(vaddr, cpu.Reg(step.rt))

	case op.OpSH:
		if vaddr&1 != 0 {
			cpu.addressError(vaddr, true)
			return
		}
		paddr, ok := cpu.translate(vaddr, true)
		if !ok {
			return
		}
		if !cpu.bus.PutHalf(paddr, uint16(cpu.Reg(step.rt))) {
			cpu.trap(cp0.ExcDBE, false)
		}

	case op.OpSB:
		paddr, ok := cpu.translate(vaddr, true)
		if !ok {
			return
		}
		if !cpu.bus.PutByte(paddr, uint8(cpu.Reg(step.rt))) {
			cpu.trap(cp0.ExcDBE, false)
		}

	case op.OpSWL, op.OpSWR:
		aligned := vaddr &^ 3
		word, ok := cpu.loadWord(aligned)
		if !ok {
			return
		}
		index := vaddr & 3
		if cpu.bigEnd {
			index ^= 3
		}
		value := cpu.Reg(step.rt)
		var merged uint32
		if step.opcode == op.OpSWL {
			merged = (value >> swlShift[index]) | (word & swlMask[index])
		} else {
			merged = (value << swrShift[index]) | (word & swrMask[index])
		}
		cpu.storeWord(aligned, merged)
	}
}

// Coprocessor zero instructions. In user mode these require the CU0
// bit in the Status register.
func (cpu *CPU) executeCop0(step *stepInfo) {
	if !cpu.CP0.KernelMode() && !cpu.CP0.CoprocessorUsable(0) {
		cpu.CP0.SetCoprocessorError(0)
		cpu.trap(cp0.ExcCpU, false)
		return
	}

	switch step.rs {
	case op.CopMF:
		cpu.SetReg(step.rt, cpu.CP0.Read(step.rd))
	case op.CopMT:
		cpu.CP0.Write(step.rd, cpu.Reg(step.rt))
	case op.CopOp:
		switch step.funct {
		case op.C0TLBR:
			cpu.CP0.TLBR()
		case op.C0TLBWI:
			cpu.CP0.TLBWI()
		case op.C0TLBWR:
			cpu.CP0.TLBWR()
		case op.C0TLBP:
			cpu.CP0.TLBP()
		case op.C0RFE:
			cpu.CP0.RFE()
		default:
			cpu.trap(cp0.ExcRI, false)
		}
	default:
		cpu.trap(cp0.ExcRI, false)
	}
}
