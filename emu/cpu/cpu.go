/* MIPS R3000 simulator core

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
	"encoding/binary"
	"fmt"
	"log/slog"

	cp0 "github.com/rcornwell/R3000/emu/cp0"
	disassembler "github.com/rcornwell/R3000/emu/disassemble"
	memory "github.com/rcornwell/R3000/emu/memory"
	op "github.com/rcornwell/R3000/emu/opcodemap"
)

/*
   The MIPS R3000 is a 32 bit RISC processor implementing the MIPS I
   instruction set. It has 32 general registers, with register zero
   wired to read as zero, and a HI/LO register pair for multiply and
   divide results. All instructions are one word.

   Branches and jumps take effect after the following instruction, the
   branch delay slot. Loads have a one instruction delay before the
   value appears in the register, the load delay slot.

   The system control coprocessor, CP0, holds the exception state and
   the translation lookaside buffer. Virtual addresses in kuseg and
   kseg2 are translated through the TLB, kseg0 and kseg1 map directly
   onto physical memory.
*/

// Create a new CPU attached to the given bus.
func New(bus *memory.Bus) *CPU {
	cpu := &CPU{
		bus:    bus,
		bigEnd: bus.Order() == binary.BigEndian,
		CP0:    cp0.New(),
	}
	cpu.Reset()
	return cpu
}

// Reset the processor. Execution restarts at the reset vector in
// kseg1 with CP0 in its power on state.
func (cpu *CPU) Reset() {
	cpu.regs = [32]uint32{}
	cpu.HI = 0
	cpu.LO = 0
	cpu.PC = resetVector
	cpu.nPC = resetVector + 4
	cpu.CP0.Reset()
	cpu.inDelay = false
	cpu.isBranch = false
	cpu.branchHit = false
	cpu.trapped = false
	cpu.trapLast = false
	cpu.loadNew = loadSlot{}
	cpu.loadOld = loadSlot{}
	cpu.Count = 0
	cpu.DoubleFault = false
	cpu.BusFault = false
}

// Return the bus the CPU is attached to.
func (cpu *CPU) Bus() *memory.Bus {
	return cpu.bus
}

// Redirect execution to a new address, discarding any branch in
// flight. Used by the debug stub and the monitor.
func (cpu *CPU) SetPC(pc uint32) {
	cpu.PC = pc
	cpu.nPC = pc + 4
	cpu.inDelay = false
	cpu.isBranch = false
	cpu.branchHit = false
}

// Read a general register.
func (cpu *CPU) Reg(reg uint32) uint32 {
	return cpu.regs[reg&0x1f]
}

// Set a general register. Writes to register zero are dropped. A
// write also cancels a load in flight to the same register.
func (cpu *CPU) SetReg(reg uint32, value uint32) {
	if reg == RegZero {
		return
	}
	cpu.regs[reg] = value
	if cpu.loadOld.valid && cpu.loadOld.reg == reg {
		cpu.loadOld.valid = false
	}
}

// Read a register as the source of lwl and lwr. These pair with a
// preceding load to the same register and see the in flight value.
func (cpu *CPU) mergeReg(reg uint32) uint32 {
	if cpu.loadOld.valid && cpu.loadOld.reg == reg {
		return cpu.loadOld.value
	}
	return cpu.regs[reg]
}

// Schedule a load. The value is architecturally visible starting
// with the second instruction after the load.
func (cpu *CPU) scheduleLoad(reg uint32, value uint32) {
	if reg == RegZero {
		return
	}
	cpu.loadNew = loadSlot{reg: reg, value: value, valid: true}
}

// Retire the load delay slot at the end of an instruction.
func (cpu *CPU) completeLoad() {
	if cpu.loadOld.valid {
		cpu.regs[cpu.loadOld.reg] = cpu.loadOld.value
	}
	cpu.loadOld = cpu.loadNew
	cpu.loadNew = loadSlot{}
}

// Raise an exception. EPC points at the faulting instruction, or at
// the branch when the fault was in a delay slot.
func (cpu *CPU) trap(exc cp0.Exception, utlb bool) {
	epc := cpu.PC
	if cpu.inDelay {
		epc -= 4
	}
	if (exc == cp0.ExcIBE || exc == cp0.ExcDBE) && !cpu.CP0.InHandler() {
		cpu.BusFault = true
	}
	cpu.CP0.Exception(epc, exc, cpu.inDelay)
	vector := cpu.CP0.Vector(utlb)
	if cpu.Trace {
		slog.Debug(fmt.Sprintf("exception %v at %08x vector %08x", exc, epc, vector))
	}
	cpu.PC = vector
	cpu.nPC = vector + 4
	cpu.inDelay = false
	cpu.branchHit = false
	cpu.trapped = true
}

// Raise an address error for a misaligned or privileged access.
func (cpu *CPU) addressError(vaddr uint32, write bool) {
	cpu.CP0.SetBadVaddr(vaddr)
	if write {
		cpu.trap(cp0.ExcAdES, false)
	} else {
		cpu.trap(cp0.ExcAdEL, false)
	}
}

// Execute one instruction. Exceptions redirect the flow to the
// handler vector, a halted machine is handled by the caller.
func (cpu *CPU) Step() {
	cpu.trapped = false
	cpu.isBranch = false
	cpu.branchHit = false

	word, ok := cpu.fetch()
	if ok {
		if cpu.Trace {
			slog.Debug(fmt.Sprintf("%08x: %08x  %s", cpu.PC, word, disassembler.Disassemble(cpu.PC, word)))
		}
		step := decode(word)
		cpu.execute(&step)
	}

	cpu.completeLoad()
	cpu.CP0.Tick()
	cpu.Count++

	if cpu.trapped {
		// The first instruction of a handler faulting again is a
		// double fault, the machine cannot make progress.
		if cpu.trapLast {
			cpu.DoubleFault = true
		}
		cpu.trapLast = true
		return
	}
	cpu.trapLast = false

	next := cpu.nPC + 4
	if cpu.branchHit {
		next = cpu.branchPC
	}
	cpu.inDelay = cpu.isBranch
	cpu.PC = cpu.nPC
	cpu.nPC = next
}

// Fetch the instruction word at PC.
func (cpu *CPU) fetch() (uint32, bool) {
	if cpu.PC&3 != 0 {
		cpu.addressError(cpu.PC, false)
		return 0, false
	}
	paddr, fault := cpu.CP0.Translate(cpu.PC, false)
	if fault != nil {
		cpu.trap(fault.Exc, fault.UTLB)
		return 0, false
	}
	word, ok := cpu.bus.GetWord(paddr)
	if !ok {
		cpu.trap(cp0.ExcIBE, false)
		return 0, false
	}
	return word, true
}

// Split an instruction word into fields.
func decode(word uint32) stepInfo {
	return stepInfo{
		word:   word,
		opcode: word >> 26,
		rs:     (word >> 21) & 0x1f,
		rt:     (word >> 16) & 0x1f,
		rd:     (word >> 11) & 0x1f,
		sa:     (word >> 6) & 0x1f,
		funct:  word & 0x3f,
		imm:    word & 0xffff,
		simm:   uint32(int32(int16(word & 0xffff))),
		target: word & 0x03ffffff,
	}
}

// Dispatch one decoded instruction.
func (cpu *CPU) execute(step *stepInfo) {
	switch step.opcode {
	case op.OpSpecial:
		cpu.executeSpecial(step)
	case op.OpRegimm:
		cpu.executeRegimm(step)
	case op.OpJ:
		cpu.jump(step.target)
	case op.OpJAL:
		cpu.SetReg(RegRa, cpu.PC+8)
		cpu.jump(step.target)
	case op.OpBEQ:
		cpu.branch(step, cpu.Reg(step.rs) == cpu.Reg(step.rt))
	case op.OpBNE:
		cpu.branch(step, cpu.Reg(step.rs) != cpu.Reg(step.rt))
	case op.OpBLEZ:
		cpu.branch(step, int32(cpu.Reg(step.rs)) <= 0)
	case op.OpBGTZ:
		cpu.branch(step, int32(cpu.Reg(step.rs)) > 0)
	case op.OpADDI:
		cpu.opADDI(step)
	case op.OpADDIU:
		cpu.SetReg(step.rt, cpu.Reg(step.rs)+step.simm)
	case op.OpSLTI:
		cpu.opSLTI(step)
	case op.OpSLTIU:
		cpu.opSLTIU(step)
	case op.OpANDI:
		cpu.SetReg(step.rt, cpu.Reg(step.rs)&step.imm)
	case op.OpORI:
		cpu.SetReg(step.rt, cpu.Reg(step.rs)|step.imm)
	case op.OpXORI:
		cpu.SetReg(step.rt, cpu.Reg(step.rs)^step.imm)
	case op.OpLUI:
		cpu.SetReg(step.rt, step.imm<<16)
	case op.OpCop0:
		cpu.executeCop0(step)
	case op.OpCop1, op.OpCop2, op.OpCop3:
		cpu.trap(cp0.ExcCpU, false)
		cpu.CP0.SetCoprocessorError(step.opcode - op.OpCop0)
	case op.OpLB, op.OpLH, op.OpLWL, op.OpLW, op.OpLBU, op.OpLHU, op.OpLWR:
		cpu.executeLoad(step)
	case op.OpSB, op.OpSH, op.OpSWL, op.OpSW, op.OpSWR:
		cpu.executeStore(step)
	default:
		cpu.trap(cp0.ExcRI, false)
	}
}

// Take a branch. The target is relative to the delay slot.
func (cpu *CPU) branch(step *stepInfo, taken bool) {
	cpu.isBranch = true
	if taken {
		cpu.branchHit = true
		cpu.branchPC = cpu.PC + 4 + (step.simm << 2)
	}
}

// Take a jump within the current 256MB region.
func (cpu *CPU) jump(target uint32) {
	cpu.isBranch = true
	cpu.branchHit = true
	cpu.branchPC = ((cpu.PC + 4) & 0xf0000000) | (target << 2)
}

// Jump to a register value.
func (cpu *CPU) jumpReg(target uint32) {
	cpu.isBranch = true
	cpu.branchHit = true
	cpu.branchPC = target
}

// Dump processor registers, used when tracing or at halt.
func (cpu *CPU) DumpRegs() {
	for i := 0; i < 32; i += 4 {
		slog.Info(fmt.Sprintf("%-4s %08x  %-4s %08x  %-4s %08x  %-4s %08x",
			disassembler.RegName(uint32(i)), cpu.regs[i],
			disassembler.RegName(uint32(i+1)), cpu.regs[i+1],
			disassembler.RegName(uint32(i+2)), cpu.regs[i+2],
			disassembler.RegName(uint32(i+3)), cpu.regs[i+3]))
	}
	slog.Info(fmt.Sprintf("pc   %08x  hi   %08x  lo   %08x", cpu.PC, cpu.HI, cpu.LO))
	slog.Info(fmt.Sprintf("sr   %08x  cause %08x epc  %08x", cpu.CP0.Status, cpu.CP0.Cause, cpu.CP0.EPC))
}
