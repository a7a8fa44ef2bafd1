/*
 * R3000 - CPU test cases.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package cpu

import (
	"testing"

	cp0 "github.com/rcornwell/R3000/emu/cp0"
	memory "github.com/rcornwell/R3000/emu/memory"
	op "github.com/rcornwell/R3000/emu/opcodemap"
)

var cpuState *CPU

// Tests run from RAM through kseg0 so translation is direct.
const testBase uint32 = 0x80000000

func setup() {
	bus := memory.NewBus(false)
	ram := memory.NewRAM(64)
	if err := bus.Map(ram, 0, ram.Size()); err != nil {
		panic(err)
	}
	cpuState = New(bus)
	cpuState.SetPC(testBase)
}

// Place instruction words in RAM at a kseg0 address.
func putInst(addr uint32, words ...uint32) {
	for i, word := range words {
		cpuState.bus.PutWord(addr-cp0.KSeg0+uint32(i)*4, word)
	}
}

func putWord(vaddr uint32, word uint32) {
	cpuState.bus.PutWord(vaddr-cp0.KSeg0, word)
}

func getWord(vaddr uint32) uint32 {
	word, _ := cpuState.bus.GetWord(vaddr - cp0.KSeg0)
	return word
}

func step(count int) {
	for i := 0; i < count; i++ {
		cpuState.Step()
	}
}

func opR(funct uint32, rs uint32, rt uint32, rd uint32, sa uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | sa<<6 | funct
}

func opI(opcode uint32, rs uint32, rt uint32, imm uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | (imm & 0xffff)
}

func opJm(opcode uint32, target uint32) uint32 {
	return opcode<<26 | ((target >> 2) & 0x03ffffff)
}

func mtc0(rt uint32, rd uint32) uint32 {
	return op.OpCop0<<26 | op.CopMT<<21 | rt<<16 | rd<<11
}

func mfc0(rt uint32, rd uint32) uint32 {
	return op.OpCop0<<26 | op.CopMF<<21 | rt<<16 | rd<<11
}

func excCode(cpu *CPU) uint32 {
	return (cpu.CP0.Cause & cp0.CauseCode) >> 2
}

func TestLuiOri(t *testing.T) {
	setup()
	putInst(testBase,
		opI(op.OpLUI, 0, 1, 0x1234),
		opI(op.OpORI, 1, 1, 0x5678))
	step(2)
	if cpuState.Reg(1) != 0x12345678 {
		t.Errorf("LUI/ORI register 1 was incorrect got: %08x wanted: %08x", cpuState.Reg(1), 0x12345678)
	}
}

func TestRegisterZero(t *testing.T) {
	setup()
	putInst(testBase, opI(op.OpADDIU, 0, 0, 0x1234))
	step(1)
	if cpuState.Reg(0) != 0 {
		t.Errorf("register zero changed got: %08x wanted: %08x", cpuState.Reg(0), 0)
	}
}

func TestAddOverflow(t *testing.T) {
	setup()
	cpuState.SetReg(1, 0x7fffffff)
	cpuState.SetReg(2, 1)
	cpuState.SetReg(3, 0x11111111)
	putInst(testBase, opR(op.FnADD, 1, 2, 3, 0))
	step(1)
	if cpuState.Reg(3) != 0x11111111 {
		t.Errorf("ADD overflow changed destination got: %08x wanted: %08x", cpuState.Reg(3), 0x11111111)
	}
	if excCode(cpuState) != uint32(cp0.ExcOvf) {
		t.Errorf("ADD overflow cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcOvf))
	}
	if cpuState.CP0.EPC != testBase {
		t.Errorf("ADD overflow EPC was incorrect got: %08x wanted: %08x", cpuState.CP0.EPC, testBase)
	}
	if cpuState.PC != 0xbfc00180 {
		t.Errorf("ADD overflow vector was incorrect got: %08x wanted: %08x", cpuState.PC, 0xbfc00180)
	}
}

func TestAdduWraps(t *testing.T) {
	setup()
	cpuState.SetReg(1, 0x7fffffff)
	cpuState.SetReg(2, 1)
	putInst(testBase, opR(op.FnADDU, 1, 2, 3, 0))
	step(1)
	if cpuState.Reg(3) != 0x80000000 {
		t.Errorf("ADDU register 3 was incorrect got: %08x wanted: %08x", cpuState.Reg(3), 0x80000000)
	}
	if excCode(cpuState) != 0 {
		t.Errorf("ADDU should not trap got: %x", excCode(cpuState))
	}
}

func TestSubOverflow(t *testing.T) {
	setup()
	cpuState.SetReg(1, 0x80000000)
	cpuState.SetReg(2, 1)
	putInst(testBase, opR(op.FnSUB, 1, 2, 3, 0))
	step(1)
	if excCode(cpuState) != uint32(cp0.ExcOvf) {
		t.Errorf("SUB overflow cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcOvf))
	}
}

func TestSetLess(t *testing.T) {
	setup()
	cpuState.SetReg(1, 0xffffffff) // -1 signed
	cpuState.SetReg(2, 1)
	putInst(testBase,
		opR(op.FnSLT, 1, 2, 3, 0),
		opR(op.FnSLTU, 1, 2, 4, 0),
		opI(op.OpSLTI, 1, 5, 0),
		opI(op.OpSLTIU, 2, 6, 0xffff))
	step(4)
	if cpuState.Reg(3) != 1 {
		t.Errorf("SLT register 3 was incorrect got: %08x wanted: %08x", cpuState.Reg(3), 1)
	}
	if cpuState.Reg(4) != 0 {
		t.Errorf("SLTU register 4 was incorrect got: %08x wanted: %08x", cpuState.Reg(4), 0)
	}
	if cpuState.Reg(5) != 1 {
		t.Errorf("SLTI register 5 was incorrect got: %08x wanted: %08x", cpuState.Reg(5), 1)
	}
	// The immediate sign extends to 0xffffffff then compares unsigned.
	if cpuState.Reg(6) != 1 {
		t.Errorf("SLTIU register 6 was incorrect got: %08x wanted: %08x", cpuState.Reg(6), 1)
	}
}

func TestShifts(t *testing.T) {
	setup()
	cpuState.SetReg(1, 0x80000001)
	cpuState.SetReg(2, 4)
	putInst(testBase,
		opR(op.FnSLL, 0, 1, 3, 1),
		opR(op.FnSRL, 0, 1, 4, 1),
		opR(op.FnSRA, 0, 1, 5, 1),
		opR(op.FnSRAV, 2, 1, 6, 0))
	step(4)
	if cpuState.Reg(3) != 0x00000002 {
		t.Errorf("SLL register 3 was incorrect got: %08x wanted: %08x", cpuState.Reg(3), 0x00000002)
	}
	if cpuState.Reg(4) != 0x40000000 {
		t.Errorf("SRL register 4 was incorrect got: %08x wanted: %08x", cpuState.Reg(4), 0x40000000)
	}
	if cpuState.Reg(5) != 0xc0000000 {
		t.Errorf("SRA register 5 was incorrect got: %08x wanted: %08x", cpuState.Reg(5), 0xc0000000)
	}
	if cpuState.Reg(6) != 0xf8000000 {
		t.Errorf("SRAV register 6 was incorrect got: %08x wanted: %08x", cpuState.Reg(6), 0xf8000000)
	}
}

func TestMultiply(t *testing.T) {
	setup()
	cpuState.SetReg(1, 0xffffffff) // -1 signed
	cpuState.SetReg(2, 2)
	putInst(testBase,
		opR(op.FnMULT, 1, 2, 0, 0),
		opR(op.FnMFHI, 0, 0, 3, 0),
		opR(op.FnMFLO, 0, 0, 4, 0),
		opR(op.FnMULTU, 1, 2, 0, 0),
		opR(op.FnMFHI, 0, 0, 5, 0),
		opR(op.FnMFLO, 0, 0, 6, 0))
	step(6)
	if cpuState.Reg(3) != 0xffffffff || cpuState.Reg(4) != 0xfffffffe {
		t.Errorf("MULT result was incorrect got: %08x %08x wanted: %08x %08x",
			cpuState.Reg(3), cpuState.Reg(4), 0xffffffff, 0xfffffffe)
	}
	if cpuState.Reg(5) != 0x00000001 || cpuState.Reg(6) != 0xfffffffe {
		t.Errorf("MULTU result was incorrect got: %08x %08x wanted: %08x %08x",
			cpuState.Reg(5), cpuState.Reg(6), 0x00000001, 0xfffffffe)
	}
}

func TestDivide(t *testing.T) {
	setup()
	cpuState.SetReg(1, 7)
	cpuState.SetReg(2, 2)
	putInst(testBase,
		opR(op.FnDIV, 1, 2, 0, 0),
		opR(op.FnMFHI, 0, 0, 3, 0),
		opR(op.FnMFLO, 0, 0, 4, 0))
	step(3)
	if cpuState.Reg(3) != 1 {
		t.Errorf("DIV remainder was incorrect got: %08x wanted: %08x", cpuState.Reg(3), 1)
	}
	if cpuState.Reg(4) != 3 {
		t.Errorf("DIV quotient was incorrect got: %08x wanted: %08x", cpuState.Reg(4), 3)
	}
}

func TestDivideByZero(t *testing.T) {
	setup()
	cpuState.SetReg(1, 42)
	putInst(testBase, opR(op.FnDIV, 1, 0, 0, 0))
	step(1)
	if excCode(cpuState) != 0 {
		t.Errorf("DIV by zero should not trap got: %x", excCode(cpuState))
	}
	if cpuState.HI != 42 {
		t.Errorf("DIV by zero HI was incorrect got: %08x wanted: %08x", cpuState.HI, 42)
	}
	if cpuState.LO != 0xffffffff {
		t.Errorf("DIV by zero LO was incorrect got: %08x wanted: %08x", cpuState.LO, 0xffffffff)
	}
}

func TestDivideOverflow(t *testing.T) {
	setup()
	cpuState.SetReg(1, 0x80000000)
	cpuState.SetReg(2, 0xffffffff)
	putInst(testBase, opR(op.FnDIV, 1, 2, 0, 0))
	step(1)
	if cpuState.HI != 0 {
		t.Errorf("DIV overflow HI was incorrect got: %08x wanted: %08x", cpuState.HI, 0)
	}
	if cpuState.LO != 0x80000000 {
		t.Errorf("DIV overflow LO was incorrect got: %08x wanted: %08x", cpuState.LO, 0x80000000)
	}
}

func TestBranchDelaySlot(t *testing.T) {
	setup()
	putInst(testBase,
		opI(op.OpBEQ, 0, 0, 2),        // branch to testBase+12
		opI(op.OpADDIU, 0, 1, 1),      // delay slot, executes
		opI(op.OpADDIU, 0, 2, 2),      // skipped
		opI(op.OpADDIU, 0, 3, 3))     // branch target
	step(3)
	if cpuState.Reg(1) != 1 {
		t.Errorf("delay slot did not execute got: %08x wanted: %08x", cpuState.Reg(1), 1)
	}
	if cpuState.Reg(2) != 0 {
		t.Errorf("skipped instruction executed got: %08x wanted: %08x", cpuState.Reg(2), 0)
	}
	if cpuState.Reg(3) != 3 {
		t.Errorf("branch target did not execute got: %08x wanted: %08x", cpuState.Reg(3), 3)
	}
}

func TestBranchNotTaken(t *testing.T) {
	setup()
	putInst(testBase,
		opI(op.OpBNE, 0, 0, 2),
		opI(op.OpADDIU, 0, 1, 1),
		opI(op.OpADDIU, 0, 2, 2))
	step(3)
	if cpuState.Reg(1) != 1 || cpuState.Reg(2) != 2 {
		t.Errorf("untaken branch was incorrect got: %08x %08x wanted: %08x %08x",
			cpuState.Reg(1), cpuState.Reg(2), 1, 2)
	}
}

func TestJumpAndLink(t *testing.T) {
	setup()
	putInst(testBase,
		opJm(op.OpJAL, testBase+0x20),
		opI(op.OpADDIU, 0, 1, 1))
	putInst(testBase+0x20, opI(op.OpADDIU, 0, 2, 2))
	step(3)
	if cpuState.Reg(RegRa) != testBase+8 {
		t.Errorf("JAL return address was incorrect got: %08x wanted: %08x", cpuState.Reg(RegRa), testBase+8)
	}
	if cpuState.Reg(1) != 1 || cpuState.Reg(2) != 2 {
		t.Errorf("JAL flow was incorrect got: %08x %08x wanted: %08x %08x",
			cpuState.Reg(1), cpuState.Reg(2), 1, 2)
	}
}

func TestJumpRegister(t *testing.T) {
	setup()
	cpuState.SetReg(5, testBase+0x40)
	putInst(testBase,
		opR(op.FnJR, 5, 0, 0, 0),
		opI(op.OpADDIU, 0, 1, 1))
	putInst(testBase+0x40, opI(op.OpADDIU, 0, 2, 2))
	step(3)
	if cpuState.Reg(1) != 1 || cpuState.Reg(2) != 2 {
		t.Errorf("JR flow was incorrect got: %08x %08x wanted: %08x %08x",
			cpuState.Reg(1), cpuState.Reg(2), 1, 2)
	}
	if cpuState.PC != testBase+0x44 {
		t.Errorf("JR PC was incorrect got: %08x wanted: %08x", cpuState.PC, testBase+0x44)
	}
}

func TestLinkBeforeCondition(t *testing.T) {
	setup()
	cpuState.SetReg(1, 5)
	putInst(testBase, op.OpRegimm<<26|1<<21|op.RiBLTZAL<<16|2)
	step(1)
	// The link register writes even when the branch is not taken.
	if cpuState.Reg(RegRa) != testBase+8 {
		t.Errorf("BLTZAL link was incorrect got: %08x wanted: %08x", cpuState.Reg(RegRa), testBase+8)
	}
}

func TestLoadDelaySlot(t *testing.T) {
	setup()
	cpuState.SetReg(8, testBase)
	putWord(testBase+0x100, 0xcafef00d)
	putInst(testBase,
		opI(op.OpLW, 8, 1, 0x100),
		opR(op.FnOR, 1, 0, 2, 0), // sees the old value
		opR(op.FnOR, 1, 0, 3, 0)) // sees the loaded value
	step(3)
	if cpuState.Reg(2) != 0 {
		t.Errorf("load delay slot saw new value got: %08x wanted: %08x", cpuState.Reg(2), 0)
	}
	if cpuState.Reg(3) != 0xcafef00d {
		t.Errorf("load value missing got: %08x wanted: %08x", cpuState.Reg(3), 0xcafef00d)
	}
	if cpuState.Reg(1) != 0xcafef00d {
		t.Errorf("load register was incorrect got: %08x wanted: %08x", cpuState.Reg(1), 0xcafef00d)
	}
}

func TestLoadCancelled(t *testing.T) {
	setup()
	cpuState.SetReg(8, testBase)
	putWord(testBase+0x100, 0xcafef00d)
	putInst(testBase,
		opI(op.OpLW, 8, 1, 0x100),
		opI(op.OpADDIU, 0, 1, 7), // overwrites the register in the delay slot
		0)
	step(3)
	if cpuState.Reg(1) != 7 {
		t.Errorf("cancelled load was incorrect got: %08x wanted: %08x", cpuState.Reg(1), 7)
	}
}

func TestUnalignedLoad(t *testing.T) {
	setup()
	cpuState.SetReg(8, testBase)
	putWord(testBase+0x100, 0xddccbbaa)
	putWord(testBase+0x104, 0x44332211)
	putInst(testBase,
		opI(op.OpLWR, 8, 1, 0x101),
		opI(op.OpLWL, 8, 1, 0x104),
		0)
	step(3)
	if cpuState.Reg(1) != 0x11ddccbb {
		t.Errorf("LWR/LWL register 1 was incorrect got: %08x wanted: %08x", cpuState.Reg(1), 0x11ddccbb)
	}
}

func TestUnalignedStore(t *testing.T) {
	setup()
	cpuState.SetReg(8, testBase)
	cpuState.SetReg(1, 0x55667788)
	putWord(testBase+0x100, 0xddccbbaa)
	putWord(testBase+0x104, 0x44332211)
	putInst(testBase,
		opI(op.OpSWR, 8, 1, 0x101),
		opI(op.OpSWL, 8, 1, 0x104))
	step(2)
	if word := getWord(testBase + 0x100); word != 0x667788aa {
		t.Errorf("SWR word was incorrect got: %08x wanted: %08x", word, 0x667788aa)
	}
	if word := getWord(testBase + 0x104); word != 0x44332255 {
		t.Errorf("SWL word was incorrect got: %08x wanted: %08x", word, 0x44332255)
	}
}

func TestByteHalfLoads(t *testing.T) {
	setup()
	cpuState.SetReg(8, testBase)
	putWord(testBase+0x100, 0x8081ff7f)
	putInst(testBase,
		opI(op.OpLB, 8, 1, 0x100),
		opI(op.OpLB, 8, 2, 0x103),
		opI(op.OpLBU, 8, 3, 0x103),
		opI(op.OpLH, 8, 4, 0x102),
		opI(op.OpLHU, 8, 5, 0x102),
		0, 0)
	step(7)
	if cpuState.Reg(1) != 0x0000007f {
		t.Errorf("LB register 1 was incorrect got: %08x wanted: %08x", cpuState.Reg(1), 0x0000007f)
	}
	if cpuState.Reg(2) != 0xffffff80 {
		t.Errorf("LB register 2 was incorrect got: %08x wanted: %08x", cpuState.Reg(2), 0xffffff80)
	}
	if cpuState.Reg(3) != 0x00000080 {
		t.Errorf("LBU register 3 was incorrect got: %08x wanted: %08x", cpuState.Reg(3), 0x00000080)
	}
	if cpuState.Reg(4) != 0xffff8081 {
		t.Errorf("LH register 4 was incorrect got: %08x wanted: %08x", cpuState.Reg(4), 0xffff8081)
	}
	if cpuState.Reg(5) != 0x00008081 {
		t.Errorf("LHU register 5 was incorrect got: %08x wanted: %08x", cpuState.Reg(5), 0x00008081)
	}
}

func TestStoreBytes(t *testing.T) {
	setup()
	cpuState.SetReg(8, testBase)
	cpuState.SetReg(1, 0x11223344)
	putInst(testBase,
		opI(op.OpSB, 8, 1, 0x100),
		opI(op.OpSH, 8, 1, 0x102))
	step(2)
	if word := getWord(testBase + 0x100); word != 0x33440044 {
		t.Errorf("SB/SH word was incorrect got: %08x wanted: %08x", word, 0x33440044)
	}
}

func TestUnalignedLoadFault(t *testing.T) {
	setup()
	cpuState.SetReg(8, testBase)
	putInst(testBase, opI(op.OpLW, 8, 1, 0x101))
	step(1)
	if excCode(cpuState) != uint32(cp0.ExcAdEL) {
		t.Errorf("unaligned load cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcAdEL))
	}
	if cpuState.CP0.BadVaddr != testBase+0x101 {
		t.Errorf("BadVaddr was incorrect got: %08x wanted: %08x", cpuState.CP0.BadVaddr, testBase+0x101)
	}
	if cpuState.CP0.EPC != testBase {
		t.Errorf("EPC was incorrect got: %08x wanted: %08x", cpuState.CP0.EPC, testBase)
	}
}

func TestUnalignedStoreFault(t *testing.T) {
	setup()
	cpuState.SetReg(8, testBase)
	putInst(testBase, opI(op.OpSH, 8, 1, 0x101))
	step(1)
	if excCode(cpuState) != uint32(cp0.ExcAdES) {
		t.Errorf("unaligned store cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcAdES))
	}
}

func TestDelaySlotException(t *testing.T) {
	setup()
	cpuState.SetReg(8, testBase)
	putInst(testBase,
		opI(op.OpBEQ, 0, 0, 2),
		opI(op.OpLW, 8, 1, 0x101)) // faults in the delay slot
	step(2)
	if excCode(cpuState) != uint32(cp0.ExcAdEL) {
		t.Errorf("delay slot fault cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcAdEL))
	}
	if cpuState.CP0.EPC != testBase {
		t.Errorf("EPC should point at the branch got: %08x wanted: %08x", cpuState.CP0.EPC, testBase)
	}
	if cpuState.CP0.Cause&cp0.CauseBD == 0 {
		t.Error("BD should be set for a delay slot fault")
	}
}

func TestSyscallAndRfe(t *testing.T) {
	setup()
	cpuState.CP0.Status = cp0.StatusIEc // kernel mode, interrupts on, BEV clear
	cpuState.SetPC(testBase + 0x1000)
	putInst(testBase+0x1000, opR(op.FnSYSCALL, 0, 0, 0, 0))
	putInst(testBase+0x80,
		opI(op.OpADDIU, 0, 9, 1),
		op.OpCop0<<26|op.CopOp<<21|op.C0RFE)
	step(1)
	if excCode(cpuState) != uint32(cp0.ExcSys) {
		t.Errorf("SYSCALL cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcSys))
	}
	if cpuState.CP0.EPC != testBase+0x1000 {
		t.Errorf("SYSCALL EPC was incorrect got: %08x wanted: %08x", cpuState.CP0.EPC, testBase+0x1000)
	}
	if cpuState.PC != testBase+0x80 {
		t.Errorf("SYSCALL vector was incorrect got: %08x wanted: %08x", cpuState.PC, testBase+0x80)
	}
	if cpuState.CP0.InterruptsEnabled() {
		t.Error("exception should disable interrupts")
	}

	step(2)
	if cpuState.Reg(9) != 1 {
		t.Errorf("handler did not run got: %08x wanted: %08x", cpuState.Reg(9), 1)
	}
	if !cpuState.CP0.InterruptsEnabled() {
		t.Error("rfe should restore the interrupt enable")
	}
}

func TestBreakpoint(t *testing.T) {
	setup()
	putInst(testBase, opR(op.FnBREAK, 0, 0, 0, 0))
	step(1)
	if excCode(cpuState) != uint32(cp0.ExcBp) {
		t.Errorf("BREAK cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcBp))
	}
}

func TestReservedInstruction(t *testing.T) {
	setup()
	putInst(testBase, 0xfc000000)
	step(1)
	if excCode(cpuState) != uint32(cp0.ExcRI) {
		t.Errorf("reserved cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcRI))
	}
}

func TestCoprocessorUnusable(t *testing.T) {
	setup()
	putInst(testBase, op.OpCop1<<26)
	step(1)
	if excCode(cpuState) != uint32(cp0.ExcCpU) {
		t.Errorf("CpU cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcCpU))
	}
	if cpuState.CP0.Cause&cp0.CauseCE != 1<<28 {
		t.Errorf("CE field was incorrect got: %08x wanted: %08x", cpuState.CP0.Cause&cp0.CauseCE, 1<<28)
	}
}

func TestMoveToFrom(t *testing.T) {
	setup()
	cpuState.SetReg(1, 0x00345678)
	putInst(testBase,
		mtc0(1, cp0.RegEPC),
		mfc0(2, cp0.RegEPC))
	step(2)
	if cpuState.CP0.EPC != 0x00345678 {
		t.Errorf("MTC0 EPC was incorrect got: %08x wanted: %08x", cpuState.CP0.EPC, 0x00345678)
	}
	if cpuState.Reg(2) != 0x00345678 {
		t.Errorf("MFC0 register 2 was incorrect got: %08x wanted: %08x", cpuState.Reg(2), 0x00345678)
	}
}

// Build a TLB mapping with mtc0 and tlbwi, then load through it.
func TestTLBMappedLoad(t *testing.T) {
	setup()
	putWord(testBase+0x2000, 0x13572468)
	cpuState.SetReg(1, 0x00004000)                    // EntryHi, vpn
	cpuState.SetReg(2, 0x00002000|cp0.EntryLoV|cp0.EntryLoD) // EntryLo, pfn and flags
	cpuState.SetReg(3, 0)                             // Index
	cpuState.SetReg(8, 0x00004000)
	putInst(testBase,
		mtc0(1, cp0.RegEntryHi),
		mtc0(2, cp0.RegEntryLo),
		mtc0(3, cp0.RegIndex),
		op.OpCop0<<26|op.CopOp<<21|op.C0TLBWI,
		opI(op.OpLW, 8, 4, 0),
		0)
	step(6)
	if excCode(cpuState) != 0 {
		t.Errorf("mapped load should not fault got: %x", excCode(cpuState))
	}
	if cpuState.Reg(4) != 0x13572468 {
		t.Errorf("mapped load register 4 was incorrect got: %08x wanted: %08x", cpuState.Reg(4), 0x13572468)
	}
}

func TestTLBRefillVector(t *testing.T) {
	setup()
	cpuState.SetReg(8, 0x00005000)
	putInst(testBase, opI(op.OpLW, 8, 1, 0))
	step(1)
	if excCode(cpuState) != uint32(cp0.ExcTLBL) {
		t.Errorf("refill cause was incorrect got: %x wanted: %x", excCode(cpuState), uint32(cp0.ExcTLBL))
	}
	if cpuState.PC != 0xbfc00100 {
		t.Errorf("refill vector was incorrect got: %08x wanted: %08x", cpuState.PC, 0xbfc00100)
	}
}

func TestInstructionCount(t *testing.T) {
	setup()
	putInst(testBase, 0, 0, 0, 0)
	step(4)
	if cpuState.Count != 4 {
		t.Errorf("instruction count was incorrect got: %d wanted: %d", cpuState.Count, 4)
	}
}

func TestResetRestoresVector(t *testing.T) {
	setup()
	putInst(testBase, 0, 0)
	step(2)
	cpuState.Reset()
	if cpuState.PC != 0xbfc00000 {
		t.Errorf("reset PC was incorrect got: %08x wanted: %08x", cpuState.PC, 0xbfc00000)
	}
	if cpuState.Count != 0 {
		t.Errorf("reset count was incorrect got: %d wanted: %d", cpuState.Count, 0)
	}
}
