/* CPU definitions for MIPS R3000 simulator

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
	memory "github.com/rcornwell/R3000/emu/memory"
)

// Register numbers by conventional name.
const (
	RegZero = 0  // Always reads zero
	RegAt   = 1  // Assembler temporary
	RegV0   = 2
	RegV1   = 3
	RegA0   = 4
	RegA1   = 5
	RegA2   = 6
	RegA3   = 7
	RegT0   = 8
	RegT1   = 9
	RegT2   = 10
	RegT3   = 11
	RegT4   = 12
	RegT5   = 13
	RegT6   = 14
	RegT7   = 15
	RegS0   = 16
	RegS1   = 17
	RegS2   = 18
	RegS3   = 19
	RegS4   = 20
	RegS5   = 21
	RegS6   = 22
	RegS7   = 23
	RegT8   = 24
	RegT9   = 25
	RegK0   = 26
	RegK1   = 27
	RegGp   = 28 // Global pointer
	RegSp   = 29 // Stack pointer
	RegFp   = 30 // Frame pointer
	RegRa   = 31 // Return address
)

const resetVector uint32 = 0xbfc00000

// stepInfo carries the fields of the current instruction.
type stepInfo struct {
	word   uint32 // Raw instruction word
	opcode uint32 // Bits 31 to 26
	rs     uint32 // Bits 25 to 21
	rt     uint32 // Bits 20 to 16
	rd     uint32 // Bits 15 to 11
	sa     uint32 // Bits 10 to 6
	funct  uint32 // Bits 5 to 0
	imm    uint32 // Bits 15 to 0, zero extended
	simm   uint32 // Bits 15 to 0, sign extended
	target uint32 // Bits 25 to 0
}

// A load in flight. The value lands in the register after the
// instruction in the load delay slot has executed.
type loadSlot struct {
	reg   uint32
	value uint32
	valid bool
}

type CPU struct {
	PC   uint32     // Address of current instruction
	nPC  uint32     // Address of next instruction
	regs [32]uint32 // General registers, r0 wired to zero
	HI   uint32     // Multiply and divide result high
	LO   uint32     // Multiply and divide result low
	CP0  *cp0.CP0   // System control coprocessor

	bus    *memory.Bus
	bigEnd bool

	inDelay   bool   // Current instruction is in a branch delay slot
	isBranch  bool   // Current instruction is a branch or jump
	branchHit bool   // Branch was taken
	branchPC  uint32 // Target of taken branch
	trapped   bool   // Exception raised during current instruction
	trapLast  bool   // Exception raised during previous instruction

	loadNew loadSlot // Load issued by current instruction
	loadOld loadSlot // Load issued by previous instruction

	Trace       bool   // Log each retired instruction
	Count       uint64 // Retired instruction count
	DoubleFault bool   // Handler entry faulted before retiring an instruction
	BusFault    bool   // Bus error taken outside any exception handler
}
