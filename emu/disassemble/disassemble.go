/*
	   MIPS R3000 Disassembler

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
		RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
		IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
		CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

package disassembler

import (
	"fmt"

	op "github.com/rcornwell/R3000/emu/opcodemap"
)

const (
	tyRdRsRt = 1 + iota // add rd,rs,rt
	tyRdRtSa            // sll rd,rt,sa
	tyRdRtRs            // sllv rd,rt,rs
	tyRs                // jr rs
	tyRdRs              // jalr rd,rs
	tyRd                // mfhi rd
	tyRsRt              // mult rs,rt
	tyRtRsImm           // addi rt,rs,imm
	tyRtImm             // lui rt,imm
	tyRtOff             // lw rt,off(rs)
	tyBranch            // beq rs,rt,target
	tyBrOne             // bltz rs,target
	tyJump              // j target
	tyNone              // syscall
)

type opcode struct {
	opName string // Opcode string.
	opType int    // Operand layout.
}

var regNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

var specialMap = map[uint32]opcode{
	op.FnSLL:     {"sll", tyRdRtSa},
	op.FnSRL:     {"srl", tyRdRtSa},
	op.FnSRA:     {"sra", tyRdRtSa},
	op.FnSLLV:    {"sllv", tyRdRtRs},
	op.FnSRLV:    {"srlv", tyRdRtRs},
	op.FnSRAV:    {"srav", tyRdRtRs},
	op.FnJR:      {"jr", tyRs},
	op.FnJALR:    {"jalr", tyRdRs},
	op.FnSYSCALL: {"syscall", tyNone},
	op.FnBREAK:   {"break", tyNone},
	op.FnMFHI:    {"mfhi", tyRd},
	op.FnMTHI:    {"mthi", tyRs},
	op.FnMFLO:    {"mflo", tyRd},
	op.FnMTLO:    {"mtlo", tyRs},
	op.FnMULT:    {"mult", tyRsRt},
	op.FnMULTU:   {"multu", tyRsRt},
	op.FnDIV:     {"div", tyRsRt},
	op.FnDIVU:    {"divu", tyRsRt},
	op.FnADD:     {"add", tyRdRsRt},
	op.FnADDU:    {"addu", tyRdRsRt},
	op.FnSUB:     {"sub", tyRdRsRt},
	op.FnSUBU:    {"subu", tyRdRsRt},
	op.FnAND:     {"and", tyRdRsRt},
	op.FnOR:      {"or", tyRdRsRt},
	op.FnXOR:     {"xor", tyRdRsRt},
	op.FnNOR:     {"nor", tyRdRsRt},
	op.FnSLT:     {"slt", tyRdRsRt},
	op.FnSLTU:    {"sltu", tyRdRsRt},
}

var opMap = map[uint32]opcode{
	op.OpJ:     {"j", tyJump},
	op.OpJAL:   {"jal", tyJump},
	op.OpBEQ:   {"beq", tyBranch},
	op.OpBNE:   {"bne", tyBranch},
	op.OpBLEZ:  {"blez", tyBrOne},
	op.OpBGTZ:  {"bgtz", tyBrOne},
	op.OpADDI:  {"addi", tyRtRsImm},
	op.OpADDIU: {"addiu", tyRtRsImm},
	op.OpSLTI:  {"slti", tyRtRsImm},
	op.OpSLTIU: {"sltiu", tyRtRsImm},
	op.OpANDI:  {"andi", tyRtRsImm},
	op.OpORI:   {"ori", tyRtRsImm},
	op.OpXORI:  {"xori", tyRtRsImm},
	op.OpLUI:   {"lui", tyRtImm},
	op.OpLB:    {"lb", tyRtOff},
	op.OpLH:    {"lh", tyRtOff},
	op.OpLWL:   {"lwl", tyRtOff},
	op.OpLW:    {"lw", tyRtOff},
	op.OpLBU:   {"lbu", tyRtOff},
	op.OpLHU:   {"lhu", tyRtOff},
	op.OpLWR:   {"lwr", tyRtOff},
	op.OpSB:    {"sb", tyRtOff},
	op.OpSH:    {"sh", tyRtOff},
	op.OpSWL:   {"swl", tyRtOff},
	op.OpSW:    {"sw", tyRtOff},
	op.OpSWR:   {"swr", tyRtOff},
}

var regimmMap = map[uint32]string{
	op.RiBLTZ:   "bltz",
	op.RiBGEZ:   "bgez",
	op.RiBLTZAL: "bltzal",
	op.RiBGEZAL: "bgezal",
}

var cop0Map = map[uint32]string{
	op.C0TLBR:  "tlbr",
	op.C0TLBWI: "tlbwi",
	op.C0TLBWR: "tlbwr",
	op.C0TLBP:  "tlbp",
	op.C0RFE:   "rfe",
}

// Return register name.
func RegName(reg uint32) string {
	return regNames[reg&0x1f]
}

// Disassemble one instruction word at the given address. The address
// is needed to print branch and jump targets.
func Disassemble(addr uint32, word uint32) string {
	opc := word >> 26
	rs := (word >> 21) & 0x1f
	rt := (word >> 16) & 0x1f
	rd := (word >> 11) & 0x1f
	sa := (word >> 6) & 0x1f
	imm := word & 0xffff
	simm := int32(int16(imm))
	target := ((addr + 4) & 0xf0000000) | ((word & 0x03ffffff) << 2)
	branch := addr + 4 + uint32(simm<<2)

	switch opc {
	case op.OpSpecial:
		entry, ok := specialMap[word&0x3f]
		if !ok {
			break
		}
		if word == 0 {
			return "nop"
		}
		switch entry.opType {
		case tyRdRsRt:
			return fmt.Sprintf("%s %s,%s,%s", entry.opName, RegName(rd), RegName(rs), RegName(rt))
		case tyRdRtSa:
			return fmt.Sprintf("%s %s,%s,%d", entry.opName, RegName(rd), RegName(rt), sa)
		case tyRdRtRs:
			return fmt.Sprintf("%s %s,%s,%s", entry.opName, RegName(rd), RegName(rt), RegName(rs))
		case tyRs:
			return fmt.Sprintf("%s %s", entry.opName, RegName(rs))
		case tyRdRs:
			return fmt.Sprintf("%s %s,%s", entry.opName, RegName(rd), RegName(rs))
		case tyRd:
			return fmt.Sprintf("%s %s", entry.opName, RegName(rd))
		case tyRsRt:
			return fmt.Sprintf("%s %s,%s", entry.opName, RegName(rs), RegName(rt))
		case tyNone:
			return entry.opName
		}
	case op.OpRegimm:
		if name, ok := regimmMap[rt]; ok {
			return fmt.Sprintf("%s %s,%08x", name, RegName(rs), branch)
		}
	case op.OpCop0:
		switch rs {
		case op.CopMF:
			return fmt.Sprintf("mfc0 %s,$%d", RegName(rt), rd)
		case op.CopMT:
			return fmt.Sprintf("mtc0 %s,$%d", RegName(rt), rd)
		case op.CopOp:
			if name, ok := cop0Map[word&0x3f]; ok {
				return name
			}
		}
	default:
		entry, ok := opMap[opc]
		if !ok {
			break
		}
		switch entry.opType {
		case tyJump:
			return fmt.Sprintf("%s %08x", entry.opName, target)
		case tyBranch:
			return fmt.Sprintf("%s %s,%s,%08x", entry.opName, RegName(rs), RegName(rt), branch)
		case tyBrOne:
			return fmt.Sprintf("%s %s,%08x", entry.opName, RegName(rs), branch)
		case tyRtRsImm:
			return fmt.Sprintf("%s %s,%s,%d", entry.opName, RegName(rt), RegName(rs), simm)
		case tyRtImm:
			return fmt.Sprintf("%s %s,0x%04x", entry.opName, RegName(rt), imm)
		case tyRtOff:
			return fmt.Sprintf("%s %s,%d(%s)", entry.opName, RegName(rt), simm, RegName(rs))
		}
	}
	return fmt.Sprintf(".word 0x%08x", word)
}
