/*
 * R3000 - Opcode numbers
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

package opcodemap

// Primary opcode field, bits 31 to 26.
const (
	OpSpecial = 0x00 // Function in low six bits
	OpRegimm  = 0x01 // Conditional branch group, selector in rt
	OpJ       = 0x02
	OpJAL     = 0x03
	OpBEQ     = 0x04
	OpBNE     = 0x05
	OpBLEZ    = 0x06
	OpBGTZ    = 0x07
	OpADDI    = 0x08
	OpADDIU   = 0x09
	OpSLTI    = 0x0a
	OpSLTIU   = 0x0b
	OpANDI    = 0x0c
	OpORI     = 0x0d
	OpXORI    = 0x0e
	OpLUI     = 0x0f
	OpCop0    = 0x10
	OpCop1    = 0x11
	OpCop2    = 0x12
	OpCop3    = 0x13
	OpLB      = 0x20
	OpLH      = 0x21
	OpLWL     = 0x22
	OpLW      = 0x23
	OpLBU     = 0x24
	OpLHU     = 0x25
	OpLWR     = 0x26
	OpSB      = 0x28
	OpSH      = 0x29
	OpSWL     = 0x2a
	OpSW      = 0x2b
	OpSWR     = 0x2e
)

// Function field of special opcode, bits 5 to 0.
const (
	FnSLL     = 0x00
	FnSRL     = 0x02
	FnSRA     = 0x03
	FnSLLV    = 0x04
	FnSRLV    = 0x06
	FnSRAV    = 0x07
	FnJR      = 0x08
	FnJALR    = 0x09
	FnSYSCALL = 0x0c
	FnBREAK   = 0x0d
	FnMFHI    = 0x10
	FnMTHI    = 0x11
	FnMFLO    = 0x12
	FnMTLO    = 0x13
	FnMULT    = 0x18
	FnMULTU   = 0x19
	FnDIV     = 0x1a
	FnDIVU    = 0x1b
	FnADD     = 0x20
	FnADDU    = 0x21
	FnSUB     = 0x22
	FnSUBU    = 0x23
	FnAND     = 0x24
	FnOR      = 0x25
	FnXOR     = 0x26
	FnNOR     = 0x27
	FnSLT     = 0x2a
	FnSLTU    = 0x2b
)

// Selector in rt for the regimm group.
const (
	RiBLTZ   = 0x00
	RiBGEZ   = 0x01
	RiBLTZAL = 0x10
	RiBGEZAL = 0x11
)

// Coprocessor rs field selectors.
const (
	CopMF = 0x00 // Move from coprocessor
	CopMT = 0x04 // Move to coprocessor
	CopOp = 0x10 // Coprocessor operation, function in low six bits
)

// Coprocessor zero operations.
const (
	C0TLBR  = 0x01
	C0TLBWI = 0x02
	C0TLBWR = 0x06
	C0TLBP  = 0x08
	C0RFE   = 0x10
)
