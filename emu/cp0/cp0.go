/*
 * R3000 - System control coprocessor
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

package cp0

// Exception codes held in the Cause register ExcCode field.
type Exception uint32

const (
	ExcInt  Exception = 0  // External interrupt
	ExcMod  Exception = 1  // TLB modification
	ExcTLBL Exception = 2  // TLB miss on load or fetch
	ExcTLBS Exception = 3  // TLB miss on store
	ExcAdEL Exception = 4  // Address error on load or fetch
	ExcAdES Exception = 5  // Address error on store
	ExcIBE  Exception = 6  // Bus error on instruction fetch
	ExcDBE  Exception = 7  // Bus error on data access
	ExcSys  Exception = 8  // Syscall instruction
	ExcBp   Exception = 9  // Break instruction
	ExcRI   Exception = 10 // Reserved instruction
	ExcCpU  Exception = 11 // Coprocessor unusable
	ExcOvf  Exception = 12 // Arithmetic overflow
)

var excNames = map[Exception]string{
	ExcInt:  "Int",
	ExcMod:  "Mod",
	ExcTLBL: "TLBL",
	ExcTLBS: "TLBS",
	ExcAdEL: "AdEL",
	ExcAdES: "AdES",
	ExcIBE:  "IBE",
	ExcDBE:  "DBE",
	ExcSys:  "Sys",
	ExcBp:   "Bp",
	ExcRI:   "RI",
	ExcCpU:  "CpU",
	ExcOvf:  "Ovf",
}

func (exc Exception) String() string {
	if name, ok := excNames[exc]; ok {
		return name
	}
	return "???"
}

// Register numbers.
const (
	RegIndex    = 0  // TLB entry index
	RegRandom   = 1  // TLB random index
	RegEntryLo  = 2  // Low half of TLB entry
	RegContext  = 4  // Page table lookup address
	RegBadVaddr = 8  // Failing virtual address
	RegEntryHi  = 10 // High half of TLB entry
	RegStatus   = 12 // Mode, interrupt enables, diagnostics
	RegCause    = 13 // Cause of last exception
	RegEPC      = 14 // Exception return address
	RegPRId     = 15 // Processor revision
)

// Status register bits.
const (
	StatusCU3 uint32 = 0x80000000 // Coprocessor 3 usable
	StatusCU2 uint32 = 0x40000000 // Coprocessor 2 usable
	StatusCU1 uint32 = 0x20000000 // Coprocessor 1 usable
	StatusCU0 uint32 = 0x10000000 // Coprocessor 0 usable
	StatusRE  uint32 = 0x02000000 // Reverse endian in user mode
	StatusBEV uint32 = 0x00400000 // Bootstrap exception vectors
	StatusTS  uint32 = 0x00200000 // TLB shutdown
	StatusPE  uint32 = 0x00100000 // Cache parity error
	StatusCM  uint32 = 0x00080000 // Cache miss
	StatusPZ  uint32 = 0x00040000 // Cache parity forced zero
	StatusSwC uint32 = 0x00020000 // Swap caches
	StatusIsC uint32 = 0x00010000 // Isolate cache
	StatusIM  uint32 = 0x0000ff00 // Interrupt mask
	StatusKUo uint32 = 0x00000020 // Old kernel/user
	StatusIEo uint32 = 0x00000010 // Old interrupt enable
	StatusKUp uint32 = 0x00000008 // Previous kernel/user
	StatusIEp uint32 = 0x00000004 // Previous interrupt enable
	StatusKUc uint32 = 0x00000002 // Current kernel/user, zero is kernel
	StatusIEc uint32 = 0x00000001 // Current interrupt enable
)

// Cause register bits.
const (
	CauseBD   uint32 = 0x80000000 // Exception was in a branch delay slot
	CauseCE   uint32 = 0x30000000 // Coprocessor number of CpU exception
	CauseIP   uint32 = 0x0000ff00 // Interrupts pending
	CauseCode uint32 = 0x0000007c // ExcCode field
)

// EntryHi and EntryLo fields.
const (
	EntryHiVPN  uint32 = 0xfffff000 // Virtual page number
	EntryHiASID uint32 = 0x00000fc0 // Address space identifier
	EntryLoPFN  uint32 = 0xfffff000 // Physical frame number
	EntryLoN    uint32 = 0x00000800 // Non-cacheable
	EntryLoD    uint32 = 0x00000400 // Dirty, page is writable
	EntryLoV    uint32 = 0x00000200 // Valid
	EntryLoG    uint32 = 0x00000100 // Global, ignore ASID
)

// Index register bits.
const (
	IndexP   uint32 = 0x80000000 // Probe failed
	IndexIdx uint32 = 0x00003f00 // TLB index
)

// Virtual address segments.
const (
	KUseg    uint32 = 0x00000000 // User mapped, via TLB
	KSeg0    uint32 = 0x80000000 // Kernel unmapped, cached
	KSeg1    uint32 = 0xa0000000 // Kernel unmapped, uncached
	KSeg2    uint32 = 0xc0000000 // Kernel mapped, via TLB
	KSeg2Top uint32 = 0xe0000000

	segSelect  uint32 = 0xe0000000
	kernelHigh uint32 = 0x80000000

	pageOffset uint32 = 0x00000fff
)

// Exception vectors.
const (
	vectorBase    uint32 = 0x80000000
	vectorBaseBEV uint32 = 0xbfc00100
	vectorGeneral uint32 = 0x080
)

const (
	tlbEntries  = 64
	randomUpper = 63
	randomLower = 8
	prid        = 0x230 // R3000A revision
)

type TlbEntry struct {
	EntryHi uint32
	EntryLo uint32
}

// CP0 handles address translation and exception state.
type CP0 struct {
	Index    uint32
	Random   uint32
	EntryLo  uint32
	Context  uint32
	BadVaddr uint32
	EntryHi  uint32
	Status   uint32
	Cause    uint32
	EPC      uint32
	PRId     uint32

	handlerDepth int
	tlb          [tlbEntries]TlbEntry
}

func New() *CP0 {
	cp := &CP0{}
	cp.Reset()
	return cp
}

// Reset control registers to their power on state. The processor
// comes up in kernel mode with interrupts disabled and the bootstrap
// exception vectors selected.
func (cp *CP0) Reset() {
	cp.Index = 0
	cp.Random = randomUpper << 8
	cp.EntryLo = 0
	cp.Context = 0
	cp.BadVaddr = 0
	cp.EntryHi = 0
	cp.Status = StatusBEV
	cp.Cause = 0
	cp.EPC = 0
	cp.PRId = prid
	cp.handlerDepth = 0
	cp.tlb = [tlbEntries]TlbEntry{}
}

// Returns true when the processor is inside an exception handler,
// between an exception entry and the matching rfe.
func (cp *CP0) InHandler() bool {
	return cp.handlerDepth > 0
}

// Returns true when running in kernel mode.
func (cp *CP0) KernelMode() bool {
	return cp.Status&StatusKUc == 0
}

// Returns true when interrupts are enabled.
func (cp *CP0) InterruptsEnabled() bool {
	return cp.Status&StatusIEc != 0
}

// Returns true when the given coprocessor may be used.
func (cp *CP0) CoprocessorUsable(coproc uint32) bool {
	return cp.Status&(StatusCU0<<coproc) != 0
}

// Read a control register. Unimplemented registers read zero.
func (cp *CP0) Read(reg uint32) uint32 {
	switch reg {
	case RegIndex:
		return cp.Index
	case RegRandom:
		return cp.Random
	case RegEntryLo:
		return cp.EntryLo
	case RegContext:
		return cp.Context
	case RegBadVaddr:
		return cp.BadVaddr
	case RegEntryHi:
		return cp.EntryHi
	case RegStatus:
		return cp.Status
	case RegCause:
		return cp.Cause
	case RegEPC:
		return cp.EPC
	case RegPRId:
		return cp.PRId
	}
	return 0
}

// Write a control register. Read only registers ignore stores.
func (cp *CP0) Write(reg uint32, value uint32) {
	switch reg {
	case RegIndex:
		cp.Index = value & (IndexP | IndexIdx)
	case RegEntryLo:
		cp.EntryLo = value &^ 0xff
	case RegContext:
		cp.Context = value & 0xffe00000
	case RegEntryHi:
		cp.EntryHi = value & (EntryHiVPN | EntryHiASID)
	case RegStatus:
		cp.Status = value
	case RegCause:
		cp.Cause = (cp.Cause &^ 0x300) | (value & 0x300)
	case RegEPC:
		cp.EPC = value
	case RegRandom, RegBadVaddr, RegPRId:
		// Read only.
	}
}

// Advance the Random register. Decrements once per retired
// instruction and wraps from 8 back to 63, so entries 0 to 7 are
// never selected by tlbwr.
func (cp *CP0) Tick() {
	random := cp.Random >> 8
	if random <= randomLower {
		random = randomUpper
	} else {
		random--
	}
	cp.Random = random << 8
}

// Vector returns the exception handler address. UTLB misses from
// user space use the dedicated refill vector.
func (cp *CP0) Vector(utlb bool) uint32 {
	base := vectorBase
	if cp.Status&StatusBEV != 0 {
		base = vectorBaseBEV
	}
	if utlb {
		return base
	}
	return base + vectorGeneral
}

// Enter an exception. The kernel/user and interrupt enable bits are
// pushed one level down the stack in the Status register and the
// processor switches to kernel mode with interrupts off.
func (cp *CP0) Exception(pc uint32, exc Exception, delayslot bool) {
	cp.EPC = pc
	cp.Status = (cp.Status &^ 0x3f) | ((cp.Status << 2) & 0x3c)
	cp.Cause &^= CauseBD | CauseCE | CauseCode
	cp.Cause |= uint32(exc) << 2
	if delayslot {
		cp.Cause |= CauseBD
	}
	cp.handlerDepth++
}

// Record the coprocessor number of a coprocessor unusable fault.
func (cp *CP0) SetCoprocessorError(coproc uint32) {
	cp.Cause = (cp.Cause &^ CauseCE) | ((coproc << 28) & CauseCE)
}

// Record the failing address for address and TLB faults.
func (cp *CP0) SetBadVaddr(vaddr uint32) {
	cp.BadVaddr = vaddr
	cp.Context = (cp.Context & 0xffe00000) | ((vaddr >> 10) & 0x001ffff0)
	cp.EntryHi = (vaddr & EntryHiVPN) | (cp.EntryHi & EntryHiASID)
}

// Restore from exception. Pops the kernel/user and interrupt enable
// stack in the Status register.
func (cp *CP0) RFE() {
	cp.Status = (cp.Status &^ 0x0f) | ((cp.Status >> 2) & 0x0f)
	if cp.handlerDepth > 0 {
		cp.handlerDepth--
	}
}

// Read the TLB entry selected by Index into EntryHi and EntryLo.
func (cp *CP0) TLBR() {
	index := (cp.Index & IndexIdx) >> 8
	cp.EntryHi = cp.tlb[index].EntryHi
	cp.EntryLo = cp.tlb[index].EntryLo
}

// Write EntryHi and EntryLo to the TLB entry selected by Index.
func (cp *CP0) TLBWI() {
	index := (cp.Index & IndexIdx) >> 8
	cp.tlb[index] = TlbEntry{EntryHi: cp.EntryHi, EntryLo: cp.EntryLo}
}

// Write EntryHi and EntryLo to the TLB entry selected by Random.
func (cp *CP0) TLBWR() {
	index := cp.Random >> 8
	cp.tlb[index] = TlbEntry{EntryHi: cp.EntryHi, EntryLo: cp.EntryLo}
}

// Probe the TLB for an entry matching EntryHi. Index receives the
// matching entry or the probe failure bit.
func (cp *CP0) TLBP() {
	for i := range cp.tlb {
		if cp.match(uint32(i), cp.EntryHi) {
			cp.Index = uint32(i) << 8
			return
		}
	}
	cp.Index = IndexP
}

// Return TLB entry for display.
func (cp *CP0) TLBEntry(index int) TlbEntry {
	return cp.tlb[index]
}

func (cp *CP0) match(index uint32, entryhi uint32) bool {
	entry := cp.tlb[index]
	if entry.EntryHi&EntryHiVPN != entryhi&EntryHiVPN {
		return false
	}
	return entry.EntryLo&EntryLoG != 0 || entry.EntryHi&EntryHiASID == cp.EntryHi&EntryHiASID
}

// Fault describes a failed translation.
type Fault struct {
	Exc  Exception
	UTLB bool // Take the refill vector.
}

// Translate a virtual address to a physical address. A nil Fault
// means success. BadVaddr, Context and EntryHi are updated when the
// translation fails.
func (cp *CP0) Translate(vaddr uint32, write bool) (uint32, *Fault) {
	if cp.KernelMode() {
		switch vaddr & segSelect {
		case KSeg0:
			return vaddr - KSeg0, nil
		case KSeg1:
			return vaddr - KSeg1, nil
		case KSeg2, KSeg2Top:
			return cp.tlbTranslate(vaddr, write, false)
		default:
			return cp.tlbTranslate(vaddr, write, true)
		}
	}
	if vaddr&kernelHigh != 0 {
		cp.SetBadVaddr(vaddr)
		if write {
			return 0, &Fault{Exc: ExcAdES}
		}
		return 0, &Fault{Exc: ExcAdEL}
	}
	return cp.tlbTranslate(vaddr, write, true)
}

// Look up a mapped address in the TLB. Matches resolve to the lowest
// index so overlapping entries behave the same from run to run.
func (cp *CP0) tlbTranslate(vaddr uint32, write bool, user bool) (uint32, *Fault) {
	miss := func(utlb bool) (uint32, *Fault) {
		cp.SetBadVaddr(vaddr)
		if write {
			return 0, &Fault{Exc: ExcTLBS, UTLB: utlb}
		}
		return 0, &Fault{Exc: ExcTLBL, UTLB: utlb}
	}

	for i := range cp.tlb {
		if !cp.match(uint32(i), vaddr) {
			continue
		}
		entry := cp.tlb[i]
		if entry.EntryLo&EntryLoV == 0 {
			return miss(false)
		}
		if write && entry.EntryLo&EntryLoD == 0 {
			cp.SetBadVaddr(vaddr)
			return 0, &Fault{Exc: ExcMod}
		}
		return (entry.EntryLo & EntryLoPFN) | (vaddr & pageOffset), nil
	}
	return miss(user)
}
