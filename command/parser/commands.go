/*
 * R3000 - Monitor commands.
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

package parser

import (
	"errors"
	"fmt"
	"log/slog"

	core "github.com/rcornwell/R3000/emu/core"
	cp0 "github.com/rcornwell/R3000/emu/cp0"
	disassembler "github.com/rcornwell/R3000/emu/disassemble"
)

var cmdList = []cmd{
	{Name: "step", Min: 2, Process: step},
	{Name: "start", Min: 3, Process: start},
	{Name: "stop", Min: 3, Process: stop},
	{Name: "continue", Min: 1, Process: cont},
	{Name: "registers", Min: 1, Process: registers},
	{Name: "cp0", Min: 2, Process: showCP0},
	{Name: "tlb", Min: 2, Process: showTLB},
	{Name: "examine", Min: 2, Process: examine},
	{Name: "deposit", Min: 3, Process: deposit},
	{Name: "disassemble", Min: 3, Process: disassemble},
	{Name: "map", Min: 2, Process: memoryMap},
	{Name: "reset", Min: 5, Process: reset},
	{Name: "quit", Min: 4, Process: quit},
}

// Execute one or more instructions, then pause.
func step(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Step")

	count := uint32(1)
	if !line.isEOL() {
		value, err := line.getNumber()
		if err != nil {
			return false, err
		}
		count = value
	}
	core.SendStep(int(count))
	return false, nil
}

// Resume free running execution.
func start(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Start")
	core.SendStart()
	return false, nil
}

// Pause execution.
func stop(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Stop")
	core.SendStop()
	return false, nil
}

// Continue is a synonym for start.
func cont(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Continue")
	core.SendStart()
	return false, nil
}

// Display the general registers.
func registers(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Registers")

	cpu := core.CPU
	for i := uint32(0); i < 32; i += 4 {
		fmt.Printf("%-4s %08x  %-4s %08x  %-4s %08x  %-4s %08x\n",
			disassembler.RegName(i), cpu.Reg(i),
			disassembler.RegName(i+1), cpu.Reg(i+1),
			disassembler.RegName(i+2), cpu.Reg(i+2),
			disassembler.RegName(i+3), cpu.Reg(i+3))
	}
	fmt.Printf("pc   %08x  hi   %08x  lo   %08x\n", cpu.PC, cpu.HI, cpu.LO)
	return false, nil
}

// Display the system control coprocessor registers.
func showCP0(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command CP0")

	cp := core.CPU.CP0
	fmt.Printf("index    %08x  random   %08x  entrylo  %08x\n", cp.Index, cp.Random, cp.EntryLo)
	fmt.Printf("context  %08x  badvaddr %08x  entryhi  %08x\n", cp.Context, cp.BadVaddr, cp.EntryHi)
	fmt.Printf("status   %08x  cause    %08x  epc      %08x\n", cp.Status, cp.Cause, cp.EPC)
	fmt.Printf("prid     %08x\n", cp.PRId)
	return false, nil
}

// Display the TLB entries that are not all zero, valid or not.
func showTLB(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command TLB")

	cp := core.CPU.CP0
	shown := 0
	for i := 0; i < 64; i++ {
		entry := cp.TLBEntry(i)
		if entry.EntryHi == 0 && entry.EntryLo == 0 {
			continue
		}
		flags := ""
		for _, f := range []struct {
			bit  uint32
			name string
		}{
			{cp0.EntryLoN, "N"},
			{cp0.EntryLoD, "D"},
			{cp0.EntryLoV, "V"},
			{cp0.EntryLoG, "G"},
		} {
			if entry.EntryLo&f.bit != 0 {
				flags += f.name
			} else {
				flags += "-"
			}
		}
		fmt.Printf("%2d: vpn %08x asid %02x pfn %08x %s\n", i,
			entry.EntryHi&cp0.EntryHiVPN, (entry.EntryHi&cp0.EntryHiASID)>>6,
			entry.EntryLo&cp0.EntryLoPFN, flags)
		shown++
	}
	if shown == 0 {
		fmt.Println("tlb empty")
	}
	return false, nil
}

// Translate a virtual address for a monitor access. The fault
// registers are put back so a failed probe is invisible to the
// program.
func translateDebug(core *core.Core, vaddr uint32) (uint32, error) {
	cp := core.CPU.CP0
	bad, ctx, hi := cp.BadVaddr, cp.Context, cp.EntryHi
	paddr, fault := cp.Translate(vaddr, false)
	if fault != nil {
		cp.BadVaddr, cp.Context, cp.EntryHi = bad, ctx, hi
		return 0, fmt.Errorf("address %08x not mapped", vaddr)
	}
	return paddr, nil
}

// Display memory words. examine addr [count].
func examine(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Examine")

	addr, err := line.getHex()
	if err != nil {
		return false, errors.New("examine needs an address")
	}
	addr &^= 3

	count := uint32(8)
	if !line.isEOL() {
		count, err = line.getNumber()
		if err != nil {
			return false, err
		}
	}

	for i := uint32(0); i < count; i++ {
		vaddr := addr + i*4
		paddr, err := translateDebug(core, vaddr)
		if err != nil {
			return false, err
		}
		word, ok := core.Bus().GetWord(paddr)
		if !ok {
			return false, fmt.Errorf("no device at %08x", vaddr)
		}
		fmt.Printf("%08x: %08x\n", vaddr, word)
	}
	return false, nil
}

// Store a memory word. deposit addr value.
func deposit(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Deposit")

	addr, err := line.getHex()
	if err != nil {
		return false, errors.New("deposit needs an address")
	}
	addr &^= 3

	value, err := line.getHex()
	if err != nil {
		return false, errors.New("deposit needs a value")
	}

	paddr, err := translateDebug(core, addr)
	if err != nil {
		return false, err
	}
	if !core.Bus().PutWord(paddr, value) {
		return false, fmt.Errorf("no device at %08x", addr)
	}
	return false, nil
}

// Disassemble memory words. disassemble addr [count].
func disassemble(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Disassemble")

	addr, err := line.getHex()
	if err != nil {
		return false, errors.New("disassemble needs an address")
	}
	addr &^= 3

	count := uint32(8)
	if !line.isEOL() {
		count, err = line.getNumber()
		if err != nil {
			return false, err
		}
	}

	for i := uint32(0); i < count; i++ {
		vaddr := addr + i*4
		paddr, err := translateDebug(core, vaddr)
		if err != nil {
			return false, err
		}
		word, ok := core.Bus().GetWord(paddr)
		if !ok {
			return false, fmt.Errorf("no device at %08x", vaddr)
		}
		fmt.Printf("%08x: %08x  %s\n", vaddr, word, disassembler.Disassemble(vaddr, word))
	}
	return false, nil
}

// Display the physical memory map.
func memoryMap(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Map")

	for _, entry := range core.Bus().MemoryMap() {
		fmt.Println(entry)
	}
	return false, nil
}

// Reset the machine.
func reset(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Reset")
	core.SendReset()
	return false, nil
}

// Leave the simulator.
func quit(_ *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Quit")
	return true, nil
}
