/*
   Core R3000 simulator loop.

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

package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cp0 "github.com/rcornwell/R3000/emu/cp0"
	cpu "github.com/rcornwell/R3000/emu/cpu"
	device "github.com/rcornwell/R3000/emu/device"
	memory "github.com/rcornwell/R3000/emu/memory"
)

// Control messages accepted by the simulation loop.
const (
	Start = 1 + iota // Resume free running execution
	Stop             // Pause execution
	StepN            // Execute Count instructions then pause
	Reset            // Reset the processor
	Quit             // Shut down the simulation
)

type Packet struct {
	Msg   int
	Count int
}

// StopReason records why the machine stopped executing.
type StopReason int

const (
	StopNone     StopReason = iota // Still running or never started
	StopHalt                       // Store to the halt device
	StopFault                      // Double fault, the handler itself faulted
	StopBusError                   // Bus error taken outside any handler
)

// Machine setup options. HaltAddress and ROMAddress of zero select
// the default physical placement.
type Config struct {
	RomPath      string // ROM image file
	LoadAddress  uint32 // Virtual load address of ROM, in kseg1
	RAMSize      int    // RAM size in KB
	BigEndian    bool   // Byte order of the machine
	NoHaltDevice bool   // Leave the halt device unmapped
	HaltAddress  uint32 // Physical address of the halt device
	ROMAddress   uint32 // Physical base of the ROM
	Trace        bool   // Log each instruction
	DumpCPU      bool   // Dump registers after each instruction
	HaltDump     bool   // Dump registers when the machine halts
}

var ErrLoadAddress = errors.New("ROM load address must be 0xa0000000 or above")

type Core struct {
	CPU *cpu.CPU
	bus *memory.Bus

	wg      sync.WaitGroup
	done    chan struct{} // Signal to shutdown simulator.
	Ctrl    chan Packet   // Control commands from console or stub.
	running bool          // Indicate when simulator should run or not.
	halted  bool          // Machine has stopped for good.
	reason  StopReason    // Why the machine stopped.
	pending int           // Steps remaining for a step command.

	dumpCPU  bool
	haltDump bool
}

// Build a machine from the configuration. The ROM is loaded at a
// kseg1 virtual address so the reset vector reads from it without
// address translation.
func NewMachine(config Config) (*Core, error) {
	if config.LoadAddress < cp0.KSeg1 {
		return nil, fmt.Errorf("%w: %08x", ErrLoadAddress, config.LoadAddress)
	}

	bus := memory.NewBus(config.BigEndian)
	core := &Core{
		bus:      bus,
		done:     make(chan struct{}),
		Ctrl:     make(chan Packet, 8),
		dumpCPU:  config.DumpCPU,
		haltDump: config.HaltDump,
	}

	ram := memory.NewRAM(config.RAMSize)
	if err := bus.Map(ram, 0, ram.Size()); err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("Mapped %s at physical %08x", ram.Label(), 0))

	rom, err := memory.NewROM(config.RomPath)
	if err != nil {
		return nil, err
	}
	romBase := config.ROMAddress
	if romBase == 0 {
		romBase = config.LoadAddress - cp0.KSeg1
	}
	if err := bus.Map(rom, romBase, rom.Size()); err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("Mapped %s at physical %08x", rom.Label(), romBase))

	if !config.NoHaltDevice {
		haltBase := config.HaltAddress
		if haltBase == 0 {
			haltBase = device.HaltAddress
		}
		halt := device.NewHalt(core.haltSignal)
		if err := bus.Map(halt, haltBase, 4); err != nil {
			return nil, err
		}
		slog.Info(fmt.Sprintf("Mapped %s at physical %08x", halt.Label(), haltBase))
	}

	test := device.NewTest(bus.Order())
	if err := bus.Map(test, device.TestAddress, device.TestSize); err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("Mapped %s at physical %08x", test.Label(), device.TestAddress))

	core.CPU = cpu.New(bus)
	core.CPU.Trace = config.Trace
	return core, nil
}

// Return the bus for memory map listings.
func (core *Core) Bus() *memory.Bus {
	return core.bus
}

// Called by the halt device on a store, from the stepping goroutine.
func (core *Core) haltSignal() {
	core.halted = true
	core.reason = StopHalt
}

// Returns true once the machine has stopped for good.
func (core *Core) Halted() bool {
	return core.halted
}

// Returns why the machine stopped.
func (core *Core) Reason() StopReason {
	return core.reason
}

// Execute a single instruction. The halt device, a double fault, or
// a bus error outside a handler all stop the machine.
func (core *Core) StepOne() {
	if core.halted {
		return
	}
	core.CPU.Step()
	if core.dumpCPU {
		core.CPU.DumpRegs()
	}
	if core.halted {
		return
	}
	if core.CPU.DoubleFault {
		slog.Error(fmt.Sprintf("Double fault at %08x", core.CPU.CP0.EPC))
		core.halted = true
		core.reason = StopFault
		return
	}
	if core.CPU.BusFault {
		slog.Error(fmt.Sprintf("Bus error at %08x", core.CPU.CP0.EPC))
		core.halted = true
		core.reason = StopBusError
	}
}

// Run the simulation until told to quit or the machine halts. Meant
// to run on its own goroutine with commands arriving over Ctrl.
func (core *Core) Start() {
	core.wg.Add(1)
	defer core.wg.Done()
	slog.Info("Machine reset")
	for {
		if core.running && !core.halted {
			core.StepOne()
			if core.pending > 0 {
				core.pending--
				if core.pending == 0 {
					core.running = false
				}
			}
		}
		if core.halted {
			core.shutdownDump()
			return
		}
		select {
		case <-core.done:
			core.shutdownDump()
			return
		case packet := <-core.Ctrl:
			if core.processPacket(packet) {
				core.shutdownDump()
				return
			}
		default:
		}
	}
}

func (core *Core) shutdownDump() {
	if core.haltDump {
		core.CPU.DumpRegs()
	}
	slog.Info(fmt.Sprintf("Machine stopped after %d instructions", core.CPU.Count))
}

// Stop a running simulation and wait for it to wind down.
func (core *Core) Stop() {
	slog.Info("Shutting down CPU")
	close(core.done)
	done := make(chan struct{})
	go func() {
		core.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for CPU to finish.")
		return
	}
}

// Resume execution.
func (core *Core) SendStart() {
	core.Ctrl <- Packet{Msg: Start}
}

// Pause execution.
func (core *Core) SendStop() {
	core.Ctrl <- Packet{Msg: Stop}
}

// Execute count instructions.
func (core *Core) SendStep(count int) {
	core.Ctrl <- Packet{Msg: StepN, Count: count}
}

// Reset the machine.
func (core *Core) SendReset() {
	core.Ctrl <- Packet{Msg: Reset}
}

// Shut down the simulation loop.
func (core *Core) SendQuit() {
	core.Ctrl <- Packet{Msg: Quit}
}

// Process a control packet. Returns true when the loop should exit.
func (core *Core) processPacket(packet Packet) bool {
	switch packet.Msg {
	case Start:
		core.running = true
		core.pending = 0
	case Stop:
		core.running = false
	case StepN:
		count := packet.Count
		if count < 1 {
			count = 1
		}
		core.running = true
		core.pending = count
	case Reset:
		core.CPU.Reset()
		core.halted = false
		core.reason = StopNone
		core.running = false
	case Quit:
		return true
	}
	return false
}
