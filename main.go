/*
 * R3000 - Main process.
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

package main

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"
	reader "github.com/rcornwell/R3000/command/reader"
	core "github.com/rcornwell/R3000/emu/core"
	gdb "github.com/rcornwell/R3000/gdb"
	logger "github.com/rcornwell/R3000/util/logger"
)

// Exit codes. A clean halt through the halt device exits zero, a
// machine that stopped on a fault reports which kind, and any
// command line or IO problem exits three.
const (
	exitOK    = 0
	exitFault = 1
	exitBus   = 2
	exitCLI   = 3
)

// Map the stop reason of a finished machine to an exit code.
func exitCode(reason core.StopReason) int {
	switch reason {
	case core.StopFault:
		return exitFault
	case core.StopBusError:
		return exitBus
	}
	return exitOK
}

func main() {
	optRom := getopt.StringLong("rom", 'r', "", "ROM image to load")
	optLoad := getopt.StringLong("load-address", 'a', "0xbfc00000", "Virtual load address of ROM")
	optRomAddr := getopt.StringLong("rom-addr", 'R', "", "Physical base of ROM")
	optHaltAddr := getopt.StringLong("halt-addr", 'A', "", "Physical address of halt device")
	optRAM := getopt.IntLong("ram-size", 'm', 1024, "RAM size in KB")
	optBig := getopt.BoolLong("big-endian", 'B', "Big endian byte order")
	optLittle := getopt.BoolLong("little-endian", 'L', "Little endian byte order")
	optDebug := getopt.BoolLong("debug", 'd', "Wait for a debugger instead of running")
	optDebugAddr := getopt.StringLong("debug-addr", 'D', "127.0.0.1:9001", "Debug stub listen address")
	optTrace := getopt.BoolLong("trace", 't', "Log each instruction")
	optDumpCPU := getopt.BoolLong("dump-cpu", 'c', "Dump registers after each instruction")
	optHaltDump := getopt.BoolLong("halt-dump", 'H', "Dump registers when the machine halts")
	optNoHalt := getopt.BoolLong("no-halt-device", 'n', "Leave the halt device unmapped")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optVerbose := getopt.BoolLong("verbose", 'v', "Log debug to console")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(exitOK)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	log := slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, optVerbose))
	slog.SetDefault(log)

	log.Info("R3000 started")

	if *optRom == "" && len(getopt.Args()) > 0 {
		*optRom = getopt.Args()[0]
	}
	if *optRom == "" {
		log.Error("Please specify a ROM image")
		getopt.Usage()
		os.Exit(exitCLI)
	}

	if *optBig && *optLittle {
		log.Error("Only one byte order can be selected")
		os.Exit(exitCLI)
	}

	loadAddress := parseAddress(log, "Load address", *optLoad)
	var romAddress, haltAddress uint32
	if *optRomAddr != "" {
		romAddress = parseAddress(log, "ROM address", *optRomAddr)
	}
	if *optHaltAddr != "" {
		haltAddress = parseAddress(log, "Halt address", *optHaltAddr)
	}

	machine, err := core.NewMachine(core.Config{
		RomPath:      *optRom,
		LoadAddress:  loadAddress,
		RAMSize:      *optRAM,
		BigEndian:    *optBig,
		NoHaltDevice: *optNoHalt,
		HaltAddress:  haltAddress,
		ROMAddress:   romAddress,
		Trace:        *optTrace,
		DumpCPU:      *optDumpCPU,
		HaltDump:     *optHaltDump,
	})
	if err != nil {
		log.Error(err.Error())
		os.Exit(exitCLI)
	}

	// With a debugger attached the stub steps the processor itself,
	// the free running loop stays parked.
	if *optDebug {
		stub, err := gdb.New(machine, *optDebugAddr)
		if err != nil {
			log.Error(err.Error())
			os.Exit(exitCLI)
		}
		stub.Start()
		<-stub.Done()
		stub.Stop()
		log.Info("Debug session finished")
		os.Exit(exitCode(machine.Reason()))
	}

	// Create new routine to run the machine.
	go machine.Start()

	msg := make(chan string, 1)
	go func() {
		reader.ConsoleReader(machine)
		msg <- ""
	}()

	// Wait on shutdown option
	<-msg

	machine.Stop()
	log.Info("Simulator stopped.")
	os.Exit(exitCode(machine.Reason()))
}

// Parse a hex address option. A bad value is a command line error.
func parseAddress(log *slog.Logger, name string, value string) uint32 {
	addr, err := strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 32)
	if err != nil {
		log.Error(name + " must be a hex number: " + value)
		os.Exit(exitCLI)
	}
	return uint32(addr)
}
