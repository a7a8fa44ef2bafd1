/*
 * R3000 - GDB remote debug stub.
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

package gdb

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	core "github.com/rcornwell/R3000/emu/core"
	cp0 "github.com/rcornwell/R3000/emu/cp0"
)

// Register numbers in the g packet, matching the layout GDB expects
// for a MIPS target without a floating point unit.
const (
	regStatus   = 32
	regLo       = 33
	regHi       = 34
	regBadVaddr = 35
	regCause    = 36
	regPC       = 37
	numRegs     = 38
)

// How many instructions run between polls for an interrupt character
// while the program is free running.
const interruptPoll = 1024

// Stop replies. The stub reports a trap signal when control returns
// to the debugger and a clean exit when the halt device fires.
const (
	replyStopped = "S05"
	replyExited  = "W00"
	replyOK      = "OK"
)

type action int

const (
	actionNone action = iota
	actionDetach
	actionKill
)

type Server struct {
	machine *core.Core
	order   binary.ByteOrder

	wg       sync.WaitGroup
	listener net.Listener
	shutdown chan struct{}
	finished chan struct{}
	once     sync.Once

	breakpoints map[uint32]struct{}
}

// Open the stub on the given address. The machine must be stopped,
// the stub steps the processor itself.
func New(machine *core.Core, address string) (*Server, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on address %s: %w", address, err)
	}

	return &Server{
		machine:     machine,
		order:       machine.Bus().Order(),
		listener:    listener,
		shutdown:    make(chan struct{}),
		finished:    make(chan struct{}),
		breakpoints: make(map[uint32]struct{}),
	}, nil
}

// Begin accepting debugger connections.
func (s *Server) Start() {
	slog.Info(fmt.Sprintf("Debug stub listening on %s", s.listener.Addr()))
	s.wg.Add(1)
	go s.acceptConnections()
}

// Closed when the debugger kills the session or the machine halts.
func (s *Server) Done() <-chan struct{} {
	return s.finished
}

func (s *Server) finish() {
	s.once.Do(func() { close(s.finished) })
}

// Accept one debugger at a time. A detach leaves the stub listening
// for the next connection.
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				continue
			}
		}
		slog.Info(fmt.Sprintf("Debugger connected from %s", conn.RemoteAddr()))
		s.handleClient(newClient(conn))
	}
}

// Shut the stub down and wait for the connection to wind up.
func (s *Server) Stop() {
	slog.Info("Shutting down debug stub")
	close(s.shutdown)
	s.listener.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for debug stub to finish.")
		return
	}
}

// Serve packets from one debugger until it disconnects.
func (s *Server) handleClient(cl *client) {
	defer cl.conn.Close()

	for {
		payload, brk, err := cl.readPacket()
		if err != nil {
			slog.Info("Debugger disconnected")
			return
		}
		if brk {
			continue
		}

		reply, act := s.process(cl, payload)
		if act == actionKill {
			slog.Info("Debugger killed the session")
			s.finish()
			return
		}
		if err := cl.sendPacket(reply); err != nil {
			slog.Info("Debugger disconnected")
			return
		}
		if s.machine.Halted() {
			slog.Info("Machine halted, ending debug session")
			s.finish()
			return
		}
		if act == actionDetach {
			slog.Info("Debugger detached")
			return
		}
	}
}

// Dispatch one command. Unsupported commands get an empty reply,
// which tells the debugger to fall back on other packets.
func (s *Server) process(cl *client, payload string) (string, action) {
	if payload == "" {
		return "", actionNone
	}

	switch payload[0] {
	case '?':
		return s.stopReply(), actionNone
	case 'g':
		return s.readRegisters(), actionNone
	case 'G':
		return s.writeRegisters(payload[1:]), actionNone
	case 'p':
		return s.readRegister(payload[1:]), actionNone
	case 'P':
		return s.writeRegister(payload[1:]), actionNone
	case 'm':
		return s.readMemory(payload[1:]), actionNone
	case 'M':
		return s.writeMemory(payload[1:]), actionNone
	case 'c':
		if !s.setResumeAddress(payload[1:]) {
			return "E01", actionNone
		}
		return s.resume(cl), actionNone
	case 's':
		if !s.setResumeAddress(payload[1:]) {
			return "E01", actionNone
		}
		s.machine.StepOne()
		return s.stopReply(), actionNone
	case 'Z':
		return s.insertBreakpoint(payload), actionNone
	case 'z':
		return s.removeBreakpoint(payload), actionNone
	case 'D':
		return replyOK, actionDetach
	case 'k':
		return "", actionKill
	}
	return "", actionNone
}

func (s *Server) stopReply() string {
	if s.machine.Halted() {
		return replyExited
	}
	return replyStopped
}

// An optional hex address after c or s redirects execution first.
func (s *Server) setResumeAddress(args string) bool {
	if args == "" {
		return true
	}
	addr, err := strconv.ParseUint(args, 16, 32)
	if err != nil {
		return false
	}
	s.machine.CPU.SetPC(uint32(addr))
	return true
}

// Run until a breakpoint, the halt device, or an interrupt from the
// debugger. The connection is only polled every interruptPoll steps
// to keep the hot loop off the network.
func (s *Server) resume(cl *client) string {
	cpu := s.machine.CPU
	for {
		for i := 0; i < interruptPoll; i++ {
			s.machine.StepOne()
			if s.machine.Halted() {
				return replyExited
			}
			if _, hit := s.breakpoints[cpu.PC]; hit {
				return replyStopped
			}
		}
		select {
		case <-s.shutdown:
			return replyStopped
		default:
		}
		if cl.interrupted() {
			return replyStopped
		}
	}
}

// Registers travel as eight hex digits each in target byte order.
func (s *Server) encodeWord(value uint32) string {
	var buf [4]byte
	s.order.PutUint32(buf[:], value)
	return hex.EncodeToString(buf[:])
}

func (s *Server) decodeWord(text string) (uint32, bool) {
	raw, err := hex.DecodeString(text)
	if err != nil || len(raw) != 4 {
		return 0, false
	}
	return s.order.Uint32(raw), true
}

func (s *Server) register(index uint32) uint32 {
	cpu := s.machine.CPU
	switch {
	case index < 32:
		return cpu.Reg(index)
	case index == regStatus:
		return cpu.CP0.Status
	case index == regLo:
		return cpu.LO
	case index == regHi:
		return cpu.HI
	case index == regBadVaddr:
		return cpu.CP0.BadVaddr
	case index == regCause:
		return cpu.CP0.Cause
	case index == regPC:
		return cpu.PC
	}
	return 0
}

func (s *Server) setRegister(index uint32, value uint32) {
	cpu := s.machine.CPU
	switch {
	case index < 32:
		cpu.SetReg(index, value)
	case index == regStatus:
		cpu.CP0.Write(cp0.RegStatus, value)
	case index == regLo:
		cpu.LO = value
	case index == regHi:
		cpu.HI = value
	case index == regCause:
		cpu.CP0.Write(cp0.RegCause, value)
	case index == regPC:
		cpu.SetPC(value)
	}
}

func (s *Server) readRegisters() string {
	var sb strings.Builder
	for i := uint32(0); i < numRegs; i++ {
		sb.WriteString(s.encodeWord(s.register(i)))
	}
	return sb.String()
}

func (s *Server) writeRegisters(args string) string {
	if len(args) != numRegs*8 {
		return "E01"
	}
	for i := uint32(0); i < numRegs; i++ {
		value, ok := s.decodeWord(args[i*8 : i*8+8])
		if !ok {
			return "E01"
		}
		s.setRegister(i, value)
	}
	return replyOK
}

func (s *Server) readRegister(args string) string {
	index, err := strconv.ParseUint(args, 16, 32)
	if err != nil || index >= numRegs {
		return "E01"
	}
	return s.encodeWord(s.register(uint32(index)))
}

func (s *Server) writeRegister(args string) string {
	index, value, ok := splitPair(args, '=')
	if !ok || index >= numRegs {
		return "E01"
	}
	word, ok := s.decodeWord(value)
	if !ok {
		return "E01"
	}
	s.setRegister(index, word)
	return replyOK
}

// Translate a virtual address for a debugger access. Failed probes
// must not disturb the fault registers the program will read.
func (s *Server) translate(vaddr uint32) (uint32, bool) {
	cp := s.machine.CPU.CP0
	bad, ctx, hi := cp.BadVaddr, cp.Context, cp.EntryHi
	paddr, fault := cp.Translate(vaddr, false)
	if fault != nil {
		cp.BadVaddr, cp.Context, cp.EntryHi = bad, ctx, hi
		return 0, false
	}
	return paddr, true
}

func (s *Server) readMemory(args string) string {
	addr, length, ok := parseAddrLen(args)
	if !ok {
		return "E01"
	}
	var sb strings.Builder
	for i := uint32(0); i < length; i++ {
		paddr, ok := s.translate(addr + i)
		if !ok {
			return "E02"
		}
		b, ok := s.machine.Bus().GetByte(paddr)
		if !ok {
			return "E03"
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

func (s *Server) writeMemory(args string) string {
	spec, data, found := strings.Cut(args, ":")
	if !found {
		return "E01"
	}
	addr, length, ok := parseAddrLen(spec)
	if !ok {
		return "E01"
	}
	raw, err := hex.DecodeString(data)
	if err != nil || uint32(len(raw)) != length {
		return "E01"
	}
	for i := uint32(0); i < length; i++ {
		paddr, ok := s.translate(addr + i)
		if !ok {
			return "E02"
		}
		if !s.machine.Bus().PutByte(paddr, raw[i]) {
			return "E03"
		}
	}
	return replyOK
}

// Breakpoints are kept in a side table checked against PC, so ROM can
// be stopped in without patching the instruction stream.
func (s *Server) insertBreakpoint(payload string) string {
	addr, ok := parseBreakpoint(payload)
	if !ok {
		return ""
	}
	s.breakpoints[addr] = struct{}{}
	return replyOK
}

func (s *Server) removeBreakpoint(payload string) string {
	addr, ok := parseBreakpoint(payload)
	if !ok {
		return ""
	}
	delete(s.breakpoints, addr)
	return replyOK
}

// Only software breakpoints are supported. Z0,addr,kind.
func parseBreakpoint(payload string) (uint32, bool) {
	fields := strings.Split(payload, ",")
	if len(fields) != 3 || fields[0][1:] != "0" {
		return 0, false
	}
	addr, err := strconv.ParseUint(fields[1], 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(addr), true
}

// Parse addr,length with both fields in hex.
func parseAddrLen(args string) (uint32, uint32, bool) {
	addr, length, ok := splitPair(args, ',')
	if !ok {
		return 0, 0, false
	}
	size, err := strconv.ParseUint(length, 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint32(addr), uint32(size), true
}

func splitPair(args string, sep byte) (uint32, string, bool) {
	first, rest, found := strings.Cut(args, string(sep))
	if !found {
		return 0, "", false
	}
	value, err := strconv.ParseUint(first, 16, 32)
	if err != nil {
		return 0, "", false
	}
	return uint32(value), rest, true
}
