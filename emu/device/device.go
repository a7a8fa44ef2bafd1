/*
 * R3000 - Memory mapped devices
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

package device

import (
	"encoding/binary"
	"fmt"
	"log/slog"
)

const (
	HaltAddress uint32 = 0x01010024 // Physical address of halt register.
	TestAddress uint32 = 0x02010000 // Physical base of test device.
	TestSize    uint32 = 0x100      // Extent of test device.

	testMagic uint32 = 0x4d495053 // Identity word, reads "MIPS".

	// Test device word registers.
	regMagic   uint32 = 0x00
	regScratch uint32 = 0x04
	regLog     uint32 = 0x08
	regCount   uint32 = 0x0c
)

// HaltDevice stops the machine when any value is stored to it.
type HaltDevice struct {
	signal func()
}

// Create a new halt device. The signal function is called on any
// store, from the CPU goroutine.
func NewHalt(signal func()) *HaltDevice {
	return &HaltDevice{signal: signal}
}

func (h *HaltDevice) Read(offset uint32, p []byte) bool {
	for i := range p {
		p[i] = 0
	}
	return true
}

func (h *HaltDevice) Write(offset uint32, p []byte) bool {
	slog.Info("Halt device triggered")
	h.signal()
	return true
}

func (h *HaltDevice) Label() string {
	return "halt device"
}

// TestDevice gives test programs a target for memory mapped I/O.
// The first four words are registers, the rest is scratch storage.
type TestDevice struct {
	order  binary.ByteOrder
	data   [TestSize]byte
	writes uint32
}

// Create a new test device using the machine byte order.
func NewTest(order binary.ByteOrder) *TestDevice {
	dev := &TestDevice{order: order}
	dev.order.PutUint32(dev.data[regMagic:], testMagic)
	return dev
}

func (dev *TestDevice) Read(offset uint32, p []byte) bool {
	if int(offset)+len(p) > len(dev.data) {
		return false
	}
	if offset == regCount && len(p) == 4 {
		dev.order.PutUint32(dev.data[regCount:], dev.writes)
	}
	copy(p, dev.data[offset:])
	return true
}

func (dev *TestDevice) Write(offset uint32, p []byte) bool {
	if int(offset)+len(p) > len(dev.data) {
		return false
	}
	switch {
	case offset == regMagic && len(p) == 4:
		// Identity word is fixed.
	case offset == regLog && len(p) == 4:
		value := dev.order.Uint32(p)
		slog.Debug(fmt.Sprintf("test device: %08x", value))
	default:
		copy(dev.data[offset:], p)
	}
	dev.writes++
	return true
}

func (dev *TestDevice) Label() string {
	return "test device"
}
