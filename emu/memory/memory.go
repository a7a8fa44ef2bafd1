/*
 * R3000 - Physical memory bus
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

package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// Device is a block of physical address space. Offsets handed to a
// device are relative to its mapped base.
type Device interface {
	// Read fills p starting at offset. Returns false if the access
	// falls outside the device.
	Read(offset uint32, p []byte) bool

	// Write stores p starting at offset. Returns false if the access
	// falls outside the device.
	Write(offset uint32, p []byte) bool

	// Label returns a short name for memory map listings.
	Label() string
}

var (
	ErrOverlap = errors.New("memory range overlaps existing device")
	ErrZeroLen = errors.New("memory range has zero length")
)

type mapping struct {
	base uint32
	size uint32
	dev  Device
}

func (m mapping) contains(addr uint32) bool {
	return m.base <= addr && addr-m.base < m.size
}

func (m mapping) overlaps(base, size uint32) bool {
	return base < m.base+m.size && m.base < base+size
}

// Bus routes physical addresses to the mapped device. The byte order
// is fixed when the bus is created and applies to all word and
// halfword accesses.
type Bus struct {
	order    binary.ByteOrder
	mappings []mapping
}

// Create a new bus with the given byte order.
func NewBus(bigEndian bool) *Bus {
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}
	return &Bus{order: order}
}

// Return byte order of bus.
func (bus *Bus) Order() binary.ByteOrder {
	return bus.order
}

// Map a device at the given physical base address.
func (bus *Bus) Map(dev Device, base uint32, size uint32) error {
	if size == 0 {
		return ErrZeroLen
	}
	for _, m := range bus.mappings {
		if m.overlaps(base, size) {
			return fmt.Errorf("%w: %s at %08x", ErrOverlap, dev.Label(), base)
		}
	}
	bus.mappings = append(bus.mappings, mapping{base: base, size: size, dev: dev})
	sort.Slice(bus.mappings, func(i, j int) bool {
		return bus.mappings[i].base < bus.mappings[j].base
	})
	return nil
}

// Find the device mapped at addr. The mapping list is kept sorted by
// base, so the candidate is the last region starting at or below addr.
func (bus *Bus) find(addr uint32) (mapping, bool) {
	i := sort.Search(len(bus.mappings), func(i int) bool {
		return bus.mappings[i].base > addr
	})
	if i == 0 {
		return mapping{}, false
	}
	m := bus.mappings[i-1]
	if !m.contains(addr) {
		return mapping{}, false
	}
	return m, true
}

func (bus *Bus) read(addr uint32, p []byte) bool {
	m, ok := bus.find(addr)
	if !ok {
		return false
	}
	return m.dev.Read(addr-m.base, p)
}

func (bus *Bus) write(addr uint32, p []byte) bool {
	m, ok := bus.find(addr)
	if !ok {
		return false
	}
	return m.dev.Write(addr-m.base, p)
}

// Get a word from memory.
func (bus *Bus) GetWord(addr uint32) (uint32, bool) {
	var p [4]byte
	if !bus.read(addr, p[:]) {
		return 0, false
	}
	return bus.order.Uint32(p[:]), true
}

// Get a halfword from memory.
func (bus *Bus) GetHalf(addr uint32) (uint16, bool) {
	var p [2]byte
	if !bus.read(addr, p[:]) {
		return 0, false
	}
	return bus.order.Uint16(p[:]), true
}

// Get a byte from memory.
func (bus *Bus) GetByte(addr uint32) (uint8, bool) {
	var p [1]byte
	if !bus.read(addr, p[:]) {
		return 0, false
	}
	return p[0], true
}

// Put a word to memory.
func (bus *Bus) PutWord(addr uint32, data uint32) bool {
	var p [4]byte
	bus.order.PutUint32(p[:], data)
	return bus.write(addr, p[:])
}

// Put a halfword to memory.
func (bus *Bus) PutHalf(addr uint32, data uint16) bool {
	var p [2]byte
	bus.order.PutUint16(p[:], data)
	return bus.write(addr, p[:])
}

// Put a byte to memory.
func (bus *Bus) PutByte(addr uint32, data uint8) bool {
	return bus.write(addr, []byte{data})
}

// List the memory map, one line per device.
func (bus *Bus) MemoryMap() []string {
	list := make([]string, 0, len(bus.mappings))
	for _, m := range bus.mappings {
		list = append(list, fmt.Sprintf("%08x-%08x  %s", m.base, m.base+m.size-1, m.dev.Label()))
	}
	return list
}
