package device

/*
 * R3000 - Memory mapped device test cases.
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

import (
	"encoding/binary"
	"testing"
)

func putTestWord(dev *TestDevice, offset uint32, value uint32) bool {
	var buf [4]byte
	dev.order.PutUint32(buf[:], value)
	return dev.Write(offset, buf[:])
}

func getTestWord(dev *TestDevice, offset uint32) (uint32, bool) {
	var buf [4]byte
	if !dev.Read(offset, buf[:]) {
		return 0, false
	}
	return dev.order.Uint32(buf[:]), true
}

func TestHaltSignal(t *testing.T) {
	fired := 0
	halt := NewHalt(func() { fired++ })

	if !halt.Write(0, []byte{1, 2, 3, 4}) {
		t.Error("Write to halt device failed")
	}
	if fired != 1 {
		t.Errorf("halt signal count was incorrect got: %d wanted: %d", fired, 1)
	}

	var buf [4]byte
	buf[0] = 0xff
	if !halt.Read(0, buf[:]) {
		t.Error("Read from halt device failed")
	}
	for i, b := range buf {
		if b != 0 {
			t.Errorf("halt byte %d was incorrect got: %02x wanted: %02x", i, b, 0)
		}
	}
	if fired != 1 {
		t.Errorf("halt signal count after read was incorrect got: %d wanted: %d", fired, 1)
	}
}

func TestMagicRegister(t *testing.T) {
	dev := NewTest(binary.LittleEndian)

	value, ok := getTestWord(dev, regMagic)
	if !ok {
		t.Error("Read of magic register failed")
	}
	if value != testMagic {
		t.Errorf("magic was incorrect got: %08x wanted: %08x", value, testMagic)
	}

	putTestWord(dev, regMagic, 0xdeadbeef)
	value, _ = getTestWord(dev, regMagic)
	if value != testMagic {
		t.Errorf("magic after write was incorrect got: %08x wanted: %08x", value, testMagic)
	}
}

func TestScratchRegister(t *testing.T) {
	dev := NewTest(binary.BigEndian)

	putTestWord(dev, regScratch, 0x12345678)
	value, ok := getTestWord(dev, regScratch)
	if !ok {
		t.Error("Read of scratch register failed")
	}
	if value != 0x12345678 {
		t.Errorf("scratch was incorrect got: %08x wanted: %08x", value, 0x12345678)
	}

	if dev.data[regScratch] != 0x12 {
		t.Errorf("scratch byte order was incorrect got: %02x wanted: %02x", dev.data[regScratch], 0x12)
	}
}

func TestWriteCounter(t *testing.T) {
	dev := NewTest(binary.LittleEndian)

	value, _ := getTestWord(dev, regCount)
	if value != 0 {
		t.Errorf("initial count was incorrect got: %d wanted: %d", value, 0)
	}

	putTestWord(dev, regScratch, 1)
	putTestWord(dev, regLog, 2)
	putTestWord(dev, regMagic, 3)
	value, _ = getTestWord(dev, regCount)
	if value != 3 {
		t.Errorf("count was incorrect got: %d wanted: %d", value, 3)
	}
}

func TestScratchStorage(t *testing.T) {
	dev := NewTest(binary.LittleEndian)

	for i := uint32(0x10); i < TestSize; i += 4 {
		putTestWord(dev, i, i*3)
	}
	for i := uint32(0x10); i < TestSize; i += 4 {
		value, ok := getTestWord(dev, i)
		if !ok {
			t.Fatalf("Read at offset %02x failed", i)
		}
		if value != i*3 {
			t.Errorf("word at %02x was incorrect got: %08x wanted: %08x", i, value, i*3)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	dev := NewTest(binary.LittleEndian)

	var buf [4]byte
	if dev.Read(TestSize, buf[:]) {
		t.Error("Read past end of device should fail")
	}
	if dev.Write(TestSize-2, buf[:]) {
		t.Error("Write past end of device should fail")
	}
}
