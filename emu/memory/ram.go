/*
 * R3000 - RAM device
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

import "fmt"

const maxRAMSize = 256 * 1024 // Largest RAM in KB.

type RAM struct {
	data []byte
}

// Create new RAM device, size in K. New memory reads as zero.
func NewRAM(k int) *RAM {
	if k > maxRAMSize {
		k = maxRAMSize
	}
	return &RAM{data: make([]byte, k*1024)}
}

// Return size of memory in bytes.
func (ram *RAM) Size() uint32 {
	return uint32(len(ram.data))
}

func (ram *RAM) Read(offset uint32, p []byte) bool {
	if int(offset)+len(p) > len(ram.data) {
		return false
	}
	copy(p, ram.data[offset:])
	return true
}

func (ram *RAM) Write(offset uint32, p []byte) bool {
	if int(offset)+len(p) > len(ram.data) {
		return false
	}
	copy(ram.data[offset:], p)
	return true
}

func (ram *RAM) Label() string {
	return fmt.Sprintf("RAM %dKB", len(ram.data)/1024)
}
