/*
 * R3000 - ROM device
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
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var ErrEmptyROM = errors.New("ROM image is empty")

type ROM struct {
	name string
	data []byte
}

// Create a new ROM device from an image file.
func NewROM(path string) (*ROM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load ROM image %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyROM, path)
	}
	return &ROM{name: path, data: data}, nil
}

// Create a ROM device from a byte image.
func NewROMImage(data []byte) *ROM {
	return &ROM{name: "image", data: data}
}

// Return size of ROM in bytes.
func (rom *ROM) Size() uint32 {
	return uint32(len(rom.data))
}

func (rom *ROM) Read(offset uint32, p []byte) bool {
	if int(offset)+len(p) > len(rom.data) {
		return false
	}
	copy(p, rom.data[offset:])
	return true
}

// Stores to ROM fail, the bus reports them as a bus error.
func (rom *ROM) Write(offset uint32, p []byte) bool {
	slog.Debug(fmt.Sprintf("ROM write rejected at offset %08x", offset))
	return false
}

func (rom *ROM) Label() string {
	return fmt.Sprintf("ROM %s (%d words)", rom.name, len(rom.data)/4)
}
