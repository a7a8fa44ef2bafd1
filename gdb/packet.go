/*
 * R3000 - GDB remote serial protocol framing.
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
	"bufio"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Packets travel as $payload#cc where cc is the checksum of the
// payload as two hex digits. The receiver acknowledges each packet
// with + for good or - for bad. Character 0x03 outside a packet asks
// the stub to interrupt a running program.
const interruptChar = 0x03

type client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newClient(conn net.Conn) *client {
	return &client{conn: conn, reader: bufio.NewReader(conn)}
}

// Checksum is the sum of the payload bytes modulo 256.
func checksum(payload string) byte {
	var sum byte
	for i := 0; i < len(payload); i++ {
		sum += payload[i]
	}
	return sum
}

// Read one packet from the debugger. Acknowledgements and line noise
// before the start marker are skipped. Returns the payload, or break
// true when an interrupt character arrived instead of a packet.
func (cl *client) readPacket() (string, bool, error) {
	for {
		start, err := cl.reader.ReadByte()
		if err != nil {
			return "", false, err
		}
		switch start {
		case interruptChar:
			return "", true, nil
		case '$':
		default:
			continue
		}

		payload, err := cl.readPayload()
		if err != nil {
			return "", false, err
		}
		sum, err := cl.readChecksum()
		if err != nil {
			return "", false, err
		}
		if sum != checksum(payload) {
			if _, err := cl.conn.Write([]byte{'-'}); err != nil {
				return "", false, err
			}
			continue
		}
		if _, err := cl.conn.Write([]byte{'+'}); err != nil {
			return "", false, err
		}
		return payload, false, nil
	}
}

// Collect payload bytes up to the checksum marker.
func (cl *client) readPayload() (string, error) {
	var payload []byte
	for {
		b, err := cl.reader.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '#' {
			return string(payload), nil
		}
		payload = append(payload, b)
	}
}

// Read the two checksum digits following the payload.
func (cl *client) readChecksum() (byte, error) {
	var digits [2]byte
	for i := range digits {
		b, err := cl.reader.ReadByte()
		if err != nil {
			return 0, err
		}
		digits[i] = b
	}
	value, err := strconv.ParseUint(string(digits[:]), 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(value), nil
}

// Send a reply packet. The debugger's acknowledgement is picked up by
// the next readPacket call.
func (cl *client) sendPacket(payload string) error {
	_, err := fmt.Fprintf(cl.conn, "$%s#%02x", payload, checksum(payload))
	return err
}

// Check for an interrupt character while the program is running. The
// poll must not block execution, so the read uses a short deadline.
func (cl *client) interrupted() bool {
	for cl.reader.Buffered() > 0 {
		b, err := cl.reader.ReadByte()
		if err != nil {
			return false
		}
		if b == interruptChar {
			return true
		}
	}

	if err := cl.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false
	}
	defer func() {
		_ = cl.conn.SetReadDeadline(time.Time{})
	}()

	var buf [1]byte
	n, err := cl.conn.Read(buf[:])
	return err == nil && n == 1 && buf[0] == interruptChar
}
