package gdb

/*
 * R3000 - GDB remote serial protocol framing test cases.
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
	"io"
	"net"
	"testing"
)

type packetResult struct {
	payload string
	brk     bool
	err     error
}

func readAsync(cl *client) chan packetResult {
	ch := make(chan packetResult, 1)
	go func() {
		payload, brk, err := cl.readPacket()
		ch <- packetResult{payload, brk, err}
	}()
	return ch
}

func TestReadPacket(t *testing.T) {
	end, peer := net.Pipe()
	defer end.Close()
	defer peer.Close()
	cl := newClient(end)

	ch := readAsync(cl)
	if _, err := peer.Write([]byte("+$m100,4#5e")); err != nil {
		t.Fatal(err)
	}
	var ack [1]byte
	if _, err := peer.Read(ack[:]); err != nil {
		t.Fatal(err)
	}
	if ack[0] != '+' {
		t.Errorf("acknowledgement was incorrect got: %c wanted: %c", ack[0], '+')
	}

	result := <-ch
	if result.err != nil || result.brk {
		t.Fatalf("readPacket failed: %v", result.err)
	}
	if result.payload != "m100,4" {
		t.Errorf("payload was incorrect got: %s wanted: %s", result.payload, "m100,4")
	}
}

func TestBadChecksum(t *testing.T) {
	end, peer := net.Pipe()
	defer end.Close()
	defer peer.Close()
	cl := newClient(end)

	ch := readAsync(cl)
	if _, err := peer.Write([]byte("$m100,4#00$m100,4#5e")); err != nil {
		t.Fatal(err)
	}

	var acks [2]byte
	for i := range acks {
		if _, err := peer.Read(acks[i : i+1]); err != nil {
			t.Fatal(err)
		}
	}
	if acks[0] != '-' {
		t.Errorf("bad packet acknowledgement was incorrect got: %c wanted: %c", acks[0], '-')
	}
	if acks[1] != '+' {
		t.Errorf("good packet acknowledgement was incorrect got: %c wanted: %c", acks[1], '+')
	}

	result := <-ch
	if result.payload != "m100,4" {
		t.Errorf("payload was incorrect got: %s wanted: %s", result.payload, "m100,4")
	}
}

func TestInterruptCharacter(t *testing.T) {
	end, peer := net.Pipe()
	defer end.Close()
	defer peer.Close()
	cl := newClient(end)

	ch := readAsync(cl)
	if _, err := peer.Write([]byte{interruptChar}); err != nil {
		t.Fatal(err)
	}
	result := <-ch
	if result.err != nil {
		t.Fatal(result.err)
	}
	if !result.brk {
		t.Error("interrupt character was not reported")
	}
}

func TestSendPacket(t *testing.T) {
	end, peer := net.Pipe()
	defer end.Close()
	defer peer.Close()
	cl := newClient(end)

	errs := make(chan error, 1)
	go func() {
		errs <- cl.sendPacket("OK")
	}()

	var buf [6]byte
	if _, err := io.ReadFull(peer, buf[:]); err != nil {
		t.Fatal(err)
	}
	if string(buf[:]) != "$OK#9a" {
		t.Errorf("packet was incorrect got: %s wanted: %s", string(buf[:]), "$OK#9a")
	}
	if err := <-errs; err != nil {
		t.Fatal(err)
	}
}

func TestInterruptPoll(t *testing.T) {
	end, peer := net.Pipe()
	defer end.Close()
	defer peer.Close()
	cl := newClient(end)

	if cl.interrupted() {
		t.Error("idle connection reported an interrupt")
	}

	go func() {
		peer.Write([]byte{interruptChar})
	}()
	hit := false
	for i := 0; i < 100 && !hit; i++ {
		hit = cl.interrupted()
	}
	if !hit {
		t.Error("interrupt character was not seen while polling")
	}
}
