// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package link frames telemetry for the planner backend and decodes the
// single-byte drive commands it sends back.
package link

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

// DefaultPollInterval paces the downlink read loop between empty reads.
const DefaultPollInterval = 10 * time.Millisecond

// Link is a line-oriented telemetry channel over a serial port or TCP
// connection. Uplink carries JSON frames, downlink carries bare command
// bytes.
type Link struct {
	port io.ReadWriteCloser
	w    *bufio.Writer
	poll time.Duration
	rbuf [1]byte
}

func New(port io.ReadWriteCloser) *Link {
	return &Link{
		port: port,
		w:    bufio.NewWriter(port),
		poll: DefaultPollInterval,
	}
}

// SendFrame writes one encoded frame and flushes it onto the wire.
func (l *Link) SendFrame(f Frame) error {
	b, err := f.Encode()
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("flushing frame: %w", err)
	}
	return nil
}

// ReadCommand waits up to timeout for a command byte from the backend.
// Bytes that do not map to a command, line terminators included, are
// discarded. When the window closes without a valid byte the previous
// command is returned with ok=false so the caller keeps doing whatever it
// was doing.
//
// Serial ports configured with a short inter-character timeout surface
// silence as io.EOF; net.Conn peers surface it as a deadline error. Both
// are treated the same way here: not an error, just nothing to read yet.
func (l *Link) ReadCommand(timeout time.Duration, last nav.Command) (nav.Command, bool) {
	deadline := time.Now().Add(timeout)
	if c, ok := l.port.(net.Conn); ok {
		c.SetReadDeadline(deadline)
		defer c.SetReadDeadline(time.Time{})
	}
	for time.Now().Before(deadline) {
		n, _ := l.port.Read(l.rbuf[:])
		if n > 0 {
			if cmd, ok := nav.ParseCommandByte(l.rbuf[0]); ok {
				return cmd, true
			}
			continue
		}
		time.Sleep(l.poll)
	}
	return last, false
}

func (l *Link) Close() error {
	return l.port.Close()
}
