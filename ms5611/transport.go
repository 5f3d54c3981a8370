// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ms5611

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// DebugF the debug function type.
type DebugF func(string, ...interface{})

// Bus is the serial transport the sensor is attached to.
//
// Transmit must deliver w in order and unmodified. Receive must fill r
// completely or fail. Both give up after timeout; a zero timeout means the
// transport's own limit applies.
type Bus interface {
	Transmit(w []byte, timeout time.Duration) error
	Receive(r []byte, timeout time.Duration) error
}

// Selector drives the chip select line of the sensor. Select(true) enables
// the device for a transaction, Select(false) ends it.
type Selector interface {
	Select(asserted bool)
}

// spiBus implements Bus on top of a periph SPI connection opened with
// spi.NoCS, so that chip select stays under the control of a Selector across
// the command and response phases.
//
// A transfer that times out keeps running on the connection. Until it
// completes, every new transfer fails with ErrTimeout without touching the
// connection, so two transfers never overlap.
type spiBus struct {
	conn spi.Conn
	// pending is closed when the last timed out transfer completes. nil when
	// the connection is idle.
	pending chan struct{}
}

func (b *spiBus) Transmit(w []byte, timeout time.Duration) error {
	return b.tx(w, nil, timeout)
}

func (b *spiBus) Receive(r []byte, timeout time.Duration) error {
	// The device ignores MOSI while shifting out data.
	return b.tx(make([]byte, len(r)), r, timeout)
}

func (b *spiBus) tx(w, r []byte, timeout time.Duration) error {
	if b.pending != nil {
		select {
		case <-b.pending:
			b.pending = nil
		default:
			return ErrTimeout
		}
	}
	if timeout <= 0 {
		return b.conn.Tx(w, r)
	}
	// The transfer writes to its own buffer so a late completion after a
	// timeout can't touch r.
	var buf []byte
	if r != nil {
		buf = make([]byte, len(r))
	}
	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		done <- b.conn.Tx(w, buf)
		close(finished)
	}()
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case err := <-done:
		if err == nil {
			copy(r, buf)
		}
		return err
	case <-t.C:
		b.pending = finished
		return ErrTimeout
	}
}

// pinSelector drives an active low chip select pin.
type pinSelector struct {
	pin   gpio.PinOut
	debug DebugF
}

func (s *pinSelector) Select(asserted bool) {
	l := gpio.High
	if asserted {
		l = gpio.Low
	}
	if err := s.pin.Out(l); err != nil {
		s.debug("cs %s: %v", l, err)
	}
}

func noop(string, ...interface{}) {}
