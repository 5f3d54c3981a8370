// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ms5611

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCalibration is returned by Initialize when the PROM content
	// does not describe a working device.
	ErrInvalidCalibration = errors.New("ms5611: invalid calibration")
	// ErrNotInitialized is returned by Sense before a successful Initialize.
	ErrNotInitialized = errors.New("ms5611: not initialized")
	// ErrInvalidOversampling is returned when a conversion is requested with
	// an unknown oversampling code.
	ErrInvalidOversampling = errors.New("ms5611: invalid oversampling")
	// ErrTimeout is wrapped in a BusError when a transfer did not complete
	// within Opts.Timeout.
	ErrTimeout = errors.New("ms5611: transfer timeout")
)

// BusError reports a failed transmit or receive on the serial bus. The select
// line has been released by the time it is returned.
type BusError struct {
	// Op is "transmit" or "receive".
	Op string
	// Cmd is the command byte of the transaction that failed.
	Cmd byte
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("ms5611: %s failed for command 0x%02x: %v", e.Op, e.Cmd, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
