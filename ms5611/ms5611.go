// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ms5611

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	cmdReset      byte = 0x1E
	cmdPROMRead   byte = 0xA0
	cmdConvertD1  byte = 0x40
	cmdConvertD2  byte = 0x50
	cmdReadResult byte = 0x00
)

// ResetTime is how long the device needs to reload its PROM after Reset.
const ResetTime = 3 * time.Millisecond

// The device accepts up to 20MHz in mode 0 or 3.
var (
	SpiFrequency = physic.MegaHertz
	SpiMode      = spi.Mode0
	SpiBits      = 8
)

// State is the device state as seen by the caller.
type State int

// Device states.
const (
	// Uninitialized is the state before a successful Initialize.
	Uninitialized State = iota
	// Ready means the calibration is loaded and no conversion is running.
	Ready
	// ConversionPending means a conversion was started and its result is
	// not read yet.
	ConversionPending
	// Faulted means the last operation failed on the bus or found an
	// invalid calibration.
	Faulted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case ConversionPending:
		return "ConversionPending"
	case Faulted:
		return "Faulted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Oversampling is the oversampling ratio of a conversion. Higher ratios give
// more resolution and take longer.
type Oversampling byte

// Supported oversampling ratios.
const (
	OSR256  Oversampling = 0x00
	OSR512  Oversampling = 0x02
	OSR1024 Oversampling = 0x04
	OSR2048 Oversampling = 0x06
	OSR4096 Oversampling = 0x08
)

// ConversionTime returns the maximum conversion time of the datasheet for o,
// or 0 for an unknown code.
func (o Oversampling) ConversionTime() time.Duration {
	switch o {
	case OSR256:
		return 600 * time.Microsecond
	case OSR512:
		return 1170 * time.Microsecond
	case OSR1024:
		return 2280 * time.Microsecond
	case OSR2048:
		return 4540 * time.Microsecond
	case OSR4096:
		return 9040 * time.Microsecond
	default:
		return 0
	}
}

func (o Oversampling) String() string {
	if o.ConversionTime() == 0 {
		return fmt.Sprintf("Oversampling(0x%02x)", byte(o))
	}
	return fmt.Sprintf("OSR%d", 256<<(o>>1))
}

// Opts holds the configuration options for the device.
type Opts struct {
	// Timeout is handed to every Bus transfer. 0 leaves it to the transport.
	Timeout time.Duration
	// Oversampling used by Sense for both conversions.
	Oversampling Oversampling
	// CheckCRC makes Initialize verify the CRC-4 held in the last PROM word.
	// The offset and reference temperature checks are always done.
	CheckCRC bool
	// Delay blocks for the given duration. Used by Initialize after the reset
	// and by Sense while a conversion runs. Defaults to time.Sleep.
	Delay func(time.Duration)
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Timeout:      10 * time.Millisecond,
	Oversampling: OSR4096,
}

// Dev is a handle to an initialized MS5611 device.
//
// Operations on a Dev are serialized, but nothing prevents another driver
// from using the same physical bus in between; that is up to the caller.
type Dev struct {
	bus   Bus
	sel   Selector
	opts  Opts
	debug DebugF

	mu    sync.Mutex
	cal   Calibration
	valid bool
}

// New returns a Dev talking through bus and sel. It does no I/O; call
// Initialize before converting. opts may be nil.
func New(bus Bus, sel Selector, opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{bus: bus, sel: sel, opts: *opts, debug: noop}
	if d.opts.Delay == nil {
		d.opts.Delay = time.Sleep
	}
	return d
}

// NewSPI returns an object that communicates over SPI to a MS5611 sensor
// whose chip select is wired to cs. The device is reset and its calibration
// loaded. opts may be nil.
func NewSPI(p spi.Port, cs gpio.PinOut, opts *Opts) (*Dev, error) {
	if cs == nil {
		return nil, errors.New("ms5611: a chip select pin is required")
	}
	// Chip select must stay low between the command byte and the response,
	// which are separate transfers.
	c, err := p.Connect(SpiFrequency, SpiMode|spi.NoCS, SpiBits)
	if err != nil {
		return nil, fmt.Errorf("ms5611: %w", err)
	}
	sel := &pinSelector{pin: cs, debug: noop}
	d := New(&spiBus{conn: c}, sel, opts)
	sel.debug = func(format string, args ...interface{}) { d.debug(format, args...) }
	// Leave the device deselected.
	sel.Select(false)
	if _, err := d.Initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

// EnableDebug sets the debugging output using the local print function.
func (d *Dev) EnableDebug(f DebugF) {
	d.debug = f
}

func (d *Dev) String() string {
	return "MS5611"
}

// transaction runs fn with the device selected. The select line is released
// on every return path.
func (d *Dev) transaction(fn func() error) error {
	d.sel.Select(true)
	defer d.sel.Select(false)
	return fn()
}

func (d *Dev) transmit(cmd byte) error {
	if err := d.bus.Transmit([]byte{cmd}, d.opts.Timeout); err != nil {
		return &BusError{Op: "transmit", Cmd: cmd, Err: err}
	}
	return nil
}

func (d *Dev) receive(cmd byte, r []byte) error {
	if err := d.bus.Receive(r, d.opts.Timeout); err != nil {
		return &BusError{Op: "receive", Cmd: cmd, Err: err}
	}
	return nil
}

// command sends a single command byte in its own transaction.
func (d *Dev) command(cmd byte) error {
	d.debug("command 0x%02x", cmd)
	return d.transaction(func() error {
		return d.transmit(cmd)
	})
}

// query sends cmd and reads len(r) bytes back in one transaction.
func (d *Dev) query(cmd byte, r []byte) error {
	err := d.transaction(func() error {
		if err := d.transmit(cmd); err != nil {
			return err
		}
		return d.receive(cmd, r)
	})
	if err == nil {
		d.debug("command 0x%02x read %x", cmd, r)
	}
	return err
}

// Reset sends the reset sequence. The device reloads its PROM afterwards and
// must be left alone for ResetTime.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.command(cmdReset)
}

// ReadCalibration reads the eight PROM words. On error the returned table is
// empty; a partial read is never returned.
func (d *Dev) ReadCalibration() (Calibration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readCalibration()
}

func (d *Dev) readCalibration() (Calibration, error) {
	var c Calibration
	var buf [2]byte
	for i := range c {
		if err := d.query(cmdPROMRead|byte(i)<<1, buf[:]); err != nil {
			return Calibration{}, err
		}
		c[i] = wordFromWire(buf[:])
	}
	return c, nil
}

// Initialize resets the device and loads its calibration. It returns Ready
// when the calibration is valid, Faulted otherwise. Calling it again reloads
// the calibration.
func (d *Dev) Initialize() (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.valid = false
	if err := d.command(cmdReset); err != nil {
		return Faulted, err
	}
	d.opts.Delay(ResetTime)
	c, err := d.readCalibration()
	if err != nil {
		return Faulted, err
	}
	if err := c.Validate(d.opts.CheckCRC); err != nil {
		d.debug("calibration %04x rejected: %v", c[:], err)
		return Faulted, err
	}
	d.cal = c
	d.valid = true
	return Ready, nil
}

// Calibration returns the calibration loaded by Initialize. ok is false when
// the device wasn't successfully initialized.
func (d *Dev) Calibration() (c Calibration, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cal, d.valid
}

// StartPressureConversion starts a D1 conversion. Wait o.ConversionTime()
// before calling ReadConversionResult.
func (d *Dev) StartPressureConversion(o Oversampling) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startConversion(cmdConvertD1, o)
}

// StartTemperatureConversion starts a D2 conversion. Wait o.ConversionTime()
// before calling ReadConversionResult.
func (d *Dev) StartTemperatureConversion(o Oversampling) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startConversion(cmdConvertD2, o)
}

func (d *Dev) startConversion(cmd byte, o Oversampling) (State, error) {
	if o.ConversionTime() == 0 {
		return Faulted, fmt.Errorf("%w: 0x%02x", ErrInvalidOversampling, byte(o))
	}
	if err := d.command(cmd | byte(o)); err != nil {
		return Faulted, err
	}
	return ConversionPending, nil
}

// ReadConversionResult reads the 24 bit result of the last conversion. An
// error means the device is Faulted.
func (d *Dev) ReadConversionResult() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readResult()
}

func (d *Dev) readResult() (uint32, error) {
	var r [3]byte
	if err := d.query(cmdReadResult, r[:]); err != nil {
		return 0, err
	}
	return uint32(r[0])<<16 | uint32(r[1])<<8 | uint32(r[2]), nil
}

// convert runs a full conversion cycle and returns the raw result.
func (d *Dev) convert(cmd byte, o Oversampling) (uint32, error) {
	if _, err := d.startConversion(cmd, o); err != nil {
		return 0, err
	}
	d.opts.Delay(o.ConversionTime())
	return d.readResult()
}

// Sample runs a temperature then a pressure conversion at the configured
// oversampling and returns the raw results.
func (d *Dev) Sample() (RawSample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sample()
}

func (d *Dev) sample() (RawSample, error) {
	var s RawSample
	var err error
	if s.Temperature, err = d.convert(cmdConvertD2, d.opts.Oversampling); err != nil {
		return RawSample{}, err
	}
	if s.Pressure, err = d.convert(cmdConvertD1, d.opts.Oversampling); err != nil {
		return RawSample{}, err
	}
	return s, nil
}

// Sense implements physic.SenseEnv. It runs both conversions, waiting for
// each through Opts.Delay, and stores the compensated temperature and
// pressure in e. Humidity is not measured.
func (d *Dev) Sense(e *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid {
		return ErrNotInitialized
	}
	s, err := d.sample()
	if err != nil {
		return err
	}
	Compensate(s, &d.cal).Env(e)
	e.Humidity = 0
	return nil
}

// SenseContinuous implements physic.SenseEnv. Scheduling samples is left to
// the caller, so it always fails.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	return nil, errors.New("ms5611: SenseContinuous is not supported, call Sense on a ticker")
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Pressure = physic.Pascal
	e.Humidity = 0
}

// Halt implements conn.Resource. Conversions are single shot so there is
// nothing to stop.
func (d *Dev) Halt() error {
	return nil
}
