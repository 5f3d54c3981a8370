// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ms5611

import (
	"encoding/binary"
	"fmt"

	"github.com/GermanBionicSystems/baro/common"
	"periph.io/x/conn/v3/physic"
)

// Calibration holds the eight PROM words of the device, in PROM order.
//
// Word 0 is factory data, words 1 to 6 are the coefficients C1 to C6 of the
// datasheet and the low nibble of word 7 is the CRC-4 of the whole table.
type Calibration [8]uint16

// Reserved returns the factory data word.
func (c *Calibration) Reserved() uint16 { return c[0] }

// PressureSensitivity returns C1, SENS_T1.
func (c *Calibration) PressureSensitivity() uint16 { return c[1] }

// PressureOffset returns C2, OFF_T1.
func (c *Calibration) PressureOffset() uint16 { return c[2] }

// TempCoeffPressureSensitivity returns C3, TCS.
func (c *Calibration) TempCoeffPressureSensitivity() uint16 { return c[3] }

// TempCoeffPressureOffset returns C4, TCO.
func (c *Calibration) TempCoeffPressureOffset() uint16 { return c[4] }

// ReferenceTemperature returns C5, T_REF.
func (c *Calibration) ReferenceTemperature() uint16 { return c[5] }

// TempCoeffTemperature returns C6, TEMPSENS.
func (c *Calibration) TempCoeffTemperature() uint16 { return c[6] }

// Checksum returns the last PROM word. Only its low 4 bits are the CRC.
func (c *Calibration) Checksum() uint16 { return c[7] }

// CRC returns the CRC-4 computed over the table.
func (c *Calibration) CRC() byte {
	return common.CRC4(*c)
}

// Validate reports ErrInvalidCalibration if the table can't come from a
// working device. A zero offset or an all ones reference temperature is what
// an absent device or a stuck bus reads back. The CRC is only checked when
// checkCRC is set.
func (c *Calibration) Validate(checkCRC bool) error {
	if c.PressureOffset() == 0 {
		return fmt.Errorf("%w: zero pressure offset", ErrInvalidCalibration)
	}
	if c.ReferenceTemperature() == 0xFFFF {
		return fmt.Errorf("%w: reference temperature 0x%04x", ErrInvalidCalibration, c.ReferenceTemperature())
	}
	if checkCRC {
		if got, want := c.CRC(), byte(c.Checksum()&0x0F); got != want {
			return fmt.Errorf("%w: crc 0x%x, expected 0x%x", ErrInvalidCalibration, got, want)
		}
	}
	return nil
}

// wordFromWire decodes a PROM word as sent on the wire, MSB first.
func wordFromWire(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// RawSample is a pair of uncompensated 24 bit ADC results.
type RawSample struct {
	// Pressure is D1.
	Pressure uint32
	// Temperature is D2.
	Temperature uint32
}

// Reading is a compensated measurement.
type Reading struct {
	// Temperature in 0.01°C. 2007 is 20.07°C.
	Temperature int32
	// Pressure in 0.01mbar, which is Pa. 100009 is 1000.09mbar.
	Pressure int32
}

// Env stores the reading in e.
func (r Reading) Env(e *physic.Env) {
	e.Temperature = physic.Temperature(r.Temperature)*10*physic.MilliCelsius + physic.ZeroCelsius
	e.Pressure = physic.Pressure(r.Pressure) * physic.Pascal
}

func (r Reading) String() string {
	return centi(r.Temperature) + "°C " + centi(r.Pressure) + "mbar"
}

// centi formats a value expressed in hundredths.
func centi(v int32) string {
	sign := ""
	n := int64(v)
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

// Compensate returns the temperature and pressure for the raw sample s using
// the calibration c, following the second order algorithm of the datasheet.
//
// It never fails. A bogus calibration gives a bogus result; Initialize is
// where the calibration gets validated.
func Compensate(s RawSample, c *Calibration) Reading {
	dT := int64(s.Temperature) - int64(c.ReferenceTemperature())<<8
	temp := 2000 + (dT*int64(c.TempCoeffTemperature()))>>23
	off := int64(c.PressureOffset())<<16 + (int64(c.TempCoeffPressureOffset())*dT)>>7
	sens := int64(c.PressureSensitivity())<<15 + (int64(c.TempCoeffPressureSensitivity())*dT)>>8

	if temp < 2000 {
		t2, off2, sens2 := lowTemperature(temp, dT)
		if temp < -1500 {
			o, s2 := veryLowTemperature(temp)
			off2 += o
			sens2 += s2
		}
		temp -= t2
		off -= off2
		sens -= sens2
	}

	p := ((int64(s.Pressure)*sens)>>21 - off) >> 15
	return Reading{Temperature: int32(temp), Pressure: int32(p)}
}

// lowTemperature returns the second order corrections below 20°C.
func lowTemperature(temp, dT int64) (t2, off2, sens2 int64) {
	d := temp - 2000
	t2 = (dT * dT) >> 31
	off2 = (5 * d * d) >> 1
	sens2 = (5 * d * d) >> 2
	return t2, off2, sens2
}

// veryLowTemperature returns the additional corrections below -15°C.
func veryLowTemperature(temp int64) (off2, sens2 int64) {
	d := temp + 1500
	return 7 * d * d, (11 * d * d) >> 1
}
