// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ms5611

import (
	"encoding/binary"
	"errors"
	"math"
	"math/bits"
	"testing"

	"periph.io/x/conn/v3/physic"
)

// Coefficients of the datasheet worked example. The CRC of this table is 0.
var datasheetPROM = Calibration{0, 40127, 36924, 23317, 23282, 33464, 28312, 0}

func TestCompensate(t *testing.T) {
	var tests = []struct {
		name   string
		sample RawSample
		cal    Calibration
		want   Reading
	}{
		{
			name:   "datasheet",
			sample: RawSample{Pressure: 9085466, Temperature: 8569150},
			cal:    datasheetPROM,
			want:   Reading{Temperature: 2007, Pressure: 100009},
		},
		{
			// dT is negative, which checks that shifts round toward -inf.
			name:   "below 20C",
			sample: RawSample{Pressure: 6465444, Temperature: 8077636},
			cal:    datasheetPROM,
			want:   Reading{Temperature: 238, Pressure: 48272},
		},
		{
			name:   "below 20C second",
			sample: RawSample{Pressure: 9085466, Temperature: 8066784},
			cal:    datasheetPROM,
			want:   Reading{Temperature: 196, Pressure: 96494},
		},
		{
			name:   "below -15C",
			sample: RawSample{Pressure: 9085466, Temperature: 7466784},
			cal:    datasheetPROM,
			want:   Reading{Temperature: -2276, Pressure: 91603},
		},
		{
			// TEMP is exactly 2000, the second order branch is not taken.
			name:   "zero",
			sample: RawSample{},
			cal:    Calibration{},
			want:   Reading{Temperature: 2000, Pressure: 0},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Compensate(test.sample, &test.cal); got != test.want {
				t.Errorf("Compensate(%+v) = %+v, expected %+v", test.sample, got, test.want)
			}
		})
	}
}

func TestCompensateVeryColdContributes(t *testing.T) {
	s := RawSample{Pressure: 9085466, Temperature: 7466784}
	// Same computation with the -15°C correction left out.
	const withoutVeryCold = 91626
	got := Compensate(s, &datasheetPROM)
	if got.Pressure == withoutVeryCold {
		t.Fatalf("very cold correction had no effect: %d", got.Pressure)
	}
	off2, sens2 := veryLowTemperature(-1713)
	if off2 <= 0 || sens2 <= 0 {
		t.Errorf("veryLowTemperature(-1713) = %d, %d", off2, sens2)
	}
	if off2, sens2 := veryLowTemperature(-1500); off2 != 0 || sens2 != 0 {
		t.Errorf("veryLowTemperature(-1500) = %d, %d, expected 0, 0", off2, sens2)
	}
}

func TestLowTemperature(t *testing.T) {
	t2, off2, sens2 := lowTemperature(1000, -1000000)
	if t2 != 465 {
		t.Errorf("t2 = %d", t2)
	}
	if off2 != 2500000 {
		t.Errorf("off2 = %d", off2)
	}
	if sens2 != 1250000 {
		t.Errorf("sens2 = %d", sens2)
	}
}

func TestWordFromWire(t *testing.T) {
	for _, b := range [][]byte{{0x9c, 0xbf}, {0x00, 0x01}, {0x80, 0x00}, {0xff, 0xfe}} {
		got := wordFromWire(b)
		// A little endian host reading the raw bytes needs a swap.
		if want := bits.ReverseBytes16(binary.LittleEndian.Uint16(b)); got != want {
			t.Errorf("wordFromWire(%x) = 0x%04x, expected 0x%04x", b, got, want)
		}
	}
	if got := wordFromWire([]byte{0x9c, 0xbf}); got != 40127 {
		t.Errorf("wordFromWire = %d", got)
	}
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name    string
		cal     Calibration
		crc     bool
		invalid bool
	}{
		{name: "datasheet", cal: datasheetPROM, crc: true},
		{name: "zero offset", cal: Calibration{0, 40127, 0, 23317, 23282, 33464, 28312, 0}, invalid: true},
		{name: "tref all ones", cal: Calibration{0, 40127, 36924, 23317, 23282, 0xffff, 28312, 0}, invalid: true},
		{name: "crc mismatch", cal: Calibration{0, 40127, 36924, 23317, 23282, 33464, 28312, 5}, crc: true, invalid: true},
		{name: "crc ignored", cal: Calibration{0, 40127, 36924, 23317, 23282, 33464, 28312, 5}},
		{name: "empty", cal: Calibration{}, invalid: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cal.Validate(test.crc)
			if test.invalid {
				if !errors.Is(err, ErrInvalidCalibration) {
					t.Errorf("expected ErrInvalidCalibration, got %v", err)
				}
			} else if err != nil {
				t.Error(err)
			}
		})
	}
}

func TestCalibrationAccessors(t *testing.T) {
	c := Calibration{1, 2, 3, 4, 5, 6, 7, 8}
	got := []uint16{
		c.Reserved(),
		c.PressureSensitivity(),
		c.PressureOffset(),
		c.TempCoeffPressureSensitivity(),
		c.TempCoeffPressureOffset(),
		c.ReferenceTemperature(),
		c.TempCoeffTemperature(),
		c.Checksum(),
	}
	for i, v := range got {
		if v != c[i] {
			t.Errorf("accessor %d returned %d, expected %d", i, v, c[i])
		}
	}
}

func TestReadingEnv(t *testing.T) {
	e := physic.Env{}
	Reading{Temperature: 2007, Pressure: 100009}.Env(&e)
	if expected := 20070*physic.MilliCelsius + physic.ZeroCelsius; e.Temperature != expected {
		t.Errorf("temperature %s(%d) != %s(%d)", expected, expected, e.Temperature, e.Temperature)
	}
	if expected := 100009 * physic.Pascal; e.Pressure != expected {
		t.Errorf("pressure %s(%d) != %s(%d)", expected, expected, e.Pressure, e.Pressure)
	}
}

func TestReadingString(t *testing.T) {
	var tests = []struct {
		r    Reading
		want string
	}{
		{Reading{Temperature: 2007, Pressure: 100009}, "20.07°C 1000.09mbar"},
		{Reading{Temperature: -2276, Pressure: 91603}, "-22.76°C 916.03mbar"},
		{Reading{Temperature: -5, Pressure: 0}, "-0.05°C 0.00mbar"},
		{Reading{Temperature: math.MinInt32, Pressure: math.MaxInt32}, "-21474836.48°C 21474836.47mbar"},
	}
	for _, test := range tests {
		if got := test.r.String(); got != test.want {
			t.Errorf("String() = %q, expected %q", got, test.want)
		}
	}
}
