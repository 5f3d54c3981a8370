// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the CRC-4 protecting a PROM calibration table.
package common

// CRC4 calculates the 4-bit CRC of an 8 word calibration PROM as used by the
// TE Connectivity MS56xx pressure sensors (application note AN520). The low
// byte of the last word holds the CRC itself and is excluded from the
// calculation.
func CRC4(prom [8]uint16) byte {
	prom[7] &= 0xff00
	var rem uint16
	for cnt := range 16 {
		if cnt%2 == 1 {
			rem ^= prom[cnt>>1] & 0x00ff
		} else {
			rem ^= prom[cnt>>1] >> 8
		}
		for range 8 {
			if rem&0x8000 == 0 {
				rem <<= 1
			} else {
				rem = (rem << 1) ^ 0x3000
			}
		}
	}
	return byte(rem>>12) & 0x0f
}
