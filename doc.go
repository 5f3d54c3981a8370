// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package baro is a container for the MS5611 barometer driver and the
// station tool built on it.
//
// The driver lives in ms5611, the command line tool in cmd/barometer.
package baro
