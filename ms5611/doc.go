// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ms5611 controls a TE Connectivity MS5611-01BA barometric pressure
// sensor over SPI.
//
// The driver is split in two. The protocol driver (Dev) sequences the
// command bytes on the bus, each transaction framed by the chip select line,
// and loads the factory calibration once. Compensate is a pure function that
// turns a raw ADC sample pair into temperature and pressure using that
// calibration, including the second order correction below 20°C.
//
// Conversions are single shot. The caller waits Oversampling.ConversionTime
// between starting a conversion and reading its result, and must read a
// result before starting the next conversion since the device has a single
// result register. Dev.Sense does the whole sequence for callers that do not
// need finer control.
//
// # Datasheet
//
// https://www.te.com/commerce/DocumentDelivery/DDEController?Action=showdoc&DocId=Data+Sheet%7FMS5611-01BA03%7FB3%7Fpdf%7FEnglish%7FENG_DS_MS5611-01BA03_B3.pdf
//
// The PROM CRC is described in application note AN520.
package ms5611
