// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package station polls a barometer and forwards its readings.
package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/baro/internal/config"
	"github.com/GermanBionicSystems/baro/internal/logging"
	"github.com/GermanBionicSystems/baro/internal/telemetry"
	"github.com/GermanBionicSystems/baro/ms5611"
)

// Sensor is implemented by *ms5611.Dev.
type Sensor interface {
	Sense(e *physic.Env) error
}

// Publisher is implemented by *telemetry.Client.
type Publisher interface {
	Publish(t telemetry.Telemetry) error
}

// Options configures Run.
type Options struct {
	// StationID is copied into every published reading.
	StationID string
	// Interval between two readings. Must be positive.
	Interval time.Duration
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Open initializes periph, opens the SPI port and chip select pin named in
// cfg and returns the initialized sensor. closer releases the port.
func Open(cfg config.Config, logger *slog.Logger) (dev *ms5611.Dev, closer func() error, err error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("host.Init: %w", err)
	}
	p, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, nil, fmt.Errorf("spireg.Open(%q): %w", cfg.SPIPort, err)
	}
	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		_ = p.Close()
		return nil, nil, fmt.Errorf("unknown chip select pin %q", cfg.CSPin)
	}
	opts := ms5611.DefaultOpts
	opts.Timeout = cfg.SPITimeout
	opts.Oversampling = cfg.Oversampling
	opts.CheckCRC = cfg.CheckCRC
	dev, err = ms5611.NewSPI(p, cs, &opts)
	if err != nil {
		_ = p.Close()
		return nil, nil, err
	}
	dev.EnableDebug(logging.DebugF(logger))
	logger.Info("sensor ready", "device", dev.String(), "spi", cfg.SPIPort, "cs", cfg.CSPin, "oversampling", cfg.Oversampling.String())
	return dev, p.Close, nil
}

// Telemetry converts a sensed environment into a telemetry document.
func Telemetry(stationID string, seq int, e *physic.Env) telemetry.Telemetry {
	return telemetry.Telemetry{
		StationID:   stationID,
		Timestamp:   time.Now(),
		Temperature: e.Temperature.Celsius(),
		// physic.Pressure is in nPa.
		Pressure: float64(e.Pressure) / float64(100*physic.Pascal),
		Sequence: seq,
	}
}

// Run senses on every tick of opts.Interval and publishes each reading
// until ctx is done. A failed reading or publish is logged and the loop goes
// on with the next tick.
func Run(ctx context.Context, s Sensor, p Publisher, opts Options) error {
	if opts.Interval <= 0 {
		return errors.New("station: interval must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	seq := 0
	failures := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("station stopped", "readings", seq, "failures", failures)
			return ctx.Err()
		case <-ticker.C:
			var env physic.Env
			if err := s.Sense(&env); err != nil {
				failures++
				logger.Warn("sense failed", "error", err, "failures", failures)
				continue
			}
			seq++
			t := Telemetry(opts.StationID, seq, &env)
			logger.Debug("reading", "temperature_c", t.Temperature, "pressure_hpa", t.Pressure, "sequence", seq)
			if err := p.Publish(t); err != nil {
				logger.Warn("publish failed", "error", err, "sequence", seq)
			}
		}
	}
}
