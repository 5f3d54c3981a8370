// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GermanBionicSystems/baro/internal/config"
	"github.com/GermanBionicSystems/baro/ms5611"
)

func TestApplyFlags(t *testing.T) {
	cmd := NewCommand()
	flags := cmd.PersistentFlags()
	require.NoError(t, flags.Parse([]string{"--log-level", "debug", "--spi", "SPI1.0", "--cs", "GPIO25", "--oversampling", "512", "--timeout", "20ms"}))

	cfg, err := config.Load(func(string) string { return "" })
	require.NoError(t, err)
	require.NoError(t, applyFlags(flags, &cfg))
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "SPI1.0", cfg.SPIPort)
	assert.Equal(t, "GPIO25", cfg.CSPin)
	assert.Equal(t, ms5611.OSR512, cfg.Oversampling)
	assert.Equal(t, 20*time.Millisecond, cfg.SPITimeout)
}

func TestApplyFlagsUnchangedKeepsEnv(t *testing.T) {
	cmd := NewCommand()
	flags := cmd.PersistentFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := config.Load(func(k string) string {
		if k == "CS_PIN" {
			return "GPIO7"
		}
		return ""
	})
	require.NoError(t, err)
	require.NoError(t, applyFlags(flags, &cfg))
	assert.Equal(t, "GPIO7", cfg.CSPin)
}

func TestApplyFlagsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--log-level", "loud"},
		{"--oversampling", "100"},
		{"--timeout=-1s"},
	} {
		flags := NewCommand().PersistentFlags()
		require.NoError(t, flags.Parse(args))
		cfg := config.Config{}
		assert.Error(t, applyFlags(flags, &cfg), "%v", args)
	}
}

func TestApplyRunFlags(t *testing.T) {
	run := newRunCommand(&config.Config{}, new(*slog.Logger))
	flags := run.Flags()
	require.NoError(t, flags.Parse([]string{"--interval", "2s", "--station", "roof", "--broker", "mqtt.local", "--port", "1884"}))
	cfg := config.Config{SensorPollInterval: time.Second, MQTTPort: 1883}
	require.NoError(t, applyRunFlags(flags, &cfg))
	assert.Equal(t, 2*time.Second, cfg.SensorPollInterval)
	assert.Equal(t, "roof", cfg.DeviceStationID)
	assert.Equal(t, "mqtt.local", cfg.MQTTBroker)
	assert.Equal(t, 1884, cfg.MQTTPort)

	for _, args := range [][]string{{"--interval", "0s"}, {"--port", "0"}} {
		flags := newRunCommand(&config.Config{}, new(*slog.Logger)).Flags()
		require.NoError(t, flags.Parse(args))
		assert.Error(t, applyRunFlags(flags, &cfg), "%v", args)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dev\n", out.String())
}
