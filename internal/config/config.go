// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the barometer station configuration from the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/baro/ms5611"
)

// Config is the station configuration. Every field has a matching
// environment variable, see Load.
type Config struct {
	AppEnv   string
	LogLevel slog.Level

	SPIPort      string
	CSPin        string
	SPITimeout   time.Duration
	Oversampling ms5611.Oversampling
	// CheckCRC enables the PROM CRC check of the sensor.
	CheckCRC bool

	SensorPollInterval time.Duration
	DeviceStationID    string

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
}

// LoadFromEnv reads the configuration from the process environment.
func LoadFromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load reads the configuration through getenv. Unset variables take their
// default value.
func Load(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	appEnv := get("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := ParseLogLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	spiTimeoutStr := get("SPI_TIMEOUT", "10ms")
	spiTimeout, err := time.ParseDuration(spiTimeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SPI_TIMEOUT %q: %w", spiTimeoutStr, err)
	}
	if spiTimeout < 0 {
		return Config{}, fmt.Errorf("SPI_TIMEOUT must not be negative, got %v", spiTimeout)
	}

	osr, err := ParseOversampling(get("OVERSAMPLING", "4096"))
	if err != nil {
		return Config{}, err
	}

	checkCRCStr := get("CHECK_CRC", "false")
	checkCRC, err := strconv.ParseBool(checkCRCStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid CHECK_CRC %q: %w", checkCRCStr, err)
	}

	pollStr := get("SENSOR_POLL_INTERVAL", "1s")
	poll, err := time.ParseDuration(pollStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_POLL_INTERVAL %q: %w", pollStr, err)
	}
	if poll <= 0 {
		return Config{}, fmt.Errorf("SENSOR_POLL_INTERVAL must be positive, got %v", poll)
	}

	mqttPortStr := get("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT out of range: %d", mqttPort)
	}

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		SPIPort:            get("SPI_PORT", ""),
		CSPin:              get("CS_PIN", "GPIO8"),
		SPITimeout:         spiTimeout,
		Oversampling:       osr,
		CheckCRC:           checkCRC,
		SensorPollInterval: poll,
		DeviceStationID:    get("DEVICE_STATION_ID", "home"),
		MQTTBroker:         get("MQTT_BROKER", "localhost"),
		MQTTPort:           mqttPort,
		MQTTClientID:       get("MQTT_CLIENT_ID", "barometer"),
	}, nil
}

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

// ParseOversampling parses a ratio such as "4096" into its command code.
func ParseOversampling(s string) (ms5611.Oversampling, error) {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "OSR") {
	case "256":
		return ms5611.OSR256, nil
	case "512":
		return ms5611.OSR512, nil
	case "1024":
		return ms5611.OSR1024, nil
	case "2048":
		return ms5611.OSR2048, nil
	case "4096":
		return ms5611.OSR4096, nil
	default:
		return 0, fmt.Errorf("invalid OVERSAMPLING %q (allowed: 256, 512, 1024, 2048, 4096)", s)
	}
}
