// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package telemetry publishes barometer readings to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/GermanBionicSystems/baro/internal/config"
)

// ErrStopped is returned by Connect after Disconnect.
var ErrStopped = errors.New("telemetry: client stopped")

const publishTimeout = 5 * time.Second

// Telemetry is the JSON document published for each reading.
type Telemetry struct {
	StationID   string    `json:"station_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature_c"`
	Pressure    float64   `json:"pressure_hpa"`
	Sequence    int       `json:"sequence"`
}

// Topic returns the topic readings of stationID are published on.
func Topic(stationID string) string {
	return fmt.Sprintf("stations/%s/telemetry", stationID)
}

// Client publishes readings to a MQTT broker. Reconnection after a lost
// connection is handled by paho.
type Client struct {
	client  mqtt.Client
	logger  *slog.Logger
	timeout time.Duration

	up   atomic.Bool
	stop chan struct{}
	once sync.Once
}

// NewClient returns a client for the broker named in cfg. It doesn't
// connect.
func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	c := &Client{logger: logger, timeout: publishTimeout, stop: make(chan struct{})}
	c.client = mqtt.NewClient(c.options(cfg))
	return c
}

// options keeps c.up in sync with paho's connection callbacks.
func (c *Client) options(cfg config.Config) *mqtt.ClientOptions {
	broker := fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort)
	return mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(cfg.MQTTClientID).
		SetCleanSession(true).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Minute).
		SetOnConnectHandler(func(mqtt.Client) {
			c.up.Store(true)
			c.logger.Info("mqtt up", "broker", broker)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.up.Store(false)
			c.logger.Warn("mqtt down", "broker", broker, "error", err)
		})
}

// Connect blocks until the broker accepted the connection, ctx is done or
// Disconnect is called.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stop:
		return ErrStopped
	default:
	}
	if c.IsConnected() {
		return nil
	}
	token := c.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stop:
		return ErrStopped
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: connect: %w", err)
	}
	c.up.Store(true)
	return nil
}

// Publish sends t with QoS 1 on Topic(t.StationID). A zero timestamp is
// replaced by the current time.
func (c *Client) Publish(t Telemetry) error {
	if !c.IsConnected() {
		return errors.New("telemetry: not connected")
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	topic := Topic(t.StationID)
	token := c.client.Publish(topic, 1, false, payload)
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("telemetry: publish on %s: timeout after %s", topic, c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: publish on %s: %w", topic, err)
	}
	c.logger.Debug("published", "topic", topic, "sequence", t.Sequence)
	return nil
}

// IsConnected reports whether readings can currently be published.
func (c *Client) IsConnected() bool {
	return c.up.Load() && c.client.IsConnected()
}

// Disconnect closes the connection and makes later Connect calls fail with
// ErrStopped. It can be called more than once.
func (c *Client) Disconnect() {
	c.once.Do(func() { close(c.stop) })
	c.client.Disconnect(250)
	c.up.Store(false)
	c.logger.Info("mqtt closed")
}
