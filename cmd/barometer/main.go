// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// barometer reads a MS5611 pressure sensor on SPI, once or periodically
// publishing the readings over MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/GermanBionicSystems/baro/internal/config"
	"github.com/GermanBionicSystems/baro/internal/logging"
	"github.com/GermanBionicSystems/baro/internal/station"
	"github.com/GermanBionicSystems/baro/internal/telemetry"
	"github.com/GermanBionicSystems/baro/ms5611"
	"periph.io/x/conn/v3/physic"
)

var version = "dev"

const appName = "barometer"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// NewCommand returns the root command.
func NewCommand() *cobra.Command {
	var cfg config.Config
	var logger *slog.Logger

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "barometer reads a MS5611 pressure sensor",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.LoadFromEnv(); err != nil {
				return err
			}
			if err = applyFlags(cmd.Flags(), &cfg); err != nil {
				return err
			}
			logger = logging.New(cfg, version, appName)
			slog.SetDefault(logger)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	flags.String("spi", "", "SPI port name; overrides SPI_PORT")
	flags.String("cs", "GPIO8", "chip select pin; overrides CS_PIN")
	flags.String("oversampling", "4096", "oversampling ratio (256 to 4096); overrides OVERSAMPLING")
	flags.Duration("timeout", ms5611.DefaultOpts.Timeout, "per transfer SPI timeout; overrides SPI_TIMEOUT")

	cmd.AddCommand(
		newReadCommand(&cfg, &logger),
		newRunCommand(&cfg, &logger),
		newVersionCommand(),
	)
	return cmd
}

func newReadCommand(cfg *config.Config, logger **slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Take a single reading and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, closer, err := station.Open(*cfg, *logger)
			if err != nil {
				return err
			}
			defer closer()
			var e physic.Env
			if err := dev.Sense(&e); err != nil {
				return err
			}
			cmd.Printf("%s %s\n", e.Temperature, e.Pressure)
			return nil
		},
	}
}

func newRunCommand(cfg *config.Config, logger **slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the sensor and publish readings over MQTT",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyRunFlags(cmd.Flags(), cfg); err != nil {
				return err
			}
			l := *logger
			l.Info("starting",
				"version", version,
				"env", cfg.AppEnv,
				"station", cfg.DeviceStationID,
				"interval", cfg.SensorPollInterval,
				"mqtt_broker", cfg.MQTTBroker,
				"mqtt_port", cfg.MQTTPort,
			)
			dev, closer, err := station.Open(*cfg, l)
			if err != nil {
				return err
			}
			defer closer()

			client := telemetry.NewClient(*cfg, l)
			defer client.Disconnect()
			go func() {
				if err := client.Connect(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
					l.Error("mqtt connect failed", "error", err)
				}
			}()

			err = station.Run(cmd.Context(), dev, client, station.Options{
				StationID: cfg.DeviceStationID,
				Interval:  cfg.SensorPollInterval,
				Logger:    l,
			})
			if errors.Is(err, context.Canceled) {
				l.Info("shutting down")
				return nil
			}
			return err
		},
	}
	flags := cmd.Flags()
	flags.Duration("interval", 0, "poll interval; overrides SENSOR_POLL_INTERVAL")
	flags.String("station", "", "station id; overrides DEVICE_STATION_ID")
	flags.String("broker", "", "MQTT broker host; overrides MQTT_BROKER")
	flags.Int("port", 0, "MQTT broker port; overrides MQTT_PORT")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s\n", version)
		},
	}
}

// applyFlags overrides cfg with the global flags set on the command line.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags.Changed("log-level") {
		s, _ := flags.GetString("log-level")
		level, err := config.ParseLogLevel(s)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if flags.Changed("spi") {
		cfg.SPIPort, _ = flags.GetString("spi")
	}
	if flags.Changed("cs") {
		cfg.CSPin, _ = flags.GetString("cs")
	}
	if flags.Changed("oversampling") {
		s, _ := flags.GetString("oversampling")
		o, err := config.ParseOversampling(s)
		if err != nil {
			return err
		}
		cfg.Oversampling = o
	}
	if flags.Changed("timeout") {
		cfg.SPITimeout, _ = flags.GetDuration("timeout")
		if cfg.SPITimeout < 0 {
			return fmt.Errorf("--timeout must not be negative, got %v", cfg.SPITimeout)
		}
	}
	return nil
}

// applyRunFlags overrides cfg with the flags of the run command.
func applyRunFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags.Changed("interval") {
		cfg.SensorPollInterval, _ = flags.GetDuration("interval")
		if cfg.SensorPollInterval <= 0 {
			return fmt.Errorf("--interval must be positive, got %v", cfg.SensorPollInterval)
		}
	}
	if flags.Changed("station") {
		cfg.DeviceStationID, _ = flags.GetString("station")
	}
	if flags.Changed("broker") {
		cfg.MQTTBroker, _ = flags.GetString("broker")
	}
	if flags.Changed("port") {
		cfg.MQTTPort, _ = flags.GetInt("port")
		if cfg.MQTTPort <= 0 || cfg.MQTTPort > 65535 {
			return fmt.Errorf("--port out of range: %d", cfg.MQTTPort)
		}
	}
	return nil
}
