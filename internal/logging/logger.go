// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package logging builds the structured logger of the barometer tool.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/GermanBionicSystems/baro/internal/config"
)

// New returns a colored text logger on stderr in dev, and a JSON logger
// otherwise.
func New(cfg config.Config, version string, appName string) *slog.Logger {
	if cfg.AppEnv == "dev" {
		noColor := !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
		return newText(colorable.NewColorable(os.Stderr), cfg.LogLevel, noColor).With("app", appName)
	}
	return newJSON(os.Stderr, cfg.LogLevel).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}

func newText(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  true,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
}

func newJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// DebugF adapts l to the debug hook of the device drivers.
func DebugF(l *slog.Logger) func(string, ...interface{}) {
	return func(format string, args ...interface{}) {
		if l.Enabled(context.Background(), slog.LevelDebug) {
			l.Debug(fmt.Sprintf(format, args...))
		}
	}
}
