// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newText(&buf, slog.LevelInfo, true)
	l.Info("reading", "pressure_pa", 100009)
	l.Debug("hidden")
	out := buf.String()
	assert.Contains(t, out, "reading")
	assert.Contains(t, out, "pressure_pa=100009")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\033[", "no color codes expected")
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, slog.LevelWarn)
	l.Info("dropped")
	l.Warn("sense failed", "err", "timeout")
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "sense failed", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "timeout", rec["err"])
}

func TestDebugF(t *testing.T) {
	var buf bytes.Buffer
	debug := DebugF(newJSON(&buf, slog.LevelDebug))
	debug("command 0x%02x", 0x1e)
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "command 0x1e", rec["msg"])

	buf.Reset()
	DebugF(newJSON(&buf, slog.LevelInfo))("command 0x%02x", 0x1e)
	assert.Zero(t, buf.Len())
}
