// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAutoFormatIsJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf})
	require.NoError(t, err)

	log.Info("fetched", "pmid", "123")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fetched", entry["msg"])
	assert.Equal(t, "123", entry["pmid"])
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Format: "text", Writer: &buf})
	require.NoError(t, err)

	log.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNewLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Format: "text", Writer: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)

	log.Debug("trace")
	assert.Contains(t, buf.String(), `"source"`)
}

func TestNewInvalidOptions(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)

	_, err = New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
