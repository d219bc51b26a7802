// PriceLens - Used Car Price Estimation and Comparable Listings API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pricelens

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestInitAndLog(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("field", "value").Msg("hello")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"field":"value"`)
	assert.Contains(t, out, `"message":"hello"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Msg("suppressed")
	Warn().Msg("emitted")

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "emitted")
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Info().Msg("captured")
	assert.Contains(t, buf.String(), "captured")
}

func TestCtxAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-123")
	Ctx(ctx).Info().Msg("with id")

	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
}

func TestCtxWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Ctx(context.Background()).Info().Msg("plain")

	assert.NotContains(t, buf.String(), "request_id")
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))

	ctx := ContextWithNewRequestID(context.Background())
	id := RequestIDFromContext(ctx)
	require.NotEmpty(t, id)
	assert.Len(t, strings.Split(id, "-"), 5)
}
