package simlog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cameri/nostr-simulator/simlog"
)

func TestLoggerWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	l := simlog.New(&buf, simlog.LevelInfo, "run-1")

	l.Info(simlog.CategoryEngine, "engine started", simlog.Fields{"events": 0})

	out := buf.String()
	assert.True(t, strings.Contains(out, "engine started"))
	assert.True(t, strings.Contains(out, "run-1"))
	assert.True(t, strings.Contains(out, "engine"))
}

func TestLoggerLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := simlog.New(&buf, simlog.LevelError, "run-2")

	l.Debug(simlog.CategoryHandler, "should not appear", nil)
	l.Info(simlog.CategoryHandler, "also should not appear", nil)

	assert.Equal(t, "", buf.String())
}

func TestNopLoggerDiscardsOutput(t *testing.T) {
	l := simlog.NewNop()
	l.Error(simlog.CategoryStrategy, "ignored", nil)
}
