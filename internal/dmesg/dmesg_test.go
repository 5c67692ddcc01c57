package dmesg

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_DumpOrdersChronologicallyBeforeWrap(t *testing.T) {
	l := NewSize(4)
	l.Infof("one")
	l.Warnf("two")

	lines := l.Dump()
	require.Len(t, lines, 2)
	assert.Equal(t, "one", lines[0].Text)
	assert.Equal(t, "two", lines[1].Text)
	assert.Equal(t, Warn, lines[1].Severity)
}

func TestLog_WrapsAtCapacityOldestDropped(t *testing.T) {
	l := NewSize(3)
	for i := 0; i < 5; i++ {
		l.Infof("line-%d", i)
	}

	lines := l.Dump()
	require.Len(t, lines, 3)
	assert.Equal(t, "line-2", lines[0].Text)
	assert.Equal(t, "line-3", lines[1].Text)
	assert.Equal(t, "line-4", lines[2].Text)
}

func TestLog_SinkReceivesLines(t *testing.T) {
	l := NewSize(4)
	var buf bytes.Buffer
	l.SetSink(&buf)

	l.Criticalf("stall detected")
	assert.Contains(t, buf.String(), "CRIT")
	assert.Contains(t, buf.String(), "stall detected")
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("uart busy") }

func TestLog_SinkErrorNeverPropagatesOrRetries(t *testing.T) {
	l := NewSize(4)
	l.SetSink(errWriter{})

	assert.NotPanics(t, func() { l.Infof("dropped on the floor") })
	// The ring buffer itself still retained the line.
	lines := l.Dump()
	require.Len(t, lines, 1)
	assert.Equal(t, "dropped on the floor", lines[0].Text)
}
