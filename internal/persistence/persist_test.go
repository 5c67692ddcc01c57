package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSector is an in-memory Sector for tests, initialized erased
// (0xFF) like real flash.
type fakeSector struct {
	data   []byte
	locked bool
}

func newFakeSector(size int) *fakeSector {
	d := make([]byte, size)
	for i := range d {
		d[i] = 0xFF
	}
	return &fakeSector{data: d}
}

func (f *fakeSector) Lock() error   { f.locked = true; return nil }
func (f *fakeSector) Unlock() error { f.locked = false; return nil }
func (f *fakeSector) ReadAll() ([]byte, error) {
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}
func (f *fakeSector) WriteAll(b []byte) error {
	copy(f.data, b)
	return nil
}

func TestSaveLoadGovernorName_RoundTrips(t *testing.T) {
	s := newFakeSector(0x10000)
	require.NoError(t, Save(s, "adaptive"))

	name, ok := Load(s)
	require.True(t, ok)
	assert.Equal(t, "adaptive", name)
}

func TestLoad_EmptySectorReportsNotPresent(t *testing.T) {
	s := newFakeSector(0x10000)
	_, ok := Load(s)
	assert.False(t, ok, "an erased (all-0xFF) sector has no valid magic")
}

func TestLoad_CorruptedByteBreaksCRC(t *testing.T) {
	s := newFakeSector(0x10000)
	require.NoError(t, Save(s, "performance"))

	// Flip a byte inside the name field, before the CRC.
	s.data[10] ^= 0xFF

	_, ok := Load(s)
	assert.False(t, ok, "corrupting any byte before the CRC must break load")
}

func TestSave_RejectsOverlongName(t *testing.T) {
	s := newFakeSector(0x10000)
	longName := make([]byte, 56)
	for i := range longName {
		longName[i] = 'x'
	}
	assert.ErrorIs(t, Save(s, string(longName)), ErrNameTooLong)
}

func TestSaveTuning_DoesNotDisturbGovernorRecord(t *testing.T) {
	s := newFakeSector(0x10000)
	require.NoError(t, Save(s, "schedutil"))
	require.NoError(t, SaveTuning(s, []byte("tunable-payload-bytes")))

	name, ok := Load(s)
	require.True(t, ok)
	assert.Equal(t, "schedutil", name)

	payload, ok := LoadTuning(s)
	require.True(t, ok)
	assert.Equal(t, []byte("tunable-payload-bytes"), payload)
}

func TestSaveTuning_RejectsOversizedPayload(t *testing.T) {
	s := newFakeSector(0x10000)
	huge := make([]byte, 0x10000)
	assert.ErrorIs(t, SaveTuning(s, huge), ErrPayloadTooLarge)
}

func TestLoadTuning_CorruptedByteBreaksCRC(t *testing.T) {
	s := newFakeSector(0x10000)
	require.NoError(t, SaveTuning(s, []byte{1, 2, 3, 4}))

	s.data[tuningOffset+8] ^= 0x01

	_, ok := LoadTuning(s)
	assert.False(t, ok)
}
