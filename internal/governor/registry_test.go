package governor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSector struct {
	data []byte
}

func newFakeSector() *fakeSector {
	d := make([]byte, 0x10000)
	for i := range d {
		d[i] = 0xFF
	}
	return &fakeSector{data: d}
}

func (f *fakeSector) Lock() error   { return nil }
func (f *fakeSector) Unlock() error { return nil }
func (f *fakeSector) ReadAll() ([]byte, error) {
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}
func (f *fakeSector) WriteAll(b []byte) error { copy(f.data, b); return nil }

func TestRegistry_FindAndSetCurrentPersists(t *testing.T) {
	sector := newFakeSector()
	r := NewRegistry(sector)
	r.Register(Descriptor{Name: "performance"})
	r.Register(Descriptor{Name: "adaptive"})

	d, ok := r.Find("adaptive")
	require.True(t, ok)
	r.SetCurrent(d)

	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "adaptive", cur.Name)
}

func TestRegistry_InitPrefersPersistedName(t *testing.T) {
	sector := newFakeSector()
	r := NewRegistry(sector)
	r.Register(Descriptor{Name: "performance"})
	r.Register(Descriptor{Name: "ondemand"})
	r.Register(Descriptor{Name: "adaptive"})

	r2 := NewRegistry(sector)
	r2.Register(Descriptor{Name: "performance"})
	r2.Register(Descriptor{Name: "ondemand"})
	r2.Register(Descriptor{Name: "adaptive"})
	r2.SetCurrent(Descriptor{Name: "ondemand"})

	r.Init("adaptive")
	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "ondemand", cur.Name, "a valid persisted name must win over the adaptive fallback")
}

func TestRegistry_InitFallsBackToAdaptiveWhenNothingPersisted(t *testing.T) {
	sector := newFakeSector()
	r := NewRegistry(sector)
	r.Register(Descriptor{Name: "performance"})
	r.Register(Descriptor{Name: "adaptive"})

	r.Init("adaptive")
	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "adaptive", cur.Name, "no persisted name: adaptive preferred over first-registered")
}

func TestRegistry_InitFallsBackToFirstRegisteredWhenAdaptiveAbsent(t *testing.T) {
	sector := newFakeSector()
	r := NewRegistry(sector)
	r.Register(Descriptor{Name: "performance"})
	r.Register(Descriptor{Name: "ondemand"})

	r.Init("adaptive")
	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "performance", cur.Name)
}
