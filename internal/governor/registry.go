package governor

import "github.com/nighttraders/dvfsgov/internal/persistence"

// maxGovernors mirrors the firmware's fixed registry[8] capacity; this
// port ships four built-ins with headroom for a handful more.
const maxGovernors = 8

// Registry is a small fixed-capacity table of registered governors plus
// the currently-selected one.
type Registry struct {
	descriptors []Descriptor
	current     Descriptor
	haveCurrent bool
	sector      persistence.Sector
}

// NewRegistry returns an empty Registry persisting the selected name
// through sector.
func NewRegistry(sector persistence.Sector) *Registry {
	return &Registry{sector: sector}
}

// Register adds d to the registry. It is a programmer error to exceed
// maxGovernors or register a duplicate name; both are silently ignored
// here since the four built-ins are registered once at construction and
// never exceed the cap.
func (r *Registry) Register(d Descriptor) {
	if len(r.descriptors) >= maxGovernors {
		return
	}
	if _, dup := r.Find(d.Name); dup {
		return
	}
	r.descriptors = append(r.descriptors, d)
}

// Find looks up a governor by name, linear over the small registry.
func (r *Registry) Find(name string) (Descriptor, bool) {
	for _, d := range r.descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// All returns the registered descriptors in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Current returns the presently-selected governor, if any has been set.
func (r *Registry) Current() (Descriptor, bool) {
	return r.current, r.haveCurrent
}

// SetCurrent selects d as current, runs its Init, and persists the
// selection so it survives a reboot.
func (r *Registry) SetCurrent(d Descriptor) {
	if d.Init != nil {
		d.Init()
	}
	r.current = d
	r.haveCurrent = true
	if r.sector != nil {
		_ = persistence.Save(r.sector, d.Name)
	}
}

// Init implements the boot-time selection rule from spec.md §4.F: load
// the persisted name; if it names an unknown governor, prefer the
// governor named preferredFallback (the adaptive governor, per
// governors_init's original "prefer rp2040_perf" rule); if that is also
// absent, fall back to the first registered governor.
func (r *Registry) Init(preferredFallback string) {
	if len(r.descriptors) == 0 {
		return
	}

	if r.sector != nil {
		if name, ok := persistence.Load(r.sector); ok {
			if d, found := r.Find(name); found {
				r.SetCurrent(d)
				return
			}
		}
	}

	if d, found := r.Find(preferredFallback); found {
		r.SetCurrent(d)
		return
	}

	r.SetCurrent(r.descriptors[0])
}
