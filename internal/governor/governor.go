// Package governor ports governors.c's descriptor and registry: a
// small fixed-capacity table of pluggable policies, each a Descriptor,
// looked up by name.
package governor

import "github.com/nighttraders/dvfsgov/internal/metrics"

// Descriptor mirrors the C Governor struct (spec.md §3): a name, an
// init hook, a per-tick policy function, and an optional stats
// exporter.
type Descriptor struct {
	Name string
	Init func()
	// Tick receives the latest aggregate, or nil when no samples have
	// been submitted since the last consume.
	Tick func(agg *metrics.Aggregate)
	// ExportStats is nil-able; not every governor has tunables worth
	// summarizing.
	ExportStats func() string
}
