// Package dvfs composes the governor core, ramp engine, stability
// arbiter, metrics pipeline, persistence, kernel loop, and liveness
// monitor into one ready-to-drive unit, standing in for how
// cmd/consumption/main.go wires an Accumulator and a Collector into a
// single run loop. It also defines ShellAPI, the core-facing surface
// the out-of-scope interactive shell would call into; cmd/govctl is
// its one in-process consumer.
package dvfs

import (
	"context"
	"fmt"
	"time"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/governor"
	"github.com/nighttraders/dvfsgov/internal/governors"
	"github.com/nighttraders/dvfsgov/internal/hw"
	"github.com/nighttraders/dvfsgov/internal/kernel"
	"github.com/nighttraders/dvfsgov/internal/liveness"
	"github.com/nighttraders/dvfsgov/internal/metrics"
	"github.com/nighttraders/dvfsgov/internal/persistence"
	"github.com/nighttraders/dvfsgov/internal/ramp"
	"github.com/nighttraders/dvfsgov/internal/stability"
	"github.com/nighttraders/dvfsgov/internal/state"
	"github.com/nighttraders/dvfsgov/internal/units"
)

// defaultGovernorName is governors_init's original "prefer rp2040_perf"
// rule, renamed to this port's adaptive governor.
const defaultGovernorName = "adaptive"

// PersistStatus reports both persisted blobs' presence independently,
// matching commands.c's cmd_persist (SPEC_FULL.md SUPPLEMENTED FEATURES).
type PersistStatus struct {
	GovernorName    string
	GovernorPresent bool
	TuningPresent   bool
}

// ShellAPI is the core-facing surface spec.md §6 describes as "consumed
// by the shell" (the shell parser itself is explicitly out of scope;
// cmd/govctl is the one concrete consumer of this interface).
type ShellAPI interface {
	SetTarget(mhz uint32) error

	GovernorList() []string
	GovernorSet(name string) error
	GovernorCurrent() (string, bool)

	TuneList() []string
	TuneGet(name string) (float64, error)
	TuneSet(name string, value float64) error

	MetricsSubmit(workload, intensity, durationMS uint32)
	MetricsAggregatePeek() metrics.Aggregate
	MetricsAggregateConsume() metrics.Aggregate

	PersistShow() PersistStatus

	PIOStats() stability.Snapshot
	PIOSafe(idleThresh, jitterThresh float64, minStable uint32) bool
	PIOReset()
}

// System is the assembled control plane: shared state, the four
// built-in governors, the ramp engine, the stability arbiter, the
// metrics pipeline, persistence, and the two background loops (kernel
// and liveness).
type System struct {
	sh   *state.Shared
	log  *dmesg.Log
	pipe *metrics.Pipeline
	reg  *governor.Registry
	eng  *ramp.Engine

	pll     hw.PLL
	vreg    hw.VREG
	temp    hw.TempSensor
	pio     hw.PIOSource
	lockout hw.Lockout
	arbiter *stability.Arbiter

	sector persistence.Sector
	tuner  governors.AdaptiveTuner

	monitor *liveness.Monitor
}

// Option configures a System at construction. The zero-value System
// (via New with no options) runs entirely against deterministic
// in-memory simulators, matching every other package in this module.
type Option func(*options)

type options struct {
	pll     hw.PLL
	vreg    hw.VREG
	temp    hw.TempSensor
	pio     hw.PIOSource
	lockout hw.Lockout
	sector  persistence.Sector
	log     *dmesg.Log
	clock   metrics.Clock
}

// WithPersistence installs a non-default backing store for the
// selected-governor and tuning blobs (e.g. internal/hw/simflash.Sector
// opened against a real file instead of the in-memory default).
func WithPersistence(s persistence.Sector) Option {
	return func(o *options) { o.sector = s }
}

// WithLog installs a non-default dmesg sink.
func WithLog(l *dmesg.Log) Option {
	return func(o *options) { o.log = l }
}

// WithHardware overrides one or more of the simulated peripherals, for
// tests that want to script specific PLL/VREG/temperature/PIO behavior.
func WithHardware(pll hw.PLL, vreg hw.VREG, temp hw.TempSensor, pio hw.PIOSource, lockout hw.Lockout) Option {
	return func(o *options) {
		if pll != nil {
			o.pll = pll
		}
		if vreg != nil {
			o.vreg = vreg
		}
		if temp != nil {
			o.temp = temp
		}
		if pio != nil {
			o.pio = pio
		}
		if lockout != nil {
			o.lockout = lockout
		}
	}
}

// WithClock overrides the metrics pipeline's timestamp source.
func WithClock(c metrics.Clock) Option {
	return func(o *options) { o.clock = c }
}

// inMemorySector is the zero-configuration persistence backing: no
// test or caller should need a real file just to construct a System.
type inMemorySector struct{ data []byte }

func newInMemorySector() *inMemorySector {
	d := make([]byte, 0x10000)
	for i := range d {
		d[i] = 0xFF
	}
	return &inMemorySector{data: d}
}
func (s *inMemorySector) Lock() error   { return nil }
func (s *inMemorySector) Unlock() error { return nil }
func (s *inMemorySector) ReadAll() ([]byte, error) {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}
func (s *inMemorySector) WriteAll(b []byte) error { copy(s.data, b); return nil }

// New assembles a System and registers the four built-in governors, but
// does not start either background loop; call Start for that.
func New(opts ...Option) *System {
	o := options{
		pll:     hw.NewSimPLL(),
		vreg:    hw.NewSimVREG(),
		temp:    hw.NewSimTempSensor(25.0),
		pio:     hw.NewSimPIOSource(),
		lockout: hw.NewSimLockout(),
		sector:  newInMemorySector(),
		log:     dmesg.New(),
		clock:   metrics.NewWallClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	sh := state.New()
	arbiter := stability.New(o.pio)
	eng := ramp.New(sh, o.pll, o.vreg, o.lockout, arbiter, o.log)
	pipe := metrics.New(o.clock)
	reg := governor.NewRegistry(o.sector)

	reg.Register(governors.Performance(sh, eng, o.vreg, time.Sleep))
	reg.Register(governors.Ondemand(sh, eng, o.vreg, o.temp, o.log, time.Now, time.Sleep))
	reg.Register(governors.Schedutil(sh, eng, o.vreg, o.temp, o.log, time.Now, time.Sleep))
	adaptiveDescriptor, tuner := governors.Adaptive(sh, eng, o.vreg, o.temp, o.log, o.sector, time.Now, time.Sleep)
	reg.Register(adaptiveDescriptor)

	reg.Init(defaultGovernorName)

	return &System{
		sh:      sh,
		log:     o.log,
		pipe:    pipe,
		reg:     reg,
		eng:     eng,
		pll:     o.pll,
		vreg:    o.vreg,
		temp:    o.temp,
		pio:     o.pio,
		lockout: o.lockout,
		arbiter: arbiter,
		sector:  o.sector,
		tuner:   tuner,
		monitor: liveness.NewMonitor(),
	}
}

// Start launches the kernel tick loop and the liveness monitor as
// goroutines, both tied to ctx. onStall is invoked whenever the
// liveness monitor observes no forward progress in WDTPing between
// polls; cmd/govctl wires it to a critical log line plus process exit,
// standing in for watchdog_reboot.
func (s *System) Start(ctx context.Context, onStall func()) {
	go kernel.Run(ctx, s.reg, s.pipe, s.sh, s.log, s.temp, nil)
	go s.monitor.Run(ctx, s.sh, onStall)
}

// Shell returns the ShellAPI surface for a CLI or REPL to drive.
func (s *System) Shell() ShellAPI { return s }

// Log exposes the dmesg ring for commands like `govctl dmesg`.
func (s *System) Log() *dmesg.Log { return s.log }

// Pipeline exposes the metrics pipeline directly for callers, like
// internal/bench, that submit workload samples outside the ShellAPI's
// simpler uint32 surface.
func (s *System) Pipeline() *metrics.Pipeline { return s.pipe }

func (s *System) SetTarget(mhz uint32) error {
	khz := units.KHz(mhz * 1000)
	if khz < state.MinKHz || khz > state.MaxKHz {
		return fmt.Errorf("dvfs: target %d MHz out of range (%d-%d MHz)", mhz, state.MinKHz/1000, state.MaxKHz/1000)
	}
	s.sh.SetTargetKHz(khz)
	return nil
}

func (s *System) GovernorList() []string {
	all := s.reg.All()
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = d.Name
	}
	return names
}

func (s *System) GovernorSet(name string) error {
	d, ok := s.reg.Find(name)
	if !ok {
		return fmt.Errorf("dvfs: unknown governor %q", name)
	}
	s.reg.SetCurrent(d)
	return nil
}

func (s *System) GovernorCurrent() (string, bool) {
	d, ok := s.reg.Current()
	if !ok {
		return "", false
	}
	return d.Name, true
}

var errNoAdaptiveTuner = fmt.Errorf("dvfs: tuning only supported for the %q governor", "adaptive")

func (s *System) TuneList() []string {
	if s.tuner == nil {
		return nil
	}
	return governors.ParamNames
}

func (s *System) TuneGet(name string) (float64, error) {
	if s.tuner == nil {
		return 0, errNoAdaptiveTuner
	}
	p := s.tuner.AdaptiveParams()
	return p.GetParam(name)
}

func (s *System) TuneSet(name string, value float64) error {
	if s.tuner == nil {
		return errNoAdaptiveTuner
	}
	return s.tuner.SetParam(name, value)
}

func (s *System) MetricsSubmit(workload, intensity, durationMS uint32) {
	s.pipe.Submit(workload, intensity, durationMS)
}

func (s *System) MetricsAggregatePeek() metrics.Aggregate { return s.pipe.Aggregate(false) }

func (s *System) MetricsAggregateConsume() metrics.Aggregate { return s.pipe.Aggregate(true) }

func (s *System) PersistShow() PersistStatus {
	name, ok := persistence.Load(s.sector)
	_, tuningOK := persistence.LoadTuning(s.sector)
	return PersistStatus{GovernorName: name, GovernorPresent: ok, TuningPresent: tuningOK}
}

func (s *System) PIOStats() stability.Snapshot {
	s.arbiter.Poll()
	return s.arbiter.Snapshot()
}

func (s *System) PIOSafe(idleThresh, jitterThresh float64, minStable uint32) bool {
	return s.arbiter.SafeToScale(idleThresh, jitterThresh, minStable)
}

func (s *System) PIOReset() {
	s.arbiter.NotifyFreqChange(uint32(s.sh.CurrentKHz()))
}

var _ ShellAPI = (*System)(nil)
