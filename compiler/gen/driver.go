package gen

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dave/jennifer/jen"
	"github.com/google/uuid"

	"github.com/syssam/scopegen"
	"github.com/syssam/scopegen/compiler/load"
	"github.com/syssam/scopegen/marker"
)

// State is the phase of the two-phase driver.
type State int

const (
	// StateScanning accepts scan rounds and reserves output locations.
	StateScanning State = iota
	// StateFinalizing is terminal: resolution ran and content was written.
	StateFinalizing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Driver orchestrates scanning, resolution and synthesis across however
// many scan rounds the host build grants. The registry is exclusively owned
// by the driver; the single legal transition is scanning to finalizing.
type Driver struct {
	cfg      *Config
	registry *Registry
	writer   *Writer
	synth    *Synthesizer
	logger   *log.Logger

	state  State
	rounds int
	units  []*load.Unit
}

// NewDriver creates a driver in the scanning state.
func NewDriver(cfg *Config) *Driver {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	return &Driver{
		cfg:      cfg,
		registry: NewRegistry(),
		writer:   NewWriter(cfg.Workers),
		synth:    NewSynthesizer(cfg),
		logger:   cfg.Logger.With("run", uuid.NewString()[:8]),
		state:    StateScanning,
	}
}

// State returns the driver's current phase.
func (d *Driver) State() State {
	return d.state
}

// ScanRound registers the records of newly scanned units and reserves the
// output location of every newly discovered merge target, so later rounds
// observe a stable file identity before content exists. Calling ScanRound
// after Finalize is a protocol violation.
func (d *Driver) ScanRound(ctx context.Context, units []*load.Unit) error {
	if d.state != StateScanning {
		return NewProtocolError("ScanRound", d.state.String(), "scan round requested after finalize")
	}
	d.rounds++
	for _, u := range units {
		for _, c := range u.Contributions {
			d.registry.RecordContribution(c)
		}
		for _, m := range u.Modules {
			d.registry.RecordModule(m)
		}
		for _, t := range u.Targets {
			if d.registry.RegisterMergeTarget(t) {
				if err := d.writer.Reserve(filepath.Join(t.Dir, t.OutputFile())); err != nil {
					return err
				}
			}
		}
	}
	d.units = append(d.units, units...)
	d.logger.Debug("scan round complete", "round", d.rounds, "units", len(units))
	return nil
}

// Finalize transitions the driver to its terminal state, resolves every
// scope with at least one merge target, and writes container and marker
// content. Resolution runs exactly once per scope; every target of a scope
// receives the same resolved set. A second Finalize is a protocol
// violation. Per-declaration resolution failures are aggregated and
// returned after all unaffected output has been written.
func (d *Driver) Finalize(ctx context.Context) error {
	if d.state != StateScanning {
		return NewProtocolError("Finalize", d.state.String(), "finalize invoked more than once")
	}
	d.state = StateFinalizing

	tasks := make(map[string]*jen.File)
	var diags []*scopegen.Diagnostic
	for _, scope := range d.registry.Scopes() {
		snap := d.registry.Snapshot(scope)
		res, err := Resolve(snap)
		diags, err = appendDiagnostics(diags, err)
		if err != nil {
			return err
		}
		for _, t := range snap.Targets {
			path := filepath.Join(t.Dir, t.OutputFile())
			if _, ok := tasks[path]; ok {
				return NewEmitError(path, "merge target collision: multiple merge declarations generate into this file", nil)
			}
			tasks[path] = d.synth.Container(res, t)
		}
		d.logger.Info("scope resolved",
			"scope", scope,
			"bindings", len(res.Bindings),
			"multibindings", len(res.Multibindings),
			"modules", len(res.Modules),
			"targets", len(snap.Targets))
	}

	for _, u := range d.units {
		if u.Dir == "" {
			continue
		}
		f, err := d.synth.Markers(u)
		if err != nil {
			return NewEmitError(filepath.Join(u.Dir, marker.FileName), "encode markers", err)
		}
		if f != nil {
			tasks[filepath.Join(u.Dir, marker.FileName)] = f
		}
	}

	if err := d.writer.WriteAll(ctx, tasks); err != nil {
		return err
	}
	m := d.writer.Metrics()
	d.logger.Info("generation complete", "files", m.FilesWritten, "bytes", m.TotalBytes)
	return scopegen.NewDiagnosticList(diags...)
}

// Metrics returns the writer metrics of the run.
func (d *Driver) Metrics() *WriterMetrics {
	return d.writer.Metrics()
}

// Generate runs one full scan and finalize cycle over the configured
// packages. It is the entry point used by the CLI.
func Generate(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return NewConfigError("Config", nil, "config cannot be nil")
	}
	d := NewDriver(cfg)
	loader := &load.Loader{
		Dir:        cfg.Dir,
		Patterns:   cfg.Patterns,
		BuildFlags: cfg.BuildFlags,
	}
	units, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	if err := d.ScanRound(ctx, units); err != nil {
		return err
	}
	return d.Finalize(ctx)
}
