package gen

import (
	"sort"
	"sync"

	"github.com/syssam/scopegen"
	"github.com/syssam/scopegen/compiler/load"
)

// Registry is the process-wide accumulation table for one generation run.
// It is owned by the driver, mutated only through its append operations
// during the scan phase, and read-only during resolution. No operation
// removes or mutates a previously recorded entry.
type Registry struct {
	mu            sync.Mutex
	targets       map[string][]*load.MergeTarget
	excludes      map[string][]scopegen.TypeID
	bindings      []*load.Contribution
	multibindings []*load.Contribution
	modules       []*load.Module

	// seen keys make repeated scans of an identical declaration idempotent.
	seen map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		targets:  make(map[string][]*load.MergeTarget),
		excludes: make(map[string][]scopegen.TypeID),
		seen:     make(map[string]bool),
	}
}

// RegisterMergeTarget records a merge target and its merge-site excludes.
// It reports whether the target was newly registered.
func (r *Registry) RegisterMergeTarget(t *load.MergeTarget) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[t.Key()] {
		return false
	}
	r.seen[t.Key()] = true
	r.targets[t.Scope] = append(r.targets[t.Scope], t)
	r.excludes[t.Scope] = append(r.excludes[t.Scope], t.Excludes...)
	return true
}

// RecordExcludes records additional excluded types for a scope. The driver
// feeds merge-site excludes through RegisterMergeTarget; this entry point is
// for hosts that discover excluded types outside a merge declaration, e.g.
// from build-system configuration.
func (r *Registry) RecordExcludes(scope string, excludes []scopegen.TypeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.excludes[scope] = append(r.excludes[scope], excludes...)
}

// RecordContribution records a binding or multibinding contribution.
func (r *Registry) RecordContribution(c *load.Contribution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[c.Key()] {
		return
	}
	r.seen[c.Key()] = true
	if c.Multibinding {
		r.multibindings = append(r.multibindings, c)
	} else {
		r.bindings = append(r.bindings, c)
	}
}

// RecordModule records a module attachment.
func (r *Registry) RecordModule(m *load.Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[m.Key()] {
		return
	}
	r.seen[m.Key()] = true
	r.modules = append(r.modules, m)
}

// Scopes returns the sorted scope identifiers with at least one registered
// merge target.
func (r *Registry) Scopes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	scopes := make([]string, 0, len(r.targets))
	for scope := range r.targets {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// Snapshot is the immutable per-scope view the resolver operates on.
type Snapshot struct {
	Scope         string
	Targets       []*load.MergeTarget
	Excludes      map[scopegen.TypeID]bool
	Bindings      []*load.Contribution
	Multibindings []*load.Contribution
	Modules       []*load.Module
}

// Snapshot returns the state recorded for a scope: its merge targets, the
// union of its explicit excludes, and every contribution and module whose
// scope field equals the argument. The returned slices are sorted copies,
// so the snapshot is independent of scan order.
func (r *Registry) Snapshot(scope string) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Snapshot{
		Scope:    scope,
		Targets:  append([]*load.MergeTarget(nil), r.targets[scope]...),
		Excludes: make(map[scopegen.TypeID]bool, len(r.excludes[scope])),
	}
	for _, id := range r.excludes[scope] {
		s.Excludes[id] = true
	}
	for _, c := range r.bindings {
		if c.Scope == scope {
			s.Bindings = append(s.Bindings, c)
		}
	}
	for _, c := range r.multibindings {
		if c.Scope == scope {
			s.Multibindings = append(s.Multibindings, c)
		}
	}
	for _, m := range r.modules {
		if m.Scope == scope {
			s.Modules = append(s.Modules, m)
		}
	}

	sort.Slice(s.Targets, func(i, j int) bool { return s.Targets[i].Key() < s.Targets[j].Key() })
	sortContributions(s.Bindings)
	sortContributions(s.Multibindings)
	sort.Slice(s.Modules, func(i, j int) bool { return s.Modules[i].Type.Less(s.Modules[j].Type) })
	return s
}

func sortContributions(cs []*load.Contribution) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Concrete != cs[j].Concrete {
			return cs[i].Concrete.Less(cs[j].Concrete)
		}
		return cs[i].Bound.Less(cs[j].Bound)
	})
}
