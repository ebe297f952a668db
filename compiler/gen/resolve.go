package gen

import (
	"errors"

	"github.com/syssam/scopegen"
	"github.com/syssam/scopegen/compiler/load"
)

// Resolution is the final surviving contribution set for one scope,
// partitioned by multibinding flag and ready for synthesis. Every merge
// target sharing the scope receives the same resolution.
type Resolution struct {
	Scope         string
	Bindings      []*load.Contribution
	Multibindings []*load.Contribution
	Modules       []*load.Module
}

// Resolve computes the surviving set for a scope's snapshot. Removal is
// monotonic: a type dropped by any of exclude, module-replace or
// binding-replace stays dropped, with no precedence between the three.
//
// Per-declaration failures (a surviving contribution whose concrete type
// does not satisfy its bound type, or a bound type carrying open type
// parameters) are returned as diagnostics alongside the resolution; the
// offending declarations are dropped and the remaining declarations are
// unaffected.
func Resolve(snap *Snapshot) (*Resolution, error) {
	// Union of every replaces set declared by a module or by a
	// module-shaped contribution attached to this scope. This union also
	// suppresses plain bindings naming the same concrete type.
	replacedByModules := make(map[scopegen.TypeID]bool)
	for _, m := range snap.Modules {
		for _, id := range m.Replaces {
			replacedByModules[id] = true
		}
	}
	for _, c := range append(append([]*load.Contribution(nil), snap.Bindings...), snap.Multibindings...) {
		if c.Module {
			for _, id := range c.Replaces {
				replacedByModules[id] = true
			}
		}
	}

	// Union of every replaces set declared by any contribution in scope.
	replacedByBindings := make(map[scopegen.TypeID]bool)
	for _, c := range snap.Bindings {
		for _, id := range c.Replaces {
			replacedByBindings[id] = true
		}
	}
	for _, c := range snap.Multibindings {
		for _, id := range c.Replaces {
			replacedByBindings[id] = true
		}
	}

	res := &Resolution{Scope: snap.Scope}
	var diags []*scopegen.Diagnostic

	survive := func(c *load.Contribution) bool {
		// Defensive re-check: a contribution can be globally visible but
		// scoped to a different merge.
		if c.Scope != snap.Scope {
			return false
		}
		if c.BoundParameterized {
			diags = append(diags, scopegen.NewDiagnostic(c.Concrete, c.Pos,
				"bound type %s carries type parameters and cannot be merged", c.Bound))
			return false
		}
		if replacedByModules[c.Concrete] || replacedByBindings[c.Concrete] || snap.Excludes[c.Concrete] {
			return false
		}
		if !c.Implements {
			diags = append(diags, scopegen.NewDiagnostic(c.Concrete, c.Pos,
				"concrete type does not satisfy bound type %s", c.Bound))
			return false
		}
		return true
	}

	for _, c := range snap.Bindings {
		if survive(c) {
			res.Bindings = append(res.Bindings, c)
		}
	}
	for _, c := range snap.Multibindings {
		if survive(c) {
			res.Multibindings = append(res.Multibindings, c)
		}
	}
	for _, m := range snap.Modules {
		if m.Scope != snap.Scope {
			continue
		}
		if replacedByModules[m.Type] || snap.Excludes[m.Type] {
			continue
		}
		res.Modules = append(res.Modules, m)
	}

	return res, scopegen.NewDiagnosticList(diags...)
}

// appendDiagnostics flattens the diagnostics carried by err into diags.
// Non-diagnostic errors are returned unchanged and abort the caller.
func appendDiagnostics(diags []*scopegen.Diagnostic, err error) ([]*scopegen.Diagnostic, error) {
	if err == nil {
		return diags, nil
	}
	var list *scopegen.DiagnosticList
	if errors.As(err, &list) {
		return append(diags, list.Diagnostics...), nil
	}
	var d *scopegen.Diagnostic
	if errors.As(err, &d) {
		return append(diags, d), nil
	}
	return diags, err
}
