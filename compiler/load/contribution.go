package load

import (
	"sort"
	"strings"

	"github.com/syssam/scopegen"
	"github.com/syssam/scopegen/marker"
)

// Contribution is a binding or multibinding contribution loaded from a
// scanned declaration or decoded from an external marker.
type Contribution struct {
	Concrete       scopegen.TypeID      // implementing type, or the singleton var for object instances
	Bound          scopegen.TypeID      // supertype the contribution binds to
	Scope          string               // scope identifier the contribution belongs to
	Multibinding   bool                 // contributes into a set rather than a single slot
	Qualifiers     []scopegen.Qualifier // carried to the generated accessor unchanged
	Replaces       []scopegen.TypeID    // type identities this contribution supersedes
	ObjectInstance bool                 // concrete is a package-level value, emitted provider-style
	Module         bool                 // concrete type is itself container-eligible (also a module)

	// Facts established while type information was available. External
	// records decoded from markers were validated by the producing run and
	// carry Implements=true, BoundParameterized=false.
	Implements         bool
	BoundParameterized bool

	Pos      string // source position, empty for external records
	External bool   // decoded from a dependency marker
}

// Key returns the dedupe identity of the contribution. Re-scanning the same
// declaration, locally or through a marker, yields the same key.
func (c *Contribution) Key() string {
	kind := "binding"
	if c.Multibinding {
		kind = "multibinding"
	}
	return strings.Join([]string{kind, c.Scope, c.Concrete.String(), c.Bound.String()}, "|")
}

// Marker converts the contribution into its marker payload form.
func (c *Contribution) Marker() *marker.Binding {
	return &marker.Binding{
		Concrete:       c.Concrete,
		Bound:          c.Bound,
		Scope:          c.Scope,
		Multibinding:   c.Multibinding,
		Qualifiers:     c.Qualifiers,
		Replaces:       c.Replaces,
		ObjectInstance: c.ObjectInstance,
		ModuleShaped:   c.Module,
	}
}

// ContributionFromMarker converts a decoded marker payload back into a
// contribution record.
func ContributionFromMarker(b *marker.Binding) *Contribution {
	return &Contribution{
		Concrete:       b.Concrete,
		Bound:          b.Bound,
		Scope:          b.Scope,
		Multibinding:   b.Multibinding,
		Qualifiers:     b.Qualifiers,
		Replaces:       b.Replaces,
		ObjectInstance: b.ObjectInstance,
		Module:         b.ModuleShaped,
		Implements:     true,
		External:       true,
	}
}

// Module is a hand-written module explicitly attached to a scope.
type Module struct {
	Type      scopegen.TypeID
	Scope     string
	Replaces  []scopegen.TypeID
	Interface bool // interface-like modules are embedded into the container
	Pos       string
	External  bool
}

// Key returns the dedupe identity of the module attachment.
func (m *Module) Key() string {
	return strings.Join([]string{"module", m.Scope, m.Type.String()}, "|")
}

// Marker converts the module into its marker payload form.
func (m *Module) Marker() *marker.Module {
	return &marker.Module{
		Type:      m.Type,
		Scope:     m.Scope,
		Replaces:  m.Replaces,
		Interface: m.Interface,
	}
}

// ModuleFromMarker converts a decoded marker payload back into a module
// record.
func ModuleFromMarker(mm *marker.Module) *Module {
	return &Module{
		Type:      mm.Type,
		Scope:     mm.Scope,
		Replaces:  mm.Replaces,
		Interface: mm.Interface,
		External:  true,
	}
}

// MergeTarget is one request to synthesize a container for a scope,
// created when a merge-point declaration is scanned.
type MergeTarget struct {
	Scope    string
	Package  string // import path of the merge-point package
	PkgName  string // package name for the generated file
	Dir      string // directory the container is emitted into
	Name     string // merge-point declaration name
	Excludes []scopegen.TypeID
	Pos      string
}

// Key returns the dedupe identity of the merge target.
func (t *MergeTarget) Key() string {
	return strings.Join([]string{"merge", t.Scope, t.Package, t.Name}, "|")
}

// OutputFile returns the deterministic file name the container is emitted
// into, derived from the merge-point declaration name plus a fixed suffix.
func (t *MergeTarget) OutputFile() string {
	return strings.ToLower(t.Name) + "_merged.go"
}

// Unit holds everything newly visible in one scanned compilation unit.
type Unit struct {
	PkgPath string
	PkgName string
	Dir     string

	Contributions []*Contribution
	Modules       []*Module
	Targets       []*MergeTarget
}

// Local reports the contributions and modules declared in the unit itself,
// excluding records decoded from dependency markers. These are the records
// the unit republishes as markers for downstream builds.
func (u *Unit) Local() (cs []*Contribution, ms []*Module) {
	for _, c := range u.Contributions {
		if !c.External {
			cs = append(cs, c)
		}
	}
	for _, m := range u.Modules {
		if !m.External {
			ms = append(ms, m)
		}
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].Key() < cs[j].Key() })
	sort.Slice(ms, func(i, j int) bool { return ms[i].Key() < ms[j].Key() })
	return cs, ms
}
