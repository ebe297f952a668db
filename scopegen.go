// Package scopegen merges dependency-injection contributions that are
// declared across separately compiled Go modules into generated per-scope
// container types. Contributions are expressed with //scopegen: directives
// on source declarations and propagated between modules through marker
// declarations published in the contributing packages.
package scopegen

import (
	"fmt"
	"strings"
)

// TypeID is the fully qualified identity of a type: its package import path
// and its declared name. It is the unit of comparison for replace and
// exclude directives across compilation units.
type TypeID struct {
	PkgPath string `yaml:"pkg" msgpack:"pkg"`
	Name    string `yaml:"name" msgpack:"name"`
}

// String returns the canonical "path.Name" form of the identity.
func (id TypeID) String() string {
	if id.PkgPath == "" {
		return id.Name
	}
	return id.PkgPath + "." + id.Name
}

// IsZero reports whether the identity is empty.
func (id TypeID) IsZero() bool {
	return id.PkgPath == "" && id.Name == ""
}

// Less orders identities lexicographically by package path, then name.
// It is the ordering used everywhere a deterministic output is required.
func (id TypeID) Less(other TypeID) bool {
	if id.PkgPath != other.PkgPath {
		return id.PkgPath < other.PkgPath
	}
	return id.Name < other.Name
}

// ParseTypeID parses the canonical "path.Name" form produced by
// TypeID.String. The separator is the last dot after the last slash, so
// dotted host names in import paths are handled.
func ParseTypeID(s string) (TypeID, error) {
	slash := strings.LastIndex(s, "/")
	dot := strings.LastIndex(s, ".")
	if dot <= slash || dot == len(s)-1 {
		return TypeID{}, fmt.Errorf("scopegen: malformed type identity %q", s)
	}
	return TypeID{PkgPath: s[:dot], Name: s[dot+1:]}, nil
}

// Qualifier is a qualifier annotation attached to a contribution. It is
// carried through resolution and re-emitted on the generated accessor
// unchanged.
type Qualifier struct {
	Name string   `yaml:"name" msgpack:"name"`
	Args []string `yaml:"args,omitempty" msgpack:"args,omitempty"`
}

// String returns the directive form of the qualifier, e.g. `named:admin`.
func (q Qualifier) String() string {
	if len(q.Args) == 0 {
		return q.Name
	}
	return q.Name + ":" + strings.Join(q.Args, ",")
}
