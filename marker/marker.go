// Package marker defines the cross-module propagation format for scopegen
// contributions. A compilation unit publishes each contribution as a
// generated constant whose name carries a kind-specific prefix and whose
// value is a base64-wrapped msgpack payload. Downstream units locate the
// constants by prefix in the imported package scope, with no need to
// re-typecheck the producing unit.
package marker

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/scopegen"
)

// FileName is the file markers are generated into, one per contributing
// package.
const FileName = "scopegen_markers.go"

// Kind identifies the marker namespace a declaration belongs to.
type Kind int

const (
	// KindBinding marks a plain binding contribution.
	KindBinding Kind = iota
	// KindMultibinding marks a multibinding (set) contribution.
	KindMultibinding
	// KindModule marks a module attachment.
	KindModule
)

// Declaration name prefixes, one namespace per marker kind.
const (
	BindingPrefix      = "ScopegenBinding_"
	MultibindingPrefix = "ScopegenMultibinding_"
	ModulePrefix       = "ScopegenModule_"
)

// Prefix returns the declaration name prefix for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindBinding:
		return BindingPrefix
	case KindMultibinding:
		return MultibindingPrefix
	case KindModule:
		return ModulePrefix
	default:
		return ""
	}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBinding:
		return "binding"
	case KindMultibinding:
		return "multibinding"
	case KindModule:
		return "module"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Name returns the full marker declaration name for the kind and an
// identifier-safe suffix.
func Name(k Kind, suffix string) string {
	return k.Prefix() + suffix
}

// KindOf reports the marker kind a declaration name belongs to.
func KindOf(name string) (Kind, bool) {
	switch {
	case strings.HasPrefix(name, MultibindingPrefix):
		return KindMultibinding, true
	case strings.HasPrefix(name, BindingPrefix):
		return KindBinding, true
	case strings.HasPrefix(name, ModulePrefix):
		return KindModule, true
	default:
		return 0, false
	}
}

// Binding is the payload of a binding or multibinding marker.
type Binding struct {
	Concrete       scopegen.TypeID      `msgpack:"concrete"`
	Bound          scopegen.TypeID      `msgpack:"bound"`
	Scope          string               `msgpack:"scope"`
	Multibinding   bool                 `msgpack:"multi,omitempty"`
	Qualifiers     []scopegen.Qualifier `msgpack:"qualifiers,omitempty"`
	Replaces       []scopegen.TypeID    `msgpack:"replaces,omitempty"`
	ObjectInstance bool                 `msgpack:"object,omitempty"`
	ModuleShaped   bool                 `msgpack:"module,omitempty"`
}

// Module is the payload of a module attachment marker.
type Module struct {
	Type      scopegen.TypeID   `msgpack:"type"`
	Scope     string            `msgpack:"scope"`
	Replaces  []scopegen.TypeID `msgpack:"replaces,omitempty"`
	Interface bool              `msgpack:"iface,omitempty"`
}

// Encode marshals a payload into the constant value form.
func Encode(v any) (string, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marker: encode payload: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

func decode(s string, v any) error {
	b, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("marker: malformed payload: %w", err)
	}
	if err := msgpack.Unmarshal(b, v); err != nil {
		return fmt.Errorf("marker: decode payload: %w", err)
	}
	return nil
}

// DecodeBinding decodes a binding or multibinding payload.
func DecodeBinding(s string) (*Binding, error) {
	b := &Binding{}
	if err := decode(s, b); err != nil {
		return nil, err
	}
	if b.Concrete.IsZero() || b.Bound.IsZero() || b.Scope == "" {
		return nil, fmt.Errorf("marker: incomplete binding payload for %q", b.Concrete)
	}
	return b, nil
}

// DecodeModule decodes a module attachment payload.
func DecodeModule(s string) (*Module, error) {
	m := &Module{}
	if err := decode(s, m); err != nil {
		return nil, err
	}
	if m.Type.IsZero() || m.Scope == "" {
		return nil, fmt.Errorf("marker: incomplete module payload for %q", m.Type)
	}
	return m, nil
}
