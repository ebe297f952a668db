package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/scopegen"
)

func TestKind(t *testing.T) {
	t.Run("prefixes are disjoint namespaces", func(t *testing.T) {
		assert.Equal(t, "ScopegenBinding_X", Name(KindBinding, "X"))
		assert.Equal(t, "ScopegenMultibinding_X", Name(KindMultibinding, "X"))
		assert.Equal(t, "ScopegenModule_X", Name(KindModule, "X"))
	})

	t.Run("kind of declaration name", func(t *testing.T) {
		for name, want := range map[string]Kind{
			"ScopegenBinding_AcmeRepo_App":      KindBinding,
			"ScopegenMultibinding_AcmeRepo_App": KindMultibinding,
			"ScopegenModule_AcmeModule_App":     KindModule,
		} {
			kind, ok := KindOf(name)
			require.True(t, ok, name)
			assert.Equal(t, want, kind, name)
		}
	})

	t.Run("non-marker names are skipped", func(t *testing.T) {
		for _, name := range []string{"Repo", "ScopegenOther_X", "scopegenBinding_X", ""} {
			_, ok := KindOf(name)
			assert.False(t, ok, name)
		}
	})
}

func TestBindingRoundTrip(t *testing.T) {
	b := &Binding{
		Concrete:     scopegen.TypeID{PkgPath: "github.com/acme/store", Name: "PgRepo"},
		Bound:        scopegen.TypeID{PkgPath: "github.com/acme/app", Name: "Repo"},
		Scope:        "app",
		Multibinding: true,
		Qualifiers:   []scopegen.Qualifier{{Name: "named", Args: []string{"primary"}}},
		Replaces:     []scopegen.TypeID{{PkgPath: "github.com/acme/store", Name: "MemRepo"}},
	}
	encoded, err := Encode(b)
	require.NoError(t, err)
	decoded, err := DecodeBinding(encoded)
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
}

func TestModuleRoundTrip(t *testing.T) {
	m := &Module{
		Type:      scopegen.TypeID{PkgPath: "github.com/acme/app", Name: "NetworkModule"},
		Scope:     "app",
		Replaces:  []scopegen.TypeID{{PkgPath: "github.com/acme/store", Name: "PgRepo"}},
		Interface: true,
	}
	encoded, err := Encode(m)
	require.NoError(t, err)
	decoded, err := DecodeModule(encoded)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestEncodeDeterministic(t *testing.T) {
	b := &Binding{
		Concrete: scopegen.TypeID{PkgPath: "a", Name: "B"},
		Bound:    scopegen.TypeID{PkgPath: "c", Name: "D"},
		Scope:    "s",
	}
	first, err := Encode(b)
	require.NoError(t, err)
	second, err := Encode(b)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeErrors(t *testing.T) {
	t.Run("rejects malformed base64", func(t *testing.T) {
		_, err := DecodeBinding("!!! not base64 !!!")
		assert.Error(t, err)
	})

	t.Run("rejects incomplete binding payload", func(t *testing.T) {
		encoded, err := Encode(&Binding{Scope: "app"})
		require.NoError(t, err)
		_, err = DecodeBinding(encoded)
		assert.Error(t, err)
	})

	t.Run("rejects incomplete module payload", func(t *testing.T) {
		encoded, err := Encode(&Module{Type: scopegen.TypeID{PkgPath: "a", Name: "M"}})
		require.NoError(t, err)
		_, err = DecodeModule(encoded)
		assert.Error(t, err)
	})
}
