package load

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/scopegen"
)

var (
	pgRepo  = scopegen.TypeID{PkgPath: "github.com/acme/store", Name: "PgRepo"}
	repo    = scopegen.TypeID{PkgPath: "github.com/acme/app", Name: "Repo"}
	netMod  = scopegen.TypeID{PkgPath: "github.com/acme/app", Name: "NetworkModule"}
	memRepo = scopegen.TypeID{PkgPath: "github.com/acme/store", Name: "MemRepo"}
)

func TestContributionKey(t *testing.T) {
	t.Run("identical declarations share a key", func(t *testing.T) {
		a := &Contribution{Concrete: pgRepo, Bound: repo, Scope: "app"}
		b := &Contribution{Concrete: pgRepo, Bound: repo, Scope: "app", Pos: "elsewhere.go:1", External: true}
		assert.Equal(t, a.Key(), b.Key())
	})

	t.Run("multibinding flag separates keys", func(t *testing.T) {
		a := &Contribution{Concrete: pgRepo, Bound: repo, Scope: "app"}
		b := &Contribution{Concrete: pgRepo, Bound: repo, Scope: "app", Multibinding: true}
		assert.NotEqual(t, a.Key(), b.Key())
	})

	t.Run("scope separates keys", func(t *testing.T) {
		a := &Contribution{Concrete: pgRepo, Bound: repo, Scope: "app"}
		b := &Contribution{Concrete: pgRepo, Bound: repo, Scope: "loadtest"}
		assert.NotEqual(t, a.Key(), b.Key())
	})
}

func TestContributionMarkerRoundTrip(t *testing.T) {
	c := &Contribution{
		Concrete:       pgRepo,
		Bound:          repo,
		Scope:          "app",
		Multibinding:   true,
		Qualifiers:     []scopegen.Qualifier{{Name: "named", Args: []string{"primary"}}},
		Replaces:       []scopegen.TypeID{memRepo},
		ObjectInstance: true,
		Module:         true,
		Implements:     true,
		Pos:            "store/repo.go:12:1",
	}
	back := ContributionFromMarker(c.Marker())
	assert.Equal(t, c.Key(), back.Key())
	assert.Equal(t, c.Qualifiers, back.Qualifiers)
	assert.Equal(t, c.Replaces, back.Replaces)
	assert.True(t, back.ObjectInstance)
	assert.True(t, back.Module)
	// Externally published records were validated by the producing run.
	assert.True(t, back.External)
	assert.True(t, back.Implements)
	assert.False(t, back.BoundParameterized)
	assert.Empty(t, back.Pos)
}

func TestModuleMarkerRoundTrip(t *testing.T) {
	m := &Module{
		Type:      netMod,
		Scope:     "app",
		Replaces:  []scopegen.TypeID{pgRepo},
		Interface: true,
		Pos:       "app/module.go:3:1",
	}
	back := ModuleFromMarker(m.Marker())
	assert.Equal(t, m.Key(), back.Key())
	assert.Equal(t, m.Replaces, back.Replaces)
	assert.True(t, back.Interface)
	assert.True(t, back.External)
}

func TestMergeTargetOutputFile(t *testing.T) {
	target := &MergeTarget{Scope: "app", Package: "github.com/acme/app", Name: "AppComponent"}
	assert.Equal(t, "appcomponent_merged.go", target.OutputFile())
}

func TestUnitLocal(t *testing.T) {
	u := &Unit{
		PkgPath: "github.com/acme/store",
		Contributions: []*Contribution{
			{Concrete: pgRepo, Bound: repo, Scope: "app"},
			{Concrete: memRepo, Bound: repo, Scope: "app", External: true},
		},
		Modules: []*Module{
			{Type: netMod, Scope: "app", External: true},
			{Type: netMod, Scope: "loadtest"},
		},
	}
	cs, ms := u.Local()
	require.Len(t, cs, 1)
	assert.Equal(t, pgRepo, cs[0].Concrete)
	require.Len(t, ms, 1)
	assert.Equal(t, "loadtest", ms[0].Scope)
}
