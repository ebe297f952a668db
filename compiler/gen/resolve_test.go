package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/scopegen"
	"github.com/syssam/scopegen/compiler/load"
)

func resolveScope(t *testing.T, r *Registry) (*Resolution, error) {
	t.Helper()
	return Resolve(r.Snapshot("app"))
}

func concretes(cs []*load.Contribution) []scopegen.TypeID {
	ids := make([]scopegen.TypeID, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.Concrete)
	}
	return ids
}

func TestResolveSingleBinding(t *testing.T) {
	r := NewRegistry()
	r.RegisterMergeTarget(target("app", "AppComponent"))
	r.RecordContribution(binding(pgRepo, "app"))

	res, err := resolveScope(t, r)
	require.NoError(t, err)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, pgRepo, res.Bindings[0].Concrete)
	assert.Empty(t, res.Multibindings)
}

func TestResolveBindingReplace(t *testing.T) {
	r := NewRegistry()
	r.RegisterMergeTarget(target("app", "AppComponent"))
	r.RecordContribution(binding(pgRepo, "app"))
	replacement := binding(memRepo, "app")
	replacement.Replaces = []scopegen.TypeID{pgRepo}
	r.RecordContribution(replacement)

	res, err := resolveScope(t, r)
	require.NoError(t, err)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, memRepo, res.Bindings[0].Concrete)
}

func TestResolveModuleReplacesBinding(t *testing.T) {
	// A module declaring replaces also suppresses plain bindings of the
	// named concrete type, not just other modules.
	r := NewRegistry()
	r.RegisterMergeTarget(target("app", "AppComponent"))
	r.RecordContribution(binding(pgRepo, "app"))
	r.RecordModule(&load.Module{Type: netMod, Scope: "app", Replaces: []scopegen.TypeID{pgRepo}, Interface: true})

	res, err := resolveScope(t, r)
	require.NoError(t, err)
	assert.Empty(t, res.Bindings)
	require.Len(t, res.Modules, 1)
	assert.Equal(t, netMod, res.Modules[0].Type)
}

func TestResolveExclude(t *testing.T) {
	t.Run("merge-site exclude drops a binding", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterMergeTarget(target("app", "AppComponent", pgRepo))
		r.RecordContribution(binding(pgRepo, "app"))
		r.RecordContribution(binding(memRepo, "app"))

		res, err := resolveScope(t, r)
		require.NoError(t, err)
		assert.Equal(t, []scopegen.TypeID{memRepo}, concretes(res.Bindings))
	})

	t.Run("exclude drops a module", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterMergeTarget(target("app", "AppComponent", netMod))
		r.RecordModule(&load.Module{Type: netMod, Scope: "app"})

		res, err := resolveScope(t, r)
		require.NoError(t, err)
		assert.Empty(t, res.Modules)
	})

	t.Run("removal is monotonic across mechanisms", func(t *testing.T) {
		// pgRepo is excluded at the merge site, replaced by a binding and
		// replaced by a module all at once. It stays gone, everything else
		// is unaffected.
		r := NewRegistry()
		r.RegisterMergeTarget(target("app", "AppComponent", pgRepo))
		r.RecordContribution(binding(pgRepo, "app"))
		replacement := binding(memRepo, "app")
		replacement.Replaces = []scopegen.TypeID{pgRepo}
		r.RecordContribution(replacement)
		r.RecordModule(&load.Module{Type: netMod, Scope: "app", Replaces: []scopegen.TypeID{pgRepo}})

		res, err := resolveScope(t, r)
		require.NoError(t, err)
		assert.Equal(t, []scopegen.TypeID{memRepo}, concretes(res.Bindings))
		require.Len(t, res.Modules, 1)
	})
}

func TestResolveMultibindingsCoexist(t *testing.T) {
	// Two multibindings of the same bound type both survive; suffixed
	// accessor naming keeps them apart downstream.
	r := NewRegistry()
	r.RegisterMergeTarget(target("app", "AppComponent"))
	r.RecordContribution(multibinding(pgRepo, "app"))
	r.RecordContribution(multibinding(memRepo, "app"))

	res, err := resolveScope(t, r)
	require.NoError(t, err)
	assert.Empty(t, res.Bindings)
	assert.Equal(t, []scopegen.TypeID{memRepo, pgRepo}, concretes(res.Multibindings))

	a := AccessorName(res.Multibindings[0])
	b := AccessorName(res.Multibindings[1])
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "Multibinding")
	assert.Contains(t, b, "Multibinding")
}

func TestResolveParameterizedBound(t *testing.T) {
	// A bound type with open type parameters fails only its own
	// declaration; the rest of the scope still resolves.
	r := NewRegistry()
	r.RegisterMergeTarget(target("app", "AppComponent"))
	bad := binding(pgRepo, "app")
	bad.Bound = scopegen.TypeID{PkgPath: "github.com/acme/app", Name: "Store"}
	bad.BoundParameterized = true
	r.RecordContribution(bad)
	r.RecordContribution(binding(memRepo, "app"))

	res, err := resolveScope(t, r)
	require.Error(t, err)
	var d *scopegen.Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, pgRepo, d.Decl)
	assert.Contains(t, d.Error(), "type parameters")

	assert.Equal(t, []scopegen.TypeID{memRepo}, concretes(res.Bindings))
}

func TestResolveUnsatisfiedBound(t *testing.T) {
	r := NewRegistry()
	r.RegisterMergeTarget(target("app", "AppComponent"))
	bad := binding(pgRepo, "app")
	bad.Implements = false
	r.RecordContribution(bad)

	res, err := resolveScope(t, r)
	require.Error(t, err)
	assert.True(t, scopegen.IsDiagnostic(err))
	assert.Contains(t, err.Error(), "does not satisfy")
	assert.Empty(t, res.Bindings)
}

func TestResolveReplacedDeclarationSkipsValidation(t *testing.T) {
	// A declaration removed by replace never reaches satisfaction checks,
	// so a broken-but-replaced binding produces no diagnostic.
	r := NewRegistry()
	r.RegisterMergeTarget(target("app", "AppComponent"))
	bad := binding(pgRepo, "app")
	bad.Implements = false
	r.RecordContribution(bad)
	replacement := binding(memRepo, "app")
	replacement.Replaces = []scopegen.TypeID{pgRepo}
	r.RecordContribution(replacement)

	res, err := resolveScope(t, r)
	require.NoError(t, err)
	assert.Equal(t, []scopegen.TypeID{memRepo}, concretes(res.Bindings))
}

func TestResolveScopeMismatchDropped(t *testing.T) {
	snap := &Snapshot{
		Scope:    "app",
		Excludes: map[scopegen.TypeID]bool{},
		Bindings: []*load.Contribution{binding(pgRepo, "loadtest")},
	}
	res, err := Resolve(snap)
	require.NoError(t, err)
	assert.Empty(t, res.Bindings)
}

func TestResolveModuleShapedContribution(t *testing.T) {
	// A contribution that also carries a module attachment contributes its
	// replaces to the module union.
	r := NewRegistry()
	r.RegisterMergeTarget(target("app", "AppComponent"))
	r.RecordContribution(binding(pgRepo, "app"))
	shaped := binding(memRepo, "app")
	shaped.Module = true
	shaped.Replaces = []scopegen.TypeID{pgRepo}
	r.RecordContribution(shaped)
	r.RecordModule(&load.Module{Type: memRepo, Scope: "app", Replaces: []scopegen.TypeID{pgRepo}})

	res, err := resolveScope(t, r)
	require.NoError(t, err)
	assert.Equal(t, []scopegen.TypeID{memRepo}, concretes(res.Bindings))
}

func TestAppendDiagnostics(t *testing.T) {
	t.Run("nil error is a no-op", func(t *testing.T) {
		diags, err := appendDiagnostics(nil, nil)
		require.NoError(t, err)
		assert.Empty(t, diags)
	})

	t.Run("flattens a list", func(t *testing.T) {
		list := scopegen.NewDiagnosticList(
			scopegen.NewDiagnostic(pgRepo, "", "a"),
			scopegen.NewDiagnostic(memRepo, "", "b"),
		)
		diags, err := appendDiagnostics(nil, list)
		require.NoError(t, err)
		assert.Len(t, diags, 2)
	})

	t.Run("collects a single diagnostic", func(t *testing.T) {
		diags, err := appendDiagnostics(nil, scopegen.NewDiagnostic(pgRepo, "", "a"))
		require.NoError(t, err)
		assert.Len(t, diags, 1)
	})

	t.Run("passes non-diagnostic errors through", func(t *testing.T) {
		_, err := appendDiagnostics(nil, NewProtocolError("finalize", StateFinalizing.String(), "already finalized"))
		assert.Error(t, err)
	})
}
