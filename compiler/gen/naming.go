package gen

import (
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/scopegen"
	"github.com/syssam/scopegen/compiler/load"
)

// Accessor names are derived from fully qualified type identities so that
// repeated generation is stable and unrelated types sharing a simple name
// never collide. The derivation is:
//
//  1. The import path is split on "/", each segment is split further into
//     runs of letters and digits (dots, dashes, underscores and tildes are
//     separators), and every run is camelized.
//  2. The declared type name is appended with its first letter folded to
//     upper case; interior casing is preserved.
//  3. The accessor prefix is "Bind" for binding-style entries and "Provide"
//     for object instances; the concrete and bound identities are joined
//     with "As", since one concrete type may bind to several supertypes in
//     the same scope; multibindings additionally receive the "Multibinding"
//     suffix.
//
// Example: a binding of github.com/acme/user-store.PgRepo to
// github.com/acme/app.Repo becomes
// BindGithubComAcmeUserStorePgRepoAsGithubComAcmeAppRepo.

var titleCaser = cases.Title(language.Und, cases.NoLower)

// exportName folds the first letter of an identifier to upper case,
// preserving the rest.
func exportName(s string) string {
	if s == "" {
		return s
	}
	return titleCaser.String(s[:1]) + s[1:]
}

// identRuns splits a path segment into camelized letter/digit runs.
func identRuns(segment string) string {
	var b strings.Builder
	for _, run := range strings.FieldsFunc(segment, func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == '~'
	}) {
		b.WriteString(inflect.Camelize(run))
	}
	return b.String()
}

// typeIdent derives the collision-free identifier stem for a type identity.
func typeIdent(id scopegen.TypeID) string {
	var b strings.Builder
	for _, segment := range strings.Split(id.PkgPath, "/") {
		b.WriteString(identRuns(segment))
	}
	b.WriteString(exportName(id.Name))
	return b.String()
}

// AccessorName returns the deterministic accessor method name for a
// contribution.
func AccessorName(c *load.Contribution) string {
	prefix := "Bind"
	if c.ObjectInstance {
		prefix = "Provide"
	}
	name := prefix + typeIdent(c.Concrete) + "As" + typeIdent(c.Bound)
	if c.Multibinding {
		name += "Multibinding"
	}
	return name
}

// MarkerSuffix returns the identifier-safe suffix of a contribution's marker
// declaration. The bound type is folded in because one concrete type may
// bind to several supertypes, and the scope because one declaration may
// contribute to several scopes from the same package.
func MarkerSuffix(c *load.Contribution) string {
	return typeIdent(c.Concrete) + "As" + typeIdent(c.Bound) + "_" + scopeIdent(c.Scope)
}

// ModuleMarkerSuffix returns the identifier-safe suffix of a module
// attachment's marker declaration.
func ModuleMarkerSuffix(m *load.Module) string {
	return typeIdent(m.Type) + "_" + scopeIdent(m.Scope)
}

func scopeIdent(scope string) string {
	return identRuns(strings.ReplaceAll(scope, "/", "_"))
}

// ContainerName returns the generated container type name for a target.
func ContainerName(t *load.MergeTarget) string {
	return "Merged" + exportName(t.Name)
}

// ScopeConstName returns the name of the generated scope tag constant.
func ScopeConstName(t *load.MergeTarget) string {
	return ContainerName(t) + "Scope"
}

// ProvidersName returns the name of the companion providers construct.
func ProvidersName(t *load.MergeTarget) string {
	return ContainerName(t) + "Providers"
}

// ModulesVarName returns the name of the merged modules variable.
func ModulesVarName(t *load.MergeTarget) string {
	return ContainerName(t) + "Modules"
}
