// Package load implements the contribution scanner: it loads Go packages
// with full type information, extracts //scopegen: directives into typed
// contribution records, and decodes the markers published by already
// compiled dependencies.
package load

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// loadMode is the package information the scanner needs: syntax and doc
// comments for directives, type information for subtype checks, and the
// import graph for marker discovery.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports |
	packages.NeedDeps

// Loader loads compilation units for scanning.
type Loader struct {
	// Dir is the directory packages are loaded relative to.
	Dir string
	// Patterns are the package patterns to scan, e.g. "./...".
	Patterns []string
	// BuildFlags are extra flags passed to the build system.
	BuildFlags []string
}

// Load loads the configured packages and returns one Unit per package, plus
// a synthetic unit carrying the marker records of external dependencies.
// Zero matching declarations is not an error.
func (l *Loader) Load(ctx context.Context) ([]*Unit, error) {
	patterns := l.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	cfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        l.Dir,
		BuildFlags: l.BuildFlags,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	var loadErrs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			loadErrs = append(loadErrs, e.Error())
		}
	}
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("load: package errors:\n  %s", strings.Join(loadErrs, "\n  "))
	}

	var units []*Unit
	for _, pkg := range pkgs {
		u, err := scanPackage(pkg)
		if err != nil {
			return nil, err
		}
		if len(u.Contributions)+len(u.Modules)+len(u.Targets) > 0 {
			units = append(units, u)
		}
	}

	external, externalModules, err := collectMarkers(pkgs)
	if err != nil {
		return nil, err
	}
	if len(external)+len(externalModules) > 0 {
		units = append(units, &Unit{
			PkgPath:       "",
			Contributions: external,
			Modules:       externalModules,
		})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].PkgPath < units[j].PkgPath })
	return units, nil
}
