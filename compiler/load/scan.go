package load

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/syssam/scopegen"
	"github.com/syssam/scopegen/marker"
)

// scanPackage extracts the contribution records, module attachments and
// merge targets declared in one loaded package.
func scanPackage(pkg *packages.Package) (*Unit, error) {
	u := &Unit{
		PkgPath: pkg.PkgPath,
		PkgName: pkg.Name,
	}
	for _, file := range pkg.Syntax {
		if u.Dir == "" {
			u.Dir = filepath.Dir(pkg.Fset.Position(file.Pos()).Filename)
		}
		imports := fileImports(pkg, file)
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || (gd.Tok != token.TYPE && gd.Tok != token.VAR) {
				continue
			}
			for _, spec := range gd.Specs {
				if err := scanSpec(pkg, u, gd, spec, imports); err != nil {
					return nil, err
				}
			}
		}
	}
	return u, nil
}

func scanSpec(pkg *packages.Package, u *Unit, gd *ast.GenDecl, spec ast.Spec, imports map[string]string) error {
	switch s := spec.(type) {
	case *ast.TypeSpec:
		doc := s.Doc
		if doc == nil && len(gd.Specs) == 1 {
			doc = gd.Doc
		}
		directives, err := ParseDirectives(doc)
		if err != nil {
			return posErr(pkg, s.Pos(), err)
		}
		return scanTypeSpec(pkg, u, s, directives, imports)
	case *ast.ValueSpec:
		if gd.Tok != token.VAR {
			return nil
		}
		doc := s.Doc
		if doc == nil && len(gd.Specs) == 1 {
			doc = gd.Doc
		}
		directives, err := ParseDirectives(doc)
		if err != nil {
			return posErr(pkg, s.Pos(), err)
		}
		return scanValueSpec(pkg, u, s, directives, imports)
	}
	return nil
}

func scanTypeSpec(pkg *packages.Package, u *Unit, s *ast.TypeSpec, directives []*Directive, imports map[string]string) error {
	if len(directives) == 0 {
		return nil
	}
	pos := pkg.Fset.Position(s.Pos()).String()
	obj := pkg.Types.Scope().Lookup(s.Name.Name)
	if obj == nil {
		return fmt.Errorf("%s: no type information for %s", pos, s.Name.Name)
	}

	// A declaration carrying both a binding and a module directive is
	// container-eligible: its replaces set suppresses modules and bindings
	// alike during resolution.
	moduleShaped := false
	for _, d := range directives {
		if d.Kind == KindModule {
			moduleShaped = true
		}
	}

	for _, d := range directives {
		switch d.Kind {
		case KindBinding, KindMultibinding:
			c, err := buildContribution(pkg, d, obj, false, moduleShaped, pos, imports)
			if err != nil {
				return err
			}
			u.Contributions = append(u.Contributions, c)
		case KindModule:
			_, iface := obj.Type().Underlying().(*types.Interface)
			replaces, err := resolveRefs(pkg, d.Replaces, imports)
			if err != nil {
				return posErrf(pos, err)
			}
			u.Modules = append(u.Modules, &Module{
				Type:      scopegen.TypeID{PkgPath: pkg.PkgPath, Name: s.Name.Name},
				Scope:     d.Scope,
				Replaces:  replaces,
				Interface: iface,
				Pos:       pos,
			})
		case KindMerge:
			excludes, err := resolveRefs(pkg, d.Excludes, imports)
			if err != nil {
				return posErrf(pos, err)
			}
			u.Targets = append(u.Targets, &MergeTarget{
				Scope:    d.Scope,
				Package:  pkg.PkgPath,
				PkgName:  pkg.Name,
				Dir:      filepath.Dir(pkg.Fset.Position(s.Pos()).Filename),
				Name:     s.Name.Name,
				Excludes: excludes,
				Pos:      pos,
			})
		}
	}
	return nil
}

// scanValueSpec handles object-instance contributions: a //scopegen:binding
// directive on a package-level var contributes the value itself, emitted as
// a provider-style accessor returning the singleton.
func scanValueSpec(pkg *packages.Package, u *Unit, s *ast.ValueSpec, directives []*Directive, imports map[string]string) error {
	if len(directives) == 0 {
		return nil
	}
	pos := pkg.Fset.Position(s.Pos()).String()
	for _, d := range directives {
		if d.Kind != KindBinding && d.Kind != KindMultibinding {
			return fmt.Errorf("%s: scopegen:%s directive is not valid on a var declaration", pos, d.Kind)
		}
		for _, name := range s.Names {
			obj := pkg.Types.Scope().Lookup(name.Name)
			if obj == nil {
				return fmt.Errorf("%s: no type information for %s", pos, name.Name)
			}
			c, err := buildContribution(pkg, d, obj, true, false, pos, imports)
			if err != nil {
				return err
			}
			u.Contributions = append(u.Contributions, c)
		}
	}
	return nil
}

func buildContribution(pkg *packages.Package, d *Directive, obj types.Object, objectInstance, moduleShaped bool, pos string, imports map[string]string) (*Contribution, error) {
	bound, err := resolveRef(pkg, d.Bound, imports)
	if err != nil {
		return nil, posErrf(pos, err)
	}
	boundObj, err := lookupType(pkg, bound)
	if err != nil {
		return nil, posErrf(pos, err)
	}
	replaces, err := resolveRefs(pkg, d.Replaces, imports)
	if err != nil {
		return nil, posErrf(pos, err)
	}
	// For object instances the var's identity names the contribution and
	// the var's type is what must satisfy the bound type.
	concrete := obj.Type()
	return &Contribution{
		Concrete:           scopegen.TypeID{PkgPath: pkg.PkgPath, Name: obj.Name()},
		Bound:              bound,
		Scope:              d.Scope,
		Multibinding:       d.Kind == KindMultibinding,
		Qualifiers:         d.Qualifiers,
		Replaces:           replaces,
		ObjectInstance:     objectInstance,
		Module:             moduleShaped,
		Implements:         implementsType(concrete, boundObj.Type()),
		BoundParameterized: parameterized(boundObj.Type()),
		Pos:                pos,
	}, nil
}

// implementsType reports whether the concrete type structurally satisfies
// the bound type, either directly or through a pointer receiver.
func implementsType(concrete, bound types.Type) bool {
	if iface, ok := bound.Underlying().(*types.Interface); ok {
		return types.Implements(concrete, iface) || types.Implements(types.NewPointer(concrete), iface)
	}
	return types.AssignableTo(concrete, bound) || types.AssignableTo(types.NewPointer(concrete), bound)
}

// parameterized reports whether the type declaration carries open type
// parameters. Such bound types are rejected during resolution.
func parameterized(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	return named.TypeParams().Len() > 0
}

// fileImports maps the import aliases visible in one file to import paths.
func fileImports(pkg *packages.Package, file *ast.File) map[string]string {
	m := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		name := ""
		if imp.Name != nil {
			name = imp.Name.Name
		} else if p, ok := pkg.Imports[path]; ok {
			name = p.Name
		} else {
			name = path[strings.LastIndex(path, "/")+1:]
		}
		if name != "_" && name != "." {
			m[name] = path
		}
	}
	return m
}

// resolveRef resolves a textual type reference from a directive argument to
// a fully qualified identity. Three forms are accepted: a full import path
// ("github.com/acme/store.UserRepo"), an imported alias ("store.UserRepo"),
// and a bare name declared in the scanned package itself.
func resolveRef(pkg *packages.Package, ref string, imports map[string]string) (scopegen.TypeID, error) {
	switch {
	case strings.Contains(ref, "/"):
		return scopegen.ParseTypeID(ref)
	case strings.Contains(ref, "."):
		alias, name, _ := strings.Cut(ref, ".")
		path, ok := imports[alias]
		if !ok {
			return scopegen.TypeID{}, fmt.Errorf("unresolved package %q in type reference %q", alias, ref)
		}
		return scopegen.TypeID{PkgPath: path, Name: name}, nil
	default:
		return scopegen.TypeID{PkgPath: pkg.PkgPath, Name: ref}, nil
	}
}

func resolveRefs(pkg *packages.Package, refs []string, imports map[string]string) ([]scopegen.TypeID, error) {
	var ids []scopegen.TypeID
	for _, ref := range refs {
		id, err := resolveRef(pkg, ref, imports)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// lookupType finds the types object for a resolved identity in the scanned
// package or its imports. Bound types must be visible to the scanned unit.
func lookupType(pkg *packages.Package, id scopegen.TypeID) (types.Object, error) {
	scope := pkg.Types.Scope()
	if id.PkgPath != pkg.PkgPath {
		imp, ok := pkg.Imports[id.PkgPath]
		if !ok || imp.Types == nil {
			return nil, fmt.Errorf("bound type %s is not imported by %s", id, pkg.PkgPath)
		}
		scope = imp.Types.Scope()
	}
	obj := scope.Lookup(id.Name)
	if obj == nil {
		return nil, fmt.Errorf("bound type %s not found", id)
	}
	return obj, nil
}

// collectMarkers walks the import graph of the scanned packages and decodes
// the marker constants published by already-compiled dependencies. The
// scanned packages themselves are skipped; their declarations are read
// directly.
func collectMarkers(pkgs []*packages.Package) ([]*Contribution, []*Module, error) {
	roots := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		roots[pkg.PkgPath] = true
	}
	visited := make(map[string]bool)
	var cs []*Contribution
	var ms []*Module

	var walk func(p *packages.Package) error
	walk = func(p *packages.Package) error {
		if visited[p.PkgPath] {
			return nil
		}
		visited[p.PkgPath] = true
		if !roots[p.PkgPath] && p.Types != nil {
			scope := p.Types.Scope()
			for _, name := range scope.Names() {
				kind, ok := marker.KindOf(name)
				if !ok {
					continue
				}
				value, ok := constValue(scope.Lookup(name))
				if !ok {
					return fmt.Errorf("load: marker %s.%s is not a string constant", p.PkgPath, name)
				}
				switch kind {
				case marker.KindBinding, marker.KindMultibinding:
					b, err := marker.DecodeBinding(value)
					if err != nil {
						return fmt.Errorf("load: marker %s.%s: %w", p.PkgPath, name, err)
					}
					cs = append(cs, ContributionFromMarker(b))
				case marker.KindModule:
					m, err := marker.DecodeModule(value)
					if err != nil {
						return fmt.Errorf("load: marker %s.%s: %w", p.PkgPath, name, err)
					}
					ms = append(ms, ModuleFromMarker(m))
				}
			}
		}
		for _, imp := range p.Imports {
			if err := walk(imp); err != nil {
				return err
			}
		}
		return nil
	}

	for _, pkg := range pkgs {
		if err := walk(pkg); err != nil {
			return nil, nil, err
		}
	}
	return cs, ms, nil
}

func constValue(obj types.Object) (string, bool) {
	c, ok := obj.(*types.Const)
	if !ok || c.Val().Kind() != constant.String {
		return "", false
	}
	return constant.StringVal(c.Val()), true
}

func posErr(pkg *packages.Package, pos token.Pos, err error) error {
	return fmt.Errorf("%s: %w", pkg.Fset.Position(pos), err)
}

func posErrf(pos string, err error) error {
	return fmt.Errorf("%s: %w", pos, err)
}
