package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/scopegen/compiler/load"
	"github.com/syssam/scopegen/marker"
)

// Synthesizer turns resolved contribution sets into generated container
// declarations and marker files.
type Synthesizer struct {
	header string
}

// NewSynthesizer creates a synthesizer using the config's file header.
func NewSynthesizer(cfg *Config) *Synthesizer {
	return &Synthesizer{header: cfg.Header}
}

// newFile creates a new file in the given package with the header comment.
// The full import path is supplied so references to types declared in the
// target package itself render unqualified.
func (s *Synthesizer) newFile(pkgPath, pkgName string) *jen.File {
	f := jen.NewFilePathName(pkgPath, pkgName)
	f.HeaderComment(s.header)
	return f
}

// Container synthesizes the merged container declaration for one target.
// Regenerating from an identical resolution yields byte-identical output.
func (s *Synthesizer) Container(res *Resolution, t *load.MergeTarget) *jen.File {
	f := s.newFile(t.Package, t.PkgName)

	name := ContainerName(t)
	f.Commentf("%s tags %s with the scope it was merged for.", ScopeConstName(t), name)
	f.Const().Id(ScopeConstName(t)).Op("=").Lit(res.Scope)

	all := make([]*load.Contribution, 0, len(res.Bindings)+len(res.Multibindings))
	all = append(all, res.Bindings...)
	all = append(all, res.Multibindings...)
	sortContributions(all)

	var bindingStyle, providerStyle []*load.Contribution
	for _, c := range all {
		if c.ObjectInstance {
			providerStyle = append(providerStyle, c)
		} else {
			bindingStyle = append(bindingStyle, c)
		}
	}

	if len(bindingStyle) == 0 {
		// Nothing abstract survives, so the container is a value holder
		// exposing the singleton contributions directly.
		f.Commentf("%s holds the contributions merged for scope %q.", name, res.Scope)
		f.Type().Id(name).Struct()
		for _, c := range providerStyle {
			s.providerMethod(f, name, c)
		}
	} else {
		var members []jen.Code
		for _, m := range res.Modules {
			if m.Interface {
				members = append(members, jen.Qual(m.Type.PkgPath, m.Type.Name))
			}
		}
		for _, c := range bindingStyle {
			for _, q := range c.Qualifiers {
				members = append(members, jen.Comment("scopegen:qualifier "+q.String()))
			}
			members = append(members, jen.Id(AccessorName(c)).
				Params(jen.Qual(c.Concrete.PkgPath, c.Concrete.Name)).
				Qual(c.Bound.PkgPath, c.Bound.Name))
		}
		f.Commentf("%s aggregates the contributions merged for scope %q.", name, res.Scope)
		f.Type().Id(name).Interface(members...)

		if len(providerStyle) > 0 {
			f.Commentf("%s exposes the singleton contributions of scope %q.", ProvidersName(t), res.Scope)
			f.Type().Id(ProvidersName(t)).Struct()
			for _, c := range providerStyle {
				s.providerMethod(f, ProvidersName(t), c)
			}
		}
	}

	var moduleValues []jen.Code
	for _, m := range res.Modules {
		if !m.Interface {
			moduleValues = append(moduleValues, jen.Qual(m.Type.PkgPath, m.Type.Name).Values())
		}
	}
	if len(moduleValues) > 0 {
		f.Commentf("%s lists the modules merged into %s.", ModulesVarName(t), name)
		f.Var().Id(ModulesVarName(t)).Op("=").Index().Any().Values(moduleValues...)
	}
	return f
}

// providerMethod emits a provider-style accessor returning the contributed
// singleton value.
func (s *Synthesizer) providerMethod(f *jen.File, recv string, c *load.Contribution) {
	for _, q := range c.Qualifiers {
		f.Comment("scopegen:qualifier " + q.String())
	}
	f.Func().Params(jen.Id(recv)).Id(AccessorName(c)).Params().
		Qual(c.Bound.PkgPath, c.Bound.Name).
		Block(jen.Return(jen.Qual(c.Concrete.PkgPath, c.Concrete.Name)))
}

// Markers synthesizes the marker file republishing a unit's local
// contributions for downstream compilation units. It returns nil when the
// unit declares nothing locally.
func (s *Synthesizer) Markers(u *load.Unit) (*jen.File, error) {
	cs, ms := u.Local()
	if len(cs)+len(ms) == 0 {
		return nil, nil
	}
	f := s.newFile(u.PkgPath, u.PkgName)

	var defs []jen.Code
	for _, c := range cs {
		payload, err := marker.Encode(c.Marker())
		if err != nil {
			return nil, err
		}
		kind := marker.KindBinding
		if c.Multibinding {
			kind = marker.KindMultibinding
		}
		defs = append(defs, jen.Id(marker.Name(kind, MarkerSuffix(c))).Op("=").Lit(payload))
	}
	for _, m := range ms {
		payload, err := marker.Encode(m.Marker())
		if err != nil {
			return nil, err
		}
		defs = append(defs, jen.Id(marker.Name(marker.KindModule, ModuleMarkerSuffix(m))).Op("=").Lit(payload))
	}

	f.Comment("Markers publish this package's contributions to downstream builds.")
	f.Comment("They are located by declaration name prefix and decoded by scopegen.")
	f.Const().Defs(defs...)
	return f, nil
}
