package load

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/syssam/scopegen"
)

// Directive kinds recognized on source declarations.
const (
	// DirectivePrefix introduces a scopegen directive in a doc comment.
	DirectivePrefix = "scopegen:"

	KindBinding      = "binding"      // //scopegen:binding bound=<type> scope=<scope> [replaces=...] [qualifier=...]
	KindMultibinding = "multibinding" // same fields as binding, contributes into a set
	KindModule       = "module"       // //scopegen:module scope=<scope> [replaces=...]
	KindMerge        = "merge"        // //scopegen:merge scope=<scope> [exclude=...]
)

// Directive is a parsed and validated //scopegen: directive. Raw key=value
// arguments are converted up front so malformed metadata fails at scan time
// instead of propagating into resolution.
type Directive struct {
	Kind       string
	Scope      string
	Bound      string // unresolved type reference, binding kinds only
	Replaces   []string
	Excludes   []string
	Qualifiers []scopegen.Qualifier
}

// argument keys allowed per directive kind.
var directiveKeys = map[string]map[string]bool{
	KindBinding:      {"bound": true, "scope": true, "replaces": true, "qualifier": true},
	KindMultibinding: {"bound": true, "scope": true, "replaces": true, "qualifier": true},
	KindModule:       {"scope": true, "replaces": true},
	KindMerge:        {"scope": true, "exclude": true},
}

// ParseDirectives extracts //scopegen: directives from a doc comment group.
// Non-directive comments are ignored; a malformed directive is an error.
func ParseDirectives(doc *ast.CommentGroup) ([]*Directive, error) {
	if doc == nil {
		return nil, nil
	}
	var directives []*Directive
	merges := 0
	for _, comment := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(comment.Text, "//"))
		if !strings.HasPrefix(text, DirectivePrefix) {
			continue
		}
		d, err := parseDirective(strings.TrimPrefix(text, DirectivePrefix))
		if err != nil {
			return nil, err
		}
		// Each merge target emits into a file derived from the declaration
		// name, so one declaration can request at most one container.
		if d.Kind == KindMerge {
			if merges++; merges > 1 {
				return nil, fmt.Errorf("scopegen:merge: at most one merge directive per declaration")
			}
		}
		directives = append(directives, d)
	}
	return directives, nil
}

func parseDirective(text string) (*Directive, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty scopegen directive")
	}
	kind := fields[0]
	allowed, ok := directiveKeys[kind]
	if !ok {
		return nil, fmt.Errorf("unknown scopegen directive %q", kind)
	}
	d := &Directive{Kind: kind}
	seen := map[string]bool{}
	for _, arg := range fields[1:] {
		key, value, found := strings.Cut(arg, "=")
		if !found || value == "" {
			return nil, fmt.Errorf("scopegen:%s: malformed argument %q, want key=value", kind, arg)
		}
		if !allowed[key] {
			return nil, fmt.Errorf("scopegen:%s: unknown argument %q", kind, key)
		}
		// qualifier is the only repeatable key; order is preserved.
		if key != "qualifier" && seen[key] {
			return nil, fmt.Errorf("scopegen:%s: duplicate argument %q", kind, key)
		}
		seen[key] = true
		switch key {
		case "scope":
			d.Scope = value
		case "bound":
			d.Bound = value
		case "replaces":
			d.Replaces = splitList(value)
		case "exclude":
			d.Excludes = splitList(value)
		case "qualifier":
			d.Qualifiers = append(d.Qualifiers, parseQualifier(value))
		}
	}
	if d.Scope == "" {
		return nil, fmt.Errorf("scopegen:%s: missing required argument \"scope\"", kind)
	}
	if (kind == KindBinding || kind == KindMultibinding) && d.Bound == "" {
		return nil, fmt.Errorf("scopegen:%s: missing required argument \"bound\"", kind)
	}
	return d, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseQualifier parses `name` or `name:arg1,arg2`.
func parseQualifier(value string) scopegen.Qualifier {
	name, args, found := strings.Cut(value, ":")
	q := scopegen.Qualifier{Name: name}
	if found {
		q.Args = splitList(args)
	}
	return q
}
