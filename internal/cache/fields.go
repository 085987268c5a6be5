package cache

import (
	"encoding/json"

	"github.com/vektah/gqlparser/v2/ast"
)

// TypenameField is the introspection field used to identify entities.
const TypenameField = "__typename"

// responseKey is the key a field's value has in a response object.
func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// storeFieldName qualifies a field with its resolved arguments, so that
// country(code: "JP") and country(code: "FR") are stored apart.
func storeFieldName(f *ast.Field, vars map[string]interface{}) string {
	if len(f.Arguments) == 0 {
		return f.Name
	}

	args := make(map[string]interface{}, len(f.Arguments))
	for _, arg := range f.Arguments {
		if arg.Value == nil {
			continue
		}
		v, err := arg.Value.Value(vars)
		if err != nil {
			v = arg.Value.Raw
		}
		args[arg.Name] = v
	}

	// encoding/json sorts map keys, which makes the name canonical.
	b, err := json.Marshal(args)
	if err != nil {
		return f.Name
	}
	return f.Name + "(" + string(b) + ")"
}

// collectFields flattens set into the fields that apply to an object of
// the given typename, expanding fragments and honoring @skip/@include.
func collectFields(set ast.SelectionSet, typename string, q Query) []*ast.Field {
	var fields []*ast.Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if included(s.Directives, q.Variables) {
				fields = append(fields, s)
			}
		case *ast.InlineFragment:
			if included(s.Directives, q.Variables) && typeMatches(s.TypeCondition, typename) {
				fields = append(fields, collectFields(s.SelectionSet, typename, q)...)
			}
		case *ast.FragmentSpread:
			if !included(s.Directives, q.Variables) {
				continue
			}
			def := q.Fragments.ForName(s.Name)
			if def != nil && typeMatches(def.TypeCondition, typename) {
				fields = append(fields, collectFields(def.SelectionSet, typename, q)...)
			}
		}
	}
	return fields
}

// typeMatches reports whether a fragment with condition cond applies. An
// unknown typename matches everything since no schema is available.
func typeMatches(cond, typename string) bool {
	return cond == "" || typename == "" || cond == typename
}

func included(directives ast.DirectiveList, vars map[string]interface{}) bool {
	for _, d := range directives {
		if d.Name != "skip" && d.Name != "include" {
			continue
		}
		arg := d.Arguments.ForName("if")
		if arg == nil || arg.Value == nil {
			continue
		}
		v, err := arg.Value.Value(vars)
		if err != nil {
			continue
		}
		b, _ := v.(bool)
		if d.Name == "skip" && b {
			return false
		}
		if d.Name == "include" && !b {
			return false
		}
	}
	return true
}
