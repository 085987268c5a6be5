package client

import (
	"bytes"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/lablabs/countries-explorer/internal/cache"
)

// Document is a parsed single-operation query document.
type Document struct {
	// Name is the operation name, or "anonymous".
	Name string
	// Source is the document as written.
	Source string
	// Printed is the document sent over the wire, with __typename added to
	// every selection set below the root.
	Printed string

	Operation *ast.OperationDefinition
	Fragments ast.FragmentDefinitionList
}

// ParseDocument parses src. Only documents holding exactly one query
// operation are accepted.
func ParseDocument(src string) (*Document, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: src})
	if err != nil {
		return nil, fmt.Errorf("parse query document: %w", err)
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("expected exactly one operation, got %d", len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Operation != ast.Query {
		return nil, fmt.Errorf("unsupported operation type %q", op.Operation)
	}

	op.SelectionSet = addTypename(op.SelectionSet, true)
	for _, frag := range doc.Fragments {
		frag.SelectionSet = addTypename(frag.SelectionSet, false)
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)

	name := op.Name
	if name == "" {
		name = "anonymous"
	}
	return &Document{
		Name:      name,
		Source:    src,
		Printed:   buf.String(),
		Operation: op,
		Fragments: doc.Fragments,
	}, nil
}

func addTypename(set ast.SelectionSet, root bool) ast.SelectionSet {
	if len(set) == 0 {
		return set
	}
	has := false
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name == cache.TypenameField {
				has = true
			}
			s.SelectionSet = addTypename(s.SelectionSet, false)
		case *ast.InlineFragment:
			s.SelectionSet = addTypename(s.SelectionSet, false)
		}
	}
	if root || has {
		return set
	}
	return append(set, &ast.Field{Name: cache.TypenameField, Alias: cache.TypenameField})
}

// ValidateVariables checks that every non-null variable without a default
// is provided.
func (d *Document) ValidateVariables(vars map[string]interface{}) error {
	for _, def := range d.Operation.VariableDefinitions {
		if def.Type == nil || !def.Type.NonNull || def.DefaultValue != nil {
			continue
		}
		if v, ok := vars[def.Variable]; !ok || v == nil {
			return &QueryError{
				Kind:    ErrorKindValidation,
				Message: fmt.Sprintf("Variable \"$%s\" of required type \"%s\" was not provided.", def.Variable, def.Type.String()),
			}
		}
	}
	return nil
}

// withDefaults returns a copy of vars with declared defaults filled in.
func (d *Document) withDefaults(vars map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	for _, def := range d.Operation.VariableDefinitions {
		if _, ok := out[def.Variable]; ok || def.DefaultValue == nil {
			continue
		}
		if v, err := def.DefaultValue.Value(nil); err == nil {
			out[def.Variable] = v
		}
	}
	return out
}

func (d *Document) cacheQuery(vars map[string]interface{}) cache.Query {
	return cache.Query{
		SelectionSet: d.Operation.SelectionSet,
		Fragments:    d.Fragments,
		Variables:    vars,
	}
}
