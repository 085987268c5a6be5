// Package cache implements the normalized entity cache shared by every query
// of a client.
//
// Objects that carry a __typename and a key field are stored once under
// "<Typename>:<key>" and referenced from wherever they appear. Root query
// fields are stored on the ROOT_QUERY entity, qualified by their arguments.
package cache

import (
	"fmt"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
)

// RootQueryID identifies the entity holding root query fields.
const RootQueryID = "ROOT_QUERY"

// Reference points at a normalized entity.
type Reference string

// DefaultKeyFields maps the countries schema types to their identifying
// field. Types not listed fall back to "id".
var DefaultKeyFields = map[string]string{
	"Country":   "code",
	"Continent": "code",
	"Language":  "code",
}

// Query is the part of an operation the cache needs to read or write it.
type Query struct {
	SelectionSet ast.SelectionSet
	Fragments    ast.FragmentDefinitionList
	Variables    map[string]interface{}
}

type entity map[string]interface{}

// Store is a normalized cache. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	entities  map[string]entity
	keyFields map[string]string
}

// NewStore returns an empty store. keyFields may be nil to use
// DefaultKeyFields.
func NewStore(keyFields map[string]string) *Store {
	if keyFields == nil {
		keyFields = DefaultKeyFields
	}
	return &Store{
		entities:  map[string]entity{RootQueryID: {}},
		keyFields: keyFields,
	}
}

// Identify returns the cache ID of obj, or "" when obj is not an entity.
func (s *Store) Identify(obj map[string]interface{}) string {
	typename, _ := obj[TypenameField].(string)
	if typename == "" {
		return ""
	}
	keyField, ok := s.keyFields[typename]
	if !ok {
		keyField = "id"
	}
	key, ok := obj[keyField]
	if !ok || key == nil {
		return ""
	}
	return fmt.Sprintf("%s:%v", typename, key)
}

// Write merges data, the result of q, into the store.
func (s *Store) Write(q Query, data map[string]interface{}) {
	if data == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeObject(s.entities[RootQueryID], q.SelectionSet, data, q)
}

// WriteEntities merges the entities found in data without recording the
// root fields of q, so a later Read of q still misses.
func (s *Store) WriteEntities(q Query, data map[string]interface{}) {
	if data == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeObject(entity{}, q.SelectionSet, data, q)
}

func (s *Store) writeObject(target entity, set ast.SelectionSet, data map[string]interface{}, q Query) {
	typename, _ := data[TypenameField].(string)
	for _, f := range collectFields(set, typename, q) {
		v, present := data[responseKey(f)]
		if !present {
			continue
		}
		name := storeFieldName(f, q.Variables)
		target[name] = s.normalize(f, v, target[name], q)
	}
}

func (s *Store) normalize(f *ast.Field, v interface{}, existing interface{}, q Query) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = s.normalize(f, item, nil, q)
		}
		return out
	case map[string]interface{}:
		if len(f.SelectionSet) == 0 {
			return val
		}
		if id := s.Identify(val); id != "" {
			ent, ok := s.entities[id]
			if !ok {
				ent = entity{}
				s.entities[id] = ent
			}
			s.writeObject(ent, f.SelectionSet, val, q)
			return Reference(id)
		}
		sub, ok := existing.(map[string]interface{})
		if !ok {
			sub = map[string]interface{}{}
		}
		s.writeObject(sub, f.SelectionSet, val, q)
		return sub
	default:
		return val
	}
}

// Read reconstructs the result of q from the store. The boolean is false
// when any selected field is missing.
func (s *Store) Read(q Query) (map[string]interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readObject(s.entities[RootQueryID], q.SelectionSet, q, true)
}

func (s *Store) readObject(source map[string]interface{}, set ast.SelectionSet, q Query, root bool) (map[string]interface{}, bool) {
	typename, _ := source[TypenameField].(string)
	out := make(map[string]interface{})
	for _, f := range collectFields(set, typename, q) {
		stored, ok := source[storeFieldName(f, q.Variables)]
		if !ok {
			if root && f.Name == TypenameField {
				out[responseKey(f)] = "Query"
				continue
			}
			return nil, false
		}
		v, ok := s.readValue(f, stored, q)
		if !ok {
			return nil, false
		}
		out[responseKey(f)] = v
	}
	return out, true
}

func (s *Store) readValue(f *ast.Field, stored interface{}, q Query) (interface{}, bool) {
	switch val := stored.(type) {
	case nil:
		return nil, true
	case Reference:
		ent, ok := s.entities[string(val)]
		if !ok {
			return nil, false
		}
		return s.readObject(ent, f.SelectionSet, q, false)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			v, ok := s.readValue(f, item, q)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	case map[string]interface{}:
		if len(f.SelectionSet) == 0 {
			return val, true
		}
		return s.readObject(val, f.SelectionSet, q, false)
	default:
		return val, true
	}
}

// Evict removes the entity with the given ID. References to it become
// misses on the next read.
func (s *Store) Evict(id string) bool {
	if id == RootQueryID {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entities[id]
	delete(s.entities, id)
	return ok
}

// Reset drops every entity.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entities = map[string]entity{RootQueryID: {}}
}

// Size returns the number of entities, excluding ROOT_QUERY.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entities) - 1
}

// Extract returns a deep copy of the store with references rendered as
// {"__ref": id}, suitable for JSON encoding.
func (s *Store) Extract() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]interface{}, len(s.entities))
	for id, ent := range s.entities {
		out[id] = extractValue(map[string]interface{}(ent))
	}
	return out
}

func extractValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Reference:
		return map[string]interface{}{"__ref": string(val)}
	case entity:
		return extractValue(map[string]interface{}(val))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = extractValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = extractValue(item)
		}
		return out
	default:
		return val
	}
}
