// Package gqlschema indexes the type names and root field names a GraphQL backend exposes, as read from its
// introspection response, and merges several backends into one additive view.
package gqlschema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	set "github.com/deckarep/golang-set/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var ErrInvalidIntrospection = errors.New("invalid introspection document")

const (
	schemaPath       = "data.__schema"
	queryTypePath    = "queryType.name"
	mutationTypePath = "mutationType.name"
	typesPath        = "types"
)

// Model is an immutable index over a `__schema` introspection node. Merge builds a new Model and never
// modifies its receiver, so a *Model can be shared between goroutines once published.
type Model struct {
	// document is the raw `__schema` JSON object, nil for an empty model.
	document     []byte
	queryType    string
	mutationType string

	types          set.Set[string]
	queryFields    set.Set[string]
	mutationFields set.Set[string]
}

// Empty returns a model that knows nothing.
func Empty() *Model {
	return &Model{
		types:          set.NewSet[string](),
		queryFields:    set.NewSet[string](),
		mutationFields: set.NewSet[string](),
	}
}

// Load builds a model from a full introspection response. A response without `data.__schema` yields an
// empty model; a body that is not JSON yields ErrInvalidIntrospection.
func Load(document []byte) (*Model, error) {
	if !gjson.ValidBytes(document) {
		return nil, ErrInvalidIntrospection
	}

	schema := gjson.GetBytes(document, schemaPath)
	if !schema.IsObject() {
		return Empty(), nil
	}

	return fromSchema([]byte(schema.Raw)), nil
}

func fromSchema(document []byte) *Model {
	m := Empty()
	m.document = document

	schema := gjson.ParseBytes(document)
	m.queryType = schema.Get(queryTypePath).String()
	m.mutationType = schema.Get(mutationTypePath).String()

	for _, t := range schema.Get(typesPath).Array() {
		name := t.Get("name").String()
		if name == "" || m.types.Contains(name) {
			continue
		}
		m.types.Add(name)

		switch name {
		case m.queryType:
			addFieldNames(m.queryFields, t)
		case m.mutationType:
			addFieldNames(m.mutationFields, t)
		}
	}

	return m
}

func addFieldNames(names set.Set[string], t gjson.Result) {
	for _, f := range t.Get("fields").Array() {
		if name := f.Get("name").String(); name != "" {
			names.Add(name)
		}
	}
}

// Merge returns a model holding everything the receiver knows plus whatever other knows that the receiver
// does not. Names already known are never replaced: a type defined by both keeps the receiver's definition.
func (m *Model) Merge(other *Model) (*Model, error) {
	if other.IsEmpty() {
		if m == nil {
			return Empty(), nil
		}
		return m, nil
	}
	if m.IsEmpty() {
		return other, nil
	}

	document := slices.Clone(m.document)
	var err error

	queryType, mutationType := m.queryType, m.mutationType
	if queryType == "" && other.queryType != "" {
		queryType = other.queryType
		if document, err = setRootType(document, "queryType", queryType); err != nil {
			return nil, err
		}
	}
	if mutationType == "" && other.mutationType != "" {
		mutationType = other.mutationType
		if document, err = setRootType(document, "mutationType", mutationType); err != nil {
			return nil, err
		}
	}

	if gjson.GetBytes(document, typesPath).IsArray() {
		for _, t := range other.firstTypeDefinitions() {
			if m.types.Contains(t.Get("name").String()) {
				continue
			}
			if document, err = sjson.SetRawBytes(document, typesPath+".-1", []byte(t.Raw)); err != nil {
				return nil, fmt.Errorf("appending type %q: %w", t.Get("name").String(), err)
			}
		}
	}

	if document, err = appendRootFields(document, queryType, other.rootFieldDefinitions(other.queryType)); err != nil {
		return nil, fmt.Errorf("merging query fields: %w", err)
	}
	if document, err = appendRootFields(document, mutationType, other.rootFieldDefinitions(other.mutationType)); err != nil {
		return nil, fmt.Errorf("merging mutation fields: %w", err)
	}

	return fromSchema(document), nil
}

// setRootType replaces the `{name}` object stored under key, which may be missing or null.
func setRootType(document []byte, key, name string) ([]byte, error) {
	ref, err := sjson.SetBytes([]byte(`{}`), "name", name)
	if err != nil {
		return nil, fmt.Errorf("encoding %s %q: %w", key, name, err)
	}
	if document, err = sjson.SetRawBytes(document, key, ref); err != nil {
		return nil, fmt.Errorf("setting %s %q: %w", key, name, err)
	}
	return document, nil
}

// appendRootFields appends the definitions whose names are not yet present to the `fields` array of the
// first type named rootType in document.
func appendRootFields(document []byte, rootType string, definitions []gjson.Result) ([]byte, error) {
	if rootType == "" || len(definitions) == 0 {
		return document, nil
	}

	index := typeIndex(document, rootType)
	if index < 0 {
		return document, nil
	}
	typePath := fmt.Sprintf("%s.%d", typesPath, index)
	fieldsPath := typePath + ".fields"
	if !gjson.GetBytes(document, fieldsPath).IsArray() {
		return document, nil
	}
	known := set.NewThreadUnsafeSet[string]()
	addFieldNames(known, gjson.GetBytes(document, typePath))

	var err error
	for _, f := range definitions {
		name := f.Get("name").String()
		if name == "" || !known.Add(name) {
			continue
		}
		if document, err = sjson.SetRawBytes(document, fieldsPath+".-1", []byte(f.Raw)); err != nil {
			return nil, fmt.Errorf("appending field %q to %q: %w", name, rootType, err)
		}
	}
	return document, nil
}

func typeIndex(document []byte, name string) int {
	for i, t := range gjson.GetBytes(document, typesPath).Array() {
		if t.Get("name").String() == name {
			return i
		}
	}
	return -1
}

// firstTypeDefinitions returns the type definitions of the model, skipping later duplicates of a name.
func (m *Model) firstTypeDefinitions() []gjson.Result {
	seen := set.NewThreadUnsafeSet[string]()
	var definitions []gjson.Result
	for _, t := range gjson.GetBytes(m.document, typesPath).Array() {
		name := t.Get("name").String()
		if name == "" || !seen.Add(name) {
			continue
		}
		definitions = append(definitions, t)
	}
	return definitions
}

func (m *Model) rootFieldDefinitions(rootType string) []gjson.Result {
	if rootType == "" {
		return nil
	}
	index := typeIndex(m.document, rootType)
	if index < 0 {
		return nil
	}
	return gjson.GetBytes(m.document, fmt.Sprintf("%s.%d.fields", typesPath, index)).Array()
}

// MergeMany folds Merge over models in order, so the first model to define a name wins.
func MergeMany(models ...*Model) (*Model, error) {
	merged := Empty()
	for i, m := range models {
		if m == nil {
			continue
		}
		var err error
		if merged, err = merged.Merge(m); err != nil {
			return nil, fmt.Errorf("merging model %d: %w", i, err)
		}
	}
	return merged, nil
}

// QuickMatch reports whether any known root field name appears anywhere in request. It is a cheap pre-filter
// with false positives; use a splitter for the real decision.
func (m *Model) QuickMatch(request string) bool {
	if m == nil {
		return false
	}
	matches := func(name string) bool {
		return strings.Contains(request, name)
	}
	return slices.ContainsFunc(toSlice(m.queryFields), matches) ||
		slices.ContainsFunc(toSlice(m.mutationFields), matches)
}

func (m *Model) IsEmpty() bool {
	return m == nil || m.document == nil
}

// KnowsType and the other lookups treat a nil or zero Model as one that knows nothing.
func (m *Model) KnowsType(name string) bool {
	return m != nil && contains(m.types, name)
}

func (m *Model) KnowsQueryField(name string) bool {
	return m != nil && contains(m.queryFields, name)
}

func (m *Model) KnowsMutationField(name string) bool {
	return m != nil && contains(m.mutationFields, name)
}

// KnowsField reports whether name is a field of either the query or the mutation root type.
func (m *Model) KnowsField(name string) bool {
	return m.KnowsQueryField(name) || m.KnowsMutationField(name)
}

func (m *Model) QueryType() string {
	if m == nil {
		return ""
	}
	return m.queryType
}

func (m *Model) MutationType() string {
	if m == nil {
		return ""
	}
	return m.mutationType
}

func (m *Model) TypeNames() []string {
	if m == nil {
		return []string{}
	}
	return sorted(m.types)
}

func (m *Model) QueryFieldNames() []string {
	if m == nil {
		return []string{}
	}
	return sorted(m.queryFields)
}

func (m *Model) MutationFieldNames() []string {
	if m == nil {
		return []string{}
	}
	return sorted(m.mutationFields)
}

func contains(s set.Set[string], name string) bool {
	return s != nil && s.Contains(name)
}

func toSlice(s set.Set[string]) []string {
	if s == nil {
		return []string{}
	}
	return s.ToSlice()
}

func sorted(s set.Set[string]) []string {
	names := toSlice(s)
	slices.Sort(names)
	return names
}

// Document returns a copy of the raw `__schema` node, nil for an empty model.
func (m *Model) Document() []byte {
	if m.IsEmpty() {
		return nil
	}
	return slices.Clone(m.document)
}

// Introspection wraps the model back into an introspection response that Load accepts.
func (m *Model) Introspection() ([]byte, error) {
	if m.IsEmpty() {
		return []byte(`{"data":{}}`), nil
	}
	out, err := sjson.SetRawBytes([]byte(`{}`), schemaPath, m.document)
	if err != nil {
		return nil, fmt.Errorf("wrapping schema document: %w", err)
	}
	return out, nil
}
