// Package gqlsplit rewrites a GraphQL request into the part a backend schema can serve and the part it cannot.
//
// The rewrite is text surgery over the spans found by gqlquery: removed fragments, fields and variable
// definitions are cut out of the original text, declarations left without a usage are dropped, and dangling
// punctuation is cleaned up. The result is not re-validated.
package gqlsplit

import (
	"fmt"

	set "github.com/deckarep/golang-set/v2"

	"github.com/stellar/graphql-stitcher/pkg/gqlquery"
)

// Schema is what a Splitter needs to know about a backend. *gqlschema.Model implements it.
type Schema interface {
	KnowsType(name string) bool
	KnowsField(name string) bool
}

// builtinScalars are never removed from a not-matching projection, even when the schema declares them.
var builtinScalars = set.NewSet(
	"String",
	"Boolean",
	"Float",
	"Int",
	"ID",
	"Id",
	"Date",
	"DateTime",
	"DateTimeOffset",
	"Seconds",
	"Milliseconds",
	"Decimal",
)

type polarity int

const (
	keepKnown polarity = iota
	keepUnknown
)

type Splitter struct {
	schema Schema
}

func New(schema Schema) *Splitter {
	return &Splitter{schema: schema}
}

// Matching returns request restricted to the fragments, variables and root fields the schema knows.
func (s *Splitter) Matching(request string) (string, error) {
	return s.split(request, keepKnown)
}

// NotMatching returns request restricted to what the schema does not know. Variables typed with a built-in
// scalar are always kept.
func (s *Splitter) NotMatching(request string) (string, error) {
	return s.split(request, keepUnknown)
}

func (s *Splitter) split(request string, p polarity) (string, error) {
	segments, err := gqlquery.Parse(request)
	if err != nil {
		return "", fmt.Errorf("parsing request: %w", err)
	}

	for i := range segments {
		s.markRemoved(&segments[i], p)
	}

	projected, err := eraseRemoved(request, segments)
	if err != nil {
		return "", fmt.Errorf("erasing removed items: %w", err)
	}

	projected, err = removeUnusedParameters(projected)
	if err != nil {
		return "", fmt.Errorf("removing unused parameters: %w", err)
	}

	return projected, nil
}

func (s *Splitter) markRemoved(segment *gqlquery.Segment, p polarity) {
	if segment.IsFragment() {
		known := s.schema.KnowsType(segment.FragmentType)
		segment.Removed = known == (p == keepUnknown)
		return
	}

	for i := range segment.Parameters {
		parameter := &segment.Parameters[i]
		known := s.schema.KnowsType(parameter.Type)
		if p == keepKnown {
			parameter.Removed = !known
		} else {
			parameter.Removed = known && !builtinScalars.Contains(parameter.Type)
		}
	}

	for i := range segment.Fields {
		field := &segment.Fields[i]
		known := s.schema.KnowsField(field.Name)
		field.Removed = known == (p == keepUnknown)
	}
	segment.Removed = segment.AllFieldsRemoved()
}

// removeUnusedParameters drops every variable definition that no `argName: $name` usage in text refers to.
func removeUnusedParameters(text string) (string, error) {
	segments, err := gqlquery.Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing projection: %w", err)
	}

	usages := set.NewThreadUnsafeSet(gqlquery.VariableUsages(text)...)
	for i := range segments {
		for j := range segments[i].Parameters {
			parameter := &segments[i].Parameters[j]
			parameter.Removed = !usages.Contains(parameter.Name)
		}
		segments[i].Removed = !segments[i].IsFragment() && segments[i].AllFieldsRemoved()
	}

	return eraseRemoved(text, segments)
}
