package gqlsplit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/stellar/graphql-stitcher/pkg/gqlquery"
	"github.com/stellar/graphql-stitcher/pkg/gqlschema"
)

const heroIntrospection = `{
  "data": {
    "__schema": {
      "queryType": {"name": "Query"},
      "mutationType": {"name": "Mutation"},
      "types": [
        {"name": "Query", "fields": [{"name": "hero"}]},
        {"name": "Mutation", "fields": [{"name": "createReview"}]},
        {"name": "Character", "fields": [{"name": "name"}]},
        {"name": "Episode", "fields": null},
        {"name": "ID", "fields": null},
        {"name": "Int", "fields": null},
        {"name": "String", "fields": null}
      ]
    }
  }
}`

func heroSplitter(t *testing.T) *Splitter {
	t.Helper()
	schema, err := gqlschema.Load([]byte(heroIntrospection))
	require.NoError(t, err)
	return New(schema)
}

func assertParses(t *testing.T, query string) {
	t.Helper()
	_, gqlErr := parser.ParseQuery(&ast.Source{Input: query})
	assert.Nil(t, gqlErr, "projection %q must still parse", query)
}

func TestSplitter_HeroVillainCharacter(t *testing.T) {
	request := `query Q {
  hero { ...heroFields }
  villain { name }
}

fragment heroFields on Character { name }`

	splitter := heroSplitter(t)

	t.Run("matching", func(t *testing.T) {
		got, err := splitter.Matching(request)
		require.NoError(t, err)
		assert.Equal(t, "query Q {\n  hero { ...heroFields }\n  }\n\nfragment heroFields on Character { name }", got)
		assertParses(t, got)
	})

	t.Run("not_matching", func(t *testing.T) {
		got, err := splitter.NotMatching(request)
		require.NoError(t, err)
		assert.Equal(t, "query Q {\n  villain { name }\n}", got)
		assertParses(t, got)
	})
}

func TestSplitter_UnusedParameters(t *testing.T) {
	request := `query Q($id: ID!, $first: Int) { hero(id: $id) { name } villain(first: $first) { name } }`
	splitter := heroSplitter(t)

	t.Run("matching_drops_the_orphaned_declaration", func(t *testing.T) {
		got, err := splitter.Matching(request)
		require.NoError(t, err)
		assert.Equal(t, `query Q($id: ID!) { hero(id: $id) { name } }`, got)
		assertParses(t, got)
	})

	t.Run("not_matching_keeps_builtin_scalars_until_unused", func(t *testing.T) {
		got, err := splitter.NotMatching(request)
		require.NoError(t, err)
		assert.Equal(t, `query Q( $first: Int) { villain(first: $first) { name } }`, got)
		assertParses(t, got)
	})

	t.Run("empty_variable_list_is_removed", func(t *testing.T) {
		got, err := splitter.Matching(`query Q($first: Int) { hero { name } }`)
		require.NoError(t, err)
		assert.Equal(t, `query Q { hero { name } }`, got)
	})
}

func TestSplitter_Parameters(t *testing.T) {
	splitter := heroSplitter(t)

	t.Run("matching_removes_unknown_types", func(t *testing.T) {
		got, err := splitter.Matching(`query Q($ep: Episode, $planet: Planet) { hero(episode: $ep, planet: $planet) { name } }`)
		require.NoError(t, err)
		assert.Equal(t, `query Q($ep: Episode) { hero(episode: $ep, planet: $planet) { name } }`, got)
	})

	t.Run("not_matching_removes_known_non_builtin_types", func(t *testing.T) {
		got, err := splitter.NotMatching(`query Q($ep: Episode, $s: String) { villain(ep: $ep, s: $s) }`)
		require.NoError(t, err)
		assert.Equal(t, `query Q( $s: String) { villain(ep: $ep, s: $s) }`, got)
	})
}

func TestSplitter_WholeOperationRemoval(t *testing.T) {
	splitter := heroSplitter(t)

	testCases := []struct {
		name        string
		request     string
		matching    string
		notMatching string
	}{
		{
			name:        "only_unknown_fields",
			request:     `query Q($first: Int) { villain(first: $first) { name } }`,
			matching:    ``,
			notMatching: `query Q($first: Int) { villain(first: $first) { name } }`,
		},
		{
			name:        "only_known_fields",
			request:     `{ hero { name } }`,
			matching:    `{ hero { name } }`,
			notMatching: ``,
		},
		{
			name:        "empty_selection",
			request:     `{ }`,
			matching:    ``,
			notMatching: ``,
		},
		{
			name:        "mutation",
			request:     "mutation { createReview(stars: 5) { stars } }\nquery { villain }",
			matching:    "mutation { createReview(stars: 5) { stars } }",
			notMatching: "\nquery { villain }",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			matching, err := splitter.Matching(tc.request)
			require.NoError(t, err)
			assert.Equal(t, tc.matching, matching)

			notMatching, err := splitter.NotMatching(tc.request)
			require.NoError(t, err)
			assert.Equal(t, tc.notMatching, notMatching)
		})
	}
}

func TestSplitter_IdenticalSiblingsAreCutByPosition(t *testing.T) {
	splitter := heroSplitter(t)

	got, err := splitter.Matching(`{ villain { name } hero { name } villain { name } }`)
	require.NoError(t, err)
	assert.Equal(t, `{ hero { name } }`, got)
}

func TestSplitter_TopLevelComments(t *testing.T) {
	request := "{ hero\n  # note: keep me\n  villain }"
	splitter := heroSplitter(t)

	t.Run("matching_keeps_the_comment_with_the_field_it_follows", func(t *testing.T) {
		got, err := splitter.Matching(request)
		require.NoError(t, err)
		assert.Equal(t, "{ hero\n  # note: keep me\n  }", got)
		assertParses(t, got)
	})

	t.Run("not_matching_drops_it_with_that_field", func(t *testing.T) {
		got, err := splitter.NotMatching(request)
		require.NoError(t, err)
		assert.Equal(t, "{ villain }", got)
		assertParses(t, got)
	})
}

func TestSplitter_TopLevelFragmentSpread(t *testing.T) {
	request := "{ hero ...F }\nfragment F on Character { name }"
	splitter := heroSplitter(t)

	t.Run("matching", func(t *testing.T) {
		got, err := splitter.Matching(request)
		require.NoError(t, err)
		assert.Equal(t, "{ hero }\nfragment F on Character { name }", got)
		assertParses(t, got)
	})

	t.Run("not_matching_keeps_the_spread_whole", func(t *testing.T) {
		got, err := splitter.NotMatching(request)
		require.NoError(t, err)
		assert.Equal(t, "{ ...F }", got)
	})
}

func TestSplitter_VariableOnlyUsedInsideAListIsDropped(t *testing.T) {
	got, err := heroSplitter(t).Matching(`query Q($id: ID) { hero(ids: [$id]) { name } }`)
	require.NoError(t, err)
	assert.Equal(t, `query Q { hero(ids: [$id]) { name } }`, got)
}

func TestSplitter_NilSchemaKnowsNothing(t *testing.T) {
	var schema *gqlschema.Model
	splitter := New(schema)
	request := `query Q($id: ID) { hero(id: $id) { name } }`

	got, err := splitter.Matching(request)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = splitter.NotMatching(request)
	require.NoError(t, err)
	assert.Equal(t, request, got)
}

func TestSplitter_MarkRemoved(t *testing.T) {
	splitter := heroSplitter(t)

	testCases := []struct {
		name        string
		request     string
		p           polarity
		wantRemoved bool
	}{
		{name: "operation_with_nothing_known", request: `{ villain { name } }`, p: keepKnown, wantRemoved: true},
		{name: "operation_with_a_known_field", request: `{ villain { name } hero { name } }`, p: keepKnown, wantRemoved: false},
		{name: "operation_with_nothing_unknown", request: `{ hero { name } }`, p: keepUnknown, wantRemoved: true},
		{name: "known_fragment_kept", request: `fragment F on Character { name }`, p: keepKnown, wantRemoved: false},
		{name: "known_fragment_removed", request: `fragment F on Character { name }`, p: keepUnknown, wantRemoved: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			segments, err := gqlquery.Parse(tc.request)
			require.NoError(t, err)
			require.Len(t, segments, 1)

			splitter.markRemoved(&segments[0], tc.p)
			assert.Equal(t, tc.wantRemoved, segments[0].Removed)
		})
	}
}

func TestSplitter_MatchingProperties(t *testing.T) {
	requests := []string{
		`query Q($id: ID!, $first: Int) { hero(id: $id) { name } villain(first: $first) { name } }`,
		"query Q {\n  empire: hero(episode: EMPIRE) { ...f }\n  villain { name }\n}\n\nfragment f on Character { name }",
		`mutation { createReview(stars: 5) { stars } deleteReview(id: 1) }`,
		`{ villain { name } }`,
	}

	schema, err := gqlschema.Load([]byte(heroIntrospection))
	require.NoError(t, err)
	splitter := New(schema)

	for _, request := range requests {
		once, err := splitter.Matching(request)
		require.NoError(t, err)

		t.Run("idempotent", func(t *testing.T) {
			twice, err := splitter.Matching(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})

		t.Run("only_known_root_fields_remain", func(t *testing.T) {
			segments, err := gqlquery.Parse(once)
			require.NoError(t, err)
			for _, segment := range segments {
				for _, f := range segment.Fields {
					assert.True(t, schema.KnowsField(f.Name), "unexpected field %q in %q", f.Name, once)
				}
			}
		})
	}
}

func TestSplitter_MalformedRequest(t *testing.T) {
	splitter := heroSplitter(t)

	_, err := splitter.Matching(`{ hero { name }`)
	assert.ErrorIs(t, err, gqlquery.ErrMalformedDocument)

	_, err = splitter.NotMatching(`{ hero(id: 1 { name } }`)
	assert.ErrorIs(t, err, gqlquery.ErrMalformedDocument)
}

func TestErase(t *testing.T) {
	t.Run("unordered_spans", func(t *testing.T) {
		got, err := erase("0123456789", []span{{7, 9}, {1, 3}})
		require.NoError(t, err)
		assert.Equal(t, "034569", got)
	})

	t.Run("overlapping_spans", func(t *testing.T) {
		_, err := erase("0123456789", []span{{0, 4}, {3, 5}})
		assert.ErrorIs(t, err, ErrOverlappingSpans)
	})

	t.Run("span_out_of_range", func(t *testing.T) {
		_, err := erase("0123", []span{{2, 8}})
		assert.ErrorIs(t, err, ErrOverlappingSpans)
	})

	t.Run("no_spans", func(t *testing.T) {
		got, err := erase("0123", nil)
		require.NoError(t, err)
		assert.Equal(t, "0123", got)
	})
}

func TestCleanup(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: `query Q($a: Int, ) { a }`, want: `query Q($a: Int) { a }`},
		{in: "query Q($a: Int,\n  ) { a }", want: `query Q($a: Int) { a }`},
		{in: `query Q() { a }`, want: `query Q { a }`},
		{in: `query Q( ,) { a }`, want: `query Q { a }`},
		{in: `query Q($a: Int) { a }`, want: `query Q($a: Int) { a }`},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, cleanup(tc.in))
	}
}
