package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stellar/graphql-stitcher/pkg/gqlschema"
)

const heroesIntrospection = `{
  "data": {
    "__schema": {
      "queryType": {"name": "Query"},
      "mutationType": {"name": "Mutation"},
      "types": [
        {"name": "Query", "fields": [{"name": "hero"}]},
        {"name": "Mutation", "fields": [{"name": "createReview"}]},
        {"name": "Character", "fields": [{"name": "name"}]},
        {"name": "String", "fields": null}
      ]
    }
  }
}`

const villainsIntrospection = `{
  "data": {
    "__schema": {
      "queryType": {"name": "Query"},
      "mutationType": null,
      "types": [
        {"name": "Query", "fields": [{"name": "villain"}]},
        {"name": "Lair", "fields": [{"name": "location"}]}
      ]
    }
  }
}`

func mustLoad(t *testing.T, document string) *gqlschema.Model {
	t.Helper()
	model, err := gqlschema.Load([]byte(document))
	require.NoError(t, err)
	return model
}
