package jsonpath_test

import (
	"testing"

	jsonschema "github.com/jsonkit/jsonvalidate"
	"github.com/jsonkit/jsonvalidate/jsonpath"
	"github.com/stretchr/testify/assert"
)

const storeDoc = `{
	"store": {
		"book": [
			{"category": "reference", "author": "Nigel Rees", "title": "Sayings of the Century", "price": 8.95},
			{"category": "fiction", "author": "Evelyn Waugh", "title": "Sword of Honour", "price": 12.99},
			{"category": "fiction", "author": "Herman Melville", "title": "Moby Dick", "price": 8.99},
			{"category": "fiction", "author": "J. R. R. Tolkien", "title": "The Lord of the Rings", "price": 22.99}
		],
		"bicycle": {"color": "red", "price": 19.95}
	}
}`

func mustValue(t *testing.T, doc string) jsonschema.Value {
	t.Helper()
	v, err := jsonschema.FromJSON([]byte(doc))
	assert.NoError(t, err)
	return v
}

func titles(t *testing.T, results []jsonschema.Value) []string {
	t.Helper()
	out := make([]string, len(results))
	for i, r := range results {
		s, ok := r.String()
		assert.True(t, ok)
		out[i] = s
	}
	return out
}

func TestQueryCheapBooks(t *testing.T) {
	root := mustValue(t, storeDoc)
	compiled, err := jsonpath.Compile("$.store.book[?(@.price<10)].title")
	assert.NoError(t, err)

	results := compiled.Query(root)
	assert.Equal(t, []string{"Sayings of the Century", "Moby Dick"}, titles(t, results))
}

func TestQueryWildcardAndRecursiveDescent(t *testing.T) {
	root := mustValue(t, storeDoc)

	allAuthors, err := jsonpath.Compile("$..author")
	assert.NoError(t, err)
	assert.Len(t, allAuthors.Query(root), 4)

	allPrices, err := jsonpath.Compile("$.store.*")
	assert.NoError(t, err)
	assert.Len(t, allPrices.Query(root), 2)
}

func TestQueryIndexAndSlice(t *testing.T) {
	root := mustValue(t, storeDoc)

	last, err := jsonpath.Compile("$.store.book[-1].title")
	assert.NoError(t, err)
	assert.Equal(t, []string{"The Lord of the Rings"}, titles(t, last.Query(root)))

	firstTwo, err := jsonpath.Compile("$.store.book[0:2].title")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Sayings of the Century", "Sword of Honour"}, titles(t, firstTwo.Query(root)))

	lastIndex, err := jsonpath.Compile("$.store.book[(@.length-1)].title")
	assert.NoError(t, err)
	assert.Equal(t, []string{"The Lord of the Rings"}, titles(t, lastIndex.Query(root)))
}

func TestQueryUnion(t *testing.T) {
	root := mustValue(t, storeDoc)
	compiled, err := jsonpath.Compile("$.store.book[0,2].title")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Sayings of the Century", "Moby Dick"}, titles(t, compiled.Query(root)))
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := jsonpath.Compile("$.store[")
	assert.Error(t, err)
	var perr *jsonpath.ParseError
	if assert.ErrorAs(t, err, &perr) {
		assert.Equal(t, 8, perr.Position)
	}
}

func TestUniqueItemsDeepEqualityValue(t *testing.T) {
	a := mustValue(t, `{"a":1,"b":2}`)
	b := mustValue(t, `{"b":2,"a":1}`)
	assert.True(t, a.Equal(b))
}
