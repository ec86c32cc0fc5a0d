package jsonschema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonschema "github.com/jsonkit/jsonvalidate"
)

// Property 7: a schema referencing a disallowed scheme is denied by policy
// without ever invoking the fetcher.
func TestRemoteFetchPolicyDenial(t *testing.T) {
	called := false
	fetcher := jsonschema.RemoteFetcherFunc(func(uri string, policy jsonschema.FetchPolicy) (jsonschema.FetchResult, error) {
		called = true
		return jsonschema.FetchResult{}, nil
	})

	doc := []byte(`{"$ref": "file:///etc/passwd"}`)
	_, err := jsonschema.Compile(doc, jsonschema.CompileOptions{RemoteFetcher: fetcher})
	require.Error(t, err)
	assert.False(t, called)

	var resolutionErr *jsonschema.RemoteResolutionError
	if errors.As(err, &resolutionErr) {
		assert.Equal(t, jsonschema.ReasonPolicyDenied, resolutionErr.Reason)
	}
}

// Property 8 / S6: two $refs into the same remote document invoke the
// fetcher exactly once, and the fetched $defs entry validates as expected.
func TestRemoteFetchMemoizationAndS6(t *testing.T) {
	calls := 0
	remoteDoc := []byte(`{
		"$id": "http://h/a.json",
		"$defs": {"X": {"type": "integer", "minimum": 2}}
	}`)
	fetcher := jsonschema.RemoteFetcherFunc(func(uri string, policy jsonschema.FetchPolicy) (jsonschema.FetchResult, error) {
		calls++
		return jsonschema.FetchResult{Document: remoteDoc, ByteSize: int64(len(remoteDoc))}, nil
	})

	doc := []byte(`{
		"type": "object",
		"properties": {
			"first": {"$ref": "http://h/a.json#/$defs/X"},
			"second": {"$ref": "http://h/a.json#/$defs/X"}
		}
	}`)
	schema, err := jsonschema.Compile(doc, jsonschema.CompileOptions{RemoteFetcher: fetcher})
	require.NoError(t, err)

	assert.True(t, jsonschema.ValidateInstance(schema, map[string]interface{}{"first": 3}).Valid)
	assert.False(t, jsonschema.ValidateInstance(schema, map[string]interface{}{"first": 1}).Valid)

	assert.Equal(t, 1, calls)
}
