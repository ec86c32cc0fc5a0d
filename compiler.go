package jsonschema

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/goccy/go-yaml"
)

// FormatDef defines a custom format validation rule
type FormatDef struct {
	// Type specifies which JSON Schema type this format applies to (optional)
	// Supported values: "string", "number", "integer", "boolean", "array", "object"
	// Empty string means applies to all types
	Type string

	// Validate is the validation function
	Validate func(any) bool
}

// Compiler represents a JSON Schema compiler that manages schema compilation and caching.
type Compiler struct {
	mu             sync.RWMutex                                       // Protects concurrent access to schemas map
	schemas        map[string]*Schema                                 // Cache of compiled schemas.
	unresolvedRefs map[string][]*Schema                               // Track schemas that have unresolved references by URI
	Decoders       map[string]func(string) ([]byte, error)            // Decoders for various encoding formats.
	MediaTypes     map[string]func([]byte) (any, error)               // Media type handlers for unmarshalling data.
	Loaders        map[string]func(url string) (io.ReadCloser, error) // Functions to load schemas from URLs.
	DefaultBaseURI string                                             // Base URI used to resolve relative references.
	AssertFormat   bool                                               // Flag to enforce format validation.
	PreserveExtra  bool                                               // Flag to retain unknown keywords on Schema.Extra.
	MaxDepth       int                                                // Recursion guard for schema evaluation; 0 means use DefaultMaxDepth.

	// Remote fetch capability, see §4.G of the design: a declarative policy plus
	// an injected fetcher. NewCompiler installs NewDefaultFetchPolicy; with no
	// RemoteFetcher, fetches go through the HTTP/HTTPS loaders registered in
	// initDefaults. A zero FetchPolicy allows no scheme.
	FetchPolicy    FetchPolicy
	RemoteFetcher  RemoteFetcher
	fetchCache     *fetchCache

	// fatalRemoteErr records the first remote resolution failure that is
	// never recoverable by CompileBatch's deferred "waiting for this URI"
	// mechanism (policy denial, oversized payload, timeout, transport
	// failure, or a cross-document cycle) encountered while resolving a
	// $ref during this Compile call. A plain "no loader/fetcher for this
	// URI yet" failure is left unrecorded since CompileBatch relies on
	// that case staying silent until a sibling document in the batch
	// supplies the URI.
	fatalRemoteErr error

	// JSON encoder/decoder configuration
	jsonEncoder func(v any) ([]byte, error)
	jsonDecoder func(data []byte, v any) error

	// Default function registry
	defaultFuncs map[string]DefaultFunc // Registry for dynamic default value functions

	// Custom format registry
	customFormats   map[string]*FormatDef // Registry for custom format definitions
	customFormatsRW sync.RWMutex          // Protects concurrent access to custom formats

	// arena backs the NodeID-addressed registries (Schema.anchors,
	// Schema.dynamicAnchors). Those two maps are the part of the schema
	// graph that can point anywhere, including back into an enclosing
	// scope, so entries are stored as stable indices into this arena
	// instead of as owning *Schema pointers. ResolvedRef/ResolvedDynamicRef
	// stay direct pointers: each is a single memoized edge computed once
	// during resolution, not a multi-entry registry, so a pointer into the
	// arena-owned graph is the correct shape for it already.
	arenaMu sync.Mutex
	arena   []*Schema
}

// NodeID stably identifies a Schema registered in a Compiler's arena.
type NodeID int32

// register assigns the next stable NodeID to s and stores it in the arena.
func (c *Compiler) register(s *Schema) NodeID {
	c.arenaMu.Lock()
	defer c.arenaMu.Unlock()
	id := NodeID(len(c.arena))
	c.arena = append(c.arena, s)
	return id
}

// node dereferences id back to its Schema, or nil if id does not name a
// registered node.
func (c *Compiler) node(id NodeID) *Schema {
	c.arenaMu.Lock()
	defer c.arenaMu.Unlock()
	if id < 0 || int(id) >= len(c.arena) {
		return nil
	}
	return c.arena[id]
}

// DefaultFunc represents a function that can generate dynamic default values
type DefaultFunc func(args ...any) (any, error)

// NewCompiler creates a new Compiler instance and initializes it with default settings.
func NewCompiler() *Compiler {
	compiler := &Compiler{
		schemas:        make(map[string]*Schema),
		unresolvedRefs: make(map[string][]*Schema),
		Decoders:       make(map[string]func(string) ([]byte, error)),
		MediaTypes:     make(map[string]func([]byte) (any, error)),
		Loaders:        make(map[string]func(url string) (io.ReadCloser, error)),
		DefaultBaseURI: "",
		AssertFormat:   false,
		MaxDepth:       DefaultMaxDepth,
		FetchPolicy:    NewDefaultFetchPolicy(),
		defaultFuncs:   make(map[string]DefaultFunc),
		customFormats:  make(map[string]*FormatDef),

		// Default to go-json-experiment JSON implementation
		jsonEncoder: func(v any) ([]byte, error) { return json.Marshal(v) },
		jsonDecoder: func(data []byte, v any) error { return json.Unmarshal(data, v) },
	}
	compiler.fetchCache = newFetchCache()
	compiler.initDefaults()
	return compiler
}

// SetPreserveExtra controls whether unknown keywords survive compilation on Schema.Extra.
func (c *Compiler) SetPreserveExtra(preserve bool) *Compiler {
	c.PreserveExtra = preserve
	return c
}

// SetMaxDepth overrides the recursion guard used while evaluating deeply nested
// or recursive schemas. A value <= 0 restores DefaultMaxDepth.
func (c *Compiler) SetMaxDepth(depth int) *Compiler {
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	c.MaxDepth = depth
	return c
}

// SetFetchPolicy installs the declarative policy enforced around RemoteFetcher.
func (c *Compiler) SetFetchPolicy(policy FetchPolicy) *Compiler {
	c.FetchPolicy = policy
	return c
}

// SetRemoteFetcher installs the capability used to retrieve remote schema
// documents. When nil, $ref targets outside the registry resolve only through
// the scheme Loaders registered on the Compiler.
func (c *Compiler) SetRemoteFetcher(fetcher RemoteFetcher) *Compiler {
	c.RemoteFetcher = fetcher
	return c
}

// WithEncoderJSON configures custom JSON encoder implementation
func (c *Compiler) WithEncoderJSON(encoder func(v any) ([]byte, error)) *Compiler {
	c.jsonEncoder = encoder
	return c
}

// WithDecoderJSON configures custom JSON decoder implementation
func (c *Compiler) WithDecoderJSON(decoder func(data []byte, v any) error) *Compiler {
	c.jsonDecoder = decoder
	return c
}

// Compile compiles a JSON schema and caches it under its $id, or under the first of uris when the schema has no $id. A schema without a valid URI is compiled but not cached.
func (c *Compiler) Compile(jsonSchema []byte, uris ...string) (*Schema, error) {
	schema, err := newSchema(jsonSchema)
	if err != nil {
		return nil, err
	}

	if schema.ID == "" && len(uris) > 0 {
		schema.ID = uris[0]
	}

	uri := schema.ID

	if uri != "" && isValidURI(uri) {
		schema.uri = uri

		c.mu.RLock()
		existingSchema, exists := c.schemas[uri]
		c.mu.RUnlock()

		if exists {
			return existingSchema, nil
		}
	}

	schema.initializeSchema(c, nil)

	if ferr := c.takeFatalRemoteError(); ferr != nil {
		return nil, ferr
	}

	if err := schema.validateRegexSyntax(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if schema.uri != "" && isValidURI(schema.uri) {
		c.schemas[schema.uri] = schema
	}

	// Track unresolved references from this schema
	c.trackUnresolvedReferences(schema)

	// If this schema has a URI, check if any previously compiled schemas were waiting for it
	var schemasToResolve []*Schema
	if schema.uri != "" {
		if waitingSchemas, exists := c.unresolvedRefs[schema.uri]; exists {
			schemasToResolve = make([]*Schema, len(waitingSchemas))
			copy(schemasToResolve, waitingSchemas)
			delete(c.unresolvedRefs, schema.uri) // Clear the waiting list
		}
	}
	c.mu.Unlock()

	// Only re-resolve schemas that were actually waiting for this URI
	for _, waitingSchema := range schemasToResolve {
		waitingSchema.ResolveUnresolvedReferences()
		// Re-track any still unresolved references
		c.mu.Lock()
		c.trackUnresolvedReferences(waitingSchema)
		c.mu.Unlock()
	}

	return schema, nil
}

// trackUnresolvedReferences tracks which schemas have unresolved references to which URIs
// This method should be called with mutex locked
func (c *Compiler) trackUnresolvedReferences(schema *Schema) {
	unresolvedURIs := schema.GetUnresolvedReferenceURIs()
	for _, uri := range unresolvedURIs {
		if c.unresolvedRefs[uri] == nil {
			c.unresolvedRefs[uri] = make([]*Schema, 0)
		}
		// Check if schema is already in the list to avoid duplicates
		found := false
		for _, existing := range c.unresolvedRefs[uri] {
			if existing == schema {
				found = true
				break
			}
		}
		if !found {
			c.unresolvedRefs[uri] = append(c.unresolvedRefs[uri], schema)
		}
	}
}

// resolveSchemaURL attempts to fetch and compile a schema from a URL, going
// through the declarative FetchPolicy and RemoteFetcher capability (§4.G).
// Scheme denial, size limits, and fetch memoization all happen here before
// the document ever reaches the compiler.
func (c *Compiler) resolveSchemaURL(url string) (*Schema, error) {
	id, anchor := splitRef(url)

	c.mu.RLock()
	schema, exists := c.schemas[id]
	c.mu.RUnlock()

	if exists {
		return schema, nil // Return cached schema if available
	}

	if inProgress, ok := c.fetchCache.markInProgress(id, nil); ok {
		if inProgress == nil {
			return nil, &SchemaCompilationError{Kind: KindCyclicRef, SchemaPointer: id, Message: "remote document cycle: " + id + " is already being compiled"}
		}
		if anchor != "" {
			return inProgress.resolveAnchor(anchor)
		}
		return inProgress, nil
	}
	defer c.fetchCache.clearInProgress(id)

	fetcher := c.RemoteFetcher
	if fetcher == nil {
		fetcher = loaderFetcher{loaders: func(scheme string) (func(string) (io.ReadCloser, error), bool) {
			l, ok := c.Loaders[scheme]
			return l, ok
		}}
	}

	result, err := c.fetchCache.fetchDocument(url, c.FetchPolicy, fetcher)
	if err != nil {
		return nil, err
	}

	compiledSchema, err := c.Compile(result.Document, id)
	if err != nil {
		return nil, err
	}

	if anchor != "" {
		return compiledSchema.resolveAnchor(anchor)
	}

	return compiledSchema, nil
}

// SetSchema associates a specific schema with a URI.
func (c *Compiler) SetSchema(uri string, schema *Schema) *Compiler {
	c.mu.Lock()
	c.schemas[uri] = schema
	c.mu.Unlock()
	return c
}

// recordFatalRemoteError remembers the first unrecoverable remote
// resolution failure seen during this compile, so the top-level Compile
// entry point can surface it instead of letting it pass silently through
// the lazy $ref-waiting mechanism.
func (c *Compiler) recordFatalRemoteError(err error) {
	if err == nil {
		return
	}
	var resolutionErr *RemoteResolutionError
	if errors.As(err, &resolutionErr) && resolutionErr.Reason == ReasonNotFound {
		return
	}
	c.mu.Lock()
	if c.fatalRemoteErr == nil {
		c.fatalRemoteErr = err
	}
	c.mu.Unlock()
}

// takeFatalRemoteError returns and clears any fatal remote resolution
// error recorded for this compile.
func (c *Compiler) takeFatalRemoteError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.fatalRemoteErr
	c.fatalRemoteErr = nil
	return err
}

// GetSchema retrieves a schema by reference. If the schema is not found in the cache and the ref is a URL, it tries to resolve it.
func (c *Compiler) GetSchema(ref string) (*Schema, error) {
	baseURI, anchor := splitRef(ref)

	c.mu.RLock()
	schema, exists := c.schemas[baseURI]
	c.mu.RUnlock()

	if exists {
		if baseURI == ref {
			return schema, nil
		}
		return schema.resolveAnchor(anchor)
	}

	resolved, err := c.resolveSchemaURL(ref)
	if err != nil {
		c.recordFatalRemoteError(err)
		return nil, err
	}
	return resolved, nil
}

// SetDefaultBaseURI sets the default base URL for resolving relative references.
func (c *Compiler) SetDefaultBaseURI(baseURI string) *Compiler {
	c.DefaultBaseURI = baseURI
	return c
}

// SetAssertFormat enables or disables format assertion.
func (c *Compiler) SetAssertFormat(assert bool) *Compiler {
	c.AssertFormat = assert
	return c
}

// RegisterDecoder adds a new decoder function for a specific encoding.
func (c *Compiler) RegisterDecoder(encodingName string, decoderFunc func(string) ([]byte, error)) *Compiler {
	c.Decoders[encodingName] = decoderFunc
	return c
}

// RegisterMediaType adds a new unmarshal function for a specific media type.
func (c *Compiler) RegisterMediaType(mediaTypeName string, unmarshalFunc func([]byte) (any, error)) *Compiler {
	c.MediaTypes[mediaTypeName] = unmarshalFunc
	return c
}

// RegisterLoader adds a new loader function for a specific URI scheme.
func (c *Compiler) RegisterLoader(scheme string, loaderFunc func(url string) (io.ReadCloser, error)) *Compiler {
	c.Loaders[scheme] = loaderFunc
	return c
}

// RegisterDefaultFunc registers a function for dynamic default value generation
func (c *Compiler) RegisterDefaultFunc(name string, fn DefaultFunc) *Compiler {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.defaultFuncs == nil {
		c.defaultFuncs = make(map[string]DefaultFunc)
	}
	c.defaultFuncs[name] = fn
	return c
}

// getDefaultFunc retrieves a registered default function by name
func (c *Compiler) getDefaultFunc(name string) (DefaultFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fn, exists := c.defaultFuncs[name]
	return fn, exists
}

// initDefaults initializes default values for decoders, media types, and loaders.
func (c *Compiler) initDefaults() {
	c.Decoders["base64"] = base64.StdEncoding.DecodeString
	c.setupMediaTypes()
	c.setupLoaders()
}

// setupMediaTypes configures default media type handlers.
func (c *Compiler) setupMediaTypes() {
	c.MediaTypes["application/json"] = func(data []byte) (any, error) {
		var temp any
		if err := c.jsonDecoder(data, &temp); err != nil {
			return nil, ErrJSONUnmarshal
		}
		return temp, nil
	}

	c.MediaTypes["application/xml"] = func(data []byte) (any, error) {
		var temp any
		if err := xml.Unmarshal(data, &temp); err != nil {
			return nil, ErrXMLUnmarshal
		}
		return temp, nil
	}

	c.MediaTypes["application/yaml"] = func(data []byte) (any, error) {
		var temp any
		if err := yaml.Unmarshal(data, &temp); err != nil {
			return nil, ErrYAMLUnmarshal
		}
		return temp, nil
	}
}

// setupLoaders configures default loaders for fetching schemas via HTTP/HTTPS.
func (c *Compiler) setupLoaders() {
	client := &http.Client{
		Timeout: 10 * time.Second, // Set a reasonable timeout for network requests.
	}

	defaultHTTPLoader := func(url string) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(context.Background(), "GET", url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, ErrNetworkFetch
		}

		if resp.StatusCode != http.StatusOK {
			err = resp.Body.Close()
			if err != nil {
				return nil, err
			}
			return nil, ErrInvalidStatusCode
		}

		return resp.Body, nil
	}

	c.RegisterLoader("http", defaultHTTPLoader)
	c.RegisterLoader("https", defaultHTTPLoader)
}

// CompileBatch compiles multiple schemas efficiently by deferring reference resolution
// until all schemas are compiled. This is the most efficient approach when you have
// many schemas with interdependencies.
func (c *Compiler) CompileBatch(schemas map[string][]byte) (map[string]*Schema, error) {
	compiledSchemas := make(map[string]*Schema)

	// First pass: compile all schemas without resolving references
	for id, schemaBytes := range schemas {
		schema, err := newSchema(schemaBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSchemaCompilation, id, err)
		}

		if schema.ID == "" {
			schema.ID = id
		}
		schema.uri = schema.ID

		// Initialize schema structure but skip reference resolution
		schema.compiler = c
		// Initialize basic properties without resolving references
		schema.initializeSchemaWithoutReferences(c, nil)

		compiledSchemas[id] = schema

		c.mu.Lock()
		if schema.uri != "" && isValidURI(schema.uri) {
			c.schemas[schema.uri] = schema
		}
		c.mu.Unlock()
	}

	// Second pass: resolve all references at once
	for _, schema := range compiledSchemas {
		schema.resolveReferences()
	}

	return compiledSchemas, nil
}

// RegisterFormat registers a custom format.
// The optional typeName parameter specifies which JSON Schema type the format applies to
// (e.g., "string", "number"). If omitted, the format applies to all types.
func (c *Compiler) RegisterFormat(name string, validator func(any) bool, typeName ...string) *Compiler {
	c.customFormatsRW.Lock()
	defer c.customFormatsRW.Unlock()

	var t string
	if len(typeName) > 0 {
		t = typeName[0]
	}

	c.customFormats[name] = &FormatDef{
		Type:     t,
		Validate: validator,
	}
	return c
}

// UnregisterFormat removes a custom format.
func (c *Compiler) UnregisterFormat(name string) *Compiler {
	c.customFormatsRW.Lock()
	defer c.customFormatsRW.Unlock()

	delete(c.customFormats, name)
	return c
}
