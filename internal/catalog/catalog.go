// Package catalog converts a discovered schema into tool descriptors and the
// invocation metadata that maps each tool name back to its HTTP call.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bobmcallan/apibridge/internal/common"
	"github.com/bobmcallan/apibridge/internal/schema"
)

// ErrNameCollision is returned in strict mode when two operations derive the same tool name.
var ErrNameCollision = errors.New("tool name collision")

// DefaultAPIRoot is the leading path segment stripped from tool names.
const DefaultAPIRoot = "rest"

// acceptedMethods is the set of schema methods turned into tools.
var acceptedMethods = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true, "patch": true,
}

var (
	pathParamPattern   = regexp.MustCompile(`\{(\w+)\}`)
	placeholderPattern = regexp.MustCompile(`\{[^}]+\}`)
	slashRunPattern    = regexp.MustCompile(`/+`)
	nonNamePattern     = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	underscoreRun      = regexp.MustCompile(`_+`)

	defaultPrefix = prefixPattern(DefaultAPIRoot)
)

// ToolDescriptor is the externally advertised callable unit.
type ToolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// ToolMetadata maps a tool name back to the HTTP call it performs.
type ToolMetadata struct {
	Path       string   `json:"path"`
	Method     string   `json:"method"`
	PathParams []string `json:"pathParams"`
}

// Catalog is the output of one build pass.
type Catalog struct {
	Tools    []ToolDescriptor
	Metadata map[string]ToolMetadata
}

// Lookup returns the metadata recorded for name.
func (c *Catalog) Lookup(name string) (ToolMetadata, bool) {
	if c == nil {
		return ToolMetadata{}, false
	}
	md, ok := c.Metadata[name]
	return md, ok
}

// Builder builds catalogs from schemas.
type Builder struct {
	prefix *regexp.Regexp
	strict bool
	logger *common.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithAPIRoot sets the root segment stripped by name derivation (default "rest").
func WithAPIRoot(root string) Option {
	return func(b *Builder) {
		root = strings.Trim(root, "/")
		if root != "" {
			b.prefix = prefixPattern(root)
		}
	}
}

// WithStrictNames makes Build fail with ErrNameCollision instead of letting
// the later operation overwrite the earlier one's metadata.
func WithStrictNames(strict bool) Option {
	return func(b *Builder) { b.strict = strict }
}

// WithLogger sets the builder logger.
func WithLogger(logger *common.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{prefix: defaultPrefix, logger: common.NewSilentLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build converts every accepted operation of s into a tool, iterating paths
// and methods in schema order.
func (b *Builder) Build(s *schema.Schema) (*Catalog, error) {
	c := &Catalog{
		Tools:    []ToolDescriptor{},
		Metadata: make(map[string]ToolMetadata),
	}
	if s == nil {
		return c, nil
	}

	index := make(map[string]int)
	for _, item := range s.Paths {
		for _, mo := range item.Operations {
			method := strings.ToLower(mo.Method)
			if !acceptedMethods[method] {
				continue
			}

			name := b.deriveName(item.Path, method)
			pathParams := ExtractPathParams(item.Path)

			if prev, exists := c.Metadata[name]; exists {
				if b.strict {
					return nil, fmt.Errorf("%w: %s from %s %s and %s %s",
						ErrNameCollision, name, prev.Method, prev.Path, strings.ToUpper(method), item.Path)
				}
				b.logger.Warn().
					Str("tool", name).
					Str("previous", prev.Method+" "+prev.Path).
					Str("replacement", strings.ToUpper(method)+" "+item.Path).
					Msg("tool name collision, later operation wins")
			}

			d := ToolDescriptor{
				Name:        name,
				Description: describe(mo.Operation, method, item.Path),
				InputSchema: buildInputSchema(pathParams, mo.Operation.Parameters),
			}
			if i, exists := index[name]; exists {
				c.Tools[i] = d
			} else {
				index[name] = len(c.Tools)
				c.Tools = append(c.Tools, d)
			}
			c.Metadata[name] = ToolMetadata{
				Path:       item.Path,
				Method:     strings.ToUpper(method),
				PathParams: pathParams,
			}
		}
	}

	b.logger.Info().Int("tools", len(c.Tools)).Msg("tool catalog built")
	return c, nil
}

// Build builds a catalog with default options.
func Build(s *schema.Schema) (*Catalog, error) {
	return NewBuilder().Build(s)
}

// DeriveToolName returns the tool name for a path template and method using
// the default "rest" root, e.g. ("/rest/V1/products/{sku}", "get") -> "get_products".
func DeriveToolName(path, method string) string {
	return deriveName(defaultPrefix, path, method)
}

func (b *Builder) deriveName(path, method string) string {
	return deriveName(b.prefix, path, method)
}

func deriveName(prefix *regexp.Regexp, path, method string) string {
	p := prefix.ReplaceAllString(path, "")
	p = strings.Trim(p, "/")

	p = placeholderPattern.ReplaceAllString(p, "")
	p = strings.Trim(slashRunPattern.ReplaceAllString(strings.Trim(p, "/"), "/"), "/")

	name := strings.ReplaceAll(p, "/", "_")
	name = nonNamePattern.ReplaceAllString(name, "")
	name = strings.Trim(underscoreRun.ReplaceAllString(strings.Trim(name, "_"), "_"), "_")

	return strings.ToLower(method) + "_" + strings.ToLower(name)
}

func prefixPattern(root string) *regexp.Regexp {
	return regexp.MustCompile(`^/` + regexp.QuoteMeta(root) + `(/\w+)?/V\d+/`)
}

// ExtractPathParams returns the distinct {name} placeholders of path, left to right.
func ExtractPathParams(path string) []string {
	matches := pathParamPattern.FindAllStringSubmatch(path, -1)
	params := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		params = append(params, m[1])
	}
	return params
}

// MapType maps a declared parameter type onto a JSON Schema type.
func MapType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "integer", "int":
		return "integer"
	case "number", "float":
		return "number"
	case "boolean", "bool":
		return "boolean"
	case "array":
		return "array"
	case "object":
		return "object"
	default:
		return "string"
	}
}

func describe(op schema.Operation, method, path string) string {
	if op.Summary != "" {
		return op.Summary
	}
	if op.Description != "" {
		return op.Description
	}
	return method + " " + path
}

func buildInputSchema(pathParams []string, params []schema.Parameter) InputSchema {
	in := InputSchema{Type: "object", Required: []string{}}

	isPathParam := make(map[string]bool, len(pathParams))
	for _, name := range pathParams {
		isPathParam[name] = true
		in.Properties.Set(name, Property{
			Type:        "string",
			Description: "Path parameter: " + name,
		})
		in.Required = append(in.Required, name)
	}

	// A repeated declaration replaces the earlier one, including its required flag.
	var declared []string
	required := make(map[string]bool)
	for _, p := range params {
		if p.Name == "" || isPathParam[p.Name] {
			continue
		}
		if !in.Properties.Has(p.Name) {
			declared = append(declared, p.Name)
		}
		in.Properties.Set(p.Name, Property{
			Type:        MapType(p.Type),
			Description: p.Description,
		})
		required[p.Name] = p.Required
	}
	for _, name := range declared {
		if required[name] {
			in.Required = append(in.Required, name)
		}
	}

	return in
}
