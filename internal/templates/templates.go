// ABOUTME: Default template compiler for rendered localized routes
// ABOUTME: Resolves a text/template per route kind, with optional overrides and an LRU cache
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harper/routegen/internal/models"
)

//go:embed tmpl/*.tmpl
var builtinFS embed.FS

// DefaultCacheSize is the number of parsed templates kept in memory
const DefaultCacheSize = 32

// Params are the values a route template is rendered with
type Params struct {
	// RouteType is the route kind as a PascalCase identifier, e.g. "NotFound"
	RouteType string
	// RelativePath points from the generated file to its origin, using forward slashes
	RelativePath string
	// Locale is the locale code of the generated file
	Locale string
}

// Compiler renders the contents of one localized route file
type Compiler func(Params) (string, error)

// Registry hands out compilers per route kind
type Registry struct {
	overrideDir string
	cache       *lru.Cache[models.RouteType, *template.Template]
}

// NewRegistry creates a registry. When overrideDir is non-empty, a file named
// <kind>.tmpl inside it replaces the embedded template for that kind.
func NewRegistry(overrideDir string, cacheSize int) (*Registry, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[models.RouteType, *template.Template](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating template cache: %w", err)
	}
	return &Registry{overrideDir: overrideDir, cache: cache}, nil
}

// Compiler returns the compiler for the route's kind.
// Copy routes are never rendered and have no compiler.
func (r *Registry) Compiler(route models.OriginRoute) (Compiler, error) {
	if !route.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRouteType, route.Type)
	}
	if route.Type.IsCopy() {
		return nil, fmt.Errorf("route %q is copied verbatim and has no template", route.Path)
	}

	tmpl, err := r.template(route.Type)
	if err != nil {
		return nil, err
	}

	return func(p Params) (string, error) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, p); err != nil {
			return "", fmt.Errorf("rendering %s template: %w", route.Type, err)
		}
		return buf.String(), nil
	}, nil
}

// Purge drops every cached template so overrides are re-read
func (r *Registry) Purge() {
	r.cache.Purge()
}

func (r *Registry) template(kind models.RouteType) (*template.Template, error) {
	if tmpl, ok := r.cache.Get(kind); ok {
		return tmpl, nil
	}

	src, err := r.source(kind)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(string(kind)).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", kind, err)
	}
	r.cache.Add(kind, tmpl)
	return tmpl, nil
}

// source reads the override for kind if present, else the embedded template
func (r *Registry) source(kind models.RouteType) (string, error) {
	if r.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(r.overrideDir, string(kind)+".tmpl"))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading %s template override: %w", kind, err)
		}
	}

	data, err := builtinFS.ReadFile("tmpl/" + builtinName(kind) + ".tmpl")
	if err != nil {
		return "", fmt.Errorf("reading builtin %s template: %w", kind, err)
	}
	return string(data), nil
}

// builtinName maps a kind to its embedded template file
func builtinName(kind models.RouteType) string {
	switch kind {
	case models.RouteMarkdown:
		return "markdown"
	case models.RouteLayout, models.RouteTemplate:
		return "layout"
	default:
		return "route"
	}
}

// PascalCase turns a route kind like "not-found" into "NotFound"
func PascalCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(caser.String(w))
	}
	return b.String()
}
