// ABOUTME: Origin route model and the closed set of route kinds
// ABOUTME: Each kind knows whether it is copied verbatim and how it names its import target
package models

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

var (
	// ErrUnknownRouteType is returned for a route type outside the supported kinds
	ErrUnknownRouteType = errors.New("unknown route type")

	// ErrInvalidPath is returned for empty, absolute, or root-escaping paths
	ErrInvalidPath = errors.New("invalid route path")
)

// RouteType is the kind of an origin route file
type RouteType string

const (
	// RouteMarkdown - textual content imported by its own file name
	RouteMarkdown RouteType = "markdown"

	// RouteCopy - copied byte for byte, never rendered
	RouteCopy RouteType = "copy"

	// Conventional file roles of the routing framework
	RoutePage     RouteType = "page"
	RouteLayout   RouteType = "layout"
	RouteTemplate RouteType = "template"
	RouteDefault  RouteType = "default"
	RouteError    RouteType = "error"
	RouteLoading  RouteType = "loading"
	RouteNotFound RouteType = "not-found"
)

// routeKind describes how a route type is materialized
type routeKind struct {
	copyThrough  bool
	keepBaseName bool
}

var routeKinds = map[RouteType]routeKind{
	RouteMarkdown: {keepBaseName: true},
	RouteCopy:     {copyThrough: true},
	RoutePage:     {},
	RouteLayout:   {},
	RouteTemplate: {},
	RouteDefault:  {},
	RouteError:    {},
	RouteLoading:  {},
	RouteNotFound: {},
}

// RouteTypes returns every supported route type in sorted order
func RouteTypes() []RouteType {
	types := make([]RouteType, 0, len(routeKinds))
	for t := range routeKinds {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// IsValid reports whether t is one of the supported route types
func (t RouteType) IsValid() bool {
	_, ok := routeKinds[t]
	return ok
}

// IsCopy reports whether routes of this type are copied verbatim
func (t RouteType) IsCopy() bool {
	return routeKinds[t].copyThrough
}

// RelativeFilename returns the file name a generated route uses to reference
// its origin: the origin base name for markdown, the role name otherwise
func (t RouteType) RelativeFilename(originBase string) string {
	if routeKinds[t].keepBaseName {
		return originBase
	}
	return string(t)
}

// OriginRoute is one logical route discovered in the origin tree.
// Path is the route's identity across passes; LocalizedPaths maps a locale
// code to the output path, relative to the localized root, for that locale.
type OriginRoute struct {
	Path           string            `json:"path" yaml:"path"`
	Type           RouteType         `json:"type" yaml:"type"`
	LocalizedPaths map[string]string `json:"localizedPaths" yaml:"localizedPaths"`
}

// Locales returns the route's locale codes in sorted order
func (r OriginRoute) Locales() []string {
	locales := make([]string, 0, len(r.LocalizedPaths))
	for locale := range r.LocalizedPaths {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// Validate checks the route's type and every path it carries
func (r OriginRoute) Validate() error {
	if err := ValidateRelPath(r.Path); err != nil {
		return fmt.Errorf("route %q: %w", r.Path, err)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("route %q: %w: %q", r.Path, ErrUnknownRouteType, r.Type)
	}
	if len(r.LocalizedPaths) == 0 {
		return fmt.Errorf("route %q: no localized paths", r.Path)
	}
	for locale, p := range r.LocalizedPaths {
		if strings.TrimSpace(locale) == "" {
			return fmt.Errorf("route %q: empty locale", r.Path)
		}
		if err := ValidateRelPath(p); err != nil {
			return fmt.Errorf("route %q locale %s: %w", r.Path, locale, err)
		}
	}
	return nil
}

// ValidateRelPath rejects paths that are empty, absolute, or climb out of their root.
// Paths use forward slashes regardless of host conventions.
func ValidateRelPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if strings.Contains(p, `\`) {
		return fmt.Errorf("%w: %q uses backslashes", ErrInvalidPath, p)
	}
	if path.IsAbs(p) || (len(p) > 1 && p[1] == ':') {
		return fmt.Errorf("%w: %q is absolute", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %q escapes its root", ErrInvalidPath, p)
	}
	return nil
}
