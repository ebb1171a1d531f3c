// ABOUTME: Route manifest loading and validation
// ABOUTME: Reads origin routes from a YAML or JSON file produced by route discovery
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harper/routegen/internal/models"
)

// Format is the encoding of a manifest file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Manifest is the on-disk shape of a route manifest
type Manifest struct {
	Routes []models.OriginRoute `json:"routes" yaml:"routes"`
}

// FormatFor picks the format from a file extension; anything but .json is YAML
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads and validates the manifest at path.
// When locales is non-empty every route must cover exactly those locales.
func Load(path string, locales []string) ([]models.OriginRoute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	routes, err := Parse(data, FormatFor(path), locales)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return routes, nil
}

// Parse decodes and validates a manifest
func Parse(data []byte, format Format, locales []string) ([]models.OriginRoute, error) {
	var m Manifest
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decoding json manifest: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding yaml manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}

	if err := Validate(m.Routes, locales); err != nil {
		return nil, err
	}
	return m.Routes, nil
}

// Validate checks each route, rejects duplicate identities and colliding
// localized paths, and checks locale coverage
func Validate(routes []models.OriginRoute, locales []string) error {
	origins := make(map[string]bool, len(routes))
	owners := make(map[string]string)

	for _, route := range routes {
		if err := route.Validate(); err != nil {
			return err
		}
		if origins[route.Path] {
			return fmt.Errorf("route %q listed twice", route.Path)
		}
		origins[route.Path] = true

		for _, locale := range route.Locales() {
			p := route.LocalizedPaths[locale]
			if owner, ok := owners[p]; ok {
				return fmt.Errorf("localized path %q produced by both %q and %q", p, owner, route.Path)
			}
			owners[p] = route.Path
		}

		if len(locales) > 0 {
			if err := checkLocales(route, locales); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkLocales(route models.OriginRoute, locales []string) error {
	var missing []string
	for _, l := range locales {
		if _, ok := route.LocalizedPaths[l]; !ok {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("route %q missing locales %s", route.Path, strings.Join(missing, ", "))
	}
	if len(route.LocalizedPaths) != len(locales) {
		known := make(map[string]bool, len(locales))
		for _, l := range locales {
			known[l] = true
		}
		var extra []string
		for l := range route.LocalizedPaths {
			if !known[l] {
				extra = append(extra, l)
			}
		}
		sort.Strings(extra)
		return fmt.Errorf("route %q has unconfigured locales %s", route.Path, strings.Join(extra, ", "))
	}
	return nil
}
