// ABOUTME: Update decision policy for a single origin route
// ABOUTME: Decides whether a route's localized outputs are rewritten this pass
package core

import "github.com/harper/routegen/internal/models"

// NeedsUpdate reports whether route must be (re)written in this pass.
//
// Any one of these is enough:
//   - updatedOriginPath is empty (full regeneration)
//   - updatedOriginPath is the route's own path
//   - at least one of the route's localized paths is new this pass
//
// The last case refreshes routes that gained a destination, e.g. after a
// locale was added, even when another file triggered the pass.
func NeedsUpdate(route models.OriginRoute, newPaths PathSet, updatedOriginPath string) bool {
	if updatedOriginPath == "" || updatedOriginPath == route.Path {
		return true
	}
	for _, p := range route.LocalizedPaths {
		if newPaths.Has(p) {
			return true
		}
	}
	return false
}
