// ABOUTME: Path diff engine comparing two generations of origin routes
// ABOUTME: Yields the localized paths that appeared and the ones that went stale
package core

import (
	"sort"

	"github.com/harper/routegen/internal/models"
)

// PathSet is an unordered set of localized paths
type PathSet map[string]struct{}

// NewPathSet builds a set from the given paths
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is in the set
func (s PathSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members in lexical order
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// localizedPaths flattens every localized path of routes into one set
func localizedPaths(routes []models.OriginRoute) PathSet {
	s := make(PathSet)
	for _, route := range routes {
		for _, p := range route.LocalizedPaths {
			s[p] = struct{}{}
		}
	}
	return s
}

// DiffPaths compares the localized paths of two generations.
// newPaths holds paths only current produces, removedPaths paths only previous produced.
func DiffPaths(previous, current []models.OriginRoute) (newPaths, removedPaths PathSet) {
	prev := localizedPaths(previous)
	curr := localizedPaths(current)

	newPaths = make(PathSet)
	for p := range curr {
		if !prev.Has(p) {
			newPaths[p] = struct{}{}
		}
	}

	removedPaths = make(PathSet)
	for p := range prev {
		if !curr.Has(p) {
			removedPaths[p] = struct{}{}
		}
	}

	return newPaths, removedPaths
}
