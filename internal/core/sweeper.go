// ABOUTME: Removal sweeper deleting stale localized files
// ABOUTME: Prunes directories left empty, best effort, recording per-path outcomes
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SweepStatus is the outcome of removing one stale path
type SweepStatus string

const (
	// SweepRemoved - file deleted and empty ancestors pruned
	SweepRemoved SweepStatus = "removed"

	// SweepSkipped - something failed; the path was left for a later pass
	SweepSkipped SweepStatus = "skipped"
)

// SweepResult records what happened to one stale path
type SweepResult struct {
	Path       string      `json:"path"`
	Status     SweepStatus `json:"status"`
	Reason     string      `json:"reason,omitempty"`
	PrunedDirs []string    `json:"prunedDirs,omitempty"`
}

// Sweeper deletes stale localized files. It never fails a pass: every
// error is captured in the path's SweepResult.
type Sweeper struct {
	localizedDir string
}

// NewSweeper creates a sweeper rooted at localizedDir
func NewSweeper(localizedDir string) (*Sweeper, error) {
	root, err := filepath.Abs(localizedDir)
	if err != nil {
		return nil, fmt.Errorf("resolving localized dir: %w", err)
	}
	return &Sweeper{localizedDir: root}, nil
}

// Sweep removes every path in removed, in lexical order
func (s *Sweeper) Sweep(removed PathSet) []SweepResult {
	results := make([]SweepResult, 0, len(removed))
	for _, p := range removed.Sorted() {
		pruned, err := s.sweepOne(p)
		result := SweepResult{Path: p, Status: SweepRemoved, PrunedDirs: pruned}
		if err != nil {
			result.Status = SweepSkipped
			result.Reason = err.Error()
			log.Debugw("skipped stale path", "path", p, "reason", err)
		}
		results = append(results, result)
	}
	return results
}

// sweepOne deletes one file and then each ancestor left empty, stopping at
// the first non-empty directory or the localized root
func (s *Sweeper) sweepOne(rel string) ([]string, error) {
	full, err := resolveUnder(s.localizedDir, rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Lstat(full)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", full)
	}
	if err := os.Remove(full); err != nil {
		return nil, err
	}

	var pruned []string
	for dir := filepath.Dir(full); dir != s.localizedDir && isWithin(s.localizedDir, dir); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return pruned, err
		}
		if len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil {
			return pruned, err
		}
		pruned = append(pruned, dir)
	}
	return pruned, nil
}

// isWithin reports whether dir lies strictly below root
func isWithin(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
