// ABOUTME: Centralized configuration for routegen
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// State backends for the retained snapshot
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendCharm  = "charm"
)

// ErrMissingDir is returned when a required directory is not configured
var ErrMissingDir = errors.New("directory not configured")

// Config holds all configuration for a generation run
type Config struct {
	// Route trees
	OriginDir    string
	LocalizedDir string
	Locales      []string
	ManifestPath string

	// Templates
	TemplateDir       string
	TemplateCacheSize int

	// Snapshot persistence
	StateBackend string
	// StateFile is the JSON snapshot file of the file backend; empty means
	// DefaultStateFile(LocalizedDir)
	StateFile    string
	CharmHost    string
	CharmDBName  string
	AutoSync     bool

	// Watch mode
	WatchDebounce time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		OriginDir:         getEnv("ROUTEGEN_ORIGIN_DIR", filepath.Join("src", "_app")),
		LocalizedDir:      getEnv("ROUTEGEN_LOCALIZED_DIR", filepath.Join("src", "app")),
		Locales:           getEnvList("ROUTEGEN_LOCALES", []string{"en"}),
		ManifestPath:      getEnv("ROUTEGEN_MANIFEST", "routes.yaml"),
		TemplateDir:       os.Getenv("ROUTEGEN_TEMPLATE_DIR"),
		TemplateCacheSize: getEnvInt("ROUTEGEN_TEMPLATE_CACHE", 32),
		StateBackend:      getEnv("ROUTEGEN_STATE_BACKEND", BackendFile),
		StateFile:         os.Getenv("ROUTEGEN_STATE_FILE"),
		CharmHost:         getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:       getEnv("CHARM_DB", "routegen"),
		AutoSync:          getEnvBool("CHARM_AUTO_SYNC", false),
		WatchDebounce:     time.Duration(getEnvInt("ROUTEGEN_WATCH_DEBOUNCE_MS", 100)) * time.Millisecond,
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.OriginDir) == "" {
		return fmt.Errorf("ROUTEGEN_ORIGIN_DIR: %w", ErrMissingDir)
	}
	if strings.TrimSpace(c.LocalizedDir) == "" {
		return fmt.Errorf("ROUTEGEN_LOCALIZED_DIR: %w", ErrMissingDir)
	}
	if filepath.Clean(c.OriginDir) == filepath.Clean(c.LocalizedDir) {
		return fmt.Errorf("origin and localized dirs must differ, both are %s", c.OriginDir)
	}
	if len(c.Locales) == 0 {
		return fmt.Errorf("ROUTEGEN_LOCALES must list at least one locale")
	}
	seen := make(map[string]bool, len(c.Locales))
	for _, l := range c.Locales {
		if seen[l] {
			return fmt.Errorf("ROUTEGEN_LOCALES lists %q twice", l)
		}
		seen[l] = true
	}
	switch c.StateBackend {
	case BackendFile, BackendMemory, BackendCharm:
	default:
		return fmt.Errorf("ROUTEGEN_STATE_BACKEND must be %q, %q, or %q, got %q", BackendFile, BackendMemory, BackendCharm, c.StateBackend)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("ROUTEGEN_WATCH_DEBOUNCE_MS must not be negative, got %s", c.WatchDebounce)
	}
	if c.TemplateCacheSize < 1 || c.TemplateCacheSize > 1024 {
		return fmt.Errorf("ROUTEGEN_TEMPLATE_CACHE must be 1-1024, got %d", c.TemplateCacheSize)
	}
	return nil
}

// DefaultStateFile places the snapshot next to the localized tree, outside
// it, so passes never sweep it
func DefaultStateFile(localizedDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(localizedDir)), ".routegen", "snapshot.json")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated value, dropping blanks
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return SplitList(v)
}

// SplitList splits a comma-separated list, trimming entries and dropping blanks
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
