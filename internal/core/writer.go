// ABOUTME: Output writer materializing one localized route file
// ABOUTME: Copies copy-through routes verbatim and renders every other kind through a template
package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/routegen/internal/models"
	"github.com/harper/routegen/internal/templates"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer materializes localized route files under the localized root.
// Every filesystem error is returned to the caller.
type Writer struct {
	originDir    string
	localizedDir string
}

// NewWriter creates a writer for the given roots. Both are made absolute so
// relative imports between the two trees can be computed.
func NewWriter(originDir, localizedDir string) (*Writer, error) {
	origin, err := filepath.Abs(originDir)
	if err != nil {
		return nil, fmt.Errorf("resolving origin dir: %w", err)
	}
	localized, err := filepath.Abs(localizedDir)
	if err != nil {
		return nil, fmt.Errorf("resolving localized dir: %w", err)
	}
	return &Writer{originDir: origin, localizedDir: localized}, nil
}

// Write produces the output of route for one locale at localizedRelPath.
// compile may be nil for copy routes, which never render.
func (w *Writer) Write(route models.OriginRoute, compile templates.Compiler, locale, localizedRelPath string) error {
	originPath := filepath.Join(w.originDir, filepath.FromSlash(route.Path))
	localizedPath, err := resolveUnder(w.localizedDir, localizedRelPath)
	if err != nil {
		return err
	}
	localizedPathDir := filepath.Dir(localizedPath)

	if err := os.MkdirAll(localizedPathDir, dirPerm); err != nil {
		return fmt.Errorf("creating directory %s: %w", localizedPathDir, err)
	}

	if route.Type.IsCopy() {
		return copyFile(originPath, localizedPath)
	}

	if compile == nil {
		return fmt.Errorf("no template compiler for route %q", route.Path)
	}

	relativeFilename := route.Type.RelativeFilename(filepath.Base(originPath))
	relativeDirPath, err := filepath.Rel(localizedPathDir, filepath.Dir(originPath))
	if err != nil {
		return fmt.Errorf("relating %s to %s: %w", localizedPath, originPath, err)
	}
	relativePath := filepath.ToSlash(filepath.Join(relativeDirPath, relativeFilename))

	contents, err := compile(templates.Params{
		RouteType:    templates.PascalCase(string(route.Type)),
		RelativePath: relativePath,
		Locale:       locale,
	})
	if err != nil {
		return fmt.Errorf("compiling %s for %s: %w", route.Path, locale, err)
	}

	if err := os.WriteFile(localizedPath, []byte(contents), filePerm); err != nil {
		return fmt.Errorf("writing %s: %w", localizedPath, err)
	}
	return nil
}

// copyFile copies src to dst, truncating any existing dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}

// resolveUnder joins rel onto root and rejects results outside root
func resolveUnder(root, rel string) (string, error) {
	if err := models.ValidateRelPath(rel); err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, full)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q is outside %s", models.ErrInvalidPath, rel, root)
	}
	return full, nil
}
