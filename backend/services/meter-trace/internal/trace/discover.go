package trace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Pattern selects trace files below the discovery root. Matching is case-sensitive.
const Pattern = "**/*.trace"

// Discover returns every file below root matching Pattern, sorted.
// An unreadable root is fatal; unreadable directories below it are logged and skipped.
func Discover(root string, logger *zap.Logger) ([]string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("trace: directory is required")
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("trace: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("trace: %s is not a directory", root)
	}
	fsys := warnFS{FS: os.DirFS(root), logger: logger}
	if _, err := fs.ReadDir(fsys.FS, "."); err != nil {
		return nil, fmt.Errorf("trace: read %s: %w", root, err)
	}

	matches, err := doublestar.Glob(fsys, Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("trace: glob %s: %w", root, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(root, filepath.FromSlash(m)))
	}
	slices.Sort(files)
	return files, nil
}

// warnFS logs directories the glob cannot read. doublestar skips them afterwards.
type warnFS struct {
	fs.FS
	logger *zap.Logger
}

func (w warnFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := fs.ReadDir(w.FS, name)
	if err != nil {
		w.logger.Warn("skipping unreadable trace path", zap.String("path", name), zap.Error(err))
	}
	return entries, err
}
