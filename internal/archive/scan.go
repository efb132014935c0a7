package archive

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
)

// Scan is the result of enumerating a source directory.
type Scan struct {
	Folders []string
	Files   []FileEntry
}

// ScanDir walks root recursively in lexical order. Every subdirectory is
// recorded in Folders and every regular file in Files, both relative to
// root and slash-separated. A symlinked root is resolved first; symlinks
// and other non-regular entries below it (devices, sockets) are skipped.
func ScanDir(root string, logger *slog.Logger) (Scan, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return Scan{}, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	if resolved != root {
		logger.Debug("resolved source directory", "path", root, "resolved", resolved)
		root = resolved
	}

	s := Scan{Folders: []string{}, Files: []FileEntry{}}
	seen := make(map[string]struct{})

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			s.Folders = append(s.Folders, rel)
			return nil
		}

		if !d.Type().IsRegular() {
			logger.Debug("skipping non-regular file", "path", path, "type", d.Type().String())
			return nil
		}

		if _, ok := seen[rel]; ok {
			return nil
		}
		seen[rel] = struct{}{}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		s.Files = append(s.Files, FileEntry{
			Name:             d.Name(),
			RelativePath:     rel,
			UncompressedSize: info.Size(),
			SourcePath:       path,
		})
		return nil
	})
	if err != nil {
		return Scan{}, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return s, nil
}
