package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ossyrian/carc/internal/archive"
	"github.com/ossyrian/carc/internal/container"
	"github.com/ossyrian/carc/internal/errdefs"
	"github.com/ossyrian/carc/internal/fileaccess"
)

// ExtractResult lists what Extract did with each entry, by relative path.
type ExtractResult struct {
	Extracted []string
	// Skipped holds entries whose destination already existed.
	Skipped []string
}

// Extract recreates the archived files under destinationDir. Existing files
// are never overwritten. Empty folders recorded in the archive are not
// recreated.
func (e *Engine) Extract(archivePath, destinationDir string) (res ExtractResult, err error) {
	if err := RequireFile("archive path", archivePath); err != nil {
		return res, err
	}
	if err := RequirePath("destination directory", destinationDir); err != nil {
		return res, err
	}

	a, err := e.Retrieve(archivePath)
	if err != nil {
		return res, err
	}

	logger := e.logger.With("archive", archivePath)
	logger.Info("extracting archive", "destination", destinationDir, "files", a.FileCount)

	f, err := e.opener.Acquire(archivePath, fileaccess.OpenExisting, fileaccess.Read)
	if err != nil {
		return res, err
	}
	defer closeFile(f, &err)

	if _, err := f.Seek(container.HeaderSize, io.SeekStart); err != nil {
		return res, fmt.Errorf("failed to seek past header: %w", err)
	}
	r := bufio.NewReaderSize(f, bufferSize)

	for _, entry := range a.Files {
		stored := entry.StoredSize(a.CompressionEnabled)

		dst, err := destinationPath(destinationDir, entry)
		if err != nil {
			return res, &errdefs.FormatError{Path: archivePath, Err: err}
		}

		if _, err := os.Lstat(dst); err == nil {
			logger.Info("skipping existing file", "path", dst)
			if err := container.SkipPayload(r, stored); err != nil {
				return res, err
			}
			res.Skipped = append(res.Skipped, entry.RelativePath)
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("failed to stat %s: %w", dst, err)
		}

		logger.Info("extracting file", "name", entry.Name, "path", dst)
		if err := e.extractFile(r, dst, entry, a.CompressionEnabled, logger); err != nil {
			return res, err
		}
		res.Extracted = append(res.Extracted, entry.RelativePath)
	}

	logger.Info("extracted archive", "extracted", len(res.Extracted), "skipped", len(res.Skipped))
	return res, nil
}

func (e *Engine) extractFile(r io.Reader, dst string, entry archive.FileEntry, compressed bool, logger *slog.Logger) (err error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	out, err := e.opener.Acquire(dst, fileaccess.CreateNew, fileaccess.Write)
	if err != nil {
		return err
	}
	defer closeFile(out, &err)

	w := bufio.NewWriterSize(out, bufferSize)
	n, err := container.ReadPayload(r, w, entry.StoredSize(compressed), compressed)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", entry.RelativePath, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}

	if n != entry.UncompressedSize {
		logger.Warn("extracted size differs from the recorded size",
			"relative_path", entry.RelativePath,
			"written", n,
			"recorded", entry.UncompressedSize,
		)
	}
	return nil
}

// destinationPath joins the entry's relative path onto dir, rejecting
// paths that would land outside dir.
func destinationPath(dir string, entry archive.FileEntry) (string, error) {
	rel := filepath.FromSlash(entry.RelativePath)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("entry %q escapes the destination directory", entry.RelativePath)
	}
	return filepath.Join(dir, rel), nil
}
