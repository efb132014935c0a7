// Package engine implements the archive operations: create, append,
// extract, retrieve, and the info, list and verify projections.
//
// Every file is opened through a fileaccess.Opener, so every open is
// exclusive and retried under the configured policy. Payloads are written
// and read strictly in Archive.Files order.
package engine

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ossyrian/carc/internal/archive"
	"github.com/ossyrian/carc/internal/clock"
	"github.com/ossyrian/carc/internal/container"
	"github.com/ossyrian/carc/internal/errdefs"
	"github.com/ossyrian/carc/internal/fileaccess"
)

const bufferSize = 64 * 1024

// Options configures an Engine.
type Options struct {
	// Compression selects run-length encoding for new archives and must
	// match the archive's setting on append.
	Compression bool
	Retry       fileaccess.RetryPolicy

	// Clock defaults to the real clock.
	Clock clock.Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine runs archive operations. It holds no per-archive state, so one
// Engine can serve any number of sequential calls.
type Engine struct {
	compression bool
	opener      *fileaccess.Opener
	clock       clock.Clock
	logger      *slog.Logger
}

// New validates opts and returns an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	opener, err := fileaccess.NewOpener(opts.Retry, opts.Clock, opts.Logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		compression: opts.Compression,
		opener:      opener,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}, nil
}

// Create archives every file under sourceDir into a new file at
// archivePath. archivePath must not exist.
func (e *Engine) Create(sourceDir, archivePath string) (a archive.Archive, err error) {
	if err := RequireDir("source directory", sourceDir); err != nil {
		return archive.Archive{}, err
	}
	if err := RequireAbsent("archive path", archivePath); err != nil {
		return archive.Archive{}, err
	}

	logger := e.logger.With("archive", archivePath)
	logger.Info("creating archive", "source", sourceDir, "compression", e.compression)

	scan, err := archive.ScanDir(sourceDir, logger)
	if err != nil {
		return archive.Archive{}, err
	}
	a, start := archive.New(e.clock.Now(), e.compression).Merge(scan)

	f, err := e.opener.Acquire(archivePath, fileaccess.CreateNew, fileaccess.ReadWrite)
	if err != nil {
		return archive.Archive{}, err
	}
	defer closeFile(f, &err)

	// reserve the header; it is backpatched once the metadata is written
	if err := container.WriteHeader(f, 0); err != nil {
		return archive.Archive{}, err
	}

	if a, err = e.writeFrom(f, a, start, logger); err != nil {
		return archive.Archive{}, err
	}

	logger.Info("created archive", "files", a.FileCount, "folders", len(a.Folders), "stored_size", a.TotalStoredSize)
	return a, nil
}

// Append adds the files under sourceDir that the archive at archivePath
// does not already hold. The new payloads overwrite the old metadata block
// and a new block describing the whole archive follows them.
func (e *Engine) Append(archivePath, sourceDir string) (a archive.Archive, err error) {
	if err := RequireFile("archive path", archivePath); err != nil {
		return archive.Archive{}, err
	}
	if err := RequireDir("source directory", sourceDir); err != nil {
		return archive.Archive{}, err
	}

	logger := e.logger.With("archive", archivePath)

	existing, err := e.Retrieve(archivePath)
	if err != nil {
		return archive.Archive{}, err
	}
	if existing.CompressionEnabled != e.compression {
		return archive.Archive{}, &errdefs.ValidationError{
			Field: "compression",
			Value: e.compression,
			Reason: fmt.Sprintf("cannot use a run-length-encoding setting different to the one set in the archive (%t)",
				existing.CompressionEnabled),
			Err: errdefs.ErrCompressionMismatch,
		}
	}

	logger.Info("appending to archive", "source", sourceDir)

	scan, err := archive.ScanDir(sourceDir, logger)
	if err != nil {
		return archive.Archive{}, err
	}
	a, start := existing.Merge(scan)

	f, err := e.opener.Acquire(archivePath, fileaccess.OpenExisting, fileaccess.ReadWrite)
	if err != nil {
		return archive.Archive{}, err
	}
	defer closeFile(f, &err)

	h, err := container.ReadHeader(f)
	if err != nil {
		return archive.Archive{}, &errdefs.FormatError{Path: archivePath, Err: err}
	}
	if _, err := f.Seek(int64(h.MetadataOffset), io.SeekStart); err != nil {
		return archive.Archive{}, fmt.Errorf("failed to seek to metadata at offset %d: %w", h.MetadataOffset, err)
	}

	if a, err = e.writeFrom(f, a, start, logger); err != nil {
		return archive.Archive{}, err
	}

	logger.Info("appended to archive", "added_files", len(a.Files)-start, "files", a.FileCount, "stored_size", a.TotalStoredSize)
	return a, nil
}

// writeFrom streams the payloads of a.Files[start:] to f at its current
// position, then writes the metadata block, backpatches the header and
// truncates whatever followed the old block.
func (e *Engine) writeFrom(f *os.File, a archive.Archive, start int, logger *slog.Logger) (archive.Archive, error) {
	w := bufio.NewWriterSize(f, bufferSize)

	for i := start; i < len(a.Files); i++ {
		if err := e.archiveFile(w, &a.Files[i], a.CompressionEnabled, logger); err != nil {
			return archive.Archive{}, err
		}
	}
	if err := w.Flush(); err != nil {
		return archive.Archive{}, fmt.Errorf("failed to flush payloads: %w", err)
	}

	a.Recount()

	_, end, err := container.WriteMetadata(f, a)
	if err != nil {
		return archive.Archive{}, err
	}
	if err := f.Truncate(end); err != nil {
		return archive.Archive{}, fmt.Errorf("failed to truncate archive at %d: %w", end, err)
	}
	if err := f.Sync(); err != nil {
		return archive.Archive{}, fmt.Errorf("failed to sync archive: %w", err)
	}

	return a, nil
}

// archiveFile writes the payload of one entry and records its sizes and
// digest.
func (e *Engine) archiveFile(w io.Writer, entry *archive.FileEntry, compressed bool, logger *slog.Logger) (err error) {
	if compressed {
		logger.Info("archiving run-length-encoded file", "path", entry.SourcePath)
	} else {
		logger.Info("archiving uncompressed file", "path", entry.SourcePath)
	}

	src, err := e.opener.Acquire(entry.SourcePath, fileaccess.OpenExisting, fileaccess.Read)
	if err != nil {
		return err
	}
	defer closeFile(src, &err)

	p, err := container.WritePayload(w, src, compressed)
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", entry.RelativePath, err)
	}

	entry.UncompressedSize = p.Uncompressed
	entry.Digest = p.Digest
	if compressed {
		entry.CompressedSize = p.Stored
	}

	logger.Debug("archived file",
		"relative_path", entry.RelativePath,
		"uncompressed_size", entry.UncompressedSize,
		"stored_size", p.Stored,
	)
	return nil
}

// Retrieve reads the metadata of the archive at archivePath. It never
// modifies the file. Every failure to open or parse the archive is
// returned as an *errdefs.FormatError.
func (e *Engine) Retrieve(archivePath string) (a archive.Archive, err error) {
	if err := RequirePath("archive path", archivePath); err != nil {
		return archive.Archive{}, err
	}

	f, err := e.opener.Acquire(archivePath, fileaccess.OpenExisting, fileaccess.Read)
	if err != nil {
		return archive.Archive{}, &errdefs.FormatError{Path: archivePath, Err: err}
	}
	defer closeFile(f, &err)

	st, err := f.Stat()
	if err != nil {
		return archive.Archive{}, &errdefs.FormatError{Path: archivePath, Err: err}
	}

	a, h, err := container.ReadMetadata(f, st.Size())
	if err != nil {
		return archive.Archive{}, &errdefs.FormatError{Path: archivePath, Err: err}
	}

	e.logger.Debug("read archive metadata",
		"archive", archivePath,
		"metadata_offset", h.MetadataOffset,
		"files", a.FileCount,
		"compression", a.CompressionEnabled,
	)
	return a, nil
}

// closeFile closes f and reports the error through errp unless an earlier
// error is already set.
func closeFile(f *os.File, errp *error) {
	if cerr := f.Close(); cerr != nil && *errp == nil {
		*errp = fmt.Errorf("failed to close %s: %w", f.Name(), cerr)
	}
}
