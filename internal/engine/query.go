package engine

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/zeebo/blake3"

	"github.com/ossyrian/carc/internal/container"
	"github.com/ossyrian/carc/internal/fileaccess"
)

// Summary is the info view of an archive.
type Summary struct {
	CreationDate       time.Time
	CompressionEnabled bool
	FileCount          int
	TotalStoredSize    int64
	Files              []FileSummary
}

// FileSummary holds the sizes of one archived file. CompressedSize is zero
// for uncompressed archives.
type FileSummary struct {
	Name             string
	RelativePath     string
	UncompressedSize int64
	CompressedSize   int64
}

// Info returns the summary of the archive at archivePath.
func (e *Engine) Info(archivePath string) (Summary, error) {
	a, err := e.Retrieve(archivePath)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		CreationDate:       a.CreationDate,
		CompressionEnabled: a.CompressionEnabled,
		FileCount:          a.FileCount,
		TotalStoredSize:    a.TotalStoredSize,
		Files:              make([]FileSummary, len(a.Files)),
	}
	for i, f := range a.Files {
		s.Files[i] = FileSummary{
			Name:             f.Name,
			RelativePath:     f.RelativePath,
			UncompressedSize: f.UncompressedSize,
		}
		if a.CompressionEnabled {
			s.Files[i].CompressedSize = f.CompressedSize
		}
	}
	return s, nil
}

// List returns the names of the archived files in archive order.
func (e *Engine) List(archivePath string) ([]string, error) {
	a, err := e.Retrieve(archivePath)
	if err != nil {
		return nil, err
	}
	return a.Names(), nil
}

// Mismatch is an entry whose payload does not match its metadata.
type Mismatch struct {
	RelativePath string
	Reason       string
}

// VerifyResult is the outcome of Verify.
type VerifyResult struct {
	Checked    int
	Mismatches []Mismatch
}

// OK reports whether every payload matched.
func (r VerifyResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Verify decodes every payload of the archive at archivePath and compares
// its length and digest with the metadata. Nothing is written to disk.
func (e *Engine) Verify(archivePath string) (res VerifyResult, err error) {
	if err := RequireFile("archive path", archivePath); err != nil {
		return res, err
	}

	a, err := e.Retrieve(archivePath)
	if err != nil {
		return res, err
	}

	logger := e.logger.With("archive", archivePath)

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
		hasher := blake3.New()
		n, err := container.ReadPayload(r, hasher, entry.StoredSize(a.CompressionEnabled), a.CompressionEnabled)
		if err != nil {
			return res, fmt.Errorf("failed to verify %s: %w", entry.RelativePath, err)
		}
		res.Checked++

		switch {
		case n != entry.UncompressedSize:
			res.Mismatches = append(res.Mismatches, Mismatch{
				RelativePath: entry.RelativePath,
				Reason:       fmt.Sprintf("decoded %d bytes, recorded %d", n, entry.UncompressedSize),
			})
		case len(entry.Digest) > 0 && !bytes.Equal(hasher.Sum(nil), entry.Digest):
			res.Mismatches = append(res.Mismatches, Mismatch{
				RelativePath: entry.RelativePath,
				Reason:       "digest mismatch",
			})
		default:
			logger.Info("verified file", "relative_path", entry.RelativePath)
			continue
		}
		logger.Warn("file failed verification", "relative_path", entry.RelativePath)
	}

	return res, nil
}
