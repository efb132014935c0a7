package container

import (
	"fmt"
	"io"

	"github.com/ossyrian/carc/internal/archive"
	"github.com/ossyrian/carc/internal/codec"
)

// WriteMetadata encodes a at the current position of ws and then
// backpatches the header to point at it. It returns the offset of the
// block and the offset just past it, and leaves ws positioned at end.
func WriteMetadata(ws io.WriteSeeker, a archive.Archive) (offset, end int64, err error) {
	offset, err = ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get metadata position: %w", err)
	}
	if offset < HeaderSize {
		return 0, 0, fmt.Errorf("invalid metadata position %d: inside the header", offset)
	}

	data, err := codec.Marshal(a)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to encode metadata: %w", err)
	}
	if _, err := ws.Write(data); err != nil {
		return 0, 0, fmt.Errorf("failed to write metadata: %w", err)
	}
	end = offset + int64(len(data))

	if err := WriteHeader(ws, uint64(offset)); err != nil {
		return 0, 0, err
	}
	if _, err := ws.Seek(end, io.SeekStart); err != nil {
		return 0, 0, fmt.Errorf("failed to seek past metadata: %w", err)
	}

	return offset, end, nil
}

// ReadMetadata reads the header of rs, a file of the given size, and
// decodes the metadata block it points to.
func ReadMetadata(rs io.ReadSeeker, size int64) (archive.Archive, Header, error) {
	if size < HeaderSize {
		return archive.Archive{}, Header{}, fmt.Errorf("file is %d bytes, too short for a header", size)
	}

	h, err := ReadHeader(rs)
	if err != nil {
		return archive.Archive{}, h, err
	}
	if err := h.Validate(size); err != nil {
		return archive.Archive{}, h, err
	}

	if _, err := rs.Seek(int64(h.MetadataOffset), io.SeekStart); err != nil {
		return archive.Archive{}, h, fmt.Errorf("failed to seek to metadata at offset %d: %w", h.MetadataOffset, err)
	}

	var a archive.Archive
	dec := codec.NewDecoder(io.LimitReader(rs, size-int64(h.MetadataOffset)))
	if err := dec.Decode(&a); err != nil {
		return archive.Archive{}, h, fmt.Errorf("failed to decode metadata at offset %d: %w", h.MetadataOffset, err)
	}

	if err := checkConsistent(a, int64(h.MetadataOffset)); err != nil {
		return archive.Archive{}, h, err
	}

	return a, h, nil
}

// checkConsistent verifies that the decoded totals agree with the file list
// and that the payloads fit between the header and the metadata block.
func checkConsistent(a archive.Archive, metadataOffset int64) error {
	if a.FileCount != len(a.Files) {
		return fmt.Errorf("metadata lists %d files but records a count of %d", len(a.Files), a.FileCount)
	}

	var total int64
	for _, f := range a.Files {
		stored := f.StoredSize(a.CompressionEnabled)
		if stored < 0 || f.UncompressedSize < 0 {
			return fmt.Errorf("negative size recorded for %s", f.RelativePath)
		}
		total += stored
	}
	if total != a.TotalStoredSize {
		return fmt.Errorf("metadata records a total of %d bytes but files sum to %d", a.TotalStoredSize, total)
	}
	if HeaderSize+total > metadataOffset {
		return fmt.Errorf("payloads of %d bytes overrun the metadata block at offset %d", total, metadataOffset)
	}
	return nil
}
