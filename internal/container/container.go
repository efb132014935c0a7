// Package container reads and writes the binary layout of an archive file:
//
//	[0, 8)        little-endian uint64: absolute offset of the metadata block
//	[8, offset)   file payloads, raw or run-length encoded, in Files order
//	[offset, EOF) the metadata block, one CBOR data item
//
// There is no per-file offset table. A payload is found by walking the
// metadata's Files list and summing stored sizes.
package container

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the length of the fixed header in bytes.
const HeaderSize = 8

// Header is the fixed header at the start of every archive file.
type Header struct {
	MetadataOffset uint64 // where the metadata block starts
}

// ReadHeader reads the header from the start of r.
func ReadHeader(r io.ReadSeeker) (Header, error) {
	var h Header

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return h, fmt.Errorf("failed to seek to header: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.MetadataOffset); err != nil {
		return h, fmt.Errorf("failed to read metadata offset: %w", err)
	}
	return h, nil
}

// WriteHeader overwrites the header at the start of w with offset. The
// position of w afterwards is HeaderSize.
func WriteHeader(w io.WriteSeeker, offset uint64) error {
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, offset); err != nil {
		return fmt.Errorf("failed to write metadata offset: %w", err)
	}
	return nil
}

// Validate checks that the metadata offset points inside a file of the
// given size and past the header.
func (h Header) Validate(size int64) error {
	if h.MetadataOffset < HeaderSize {
		return fmt.Errorf("invalid metadata offset %d: inside the header", h.MetadataOffset)
	}
	if h.MetadataOffset >= uint64(size) {
		return fmt.Errorf("invalid metadata offset %d: file is %d bytes", h.MetadataOffset, size)
	}
	return nil
}
