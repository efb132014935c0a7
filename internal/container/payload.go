package container

import (
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/ossyrian/carc/internal/rle"
)

// ChunkSize is the read size used when streaming payloads. It is even, so
// a compressed payload read in ChunkSize pieces always splits on a pair
// boundary.
const ChunkSize = 8192

// Payload describes one payload as written.
type Payload struct {
	Stored       int64  // bytes written to the archive
	Uncompressed int64  // bytes read from the source
	Digest       []byte // BLAKE3-256 of the uncompressed bytes
}

// WritePayload copies src to w, run-length encoding each chunk when
// compressed is set. Runs do not span chunk boundaries.
func WritePayload(w io.Writer, src io.Reader, compressed bool) (Payload, error) {
	var p Payload
	hasher := blake3.New()
	buf := make([]byte, ChunkSize)

	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			chunk := buf[:n]
			_, _ = hasher.Write(chunk)
			p.Uncompressed += int64(n)

			if compressed {
				chunk = rle.Encode(chunk)
			}
			if _, werr := w.Write(chunk); werr != nil {
				return p, fmt.Errorf("failed to write payload: %w", werr)
			}
			p.Stored += int64(len(chunk))
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return p, fmt.Errorf("failed to read source: %w", err)
		}
	}

	p.Digest = hasher.Sum(nil)
	return p, nil
}

// ReadPayload copies a payload of stored bytes from r to dst, decoding it
// when compressed is set. It returns the number of bytes written to dst.
//
// A compressed chunk of odd length decodes to nothing (see rle.Decode), so
// a corrupted payload can come out shorter than recorded without an error.
func ReadPayload(r io.Reader, dst io.Writer, stored int64, compressed bool) (int64, error) {
	var written int64
	buf := make([]byte, ChunkSize)

	for remaining := stored; remaining > 0; {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return written, fmt.Errorf("failed to read payload: %w", err)
		}
		remaining -= n

		chunk := buf[:n]
		if compressed {
			chunk = rle.Decode(chunk)
		}
		m, err := dst.Write(chunk)
		written += int64(m)
		if err != nil {
			return written, fmt.Errorf("failed to write payload: %w", err)
		}
	}

	return written, nil
}

// SkipPayload advances r past a payload of stored bytes without decoding
// it. Readers must still call it for entries they do not extract, or every
// later payload is read from the wrong position.
func SkipPayload(r io.Reader, stored int64) error {
	if _, err := io.CopyN(io.Discard, r, stored); err != nil {
		return fmt.Errorf("failed to skip payload: %w", err)
	}
	return nil
}
