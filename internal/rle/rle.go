// Package rle implements the byte-oriented run-length encoding used for
// compressed archive payloads.
//
// An encoded stream is a sequence of 2-byte pairs:
//
//	[count(1..255)][value]
//
// Runs longer than MaxRun are split into several pairs.
package rle

// MaxRun is the longest run a single pair can describe.
const MaxRun = 255

// Encode returns the run-length encoding of data.
// Empty input is returned unchanged.
func Encode(data []byte) []byte {
	if len(data) == 0 {
		return data
	}

	out := make([]byte, 0, len(data)/2+2)
	for i := 0; i < len(data); {
		value := data[i]
		n := 1
		for i+n < len(data) && n < MaxRun && data[i+n] == value {
			n++
		}
		out = append(out, byte(n), value)
		i += n
	}
	return out
}

// Decode expands a sequence of (count, value) pairs.
//
// Empty or odd-length input yields an empty result rather than an error,
// which means truncated payloads surface as short files on extraction.
func Decode(pairs []byte) []byte {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return []byte{}
	}

	size := 0
	for i := 0; i < len(pairs); i += 2 {
		size += int(pairs[i])
	}

	out := make([]byte, 0, size)
	for i := 0; i < len(pairs); i += 2 {
		for j := 0; j < int(pairs[i]); j++ {
			out = append(out, pairs[i+1])
		}
	}
	return out
}
