// Package archive holds the metadata model of an archive: its settings,
// totals, folder set and ordered file list.
package archive

import (
	"slices"
	"time"
)

// FileEntry describes one archived file.
type FileEntry struct {
	// Name is the base name of the file, including its extension.
	Name string `cbor:"name"`
	// RelativePath is slash-separated and relative to the archive root.
	// It is unique within an Archive.
	RelativePath     string `cbor:"relative_path"`
	UncompressedSize int64  `cbor:"uncompressed_size"`
	// CompressedSize is only meaningful when the archive has compression
	// enabled.
	CompressedSize int64 `cbor:"compressed_size"`
	// Digest is the BLAKE3-256 sum of the uncompressed content.
	Digest []byte `cbor:"digest,omitempty"`

	// SourcePath is the file on disk during create and append. It is not
	// persisted.
	SourcePath string `cbor:"-"`
}

// StoredSize is the number of payload bytes the entry occupies.
func (f FileEntry) StoredSize(compressed bool) int64 {
	if compressed {
		return f.CompressedSize
	}
	return f.UncompressedSize
}

// Archive is the metadata of one archive file.
//
// Files is ordered: payloads are stored in exactly this order and there is
// no offset table, so readers walk Files to locate each payload.
type Archive struct {
	CreationDate       time.Time   `cbor:"creation_date"`
	CompressionEnabled bool        `cbor:"compression_enabled"`
	FileCount          int         `cbor:"file_count"`
	TotalStoredSize    int64       `cbor:"total_stored_size"`
	Folders            []string    `cbor:"folders"`
	Files              []FileEntry `cbor:"files"`
}

// New returns an empty Archive created at the given time. The creation date
// is stored in UTC.
func New(created time.Time, compression bool) Archive {
	return Archive{
		CreationDate:       created.UTC(),
		CompressionEnabled: compression,
		Folders:            []string{},
		Files:              []FileEntry{},
	}
}

// HasFile reports whether an entry with relativePath exists.
func (a Archive) HasFile(relativePath string) bool {
	return slices.ContainsFunc(a.Files, func(f FileEntry) bool {
		return f.RelativePath == relativePath
	})
}

// HasFolder reports whether relativePath is in the folder set.
func (a Archive) HasFolder(relativePath string) bool {
	return slices.Contains(a.Folders, relativePath)
}

// Merge returns a copy of a extended with the folders and files of s that a
// does not already hold. The first entry for a relative path wins, so
// merging an unchanged tree adds nothing.
//
// The returned index is where the added files begin in the new Files slice:
// result.Files[start:] are exactly the entries whose payloads still need to
// be written.
func (a Archive) Merge(s Scan) (result Archive, start int) {
	result = a
	result.Folders = slices.Clone(a.Folders)
	result.Files = slices.Clone(a.Files)
	if result.Folders == nil {
		result.Folders = []string{}
	}
	if result.Files == nil {
		result.Files = []FileEntry{}
	}
	start = len(result.Files)

	for _, f := range s.Folders {
		if !result.HasFolder(f) {
			result.Folders = append(result.Folders, f)
		}
	}
	for _, f := range s.Files {
		if !result.HasFile(f.RelativePath) {
			result.Files = append(result.Files, f)
		}
	}

	return result, start
}

// Recount sets FileCount and TotalStoredSize from Files.
func (a *Archive) Recount() {
	a.FileCount = len(a.Files)
	a.TotalStoredSize = 0
	for _, f := range a.Files {
		a.TotalStoredSize += f.StoredSize(a.CompressionEnabled)
	}
}

// Names returns the file names in archive order.
func (a Archive) Names() []string {
	names := make([]string, len(a.Files))
	for i, f := range a.Files {
		names[i] = f.Name
	}
	return names
}
